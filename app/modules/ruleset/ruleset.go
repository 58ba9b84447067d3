package ruleset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed ruleset.yaml
var defaultDocument []byte

var (
	// ErrInvalidRuleset is returned when a ruleset document fails validation.
	ErrInvalidRuleset = errors.New("invalid ruleset")

	// ErrInvalidPosition is returned when a round position falls outside the code table.
	ErrInvalidPosition = errors.New("invalid round position")
)

// RoundCode is the canonical short identifier of a round's position and cutoff status.
type RoundCode string

// RoundCodePair holds the codes used for one table slot.
type RoundCodePair struct {
	Uncombined RoundCode `yaml:"uncombined"`
	Combined   RoundCode `yaml:"combined"`
}

// Event is a canonical event of the ruleset.
type Event struct {
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Formats []string `yaml:"formats"`
}

type document struct {
	MaxRoundsPerEvent int             `yaml:"max_rounds_per_event"`
	SupportedRounds   []RoundCodePair `yaml:"supported_rounds"`
	Events            []Event         `yaml:"events"`
}

// Ruleset is the static event table. It is read-only once constructed and safe
// for concurrent use.
type Ruleset struct {
	maxRounds       int
	supportedRounds []RoundCodePair
	events          []Event
	eventByCode     map[string]Event
}

// Default returns the ruleset embedded in the binary.
func Default() *Ruleset {
	rs, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded ruleset is invalid: %v", err))
	}
	return rs
}

// Load reads a ruleset document from path. An empty path selects the embedded default.
func Load(path string) (*Ruleset, error) {
	if path == "" {
		return Parse(defaultDocument)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML ruleset document.
func Parse(data []byte) (*Ruleset, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ruleset: %w", err)
	}

	if doc.MaxRoundsPerEvent < 1 {
		return nil, fmt.Errorf("%w: max_rounds_per_event must be positive", ErrInvalidRuleset)
	}
	if len(doc.SupportedRounds) != doc.MaxRoundsPerEvent {
		return nil, fmt.Errorf("%w: supported_rounds has %d entries, want %d",
			ErrInvalidRuleset, len(doc.SupportedRounds), doc.MaxRoundsPerEvent)
	}
	for i, pair := range doc.SupportedRounds {
		if pair.Uncombined == "" || pair.Combined == "" {
			return nil, fmt.Errorf("%w: supported_rounds[%d] is missing a code", ErrInvalidRuleset, i)
		}
	}
	if len(doc.Events) == 0 {
		return nil, fmt.Errorf("%w: no events defined", ErrInvalidRuleset)
	}

	byCode := make(map[string]Event, len(doc.Events))
	for _, e := range doc.Events {
		if e.Code == "" {
			return nil, fmt.Errorf("%w: event without code", ErrInvalidRuleset)
		}
		if _, dup := byCode[e.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate event %q", ErrInvalidRuleset, e.Code)
		}
		if len(e.Formats) == 0 {
			return nil, fmt.Errorf("%w: event %q has no formats", ErrInvalidRuleset, e.Code)
		}
		byCode[e.Code] = e
	}

	return &Ruleset{
		maxRounds:       doc.MaxRoundsPerEvent,
		supportedRounds: doc.SupportedRounds,
		events:          doc.Events,
		eventByCode:     byCode,
	}, nil
}

// MaxRoundsPerEvent is the maximum number of rounds any event may hold.
func (r *Ruleset) MaxRoundsPerEvent() int {
	return r.maxRounds
}

// Events returns the canonical events in table order.
func (r *Ruleset) Events() []Event {
	out := make([]Event, len(r.events))
	for i, e := range r.events {
		out[i] = copyEvent(e)
	}
	return out
}

// Event looks up an event by code.
func (r *Ruleset) Event(code string) (Event, bool) {
	e, ok := r.eventByCode[code]
	if !ok {
		return Event{}, false
	}
	return copyEvent(e), true
}

// IsEventRecognized reports whether code names a canonical event.
func (r *Ruleset) IsEventRecognized(code string) bool {
	_, ok := r.eventByCode[code]
	return ok
}

// DefaultFormat returns the first allowed format of an event.
func (r *Ruleset) DefaultFormat(eventCode string) (string, bool) {
	e, ok := r.eventByCode[eventCode]
	if !ok {
		return "", false
	}
	return e.Formats[0], true
}

// FormatAllowed reports whether formatCode may be used for rounds of eventCode.
func (r *Ruleset) FormatAllowed(eventCode, formatCode string) bool {
	e, ok := r.eventByCode[eventCode]
	if !ok {
		return false
	}
	for _, f := range e.Formats {
		if f == formatCode {
			return true
		}
	}
	return false
}

// SupportedRounds returns a copy of the round code table.
func (r *Ruleset) SupportedRounds() []RoundCodePair {
	out := make([]RoundCodePair, len(r.supportedRounds))
	copy(out, r.supportedRounds)
	return out
}

func copyEvent(e Event) Event {
	formats := make([]string, len(e.Formats))
	copy(formats, e.Formats)
	e.Formats = formats
	return e
}
