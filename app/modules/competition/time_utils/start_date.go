package competitiontime

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Clock abstracts time.Now for tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

var layouts = []string{
	time.RFC3339,
	"2006-01-02",
	"Jan 2 2006",
	"January 2 2006",
}

// StartDateParser turns organizer input into a competition start date.
type StartDateParser struct {
	parser *when.Parser
}

// NewStartDateParser builds a parser with the English and common rule sets.
func NewStartDateParser() *StartDateParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &StartDateParser{parser: w}
}

// Parse accepts an absolute date or a relative phrase such as "next saturday"
// and returns the date truncated to midnight UTC.
func (p *StartDateParser) Parse(input string, clock Clock) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("start date is empty")
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, input); err == nil {
			return midnightUTC(t), nil
		}
	}

	r, err := p.parser.Parse(strings.ToLower(input), clock.Now().UTC())
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse start date %q: %w", input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not recognize start date format: %s", input)
	}
	return midnightUTC(r.Time), nil
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
