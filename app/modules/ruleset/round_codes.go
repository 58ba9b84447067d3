package ruleset

import "fmt"

// AssignCode maps a round's position within its event to the canonical round code.
//
// Non-final rounds use the table entry at their own position. The final round of an
// event always uses the last table entry, so "final" is recognizable no matter how
// many rounds precede it. The combined code is chosen when the round has a soft cutoff.
func (r *Ruleset) AssignCode(position int, isFinal, hasSoftCutoff bool) (RoundCode, error) {
	if position < 0 || position >= r.maxRounds {
		return "", fmt.Errorf("%w: %d (max rounds per event is %d)", ErrInvalidPosition, position, r.maxRounds)
	}

	index := position
	if isFinal {
		index = r.maxRounds - 1
	}

	pair := r.supportedRounds[index]
	if hasSoftCutoff {
		return pair.Combined, nil
	}
	return pair.Uncombined, nil
}
