// Package trigger finds the mention a user is typing: given the text, the
// caret and a set of trigger tokens, it reports which trigger is active, the
// span typed since it fired and the candidates that still fit.
//
// All indexes are rune offsets.
package trigger

import (
	"fmt"
	"strings"
)

// DefaultPattern is the validation pattern applied to mention fragments.
const DefaultPattern = `^[A-Za-z0-9_-]+$`

// Spec configures one trigger token. An empty token matches wherever a run
// of valid characters begins.
type Spec struct {
	Token           string `toml:"token" msgpack:"token"`
	CaseInsensitive bool   `toml:"case_insensitive" msgpack:"ci,omitempty"`
	WholeWord       bool   `toml:"whole_word" msgpack:"ww,omitempty"`
}

// Match is the active trigger context under the caret.
type Match struct {
	Trigger    string
	Start      int // first rune of the typed fragment, after the token
	Length     int // runes typed since the trigger, up to the caret
	Candidates []string
}

// End returns the index just past the typed fragment.
func (m *Match) End() int { return m.Start + m.Length }

// TokenStart returns the index where the trigger token begins.
func (m *Match) TokenStart() int {
	return m.Start - len([]rune(m.Trigger))
}

// Source supplies candidate lists per trigger token. The bool reports
// whether the token has a list at all.
type Source interface {
	Candidates(token string) ([]string, bool)
}

// PrefixSource is a Source that can filter by case-insensitive prefix itself.
type PrefixSource interface {
	Source
	CandidatesWithPrefix(token, typed string) ([]string, bool)
}

// TieBreak decides which trigger wins when several match at once. Triggers
// are always evaluated in lexicographic token order.
type TieBreak int

const (
	// LastTrigger keeps the match of the last token in sorted order.
	LastTrigger TieBreak = iota
	// FirstTrigger keeps the match of the first token in sorted order.
	FirstTrigger
)

func (t TieBreak) String() string {
	switch t {
	case LastTrigger:
		return "last"
	case FirstTrigger:
		return "first"
	default:
		return fmt.Sprintf("TieBreak(%d)", int(t))
	}
}

// ParseTieBreak parses "last" or "first"; the empty string means LastTrigger.
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last":
		return LastTrigger, nil
	case "first":
		return FirstTrigger, nil
	}
	return LastTrigger, fmt.Errorf("unknown tie break %q", s)
}
