package mention

import (
	"unicode/utf8"

	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/trigger"
)

// Rewrite is a new value together with where the caret goes.
type Rewrite struct {
	Value string
	Caret int
}

// Commit splices candidate into buffer in place of the fragment matched by
// m, followed by spacer. The caret lands after the spacer, or one past the
// inserted text when the spacer is empty, clamped to the new value.
//
// With an empty trigger token everything before the fragment is dropped.
func Commit(buffer string, m *trigger.Match, candidate, spacer string, transform Transform) Rewrite {
	if m == nil {
		return Rewrite{Value: buffer, Caret: utf8.RuneCountInString(buffer)}
	}
	if transform == nil {
		transform = DefaultTransform
	}
	runes := []rune(buffer)

	var prefix []rune
	if m.Trigger != "" {
		prefix = runes[:clamp(m.TokenStart(), 0, len(runes))]
	}
	suffix := runes[clamp(m.End(), 0, len(runes)):]
	inserted := transform(m.Trigger, candidate)

	value := string(prefix) + inserted + spacer + string(suffix)

	advance := utf8.RuneCountInString(spacer)
	if advance == 0 {
		advance = 1
	}
	pos := len(prefix) + utf8.RuneCountInString(inserted) + advance
	return Rewrite{
		Value: value,
		Caret: min(pos, utf8.RuneCountInString(value)),
	}
}

// RemoveSpace undoes a spacer when the edit from prev to next is a single
// punctuation rune typed right after it, ending at caret: "@bob !" becomes
// "@bob! " with the caret right after the punctuation. stillMatches is asked
// whether the text before the spacer still ends in a mention.
func RemoveSpace(prev, next string, caret int, spacer string, removers utils.RuneSet, stillMatches func(text string, caret int) bool) (Rewrite, bool) {
	if spacer == "" || len(removers) == 0 || removers.HasAny(spacer) {
		return Rewrite{}, false
	}
	q := []rune(next)
	if len(q) != utf8.RuneCountInString(prev)+1 || caret < 1 || caret > len(q) {
		return Rewrite{}, false
	}
	i := caret - 1
	if string(q[:i])+string(q[caret:]) != prev {
		return Rewrite{}, false
	}

	inserted := q[i]
	if !removers.Has(inserted) {
		return Rewrite{}, false
	}
	end := i - utf8.RuneCountInString(spacer)
	if end <= 0 || string(q[end:i]) != spacer {
		return Rewrite{}, false
	}
	if stillMatches != nil && !stillMatches(string(q[:end]), end) {
		return Rewrite{}, false
	}

	value := string(q[:end]) + string(inserted) + spacer + string(q[caret:])
	return Rewrite{Value: value, Caret: end + 1}, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
