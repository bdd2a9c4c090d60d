/*
Package caret reads and moves the caret of a text control and maps caret
indexes to on-screen coordinates.

Hosts expose their widget through Control plus whichever capability it has:
SelectionControl for widgets that report rune offsets directly, or
RawRangeControl for older widgets that report raw offsets where a "\r\n"
pair counts twice. New picks a strategy once, so callers never branch on the
widget kind:

	adapter := caret.New(field, caret.GridMeasurer{})
	pos := adapter.Caret()
	pt := adapter.Coordinates(pos.End)

All offsets returned by an Adapter are rune indexes into the value with
newlines normalized to "\n". Nothing in this package panics on a nil or
incapable control; it falls back to zero values instead.
*/
package caret

import "strings"

// Range is a selection in rune offsets. Start == End for a bare caret.
type Range struct {
	Start int
	End   int
}

// Point is a position in pixels relative to the control's top-left corner.
type Point struct {
	Top  float64 `msgpack:"top"`
	Left float64 `msgpack:"left"`
}

// Control is the minimal text input the adapter can work with.
type Control interface {
	Value() string
	Focus()
}

// SelectionControl reports and sets the selection in rune offsets.
type SelectionControl interface {
	Control
	SelectionRange() (start, end int)
	SetSelectionRange(start, end int)
}

// RawRangeControl reports and sets the selection in byte offsets of the raw
// value, newlines counted as stored.
type RawRangeControl interface {
	Control
	RawSelection() (start, end int)
	SelectRaw(start, end int)
}

// Adapter is the caret boundary used by the mention engine.
type Adapter interface {
	// Caret returns the current selection, {0,0} when unavailable.
	Caret() Range
	// SetCaret focuses the control and collapses the selection at pos.
	SetCaret(pos int)
	// Coordinates returns the position of the character at index.
	Coordinates(index int) Point
}

// New binds an adapter to ctl, choosing the strategy by capability.
// A nil measurer means GridMeasurer.
func New(ctl Control, m Measurer) Adapter {
	if m == nil {
		m = GridMeasurer{}
	}
	switch c := ctl.(type) {
	case nil:
		return nopStrategy{}
	case SelectionControl:
		return &selectionStrategy{ctl: c, measurer: m}
	case RawRangeControl:
		return &rawRangeStrategy{ctl: c, measurer: m}
	default:
		return nopStrategy{ctl: ctl, measurer: m}
	}
}

// NormalizeNewlines rewrites "\r\n" and lone "\r" as "\n".
func NormalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
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

func measure(m Measurer, ctl Control, index int) Point {
	if m == nil || ctl == nil {
		return Point{}
	}
	pt, err := m.Measure(ctl, NormalizeNewlines(ctl.Value()), index)
	if err != nil {
		return Point{}
	}
	return pt
}
