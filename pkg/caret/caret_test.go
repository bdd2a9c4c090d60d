package caret

import (
	"testing"
)

// rawControl mimics a legacy widget that counts "\r\n" as two units and
// reports byte offsets.
type rawControl struct {
	value      string
	start, end int
	focused    int
}

func (c *rawControl) Value() string { return c.value }
func (c *rawControl) Focus() { c.focused++ }
func (c *rawControl) RawSelection() (int, int) { return c.start, c.end }
func (c *rawControl) SelectRaw(start, end int) { c.start, c.end = start, end }

type plainControl struct{ value string }

func (c plainControl) Value() string { return c.value }
func (c plainControl) Focus() {}

func TestNewPicksStrategy(t *testing.T) {
	tests := []struct {
		name string
		ctl  Control
		want string
	}{
		{"nil", nil, "nop"},
		{"field", NewField("x"), "selection"},
		{"raw", &rawControl{}, "raw"},
		{"plain", plainControl{"x"}, "nop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			switch New(tt.ctl, nil).(type) {
			case *selectionStrategy:
				got = "selection"
			case *rawRangeStrategy:
				got = "raw"
			case nopStrategy:
				got = "nop"
			}
			if got != tt.want {
				t.Errorf("New(%s) strategy = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestNilControlDegrades(t *testing.T) {
	a := New(nil, nil)
	if r := a.Caret(); r != (Range{}) {
		t.Errorf("Caret() = %+v, want zero", r)
	}
	a.SetCaret(5)
	if p := a.Coordinates(3); p != (Point{}) {
		t.Errorf("Coordinates() = %+v, want zero", p)
	}
}

func TestSelectionStrategyNormalizesNewlines(t *testing.T) {
	f := NewField("ab\r\ncd")
	a := New(f, nil)
	f.SetSelectionRange(6, 6) // after "d" counting \r\n as two runes
	if got := a.Caret(); got != (Range{5, 5}) {
		t.Errorf("Caret() = %+v, want {5 5}", got)
	}

	a.SetCaret(3) // before "c" in "ab\ncd"
	if s, e := f.SelectionRange(); s != 4 || e != 4 {
		t.Errorf("raw selection = (%d,%d), want (4,4)", s, e)
	}
	if !f.Focused() {
		t.Error("SetCaret must focus the control")
	}

	// Idempotent.
	a.SetCaret(3)
	if s, _ := f.SelectionRange(); s != 4 {
		t.Errorf("second SetCaret moved caret to %d", s)
	}
}

func TestRawRangeStrategy(t *testing.T) {
	c := &rawControl{value: "é\r\n@b"}
	a := New(c, nil)

	// bytes: é=2, \r\n=2, @=1, b=1; end of text is byte 6
	c.start, c.end = 6, 6
	if got := a.Caret(); got != (Range{4, 4}) {
		t.Errorf("Caret() = %+v, want {4 4}", got)
	}

	a.SetCaret(2) // before "@"
	if c.start != 4 || c.end != 4 {
		t.Errorf("raw selection = (%d,%d), want (4,4)", c.start, c.end)
	}
	if c.focused != 1 {
		t.Errorf("focused %d times, want 1", c.focused)
	}

	a.SetCaret(99)
	if c.start != len(c.value) {
		t.Errorf("out of range caret = %d, want %d", c.start, len(c.value))
	}
}

func TestOutOfRangeSelectionIsClamped(t *testing.T) {
	c := &rawControl{value: "abc", start: -4, end: 40}
	got := New(c, nil).Caret()
	if got != (Range{0, 3}) {
		t.Errorf("Caret() = %+v, want {0 3}", got)
	}
}

func TestNormalizeNewlines(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"a\r\nb":     "a\nb",
		"a\rb":       "a\nb",
		"a\r\n\r\nb": "a\n\nb",
		"plain":      "plain",
	}
	for in, want := range tests {
		if got := NormalizeNewlines(in); got != want {
			t.Errorf("NormalizeNewlines(%q) = %q, want %q", in, got, want)
		}
	}
}
