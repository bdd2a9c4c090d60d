package caret

import "unicode/utf8"

// Field is an in-memory text control. Hosts that live in another process
// (the IPC server) or draw their own widget (the debug CLI) keep a Field in
// sync with what the user sees and hand it to the adapter.
type Field struct {
	value   string
	start   int
	end     int
	layout  Layout
	focused bool
}

// NewField returns a field holding value with the caret at its end.
func NewField(value string) *Field {
	n := utf8.RuneCountInString(value)
	return &Field{value: value, start: n, end: n}
}

// Value implements Control.
func (f *Field) Value() string { return f.value }

// Focus implements Control.
func (f *Field) Focus() { f.focused = true }

// Blur drops focus.
func (f *Field) Blur() { f.focused = false }

// Focused reports whether Focus was called since the last Blur.
func (f *Field) Focused() bool { return f.focused }

// SetValue replaces the text, keeping the selection inside it.
func (f *Field) SetValue(v string) {
	f.value = v
	n := utf8.RuneCountInString(v)
	f.start = clamp(f.start, 0, n)
	f.end = clamp(f.end, f.start, n)
}

// SelectionRange implements SelectionControl.
func (f *Field) SelectionRange() (int, int) { return f.start, f.end }

// SetSelectionRange implements SelectionControl.
func (f *Field) SetSelectionRange(start, end int) {
	n := utf8.RuneCountInString(f.value)
	f.start = clamp(start, 0, n)
	f.end = clamp(end, f.start, n)
}

// Layout implements Geometry.
func (f *Field) Layout() Layout { return f.layout }

// SetLayout replaces the geometry used for measurement.
func (f *Field) SetLayout(l Layout) { f.layout = l }

// Scroll sets the scroll offsets of the field.
func (f *Field) Scroll(top, left float64) {
	f.layout.ScrollTop = top
	f.layout.ScrollLeft = left
}
