package caret

import (
	"errors"

	"github.com/mattn/go-runewidth"
)

var (
	// ErrNoGeometry is returned when a control cannot describe its layout.
	ErrNoGeometry = errors.New("caret: control has no layout geometry")
	// ErrBadLayout is returned for layouts that cannot place a cell.
	ErrBadLayout = errors.New("caret: layout has no usable cell size")
)

const defaultTabWidth = 8

// Layout describes how a control lays out its text on a cell grid.
type Layout struct {
	Columns     int     `msgpack:"cols" toml:"columns"`
	CellWidth   float64 `msgpack:"cw" toml:"cell_width"`
	CellHeight  float64 `msgpack:"ch" toml:"cell_height"`
	PaddingTop  float64 `msgpack:"pt" toml:"padding_top"`
	PaddingLeft float64 `msgpack:"pl" toml:"padding_left"`
	ScrollTop   float64 `msgpack:"st" toml:"-"`
	ScrollLeft  float64 `msgpack:"sl" toml:"-"`
	TabWidth    int     `msgpack:"tab" toml:"tab_width"`
	Wrap        bool    `msgpack:"wrap" toml:"wrap"`
}

// Geometry is implemented by controls that can describe their layout.
type Geometry interface {
	Layout() Layout
}

// Measurer converts a rune index of text into coordinates within ctl.
type Measurer interface {
	Measure(ctl Control, text string, index int) (Point, error)
}

// GridMeasurer measures by laying the text out in a mirror grid sized like
// the control. Cell widths come from go-runewidth, so East Asian wide runes
// occupy two columns.
type GridMeasurer struct {
	// EastAsian treats ambiguous-width runes as wide.
	EastAsian bool
}

// Measure implements Measurer.
func (g GridMeasurer) Measure(ctl Control, text string, index int) (Point, error) {
	geo, ok := ctl.(Geometry)
	if !ok {
		return Point{}, ErrNoGeometry
	}
	layout := geo.Layout()
	if layout.CellWidth <= 0 || layout.CellHeight <= 0 || (layout.Wrap && layout.Columns <= 0) {
		return Point{}, ErrBadLayout
	}

	runes := []rune(text)
	index = clamp(index, 0, len(runes))

	m := newMirror(layout, g.EastAsian)
	for _, r := range runes[:index] {
		m.advance(r)
	}
	next := ' '
	if index < len(runes) {
		next = runes[index]
	}
	m.place(next)

	return Point{
		Top:  layout.PaddingTop + float64(m.row)*layout.CellHeight - layout.ScrollTop,
		Left: layout.PaddingLeft + float64(m.col)*layout.CellWidth - layout.ScrollLeft,
	}, nil
}

// mirror is a throwaway grid cursor that follows the control's wrapping rules.
type mirror struct {
	cond    *runewidth.Condition
	columns int
	tab     int
	wrap    bool
	row     int
	col     int
}

func newMirror(l Layout, eastAsian bool) *mirror {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = eastAsian
	tab := l.TabWidth
	if tab <= 0 {
		tab = defaultTabWidth
	}
	return &mirror{cond: cond, columns: l.Columns, tab: tab, wrap: l.Wrap}
}

func (m *mirror) width(r rune) int {
	if r == '\t' {
		return m.tab - m.col%m.tab
	}
	return m.cond.RuneWidth(r)
}

// place wraps before r if r would not fit on the current row.
func (m *mirror) place(r rune) {
	if r == '\n' || !m.wrap {
		return
	}
	if m.col > 0 && m.col+max(m.width(r), 1) > m.columns {
		m.row++
		m.col = 0
	}
}

func (m *mirror) advance(r rune) {
	if r == '\n' {
		m.row++
		m.col = 0
		return
	}
	m.place(r)
	m.col += m.width(r)
}
