package caret

import "unicode/utf8"

// selectionStrategy drives controls with a rune-offset selection API.
type selectionStrategy struct {
	ctl      SelectionControl
	measurer Measurer
}

func (s *selectionStrategy) Caret() Range {
	start, end := s.ctl.SelectionRange()
	raw := []rune(s.ctl.Value())
	return Range{
		Start: normalizedFromRunes(raw, start),
		End:   normalizedFromRunes(raw, end),
	}
}

func (s *selectionStrategy) SetCaret(pos int) {
	raw := []rune(s.ctl.Value())
	off := runesFromNormalized(raw, pos)
	s.ctl.Focus()
	if start, end := s.ctl.SelectionRange(); start == off && end == off {
		return
	}
	s.ctl.SetSelectionRange(off, off)
}

func (s *selectionStrategy) Coordinates(index int) Point {
	return measure(s.measurer, s.ctl, index)
}

// rawRangeStrategy drives controls that only expose byte offsets of the raw
// value, the way legacy text-range widgets count "\r\n" as two units.
type rawRangeStrategy struct {
	ctl      RawRangeControl
	measurer Measurer
}

func (s *rawRangeStrategy) Caret() Range {
	start, end := s.ctl.RawSelection()
	raw := s.ctl.Value()
	return Range{
		Start: normalizedFromBytes(raw, start),
		End:   normalizedFromBytes(raw, end),
	}
}

func (s *rawRangeStrategy) SetCaret(pos int) {
	off := bytesFromNormalized(s.ctl.Value(), pos)
	s.ctl.Focus()
	if start, end := s.ctl.RawSelection(); start == off && end == off {
		return
	}
	s.ctl.SelectRaw(off, off)
}

func (s *rawRangeStrategy) Coordinates(index int) Point {
	return measure(s.measurer, s.ctl, index)
}

// nopStrategy serves absent controls and controls without a selection API.
type nopStrategy struct {
	ctl      Control
	measurer Measurer
}

func (nopStrategy) Caret() Range { return Range{} }

func (s nopStrategy) SetCaret(int) {
	if s.ctl != nil {
		s.ctl.Focus()
	}
}

func (s nopStrategy) Coordinates(index int) Point {
	return measure(s.measurer, s.ctl, index)
}

// normalizedFromRunes converts a rune offset into raw to an offset into the
// newline-normalized text.
func normalizedFromRunes(raw []rune, off int) int {
	off = clamp(off, 0, len(raw))
	n := 0
	for i := 0; i < off; i++ {
		if raw[i] == '\r' && i+1 < len(raw) && raw[i+1] == '\n' {
			continue
		}
		n++
	}
	return n
}

func runesFromNormalized(raw []rune, pos int) int {
	if pos <= 0 {
		return 0
	}
	n := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\r' && i+1 < len(raw) && raw[i+1] == '\n' {
			continue
		}
		n++
		if n == pos {
			return i + 1
		}
	}
	return len(raw)
}

func normalizedFromBytes(raw string, off int) int {
	off = clamp(off, 0, len(raw))
	n := 0
	for i := 0; i < off; {
		r, size := utf8.DecodeRuneInString(raw[i:])
		if r == '\r' && i+1 < len(raw) && raw[i+1] == '\n' {
			i += size
			continue
		}
		i += size
		n++
	}
	return n
}

func bytesFromNormalized(raw string, pos int) int {
	if pos <= 0 {
		return 0
	}
	n := 0
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRuneInString(raw[i:])
		i += size
		if r == '\r' && i < len(raw) && raw[i] == '\n' {
			continue
		}
		n++
		if n == pos {
			return i
		}
	}
	return len(raw)
}
