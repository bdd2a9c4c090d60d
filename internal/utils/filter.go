package utils

import "strings"

// IsWordChar reports whether r is a word character in the `\w` sense:
// ASCII letters, digits and underscore.
func IsWordChar(r rune) bool {
	return r == '_' ||
		('a' <= r && r <= 'z') ||
		('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9')
}

// RuneSet is a small membership set built from the runes of a string.
type RuneSet map[rune]struct{}

// NewRuneSet builds a set from every rune in chars.
func NewRuneSet(chars string) RuneSet {
	set := make(RuneSet, len(chars))
	for _, r := range chars {
		set[r] = struct{}{}
	}
	return set
}

// Has reports whether r is in the set
func (s RuneSet) Has(r rune) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether any rune of str is in the set.
func (s RuneSet) HasAny(str string) bool {
	return strings.ContainsFunc(str, s.Has)
}

// String returns the set members in no particular order.
func (s RuneSet) String() string {
	var b strings.Builder
	for r := range s {
		b.WriteRune(r)
	}
	return b.String()
}
