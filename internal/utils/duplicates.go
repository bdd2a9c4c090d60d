package utils

// DuplicateFilter drops repeated candidates while keeping first-seen order.
// Comparison is case-sensitive and the empty string is always rejected.
type DuplicateFilter struct {
	seen map[string]struct{}
}

// NewDuplicateFilter creates a filter that already rejects every word in exclude.
func NewDuplicateFilter(exclude ...string) *DuplicateFilter {
	seen := make(map[string]struct{}, len(exclude)+1)
	seen[""] = struct{}{}
	for _, w := range exclude {
		seen[w] = struct{}{}
	}
	return &DuplicateFilter{seen: seen}
}

// ShouldInclude reports whether word is new, remembering it if so.
func (f *DuplicateFilter) ShouldInclude(word string) bool {
	if _, dup := f.seen[word]; dup {
		return false
	}
	f.seen[word] = struct{}{}
	return true
}

// Unique returns words with repeats removed, first occurrence wins.
func Unique(words []string) []string {
	f := NewDuplicateFilter()
	out := make([]string, 0, len(words))
	for _, w := range words {
		if f.ShouldInclude(w) {
			out = append(out, w)
		}
	}
	return out
}
