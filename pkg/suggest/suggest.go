// Package suggest holds the candidate lists offered under each trigger.
//
// Flat and Map are plain in-memory sources. Store indexes every list in a
// patricia trie keyed by the lowercased candidate so prefix filtering is a
// subtree visit instead of a scan, and results keep insertion order.
package suggest

import (
	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/trigger"
)

// Flat is one ordered candidate list offered under every trigger.
type Flat []string

// Candidates implements trigger.Source.
func (f Flat) Candidates(string) ([]string, bool) { return f, true }

// Map holds an ordered candidate list per trigger token.
type Map map[string][]string

// Candidates implements trigger.Source.
func (m Map) Candidates(token string) ([]string, bool) {
	c, ok := m[token]
	return c, ok
}

// Layered reads lists from Top first and falls back to Base for tokens Top
// has no list for. Hosts use it to answer a request for more options without
// touching the shared store.
type Layered struct {
	Top  Map
	Base trigger.Source
}

// Candidates implements trigger.Source.
func (l Layered) Candidates(token string) ([]string, bool) {
	if c, ok := l.Top[token]; ok {
		return c, true
	}
	if l.Base == nil {
		return nil, false
	}
	return l.Base.Candidates(token)
}

// CandidatesWithPrefix implements trigger.PrefixSource, using the base's
// index when the list comes from a PrefixSource.
func (l Layered) CandidatesWithPrefix(token, typed string) ([]string, bool) {
	if c, ok := l.Top[token]; ok {
		return withPrefix(c, typed), true
	}
	if ps, ok := l.Base.(trigger.PrefixSource); ok {
		return ps.CandidatesWithPrefix(token, typed)
	}
	c, ok := l.Candidates(token)
	if !ok {
		return nil, false
	}
	return withPrefix(c, typed), true
}

func withPrefix(words []string, typed string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if utils.HasPrefixIgnoreCase(w, typed) {
			out = append(out, w)
		}
	}
	return out
}

var (
	_ trigger.Source       = Flat(nil)
	_ trigger.Source       = Map(nil)
	_ trigger.PrefixSource = Layered{}
	_ trigger.PrefixSource = (*Store)(nil)
)
