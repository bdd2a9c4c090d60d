package suggest

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// list is one trigger's candidates. The trie maps a lowercased candidate to
// the ranks (insertion positions) of every candidate folding to it.
type list struct {
	words  []string
	trie   *patricia.Trie
	filter *utils.DuplicateFilter
}

func newList() *list {
	return &list{
		trie:   patricia.NewTrie(),
		filter: utils.NewDuplicateFilter(),
	}
}

func (l *list) add(word string) bool {
	if !l.filter.ShouldInclude(word) {
		return false
	}
	rank := len(l.words)
	l.words = append(l.words, word)

	key := patricia.Prefix(strings.ToLower(word))
	if item := l.trie.Get(key); item != nil {
		l.trie.Set(key, append(item.([]int), rank))
	} else {
		l.trie.Insert(key, []int{rank})
	}
	return true
}

// Store is a set of per-trigger candidate lists safe for concurrent readers.
type Store struct {
	lists map[string]*list
	mu    sync.RWMutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{lists: make(map[string]*list)}
}

// FromMap builds a store from per-trigger lists.
func FromMap(m map[string][]string) *Store {
	s := NewStore()
	for token, words := range m {
		s.Set(token, words)
	}
	return s
}

// Add appends words to the list of token, skipping duplicates and empty
// strings. It returns how many were added.
func (s *Store) Add(token string, words ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[token]
	if !ok {
		l = newList()
		s.lists[token] = l
	}
	added := 0
	for _, w := range words {
		if l.add(w) {
			added++
		}
	}
	log.Debugf("Added %d of %d candidates under trigger %q", added, len(words), token)
	return added
}

// Set replaces the list of token.
func (s *Store) Set(token string, words []string) {
	s.mu.Lock()
	l := newList()
	for _, w := range words {
		l.add(w)
	}
	s.lists[token] = l
	s.mu.Unlock()
}

// Remove drops the list of token; the trigger then has no candidates at all.
func (s *Store) Remove(token string) {
	s.mu.Lock()
	delete(s.lists, token)
	s.mu.Unlock()
}

// Candidates implements trigger.Source.
func (s *Store) Candidates(token string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[token]
	if !ok {
		return nil, false
	}
	return slices.Clone(l.words), true
}

// CandidatesWithPrefix implements trigger.PrefixSource. Matching ignores
// case and results come back in insertion order.
func (s *Store) CandidatesWithPrefix(token, typed string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[token]
	if !ok {
		return nil, false
	}

	var ranks []int
	err := l.trie.VisitSubtree(patricia.Prefix(strings.ToLower(typed)), func(_ patricia.Prefix, item patricia.Item) error {
		ranks = append(ranks, item.([]int)...)
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting candidate trie for %q: %v", token, err)
		return []string{}, true
	}

	sort.Ints(ranks)
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = l.words[r]
	}
	return out, true
}

// Tokens returns the triggers that have a list, sorted.
func (s *Store) Tokens() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tokens := make([]string, 0, len(s.lists))
	for t := range s.lists {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// Stats reports list and candidate counts.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, l := range s.lists {
		total += len(l.words)
	}
	return map[string]int{
		"triggers":   len(s.lists),
		"candidates": total,
	}
}
