package trigger

import (
	"slices"
	"strings"
	"time"

	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/dlclark/regexp2"
)

const patternTimeout = 50 * time.Millisecond

// Options tunes a Matcher.
type Options struct {
	// Pattern constrains the characters of a mention fragment. It is an
	// ECMAScript regular expression so hosts can reuse browser patterns.
	// Empty means DefaultPattern.
	Pattern string
	// MatchAnyPosition accepts candidates containing the typed text anywhere
	// instead of only as a prefix.
	MatchAnyPosition bool
	TieBreak         TieBreak
}

type compiledSpec struct {
	Spec
	token []rune
	// validates is set when the token itself satisfies the pattern, in which
	// case the token is part of the scanned fragment.
	validates bool
}

// Matcher is a compiled trigger configuration. It holds no per-keystroke
// state and may be shared by engines on the same goroutine.
type Matcher struct {
	specs    []compiledSpec
	source   Source
	validate func(string) bool
	matchAny bool
	tieBreak TieBreak
}

// NewMatcher sorts specs by token and compiles the validation pattern. An
// invalid pattern is logged and replaced by one that accepts everything.
func NewMatcher(specs []Spec, source Source, opts Options) *Matcher {
	m := &Matcher{
		source:   source,
		validate: compilePattern(opts.Pattern),
		matchAny: opts.MatchAnyPosition,
		tieBreak: opts.TieBreak,
	}

	sorted := slices.Clone(specs)
	slices.SortStableFunc(sorted, func(a, b Spec) int {
		return strings.Compare(a.Token, b.Token)
	})
	for _, s := range sorted {
		m.specs = append(m.specs, compiledSpec{
			Spec:      s,
			token:     []rune(s.Token),
			validates: s.Token != "" && m.validate(s.Token),
		})
	}
	return m
}

func compilePattern(pattern string) func(string) bool {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		log.Warnf("Invalid validation pattern %q: %v. Accepting any fragment.", pattern, err)
		return func(string) bool { return true }
	}
	re.MatchTimeout = patternTimeout
	return func(s string) bool {
		ok, err := re.MatchString(s)
		if err != nil {
			log.Debugf("Validation pattern failed on %q: %v", s, err)
			return false
		}
		return ok
	}
}

// Triggers returns the configured specs in evaluation order.
func (m *Matcher) Triggers() []Spec {
	out := make([]Spec, len(m.specs))
	for i, s := range m.specs {
		out[i] = s.Spec
	}
	return out
}

// WithSource returns a copy of m reading candidates from source.
func (m *Matcher) WithSource(source Source) *Matcher {
	cp := *m
	cp.source = source
	return &cp
}

// Find returns the active match at caret, or nil.
func (m *Matcher) Find(text string, caret int) *Match {
	if m == nil || m.source == nil {
		return nil
	}
	runes := []rune(text)
	if caret > len(runes) {
		caret = len(runes)
	}
	if caret <= 0 {
		return nil
	}

	var result *Match
	for i := range m.specs {
		s := &m.specs[i]
		if _, ok := m.source.Candidates(s.Token); !ok {
			continue
		}
		start, ok := m.scan(runes, caret, s)
		if !ok {
			continue
		}
		typed := string(runes[start:caret])
		result = &Match{
			Trigger:    s.Token,
			Start:      start,
			Length:     caret - start,
			Candidates: m.filter(s.Token, typed),
		}
		if m.tieBreak == FirstTrigger {
			return result
		}
	}
	return result
}

// scan walks left from the caret and returns where the typed fragment for s
// begins. For non-empty tokens the furthest consistent trigger wins.
func (m *Matcher) scan(runes []rune, caret int, s *compiledSpec) (int, bool) {
	n := len(s.token)
	found := -1

	for i := caret - 1; i >= 0; i-- {
		valid := m.validate(string(runes[i:caret]))

		if n == 0 {
			if valid && i > 0 {
				continue
			}
			start := i + 1
			if valid {
				start = 0
			}
			if start == caret {
				return 0, false
			}
			return start, true
		}

		idx := i - n + 1
		if s.validates {
			idx = i
		}
		if idx < 0 {
			break
		}
		start := -1
		if m.isTrigger(runes, idx, s) && idx+n <= caret {
			start = idx + n
		}
		if !valid && start < 0 {
			break
		}
		if start >= 0 {
			found = start
		}
	}
	return found, found >= 0
}

func (m *Matcher) isTrigger(runes []rune, idx int, s *compiledSpec) bool {
	n := len(s.token)
	if idx+n > len(runes) {
		return false
	}
	if s.WholeWord && idx > 0 && utils.IsWordChar(runes[idx-1]) {
		return false
	}
	return utils.RunesEqual(runes[idx:idx+n], s.token, s.CaseInsensitive)
}

// filter keeps the candidates of token that contain typed, case-insensitively.
// Only prefix hits count unless MatchAnyPosition is set.
func (m *Matcher) filter(token, typed string) []string {
	if !m.matchAny {
		if ps, ok := m.source.(PrefixSource); ok {
			out, _ := ps.CandidatesWithPrefix(token, typed)
			return out
		}
	}
	all, _ := m.source.Candidates(token)
	out := make([]string, 0, len(all))
	for _, c := range all {
		var hit bool
		if m.matchAny {
			hit = utils.StringContainsIgnoreCase(c, typed)
		} else {
			hit = utils.HasPrefixIgnoreCase(c, typed)
		}
		if hit {
			out = append(out, c)
		}
	}
	return out
}

// FindActiveMatch is the one-shot form of NewMatcher(...).Find(text, caret)
// with the default tie break.
func FindActiveMatch(text string, caret int, specs []Spec, source Source, pattern string, matchAnyPosition bool) *Match {
	m := NewMatcher(specs, source, Options{Pattern: pattern, MatchAnyPosition: matchAnyPosition})
	return m.Find(text, caret)
}
