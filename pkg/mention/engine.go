// Package mention drives a suggestion popup for one text control: it watches
// edits and key presses, keeps the popup state, and rewrites the text when a
// candidate is chosen.
package mention

import (
	"slices"
	"unicode/utf8"

	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/caret"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/charmbracelet/log"
)

// State is the popup state. A zero State is closed.
type State struct {
	Visible   bool
	Selection int
	Top       float64
	Left      float64
	Match     *trigger.Match
}

// Render is what a host needs to draw the popup.
type Render struct {
	Visible     bool     `msgpack:"visible"`
	Top         float64  `msgpack:"top"`
	Left        float64  `msgpack:"left"`
	MatchStart  int      `msgpack:"start"`
	MatchLength int      `msgpack:"len"`
	Candidates  []string `msgpack:"candidates,omitempty"`
	Selection   int      `msgpack:"selection"`
}

// valueSetter is implemented by controls the engine can write to directly,
// such as caret.Field.
type valueSetter interface {
	SetValue(string)
}

// Engine is the suggestion state machine of one control. It is not safe for
// concurrent use; hosts call it from their event loop.
type Engine struct {
	opts     Options
	ctl      caret.Control
	adapter  caret.Adapter
	matcher  *trigger.Matcher
	removers utils.RuneSet

	value string
	caret int
	state State
	// armed is set by a commit and consumed by the next change event, unless
	// that event only echoes committed.
	armed     bool
	committed Rewrite
}

// New binds an engine to ctl, reading candidates from source. ctl may be nil,
// in which case carets must be passed to OnTextChangedAt and popup
// coordinates are always zero.
func New(ctl caret.Control, source trigger.Source, opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		opts:    opts,
		ctl:     ctl,
		adapter: caret.New(ctl, opts.Measurer),
		matcher: trigger.NewMatcher(opts.Triggers, source, trigger.Options{
			Pattern:          opts.Pattern,
			MatchAnyPosition: opts.MatchAnyPosition,
			TieBreak:         opts.TieBreak,
		}),
		removers: utils.NewRuneSet(opts.SpaceRemovers),
	}
	if ctl != nil {
		e.value = caret.NormalizeNewlines(ctl.Value())
	}
	return e
}

// OnTextChanged handles a new value, reading the caret from the control.
func (e *Engine) OnTextChanged(text string) {
	e.update(text, e.adapter.Caret().End)
}

// OnTextChangedAt handles a new value with the caret given by the host.
func (e *Engine) OnTextChangedAt(text string, pos int) {
	e.update(text, pos)
}

func (e *Engine) update(text string, pos int) {
	text = caret.NormalizeNewlines(text)
	pos = clamp(pos, 0, utf8.RuneCountInString(text))

	e.value, e.caret = text, pos

	if e.armed && (text != e.committed.Value || pos != e.committed.Caret) {
		e.armed = false
		// Only a rune typed at the committed caret counts.
		if pos == e.committed.Caret+1 {
			if rw, ok := RemoveSpace(e.committed.Value, text, pos, e.opts.Spacer, e.removers, e.stillMatches); ok {
				log.Debugf("Moved %q before spacer at %d", []rune(text)[pos-1], rw.Caret-1)
				e.apply(rw)
			}
		}
	}
	e.recompute(true)
}

func (e *Engine) stillMatches(text string, pos int) bool {
	return e.matcher.Find(text, pos) != nil
}

// recompute runs the matcher at the current caret and moves the state
// machine. request controls whether OnRequestOptions may fire.
func (e *Engine) recompute(request bool) {
	m := e.matcher.Find(e.value, e.caret)
	if m == nil {
		e.close()
		return
	}

	if e.showable(m) {
		sel := 0
		if e.state.Visible && sameCandidates(e.state.Match, m) {
			sel = e.state.Selection
		}
		if sel >= visibleCount(m.Candidates, e.opts.MaxVisible) {
			sel = 0
		}
		pt := e.adapter.Coordinates(e.caret)
		e.state = State{
			Visible:   true,
			Selection: sel,
			Top:       pt.Top,
			Left:      pt.Left,
			Match:     m,
		}
	} else {
		e.close()
	}

	if request && e.opts.OnRequestOptions != nil &&
		(!e.opts.RequestOnlyIfNoOptions || len(m.Candidates) == 0) {
		typed := string([]rune(e.value)[m.Start:m.End()])
		e.opts.OnRequestOptions(m.Trigger, typed)
	}
}

// showable reports whether m is worth a popup. A lone candidate that is as
// long as the typed text has already been typed in full.
func (e *Engine) showable(m *trigger.Match) bool {
	if m.Length < e.opts.MinChars {
		return false
	}
	switch len(m.Candidates) {
	case 0:
		return false
	case 1:
		return utf8.RuneCountInString(m.Candidates[0]) != m.Length
	default:
		return true
	}
}

func sameCandidates(a, b *trigger.Match) bool {
	return a != nil && b != nil &&
		a.Trigger == b.Trigger &&
		a.Start == b.Start &&
		slices.Equal(a.Candidates, b.Candidates)
}

func visibleCount(candidates []string, limit int) int {
	if limit > 0 && len(candidates) > limit {
		return limit
	}
	return len(candidates)
}

func (e *Engine) close() {
	e.state = State{}
}

// OnKeyDown offers a key to the popup and reports whether it was consumed.
// Keys the popup does not consume go to Options.KeyHandler.
func (e *Engine) OnKeyDown(k Key) bool {
	if !e.state.Visible {
		e.forward(k)
		return false
	}

	switch k.Code {
	case KeyEscape:
		e.close()
		return true
	case KeyUp:
		e.move(-1)
		return true
	case KeyDown:
		e.move(1)
		return true
	case KeyEnter, KeyTab:
		pass := e.opts.PassThroughEnter
		if k.Code == KeyTab {
			pass = e.opts.PassThroughTab
		}
		e.commit(e.state.Selection)
		if pass {
			e.forward(k)
			return false
		}
		return true
	default:
		e.forward(k)
		return false
	}
}

func (e *Engine) forward(k Key) {
	if e.opts.KeyHandler != nil {
		e.opts.KeyHandler(k)
	}
}

func (e *Engine) move(delta int) {
	n := visibleCount(e.state.Match.Candidates, e.opts.MaxVisible)
	if n == 0 {
		e.state.Selection = 0
		return
	}
	e.state.Selection = ((e.state.Selection+delta)%n + n) % n
}

// Select highlights the visible candidate at idx. It reports false when the
// popup is closed or idx is out of range.
func (e *Engine) Select(idx int) bool {
	if !e.state.Visible || idx < 0 || idx >= len(e.visibleCandidates()) {
		return false
	}
	e.state.Selection = idx
	return true
}

// Choose commits the visible candidate at idx, as a click on the popup would.
func (e *Engine) Choose(idx int) bool {
	if !e.Select(idx) {
		return false
	}
	e.commit(idx)
	return true
}

func (e *Engine) commit(idx int) {
	cands := e.visibleCandidates()
	if len(cands) == 0 {
		e.close()
		return
	}
	if idx < 0 || idx >= len(cands) {
		idx = 0
	}
	m := e.state.Match
	rw := Commit(e.value, m, cands[idx], e.opts.Spacer, e.opts.Transform)
	log.Debugf("Committed %q for trigger %q at %d", cands[idx], m.Trigger, m.Start)

	e.close()
	e.apply(rw)
	e.armed, e.committed = true, rw
	if e.opts.OnSelect != nil {
		e.opts.OnSelect(rw.Value)
	}
}

// apply writes a rewrite back to the engine, the control and the host.
func (e *Engine) apply(rw Rewrite) {
	e.value, e.caret = rw.Value, rw.Caret
	if s, ok := e.ctl.(valueSetter); ok {
		s.SetValue(rw.Value)
	}
	if e.opts.OnChange != nil {
		e.opts.OnChange(rw.Value, rw.Caret)
	}
	e.adapter.SetCaret(rw.Caret)
}

// OnBlur closes the popup and forgets a pending space removal.
func (e *Engine) OnBlur() {
	e.close()
	e.armed = false
}

// OnResize closes the popup; its position is stale.
func (e *Engine) OnResize() { e.close() }

// OnScroll closes the popup; its position is stale.
func (e *Engine) OnScroll() { e.close() }

// SetCandidates swaps the candidate source and re-runs the matcher on the
// current value. It does not ask for more options again.
func (e *Engine) SetCandidates(source trigger.Source) {
	e.matcher = e.matcher.WithSource(source)
	e.recompute(false)
}

func (e *Engine) visibleCandidates() []string {
	if !e.state.Visible || e.state.Match == nil {
		return nil
	}
	c := e.state.Match.Candidates
	return c[:visibleCount(c, e.opts.MaxVisible)]
}

// Render returns the popup as the host should draw it.
func (e *Engine) Render() Render {
	if !e.state.Visible {
		return Render{}
	}
	m := e.state.Match
	return Render{
		Visible:     true,
		Top:         e.state.Top,
		Left:        e.state.Left,
		MatchStart:  m.Start,
		MatchLength: m.Length,
		Candidates:  slices.Clone(e.visibleCandidates()),
		Selection:   e.state.Selection,
	}
}

// State returns the current popup state.
func (e *Engine) State() State { return e.state }

// Value returns the text as the engine last saw or wrote it.
func (e *Engine) Value() string { return e.value }

// Caret returns the caret as the engine last saw or set it.
func (e *Engine) Caret() int { return e.caret }

// Armed reports whether the next change event may trigger space removal.
func (e *Engine) Armed() bool { return e.armed }
