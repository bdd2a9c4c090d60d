// Package cli is an interactive terminal front end for trying triggers and
// candidate lists by hand. It drives one engine through an in-memory field
// and draws the popup where the engine says it belongs.
package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/bastiangx/mentionserve/pkg/caret"
	"github.com/bastiangx/mentionserve/pkg/mention"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const (
	promptWidth = 2
	inputRow    = 2
	maxHistory  = 8
)

// InputHandler owns the screen, the edited line and its engine.
type InputHandler struct {
	screen  tcell.Screen
	field   *caret.Field
	engine  *mention.Engine
	history []string

	// pending is the event being offered to the engine; unconsumed keys come
	// back through the engine's key handler and are applied from it.
	pending      *tcell.EventKey
	requestCount int
	lastRequest  string
}

// NewInputHandler binds an engine to a fresh line. columns is where the line
// wraps. The screen must already be initialised.
func NewInputHandler(screen tcell.Screen, source trigger.Source, opts mention.Options, columns int) *InputHandler {
	h := &InputHandler{
		screen: screen,
		field:  caret.NewField(""),
	}
	h.field.SetLayout(caret.Layout{
		Columns:     columns,
		CellWidth:   1,
		CellHeight:  1,
		PaddingTop:  inputRow,
		PaddingLeft: promptWidth,
		Wrap:        columns > 0,
	})

	opts.KeyHandler = func(mention.Key) { h.edit(h.pending) }
	opts.OnRequestOptions = func(trig, typed string) {
		h.lastRequest = fmt.Sprintf("no candidates for %s%s", trig, typed)
	}
	opts.OnChange = func(value string, pos int) {
		log.Debugf("Rewrote line to %q, caret %d", value, pos)
	}
	h.engine = mention.New(h.field, source, opts)
	return h
}

// Start runs the event loop until Ctrl-C or the screen closes.
func (h *InputHandler) Start() error {
	defer h.screen.Fini()
	h.draw()
	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if quit := h.handleEvent(ev); quit {
			return nil
		}
		h.draw()
	}
}

// handleEvent applies one terminal event and reports whether to quit.
func (h *InputHandler) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		key, quit := convertKey(ev)
		if quit {
			return true
		}
		h.requestCount++
		h.lastRequest = ""
		start := time.Now()
		h.pending = ev
		handled := h.engine.OnKeyDown(key)
		h.pending = nil
		log.Debugf("Key %v handled=%v in %v", key.Code, handled, time.Since(start))
	case *tcell.EventResize:
		h.engine.OnResize()
		h.screen.Sync()
	}
	return false
}

// edit is the host's own key handling for keys the popup did not consume.
func (h *InputHandler) edit(ev *tcell.EventKey) {
	if ev == nil {
		return
	}
	runes := []rune(h.field.Value())
	pos, _ := h.field.SelectionRange()

	switch ev.Key() {
	case tcell.KeyRune:
		runes = slices.Insert(runes, pos, ev.Rune())
		pos++
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if pos == 0 {
			return
		}
		runes = slices.Delete(runes, pos-1, pos)
		pos--
	case tcell.KeyDelete:
		if pos >= len(runes) {
			return
		}
		runes = slices.Delete(runes, pos, pos+1)
	case tcell.KeyLeft:
		pos = max(pos-1, 0)
	case tcell.KeyRight:
		pos = min(pos+1, len(runes))
	case tcell.KeyHome:
		pos = 0
	case tcell.KeyEnd:
		pos = len(runes)
	case tcell.KeyEnter:
		h.submit(string(runes))
		runes, pos = nil, 0
	default:
		return
	}
	h.setLine(string(runes), pos)
}

func (h *InputHandler) setLine(value string, pos int) {
	h.field.SetValue(value)
	h.field.SetSelectionRange(pos, pos)
	h.engine.OnTextChanged(value)
}

func (h *InputHandler) submit(line string) {
	if line == "" {
		return
	}
	h.history = append(h.history, line)
	if len(h.history) > maxHistory {
		h.history = h.history[len(h.history)-maxHistory:]
	}
}

// Line returns the edited text and caret.
func (h *InputHandler) Line() (string, int) {
	pos, _ := h.field.SelectionRange()
	return h.field.Value(), pos
}

// History returns the submitted lines, oldest first.
func (h *InputHandler) History() []string { return slices.Clone(h.history) }

func (h *InputHandler) draw() {
	s := h.screen
	s.Clear()
	_, height := s.Size()

	drawText(s, 0, 0, "mentionserve: arrows pick, enter/tab commit, esc closes, ctrl-c quits", hintStyle)
	drawText(s, 0, inputRow, "> ", promptStyle)

	value, pos := h.Line()
	measure := caret.GridMeasurer{}
	for i, r := range []rune(value) {
		pt, err := measure.Measure(h.field, value, i)
		if err != nil {
			break
		}
		drawText(s, int(pt.Left), int(pt.Top), string(r), textStyle)
	}
	if pt, err := measure.Measure(h.field, value, pos); err == nil {
		s.ShowCursor(int(pt.Left), int(pt.Top))
	}

	r := h.engine.Render()
	if r.Visible {
		h.drawPopup(r)
	}

	for i, line := range h.history {
		drawText(s, 0, height-2-len(h.history)+i, "  "+line, hintStyle)
	}
	drawText(s, 0, height-1, h.status(r), statusStyle)
	s.Show()
}

func (h *InputHandler) drawPopup(r mention.Render) {
	width := 0
	for _, c := range r.Candidates {
		width = max(width, runewidth.StringWidth(c))
	}
	width += 2

	x, y := int(r.Left), int(r.Top)+1
	for i, c := range r.Candidates {
		style := popupStyle
		if i == r.Selection {
			style = selectedStyle
		}
		fill(h.screen, x, y+i, width, style)
		drawText(h.screen, x+1, y+i, c, style)
	}
}

func (h *InputHandler) status(r mention.Render) string {
	st := h.engine.State()
	switch {
	case st.Visible:
		return fmt.Sprintf("%s start=%d len=%d sel=%d/%d keys=%d",
			st.Match.Trigger, r.MatchStart, r.MatchLength, r.Selection+1, len(r.Candidates), h.requestCount)
	case h.lastRequest != "":
		return fmt.Sprintf("%s keys=%d", h.lastRequest, h.requestCount)
	default:
		return fmt.Sprintf("closed keys=%d", h.requestCount)
	}
}
