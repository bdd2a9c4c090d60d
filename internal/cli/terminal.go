package cli

import (
	"github.com/bastiangx/mentionserve/pkg/mention"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

var (
	hintStyle     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	promptStyle   = tcell.StyleDefault.Foreground(tcell.ColorTeal).Bold(true)
	textStyle     = tcell.StyleDefault
	popupStyle    = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	selectedStyle = popupStyle.Reverse(true)
	statusStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray).Dim(true)
)

// NewScreen opens the terminal screen.
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

// convertKey maps a terminal key event to the keys the engine knows. quit is
// set for Ctrl-C.
func convertKey(ev *tcell.EventKey) (key mention.Key, quit bool) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return mention.Key{}, true
	case tcell.KeyUp:
		return mention.Key{Code: mention.KeyUp}, false
	case tcell.KeyDown:
		return mention.Key{Code: mention.KeyDown}, false
	case tcell.KeyEnter:
		return mention.Key{Code: mention.KeyEnter}, false
	case tcell.KeyTab:
		return mention.Key{Code: mention.KeyTab}, false
	case tcell.KeyEscape:
		return mention.Key{Code: mention.KeyEscape}, false
	case tcell.KeyRune:
		return mention.Key{Code: mention.KeyOther, Rune: ev.Rune()}, false
	default:
		return mention.Key{Code: mention.KeyOther}, false
	}
}

// drawText writes s starting at x, y and returns the column after it.
func drawText(screen tcell.Screen, x, y int, s string, style tcell.Style) int {
	for _, r := range s {
		screen.SetContent(x, y, r, nil, style)
		x += max(runewidth.RuneWidth(r), 1)
	}
	return x
}

// fill pads the row from x to x+width with style.
func fill(screen tcell.Screen, x, y, width int, style tcell.Style) {
	for i := 0; i < width; i++ {
		screen.SetContent(x+i, y, ' ', nil, style)
	}
}
