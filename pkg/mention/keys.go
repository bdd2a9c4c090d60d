package mention

// KeyCode identifies the keys the suggestion popup reacts to.
type KeyCode int

const (
	KeyOther KeyCode = iota
	KeyUp
	KeyDown
	KeyEnter
	KeyTab
	KeyEscape
)

func (k KeyCode) String() string {
	switch k {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyEnter:
		return "enter"
	case KeyTab:
		return "tab"
	case KeyEscape:
		return "escape"
	default:
		return "other"
	}
}

// ParseKeyCode maps a key name to its code; unknown names are KeyOther.
func ParseKeyCode(name string) KeyCode {
	switch name {
	case "up", "ArrowUp":
		return KeyUp
	case "down", "ArrowDown":
		return KeyDown
	case "enter", "return", "Enter":
		return KeyEnter
	case "tab", "Tab":
		return KeyTab
	case "escape", "esc", "Escape":
		return KeyEscape
	default:
		return KeyOther
	}
}

// Key is a key-down event. Rune carries the character for KeyOther when
// there is one.
type Key struct {
	Code KeyCode
	Rune rune
}
