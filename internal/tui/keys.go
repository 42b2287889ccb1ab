package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the explorer's keyboard shortcuts.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Press  key.Binding
	Shift  key.Binding
	Brush  key.Binding
	Filter key.Binding
	Cycle  key.Binding
	Done   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap is the binding set used by [New].
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Press: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "press/release"),
	),
	Shift: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "shift"),
	),
	Brush: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("⏎", "brush"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Cycle: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "focus next"),
	),
	Done: key.NewBinding(
		key.WithKeys("enter", "esc"),
		key.WithHelp("⏎/esc", "done"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Press, k.Shift, k.Brush, k.Filter, k.Cycle, k.Quit}
}
