package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit     key.Binding
	NextBook key.Binding
	PrevBook key.Binding
	Clear    key.Binding
	Help     key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		NextBook: key.NewBinding(
			key.WithKeys("right", "l", "tab"),
			key.WithHelp("tab", "next symbol"),
		),
		PrevBook: key.NewBinding(
			key.WithKeys("left", "h", "shift+tab"),
			key.WithHelp("shift+tab", "prev symbol"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear errors"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.NextBook, k.PrevBook, k.Help}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.NextBook, k.PrevBook},
		{k.Clear, k.Help},
	}
}
