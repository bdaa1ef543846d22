package viewer

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keybindings for the viewer. Line and page scrolling use
// the viewport's own bindings.
type KeyMap struct {
	Quit       key.Binding
	Stop       key.Binding
	GoToTop    key.Binding
	GoToBottom key.Binding
}

// DefaultKeyMap returns the default keybindings for the viewer
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "quit"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop stream"),
		),
		GoToTop: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		GoToBottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "follow"),
		),
	}
}

// ShortHelp returns keybindings for the short help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Stop, k.GoToTop, k.GoToBottom}
}

// FullHelp returns keybindings for the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.GoToTop, k.GoToBottom},
		{k.Stop, k.Quit},
	}
}
