package sim

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle key.Binding
	Short  key.Binding
	Long   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Short, k.Long, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Short, k.Long},
		{k.Help, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "press/release"),
		),
		Short: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "short press"),
		),
		Long: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "long press"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
