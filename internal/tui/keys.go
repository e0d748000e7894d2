package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start      key.Binding
	Pause      key.Binding
	Reset      key.Binding
	Policy     key.Binding
	Difficulty key.Binding
	TextType   key.Binding
	Duration   key.Binding
	Share      key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Start:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Pause:      key.NewBinding(key.WithKeys("ctrl+@", "ctrl+p"), key.WithHelp("ctrl+space", "pause")),
		Reset:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "new text")),
		Policy:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "policy")),
		Difficulty: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "difficulty")),
		TextType:   key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "text type")),
		Duration:   key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "duration")),
		Share:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "copy result")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Reset, k.Policy, k.Difficulty, k.TextType, k.Duration, k.Share, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
