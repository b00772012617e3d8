package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the confirmation prompt.
type keyMap struct {
	submit key.Binding
	up     key.Binding
	down   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "answer")),
		up:     key.NewBinding(key.WithKeys("up", "pgup"), key.WithHelp("↑", "scroll up")),
		down:   key.NewBinding(key.WithKeys("down", "pgdown"), key.WithHelp("↓", "scroll down")),
		quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.submit, k.up, k.down, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.submit, k.quit}, {k.up, k.down}}
}
