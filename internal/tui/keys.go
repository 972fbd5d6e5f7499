package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Notify key.Binding
	Log    key.Binding
	Folder key.Binding
	Apply  key.Binding
	Cancel key.Binding
	Up     key.Binding
	Down   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Notify: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "toggle notify")),
		Log:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "toggle log")),
		Folder: key.NewBinding(key.WithKeys("tab", "/"), key.WithHelp("tab", "change folder")),
		Apply:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Folder, k.Notify, k.Log, k.Up, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Apply, k.Cancel, k.Down}}
}
