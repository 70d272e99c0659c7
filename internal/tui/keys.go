package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"replconsole/internal/console"
)

// KeyMap 是终端前端的按键绑定。
type KeyMap struct {
	Submit   key.Binding
	Newline  key.Binding
	Previous key.Binding
	Next     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Copy     key.Binding
	Search   key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
		Newline:  key.NewBinding(key.WithKeys("alt+enter"), key.WithHelp("alt+enter", "newline")),
		Previous: key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous")),
		Next:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Copy:     key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy last")),
		Search:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "search")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// Hints 返回底部提示栏使用的绑定。
func (k KeyMap) Hints() []key.Binding {
	return []key.Binding{k.Submit, k.Newline, k.Previous, k.Next, k.Copy, k.Search, k.Quit}
}

// consoleKey 把按键归类成控制器认识的 Key。
func (k KeyMap) consoleKey(msg tea.KeyMsg) console.Key {
	switch {
	case key.Matches(msg, k.Submit):
		return console.KeySubmit
	case key.Matches(msg, k.Previous):
		return console.KeyPrevious
	case key.Matches(msg, k.Next):
		return console.KeyNext
	default:
		return console.KeyOther
	}
}
