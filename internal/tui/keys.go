package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up    key.Binding
	down  key.Binding
	left  key.Binding
	right key.Binding
	tab   key.Binding
	enter key.Binding
	esc   key.Binding
	quit  key.Binding
}

var keys = keyMap{
	up:    key.NewBinding(key.WithKeys("up", "k")),
	down:  key.NewBinding(key.WithKeys("down", "j")),
	left:  key.NewBinding(key.WithKeys("left", "h", "shift+tab")),
	right: key.NewBinding(key.WithKeys("right", "l")),
	tab:   key.NewBinding(key.WithKeys("tab")),
	enter: key.NewBinding(key.WithKeys("enter")),
	esc:   key.NewBinding(key.WithKeys("esc")),
	quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
}
