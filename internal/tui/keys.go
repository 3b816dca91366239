package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start      key.Binding
	Stop       key.Binding
	Test       key.Binding
	Version    key.Binding
	Detect     key.Binding
	Authorize  key.Binding
	KillDaemon key.Binding
	Clear      key.Binding
	Bottom     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Start:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Stop:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Test:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "test")),
		Version:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "version")),
		Detect:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "detect")),
		Authorize:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "authorize")),
		KillDaemon: key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "kill daemon")),
		Clear:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Bottom:     key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "follow")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// short lists the bindings shown in the one-line help bar.
func (k keyMap) short() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Test, k.Detect, k.Authorize, k.Clear, k.Help, k.Quit}
}

// full lists every binding for the expanded help.
func (k keyMap) full() []key.Binding {
	return []key.Binding{
		k.Start, k.Stop, k.Test, k.Version, k.Detect,
		k.Authorize, k.KillDaemon, k.Clear, k.Bottom, k.Help, k.Quit,
	}
}
