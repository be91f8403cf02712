// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/autobrr/torrentdash/internal/dispatch"
)

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Focus      key.Binding
	Toggle     key.Binding
	Stop       key.Binding
	Start      key.Binding
	Recheck    key.Binding
	Reannounce key.Binding
	Remove     key.Binding
	RemoveData key.Binding
	Refresh    key.Binding
	Search     key.Binding
	Resize     key.Binding
	Dismiss    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Focus:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "focus")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Stop:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Start:      key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "start")),
		Recheck:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recheck")),
		Reannounce: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "reannounce")),
		Remove:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		RemoveData: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "remove with data")),
		Refresh:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "reload list")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Resize:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "fit columns")),
		Dismiss:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss alert")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// intents maps the action bindings onto dispatcher intents.
func (k keyMap) intents() []struct {
	binding key.Binding
	intent  dispatch.Intent
} {
	return []struct {
		binding key.Binding
		intent  dispatch.Intent
	}{
		{k.Stop, dispatch.IntentStop},
		{k.Start, dispatch.IntentStart},
		{k.Recheck, dispatch.IntentRecheck},
		{k.Reannounce, dispatch.IntentReannounce},
		{k.Remove, dispatch.IntentRemove},
		{k.RemoveData, dispatch.IntentRemoveData},
		{k.Refresh, dispatch.IntentRefreshList},
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Toggle, k.Stop, k.Start, k.Search, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Focus, k.Toggle},
		{k.Stop, k.Start, k.Recheck, k.Reannounce},
		{k.Remove, k.RemoveData, k.Refresh},
		{k.Search, k.Resize, k.Dismiss, k.Help, k.Quit},
	}
}
