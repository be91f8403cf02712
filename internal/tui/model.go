// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tui renders the dashboard in the terminal and turns key presses
// into session commands.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/autobrr/torrentdash/internal/dispatch"
	"github.com/autobrr/torrentdash/internal/protocol"
	"github.com/autobrr/torrentdash/internal/store"
)

const pruneInterval = 500 * time.Millisecond

// Controller receives user commands. Calls must not block, session.Remote
// posts them to the session loop.
type Controller interface {
	SelectSingle(id protocol.TorrentID)
	ToggleMember(id protocol.TorrentID)
	Do(intent dispatch.Intent)
	ResizeColumns()
}

type changedMsg struct{}

type pruneMsg time.Time

// Model is the bubbletea model of the dashboard.
type Model struct {
	dash   *store.Dashboard
	ctl    Controller
	title  string
	keys   keyMap
	help   help.Model
	search textinput.Model

	searching bool
	cursor    int
	offset    int

	width  int
	height int
}

func New(dash *store.Dashboard, ctl Controller, title string) Model {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "name or hash"
	search.CharLimit = 128

	return Model{
		dash:   dash,
		ctl:    ctl,
		title:  title,
		keys:   defaultKeyMap(),
		help:   help.New(),
		search: search,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.dash.Changes()), pruneCmd())
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func pruneCmd() tea.Cmd {
	return tea.Tick(pruneInterval, func(t time.Time) tea.Msg {
		return pruneMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.scroll(len(m.dash.Rows.Visible()))
		return m, nil

	case changedMsg:
		m.scroll(len(m.dash.Rows.Visible()))
		return m, waitForChange(m.dash.Changes())

	case pruneMsg:
		m.dash.Alerts.Prune()
		return m, pruneCmd()

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.dash.Rows.SetSearch("")
		m.cursor, m.offset = 0, 0
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.dash.Rows.SetSearch(m.search.Value())
	m.cursor, m.offset = 0, 0
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.dash.Rows.Visible()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.cursor--
		m.scroll(len(rows))
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.scroll(len(rows))
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.dash.Rows.Search())
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Resize):
		m.ctl.ResizeColumns()
		return m, nil
	case key.Matches(msg, m.keys.Dismiss):
		if active := m.dash.Alerts.Active(); len(active) > 0 {
			m.dash.Alerts.Dismiss(active[len(active)-1].ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		if id, ok := m.current(rows); ok {
			m.ctl.SelectSingle(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		if id, ok := m.current(rows); ok {
			m.ctl.ToggleMember(id)
		}
		return m, nil
	}

	for _, a := range m.keys.intents() {
		if key.Matches(msg, a.binding) {
			m.ctl.Do(a.intent)
			return m, nil
		}
	}
	return m, nil
}

func (m Model) current(rows []protocol.Row) (protocol.TorrentID, bool) {
	if m.cursor < 0 || m.cursor >= len(rows) {
		return "", false
	}
	return rows[m.cursor].ID(), true
}

// scroll clamps the cursor to n rows and keeps it inside the table window.
func (m *Model) scroll(n int) {
	m.cursor = max(0, min(m.cursor, n-1))
	page := m.tableHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	m.offset = max(0, min(m.offset, n-page))
}

func (m Model) tableHeight() int {
	if m.height == 0 {
		return 20
	}
	return max(3, m.height/2-2)
}

// Cursor returns the table row under the cursor.
func (m Model) Cursor() int {
	return m.cursor
}

// Searching reports whether the search prompt has the keyboard.
func (m Model) Searching() bool {
	return m.searching
}

// Marked reports whether id is a member of the session selection.
func (m Model) Marked(id protocol.TorrentID) bool {
	return m.dash.Selection.Contains(id)
}

func (m Model) focused(id protocol.TorrentID) bool {
	focused, ok := m.dash.Selection.Focused()
	return ok && focused == id
}
