// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/torrentdash/internal/dispatch"
	"github.com/autobrr/torrentdash/internal/domain"
	"github.com/autobrr/torrentdash/internal/protocol"
	"github.com/autobrr/torrentdash/internal/selection"
	"github.com/autobrr/torrentdash/internal/store"
)

const (
	hashA protocol.TorrentID = "c9e15763f722f23e98a29decdfae341b98d53056"
	hashB protocol.TorrentID = "d2474e86c95b19b8bcfdb92bc12c9d44667cfa36"
	hashC protocol.TorrentID = "0123456789abcdef0123456789abcdef01234567"
)

// controller records calls and publishes a real selection the way the
// session does.
type controller struct {
	dash      *store.Dashboard
	selection *selection.Store

	selected []protocol.TorrentID
	toggled  []protocol.TorrentID
	intents  []dispatch.Intent
	resized  int
}

func newController(dash *store.Dashboard) *controller {
	return &controller{dash: dash, selection: selection.NewStore()}
}

func (c *controller) SelectSingle(id protocol.TorrentID) {
	c.selected = append(c.selected, id)
	c.selection.SelectSingle(id)
	c.publish()
}

func (c *controller) ToggleMember(id protocol.TorrentID) {
	c.toggled = append(c.toggled, id)
	c.selection.Toggle(id)
	c.publish()
}

func (c *controller) Do(intent dispatch.Intent) { c.intents = append(c.intents, intent) }
func (c *controller) ResizeColumns()            { c.resized++ }

func (c *controller) publish() {
	focused, _ := c.selection.Focused()
	c.dash.Selection.Publish(c.selection.Members(), focused)
}

func newTestModel(t *testing.T) (Model, *store.Dashboard, *controller) {
	t.Helper()
	dash := store.NewDashboard(&domain.Config{GraphQueueSize: 240, GraphWindowSize: 60})
	dash.Rows.Append(
		protocol.Row{InfoHash: hashA, Name: "ubuntu-24.04.iso", Size: 6_000_000_000, Progress: 100, Ratio: 2.5},
		protocol.Row{InfoHash: hashB, Name: "debian-12.iso", Size: 700_000_000, Progress: 42, Ratio: 0.1},
		protocol.Row{InfoHash: hashC, Name: "archlinux.iso", Size: 1_100_000_000, Progress: 7},
	)
	ctl := newController(dash)
	return New(dash, ctl, "localhost:5000"), dash, ctl
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitWaitsForChangesAndPrunes(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.NotNil(t, m.Init())
}

func TestEnterFocusesRowUnderCursor(t *testing.T) {
	m, _, ctl := newTestModel(t)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []protocol.TorrentID{hashB}, ctl.selected)
	assert.True(t, m.Marked(hashB))
	assert.False(t, m.Marked(hashA))
}

func TestSpaceTogglesMembership(t *testing.T) {
	m, _, ctl := newTestModel(t)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	assert.Equal(t, []protocol.TorrentID{hashB}, ctl.toggled)
	assert.True(t, m.Marked(hashA))
	assert.True(t, m.Marked(hashB))

	m, _ = update(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.False(t, m.Marked(hashB))
	assert.Len(t, ctl.toggled, 2)
}

func TestMarksFollowSessionSelection(t *testing.T) {
	m, dash, _ := newTestModel(t)
	m, _ = update(m, tea.WindowSizeMsg{Width: 160, Height: 40})

	// selection changed outside the dashboard keys, e.g. a removed torrent
	dash.Selection.Publish([]protocol.TorrentID{hashA, hashC}, hashA)
	assert.True(t, m.Marked(hashA))
	assert.False(t, m.Marked(hashB))
	assert.True(t, m.Marked(hashC))

	out := m.View()
	assert.Contains(t, out, "» ")
	assert.Contains(t, out, "* ")

	dash.Selection.Publish(nil, "")
	assert.False(t, m.Marked(hashA))
	assert.NotContains(t, m.View(), "» ")
}

func TestActionKeysDispatchIntents(t *testing.T) {
	tests := []struct {
		key  string
		want dispatch.Intent
	}{
		{key: "s", want: dispatch.IntentStop},
		{key: "S", want: dispatch.IntentStart},
		{key: "r", want: dispatch.IntentRecheck},
		{key: "a", want: dispatch.IntentReannounce},
		{key: "d", want: dispatch.IntentRemove},
		{key: "D", want: dispatch.IntentRemoveData},
		{key: "l", want: dispatch.IntentRefreshList},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, _, ctl := newTestModel(t)
			_, _ = update(m, runes(tt.key))
			assert.Equal(t, []dispatch.Intent{tt.want}, ctl.intents)
		})
	}
}

func TestCursorIsClamped(t *testing.T) {
	m, dash, _ := newTestModel(t)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.Cursor())

	for range 5 {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 2, m.Cursor())

	dash.Rows.Remove(hashC)
	m, cmd := update(m, changedMsg{})
	assert.NotNil(t, cmd, "keeps listening for changes")
	assert.Equal(t, 1, m.Cursor())
}

func TestSearchFiltersRows(t *testing.T) {
	m, dash, ctl := newTestModel(t)

	m, _ = update(m, runes("/"))
	require.True(t, m.Searching())

	m, _ = update(m, runes("deb"))
	assert.Equal(t, "deb", dash.Rows.Search())
	require.Len(t, dash.Rows.Visible(), 1)

	// action keys are typed into the prompt while searching
	m, _ = update(m, runes("s"))
	assert.Empty(t, ctl.intents)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Searching())
	assert.Equal(t, "debs", dash.Rows.Search())

	m, _ = update(m, runes("/"))
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Searching())
	assert.Empty(t, dash.Rows.Search())
	assert.Len(t, dash.Rows.Visible(), 3)
}

func TestResizeAndDismiss(t *testing.T) {
	m, dash, ctl := newTestModel(t)
	dash.Alerts.Add("first", store.SeverityInfo, 0)
	dash.Alerts.Add("second", store.SeverityWarning, 0)

	m, _ = update(m, runes("c"))
	assert.Equal(t, 1, ctl.resized)

	_, _ = update(m, runes("x"))
	active := dash.Alerts.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "first", active[0].Text)
}

func TestPruneReschedules(t *testing.T) {
	m, dash, _ := newTestModel(t)
	dash.Alerts.Add("gone", store.SeverityInfo, time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, cmd := update(m, pruneMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Empty(t, dash.Alerts.Active())
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := update(m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestViewRendersDashboard(t *testing.T) {
	m, dash, _ := newTestModel(t)
	m, _ = update(m, tea.WindowSizeMsg{Width: 160, Height: 60})

	dash.Header.Set(2048, 1_500_000)
	dash.Detail.Replace(hashA, &protocol.Details{Name: "ubuntu-24.04.iso", Status: "Seeding", Ratio: 2.5})
	dash.Traffic.Append(store.Sample{Time: time.Now(), Upload: 100, Download: 2000})
	dash.Traffic.Append(store.Sample{Time: time.Now(), Upload: 300, Download: 1000})
	dash.Peers.Replace([]protocol.Peer{
		{IP: "10.0.0.1", Client: "qBittorrent 4.6.0", Country: "DE"},
		{IP: "10.0.0.2", Client: "Transmission 4.0.5", Country: "DE"},
	})
	dash.Alerts.Add("Lost connection to backend", store.SeverityWarning, 0)

	out := m.View()
	for _, want := range []string{
		"localhost:5000",
		"▲ 2.0 KB/s",
		"▼ 1.5 MB/s",
		"Name",
		"debian-12.iso",
		"Seeding",
		"Traffic",
		"300 B/s",
		"Countries",
		"DE",
		"[warning] Lost connection to backend",
	} {
		assert.Contains(t, out, want)
	}
}

func TestColumnWidthsBeforeAndAfterMeasure(t *testing.T) {
	m, dash, _ := newTestModel(t)

	widths := m.columnWidths()
	require.Len(t, widths, len(store.Columns))
	assert.Equal(t, 32, widths[0], "names are not cut to the header width")
	assert.Contains(t, m.View(), "ubuntu-24.04.iso")

	dash.Rows.Remeasure()
	assert.Equal(t, len("ubuntu-24.04.iso"), m.columnWidths()[0])
	assert.Contains(t, m.View(), "ubuntu-24.04.iso")
}

func TestViewWithoutRows(t *testing.T) {
	dash := store.NewDashboard(&domain.Config{})
	m := New(dash, newController(dash), "backend")
	assert.Contains(t, m.View(), "no torrents")
}

func TestSparkline(t *testing.T) {
	assert.Empty(t, sparkline(nil, 10))
	assert.Equal(t, "▁▁▁", sparkline([]int64{0, 0, 0}, 10))
	assert.Equal(t, "▁▄█", sparkline([]int64{0, 50, 100}, 10))
	assert.Equal(t, "▄█", sparkline([]int64{0, 50, 100}, 2), "keeps the newest values")
}

func TestBar(t *testing.T) {
	assert.Empty(t, bar(0, 10, 12))
	assert.Equal(t, "████████████", bar(10, 10, 12))
	assert.Equal(t, "█", bar(1, 100, 12), "non zero values draw at least one cell")
}
