// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/autobrr/torrentdash/internal/humanize"
	"github.com/autobrr/torrentdash/internal/protocol"
	"github.com/autobrr/torrentdash/internal/store"
)

const (
	histogramRows  = 5
	histogramWidth = 12
	detailRows     = 12
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#64B5F6"))
	headStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(15)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	uploadStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#81C784"))
	downloadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64B5F6"))

	cellStyles = map[string]lipgloss.Style{
		store.StyleSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#81C784")),
		store.StyleAlert:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E57373")),
	}

	severityStyles = map[string]lipgloss.Style{
		store.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#64B5F6")),
		store.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#81C784")),
		store.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB74D")),
		store.SeverityAlert:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E57373")),
	}
)

func (m Model) View() string {
	sections := []string{m.viewHeader(), m.viewTable()}
	if focus := m.viewFocus(); focus != "" {
		sections = append(sections, focus)
	}
	if alerts := m.viewAlerts(); alerts != "" {
		sections = append(sections, alerts)
	}
	if m.searching {
		sections = append(sections, m.search.View())
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewHeader() string {
	up, dn := m.dash.Header.Speeds()
	parts := []string{
		titleStyle.Render(m.title),
		uploadStyle.Render("▲ " + up),
		downloadStyle.Render("▼ " + dn),
		dimStyle.Render(fmt.Sprintf("%s torrents", humanize.FormatCount(int64(m.dash.Rows.Len())))),
	}
	if q := m.dash.Rows.Search(); q != "" {
		parts = append(parts, dimStyle.Render("search: "+q))
	}
	if f := m.dash.Rows.Filter(); f != nil {
		parts = append(parts, dimStyle.Render("filter: "+f.String()))
	}
	return strings.Join(parts, "  ")
}

func (m Model) columnWidths() []int {
	widths := m.dash.Rows.Widths()
	if len(widths) == len(store.Columns) {
		return widths
	}
	widths = make([]int, len(store.Columns))
	for i, c := range store.Columns {
		widths[i] = max(len(c), 8)
	}
	widths[0] = 32
	return widths
}

func (m Model) viewTable() string {
	widths := m.columnWidths()
	rows := m.dash.Rows.Visible()

	var b strings.Builder
	header := make([]string, len(store.Columns))
	for i, c := range store.Columns {
		header[i] = pad(c, widths[i])
	}
	b.WriteString("   " + headStyle.Render(strings.Join(header, " ")))

	end := min(len(rows), m.offset+m.tableHeight())
	for i := m.offset; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.viewRow(i, rows[i], widths))
	}
	if len(rows) == 0 {
		b.WriteString("\n" + dimStyle.Render("   no torrents"))
	}
	return b.String()
}

func (m Model) viewRow(i int, r protocol.Row, widths []int) string {
	cells := store.Cells(r)
	rendered := make([]string, len(cells))
	for c, cell := range cells {
		cell = pad(cell, widths[c])
		switch store.Columns[c] {
		case "Progress":
			cell = cellStyles[store.ProgressStyle(r.Progress)].Render(cell)
		case "Ratio":
			cell = cellStyles[store.RatioStyle(r.Ratio)].Render(cell)
		}
		rendered[c] = cell
	}

	marker := "  "
	switch {
	case m.focused(r.ID()):
		marker = "» "
	case m.Marked(r.ID()):
		marker = "* "
	}
	line := marker + " " + strings.Join(rendered, " ")
	if i == m.cursor {
		return cursorStyle.Render(line)
	}
	return line
}

func pad(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	return s + strings.Repeat(" ", max(0, width-ansi.StringWidth(s)))
}

func (m Model) viewFocus() string {
	view, ok, cached := m.dash.Detail.View()
	if !ok {
		return ""
	}

	var detail strings.Builder
	title := view.Name
	if cached {
		title += dimStyle.Render(" (cached)")
	}
	detail.WriteString(titleStyle.Render(title))
	for _, f := range view.Fields()[1:min(detailRows+1, len(view.Fields()))] {
		detail.WriteString("\n" + labelStyle.Render(f[0]) + f[1])
	}

	panels := []string{panelStyle.Render(detail.String())}
	if traffic := m.viewTraffic(); traffic != "" {
		panels = append(panels, panelStyle.Render(traffic))
	}
	if peers := m.viewPeers(); peers != "" {
		panels = append(panels, panelStyle.Render(peers))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

func (m Model) viewTraffic() string {
	window := m.dash.Traffic.Window()
	if len(window) == 0 {
		return ""
	}
	up := make([]int64, len(window))
	dn := make([]int64, len(window))
	for i, s := range window {
		up[i], dn[i] = s.Upload, s.Download
	}
	last := window[len(window)-1]
	width := len(window)
	return strings.Join([]string{
		titleStyle.Render("Traffic"),
		uploadStyle.Render(sparkline(up, width)) + " " + humanize.BytesToSize(last.Upload, true),
		downloadStyle.Render(sparkline(dn, width)) + " " + humanize.BytesToSize(last.Download, true),
	}, "\n")
}

func (m Model) viewPeers() string {
	countries := m.dash.Peers.Countries()
	clients := m.dash.Peers.Clients()
	if len(countries) == 0 && len(clients) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		histogram("Countries", countries),
		"  ",
		histogram("Clients", clients),
	)
}

func histogram(title string, buckets []store.Bucket) string {
	lines := []string{titleStyle.Render(title)}
	peak := 0
	if len(buckets) > 0 {
		peak = buckets[0].Value
	}
	for _, bk := range buckets[:min(histogramRows, len(buckets))] {
		lines = append(lines, fmt.Sprintf("%s %s %d", pad(bk.Label, 14), bar(bk.Value, peak, histogramWidth), bk.Value))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewAlerts() string {
	active := m.dash.Alerts.Active()
	if len(active) == 0 {
		return ""
	}
	lines := make([]string, len(active))
	for i, a := range active {
		style, ok := severityStyles[a.Severity]
		if !ok {
			style = severityStyles[store.SeverityInfo]
		}
		lines[i] = style.Render(fmt.Sprintf("[%s] %s", a.Severity, a.Text))
	}
	return strings.Join(lines, "\n")
}
