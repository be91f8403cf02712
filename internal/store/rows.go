// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"slices"
	"strconv"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/autobrr/torrentdash/internal/humanize"
	"github.com/autobrr/torrentdash/internal/protocol"
)

// Columns of the torrent table in render order.
var Columns = []string{"Name", "Size", "Progress", "Ratio", "Up", "Down", "Peers", "Leechers", "Priority"}

// Cell styles.
const (
	StyleSuccess = "success"
	StyleAlert   = "alert"
)

// ProgressStyle marks completed torrents as success.
func ProgressStyle(pct float64) string {
	if pct >= 100 {
		return StyleSuccess
	}
	return StyleAlert
}

// RatioStyle marks torrents that have not yet seeded back their size.
func RatioStyle(ratio float64) string {
	if ratio < 1 {
		return StyleAlert
	}
	return StyleSuccess
}

// Cells renders a row into the table columns.
func Cells(r protocol.Row) []string {
	return []string{
		r.Name,
		humanize.BytesToSize(r.Size, false),
		humanize.Progress(r.Progress),
		humanize.FormatRatio(r.Ratio),
		humanize.BytesToSize(r.UpRate, true),
		humanize.BytesToSize(r.DnRate, true),
		strconv.Itoa(r.Peers),
		strconv.Itoa(r.Leechers),
		strconv.Itoa(r.Priority),
	}
}

// RowStore is the ordered torrent table. Rows are appended in arrival order
// without deduplication; callers clear before a full refresh.
type RowStore struct {
	mu     sync.RWMutex
	rows   []protocol.Row
	widths []int
	filter *RowFilter
	query  string
	notify func()
}

func NewRowStore(notify func()) *RowStore {
	if notify == nil {
		notify = func() {}
	}
	return &RowStore{notify: notify}
}

// Append inserts rows at the end of the table in the given order.
func (s *RowStore) Append(rows ...protocol.Row) {
	if len(rows) == 0 {
		return
	}
	s.mu.Lock()
	s.rows = append(s.rows, rows...)
	s.mu.Unlock()
	s.notify()
}

// Remove deletes every row with id and returns how many were removed.
func (s *RowStore) Remove(id protocol.TorrentID) int {
	s.mu.Lock()
	before := len(s.rows)
	s.rows = slices.DeleteFunc(s.rows, func(r protocol.Row) bool { return r.ID() == id })
	removed := before - len(s.rows)
	s.mu.Unlock()

	if removed > 0 {
		s.notify()
	}
	return removed
}

func (s *RowStore) Clear() {
	s.mu.Lock()
	s.rows = nil
	s.mu.Unlock()
	s.notify()
}

// Remeasure recomputes column widths from the current content.
func (s *RowStore) Remeasure() {
	s.mu.Lock()
	s.widths = measure(s.rows)
	s.mu.Unlock()
	s.notify()
}

// Widths returns the column widths from the last Remeasure, nil before the
// first one.
func (s *RowStore) Widths() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.widths)
}

func measure(rows []protocol.Row) []int {
	widths := make([]int, len(Columns))
	for i, c := range Columns {
		widths[i] = len([]rune(c))
	}
	for _, r := range rows {
		for i, cell := range Cells(r) {
			widths[i] = max(widths[i], len([]rune(cell)))
		}
	}
	return widths
}

func (s *RowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Rows returns a copy of every row in table order.
func (s *RowStore) Rows() []protocol.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows)
}

// IDs returns the row identities in table order.
func (s *RowStore) IDs() []protocol.TorrentID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]protocol.TorrentID, len(s.rows))
	for i, r := range s.rows {
		ids[i] = r.ID()
	}
	return ids
}

// SetSearch sets the fuzzy name search. An empty query shows every row.
func (s *RowStore) SetSearch(query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
	s.notify()
}

func (s *RowStore) Search() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// SetFilter installs an expression filter, nil removes it.
func (s *RowStore) SetFilter(f *RowFilter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	s.notify()
}

func (s *RowStore) Filter() *RowFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Visible returns the rows passing the filter and search, in table order.
func (s *RowStore) Visible() []protocol.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(s.query)
}

// Find is Visible with query in place of the table search.
func (s *RowStore) Find(query string) []protocol.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(query)
}

func (s *RowStore) findLocked(query string) []protocol.Row {
	out := make([]protocol.Row, 0, len(s.rows))
	for _, r := range s.rows {
		if query != "" && !fuzzy.MatchNormalizedFold(query, r.Name) {
			continue
		}
		if s.filter != nil && !s.filter.Match(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}
