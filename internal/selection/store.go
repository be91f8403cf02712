// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package selection tracks which torrent rows are selected and which one is
// focused in the detail panel.
package selection

import "github.com/autobrr/torrentdash/internal/protocol"

// Store owns the selection state. It is not safe for concurrent use, callers
// mutate it from the session event loop only.
type Store struct {
	// members keeps insertion order so bulk actions address ids deterministically.
	members []protocol.TorrentID
	index   map[protocol.TorrentID]int
	focused protocol.TorrentID
}

func NewStore() *Store {
	return &Store{index: make(map[protocol.TorrentID]int)}
}

// SelectSingle replaces the selection with id and focuses it. It returns the
// previously focused id.
func (s *Store) SelectSingle(id protocol.TorrentID) protocol.TorrentID {
	prev := s.focused
	s.members = s.members[:0]
	clear(s.index)
	s.add(id)
	s.focused = id
	return prev
}

// Toggle adds id when absent and removes it otherwise. Focus is untouched.
// It reports whether id is selected afterwards.
func (s *Store) Toggle(id protocol.TorrentID) bool {
	if _, ok := s.index[id]; ok {
		s.remove(id)
		return false
	}
	s.add(id)
	return true
}

// Forget drops id from the selection, used when its row is removed. A focused
// id stays focused until the next single select.
func (s *Store) Forget(id protocol.TorrentID) {
	if _, ok := s.index[id]; ok {
		s.remove(id)
	}
}

// Members returns a copy of the selected ids in selection order.
func (s *Store) Members() []protocol.TorrentID {
	out := make([]protocol.TorrentID, len(s.members))
	copy(out, s.members)
	return out
}

func (s *Store) Len() int {
	return len(s.members)
}

func (s *Store) Contains(id protocol.TorrentID) bool {
	_, ok := s.index[id]
	return ok
}

// Focused returns the focused id and whether one is set.
func (s *Store) Focused() (protocol.TorrentID, bool) {
	return s.focused, s.focused != ""
}

// Reset clears the selection and the focus.
func (s *Store) Reset() {
	s.members = s.members[:0]
	clear(s.index)
	s.focused = ""
}

func (s *Store) add(id protocol.TorrentID) {
	s.index[id] = len(s.members)
	s.members = append(s.members, id)
}

func (s *Store) remove(id protocol.TorrentID) {
	i := s.index[id]
	s.members = append(s.members[:i], s.members[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.members); j++ {
		s.index[s.members[j]] = j
	}
}
