// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"slices"
	"sync"

	"github.com/autobrr/torrentdash/internal/protocol"
)

// SelectionView is the read-only snapshot of the session selection that the
// renderer marks rows with. The session publishes it after every change.
type SelectionView struct {
	mu      sync.RWMutex
	members []protocol.TorrentID
	focused protocol.TorrentID
	notify  func()
}

func NewSelectionView(notify func()) *SelectionView {
	if notify == nil {
		notify = func() {}
	}
	return &SelectionView{notify: notify}
}

// Publish replaces the snapshot. An empty focused means nothing is focused.
func (v *SelectionView) Publish(members []protocol.TorrentID, focused protocol.TorrentID) {
	v.mu.Lock()
	v.members = slices.Clone(members)
	v.focused = focused
	v.mu.Unlock()
	v.notify()
}

func (v *SelectionView) Contains(id protocol.TorrentID) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Contains(v.members, id)
}

func (v *SelectionView) Members() []protocol.TorrentID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.members)
}

func (v *SelectionView) Focused() (protocol.TorrentID, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.focused, v.focused != ""
}
