// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"sync"

	"github.com/autobrr/torrentdash/internal/humanize"
)

// Header holds the overall transfer speed indicators.
type Header struct {
	mu     sync.RWMutex
	up, dn int64
	notify func()
}

func NewHeader(notify func()) *Header {
	if notify == nil {
		notify = func() {}
	}
	return &Header{notify: notify}
}

func (h *Header) Set(up, dn int64) {
	h.mu.Lock()
	h.up, h.dn = up, dn
	h.mu.Unlock()
	h.notify()
}

// Speeds returns the rendered upload and download rates.
func (h *Header) Speeds() (up, dn string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return humanize.BytesToSize(h.up, true), humanize.BytesToSize(h.dn, true)
}
