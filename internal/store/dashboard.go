// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package store holds the state the dashboard renders: the torrent table, the
// focused torrent's detail panel, traffic chart, peer histograms and alerts.
// Every type is safe for concurrent use, the session loop writes and the
// terminal renderer reads snapshots.
package store

import (
	"time"

	"github.com/autobrr/torrentdash/internal/domain"
)

// Dashboard groups the presentation state of one session. Selection mirrors
// the session selection for rendering only.
type Dashboard struct {
	Rows      *RowStore
	Traffic   *TrafficSeries
	Peers     *PeerPanel
	Detail    *DetailPanel
	Header    *Header
	Alerts    *AlertList
	Selection *SelectionView

	changes chan struct{}
}

func NewDashboard(cfg *domain.Config) *Dashboard {
	d := &Dashboard{changes: make(chan struct{}, 1)}
	d.Rows = NewRowStore(d.notify)
	d.Traffic = NewTrafficSeries(cfg.GraphQueueSize, cfg.GraphWindowSize, d.notify)
	d.Peers = NewPeerPanel(d.notify)
	d.Detail = NewDetailPanel(d.notify)
	d.Header = NewHeader(d.notify)
	d.Alerts = NewAlertList(time.Now, d.notify)
	d.Selection = NewSelectionView(d.notify)
	return d
}

// Changes signals after any mutation. Signals coalesce, a reader that falls
// behind sees one pending notification.
func (d *Dashboard) Changes() <-chan struct{} {
	return d.changes
}

func (d *Dashboard) notify() {
	select {
	case d.changes <- struct{}{}:
	default:
	}
}

// ResetFocus clears the panels bound to the focused torrent.
func (d *Dashboard) ResetFocus() {
	d.Detail.Clear()
	d.Peers.Clear()
	d.Traffic.Reset()
}
