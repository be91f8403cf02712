// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"cmp"
	"slices"
	"sync"

	"github.com/autobrr/torrentdash/internal/humanize"
	"github.com/autobrr/torrentdash/internal/protocol"
)

// Bucket is one slice of a histogram chart.
type Bucket struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// CountBy groups peers by key. Buckets are ordered by count, then label.
func CountBy(peers []protocol.Peer, key func(protocol.Peer) string) []Bucket {
	counts := make(map[string]int)
	for _, p := range peers {
		counts[key(p)]++
	}

	buckets := make([]Bucket, 0, len(counts))
	for label, n := range counts {
		buckets = append(buckets, Bucket{Label: label, Value: n})
	}
	slices.SortFunc(buckets, func(a, b Bucket) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return buckets
}

func byCountry(p protocol.Peer) string {
	if p.Country == "" {
		return "??"
	}
	return p.Country
}

func byClient(p protocol.Peer) string {
	return humanize.NormalizeClient(p.Client)
}

// PeerRow is a rendered line of the peer table. Peer progress arrives as a
// fraction.
type PeerRow struct {
	Country  string `json:"country"`
	IP       string `json:"ip"`
	Client   string `json:"client"`
	Progress string `json:"progress"`
	Down     string `json:"down"`
	Up       string `json:"up"`
}

// PeerPanel holds the peer table and the country and client histograms.
type PeerPanel struct {
	mu        sync.RWMutex
	rows      []PeerRow
	countries []Bucket
	clients   []Bucket
	notify    func()
}

func NewPeerPanel(notify func()) *PeerPanel {
	if notify == nil {
		notify = func() {}
	}
	return &PeerPanel{notify: notify}
}

// Replace recomputes both histograms and the table from the full peer list.
func (p *PeerPanel) Replace(peers []protocol.Peer) {
	rows := make([]PeerRow, len(peers))
	for i, peer := range peers {
		rows[i] = PeerRow{
			Country:  peer.Country,
			IP:       peer.IP,
			Client:   peer.Client,
			Progress: humanize.Progress(peer.Progress * 100),
			Down:     humanize.BytesToSize(peer.DownSpeed, true),
			Up:       humanize.BytesToSize(peer.UpSpeed, true),
		}
	}
	countries := CountBy(peers, byCountry)
	clients := CountBy(peers, byClient)

	p.mu.Lock()
	p.rows, p.countries, p.clients = rows, countries, clients
	p.mu.Unlock()
	p.notify()
}

func (p *PeerPanel) Clear() {
	p.mu.Lock()
	p.rows, p.countries, p.clients = nil, nil, nil
	p.mu.Unlock()
	p.notify()
}

func (p *PeerPanel) Rows() []PeerRow {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.rows)
}

func (p *PeerPanel) Countries() []Bucket {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.countries)
}

func (p *PeerPanel) Clients() []Bucket {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.clients)
}
