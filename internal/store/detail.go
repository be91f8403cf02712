// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/autobrr/torrentdash/internal/humanize"
	"github.com/autobrr/torrentdash/internal/protocol"
)

// DetailView is the rendered detail panel of the focused torrent.
type DetailView struct {
	Hash          protocol.TorrentID
	Name          string
	Downloaded    string
	Uploaded      string
	TrackerStatus string
	TrackerHost   string
	Ratio         string
	NextAnnounce  string
	DownloadRate  string
	UploadRate    string
	ETA           string
	Pieces        string
	Seeders       string
	Peers         string
	Availability  string
	ActiveTime    string
	SeedingTime   string
	AddedOn       string
	SavePath      string
	TotalSize     string
	NumFiles      string
	Status        string
	Comment       string
}

// Fields lists the panel as label/value pairs in render order.
func (v DetailView) Fields() [][2]string {
	return [][2]string{
		{"Name", v.Name},
		{"Hash", string(v.Hash)},
		{"Status", v.Status},
		{"Downloaded", v.Downloaded},
		{"Uploaded", v.Uploaded},
		{"Ratio", v.Ratio},
		{"Download", v.DownloadRate},
		{"Upload", v.UploadRate},
		{"ETA", v.ETA},
		{"Pieces", v.Pieces},
		{"Seeders", v.Seeders},
		{"Peers", v.Peers},
		{"Availability", v.Availability},
		{"Active", v.ActiveTime},
		{"Seeding", v.SeedingTime},
		{"Added", v.AddedOn},
		{"Tracker", v.TrackerHost},
		{"Tracker status", v.TrackerStatus},
		{"Next announce", v.NextAnnounce},
		{"Path", v.SavePath},
		{"Total size", v.TotalSize},
		{"Files", v.NumFiles},
		{"Comment", v.Comment},
	}
}

// NewDetailView formats every field of d. Hash is the focused id.
func NewDetailView(id protocol.TorrentID, d *protocol.Details) DetailView {
	return DetailView{
		Hash:          id,
		Name:          d.Name,
		Downloaded:    humanize.BytesToSize(d.TotalDone, false),
		Uploaded:      humanize.BytesToSize(d.TotalUploaded, false),
		TrackerStatus: d.TrackerStatus,
		TrackerHost:   d.TrackerHost,
		Ratio:         humanize.FormatRatio(d.Ratio),
		NextAnnounce:  strconv.FormatInt(d.NextAnnounce, 10),
		DownloadRate:  humanize.BytesToSize(d.DownloadPayloadRate, true),
		UploadRate:    humanize.BytesToSize(d.UploadPayloadRate, true),
		ETA:           humanize.FormatETA(d.ETA),
		Pieces:        fmt.Sprintf("%s (%s)", humanize.FormatCount(d.NumPieces), humanize.BytesToSize(d.PieceLength, false)),
		Seeders:       fmt.Sprintf("%d (%d)", d.NumSeeds, d.TotalSeeds),
		Peers:         fmt.Sprintf("%d (%d)", d.NumPeers, d.TotalPeers),
		Availability:  strconv.FormatFloat(d.DistributedCopies, 'f', 3, 64),
		ActiveTime:    humanize.FormatDuration(d.ActiveTime),
		SeedingTime:   humanize.FormatDuration(d.SeedingTime),
		AddedOn:       humanize.FormatUnix(d.TimeAdded),
		SavePath:      d.SavePath,
		TotalSize:     humanize.BytesToSize(d.TotalSize, false),
		NumFiles:      strconv.Itoa(d.NumFiles),
		Status:        d.Status,
		Comment:       d.Comment,
	}
}

// DetailPanel holds the last applied detail snapshot.
type DetailPanel struct {
	mu     sync.RWMutex
	view   DetailView
	set    bool
	cached bool
	notify func()
}

func NewDetailPanel(notify func()) *DetailPanel {
	if notify == nil {
		notify = func() {}
	}
	return &DetailPanel{notify: notify}
}

// Replace overwrites every field with a fresh snapshot.
func (p *DetailPanel) Replace(id protocol.TorrentID, d *protocol.Details) {
	p.apply(NewDetailView(id, d), false)
}

// Prime paints a cached snapshot until the fresh one arrives.
func (p *DetailPanel) Prime(id protocol.TorrentID, d *protocol.Details) {
	p.apply(NewDetailView(id, d), true)
}

func (p *DetailPanel) apply(v DetailView, cached bool) {
	p.mu.Lock()
	p.view, p.set, p.cached = v, true, cached
	p.mu.Unlock()
	p.notify()
}

func (p *DetailPanel) Clear() {
	p.mu.Lock()
	p.view, p.set, p.cached = DetailView{}, false, false
	p.mu.Unlock()
	p.notify()
}

// View returns the current snapshot and whether one has been applied. Cached
// reports a snapshot primed from an earlier focus.
func (p *DetailPanel) View() (view DetailView, ok bool, cached bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view, p.set, p.cached
}
