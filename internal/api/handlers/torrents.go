// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/autobrr/torrentdash/internal/protocol"
	"github.com/autobrr/torrentdash/internal/store"
)

const maxSearchLength = 256

type TorrentsHandler struct {
	dashboard *store.Dashboard
}

func NewTorrentsHandler(dashboard *store.Dashboard) *TorrentsHandler {
	return &TorrentsHandler{dashboard: dashboard}
}

type TorrentsResponse struct {
	Torrents []protocol.Row `json:"torrents"`
	Total    int            `json:"total"`
	Search   string         `json:"search,omitempty"`
	Filter   string         `json:"filter,omitempty"`
}

// ListTorrents returns the rows passing the configured filter, narrowed by an
// optional fuzzy ?search= on the name.
func (h *TorrentsHandler) ListTorrents(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	if len(search) > maxSearchLength {
		RespondError(w, http.StatusBadRequest, "Search query too long")
		return
	}

	rows := h.dashboard.Rows.Find(search)
	resp := TorrentsResponse{
		Torrents: rows,
		Total:    h.dashboard.Rows.Len(),
		Search:   search,
	}
	if f := h.dashboard.Rows.Filter(); f != nil {
		resp.Filter = f.String()
	}
	RespondJSON(w, http.StatusOK, resp)
}

type FocusedResponse struct {
	Detail    map[string]string `json:"detail"`
	Cached    bool              `json:"cached"`
	Countries []store.Bucket    `json:"countries"`
	Clients   []store.Bucket    `json:"clients"`
	Peers     []store.PeerRow   `json:"peers"`
	Traffic   []store.Sample    `json:"traffic"`
}

// GetFocused returns the panels of the focused torrent.
func (h *TorrentsHandler) GetFocused(w http.ResponseWriter, r *http.Request) {
	view, ok, cached := h.dashboard.Detail.View()
	if !ok {
		RespondError(w, http.StatusNotFound, "No torrent focused")
		return
	}

	detail := make(map[string]string)
	for _, f := range view.Fields() {
		detail[f[0]] = f[1]
	}
	RespondJSON(w, http.StatusOK, FocusedResponse{
		Detail:    detail,
		Cached:    cached,
		Countries: h.dashboard.Peers.Countries(),
		Clients:   h.dashboard.Peers.Clients(),
		Peers:     h.dashboard.Peers.Rows(),
		Traffic:   h.dashboard.Traffic.Window(),
	})
}

type alertResponse struct {
	ID       int        `json:"id"`
	Text     string     `json:"text"`
	Severity string     `json:"severity"`
	Created  time.Time  `json:"created"`
	Expires  *time.Time `json:"expires,omitempty"`
}

func (h *TorrentsHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	active := h.dashboard.Alerts.Active()
	out := make([]alertResponse, 0, len(active))
	for _, a := range active {
		resp := alertResponse{ID: a.ID, Text: a.Text, Severity: a.Severity, Created: a.Created}
		if !a.Expires.IsZero() {
			expires := a.Expires
			resp.Expires = &expires
		}
		out = append(out, resp)
	}
	RespondJSON(w, http.StatusOK, out)
}
