// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"net/http"

	"github.com/autobrr/torrentdash/internal/domain"
)

// StatusSource snapshots the running session.
type StatusSource interface {
	Status(ctx context.Context) (domain.SessionStatus, error)
}

type SessionHandler struct {
	status  StatusSource
	version string
}

func NewSessionHandler(status StatusSource, version string) *SessionHandler {
	return &SessionHandler{status: status, version: version}
}

type sessionResponse struct {
	domain.SessionStatus
	Version string `json:"version"`
}

func (h *SessionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.status.Status(r.Context())
	if err != nil {
		RespondError(w, http.StatusServiceUnavailable, "Failed to read session state")
		return
	}
	RespondJSON(w, http.StatusOK, sessionResponse{SessionStatus: st, Version: h.version})
}
