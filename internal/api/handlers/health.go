// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"
)

type HealthHandler struct {
	status StatusSource
}

func NewHealthHandler(status StatusSource) *HealthHandler {
	return &HealthHandler{status: status}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReady reports ready once the backend channel is connected.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	st, err := h.status.Status(r.Context())
	if err != nil {
		RespondError(w, http.StatusServiceUnavailable, "session unavailable")
		return
	}
	if !st.Connected {
		RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "disconnected"})
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
