// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// SessionStatus is a point-in-time view of a dashboard session.
type SessionStatus struct {
	Endpoint    string   `json:"endpoint"`
	View        string   `json:"view"`
	Connected   bool     `json:"connected"`
	Focused     string   `json:"focused,omitempty"`
	Selected    []string `json:"selected"`
	ActivePolls []string `json:"activePolls"`
	Rows        int      `json:"rows"`
}
