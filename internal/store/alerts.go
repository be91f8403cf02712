// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"slices"
	"sync"
	"time"
)

// Alert severities used by the client itself. The backend may send others.
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityAlert   = "alert"
)

type Alert struct {
	ID       int
	Text     string
	Severity string
	Created  time.Time
	// Expires is zero for persistent alerts.
	Expires time.Time
}

func (a Alert) expired(now time.Time) bool {
	return !a.Expires.IsZero() && !now.Before(a.Expires)
}

// AlertList is the alert surface. Alerts with a ttl remove themselves once it
// elapses, persistent ones stay until dismissed.
type AlertList struct {
	mu     sync.Mutex
	now    func() time.Time
	items  []Alert
	nextID int
	notify func()
}

func NewAlertList(now func() time.Time, notify func()) *AlertList {
	if now == nil {
		now = time.Now
	}
	if notify == nil {
		notify = func() {}
	}
	return &AlertList{now: now, notify: notify}
}

// Add appends an alert. A ttl of zero keeps it until dismissed.
func (l *AlertList) Add(text, severity string, ttl time.Duration) int {
	if severity == "" {
		severity = SeverityInfo
	}
	now := l.now()

	l.mu.Lock()
	l.nextID++
	a := Alert{ID: l.nextID, Text: text, Severity: severity, Created: now}
	if ttl > 0 {
		a.Expires = now.Add(ttl)
	}
	l.items = append(l.items, a)
	l.mu.Unlock()

	l.notify()
	return a.ID
}

// Dismiss removes the alert with id.
func (l *AlertList) Dismiss(id int) bool {
	l.mu.Lock()
	before := len(l.items)
	l.items = slices.DeleteFunc(l.items, func(a Alert) bool { return a.ID == id })
	removed := len(l.items) != before
	l.mu.Unlock()

	if removed {
		l.notify()
	}
	return removed
}

// Prune drops expired alerts and returns how many were removed.
func (l *AlertList) Prune() int {
	now := l.now()
	l.mu.Lock()
	before := len(l.items)
	l.items = slices.DeleteFunc(l.items, func(a Alert) bool { return a.expired(now) })
	removed := before - len(l.items)
	l.mu.Unlock()

	if removed > 0 {
		l.notify()
	}
	return removed
}

// Active returns the unexpired alerts, oldest first.
func (l *AlertList) Active() []Alert {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Alert, 0, len(l.items))
	for _, a := range l.items {
		if !a.expired(now) {
			out = append(out, a)
		}
	}
	return out
}
