// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"sync"
	"time"
)

const (
	defaultQueueSize  = 240
	defaultWindowSize = 60
)

// Sample is one point of the focused torrent's traffic chart.
type Sample struct {
	Time     time.Time `json:"time"`
	Upload   int64     `json:"upload"`
	Download int64     `json:"download"`
}

// TrafficSeries is a rolling buffer of samples. It retains queue samples and
// renders the newest window of them.
type TrafficSeries struct {
	mu      sync.RWMutex
	samples []Sample
	queue   int
	window  int
	notify  func()
}

func NewTrafficSeries(queue, window int, notify func()) *TrafficSeries {
	if queue <= 0 {
		queue = defaultQueueSize
	}
	if window <= 0 {
		window = defaultWindowSize
	}
	window = min(window, queue)
	if notify == nil {
		notify = func() {}
	}
	return &TrafficSeries{queue: queue, window: window, notify: notify}
}

func (t *TrafficSeries) Append(s Sample) {
	t.mu.Lock()
	t.samples = append(t.samples, s)
	if over := len(t.samples) - t.queue; over > 0 {
		t.samples = append(t.samples[:0], t.samples[over:]...)
	}
	t.mu.Unlock()
	t.notify()
}

// Window returns a copy of the newest samples, oldest first.
func (t *TrafficSeries) Window() []Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()
	start := max(0, len(t.samples)-t.window)
	out := make([]Sample, len(t.samples)-start)
	copy(out, t.samples[start:])
	return out
}

// Latest returns the newest sample.
func (t *TrafficSeries) Latest() (Sample, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.samples) == 0 {
		return Sample{}, false
	}
	return t.samples[len(t.samples)-1], true
}

func (t *TrafficSeries) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}

func (t *TrafficSeries) Reset() {
	t.mu.Lock()
	t.samples = nil
	t.mu.Unlock()
	t.notify()
}
