// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package poll runs the repeating request loops of the dashboard. Each poll
// kind owns at most one live timer; starting a kind again replaces it.
package poll

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Kind int

const (
	KindOverallSpeed Kind = iota
	KindDetails
	KindSpeed
	KindPeers

	numKinds
)

// FocusKinds are the loops bound to the focused torrent.
var FocusKinds = []Kind{KindDetails, KindSpeed, KindPeers}

func (k Kind) String() string {
	switch k {
	case KindOverallSpeed:
		return "overall-speed"
	case KindDetails:
		return "details"
	case KindSpeed:
		return "speed"
	case KindPeers:
		return "peers"
	default:
		return "unknown"
	}
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks, swapped out in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

// Poster runs fn on the goroutine that owns the scheduler.
type Poster interface {
	Post(fn func())
}

type PosterFunc func(fn func())

func (f PosterFunc) Post(fn func()) { f(fn) }

// Task is the body of one tick.
type Task func()

type handle struct {
	gen      uint64
	running  bool
	interval time.Duration
	task     Task
	timer    Timer
}

// Scheduler owns one handle per poll kind. All methods must be called from the
// goroutine behind its Poster; timer callbacks are marshalled onto it and
// carry the generation they were armed with, so a tick that was already in
// flight when its handle was stopped or restarted is dropped.
type Scheduler struct {
	clock   Clock
	poster  Poster
	handles [numKinds]handle
	onTick  func(Kind)
	log     zerolog.Logger
}

func NewScheduler(clock Clock, poster Poster) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{
		clock:  clock,
		poster: poster,
		log:    log.Logger.With().Str("module", "poll").Logger(),
	}
}

// OnTick registers a hook invoked before every task run.
func (s *Scheduler) OnTick(fn func(Kind)) {
	s.onTick = fn
}

// Start cancels any live loop of kind and starts a new one. With immediate
// set the first tick runs synchronously before the loop is armed.
func (s *Scheduler) Start(kind Kind, interval time.Duration, immediate bool, task Task) {
	h := &s.handles[kind]
	s.cancel(h)

	h.gen++
	h.running = true
	h.interval = interval
	h.task = task

	s.log.Trace().Stringer("kind", kind).Dur("interval", interval).Uint64("gen", h.gen).Msg("poll started")

	if immediate {
		gen := h.gen
		s.run(kind, h)
		if h.gen != gen || !h.running {
			return
		}
	}
	s.arm(kind, h)
}

// StartIfIdle starts kind unless it is already running.
func (s *Scheduler) StartIfIdle(kind Kind, interval time.Duration, immediate bool, task Task) bool {
	if s.handles[kind].running {
		return false
	}
	s.Start(kind, interval, immediate, task)
	return true
}

// Stop cancels the loop of kind. Stopping an idle kind is a no-op.
func (s *Scheduler) Stop(kind Kind) {
	h := &s.handles[kind]
	if !h.running {
		return
	}
	s.cancel(h)
	h.gen++
	h.running = false
	h.task = nil
	s.log.Trace().Stringer("kind", kind).Msg("poll stopped")
}

func (s *Scheduler) StopAll() {
	for k := Kind(0); k < numKinds; k++ {
		s.Stop(k)
	}
}

// SetInterval changes the interval of a running loop, taking effect from the
// next re-arm.
func (s *Scheduler) SetInterval(kind Kind, interval time.Duration) {
	h := &s.handles[kind]
	if !h.running || h.interval == interval {
		return
	}
	h.interval = interval
	s.cancel(h)
	h.gen++
	s.arm(kind, h)
}

func (s *Scheduler) Running(kind Kind) bool {
	return s.handles[kind].running
}

func (s *Scheduler) Interval(kind Kind) time.Duration {
	return s.handles[kind].interval
}

// Active returns the number of running loops.
func (s *Scheduler) Active() int {
	n := 0
	for k := Kind(0); k < numKinds; k++ {
		if s.handles[k].running {
			n++
		}
	}
	return n
}

func (s *Scheduler) cancel(h *handle) {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (s *Scheduler) arm(kind Kind, h *handle) {
	gen := h.gen
	h.timer = s.clock.AfterFunc(h.interval, func() {
		s.poster.Post(func() { s.fire(kind, gen) })
	})
}

func (s *Scheduler) fire(kind Kind, gen uint64) {
	h := &s.handles[kind]
	if !h.running || h.gen != gen {
		s.log.Trace().Stringer("kind", kind).Uint64("gen", gen).Msg("dropping stale tick")
		return
	}
	h.timer = nil
	s.run(kind, h)
	// the task may have restarted or stopped this kind
	if h.running && h.gen == gen {
		s.arm(kind, h)
	}
}

func (s *Scheduler) run(kind Kind, h *handle) {
	if s.onTick != nil {
		s.onTick(kind)
	}
	if h.task != nil {
		h.task()
	}
}
