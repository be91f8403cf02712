// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package session is the context object of one dashboard run. It owns the
// selection, the poll scheduler, the dispatcher and the reconciler and wires
// them to the channel and the presentation state.
package session

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/torrentdash/internal/channel"
	"github.com/autobrr/torrentdash/internal/dispatch"
	"github.com/autobrr/torrentdash/internal/domain"
	"github.com/autobrr/torrentdash/internal/metrics"
	"github.com/autobrr/torrentdash/internal/poll"
	"github.com/autobrr/torrentdash/internal/protocol"
	"github.com/autobrr/torrentdash/internal/reconcile"
	"github.com/autobrr/torrentdash/internal/selection"
	"github.com/autobrr/torrentdash/internal/store"
)

var ErrStopped = errors.New("session stopped")

const (
	msgConnected   = "Connected to backend successfully"
	msgReconnected = "Reconnected to backend successfully"
	msgLost        = "Lost connection to backend"
)

type Deps struct {
	Config    *domain.Config
	Endpoint  string
	Sender    dispatch.Sender
	Poster    poll.Poster
	Clock     poll.Clock
	Dashboard *store.Dashboard
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Session is not safe for concurrent use. Every method runs on the goroutine
// behind the poster, Remote marshals calls from elsewhere.
type Session struct {
	cfg      domain.Config
	endpoint string

	selection  *selection.Store
	scheduler  *poll.Scheduler
	dispatcher *dispatch.Dispatcher
	reconciler *reconcile.Reconciler
	dash       *store.Dashboard
	metrics    *metrics.Metrics

	connected bool

	log zerolog.Logger
}

func New(deps Deps) *Session {
	s := &Session{
		cfg:       *deps.Config,
		endpoint:  deps.Endpoint,
		selection: selection.NewStore(),
		scheduler: poll.NewScheduler(deps.Clock, deps.Poster),
		dash:      deps.Dashboard,
		metrics:   deps.Metrics,
		log:       log.Logger.With().Str("module", "session").Logger(),
	}
	s.dispatcher = dispatch.New(deps.Sender, s.selection)

	opts := reconcile.Options{AlertTTL: s.cfg.AlertLifetime()}
	if s.metrics != nil {
		opts.Observer = s.metrics
		s.scheduler.OnTick(func(k poll.Kind) {
			s.metrics.Tick(k)
			s.metrics.SetRows(s.dash.Rows.Len())
		})
	}
	presenters := reconcile.Dashboard(s.dash)
	presenters.Rows = rowsForgettingSelection{RowStore: s.dash.Rows, forget: s.forget}
	s.reconciler = reconcile.New(presenters, s.selection, opts)

	s.applyRowFilter(s.cfg.RowFilter)
	return s
}

// rowsForgettingSelection drops removed torrents from the selection so later
// bulk actions do not address them.
type rowsForgettingSelection struct {
	*store.RowStore
	forget func(id protocol.TorrentID)
}

func (r rowsForgettingSelection) Remove(id protocol.TorrentID) int {
	r.forget(id)
	return r.RowStore.Remove(id)
}

func (s *Session) forget(id protocol.TorrentID) {
	s.selection.Forget(id)
	s.publishSelection()
}

// publishSelection copies the selection to the dashboard for rendering.
func (s *Session) publishSelection() {
	focused, _ := s.selection.Focused()
	s.dash.Selection.Publish(s.selection.Members(), focused)
}

// Register binds the inbound handlers for the configured view.
func (s *Session) Register(reg reconcile.Registrar) error {
	return s.reconciler.Register(reg, s.cfg.IsTorrentView())
}

// OnLifecycle applies the connect side effects. Running them on every
// (re)connect is safe: the table is cleared before the list is requested and
// the overall speed loop is only started when idle.
func (s *Session) OnLifecycle(l channel.Lifecycle) {
	if s.metrics != nil {
		s.metrics.Lifecycle(l)
	}

	switch l {
	case channel.Connected, channel.Reconnected:
		s.connected = true
		text := msgConnected
		if l == channel.Reconnected {
			text = msgReconnected
		}
		s.dash.Alerts.Add(text, store.SeverityInfo, s.cfg.AlertLifetime())

		if s.cfg.IsTorrentView() {
			s.RefreshList()
		}
		s.scheduler.StartIfIdle(poll.KindOverallSpeed, s.cfg.PollInterval(), true, func() {
			s.dispatcher.OverallSpeed()
		})

	case channel.Disconnected:
		s.connected = false
		s.dash.Alerts.Add(msgLost, store.SeverityWarning, s.cfg.AlertLifetime())
	}
}

// SelectSingle focuses id and makes it the only selected row. The three focus
// loops are cancelled and restarted bound to the new focus, each sending its
// first request straight away.
func (s *Session) SelectSingle(id protocol.TorrentID) {
	prev := s.selection.SelectSingle(id)
	s.publishSelection()
	for _, k := range poll.FocusKinds {
		s.scheduler.Stop(k)
	}

	if prev != id {
		s.dash.ResetFocus()
	}
	s.reconciler.BeginFocus(id, s.dispatcher.NextSeq())

	t := s.cfg.PollInterval()
	s.scheduler.Start(poll.KindDetails, 2*t, true, func() { s.dispatcher.Details() })
	s.scheduler.Start(poll.KindSpeed, t, true, func() { s.dispatcher.Speed() })
	s.scheduler.Start(poll.KindPeers, t, true, func() { s.dispatcher.Peers() })

	s.log.Debug().Str("focus", string(id)).Str("previous", string(prev)).Msg("focus changed")
}

// ToggleMember adds or removes id from the selection without touching focus
// or polling. It reports whether id is selected afterwards.
func (s *Session) ToggleMember(id protocol.TorrentID) bool {
	selected := s.selection.Toggle(id)
	s.publishSelection()
	return selected
}

// RefreshList clears the table and requests the full list again. List
// responses append, so the table has to be empty when the reply arrives.
func (s *Session) RefreshList() bool {
	s.dash.Rows.Clear()
	return s.dispatcher.RefreshList()
}

// Do performs a user intent against the current selection.
func (s *Session) Do(intent dispatch.Intent) int {
	var n int
	if intent == dispatch.IntentRefreshList {
		if s.RefreshList() {
			n = 1
		}
	} else {
		n = s.dispatcher.Do(intent)
	}
	s.log.Debug().Stringer("intent", intent).Int("messages", n).Msg("intent dispatched")
	return n
}

// ResizeColumns re-measures the torrent table.
func (s *Session) ResizeColumns() {
	s.dash.Rows.Remeasure()
}

// ApplyConfig takes over reloadable settings. Running loops keep their phase
// and pick up a new interval from the next tick.
func (s *Session) ApplyConfig(cfg *domain.Config) {
	prevFilter := s.cfg.RowFilter
	s.cfg.UpdateInterval = cfg.UpdateInterval
	s.cfg.AlertTTL = cfg.AlertTTL
	s.cfg.RowFilter = cfg.RowFilter

	t := s.cfg.PollInterval()
	s.scheduler.SetInterval(poll.KindOverallSpeed, t)
	s.scheduler.SetInterval(poll.KindDetails, 2*t)
	s.scheduler.SetInterval(poll.KindSpeed, t)
	s.scheduler.SetInterval(poll.KindPeers, t)

	s.reconciler.SetAlertTTL(s.cfg.AlertLifetime())

	if prevFilter != s.cfg.RowFilter {
		s.applyRowFilter(s.cfg.RowFilter)
	}
}

func (s *Session) applyRowFilter(source string) {
	f, err := store.CompileFilter(source)
	if err != nil {
		s.log.Error().Err(err).Msg("ignoring invalid row filter")
		s.dash.Alerts.Add("Invalid row filter: "+err.Error(), store.SeverityAlert, 0)
		f = nil
	}
	s.dash.Rows.SetFilter(f)
}

// Status snapshots the session.
func (s *Session) Status() domain.SessionStatus {
	st := domain.SessionStatus{
		Endpoint:  s.endpoint,
		View:      s.cfg.View,
		Connected: s.connected,
		Rows:      s.dash.Rows.Len(),
	}
	if st.View == "" {
		st.View = domain.ViewTorrents
	}
	if id, ok := s.selection.Focused(); ok {
		st.Focused = string(id)
	}
	st.Selected = make([]string, 0, s.selection.Len())
	for _, id := range s.selection.Members() {
		st.Selected = append(st.Selected, string(id))
	}
	st.ActivePolls = []string{}
	for _, k := range append([]poll.Kind{poll.KindOverallSpeed}, poll.FocusKinds...) {
		if s.scheduler.Running(k) {
			st.ActivePolls = append(st.ActivePolls, k.String())
		}
	}
	return st
}

// Close stops every poll loop and the detail cache.
func (s *Session) Close() {
	s.scheduler.StopAll()
	s.reconciler.Close()
}

// PollInterval is the interval the given kind currently runs at.
func (s *Session) PollInterval(kind poll.Kind) (time.Duration, bool) {
	return s.scheduler.Interval(kind), s.scheduler.Running(kind)
}
