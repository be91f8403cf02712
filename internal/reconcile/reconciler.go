// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package reconcile applies inbound backend messages to the dashboard state.
// Each message name has exactly one handler. Responses to focus-scoped
// requests that belong to an earlier focus are dropped.
package reconcile

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/torrentdash/internal/protocol"
	"github.com/autobrr/torrentdash/internal/store"
)

// DetailCacheTTL is how long a detail snapshot is kept for repainting on refocus.
const DetailCacheTTL = 5 * time.Minute

// Presentation collaborators.

type Rows interface {
	Append(rows ...protocol.Row)
	Remove(id protocol.TorrentID) int
}

type Traffic interface {
	Append(s store.Sample)
}

type Peers interface {
	Replace(peers []protocol.Peer)
}

type Detail interface {
	Replace(id protocol.TorrentID, d *protocol.Details)
	Prime(id protocol.TorrentID, d *protocol.Details)
}

type Header interface {
	Set(up, dn int64)
}

type Alerts interface {
	Add(text, severity string, ttl time.Duration) int
}

// Focus reports the currently focused torrent.
type Focus interface {
	Focused() (protocol.TorrentID, bool)
}

// Observer receives per-message counters.
type Observer interface {
	Received(event protocol.Event)
	Rejected(event protocol.Event)
	Stale(event protocol.Event)
}

type nopObserver struct{}

func (nopObserver) Received(protocol.Event) {}
func (nopObserver) Rejected(protocol.Event) {}
func (nopObserver) Stale(protocol.Event)    {}

// Registrar binds a handler to a message name, once per name.
type Registrar interface {
	Register(event protocol.Event, handler func(raw json.RawMessage)) error
}

type Presenters struct {
	Rows    Rows
	Traffic Traffic
	Peers   Peers
	Detail  Detail
	Header  Header
	Alerts  Alerts
}

// Dashboard adapts the store to the presenter set.
func Dashboard(d *store.Dashboard) Presenters {
	return Presenters{
		Rows:    d.Rows,
		Traffic: d.Traffic,
		Peers:   d.Peers,
		Detail:  d.Detail,
		Header:  d.Header,
		Alerts:  d.Alerts,
	}
}

type Options struct {
	// AlertTTL is the lifetime of backend alerts, zero keeps them until dismissed.
	AlertTTL time.Duration
	Observer Observer
	Now      func() time.Time
}

// Reconciler is not safe for concurrent use; handlers run on the session loop.
type Reconciler struct {
	p        Presenters
	focus    Focus
	alertTTL time.Duration
	observer Observer
	now      func() time.Time

	// epoch is the first request sequence issued for the current focus.
	epoch uint64

	peersFocus       protocol.TorrentID
	peersFingerprint uint64

	details   *ttlcache.Cache[protocol.TorrentID, protocol.Details]
	closeOnce sync.Once

	log zerolog.Logger
}

func New(p Presenters, focus Focus, opts Options) *Reconciler {
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		p:        p,
		focus:    focus,
		alertTTL: opts.AlertTTL,
		observer: opts.Observer,
		now:      opts.Now,
		details:  ttlcache.New(ttlcache.Options[protocol.TorrentID, protocol.Details]{}.SetDefaultTTL(DetailCacheTTL)),
		log:      log.Logger.With().Str("module", "reconcile").Logger(),
	}
}

// Close stops the detail cache expiry. It is safe to call more than once.
func (r *Reconciler) Close() {
	r.closeOnce.Do(r.details.Close)
}

// SetAlertTTL changes the lifetime of subsequent backend alerts.
func (r *Reconciler) SetAlertTTL(ttl time.Duration) {
	r.alertTTL = ttl
}

// BeginFocus marks a focus change. Focus-scoped responses echoing a sequence
// below epoch are dropped from now on. A cached snapshot of id, if any, is
// painted straight away.
func (r *Reconciler) BeginFocus(id protocol.TorrentID, epoch uint64) bool {
	r.epoch = epoch
	r.peersFocus, r.peersFingerprint = "", 0

	cached, ok := r.details.Get(id)
	if !ok {
		return false
	}
	r.p.Detail.Prime(id, &cached)
	return true
}

// Register binds every handler. The torrent view gets the full set, other
// views only the header speed handler.
func (r *Reconciler) Register(reg Registrar, torrentView bool) error {
	handlers := []struct {
		event   protocol.Event
		handler func(json.RawMessage)
	}{
		{protocol.EventSpeedOverallResponse, handle(r, protocol.EventSpeedOverallResponse, r.onSpeedOverall)},
	}

	if torrentView {
		handlers = append(handlers, []struct {
			event   protocol.Event
			handler func(json.RawMessage)
		}{
			{protocol.EventTorrentListResponse, handle(r, protocol.EventTorrentListResponse, r.onList)},
			{protocol.EventTorrentRemoveResponse, handle(r, protocol.EventTorrentRemoveResponse, r.onRemove)},
			{protocol.EventTorrentDetailsResponse, handle(r, protocol.EventTorrentDetailsResponse, r.onDetails)},
			{protocol.EventTorrentSpeedResponse, handle(r, protocol.EventTorrentSpeedResponse, r.onSpeed)},
			{protocol.EventTorrentPeersResponse, r.peersHandler()},
			{protocol.EventTorrentFilesResponse, r.ignore(protocol.EventTorrentFilesResponse)},
			{protocol.EventAlert, handle(r, protocol.EventAlert, r.onAlert)},
			{protocol.EventTorrentStopResponse, r.action("stop", protocol.EventTorrentStopResponse)},
			{protocol.EventTorrentStartResponse, r.action("start", protocol.EventTorrentStartResponse)},
			{protocol.EventTorrentRecheckResponse, r.action("recheck", protocol.EventTorrentRecheckResponse)},
			{protocol.EventTorrentReannounceResponse, r.action("reannounce", protocol.EventTorrentReannounceResponse)},
			{protocol.EventTorrentAnnounceResponse, r.action("announce", protocol.EventTorrentAnnounceResponse)},
		}...)
	}

	for _, h := range handlers {
		if err := reg.Register(h.event, h.handler); err != nil {
			return err
		}
	}
	return nil
}

// handle decodes and validates raw before apply runs. Malformed payloads are
// logged and counted and never reach presentation.
func handle[T any, PT interface {
	*T
	protocol.Validator
}](r *Reconciler, event protocol.Event, apply func(*T)) func(json.RawMessage) {
	return func(raw json.RawMessage) {
		r.observer.Received(event)
		msg, err := protocol.Decode[T, PT](raw)
		if err != nil {
			r.observer.Rejected(event)
			r.log.Warn().Err(err).Str("event", string(event)).Msg("rejected payload")
			return
		}
		apply(msg)
	}
}

func (r *Reconciler) ignore(event protocol.Event) func(json.RawMessage) {
	return func(json.RawMessage) {
		r.observer.Received(event)
	}
}

func (r *Reconciler) onSpeedOverall(msg *protocol.SpeedOverallResponse) {
	r.p.Header.Set(msg.Data.Up, msg.Data.Dn)
}

func (r *Reconciler) onList(msg *protocol.TorrentListResponse) {
	r.p.Rows.Append(msg.Data...)
}

func (r *Reconciler) onRemove(msg *protocol.TorrentRemoveResponse) {
	if !msg.Status.OK() {
		r.log.Debug().Stringer("status", msg.Status).Str("msg", msg.Msg).Msg("remove failed, keeping row")
		return
	}
	r.p.Rows.Remove(msg.Data.InfoHash)
	r.details.Delete(msg.Data.InfoHash)
}

func (r *Reconciler) onDetails(msg *protocol.TorrentDetailsResponse) {
	id, ok := r.current(protocol.EventTorrentDetailsResponse, msg.Data.Focus)
	if !ok {
		return
	}
	r.p.Detail.Replace(id, msg.Data)
	r.details.Set(id, *msg.Data, ttlcache.DefaultTTL)
}

func (r *Reconciler) onSpeed(msg *protocol.TorrentSpeedResponse) {
	if _, ok := r.current(protocol.EventTorrentSpeedResponse, msg.Data.Focus); !ok {
		return
	}
	r.p.Traffic.Append(store.Sample{
		Time:     r.now(),
		Upload:   msg.Data.UploadPayloadRate,
		Download: msg.Data.DownloadPayloadRate,
	})
}

// peersHandler skips recomputing the histograms when the payload is byte
// identical to the last one applied for the same focus.
func (r *Reconciler) peersHandler() func(json.RawMessage) {
	apply := handle(r, protocol.EventTorrentPeersResponse, func(msg *protocol.TorrentPeersResponse) {
		id, ok := r.current(protocol.EventTorrentPeersResponse, msg.Data.Focus)
		if !ok {
			return
		}
		r.peersFocus = id
		r.p.Peers.Replace(msg.Data.Peers)
	})

	return func(raw json.RawMessage) {
		sum := xxhash.Sum64(raw)
		if id, ok := r.focus.Focused(); ok && id == r.peersFocus && sum == r.peersFingerprint {
			r.observer.Received(protocol.EventTorrentPeersResponse)
			return
		}
		r.peersFingerprint = sum
		apply(raw)
	}
}

func (r *Reconciler) onAlert(msg *protocol.Alert) {
	r.p.Alerts.Add(msg.Msg, msg.MsgType, r.alertTTL)
}

// action surfaces a status-only response as a generic alert.
func (r *Reconciler) action(name string, event protocol.Event) func(json.RawMessage) {
	return handle(r, event, func(msg *protocol.ActionResponse) {
		text := msg.Msg
		if text == "" {
			text = "Got " + name + " response"
		}
		severity := msg.MsgType
		if severity == "" {
			severity = store.SeverityInfo
			if !msg.Status.OK() {
				severity = store.SeverityAlert
			}
		}
		r.p.Alerts.Add(text, severity, r.alertTTL)
	})
}

// current resolves the focus a response applies to. It reports false when
// nothing is focused or when the response names another torrent or predates
// the current focus.
func (r *Reconciler) current(event protocol.Event, f protocol.Focus) (protocol.TorrentID, bool) {
	id, ok := r.focus.Focused()
	if !ok {
		r.drop(event, f, "no focus")
		return "", false
	}
	if f.InfoHash != "" && f.InfoHash != id {
		r.drop(event, f, "different torrent")
		return "", false
	}
	if f.Seq != 0 && f.Seq < r.epoch {
		r.drop(event, f, "previous focus")
		return "", false
	}
	return id, true
}

func (r *Reconciler) drop(event protocol.Event, f protocol.Focus, reason string) {
	r.observer.Stale(event)
	r.log.Debug().
		Str("event", string(event)).
		Str("info_hash", string(f.InfoHash)).
		Uint64("seq", f.Seq).
		Uint64("epoch", r.epoch).
		Msg("dropping stale response: " + reason)
}
