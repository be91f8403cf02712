// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dispatch turns user intents and poll ticks into outbound messages.
package dispatch

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/torrentdash/internal/protocol"
)

// Sender enqueues a named message on the channel.
type Sender interface {
	Send(event protocol.Event, payload any) error
}

// Selection is the read side of the selection store.
type Selection interface {
	Members() []protocol.TorrentID
	Focused() (protocol.TorrentID, bool)
}

type Intent int

const (
	IntentStop Intent = iota
	IntentStart
	IntentRecheck
	IntentReannounce
	IntentRemove
	IntentRemoveData
	IntentRefreshList
)

func (i Intent) String() string {
	switch i {
	case IntentStop:
		return "stop"
	case IntentStart:
		return "start"
	case IntentRecheck:
		return "recheck"
	case IntentReannounce:
		return "reannounce"
	case IntentRemove:
		return "remove"
	case IntentRemoveData:
		return "remove-data"
	case IntentRefreshList:
		return "refresh-list"
	default:
		return "unknown"
	}
}

var bulkEvents = map[Intent]protocol.Event{
	IntentStop:       protocol.EventTorrentStop,
	IntentStart:      protocol.EventTorrentStart,
	IntentRecheck:    protocol.EventTorrentRecheck,
	IntentReannounce: protocol.EventTorrentAnnounce,
}

// Dispatcher keeps no table of outstanding requests. The only state is the
// sequence stamped on focus-scoped requests.
type Dispatcher struct {
	sender    Sender
	selection Selection
	seq       uint64
	log       zerolog.Logger
}

func New(sender Sender, selection Selection) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		selection: selection,
		log:       log.Logger.With().Str("module", "dispatch").Logger(),
	}
}

// Do performs a user intent and returns the number of messages sent.
func (d *Dispatcher) Do(intent Intent) int {
	switch intent {
	case IntentRemove:
		return d.Remove(false)
	case IntentRemoveData:
		return d.Remove(true)
	case IntentRefreshList:
		if d.send(protocol.EventTorrentList, nil) {
			return 1
		}
		return 0
	default:
		event, ok := bulkEvents[intent]
		if !ok {
			d.log.Warn().Stringer("intent", intent).Msg("unknown intent")
			return 0
		}
		return d.bulk(event)
	}
}

// bulk addresses every selected id in one message. An empty selection sends nothing.
func (d *Dispatcher) bulk(event protocol.Event) int {
	members := d.selection.Members()
	if len(members) == 0 {
		d.log.Debug().Str("event", string(event)).Msg("no torrents selected")
		return 0
	}
	if d.send(event, protocol.BulkRequest{InfoHash: members}) {
		return 1
	}
	return 0
}

// Remove sends one remove message per selected id.
func (d *Dispatcher) Remove(withData bool) int {
	sent := 0
	for _, id := range d.selection.Members() {
		if d.send(protocol.EventTorrentRemove, protocol.RemoveRequest{InfoHash: id, RemoveData: withData}) {
			sent++
		}
	}
	return sent
}

func (d *Dispatcher) RefreshList() bool {
	return d.send(protocol.EventTorrentList, nil)
}

func (d *Dispatcher) OverallSpeed() bool {
	return d.send(protocol.EventSpeedOverall, nil)
}

func (d *Dispatcher) Details() bool {
	return d.focused(protocol.EventTorrentDetails)
}

func (d *Dispatcher) Speed() bool {
	return d.focused(protocol.EventTorrentSpeed)
}

func (d *Dispatcher) Peers() bool {
	return d.focused(protocol.EventTorrentPeers)
}

// NextSeq is the sequence the next focus-scoped request will carry. Responses
// echoing an older sequence belong to a previous focus.
func (d *Dispatcher) NextSeq() uint64 {
	return d.seq + 1
}

func (d *Dispatcher) focused(event protocol.Event) bool {
	id, ok := d.selection.Focused()
	if !ok {
		return false
	}
	d.seq++
	return d.send(event, protocol.FocusRequest{InfoHash: id, Seq: d.seq})
}

func (d *Dispatcher) send(event protocol.Event, payload any) bool {
	if err := d.sender.Send(event, payload); err != nil {
		d.log.Debug().Err(err).Str("event", string(event)).Msg("failed to send")
		return false
	}
	return true
}
