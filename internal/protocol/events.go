// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package protocol describes the named messages exchanged with the torrent
// backend over the duplex channel, and validates their payloads.
package protocol

// Event is the name of a message on the channel.
type Event string

// Outbound events.
const (
	EventTorrentList     Event = "event_torrent_list"
	EventTorrentStop     Event = "event_torrent_stop"
	EventTorrentStart    Event = "event_torrent_start"
	EventTorrentRecheck  Event = "event_torrent_recheck"
	EventTorrentAnnounce Event = "event_torrent_announce"
	EventTorrentRemove   Event = "event_torrent_remove"
	EventTorrentDetails  Event = "event_torrent_details"
	EventTorrentSpeed    Event = "event_torrent_speed"
	EventTorrentPeers    Event = "event_torrent_peers"
	EventTorrentFiles    Event = "event_torrent_files"
	EventSpeedOverall    Event = "event_speed_overall"
)

// Inbound events.
const (
	EventSpeedOverallResponse      Event = "event_speed_overall_response"
	EventTorrentListResponse       Event = "event_torrent_list_response"
	EventTorrentRemoveResponse     Event = "event_torrent_remove_response"
	EventTorrentDetailsResponse    Event = "event_torrent_details_response"
	EventTorrentSpeedResponse      Event = "event_torrent_speed_response"
	EventTorrentPeersResponse      Event = "event_torrent_peers_response"
	EventTorrentFilesResponse      Event = "event_torrent_files_response"
	EventTorrentRecheckResponse    Event = "event_torrent_recheck_response"
	EventTorrentReannounceResponse Event = "event_torrent_reannounce_response"
	EventTorrentAnnounceResponse   Event = "event_torrent_announce_response"
	EventTorrentStopResponse       Event = "event_torrent_stop_response"
	EventTorrentStartResponse      Event = "event_torrent_start_response"
	EventAlert                     Event = "event_alert"
)

// Status codes carried by action responses.
const (
	StatusOK                Status = 0
	StatusFail              Status = 1
	StatusIncompleteRequest Status = 10
	StatusInvalidInfoHash   Status = 11
)

type Status int

func (s Status) OK() bool {
	return s == StatusOK
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFail:
		return "failed"
	case StatusIncompleteRequest:
		return "incomplete request"
	case StatusInvalidInfoHash:
		return "invalid info hash"
	default:
		return "unknown"
	}
}
