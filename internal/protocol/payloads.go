// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package protocol

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/anacrolix/torrent/types/infohash"
	"github.com/pkg/errors"
)

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInvalidInfoHash  = errors.New("invalid info hash")
)

// TorrentID is the content hash identifying a torrent row.
type TorrentID string

// ValidateInfoHash accepts hex encoded v1 (40 chars) and v2 (64 chars) info hashes.
func ValidateInfoHash(id TorrentID) error {
	s := string(id)
	switch len(s) {
	case 2 * infohash.Size:
		var h infohash.T
		if err := h.FromHexString(s); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidInfoHash, s, err)
		}
		return nil
	case 64:
		if _, err := hex.DecodeString(s); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidInfoHash, s, err)
		}
		return nil
	default:
		return fmt.Errorf("%w %q: unexpected length %d", ErrInvalidInfoHash, s, len(s))
	}
}

// Envelope frames every message on the wire.
type Envelope struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound payloads.

type BulkRequest struct {
	InfoHash []TorrentID `json:"info_hash"`
}

type RemoveRequest struct {
	InfoHash   TorrentID `json:"info_hash"`
	RemoveData bool      `json:"remove_data"`
}

// FocusRequest addresses the focused torrent. Seq is echoed back by backends
// that support request correlation.
type FocusRequest struct {
	InfoHash TorrentID `json:"info_hash"`
	Seq      uint64    `json:"seq,omitempty"`
}

// Inbound payloads.

// Validator is implemented by every inbound payload.
type Validator interface {
	Validate() error
}

type OverallSpeed struct {
	Up int64 `json:"up"`
	Dn int64 `json:"dn"`
}

type SpeedOverallResponse struct {
	Status Status       `json:"status"`
	Data   OverallSpeed `json:"data"`
}

func (r *SpeedOverallResponse) Validate() error {
	if r.Data.Up < 0 || r.Data.Dn < 0 {
		return errors.Wrap(ErrMalformedPayload, "negative overall speed")
	}
	return nil
}

// Row is one entry of the torrent list.
type Row struct {
	InfoHash TorrentID `json:"info_hash"`
	RowID    TorrentID `json:"DT_RowId"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Progress float64   `json:"progress"`
	Ratio    float64   `json:"ratio"`
	UpRate   int64     `json:"up_rate"`
	DnRate   int64     `json:"dn_rate"`
	Leechers int       `json:"leechers"`
	Peers    int       `json:"peers"`
	Priority int       `json:"priority"`
	IsActive bool      `json:"is_active"`
}

// ID returns the row identity, preferring info_hash over the table row id.
func (r Row) ID() TorrentID {
	if r.InfoHash != "" {
		return r.InfoHash
	}
	return r.RowID
}

type TorrentListResponse struct {
	Status Status `json:"status"`
	Data   []Row  `json:"data"`
}

func (r *TorrentListResponse) Validate() error {
	for i := range r.Data {
		id := r.Data[i].ID()
		if id == "" {
			return errors.Wrapf(ErrMalformedPayload, "row %d has no info_hash", i)
		}
		if err := ValidateInfoHash(id); err != nil {
			return errors.Wrapf(ErrMalformedPayload, "row %d: %v", i, err)
		}
		r.Data[i].InfoHash = id
	}
	return nil
}

type RemoveResult struct {
	InfoHash TorrentID `json:"info_hash"`
}

type TorrentRemoveResponse struct {
	Status Status       `json:"status"`
	Msg    string       `json:"msg"`
	Data   RemoveResult `json:"data"`
}

func (r *TorrentRemoveResponse) Validate() error {
	if !r.Status.OK() {
		return nil
	}
	if err := ValidateInfoHash(r.Data.InfoHash); err != nil {
		return errors.Wrap(ErrMalformedPayload, err.Error())
	}
	return nil
}

// Focus is embedded by responses to focus-scoped requests. Both fields are
// optional, older backends send neither.
type Focus struct {
	InfoHash TorrentID `json:"info_hash,omitempty"`
	Seq      uint64    `json:"seq,omitempty"`
}

type Details struct {
	Focus
	Name                string  `json:"name"`
	TotalDone           int64   `json:"total_done"`
	TotalUploaded       int64   `json:"total_uploaded"`
	TrackerStatus       string  `json:"tracker_status"`
	TrackerHost         string  `json:"tracker_host"`
	Ratio               float64 `json:"ratio"`
	NextAnnounce        int64   `json:"next_announce"`
	DownloadPayloadRate int64   `json:"download_payload_rate"`
	UploadPayloadRate   int64   `json:"upload_payload_rate"`
	ETA                 int64   `json:"eta"`
	NumPieces           int64   `json:"num_pieces"`
	PieceLength         int64   `json:"piece_length"`
	NumSeeds            int     `json:"num_seeds"`
	TotalSeeds          int     `json:"total_seeds"`
	NumPeers            int     `json:"num_peers"`
	TotalPeers          int     `json:"total_peers"`
	DistributedCopies   float64 `json:"distributed_copies"`
	ActiveTime          int64   `json:"active_time"`
	SeedingTime         int64   `json:"seeding_time"`
	TimeAdded           int64   `json:"time_added"`
	SavePath            string  `json:"save_path"`
	TotalSize           int64   `json:"total_size"`
	NumFiles            int     `json:"detail_num_files"`
	Status              string  `json:"detail_status"`
	Comment             string  `json:"comment"`
}

type TorrentDetailsResponse struct {
	Status Status   `json:"status"`
	Data   *Details `json:"data"`
}

func (r *TorrentDetailsResponse) Validate() error {
	if r.Data == nil {
		return errors.Wrap(ErrMalformedPayload, "details response without data")
	}
	if r.Data.ETA < 0 {
		return errors.Wrap(ErrMalformedPayload, "negative eta")
	}
	return validateFocus(r.Data.Focus)
}

type Speed struct {
	Focus
	DownloadPayloadRate int64 `json:"download_payload_rate"`
	UploadPayloadRate   int64 `json:"upload_payload_rate"`
}

type TorrentSpeedResponse struct {
	Status Status `json:"status"`
	Data   *Speed `json:"data"`
}

func (r *TorrentSpeedResponse) Validate() error {
	if r.Data == nil {
		return errors.Wrap(ErrMalformedPayload, "speed response without data")
	}
	if r.Data.DownloadPayloadRate < 0 || r.Data.UploadPayloadRate < 0 {
		return errors.Wrap(ErrMalformedPayload, "negative payload rate")
	}
	return validateFocus(r.Data.Focus)
}

type Peer struct {
	IP        string  `json:"ip"`
	Client    string  `json:"client"`
	Country   string  `json:"country"`
	Progress  float64 `json:"progress"`
	DownSpeed int64   `json:"down_speed"`
	UpSpeed   int64   `json:"up_speed"`
}

type PeerList struct {
	Focus
	Peers []Peer `json:"peers"`
}

type TorrentPeersResponse struct {
	Status Status    `json:"status"`
	Data   *PeerList `json:"data"`
}

func (r *TorrentPeersResponse) Validate() error {
	if r.Data == nil {
		return errors.Wrap(ErrMalformedPayload, "peers response without data")
	}
	for i, p := range r.Data.Peers {
		if p.IP == "" {
			return errors.Wrapf(ErrMalformedPayload, "peer %d has no ip", i)
		}
	}
	return validateFocus(r.Data.Focus)
}

// Alert is pushed by the backend to notify the user.
type Alert struct {
	Msg     string `json:"msg"`
	MsgType string `json:"msg_type"`
}

func (a *Alert) Validate() error {
	if a.Msg == "" {
		return errors.Wrap(ErrMalformedPayload, "alert without msg")
	}
	return nil
}

// ActionResponse is the status-only reply to stop/start/recheck/reannounce.
type ActionResponse struct {
	Status  Status `json:"status"`
	Msg     string `json:"msg"`
	MsgType string `json:"msg_type"`
}

func (r *ActionResponse) Validate() error {
	return nil
}

func validateFocus(f Focus) error {
	if f.InfoHash == "" {
		return nil
	}
	if err := ValidateInfoHash(f.InfoHash); err != nil {
		return errors.Wrap(ErrMalformedPayload, err.Error())
	}
	return nil
}

// Decode unmarshals raw into a fresh T and validates it.
func Decode[T any, PT interface {
	*T
	Validator
}](raw json.RawMessage) (*T, error) {
	var v T
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.Wrap(ErrMalformedPayload, err.Error())
	}
	if err := PT(&v).Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Encode builds the wire envelope for an outbound message.
func Encode(event Event, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s", event)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}
