// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package reconcile

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/torrentdash/internal/domain"
	"github.com/autobrr/torrentdash/internal/protocol"
	"github.com/autobrr/torrentdash/internal/store"
)

const (
	hashA = "c9e15763f722f23e98a29decdfae341b98d53056"
	hashB = "d2474e86c95b19b8bcfdb92bc12c9d44667cfa36"
)

type registry map[protocol.Event]func(json.RawMessage)

func (r registry) Register(event protocol.Event, h func(json.RawMessage)) error {
	if _, ok := r[event]; ok {
		return errors.Errorf("duplicate %s", event)
	}
	r[event] = h
	return nil
}

func (r registry) deliver(t *testing.T, event protocol.Event, payload string) {
	t.Helper()
	h, ok := r[event]
	require.True(t, ok, "no handler for %s", event)
	h(json.RawMessage(payload))
}

type focus struct {
	id protocol.TorrentID
}

func (f *focus) Focused() (protocol.TorrentID, bool) {
	return f.id, f.id != ""
}

type counter struct {
	received, rejected, stale map[protocol.Event]int
}

func newCounter() *counter {
	return &counter{
		received: map[protocol.Event]int{},
		rejected: map[protocol.Event]int{},
		stale:    map[protocol.Event]int{},
	}
}

func (c *counter) Received(e protocol.Event) { c.received[e]++ }
func (c *counter) Rejected(e protocol.Event) { c.rejected[e]++ }
func (c *counter) Stale(e protocol.Event)    { c.stale[e]++ }

type fixture struct {
	dash  *store.Dashboard
	focus *focus
	obs   *counter
	rec   *Reconciler
	reg   registry
}

func newFixture(t *testing.T, torrentView bool) *fixture {
	t.Helper()
	f := &fixture{
		dash:  store.NewDashboard(&domain.Config{}),
		focus: &focus{},
		obs:   newCounter(),
		reg:   registry{},
	}
	now := time.Unix(1700000000, 0)
	f.rec = New(Dashboard(f.dash), f.focus, Options{
		AlertTTL: 5 * time.Second,
		Observer: f.obs,
		Now:      func() time.Time { return now },
	})
	t.Cleanup(f.rec.Close)
	require.NoError(t, f.rec.Register(f.reg, torrentView))
	return f
}

func TestRegisterByView(t *testing.T) {
	f := newFixture(t, false)
	assert.Len(t, f.reg, 1)
	assert.Contains(t, f.reg, protocol.EventSpeedOverallResponse)

	f = newFixture(t, true)
	assert.Len(t, f.reg, 13)
	for _, e := range []protocol.Event{
		protocol.EventTorrentListResponse,
		protocol.EventTorrentRemoveResponse,
		protocol.EventTorrentDetailsResponse,
		protocol.EventTorrentSpeedResponse,
		protocol.EventTorrentPeersResponse,
		protocol.EventTorrentFilesResponse,
		protocol.EventAlert,
		protocol.EventTorrentStopResponse,
		protocol.EventTorrentRecheckResponse,
		protocol.EventTorrentReannounceResponse,
	} {
		assert.Contains(t, f.reg, e)
	}

	require.Error(t, f.rec.Register(f.reg, true), "registering twice fails")
}

func TestListResponseAppendsInOrder(t *testing.T) {
	f := newFixture(t, true)
	f.reg.deliver(t, protocol.EventTorrentListResponse,
		`{"data":[{"info_hash":"`+hashA+`","name":"a"},{"info_hash":"`+hashB+`","name":"b"}]}`)

	assert.Equal(t, []protocol.TorrentID{hashA, hashB}, f.dash.Rows.IDs())

	f.reg.deliver(t, protocol.EventTorrentListResponse, `{"data":[{"info_hash":"`+hashA+`","name":"a"}]}`)
	assert.Equal(t, []protocol.TorrentID{hashA, hashB, hashA}, f.dash.Rows.IDs(), "duplicates are kept")
}

func TestRemoveResponse(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []protocol.TorrentID
	}{
		{name: "success", payload: `{"status":0,"data":{"info_hash":"` + hashA + `"}}`, want: []protocol.TorrentID{hashB}},
		{name: "failed", payload: `{"status":1,"msg":"nope","data":{"info_hash":"` + hashA + `"}}`, want: []protocol.TorrentID{hashA, hashB}},
		{name: "invalid_hash_status", payload: `{"status":11}`, want: []protocol.TorrentID{hashA, hashB}},
		{name: "malformed", payload: `{"status":0,"data":{"info_hash":"zz"}}`, want: []protocol.TorrentID{hashA, hashB}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.dash.Rows.Append(protocol.Row{InfoHash: hashA}, protocol.Row{InfoHash: hashB})

			f.reg.deliver(t, protocol.EventTorrentRemoveResponse, tt.payload)
			assert.Equal(t, tt.want, f.dash.Rows.IDs())
			assert.Empty(t, f.dash.Alerts.Active(), "remove responses raise no alert")
		})
	}
}

func TestSpeedOverallResponse(t *testing.T) {
	f := newFixture(t, false)
	f.reg.deliver(t, protocol.EventSpeedOverallResponse, `{"data":{"up":1500,"dn":999}}`)

	up, dn := f.dash.Header.Speeds()
	assert.Equal(t, "1.5 KB/s", up)
	assert.Equal(t, "999 B/s", dn)
}

func TestDetailsResponse(t *testing.T) {
	f := newFixture(t, true)
	f.focus.id = hashA
	f.rec.BeginFocus(hashA, 1)

	f.reg.deliver(t, protocol.EventTorrentDetailsResponse, `{"data":{"name":"a","eta":0,"ratio":1.234,"seq":1}}`)

	view, ok, cached := f.dash.Detail.View()
	require.True(t, ok)
	assert.False(t, cached)
	assert.Equal(t, protocol.TorrentID(hashA), view.Hash)
	assert.Equal(t, "∞", view.ETA)
	assert.Equal(t, "1.23", view.Ratio)

	f.reg.deliver(t, protocol.EventTorrentDetailsResponse, `{"data":{"name":"a","eta":3661}}`)
	view, _, _ = f.dash.Detail.View()
	assert.Equal(t, "an hour", view.ETA, "snapshot is replaced wholesale")
}

func TestStaleFocusResponsesDropped(t *testing.T) {
	tests := []struct {
		name    string
		event   protocol.Event
		payload string
		stale   bool
	}{
		{name: "details_other_hash", event: protocol.EventTorrentDetailsResponse, payload: `{"data":{"info_hash":"` + hashA + `"}}`, stale: true},
		{name: "details_old_seq", event: protocol.EventTorrentDetailsResponse, payload: `{"data":{"seq":4}}`, stale: true},
		{name: "details_current_seq", event: protocol.EventTorrentDetailsResponse, payload: `{"data":{"seq":5}}`},
		{name: "details_untagged", event: protocol.EventTorrentDetailsResponse, payload: `{"data":{}}`},
		{name: "speed_other_hash", event: protocol.EventTorrentSpeedResponse, payload: `{"data":{"info_hash":"` + hashA + `","upload_payload_rate":1}}`, stale: true},
		{name: "speed_old_seq", event: protocol.EventTorrentSpeedResponse, payload: `{"data":{"seq":2,"upload_payload_rate":1}}`, stale: true},
		{name: "speed_matching", event: protocol.EventTorrentSpeedResponse, payload: `{"data":{"info_hash":"` + hashB + `","seq":6,"upload_payload_rate":1}}`},
		{name: "peers_other_hash", event: protocol.EventTorrentPeersResponse, payload: `{"data":{"info_hash":"` + hashA + `","peers":[{"ip":"1.1.1.1"}]}}`, stale: true},
		{name: "peers_untagged", event: protocol.EventTorrentPeersResponse, payload: `{"data":{"peers":[{"ip":"1.1.1.1"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.focus.id = hashB
			f.rec.BeginFocus(hashB, 5)

			f.reg.deliver(t, tt.event, tt.payload)

			_, detailSet, _ := f.dash.Detail.View()
			applied := detailSet || f.dash.Traffic.Len() > 0 || len(f.dash.Peers.Rows()) > 0
			if tt.stale {
				assert.Equal(t, 1, f.obs.stale[tt.event])
				assert.False(t, applied)
				return
			}
			assert.Zero(t, f.obs.stale[tt.event])
			assert.True(t, applied)
		})
	}
}

func TestFocusResponsesWithoutFocusDropped(t *testing.T) {
	f := newFixture(t, true)
	f.reg.deliver(t, protocol.EventTorrentSpeedResponse, `{"data":{"upload_payload_rate":1}}`)
	assert.Zero(t, f.dash.Traffic.Len())
	assert.Equal(t, 1, f.obs.stale[protocol.EventTorrentSpeedResponse])
}

func TestSpeedResponseAppendsSample(t *testing.T) {
	f := newFixture(t, true)
	f.focus.id = hashA

	f.reg.deliver(t, protocol.EventTorrentSpeedResponse, `{"data":{"download_payload_rate":200,"upload_payload_rate":100}}`)
	f.reg.deliver(t, protocol.EventTorrentSpeedResponse, `{"data":{"download_payload_rate":300,"upload_payload_rate":150}}`)

	window := f.dash.Traffic.Window()
	require.Len(t, window, 2)
	assert.Equal(t, store.Sample{Time: time.Unix(1700000000, 0), Upload: 100, Download: 200}, window[0])
	assert.Equal(t, int64(300), window[1].Download)
}

func TestPeersResponse(t *testing.T) {
	f := newFixture(t, true)
	f.focus.id = hashA
	f.rec.BeginFocus(hashA, 1)

	payload := `{"data":{"peers":[
		{"ip":"10.0.0.1","client":"Deluge 1.3.6","country":"SE"},
		{"ip":"10.0.0.2","client":"Deluge 1.3.5","country":"SE"},
		{"ip":"10.0.0.3","client":"Transmission 2.82","country":"US"}
	]}}`
	f.reg.deliver(t, protocol.EventTorrentPeersResponse, payload)

	assert.Equal(t, []store.Bucket{{Label: "SE", Value: 2}, {Label: "US", Value: 1}}, f.dash.Peers.Countries())
	assert.Equal(t, []store.Bucket{{Label: "Deluge", Value: 2}, {Label: "Transmission", Value: 1}}, f.dash.Peers.Clients())
	assert.Len(t, f.dash.Peers.Rows(), 3)

	// identical payload is skipped
	f.dash.Peers.Clear()
	f.reg.deliver(t, protocol.EventTorrentPeersResponse, payload)
	assert.Empty(t, f.dash.Peers.Rows())
	assert.Equal(t, 2, f.obs.received[protocol.EventTorrentPeersResponse])

	// a new focus applies it again
	f.focus.id = hashB
	f.rec.BeginFocus(hashB, 2)
	f.reg.deliver(t, protocol.EventTorrentPeersResponse, payload)
	assert.Len(t, f.dash.Peers.Rows(), 3)
}

func TestAlerts(t *testing.T) {
	f := newFixture(t, true)

	f.reg.deliver(t, protocol.EventAlert, `{"msg":"Torrent added","msg_type":"success"}`)
	f.reg.deliver(t, protocol.EventTorrentRecheckResponse, `{"status":0}`)
	f.reg.deliver(t, protocol.EventTorrentReannounceResponse, ``)
	f.reg.deliver(t, protocol.EventTorrentStopResponse, `{"status":1,"msg":"Failed to stop"}`)
	f.reg.deliver(t, protocol.EventTorrentStartResponse, `{"status":0,"msg":"Started","msg_type":"success"}`)

	var got []string
	for _, a := range f.dash.Alerts.Active() {
		got = append(got, fmt.Sprintf("%s:%s", a.Severity, a.Text))
		assert.Equal(t, 5*time.Second, a.Expires.Sub(a.Created))
	}
	assert.Equal(t, []string{
		"success:Torrent added",
		"info:Got recheck response",
		"info:Got reannounce response",
		"alert:Failed to stop",
		"success:Started",
	}, got)
}

func TestAlertTTLZeroIsPersistent(t *testing.T) {
	f := newFixture(t, true)
	f.rec.SetAlertTTL(0)
	f.reg.deliver(t, protocol.EventAlert, `{"msg":"sticky"}`)

	active := f.dash.Alerts.Active()
	require.Len(t, active, 1)
	assert.True(t, active[0].Expires.IsZero())
}

func TestMalformedPayloadsRejected(t *testing.T) {
	f := newFixture(t, true)
	f.focus.id = hashA

	f.reg.deliver(t, protocol.EventTorrentListResponse, `{"data":[{"name":"no id"}]}`)
	f.reg.deliver(t, protocol.EventTorrentDetailsResponse, `{"status":0}`)
	f.reg.deliver(t, protocol.EventAlert, `{"msg_type":"info"}`)
	f.reg.deliver(t, protocol.EventSpeedOverallResponse, `not json`)

	assert.Zero(t, f.dash.Rows.Len())
	_, ok, _ := f.dash.Detail.View()
	assert.False(t, ok)
	assert.Empty(t, f.dash.Alerts.Active())
	assert.Equal(t, 1, f.obs.rejected[protocol.EventTorrentListResponse])
	assert.Equal(t, 1, f.obs.rejected[protocol.EventTorrentDetailsResponse])
	assert.Equal(t, 1, f.obs.rejected[protocol.EventAlert])
	assert.Equal(t, 1, f.obs.rejected[protocol.EventSpeedOverallResponse])
}

func TestFilesResponseIgnored(t *testing.T) {
	f := newFixture(t, true)
	f.reg.deliver(t, protocol.EventTorrentFilesResponse, `{"data":{"files":[]}}`)
	assert.Equal(t, 1, f.obs.received[protocol.EventTorrentFilesResponse])
	assert.Zero(t, f.dash.Rows.Len())
}

func TestDetailCachePrimesOnRefocus(t *testing.T) {
	f := newFixture(t, true)
	f.focus.id = hashA
	assert.False(t, f.rec.BeginFocus(hashA, 1), "nothing cached yet")
	f.reg.deliver(t, protocol.EventTorrentDetailsResponse, `{"data":{"name":"cached a"}}`)

	f.focus.id = hashB
	f.rec.BeginFocus(hashB, 2)
	f.dash.Detail.Clear()

	f.focus.id = hashA
	require.True(t, f.rec.BeginFocus(hashA, 3))
	view, ok, cached := f.dash.Detail.View()
	require.True(t, ok)
	assert.True(t, cached)
	assert.Equal(t, "cached a", view.Name)

	f.reg.deliver(t, protocol.EventTorrentRemoveResponse, `{"status":0,"data":{"info_hash":"`+hashA+`"}}`)
	assert.False(t, f.rec.BeginFocus(hashA, 4), "removed torrents are evicted")
}

func TestCloseStopsCacheOnce(t *testing.T) {
	f := newFixture(t, true)
	f.focus.id = hashA
	f.reg.deliver(t, protocol.EventTorrentDetailsResponse, `{"data":{"name":"a"}}`)

	assert.NotPanics(t, f.rec.Close)
	assert.NotPanics(t, f.rec.Close, "second close is a no-op")
}
