// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/torrentdash/internal/channel"
	"github.com/autobrr/torrentdash/internal/poll"
	"github.com/autobrr/torrentdash/internal/protocol"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Sent(protocol.EventTorrentList)
	m.Sent(protocol.EventTorrentList)
	m.Received(protocol.EventTorrentListResponse)
	m.Rejected(protocol.EventAlert)
	m.Stale(protocol.EventTorrentSpeedResponse)
	m.Tick(poll.KindPeers)
	m.SetRows(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("event_torrent_list")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesReceived.WithLabelValues("event_torrent_list_response")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesRejected.WithLabelValues("event_alert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResponsesStale.WithLabelValues("event_torrent_speed_response")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollTicks.WithLabelValues("peers")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Rows))
}

func TestLifecycle(t *testing.T) {
	m := New()

	m.Lifecycle(channel.Connected)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connected))

	m.Lifecycle(channel.Disconnected)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Connected))

	m.Lifecycle(channel.Reconnected)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconnects))
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.Sent(protocol.EventTorrentStop)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.MessagesSent.WithLabelValues("event_torrent_stop")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Tick(poll.KindOverallSpeed)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `torrentdash_poll_ticks_total{kind="overall-speed"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
