// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes session counters to prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autobrr/torrentdash/internal/channel"
	"github.com/autobrr/torrentdash/internal/poll"
	"github.com/autobrr/torrentdash/internal/protocol"
)

// Metrics owns its registry so several sessions in one process, as in
// tests, do not collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	MessagesSent     *prometheus.CounterVec
	MessagesReceived *prometheus.CounterVec
	MessagesRejected *prometheus.CounterVec
	ResponsesStale   *prometheus.CounterVec
	PollTicks        *prometheus.CounterVec
	Connected        prometheus.Gauge
	Reconnects       prometheus.Counter
	Rows             prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "torrentdash_messages_sent_total",
			Help: "Messages written to the backend channel by event",
		}, []string{"event"}),
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "torrentdash_messages_received_total",
			Help: "Messages handled from the backend channel by event",
		}, []string{"event"}),
		MessagesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "torrentdash_messages_rejected_total",
			Help: "Inbound messages dropped for a malformed payload",
		}, []string{"event"}),
		ResponsesStale: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "torrentdash_responses_stale_total",
			Help: "Focus-scoped responses dropped after a focus change",
		}, []string{"event"}),
		PollTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "torrentdash_poll_ticks_total",
			Help: "Poll ticks run by kind",
		}, []string{"kind"}),
		Connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "torrentdash_backend_connected",
			Help: "1 while the backend channel is connected",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "torrentdash_backend_reconnects_total",
			Help: "Successful reconnects to the backend",
		}),
		Rows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "torrentdash_torrent_rows",
			Help: "Rows in the torrent table",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Sent(event protocol.Event) {
	m.MessagesSent.WithLabelValues(string(event)).Inc()
}

func (m *Metrics) Received(event protocol.Event) {
	m.MessagesReceived.WithLabelValues(string(event)).Inc()
}

func (m *Metrics) Rejected(event protocol.Event) {
	m.MessagesRejected.WithLabelValues(string(event)).Inc()
}

func (m *Metrics) Stale(event protocol.Event) {
	m.ResponsesStale.WithLabelValues(string(event)).Inc()
}

func (m *Metrics) Tick(kind poll.Kind) {
	m.PollTicks.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) Lifecycle(l channel.Lifecycle) {
	switch l {
	case channel.Connected:
		m.Connected.Set(1)
	case channel.Reconnected:
		m.Connected.Set(1)
		m.Reconnects.Inc()
	case channel.Disconnected:
		m.Connected.Set(0)
	}
}

func (m *Metrics) SetRows(n int) {
	m.Rows.Set(float64(n))
}
