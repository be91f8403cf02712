// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package channel owns the single duplex websocket connection to the backend.
// It sends named messages, dispatches inbound ones to their registered
// handler and reports connection lifecycle changes.
package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/torrentdash/internal/protocol"
)

var (
	ErrClosed       = errors.New("channel closed")
	ErrNotConnected = errors.New("channel not connected")
	ErrQueueFull    = errors.New("outbound queue full")
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	defaultQueueSize = 256
	defaultAttempts  = 10
	maxReconnectWait = 30 * time.Second
)

type Lifecycle int

const (
	Connected Lifecycle = iota
	Disconnected
	Reconnected
)

func (l Lifecycle) String() string {
	switch l {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Reconnected:
		return "reconnected"
	default:
		return "unknown"
	}
}

// Poster runs fn on the goroutine owning session state. Handlers and
// lifecycle callbacks are always delivered through it.
type Poster interface {
	Post(fn func())
}

type Options struct {
	Endpoint string
	Header   http.Header
	// Attempts bounds the dials of one connect cycle.
	Attempts uint
	// Delay is the base of the exponential backoff between dials.
	Delay       time.Duration
	QueueSize   int
	Dialer      *websocket.Dialer
	OnLifecycle func(Lifecycle)
	// OnSend and OnReceive observe traffic, they run on the pump goroutines.
	OnSend    func(event protocol.Event)
	OnReceive func(event protocol.Event)
}

type outbound struct {
	event protocol.Event
	data  []byte
}

type Adapter struct {
	opts     Options
	registry *Registry
	poster   Poster

	mu           sync.Mutex
	out          chan outbound
	connected    bool
	hasConnected bool

	closeOnce sync.Once
	closed    chan struct{}

	log zerolog.Logger
}

func New(registry *Registry, poster Poster, opts Options) *Adapter {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Attempts == 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.OnLifecycle == nil {
		opts.OnLifecycle = func(Lifecycle) {}
	}
	if opts.OnSend == nil {
		opts.OnSend = func(protocol.Event) {}
	}
	if opts.OnReceive == nil {
		opts.OnReceive = func(protocol.Event) {}
	}
	return &Adapter{
		opts:     opts,
		registry: registry,
		poster:   poster,
		out:      make(chan outbound, opts.QueueSize),
		closed:   make(chan struct{}),
		log:      log.Logger.With().Str("module", "channel").Logger(),
	}
}

// Send enqueues a message for the writer. It does not wait for delivery.
func (a *Adapter) Send(event protocol.Event, payload any) error {
	select {
	case <-a.closed:
		return ErrClosed
	default:
	}

	msg, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.connected {
		return errors.Wrapf(ErrNotConnected, "send %s", event)
	}
	select {
	case a.out <- outbound{event: event, data: msg}:
		a.log.Trace().Str("event", string(event)).RawJSON("message", msg).Msg("enqueued")
		return nil
	default:
		return errors.Wrapf(ErrQueueFull, "send %s", event)
	}
}

func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// Close stops accepting messages. Run returns once its context is done.
func (a *Adapter) Close() {
	a.closeOnce.Do(func() { close(a.closed) })
}

// Run connects and serves the connection until ctx is cancelled, redialing
// after every loss. It returns an error only when a connect cycle exhausts
// its attempts.
func (a *Adapter) Run(ctx context.Context) error {
	a.registry.Freeze()

	for {
		conn, err := a.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrapf(err, "connect to %s", a.opts.Endpoint)
		}

		event := a.attach()
		a.log.Info().Str("endpoint", a.opts.Endpoint).Stringer("event", event).Msg("backend connection established")
		a.post(event)

		err = a.serve(ctx, conn)

		a.detach()
		a.post(Disconnected)

		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-a.closed:
			return nil
		default:
		}
		a.log.Warn().Err(err).Msg("backend connection lost, reconnecting")
	}
}

func (a *Adapter) dial(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	err := retry.Do(
		func() error {
			c, resp, err := a.opts.Dialer.DialContext(ctx, a.opts.Endpoint, a.opts.Header)
			if resp != nil && resp.Body != nil {
				resp.Body.Close()
			}
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(a.opts.Attempts),
		retry.Delay(a.opts.Delay),
		retry.MaxDelay(maxReconnectWait),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			a.log.Debug().Err(err).Uint("attempt", n+1).Msg("dial failed")
		}),
	)
	return conn, err
}

func (a *Adapter) attach() Lifecycle {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = true
	if a.hasConnected {
		return Reconnected
	}
	a.hasConnected = true
	return Connected
}

// detach drops anything still queued, those requests belong to the lost
// connection and are reissued by the reconnect side effects.
func (a *Adapter) detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = false
	for {
		select {
		case <-a.out:
		default:
			return
		}
	}
}

func (a *Adapter) post(l Lifecycle) {
	a.poster.Post(func() { a.opts.OnLifecycle(l) })
}

func (a *Adapter) serve(ctx context.Context, conn *websocket.Conn) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return conn.Close()
	})
	g.Go(func() error {
		return a.readPump(conn)
	})
	g.Go(func() error {
		return a.writePump(ctx, conn)
	})

	return g.Wait()
}

func (a *Adapter) readPump(conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read")
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			a.log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping unframed message")
			continue
		}
		a.opts.OnReceive(env.Event)

		h, ok := a.registry.Lookup(env.Event)
		if !ok {
			a.log.Debug().Str("event", string(env.Event)).Msg("no handler registered")
			continue
		}
		payload := env.Payload
		a.poster.Post(func() { h(payload) })
	}
}

func (a *Adapter) writePump(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		case msg := <-a.out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				return errors.Wrapf(err, "write %s", msg.event)
			}
			a.opts.OnSend(msg.event)
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return errors.Wrap(err, "ping")
			}
		}
	}
}
