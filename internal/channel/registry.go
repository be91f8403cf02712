// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package channel

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/autobrr/torrentdash/internal/protocol"
)

var (
	ErrHandlerExists  = errors.New("handler already registered")
	ErrRegistryFrozen = errors.New("handler registry is frozen")
)

// Handler receives the raw payload of one inbound message.
type Handler func(raw json.RawMessage)

// Registry maps each inbound message name to exactly one handler. It is
// built once at startup and frozen before the channel connects.
type Registry struct {
	mu       sync.RWMutex
	handlers map[protocol.Event]Handler
	frozen   bool
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[protocol.Event]Handler)}
}

// Register binds handler to event. A second registration for the same name
// fails instead of replacing the first.
func (r *Registry) Register(event protocol.Event, handler func(raw json.RawMessage)) error {
	if handler == nil {
		return errors.Errorf("nil handler for %s", event)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.Wrapf(ErrRegistryFrozen, "register %s", event)
	}
	if _, ok := r.handlers[event]; ok {
		return errors.Wrapf(ErrHandlerExists, "register %s", event)
	}
	r.handlers[event] = handler
	return nil
}

// Freeze rejects any further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Lookup(event protocol.Event) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[event]
	return h, ok
}

// Events returns the registered names, sorted.
func (r *Registry) Events() []protocol.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make([]protocol.Event, 0, len(r.handlers))
	for e := range r.handlers {
		events = append(events, e)
	}
	slices.Sort(events)
	return events
}
