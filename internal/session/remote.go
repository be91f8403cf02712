// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package session

import (
	"context"

	"github.com/autobrr/torrentdash/internal/dispatch"
	"github.com/autobrr/torrentdash/internal/domain"
	"github.com/autobrr/torrentdash/internal/protocol"
)

// Remote is the goroutine safe handle on a Session. Commands are posted to
// the loop and return immediately.
type Remote struct {
	s    *Session
	loop *Loop
}

func NewRemote(s *Session, loop *Loop) *Remote {
	return &Remote{s: s, loop: loop}
}

func (r *Remote) SelectSingle(id protocol.TorrentID) {
	r.loop.Post(func() { r.s.SelectSingle(id) })
}

func (r *Remote) ToggleMember(id protocol.TorrentID) {
	r.loop.Post(func() { r.s.ToggleMember(id) })
}

func (r *Remote) Do(intent dispatch.Intent) {
	r.loop.Post(func() { r.s.Do(intent) })
}

func (r *Remote) ResizeColumns() {
	r.loop.Post(r.s.ResizeColumns)
}

func (r *Remote) ApplyConfig(cfg *domain.Config) {
	c := *cfg
	r.loop.Post(func() { r.s.ApplyConfig(&c) })
}

// Status waits for a snapshot taken on the loop.
func (r *Remote) Status(ctx context.Context) (domain.SessionStatus, error) {
	var st domain.SessionStatus
	err := r.loop.Call(ctx, func() { st = r.s.Status() })
	return st, err
}
