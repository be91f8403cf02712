// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package session

import (
	"context"
	"sync"
)

const defaultLoopQueue = 256

// Loop runs posted functions one at a time on the goroutine calling Run.
// Session state is only touched from inside it.
type Loop struct {
	queue    chan func()
	done     chan struct{}
	doneOnce sync.Once
}

func NewLoop() *Loop {
	return &Loop{
		queue: make(chan func(), defaultLoopQueue),
		done:  make(chan struct{}),
	}
}

// Post queues fn. Functions posted after the loop stopped are discarded.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Run executes posted functions until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.doneOnce.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
