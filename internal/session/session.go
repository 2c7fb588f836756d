// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session provides exclusive, interruptible access to a device.
package session // import "github.com/go-lpc/zybo/internal/session"

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// ErrInterrupted is returned when a blocked Acquire is woken up before the
// guard could be granted. It is retryable.
var ErrInterrupted = errors.New("session: interrupted")

// Guard grants at most one Token at a time.
type Guard struct {
	sem *semaphore.Weighted
}

// Token is the proof of an exclusive acquisition of a Guard.
type Token struct {
	g    *Guard
	done bool
}

// NewGuard returns a free guard.
func NewGuard() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the guard is free or ctx is done.
// In the latter case, nothing is granted and the returned error wraps
// ErrInterrupted.
func (g *Guard) Acquire(ctx context.Context) (*Token, error) {
	err := g.sem.Acquire(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInterrupted, err)
	}
	return &Token{g: g}, nil
}

// TryAcquire acquires the guard without blocking.
func (g *Guard) TryAcquire() (*Token, bool) {
	if !g.sem.TryAcquire(1) {
		return nil, false
	}
	return &Token{g: g}, true
}

// Release gives back the guard acquired with tok.
// Releasing a token twice, or a token from another guard, panics.
func (g *Guard) Release(tok *Token) {
	switch {
	case tok == nil:
		panic("session: release of nil token")
	case tok.g != g:
		panic("session: release of a token from another guard")
	case tok.done:
		panic("session: token released twice")
	}
	tok.done = true
	g.sem.Release(1)
}

// Released reports whether tok has been given back to its guard.
func (tok *Token) Released() bool {
	return tok.done
}
