// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package schedule provides cancellable scheduled tasks.
//
// Components never touch time.AfterFunc or tickers directly. They own the
// Handle of each task they arm, and tear-down cancels it. Manual implements
// the same interface on a virtual clock for tests.
package schedule

import (
	"sync"
	"time"
)

// Handle is ownership of one scheduled task.
type Handle interface {
	// Cancel stops the task. It reports whether the task was still pending
	// (one-shot) or active (repeating). Cancel is idempotent.
	Cancel() bool
}

// Scheduler arms one-shot and repeating tasks. Callbacks run on their own
// goroutine and must do their own locking.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Handle
	Every(d time.Duration, f func()) Handle
	Now() time.Time
}

// Real is the wall-clock Scheduler.
type Real struct{}

// NewReal returns the wall-clock scheduler.
func NewReal() Real { return Real{} }

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// AfterFunc runs f once after d.
func (Real) AfterFunc(d time.Duration, f func()) Handle {
	return &timerHandle{t: time.AfterFunc(d, f)}
}

// Every runs f every d until cancelled. The first run is d from now.
// Runs never overlap; a slow f delays the next tick.
func (Real) Every(d time.Duration, f func()) Handle {
	h := &tickerHandle{stop: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				select {
				case <-h.stop:
					return
				default:
				}
				f()
			}
		}
	}()
	return h
}

type timerHandle struct {
	t *time.Timer
}

func (h *timerHandle) Cancel() bool {
	return h.t.Stop()
}

type tickerHandle struct {
	once sync.Once
	stop chan struct{}
}

func (h *tickerHandle) Cancel() bool {
	cancelled := false
	h.once.Do(func() {
		close(h.stop)
		cancelled = true
	})
	return cancelled
}
