// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualAfterFunc(t *testing.T) {
	t.Parallel()

	m := NewManual(epoch)
	fired := 0
	m.AfterFunc(5*time.Second, func() { fired++ })

	m.Advance(4 * time.Second)
	if fired != 0 {
		t.Fatalf("fired early: %d", fired)
	}
	m.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	m.Advance(time.Hour)
	if fired != 1 {
		t.Errorf("one-shot fired again: %d", fired)
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", m.Pending())
	}
	if got := m.Now(); !got.Equal(epoch.Add(time.Hour + 5*time.Second)) {
		t.Errorf("Now() = %v", got)
	}
}

func TestManualEvery(t *testing.T) {
	t.Parallel()

	m := NewManual(epoch)
	var at []time.Time
	h := m.Every(5*time.Minute, func() { at = append(at, m.Now()) })

	m.Advance(16 * time.Minute)
	if len(at) != 3 {
		t.Fatalf("ticks = %d, want 3", len(at))
	}
	if !at[2].Equal(epoch.Add(15 * time.Minute)) {
		t.Errorf("third tick at %v", at[2])
	}

	if !h.Cancel() {
		t.Error("Cancel() = false for active task")
	}
	if h.Cancel() {
		t.Error("second Cancel() = true")
	}
	m.Advance(time.Hour)
	if len(at) != 3 {
		t.Errorf("ticked after cancel: %d", len(at))
	}
}

func TestManualCancelBeforeFire(t *testing.T) {
	t.Parallel()

	m := NewManual(epoch)
	fired := false
	h := m.AfterFunc(time.Second, func() { fired = true })
	if !h.Cancel() {
		t.Error("Cancel() = false for pending task")
	}
	m.Advance(time.Minute)
	if fired {
		t.Error("cancelled task fired")
	}
}

func TestManualChainedArm(t *testing.T) {
	t.Parallel()

	m := NewManual(epoch)
	count := 0
	var arm func()
	arm = func() {
		m.AfterFunc(5*time.Second, func() {
			count++
			if count < 3 {
				arm()
			}
		})
	}
	arm()

	m.Advance(12 * time.Second)
	if count != 2 {
		t.Errorf("count = %d, want 2 after 12s", count)
	}
	m.Advance(3 * time.Second)
	if count != 3 {
		t.Errorf("count = %d, want 3 after 15s", count)
	}
	if m.Armed() != 3 {
		t.Errorf("Armed() = %d, want 3", m.Armed())
	}
}

func TestRealAfterFuncAndCancel(t *testing.T) {
	t.Parallel()

	s := NewReal()
	done := make(chan struct{})
	s.AfterFunc(10*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc did not fire")
	}

	var fired atomic.Bool
	h := s.AfterFunc(time.Hour, func() { fired.Store(true) })
	if !h.Cancel() {
		t.Error("Cancel() = false for pending timer")
	}
}

func TestRealEvery(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int32
	h := NewReal().Every(5*time.Millisecond, func() { ticks.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() < 2 {
		t.Fatalf("ticks = %d, want >= 2", ticks.Load())
	}
	if !h.Cancel() {
		t.Error("Cancel() = false")
	}
	if h.Cancel() {
		t.Error("second Cancel() = true")
	}
}
