// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package services

import (
	"context"
	"time"

	"github.com/tomtom215/reelsync/internal/logging"
)

// SessionSource is the slice of session.Manager the expiry watcher needs.
type SessionSource interface {
	Active() bool
	// Token reports false once the credential has expired.
	Token() (string, bool)
	Logout(ctx context.Context) error
}

// SessionExpiryService signs the user out when the active session's token
// has expired, so cached state does not outlive the credential.
type SessionExpiryService struct {
	sessions SessionSource
	interval time.Duration
}

// NewSessionExpiryService checks sessions every interval (default 1m).
func NewSessionExpiryService(sessions SessionSource, interval time.Duration) *SessionExpiryService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionExpiryService{sessions: sessions, interval: interval}
}

// Serve implements suture.Service.
func (s *SessionExpiryService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.check(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *SessionExpiryService) check(ctx context.Context) error {
	if !s.sessions.Active() {
		return nil
	}
	if _, ok := s.sessions.Token(); ok {
		return nil
	}
	logging.Info().Msg("Session token expired, signing out")
	return s.sessions.Logout(ctx)
}

func (s *SessionExpiryService) String() string {
	return "session-expiry"
}
