// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/logging"
)

// currentKey holds the one stored credential.
const currentKey = "credential:current"

// Store persists the current credential.
type Store interface {
	Save(ctx context.Context, token string) (Credential, error)
	Load(ctx context.Context) (Credential, bool, error)
	Delete(ctx context.Context) error
	Close() error
}

// record is the on-disk form.
type record struct {
	Token     string    `json:"token,omitempty"`
	Sealed    []byte    `json:"sealed,omitempty"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

// BadgerStore implements Store using BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	enc *config.CredentialEncryptor
	now func() time.Time
}

var _ Store = (*BadgerStore)(nil)

// OpenBadgerStore opens (or creates) the store described by cfg. An empty
// cfg.Path keeps it in memory; an empty cfg.Secret disables encryption.
func OpenBadgerStore(cfg config.CredentialsConfig) (*BadgerStore, error) {
	var enc *config.CredentialEncryptor
	if cfg.Secret != "" {
		var err error
		if enc, err = config.NewCredentialEncryptor(cfg.Secret); err != nil {
			return nil, fmt.Errorf("credential encryption: %w", err)
		}
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.SyncWrites = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.Path == "").
		Bool("encrypted", enc != nil).
		Msg("Credential store opened")

	return NewBadgerStore(db, enc), nil
}

// NewBadgerStore wraps an open database. enc may be nil.
func NewBadgerStore(db *badger.DB, enc *config.CredentialEncryptor) *BadgerStore {
	return &BadgerStore{db: db, enc: enc, now: time.Now}
}

// Save stores token as the current credential, replacing any previous one.
func (s *BadgerStore) Save(_ context.Context, token string) (Credential, error) {
	cred, err := NewCredential(token, s.now())
	if err != nil {
		return Credential{}, err
	}

	rec := record{
		Email:     cred.Email,
		ExpiresAt: cred.ExpiresAt,
		SavedAt:   cred.SavedAt,
	}
	if s.enc != nil {
		if rec.Sealed, err = s.enc.Seal(cred.Token, currentKey); err != nil {
			return Credential{}, fmt.Errorf("encrypt token: %w", err)
		}
	} else {
		rec.Token = cred.Token
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return Credential{}, fmt.Errorf("marshal credential: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(currentKey), data)
		if !cred.ExpiresAt.IsZero() {
			entry = entry.WithTTL(cred.ExpiresAt.Sub(s.now()))
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return Credential{}, fmt.Errorf("store credential: %w", err)
	}

	logging.Info().
		Str("email", cred.Email).
		Str("token", Redact(cred.Token)).
		Time("expires_at", cred.ExpiresAt).
		Msg("Credential saved")
	return cred, nil
}

// Load returns the current credential. ok is false when none is stored or
// the stored one has expired.
func (s *BadgerStore) Load(ctx context.Context) (Credential, bool, error) {
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(currentKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, fmt.Errorf("load credential: %w", err)
	}

	token := rec.Token
	if len(rec.Sealed) > 0 {
		if s.enc == nil {
			return Credential{}, false, errors.New("stored credential is encrypted but no secret is configured")
		}
		if token, err = s.enc.Open(rec.Sealed, currentKey); err != nil {
			return Credential{}, false, fmt.Errorf("decrypt credential: %w", err)
		}
	}

	cred := Credential{Token: token, Email: rec.Email, ExpiresAt: rec.ExpiresAt, SavedAt: rec.SavedAt}
	if cred.Expired(s.now()) {
		logging.Ctx(ctx).Info().Str("email", cred.Email).Msg("Stored credential expired, discarding")
		if err := s.Delete(ctx); err != nil {
			return Credential{}, false, err
		}
		return Credential{}, false, nil
	}
	return cred, true, nil
}

// Delete removes the current credential. Deleting nothing is not an error.
func (s *BadgerStore) Delete(_ context.Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(currentKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
