// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Changing either label makes previously sealed tokens unreadable.
const (
	hkdfSalt = "reelsync-credential-store"
	hkdfInfo = "bearer-token/aes-256-gcm/v1"
)

var (
	ErrEmptySecret = errors.New("credentials.secret is empty")
	ErrSealedShort = errors.New("sealed token is truncated")
	// ErrOpenFailed covers a wrong secret, a tampered value and a value
	// sealed under a different label.
	ErrOpenFailed = errors.New("sealed token could not be opened")
)

// CredentialEncryptor seals bearer tokens with AES-256-GCM. The key is
// derived from credentials.secret with HKDF-SHA256. Sealed output is
// nonce || ciphertext || tag.
type CredentialEncryptor struct {
	aead cipher.AEAD
}

// NewCredentialEncryptor derives the key for secret.
func NewCredentialEncryptor(secret string) (*CredentialEncryptor, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), []byte(hkdfSalt), []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &CredentialEncryptor{aead: aead}, nil
}

// Seal encrypts token. label is bound as additional data, so a value copied
// to another key fails to open.
func (e *CredentialEncryptor) Seal(token, label string) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(token)+e.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, []byte(token), []byte(label)), nil
}

// Open reverses Seal for the same label.
func (e *CredentialEncryptor) Open(sealed []byte, label string) (string, error) {
	n := e.aead.NonceSize()
	if len(sealed) < n+e.aead.Overhead() {
		return "", ErrSealedShort
	}
	plain, err := e.aead.Open(nil, sealed[:n], sealed[n:], []byte(label))
	if err != nil {
		return "", ErrOpenFailed
	}
	return string(plain), nil
}
