// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session persists the signed-in identity between CLI invocations.
//
// # Description
//
// The store holds exactly what the backend handed back at verification
// time: the user's id, display name, and email (phone when present).
// There is no token and no expiry; the session lives until the user
// signs out. Reads are a single file read so command startup can gate
// on authentication without noticeable latency.
//
// # Limitations
//
//   - The session file is plaintext JSON (0600). It identifies the user
//     to this CLI only; it is not a bearer credential.
//   - No cross-process locking. Concurrent `flexirag` invocations that
//     race Set/Clear last-write-win, which matches the product's
//     single-user posture.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Identity is the signed-in user as reported by the backend.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone_number,omitempty"`
}

// Store reads and writes the persisted session.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns the store at ~/.flexirag/session.json.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return NewStore(filepath.Join(home, ".flexirag", "session.json")), nil
}

// Load returns the persisted identity, or nil when no session exists.
// A session with no user id is treated as absent.
func (s *Store) Load() (*Identity, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read the session file: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		// A corrupt session is indistinguishable from no session for the
		// caller; force a fresh sign-in rather than erroring every command.
		return nil, nil
	}
	if strings.TrimSpace(id.UserID) == "" {
		return nil, nil
	}
	if s.expired(&id) {
		return nil, nil
	}
	return &id, nil
}

// Set persists the identity, replacing any existing session.
func (s *Store) Set(id Identity) error {
	if strings.TrimSpace(id.UserID) == "" {
		return fmt.Errorf("refusing to persist a session without a user id")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create the session directory: %w", err)
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode the session: %w", err)
	}
	// Write-then-rename so a crash mid-write never leaves a torn session.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write the session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace the session file: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Clearing an absent session is
// not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove the session file: %w", err)
	}
	return nil
}

// expired decides whether a loaded session is still valid. Sessions
// currently never expire; keeping the decision here means adding a TTL
// later touches exactly one function.
func (s *Store) expired(id *Identity) bool {
	return false
}
