// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestStore_SetThenLoadRoundTrips(t *testing.T) {
	store := newTestStore(t)

	want := Identity{
		UserID: "u-42",
		Name:   "Ana Smith",
		Email:  "ana@example.com",
		Phone:  "+1 415 555 0100",
	}
	if err := store.Set(want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil {
		t.Fatal("Load() returned nil after Set()")
	}
	if *got != want {
		t.Errorf("Load() = %+v, want %+v", *got, want)
	}
}

func TestStore_ClearIsTotal(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(Identity{UserID: "u-1", Name: "Ana", Email: "ana@example.com"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("Load() after Clear() = %+v, want nil", got)
	}

	// The file itself must be gone, not just emptied
	if _, err := os.Stat(store.path); !os.IsNotExist(err) {
		t.Errorf("session file still exists after Clear()")
	}
}

func TestStore_LoadAbsentSession(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("Load() with no file = %+v, want nil", got)
	}
}

func TestStore_ClearAbsentSession(t *testing.T) {
	store := newTestStore(t)
	if err := store.Clear(); err != nil {
		t.Errorf("Clear() with no file should be a no-op, got %v", err)
	}
}

func TestStore_SetOverwritesPrevious(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(Identity{UserID: "u-1", Name: "First", Email: "first@example.com"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(Identity{UserID: "u-2", Name: "Second", Email: "second@example.com"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil || got.UserID != "u-2" {
		t.Errorf("Load() = %+v, want the second identity", got)
	}
}

func TestStore_SetRejectsEmptyUserID(t *testing.T) {
	store := newTestStore(t)
	if err := store.Set(Identity{Name: "Nobody", Email: "no@example.com"}); err == nil {
		t.Error("Set() with empty user id should fail")
	}
}

func TestStore_LoadCorruptFileActsAsSignedOut(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(store.path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("Load() of corrupt file = %+v, want nil", got)
	}
}

func TestStore_SessionFilePermissions(t *testing.T) {
	store := newTestStore(t)
	if err := store.Set(Identity{UserID: "u-1", Name: "Ana", Email: "ana@example.com"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	info, err := os.Stat(store.path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("session file mode = %o, want 0600", perm)
	}
}
