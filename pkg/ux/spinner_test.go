// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"errors"
	"testing"
)

// Spinner tests run under the machine personality so no animation
// goroutine writes to the test output.
func useMachinePersonality(t *testing.T) {
	t.Helper()
	original := GetPersonality()
	SetPersonalityLevel(PersonalityMachine)
	t.Cleanup(func() { SetPersonality(original) })
}

func TestWithSpinner_PassesThroughResult(t *testing.T) {
	useMachinePersonality(t)

	if err := WithSpinner("working", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantErr := errors.New("backend unavailable")
	err := WithSpinner("working", func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("WithSpinner must return fn's error unchanged, got %v", err)
	}
}

func TestWithSpinner_BlocksUntilDone(t *testing.T) {
	useMachinePersonality(t)

	ran := false
	_ = WithSpinner("working", func() error {
		ran = true
		return nil
	})
	if !ran {
		t.Fatal("fn did not run before WithSpinner returned")
	}
}

func TestSpinner_DoubleStartAndStop(t *testing.T) {
	useMachinePersonality(t)

	s := NewSpinner("busy")
	s.Start()
	s.Start() // second start is a no-op
	s.Stop()
	s.Stop() // second stop is a no-op
}

func TestSpinner_UpdateMessage(t *testing.T) {
	useMachinePersonality(t)

	s := NewSpinner("first")
	s.UpdateMessage("second")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.message != "second" {
		t.Errorf("message = %q, want %q", s.message, "second")
	}
}

func TestProgressSpinner_Increment(t *testing.T) {
	useMachinePersonality(t)

	p := NewProgressSpinner("uploading", 3)
	p.Increment()
	p.Increment()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != 2 {
		t.Errorf("current = %d, want 2", p.current)
	}
}
