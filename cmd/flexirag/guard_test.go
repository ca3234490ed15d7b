// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/session"
)

// signIn writes a session file under a fresh HOME and returns after
// pointing DefaultStore at it.
func signIn(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	store := session.NewStore(filepath.Join(home, ".flexirag", "session.json"))
	err := store.Set(session.Identity{
		UserID: "u-1",
		Name:   "Ada",
		Email:  "ada@example.com",
	})
	if err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
}

func signOut(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestRequiresAuth_InheritedFromParent(t *testing.T) {
	parent := &cobra.Command{
		Use:         "docs",
		Annotations: map[string]string{annotationRequiresAuth: "true"},
	}
	child := &cobra.Command{Use: "list"}
	parent.AddCommand(child)

	if !requiresAuth(child) {
		t.Error("subcommand must inherit protection from its group")
	}
	if requiresAuth(&cobra.Command{Use: "signin"}) {
		t.Error("unannotated command must not require auth")
	}
}

func TestCheckRoute_ProtectedCommandSignedOut(t *testing.T) {
	signOut(t)

	cmd := &cobra.Command{
		Use:         "whoami",
		Annotations: map[string]string{annotationRequiresAuth: "true"},
	}
	if err := checkRoute(cmd); !errors.Is(err, errSignedOut) {
		t.Fatalf("expected errSignedOut, got %v", err)
	}
}

func TestCheckRoute_ProtectedCommandSignedIn(t *testing.T) {
	signIn(t)

	cmd := &cobra.Command{
		Use:         "whoami",
		Annotations: map[string]string{annotationRequiresAuth: "true"},
	}
	if err := checkRoute(cmd); err != nil {
		t.Fatalf("signed-in user must pass the guard, got %v", err)
	}
}

func TestCheckRoute_SigninBlockedWhileSignedIn(t *testing.T) {
	signIn(t)

	cmd := &cobra.Command{Use: "signin"}
	if err := checkRoute(cmd); !errors.Is(err, errSignedIn) {
		t.Fatalf("expected errSignedIn, got %v", err)
	}
}

// The two guard directions read the same store, so for any session
// state exactly one of them can fire.
func TestCheckRoute_GuardConsistency(t *testing.T) {
	protected := &cobra.Command{
		Use:         "whoami",
		Annotations: map[string]string{annotationRequiresAuth: "true"},
	}
	signin := &cobra.Command{Use: "signin"}

	signOut(t)
	if err := checkRoute(protected); err == nil {
		t.Error("signed out: protected command must be blocked")
	}
	if err := checkRoute(signin); err != nil {
		t.Errorf("signed out: signin must be allowed, got %v", err)
	}

	signIn(t)
	if err := checkRoute(protected); err != nil {
		t.Errorf("signed in: protected command must be allowed, got %v", err)
	}
	if err := checkRoute(signin); err == nil {
		t.Error("signed in: signin must be blocked")
	}
}

func TestCheckRoute_UnprotectedCommandAlwaysAllowed(t *testing.T) {
	signOut(t)
	if err := checkRoute(&cobra.Command{Use: "signup"}); err != nil {
		t.Fatalf("signup must not need a session, got %v", err)
	}
}
