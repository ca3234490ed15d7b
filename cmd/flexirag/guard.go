// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/session"
)

// Commands are routed through a single guard before their Run handler:
// protected commands need a persisted identity, and signin refuses to
// run while one exists. Both directions read the same store, so a
// command can never be simultaneously allowed and redirected.

// annotationRequiresAuth marks commands that need a signed-in user.
const annotationRequiresAuth = "requires_auth"

var (
	// errSignedOut is shown when a protected command runs without a session.
	errSignedOut = errors.New("you are not signed in. Run 'flexirag signin' first")

	// errSignedIn is shown when signin runs with a live session.
	errSignedIn = errors.New("already signed in. Run 'flexirag logout' to switch accounts")
)

// requiresAuth walks the command and its parents for the auth annotation,
// so subcommands inherit protection from their group.
func requiresAuth(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationRequiresAuth] == "true" {
			return true
		}
	}
	return false
}

// currentIdentity loads the persisted identity, if any. A missing or
// unreadable session file reads as signed out.
func currentIdentity() *session.Identity {
	store, err := session.DefaultStore()
	if err != nil {
		return nil
	}
	id, err := store.Load()
	if err != nil {
		return nil
	}
	return id
}

// checkRoute enforces the guard for one command invocation. The denied
// command is named in the error so the user can retry it after signing in.
func checkRoute(cmd *cobra.Command) error {
	signedIn := currentIdentity() != nil
	if requiresAuth(cmd) && !signedIn {
		return fmt.Errorf("%w, then retry '%s'", errSignedOut, cmd.CommandPath())
	}
	if cmd.Name() == "signin" && signedIn {
		return errSignedIn
	}
	return nil
}
