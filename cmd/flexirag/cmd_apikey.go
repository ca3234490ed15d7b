// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/api"
	"github.com/FlexiRAG/flexirag/pkg/ux"
)

func newKeyService() api.KeyService {
	return api.NewKeyService(api.KeyConfig{
		BaseURL: getAPIBaseURL(),
	})
}

func runAPIKeyGet(cmd *cobra.Command, args []string) {
	identity := currentIdentity()
	service := newKeyService()

	var resp *api.APIKeyResponse
	err := ux.WithSpinner("Checking", func() error {
		var getErr error
		resp, getErr = service.GetGeminiKey(context.Background(), identity.UserID)
		return getErr
	})
	if err != nil {
		fail(err)
	}

	if resp.GeminiAPIKey == "" {
		ux.Muted("No Gemini key stored.")
		ux.Hint("Store one with 'flexirag apikey set'.")
		return
	}
	// Only the tail is shown; the full key never hits the terminal
	ux.KeyValue("Gemini key", maskKey(resp.GeminiAPIKey))
}

func runAPIKeySet(cmd *cobra.Command, args []string) {
	identity := currentIdentity()

	key, err := readKey()
	if err != nil {
		fail(err)
	}

	service := newKeyService()
	err = ux.WithSpinner("Storing key", func() error {
		return service.SetGeminiKey(context.Background(), identity.UserID, key)
	})
	if err != nil {
		fail(err)
	}
	ux.Success("Gemini key stored.")
}

// readKey reads the key without echo when stdin is a terminal, and as a
// plain line otherwise so piping works.
func readKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print("Gemini API key (hidden): ")
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		key := strings.TrimSpace(string(raw))
		if key == "" {
			return "", errors.New("no key entered")
		}
		return key, nil
	}

	line, err := NewStdinReader().ReadLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", errors.New("no key provided on stdin")
	}
	return line, nil
}

// maskKey keeps the last four characters visible.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
