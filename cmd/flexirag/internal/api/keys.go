// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/FlexiRAG/flexirag/pkg/logging"
)

// KeyService manages a user's stored Gemini API key. Deployed endpoints
// that require a key bill generation against it.
type KeyService interface {
	// GetGeminiKey returns the stored key, or an empty response when
	// none is set.
	GetGeminiKey(ctx context.Context, userID string) (*APIKeyResponse, error)

	// SetGeminiKey stores or replaces the user's key.
	SetGeminiKey(ctx context.Context, userID string, key string) error
}

// KeyConfig configures the key service.
type KeyConfig struct {
	// BaseURL of the backend, e.g. http://localhost:8000
	BaseURL string

	// Timeout per request. Default: DefaultRequestTimeout
	Timeout time.Duration

	// Logger for request tracing. Default: warnings and errors only
	Logger *logging.Logger
}

type keyService struct {
	baseURL string
	client  HTTPClient
	log     *logging.Logger
}

// NewKeyService creates a key service with the default HTTP client.
func NewKeyService(config KeyConfig) KeyService {
	if config.Timeout == 0 {
		config.Timeout = DefaultRequestTimeout
	}
	return NewKeyServiceWithClient(NewDefaultHTTPClient(config.Timeout), config)
}

// NewKeyServiceWithClient creates a key service with a custom HTTP
// client. Used by tests to inject mocks.
func NewKeyServiceWithClient(client HTTPClient, config KeyConfig) KeyService {
	log := config.Logger
	if log == nil {
		log = logging.New(logging.Config{Level: logging.LevelWarn, Service: "api"})
	}
	return &keyService{
		baseURL: config.BaseURL,
		client:  client,
		log:     log,
	}
}

func (s *keyService) GetGeminiKey(ctx context.Context, userID string) (*APIKeyResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	keyURL := s.baseURL + "/users/" + url.PathEscape(userID) + "/gemini-key"
	resp, err := s.client.Get(ctx, keyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to reach the key service: %w", err)
	}

	var out APIKeyResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *keyService) SetGeminiKey(ctx context.Context, userID string, key string) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	req := SetAPIKeyRequest{GeminiAPIKey: key}
	if err := req.Validate(); err != nil {
		return err
	}

	body, err := jsonBody(req)
	if err != nil {
		return err
	}
	keyURL := s.baseURL + "/users/" + url.PathEscape(userID) + "/gemini-key"
	resp, err := s.client.Put(ctx, keyURL, "application/json", body)
	if err != nil {
		return fmt.Errorf("failed to reach the key service: %w", err)
	}
	// The key itself is never logged
	s.log.Debug("gemini key updated", "user_id", userID)
	return decodeResponse(resp, nil)
}

var _ KeyService = (*keyService)(nil)
