// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package api is the HTTP JSON client for the FlexiRAG backend.
//
// The backend is given and opaque: this package knows its paths, its
// request/response shapes, and its failure convention (non-2xx with a
// JSON body carrying "message" or "detail"), and nothing else.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// HTTPClient
// =============================================================================

// HTTPClient abstracts HTTP operations for testability.
//
// # Description
//
//	Allows injection of mock clients in tests and custom transports in
//	production. All methods take a context for cancellation.
//
// # Limitations
//
//   - Implementations must not retry. Surfacing the first failure verbatim
//     is part of the product's error contract.
type HTTPClient interface {
	// Get performs an HTTP GET request.
	Get(ctx context.Context, url string) (*http.Response, error)

	// Post performs an HTTP POST request with the given content type.
	Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error)

	// Put performs an HTTP PUT request with the given content type.
	Put(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error)

	// Delete performs an HTTP DELETE request.
	Delete(ctx context.Context, url string) (*http.Response, error)
}

// defaultHTTPClient wraps the standard library client.
type defaultHTTPClient struct {
	client *http.Client
}

// NewDefaultHTTPClient creates an HTTPClient with the given per-request
// timeout. A zero timeout means no timeout.
func NewDefaultHTTPClient(timeout time.Duration) HTTPClient {
	return &defaultHTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

func (d *defaultHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	return d.client.Do(req)
}

func (d *defaultHTTPClient) Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return d.client.Do(req)
}

func (d *defaultHTTPClient) Put(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUT request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return d.client.Do(req)
}

func (d *defaultHTTPClient) Delete(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create DELETE request: %w", err)
	}
	return d.client.Do(req)
}

var _ HTTPClient = (*defaultHTTPClient)(nil)

// =============================================================================
// Shared helpers
// =============================================================================

// jsonBody encodes a request payload for transmission.
func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode the request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// decodeResponse checks the status and decodes a 2xx JSON body into out.
// Non-2xx responses become an *Error carrying the backend's message.
// Pass nil when the body doesn't matter.
func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode the response body: %w", err)
	}
	return nil
}
