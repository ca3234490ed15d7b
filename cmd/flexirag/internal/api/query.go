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
	"time"

	"github.com/google/uuid"

	"github.com/FlexiRAG/flexirag/pkg/logging"
)

// DefaultQueryTimeout bounds a single question. Retrieval plus
// generation can take a while on large documents.
const DefaultQueryTimeout = 2 * time.Minute

// QueryService asks questions against ingested documents.
type QueryService interface {
	// Query returns a grounded answer for a question about one document.
	Query(ctx context.Context, documentID string, question string) (*QueryResponse, error)
}

// QueryConfig configures the query service.
type QueryConfig struct {
	// BaseURL of the backend, e.g. http://localhost:8000
	BaseURL string

	// Timeout per question. Default: DefaultQueryTimeout
	Timeout time.Duration

	// Logger for request tracing. Default: warnings and errors only
	Logger *logging.Logger
}

type queryService struct {
	baseURL string
	client  HTTPClient
	log     *logging.Logger
}

// NewQueryService creates a query service with the default HTTP client.
func NewQueryService(config QueryConfig) QueryService {
	if config.Timeout == 0 {
		config.Timeout = DefaultQueryTimeout
	}
	return NewQueryServiceWithClient(NewDefaultHTTPClient(config.Timeout), config)
}

// NewQueryServiceWithClient creates a query service with a custom HTTP
// client. Used by tests to inject mocks.
func NewQueryServiceWithClient(client HTTPClient, config QueryConfig) QueryService {
	log := config.Logger
	if log == nil {
		log = logging.New(logging.Config{Level: logging.LevelWarn, Service: "api"})
	}
	return &queryService{
		baseURL: config.BaseURL,
		client:  client,
		log:     log,
	}
}

func (s *queryService) Query(ctx context.Context, documentID string, question string) (*QueryResponse, error) {
	req := QueryRequest{DocumentID: documentID, Query: question}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	start := time.Now()
	s.log.Debug("querying document", "request_id", requestID, "document_id", documentID)

	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, s.baseURL+"/query/", "application/json", body)
	if err != nil {
		s.log.Error("query failed", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("failed to reach the query service: %w", err)
	}

	var out QueryResponse
	if err := decodeResponse(resp, &out); err != nil {
		s.log.Error("query rejected", "request_id", requestID, "error", err)
		return nil, err
	}
	s.log.Debug("query answered",
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
		"sources", len(out.Sources),
	)
	return &out, nil
}

var _ QueryService = (*queryService)(nil)
