// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryService_Query_Success(t *testing.T) {
	mock := &mockHTTPClient{
		response: jsonResponse(200, `{
			"query": "What is the refund policy?",
			"answer": "Refunds are honored within 30 days.",
			"sources": ["page 4", "page 11"]
		}`),
	}
	service := NewQueryServiceWithClient(mock, QueryConfig{BaseURL: "http://localhost:8000"})

	resp, err := service.Query(context.Background(), "d-1", "What is the refund policy?")
	require.NoError(t, err)
	assert.Equal(t, "Refunds are honored within 30 days.", resp.Answer)
	assert.Len(t, resp.Sources, 2)

	assert.Contains(t, mock.lastPostURL, "/query/")
	assert.Contains(t, mock.lastPostBody, `"document_id":"d-1"`)
}

func TestQueryService_Query_EmptyQuestionSkipsNetwork(t *testing.T) {
	mock := &mockHTTPClient{}
	service := NewQueryServiceWithClient(mock, QueryConfig{BaseURL: "http://localhost:8000"})

	_, err := service.Query(context.Background(), "d-1", "")
	require.Error(t, err)
	assert.Zero(t, mock.postCalls, "validation failure must not hit the network")
}

func TestQueryService_Query_OversizedQuestionSkipsNetwork(t *testing.T) {
	mock := &mockHTTPClient{}
	service := NewQueryServiceWithClient(mock, QueryConfig{BaseURL: "http://localhost:8000"})

	huge := strings.Repeat("a", MaxQueryBytes+1)
	_, err := service.Query(context.Background(), "d-1", huge)
	require.Error(t, err)
	assert.Zero(t, mock.postCalls, "oversized question must be rejected locally")
}

func TestQueryService_Query_ServerErrorVerbatim(t *testing.T) {
	mock := &mockHTTPClient{
		response: jsonResponse(503, `{"detail":"Model is warming up"}`),
	}
	service := NewQueryServiceWithClient(mock, QueryConfig{BaseURL: "http://localhost:8000"})

	_, err := service.Query(context.Background(), "d-1", "anything")
	require.Error(t, err)
	assert.Equal(t, "Model is warming up", err.Error())
}
