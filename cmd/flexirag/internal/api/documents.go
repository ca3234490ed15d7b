// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/FlexiRAG/flexirag/pkg/logging"
)

// DefaultUploadTimeout bounds a single document upload. Uploads move
// whole files, so they get more headroom than JSON calls.
const DefaultUploadTimeout = 5 * time.Minute

// DocumentService manages a user's ingested documents.
type DocumentService interface {
	// Upload sends a local file for ingestion on behalf of the user.
	Upload(ctx context.Context, userID string, path string) (*Document, error)

	// List returns all documents owned by the user.
	List(ctx context.Context, userID string) ([]Document, error)

	// Delete removes a document by id.
	Delete(ctx context.Context, documentID string) error
}

// DocumentConfig configures the document service.
type DocumentConfig struct {
	// BaseURL of the backend, e.g. http://localhost:8000
	BaseURL string

	// UploadTimeout per upload. Default: DefaultUploadTimeout
	UploadTimeout time.Duration

	// Logger for request tracing. Default: warnings and errors only
	Logger *logging.Logger
}

type documentService struct {
	baseURL string
	client  HTTPClient
	log     *logging.Logger
}

// NewDocumentService creates a document service with the default HTTP client.
func NewDocumentService(config DocumentConfig) DocumentService {
	if config.UploadTimeout == 0 {
		config.UploadTimeout = DefaultUploadTimeout
	}
	return NewDocumentServiceWithClient(NewDefaultHTTPClient(config.UploadTimeout), config)
}

// NewDocumentServiceWithClient creates a document service with a custom
// HTTP client. Used by tests to inject mocks.
func NewDocumentServiceWithClient(client HTTPClient, config DocumentConfig) DocumentService {
	log := config.Logger
	if log == nil {
		log = logging.New(logging.Config{Level: logging.LevelWarn, Service: "api"})
	}
	return &documentService{
		baseURL: config.BaseURL,
		client:  client,
		log:     log,
	}
}

func (s *documentService) Upload(ctx context.Context, userID string, path string) (*Document, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to build the upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize the upload form: %w", err)
	}

	requestID := uuid.New().String()
	s.log.Debug("uploading document", "request_id", requestID, "file", filepath.Base(path))

	// user_id rides in the query string, matching the backend contract
	uploadURL := s.baseURL + "/documents/upload/?user_id=" + url.QueryEscape(userID)
	resp, err := s.client.Post(ctx, uploadURL, writer.FormDataContentType(), &buf)
	if err != nil {
		s.log.Error("upload failed", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("failed to reach the document service: %w", err)
	}

	var out Document
	if err := decodeResponse(resp, &out); err != nil {
		s.log.Error("upload rejected", "request_id", requestID, "error", err)
		return nil, err
	}
	s.log.Debug("upload accepted", "request_id", requestID, "document_id", out.ID)
	return &out, nil
}

func (s *documentService) List(ctx context.Context, userID string) ([]Document, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	// PathEscape prevents traversal via a hostile stored user id
	listURL := s.baseURL + "/users/" + url.PathEscape(userID) + "/documents"
	resp, err := s.client.Get(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("failed to reach the document service: %w", err)
	}

	var out []Document
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *documentService) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("document id cannot be empty")
	}

	deleteURL := s.baseURL + "/documents/" + url.PathEscape(documentID)
	resp, err := s.client.Delete(ctx, deleteURL)
	if err != nil {
		return fmt.Errorf("failed to reach the document service: %w", err)
	}
	return decodeResponse(resp, nil)
}

var _ DocumentService = (*documentService)(nil)
