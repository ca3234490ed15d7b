// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDocumentService_Upload_Success(t *testing.T) {
	mock := &mockHTTPClient{
		response: jsonResponse(200, `{"id":"d-1","user_id":"u-1","file_name":"notes.pdf","file_type":"pdf"}`),
	}
	service := NewDocumentServiceWithClient(mock, DocumentConfig{BaseURL: "http://localhost:8000"})

	path := writeTestFile(t, "notes.pdf", "fake pdf bytes")
	doc, err := service.Upload(context.Background(), "u-1", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != "d-1" {
		t.Errorf("ID = %q, want d-1", doc.ID)
	}
	if !strings.Contains(mock.lastPostURL, "/documents/upload/?user_id=u-1") {
		t.Errorf("expected upload URL with user_id, got %q", mock.lastPostURL)
	}
	if !strings.HasPrefix(mock.lastContentType, "multipart/form-data") {
		t.Errorf("expected multipart content type, got %q", mock.lastContentType)
	}
	if !strings.Contains(mock.lastPostBody, `filename="notes.pdf"`) {
		t.Errorf("expected form to carry the filename, got %q", mock.lastPostBody)
	}
	if !strings.Contains(mock.lastPostBody, "fake pdf bytes") {
		t.Error("expected form to carry the file contents")
	}
}

func TestDocumentService_Upload_MissingFile(t *testing.T) {
	mock := &mockHTTPClient{}
	service := NewDocumentServiceWithClient(mock, DocumentConfig{BaseURL: "http://localhost:8000"})

	_, err := service.Upload(context.Background(), "u-1", "/nonexistent/file.pdf")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if mock.postCalls != 0 {
		t.Errorf("a missing file must not hit the network, got %d calls", mock.postCalls)
	}
}

func TestDocumentService_Upload_UserIDQueryEscaped(t *testing.T) {
	mock := &mockHTTPClient{
		response: jsonResponse(200, `{"id":"d-2"}`),
	}
	service := NewDocumentServiceWithClient(mock, DocumentConfig{BaseURL: "http://localhost:8000"})

	path := writeTestFile(t, "a.txt", "x")
	_, err := service.Upload(context.Background(), "u 1&admin=true", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(mock.lastPostURL, "&admin") {
		t.Errorf("user id must be query-escaped, got %q", mock.lastPostURL)
	}
}

func TestDocumentService_List_Success(t *testing.T) {
	mock := &mockHTTPClient{
		response: jsonResponse(200, `[{"id":"d-1","file_name":"a.pdf"},{"id":"d-2","file_name":"b.md"}]`),
	}
	service := NewDocumentServiceWithClient(mock, DocumentConfig{BaseURL: "http://localhost:8000"})

	docs, err := service.List(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if !strings.Contains(mock.lastGetURL, "/users/u-1/documents") {
		t.Errorf("expected list URL for u-1, got %q", mock.lastGetURL)
	}
}

func TestDocumentService_List_PathTraversalEscaped(t *testing.T) {
	mock := &mockHTTPClient{
		response: jsonResponse(200, `[]`),
	}
	service := NewDocumentServiceWithClient(mock, DocumentConfig{BaseURL: "http://localhost:8000"})

	// A hostile stored user id must not be able to rewrite the path
	_, err := service.List(context.Background(), "../admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(mock.lastGetURL, "/../") {
		t.Errorf("path traversal not escaped: %q", mock.lastGetURL)
	}
}

func TestDocumentService_Delete_Success(t *testing.T) {
	mock := &mockHTTPClient{
		response: jsonResponse(200, `{"message":"Deleted"}`),
	}
	service := NewDocumentServiceWithClient(mock, DocumentConfig{BaseURL: "http://localhost:8000"})

	if err := service.Delete(context.Background(), "d-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(mock.lastDeleteURL, "/documents/d-1") {
		t.Errorf("expected delete URL for d-1, got %q", mock.lastDeleteURL)
	}
}

func TestDocumentService_Delete_NotFoundVerbatim(t *testing.T) {
	mock := &mockHTTPClient{
		response: jsonResponse(404, `{"detail":"Document not found"}`),
	}
	service := NewDocumentServiceWithClient(mock, DocumentConfig{BaseURL: "http://localhost:8000"})

	err := service.Delete(context.Background(), "d-999")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "Document not found" {
		t.Errorf("error = %q, want the server's wording verbatim", err.Error())
	}
}
