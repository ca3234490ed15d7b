// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxQueryBytes is the maximum size of a question sent to /query/.
	// Oversized questions are rejected locally rather than shipped.
	MaxQueryBytes = 16 * 1024 // 16KB

	// MinNameLen matches the backend's minimum display name length.
	MinNameLen = 2
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// apiValidate is the validator instance for request types.
// Initialized in init() with custom validators.
var apiValidate *validator.Validate

func init() {
	apiValidate = validator.New()
	_ = apiValidate.RegisterValidation("maxbytes", validateMaxQueryBytes)
}

// validateMaxQueryBytes checks byte length (not rune count) so large
// multi-byte payloads cannot slip past a rune-based cap.
func validateMaxQueryBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxQueryBytes
}

// =============================================================================
// Auth types
// =============================================================================

// SigninOTPRequest asks the backend to email a one-time passcode.
type SigninOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Validate checks the request before it is sent.
func (r *SigninOTPRequest) Validate() error {
	if err := apiValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid signin request: %w", err)
	}
	return nil
}

// SigninOTPResponse reports whether the address belongs to a known user.
// IsNewUser drives which fields the verify step must collect.
type SigninOTPResponse struct {
	Message   string `json:"message"`
	IsNewUser bool   `json:"is_new_user"`
}

// VerifyOTPRequest submits the emailed passcode. Name and PhoneNumber
// are only sent for new users; returning users are identified by email
// alone.
type VerifyOTPRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required"`
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Validate checks the request before it is sent.
func (r *VerifyOTPRequest) Validate() error {
	if err := apiValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid verify request: %w", err)
	}
	return nil
}

// VerifyOTPResponse carries the authenticated user on success.
type VerifyOTPResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// User is the backend's user record.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateUserRequest is the legacy pre-OTP signup body. Some backend
// deployments still serve it; newly created users verify by email
// afterwards.
type CreateUserRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Validate checks the request before it is sent.
func (r *CreateUserRequest) Validate() error {
	if err := apiValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid signup request: %w", err)
	}
	return nil
}

// CreateUserResponse reports the created user and whether email
// verification is still pending.
type CreateUserResponse struct {
	Message              string `json:"message"`
	User                 User   `json:"user"`
	VerificationRequired bool   `json:"verification_required"`
}

// =============================================================================
// Document types
// =============================================================================

// Document is an ingested file owned by a user.
type Document struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	FileName  string `json:"file_name"`
	FileType  string `json:"file_type"`
	CreatedAt string `json:"created_at,omitempty"`
}

// QueryRequest asks a question against a single document.
type QueryRequest struct {
	DocumentID string `json:"document_id" validate:"required"`
	Query      string `json:"query" validate:"required,maxbytes"`
}

// Validate checks the request before it is sent.
func (r *QueryRequest) Validate() error {
	if err := apiValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid query request: %w", err)
	}
	return nil
}

// QueryResponse is the grounded answer with its supporting passages.
type QueryResponse struct {
	Query           string   `json:"query"`
	Answer          string   `json:"answer"`
	Sources         []string `json:"sources,omitempty"`
	SourceDocuments []string `json:"source_documents,omitempty"`
}

// =============================================================================
// Deployment types
// =============================================================================

// Deployment is a document published as a standalone query endpoint.
type Deployment struct {
	DocumentID     string `json:"document_id"`
	FileName       string `json:"file_name"`
	Endpoint       string `json:"endpoint"`
	Instructions   string `json:"instructions,omitempty"`
	RequiresAPIKey bool   `json:"requires_api_key"`
}

// =============================================================================
// API key types
// =============================================================================

// APIKeyResponse carries the stored Gemini key for a user.
type APIKeyResponse struct {
	Status       string `json:"status"`
	GeminiAPIKey string `json:"gemini_api_key"`
}

// SetAPIKeyRequest stores a Gemini key for a user.
type SetAPIKeyRequest struct {
	GeminiAPIKey string `json:"gemini_api_key" validate:"required"`
}

// Validate checks the request before it is sent.
func (r *SetAPIKeyRequest) Validate() error {
	if err := apiValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid api key request: %w", err)
	}
	return nil
}

// StatusMessage is the generic {"message": ...} acknowledgement body.
type StatusMessage struct {
	Message string `json:"message"`
}
