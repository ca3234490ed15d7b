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

// DefaultRequestTimeout bounds a single backend call.
const DefaultRequestTimeout = 60 * time.Second

// AuthService talks to the backend's sign-in endpoints.
//
// # Description
//
//	Covers the passwordless flow (request a one-time passcode, verify it)
//	and the legacy direct-signup path. The service performs no retries
//	and no local state; callers own the flow.
//
// # Outputs
//
//	All methods return the backend's decoded success body, or an error.
//	Backend rejections come back as *Error with the server's wording.
type AuthService interface {
	// RequestOTP asks the backend to email a passcode to the address.
	// The response says whether the address belongs to a new user.
	RequestOTP(ctx context.Context, email string) (*SigninOTPResponse, error)

	// VerifyOTP submits the emailed passcode and returns the
	// authenticated user.
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*User, error)

	// CreateUser creates an account via the legacy signup endpoint.
	CreateUser(ctx context.Context, req CreateUserRequest) (*CreateUserResponse, error)
}

// AuthConfig configures the auth service.
type AuthConfig struct {
	// BaseURL of the backend, e.g. http://localhost:8000
	BaseURL string

	// Timeout per request. Default: DefaultRequestTimeout
	Timeout time.Duration

	// Logger for request tracing. Default: warnings and errors only
	Logger *logging.Logger
}

type authService struct {
	baseURL string
	client  HTTPClient
	log     *logging.Logger
}

// NewAuthService creates an auth service with the default HTTP client.
func NewAuthService(config AuthConfig) AuthService {
	if config.Timeout == 0 {
		config.Timeout = DefaultRequestTimeout
	}
	return NewAuthServiceWithClient(NewDefaultHTTPClient(config.Timeout), config)
}

// NewAuthServiceWithClient creates an auth service with a custom HTTP
// client. Used by tests to inject mocks.
func NewAuthServiceWithClient(client HTTPClient, config AuthConfig) AuthService {
	log := config.Logger
	if log == nil {
		log = logging.New(logging.Config{Level: logging.LevelWarn, Service: "api"})
	}
	return &authService{
		baseURL: config.BaseURL,
		client:  client,
		log:     log,
	}
}

func (s *authService) RequestOTP(ctx context.Context, email string) (*SigninOTPResponse, error) {
	req := SigninOTPRequest{Email: email}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	s.log.Debug("requesting signin passcode", "request_id", requestID)

	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, s.baseURL+"/users/signin-otp/", "application/json", body)
	if err != nil {
		s.log.Error("signin passcode request failed", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("failed to reach the sign-in service: %w", err)
	}

	var out SigninOTPResponse
	if err := decodeResponse(resp, &out); err != nil {
		s.log.Error("signin passcode rejected", "request_id", requestID, "error", err)
		return nil, err
	}
	s.log.Debug("signin passcode sent", "request_id", requestID, "is_new_user", out.IsNewUser)
	return &out, nil
}

func (s *authService) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	// The token itself is never logged
	s.log.Debug("verifying signin passcode", "request_id", requestID, "has_name", req.Name != "")

	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, s.baseURL+"/users/verify-otp/", "application/json", body)
	if err != nil {
		s.log.Error("verify request failed", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("failed to reach the sign-in service: %w", err)
	}

	var out VerifyOTPResponse
	if err := decodeResponse(resp, &out); err != nil {
		s.log.Error("verification rejected", "request_id", requestID, "error", err)
		return nil, err
	}
	if out.User.ID == "" {
		return nil, fmt.Errorf("the sign-in service returned no user")
	}
	s.log.Debug("verification succeeded", "request_id", requestID, "user_id", out.User.ID)
	return &out.User, nil
}

func (s *authService) CreateUser(ctx context.Context, req CreateUserRequest) (*CreateUserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	s.log.Debug("creating user", "request_id", requestID)

	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, s.baseURL+"/users/", "application/json", body)
	if err != nil {
		s.log.Error("create user request failed", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("failed to reach the sign-in service: %w", err)
	}

	var out CreateUserResponse
	if err := decodeResponse(resp, &out); err != nil {
		s.log.Error("create user rejected", "request_id", requestID, "error", err)
		return nil, err
	}
	return &out, nil
}

var _ AuthService = (*authService)(nil)
