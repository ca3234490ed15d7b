// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package authflow drives passwordless sign-in.
//
// # Description
//
// The flow is a small state machine:
//
//	AwaitingEmail --RequestOTP--> AwaitingCode --VerifyOTP--> Authenticated
//	AwaitingCode  --Back--------> AwaitingEmail
//
// The live challenge carries exactly two facts between the steps: which
// email was submitted, and whether the backend considers it a new user.
// The new-user flag decides what the verify step must collect (a display
// name of at least two characters); phone is always optional. A failed
// verification keeps the challenge so the user can retype the code; Back
// discards the challenge entirely.
//
// # Assumptions
//
//   - The backend is the authority on code validity and expiry. The flow
//     never inspects the token beyond a syntactic check.
//   - One flow instance serves one terminal. The in-flight guard is for
//     accidental double submission, not multi-user concurrency.
package authflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/api"
	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/session"
	"github.com/FlexiRAG/flexirag/pkg/logging"
	"github.com/FlexiRAG/flexirag/pkg/validation"
)

// State is the flow's position in the sign-in sequence.
type State int

const (
	// StateAwaitingEmail means no challenge is live.
	StateAwaitingEmail State = iota

	// StateAwaitingCode means a passcode was requested and not yet verified.
	StateAwaitingCode

	// StateAuthenticated means the session store holds a verified identity.
	StateAuthenticated
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateAwaitingEmail:
		return "awaiting_email"
	case StateAwaitingCode:
		return "awaiting_code"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

var (
	// ErrRequestInFlight means a request or verification is already
	// outstanding; the new submission was dropped, not queued.
	ErrRequestInFlight = errors.New("a sign-in request is already in progress")

	// ErrResendThrottled means passcode requests are coming too fast.
	ErrResendThrottled = errors.New("please wait a moment before requesting another code")

	// ErrNoChallenge means VerifyOTP or Back was called with no live challenge.
	ErrNoChallenge = errors.New("request a sign-in code first")

	// ErrAlreadyAuthenticated means RequestOTP was called on a signed-in flow.
	ErrAlreadyAuthenticated = errors.New("already signed in")
)

// Challenge is the live OTP challenge between request and verification.
type Challenge struct {
	// Email the passcode was sent to (normalized)
	Email string

	// IsNewUser is the backend's verdict on the address. It gates the
	// required fields at verification.
	IsNewUser bool

	// RequestedAt is when the passcode was requested
	RequestedAt time.Time
}

// Config configures a Flow.
type Config struct {
	// Auth performs the backend calls. Required.
	Auth api.AuthService

	// Sessions persists the identity on success. Required.
	Sessions *session.Store

	// Limiter throttles passcode requests client-side. The backend
	// enforces its own limits; this only stops fat-fingered resends.
	// Default: 3 requests, refilling one per 20 seconds.
	Limiter *rate.Limiter

	// Logger for flow tracing. Default: warnings and errors only
	Logger *logging.Logger
}

// Flow is the sign-in state machine. Safe for concurrent use; at most
// one backend call is in flight at a time.
type Flow struct {
	mu        sync.Mutex
	state     State
	challenge *Challenge
	inFlight  bool

	auth     api.AuthService
	sessions *session.Store
	limiter  *rate.Limiter
	log      *logging.Logger
}

// New creates a Flow. If the session store already holds an identity,
// the flow starts out authenticated.
func New(config Config) *Flow {
	limiter := config.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(20*time.Second), 3)
	}
	log := config.Logger
	if log == nil {
		log = logging.New(logging.Config{Level: logging.LevelWarn, Service: "authflow"})
	}

	f := &Flow{
		state:    StateAwaitingEmail,
		auth:     config.Auth,
		sessions: config.Sessions,
		limiter:  limiter,
		log:      log,
	}
	if id, err := config.Sessions.Load(); err == nil && id != nil {
		f.state = StateAuthenticated
	}
	return f
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Challenge returns a copy of the live challenge, if any.
func (f *Flow) Challenge() (Challenge, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.challenge == nil {
		return Challenge{}, false
	}
	return *f.challenge, true
}

// RequestOTP asks the backend to email a passcode.
//
// Allowed from AwaitingEmail, and from AwaitingCode as a resend (the new
// challenge replaces the old one). On any failure the previous state and
// challenge are untouched.
func (f *Flow) RequestOTP(ctx context.Context, email string) (*Challenge, error) {
	normalized, err := validation.SanitizeEmail(email)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.state == StateAuthenticated {
		f.mu.Unlock()
		return nil, ErrAlreadyAuthenticated
	}
	if f.inFlight {
		f.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	if !f.limiter.Allow() {
		f.mu.Unlock()
		return nil, ErrResendThrottled
	}
	f.inFlight = true
	f.mu.Unlock()

	resp, err := f.auth.RequestOTP(ctx, normalized)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		f.log.Warn("passcode request failed", "error", err)
		return nil, err
	}

	challenge := &Challenge{
		Email:       normalized,
		IsNewUser:   resp.IsNewUser,
		RequestedAt: time.Now(),
	}
	f.challenge = challenge
	f.state = StateAwaitingCode
	f.log.Debug("passcode requested", "is_new_user", resp.IsNewUser)

	c := *challenge
	return &c, nil
}

// VerifyOTP submits the emailed passcode with the profile fields.
//
// For new users the name is required (ValidateVerifyInput enforces the
// minimum length before any network call); returning users have name and
// phone ignored. On success the identity is persisted and the flow
// becomes Authenticated. On failure the flow stays in AwaitingCode with
// the challenge intact; the entered code is never retained, so the
// caller re-prompts for it.
func (f *Flow) VerifyOTP(ctx context.Context, token, name, phone string) (*session.Identity, error) {
	f.mu.Lock()
	if f.state != StateAwaitingCode || f.challenge == nil {
		f.mu.Unlock()
		return nil, ErrNoChallenge
	}
	if f.inFlight {
		f.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	challenge := *f.challenge

	if err := ValidateVerifyInput(token, name, phone, challenge.IsNewUser); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.inFlight = true
	f.mu.Unlock()

	req := api.VerifyOTPRequest{
		Email: challenge.Email,
		Token: token,
	}
	// Profile fields ride along only for first-time users
	if challenge.IsNewUser {
		req.Name = name
		req.PhoneNumber = phone
	}

	user, err := f.auth.VerifyOTP(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		f.log.Warn("verification failed", "error", err)
		return nil, err
	}

	identity := session.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Phone:  user.PhoneNumber,
	}
	if err := f.sessions.Set(identity); err != nil {
		return nil, err
	}
	f.state = StateAuthenticated
	f.challenge = nil
	f.log.Debug("signed in", "user_id", identity.UserID)
	return &identity, nil
}

// Back abandons the live challenge and returns to AwaitingEmail.
// Calling it with no challenge is a no-op.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateAwaitingCode {
		f.challenge = nil
		f.state = StateAwaitingEmail
	}
}

// SignOut clears the persisted session and resets the flow.
func (f *Flow) SignOut() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sessions.Clear(); err != nil {
		return err
	}
	f.state = StateAwaitingEmail
	f.challenge = nil
	return nil
}
