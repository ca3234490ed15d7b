// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package authflow

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/api"
	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/session"
)

// =============================================================================
// Mock Auth Service
// =============================================================================

// mockAuthService implements api.AuthService for testing.
type mockAuthService struct {
	mu sync.Mutex

	requestResp *api.SigninOTPResponse
	requestErr  error
	verifyUser  *api.User
	verifyErr   error

	requestCalls  int
	verifyCalls   int
	lastVerifyReq api.VerifyOTPRequest

	// When set, RequestOTP signals started and then waits on release,
	// letting tests hold a call in flight.
	started chan struct{}
	release chan struct{}
}

func (m *mockAuthService) RequestOTP(ctx context.Context, email string) (*api.SigninOTPResponse, error) {
	m.mu.Lock()
	m.requestCalls++
	started, release := m.started, m.release
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	return m.requestResp, m.requestErr
}

func (m *mockAuthService) VerifyOTP(ctx context.Context, req api.VerifyOTPRequest) (*api.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyCalls++
	m.lastVerifyReq = req
	return m.verifyUser, m.verifyErr
}

func (m *mockAuthService) CreateUser(ctx context.Context, req api.CreateUserRequest) (*api.CreateUserResponse, error) {
	return nil, errors.New("not used in these tests")
}

func newTestFlow(t *testing.T, auth api.AuthService) (*Flow, *session.Store) {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	flow := New(Config{
		Auth:     auth,
		Sessions: store,
		Limiter:  rate.NewLimiter(rate.Inf, 0),
	})
	return flow, store
}

// =============================================================================
// RequestOTP Tests
// =============================================================================

func TestFlow_RequestOTP_TransitionsToAwaitingCode(t *testing.T) {
	auth := &mockAuthService{
		requestResp: &api.SigninOTPResponse{Message: "Code sent", IsNewUser: true},
	}
	flow, _ := newTestFlow(t, auth)

	if flow.State() != StateAwaitingEmail {
		t.Fatalf("fresh flow state = %v, want awaiting_email", flow.State())
	}

	challenge, err := flow.RequestOTP(context.Background(), "Ana@Example.com")
	if err != nil {
		t.Fatalf("RequestOTP() error = %v", err)
	}
	if flow.State() != StateAwaitingCode {
		t.Errorf("state = %v, want awaiting_code", flow.State())
	}
	if challenge.Email != "ana@example.com" {
		t.Errorf("challenge email = %q, want the normalized address", challenge.Email)
	}
	if !challenge.IsNewUser {
		t.Error("challenge should carry the backend's new-user verdict")
	}
}

func TestFlow_RequestOTP_InvalidEmailSkipsNetwork(t *testing.T) {
	auth := &mockAuthService{}
	flow, _ := newTestFlow(t, auth)

	_, err := flow.RequestOTP(context.Background(), "not-an-email")
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if auth.requestCalls != 0 {
		t.Errorf("validation failure must not hit the network, got %d calls", auth.requestCalls)
	}
	if flow.State() != StateAwaitingEmail {
		t.Errorf("state = %v, want awaiting_email unchanged", flow.State())
	}
}

func TestFlow_RequestOTP_FailureLeavesStateUnchanged(t *testing.T) {
	auth := &mockAuthService{
		requestErr: &api.Error{StatusCode: 429, Message: "Too many requests"},
	}
	flow, _ := newTestFlow(t, auth)

	_, err := flow.RequestOTP(context.Background(), "ana@example.com")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "Too many requests" {
		t.Errorf("error = %q, want the server's wording verbatim", err.Error())
	}
	if flow.State() != StateAwaitingEmail {
		t.Errorf("state = %v, want awaiting_email unchanged", flow.State())
	}
	if _, ok := flow.Challenge(); ok {
		t.Error("a failed request must not leave a challenge behind")
	}
}

func TestFlow_RequestOTP_Throttled(t *testing.T) {
	auth := &mockAuthService{
		requestResp: &api.SigninOTPResponse{IsNewUser: false},
	}
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	flow := New(Config{
		Auth:     auth,
		Sessions: store,
		Limiter:  rate.NewLimiter(rate.Every(time.Hour), 1),
	})

	if _, err := flow.RequestOTP(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}
	_, err := flow.RequestOTP(context.Background(), "ana@example.com")
	if !errors.Is(err, ErrResendThrottled) {
		t.Errorf("error = %v, want ErrResendThrottled", err)
	}
	if auth.requestCalls != 1 {
		t.Errorf("throttled request must not hit the network, got %d calls", auth.requestCalls)
	}
}

func TestFlow_RequestOTP_WhenAuthenticated(t *testing.T) {
	auth := &mockAuthService{}
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Set(session.Identity{UserID: "u-1", Name: "Ana", Email: "ana@example.com"}); err != nil {
		t.Fatal(err)
	}
	flow := New(Config{Auth: auth, Sessions: store, Limiter: rate.NewLimiter(rate.Inf, 0)})

	if flow.State() != StateAuthenticated {
		t.Fatalf("flow should resume authenticated from the store, got %v", flow.State())
	}
	_, err := flow.RequestOTP(context.Background(), "ana@example.com")
	if !errors.Is(err, ErrAlreadyAuthenticated) {
		t.Errorf("error = %v, want ErrAlreadyAuthenticated", err)
	}
}

// =============================================================================
// VerifyOTP Tests
// =============================================================================

func startChallenge(t *testing.T, flow *Flow, isNewUser bool) {
	t.Helper()
	auth := flow.auth.(*mockAuthService)
	auth.mu.Lock()
	auth.requestResp = &api.SigninOTPResponse{IsNewUser: isNewUser}
	auth.mu.Unlock()
	if _, err := flow.RequestOTP(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("RequestOTP() error = %v", err)
	}
}

func TestFlow_VerifyOTP_NewUserRequiresName(t *testing.T) {
	auth := &mockAuthService{}
	flow, _ := newTestFlow(t, auth)
	startChallenge(t, flow, true)

	for _, name := range []string{"", "A", " A "} {
		if _, err := flow.VerifyOTP(context.Background(), "482913", name, ""); err == nil {
			t.Errorf("VerifyOTP with name %q should fail for a new user", name)
		}
	}
	if auth.verifyCalls != 0 {
		t.Errorf("name validation must run before any network call, got %d calls", auth.verifyCalls)
	}
	if flow.State() != StateAwaitingCode {
		t.Errorf("state = %v, want awaiting_code preserved", flow.State())
	}
}

func TestFlow_VerifyOTP_ReturningUserIgnoresName(t *testing.T) {
	auth := &mockAuthService{
		verifyUser: &api.User{ID: "u-1", Name: "Ana", Email: "ana@example.com"},
	}
	flow, _ := newTestFlow(t, auth)
	startChallenge(t, flow, false)

	if _, err := flow.VerifyOTP(context.Background(), "482913", "", ""); err != nil {
		t.Fatalf("returning user must not need a name: %v", err)
	}
	if auth.lastVerifyReq.Name != "" {
		t.Errorf("profile fields must be omitted for returning users, got name %q", auth.lastVerifyReq.Name)
	}
}

func TestFlow_VerifyOTP_NewUserSendsProfile(t *testing.T) {
	auth := &mockAuthService{
		verifyUser: &api.User{ID: "u-2", Name: "Ana Smith", Email: "ana@example.com"},
	}
	flow, _ := newTestFlow(t, auth)
	startChallenge(t, flow, true)

	if _, err := flow.VerifyOTP(context.Background(), "482913", "Ana Smith", "+1 415 555 0100"); err != nil {
		t.Fatalf("VerifyOTP() error = %v", err)
	}
	if auth.lastVerifyReq.Name != "Ana Smith" {
		t.Errorf("name = %q, want Ana Smith", auth.lastVerifyReq.Name)
	}
	if auth.lastVerifyReq.PhoneNumber == "" {
		t.Error("phone should ride along when provided")
	}
	if auth.lastVerifyReq.Email != "ana@example.com" {
		t.Errorf("email = %q, want the challenge email", auth.lastVerifyReq.Email)
	}
}

func TestFlow_VerifyOTP_SuccessPersistsSession(t *testing.T) {
	auth := &mockAuthService{
		verifyUser: &api.User{ID: "u-3", Name: "Ana", Email: "ana@example.com"},
	}
	flow, store := newTestFlow(t, auth)
	startChallenge(t, flow, false)

	identity, err := flow.VerifyOTP(context.Background(), "482913", "", "")
	if err != nil {
		t.Fatalf("VerifyOTP() error = %v", err)
	}
	if flow.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", flow.State())
	}
	if identity.UserID != "u-3" {
		t.Errorf("identity user id = %q, want u-3", identity.UserID)
	}

	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if persisted == nil || persisted.UserID != "u-3" {
		t.Errorf("persisted = %+v, want the verified identity", persisted)
	}
	if _, ok := flow.Challenge(); ok {
		t.Error("a successful verification must consume the challenge")
	}
}

func TestFlow_VerifyOTP_FailureKeepsChallenge(t *testing.T) {
	auth := &mockAuthService{
		verifyErr: &api.Error{StatusCode: 400, Message: "Invalid or expired code"},
	}
	flow, store := newTestFlow(t, auth)
	startChallenge(t, flow, true)

	_, err := flow.VerifyOTP(context.Background(), "000000", "Ana Smith", "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "Invalid or expired code" {
		t.Errorf("error = %q, want the server's wording verbatim", err.Error())
	}
	if flow.State() != StateAwaitingCode {
		t.Errorf("state = %v, want awaiting_code preserved", flow.State())
	}

	challenge, ok := flow.Challenge()
	if !ok {
		t.Fatal("the challenge must survive a failed verification")
	}
	if challenge.Email != "ana@example.com" || !challenge.IsNewUser {
		t.Errorf("challenge = %+v, want email and new-user flag preserved", challenge)
	}

	if persisted, _ := store.Load(); persisted != nil {
		t.Error("a failed verification must not persist a session")
	}
}

func TestFlow_VerifyOTP_WithoutChallenge(t *testing.T) {
	auth := &mockAuthService{}
	flow, _ := newTestFlow(t, auth)

	_, err := flow.VerifyOTP(context.Background(), "482913", "", "")
	if !errors.Is(err, ErrNoChallenge) {
		t.Errorf("error = %v, want ErrNoChallenge", err)
	}
}

// =============================================================================
// Back Tests
// =============================================================================

func TestFlow_Back_DiscardsChallengeCompletely(t *testing.T) {
	auth := &mockAuthService{}
	flow, _ := newTestFlow(t, auth)
	startChallenge(t, flow, true)

	flow.Back()
	if flow.State() != StateAwaitingEmail {
		t.Errorf("state = %v, want awaiting_email", flow.State())
	}
	if _, ok := flow.Challenge(); ok {
		t.Error("Back() must discard the challenge")
	}

	// A fresh request starts clean: the new challenge carries the new
	// verdict with no residue of the abandoned one
	auth.mu.Lock()
	auth.requestResp = &api.SigninOTPResponse{IsNewUser: false}
	auth.mu.Unlock()
	challenge, err := flow.RequestOTP(context.Background(), "other@example.com")
	if err != nil {
		t.Fatalf("RequestOTP() after Back() error = %v", err)
	}
	if challenge.Email != "other@example.com" || challenge.IsNewUser {
		t.Errorf("challenge = %+v, want a clean second challenge", challenge)
	}
}

func TestFlow_Back_IsIdempotent(t *testing.T) {
	auth := &mockAuthService{}
	flow, _ := newTestFlow(t, auth)

	flow.Back()
	flow.Back()
	if flow.State() != StateAwaitingEmail {
		t.Errorf("state = %v, want awaiting_email", flow.State())
	}
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func TestFlow_RequestOTP_SingleFlight(t *testing.T) {
	auth := &mockAuthService{
		requestResp: &api.SigninOTPResponse{IsNewUser: false},
		started:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
	flow, _ := newTestFlow(t, auth)

	done := make(chan error, 1)
	go func() {
		_, err := flow.RequestOTP(context.Background(), "ana@example.com")
		done <- err
	}()

	// Wait until the first call is inside the backend
	<-auth.started

	_, err := flow.RequestOTP(context.Background(), "ana@example.com")
	if !errors.Is(err, ErrRequestInFlight) {
		t.Errorf("second submission error = %v, want ErrRequestInFlight", err)
	}

	close(auth.release)
	if err := <-done; err != nil {
		t.Fatalf("first request error = %v", err)
	}

	if auth.requestCalls != 1 {
		t.Errorf("backend saw %d calls, want exactly 1", auth.requestCalls)
	}
}

// =============================================================================
// SignOut Tests
// =============================================================================

func TestFlow_SignOut(t *testing.T) {
	auth := &mockAuthService{
		verifyUser: &api.User{ID: "u-5", Name: "Ana", Email: "ana@example.com"},
	}
	flow, store := newTestFlow(t, auth)
	startChallenge(t, flow, false)
	if _, err := flow.VerifyOTP(context.Background(), "482913", "", ""); err != nil {
		t.Fatal(err)
	}

	if err := flow.SignOut(); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if flow.State() != StateAwaitingEmail {
		t.Errorf("state = %v, want awaiting_email", flow.State())
	}
	if persisted, _ := store.Load(); persisted != nil {
		t.Error("SignOut() must clear the persisted session")
	}
}

// =============================================================================
// ValidateVerifyInput Tests
// =============================================================================

func TestValidateVerifyInput(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		userName  string
		phone     string
		isNewUser bool
		wantErr   bool
	}{
		{"returning user minimal", "482913", "", "", false, false},
		{"new user with name", "482913", "Ana Smith", "", true, false},
		{"new user with phone", "482913", "Ana", "+1 415 555 0100", true, false},

		{"empty token", "", "Ana", "", true, true},
		{"new user empty name", "482913", "", "", true, true},
		{"new user short name", "482913", "A", "", true, true},
		{"bad phone", "482913", "Ana", "nope", true, true},
		{"returning user ignores name", "482913", "A", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVerifyInput(tt.token, tt.userName, tt.phone, tt.isNewUser)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVerifyInput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
