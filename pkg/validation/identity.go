// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for sign-in and
// profile fields.
//
// This package contains validators for user-provided inputs that are sent to
// the FlexiRAG backend or interpolated into request paths. Validating before
// any network call keeps bad input local and error messages instant.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// emailPattern is a pragmatic syntactic check, not an RFC 5322 parser.
// The backend is the authority on deliverability; this only catches
// obvious typos before a round trip.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// otpTokenPattern matches one-time passcodes as issued by the backend:
// 4-10 digits, or an opaque alphanumeric token up to 64 chars for
// magic-link style verification.
var otpTokenPattern = regexp.MustCompile(`^[A-Za-z0-9\-]{4,64}$`)

// phonePattern allows international notation with optional separators.
var phonePattern = regexp.MustCompile(`^\+?[0-9(][0-9 .\-()]{4,19}$`)

// MinDisplayNameLen is the minimum length for a new user's display name.
const MinDisplayNameLen = 2

// ValidateEmail validates an email address syntactically.
//
// Returns an error if the address is empty or not of the shape
// local@domain.tld.
//
// Example:
//
//	if err := validation.ValidateEmail(email); err != nil {
//	    return fmt.Errorf("invalid email: %w", err)
//	}
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("please enter a valid email address")
	}
	return nil
}

// SanitizeEmail normalizes and validates an email address.
// Returns the trimmed, lowercased address if valid.
func SanitizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := ValidateEmail(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateOTPToken validates a one-time passcode before submission.
func ValidateOTPToken(token string) error {
	if token == "" {
		return fmt.Errorf("verification code cannot be empty")
	}
	if !otpTokenPattern.MatchString(token) {
		return fmt.Errorf("invalid verification code format")
	}
	return nil
}

// ValidateDisplayName validates a new user's display name.
func ValidateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < MinDisplayNameLen {
		return fmt.Errorf("name must be at least %d characters", MinDisplayNameLen)
	}
	return nil
}

// ValidatePhone validates an optional phone number. Empty is valid;
// the field is never required.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("invalid phone number format: %q", phone)
	}
	return nil
}
