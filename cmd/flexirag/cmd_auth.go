// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/api"
	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/authflow"
	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/session"
	"github.com/FlexiRAG/flexirag/pkg/ux"
	"github.com/FlexiRAG/flexirag/pkg/validation"
)

// backKeyword typed at the code prompt abandons the challenge and
// returns to the email prompt.
const backKeyword = "back"

func runSignin(cmd *cobra.Command, args []string) {
	store, err := session.DefaultStore()
	if err != nil {
		fail(err)
	}
	auth := api.NewAuthService(api.AuthConfig{
		BaseURL: getAPIBaseURL(),
		Timeout: requestTimeout(),
	})
	flow := authflow.New(authflow.Config{Auth: auth, Sessions: store})
	ctx := context.Background()

	// Scripted path: both halves supplied up front, no prompts.
	if signinEmail != "" && signinCode != "" {
		if err := signinScripted(ctx, flow); err != nil {
			fail(err)
		}
		return
	}

	if !ux.IsInteractive() {
		fail(errors.New("non-interactive signin needs both --email and --code"))
	}

	if err := signinInteractive(ctx, flow); err != nil {
		fail(err)
	}
}

// signinScripted runs request and verify back to back with the flag
// values. The backend accepts a recently emailed passcode for the same
// address, so a fresh request does not invalidate the code in hand.
func signinScripted(ctx context.Context, flow *authflow.Flow) error {
	challenge, err := flow.RequestOTP(ctx, signinEmail)
	if err != nil {
		return err
	}
	if challenge.IsNewUser && signinName == "" {
		return errors.New("this email has no account yet; pass --name to create one")
	}
	identity, err := flow.VerifyOTP(ctx, signinCode, signinName, signinPhone)
	if err != nil {
		return err
	}
	ux.Success(fmt.Sprintf("Signed in as %s", identity.Email))
	return nil
}

// signinInteractive walks the two-step flow with prompts. Typing "back"
// at the code prompt returns to the email prompt; a wrong code keeps the
// challenge so only the code is re-entered.
func signinInteractive(ctx context.Context, flow *authflow.Flow) error {
	email := signinEmail
	for {
		if email == "" {
			if err := promptEmail(&email); err != nil {
				return err
			}
		}

		var challenge *authflow.Challenge
		err := ux.WithSpinner("Sending sign-in code", func() error {
			var reqErr error
			challenge, reqErr = flow.RequestOTP(ctx, email)
			return reqErr
		})
		if errors.Is(err, authflow.ErrResendThrottled) {
			ux.Warning(err.Error())
			continue
		}
		if err != nil {
			ux.Error(err.Error())
			email = ""
			continue
		}

		ux.Info(fmt.Sprintf("Code sent to %s", challenge.Email))
		if challenge.IsNewUser {
			ux.Hint("Looks like a new account. You'll be asked for a display name.")
		}

		identity, backed, err := verifyLoop(ctx, flow, challenge.IsNewUser)
		if err != nil {
			return err
		}
		if backed {
			email = ""
			continue
		}

		ux.Title("Welcome to FlexiRAG")
		ux.Success(fmt.Sprintf("Signed in as %s", identity.Email))
		ux.Hint("Try 'flexirag docs upload <file>' to add your first document.")
		return nil
	}
}

// verifyLoop prompts for the code (and profile fields for new users)
// until verification succeeds, the user types "back", or prompting fails.
func verifyLoop(ctx context.Context, flow *authflow.Flow, isNewUser bool) (*session.Identity, bool, error) {
	name := signinName
	phone := signinPhone
	for {
		code := signinCode
		if code == "" {
			if err := promptCode(&code); err != nil {
				return nil, false, err
			}
		}
		if code == backKeyword {
			flow.Back()
			ux.Muted("Challenge discarded.")
			return nil, true, nil
		}

		if isNewUser && name == "" {
			if err := promptProfile(&name, &phone); err != nil {
				return nil, false, err
			}
		}

		var identity *session.Identity
		err := ux.WithSpinner("Verifying", func() error {
			var verifyErr error
			identity, verifyErr = flow.VerifyOTP(ctx, code, name, phone)
			return verifyErr
		})
		if err != nil {
			// Challenge survives a bad code; only the code is re-entered.
			ux.Error(err.Error())
			signinCode = ""
			continue
		}
		return identity, false, nil
	}
}

func promptEmail(email *string) error {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(email).
			Validate(func(s string) error {
				_, err := validation.SanitizeEmail(s)
				return err
			}),
	)).Run()
}

func promptCode(code *string) error {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Passcode").
			Description("From the email we just sent. Type 'back' to change the address.").
			Value(code).
			Validate(func(s string) error {
				if s == backKeyword {
					return nil
				}
				return validation.ValidateOTPToken(s)
			}),
	)).Run()
}

func promptProfile(name, phone *string) error {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Display name").
			Value(name).
			Validate(validation.ValidateDisplayName),
		huh.NewInput().
			Title("Phone (optional)").
			Value(phone).
			Validate(validation.ValidatePhone),
	)).Run()
}

func runSignup(cmd *cobra.Command, args []string) {
	name, email, phone := signupName, signupEmail, signupPhone
	if name == "" || email == "" {
		if !ux.IsInteractive() {
			fail(errors.New("signup needs --name and --email"))
		}
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Display name").Value(&name).
				Validate(validation.ValidateDisplayName),
			huh.NewInput().Title("Email").Value(&email).
				Validate(func(s string) error {
					_, err := validation.SanitizeEmail(s)
					return err
				}),
			huh.NewInput().Title("Phone (optional)").Value(&phone).
				Validate(validation.ValidatePhone),
		))
		if err := form.Run(); err != nil {
			fail(err)
		}
	}

	normalized, err := validation.SanitizeEmail(email)
	if err != nil {
		fail(err)
	}

	auth := api.NewAuthService(api.AuthConfig{
		BaseURL: getAPIBaseURL(),
		Timeout: requestTimeout(),
	})

	var resp *api.CreateUserResponse
	err = ux.WithSpinner("Creating account", func() error {
		var createErr error
		resp, createErr = auth.CreateUser(context.Background(), api.CreateUserRequest{
			Name:        name,
			Email:       normalized,
			PhoneNumber: phone,
		})
		return createErr
	})
	if err != nil {
		fail(err)
	}

	ux.Success(fmt.Sprintf("Account created for %s", resp.User.Email))
	if resp.VerificationRequired {
		ux.Hint("Run 'flexirag signin' to verify your email and start a session.")
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	store, err := session.DefaultStore()
	if err != nil {
		fail(err)
	}
	if err := store.Clear(); err != nil {
		fail(err)
	}
	ux.Success("Signed out. Local session removed.")
}

func runWhoami(cmd *cobra.Command, args []string) {
	identity := currentIdentity()
	if identity == nil {
		fail(errSignedOut)
	}
	ux.KeyValue("User ID", identity.UserID)
	ux.KeyValue("Name", identity.Name)
	ux.KeyValue("Email", identity.Email)
	if identity.Phone != "" {
		ux.KeyValue("Phone", identity.Phone)
	}
}
