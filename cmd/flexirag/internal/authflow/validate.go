// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package authflow

import (
	"github.com/FlexiRAG/flexirag/pkg/validation"
)

// ValidateVerifyInput checks the verification fields before any network
// call. isNewUser is an explicit parameter rather than ambient state so
// the rule being applied is visible at every call site:
//
//   - token: always required, syntactically a passcode
//   - name: required with a minimum length only when isNewUser
//   - phone: always optional, format-checked when present
func ValidateVerifyInput(token, name, phone string, isNewUser bool) error {
	if err := validation.ValidateOTPToken(token); err != nil {
		return err
	}
	if isNewUser {
		if err := validation.ValidateDisplayName(name); err != nil {
			return err
		}
	}
	return validation.ValidatePhone(phone)
}
