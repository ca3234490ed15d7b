// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBodyBytes bounds how much of a failure body we read.
// Backend error payloads are small; anything larger is not one.
const maxErrorBodyBytes = 64 * 1024

// Error is a failed backend request.
//
// Message is the backend's own wording, taken verbatim from the
// response body ("detail" or "message"). When the body carries
// neither, Message falls back to "Error: {code} {status text}".
type Error struct {
	// StatusCode is the HTTP status, e.g. 429
	StatusCode int

	// Message is what the user should see
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// errorBody is the failure payload shape shared by all endpoints.
// Different backend layers populate different fields.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// newError builds an *Error from a non-2xx response.
func newError(resp *http.Response) *Error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err == nil && len(data) > 0 {
		var body errorBody
		if json.Unmarshal(data, &body) == nil {
			switch {
			case body.Detail != "":
				apiErr.Message = body.Detail
			case body.Message != "":
				apiErr.Message = body.Message
			}
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("Error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return apiErr
}
