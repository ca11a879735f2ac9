// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsUnauthorized reports whether the server rejected the credentials.
func (e *Error) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// IsForbidden reports whether the role lacks access.
func (e *Error) IsForbidden() bool {
	return e.Status == http.StatusForbidden
}

// IsNotFound reports whether the resource does not exist.
func (e *Error) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// newError takes the message from {message} or {error} bodies, falling
// back to the status text.
func newError(status int, body []byte) *Error {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if eb.Message != "" {
			return &Error{Status: status, Message: eb.Message}
		}
		if eb.Error != "" {
			return &Error{Status: status, Message: eb.Error}
		}
	}
	msg := http.StatusText(status)
	if msg == "" {
		msg = "request failed"
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		msg += ": " + text
	}
	return &Error{Status: status, Message: msg}
}
