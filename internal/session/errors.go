// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "errors"

// Guard errors.
var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrForbidden        = errors.New("not permitted for this role")
)

// AuthenticationError is returned by Login when the server rejects the
// credentials. Message is the server's message or "Login failed".
type AuthenticationError struct {
	Status  int
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// ProtocolError is returned by Login when a 2xx response is missing data
// the client needs.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}
