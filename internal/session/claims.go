// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token payload fields the client reads. They are a display
// and routing hint only: the signature is never checked here.
type Claims struct {
	Subject    string
	ID         string
	Role       string
	HospitalID string
	DonorID    string
	Email      string
	Name       string
}

// UserID returns sub, falling back to id.
func (c Claims) UserID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.ID
}

var unverified = jwt.NewParser()

// DecodeClaims reads the payload segment of a JWT without verifying it.
// ok is false when the token cannot be decoded.
func DecodeClaims(token string) (claims Claims, ok bool) {
	m := jwt.MapClaims{}
	if _, _, err := unverified.ParseUnverified(token, m); err != nil {
		// Fall back to the payload alone; some issuers send odd headers.
		var fallback bool
		m, fallback = decodePayload(token)
		if !fallback {
			return Claims{}, false
		}
	}

	return Claims{
		Subject:    claimString(m, "sub"),
		ID:         claimString(m, "id"),
		Role:       claimString(m, "role"),
		HospitalID: claimString(m, "hospitalId"),
		DonorID:    claimString(m, "donorId"),
		Email:      claimString(m, "email"),
		Name:       claimString(m, "name"),
	}, true
}

func decodePayload(token string) (jwt.MapClaims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, false
	}
	m := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// claimString renders string and numeric claims as strings.
func claimString(m jwt.MapClaims, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
