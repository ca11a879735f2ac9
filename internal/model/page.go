// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is one page of a list endpoint. The backend answers either with a
// bare array or with an envelope {data|items, page, limit, total}.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type pageEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Items json.RawMessage `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}

// UnmarshalJSON accepts both list shapes.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Page[T]{}
		return nil
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*p = Page[T]{Items: items, Total: len(items)}
		return nil
	}

	var env pageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	raw := env.Data
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = env.Items
	}

	var items []T
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("decode page items: %w", err)
		}
	}
	*p = Page[T]{Items: items, Page: env.Page, Limit: env.Limit, Total: env.Total}
	if p.Total == 0 {
		p.Total = len(items)
	}
	return nil
}

// HasMore reports whether another page follows this one.
func (p Page[T]) HasMore() bool {
	if p.Limit <= 0 || p.Page <= 0 {
		return false
	}
	return p.Page*p.Limit < p.Total
}
