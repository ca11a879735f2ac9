// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
)

const (
	donorsPath    = "/api/donors"
	hospitalsPath = "/api/hospitals"
)

// RegisterDonor signs up a new donor. No session is required.
func (c *Client) RegisterDonor(ctx context.Context, in model.DonorRegistration) (*model.Donor, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	if !in.BloodGroup.Valid() {
		return nil, fmt.Errorf("invalid blood group %q", in.BloodGroup)
	}
	var out model.Donor
	if err := c.do(ctx, http.MethodPost, donorsPath+"/register", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDonor fetches a donor profile.
func (c *Client) GetDonor(ctx context.Context, id string) (*model.Donor, error) {
	path, err := resourcePath(donorsPath, id)
	if err != nil {
		return nil, err
	}
	var out model.Donor
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDonor applies the non-nil fields of upd.
func (c *Client) UpdateDonor(ctx context.Context, id string, upd model.DonorUpdate) (*model.Donor, error) {
	path, err := resourcePath(donorsPath, id)
	if err != nil {
		return nil, err
	}
	var out model.Donor
	if err := c.do(ctx, http.MethodPut, path, nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListHospitals searches the hospital directory.
func (c *Client) ListHospitals(ctx context.Context, opts ListOptions) (*model.Page[model.Hospital], error) {
	var out model.Page[model.Hospital]
	if err := c.do(ctx, http.MethodGet, hospitalsPath, opts.Values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHospital fetches one hospital.
func (c *Client) GetHospital(ctx context.Context, id string) (*model.Hospital, error) {
	path, err := resourcePath(hospitalsPath, id)
	if err != nil {
		return nil, err
	}
	var out model.Hospital
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
