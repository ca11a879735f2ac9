// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
)

const (
	campaignsPath = "/api/campaigns"
	stockPath     = "/api/blood-stock"
)

// ListCampaigns lists donation drives.
func (c *Client) ListCampaigns(ctx context.Context, opts ListOptions) (*model.Page[model.Campaign], error) {
	var out model.Page[model.Campaign]
	if err := c.do(ctx, http.MethodGet, campaignsPath, opts.Values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCampaign fetches one campaign.
func (c *Client) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	path, err := resourcePath(campaignsPath, id)
	if err != nil {
		return nil, err
	}
	var out model.Campaign
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCampaign schedules a new campaign.
func (c *Client) CreateCampaign(ctx context.Context, in model.CampaignInput) (*model.Campaign, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out model.Campaign
	if err := c.do(ctx, http.MethodPost, campaignsPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCampaign replaces a campaign's editable fields.
func (c *Client) UpdateCampaign(ctx context.Context, id string, in model.CampaignInput) (*model.Campaign, error) {
	path, err := resourcePath(campaignsPath, id)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out model.Campaign
	if err := c.do(ctx, http.MethodPut, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCampaign removes a campaign.
func (c *Client) DeleteCampaign(ctx context.Context, id string) error {
	path, err := resourcePath(campaignsPath, id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ListStock returns per-group stock. An empty hospitalID lets the server
// pick the caller's own hospital.
func (c *Client) ListStock(ctx context.Context, hospitalID string) ([]model.StockEntry, error) {
	var q url.Values
	if hospitalID != "" {
		q = url.Values{"hospitalId": {hospitalID}}
	}
	var out model.Page[model.StockEntry]
	if err := c.do(ctx, http.MethodGet, stockPath, q, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// AdjustStock records a ledger entry and returns the resulting stock.
func (c *Client) AdjustStock(ctx context.Context, adj model.StockAdjustment) (*model.StockEntry, error) {
	if err := adj.Validate(); err != nil {
		return nil, err
	}
	var out model.StockEntry
	if err := c.do(ctx, http.MethodPost, stockPath, nil, adj, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
