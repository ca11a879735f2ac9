// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
)

// ListOptions are the pagination and filter parameters shared by the list
// endpoints. Zero values are left out of the query.
type ListOptions struct {
	Page       int
	Limit      int
	Search     string
	City       string
	BloodGroup model.BloodGroup
	Status     string
	HospitalID string
	DonorID    string
}

// Values encodes the non-zero options. Free text is NFC-normalised so the
// same search typed on different keyboards hits the same server index.
func (o ListOptions) Values() url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if s := normalizeText(o.Search); s != "" {
		v.Set("search", s)
	}
	if s := normalizeText(o.City); s != "" {
		v.Set("city", s)
	}
	if o.BloodGroup != "" {
		v.Set("bloodGroup", string(o.BloodGroup))
	}
	if o.Status != "" {
		v.Set("status", strings.ToLower(o.Status))
	}
	if o.HospitalID != "" {
		v.Set("hospitalId", o.HospitalID)
	}
	if o.DonorID != "" {
		v.Set("donorId", o.DonorID)
	}
	return v
}

// Query returns the encoded query string with keys in sorted order.
func (o ListOptions) Query() string {
	return o.Values().Encode()
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
