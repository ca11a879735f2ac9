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
	appointmentsPath = "/api/appointments"
	requestsPath     = "/api/requests"
)

// ListAppointments lists appointments visible to the caller.
func (c *Client) ListAppointments(ctx context.Context, opts ListOptions) (*model.Page[model.Appointment], error) {
	var out model.Page[model.Appointment]
	if err := c.do(ctx, http.MethodGet, appointmentsPath, opts.Values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BookAppointment books a donation slot for the signed-in donor.
func (c *Client) BookAppointment(ctx context.Context, in model.AppointmentInput) (*model.Appointment, error) {
	if strings.TrimSpace(in.HospitalID) == "" {
		return nil, fmt.Errorf("hospital id is required")
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("appointment date is required")
	}
	var out model.Appointment
	if err := c.do(ctx, http.MethodPost, appointmentsPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetAppointmentStatus moves an appointment through its workflow.
func (c *Client) SetAppointmentStatus(ctx context.Context, id string, upd model.StatusUpdate) (*model.Appointment, error) {
	path, err := statusPath(appointmentsPath, id, upd)
	if err != nil {
		return nil, err
	}
	var out model.Appointment
	if err := c.do(ctx, http.MethodPatch, path, nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRequests lists blood requests.
func (c *Client) ListRequests(ctx context.Context, opts ListOptions) (*model.Page[model.BloodRequest], error) {
	var out model.Page[model.BloodRequest]
	if err := c.do(ctx, http.MethodGet, requestsPath, opts.Values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRequest files a request for blood units.
func (c *Client) CreateRequest(ctx context.Context, in model.BloodRequestInput) (*model.BloodRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out model.BloodRequest
	if err := c.do(ctx, http.MethodPost, requestsPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetRequestStatus approves or rejects a blood request.
func (c *Client) SetRequestStatus(ctx context.Context, id string, upd model.StatusUpdate) (*model.BloodRequest, error) {
	path, err := statusPath(requestsPath, id, upd)
	if err != nil {
		return nil, err
	}
	var out model.BloodRequest
	if err := c.do(ctx, http.MethodPatch, path, nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func statusPath(base, id string, upd model.StatusUpdate) (string, error) {
	if _, err := model.ParseStatus(string(upd.Status)); err != nil {
		return "", err
	}
	path, err := resourcePath(base, id)
	if err != nil {
		return "", err
	}
	return path + "/status", nil
}
