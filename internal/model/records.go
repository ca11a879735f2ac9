// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// BloodGroup is an ABO/Rh blood group.
type BloodGroup string

const (
	APos  BloodGroup = "A+"
	ANeg  BloodGroup = "A-"
	BPos  BloodGroup = "B+"
	BNeg  BloodGroup = "B-"
	ABPos BloodGroup = "AB+"
	ABNeg BloodGroup = "AB-"
	OPos  BloodGroup = "O+"
	ONeg  BloodGroup = "O-"
)

// BloodGroups lists every group in display order.
var BloodGroups = []BloodGroup{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}

// ParseBloodGroup accepts any casing and surrounding space ("ab+", " O- ").
func ParseBloodGroup(s string) (BloodGroup, error) {
	g := BloodGroup(strings.ToUpper(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("invalid blood group %q", s)
	}
	return g, nil
}

// Valid reports whether g is one of the eight groups.
func (g BloodGroup) Valid() bool {
	for _, known := range BloodGroups {
		if g == known {
			return true
		}
	}
	return false
}

// Status is the workflow state of an appointment or blood request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalises and validates a status name.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// =============================================================================
// RECORDS
// =============================================================================

// Ref carries a record identifier. The backend may send either "id" or "_id".
type Ref struct {
	ID       string `json:"id,omitempty"`
	LegacyID string `json:"_id,omitempty"`
}

// Key returns whichever identifier is set.
func (r Ref) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.LegacyID
}

// Donor is a registered blood donor.
type Donor struct {
	Ref
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	BloodGroup       BloodGroup `json:"bloodGroup"`
	City             string     `json:"city,omitempty"`
	Address          string     `json:"address,omitempty"`
	Gender           string     `json:"gender,omitempty"`
	DateOfBirth      string     `json:"dateOfBirth,omitempty"`
	LastDonationDate string     `json:"lastDonationDate,omitempty"`
	Available        bool       `json:"available"`
}

// DonorRegistration is the anonymous sign-up payload.
type DonorRegistration struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	Phone       string     `json:"phone,omitempty"`
	BloodGroup  BloodGroup `json:"bloodGroup"`
	City        string     `json:"city,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	DateOfBirth string     `json:"dateOfBirth,omitempty"`
}

// DonorUpdate carries the editable profile fields. Nil fields are left
// unchanged by the server.
type DonorUpdate struct {
	Name      *string `json:"name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	City      *string `json:"city,omitempty"`
	Address   *string `json:"address,omitempty"`
	Available *bool   `json:"available,omitempty"`
}

// Hospital is a blood bank or hospital in the directory.
type Hospital struct {
	Ref
	Name        string       `json:"name"`
	City        string       `json:"city,omitempty"`
	Address     string       `json:"address,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Email       string       `json:"email,omitempty"`
	BloodGroups []BloodGroup `json:"bloodGroups,omitempty"`
}

// Campaign is a scheduled donation drive.
type Campaign struct {
	Ref
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	HospitalID   string    `json:"hospitalId,omitempty"`
	HospitalName string    `json:"hospitalName,omitempty"`
	City         string    `json:"city,omitempty"`
	Location     string    `json:"location,omitempty"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Status       string    `json:"status,omitempty"`
	TargetUnits  int       `json:"targetUnits,omitempty"`
}

// CampaignInput is the create/update payload for a campaign.
type CampaignInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	City        string    `json:"city,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Status      string    `json:"status,omitempty"`
	TargetUnits int       `json:"targetUnits,omitempty"`
}

// Validate checks the fields the server would otherwise reject.
func (c CampaignInput) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("campaign title is required")
	}
	if !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("campaign end date is before start date")
	}
	if c.TargetUnits < 0 {
		return fmt.Errorf("target units cannot be negative")
	}
	return nil
}

// StockEntry is the current unit count of one blood group at one hospital.
type StockEntry struct {
	Ref
	HospitalID string     `json:"hospitalId,omitempty"`
	BloodGroup BloodGroup `json:"bloodGroup"`
	Units      int        `json:"units"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// StockAdjustment is a ledger entry: Units is added to (or, when negative,
// removed from) the hospital's stock of BloodGroup.
type StockAdjustment struct {
	HospitalID string     `json:"hospitalId,omitempty"`
	BloodGroup BloodGroup `json:"bloodGroup"`
	Units      int        `json:"units"`
	Reason     string     `json:"reason,omitempty"`
}

// Validate rejects adjustments the ledger cannot record.
func (a StockAdjustment) Validate() error {
	if !a.BloodGroup.Valid() {
		return fmt.Errorf("invalid blood group %q", a.BloodGroup)
	}
	if a.Units == 0 {
		return fmt.Errorf("units must be non-zero")
	}
	return nil
}

// Appointment is a donor's booked donation slot.
type Appointment struct {
	Ref
	DonorID    string    `json:"donorId,omitempty"`
	DonorName  string    `json:"donorName,omitempty"`
	HospitalID string    `json:"hospitalId,omitempty"`
	CampaignID string    `json:"campaignId,omitempty"`
	Date       time.Time `json:"date"`
	Status     Status    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
}

// AppointmentInput is the booking payload.
type AppointmentInput struct {
	HospitalID string    `json:"hospitalId"`
	CampaignID string    `json:"campaignId,omitempty"`
	Date       time.Time `json:"date"`
	Notes      string    `json:"notes,omitempty"`
}

// BloodRequest is a hospital's request for units of a blood group.
type BloodRequest struct {
	Ref
	HospitalID   string     `json:"hospitalId,omitempty"`
	HospitalName string     `json:"hospitalName,omitempty"`
	BloodGroup   BloodGroup `json:"bloodGroup"`
	Units        int        `json:"units"`
	Urgency      string     `json:"urgency,omitempty"`
	Status       Status     `json:"status"`
	Reason       string     `json:"reason,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// BloodRequestInput is the create payload for a blood request.
type BloodRequestInput struct {
	BloodGroup BloodGroup `json:"bloodGroup"`
	Units      int        `json:"units"`
	Urgency    string     `json:"urgency,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// Validate checks group and unit count.
func (r BloodRequestInput) Validate() error {
	if !r.BloodGroup.Valid() {
		return fmt.Errorf("invalid blood group %q", r.BloodGroup)
	}
	if r.Units <= 0 {
		return fmt.Errorf("units must be positive")
	}
	return nil
}

// StatusUpdate is the body of a PATCH .../status call.
type StatusUpdate struct {
	Status Status `json:"status"`
	Note   string `json:"note,omitempty"`
}
