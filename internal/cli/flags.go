// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/jeranaias/bloodbridge-tui/internal/api"
	"github.com/jeranaias/bloodbridge-tui/internal/model"
)

// listFlags binds the pagination and filter flags of list commands.
type listFlags struct {
	page       int
	limit      int
	search     string
	city       string
	bloodGroup string
	status     string
	hospital   string
	donor      string
}

// Filter flag sets.
const (
	filterSearch = 1 << iota
	filterCity
	filterBloodGroup
	filterStatus
	filterHospital
	filterDonor
)

func (f *listFlags) bind(fs *pflag.FlagSet, filters int) {
	fs.IntVar(&f.page, "page", 0, "page number (1-based)")
	fs.IntVar(&f.limit, "limit", 0, "items per page")
	if filters&filterSearch != 0 {
		fs.StringVar(&f.search, "search", "", "free-text search")
	}
	if filters&filterCity != 0 {
		fs.StringVar(&f.city, "city", "", "filter by city")
	}
	if filters&filterBloodGroup != 0 {
		fs.StringVar(&f.bloodGroup, "blood-group", "", "filter by blood group (A+, O-, ...)")
	}
	if filters&filterStatus != 0 {
		fs.StringVar(&f.status, "status", "", "filter by status")
	}
	if filters&filterHospital != 0 {
		fs.StringVar(&f.hospital, "hospital", "", "filter by hospital id")
	}
	if filters&filterDonor != 0 {
		fs.StringVar(&f.donor, "donor", "", "filter by donor id")
	}
}

func (f *listFlags) options() (api.ListOptions, error) {
	if f.page < 0 || f.limit < 0 {
		return api.ListOptions{}, fmt.Errorf("page and limit cannot be negative")
	}
	opts := api.ListOptions{
		Page:       f.page,
		Limit:      f.limit,
		Search:     f.search,
		City:       f.city,
		Status:     f.status,
		HospitalID: f.hospital,
		DonorID:    f.donor,
	}
	if f.bloodGroup != "" {
		g, err := model.ParseBloodGroup(f.bloodGroup)
		if err != nil {
			return api.ListOptions{}, err
		}
		opts.BloodGroup = g
	}
	return opts, nil
}

// parseDate accepts YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or YYYY-MM-DD HH:MM", s)
}

// formatDate renders t for tables; the zero time prints as "-".
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Local().Format("2006-01-02 15:04")
}

// pageFooter describes the position within a paged listing.
func pageFooter[T any](p *model.Page[T]) string {
	if p.Page == 0 {
		return fmt.Sprintf("%d item(s)", len(p.Items))
	}
	s := fmt.Sprintf("page %d, %d of %d item(s)", p.Page, len(p.Items), p.Total)
	if p.HasMore() {
		s += fmt.Sprintf(", next: --page %d", p.Page+1)
	}
	return s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
