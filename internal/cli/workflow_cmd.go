// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/util"
)

// lowStockUnits marks stock entries that need attention.
const lowStockUnits = 5

// =============================================================================
// STOCK
// =============================================================================

func newStockCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "View and adjust blood stock (hospital staff)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd.Context()); err != nil {
				return err
			}
			return app.requireRole(staffRoles...)
		},
	}

	var hospital string
	list := &cobra.Command{
		Use:   "list",
		Short: "Show units per blood group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if hospital == "" {
				hospital = app.Session.User().HospitalID
			}
			entries, err := app.API.ListStock(cmd.Context(), hospital)
			if err != nil {
				return err
			}
			sortStock(entries)
			return app.emit(cmd, entries, func(w io.Writer) {
				tw := app.newTable(table.Row{"Group", "Units", "Updated"})
				tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
				total := 0
				for _, e := range entries {
					units := fmt.Sprint(e.Units)
					if e.Units < lowStockUnits {
						units = warnBanner(units)
					}
					tw.AppendRow(table.Row{e.BloodGroup, units, formatDate(e.UpdatedAt)})
					total += e.Units
				}
				tw.AppendFooter(table.Row{"Total", total, ""})
				tw.Render()
			})
		},
	}
	list.Flags().StringVar(&hospital, "hospital", "", "hospital id (defaults to your own)")

	var (
		adj   model.StockAdjustment
		group string
	)
	adjust := &cobra.Command{
		Use:   "adjust",
		Short: "Record units received (positive) or issued (negative)",
		Example: `  bloodbridge stock adjust --group O- --units 4 --reason "drive intake"
  bloodbridge stock adjust --group AB+ --units -2 --reason "issued to ER"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := model.ParseBloodGroup(group)
			if err != nil {
				return err
			}
			adj.BloodGroup = g
			if adj.HospitalID == "" {
				adj.HospitalID = app.Session.User().HospitalID
			}
			entry, err := app.API.AdjustStock(cmd.Context(), adj)
			if err != nil {
				return err
			}
			return app.emit(cmd, entry, func(io.Writer) {
				app.success("%s stock is now %d unit(s)", entry.BloodGroup, entry.Units)
				if entry.Units < lowStockUnits {
					app.warn("%s stock is low", entry.BloodGroup)
				}
			})
		},
	}
	f := adjust.Flags()
	f.StringVar(&group, "group", "", "blood group (A+, O-, ...)")
	f.IntVar(&adj.Units, "units", 0, "units to add, negative to remove")
	f.StringVar(&adj.Reason, "reason", "", "ledger note")
	f.StringVar(&adj.HospitalID, "hospital", "", "hospital id (defaults to your own)")
	_ = adjust.MarkFlagRequired("group")
	_ = adjust.MarkFlagRequired("units")

	cmd.AddCommand(list, adjust)
	return cmd
}

// sortStock orders entries by the canonical blood group order.
func sortStock(entries []model.StockEntry) {
	rank := make(map[model.BloodGroup]int, len(model.BloodGroups))
	for i, g := range model.BloodGroups {
		rank[g] = i
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return rank[entries[i].BloodGroup] < rank[entries[j].BloodGroup]
	})
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

// statusCmd builds an "approve ID" style command.
func statusCmd(app *App, use string, status model.Status, run func(cmd *cobra.Command, id string, upd model.StatusUpdate) (string, any, error)) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   use + " ID",
		Short: fmt.Sprintf("Mark as %s (hospital staff)", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRole(staffRoles...); err != nil {
				return err
			}
			key, out, err := run(cmd, args[0], model.StatusUpdate{Status: status, Note: note})
			if err != nil {
				return err
			}
			return app.emit(cmd, out, func(io.Writer) {
				app.success("%s is now %s", key, status)
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note recorded with the change")
	return cmd
}

// =============================================================================
// APPOINTMENTS
// =============================================================================

func newAppointmentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appointment", "appt"},
		Short:   "Book and manage donation appointments",
	}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments visible to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRole(); err != nil {
				return err
			}
			opts, err := lf.options()
			if err != nil {
				return err
			}
			page, err := app.API.ListAppointments(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return app.emit(cmd, page, func(w io.Writer) {
				tw := app.newTable(table.Row{"ID", "Date", "Donor", "Hospital", "Status", "Notes"})
				for _, a := range page.Items {
					tw.AppendRow(table.Row{a.Key(), formatDate(a.Date), orDash(firstNonEmpty(a.DonorName, a.DonorID)),
						orDash(a.HospitalID), statusLabel(a.Status), util.TruncateWidth(util.SingleLine(a.Notes), 30)})
				}
				tw.Render()
				fmt.Fprintln(w, mutedStyle(pageFooter(page)))
			})
		},
	}
	lf.bind(list.Flags(), filterStatus|filterHospital|filterDonor)

	var (
		in   model.AppointmentInput
		date string
	)
	book := &cobra.Command{
		Use:   "book",
		Short: "Book a donation slot (donors)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRole(model.UserRoleDonor); err != nil {
				return err
			}
			t, err := parseDate(date)
			if err != nil {
				return err
			}
			in.Date = t
			a, err := app.API.BookAppointment(cmd.Context(), in)
			if err != nil {
				return err
			}
			return app.emit(cmd, a, func(io.Writer) {
				app.success("Booked %s for %s (%s)", a.Key(), formatDate(a.Date), a.Status)
			})
		},
	}
	bf := book.Flags()
	bf.StringVar(&in.HospitalID, "hospital", "", "hospital id")
	bf.StringVar(&in.CampaignID, "campaign", "", "campaign id")
	bf.StringVar(&date, "date", "", "slot (YYYY-MM-DD HH:MM)")
	bf.StringVar(&in.Notes, "notes", "", "notes for the hospital")
	_ = book.MarkFlagRequired("hospital")
	_ = book.MarkFlagRequired("date")

	setStatus := func(cmd *cobra.Command, id string, upd model.StatusUpdate) (string, any, error) {
		a, err := app.API.SetAppointmentStatus(cmd.Context(), id, upd)
		if err != nil {
			return "", nil, err
		}
		return "appointment " + firstNonEmpty(a.Key(), id), a, nil
	}

	cmd.AddCommand(list, book,
		statusCmd(app, "approve", model.StatusApproved, setStatus),
		statusCmd(app, "reject", model.StatusRejected, setStatus),
		statusCmd(app, "complete", model.StatusCompleted, setStatus),
	)
	return cmd
}

// =============================================================================
// BLOOD REQUESTS
// =============================================================================

func newRequestsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"request"},
		Short:   "File and review blood requests (hospital staff)",
	}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List blood requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRole(staffRoles...); err != nil {
				return err
			}
			opts, err := lf.options()
			if err != nil {
				return err
			}
			page, err := app.API.ListRequests(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return app.emit(cmd, page, func(w io.Writer) {
				tw := app.newTable(table.Row{"ID", "Hospital", "Group", "Units", "Urgency", "Status", "Created"})
				for _, r := range page.Items {
					tw.AppendRow(table.Row{r.Key(), orDash(firstNonEmpty(r.HospitalName, r.HospitalID)), r.BloodGroup,
						r.Units, orDash(r.Urgency), statusLabel(r.Status), formatDate(r.CreatedAt)})
				}
				tw.Render()
				fmt.Fprintln(w, mutedStyle(pageFooter(page)))
			})
		},
	}
	lf.bind(list.Flags(), filterStatus|filterHospital)

	var (
		in    model.BloodRequestInput
		group string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Request units of a blood group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRole(staffRoles...); err != nil {
				return err
			}
			g, err := model.ParseBloodGroup(group)
			if err != nil {
				return err
			}
			in.BloodGroup = g
			in.Urgency = strings.ToLower(in.Urgency)
			r, err := app.API.CreateRequest(cmd.Context(), in)
			if err != nil {
				return err
			}
			return app.emit(cmd, r, func(io.Writer) {
				app.success("Request %s filed for %d unit(s) of %s", r.Key(), r.Units, r.BloodGroup)
			})
		},
	}
	cf := create.Flags()
	cf.StringVar(&group, "group", "", "blood group (A+, O-, ...)")
	cf.IntVar(&in.Units, "units", 0, "units needed")
	cf.StringVar(&in.Urgency, "urgency", "", "urgency (low, normal, high, critical)")
	cf.StringVar(&in.Reason, "reason", "", "clinical reason")
	_ = create.MarkFlagRequired("group")
	_ = create.MarkFlagRequired("units")

	setStatus := func(cmd *cobra.Command, id string, upd model.StatusUpdate) (string, any, error) {
		r, err := app.API.SetRequestStatus(cmd.Context(), id, upd)
		if err != nil {
			return "", nil, err
		}
		return "request " + firstNonEmpty(r.Key(), id), r, nil
	}

	cmd.AddCommand(list, create,
		statusCmd(app, "approve", model.StatusApproved, setStatus),
		statusCmd(app, "reject", model.StatusRejected, setStatus),
	)
	return cmd
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusApproved, model.StatusCompleted:
		return successBanner(string(s))
	case model.StatusRejected, model.StatusCancelled:
		return errorBanner(string(s))
	case model.StatusPending:
		return warnBanner(string(s))
	}
	return orDash(string(s))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
