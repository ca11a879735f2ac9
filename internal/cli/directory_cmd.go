// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/util"
)

// =============================================================================
// HOSPITALS
// =============================================================================

func newHospitalsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hospitals",
		Aliases: []string{"hospital"},
		Short:   "Browse the hospital directory",
	}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "Search hospitals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := lf.options()
			if err != nil {
				return err
			}
			var page *model.Page[model.Hospital]
			err = app.withSpinner("Loading hospitals...", func() error {
				var listErr error
				page, listErr = app.API.ListHospitals(cmd.Context(), opts)
				return listErr
			})
			if err != nil {
				return err
			}
			return app.emit(cmd, page, func(w io.Writer) {
				tw := app.newTable(table.Row{"ID", "Name", "City", "Phone", "Groups"})
				for _, h := range page.Items {
					tw.AppendRow(table.Row{h.Key(), h.Name, orDash(h.City), orDash(h.Phone), groupList(h.BloodGroups)})
				}
				tw.Render()
				fmt.Fprintln(w, mutedStyle(pageFooter(page)))
			})
		},
	}
	lf.bind(list.Flags(), filterSearch|filterCity|filterBloodGroup)

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one hospital",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.API.GetHospital(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.emit(cmd, h, func(w io.Writer) {
				for _, r := range [][2]string{
					{"ID", h.Key()},
					{"Name", h.Name},
					{"City", orDash(h.City)},
					{"Address", orDash(h.Address)},
					{"Phone", orDash(h.Phone)},
					{"Email", orDash(h.Email)},
					{"Blood groups", groupList(h.BloodGroups)},
				} {
					fmt.Fprintf(w, "%s %s\n", labelStyle(r[0]+":"), r[1])
				}
			})
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func groupList(groups []model.BloodGroup) string {
	if len(groups) == 0 {
		return "-"
	}
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = string(g)
	}
	return strings.Join(names, " ")
}

// =============================================================================
// CAMPAIGNS
// =============================================================================

// campaignFlags binds the create/update fields of a campaign.
type campaignFlags struct {
	title, description, city, location string
	start, end, status                 string
	target                             int
}

func (f *campaignFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "", "campaign title")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.city, "city", "", "city")
	fs.StringVar(&f.location, "location", "", "venue")
	fs.StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "end date (YYYY-MM-DD)")
	fs.StringVar(&f.status, "status", "", "status (e.g. upcoming, active, completed)")
	fs.IntVar(&f.target, "target", 0, "target units")
}

// apply writes the changed flags over in.
func (f *campaignFlags) apply(cmd *cobra.Command, in *model.CampaignInput) error {
	fs := cmd.Flags()
	if fs.Changed("title") {
		in.Title = f.title
	}
	if fs.Changed("description") {
		in.Description = f.description
	}
	if fs.Changed("city") {
		in.City = f.city
	}
	if fs.Changed("location") {
		in.Location = f.location
	}
	if fs.Changed("status") {
		in.Status = strings.ToLower(f.status)
	}
	if fs.Changed("target") {
		in.TargetUnits = f.target
	}
	if fs.Changed("start") {
		t, err := parseDate(f.start)
		if err != nil {
			return err
		}
		in.StartDate = t
	}
	if fs.Changed("end") {
		t, err := parseDate(f.end)
		if err != nil {
			return err
		}
		in.EndDate = t
	}
	return nil
}

func campaignInputFrom(c *model.Campaign) model.CampaignInput {
	return model.CampaignInput{
		Title:       c.Title,
		Description: c.Description,
		City:        c.City,
		Location:    c.Location,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Status:      c.Status,
		TargetUnits: c.TargetUnits,
	}
}

func newCampaignsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "campaigns",
		Aliases: []string{"campaign"},
		Short:   "Browse and manage donation campaigns",
	}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List campaigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := lf.options()
			if err != nil {
				return err
			}
			page, err := app.API.ListCampaigns(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return app.emit(cmd, page, func(w io.Writer) {
				tw := app.newTable(table.Row{"ID", "Title", "City", "Start", "End", "Status"})
				for _, c := range page.Items {
					tw.AppendRow(table.Row{c.Key(), util.TruncateWidth(c.Title, 40), orDash(c.City),
						formatDate(c.StartDate), formatDate(c.EndDate), orDash(c.Status)})
				}
				tw.Render()
				fmt.Fprintln(w, mutedStyle(pageFooter(page)))
			})
		},
	}
	lf.bind(list.Flags(), filterSearch|filterCity|filterStatus|filterHospital)

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.API.GetCampaign(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.emit(cmd, c, func(w io.Writer) { printCampaign(w, c) })
		},
	}

	var createFlags campaignFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Schedule a campaign (hospital staff)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRole(staffRoles...); err != nil {
				return err
			}
			var in model.CampaignInput
			if err := createFlags.apply(cmd, &in); err != nil {
				return err
			}
			c, err := app.API.CreateCampaign(cmd.Context(), in)
			if err != nil {
				return err
			}
			return app.emit(cmd, c, func(w io.Writer) {
				app.success("Created campaign %s", c.Key())
				printCampaign(w, c)
			})
		},
	}
	createFlags.bind(create)
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("start")

	var updateFlags campaignFlags
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a campaign (hospital staff)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRole(staffRoles...); err != nil {
				return err
			}
			current, err := app.API.GetCampaign(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			in := campaignInputFrom(current)
			if err := updateFlags.apply(cmd, &in); err != nil {
				return err
			}
			c, err := app.API.UpdateCampaign(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return app.emit(cmd, c, func(w io.Writer) {
				app.success("Updated campaign %s", c.Key())
				printCampaign(w, c)
			})
		},
	}
	updateFlags.bind(update)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a campaign (hospital staff)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRole(staffRoles...); err != nil {
				return err
			}
			if err := app.API.DeleteCampaign(cmd.Context(), args[0]); err != nil {
				return err
			}
			return app.emit(cmd, map[string]string{"deleted": args[0]}, func(io.Writer) {
				app.success("Deleted campaign %s", args[0])
			})
		},
	}

	cmd.AddCommand(list, show, create, update, del)
	return cmd
}

func printCampaign(w io.Writer, c *model.Campaign) {
	for _, r := range [][2]string{
		{"ID", c.Key()},
		{"Title", c.Title},
		{"Hospital", orDash(c.HospitalName)},
		{"City", orDash(c.City)},
		{"Location", orDash(c.Location)},
		{"Start", formatDate(c.StartDate)},
		{"End", formatDate(c.EndDate)},
		{"Status", orDash(c.Status)},
	} {
		fmt.Fprintf(w, "%s %s\n", labelStyle(r[0]+":"), r[1])
	}
	if c.TargetUnits > 0 {
		fmt.Fprintf(w, "%s %d\n", labelStyle("Target units:"), c.TargetUnits)
	}
	if c.Description != "" {
		fmt.Fprintf(w, "\n%s\n", c.Description)
	}
}
