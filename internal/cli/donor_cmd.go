// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
)

func newDonorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donor",
		Short: "Register or manage a donor profile",
	}
	cmd.AddCommand(newDonorRegisterCmd(app), newDonorShowCmd(app), newDonorUpdateCmd(app))
	return cmd
}

func newDonorRegisterCmd(app *App) *cobra.Command {
	var (
		in            model.DonorRegistration
		group         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Sign up as a new donor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := model.ParseBloodGroup(group)
			if err != nil {
				return err
			}
			in.BloodGroup = g
			if in.Password, err = app.readPassword(passwordStdin); err != nil {
				return err
			}
			var d *model.Donor
			err = app.withSpinner("Registering...", func() error {
				var regErr error
				d, regErr = app.API.RegisterDonor(cmd.Context(), in)
				return regErr
			})
			if err != nil {
				return err
			}
			return app.emit(cmd, d, func(w io.Writer) {
				app.success("Registered %s (%s)", d.Name, d.BloodGroup)
				fmt.Fprintln(w, mutedStyle("Sign in with: bloodbridge login --email "+in.Email))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "full name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&group, "blood-group", "", "blood group (A+, O-, ...)")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringVar(&in.City, "city", "", "city")
	f.StringVar(&in.Gender, "gender", "", "gender")
	f.StringVar(&in.DateOfBirth, "dob", "", "date of birth (YYYY-MM-DD)")
	f.BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("blood-group")
	return cmd
}

// ownDonorID is the signed-in donor's record id.
func (a *App) ownDonorID() (string, error) {
	u := a.Session.User()
	if u.DonorID != "" {
		return u.DonorID, nil
	}
	if u.ID != "" {
		return u.ID, nil
	}
	return "", fmt.Errorf("session has no donor id: pass one explicitly")
}

func newDonorShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [ID]",
		Short: "Show a donor profile (your own by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRole(model.UserRoleDonor); err != nil {
				return err
			}
			id, err := argOr(args, app.ownDonorID)
			if err != nil {
				return err
			}
			d, err := app.API.GetDonor(cmd.Context(), id)
			if err != nil {
				return err
			}
			return app.emit(cmd, d, func(w io.Writer) { printDonor(w, d) })
		},
	}
}

func newDonorUpdateCmd(app *App) *cobra.Command {
	var (
		name, phone, city, address string
		available                  bool
	)
	cmd := &cobra.Command{
		Use:   "update [ID]",
		Short: "Edit a donor profile (your own by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireRole(model.UserRoleDonor); err != nil {
				return err
			}
			id, err := argOr(args, app.ownDonorID)
			if err != nil {
				return err
			}

			var upd model.DonorUpdate
			f := cmd.Flags()
			if f.Changed("name") {
				upd.Name = &name
			}
			if f.Changed("phone") {
				upd.Phone = &phone
			}
			if f.Changed("city") {
				upd.City = &city
			}
			if f.Changed("address") {
				upd.Address = &address
			}
			if f.Changed("available") {
				upd.Available = &available
			}
			if upd == (model.DonorUpdate{}) {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			d, err := app.API.UpdateDonor(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			return app.emit(cmd, d, func(w io.Writer) {
				app.success("Profile updated")
				printDonor(w, d)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "full name")
	f.StringVar(&phone, "phone", "", "phone number")
	f.StringVar(&city, "city", "", "city")
	f.StringVar(&address, "address", "", "street address")
	f.BoolVar(&available, "available", true, "available to donate")
	return cmd
}

func printDonor(w io.Writer, d *model.Donor) {
	avail := "no"
	if d.Available {
		avail = "yes"
	}
	rows := [][2]string{
		{"ID", d.Key()},
		{"Name", d.Name},
		{"Email", d.Email},
		{"Blood group", string(d.BloodGroup)},
		{"Phone", orDash(d.Phone)},
		{"City", orDash(d.City)},
		{"Last donation", orDash(d.LastDonationDate)},
		{"Available", avail},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s %s\n", labelStyle(r[0]+":"), r[1])
	}
}

// argOr returns args[0], or fallback() when no argument was given.
func argOr(args []string, fallback func() (string, error)) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	return fallback()
}
