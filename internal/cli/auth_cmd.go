// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/session"
)

// staffRoles may use the management commands.
var staffRoles = []model.UserRole{model.UserRoleHospital, model.UserRoleAdmin}

// requireRole rejects the command unless the session holds one of roles.
// With no roles any signed-in user passes.
func (a *App) requireRole(roles ...model.UserRole) error {
	if err := a.Session.Guard(roles...); err != nil {
		if len(roles) > 0 && errors.Is(err, session.ErrForbidden) {
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			return fmt.Errorf("%w: requires role %s, signed in as %s",
				session.ErrForbidden, strings.Join(names, " or "), a.Session.Role())
		}
		return err
	}
	return nil
}

// =============================================================================
// LOGIN
// =============================================================================

type loginOutput struct {
	Role     model.UserRole `json:"role"`
	User     model.User     `json:"user"`
	Redirect string         `json:"redirect"`
}

func newLoginCmd(app *App) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Example: `  bloodbridge login --email staff@cityhospital.org
  echo "$PASSWORD" | bloodbridge login --email donor@example.com --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				var err error
				if email, err = app.readLine("Email: "); err != nil {
					return err
				}
			}
			email = strings.TrimSpace(email)
			if email == "" {
				return fmt.Errorf("email is required")
			}
			password, err := app.readPassword(passwordStdin)
			if err != nil {
				return err
			}

			var res *session.LoginResult
			err = app.withSpinner("Signing in...", func() error {
				var loginErr error
				res, loginErr = app.Session.Login(cmd.Context(), email, password)
				return loginErr
			})
			if err != nil {
				return err
			}

			out := loginOutput{Role: res.Role, User: res.User, Redirect: session.RedirectTarget(res.Role)}
			return app.emit(cmd, out, func(w io.Writer) {
				app.success("Signed in as %s", res.User.DisplayName())
				fmt.Fprintf(w, "%s %s\n", labelStyle("Role:"), res.Role)
				fmt.Fprintf(w, "%s %s\n", labelStyle("Home:"), out.Redirect)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when omitted)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

// =============================================================================
// LOGOUT / WHOAMI
// =============================================================================

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wasSignedIn := app.Session.Authenticated()
			if err := app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			return app.emit(cmd, map[string]bool{"signed_out": wasSignedIn}, func(w io.Writer) {
				if wasSignedIn {
					app.success("Signed out")
				} else {
					fmt.Fprintln(w, mutedStyle("Not signed in"))
				}
			})
		},
	}
}

type whoamiOutput struct {
	Authenticated bool           `json:"authenticated"`
	Role          model.UserRole `json:"role,omitempty"`
	User          *model.User    `json:"user,omitempty"`
	Redirect      string         `json:"redirect,omitempty"`
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := app.Session.State()
			out := whoamiOutput{Authenticated: st.Authenticated()}
			if out.Authenticated {
				out.Role = st.Role
				out.Redirect = session.RedirectTarget(st.Role)
				if !st.User.IsZero() {
					u := st.User
					out.User = &u
				}
			}
			return app.emit(cmd, out, func(w io.Writer) {
				if !out.Authenticated {
					fmt.Fprintln(w, mutedStyle("Not signed in"))
					return
				}
				fmt.Fprintf(w, "%s %s\n", labelStyle("User:"), st.User.DisplayName())
				if st.User.Email != "" {
					fmt.Fprintf(w, "%s %s\n", labelStyle("Email:"), st.User.Email)
				}
				fmt.Fprintf(w, "%s %s\n", labelStyle("Role:"), st.Role)
				if st.User.HospitalID != "" {
					fmt.Fprintf(w, "%s %s\n", labelStyle("Hospital:"), st.User.HospitalID)
				}
				if st.User.DonorID != "" {
					fmt.Fprintf(w, "%s %s\n", labelStyle("Donor:"), st.User.DonorID)
				}
				fmt.Fprintf(w, "%s %s\n", labelStyle("Home:"), out.Redirect)
			})
		},
	}
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No runtime is needed to print the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.jsonOutput {
				return NewJSONResponse(cmd.CommandPath(), map[string]string{"version": app.opts.Version}).Write(app.Out())
			}
			fmt.Fprintf(app.Out(), "bloodbridge %s\n", app.opts.Version)
			return nil
		},
	}
}
