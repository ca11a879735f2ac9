// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jeranaias/bloodbridge-tui/internal/api"
	"github.com/jeranaias/bloodbridge-tui/internal/session"
)

// Process exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

var (
	errorBanner   = color.New(color.FgRed, color.Bold).SprintFunc()
	successBanner = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnBanner    = color.New(color.FgYellow).SprintFunc()
	labelStyle    = color.New(color.FgCyan).SprintFunc()
	mutedStyle    = color.New(color.Faint).SprintFunc()
)

// =============================================================================
// JSON OUTPUT
// =============================================================================

// JSONResponse is the envelope printed by every command under --json.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// =============================================================================
// HUMAN OUTPUT
// =============================================================================

// emit prints data as JSON under --json, otherwise calls human.
func (a *App) emit(cmd *cobra.Command, data any, human func(w io.Writer)) error {
	if a.jsonOutput {
		return NewJSONResponse(cmd.CommandPath(), data).Write(a.Out())
	}
	human(a.Out())
	return nil
}

// success prints a green confirmation line.
func (a *App) success(format string, args ...any) {
	fmt.Fprintf(a.Out(), "%s %s\n", successBanner("OK"), fmt.Sprintf(format, args...))
}

// warn prints a yellow notice on stderr.
func (a *App) warn(format string, args ...any) {
	fmt.Fprintf(a.Err(), "%s %s\n", warnBanner("Warning:"), fmt.Sprintf(format, args...))
}

// reportError prints err as a red banner on stderr, or as a JSON error
// envelope on stdout under --json.
func (a *App) reportError(root *cobra.Command, err error) {
	if a.jsonOutput {
		_ = NewJSONErrorResponse(root.Name(), err).Write(a.Out())
		return
	}
	fmt.Fprintf(a.Err(), "%s %s\n", errorBanner("Error:"), describeError(err))
}

// describeError adds a hint for errors the user can act on.
func describeError(err error) string {
	var (
		authErr  *session.AuthenticationError
		protoErr *session.ProtocolError
		apiErr   *api.Error
	)
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return err.Error() + " (run 'bloodbridge login')"
	case errors.As(err, &authErr), errors.As(err, &protoErr):
		return err.Error()
	case errors.As(err, &apiErr) && apiErr.IsUnauthorized():
		return apiErr.Message + " (your session may have expired, run 'bloodbridge login')"
	}
	return err.Error()
}

// newTable returns a table writer that renders to the command output.
func (a *App) newTable(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(a.Out())
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	return tw
}

// withSpinner runs fn behind a spinner on stderr. The spinner is skipped
// when stderr is not a terminal or JSON output is requested.
func (a *App) withSpinner(suffix string, fn func() error) error {
	if a.jsonOutput || !IsStderrTTY() || a.Err() != defaultStderr() {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.Err()))
	s.Suffix = " " + suffix
	s.Start()
	defer s.Stop()
	return fn()
}
