// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the bloodbridge command line on cobra.

	bloodbridge [--config PATH] [--api-base URL] [--json] [--debug] <command>

	login [--email E] [--password-stdin]   sign in; prints role and home view
	logout                                 forget the stored session
	whoami                                 show the signed-in user
	chat [--plain]                         full-screen chat, or a line prompt
	donor register|show|update             donor profile
	hospitals list|show                    hospital directory
	campaigns list|show|create|update|delete
	stock list|adjust                      blood stock ledger (staff)
	appointments list|book|approve|reject|complete
	requests list|create|approve|reject    blood requests (staff)
	version

The root pre-run hook assembles the runtime (config, zap logger, session
store, session and REST client) once flags are parsed. Management commands
are guarded for the hospital and admin roles; donor profile commands and
booking for the donor role.

Tables are rendered with go-pretty, progress with a spinner on stderr and
status lines with fatih/color. --json replaces all human output with a
JSONResponse envelope on stdout, including errors.
*/
package cli
