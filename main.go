// bloodbridge - terminal client for the blood-donation platform.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/bloodbridge-tui/internal/cli"
	"github.com/jeranaias/bloodbridge-tui/internal/config"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	// .env in the working directory, then ~/.bloodbridge/.env. Variables
	// already set in the environment win.
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	version := Version
	if GitCommit != "unknown" {
		version += " (" + GitCommit + ")"
	}
	code := cli.Execute(ctx, os.Args[1:], cli.Options{Version: version})
	stop()
	os.Exit(code)
}
