// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStderrTTY returns true if stderr is a terminal.
func IsStderrTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func defaultStderr() io.Writer {
	return os.Stderr
}

// ColorsEnabled reports whether colored output should be used. NO_COLOR
// wins, FORCE_COLOR overrides TTY detection.
func ColorsEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return IsStdoutTTY()
}

// =============================================================================
// INTERACTIVE INPUT
// =============================================================================

// interactive reports whether the app reads from a real terminal.
func (a *App) interactive() bool {
	f, ok := a.In().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readLine reads one line from the app's input, without the newline.
func (a *App) readLine(prompt string) (string, error) {
	if prompt != "" && a.interactive() {
		fmt.Fprint(a.Err(), prompt)
	}
	if a.reader == nil {
		a.reader = bufio.NewReader(a.In())
	}
	line, err := a.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads a secret. With fromStdin it takes the first line of
// input; otherwise it prompts on the terminal with echo disabled.
func (a *App) readPassword(fromStdin bool) (string, error) {
	if fromStdin {
		pw, err := a.readLine("")
		if err != nil {
			return "", err
		}
		return pw, nil
	}
	if !a.interactive() {
		return "", fmt.Errorf("no terminal for password prompt: pipe it with --password-stdin")
	}
	fmt.Fprint(a.Err(), "Password: ")
	f := a.In().(*os.File)
	pw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.Err())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
