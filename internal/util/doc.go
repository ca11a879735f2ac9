// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across bloodbridge.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync, used by the file
//     session store and config saving
//   - TruncateRunes, TruncateWidth: UTF-8 and display-width safe truncation
//     for table cells and chat previews
//   - SingleLine: newline folding for one-line rendering
//
// # Usage
//
//	err := util.AtomicWriteFileWithDir(path, data, 0600, 0700)
//	cell := util.TruncateWidth(hospital.Name, 32)
package util
