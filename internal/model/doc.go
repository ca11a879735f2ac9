// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the session, the
// chat assistant and the REST client.
//
// # Key Types
//
//   - Message, Role: chat turns exchanged with the assistant
//   - User, UserRole: the identity persisted with a session
//   - Donor, Hospital, Campaign, StockEntry, Appointment, BloodRequest
//   - Page: a list response, either a bare array or a paginated envelope
//   - BloodGroup, Status: validated enumerations
package model
