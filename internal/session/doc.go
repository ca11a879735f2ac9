// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// # Lifecycle
//
// A Manager starts anonymous. Initialize rehydrates auth_token, auth_role
// and auth_user from the store; Login replaces them as one group write;
// Logout deletes them as one group.
//
// # Requests
//
// Every authenticated call goes through Do, which attaches the bearer
// token and JSON content type. Do never retries and a 401 does not end the
// session.
//
// # Usage
//
//	sess := session.New(cfg.API.BaseURL, store, session.WithLogger(logger))
//	if err := sess.Initialize(ctx); err != nil {
//	    return err
//	}
//	res, err := sess.Login(ctx, email, password)
//	fmt.Println(session.RedirectTarget(res.Role))
package session
