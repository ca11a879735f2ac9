// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: REST backend location, timeout and throttle
//   - AssistantConfig: Streaming chat request parameters
//   - StorageConfig: Session store driver selection
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (BLOODBRIDGE_*), including those set by .env
//   - ~/.bloodbridge/config.toml
//   - ~/.bloodbridge/config.json
//   - Built-in defaults
//
// # Usage
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := api.New(cfg.API.BaseURL, sess, api.WithTimeout(cfg.Timeout()))
package config
