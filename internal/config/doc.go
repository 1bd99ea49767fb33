// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package config loads and validates ServKeep configuration via Koanf v2.
//
// Configuration is layered, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. YAML config file (servkeep.yaml, or SERVKEEP_CONFIG)
//  3. SERVKEEP_* environment variables
//
// The surface covers the managed service identity, the fixed restart
// schedule, backup/update cadence, crash-recovery bounds, FPS performance
// bands, loop cadence, and the ambient notifier/API/logging settings.
package config
