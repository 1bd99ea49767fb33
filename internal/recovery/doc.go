// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package recovery restarts the managed service after crashes, bounded by
// a cooldown and an attempt cap, and stands down when the stop looks
// deliberate.
package recovery
