// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package status maintains the canonical lifecycle status of the managed
// game server.
//
// The Machine folds parsed log events into a single ServerStatus under a
// monotonic-regression rule: evidence of a lower lifecycle phase than the
// highest already reached is ignored as stale, unless it is a hard
// shutdown/offline override. The package also classifies performance
// samples against configured FPS bands.
package status
