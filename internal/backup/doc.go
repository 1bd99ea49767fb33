// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package backup archives the game-server profile directory into
// timestamped tar (optionally gzip) files and prunes old archives down to
// the configured retention count.
package backup
