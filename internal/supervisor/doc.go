// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package supervisor builds the suture supervision tree that keeps the
// orchestration loop and the admin API running. The loop already guards
// its ticks against panics; supervision is the second line of defense,
// restarting a service whose Serve returns or panics outright.
package supervisor
