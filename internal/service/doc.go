// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package service controls the managed game-server unit through systemd
// and keeps the evidence needed to tell a crash from a deliberate stop.
//
// SystemdController shells out to systemctl with bounded timeouts and maps
// failures onto the transient/fatal taxonomy. ActionJournal remembers the
// control actions this process issued; StopEvidence combines the journal
// with clean-shutdown markers from the server log tail to answer the
// recovery controller's "was this on purpose?" question.
package service
