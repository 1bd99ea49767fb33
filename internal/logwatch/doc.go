// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package logwatch turns the managed server's log stream into typed
// lifecycle events.
//
// It has two halves: Follower incrementally reads complete lines appended
// to the log file (tolerating rotation and mid-write partial lines), and
// Parser recognizes lifecycle markers and periodic global-stats lines in
// those lines, producing LogEvent values for the status machine. Both are
// leaf components with no dependencies on the rest of ServKeep.
package logwatch
