// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package orchestrator is the control loop that reconciles three
// timelines every tick: what the server log says the lifecycle state is,
// what operators have asked to happen, and the fixed maintenance windows
// (clock-time restarts, backups, update checks).
//
// One goroutine owns all lifecycle state and runs a fixed step order per
// tick: refresh the running flag, fold log evidence, admit commands,
// fire scheduled warnings and executions, drive the periodic restart,
// then crash recovery and background maintenance only if no action was
// already taken this tick. That single actionTaken flag is the whole
// concurrency story: the managed service is never hit by two conflicting
// operations in one tick, and external calls are synchronous with
// bounded timeouts so overlap across ticks cannot happen either.
//
// Other goroutines interact through two safe surfaces only: the command
// queue (writes) and Report (reads, a snapshot rebuilt at the end of
// each tick).
package orchestrator
