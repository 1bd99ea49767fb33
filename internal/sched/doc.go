// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package sched holds the two scheduling engines of ServKeep and the tiered
// warning timer they share.
//
// Registry tracks admin-scheduled delayed actions (restart, stop, update),
// at most one live instance per kind, with warning tiers derived from each
// action's original requested delay. PeriodicScheduler drives the fixed
// clock-time restart schedule with a constant 15/5/1-minute ladder and a
// one-shot skip flag. Both are passive: the orchestration loop calls Tick
// and performs the returned side effects.
package sched
