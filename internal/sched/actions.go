// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package sched

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ActionKind identifies a delayed admin action.
type ActionKind string

// Admin action kinds. The registry holds at most one live action per kind.
const (
	ActionRestart ActionKind = "restart"
	ActionStop    ActionKind = "stop"
	ActionUpdate  ActionKind = "update"
)

// ValidActionKind reports whether s names a schedulable action.
func ValidActionKind(s string) bool {
	switch ActionKind(s) {
	case ActionRestart, ActionStop, ActionUpdate:
		return true
	default:
		return false
	}
}

// ScheduledAction is a pending delayed action with its own tiered warning
// schedule keyed to the original requested delay.
type ScheduledAction struct {
	ID          uuid.UUID
	Kind        ActionKind
	RequestedBy string
	CreatedAt   time.Time
	ScheduledAt time.Time

	ladder *WarningLadder
}

// Remaining returns the time left until execution; negative once overdue.
func (a *ScheduledAction) Remaining(now time.Time) time.Duration {
	return a.ScheduledAt.Sub(now)
}

// Delay returns the original requested delay.
func (a *ScheduledAction) Delay() time.Duration {
	return a.ScheduledAt.Sub(a.CreatedAt)
}

// Warning pairs a pending action with a warning threshold that just became
// due.
type Warning struct {
	Action    *ScheduledAction
	Threshold time.Duration
}

// Registry holds the pending delayed actions, at most one per kind.
type Registry struct {
	actions map[ActionKind]*ScheduledAction
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[ActionKind]*ScheduledAction)}
}

// Schedule registers a delayed action. A new request of the same kind
// replaces the previous instance and resets its warning flags.
func (r *Registry) Schedule(kind ActionKind, delay time.Duration, requestedBy string, now time.Time) *ScheduledAction {
	if delay < 0 {
		delay = 0
	}
	action := &ScheduledAction{
		ID:          uuid.New(),
		Kind:        kind,
		RequestedBy: requestedBy,
		CreatedAt:   now,
		ScheduledAt: now.Add(delay),
		ladder:      NewWarningLadder(ThresholdsForDelay(delay)...),
	}
	r.actions[kind] = action
	return action
}

// Cancel removes the pending action of the given kind, returning it, or nil
// when none was pending.
func (r *Registry) Cancel(kind ActionKind) *ScheduledAction {
	action, ok := r.actions[kind]
	if !ok {
		return nil
	}
	delete(r.actions, kind)
	return action
}

// Get returns the pending action of the given kind, or nil.
func (r *Registry) Get(kind ActionKind) *ScheduledAction {
	return r.actions[kind]
}

// Pending returns the pending actions ordered by execution time.
func (r *Registry) Pending() []*ScheduledAction {
	out := make([]*ScheduledAction, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

// NextDeadline returns the earliest pending execution time and whether one
// exists.
func (r *Registry) NextDeadline() (time.Time, bool) {
	var best time.Time
	for _, a := range r.actions {
		if best.IsZero() || a.ScheduledAt.Before(best) {
			best = a.ScheduledAt
		}
	}
	return best, !best.IsZero()
}

// Tick evaluates all pending actions at now. It returns the warnings due
// to fire and the actions due to execute; executed actions are removed from
// the registry here, regardless of whether the caller's execution later
// succeeds (failures are reported, never retried at the same instant).
func (r *Registry) Tick(now time.Time) (warnings []Warning, due []*ScheduledAction) {
	for _, action := range r.Pending() {
		if !now.Before(action.ScheduledAt) {
			due = append(due, action)
			delete(r.actions, action.Kind)
			continue
		}
		for _, th := range action.ladder.Due(action.Remaining(now)) {
			warnings = append(warnings, Warning{Action: action, Threshold: th})
		}
	}
	return warnings, due
}
