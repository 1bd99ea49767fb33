// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package status

import (
	"time"

	"github.com/servkeep/servkeep/internal/logwatch"
)

// startupGrace is the window after Machine creation during which a first
// became-Online transition is not announced when the server was already
// running before the orchestrator started. Without it, every orchestrator
// restart would spam a spurious "server is online" notification.
const startupGrace = 2 * time.Minute

// Transition describes the outcome of folding one event into the status.
type Transition struct {
	Previous ServerStatus
	Current  ServerStatus

	// Changed reports whether the status kind changed.
	Changed bool

	// Announce reports whether the change warrants a notification. It is
	// false for unchanged kinds and for the first-run reconciliation grace
	// case.
	Announce bool
}

// Machine maintains the canonical server status from parsed log events.
//
// Acceptance rule: a candidate kind is applied only if its priority is at
// least that of the highest kind reached so far, or if it is a hard
// override (ShuttingDown, Offline). This makes the status immune to stale
// and out-of-order log evidence while still letting a shutdown marker win
// immediately.
type Machine struct {
	status ServerStatus
	bands  Thresholds
	parser *logwatch.Parser

	createdAt         time.Time
	wasRunningAtStart bool
	onlineAnnounced   bool

	now func() time.Time
}

// NewMachine creates a status machine. The high-water mark starts at
// Unknown; it resets only when the orchestrator process itself restarts and
// builds a fresh Machine.
func NewMachine(bands Thresholds, parser *logwatch.Parser) *Machine {
	return newMachine(bands, parser, time.Now)
}

// newMachine is the clock-injectable constructor used by tests.
func newMachine(bands Thresholds, parser *logwatch.Parser, now func() time.Time) *Machine {
	ts := now()
	return &Machine{
		status: ServerStatus{
			Kind:               logwatch.KindUnknown,
			Phase:              "Unknown",
			Message:            "No lifecycle evidence yet",
			LastActivityAt:     ts,
			HighestKindReached: logwatch.KindUnknown,
			PerformanceRating:  RatingUnknown,
		},
		bands:     bands,
		parser:    parser,
		createdAt: ts,
		now:       now,
	}
}

// Status returns a copy of the current server status.
func (m *Machine) Status() ServerStatus {
	return m.status
}

// Apply folds a parsed event into the status and reports the transition.
// Nil events (unrecognized lines) are a no-op.
func (m *Machine) Apply(ev *logwatch.LogEvent) Transition {
	if ev == nil {
		return Transition{Previous: m.status, Current: m.status}
	}

	prev := m.status
	if !m.accepts(ev.Kind) {
		return Transition{Previous: prev, Current: m.status}
	}
	m.fold(ev)

	changed := m.status.Kind != prev.Kind
	return Transition{
		Previous: prev,
		Current:  m.status,
		Changed:  changed,
		Announce: changed && !m.suppressFirstOnline(m.status.Kind),
	}
}

// Reconcile seeds the status once at orchestrator startup from the recent
// log tail and the controller's live running flag.
//
// If the controller reports the process is not running, the status is
// forced to Offline regardless of log content: stale logs must never claim
// "online" for a process that is confirmed dead. Otherwise the tail is
// folded in silently, and the first became-Online announcement is
// suppressed within the startup grace window.
func (m *Machine) Reconcile(recentLogTail []string, controllerIsRunning bool) {
	if !controllerIsRunning {
		m.status.Kind = logwatch.KindOffline
		m.status.Phase, m.status.Message = phaseText(logwatch.KindOffline, nil)
		m.status.IsOnline = false
		m.status.Performance = nil
		m.status.PerformanceRating = RatingUnknown
		m.status.PlayerCount = 0
		m.status.HighestKindReached = logwatch.KindOffline
		return
	}

	m.wasRunningAtStart = true
	for _, line := range recentLogTail {
		if ev := m.parser.Parse(line); ev != nil && m.accepts(ev.Kind) {
			m.fold(ev)
		}
	}
}

// accepts applies the monotonic-regression rule.
func (m *Machine) accepts(kind logwatch.Kind) bool {
	if kind.IsOverride() {
		return true
	}
	return kind.Priority() >= m.status.HighestKindReached.Priority()
}

// fold applies an accepted event to the status.
func (m *Machine) fold(ev *logwatch.LogEvent) {
	m.status.Kind = ev.Kind
	m.status.Phase, m.status.Message = phaseText(ev.Kind, ev.Performance)
	m.status.LastActivityAt = ev.Timestamp
	m.status.IsOnline = ev.Kind == logwatch.KindOnline

	if ev.Kind == logwatch.KindOnline {
		if ev.Performance != nil {
			m.status.Performance = ev.Performance
			m.status.PerformanceRating = m.bands.Rate(ev.Performance.AvgFPS)
			m.status.PlayerCount = ev.Performance.PlayerCount
		}
	} else {
		m.status.Performance = nil
		m.status.PerformanceRating = RatingUnknown
		if ev.Kind.IsOverride() {
			m.status.PlayerCount = 0
		}
	}

	// Overrides regress the kind without lowering the high-water mark.
	if !ev.Kind.IsOverride() &&
		ev.Kind.Priority() > m.status.HighestKindReached.Priority() {
		m.status.HighestKindReached = ev.Kind
	}
}

// suppressFirstOnline reports whether a became-Online announcement is the
// noisy first-run reconciliation case: the server was already running
// before the orchestrator started, and we are still inside the startup
// grace window.
func (m *Machine) suppressFirstOnline(kind logwatch.Kind) bool {
	if kind != logwatch.KindOnline {
		return false
	}
	if m.onlineAnnounced {
		return false
	}
	m.onlineAnnounced = true
	return m.wasRunningAtStart && m.now().Sub(m.createdAt) < startupGrace
}
