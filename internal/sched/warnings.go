// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package sched

import (
	"sort"
	"time"
)

// warningWindow bounds how far past a threshold a late tick may still fire
// its warning. Together with the sent-set this guarantees each threshold
// fires at most once: a slow tick cannot skip past a window it is still
// inside, and a fast tick cannot re-enter one already consumed.
const warningWindow = 2 * time.Minute

// WarningLadder fires a notification once at each of several remaining-time
// thresholds before a scheduled moment. Both the admin-scheduled actions
// and the fixed-time restart schedule reuse it; only the threshold sets
// differ.
type WarningLadder struct {
	thresholds []time.Duration // descending
	sent       map[time.Duration]bool
}

// NewWarningLadder creates a ladder for the given thresholds.
func NewWarningLadder(thresholds ...time.Duration) *WarningLadder {
	sorted := append([]time.Duration(nil), thresholds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	return &WarningLadder{
		thresholds: sorted,
		sent:       make(map[time.Duration]bool, len(sorted)),
	}
}

// Due returns the thresholds whose warning should fire now, given the time
// remaining until the scheduled moment, and marks them fired. A threshold
// is due when remaining <= threshold and remaining > threshold - 2m and it
// has not fired before.
func (l *WarningLadder) Due(remaining time.Duration) []time.Duration {
	var due []time.Duration
	for _, th := range l.thresholds {
		if l.sent[th] {
			continue
		}
		if remaining <= th && remaining > th-warningWindow {
			l.sent[th] = true
			due = append(due, th)
		}
	}
	return due
}

// Reset clears all fired flags, for reuse against the next occurrence.
func (l *WarningLadder) Reset() {
	for th := range l.sent {
		delete(l.sent, th)
	}
}

// Thresholds returns the ladder's threshold set, descending.
func (l *WarningLadder) Thresholds() []time.Duration {
	return append([]time.Duration(nil), l.thresholds...)
}

// ThresholdsForDelay selects the warning tiers for an admin-scheduled
// action from its ORIGINAL requested delay, not the remaining time. Short
// delays drop the tiers that would be unreachable or would only repeat
// what the command confirmation already said.
func ThresholdsForDelay(delay time.Duration) []time.Duration {
	switch {
	case delay > 14*time.Minute:
		return []time.Duration{10 * time.Minute, 5 * time.Minute, time.Minute}
	case delay > 5*time.Minute:
		return []time.Duration{5 * time.Minute, time.Minute}
	default:
		return []time.Duration{time.Minute}
	}
}

// periodicThresholds is the fixed tier set for the clock-time restart
// schedule. The effective delay there is always the full interval to the
// next occurrence, so all three tiers always apply.
var periodicThresholds = []time.Duration{15 * time.Minute, 5 * time.Minute, time.Minute}
