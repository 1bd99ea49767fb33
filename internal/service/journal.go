// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package service

import (
	"sync"
	"time"
)

// journalCap bounds the in-memory action history.
const journalCap = 128

// ActionRecord is one control action the orchestrator issued.
type ActionRecord struct {
	Op     string    `json:"op"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// ActionJournal remembers the control actions this process issued against
// the managed service. It is the first evidence source for the
// intentional-stop assessment: a stop we sent ourselves is intentional by
// definition.
type ActionJournal struct {
	mu      sync.Mutex
	records []ActionRecord
	now     func() time.Time
}

// NewActionJournal creates an empty journal.
func NewActionJournal() *ActionJournal {
	return &ActionJournal{now: time.Now}
}

// Record appends an action to the journal.
func (j *ActionJournal) Record(op, reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, ActionRecord{Op: op, Reason: reason, At: j.now()})
	if len(j.records) > journalCap {
		j.records = j.records[len(j.records)-journalCap:]
	}
}

// StopIssuedWithin reports whether a stop action was issued within the
// given window before now. Restarts do not count; they are expected to
// bring the service back by themselves.
func (j *ActionJournal) StopIssuedWithin(window time.Duration) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	cutoff := j.now().Add(-window)
	for i := len(j.records) - 1; i >= 0; i-- {
		rec := j.records[i]
		if rec.At.Before(cutoff) {
			return false
		}
		if rec.Op == "stop" {
			return true
		}
	}
	return false
}

// Recent returns up to n most recent records, newest last.
func (j *ActionJournal) Recent(n int) []ActionRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	if n <= 0 || len(j.records) == 0 {
		return nil
	}
	if n > len(j.records) {
		n = len(j.records)
	}
	out := make([]ActionRecord, n)
	copy(out, j.records[len(j.records)-n:])
	return out
}
