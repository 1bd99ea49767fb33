// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package sched

import (
	"fmt"
	"sort"
	"time"
)

// TimeOfDay is a wall-clock "HH:mm" restart time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a "HH:mm" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// At anchors the time of day to the date of ref.
func (t TimeOfDay) At(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, ref.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// NextOccurrence picks the earliest configured time of day strictly after
// now today; when none remain today it wraps to the first configured time
// tomorrow.
func NextOccurrence(timesOfDay []TimeOfDay, now time.Time) time.Time {
	sorted := append([]TimeOfDay(nil), timesOfDay...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Hour != sorted[j].Hour {
			return sorted[i].Hour < sorted[j].Hour
		}
		return sorted[i].Minute < sorted[j].Minute
	})

	for _, tod := range sorted {
		if candidate := tod.At(now); candidate.After(now) {
			return candidate
		}
	}
	return sorted[0].At(now.AddDate(0, 0, 1))
}

// PeriodicOutcome is the result of one periodic-scheduler tick.
type PeriodicOutcome struct {
	// Warnings lists the restart-warning thresholds that became due.
	Warnings []time.Duration

	// Fire is set when the occurrence is due and should be performed
	// (backup, then restart).
	Fire bool

	// Skipped is set instead of Fire when the occurrence was consumed by
	// the one-shot skip flag.
	Skipped bool
}

// PeriodicScheduler computes and drives the fixed clock-time restart
// schedule with a 15/5/1-minute warning ladder.
type PeriodicScheduler struct {
	times  []TimeOfDay
	next   time.Time
	ladder *WarningLadder

	skipNext        bool
	lastPerformedAt time.Time
}

// NewPeriodicScheduler parses the configured "HH:mm" restart times and
// anchors the first occurrence after now.
func NewPeriodicScheduler(restartTimes []string, now time.Time) (*PeriodicScheduler, error) {
	if len(restartTimes) == 0 {
		return nil, fmt.Errorf("at least one restart time is required")
	}
	times := make([]TimeOfDay, 0, len(restartTimes))
	for _, s := range restartTimes {
		tod, err := ParseTimeOfDay(s)
		if err != nil {
			return nil, err
		}
		times = append(times, tod)
	}
	return &PeriodicScheduler{
		times:  times,
		next:   NextOccurrence(times, now),
		ladder: NewWarningLadder(periodicThresholds...),
	}, nil
}

// NextAt returns the next scheduled occurrence.
func (s *PeriodicScheduler) NextAt() time.Time {
	return s.next
}

// LastPerformedAt returns when an occurrence last fired (zero if never).
func (s *PeriodicScheduler) LastPerformedAt() time.Time {
	return s.lastPerformedAt
}

// SkipNext arms the one-shot skip flag: the next occurrence is consumed
// and rolled forward without restarting.
func (s *PeriodicScheduler) SkipNext() {
	s.skipNext = true
}

// SkipArmed reports whether the skip flag is set.
func (s *PeriodicScheduler) SkipArmed() bool {
	return s.skipNext
}

// Tick evaluates the schedule at now. When the occurrence is due the
// scheduler advances to the following occurrence and resets its warning
// flags before returning; the caller performs the side effects (backup and
// restart, or a "skipped" notification).
func (s *PeriodicScheduler) Tick(now time.Time) PeriodicOutcome {
	var out PeriodicOutcome

	if now.Before(s.next) {
		// Warning about a restart that the skip flag will consume would
		// just confuse players.
		if !s.skipNext {
			out.Warnings = s.ladder.Due(s.next.Sub(now))
		}
		return out
	}

	if s.skipNext {
		s.skipNext = false
		out.Skipped = true
	} else {
		out.Fire = true
		s.lastPerformedAt = now
	}

	s.next = NextOccurrence(s.times, now)
	s.ladder.Reset()
	return out
}
