// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package sched

import (
	"testing"
	"time"
)

func mustTimes(t *testing.T, entries ...string) []TimeOfDay {
	t.Helper()
	out := make([]TimeOfDay, 0, len(entries))
	for _, e := range entries {
		tod, err := ParseTimeOfDay(e)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", e, err)
		}
		out = append(out, tod)
	}
	return out
}

func TestNextOccurrence(t *testing.T) {
	t.Parallel()
	times := mustTimes(t, "02:00", "14:00")
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	t.Run("picks later time today", func(t *testing.T) {
		now := day.Add(13*time.Hour + 50*time.Minute) // 13:50
		got := NextOccurrence(times, now)
		want := day.Add(14 * time.Hour)
		if !got.Equal(want) {
			t.Errorf("NextOccurrence = %v, want %v", got, want)
		}
	})

	t.Run("wraps to first time tomorrow", func(t *testing.T) {
		now := day.Add(15 * time.Hour) // 15:00
		got := NextOccurrence(times, now)
		want := day.AddDate(0, 0, 1).Add(2 * time.Hour)
		if !got.Equal(want) {
			t.Errorf("NextOccurrence = %v, want %v", got, want)
		}
	})

	t.Run("exact match is not strictly after", func(t *testing.T) {
		now := day.Add(14 * time.Hour) // exactly 14:00
		got := NextOccurrence(times, now)
		want := day.AddDate(0, 0, 1).Add(2 * time.Hour)
		if !got.Equal(want) {
			t.Errorf("NextOccurrence at the boundary = %v, want %v", got, want)
		}
	})

	t.Run("unsorted input handled", func(t *testing.T) {
		unsorted := mustTimes(t, "14:00", "02:00")
		now := day.Add(time.Hour)
		want := day.Add(2 * time.Hour)
		if got := NextOccurrence(unsorted, now); !got.Equal(want) {
			t.Errorf("NextOccurrence = %v, want %v", got, want)
		}
	})
}

func TestPeriodicSchedulerWarningsAndFire(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 8, 28, 13, 0, 0, 0, time.UTC)
	s, err := NewPeriodicScheduler([]string{"14:00"}, start)
	if err != nil {
		t.Fatalf("NewPeriodicScheduler: %v", err)
	}

	if !s.NextAt().Equal(start.Add(time.Hour)) {
		t.Fatalf("NextAt = %v, want 14:00", s.NextAt())
	}

	fired := make(map[time.Duration]int)
	var fires int
	// Tick every 30s across the whole hour and a little beyond.
	for now := start; now.Before(start.Add(61 * time.Minute)); now = now.Add(30 * time.Second) {
		out := s.Tick(now)
		for _, th := range out.Warnings {
			fired[th]++
		}
		if out.Fire {
			fires++
		}
	}

	for _, th := range []time.Duration{15 * time.Minute, 5 * time.Minute, time.Minute} {
		if fired[th] != 1 {
			t.Errorf("threshold %v fired %d times, want exactly 1", th, fired[th])
		}
	}
	if fires != 1 {
		t.Errorf("occurrence fired %d times, want 1", fires)
	}

	// Schedule rolled forward to tomorrow and flags were reset.
	if !s.NextAt().Equal(time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("NextAt after fire = %v, want tomorrow 14:00", s.NextAt())
	}
	if s.LastPerformedAt().IsZero() {
		t.Error("LastPerformedAt should be set after a fire")
	}
}

func TestPeriodicSchedulerSkipNext(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 8, 28, 13, 58, 0, 0, time.UTC)
	s, err := NewPeriodicScheduler([]string{"14:00"}, start)
	if err != nil {
		t.Fatalf("NewPeriodicScheduler: %v", err)
	}
	s.SkipNext()

	// Warnings are suppressed while the skip flag is armed.
	out := s.Tick(start.Add(time.Minute)) // 13:59, inside the 1m window
	if len(out.Warnings) != 0 {
		t.Errorf("no warnings should fire for a skipped occurrence, got %v", out.Warnings)
	}

	out = s.Tick(start.Add(2 * time.Minute)) // 14:00
	if out.Fire {
		t.Error("skipped occurrence must not fire")
	}
	if !out.Skipped {
		t.Error("skip must be reported so a 'skipped' notification goes out")
	}
	if s.SkipArmed() {
		t.Error("skip flag is one-shot")
	}
	if !s.NextAt().Equal(time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("skip must still advance the schedule, NextAt = %v", s.NextAt())
	}
	if !s.LastPerformedAt().IsZero() {
		t.Error("a skipped occurrence is not a performed one")
	}

	// The following occurrence behaves normally again.
	next := s.Tick(time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC))
	if !next.Fire || next.Skipped {
		t.Errorf("following occurrence must fire normally, got %+v", next)
	}
}
