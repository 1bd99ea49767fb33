// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package sched

import (
	"testing"
	"time"
)

func TestThresholdsForDelay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		delay time.Duration
		want  []time.Duration
	}{
		{20 * time.Minute, []time.Duration{10 * time.Minute, 5 * time.Minute, time.Minute}},
		{15 * time.Minute, []time.Duration{10 * time.Minute, 5 * time.Minute, time.Minute}},
		{14 * time.Minute, []time.Duration{5 * time.Minute, time.Minute}},
		{10 * time.Minute, []time.Duration{5 * time.Minute, time.Minute}},
		{6 * time.Minute, []time.Duration{5 * time.Minute, time.Minute}},
		{5 * time.Minute, []time.Duration{time.Minute}},
		{3 * time.Minute, []time.Duration{time.Minute}},
		{0, []time.Duration{time.Minute}},
	}
	for _, tc := range cases {
		got := ThresholdsForDelay(tc.delay)
		if len(got) != len(tc.want) {
			t.Errorf("ThresholdsForDelay(%v) = %v, want %v", tc.delay, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("ThresholdsForDelay(%v)[%d] = %v, want %v", tc.delay, i, got[i], tc.want[i])
			}
		}
	}
}

func TestWarningLadderFiresOncePerThreshold(t *testing.T) {
	t.Parallel()
	l := NewWarningLadder(10*time.Minute, 5*time.Minute, time.Minute)

	if due := l.Due(12 * time.Minute); len(due) != 0 {
		t.Errorf("nothing due at 12m remaining, got %v", due)
	}

	due := l.Due(9 * time.Minute)
	if len(due) != 1 || due[0] != 10*time.Minute {
		t.Fatalf("expected 10m warning at 9m remaining, got %v", due)
	}

	// Fast ticks inside the same window must not re-fire.
	for i := 0; i < 3; i++ {
		if due := l.Due(9 * time.Minute); len(due) != 0 {
			t.Fatalf("threshold re-fired on tick %d: %v", i, due)
		}
	}

	if due := l.Due(4 * time.Minute); len(due) != 1 || due[0] != 5*time.Minute {
		t.Errorf("expected 5m warning at 4m remaining, got %v", due)
	}
	if due := l.Due(30 * time.Second); len(due) != 1 || due[0] != time.Minute {
		t.Errorf("expected 1m warning at 30s remaining, got %v", due)
	}
}

func TestWarningLadderWindowBounds(t *testing.T) {
	t.Parallel()

	t.Run("slow tick far past the window does not fire stale tiers", func(t *testing.T) {
		l := NewWarningLadder(10*time.Minute, 5*time.Minute, time.Minute)
		// One giant gap: 11m remaining straight to 30s remaining. The 10m
		// and 5m windows were skipped entirely; only the 1m tier fires.
		if due := l.Due(11 * time.Minute); len(due) != 0 {
			t.Fatalf("unexpected warnings at 11m: %v", due)
		}
		due := l.Due(30 * time.Second)
		if len(due) != 1 || due[0] != time.Minute {
			t.Errorf("only the 1m tier should fire after a huge gap, got %v", due)
		}
	})

	t.Run("late tick just inside the window still fires", func(t *testing.T) {
		l := NewWarningLadder(10 * time.Minute)
		// 8m30s remaining is within (8m, 10m]: still fires.
		if due := l.Due(8*time.Minute + 30*time.Second); len(due) != 1 {
			t.Errorf("expected late fire inside window, got %v", due)
		}
	})

	t.Run("one-minute tier fires slightly past due", func(t *testing.T) {
		l := NewWarningLadder(time.Minute)
		if due := l.Due(-30 * time.Second); len(due) != 1 {
			t.Errorf("1m tier should fire within 2m past its threshold, got %v", due)
		}
	})

	t.Run("reset re-arms all tiers", func(t *testing.T) {
		l := NewWarningLadder(5*time.Minute, time.Minute)
		l.Due(4 * time.Minute)
		l.Due(50 * time.Second)
		l.Reset()
		if due := l.Due(4 * time.Minute); len(due) != 1 {
			t.Errorf("expected 5m tier after reset, got %v", due)
		}
	})
}

// TestWarningTableScenarios reproduces the canonical delay table: 20m →
// {10,5,1}, 10m → {5,1}, 3m → {1}, with no threshold firing twice.
func TestWarningTableScenarios(t *testing.T) {
	t.Parallel()

	run := func(delay time.Duration) map[time.Duration]int {
		l := NewWarningLadder(ThresholdsForDelay(delay)...)
		fired := make(map[time.Duration]int)
		// Simulate 30-second ticks from the full delay down to zero.
		for remaining := delay; remaining >= 0; remaining -= 30 * time.Second {
			for _, th := range l.Due(remaining) {
				fired[th]++
			}
		}
		return fired
	}

	t.Run("delay 20m", func(t *testing.T) {
		fired := run(20 * time.Minute)
		for _, th := range []time.Duration{10 * time.Minute, 5 * time.Minute, time.Minute} {
			if fired[th] != 1 {
				t.Errorf("threshold %v fired %d times, want 1", th, fired[th])
			}
		}
		if len(fired) != 3 {
			t.Errorf("unexpected thresholds fired: %v", fired)
		}
	})

	t.Run("delay 10m", func(t *testing.T) {
		fired := run(10 * time.Minute)
		if fired[10*time.Minute] != 0 {
			t.Error("10m warning must be suppressed for a 10m delay")
		}
		if fired[5*time.Minute] != 1 || fired[time.Minute] != 1 {
			t.Errorf("expected exactly {5m,1m}, got %v", fired)
		}
	})

	t.Run("delay 3m", func(t *testing.T) {
		fired := run(3 * time.Minute)
		if len(fired) != 1 || fired[time.Minute] != 1 {
			t.Errorf("expected only the 1m warning, got %v", fired)
		}
	})
}
