// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package status

import (
	"testing"
	"time"

	"github.com/servkeep/servkeep/internal/logwatch"
)

var testBands = Thresholds{Excellent: 30, Good: 20, Fair: 15, Poor: 10}

// testClock is a controllable clock for machine tests.
type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMachine() (*Machine, *testClock) {
	clock := &testClock{t: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)}
	parser := logwatch.NewParserWithClock(clock.now)
	return newMachine(testBands, parser, clock.now), clock
}

func event(kind logwatch.Kind, at time.Time) *logwatch.LogEvent {
	return &logwatch.LogEvent{Timestamp: at, Kind: kind}
}

func onlineEvent(at time.Time, avgFPS float64, players int) *logwatch.LogEvent {
	return &logwatch.LogEvent{
		Timestamp: at,
		Kind:      logwatch.KindOnline,
		Performance: &logwatch.PerformanceSample{
			AvgFPS:      avgFPS,
			MinFPS:      avgFPS - 5,
			MaxFPS:      avgFPS + 5,
			FrameTimeMs: 1000 / avgFPS,
			PlayerCount: players,
		},
	}
}

func TestStartupSequence(t *testing.T) {
	t.Parallel()
	m, clock := newTestMachine()
	clock.advance(10 * time.Minute) // outside the startup grace window

	want := []logwatch.Kind{logwatch.KindStarting, logwatch.KindLoading, logwatch.KindOnline}
	var announced int
	for i, kind := range want {
		var tr Transition
		if kind == logwatch.KindOnline {
			tr = m.Apply(onlineEvent(clock.t, 28, 12))
		} else {
			tr = m.Apply(event(kind, clock.t))
		}
		if !tr.Changed {
			t.Fatalf("step %d (%v): expected a status change", i, kind)
		}
		if tr.Current.Kind != kind {
			t.Fatalf("step %d: Kind = %v, want %v", i, tr.Current.Kind, kind)
		}
		if tr.Announce {
			announced++
		}
		clock.advance(time.Minute)
	}

	if announced != 3 {
		t.Errorf("expected one announcement per transition, got %d", announced)
	}

	st := m.Status()
	if !st.IsOnline {
		t.Error("status should be online")
	}
	if st.PerformanceRating != RatingGood {
		t.Errorf("fps 28 under bands %+v should rate Good, got %v", testBands, st.PerformanceRating)
	}
	if st.PlayerCount != 12 {
		t.Errorf("PlayerCount = %d, want 12", st.PlayerCount)
	}
	if st.HighestKindReached != logwatch.KindOnline {
		t.Errorf("HighestKindReached = %v, want Online", st.HighestKindReached)
	}
}

func TestStaleEvidenceIgnored(t *testing.T) {
	t.Parallel()
	m, clock := newTestMachine()

	m.Apply(onlineEvent(clock.t, 30, 5))

	// An out-of-order Starting line must not regress the status.
	tr := m.Apply(event(logwatch.KindStarting, clock.t.Add(time.Second)))
	if tr.Changed {
		t.Error("stale Starting evidence must be ignored once Online was reached")
	}
	if m.Status().Kind != logwatch.KindOnline {
		t.Errorf("Kind = %v, want Online", m.Status().Kind)
	}
	if m.Status().HighestKindReached != logwatch.KindOnline {
		t.Errorf("high-water mark moved: %v", m.Status().HighestKindReached)
	}
}

func TestShutdownOverrides(t *testing.T) {
	t.Parallel()
	m, clock := newTestMachine()

	m.Apply(onlineEvent(clock.t, 30, 5))

	tr := m.Apply(event(logwatch.KindShuttingDown, clock.t.Add(time.Minute)))
	if !tr.Changed || tr.Current.Kind != logwatch.KindShuttingDown {
		t.Fatal("shutdown marker must always win")
	}
	if tr.Current.HighestKindReached != logwatch.KindOnline {
		t.Error("override must not lower the high-water mark")
	}

	tr = m.Apply(event(logwatch.KindOffline, clock.t.Add(2*time.Minute)))
	if !tr.Changed || tr.Current.Kind != logwatch.KindOffline {
		t.Fatal("exit marker must always win")
	}
	if tr.Current.IsOnline {
		t.Error("offline status must not be online")
	}
	if tr.Current.Performance != nil {
		t.Error("performance sample must be dropped when the server goes down")
	}
}

func TestHighWaterMarkNeverDecreases(t *testing.T) {
	t.Parallel()
	m, clock := newTestMachine()

	sequence := []logwatch.Kind{
		logwatch.KindStarting, logwatch.KindLoading, logwatch.KindOnline,
		logwatch.KindShuttingDown, logwatch.KindOffline,
		logwatch.KindStarting, // next boot's starting marker: stale by priority
	}
	best := 0
	for _, kind := range sequence {
		if kind == logwatch.KindOnline {
			m.Apply(onlineEvent(clock.t, 25, 1))
		} else {
			m.Apply(event(kind, clock.t))
		}
		clock.advance(time.Second)

		mark := m.Status().HighestKindReached.Priority()
		if mark < best {
			t.Fatalf("high-water mark decreased to %d after %v", mark, kind)
		}
		best = mark
	}
}

func TestLastActivityTracksAcceptedEvents(t *testing.T) {
	t.Parallel()
	m, clock := newTestMachine()

	first := clock.t
	m.Apply(event(logwatch.KindStarting, first))

	clock.advance(time.Hour)
	m.Apply(event(logwatch.KindLoading, clock.t))
	if !m.Status().LastActivityAt.Equal(clock.t) {
		t.Errorf("LastActivityAt = %v, want %v", m.Status().LastActivityAt, clock.t)
	}

	// Rejected events must not touch the activity timestamp.
	rejected := clock.t.Add(time.Minute)
	m.Apply(event(logwatch.KindStarting, rejected))
	if m.Status().LastActivityAt.Equal(rejected) {
		t.Error("rejected event must not update LastActivityAt")
	}
}

func TestReconcileDeadProcessForcesOffline(t *testing.T) {
	t.Parallel()
	m, _ := newTestMachine()

	// Stale tail claims the server was online.
	tail := []string{
		"10:15:02.421 Server Version: 1.26.158551",
		"10:22:10.512 *** GlobalStats: players: 12 | chars: 12 | zombies: 743 | vehicles: 98 | fps avg 28.4 min 14.2 max 31.0 | frametime 35.2 ms",
	}
	m.Reconcile(tail, false)

	st := m.Status()
	if st.Kind != logwatch.KindOffline {
		t.Fatalf("Kind = %v, want Offline for a confirmed-dead process", st.Kind)
	}
	if st.IsOnline {
		t.Error("IsOnline must be false")
	}
	if st.HighestKindReached != logwatch.KindOffline {
		t.Errorf("high-water mark = %v, want Offline", st.HighestKindReached)
	}
}

func TestReconcileRunningSuppressesFirstOnlineAnnouncement(t *testing.T) {
	t.Parallel()
	m, clock := newTestMachine()

	m.Reconcile([]string{"10:15:02.421 Server Version: 1.26.158551"}, true)
	if m.Status().Kind != logwatch.KindStarting {
		t.Fatalf("tail should seed status, got %v", m.Status().Kind)
	}

	// First stats line lands inside the grace window: no announcement.
	clock.advance(30 * time.Second)
	tr := m.Apply(onlineEvent(clock.t, 30, 8))
	if !tr.Changed {
		t.Fatal("transition to Online expected")
	}
	if tr.Announce {
		t.Error("first became-Online inside the grace window must be suppressed")
	}

	// A later offline/online cycle is announced normally.
	m.Apply(event(logwatch.KindOffline, clock.t.Add(time.Minute)))
	clock.advance(10 * time.Minute)
	tr = m.Apply(onlineEvent(clock.t, 30, 8))
	if !tr.Announce {
		t.Error("subsequent Online transitions must be announced")
	}
}

func TestRatingBands(t *testing.T) {
	t.Parallel()

	cases := []struct {
		fps  float64
		want Rating
	}{
		{35, RatingExcellent},
		{30, RatingExcellent},
		{28, RatingGood},
		{20, RatingGood},
		{17, RatingFair},
		{12, RatingPoor},
		{5, RatingCritical},
	}
	for _, tc := range cases {
		if got := testBands.Rate(tc.fps); got != tc.want {
			t.Errorf("Rate(%v) = %v, want %v", tc.fps, got, tc.want)
		}
	}
}
