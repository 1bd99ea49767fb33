// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestActionCounterLabels(t *testing.T) {
	before := testutil.ToFloat64(ActionsPerformed.WithLabelValues("restart", "scheduled"))

	ActionsPerformed.WithLabelValues("restart", "scheduled").Inc()
	ActionsPerformed.WithLabelValues("stop", "recovery").Inc()

	after := testutil.ToFloat64(ActionsPerformed.WithLabelValues("restart", "scheduled"))
	if after != before+1 {
		t.Errorf("restart/scheduled counter = %v, want %v", after, before+1)
	}
}

func TestStatusGauge(t *testing.T) {
	ServerStatus.Set(4)
	if got := testutil.ToFloat64(ServerStatus); got != 4 {
		t.Errorf("ServerStatus = %v, want 4", got)
	}
	ServerStatus.Set(1)
	if got := testutil.ToFloat64(ServerStatus); got != 1 {
		t.Errorf("ServerStatus = %v, want 1", got)
	}
}

func TestObserveTick(t *testing.T) {
	ObserveTick(time.Now().Add(-5 * time.Millisecond))
	if n := testutil.CollectAndCount(TickDuration); n != 1 {
		t.Errorf("TickDuration collected %d metrics, want 1", n)
	}
}
