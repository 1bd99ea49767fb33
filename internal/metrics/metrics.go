// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Orchestration loop

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "servkeep_tick_duration_seconds",
			Help:    "Duration of one orchestration tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	TickPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "servkeep_tick_panics_total",
			Help: "Ticks that ended in a recovered panic",
		},
	)

	// Server status

	ServerStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "servkeep_server_status",
			Help: "Current server status (0 unknown, 1 offline, 2 starting, 3 loading, 4 online)",
		},
	)

	PlayerCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "servkeep_players",
			Help: "Players reported by the last stats line",
		},
	)

	ServerFPS = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "servkeep_server_fps_avg",
			Help: "Average server FPS from the last stats line",
		},
	)

	LogLinesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "servkeep_log_lines_total",
			Help: "Log lines read from the server log",
		},
	)

	// Lifecycle actions

	ActionsPerformed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servkeep_actions_total",
			Help: "Lifecycle actions performed, by kind and trigger",
		},
		[]string{"kind", "trigger"}, // trigger: "scheduled", "periodic", "recovery", "startup_timeout"
	)

	WarningsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servkeep_warnings_total",
			Help: "Pre-action warnings announced, by action kind",
		},
		[]string{"kind"},
	)

	RecoveryAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "servkeep_recovery_attempts_total",
			Help: "Automatic crash recovery restarts issued",
		},
	)

	// Maintenance

	BackupsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "servkeep_backups_total",
			Help: "Backup archives created",
		},
	)

	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "servkeep_backup_duration_seconds",
			Help:    "Duration of backup archive creation",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	UpdateChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servkeep_update_checks_total",
			Help: "Update checks performed, by outcome",
		},
		[]string{"outcome"}, // "current", "available", "error"
	)

	// HTTP API

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "servkeep_http_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Notifications

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servkeep_notifications_total",
			Help: "Webhook notifications delivered, by audience",
		},
		[]string{"audience"},
	)
)

// ObserveTick records the duration of one orchestration tick.
func ObserveTick(start time.Time) {
	TickDuration.Observe(time.Since(start).Seconds())
}
