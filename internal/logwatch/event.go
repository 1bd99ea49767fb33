// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package logwatch

import "time"

// Kind classifies a lifecycle event extracted from the server log.
type Kind string

// Lifecycle event kinds. Unknown through Online form a total order used by
// the status machine's monotonic-regression protection; ShuttingDown sits
// outside the order as a hard override.
const (
	KindUnknown      Kind = "unknown"
	KindOffline      Kind = "offline"
	KindStarting     Kind = "starting"
	KindLoading      Kind = "loading"
	KindOnline       Kind = "online"
	KindShuttingDown Kind = "shutting_down"
)

// Priority returns the position of the kind in the status order. Higher
// values win against stale lower-priority evidence. ShuttingDown has no
// place in the order; callers treat it as an override.
func (k Kind) Priority() int {
	switch k {
	case KindOffline:
		return 1
	case KindStarting:
		return 2
	case KindLoading:
		return 3
	case KindOnline:
		return 4
	default: // KindUnknown and anything unrecognized
		return 0
	}
}

// IsOverride reports whether the kind bypasses monotonic-regression
// protection: a shutdown or exit marker always wins.
func (k Kind) IsOverride() bool {
	return k == KindShuttingDown || k == KindOffline
}

// EntityCounts holds the world population reported by a global-stats line.
type EntityCounts struct {
	Characters int `json:"characters"`
	Zombies    int `json:"zombies"`
	Vehicles   int `json:"vehicles"`
}

// PerformanceSample holds the server performance figures reported by a
// global-stats line.
type PerformanceSample struct {
	AvgFPS      float64      `json:"avg_fps"`
	MinFPS      float64      `json:"min_fps"`
	MaxFPS      float64      `json:"max_fps"`
	FrameTimeMs float64      `json:"frame_time_ms"`
	PlayerCount int          `json:"player_count"`
	Entities    EntityCounts `json:"entities"`
}

// LogEvent is a typed lifecycle event parsed from a single log line. Events
// are immutable and discarded after being folded into the server status.
type LogEvent struct {
	Timestamp   time.Time
	Kind        Kind
	Performance *PerformanceSample
}
