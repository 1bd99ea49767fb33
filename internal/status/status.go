// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package status

import (
	"fmt"
	"time"

	"github.com/servkeep/servkeep/internal/logwatch"
)

// Rating classifies a performance sample against the configured FPS bands.
type Rating string

// Performance ratings, best to worst.
const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingFair      Rating = "Fair"
	RatingPoor      Rating = "Poor"
	RatingCritical  Rating = "Critical"
	RatingUnknown   Rating = "Unknown"
)

// Thresholds holds the FPS bands used to classify performance samples.
// A sample at or above Excellent rates "Excellent", at or above Good rates
// "Good", and so on; below Poor rates "Critical".
type Thresholds struct {
	Excellent float64
	Good      float64
	Fair      float64
	Poor      float64
}

// Rate classifies an average FPS figure.
func (t Thresholds) Rate(avgFPS float64) Rating {
	switch {
	case avgFPS >= t.Excellent:
		return RatingExcellent
	case avgFPS >= t.Good:
		return RatingGood
	case avgFPS >= t.Fair:
		return RatingFair
	case avgFPS >= t.Poor:
		return RatingPoor
	default:
		return RatingCritical
	}
}

// ServerStatus is the canonical view of the managed server's lifecycle
// state. There is exactly one instance, owned by the Machine; callers get
// copies.
type ServerStatus struct {
	Kind           logwatch.Kind `json:"kind"`
	Phase          string        `json:"phase"`
	Message        string        `json:"message"`
	IsOnline       bool          `json:"is_online"`
	LastActivityAt time.Time     `json:"last_activity_at"`

	// Performance carries the most recent global-stats sample while Online.
	Performance       *logwatch.PerformanceSample `json:"performance,omitempty"`
	PerformanceRating Rating                      `json:"performance_rating"`
	PlayerCount       int                         `json:"player_count"`

	// HighestKindReached is the monotonic high-water mark used to ignore
	// stale or out-of-order log evidence. It never decreases for the
	// lifetime of the Machine.
	HighestKindReached logwatch.Kind `json:"highest_kind_reached"`
}

// phaseText maps an accepted event kind to the human-readable phase line
// shown in notifications and the status API.
func phaseText(kind logwatch.Kind, sample *logwatch.PerformanceSample) (phase, message string) {
	switch kind {
	case logwatch.KindStarting:
		return "Starting", "Server process started"
	case logwatch.KindLoading:
		return "Loading", "World is loading"
	case logwatch.KindOnline:
		if sample != nil {
			return "Online", fmt.Sprintf("Online with %d players", sample.PlayerCount)
		}
		return "Online", "Online"
	case logwatch.KindShuttingDown:
		return "Shutting down", "Server is shutting down"
	case logwatch.KindOffline:
		return "Offline", "Server process exited"
	default:
		return "Unknown", "No lifecycle evidence yet"
	}
}
