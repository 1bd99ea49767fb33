// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package recovery

import (
	"context"
	"time"

	"github.com/servkeep/servkeep/internal/logging"
)

// Evidence assesses whether a stop of the managed service looks deliberate.
// The assessment is driven only by explicit evidence (service-control
// journal entries, clean-shutdown markers in the log tail), never by
// time-of-day guesswork.
type Evidence interface {
	Assess(ctx context.Context, serviceName string, window time.Duration) (bool, error)
}

// Action is the controller's verdict for one tick.
type Action int

// Tick verdicts.
const (
	ActionNone Action = iota
	ActionRestart
)

// State is a snapshot of the recovery bookkeeping, for the status API.
type State struct {
	ConsecutiveAttempts  int       `json:"consecutive_attempts"`
	LastAttemptAt        time.Time `json:"last_attempt_at"`
	IntentionallyStopped bool      `json:"intentionally_stopped"`
	Exhausted            bool      `json:"exhausted"`
}

// Controller watches the gap between "service should be running" and
// "service is running", applying cooldown-bounded restart attempts while
// disambiguating crash from intentional stop.
//
// The attempt counter resets exactly when the status machine confirms the
// server is Online again (NoteOnline), not merely when the process
// reappears; a server that crash-loops during world load keeps consuming
// attempts.
type Controller struct {
	serviceName    string
	cooldown       time.Duration
	maxAttempts    int
	evidenceWindow time.Duration
	evidence       Evidence

	consecutiveAttempts  int
	lastAttemptAt        time.Time
	intentionallyStopped bool
}

// NewController creates a recovery controller.
func NewController(serviceName string, cooldown, evidenceWindow time.Duration, maxAttempts int, evidence Evidence) *Controller {
	return &Controller{
		serviceName:    serviceName,
		cooldown:       cooldown,
		maxAttempts:    maxAttempts,
		evidenceWindow: evidenceWindow,
		evidence:       evidence,
	}
}

// State returns a snapshot of the recovery bookkeeping.
func (c *Controller) State() State {
	return State{
		ConsecutiveAttempts:  c.consecutiveAttempts,
		LastAttemptAt:        c.lastAttemptAt,
		IntentionallyStopped: c.intentionallyStopped,
		Exhausted:            c.consecutiveAttempts >= c.maxAttempts,
	}
}

// NoteOnline records that the status machine confirmed Online. This is the
// one place the attempt counter and the intentional-stop flag reset.
func (c *Controller) NoteOnline() {
	c.consecutiveAttempts = 0
	c.intentionallyStopped = false
}

// NoteIntentionalStop records that the orchestrator itself stopped the
// service on purpose, so recovery must not fight the stop.
func (c *Controller) NoteIntentionalStop() {
	c.intentionallyStopped = true
	c.consecutiveAttempts = 0
}

// Tick evaluates recovery at now. It returns ActionRestart when the caller
// should start the service; all bookkeeping for the attempt has been done.
func (c *Controller) Tick(ctx context.Context, now time.Time, controllerIsRunning bool) Action {
	if controllerIsRunning {
		return ActionNone
	}
	if c.intentionallyStopped {
		return ActionNone
	}

	if c.consecutiveAttempts >= c.maxAttempts {
		logging.Warn().
			Str("service", c.serviceName).
			Int("attempts", c.consecutiveAttempts).
			Msg("Auto-recovery paused: attempt limit reached, waiting for a confirmed Online to reset")
		return ActionNone
	}
	if !c.lastAttemptAt.IsZero() && now.Sub(c.lastAttemptAt) < c.cooldown {
		logging.Debug().
			Str("service", c.serviceName).
			Dur("cooldown", c.cooldown).
			Time("last_attempt", c.lastAttemptAt).
			Msg("Auto-recovery waiting out cooldown")
		return ActionNone
	}

	// Eligible. Before restarting, make sure the stop was not deliberate.
	intentional, err := c.evidence.Assess(ctx, c.serviceName, c.evidenceWindow)
	if err != nil {
		// No evidence is not evidence of intent; keep the server alive.
		logging.Warn().Err(err).
			Str("service", c.serviceName).
			Msg("Intentional-stop assessment failed, treating stop as a crash")
	} else if intentional {
		logging.Info().
			Str("service", c.serviceName).
			Msg("Stop looks intentional, auto-recovery standing down")
		c.intentionallyStopped = true
		c.consecutiveAttempts = 0
		return ActionNone
	}

	c.consecutiveAttempts++
	c.lastAttemptAt = now
	logging.Info().
		Str("service", c.serviceName).
		Int("attempt", c.consecutiveAttempts).
		Int("max_attempts", c.maxAttempts).
		Msg("Auto-recovery restarting crashed service")
	return ActionRestart
}
