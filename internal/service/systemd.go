// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package service

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/servkeep/servkeep/internal/logging"
)

// controlTimeout bounds every systemctl invocation so a hung service
// manager cannot wedge the orchestration loop.
const controlTimeout = 90 * time.Second

// queryTimeout bounds the cheap read-only queries.
const queryTimeout = 10 * time.Second

// SystemdController controls the managed game server through systemctl.
// All calls are synchronous and carry bounded timeouts.
type SystemdController struct {
	unit    string
	journal *ActionJournal

	// runner abstracts command execution for tests.
	runner func(ctx context.Context, name string, args ...string) (string, error)
}

// NewSystemdController creates a controller for the given unit name
// (without the ".service" suffix). Control actions are recorded in the
// returned journal for intentional-stop evidence.
func NewSystemdController(unit string) (*SystemdController, *ActionJournal) {
	journal := NewActionJournal()
	return &SystemdController{
		unit:    unit,
		journal: journal,
		runner:  runSystemctl,
	}, journal
}

// runSystemctl executes systemctl and returns combined output.
func runSystemctl(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}

// IsRunning reports whether the unit is active.
func (c *SystemdController) IsRunning(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := c.runner(ctx, "systemctl", "is-active", c.unit+".service")
	state := strings.TrimSpace(out)
	if err != nil {
		// is-active exits non-zero for every inactive state; only treat
		// unknown output as an error.
		switch state {
		case "inactive", "failed", "deactivating", "activating":
			return state == "activating", nil
		}
		if ctx.Err() != nil {
			return false, &ControlError{Op: "is-active", Err: ctx.Err()}
		}
		return false, classify("is-active", out, err)
	}
	return state == "active" || state == "activating", nil
}

// Exists reports whether the unit is known to systemd at all.
func (c *SystemdController) Exists(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := c.runner(ctx, "systemctl", "cat", c.unit+".service")
	if err != nil {
		if strings.Contains(out, "No files found") || strings.Contains(out, "not be found") {
			return false, nil
		}
		return false, classify("cat", out, err)
	}
	return true, nil
}

// Start starts the unit and records the action.
func (c *SystemdController) Start(ctx context.Context) error {
	return c.control(ctx, "start", "orchestrator start")
}

// Stop stops the unit and records the action with its reason. Stops issued
// here count as intentional for the recovery controller's evidence.
func (c *SystemdController) Stop(ctx context.Context, reason string) error {
	return c.control(ctx, "stop", reason)
}

// Restart restarts the unit and records the action with its reason.
func (c *SystemdController) Restart(ctx context.Context, reason string) error {
	return c.control(ctx, "restart", reason)
}

func (c *SystemdController) control(ctx context.Context, op, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	logging.Info().
		Str("service", c.unit).
		Str("op", op).
		Str("reason", reason).
		Msg("Issuing service control action")

	out, err := c.runner(ctx, "systemctl", op, c.unit+".service")
	if err != nil {
		return classify(op, out, err)
	}
	c.journal.Record(op, reason)
	return nil
}

// classify maps systemctl failures onto the error taxonomy: unit-missing
// and permission problems are fatal, everything else is transient.
func classify(op, output string, err error) error {
	switch {
	case strings.Contains(output, "not found") || strings.Contains(output, "not loaded"):
		return &ControlError{Op: op, Err: ErrUnitNotFound}
	case strings.Contains(output, "Access denied") ||
		strings.Contains(output, "Permission denied") ||
		strings.Contains(output, "authentication required"):
		return &ControlError{Op: op, Err: ErrPermissionDenied}
	default:
		return &ControlError{Op: op, Err: err}
	}
}
