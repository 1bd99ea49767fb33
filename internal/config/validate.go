// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the configuration for values that would make the
// orchestrator misbehave at runtime. All problems are reported at once so
// operators fix a config file in one pass.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.ServiceName == "" {
		problems = append(problems, "server.service_name is required (the systemd unit to manage)")
	}
	if c.Server.LogPath == "" {
		problems = append(problems, "server.log_path is required (the server log file to follow)")
	}
	if c.Server.StartupTimeoutMinutes <= 0 {
		problems = append(problems, "server.startup_timeout_minutes must be positive")
	}

	if len(c.Restarts.Times) == 0 {
		problems = append(problems, "restarts.times must list at least one HH:mm entry")
	}
	for _, tod := range c.Restarts.Times {
		if _, err := time.Parse("15:04", tod); err != nil {
			problems = append(problems, fmt.Sprintf("restarts.times entry %q is not a valid HH:mm time", tod))
		}
	}

	if c.Backups.IntervalMinutes <= 0 {
		problems = append(problems, "backups.interval_minutes must be positive")
	}
	if c.Backups.MaxBackups < 1 {
		problems = append(problems, "backups.max_backups must be at least 1")
	}
	if c.Backups.Dir == "" {
		problems = append(problems, "backups.dir is required")
	}

	if c.Updates.CheckIntervalMinutes <= 0 {
		problems = append(problems, "updates.check_interval_minutes must be positive")
	}
	if c.Updates.DelayMinutes < 0 {
		problems = append(problems, "updates.delay_minutes must not be negative")
	}

	if c.Recovery.CooldownMinutes <= 0 {
		problems = append(problems, "recovery.cooldown_minutes must be positive")
	}
	if c.Recovery.MaxAttempts < 1 {
		problems = append(problems, "recovery.max_attempts must be at least 1")
	}

	p := c.Performance
	if !(p.Excellent > p.Good && p.Good > p.Fair && p.Fair > p.Poor) {
		problems = append(problems, "performance thresholds must satisfy excellent > good > fair > poor")
	}
	if p.Poor < 0 {
		problems = append(problems, "performance.poor must not be negative")
	}

	if c.Loop.LogCheckIntervalMs < 100 {
		problems = append(problems, "loop.log_check_interval_ms must be at least 100")
	}
	if c.Loop.StatusCheckIntervalMs < c.Loop.LogCheckIntervalMs {
		problems = append(problems, "loop.status_check_interval_ms must not be below loop.log_check_interval_ms")
	}

	if c.Notify.TimeoutSeconds <= 0 {
		problems = append(problems, "notify.timeout_seconds must be positive")
	}
	if c.Notify.RatePerMinute < 0 {
		problems = append(problems, "notify.rate_per_minute must not be negative")
	}

	if c.API.Listen == "" {
		problems = append(problems, "api.listen is required")
	}

	if c.Supervisor.FailureThreshold < 0 || c.Supervisor.FailureDecaySeconds < 0 ||
		c.Supervisor.FailureBackoffSeconds < 0 || c.Supervisor.ShutdownTimeoutSeconds < 0 {
		problems = append(problems, "supervisor settings must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
