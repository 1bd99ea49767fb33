// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a config that passes Validate, for mutation in tests.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Server.ServiceName = "dayz-server"
	cfg.Server.LogPath = "/var/log/dayz/server.RPT"
	cfg.Server.ProfilePath = "/srv/dayz/profile"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid config passes", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Fatalf("unexpected validation error: %v", err)
		}
	})

	t.Run("missing service name rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.ServiceName = ""
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error for missing service name")
		}
		if !strings.Contains(err.Error(), "server.service_name") {
			t.Errorf("error should name the offending field, got %v", err)
		}
	})

	t.Run("bad restart time rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Restarts.Times = []string{"25:00"}
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for invalid HH:mm entry")
		}
	})

	t.Run("non-monotonic performance bands rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Performance.Good = 40 // above Excellent
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for non-monotonic thresholds")
		}
	})

	t.Run("all problems reported at once", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.ServiceName = ""
		cfg.Backups.MaxBackups = 0
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error")
		}
		for _, want := range []string{"server.service_name", "backups.max_backups"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error should mention %s, got %v", want, err)
			}
		}
	})
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"SERVKEEP_SERVER_SERVICE_NAME":         "server.service_name",
		"SERVKEEP_BACKUPS_MAX_BACKUPS":         "backups.max_backups",
		"SERVKEEP_LOOP_LOG_CHECK_INTERVAL_MS":  "loop.log_check_interval_ms",
		"SERVKEEP_RESTARTS_TIMES":              "restarts.times",
		"SERVKEEP_PERFORMANCE_EXCELLENT":       "performance.excellent",
		"SERVKEEP_RECOVERY_COOLDOWN_MINUTES":   "recovery.cooldown_minutes",
		"SERVKEEP_UPDATES_CHECK_INTERVAL_MINUTES": "updates.check_interval_minutes",
	}
	for input, want := range cases {
		if got := envTransformFunc(input); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servkeep.yaml")
	yaml := `
server:
  service_name: dayz-server
  log_path: /var/log/dayz/server.RPT
  profile_path: /srv/dayz/profile
restarts:
  times: ["02:00", "14:00"]
backups:
  interval_minutes: 90
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SERVKEEP_BACKUPS_MAX_BACKUPS", "3")
	t.Setenv("SERVKEEP_RESTARTS_TIMES", "06:00,18:00")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.ServiceName != "dayz-server" {
		t.Errorf("file value not applied: service_name = %q", cfg.Server.ServiceName)
	}
	if cfg.Backups.IntervalMinutes != 90 {
		t.Errorf("file should override default interval, got %d", cfg.Backups.IntervalMinutes)
	}
	if cfg.Backups.MaxBackups != 3 {
		t.Errorf("env should override default max_backups, got %d", cfg.Backups.MaxBackups)
	}
	// Env beats file, and comma-separated strings become slices.
	if len(cfg.Restarts.Times) != 2 || cfg.Restarts.Times[0] != "06:00" || cfg.Restarts.Times[1] != "18:00" {
		t.Errorf("env restart times not applied, got %v", cfg.Restarts.Times)
	}
	if cfg.Backups.Interval() != 90*time.Minute {
		t.Errorf("Interval() = %v, want 90m", cfg.Backups.Interval())
	}
}
