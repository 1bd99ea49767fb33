// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package config

import "time"

// Config is the root configuration for ServKeep.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Restarts    RestartConfig     `koanf:"restarts"`
	Backups     BackupConfig      `koanf:"backups"`
	Updates     UpdateConfig      `koanf:"updates"`
	Recovery    RecoveryConfig    `koanf:"recovery"`
	Performance PerformanceConfig `koanf:"performance"`
	Loop        LoopConfig        `koanf:"loop"`
	Notify      NotifyConfig      `koanf:"notify"`
	API         APIConfig         `koanf:"api"`
	Logging     LoggingConfig     `koanf:"logging"`
	Supervisor  SupervisorConfig  `koanf:"supervisor"`
}

// ServerConfig identifies the managed game-server service and its artifacts.
type ServerConfig struct {
	// ServiceName is the systemd unit (without ".service") under management.
	ServiceName string `koanf:"service_name"`

	// LogPath is the server's console/report log file that the orchestrator
	// follows for lifecycle events.
	LogPath string `koanf:"log_path"`

	// ProfilePath is the server profile/persistence directory that backups
	// archive.
	ProfilePath string `koanf:"profile_path"`

	// StartupTimeoutMinutes bounds how long a start is awaited before the
	// orchestrator reports a failed startup.
	StartupTimeoutMinutes int `koanf:"startup_timeout_minutes"`
}

// RestartConfig drives the fixed-clock-time restart schedule.
type RestartConfig struct {
	// Times lists the daily restart times as "HH:mm" (24-hour, server-local).
	Times []string `koanf:"times"`
}

// BackupConfig drives periodic backups and retention.
type BackupConfig struct {
	IntervalMinutes int    `koanf:"interval_minutes"`
	MaxBackups      int    `koanf:"max_backups"`
	Compress        bool   `koanf:"compress"`
	Dir             string `koanf:"dir"`
}

// UpdateConfig drives periodic version checks and the external updater tool.
type UpdateConfig struct {
	CheckIntervalMinutes int `koanf:"check_interval_minutes"`

	// DelayMinutes is the grace period granted to online players before an
	// available update is applied.
	DelayMinutes int `koanf:"delay_minutes"`

	// Command and Args invoke the external updater (SteamCMD-style). The
	// orchestrator parses installed/latest build IDs from its output.
	Command    string   `koanf:"command"`
	Args       []string `koanf:"args"`
	InstallDir string   `koanf:"install_dir"`
	AppID      string   `koanf:"app_id"`
}

// RecoveryConfig bounds automatic crash recovery.
type RecoveryConfig struct {
	CooldownMinutes int `koanf:"cooldown_minutes"`
	MaxAttempts     int `koanf:"max_attempts"`

	// EvidenceWindowMinutes is how far back the intentional-stop assessor
	// looks for deliberate-stop evidence.
	EvidenceWindowMinutes int `koanf:"evidence_window_minutes"`
}

// PerformanceConfig holds the FPS bands used to classify performance samples.
// A sample rated at or above Excellent is "Excellent", at or above Good is
// "Good", and so on; below Poor is "Critical".
type PerformanceConfig struct {
	Excellent float64 `koanf:"excellent"`
	Good      float64 `koanf:"good"`
	Fair      float64 `koanf:"fair"`
	Poor      float64 `koanf:"poor"`
}

// LoopConfig tunes the orchestration loop cadence.
type LoopConfig struct {
	// LogCheckIntervalMs is the sleep between ticks while activity is
	// pending (a warning window is near or a start is being awaited).
	LogCheckIntervalMs int `koanf:"log_check_interval_ms"`

	// StatusCheckIntervalMs is the sleep between ticks while stable.
	StatusCheckIntervalMs int `koanf:"status_check_interval_ms"`
}

// NotifyConfig configures the webhook notifier.
type NotifyConfig struct {
	AdminWebhook   string `koanf:"admin_webhook"`
	PlayerWebhook  string `koanf:"player_webhook"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`

	// RatePerMinute caps outbound notifications so warning storms cannot
	// flood the channel. 0 disables the limiter.
	RatePerMinute int `koanf:"rate_per_minute"`
}

// APIConfig configures the admin/ops HTTP surface.
type APIConfig struct {
	Listen string `koanf:"listen"`

	// AuthToken, when set, is required as "Authorization: Bearer <token>"
	// on mutating endpoints.
	AuthToken string `koanf:"auth_token"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes the supervision tree restart policy.
type SupervisorConfig struct {
	// FailureThreshold is the decayed failure count at which a supervisor
	// backs off instead of restarting the child immediately.
	FailureThreshold float64 `koanf:"failure_threshold"`

	// FailureDecaySeconds is the half-life of the accumulated failure
	// count.
	FailureDecaySeconds float64 `koanf:"failure_decay_seconds"`

	FailureBackoffSeconds  int `koanf:"failure_backoff_seconds"`
	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ServiceName:           "",
			LogPath:               "",
			ProfilePath:           "",
			StartupTimeoutMinutes: 10,
		},
		Restarts: RestartConfig{
			Times: []string{"04:00"},
		},
		Backups: BackupConfig{
			IntervalMinutes: 180,
			MaxBackups:      10,
			Compress:        true,
			Dir:             "/var/lib/servkeep/backups",
		},
		Updates: UpdateConfig{
			CheckIntervalMinutes: 60,
			DelayMinutes:         20,
			Command:              "steamcmd",
			Args:                 nil,
			InstallDir:           "",
			AppID:                "223350", // DayZ dedicated server
		},
		Recovery: RecoveryConfig{
			CooldownMinutes:       5,
			MaxAttempts:           3,
			EvidenceWindowMinutes: 15,
		},
		Performance: PerformanceConfig{
			Excellent: 30,
			Good:      20,
			Fair:      15,
			Poor:      10,
		},
		Loop: LoopConfig{
			LogCheckIntervalMs:    500,
			StatusCheckIntervalMs: 5000,
		},
		Notify: NotifyConfig{
			AdminWebhook:   "",
			PlayerWebhook:  "",
			TimeoutSeconds: 5,
			RatePerMinute:  30,
		},
		API: APIConfig{
			Listen:    ":8320",
			AuthToken: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold:       5,
			FailureDecaySeconds:    30,
			FailureBackoffSeconds:  15,
			ShutdownTimeoutSeconds: 10,
		},
	}
}

// StartupTimeout returns the startup timeout as a duration.
func (c ServerConfig) StartupTimeout() time.Duration {
	return time.Duration(c.StartupTimeoutMinutes) * time.Minute
}

// Interval returns the backup interval as a duration.
func (c BackupConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// CheckInterval returns the update-check interval as a duration.
func (c UpdateConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMinutes) * time.Minute
}

// Delay returns the players-online update grace period as a duration.
func (c UpdateConfig) Delay() time.Duration {
	return time.Duration(c.DelayMinutes) * time.Minute
}

// Cooldown returns the auto-restart cooldown as a duration.
func (c RecoveryConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

// EvidenceWindow returns the intentional-stop lookback as a duration.
func (c RecoveryConfig) EvidenceWindow() time.Duration {
	return time.Duration(c.EvidenceWindowMinutes) * time.Minute
}

// ActiveInterval returns the tick sleep while activity is pending.
func (c LoopConfig) ActiveInterval() time.Duration {
	return time.Duration(c.LogCheckIntervalMs) * time.Millisecond
}

// IdleInterval returns the tick sleep while stable.
func (c LoopConfig) IdleInterval() time.Duration {
	return time.Duration(c.StatusCheckIntervalMs) * time.Millisecond
}

// Timeout returns the notifier HTTP timeout as a duration.
func (c NotifyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FailureBackoff returns the supervisor backoff as a duration.
func (c SupervisorConfig) FailureBackoff() time.Duration {
	return time.Duration(c.FailureBackoffSeconds) * time.Second
}

// ShutdownTimeout returns the supervisor shutdown grace as a duration.
func (c SupervisorConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
