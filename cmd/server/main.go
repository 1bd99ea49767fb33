// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package main is the entry point for the ServKeep daemon.
//
// ServKeep keeps a single game-server service alive, current, and backed
// up. The process initializes in this order:
//
//  1. Configuration: struct defaults, YAML file, environment (koanf v2)
//  2. Logging: zerolog, JSON or console format
//  3. Collaborators: systemd controller, log follower, backup and
//     updater services, webhook notifier
//  4. Orchestrator: the control loop, seeded from the recent log tail
//  5. Admin API: chi HTTP server with status, actions, and metrics
//  6. Supervision: a suture tree running the loop and the API
//
// Shutdown is graceful on SIGINT and SIGTERM: the supervision tree
// cancels its services, the loop finishes its current tick, and the API
// drains in-flight requests.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/servkeep/servkeep/internal/api"
	"github.com/servkeep/servkeep/internal/backup"
	"github.com/servkeep/servkeep/internal/command"
	"github.com/servkeep/servkeep/internal/config"
	"github.com/servkeep/servkeep/internal/logging"
	"github.com/servkeep/servkeep/internal/logwatch"
	"github.com/servkeep/servkeep/internal/notify"
	"github.com/servkeep/servkeep/internal/orchestrator"
	"github.com/servkeep/servkeep/internal/recovery"
	"github.com/servkeep/servkeep/internal/service"
	"github.com/servkeep/servkeep/internal/supervisor"
	"github.com/servkeep/servkeep/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("service", cfg.Server.ServiceName).
		Str("log", cfg.Server.LogPath).
		Strs("restart_times", cfg.Restarts.Times).
		Msg("Starting ServKeep")

	// Service control and the intentional-stop evidence share one action
	// journal: a stop we issued ourselves must never look like a crash.
	controller, journal := service.NewSystemdController(cfg.Server.ServiceName)
	follower := logwatch.NewFollower(cfg.Server.LogPath)
	evidence := service.NewStopEvidence(journal, follower, logwatch.NewParser())

	recoverer := recovery.NewController(
		cfg.Server.ServiceName,
		cfg.Recovery.Cooldown(),
		cfg.Recovery.EvidenceWindow(),
		cfg.Recovery.MaxAttempts,
		evidence,
	)

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notify.AdminWebhook != "" || cfg.Notify.PlayerWebhook != "" {
		notifier = notify.NewWebhookNotifier(notify.WebhookConfig{
			AdminURL:      cfg.Notify.AdminWebhook,
			PlayerURL:     cfg.Notify.PlayerWebhook,
			Username:      "ServKeep",
			Timeout:       cfg.Notify.Timeout(),
			RatePerMinute: cfg.Notify.RatePerMinute,
		})
	}

	queue := command.NewQueue()

	orch, err := orchestrator.New(cfg, orchestrator.Deps{
		Controller: controller,
		Logs:       follower,
		Commands:   queue,
		Notifier:   notifier,
		Backups: backup.NewService(backup.Config{
			Dir:        cfg.Backups.Dir,
			MaxBackups: cfg.Backups.MaxBackups,
			Compress:   cfg.Backups.Compress,
		}),
		Versions: version.NewService(version.Config{
			Command:    cfg.Updates.Command,
			Args:       cfg.Updates.Args,
			InstallDir: cfg.Updates.InstallDir,
			AppID:      cfg.Updates.AppID,
		}),
		Recovery: recoverer,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build orchestrator")
	}

	apiServer := api.NewServer(cfg.API, api.NewHandler(queue, orch))

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecaySeconds,
		FailureBackoff:   cfg.Supervisor.FailureBackoff(),
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout(),
	})
	tree.AddCoreService(orch)
	tree.AddAPIService(apiServer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("ServKeep stopped")
}
