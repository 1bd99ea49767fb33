// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/servkeep/servkeep/internal/command"
	"github.com/servkeep/servkeep/internal/config"
	"github.com/servkeep/servkeep/internal/logging"
	"github.com/servkeep/servkeep/internal/logwatch"
	"github.com/servkeep/servkeep/internal/metrics"
	"github.com/servkeep/servkeep/internal/notify"
	"github.com/servkeep/servkeep/internal/recovery"
	"github.com/servkeep/servkeep/internal/sched"
	"github.com/servkeep/servkeep/internal/status"
	"github.com/servkeep/servkeep/internal/version"
)

// reconcileTailLines is how much recent log history seeds the status
// machine at startup.
const reconcileTailLines = 200

// nearWindow is how close a pending execution must be before the loop
// switches to its short sleep interval. Matches the warning-fire window
// so no threshold can be skipped by a long sleep.
const nearWindow = 2 * time.Minute

// ServiceController drives the managed service. Implemented by
// service.SystemdController.
type ServiceController interface {
	IsRunning(ctx context.Context) (bool, error)
	Exists(ctx context.Context) (bool, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context, reason string) error
	Restart(ctx context.Context, reason string) error
}

// LogSource yields new lines from the managed server's log. Implemented
// by logwatch.Follower.
type LogSource interface {
	SeekEnd() error
	Poll() ([]string, error)
	Tail(n int) ([]string, error)
}

// CommandSource yields operator requests queued since the last tick.
// Implemented by command.Queue.
type CommandSource interface {
	Drain() []command.Request
}

// BackupService archives the server profile directory. Implemented by
// backup.Service.
type BackupService interface {
	Create(ctx context.Context, sourcePath string) (string, error)
}

// VersionService checks for and applies game-server updates. Implemented
// by version.Service.
type VersionService interface {
	CheckAvailable(ctx context.Context) (version.BuildInfo, error)
	Update(ctx context.Context) error
}

// Deps are the orchestrator's collaborators, injected for testability.
type Deps struct {
	Controller ServiceController
	Logs       LogSource
	Commands   CommandSource
	Notifier   notify.Notifier
	Backups    BackupService
	Versions   VersionService
	Recovery   *recovery.Controller
}

// Report is the read-only view the status API serves. It is rebuilt at
// the end of every tick so API reads never touch loop-owned state.
type Report struct {
	Status              status.ServerStatus `json:"status"`
	Running             bool                `json:"running"`
	Pending             []PendingAction     `json:"pending_actions"`
	NextPeriodicRestart time.Time           `json:"next_periodic_restart"`
	SkipNextArmed       bool                `json:"skip_next_armed"`
	Recovery            recovery.State      `json:"recovery"`
	NextBackupAt        time.Time           `json:"next_backup_at"`
	NextUpdateCheckAt   time.Time           `json:"next_update_check_at"`
}

// PendingAction is the API view of a scheduled action.
type PendingAction struct {
	ID          string           `json:"id"`
	Kind        sched.ActionKind `json:"kind"`
	RequestedBy string           `json:"requested_by"`
	ScheduledAt time.Time        `json:"scheduled_at"`
}

// Orchestrator is the single cooperative control loop. All lifecycle
// state lives in its fields; nothing is package-level. Only Report and
// the command queue are safe to touch from other goroutines.
type Orchestrator struct {
	cfg *config.Config

	controller ServiceController
	logs       LogSource
	commands   CommandSource
	notifier   notify.Notifier
	backups    BackupService
	versions   VersionService
	recoverer  *recovery.Controller

	parser   *logwatch.Parser
	machine  *status.Machine
	registry *sched.Registry
	periodic *sched.PeriodicScheduler

	running         bool
	lastStatusCheck time.Time
	startupDeadline time.Time

	nextBackupAt      time.Time
	nextUpdateCheckAt time.Time

	reportMu sync.RWMutex
	report   Report

	now func() time.Time
}

// New assembles an orchestrator from configuration and collaborators.
func New(cfg *config.Config, deps Deps) (*Orchestrator, error) {
	return newOrchestrator(cfg, deps, time.Now)
}

// newOrchestrator is the clock-injectable constructor used by tests.
func newOrchestrator(cfg *config.Config, deps Deps, now func() time.Time) (*Orchestrator, error) {
	periodic, err := sched.NewPeriodicScheduler(cfg.Restarts.Times, now())
	if err != nil {
		return nil, fmt.Errorf("restart schedule: %w", err)
	}

	parser := logwatch.NewParser()
	bands := status.Thresholds{
		Excellent: cfg.Performance.Excellent,
		Good:      cfg.Performance.Good,
		Fair:      cfg.Performance.Fair,
		Poor:      cfg.Performance.Poor,
	}

	o := &Orchestrator{
		cfg:        cfg,
		controller: deps.Controller,
		logs:       deps.Logs,
		commands:   deps.Commands,
		notifier:   deps.Notifier,
		backups:    deps.Backups,
		versions:   deps.Versions,
		recoverer:  deps.Recovery,
		parser:     parser,
		machine:    status.NewMachine(bands, parser),
		registry:   sched.NewRegistry(),
		periodic:   periodic,
		now:        now,
	}
	if o.notifier == nil {
		o.notifier = notify.NopNotifier{}
	}
	return o, nil
}

// Report returns the snapshot rebuilt at the end of the last tick.
func (o *Orchestrator) Report() Report {
	o.reportMu.RLock()
	defer o.reportMu.RUnlock()
	return o.report
}

// updateReport rebuilds the API snapshot from loop-owned state. Called
// only from the loop goroutine.
func (o *Orchestrator) updateReport() {
	pending := o.registry.Pending()
	view := make([]PendingAction, len(pending))
	for i, a := range pending {
		view[i] = PendingAction{
			ID:          a.ID.String(),
			Kind:        a.Kind,
			RequestedBy: a.RequestedBy,
			ScheduledAt: a.ScheduledAt,
		}
	}

	o.reportMu.Lock()
	o.report = Report{
		Status:              o.machine.Status(),
		Running:             o.running,
		Pending:             view,
		NextPeriodicRestart: o.periodic.NextAt(),
		SkipNextArmed:       o.periodic.SkipArmed(),
		Recovery:            o.recoverer.State(),
		NextBackupAt:        o.nextBackupAt,
		NextUpdateCheckAt:   o.nextUpdateCheckAt,
	}
	o.reportMu.Unlock()
}

// startup seeds status from the recent log tail and the controller's live
// running flag, then anchors the maintenance timers.
func (o *Orchestrator) startup(ctx context.Context) error {
	now := o.now()

	exists, err := o.controller.Exists(ctx)
	if err != nil {
		logging.Warn().Err(err).
			Str("service", o.cfg.Server.ServiceName).
			Msg("Could not confirm the managed service exists")
	} else if !exists {
		return fmt.Errorf("managed service %q not found", o.cfg.Server.ServiceName)
	}

	running, err := o.controller.IsRunning(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Initial running check failed, assuming not running")
		running = false
	}
	o.running = running
	o.lastStatusCheck = now

	tail, err := o.logs.Tail(reconcileTailLines)
	if err != nil {
		logging.Warn().Err(err).
			Str("log", o.cfg.Server.LogPath).
			Msg("Could not read recent log tail, starting from an empty history")
		tail = nil
	}
	o.machine.Reconcile(tail, running)
	if err := o.logs.SeekEnd(); err != nil {
		return fmt.Errorf("attach to server log: %w", err)
	}

	if o.cfg.Backups.Interval() > 0 {
		o.nextBackupAt = now.Add(o.cfg.Backups.Interval())
	}
	if o.cfg.Updates.CheckInterval() > 0 {
		o.nextUpdateCheckAt = now.Add(o.cfg.Updates.CheckInterval())
	}

	st := o.machine.Status()
	logging.Info().
		Str("service", o.cfg.Server.ServiceName).
		Bool("running", running).
		Str("status", string(st.Kind)).
		Time("next_restart", o.periodic.NextAt()).
		Msg("Orchestrator reconciled startup state")

	o.updateReport()
	return nil
}

// Serve runs the orchestration loop until the context is cancelled. It
// satisfies suture.Service; a panic that escapes the tick guard is
// converted into a service restart by the supervisor.
func (o *Orchestrator) Serve(ctx context.Context) error {
	if err := o.startup(ctx); err != nil {
		return err
	}

	for {
		start := o.now()
		o.safeTick(ctx)
		metrics.ObserveTick(start)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.sleepInterval()):
		}
	}
}

// safeTick runs one tick, catching anything it throws. A broken tick is
// logged and skipped; the loop itself must never die.
func (o *Orchestrator) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TickPanics.Inc()
			logging.Error().
				Interface("panic", r).
				Msg("Tick panicked, resuming on next interval")
		}
	}()
	o.tick(ctx, o.now())
}

// sleepInterval picks the next sleep: short while anything is about to
// happen (pending execution near, service start awaited), longer once
// stable.
func (o *Orchestrator) sleepInterval() time.Duration {
	now := o.now()
	active := o.cfg.Loop.ActiveInterval()
	idle := o.cfg.Loop.IdleInterval()

	if !o.startupDeadline.IsZero() {
		return active
	}
	if deadline, ok := o.registry.NextDeadline(); ok && deadline.Sub(now) <= nearWindow {
		return active
	}
	if o.periodic.NextAt().Sub(now) <= nearWindow {
		return active
	}
	return idle
}
