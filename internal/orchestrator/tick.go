// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/servkeep/servkeep/internal/command"
	"github.com/servkeep/servkeep/internal/logging"
	"github.com/servkeep/servkeep/internal/logwatch"
	"github.com/servkeep/servkeep/internal/metrics"
	"github.com/servkeep/servkeep/internal/notify"
	"github.com/servkeep/servkeep/internal/recovery"
	"github.com/servkeep/servkeep/internal/sched"
	"github.com/servkeep/servkeep/internal/service"
	"github.com/servkeep/servkeep/internal/status"
)

// Action triggers, for metrics and admin messages.
const (
	triggerScheduled = "scheduled"
	triggerPeriodic  = "periodic"
	triggerRecovery  = "recovery"
)

// tick runs the fixed step order once. actionTaken is the sole mutual
// exclusion: once a restart or update has been issued this tick, recovery
// and background maintenance stand down until the next one.
func (o *Orchestrator) tick(ctx context.Context, now time.Time) {
	actionTaken := false

	// 1. Refresh the live running flag at the coarser status cadence and
	// watch the startup timeout.
	o.refreshRunning(ctx, now)
	o.checkStartupTimeout(now)

	// 2. Fold new log evidence into the status machine.
	o.consumeLog(now)

	// 3. Register newly arrived operator commands.
	o.applyCommands(ctx, now)

	// 4. Scheduled action warnings and executions.
	warnings, due := o.registry.Tick(now)
	for _, w := range warnings {
		o.warnPlayers(ctx, w.Action.Kind, w.Threshold)
	}
	for _, action := range due {
		o.executeAction(ctx, action, now)
		actionTaken = true
	}

	// 5. Periodic clock-time restart.
	outcome := o.periodic.Tick(now)
	for _, th := range outcome.Warnings {
		o.warnPlayers(ctx, sched.ActionRestart, th)
	}
	switch {
	case outcome.Fire:
		o.performPeriodicRestart(ctx, now)
		actionTaken = true
	case outcome.Skipped:
		logging.Info().Time("next", o.periodic.NextAt()).Msg("Periodic restart skipped by operator request")
		o.notifier.Notify(ctx, notify.AudienceAdmins,
			fmt.Sprintf("Periodic restart skipped; next occurrence %s", o.periodic.NextAt().Format(time.RFC3339)))
	}

	// 6. Crash recovery, only if nothing else touched the service.
	if !actionTaken {
		if o.recoverer.Tick(ctx, now, o.running) == recovery.ActionRestart {
			o.performRecoveryStart(ctx, now)
			actionTaken = true
		}
	}

	// 7. Background maintenance, same exclusion.
	if !actionTaken {
		o.maybeBackup(ctx, now)
		o.maybeCheckUpdate(ctx, now)
	}

	// 8. Publish the fresh snapshot; the sleep choice happens in Serve.
	o.updateReport()
}

// refreshRunning asks the controller for the live running flag at the
// status-check cadence. A transient query failure keeps the previous
// answer rather than inventing a state change.
func (o *Orchestrator) refreshRunning(ctx context.Context, now time.Time) {
	if now.Sub(o.lastStatusCheck) < o.cfg.Loop.IdleInterval() && !o.lastStatusCheck.IsZero() {
		return
	}
	o.lastStatusCheck = now

	running, err := o.controller.IsRunning(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Running check failed, keeping previous state")
		return
	}
	o.running = running
}

// checkStartupTimeout alerts when a start we issued has not reached
// Online within the configured window.
func (o *Orchestrator) checkStartupTimeout(now time.Time) {
	if o.startupDeadline.IsZero() || now.Before(o.startupDeadline) {
		return
	}
	o.startupDeadline = time.Time{}
	if o.machine.Status().IsOnline {
		return
	}
	logging.Error().
		Dur("timeout", o.cfg.Server.StartupTimeout()).
		Msg("Server did not come online within the startup timeout")
	o.notifier.Notify(context.Background(), notify.AudienceAdmins,
		fmt.Sprintf("Server did not come online within %s of being started", o.cfg.Server.StartupTimeout()))
}

// consumeLog folds new log lines into the status machine and reacts to
// confirmed transitions.
func (o *Orchestrator) consumeLog(now time.Time) {
	lines, err := o.logs.Poll()
	if err != nil {
		logging.Warn().Err(err).Str("log", o.cfg.Server.LogPath).Msg("Log poll failed")
		return
	}

	for _, line := range lines {
		metrics.LogLinesProcessed.Inc()
		tr := o.machine.Apply(o.parser.Parse(line))
		if !tr.Changed {
			continue
		}
		o.onTransition(tr)
	}
}

// onTransition handles a confirmed status change: bookkeeping, metrics,
// and the player-facing announcement.
func (o *Orchestrator) onTransition(tr status.Transition) {
	cur := tr.Current
	metrics.ServerStatus.Set(float64(cur.Kind.Priority()))
	metrics.PlayerCount.Set(float64(cur.PlayerCount))
	if cur.Performance != nil {
		metrics.ServerFPS.Set(cur.Performance.AvgFPS)
	}

	logging.Info().
		Str("from", string(tr.Previous.Kind)).
		Str("to", string(cur.Kind)).
		Str("message", cur.Message).
		Msg("Server status changed")

	if cur.Kind == logwatch.KindOnline {
		o.recoverer.NoteOnline()
		o.startupDeadline = time.Time{}
	}
	if tr.Announce {
		o.notifier.Notify(context.Background(), notify.AudiencePlayers, cur.Message)
	}
}

// applyCommands drains the operator queue and applies each request.
func (o *Orchestrator) applyCommands(ctx context.Context, now time.Time) {
	for _, req := range o.commands.Drain() {
		log := logging.With().
			Str("request_id", req.ID.String()).
			Str("op", string(req.Op)).
			Str("requested_by", req.RequestedBy).
			Logger()

		switch req.Op {
		case command.OpSchedule:
			delay := time.Duration(req.DelayMinutes) * time.Minute
			if req.At != "" {
				tod, err := sched.ParseTimeOfDay(req.At)
				if err != nil {
					log.Warn().Err(err).Msg("Schedule request ignored")
					continue
				}
				delay = sched.NextOccurrence([]sched.TimeOfDay{tod}, now).Sub(now)
			}
			action := o.registry.Schedule(req.Action, delay, req.RequestedBy, now)
			log.Info().Str("action", string(req.Action)).Time("at", action.ScheduledAt).Msg("Action scheduled")
			o.notifier.Notify(ctx, notify.AudienceAdmins,
				fmt.Sprintf("%s scheduled for %s by %s",
					string(req.Action), action.ScheduledAt.Format("15:04"), req.RequestedBy))

		case command.OpCancel:
			if cancelled := o.registry.Cancel(req.Action); cancelled != nil {
				log.Info().Str("action", string(req.Action)).Msg("Action cancelled")
				o.notifier.Notify(ctx, notify.AudienceAdmins,
					fmt.Sprintf("Pending %s cancelled by %s", string(req.Action), req.RequestedBy))
			} else {
				log.Info().Str("action", string(req.Action)).Msg("Cancel ignored, nothing pending")
			}

		case command.OpSkipNext:
			o.periodic.SkipNext()
			log.Info().Time("next", o.periodic.NextAt()).Msg("Next periodic restart will be skipped")
			o.notifier.Notify(ctx, notify.AudienceAdmins,
				fmt.Sprintf("Next periodic restart (%s) will be skipped, requested by %s",
					o.periodic.NextAt().Format("15:04"), req.RequestedBy))

		default:
			log.Warn().Msg("Unknown operator command ignored")
		}
	}
}

// warnPlayers announces one tiered warning.
func (o *Orchestrator) warnPlayers(ctx context.Context, kind sched.ActionKind, threshold time.Duration) {
	minutes := int(threshold.Minutes())
	metrics.WarningsSent.WithLabelValues(string(kind)).Inc()
	logging.Info().Str("action", string(kind)).Int("minutes", minutes).Msg("Warning players")

	var text string
	switch kind {
	case sched.ActionStop:
		text = fmt.Sprintf("Server shutdown in %d minute(s)", minutes)
	case sched.ActionUpdate:
		text = fmt.Sprintf("Server update in %d minute(s), expect a short downtime", minutes)
	default:
		text = fmt.Sprintf("Server restart in %d minute(s)", minutes)
	}
	o.notifier.Notify(ctx, notify.AudiencePlayers, text)
}

// executeAction performs a due scheduled action. The action has already
// left the registry; failures are reported, never retried at the same
// instant.
func (o *Orchestrator) executeAction(ctx context.Context, action *sched.ScheduledAction, now time.Time) {
	metrics.ActionsPerformed.WithLabelValues(string(action.Kind), triggerScheduled).Inc()

	switch action.Kind {
	case sched.ActionRestart:
		o.performRestart(ctx, now, triggerScheduled, "scheduled restart")
	case sched.ActionStop:
		o.performStop(ctx, action.RequestedBy)
	case sched.ActionUpdate:
		o.performUpdate(ctx, now)
	}
}

// performRestart restarts the service and reports the outcome.
func (o *Orchestrator) performRestart(ctx context.Context, now time.Time, trigger, reason string) {
	err := o.controller.Restart(ctx, reason)
	if err != nil {
		o.reportControlFailure(ctx, "restart", err)
		return
	}
	o.running = true
	o.startupDeadline = now.Add(o.cfg.Server.StartupTimeout())
	logging.Info().Str("trigger", trigger).Msg("Server restart issued")
	o.notifier.Notify(ctx, notify.AudienceAdmins, fmt.Sprintf("Server restarted (%s)", trigger))
}

// performStop stops the service on operator request and marks the stop
// intentional so recovery does not fight it.
func (o *Orchestrator) performStop(ctx context.Context, requestedBy string) {
	err := o.controller.Stop(ctx, "stop requested by "+requestedBy)
	if err != nil {
		o.reportControlFailure(ctx, "stop", err)
		return
	}
	o.running = false
	o.recoverer.NoteIntentionalStop()
	logging.Info().Str("requested_by", requestedBy).Msg("Server stopped")
	o.notifier.Notify(ctx, notify.AudienceAdmins, "Server stopped as scheduled")
}

// performUpdate runs the stop, update, start sequence. The server is
// started again even when the updater fails; a stale server beats no
// server.
func (o *Orchestrator) performUpdate(ctx context.Context, now time.Time) {
	o.notifier.Notify(ctx, notify.AudiencePlayers, "Server is going down for an update")

	if err := o.controller.Stop(ctx, "update"); err != nil {
		o.reportControlFailure(ctx, "stop for update", err)
		return
	}
	o.running = false
	o.recoverer.NoteIntentionalStop()

	updateErr := o.versions.Update(ctx)
	if updateErr != nil {
		logging.Error().Err(updateErr).Msg("Update failed")
	}

	if err := o.controller.Start(ctx); err != nil {
		o.reportControlFailure(ctx, "start after update", err)
		return
	}
	o.running = true
	o.startupDeadline = now.Add(o.cfg.Server.StartupTimeout())

	if updateErr != nil {
		o.notifier.Notify(ctx, notify.AudienceAdmins,
			fmt.Sprintf("Update failed (%v); server restarted on the previous build", updateErr))
		return
	}
	o.notifier.Notify(ctx, notify.AudienceAdmins, "Server updated and restarted")
}

// performPeriodicRestart runs the backup-then-restart sequence of a due
// clock-time occurrence. A failed backup is reported but does not block
// the restart.
func (o *Orchestrator) performPeriodicRestart(ctx context.Context, now time.Time) {
	metrics.ActionsPerformed.WithLabelValues(string(sched.ActionRestart), triggerPeriodic).Inc()

	start := o.now()
	path, err := o.backups.Create(ctx, o.cfg.Server.ProfilePath)
	if err != nil {
		logging.Error().Err(err).Msg("Pre-restart backup failed")
		o.notifier.Notify(ctx, notify.AudienceAdmins, fmt.Sprintf("Pre-restart backup failed: %v", err))
	} else {
		metrics.BackupsCreated.Inc()
		metrics.BackupDuration.Observe(o.now().Sub(start).Seconds())
		logging.Info().Str("backup", path).Msg("Pre-restart backup complete")
	}
	if o.cfg.Backups.Interval() > 0 {
		o.nextBackupAt = now.Add(o.cfg.Backups.Interval())
	}

	o.performRestart(ctx, now, triggerPeriodic, "periodic restart")
}

// performRecoveryStart starts the crashed service on the recovery
// controller's verdict.
func (o *Orchestrator) performRecoveryStart(ctx context.Context, now time.Time) {
	metrics.RecoveryAttempts.Inc()
	metrics.ActionsPerformed.WithLabelValues(string(sched.ActionRestart), triggerRecovery).Inc()

	if err := o.controller.Start(ctx); err != nil {
		o.reportControlFailure(ctx, "recovery start", err)
		return
	}
	o.running = true
	o.startupDeadline = now.Add(o.cfg.Server.StartupTimeout())
	state := o.recoverer.State()
	o.notifier.Notify(ctx, notify.AudienceAdmins,
		fmt.Sprintf("Server was down unexpectedly; restarted (attempt %d)", state.ConsecutiveAttempts))
}

// maybeBackup runs the interval backup when due.
func (o *Orchestrator) maybeBackup(ctx context.Context, now time.Time) {
	if o.nextBackupAt.IsZero() || now.Before(o.nextBackupAt) {
		return
	}
	o.nextBackupAt = now.Add(o.cfg.Backups.Interval())

	start := o.now()
	path, err := o.backups.Create(ctx, o.cfg.Server.ProfilePath)
	if err != nil {
		logging.Error().Err(err).Msg("Periodic backup failed")
		o.notifier.Notify(ctx, notify.AudienceAdmins, fmt.Sprintf("Periodic backup failed: %v", err))
		return
	}
	metrics.BackupsCreated.Inc()
	metrics.BackupDuration.Observe(o.now().Sub(start).Seconds())
	logging.Info().Str("backup", path).Msg("Periodic backup complete")
}

// maybeCheckUpdate polls the updater when due and schedules the update
// action when a new build is published. The delay honors the players
// currently online; an empty server updates immediately.
func (o *Orchestrator) maybeCheckUpdate(ctx context.Context, now time.Time) {
	if o.nextUpdateCheckAt.IsZero() || now.Before(o.nextUpdateCheckAt) {
		return
	}
	o.nextUpdateCheckAt = now.Add(o.cfg.Updates.CheckInterval())

	info, err := o.versions.CheckAvailable(ctx)
	if err != nil {
		metrics.UpdateChecks.WithLabelValues("error").Inc()
		logging.Warn().Err(err).Msg("Update check failed")
		return
	}
	if !info.Available {
		metrics.UpdateChecks.WithLabelValues("current").Inc()
		return
	}
	metrics.UpdateChecks.WithLabelValues("available").Inc()

	if o.registry.Get(sched.ActionUpdate) != nil {
		return
	}

	var delay time.Duration
	if o.machine.Status().PlayerCount > 0 {
		delay = o.cfg.Updates.Delay()
	}
	o.registry.Schedule(sched.ActionUpdate, delay, "auto-updater", now)
	logging.Info().
		Str("installed", info.Installed).
		Str("latest", info.Latest).
		Dur("delay", delay).
		Msg("New server build found, update scheduled")
	o.notifier.Notify(ctx, notify.AudienceAdmins,
		fmt.Sprintf("New server build %s available (installed %s), update scheduled in %d minute(s)",
			info.Latest, info.Installed, int(delay.Minutes())))
}

// reportControlFailure logs and notifies a service-control failure. Fatal
// failures (missing unit, permissions) are called out so the operator
// knows retries will not help.
func (o *Orchestrator) reportControlFailure(ctx context.Context, op string, err error) {
	fatal := service.IsFatal(err)
	logging.Error().Err(err).Str("op", op).Bool("fatal", fatal).Msg("Service control failed")

	text := fmt.Sprintf("Service %s failed: %v", op, err)
	if fatal {
		text += " (not retryable, operator attention required)"
	}
	o.notifier.Notify(ctx, notify.AudienceAdmins, text)
}
