// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/servkeep/servkeep/internal/command"
	"github.com/servkeep/servkeep/internal/logging"
	"github.com/servkeep/servkeep/internal/orchestrator"
	"github.com/servkeep/servkeep/internal/sched"
	"github.com/servkeep/servkeep/internal/validation"
)

// maxRequestBody bounds operator request bodies. The largest legitimate
// request is a few hundred bytes.
const maxRequestBody = 4 << 10

// ReportSource is the read side of the orchestrator the API serves.
type ReportSource interface {
	Report() orchestrator.Report
}

// Handler serves the admin API. Writes go through the command queue and
// take effect on the next orchestration tick; reads come from the last
// tick's snapshot.
type Handler struct {
	queue   *command.Queue
	reports ReportSource
}

// NewHandler creates the admin API handler.
func NewHandler(queue *command.Queue, reports ReportSource) *Handler {
	return &Handler{queue: queue, reports: reports}
}

// apiError is the JSON error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal API response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write API response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status returns the last tick's orchestrator snapshot.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.reports.Report())
}

type scheduleActionRequest struct {
	Action       string `json:"action" validate:"required,actionkind"`
	DelayMinutes int    `json:"delay_minutes" validate:"gte=0,lte=1440"`
	At           string `json:"at" validate:"omitempty,timeofday"`
	RequestedBy  string `json:"requested_by" validate:"omitempty,max=64"`
}

type acceptedResponse struct {
	RequestID  string    `json:"request_id"`
	ReceivedAt time.Time `json:"received_at"`
}

// ScheduleAction queues a restart, stop or update, either after a delay
// or at the next occurrence of an "HH:mm" clock time.
func (h *Handler) ScheduleAction(w http.ResponseWriter, r *http.Request) {
	var req scheduleActionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error())
		return
	}
	if req.At != "" && req.DelayMinutes != 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "at and delay_minutes are mutually exclusive")
		return
	}
	if req.RequestedBy == "" {
		req.RequestedBy = "api"
	}

	queued, err := h.queue.Submit(command.OpSchedule, sched.ActionKind(req.Action), req.DelayMinutes, req.At, req.RequestedBy)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "QUEUE_FULL", err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, acceptedResponse{
		RequestID:  queued.ID.String(),
		ReceivedAt: queued.ReceivedAt,
	})
}

// CancelAction queues cancellation of the pending action of a kind.
func (h *Handler) CancelAction(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !sched.ValidActionKind(kind) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "kind must be one of: restart, stop, update")
		return
	}

	queued, err := h.queue.Submit(command.OpCancel, sched.ActionKind(kind), 0, "", requester(r))
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "QUEUE_FULL", err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, acceptedResponse{
		RequestID:  queued.ID.String(),
		ReceivedAt: queued.ReceivedAt,
	})
}

// SkipNextRestart queues the one-shot skip of the next periodic restart.
func (h *Handler) SkipNextRestart(w http.ResponseWriter, r *http.Request) {
	queued, err := h.queue.Submit(command.OpSkipNext, "", 0, "", requester(r))
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "QUEUE_FULL", err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, acceptedResponse{
		RequestID:  queued.ID.String(),
		ReceivedAt: queued.ReceivedAt,
	})
}

// decodeBody reads and decodes a bounded JSON request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	return json.NewDecoder(r.Body).Decode(v)
}

// requester extracts the optional caller identity header.
func requester(r *http.Request) string {
	if who := r.Header.Get("X-Requested-By"); who != "" {
		return who
	}
	return "api"
}
