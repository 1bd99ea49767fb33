// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servkeep/servkeep/internal/middleware"
)

// NewRouter wires the admin API routes. Operational endpoints (healthz,
// metrics) stay open; the /api/v1 surface is protected by the bearer
// token when one is configured.
func NewRouter(h *Handler, authToken string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(bearerAuth(authToken))

		r.Get("/status", h.Status)
		r.Post("/actions", h.ScheduleAction)
		r.Delete("/actions/{kind}", h.CancelAction)
		r.Post("/restarts/skip-next", h.SkipNextRestart)
	})

	return r
}

// bearerAuth rejects requests without the configured static token. An
// empty token disables the check, for deployments where the API is bound
// to localhost only.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
