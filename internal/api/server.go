// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/servkeep/servkeep/internal/config"
	"github.com/servkeep/servkeep/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server is the admin HTTP server. It satisfies suture.Service.
type Server struct {
	srv *http.Server
}

// NewServer builds the admin API server from configuration.
func NewServer(cfg config.APIConfig, handler *Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Listen,
			Handler:           NewRouter(handler, cfg.AuthToken),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Serve runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("listen", s.srv.Addr).Msg("Admin API listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("Admin API shutdown was not clean")
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
