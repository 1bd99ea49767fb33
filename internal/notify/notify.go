// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package notify delivers lifecycle announcements to chat webhooks.
//
// Two audiences exist: players (restart warnings, downtime notices) and
// admins (crash recovery, update results, operational faults). Each
// audience maps to its own webhook URL; either may be unset, which
// silently drops messages for that audience. Delivery is best effort and
// never blocks orchestration on a slow or dead endpoint.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/servkeep/servkeep/internal/logging"
	"github.com/servkeep/servkeep/internal/metrics"
)

// Audience selects which webhook receives a message.
type Audience string

const (
	AudiencePlayers Audience = "players"
	AudienceAdmins  Audience = "admins"
)

// Notifier is the announcement sink the orchestrator talks to.
type Notifier interface {
	// Notify delivers a message to the audience. Failures are logged,
	// not returned; announcements must never stall the control loop.
	Notify(ctx context.Context, audience Audience, message string)
}

// Delivery tuning.
const (
	defaultTimeout  = 10 * time.Second
	rateBurst       = 5
	breakerFailures = uint32(3)
	breakerOpenFor  = 2 * time.Minute
	maxBodyLength   = 1900
)

// payload is the Discord-compatible webhook body. Other chat systems
// accept the same shape or ignore unknown fields.
type payload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// WebhookConfig configures a webhook notifier.
type WebhookConfig struct {
	// PlayerURL receives player-facing messages. Empty disables the
	// players audience.
	PlayerURL string

	// AdminURL receives operator-facing messages. Empty disables the
	// admins audience.
	AdminURL string

	// Username overrides the webhook's display name when set.
	Username string

	// Timeout bounds each HTTP delivery. Zero means 10s.
	Timeout time.Duration

	// RatePerMinute caps outbound deliveries across both audiences.
	// Messages over the cap are dropped, not queued. Zero disables the
	// limiter.
	RatePerMinute int
}

// WebhookNotifier posts messages to per-audience webhook URLs. Each URL
// gets its own circuit breaker so a dead admin endpoint does not mute
// player warnings.
type WebhookNotifier struct {
	cfg     WebhookConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker map[Audience]*gobreaker.CircuitBreaker[struct{}]
}

// NewWebhookNotifier creates a notifier for the configured URLs.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	perSecond := rate.Inf
	if cfg.RatePerMinute > 0 {
		perSecond = rate.Limit(float64(cfg.RatePerMinute) / 60)
	}
	n := &WebhookNotifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(perSecond, rateBurst),
		breaker: make(map[Audience]*gobreaker.CircuitBreaker[struct{}], 2),
	}
	for _, aud := range []Audience{AudiencePlayers, AudienceAdmins} {
		n.breaker[aud] = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "webhook-" + string(aud),
			Timeout: breakerOpenFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Webhook circuit breaker state change")
			},
		})
	}
	return n
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, audience Audience, message string) {
	url := n.urlFor(audience)
	if url == "" {
		return
	}
	if err := n.send(ctx, audience, url, message); err != nil {
		logging.Warn().
			Err(err).
			Str("audience", string(audience)).
			Msg("Webhook notification failed")
		return
	}
	metrics.NotificationsSent.WithLabelValues(string(audience)).Inc()
	logging.Debug().
		Str("audience", string(audience)).
		Msg("Webhook notification delivered")
}

func (n *WebhookNotifier) urlFor(audience Audience) string {
	switch audience {
	case AudiencePlayers:
		return n.cfg.PlayerURL
	case AudienceAdmins:
		return n.cfg.AdminURL
	default:
		return ""
	}
}

func (n *WebhookNotifier) send(ctx context.Context, audience Audience, url, message string) error {
	message = truncate(message, maxBodyLength)

	// Drop rather than queue; a delayed warning is worth less than the
	// tick it would stall.
	if !n.limiter.Allow() {
		return fmt.Errorf("rate limit exceeded, message dropped")
	}

	body, err := json.Marshal(payload{Content: message, Username: n.cfg.Username})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = n.breaker[audience].Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return struct{}{}, fmt.Errorf("webhook returned %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	return err
}

// truncate shortens s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// NopNotifier discards all messages. Used when no webhooks are
// configured.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Audience, string) {}
