// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

func TestWebhookNotifierDelivers(t *testing.T) {
	t.Parallel()

	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.Store(string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{PlayerURL: srv.URL, Username: "ServKeep"})
	n.Notify(context.Background(), AudiencePlayers, "Server restart in 5 minutes")

	raw, ok := got.Load().(string)
	if !ok {
		t.Fatal("webhook was never called")
	}
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if p.Content != "Server restart in 5 minutes" {
		t.Errorf("content = %q", p.Content)
	}
	if p.Username != "ServKeep" {
		t.Errorf("username = %q", p.Username)
	}
}

func TestWebhookNotifierAudienceRouting(t *testing.T) {
	t.Parallel()

	var playerHits, adminHits atomic.Int32
	playerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		playerHits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer playerSrv.Close()
	adminSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		adminHits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer adminSrv.Close()

	n := NewWebhookNotifier(WebhookConfig{PlayerURL: playerSrv.URL, AdminURL: adminSrv.URL})
	n.Notify(context.Background(), AudiencePlayers, "warning")
	n.Notify(context.Background(), AudienceAdmins, "crash recovered")

	if playerHits.Load() != 1 {
		t.Errorf("player webhook hits = %d, want 1", playerHits.Load())
	}
	if adminHits.Load() != 1 {
		t.Errorf("admin webhook hits = %d, want 1", adminHits.Load())
	}
}

func TestWebhookNotifierUnconfiguredAudienceIsSilent(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{PlayerURL: srv.URL})
	n.Notify(context.Background(), AudienceAdmins, "should be dropped")

	if hits.Load() != 0 {
		t.Errorf("webhook hits = %d, want 0", hits.Load())
	}
}

func TestWebhookNotifierBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{PlayerURL: srv.URL})
	for range 5 {
		n.Notify(context.Background(), AudiencePlayers, "msg")
	}

	// Breaker trips after three consecutive failures; later sends are
	// short-circuited without reaching the endpoint.
	if hits.Load() != 3 {
		t.Errorf("webhook hits = %d, want 3", hits.Load())
	}
}

func TestWebhookNotifierTruncatesLongMessages(t *testing.T) {
	t.Parallel()

	var gotLen atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p payload
		if err := json.Unmarshal(body, &p); err != nil {
			t.Errorf("unmarshal: %v", err)
		}
		gotLen.Store(int32(len(p.Content)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{PlayerURL: srv.URL})
	n.Notify(context.Background(), AudiencePlayers, strings.Repeat("x", 5000))

	if gotLen.Load() != maxBodyLength {
		t.Errorf("delivered content length = %d, want %d", gotLen.Load(), maxBodyLength)
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"ascii cut", "hello", 3, "hel"},
		{"cut inside rune", "aéb", 2, "a"},
		{"cut between runes", "aéb", 3, "aé"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := truncate(tc.in, tc.max)
			if got != tc.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8", tc.in, tc.max)
			}
		})
	}
}

func TestWebhookNotifierDropsOverRateMessages(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{PlayerURL: srv.URL, RatePerMinute: 6})
	for range 8 {
		n.Notify(context.Background(), AudiencePlayers, "warning")
	}

	// Sends beyond the burst are dropped immediately, never queued.
	if hits.Load() != rateBurst {
		t.Errorf("webhook hits = %d, want %d", hits.Load(), rateBurst)
	}
}

func TestWebhookNotifierZeroRateDisablesLimiter(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{PlayerURL: srv.URL})
	for range 20 {
		n.Notify(context.Background(), AudiencePlayers, "warning")
	}

	if hits.Load() != 20 {
		t.Errorf("webhook hits = %d, want 20", hits.Load())
	}
}

func TestNopNotifier(t *testing.T) {
	t.Parallel()

	// Must not panic or block.
	NopNotifier{}.Notify(context.Background(), AudiencePlayers, "dropped")
}
