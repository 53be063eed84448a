package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"sandlot/internal/config"
	"sandlot/internal/gateway"
	"sandlot/internal/roster"
	"sandlot/internal/session"
	"sandlot/internal/store"
)

// env is a full server wired over the in-memory store, with the demo users
// and teams seeded. home/away hold the demo credentials.
type env struct {
	router   *chi.Mux
	st       store.Store
	registry *session.Registry
	home     store.SeedCredential
	away     store.SeedCredential
	teams    []store.Team
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	return newTestEnvWithConfig(t, config.ServerConfig{AdminAPIKey: "admin-key"})
}

func newTestEnvWithConfig(t *testing.T, cfg config.ServerConfig) *env {
	t.Helper()
	st := store.NewMemory()
	creds, err := store.SeedDemo(context.Background(), st)
	if err != nil {
		t.Fatalf("seed demo: %v", err)
	}
	if len(creds) != 2 {
		t.Fatalf("expected 2 demo credentials, got %d", len(creds))
	}
	teams, err := st.ListTeams(context.Background())
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 demo teams, got %d", len(teams))
	}
	rosters := roster.NewService(st)
	registry := session.NewRegistry(st, rosters, session.Config{
		DisconnectGrace: time.Hour,
		JoinCodeTTL:     time.Hour,
	})
	gw := gateway.NewServer(st, registry)
	return &env{
		router:   newRouter(st, cfg, registry, rosters, gw),
		st:       st,
		registry: registry,
		home:     creds[0],
		away:     creds[1],
		teams:    teams,
	}
}

// do issues one request through the real router. body may be a raw string
// or anything JSON-marshalable; an empty token skips the header.
func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decodeJSON(t, w, &resp)
	return resp.Error
}

func (e *env) createGame(t *testing.T) session.Snapshot {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/games", e.home.Token, map[string]string{"team_id": e.teams[0].ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("create game: %d %s", w.Code, w.Body.String())
	}
	var snap session.Snapshot
	decodeJSON(t, w, &snap)
	return snap
}

func (e *env) joinGame(t *testing.T, code string) session.Snapshot {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/games/join", e.away.Token, map[string]string{
		"join_code": code,
		"team_id":   e.teams[1].ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("join game: %d %s", w.Code, w.Body.String())
	}
	var snap session.Snapshot
	decodeJSON(t, w, &snap)
	return snap
}

func (e *env) startGame(t *testing.T) session.Snapshot {
	t.Helper()
	created := e.createGame(t)
	return e.joinGame(t, created.JoinCode)
}
