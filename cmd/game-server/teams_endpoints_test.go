package main

import (
	"net/http"
	"testing"

	"sandlot/internal/store"
)

func TestListTeams(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/teams", e.home.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list teams: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Items []struct {
			TeamID      string `json:"team_id"`
			Name        string `json:"name"`
			City        string `json:"city"`
			DisplayName string `json:"display_name"`
		} `json:"items"`
	}
	decodeJSON(t, w, &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(resp.Items))
	}
	if resp.Items[0].DisplayName != "Harbor City Herons" {
		t.Fatalf("expected Harbor City Herons first, got %q", resp.Items[0].DisplayName)
	}
	if resp.Items[1].DisplayName != "Red Rock Rattlers" {
		t.Fatalf("expected Red Rock Rattlers second, got %q", resp.Items[1].DisplayName)
	}
}

func TestTeamDetailIncludesRoster(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/teams/"+e.teams[0].ID, e.home.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("team detail: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		TeamID string         `json:"team_id"`
		Roster []store.Player `json:"roster"`
	}
	decodeJSON(t, w, &resp)
	if resp.TeamID != e.teams[0].ID {
		t.Fatalf("team id mismatch: %q", resp.TeamID)
	}
	if len(resp.Roster) != 10 {
		t.Fatalf("expected 10 roster slots, got %d", len(resp.Roster))
	}
	if resp.Roster[0].LineupSpot != store.PitcherSpot {
		t.Fatalf("expected pitcher first, got spot %d", resp.Roster[0].LineupSpot)
	}
	for _, p := range resp.Roster[1:] {
		if p.LineupSpot < 1 || p.LineupSpot > 9 {
			t.Fatalf("batter %s has spot %d", p.Name, p.LineupSpot)
		}
	}
}

func TestTeamDetailNotFound(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/teams/nope", e.home.Token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if got := errorCode(t, w); got != "not_found" {
		t.Fatalf("expected not_found, got %q", got)
	}
}
