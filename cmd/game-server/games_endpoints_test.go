package main

import (
	"net/http"
	"testing"

	"sandlot/internal/game/viewmodel"
	"sandlot/internal/session"
	"sandlot/internal/store"
)

func TestGameLifecycleOverREST(t *testing.T) {
	e := newTestEnv(t)

	created := e.createGame(t)
	if created.Status != store.GameWaiting {
		t.Fatalf("expected waiting, got %q", created.Status)
	}
	if len(created.JoinCode) != 6 {
		t.Fatalf("expected 6-char join code, got %q", created.JoinCode)
	}
	if created.Home == nil || created.Home.TeamName != "Harbor City Herons" {
		t.Fatalf("unexpected home view: %+v", created.Home)
	}
	if created.Visitor != nil || created.State != nil {
		t.Fatalf("waiting game should have no visitor or state")
	}

	joined := e.joinGame(t, created.JoinCode)
	if joined.Status != store.GameActive {
		t.Fatalf("expected active after join, got %q", joined.Status)
	}
	if joined.JoinCode != "" {
		t.Fatalf("active snapshot leaked join code %q", joined.JoinCode)
	}
	if joined.Visitor == nil || joined.Visitor.TeamName != "Red Rock Rattlers" {
		t.Fatalf("unexpected visitor view: %+v", joined.Visitor)
	}
	if joined.State == nil || joined.State.Inning != 1 {
		t.Fatalf("expected top of the 1st, got %+v", joined.State)
	}

	// A consumed code cannot seat anyone else.
	w := e.do(t, http.MethodPost, "/api/games/join", e.home.Token, map[string]string{
		"join_code": created.JoinCode,
		"team_id":   e.teams[0].ID,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on spent code, got %d", w.Code)
	}

	// Visitors bat first; the home player is not up.
	w = e.do(t, http.MethodPost, "/api/games/"+created.GameID+"/roll", e.home.Token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 out of turn, got %d %s", w.Code, w.Body.String())
	}
	if got := errorCode(t, w); got != "not_your_turn" {
		t.Fatalf("expected not_your_turn, got %q", got)
	}

	w = e.do(t, http.MethodPost, "/api/games/"+created.GameID+"/roll", e.away.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("roll: %d %s", w.Code, w.Body.String())
	}
	var play session.PlayOutcome
	decodeJSON(t, w, &play)
	if play.GameID != created.GameID {
		t.Fatalf("play for wrong game: %q", play.GameID)
	}
	for _, d := range play.Dice {
		if d < 1 || d > 6 {
			t.Fatalf("die out of range: %v", play.Dice)
		}
	}
	if !play.Outcome.Valid() {
		t.Fatalf("invalid outcome %q", play.Outcome)
	}
	if play.Description == "" {
		t.Fatalf("expected a play description")
	}

	w = e.do(t, http.MethodGet, "/api/games/"+created.GameID, e.home.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("game detail: %d %s", w.Code, w.Body.String())
	}
	var detail struct {
		session.Snapshot
		LineScore *viewmodel.LineScore `json:"line_score"`
	}
	decodeJSON(t, w, &detail)
	if detail.LineScore == nil || len(detail.LineScore.Innings) == 0 {
		t.Fatalf("expected a line score on an active game")
	}

	w = e.do(t, http.MethodPost, "/api/games/"+created.GameID+"/forfeit", e.home.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("forfeit: %d %s", w.Code, w.Body.String())
	}
	var ended session.Snapshot
	decodeJSON(t, w, &ended)
	if ended.Status != store.GameEnded {
		t.Fatalf("expected ended, got %q", ended.Status)
	}
	if ended.Result == nil || ended.Result.WinnerUserID != e.away.UserID || ended.Result.Reason != store.ReasonForfeit {
		t.Fatalf("unexpected result: %+v", ended.Result)
	}

	// Ended games still answer detail reads for participants.
	w = e.do(t, http.MethodGet, "/api/games/"+created.GameID, e.away.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("detail after end: %d", w.Code)
	}

	// But they no longer take commands.
	w = e.do(t, http.MethodPost, "/api/games/"+created.GameID+"/roll", e.away.Token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 rolling an ended game, got %d", w.Code)
	}
}

func TestCancelGameOverREST(t *testing.T) {
	e := newTestEnv(t)
	created := e.createGame(t)

	w := e.do(t, http.MethodPost, "/api/games/"+created.GameID+"/cancel", e.away.Token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-creator cancel, got %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/games/"+created.GameID+"/cancel", e.home.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: %d %s", w.Code, w.Body.String())
	}
	var snap session.Snapshot
	decodeJSON(t, w, &snap)
	if snap.Status != store.GameEnded || snap.Result == nil || snap.Result.Reason != store.ReasonCancelled {
		t.Fatalf("unexpected cancel snapshot: %+v", snap)
	}
	if snap.Result.WinnerUserID != "" {
		t.Fatalf("cancelled game should have no winner, got %q", snap.Result.WinnerUserID)
	}

	w = e.do(t, http.MethodPost, "/api/games/join", e.away.Token, map[string]string{
		"join_code": created.JoinCode,
		"team_id":   e.teams[1].ID,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 joining a cancelled game, got %d", w.Code)
	}

	// Active games cannot be cancelled, only forfeited.
	active := e.startGame(t)
	w = e.do(t, http.MethodPost, "/api/games/"+active.GameID+"/cancel", e.home.Token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 cancelling an active game, got %d", w.Code)
	}
}

func TestGameAccessControl(t *testing.T) {
	e := newTestEnv(t)
	active := e.startGame(t)

	w := e.do(t, http.MethodPost, "/api/users/register", "", `{"name":"bystander"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register bystander: %d", w.Code)
	}
	var outsider struct {
		Token string `json:"token"`
	}
	decodeJSON(t, w, &outsider)

	w = e.do(t, http.MethodGet, "/api/games/"+active.GameID, outsider.Token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for outsider detail, got %d", w.Code)
	}
	if got := errorCode(t, w); got != "forbidden" {
		t.Fatalf("expected forbidden, got %q", got)
	}

	w = e.do(t, http.MethodPost, "/api/games/"+active.GameID+"/roll", outsider.Token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for outsider roll, got %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/games/missing", e.home.Token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown game, got %d", w.Code)
	}
}

func TestGameRequestValidation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/games", e.home.Token, `{`)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "invalid_json" {
		t.Fatalf("expected invalid_json, got %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/games", e.home.Token, map[string]string{"team_id": "nope"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown team, got %d", w.Code)
	}
	if got := errorCode(t, w); got != "validation" {
		t.Fatalf("expected validation, got %q", got)
	}

	w = e.do(t, http.MethodPost, "/api/games/join", e.away.Token, `{`)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "invalid_json" {
		t.Fatalf("expected invalid_json on join, got %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/games/join", e.away.Token, map[string]string{
		"join_code": "",
		"team_id":   e.teams[1].ID,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank code, got %d", w.Code)
	}
}

func TestOpenGamesOverREST(t *testing.T) {
	e := newTestEnv(t)
	created := e.createGame(t)

	w := e.do(t, http.MethodGet, "/api/games/open", e.away.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("open games: %d", w.Code)
	}
	var resp struct {
		Items []session.Snapshot `json:"items"`
	}
	decodeJSON(t, w, &resp)
	if len(resp.Items) != 1 || resp.Items[0].GameID != created.GameID {
		t.Fatalf("expected the waiting game listed, got %+v", resp.Items)
	}
	if resp.Items[0].JoinCode != created.JoinCode {
		t.Fatalf("open listing should advertise the join code")
	}

	e.joinGame(t, created.JoinCode)
	w = e.do(t, http.MethodGet, "/api/games/open", e.away.Token, nil)
	decodeJSON(t, w, &resp)
	if len(resp.Items) != 0 {
		t.Fatalf("expected no open games after join, got %d", len(resp.Items))
	}
}

func TestHistoryPaginationOverREST(t *testing.T) {
	e := newTestEnv(t)
	for i := 0; i < 3; i++ {
		e.createGame(t)
	}

	w := e.do(t, http.MethodGet, "/api/games?limit=2", e.home.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: %d", w.Code)
	}
	var page struct {
		Items  []session.Snapshot `json:"items"`
		Limit  int                `json:"limit"`
		Offset int                `json:"offset"`
	}
	decodeJSON(t, w, &page)
	if page.Limit != 2 || len(page.Items) != 2 {
		t.Fatalf("expected 2 items with limit 2, got %d (limit %d)", len(page.Items), page.Limit)
	}

	w = e.do(t, http.MethodGet, "/api/games?limit=2&offset=2", e.home.Token, nil)
	decodeJSON(t, w, &page)
	if len(page.Items) != 1 || page.Offset != 2 {
		t.Fatalf("expected 1 item at offset 2, got %d", len(page.Items))
	}

	// The visitor has played nothing yet.
	w = e.do(t, http.MethodGet, "/api/games", e.away.Token, nil)
	decodeJSON(t, w, &page)
	if len(page.Items) != 0 {
		t.Fatalf("expected empty history for the visitor, got %d", len(page.Items))
	}
}
