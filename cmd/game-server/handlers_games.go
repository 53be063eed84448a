package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sandlot/internal/game/viewmodel"
	"sandlot/internal/session"
	"sandlot/internal/store"
)

func createGameHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TeamID string `json:"team_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		snap, err := registry.Create(r.Context(), requestUser(r).ID, body.TeamID)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

func joinGameHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			JoinCode string `json:"join_code"`
			TeamID   string `json:"team_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		snap, err := registry.Join(r.Context(), requestUser(r).ID, body.JoinCode, body.TeamID)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func listGamesHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := parsePagination(r)
		items, err := registry.History(r.Context(), requestUser(r).ID, limit, offset)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items":  items,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// openGamesHandler lists joinable waiting games. Waiting games are open
// challenges, so their join codes are part of the listing.
func openGamesHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := registry.Open(r.Context())
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// gameDetail is a snapshot plus the inning-by-inning strip, which clients
// render without re-deriving it from raw state.
type gameDetail struct {
	*session.Snapshot
	LineScore *viewmodel.LineScore `json:"line_score,omitempty"`
}

func gameDetailHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := registry.Get(r.Context(), chi.URLParam(r, "game_id"), requestUser(r).ID)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		detail := gameDetail{Snapshot: snap}
		if snap.State != nil {
			ls := viewmodel.BuildLineScore(*snap.State)
			detail.LineScore = &ls
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func rollHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		play, err := registry.Roll(r.Context(), chi.URLParam(r, "game_id"), requestUser(r).ID)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, play)
	}
}

func forfeitHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := registry.Forfeit(r.Context(), chi.URLParam(r, "game_id"), requestUser(r).ID, store.ReasonForfeit)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func cancelGameHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := registry.Cancel(r.Context(), chi.URLParam(r, "game_id"), requestUser(r).ID)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
