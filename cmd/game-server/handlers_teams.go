package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sandlot/internal/roster"
	"sandlot/internal/store"
)

func listTeamsHandler(rosters *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := rosters.Teams(r.Context())
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		items := make([]map[string]any, 0, len(teams))
		for _, t := range teams {
			items = append(items, map[string]any{
				"team_id":      t.ID,
				"name":         t.Name,
				"city":         t.City,
				"display_name": roster.DisplayName(t),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// teamDetailHandler returns the team plus its full roster with ratings,
// pitcher first.
func teamDetailHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "team_id")
		team, err := st.GetTeam(r.Context(), teamID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeHTTPError(w, http.StatusNotFound, "not_found")
				return
			}
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		players, err := st.ListRoster(r.Context(), teamID)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"team_id":      team.ID,
			"name":         team.Name,
			"city":         team.City,
			"display_name": roster.DisplayName(*team),
			"roster":       players,
		})
	}
}
