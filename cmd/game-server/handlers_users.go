package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"sandlot/internal/store"
)

const maxUserNameLen = 32

// registerUserHandler mints a new user and returns the API token. The token
// is shown exactly once; the store only keeps its hash.
func registerUserHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		name := strings.TrimSpace(body.Name)
		if name == "" || utf8.RuneCountInString(name) > maxUserNameLen {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		token, err := store.NewToken()
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		u := store.User{ID: store.NewID(), Name: name, TokenHash: store.HashToken(token)}
		if err := st.CreateUser(r.Context(), u); err != nil {
			if errors.Is(err, store.ErrConflict) {
				writeHTTPError(w, http.StatusConflict, "name_taken")
				return
			}
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"user_id": u.ID,
			"name":    u.Name,
			"token":   token,
		})
	}
}

func userMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := requestUser(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":    u.ID,
			"name":       u.Name,
			"created_at": u.CreatedAt,
		})
	}
}
