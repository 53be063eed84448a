package main

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"sandlot/internal/config"
	"sandlot/internal/gateway"
	"sandlot/internal/roster"
	"sandlot/internal/session"
	"sandlot/internal/store"
)

func newRouter(st store.Store, cfg config.ServerConfig, registry *session.Registry, rosters *roster.Service, gw *gateway.Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st))

	// The websocket endpoint stays outside the logging middleware: the
	// upgrade needs the raw http.ResponseWriter to hijack the connection.
	r.Get("/ws", gw.HandleWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Use(bodyCaptureMiddleware(4096))

		r.Post("/users/register", registerUserHandler(st))

		r.Group(func(r chi.Router) {
			r.Use(userAuthMiddleware(st))
			r.Get("/users/me", userMeHandler())
			r.Get("/teams", listTeamsHandler(rosters))
			r.Get("/teams/{team_id}", teamDetailHandler(st))
			r.Post("/games", createGameHandler(registry))
			r.Post("/games/join", joinGameHandler(registry))
			r.Get("/games", listGamesHandler(registry))
			r.Get("/games/open", openGamesHandler(registry))
			r.Get("/games/{game_id}", gameDetailHandler(registry))
			r.Post("/games/{game_id}/roll", rollHandler(registry))
			r.Post("/games/{game_id}/forfeit", forfeitHandler(registry))
			r.Post("/games/{game_id}/cancel", cancelGameHandler(registry))
		})

		r.Group(func(r chi.Router) {
			r.Use(adminAuthMiddleware(cfg.AdminAPIKey))
			r.Get("/admin/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func healthHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}
}

func logRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
