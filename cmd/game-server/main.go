package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"sandlot/internal/config"
	"sandlot/internal/gateway"
	"sandlot/internal/logging"
	"sandlot/internal/roster"
	"sandlot/internal/session"
	"sandlot/internal/store"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	closeLogs, err := logging.Init(logCfg)
	if err != nil {
		panic(err)
	}
	defer closeLogs()

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	if cfg.SeedDemoData {
		creds, err := store.SeedDemo(ctx, st)
		if err != nil {
			log.Fatal().Err(err).Msg("seed demo data failed")
		}
		// Demo tokens are logged exactly once, at startup. Only their
		// hashes live in the store.
		for _, c := range creds {
			log.Info().
				Str("user", c.Name).
				Str("user_id", c.UserID).
				Str("token", c.Token).
				Msg("demo credential")
		}
	}

	rosters := roster.NewService(st)
	registry := session.NewRegistry(st, rosters, session.Config{
		DisconnectGrace: cfg.DisconnectGrace,
		JoinCodeTTL:     cfg.JoinCodeTTL,
	})
	if err := registry.Rehydrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("rehydrate open games failed")
	}
	registry.StartSweeper(ctx, cfg.SweepInterval)

	gw := gateway.NewServer(st, registry)
	r := newRouter(st, cfg, registry, rosters, gw)
	logRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
