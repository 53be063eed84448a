package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"sandlot/internal/game"
	"sandlot/internal/roster"
	"sandlot/internal/store"
)

const (
	statusWaiting = store.GameWaiting
	statusActive  = store.GameActive
	statusEnded   = store.GameEnded
)

// Config tunes registry timing. Zero values fall back to the defaults
// used in production.
type Config struct {
	// DisconnectGrace is how long an active game waits for a dropped
	// player before forfeiting them.
	DisconnectGrace time.Duration
	// JoinCodeTTL is how long a waiting game keeps its seat open before
	// the sweeper cancels it.
	JoinCodeTTL time.Duration
	// Roller overrides the dice source, for deterministic tests.
	Roller game.Roller
}

const (
	defaultDisconnectGrace = 60 * time.Second
	defaultJoinCodeTTL     = time.Hour
)

// Registry owns every live game. The registry mutex guards the lookup
// maps only; each session carries its own mutex for game mutations, so
// games never contend with each other.
type Registry struct {
	store   store.Store
	rosters *roster.Service
	grace   time.Duration
	codeTTL time.Duration
	roller  game.Roller

	mu     sync.Mutex
	games  map[string]*GameSession
	byCode map[string]*GameSession

	graceMu     sync.Mutex
	graceSeq    uint64
	graceTimers map[graceKey]*graceEntry
}

func NewRegistry(st store.Store, rosters *roster.Service, cfg Config) *Registry {
	if cfg.DisconnectGrace <= 0 {
		cfg.DisconnectGrace = defaultDisconnectGrace
	}
	if cfg.JoinCodeTTL <= 0 {
		cfg.JoinCodeTTL = defaultJoinCodeTTL
	}
	if cfg.Roller == nil {
		cfg.Roller = game.NewRoller()
	}
	return &Registry{
		store:       st,
		rosters:     rosters,
		grace:       cfg.DisconnectGrace,
		codeTTL:     cfg.JoinCodeTTL,
		roller:      cfg.Roller,
		games:       make(map[string]*GameSession),
		byCode:      make(map[string]*GameSession),
		graceTimers: make(map[graceKey]*graceEntry),
	}
}

func (r *Registry) lookup(gameID string) *GameSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.games[gameID]
}

func (r *Registry) lookupByCode(code string) *GameSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCode[code]
}

// Events returns the live event buffer for a game, or nil when the game
// is not resident (unknown, or already ended and evicted).
func (r *Registry) Events(gameID string) *EventBuffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.games[gameID]; ok {
		return sess.buffer
	}
	return nil
}

// Join codes use a crockford-ish alphabet with the lookalikes removed.
// 32 characters divide 256 evenly, so byte-mod sampling is unbiased.
const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 6
)

func newJoinCode() (string, error) {
	b := make([]byte, joinCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	for i := range b {
		b[i] = joinCodeAlphabet[int(b[i])%len(joinCodeAlphabet)]
	}
	return string(b), nil
}

// persistFailed records a store write failure. The in-memory state is
// never advanced past the store, so the caller must abort its mutation.
func persistFailed(op, gameID string, err error) error {
	persistFailures.Add(1)
	log.Error().Err(err).Str("game_id", gameID).Str("op", op).Msg("store write failed, mutation aborted")
	return fmt.Errorf("%w: persist %s: %v", ErrInternal, op, err)
}

// endLocked finishes a session: terminal event, buffer shutdown, eviction
// from the live maps, and grace timer cleanup. Caller holds sess.mu.
func (r *Registry) endLocked(sess *GameSession, res Result) {
	now := time.Now().UTC()
	sess.status = statusEnded
	sess.result = &res
	sess.endedAt = &now

	end := GameEnd{Result: res}
	if sess.startedAt != nil {
		st := sess.state
		end.State = &st
	}
	sess.buffer.Append(EventEnded, sess.id, end)
	sess.buffer.Close()

	r.mu.Lock()
	delete(r.games, sess.id)
	if sess.joinCode != "" {
		delete(r.byCode, sess.joinCode)
	}
	r.mu.Unlock()

	r.clearGraceForGame(sess.id)

	log.Info().
		Str("game_id", sess.id).
		Str("reason", res.Reason).
		Str("winner_user_id", res.WinnerUserID).
		Msg("game ended")
}

// named loads a user for display purposes.
func (r *Registry) named(ctx context.Context, userID string) (*store.User, error) {
	u, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load user: %v", ErrInternal, err)
	}
	return u, nil
}
