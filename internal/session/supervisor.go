package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"sandlot/internal/store"
)

type graceKey struct {
	gameID string
	userID string
}

// graceEntry is one armed forfeit timer. The epoch distinguishes the
// current disconnect from earlier ones whose timers may still fire.
type graceEntry struct {
	epoch    uint64
	timer    *time.Timer
	deadline time.Time
}

// PlayerConnected marks userID present in gameID, cancels any pending
// forfeit, and tells the opponent. Safe to call for games and users the
// registry does not know; those calls are ignored.
func (r *Registry) PlayerConnected(ctx context.Context, gameID, userID string) {
	key := graceKey{gameID: gameID, userID: userID}
	r.graceMu.Lock()
	if e, ok := r.graceTimers[key]; ok {
		e.timer.Stop()
		delete(r.graceTimers, key)
	}
	r.graceMu.Unlock()

	sess := r.lookup(gameID)
	if sess == nil {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	side, ok := sess.sideOf(userID)
	if !ok || sess.status == statusEnded {
		return
	}
	p := sess.sides[side]
	if p.Connected {
		return
	}
	p.Connected = true
	sess.buffer.Append(EventOpponentConnected, gameID, PresencePayload{UserID: userID})
	log.Debug().Str("game_id", gameID).Str("user_id", userID).Msg("player connected")
}

// PlayerDisconnected marks userID absent and, for active games, arms the
// forfeit timer. A reconnect before the deadline disarms it; a fired timer
// is never taken back.
func (r *Registry) PlayerDisconnected(ctx context.Context, gameID, userID string) {
	sess := r.lookup(gameID)
	if sess == nil {
		return
	}

	sess.mu.Lock()
	side, ok := sess.sideOf(userID)
	if !ok || sess.status == statusEnded {
		sess.mu.Unlock()
		return
	}
	sess.sides[side].Connected = false
	active := sess.status == statusActive
	payload := PresencePayload{UserID: userID}
	var deadline time.Time
	if active {
		deadline = time.Now().UTC().Add(r.grace)
		payload.GraceMS = r.grace.Milliseconds()
		payload.DeadlineTS = deadline.UnixMilli()
	}
	sess.buffer.Append(EventOpponentDisconnected, gameID, payload)
	sess.mu.Unlock()

	// Waiting games die by sweep, not by forfeit.
	if !active {
		return
	}

	key := graceKey{gameID: gameID, userID: userID}
	r.graceMu.Lock()
	if e, ok := r.graceTimers[key]; ok {
		e.timer.Stop()
	}
	r.graceSeq++
	entry := &graceEntry{epoch: r.graceSeq, deadline: deadline}
	epoch := entry.epoch
	entry.timer = time.AfterFunc(r.grace, func() {
		r.onGraceExpired(gameID, userID, epoch)
	})
	r.graceTimers[key] = entry
	r.graceMu.Unlock()

	log.Debug().
		Str("game_id", gameID).
		Str("user_id", userID).
		Dur("grace", r.grace).
		Msg("player disconnected, forfeit timer armed")
}

// onGraceExpired runs on the timer goroutine. The entry is re-checked
// under the lock: a reconnect or a newer disconnect invalidates this
// epoch and the callback backs off.
func (r *Registry) onGraceExpired(gameID, userID string, epoch uint64) {
	key := graceKey{gameID: gameID, userID: userID}

	r.graceMu.Lock()
	e, ok := r.graceTimers[key]
	if !ok || e.epoch != epoch {
		r.graceMu.Unlock()
		return
	}
	delete(r.graceTimers, key)
	r.graceMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.Forfeit(ctx, gameID, userID, store.ReasonDisconnectTimeout); err != nil {
		// The game may have finished on its own while the timer ran.
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			return
		}
		log.Error().Err(err).Str("game_id", gameID).Str("user_id", userID).Msg("disconnect forfeit failed")
		return
	}
	timeoutForfeits.Add(1)
	log.Info().Str("game_id", gameID).Str("user_id", userID).Msg("disconnect grace expired, game forfeited")
}

// clearGraceForGame drops every pending timer for a finished game.
func (r *Registry) clearGraceForGame(gameID string) {
	r.graceMu.Lock()
	defer r.graceMu.Unlock()
	for key, e := range r.graceTimers {
		if key.gameID == gameID {
			e.timer.Stop()
			delete(r.graceTimers, key)
		}
	}
}
