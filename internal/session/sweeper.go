package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"sandlot/internal/store"
)

// StartSweeper launches the janitor that cancels waiting games whose join
// code has sat unclaimed past the TTL. It returns immediately; the
// goroutine stops when ctx is cancelled.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.sweepWaiting(ctx, now)
			}
		}
	}()
}

func (r *Registry) sweepWaiting(ctx context.Context, now time.Time) {
	var stale []*GameSession
	r.mu.Lock()
	for _, sess := range r.byCode {
		stale = append(stale, sess)
	}
	r.mu.Unlock()

	for _, sess := range stale {
		r.expireWaiting(ctx, sess, now)
	}
}

// expireWaiting cancels one waiting session if its TTL has lapsed. The
// status is re-checked under the session lock: a join that raced the
// sweep wins.
func (r *Registry) expireWaiting(ctx context.Context, sess *GameSession, now time.Time) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != statusWaiting {
		return
	}
	if now.Sub(sess.createdAt) < r.codeTTL {
		return
	}

	if err := r.store.FinalizeGame(ctx, sess.id, "", "", store.ReasonCancelled, nil); err != nil {
		log.Error().Err(err).Str("game_id", sess.id).Msg("sweep cancel failed")
		return
	}

	gamesCancelled.Add(1)
	log.Info().Str("game_id", sess.id).Msg("waiting game expired")
	r.endLocked(sess, Result{Reason: store.ReasonCancelled})
}
