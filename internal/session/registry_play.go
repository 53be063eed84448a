package session

import (
	"context"
	"encoding/json"
	"fmt"

	"sandlot/internal/game"
	"sandlot/internal/game/viewmodel"
	"sandlot/internal/store"
)

// PlayOutcome reports one resolved at-bat. It doubles as the roll-result
// event payload and the roll endpoint's response body.
type PlayOutcome struct {
	GameID       string       `json:"game_id"`
	Dice         [2]int       `json:"dice"`
	Outcome      game.Outcome `json:"outcome"`
	RunsScored   int          `json:"runs_scored"`
	OutsRecorded int          `json:"outs_recorded"`
	Description  string       `json:"description"`
	State        game.State   `json:"state"`
}

// Roll resolves one at-bat for userID. Only the side at bat may roll, and
// the whole resolve-persist-commit step runs under the session lock.
func (r *Registry) Roll(ctx context.Context, gameID, userID string) (*PlayOutcome, error) {
	sess := r.lookup(gameID)
	if sess == nil {
		return nil, fmt.Errorf("%w: unknown game", ErrNotFound)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != statusActive {
		return nil, fmt.Errorf("%w: game is not in play", ErrConflict)
	}
	side, ok := sess.sideOf(userID)
	if !ok {
		return nil, fmt.Errorf("%w: not a participant", ErrForbidden)
	}
	batting := sess.state.BattingSide()
	if side != batting {
		return nil, fmt.Errorf("%w: the other side is at bat", ErrNotYourTurn)
	}

	batter := sess.sides[batting].Lineup.Batters[sess.state.BatterIndex[batting]]
	pitcher := sess.sides[batting.Opponent()].Lineup.Pitcher

	roll := game.NewRoll(r.roller)
	outcome := game.Resolve(batter.Rating, pitcher.Rating, roll)
	next := game.Apply(sess.state, outcome)
	runs := next.Score[batting] - sess.state.Score[batting]

	buf, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("%w: encode state: %v", ErrInternal, err)
	}

	var res *Result
	if next.Over {
		winner, _ := next.Winner()
		res = &Result{
			WinnerUserID: sess.sides[winner].UserID,
			LoserUserID:  sess.sides[winner.Opponent()].UserID,
			Reason:       store.ReasonCompleted,
		}
		if err := r.store.FinalizeGame(ctx, sess.id, res.WinnerUserID, res.LoserUserID, res.Reason, buf); err != nil {
			return nil, persistFailed("finalize_game", sess.id, err)
		}
	} else if err := r.store.SaveGameState(ctx, sess.id, buf); err != nil {
		return nil, persistFailed("save_game_state", sess.id, err)
	}

	sess.state = next
	rollsResolved.Add(1)

	play := &PlayOutcome{
		GameID:       sess.id,
		Dice:         roll.Dice,
		Outcome:      outcome,
		RunsScored:   runs,
		OutsRecorded: outcome.Outs(),
		Description:  viewmodel.PlayDescription(batter.Name, outcome, runs),
		State:        next,
	}
	sess.buffer.Append(EventRollResult, sess.id, play)

	if next.Over {
		gamesCompleted.Add(1)
		r.endLocked(sess, *res)
	}
	return play, nil
}

// Forfeit concedes an active game on behalf of userID. The opponent wins
// regardless of score. reason distinguishes an explicit concession from a
// disconnect timeout.
func (r *Registry) Forfeit(ctx context.Context, gameID, userID, reason string) (*Snapshot, error) {
	sess := r.lookup(gameID)
	if sess == nil {
		return nil, fmt.Errorf("%w: unknown game", ErrNotFound)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != statusActive {
		return nil, fmt.Errorf("%w: game is not in play", ErrConflict)
	}
	side, ok := sess.sideOf(userID)
	if !ok {
		return nil, fmt.Errorf("%w: not a participant", ErrForbidden)
	}

	winner := sess.sides[side.Opponent()]
	res := Result{
		WinnerUserID: winner.UserID,
		LoserUserID:  userID,
		Reason:       reason,
	}

	buf, err := json.Marshal(sess.state)
	if err != nil {
		return nil, fmt.Errorf("%w: encode state: %v", ErrInternal, err)
	}
	if err := r.store.FinalizeGame(ctx, sess.id, res.WinnerUserID, res.LoserUserID, res.Reason, buf); err != nil {
		return nil, persistFailed("finalize_game", sess.id, err)
	}

	r.endLocked(sess, res)
	return sess.snapshotLocked(), nil
}
