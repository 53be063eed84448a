package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sandlot/internal/game"
	"sandlot/internal/roster"
	"sandlot/internal/store"
)

// Create opens a waiting game hosted by userID's team and returns its
// snapshot, join code included. The row is persisted before the session
// becomes visible.
func (r *Registry) Create(ctx context.Context, userID, teamID string) (*Snapshot, error) {
	user, err := r.named(ctx, userID)
	if err != nil {
		return nil, err
	}
	lineup, err := r.rosters.Lineup(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	const maxCodeAttempts = 6
	var rec *store.Game
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		// An active game may still hold its code in memory even though
		// the store only keeps waiting codes unique.
		if r.lookupByCode(code) != nil {
			continue
		}
		g := store.Game{
			ID:         store.NewID(),
			JoinCode:   code,
			Status:     statusWaiting,
			HomeUserID: userID,
			HomeTeamID: teamID,
		}
		if err := r.store.CreateGame(ctx, g); err != nil {
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			return nil, persistFailed("create_game", g.ID, err)
		}
		rec = &g
		break
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: could not allocate a join code", ErrInternal)
	}

	sess := &GameSession{
		id:       rec.ID,
		joinCode: rec.JoinCode,
		status:   statusWaiting,
		buffer:   NewEventBuffer(0),
		sides: [2]*Participant{
			game.Home: {
				UserID: userID,
				Name:   user.Name,
				TeamID: teamID,
				Lineup: lineup,
			},
		},
		createdAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.games[sess.id] = sess
	r.byCode[sess.joinCode] = sess
	r.mu.Unlock()

	gamesCreated.Add(1)
	log.Info().
		Str("game_id", sess.id).
		Str("user_id", userID).
		Str("team_id", teamID).
		Msg("game created")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

// Join seats userID as the visitor of the waiting game behind joinCode
// and starts play. The visitor bats the top of the first.
func (r *Registry) Join(ctx context.Context, userID, joinCode, teamID string) (*Snapshot, error) {
	code := strings.ToUpper(strings.TrimSpace(joinCode))
	if code == "" {
		return nil, fmt.Errorf("%w: join code required", ErrValidation)
	}

	user, err := r.named(ctx, userID)
	if err != nil {
		return nil, err
	}
	lineup, err := r.rosters.Lineup(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	sess := r.lookupByCode(code)
	if sess == nil {
		return nil, fmt.Errorf("%w: unknown join code", ErrNotFound)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.status {
	case statusWaiting:
	case statusEnded:
		return nil, fmt.Errorf("%w: unknown join code", ErrNotFound)
	default:
		return nil, fmt.Errorf("%w: join code already used", ErrConflict)
	}
	if sess.sides[game.Home].UserID == userID {
		return nil, fmt.Errorf("%w: cannot join your own game", ErrConflict)
	}

	state := game.NewState()
	buf, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: encode state: %v", ErrInternal, err)
	}
	if err := r.store.ActivateGame(ctx, sess.id, userID, teamID, buf); err != nil {
		return nil, persistFailed("activate_game", sess.id, err)
	}

	now := time.Now().UTC()
	sess.status = statusActive
	sess.startedAt = &now
	sess.state = state
	sess.sides[game.Visitor] = &Participant{
		UserID: userID,
		Name:   user.Name,
		TeamID: teamID,
		Lineup: lineup,
	}

	gamesJoined.Add(1)
	log.Info().
		Str("game_id", sess.id).
		Str("user_id", userID).
		Str("team_id", teamID).
		Msg("game started")

	snap := sess.snapshotLocked()
	sess.buffer.Append(EventState, sess.id, snap)
	return snap, nil
}

// Cancel withdraws a waiting game. Only the host may cancel; active games
// end through play or forfeit instead.
func (r *Registry) Cancel(ctx context.Context, gameID, userID string) (*Snapshot, error) {
	sess := r.lookup(gameID)
	if sess == nil {
		return nil, fmt.Errorf("%w: unknown game", ErrNotFound)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != statusWaiting {
		return nil, fmt.Errorf("%w: game already started", ErrConflict)
	}
	if sess.sides[game.Home].UserID != userID {
		return nil, fmt.Errorf("%w: only the host may cancel", ErrForbidden)
	}

	if err := r.store.FinalizeGame(ctx, sess.id, "", "", store.ReasonCancelled, nil); err != nil {
		return nil, persistFailed("finalize_game", sess.id, err)
	}

	gamesCancelled.Add(1)
	r.endLocked(sess, Result{Reason: store.ReasonCancelled})
	return sess.snapshotLocked(), nil
}

// Get returns the snapshot of one game for a participant. Live games come
// from memory; finished games fall back to the store.
func (r *Registry) Get(ctx context.Context, gameID, userID string) (*Snapshot, error) {
	if sess := r.lookup(gameID); sess != nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if _, ok := sess.sideOf(userID); !ok {
			return nil, fmt.Errorf("%w: not a participant", ErrForbidden)
		}
		return sess.snapshotLocked(), nil
	}

	rec, err := r.store.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown game", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load game: %v", ErrInternal, err)
	}
	if rec.HomeUserID != userID && rec.VisitorUserID != userID {
		return nil, fmt.Errorf("%w: not a participant", ErrForbidden)
	}
	return r.snapshotFromRecord(ctx, rec, newNameCache())
}

// History lists userID's games, newest first. Live games are served from
// memory so connection flags stay accurate.
func (r *Registry) History(ctx context.Context, userID string, limit, offset int) ([]Snapshot, error) {
	recs, err := r.store.ListGamesByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list games: %v", ErrInternal, err)
	}

	names := newNameCache()
	out := make([]Snapshot, 0, len(recs))
	for i := range recs {
		if sess := r.lookup(recs[i].ID); sess != nil {
			sess.mu.Lock()
			snap := sess.snapshotLocked()
			sess.mu.Unlock()
			out = append(out, *snap)
			continue
		}
		snap, err := r.snapshotFromRecord(ctx, &recs[i], names)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, nil
}

// Open lists games still waiting for a visitor, join codes included.
func (r *Registry) Open(ctx context.Context) ([]Snapshot, error) {
	recs, err := r.store.ListOpenGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list open games: %v", ErrInternal, err)
	}

	names := newNameCache()
	out := make([]Snapshot, 0, len(recs))
	for i := range recs {
		if recs[i].Status != statusWaiting {
			continue
		}
		if sess := r.lookup(recs[i].ID); sess != nil {
			sess.mu.Lock()
			snap := sess.snapshotLocked()
			sess.mu.Unlock()
			out = append(out, *snap)
			continue
		}
		snap, err := r.snapshotFromRecord(ctx, &recs[i], names)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, nil
}

// nameCache keeps user and team lookups from repeating inside one request.
type nameCache struct {
	users map[string]string
	teams map[string]string
}

func newNameCache() *nameCache {
	return &nameCache{users: make(map[string]string), teams: make(map[string]string)}
}

func (r *Registry) userName(ctx context.Context, c *nameCache, id string) (string, error) {
	if name, ok := c.users[id]; ok {
		return name, nil
	}
	u, err := r.store.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	c.users[id] = u.Name
	return u.Name, nil
}

func (r *Registry) teamName(ctx context.Context, c *nameCache, id string) (string, error) {
	if name, ok := c.teams[id]; ok {
		return name, nil
	}
	t, err := r.store.GetTeam(ctx, id)
	if err != nil {
		return "", err
	}
	name := roster.DisplayName(*t)
	c.teams[id] = name
	return name, nil
}

// snapshotFromRecord rebuilds a snapshot from a persisted row, resolving
// display names through the cache.
func (r *Registry) snapshotFromRecord(ctx context.Context, rec *store.Game, names *nameCache) (*Snapshot, error) {
	snap := &Snapshot{
		GameID:    rec.ID,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt,
		StartedAt: rec.StartedAt,
		EndedAt:   rec.EndedAt,
	}
	if rec.Status == statusWaiting {
		snap.JoinCode = rec.JoinCode
	}
	if rec.Status == statusEnded {
		snap.Result = &Result{
			WinnerUserID: rec.WinnerUserID,
			LoserUserID:  rec.LoserUserID,
			Reason:       rec.EndReason,
		}
	}

	view := func(userID, teamID string) (*ParticipantView, error) {
		if userID == "" {
			return nil, nil
		}
		userName, err := r.userName(ctx, names, userID)
		if err != nil {
			return nil, fmt.Errorf("%w: load user: %v", ErrInternal, err)
		}
		teamName, err := r.teamName(ctx, names, teamID)
		if err != nil {
			return nil, fmt.Errorf("%w: load team: %v", ErrInternal, err)
		}
		return &ParticipantView{UserID: userID, Name: userName, TeamID: teamID, TeamName: teamName}, nil
	}

	var err error
	if snap.Home, err = view(rec.HomeUserID, rec.HomeTeamID); err != nil {
		return nil, err
	}
	if snap.Visitor, err = view(rec.VisitorUserID, rec.VisitorTeamID); err != nil {
		return nil, err
	}

	if len(rec.State) > 0 {
		var st game.State
		if err := json.Unmarshal(rec.State, &st); err != nil {
			return nil, fmt.Errorf("%w: decode state: %v", ErrInternal, err)
		}
		snap.State = &st
	}
	return snap, nil
}

// Rehydrate rebuilds live sessions from the store after a restart. Games
// that cannot be rebuilt are logged and left alone rather than blocking
// startup.
func (r *Registry) Rehydrate(ctx context.Context) error {
	recs, err := r.store.ListOpenGames(ctx)
	if err != nil {
		return fmt.Errorf("rehydrate: %w", err)
	}

	restored := 0
	for i := range recs {
		if err := r.rehydrateOne(ctx, &recs[i]); err != nil {
			log.Error().Err(err).Str("game_id", recs[i].ID).Msg("skipping game during rehydrate")
			continue
		}
		restored++
	}
	log.Info().Int("games", restored).Msg("sessions rehydrated")
	return nil
}

func (r *Registry) rehydrateOne(ctx context.Context, rec *store.Game) error {
	host, err := r.loadParticipant(ctx, rec.HomeUserID, rec.HomeTeamID)
	if err != nil {
		return err
	}

	sess := &GameSession{
		id:        rec.ID,
		joinCode:  rec.JoinCode,
		status:    rec.Status,
		buffer:    NewEventBuffer(0),
		createdAt: rec.CreatedAt,
		startedAt: rec.StartedAt,
	}
	sess.sides[game.Home] = host

	switch rec.Status {
	case statusWaiting:
	case statusActive:
		visitor, err := r.loadParticipant(ctx, rec.VisitorUserID, rec.VisitorTeamID)
		if err != nil {
			return err
		}
		var st game.State
		if err := json.Unmarshal(rec.State, &st); err != nil {
			return fmt.Errorf("decode state: %w", err)
		}
		sess.sides[game.Visitor] = visitor
		sess.state = st
	default:
		return fmt.Errorf("unexpected status %q", rec.Status)
	}

	r.mu.Lock()
	r.games[sess.id] = sess
	if sess.joinCode != "" {
		// Active games keep their code indexed too, so a spent code keeps
		// answering conflict instead of being reissued.
		r.byCode[sess.joinCode] = sess
	}
	r.mu.Unlock()
	return nil
}

func (r *Registry) loadParticipant(ctx context.Context, userID, teamID string) (*Participant, error) {
	u, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	lineup, err := r.rosters.Lineup(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load lineup %s: %w", teamID, err)
	}
	return &Participant{
		UserID: userID,
		Name:   u.Name,
		TeamID: teamID,
		Lineup: lineup,
	}, nil
}
