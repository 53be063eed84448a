package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const pgGameColumns = `id, join_code, status, home_user_id, home_team_id, visitor_user_id, visitor_team_id,
	state, winner_user_id, loser_user_id, end_reason, created_at, started_at, ended_at`

func (s *Postgres) CreateGame(ctx context.Context, g Game) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO games (id, join_code, status, home_user_id, home_team_id) VALUES ($1,$2,$3,$4,$5)`,
		g.ID, nullStr(g.JoinCode), g.Status, g.HomeUserID, g.HomeTeamID)
	return pgErr(err)
}

func (s *Postgres) ActivateGame(ctx context.Context, gameID, visitorUserID, visitorTeamID string, state []byte) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE games SET visitor_user_id = $2, visitor_team_id = $3, state = $4, status = 'active', started_at = now()
		 WHERE id = $1 AND status = 'waiting'`,
		gameID, visitorUserID, visitorTeamID, state)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Postgres) SaveGameState(ctx context.Context, gameID string, state []byte) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE games SET state = $2 WHERE id = $1 AND status = 'active'`, gameID, state)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Postgres) FinalizeGame(ctx context.Context, gameID, winnerUserID, loserUserID, reason string, state []byte) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE games SET status = 'ended', winner_user_id = $2, loser_user_id = $3, end_reason = $4,
		 state = COALESCE($5, state), join_code = NULL, ended_at = now()
		 WHERE id = $1 AND status != 'ended'`,
		gameID, nullStr(winnerUserID), nullStr(loserUserID), reason, state)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Postgres) GetGame(ctx context.Context, gameID string) (*Game, error) {
	return scanGame(s.Pool.QueryRow(ctx, `SELECT `+pgGameColumns+` FROM games WHERE id = $1`, gameID))
}

func (s *Postgres) ListGamesByUser(ctx context.Context, userID string, limit, offset int) ([]Game, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+pgGameColumns+` FROM games WHERE home_user_id = $1 OR visitor_user_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGames(rows)
}

func (s *Postgres) ListOpenGames(ctx context.Context) ([]Game, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+pgGameColumns+` FROM games WHERE status IN ('waiting','active') ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGames(rows)
}

func collectGames(rows pgx.Rows) ([]Game, error) {
	var games []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

func scanGame(row pgx.Row) (*Game, error) {
	var (
		g                                  Game
		joinCode, visitorUser, visitorTeam *string
		winner, loser, reason              *string
	)
	err := row.Scan(&g.ID, &joinCode, &g.Status, &g.HomeUserID, &g.HomeTeamID, &visitorUser, &visitorTeam,
		&g.State, &winner, &loser, &reason, &g.CreatedAt, &g.StartedAt, &g.EndedAt)
	if err != nil {
		return nil, pgErr(err)
	}
	g.JoinCode = strVal(joinCode)
	g.VisitorUserID = strVal(visitorUser)
	g.VisitorTeamID = strVal(visitorTeam)
	g.WinnerUserID = strVal(winner)
	g.LoserUserID = strVal(loser)
	g.EndReason = strVal(reason)
	return &g, nil
}
