package store

import (
	"context"
	"database/sql"
	"time"
)

const liteGameColumns = `id, join_code, status, home_user_id, home_team_id, visitor_user_id, visitor_team_id,
	state, winner_user_id, loser_user_id, end_reason, created_at, started_at, ended_at`

func (s *SQLite) CreateGame(ctx context.Context, g Game) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, join_code, status, home_user_id, home_team_id) VALUES (?,?,?,?,?)`,
		g.ID, nullStr(g.JoinCode), g.Status, g.HomeUserID, g.HomeTeamID)
	return liteErr(err)
}

func (s *SQLite) ActivateGame(ctx context.Context, gameID, visitorUserID, visitorTeamID string, state []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET visitor_user_id = ?, visitor_team_id = ?, state = ?, status = 'active', started_at = ?
		 WHERE id = ? AND status = 'waiting'`,
		visitorUserID, visitorTeamID, state, time.Now().UTC(), gameID)
	return liteMutation(res, err)
}

func (s *SQLite) SaveGameState(ctx context.Context, gameID string, state []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET state = ? WHERE id = ? AND status = 'active'`, state, gameID)
	return liteMutation(res, err)
}

func (s *SQLite) FinalizeGame(ctx context.Context, gameID, winnerUserID, loserUserID, reason string, state []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET status = 'ended', winner_user_id = ?, loser_user_id = ?, end_reason = ?,
		 state = COALESCE(?, state), join_code = NULL, ended_at = ?
		 WHERE id = ? AND status != 'ended'`,
		nullStr(winnerUserID), nullStr(loserUserID), reason, state, time.Now().UTC(), gameID)
	return liteMutation(res, err)
}

func liteMutation(res sql.Result, err error) error {
	if err != nil {
		return liteErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}
	return nil
}

func (s *SQLite) GetGame(ctx context.Context, gameID string) (*Game, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+liteGameColumns+` FROM games WHERE id = ?`, gameID)
	return scanLiteGame(row.Scan)
}

func (s *SQLite) ListGamesByUser(ctx context.Context, userID string, limit, offset int) ([]Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+liteGameColumns+` FROM games WHERE home_user_id = ? OR visitor_user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, userID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLiteGames(rows)
}

func (s *SQLite) ListOpenGames(ctx context.Context) ([]Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+liteGameColumns+` FROM games WHERE status IN ('waiting','active') ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLiteGames(rows)
}

func collectLiteGames(rows *sql.Rows) ([]Game, error) {
	var games []Game
	for rows.Next() {
		g, err := scanLiteGame(rows.Scan)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

func scanLiteGame(scan func(...any) error) (*Game, error) {
	var (
		g                                  Game
		joinCode, visitorUser, visitorTeam sql.NullString
		winner, loser, reason              sql.NullString
		startedAt, endedAt                 sql.NullTime
	)
	err := scan(&g.ID, &joinCode, &g.Status, &g.HomeUserID, &g.HomeTeamID, &visitorUser, &visitorTeam,
		&g.State, &winner, &loser, &reason, &g.CreatedAt, &startedAt, &endedAt)
	if err != nil {
		return nil, liteErr(err)
	}
	g.JoinCode = joinCode.String
	g.VisitorUserID = visitorUser.String
	g.VisitorTeamID = visitorTeam.String
	g.WinnerUserID = winner.String
	g.LoserUserID = loser.String
	g.EndReason = reason.String
	if startedAt.Valid {
		t := startedAt.Time
		g.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		g.EndedAt = &t
	}
	return &g, nil
}
