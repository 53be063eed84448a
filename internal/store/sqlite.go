package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    token_hash TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS teams (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    city TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS players (
    id TEXT PRIMARY KEY,
    team_id TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    lineup_spot INTEGER NOT NULL,
    contact INTEGER NOT NULL DEFAULT 0,
    power INTEGER NOT NULL DEFAULT 0,
    eye INTEGER NOT NULL DEFAULT 0,
    stuff INTEGER NOT NULL DEFAULT 0,
    control INTEGER NOT NULL DEFAULT 0,
    UNIQUE (team_id, lineup_spot)
);

CREATE TABLE IF NOT EXISTS games (
    id TEXT PRIMARY KEY,
    join_code TEXT,
    status TEXT NOT NULL DEFAULT 'waiting',
    home_user_id TEXT NOT NULL REFERENCES users(id),
    home_team_id TEXT NOT NULL REFERENCES teams(id),
    visitor_user_id TEXT REFERENCES users(id),
    visitor_team_id TEXT REFERENCES teams(id),
    state TEXT,
    winner_user_id TEXT REFERENCES users(id),
    loser_user_id TEXT REFERENCES users(id),
    end_reason TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    started_at DATETIME,
    ended_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS games_join_code_live_idx ON games (join_code) WHERE status = 'waiting';
CREATE INDEX IF NOT EXISTS games_status_idx ON games (status);
CREATE INDEX IF NOT EXISTS games_home_user_idx ON games (home_user_id);
CREATE INDEX IF NOT EXISTS games_visitor_user_idx ON games (visitor_user_id);
`

type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer keeps SQLITE_BUSY out of the hot path
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *SQLite) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *SQLite) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, name, token_hash) VALUES (?,?,?)`, u.ID, u.Name, u.TokenHash)
	return liteErr(err)
}

func (s *SQLite) GetUser(ctx context.Context, id string) (*User, error) {
	return scanLiteUser(s.db.QueryRowContext(ctx, `SELECT id, name, token_hash, created_at FROM users WHERE id = ?`, id))
}

func (s *SQLite) GetUserByName(ctx context.Context, name string) (*User, error) {
	return scanLiteUser(s.db.QueryRowContext(ctx, `SELECT id, name, token_hash, created_at FROM users WHERE name = ?`, name))
}

func (s *SQLite) GetUserByTokenHash(ctx context.Context, hash string) (*User, error) {
	return scanLiteUser(s.db.QueryRowContext(ctx, `SELECT id, name, token_hash, created_at FROM users WHERE token_hash = ?`, hash))
}

func scanLiteUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.TokenHash, &u.CreatedAt); err != nil {
		return nil, liteErr(err)
	}
	return &u, nil
}

func (s *SQLite) CreateTeamWithRoster(ctx context.Context, team Team, roster []Player) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO teams (id, name, city) VALUES (?,?,?)`, team.ID, team.Name, team.City); err != nil {
		return liteErr(err)
	}
	for _, p := range roster {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players (id, team_id, name, lineup_spot, contact, power, eye, stuff, control) VALUES (?,?,?,?,?,?,?,?,?)`,
			p.ID, team.ID, p.Name, p.LineupSpot, p.Contact, p.Power, p.Eye, p.Stuff, p.Control); err != nil {
			return liteErr(err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, city, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.City, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *SQLite) GetTeam(ctx context.Context, id string) (*Team, error) {
	return scanLiteTeam(s.db.QueryRowContext(ctx, `SELECT id, name, city, created_at FROM teams WHERE id = ?`, id))
}

func (s *SQLite) GetTeamByName(ctx context.Context, name string) (*Team, error) {
	return scanLiteTeam(s.db.QueryRowContext(ctx, `SELECT id, name, city, created_at FROM teams WHERE name = ?`, name))
}

func scanLiteTeam(row *sql.Row) (*Team, error) {
	var t Team
	if err := row.Scan(&t.ID, &t.Name, &t.City, &t.CreatedAt); err != nil {
		return nil, liteErr(err)
	}
	return &t, nil
}

func (s *SQLite) ListRoster(ctx context.Context, teamID string) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, team_id, name, lineup_spot, contact, power, eye, stuff, control FROM players WHERE team_id = ? ORDER BY lineup_spot`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.TeamID, &p.Name, &p.LineupSpot, &p.Contact, &p.Power, &p.Eye, &p.Stuff, &p.Control); err != nil {
			return nil, err
		}
		roster = append(roster, p)
	}
	return roster, rows.Err()
}

func liteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isLiteConstraint(err) {
		return ErrConflict
	}
	return err
}
