package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	Pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{Pool: pool}, nil
}

func (s *Postgres) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

func (s *Postgres) CreateUser(ctx context.Context, u User) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO users (id, name, token_hash) VALUES ($1,$2,$3)`, u.ID, u.Name, u.TokenHash)
	return pgErr(err)
}

func (s *Postgres) GetUser(ctx context.Context, id string) (*User, error) {
	return scanUser(s.Pool.QueryRow(ctx, `SELECT id, name, token_hash, created_at FROM users WHERE id = $1`, id))
}

func (s *Postgres) GetUserByName(ctx context.Context, name string) (*User, error) {
	return scanUser(s.Pool.QueryRow(ctx, `SELECT id, name, token_hash, created_at FROM users WHERE name = $1`, name))
}

func (s *Postgres) GetUserByTokenHash(ctx context.Context, hash string) (*User, error) {
	return scanUser(s.Pool.QueryRow(ctx, `SELECT id, name, token_hash, created_at FROM users WHERE token_hash = $1`, hash))
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.TokenHash, &u.CreatedAt); err != nil {
		return nil, pgErr(err)
	}
	return &u, nil
}

func (s *Postgres) CreateTeamWithRoster(ctx context.Context, team Team, roster []Player) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO teams (id, name, city) VALUES ($1,$2,$3)`, team.ID, team.Name, team.City); err != nil {
		return pgErr(err)
	}
	for _, p := range roster {
		if _, err := tx.Exec(ctx,
			`INSERT INTO players (id, team_id, name, lineup_spot, contact, power, eye, stuff, control) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			p.ID, team.ID, p.Name, p.LineupSpot, p.Contact, p.Power, p.Eye, p.Stuff, p.Control); err != nil {
			return pgErr(err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Postgres) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, city, created_at FROM teams ORDER BY name`)
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

func (s *Postgres) GetTeam(ctx context.Context, id string) (*Team, error) {
	return scanTeam(s.Pool.QueryRow(ctx, `SELECT id, name, city, created_at FROM teams WHERE id = $1`, id))
}

func (s *Postgres) GetTeamByName(ctx context.Context, name string) (*Team, error) {
	return scanTeam(s.Pool.QueryRow(ctx, `SELECT id, name, city, created_at FROM teams WHERE name = $1`, name))
}

func scanTeam(row pgx.Row) (*Team, error) {
	var t Team
	if err := row.Scan(&t.ID, &t.Name, &t.City, &t.CreatedAt); err != nil {
		return nil, pgErr(err)
	}
	return &t, nil
}

func (s *Postgres) ListRoster(ctx context.Context, teamID string) ([]Player, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, team_id, name, lineup_spot, contact, power, eye, stuff, control FROM players WHERE team_id = $1 ORDER BY lineup_spot`, teamID)
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

func pgErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pge *pgconn.PgError
	if errors.As(err, &pge) && pge.Code == "23505" {
		return ErrConflict
	}
	return err
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
