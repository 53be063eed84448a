package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store is the persistence boundary. Postgres backs production, SQLite backs
// single-file deploys, and the in-memory implementation backs tests.
type Store interface {
	Close()
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByName(ctx context.Context, name string) (*User, error)
	GetUserByTokenHash(ctx context.Context, hash string) (*User, error)

	CreateTeamWithRoster(ctx context.Context, team Team, roster []Player) error
	ListTeams(ctx context.Context) ([]Team, error)
	GetTeam(ctx context.Context, id string) (*Team, error)
	GetTeamByName(ctx context.Context, name string) (*Team, error)
	ListRoster(ctx context.Context, teamID string) ([]Player, error)

	CreateGame(ctx context.Context, g Game) error
	ActivateGame(ctx context.Context, gameID, visitorUserID, visitorTeamID string, state []byte) error
	SaveGameState(ctx context.Context, gameID string, state []byte) error
	FinalizeGame(ctx context.Context, gameID, winnerUserID, loserUserID, reason string, state []byte) error
	GetGame(ctx context.Context, gameID string) (*Game, error)
	ListGamesByUser(ctx context.Context, userID string, limit, offset int) ([]Game, error)
	ListOpenGames(ctx context.Context) ([]Game, error)
}

// Open picks the backend from the URL scheme: postgres://... for pgx,
// sqlite://path/to/file.db for the embedded database.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return NewPostgres(ctx, databaseURL)
	case "sqlite":
		return NewSQLite(ctx, u.Host+u.Path)
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
}

func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// NewToken returns a fresh 32-hex-char bearer token. Only HashToken(token)
// is ever persisted.
func NewToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
