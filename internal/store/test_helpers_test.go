package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"sandlot/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type backend struct {
	name string
	open func(t *testing.T) Store
}

// forEachBackend runs fn against every Store implementation. Memory and
// sqlite always run; postgres skips itself without TEST_POSTGRES_DSN.
func forEachBackend(t *testing.T, fn func(t *testing.T, st Store)) {
	t.Helper()
	for _, b := range []backend{
		{"memory", openMemory},
		{"sqlite", openSQLite},
		{"postgres", openPostgres},
	} {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

func openMemory(t *testing.T) Store {
	t.Helper()
	return NewMemory()
}

func openSQLite(t *testing.T) Store {
	t.Helper()
	st, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "sandlot_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(st.Close)
	return st
}

var testSchemaNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func openPostgres(t *testing.T) Store {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	dsn := cfg.TestPostgresDSN
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	base, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open base db: %v", err)
	}
	createSchemaSQL, err := schemaDDL("CREATE SCHEMA %s", schema)
	if err != nil {
		base.Close()
		t.Fatalf("invalid schema name: %v", err)
	}
	if _, err := base.Exec(context.Background(), createSchemaSQL); err != nil {
		base.Close()
		t.Fatalf("create schema: %v", err)
	}
	base.Close()

	st, err := NewPostgres(context.Background(), withSearchPath(dsn, schema))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := applySchema(st); err != nil {
		st.Close()
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
		base, err := pgxpool.New(context.Background(), dsn)
		if err == nil {
			if dropSchemaSQL, ddlErr := schemaDDL("DROP SCHEMA %s CASCADE", schema); ddlErr == nil {
				_, _ = base.Exec(context.Background(), dropSchemaSQL)
			}
			base.Close()
		}
	})
	return st
}

func applySchema(st *Postgres) error {
	path, err := findInitMigrationPath()
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = st.Pool.Exec(context.Background(), string(b))
	return err
}

func findInitMigrationPath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		p := filepath.Join(dir, "migrations", "000001_init.up.sql")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("000001_init.up.sql not found from %s", dir)
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}

func schemaDDL(format, schema string) (string, error) {
	if !testSchemaNamePattern.MatchString(schema) {
		return "", fmt.Errorf("schema %q does not match required pattern", schema)
	}
	return fmt.Sprintf(format, pgx.Identifier{schema}.Sanitize()), nil
}

func mustCreateUser(t *testing.T, st Store, name string) User {
	t.Helper()
	u := User{ID: NewID(), Name: name, TokenHash: HashToken("token-" + name)}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func mustCreateTeam(t *testing.T, st Store, name string) Team {
	t.Helper()
	team := Team{ID: NewID(), Name: name, City: "Testville"}
	roster := make([]Player, 0, 10)
	roster = append(roster, Player{ID: NewID(), Name: name + " P", LineupSpot: PitcherSpot, Stuff: 60, Control: 55})
	for spot := 1; spot <= 9; spot++ {
		roster = append(roster, Player{
			ID: NewID(), Name: fmt.Sprintf("%s B%d", name, spot), LineupSpot: spot,
			Contact: 50 + spot, Power: 40 + spot, Eye: 45 + spot,
		})
	}
	if err := st.CreateTeamWithRoster(context.Background(), team, roster); err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
	return team
}

func mustCreateGame(t *testing.T, st Store, homeUser, homeTeam, code string) Game {
	t.Helper()
	g := Game{ID: NewID(), JoinCode: code, Status: GameWaiting, HomeUserID: homeUser, HomeTeamID: homeTeam}
	if err := st.CreateGame(context.Background(), g); err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}
