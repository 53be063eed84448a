package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"sandlot/internal/roster"
	"sandlot/internal/store"
)

// scriptRoller serves queued values first and then settles into a
// ground-out cycle (dice 3+4, skill 50). The seeded demo teams never have
// a rating gap large enough for skill 50 to shift, so the default cycle
// is always a plain ground out. Queue whole (die, die, skill) triplets to
// keep the phase aligned.
type scriptRoller struct {
	mu    sync.Mutex
	queue []int
	i     int
}

func (s *scriptRoller) push(vals ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, vals...)
}

func (s *scriptRoller) RollDie(sides int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		v := s.queue[0]
		s.queue = s.queue[1:]
		return v
	}
	groundOut := [3]int{3, 4, 50}
	v := groundOut[s.i%len(groundOut)]
	s.i++
	return v
}

// rig is a registry over a seeded in-memory store. home hosts games with
// the Herons (teams[0]), away joins with the Rattlers (teams[1]).
type rig struct {
	r      *Registry
	st     store.Store
	roller *scriptRoller
	home   store.SeedCredential
	away   store.SeedCredential
	teams  []store.Team
}

func newRig(t *testing.T, cfg Config) *rig {
	t.Helper()
	return newRigStore(t, store.NewMemory(), cfg)
}

func newRigStore(t *testing.T, st store.Store, cfg Config) *rig {
	t.Helper()

	creds, err := store.SeedDemo(context.Background(), st)
	if err != nil {
		t.Fatalf("seed demo data: %v", err)
	}
	if len(creds) != 2 {
		t.Fatalf("seeded %d users, want 2", len(creds))
	}
	teams, err := st.ListTeams(context.Background())
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("seeded %d teams, want 2", len(teams))
	}

	roller := &scriptRoller{}
	if cfg.Roller == nil {
		cfg.Roller = roller
	}
	return &rig{
		r:      NewRegistry(st, roster.NewService(st), cfg),
		st:     st,
		roller: roller,
		home:   creds[0],
		away:   creds[1],
		teams:  teams,
	}
}

// startGame creates and joins one game, returning the active snapshot.
func (rg *rig) startGame(t *testing.T) *Snapshot {
	t.Helper()
	created, err := rg.r.Create(context.Background(), rg.home.UserID, rg.teams[0].ID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	snap, err := rg.r.Join(context.Background(), rg.away.UserID, created.JoinCode, rg.teams[1].ID)
	if err != nil {
		t.Fatalf("join game: %v", err)
	}
	return snap
}

// addUser registers an extra user outside the demo pair.
func (rg *rig) addUser(t *testing.T, name string) store.User {
	t.Helper()
	u := store.User{ID: store.NewID(), Name: name, TokenHash: store.HashToken("token-" + name)}
	if err := rg.st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func waitFor(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s: not observed within %v", what, d)
}

func expectEvent(t *testing.T, ch chan Event, typ EventType) Event {
	t.Helper()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no %s event within 2s", typ)
		}
	}
}

func expectNoEvent(t *testing.T, ch chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %s seq=%d", ev.Type, ev.Seq)
	default:
	}
}
