package session

import (
	"context"
	"errors"
	"testing"

	"sandlot/internal/roster"
	"sandlot/internal/store"
)

func TestRehydrateRestoresOpenGames(t *testing.T) {
	st := store.NewMemory()
	rg := newRigStore(t, st, Config{})
	ctx := context.Background()

	waiting, err := rg.r.Create(ctx, rg.home.UserID, rg.teams[0].ID)
	if err != nil {
		t.Fatalf("create waiting: %v", err)
	}
	hosted, err := rg.r.Create(ctx, rg.home.UserID, rg.teams[0].ID)
	if err != nil {
		t.Fatalf("create active: %v", err)
	}
	active, err := rg.r.Join(ctx, rg.away.UserID, hosted.JoinCode, rg.teams[1].ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := rg.r.Roll(ctx, active.GameID, rg.away.UserID); err != nil {
		t.Fatalf("roll: %v", err)
	}

	// a fresh registry over the same store, as after a restart
	roller := &scriptRoller{}
	r2 := NewRegistry(st, roster.NewService(st), Config{Roller: roller})
	if err := r2.Rehydrate(ctx); err != nil {
		t.Fatalf("rehydrate: %v", err)
	}

	got, err := r2.Get(ctx, waiting.GameID, rg.home.UserID)
	if err != nil {
		t.Fatalf("get waiting: %v", err)
	}
	if got.Status != store.GameWaiting || got.JoinCode != waiting.JoinCode {
		t.Fatalf("waiting game not restored: %+v", got)
	}

	got, err = r2.Get(ctx, active.GameID, rg.home.UserID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if got.Status != store.GameActive || got.State == nil || got.State.Outs != 1 {
		t.Fatalf("active game state not restored: %+v", got)
	}

	// restored games accept play immediately
	if _, err := r2.Roll(ctx, active.GameID, rg.away.UserID); err != nil {
		t.Fatalf("roll on restored game: %v", err)
	}
	if _, err := r2.Join(ctx, rg.away.UserID, waiting.JoinCode, rg.teams[1].ID); err != nil {
		t.Fatalf("join restored waiting game: %v", err)
	}

	// the spent code rides through the restart too, so it cannot be reissued
	if _, err := r2.Join(ctx, rg.home.UserID, hosted.JoinCode, rg.teams[0].ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("spent code after restart: want ErrConflict, got %v", err)
	}
}

func TestRehydrateSkipsUndecodableState(t *testing.T) {
	st := store.NewMemory()
	rg := newRigStore(t, st, Config{})
	ctx := context.Background()

	good := rg.startGame(t)

	bad := store.Game{
		ID:         store.NewID(),
		JoinCode:   "BADBAD",
		Status:     store.GameWaiting,
		HomeUserID: rg.home.UserID,
		HomeTeamID: rg.teams[0].ID,
	}
	if err := st.CreateGame(ctx, bad); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.ActivateGame(ctx, bad.ID, rg.away.UserID, rg.teams[1].ID, []byte("{not json")); err != nil {
		t.Fatalf("activate: %v", err)
	}

	r2 := NewRegistry(st, roster.NewService(st), Config{Roller: &scriptRoller{}})
	if err := r2.Rehydrate(ctx); err != nil {
		t.Fatalf("rehydrate should survive corrupt rows: %v", err)
	}

	if r2.lookup(bad.ID) != nil {
		t.Fatalf("corrupt game should not come back live")
	}
	if r2.lookup(good.GameID) == nil {
		t.Fatalf("healthy game should come back live")
	}
	if _, err := r2.Roll(ctx, good.GameID, rg.away.UserID); err != nil {
		t.Fatalf("roll on healthy game: %v", err)
	}
}
