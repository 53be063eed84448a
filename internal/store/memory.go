package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is a map-backed Store used by tests and local experiments. It
// mirrors the SQL backends' guard semantics (uniqueness, status checks)
// so registry tests exercise the same error paths.
type Memory struct {
	mu      sync.Mutex
	users   map[string]User
	teams   map[string]Team
	rosters map[string][]Player
	games   map[string]Game
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]User),
		teams:   make(map[string]Team),
		rosters: make(map[string][]Player),
		games:   make(map[string]Game),
	}
}

func (s *Memory) Close() {}

func (s *Memory) Ping(ctx context.Context) error { return nil }

func (s *Memory) CreateUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Name == u.Name || existing.TokenHash == u.TokenHash {
			return ErrConflict
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	return nil
}

func (s *Memory) GetUser(ctx context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *Memory) GetUserByName(ctx context.Context, name string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == name {
			copied := u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) GetUserByTokenHash(ctx context.Context, hash string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TokenHash == hash {
			copied := u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) CreateTeamWithRoster(ctx context.Context, team Team, roster []Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.teams {
		if existing.Name == team.Name {
			return ErrConflict
		}
	}
	spots := make(map[int]bool, len(roster))
	for _, p := range roster {
		if spots[p.LineupSpot] {
			return ErrConflict
		}
		spots[p.LineupSpot] = true
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	s.teams[team.ID] = team
	copied := make([]Player, len(roster))
	copy(copied, roster)
	for i := range copied {
		copied[i].TeamID = team.ID
	}
	sort.Slice(copied, func(i, j int) bool { return copied[i].LineupSpot < copied[j].LineupSpot })
	s.rosters[team.ID] = copied
	return nil
}

func (s *Memory) ListTeams(ctx context.Context) ([]Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	teams := make([]Team, 0, len(s.teams))
	for _, t := range s.teams {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func (s *Memory) GetTeam(ctx context.Context, id string) (*Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *Memory) GetTeamByName(ctx context.Context, name string) (*Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.teams {
		if t.Name == name {
			copied := t
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) ListRoster(ctx context.Context, teamID string) ([]Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roster, ok := s.rosters[teamID]
	if !ok {
		return nil, nil
	}
	copied := make([]Player, len(roster))
	copy(copied, roster)
	return copied, nil
}

func (s *Memory) CreateGame(ctx context.Context, g Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.games {
		if existing.Status == GameWaiting && g.JoinCode != "" && existing.JoinCode == g.JoinCode {
			return ErrConflict
		}
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	s.games[g.ID] = g
	return nil
}

func (s *Memory) ActivateGame(ctx context.Context, gameID, visitorUserID, visitorTeamID string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.Status != GameWaiting {
		return ErrConflict
	}
	now := time.Now().UTC()
	g.VisitorUserID = visitorUserID
	g.VisitorTeamID = visitorTeamID
	g.State = cloneBytes(state)
	g.Status = GameActive
	g.StartedAt = &now
	s.games[gameID] = g
	return nil
}

func (s *Memory) SaveGameState(ctx context.Context, gameID string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.Status != GameActive {
		return ErrConflict
	}
	g.State = cloneBytes(state)
	s.games[gameID] = g
	return nil
}

func (s *Memory) FinalizeGame(ctx context.Context, gameID, winnerUserID, loserUserID, reason string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.Status == GameEnded {
		return ErrConflict
	}
	now := time.Now().UTC()
	g.Status = GameEnded
	g.WinnerUserID = winnerUserID
	g.LoserUserID = loserUserID
	g.EndReason = reason
	if state != nil {
		g.State = cloneBytes(state)
	}
	g.JoinCode = ""
	g.EndedAt = &now
	s.games[gameID] = g
	return nil
}

func (s *Memory) GetGame(ctx context.Context, gameID string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := g
	copied.State = cloneBytes(g.State)
	return &copied, nil
}

func (s *Memory) ListGamesByUser(ctx context.Context, userID string, limit, offset int) ([]Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var games []Game
	for _, g := range s.games {
		if g.HomeUserID == userID || g.VisitorUserID == userID {
			copied := g
			copied.State = cloneBytes(g.State)
			games = append(games, copied)
		}
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID > games[j].ID
		}
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	if offset >= len(games) {
		return nil, nil
	}
	games = games[offset:]
	if limit > 0 && limit < len(games) {
		games = games[:limit]
	}
	return games, nil
}

func (s *Memory) ListOpenGames(ctx context.Context) ([]Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var games []Game
	for _, g := range s.games {
		if g.Status == GameWaiting || g.Status == GameActive {
			copied := g
			copied.State = cloneBytes(g.State)
			games = append(games, copied)
		}
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})
	return games, nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	copied := make([]byte, len(b))
	copy(copied, b)
	return copied
}
