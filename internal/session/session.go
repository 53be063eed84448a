package session

import (
	"sync"
	"time"

	"sandlot/internal/game"
	"sandlot/internal/roster"
)

// Participant is one side of a game. Lineup and ratings are cached at
// create/join time; mid-game roster edits never touch running games.
type Participant struct {
	UserID    string
	Name      string
	TeamID    string
	Lineup    *roster.Lineup
	Connected bool
}

// Result is the terminal record of a game.
type Result struct {
	WinnerUserID string `json:"winner_user_id,omitempty"`
	LoserUserID  string `json:"loser_user_id,omitempty"`
	Reason       string `json:"reason"`
}

// GameSession is one live game. Every mutation happens under mu: one
// logical writer per game, no matter how many connections fan in.
type GameSession struct {
	mu sync.Mutex

	id        string
	joinCode  string
	status    string
	sides     [2]*Participant // indexed by game.Side
	state     game.State
	buffer    *EventBuffer
	result    *Result
	createdAt time.Time
	startedAt *time.Time
	endedAt   *time.Time
}

func (s *GameSession) sideOf(userID string) (game.Side, bool) {
	for _, side := range []game.Side{game.Visitor, game.Home} {
		if p := s.sides[side]; p != nil && p.UserID == userID {
			return side, true
		}
	}
	return 0, false
}

type ParticipantView struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	TeamID    string `json:"team_id"`
	TeamName  string `json:"team_name"`
	Connected bool   `json:"connected"`
}

// Snapshot is the full client-facing picture of one game. It is what the
// REST surface returns and what the state event carries.
type Snapshot struct {
	GameID    string           `json:"game_id"`
	Status    string           `json:"status"`
	JoinCode  string           `json:"join_code,omitempty"`
	Home      *ParticipantView `json:"home,omitempty"`
	Visitor   *ParticipantView `json:"visitor,omitempty"`
	State     *game.State      `json:"state,omitempty"`
	Result    *Result          `json:"result,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	StartedAt *time.Time       `json:"started_at,omitempty"`
	EndedAt   *time.Time       `json:"ended_at,omitempty"`
}

func (s *GameSession) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		GameID:    s.id,
		Status:    s.status,
		Home:      participantView(s.sides[game.Home]),
		Visitor:   participantView(s.sides[game.Visitor]),
		Result:    s.result,
		CreatedAt: s.createdAt,
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
	}
	if s.status == statusWaiting {
		snap.JoinCode = s.joinCode
	} else if s.startedAt != nil {
		st := s.state
		snap.State = &st
	}
	return snap
}

func participantView(p *Participant) *ParticipantView {
	if p == nil {
		return nil
	}
	v := &ParticipantView{
		UserID:    p.UserID,
		Name:      p.Name,
		TeamID:    p.TeamID,
		Connected: p.Connected,
	}
	if p.Lineup != nil {
		v.TeamName = p.Lineup.TeamName
	}
	return v
}
