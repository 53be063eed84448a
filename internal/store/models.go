package store

import "time"

const (
	GameWaiting = "waiting"
	GameActive  = "active"
	GameEnded   = "ended"
)

const (
	ReasonCompleted         = "completed"
	ReasonForfeit           = "forfeit"
	ReasonDisconnectTimeout = "disconnect_timeout"
	ReasonCancelled         = "cancelled"
)

// LineupSpot 1..9 is the batting order; spot 0 is the starting pitcher.
const PitcherSpot = 0

type User struct {
	ID        string
	Name      string
	TokenHash string
	CreatedAt time.Time
}

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

type Player struct {
	ID         string `json:"id"`
	TeamID     string `json:"team_id"`
	Name       string `json:"name"`
	LineupSpot int    `json:"lineup_spot"`
	Contact    int    `json:"contact"`
	Power      int    `json:"power"`
	Eye        int    `json:"eye"`
	Stuff      int    `json:"stuff"`
	Control    int    `json:"control"`
}

type Game struct {
	ID            string
	JoinCode      string
	Status        string
	HomeUserID    string
	HomeTeamID    string
	VisitorUserID string
	VisitorTeamID string
	State         []byte
	WinnerUserID  string
	LoserUserID   string
	EndReason     string
	CreatedAt     time.Time
	StartedAt     *time.Time
	EndedAt       *time.Time
}
