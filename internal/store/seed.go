package store

import (
	"context"
	"errors"
	"fmt"
)

// SeedCredential is a freshly minted demo login. Tokens exist only in this
// return value; callers log them once and they are gone.
type SeedCredential struct {
	UserID string
	Name   string
	Token  string
}

var demoUsers = []string{"demo-home", "demo-visitor"}

var demoTeams = []struct {
	name, city string
	players    []Player
}{
	{
		name: "Herons", city: "Harbor City",
		players: []Player{
			{Name: "Ace Delgado", LineupSpot: PitcherSpot, Stuff: 74, Control: 68},
			{Name: "Scooter Vance", LineupSpot: 1, Contact: 78, Power: 34, Eye: 70},
			{Name: "Milo Reyes", LineupSpot: 2, Contact: 71, Power: 45, Eye: 62},
			{Name: "Boone Tatum", LineupSpot: 3, Contact: 66, Power: 82, Eye: 58},
			{Name: "Hammer Okafor", LineupSpot: 4, Contact: 58, Power: 90, Eye: 47},
			{Name: "Duke Castellano", LineupSpot: 5, Contact: 62, Power: 73, Eye: 51},
			{Name: "Pepper Lindqvist", LineupSpot: 6, Contact: 64, Power: 40, Eye: 66},
			{Name: "Rook Barnes", LineupSpot: 7, Contact: 55, Power: 52, Eye: 49},
			{Name: "Twig Morita", LineupSpot: 8, Contact: 59, Power: 31, Eye: 60},
			{Name: "Lefty Criss", LineupSpot: 9, Contact: 44, Power: 28, Eye: 42},
		},
	},
	{
		name: "Rattlers", city: "Red Rock",
		players: []Player{
			{Name: "Smoke Abernathy", LineupSpot: PitcherSpot, Stuff: 81, Control: 59},
			{Name: "Flash Gutierrez", LineupSpot: 1, Contact: 74, Power: 38, Eye: 72},
			{Name: "Sonny Park", LineupSpot: 2, Contact: 69, Power: 48, Eye: 64},
			{Name: "Mack Donahue", LineupSpot: 3, Contact: 70, Power: 76, Eye: 55},
			{Name: "Tiny Kowalski", LineupSpot: 4, Contact: 54, Power: 88, Eye: 44},
			{Name: "Copper Nkemdirim", LineupSpot: 5, Contact: 61, Power: 69, Eye: 53},
			{Name: "Skip Fontaine", LineupSpot: 6, Contact: 65, Power: 42, Eye: 63},
			{Name: "Bucky Holt", LineupSpot: 7, Contact: 57, Power: 50, Eye: 48},
			{Name: "Moss Whitfield", LineupSpot: 8, Contact: 60, Power: 33, Eye: 58},
			{Name: "Knuckles Ferro", LineupSpot: 9, Contact: 41, Power: 30, Eye: 45},
		},
	},
}

// SeedDemo installs two demo users and two full ten-man teams when missing.
// Idempotent by name: entities already present are skipped and no credential
// is returned for them.
func SeedDemo(ctx context.Context, st Store) ([]SeedCredential, error) {
	var creds []SeedCredential
	for _, name := range demoUsers {
		_, err := st.GetUserByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("seed user %s: %w", name, err)
		}
		token, err := NewToken()
		if err != nil {
			return nil, err
		}
		u := User{ID: NewID(), Name: name, TokenHash: HashToken(token)}
		if err := st.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", name, err)
		}
		creds = append(creds, SeedCredential{UserID: u.ID, Name: name, Token: token})
	}

	for _, td := range demoTeams {
		_, err := st.GetTeamByName(ctx, td.name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("seed team %s: %w", td.name, err)
		}
		team := Team{ID: NewID(), Name: td.name, City: td.city}
		roster := make([]Player, len(td.players))
		for i, p := range td.players {
			p.ID = NewID()
			p.TeamID = team.ID
			roster[i] = p
		}
		if err := st.CreateTeamWithRoster(ctx, team, roster); err != nil {
			return nil, fmt.Errorf("seed team %s: %w", td.name, err)
		}
	}
	return creds, nil
}
