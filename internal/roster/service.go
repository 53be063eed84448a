package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sandlot/internal/game"
	"sandlot/internal/store"
)

var (
	ErrTeamNotFound     = errors.New("team_not_found")
	ErrRosterIncomplete = errors.New("roster_incomplete")
)

type Batter struct {
	Name   string            `json:"name"`
	Spot   int               `json:"spot"`
	Rating game.BatterRating `json:"rating"`
}

type Pitcher struct {
	Name   string             `json:"name"`
	Rating game.PitcherRating `json:"rating"`
}

// Lineup is one team's game-day card: nine batters in order plus the
// starting pitcher. Ratings are read once per game and cached on the
// session; mid-game roster edits do not affect games in progress.
type Lineup struct {
	TeamID   string                  `json:"team_id"`
	TeamName string                  `json:"team_name"`
	Batters  [game.LineupSize]Batter `json:"batters"`
	Pitcher  Pitcher                 `json:"pitcher"`
}

// Service is the read-only team catalog over the store.
type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Teams(ctx context.Context) ([]store.Team, error) {
	return s.store.ListTeams(ctx)
}

// Lineup assembles and validates a team's card: exactly one pitcher at spot
// 0 and batters filling spots 1..9.
func (s *Service) Lineup(ctx context.Context, teamID string) (*Lineup, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("load team %s: %w", teamID, err)
	}
	players, err := s.store.ListRoster(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load roster %s: %w", teamID, err)
	}

	lineup := &Lineup{
		TeamID:   team.ID,
		TeamName: DisplayName(*team),
	}
	var havePitcher bool
	haveBatter := make(map[int]bool, game.LineupSize)
	for _, p := range players {
		switch {
		case p.LineupSpot == store.PitcherSpot:
			if havePitcher {
				return nil, fmt.Errorf("%w: team %s has two pitchers", ErrRosterIncomplete, teamID)
			}
			havePitcher = true
			lineup.Pitcher = Pitcher{
				Name:   p.Name,
				Rating: game.PitcherRating{Stuff: p.Stuff, Control: p.Control},
			}
		case p.LineupSpot >= 1 && p.LineupSpot <= game.LineupSize:
			haveBatter[p.LineupSpot] = true
			lineup.Batters[p.LineupSpot-1] = Batter{
				Name: p.Name,
				Spot: p.LineupSpot,
				Rating: game.BatterRating{
					Contact: p.Contact,
					Power:   p.Power,
					Eye:     p.Eye,
				},
			}
		default:
			return nil, fmt.Errorf("%w: team %s has invalid lineup spot %d", ErrRosterIncomplete, teamID, p.LineupSpot)
		}
	}
	if !havePitcher {
		return nil, fmt.Errorf("%w: team %s has no pitcher", ErrRosterIncomplete, teamID)
	}
	if len(haveBatter) != game.LineupSize {
		return nil, fmt.Errorf("%w: team %s has %d of %d batters", ErrRosterIncomplete, teamID, len(haveBatter), game.LineupSize)
	}
	return lineup, nil
}

// DisplayName joins city and nickname, e.g. "Red Rock Rattlers".
func DisplayName(t store.Team) string {
	return strings.TrimSpace(t.City + " " + t.Name)
}
