package viewmodel

import "sandlot/internal/game"

type InningLine struct {
	Inning  int `json:"inning"`
	Visitor int `json:"visitor"`
	Home    int `json:"home"`
}

// LineScore is the classic inning-by-inning box score strip.
type LineScore struct {
	Innings []InningLine `json:"innings"`
	Visitor int          `json:"visitor"`
	Home    int          `json:"home"`
}

func BuildLineScore(s game.State) LineScore {
	ls := LineScore{
		Innings: make([]InningLine, 0, len(s.InningRuns)),
		Visitor: s.Score[game.Visitor],
		Home:    s.Score[game.Home],
	}
	for i, row := range s.InningRuns {
		ls.Innings = append(ls.Innings, InningLine{
			Inning:  i + 1,
			Visitor: row[game.Visitor],
			Home:    row[game.Home],
		})
	}
	return ls
}
