package viewmodel

import (
	"fmt"

	"sandlot/internal/game"
)

var outcomeVerbs = map[game.Outcome]string{
	game.OutcomeStrikeout: "strikes out",
	game.OutcomeGroundOut: "grounds out",
	game.OutcomeFlyOut:    "flies out",
	game.OutcomeWalk:      "walks",
	game.OutcomeSingle:    "singles",
	game.OutcomeDouble:    "doubles",
	game.OutcomeTriple:    "triples",
	game.OutcomeHomeRun:   "homers",
}

// PlayDescription renders one at-bat as a broadcast line, e.g.
// "Cy Cobb doubles, 2 runs score".
func PlayDescription(batterName string, o game.Outcome, runs int) string {
	verb, ok := outcomeVerbs[o]
	if !ok {
		verb = "is retired"
	}
	switch {
	case runs == 1:
		return fmt.Sprintf("%s %s, a run scores", batterName, verb)
	case runs > 1:
		return fmt.Sprintf("%s %s, %d runs score", batterName, verb, runs)
	default:
		return fmt.Sprintf("%s %s", batterName, verb)
	}
}
