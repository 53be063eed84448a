package game

// Outcome is one resolved at-bat.
type Outcome string

const (
	OutcomeStrikeout Outcome = "strikeout"
	OutcomeGroundOut Outcome = "groundOut"
	OutcomeFlyOut    Outcome = "flyOut"
	OutcomeWalk      Outcome = "walk"
	OutcomeSingle    Outcome = "single"
	OutcomeDouble    Outcome = "double"
	OutcomeTriple    Outcome = "triple"
	OutcomeHomeRun   Outcome = "homeRun"
)

// Outs reports how many outs the outcome records.
func (o Outcome) Outs() int {
	switch o {
	case OutcomeStrikeout, OutcomeGroundOut, OutcomeFlyOut:
		return 1
	default:
		return 0
	}
}

func (o Outcome) IsHit() bool {
	switch o {
	case OutcomeSingle, OutcomeDouble, OutcomeTriple, OutcomeHomeRun:
		return true
	default:
		return false
	}
}

func (o Outcome) IsWalk() bool { return o == OutcomeWalk }

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeStrikeout, OutcomeGroundOut, OutcomeFlyOut, OutcomeWalk,
		OutcomeSingle, OutcomeDouble, OutcomeTriple, OutcomeHomeRun:
		return true
	default:
		return false
	}
}
