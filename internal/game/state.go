package game

const (
	// LineupSize is the batting order length per side.
	LineupSize = 9
	// MinInnings is the regulation game length; ties go to extras.
	MinInnings = 9

	outsPerHalf = 3
)

// Side indexes Score and BatterIndex. The visitor bats first.
type Side int

const (
	Visitor Side = 0
	Home    Side = 1
)

func (s Side) Opponent() Side {
	if s == Visitor {
		return Home
	}
	return Visitor
}

func (s Side) String() string {
	if s == Visitor {
		return "visitor"
	}
	return "home"
}

// State is the full authoritative position of one game between plays. It is
// a value: Apply copies, never mutates.
type State struct {
	Inning      int      `json:"inning"`
	TopOfInning bool     `json:"top_of_inning"`
	Outs        int      `json:"outs"`
	Score       [2]int   `json:"score"`
	Bases       [3]bool  `json:"bases"`
	BatterIndex [2]int   `json:"batter_index"`
	InningRuns  [][2]int `json:"inning_runs"`
	Over        bool     `json:"over"`
}

// NewState positions the game at the top of the first, nobody on, visitor up.
func NewState() State {
	return State{
		Inning:      1,
		TopOfInning: true,
		InningRuns:  [][2]int{{0, 0}},
	}
}

func (s State) BattingSide() Side {
	if s.TopOfInning {
		return Visitor
	}
	return Home
}

func (s State) FieldingSide() Side { return s.BattingSide().Opponent() }

// Runners counts occupied bases.
func (s State) Runners() int {
	n := 0
	for _, occupied := range s.Bases {
		if occupied {
			n++
		}
	}
	return n
}

// Winner reports the leading side of a finished game.
func (s State) Winner() (Side, bool) {
	if !s.Over {
		return Visitor, false
	}
	if s.Score[Visitor] > s.Score[Home] {
		return Visitor, true
	}
	return Home, true
}

// Apply advances the state by one resolved at-bat. The input is never
// modified. Callers must not Apply onto a terminal state; the registry
// rejects that with a conflict before it gets here.
func Apply(s State, o Outcome) State {
	next := s
	next.InningRuns = append([][2]int(nil), s.InningRuns...)

	bat := next.BattingSide()
	runs := 0

	switch o {
	case OutcomeWalk:
		// forced advances only
		if next.Bases[0] {
			if next.Bases[1] {
				if next.Bases[2] {
					runs++
				} else {
					next.Bases[2] = true
				}
			} else {
				next.Bases[1] = true
			}
		}
		next.Bases[0] = true
	case OutcomeSingle:
		if next.Bases[2] {
			runs++
		}
		next.Bases[2] = next.Bases[1]
		next.Bases[1] = next.Bases[0]
		next.Bases[0] = true
	case OutcomeDouble:
		if next.Bases[2] {
			runs++
		}
		if next.Bases[1] {
			runs++
		}
		next.Bases[2] = next.Bases[0]
		next.Bases[1] = true
		next.Bases[0] = false
	case OutcomeTriple:
		runs += next.Runners()
		next.Bases = [3]bool{false, false, true}
	case OutcomeHomeRun:
		runs += next.Runners() + 1
		next.Bases = [3]bool{}
	}

	next.Score[bat] += runs
	next.InningRuns[len(next.InningRuns)-1][bat] += runs
	next.BatterIndex[bat] = (next.BatterIndex[bat] + 1) % LineupSize

	// walk-off: the instant the home side leads in a decision inning
	if bat == Home && next.Inning >= MinInnings && next.Score[Home] > next.Score[Visitor] {
		next.Over = true
		return next
	}

	next.Outs += o.Outs()
	if next.Outs >= outsPerHalf {
		next = flipHalf(next)
	}
	return next
}

// flipHalf ends the current half: outs reset, bases clear, and the game-over
// conditions are checked before the other side would bat.
func flipHalf(s State) State {
	s.Outs = 0
	s.Bases = [3]bool{}
	if s.TopOfInning {
		// home already leads after the top: the bottom half is not played
		if s.Inning >= MinInnings && s.Score[Home] > s.Score[Visitor] {
			s.Over = true
			return s
		}
		s.TopOfInning = false
		return s
	}
	if s.Inning >= MinInnings && s.Score[Visitor] != s.Score[Home] {
		s.Over = true
		return s
	}
	s.TopOfInning = true
	s.Inning++
	s.InningRuns = append(s.InningRuns, [2]int{})
	return s
}
