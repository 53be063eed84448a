package game

import "math/rand"

// DefaultRating stands in for any missing 0-100 rating.
const DefaultRating = 50

type BatterRating struct {
	Contact int `json:"contact"`
	Power   int `json:"power"`
	Eye     int `json:"eye"`
}

type PitcherRating struct {
	Stuff   int `json:"stuff"`
	Control int `json:"control"`
}

func (r BatterRating) composite() int {
	return (normRating(r.Contact) + normRating(r.Power) + normRating(r.Eye)) / 3
}

func (r PitcherRating) composite() int {
	return (normRating(r.Stuff) + normRating(r.Control)) / 2
}

func normRating(v int) int {
	if v <= 0 {
		return DefaultRating
	}
	if v > 100 {
		return 100
	}
	return v
}

// Roller is the randomness source for at-bat resolution. Tests substitute a
// scripted implementation.
type Roller interface {
	// RollDie returns a uniform value in [1, sides].
	RollDie(sides int) int
}

type mathRoller struct{}

func (mathRoller) RollDie(sides int) int { return rand.Intn(sides) + 1 }

func NewRoller() Roller { return mathRoller{} }

// Roll is one at-bat's randomness: the two dice plus the skill draw that
// Resolve consumes for the rating shift.
type Roll struct {
	Dice  [2]int `json:"dice"`
	Skill int    `json:"-"`
}

func NewRoll(r Roller) Roll {
	return Roll{
		Dice:  [2]int{r.RollDie(6), r.RollDie(6)},
		Skill: r.RollDie(100),
	}
}

func (r Roll) Sum() int { return r.Dice[0] + r.Dice[1] }

// baseOutcomes maps the dice sum to the unshifted outcome. The shape is the
// classic tabletop sheet: the rarest sums are the big hits, seven is the
// routine ground ball.
var baseOutcomes = [13]Outcome{
	2:  OutcomeHomeRun,
	3:  OutcomeTriple,
	4:  OutcomeDouble,
	5:  OutcomeGroundOut,
	6:  OutcomeSingle,
	7:  OutcomeGroundOut,
	8:  OutcomeFlyOut,
	9:  OutcomeWalk,
	10: OutcomeSingle,
	11: OutcomeStrikeout,
	12: OutcomeStrikeout,
}

// ladder orders outcomes from worst to best for the batter. The skill shift
// moves the base outcome at most one rung.
var ladder = [...]Outcome{
	OutcomeStrikeout,
	OutcomeGroundOut,
	OutcomeFlyOut,
	OutcomeWalk,
	OutcomeSingle,
	OutcomeDouble,
	OutcomeTriple,
	OutcomeHomeRun,
}

// Resolve maps one roll onto an outcome. Evenly matched ratings leave the
// base table untouched; a rating gap gives the stronger side a shift chance
// of half the gap, in percent. Pure: same inputs, same outcome.
func Resolve(batter BatterRating, pitcher PitcherRating, roll Roll) Outcome {
	out := baseOutcomes[clampSum(roll.Sum())]
	diff := batter.composite() - pitcher.composite()
	if diff == 0 || roll.Skill < 1 {
		return out
	}
	threshold := diff
	if threshold < 0 {
		threshold = -threshold
	}
	if roll.Skill > threshold/2 {
		return out
	}
	i := ladderIndex(out)
	if diff > 0 && i < len(ladder)-1 {
		i++
	}
	if diff < 0 && i > 0 {
		i--
	}
	return ladder[i]
}

func ladderIndex(o Outcome) int {
	for i, v := range ladder {
		if v == o {
			return i
		}
	}
	return 0
}

func clampSum(sum int) int {
	if sum < 2 {
		return 2
	}
	if sum > 12 {
		return 12
	}
	return sum
}
