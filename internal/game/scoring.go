package game

import "github.com/lox/bridgetable/internal/deck"

const (
	gamePoints        = 100
	rubberBonusFast   = 700
	rubberBonusSlow   = 500
	insultBonus       = 50
	tricksInBook      = 6
	smallSlamLevel    = 6
	grandSlamLevel    = 7
	smallSlamBonus    = 500
	smallSlamBonusVul = 750
	grandSlamBonus    = 1000
	grandSlamBonusVul = 1500
)

// Partnership accumulates rubber points for one side.
type Partnership struct {
	Side  Side
	Above int // bonuses and penalties
	Below int // contract points toward the current game
	Games int
	Score int
}

// Vulnerable reports whether the side has already won a game.
func (p *Partnership) Vulnerable() bool {
	return p.Games > 0
}

// Award adds points above and below the line.
func (p *Partnership) Award(above, below int) {
	p.Above += above
	p.Below += below
	p.Score += above + below
}

// Rubber tracks two partnerships until one of them wins two games.
type Rubber struct {
	Sides  [2]*Partnership
	Over   bool
	Winner Side
}

// NewRubber starts an empty rubber.
func NewRubber() *Rubber {
	return &Rubber{Sides: [2]*Partnership{{Side: NorthSouth}, {Side: EastWest}}}
}

// DealScore is the outcome of scoring one deal.
type DealScore struct {
	Contract  Contract
	Made      bool
	Tricks    int // tricks taken by the declaring side
	Points    [2]int
	GameWon   bool
	RubberWon bool
}

// Record scores contract given the tricks won by the declaring side and
// advances games and the rubber accordingly.
func (r *Rubber) Record(c Contract, declarerTricks int) DealScore {
	decl := r.Sides[c.Side()]
	def := r.Sides[c.Side().Other()]
	res := DealScore{Contract: c, Tricks: declarerTricks}

	above, below, penalty := ScoreContract(c, declarerTricks, decl.Vulnerable())
	if penalty > 0 {
		def.Award(penalty, 0)
		res.Points[def.Side] = penalty
		return res
	}

	res.Made = true
	decl.Award(above, below)
	res.Points[decl.Side] = above + below
	if decl.Below >= gamePoints {
		decl.Games++
		decl.Below, def.Below = 0, 0
		res.GameWon = true
	}

	if decl.Games == 2 && !r.Over {
		bonus := rubberBonusFast
		if decl.Games+def.Games == 3 {
			bonus = rubberBonusSlow
		}
		decl.Award(bonus, 0)
		res.Points[decl.Side] += bonus
		r.Over = true
		r.Winner = decl.Side
		res.RubberWon = true
	}
	return res
}

// ScoreContract returns the declarer's points above and below the line, or
// the defenders' penalty when the contract fails.
func ScoreContract(c Contract, declarerTricks int, vulnerable bool) (above, below, penalty int) {
	needed := tricksInBook + c.Bid.Level
	if declarerTricks < needed {
		return 0, 0, undertrickPenalty(needed-declarerTricks, c.Doubled, vulnerable)
	}

	below = trickPoints(c.Bid)
	if c.Doubled {
		below *= 2
		above += insultBonus
	}

	over := declarerTricks - needed
	switch {
	case over == 0:
	case c.Doubled && vulnerable:
		above += over * 200
	case c.Doubled:
		above += over * 100
	default:
		above += over * perTrick(c.Bid.Suit)
	}

	switch c.Bid.Level {
	case smallSlamLevel:
		above += pick(vulnerable, smallSlamBonusVul, smallSlamBonus)
	case grandSlamLevel:
		above += pick(vulnerable, grandSlamBonusVul, grandSlamBonus)
	}
	return above, below, 0
}

func trickPoints(b Bid) int {
	if b.Suit == deck.NoTrump {
		return 40 + (b.Level-1)*30
	}
	return b.Level * perTrick(b.Suit)
}

func perTrick(s deck.Suit) int {
	switch s {
	case deck.Clubs, deck.Diamonds:
		return 20
	default:
		return 30
	}
}

func undertrickPenalty(down int, doubled, vulnerable bool) int {
	if !doubled {
		return down * pick(vulnerable, 100, 50)
	}
	total := 0
	for i := 1; i <= down; i++ {
		switch {
		case vulnerable && i == 1:
			total += 200
		case vulnerable:
			total += 300
		case i == 1:
			total += 100
		case i <= 3:
			total += 200
		default:
			total += 300
		}
	}
	return total
}

func pick(cond bool, a, b int) int {
	if cond {
		return a
	}
	return b
}
