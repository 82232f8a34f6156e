package server

import "github.com/lox/bridgetable/internal/game"

// DealMonitor receives notifications about deal progress and outcomes. It is
// called with the table lock held and must not block.
type DealMonitor interface {
	// OnDeal is called when fresh hands are dealt.
	OnDeal(deal DealStarted)

	// OnTrick is called after each trick is taken.
	OnTrick(dealID string, result game.TrickResult)

	// OnDealComplete is called when the thirteenth trick is taken.
	OnDealComplete(outcome DealOutcome)
}

// DealStarted describes a new deal.
type DealStarted struct {
	DealID string
	Number int
	Dealer game.Seat
	Names  [4]string
}

// DealOutcome captures the result of a single deal.
type DealOutcome struct {
	DealID    string
	Number    int
	Names     [4]string
	TricksWon [2]int
	Contract  *game.Contract
	Score     *game.DealScore
	Scores    [4]int
}

// NullDealMonitor is a no-op implementation.
type NullDealMonitor struct{}

func (NullDealMonitor) OnDeal(DealStarted)               {}
func (NullDealMonitor) OnTrick(string, game.TrickResult) {}
func (NullDealMonitor) OnDealComplete(DealOutcome)       {}

// MultiDealMonitor fans events out to multiple monitors.
type MultiDealMonitor struct {
	monitors []DealMonitor
}

// NewMultiDealMonitor builds a composite monitor, pruning nil entries and
// returning a NullDealMonitor when no monitors are provided.
func NewMultiDealMonitor(monitors ...DealMonitor) DealMonitor {
	filtered := make([]DealMonitor, 0, len(monitors))
	for _, monitor := range monitors {
		if monitor != nil {
			filtered = append(filtered, monitor)
		}
	}

	switch len(filtered) {
	case 0:
		return NullDealMonitor{}
	case 1:
		return filtered[0]
	default:
		return MultiDealMonitor{monitors: filtered}
	}
}

func (m MultiDealMonitor) OnDeal(deal DealStarted) {
	for _, monitor := range m.monitors {
		monitor.OnDeal(deal)
	}
}

func (m MultiDealMonitor) OnTrick(dealID string, result game.TrickResult) {
	for _, monitor := range m.monitors {
		monitor.OnTrick(dealID, result)
	}
}

func (m MultiDealMonitor) OnDealComplete(outcome DealOutcome) {
	for _, monitor := range m.monitors {
		monitor.OnDealComplete(outcome)
	}
}
