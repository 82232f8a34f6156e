package game

import (
	rand "math/rand/v2"

	"github.com/lox/bridgetable/internal/deck"
)

// Phase is the lifecycle state of the current deal.
type Phase int

const (
	AwaitingDeal Phase = iota
	InPlay
	DealComplete
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case AwaitingDeal:
		return "Awaiting Deal"
	case InPlay:
		return "In Play"
	case DealComplete:
		return "Deal Complete"
	default:
		return "Unknown"
	}
}

// TricksPerDeal is the number of tricks in one deal.
const TricksPerDeal = deck.HandSize

// TrickResult describes a resolved trick.
type TrickResult struct {
	Winner  Seat
	Claimer Seat
	Cards   [4]deck.Card
	Number  int
	// Score is set when this trick finished the deal and a contract was scored.
	Score *DealScore
}

// Table owns the hands, the current trick, the auction and the score for one
// deal at a time.
type Table struct {
	hands        [4][]deck.Card
	registered   [4]bool
	trick        *Trick
	phase        Phase
	dealer       Seat
	deals        int
	auction      *Auction
	contract     *Contract
	cardsPlayed  int
	tricksWon    [2]int
	tricksPlayed int
	scores       [4]int
	rubber       *Rubber
	rubbers      int
}

// NewTable creates an empty table awaiting its first deal.
func NewTable() *Table {
	return &Table{
		trick:  NewTrick(deck.NoTrump),
		phase:  AwaitingDeal,
		dealer: South,
		rubber: NewRubber(),
	}
}

// Sit registers seat as occupied.
func (t *Table) Sit(seat Seat) error {
	if !seat.Valid() {
		return ErrUnknownSeat
	}
	t.registered[seat] = true
	return nil
}

// Leave releases seat. Its cards stay with the seat.
func (t *Table) Leave(seat Seat) {
	if seat.Valid() {
		t.registered[seat] = false
	}
}

// Registered reports whether seat is occupied.
func (t *Table) Registered(seat Seat) bool {
	return seat.Valid() && t.registered[seat]
}

// RegisteredCount returns how many seats are occupied.
func (t *Table) RegisteredCount() int {
	n := 0
	for _, r := range t.registered {
		if r {
			n++
		}
	}
	return n
}

// Phase returns the lifecycle state of the current deal.
func (t *Table) Phase() Phase {
	return t.phase
}

// Dealer returns the seat that dealt the current deal.
func (t *Table) Dealer() Seat {
	return t.dealer
}

// DealNumber returns how many deals have been made.
func (t *Table) DealNumber() int {
	return t.deals
}

// CanDeal reports whether a new deal is allowed: no seat holds a card, or the
// table does not have exactly four registered seats.
func (t *Table) CanDeal() bool {
	if t.RegisteredCount() != 4 {
		return true
	}
	for _, h := range t.hands {
		if len(h) > 0 {
			return false
		}
	}
	return true
}

// Deal shuffles a fresh deck with rng and deals it.
func (t *Table) Deal(rng *rand.Rand) error {
	if !t.CanDeal() {
		return ErrHandsInPlay
	}
	d := deck.New()
	d.Shuffle(rng)
	return t.DealCards(d.Cards())
}

// DealCards deals an already ordered deck: card i goes to seat i mod 4 in
// South, West, North, East order.
func (t *Table) DealCards(cards []deck.Card) error {
	if !t.CanDeal() {
		return ErrHandsInPlay
	}
	hands, ok := deck.DealHands(cards)
	if !ok {
		return ErrInvalidDeck
	}

	if t.deals > 0 {
		t.dealer = t.dealer.Next()
	}
	t.deals++
	t.hands = hands
	t.trick = NewTrick(deck.NoTrump)
	t.auction = NewAuction(t.dealer)
	t.contract = nil
	t.cardsPlayed = 0
	t.tricksWon = [2]int{}
	t.tricksPlayed = 0
	t.phase = InPlay
	return nil
}

// PlayCard plays the card with the given wire code from seat's hand.
func (t *Table) PlayCard(seat Seat, code string) error {
	card, err := deck.ParseCard(code)
	if err != nil {
		return err
	}
	return t.Play(seat, card)
}

// Play plays card from seat's hand to the current trick.
func (t *Table) Play(seat Seat, card deck.Card) error {
	if !seat.Valid() {
		return ErrUnknownSeat
	}
	if t.phase != InPlay {
		return ErrNotInPlay
	}
	if !t.registered[seat] {
		return ErrSeatVacant
	}
	if t.auction.Started() && !t.auction.Done() {
		return ErrAuctionOpen
	}
	if _, ok := t.trick.Played(seat); ok {
		return ErrAlreadyPlayed
	}

	idx := -1
	for i, c := range t.hands[seat] {
		if c == card {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrCardNotHeld
	}

	if err := t.trick.Play(seat, card); err != nil {
		return err
	}
	hand := t.hands[seat]
	t.hands[seat] = append(hand[:idx:idx], hand[idx+1:]...)
	t.cardsPlayed++
	return nil
}

// Call makes an auction call for seat. It reports whether the auction is
// finished after the call. Calls are only accepted before the first card of
// the deal is played.
func (t *Table) Call(seat Seat, call Call) (bool, error) {
	if !seat.Valid() {
		return false, ErrUnknownSeat
	}
	if t.phase != InPlay {
		return false, ErrNotInPlay
	}
	if t.cardsPlayed > 0 {
		return false, ErrAuctionClosed
	}
	if err := t.auction.Call(seat, call); err != nil {
		return false, err
	}
	if !t.auction.Done() {
		return false, nil
	}
	if c, ok := t.auction.Contract(); ok {
		t.contract = &c
		t.trick.SetTrump(c.Bid.Suit)
	}
	return true, nil
}

// AuctionTurn returns the seat due to call next.
func (t *Table) AuctionTurn() (Seat, bool) {
	if t.auction == nil || t.auction.Done() || t.cardsPlayed > 0 {
		return 0, false
	}
	return t.auction.Turn(), true
}

// Contract returns the contract of the current deal, if one was reached.
func (t *Table) Contract() (Contract, bool) {
	if t.contract == nil {
		return Contract{}, false
	}
	return *t.contract, true
}

// Trump returns the trump suit in force for the current trick.
func (t *Table) Trump() deck.Suit {
	return t.trick.Trump()
}

// TrickComplete reports whether all four registered seats have played.
func (t *Table) TrickComplete() bool {
	return t.phase == InPlay && t.trick.Complete(t.registered)
}

// TakeTrick resolves a complete trick. Any seat may claim it; requesting is
// recorded but need not be the winner.
func (t *Table) TakeTrick(requesting Seat) (TrickResult, error) {
	if !requesting.Valid() {
		return TrickResult{}, ErrUnknownSeat
	}
	if !t.TrickComplete() {
		return TrickResult{}, ErrTrickIncomplete
	}
	winner, cards, err := t.trick.Resolve()
	if err != nil {
		return TrickResult{}, err
	}

	t.tricksWon[winner.Side()]++
	t.tricksPlayed++
	res := TrickResult{Winner: winner, Claimer: requesting, Cards: cards, Number: t.tricksPlayed}

	if t.tricksPlayed == TricksPerDeal {
		t.phase = DealComplete
		if t.contract != nil {
			score := t.rubber.Record(*t.contract, t.tricksWon[t.contract.Side()])
			for _, s := range Seats {
				t.scores[s] += score.Points[s.Side()]
			}
			res.Score = &score
			if t.rubber.Over {
				t.rubbers++
				t.rubber = NewRubber()
			}
		}
	}
	return res, nil
}

// Hand returns a copy of seat's hand.
func (t *Table) Hand(seat Seat) []deck.Card {
	if !seat.Valid() {
		return nil
	}
	out := make([]deck.Card, len(t.hands[seat]))
	copy(out, t.hands[seat])
	return out
}

// Hands returns a copy of every hand, indexed by seat.
func (t *Table) Hands() [4][]deck.Card {
	var out [4][]deck.Card
	for _, s := range Seats {
		out[s] = t.Hand(s)
	}
	return out
}

// PlayedCard returns the card seat has played to the current trick.
func (t *Table) PlayedCard(seat Seat) (deck.Card, bool) {
	return t.trick.Played(seat)
}

// Played returns the current trick's cards keyed by seat; seats that have
// not played are absent.
func (t *Table) Played() map[Seat]deck.Card {
	out := make(map[Seat]deck.Card, 4)
	for _, s := range Seats {
		if c, ok := t.trick.Played(s); ok {
			out[s] = c
		}
	}
	return out
}

// TricksWon returns the tricks taken this deal by each partnership.
func (t *Table) TricksWon() [2]int {
	return t.tricksWon
}

// Scores returns each seat's cumulative score.
func (t *Table) Scores() [4]int {
	return t.scores
}

// Standing returns copies of both partnerships in the rubber in progress and
// the number of rubbers completed.
func (t *Table) Standing() ([2]Partnership, int) {
	return [2]Partnership{*t.rubber.Sides[NorthSouth], *t.rubber.Sides[EastWest]}, t.rubbers
}
