package game

import "github.com/lox/bridgetable/internal/deck"

// Trick holds the cards played to the current round, one slot per seat.
type Trick struct {
	played  [4]*deck.Card
	leader  Seat
	lead    deck.Suit
	hasLead bool
	trump   deck.Suit
}

// NewTrick creates an empty trick. Pass deck.NoTrump when there is no trump.
func NewTrick(trump deck.Suit) *Trick {
	return &Trick{trump: trump}
}

// Play records card for seat. The first card played sets the lead suit.
func (t *Trick) Play(seat Seat, card deck.Card) error {
	if !seat.Valid() {
		return ErrUnknownSeat
	}
	if t.played[seat] != nil {
		return ErrAlreadyPlayed
	}
	if !t.hasLead {
		t.lead = card.Suit
		t.leader = seat
		t.hasLead = true
	}
	c := card
	t.played[seat] = &c
	return nil
}

// Played returns the card seat has played to this trick.
func (t *Trick) Played(seat Seat) (deck.Card, bool) {
	if !seat.Valid() || t.played[seat] == nil {
		return deck.Card{}, false
	}
	return *t.played[seat], true
}

// Count returns how many cards have been played.
func (t *Trick) Count() int {
	n := 0
	for _, c := range t.played {
		if c != nil {
			n++
		}
	}
	return n
}

// Lead returns the lead suit, if any card has been played.
func (t *Trick) Lead() (deck.Suit, bool) {
	return t.lead, t.hasLead
}

// Trump returns the trump suit for this trick.
func (t *Trick) Trump() deck.Suit {
	return t.trump
}

// SetTrump changes the trump suit. It only takes effect for resolution.
func (t *Trick) SetTrump(trump deck.Suit) {
	t.trump = trump
}

// Complete reports whether all four seats are registered and each has played.
func (t *Trick) Complete(registered [4]bool) bool {
	for _, s := range Seats {
		if !registered[s] || t.played[s] == nil {
			return false
		}
	}
	return true
}

// Resolve determines the winning seat, clears every slot and the lead suit,
// and returns the winner along with the cards that made up the trick.
// It must only be called once all four slots are filled.
func (t *Trick) Resolve() (Seat, [4]deck.Card, error) {
	var cards [4]deck.Card
	if t.Count() != 4 {
		return 0, cards, ErrTrickIncomplete
	}

	best := t.leader
	order := t.leader.Rotate()
	for _, s := range order[1:] {
		if deck.Compare(*t.played[s], *t.played[best], t.lead, t.trump) {
			best = s
		}
	}

	for _, s := range Seats {
		cards[s] = *t.played[s]
	}
	t.reset()
	return best, cards, nil
}

func (t *Trick) reset() {
	t.played = [4]*deck.Card{}
	t.hasLead = false
	t.lead = 0
	t.leader = 0
}
