package deck

import rand "math/rand/v2"

// Size is the number of cards in a full deck.
const Size = 52

// HandSize is the number of cards each of four seats receives.
const HandSize = Size / 4

// Deck represents a deck of playing cards
type Deck struct {
	cards []Card
}

// New creates an ordered 52-card deck: clubs, diamonds, hearts, spades, each
// from rank 1 to 13.
func New() *Deck {
	d := &Deck{cards: make([]Card, 0, Size)}
	for _, suit := range PlayingSuits {
		for rank := MinRank; rank <= MaxRank; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	return d
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Cards returns a copy of the deck in its current order.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards)
}

// DealHands deals cards round-robin, card i going to hand i mod 4, and sorts
// each hand. It returns false unless exactly 52 cards are supplied.
func DealHands(cards []Card) ([4][]Card, bool) {
	var hands [4][]Card
	if len(cards) != Size {
		return hands, false
	}
	for i := range hands {
		hands[i] = make([]Card, 0, HandSize)
	}
	for i, c := range cards {
		hands[i%4] = append(hands[i%4], c)
	}
	for i := range hands {
		SortHand(hands[i])
	}
	return hands, true
}

// ShuffleAndDeal builds a fresh deck, shuffles it and deals four hands.
func ShuffleAndDeal(rng *rand.Rand) [4][]Card {
	d := New()
	d.Shuffle(rng)
	hands, _ := DealHands(d.cards)
	return hands
}
