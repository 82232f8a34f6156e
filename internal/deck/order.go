package deck

import "sort"

// displayPriority orders suits inside a sorted hand, highest first.
var displayPriority = map[Suit]int{
	Spades:   4,
	Hearts:   3,
	Clubs:    2,
	Diamonds: 1,
}

// bidRank orders bid denominations; NoTrump outranks every trump suit.
var bidRank = map[Suit]int{
	Clubs:    1,
	Diamonds: 2,
	Hearts:   3,
	Spades:   4,
	NoTrump:  5,
}

// DisplayPriority returns the sort weight of a suit in a hand.
func DisplayPriority(s Suit) int {
	return displayPriority[s]
}

// BidRank returns the auction weight of a denomination.
func BidRank(s Suit) int {
	return bidRank[s]
}

// Compare reports whether a beats b inside a trick with the given lead and
// trump suits. Equal cards never beat each other. Pass NoTrump as trump when
// there is no trump suit.
func Compare(a, b Card, lead, trump Suit) bool {
	aTrump, bTrump := a.Suit == trump, b.Suit == trump
	if aTrump != bTrump {
		return aTrump
	}
	aLead, bLead := a.Suit == lead, b.Suit == lead
	if aLead != bLead {
		return aLead
	}
	return a.Rank > b.Rank
}

// SortHand orders cards in place by display priority, then descending rank.
func SortHand(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		pi, pj := displayPriority[cards[i].Suit], displayPriority[cards[j].Suit]
		if pi != pj {
			return pi > pj
		}
		return cards[i].Rank > cards[j].Rank
	})
}
