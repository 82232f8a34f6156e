package deck

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit represents a card suit. NoTrump only exists as a bid denomination.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
	NoTrump
)

// PlayingSuits lists the four suits that appear on physical cards.
var PlayingSuits = [4]Suit{Clubs, Diamonds, Hearts, Spades}

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	case NoTrump:
		return "NT"
	default:
		return "?"
	}
}

// Letter returns the wire letter of a suit.
func (s Suit) Letter() byte {
	switch s {
	case Clubs:
		return 'C'
	case Diamonds:
		return 'D'
	case Hearts:
		return 'H'
	case Spades:
		return 'S'
	case NoTrump:
		return 'N'
	default:
		return '?'
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// IsPlaying reports whether the suit can appear on a card.
func (s Suit) IsPlaying() bool {
	return s >= Clubs && s <= Spades
}

// SuitFromLetter parses a wire letter, case-insensitively.
func SuitFromLetter(b byte) (Suit, bool) {
	switch b {
	case 'C', 'c':
		return Clubs, true
	case 'D', 'd':
		return Diamonds, true
	case 'H', 'h':
		return Hearts, true
	case 'S', 's':
		return Spades, true
	case 'N', 'n':
		return NoTrump, true
	}
	return 0, false
}

// Rank is the card rank, 1 (the two) through 13 (the ace).
type Rank int

const (
	MinRank Rank = 1
	MaxRank Rank = 13
	Ace     Rank = 13
	King    Rank = 12
	Queen   Rank = 11
	Jack    Rank = 10
)

// Valid reports whether the rank is in range.
func (r Rank) Valid() bool {
	return r >= MinRank && r <= MaxRank
}

// String returns the display form of a rank (2..10, J, Q, K, A).
func (r Rank) String() string {
	switch {
	case r == Ace:
		return "A"
	case r == King:
		return "K"
	case r == Queen:
		return "Q"
	case r == Jack:
		return "J"
	case r.Valid():
		return strconv.Itoa(int(r) + 1)
	default:
		return "?"
	}
}

// Card represents a playing card
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the human form of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Code returns the wire code: suit letter followed by the decimal rank.
// Use Encode when the card may be out of range.
func (c Card) Code() string {
	return string(c.Suit.Letter()) + strconv.Itoa(int(c.Rank))
}

// Valid reports whether the card could exist in a deck.
func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit.IsPlaying()
}

// ParseError describes a malformed card code.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid card %q: %s", e.Input, e.Reason)
}

// Encode returns the wire code for a valid card.
func Encode(c Card) (string, error) {
	if !c.Suit.IsPlaying() {
		return "", &ParseError{Input: c.String(), Reason: "suit is not a playing suit"}
	}
	if !c.Rank.Valid() {
		return "", &ParseError{Input: c.String(), Reason: fmt.Sprintf("rank %d out of range", int(c.Rank))}
	}
	return c.Code(), nil
}

// ParseCard parses a wire code such as "S13" or "h1".
func ParseCard(code string) (Card, error) {
	if len(code) < 2 {
		return Card{}, &ParseError{Input: code, Reason: "too short"}
	}
	suit, ok := SuitFromLetter(code[0])
	if !ok || !suit.IsPlaying() {
		return Card{}, &ParseError{Input: code, Reason: "unknown suit letter"}
	}
	digits := code[1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Card{}, &ParseError{Input: code, Reason: "rank is not a number"}
		}
	}
	if len(digits) > 1 && digits[0] == '0' {
		return Card{}, &ParseError{Input: code, Reason: "rank has a leading zero"}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || !Rank(n).Valid() {
		return Card{}, &ParseError{Input: code, Reason: "rank out of range"}
	}
	return Card{Rank: Rank(n), Suit: suit}, nil
}

// ParseCards parses a comma-separated list of codes. An empty string is an
// empty list.
func ParseCards(s string) ([]Card, error) {
	if s == "" {
		return []Card{}, nil
	}
	parts := strings.Split(s, ",")
	cards := make([]Card, 0, len(parts))
	for _, p := range parts {
		c, err := ParseCard(p)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// Codes returns the wire codes for a list of cards.
func Codes(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Code()
	}
	return out
}
