package game

import (
	"fmt"
	"strings"

	"github.com/lox/bridgetable/internal/deck"
)

// Bid is a contract offer: a level from 1 to 7 in a denomination.
type Bid struct {
	Level int
	Suit  deck.Suit
}

// Outranks reports whether b is strictly higher than other: level first,
// denomination as the tie-break.
func (b Bid) Outranks(other Bid) bool {
	if b.Level != other.Level {
		return b.Level > other.Level
	}
	return deck.BidRank(b.Suit) > deck.BidRank(other.Suit)
}

// Valid reports whether the bid can be made at all.
func (b Bid) Valid() bool {
	return b.Level >= 1 && b.Level <= 7 && deck.BidRank(b.Suit) > 0
}

// Code returns the two-character wire form, e.g. "3n".
func (b Bid) Code() string {
	return fmt.Sprintf("%d%c", b.Level, b.Suit.Letter()+('a'-'A'))
}

// String returns the bid in display form, e.g. "3NT" or "4♠".
func (b Bid) String() string {
	return fmt.Sprintf("%d%s", b.Level, b.Suit)
}

// CallKind distinguishes the three kinds of call.
type CallKind int

const (
	CallBid CallKind = iota
	CallPass
	CallDouble
)

// Call is one action in the auction.
type Call struct {
	Kind CallKind
	Bid  Bid
}

// Pass and Double are the two calls that carry no bid.
var (
	Pass   = Call{Kind: CallPass}
	Double = Call{Kind: CallDouble}
)

// BidCall wraps a bid as a call.
func BidCall(level int, suit deck.Suit) Call {
	return Call{Kind: CallBid, Bid: Bid{Level: level, Suit: suit}}
}

// String returns the call in display form
func (c Call) String() string {
	switch c.Kind {
	case CallPass:
		return "pass"
	case CallDouble:
		return "double"
	default:
		return c.Bid.String()
	}
}

// ParseCall parses "pass", "double" (or "x"), or a bid code such as "1c" or
// "7n": a level digit followed by one of c, d, h, s, n.
func ParseCall(s string) (Call, error) {
	switch strings.ToLower(s) {
	case "pass", "p":
		return Pass, nil
	case "double", "x":
		return Double, nil
	}
	if len(s) != 2 || s[0] < '1' || s[0] > '7' {
		return Call{}, fmt.Errorf("%w: %q", ErrInvalidCall, s)
	}
	suit, ok := deck.SuitFromLetter(s[1])
	if !ok {
		return Call{}, fmt.Errorf("%w: %q", ErrInvalidCall, s)
	}
	return BidCall(int(s[0]-'0'), suit), nil
}

// Contract is the outcome of a completed auction.
type Contract struct {
	Bid      Bid
	Doubled  bool
	Declarer Seat
}

// Side returns the declaring partnership.
func (c Contract) Side() Side {
	return c.Declarer.Side()
}

// String returns the contract in display form, e.g. "4♠x by South".
func (c Contract) String() string {
	s := c.Bid.String()
	if c.Doubled {
		s += "x"
	}
	return s + " by " + c.Declarer.String()
}

// Auction sequences calls among the four seats. It never terminates on its
// own; callers check Done after every call.
type Auction struct {
	dealer   Seat
	turn     int
	current  *Bid
	bidder   Seat
	doubled  bool
	passes   int
	calls    int
	declared [2]map[deck.Suit]Seat
}

// NewAuction starts an auction in which dealer calls first.
func NewAuction(dealer Seat) *Auction {
	return &Auction{
		dealer:   dealer,
		declared: [2]map[deck.Suit]Seat{{}, {}},
	}
}

// Turn returns the seat whose call it is.
func (a *Auction) Turn() Seat {
	return (a.dealer + Seat(a.turn%4)) % 4
}

// Current returns the highest bid so far and whether it is doubled.
func (a *Auction) Current() (Bid, bool, bool) {
	if a.current == nil {
		return Bid{}, false, false
	}
	return *a.current, a.doubled, true
}

// Started reports whether any call has been accepted.
func (a *Auction) Started() bool {
	return a.calls > 0
}

// Passes returns the number of consecutive passes.
func (a *Auction) Passes() int {
	return a.passes
}

// Call applies seat's call. A rejected call leaves the turn where it was.
func (a *Auction) Call(seat Seat, call Call) error {
	if a.Done() {
		return ErrAuctionClosed
	}
	if seat != a.Turn() {
		return ErrNotYourTurn
	}

	switch call.Kind {
	case CallPass:
		a.passes++
	case CallDouble:
		if a.current == nil || a.doubled {
			return ErrCannotDouble
		}
		a.doubled = true
		a.passes = 0
	case CallBid:
		if !call.Bid.Valid() {
			return ErrInvalidCall
		}
		if a.current != nil && !call.Bid.Outranks(*a.current) {
			return ErrInsufficientBid
		}
		b := call.Bid
		a.current = &b
		a.bidder = seat
		a.doubled = false
		a.passes = 0
		side := seat.Side()
		if _, ok := a.declared[side][b.Suit]; !ok {
			a.declared[side][b.Suit] = seat
		}
	default:
		return ErrInvalidCall
	}

	a.turn++
	a.calls++
	return nil
}

// Done reports whether the auction has ended: three consecutive passes after
// an opening bid, or four passes with no bid.
func (a *Auction) Done() bool {
	if a.current == nil {
		return a.passes >= 4
	}
	return a.passes >= 3
}

// Contract returns the final contract. ok is false while the auction is
// running or when it was passed out.
func (a *Auction) Contract() (Contract, bool) {
	if !a.Done() || a.current == nil {
		return Contract{}, false
	}
	side := a.bidder.Side()
	declarer, ok := a.declared[side][a.current.Suit]
	if !ok {
		declarer = a.bidder
	}
	return Contract{Bid: *a.current, Doubled: a.doubled, Declarer: declarer}, true
}
