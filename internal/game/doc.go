// Package game implements the authoritative state of a four-seat bridge table.
//
// The main type is Table, which owns the four hands, the cards played to the
// current trick, the auction and the rubber score for one deal at a time.
//
// # Basic Usage
//
//	t := game.NewTable()
//	for _, s := range game.Seats {
//	    t.Sit(s)
//	}
//	_ = t.Deal(randutil.New(42))
//	_ = t.PlayCard(game.South, "S13")
//	if t.TrickComplete() {
//	    winner, _ := t.TakeTrick(game.North)
//	}
//
// # Deterministic Testing
//
// Deal accepts the *rand.Rand used for shuffling, and DealCards accepts an
// already ordered 52-card deck, so tests can control exactly who holds what.
//
// # Architecture
//
// Table delegates responsibilities to specialized components:
//   - Trick: played-card slots, lead suit and winner resolution
//   - Auction: call sequencing, bid legality, doubling and the final contract
//   - Rubber: partnership scoring above and below the line
//
// Table is not safe for concurrent use; the server serializes every command
// behind a single lock.
package game
