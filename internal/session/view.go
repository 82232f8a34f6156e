package session

import (
	"github.com/lox/bridgetable/internal/deck"
	"github.com/lox/bridgetable/internal/game"
	"github.com/lox/bridgetable/internal/protocol"
)

// State is the part of the table a snapshot is built from.
type State interface {
	Hands() [4][]deck.Card
	Played() map[game.Seat]deck.Card
}

// CanSee reports whether viewer may see the cards held at seat.
func (r *Roster) CanSee(viewer, seat game.Seat) bool {
	return viewer == seat || r.IsDummy(seat)
}

// BuildViewFor returns the snapshot a connection should receive. Seats
// appear starting with the viewer's own. Hands the viewer may not see are
// replaced by one placeholder per card.
func (r *Roster) BuildViewFor(id string, st State) (protocol.Snapshot, error) {
	p, ok := r.peers[id]
	if !ok {
		return protocol.Snapshot{}, ErrUnknownPeer
	}

	hands := st.Hands()
	played := st.Played()

	snap := protocol.Snapshot{
		Viewer: p.Name,
		Hands:  make([]protocol.SeatHand, 0, len(game.Seats)),
		Played: make([]protocol.SeatPlay, 0, len(game.Seats)),
	}
	for _, seat := range p.Seat.Rotate() {
		name := r.NameOf(seat)

		cards := make([]string, len(hands[seat]))
		visible := r.CanSee(p.Seat, seat)
		for i, c := range hands[seat] {
			if visible {
				cards[i] = c.Code()
			} else {
				cards[i] = protocol.HiddenCard
			}
		}
		snap.Hands = append(snap.Hands, protocol.SeatHand{Name: name, Cards: cards})

		play := protocol.SeatPlay{Name: name}
		if c, ok := played[seat]; ok {
			play.Card = c.Code()
		}
		snap.Played = append(snap.Played, play)
	}
	return snap, nil
}
