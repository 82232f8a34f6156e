package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bridgetable/internal/deck"
	"github.com/lox/bridgetable/internal/game"
	"github.com/lox/bridgetable/internal/protocol"
)

type fakeState struct {
	hands  [4][]deck.Card
	played map[game.Seat]deck.Card
}

func (f fakeState) Hands() [4][]deck.Card           { return f.hands }
func (f fakeState) Played() map[game.Seat]deck.Card { return f.played }

func card(t *testing.T, code string) deck.Card {
	t.Helper()
	c, err := deck.ParseCard(code)
	require.NoError(t, err)
	return c
}

func sampleState(t *testing.T) fakeState {
	return fakeState{
		hands: [4][]deck.Card{
			game.South: {card(t, "S13"), card(t, "H2")},
			game.West:  {card(t, "C5")},
			game.North: {card(t, "D10"), card(t, "D9"), card(t, "D8")},
			game.East:  {},
		},
		played: map[game.Seat]deck.Card{game.East: card(t, "S12")},
	}
}

func TestBuildViewForHidesOtherHands(t *testing.T) {
	t.Parallel()

	r := fullRoster(t)
	_, err := r.Rename("c", "nora")
	require.NoError(t, err)

	snap, err := r.BuildViewFor("a", sampleState(t))
	require.NoError(t, err)

	assert.Equal(t, "@South\n"+
		"South=S13,H2;West=b;nora=b,b,b;East=\n"+
		"South=None;West=None;nora=None;East=S12", snap.Encode())
}

func TestBuildViewForRotatesToViewer(t *testing.T) {
	t.Parallel()

	r := fullRoster(t)
	st := sampleState(t)

	for _, seat := range game.Seats {
		p, ok := r.AtSeat(seat)
		require.True(t, ok)

		snap, err := r.BuildViewFor(p.ID, st)
		require.NoError(t, err)
		assert.Equal(t, p.Name, snap.Viewer)
		require.Len(t, snap.Hands, 4)
		for i, s := range seat.Rotate() {
			assert.Equal(t, r.NameOf(s), snap.Hands[i].Name)
			assert.Equal(t, r.NameOf(s), snap.Played[i].Name)
			assert.Len(t, snap.Hands[i].Cards, len(st.hands[s]), "card count is preserved")
			if s == seat {
				assert.Zero(t, snap.Hands[i].Hidden())
			} else {
				assert.Equal(t, len(st.hands[s]), snap.Hands[i].Hidden())
			}
		}

		parsed, err := protocol.ParseSnapshot(snap.Encode())
		require.NoError(t, err)
		assert.Equal(t, snap, parsed)
	}
}

func TestBuildViewForDummy(t *testing.T) {
	t.Parallel()

	r := fullRoster(t)
	_, err := r.SetDummy("North")
	require.NoError(t, err)

	snap, err := r.BuildViewFor("b", sampleState(t))
	require.NoError(t, err)

	// West sees its own hand, then North (dummy) in clear, then East, South hidden.
	assert.Equal(t, []string{"C5"}, snap.Hands[0].Cards)
	assert.Equal(t, "North", snap.Hands[1].Name)
	assert.Equal(t, []string{"D10", "D9", "D8"}, snap.Hands[1].Cards)
	assert.Equal(t, []string{"b", "b"}, snap.Hands[3].Cards)
}

func TestBuildViewForVacantSeat(t *testing.T) {
	t.Parallel()

	r := NewRoster()
	_, _, err := r.Join("a")
	require.NoError(t, err)

	table := game.NewTable()
	require.NoError(t, table.Sit(game.South))
	require.NoError(t, table.DealCards(deck.New().Cards()))

	snap, err := r.BuildViewFor("a", table)
	require.NoError(t, err)
	assert.Equal(t, []string{"South", "West", "North", "East"}, []string{
		snap.Hands[0].Name, snap.Hands[1].Name, snap.Hands[2].Name, snap.Hands[3].Name,
	})
	assert.Zero(t, snap.Hands[0].Hidden())
	assert.Len(t, snap.Hands[0].Cards, deck.HandSize)
	assert.Equal(t, deck.HandSize, snap.Hands[1].Hidden())

	_, err = r.BuildViewFor("nobody", table)
	assert.ErrorIs(t, err, ErrUnknownPeer)
}
