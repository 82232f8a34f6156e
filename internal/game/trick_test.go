package game

import (
	"testing"

	"github.com/lox/bridgetable/internal/deck"
	"github.com/lox/bridgetable/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allSeated = [4]bool{true, true, true, true}

func card(t *testing.T, code string) deck.Card {
	t.Helper()
	c, err := deck.ParseCard(code)
	require.NoError(t, err)
	return c
}

func TestTrickPlay(t *testing.T) {
	t.Parallel()
	tr := NewTrick(deck.NoTrump)

	require.NoError(t, tr.Play(West, card(t, "H5")))
	lead, ok := tr.Lead()
	require.True(t, ok)
	assert.Equal(t, deck.Hearts, lead)

	assert.ErrorIs(t, tr.Play(West, card(t, "H6")), ErrAlreadyPlayed)
	assert.Equal(t, 1, tr.Count())

	require.NoError(t, tr.Play(North, card(t, "S13")))
	lead, _ = tr.Lead()
	assert.Equal(t, deck.Hearts, lead, "lead suit is fixed by the first card")
	assert.False(t, tr.Complete(allSeated))
}

func TestTrickResolve(t *testing.T) {
	tests := []struct {
		name   string
		trump  deck.Suit
		plays  []string // in play order starting with the leader
		leader Seat
		winner Seat
	}{
		{name: "highest of lead suit", trump: deck.NoTrump, plays: []string{"S5", "S9", "S2", "H13"}, leader: South, winner: West},
		{name: "single trump wins", trump: deck.Hearts, plays: []string{"S13", "S12", "H1", "S11"}, leader: South, winner: North},
		{name: "highest trump wins", trump: deck.Clubs, plays: []string{"D5", "C3", "C10", "D13"}, leader: South, winner: North},
		{name: "off suit ace loses", trump: deck.NoTrump, plays: []string{"D2", "C13", "H13", "S13"}, leader: South, winner: South},
		{name: "leader need not be south", trump: deck.NoTrump, plays: []string{"H2", "H3", "C4", "H1"}, leader: North, winner: East},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTrick(tt.trump)
			order := tt.leader.Rotate()
			for i, s := range order {
				require.NoError(t, tr.Play(s, card(t, tt.plays[i])))
			}
			require.True(t, tr.Complete(allSeated))

			winner, cards, err := tr.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.winner, winner)
			assert.Equal(t, card(t, tt.plays[0]), cards[tt.leader])

			assert.Equal(t, 0, tr.Count(), "slots are cleared")
			_, ok := tr.Lead()
			assert.False(t, ok, "lead suit is cleared")
		})
	}
}

func TestTrickResolveRequiresFourCards(t *testing.T) {
	t.Parallel()
	tr := NewTrick(deck.NoTrump)
	require.NoError(t, tr.Play(South, card(t, "S2")))
	_, _, err := tr.Resolve()
	assert.ErrorIs(t, err, ErrTrickIncomplete)
}

func TestTrickCompleteNeedsFourRegisteredSeats(t *testing.T) {
	t.Parallel()
	tr := NewTrick(deck.NoTrump)
	for i, s := range Seats {
		require.NoError(t, tr.Play(s, deck.NewCard(deck.Spades, deck.Rank(i+1))))
	}
	assert.True(t, tr.Complete(allSeated))
	assert.False(t, tr.Complete([4]bool{true, true, true, false}))
}

// The winner of any trick beats every other card in it.
func TestTrickWinnerBeatsAllOthers(t *testing.T) {
	t.Parallel()
	trumps := []deck.Suit{deck.Clubs, deck.Diamonds, deck.Hearts, deck.Spades, deck.NoTrump}
	for seed := int64(0); seed < 200; seed++ {
		rng := randutil.New(seed)
		d := deck.New()
		d.Shuffle(rng)
		cards := d.Cards()[:4]
		trump := trumps[rng.IntN(len(trumps))]
		leader := Seat(rng.IntN(4))

		tr := NewTrick(trump)
		for i, s := range leader.Rotate() {
			require.NoError(t, tr.Play(s, cards[i]))
		}
		winner, played, err := tr.Resolve()
		require.NoError(t, err)

		lead := played[leader].Suit
		for _, s := range Seats {
			if s == winner {
				continue
			}
			assert.True(t, deck.Compare(played[winner], played[s], lead, trump),
				"seed %d: %v should beat %v (lead %v, trump %v)", seed, played[winner], played[s], lead, trump)
		}
	}
}
