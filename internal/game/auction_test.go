package game

import (
	"testing"

	"github.com/lox/bridgetable/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCall(t *testing.T) {
	tests := []struct {
		input   string
		want    Call
		wantErr bool
	}{
		{input: "pass", want: Pass},
		{input: "double", want: Double},
		{input: "x", want: Double},
		{input: "1c", want: BidCall(1, deck.Clubs)},
		{input: "7n", want: BidCall(7, deck.NoTrump)},
		{input: "4s", want: BidCall(4, deck.Spades)},
		{input: "3H", want: BidCall(3, deck.Hearts)},
		{input: "8s", wantErr: true},
		{input: "0c", wantErr: true},
		{input: "1x", wantErr: true},
		{input: "12c", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCall(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCall)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBidOrdering(t *testing.T) {
	t.Parallel()
	assert.True(t, Bid{2, deck.Clubs}.Outranks(Bid{1, deck.NoTrump}), "higher level always wins")
	assert.True(t, Bid{1, deck.NoTrump}.Outranks(Bid{1, deck.Spades}), "no trump outranks spades")
	assert.True(t, Bid{1, deck.Diamonds}.Outranks(Bid{1, deck.Clubs}))
	assert.False(t, Bid{1, deck.Clubs}.Outranks(Bid{1, deck.Clubs}), "equal bids do not outrank")
	assert.False(t, Bid{1, deck.Spades}.Outranks(Bid{1, deck.NoTrump}))
	assert.Equal(t, "3n", Bid{3, deck.NoTrump}.Code())
}

func TestAuctionTurnOrder(t *testing.T) {
	t.Parallel()
	a := NewAuction(West)
	assert.Equal(t, West, a.Turn())

	assert.ErrorIs(t, a.Call(South, Pass), ErrNotYourTurn)
	assert.Equal(t, West, a.Turn(), "rejected call does not advance the turn")

	require.NoError(t, a.Call(West, Pass))
	assert.Equal(t, North, a.Turn())
	assert.Equal(t, 1, a.Passes())
}

func TestAuctionBidding(t *testing.T) {
	t.Parallel()
	a := NewAuction(South)

	require.NoError(t, a.Call(South, BidCall(1, deck.Hearts)))
	assert.Equal(t, West, a.Turn())

	assert.ErrorIs(t, a.Call(West, BidCall(1, deck.Clubs)), ErrInsufficientBid)
	assert.ErrorIs(t, a.Call(West, BidCall(1, deck.Hearts)), ErrInsufficientBid)
	assert.Equal(t, West, a.Turn())

	require.NoError(t, a.Call(West, BidCall(1, deck.Spades)), "same level, higher suit")
	require.NoError(t, a.Call(North, BidCall(2, deck.Clubs)), "higher level, lower suit")

	bid, doubled, ok := a.Current()
	require.True(t, ok)
	assert.Equal(t, Bid{2, deck.Clubs}, bid)
	assert.False(t, doubled)
}

func TestAuctionDouble(t *testing.T) {
	t.Parallel()
	a := NewAuction(South)
	assert.ErrorIs(t, a.Call(South, Double), ErrCannotDouble, "nothing to double yet")

	require.NoError(t, a.Call(South, BidCall(1, deck.NoTrump)))
	require.NoError(t, a.Call(West, Double))
	_, doubled, _ := a.Current()
	assert.True(t, doubled)
	assert.Equal(t, North, a.Turn())

	assert.ErrorIs(t, a.Call(North, Double), ErrCannotDouble, "already doubled")
	assert.Equal(t, North, a.Turn())

	require.NoError(t, a.Call(North, BidCall(2, deck.Clubs)))
	_, doubled, _ = a.Current()
	assert.False(t, doubled, "a new bid clears the double")
}

func TestAuctionTermination(t *testing.T) {
	t.Run("passed out", func(t *testing.T) {
		a := NewAuction(South)
		for _, s := range South.Rotate() {
			assert.False(t, a.Done())
			require.NoError(t, a.Call(s, Pass))
		}
		assert.True(t, a.Done())
		_, ok := a.Contract()
		assert.False(t, ok)
		assert.ErrorIs(t, a.Call(South, Pass), ErrAuctionClosed)
	})

	t.Run("three passes after a bid", func(t *testing.T) {
		a := NewAuction(South)
		require.NoError(t, a.Call(South, Pass))
		require.NoError(t, a.Call(West, BidCall(1, deck.Diamonds)))
		require.NoError(t, a.Call(North, Pass))
		require.NoError(t, a.Call(East, Pass))
		assert.False(t, a.Done())
		require.NoError(t, a.Call(South, Pass))
		assert.True(t, a.Done())

		c, ok := a.Contract()
		require.True(t, ok)
		assert.Equal(t, Bid{1, deck.Diamonds}, c.Bid)
		assert.Equal(t, West, c.Declarer)
	})

	t.Run("passes reset after a double", func(t *testing.T) {
		a := NewAuction(South)
		require.NoError(t, a.Call(South, BidCall(1, deck.Clubs)))
		require.NoError(t, a.Call(West, Pass))
		require.NoError(t, a.Call(North, Pass))
		require.NoError(t, a.Call(East, Double))
		require.NoError(t, a.Call(South, Pass))
		require.NoError(t, a.Call(West, Pass))
		assert.False(t, a.Done())
		require.NoError(t, a.Call(North, Pass))
		assert.True(t, a.Done())

		c, ok := a.Contract()
		require.True(t, ok)
		assert.True(t, c.Doubled)
		assert.Equal(t, "1♣x by South", c.String())
	})
}

func TestAuctionDeclarerIsFirstToNameTheSuit(t *testing.T) {
	t.Parallel()
	a := NewAuction(South)
	require.NoError(t, a.Call(South, BidCall(1, deck.Spades)))
	require.NoError(t, a.Call(West, Pass))
	require.NoError(t, a.Call(North, BidCall(3, deck.Spades)))
	require.NoError(t, a.Call(East, Pass))
	require.NoError(t, a.Call(South, BidCall(4, deck.Spades)))
	for _, s := range []Seat{West, North, East} {
		require.NoError(t, a.Call(s, Pass))
	}

	c, ok := a.Contract()
	require.True(t, ok)
	assert.Equal(t, South, c.Declarer)
	assert.Equal(t, NorthSouth, c.Side())
}
