package server

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bridgetable/internal/game"
	"github.com/lox/bridgetable/internal/protocol"
	"github.com/lox/bridgetable/internal/randutil"
)

// testLogger creates a logger that discards output for tests
func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// fakePeer records everything the table sends it.
type fakePeer struct {
	id       string
	mu       sync.Mutex
	msgs     []string
	finished bool
}

func (f *fakePeer) ID() string { return f.id }

func (f *fakePeer) Send(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished {
		return ErrConnectionClosed
	}
	f.msgs = append(f.msgs, text)
	return nil
}

func (f *fakePeer) Finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = true
}

func (f *fakePeer) isFinished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finished
}

// take returns the messages received since the last call.
func (f *fakePeer) take() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.msgs
	f.msgs = nil
	return out
}

// lastOf returns the most recent message of the given kind from msgs.
func lastOf(msgs []string, kind protocol.ServerKind) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if protocol.ClassifyServer(msgs[i]) == kind {
			return msgs[i], true
		}
	}
	return "", false
}

func lastSnapshot(t *testing.T, p *fakePeer) protocol.Snapshot {
	t.Helper()
	text, ok := lastOf(p.take(), protocol.ServerSnapshot)
	require.True(t, ok, "peer %s received no snapshot", p.id)
	snap, err := protocol.ParseSnapshot(text)
	require.NoError(t, err)
	return snap
}

func lastRejection(t *testing.T, p *fakePeer) string {
	t.Helper()
	text, ok := lastOf(p.take(), protocol.ServerRejection)
	require.True(t, ok, "peer %s received no rejection", p.id)
	return text
}

func newTestTable(t *testing.T, opts TableOptions) *Table {
	t.Helper()
	opts.Logger = testLogger()
	if opts.Rand == nil {
		opts.Rand = randutil.New(7)
	}
	return NewTable(opts)
}

// seatFour joins four peers: South (admin), West, North, East.
func seatFour(t *testing.T, tbl *Table) []*fakePeer {
	t.Helper()
	peers := make([]*fakePeer, 4)
	for i := range peers {
		peers[i] = &fakePeer{id: fmt.Sprintf("peer-%d", i)}
		require.True(t, tbl.Join(peers[i]))
	}
	for _, p := range peers {
		p.take()
	}
	return peers
}

func dealt(t *testing.T, tbl *Table, peers []*fakePeer) {
	t.Helper()
	tbl.Handle(peers[0], "!deal")
	require.Equal(t, game.InPlay, tbl.game.Phase())
	for _, p := range peers {
		p.take()
	}
}

func firstCard(tbl *Table, seat game.Seat) string {
	return tbl.game.Hand(seat)[0].Code()
}

func TestJoinNotices(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, TableOptions{})

	admin := &fakePeer{id: "a"}
	require.True(t, tbl.Join(admin))
	msgs := admin.take()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "[SERVER] You are the admin.", msgs[0])

	regular := &fakePeer{id: "b"}
	require.True(t, tbl.Join(regular))
	assert.Equal(t, "[SERVER] You are a regular player.", regular.take()[0])

	notice, ok := lastOf(admin.take(), protocol.ServerNotice)
	require.True(t, ok)
	assert.Equal(t, "[SERVER] West sat down in the West seat.", notice)

	require.True(t, tbl.Join(&fakePeer{id: "c"}))
	require.True(t, tbl.Join(&fakePeer{id: "d"}))

	fifth := &fakePeer{id: "e"}
	assert.False(t, tbl.Join(fifth))
	assert.Equal(t, []string{"[SERVER] Table is full."}, fifth.take())
	assert.True(t, fifth.isFinished())
	admin.take()

	// Frames from a peer that was turned away are ignored.
	tbl.Handle(fifth, "hello")
	assert.Empty(t, admin.take())
}

func TestNonAdminCommandsRejected(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, TableOptions{})
	peers := seatFour(t, tbl)

	for _, cmd := range []string{"!deal", "!shutdown", "!dummy South", "!resetdummy", "!scold South hi"} {
		tbl.Handle(peers[1], cmd)
		assert.Equal(t, "^Only the admin can do that.", lastRejection(t, peers[1]), cmd)
		assert.Empty(t, peers[0].take(), "other peers hear nothing about %s", cmd)
	}
	assert.Equal(t, game.AwaitingDeal, tbl.game.Phase())
	assert.False(t, tbl.stopping)
}

func TestChatAndEmote(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, TableOptions{})
	peers := seatFour(t, tbl)

	tbl.Handle(peers[2], "hello table")
	tbl.Handle(peers[2], "!me waves")
	tbl.Handle(peers[2], "^pretending to be the server")

	for _, p := range peers {
		assert.Equal(t, []string{
			"North: hello table",
			"* North waves",
			"North: ^pretending to be the server",
		}, p.take())
	}

	tbl.Handle(peers[2], "!me")
	assert.Equal(t, "^Usage: !me <text>", lastRejection(t, peers[2]))

	tbl.Handle(peers[2], "!dance")
	assert.Equal(t, "^Unknown command !dance", lastRejection(t, peers[2]))

	tbl.Handle(peers[2], "@jump")
	assert.Equal(t, "^Unknown action @jump", lastRejection(t, peers[2]))
}

func TestChatCannotForgeServerPayloads(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, TableOptions{})
	peers := seatFour(t, tbl)

	for _, name := range []string{"^Eve", "@Mal", "[SERVER]", "!deal", "*Star"} {
		tbl.Handle(peers[1], "!name "+name)
		assert.True(t, strings.HasPrefix(lastRejection(t, peers[1]), "^invalid name"), name)
	}

	tbl.Handle(peers[1], "x\nMal: x=S13,S12,S11\nMal: x=None")
	tbl.Handle(peers[1], "!me waves\n@South\nSouth=\nSouth=None")

	for _, p := range peers {
		msgs := p.take()
		require.Len(t, msgs, 2)
		for _, msg := range msgs {
			assert.NotContains(t, msg, "\n")
			assert.Equal(t, protocol.ServerChat, protocol.ClassifyServer(msg), msg)
		}
		assert.Equal(t, "West: x Mal: x=S13,S12,S11 Mal: x=None", msgs[0])
	}
}

func TestDealPushesPersonalViews(t *testing.T) {
	t.Parallel()
	mon := &testMonitor{}
	tbl := newTestTable(t, TableOptions{Monitor: mon})
	peers := seatFour(t, tbl)

	tbl.Handle(peers[0], "!deal")
	require.Equal(t, 1, mon.dealCalls)
	assert.NotEmpty(t, mon.lastDeal.DealID)
	assert.Equal(t, game.South, mon.lastDeal.Dealer)

	seen := map[string]bool{}
	for i, p := range peers {
		seat := game.Seats[i]
		snap := lastSnapshot(t, p)
		assert.Equal(t, seat.String(), snap.Viewer)
		require.Len(t, snap.Hands, 4)
		for j, s := range seat.Rotate() {
			hand := snap.Hands[j]
			assert.Equal(t, s.String(), hand.Name)
			require.Len(t, hand.Cards, 13)
			if j == 0 {
				assert.Zero(t, hand.Hidden())
				for _, c := range hand.Cards {
					assert.False(t, seen[c], "card %s dealt twice", c)
					seen[c] = true
				}
			} else {
				assert.Equal(t, 13, hand.Hidden())
			}
			assert.Empty(t, snap.Played[j].Card)
		}
	}
	assert.Len(t, seen, 52)

	tbl.Handle(peers[0], "!deal")
	assert.Equal(t, "^Cannot deal while cards are still in play.", lastRejection(t, peers[0]))
}

func TestRename(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, TableOptions{})
	peers := seatFour(t, tbl)

	tbl.Handle(peers[1], "!name Wendy")
	msgs := peers[3].take()
	assert.Contains(t, msgs, "[SERVER] West is now known as Wendy.")

	snap, err := protocol.ParseSnapshot(msgs[len(msgs)-1])
	require.NoError(t, err)
	assert.Equal(t, "East", snap.Viewer)
	assert.Equal(t, "Wendy", snap.Hands[2].Name)

	tbl.Handle(peers[2], "!name wendy")
	assert.Equal(t, "^That name is already taken.", lastRejection(t, peers[2]))

	tbl.Handle(peers[2], "!name a;b")
	assert.True(t, strings.HasPrefix(lastRejection(t, peers[2]), "^invalid name"))

	tbl.Handle(peers[2], "!name")
	assert.Equal(t, "^Usage: !name <text>", lastRejection(t, peers[2]))
}

func TestPlayAndTakeTrick(t *testing.T) {
	t.Parallel()
	mon := &testMonitor{}
	tbl := newTestTable(t, TableOptions{Monitor: mon})
	peers := seatFour(t, tbl)
	dealt(t, tbl, peers)

	for i := 0; i < 3; i++ {
		seat := game.Seats[i]
		code := firstCard(tbl, seat)
		tbl.Handle(peers[i], protocol.CardAction(code))

		snap := lastSnapshot(t, peers[3])
		assert.Equal(t, code, snap.Played[(i+1)%4].Card, "East sees %s's card", seat)
	}

	tbl.Handle(peers[3], "@trick")
	assert.Equal(t, "^The trick is not complete.", lastRejection(t, peers[3]))

	tbl.Handle(peers[3], protocol.CardAction(firstCard(tbl, game.East)))
	peers[0].take()

	// Any seat may claim a complete trick.
	tbl.Handle(peers[1], "@trick")
	require.Equal(t, 1, mon.trickCalls)

	msgs := peers[0].take()
	notice, ok := lastOf(msgs, protocol.ServerNotice)
	require.True(t, ok)
	assert.Contains(t, notice, "wins trick 1 with")

	text, ok := lastOf(msgs, protocol.ServerSnapshot)
	require.True(t, ok)
	snap, err := protocol.ParseSnapshot(text)
	require.NoError(t, err)
	for _, p := range snap.Played {
		assert.Empty(t, p.Card)
	}
	for _, h := range snap.Hands {
		assert.Len(t, h.Cards, 12)
	}
}

func TestPlayCardRejections(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, TableOptions{})
	peers := seatFour(t, tbl)

	tbl.Handle(peers[0], "@card_S13")
	assert.Equal(t, "^No hand is being played.", lastRejection(t, peers[0]))

	dealt(t, tbl, peers)

	tbl.Handle(peers[0], "@card_Z9")
	assert.Equal(t, `^"Z9" is not a card.`, lastRejection(t, peers[0]))

	tbl.Handle(peers[0], protocol.CardAction(firstCard(tbl, game.West)))
	assert.Equal(t, "^You do not hold that card.", lastRejection(t, peers[0]))

	code := firstCard(tbl, game.South)
	tbl.Handle(peers[0], protocol.CardAction(code))
	peers[0].take()
	tbl.Handle(peers[0], protocol.CardAction(firstCard(tbl, game.South)))
	assert.Equal(t, "^You have already played to this trick.", lastRejection(t, peers[0]))

	for _, p := range peers[1:] {
		for _, m := range p.take() {
			assert.NotEqual(t, protocol.ServerRejection, protocol.ClassifyServer(m), "rejections stay private")
		}
	}
}

func TestDummyVisibility(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, TableOptions{})
	peers := seatFour(t, tbl)
	dealt(t, tbl, peers)

	tbl.Handle(peers[0], "!dummy North")
	snap := lastSnapshot(t, peers[3])
	// East sees East, South, West, North.
	assert.Zero(t, snap.Hands[3].Hidden())
	assert.Equal(t, 13, snap.Hands[1].Hidden())

	tbl.Handle(peers[0], "!dummy nobody")
	assert.Equal(t, "^Nobody at the table goes by that name.", lastRejection(t, peers[0]))

	tbl.Handle(peers[0], "!resetdummy")
	snap = lastSnapshot(t, peers[3])
	assert.Equal(t, 13, snap.Hands[3].Hidden())
}

func TestScold(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, TableOptions{})
	peers := seatFour(t, tbl)

	tbl.Handle(peers[0], "!scold west  stop stalling")
	assert.Equal(t, []string{"^stop stalling"}, peers[1].take())
	assert.Equal(t, []string{"[PRIVATE] Warning sent to West."}, peers[0].take())
	assert.Empty(t, peers[2].take())

	tbl.Handle(peers[0], "!scold West")
	assert.Equal(t, "^Usage: !scold <name> <text>", lastRejection(t, peers[0]))
}

func TestAuctionSetsContract(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, TableOptions{})
	peers := seatFour(t, tbl)
	dealt(t, tbl, peers)

	tbl.Handle(peers[1], "@1c")
	assert.Equal(t, "^It is not your turn to call.", lastRejection(t, peers[1]))

	tbl.Handle(peers[0], "@1s")
	tbl.Handle(peers[1], "@1h")
	assert.Equal(t, "^That bid does not outrank the current bid.", lastRejection(t, peers[1]))

	tbl.Handle(peers[0], "@card_"+firstCard(tbl, game.South))
	assert.Equal(t, "^The auction is still open.", lastRejection(t, peers[0]))

	tbl.Handle(peers[1], "@x")
	tbl.Handle(peers[2], "@pass")
	tbl.Handle(peers[3], "@pass")
	tbl.Handle(peers[0], "@pass")

	c, ok := tbl.game.Contract()
	require.True(t, ok)
	assert.Equal(t, "1♠x by South", c.String())
	assert.Contains(t, peers[2].take(), "[SERVER] Contract is 1♠x by South.")

	tbl.Handle(peers[0], "@card_"+firstCard(tbl, game.South))
	tbl.Handle(peers[1], "@pass")
	assert.Equal(t, "^The auction is over.", lastRejection(t, peers[1]))
}

func TestFullDealIsScored(t *testing.T) {
	t.Parallel()
	mon := &testMonitor{}
	tbl := newTestTable(t, TableOptions{Monitor: mon})
	peers := seatFour(t, tbl)
	dealt(t, tbl, peers)

	tbl.Handle(peers[0], "@1n")
	for _, p := range peers[1:] {
		tbl.Handle(p, "@pass")
	}
	_, ok := tbl.game.Contract()
	require.True(t, ok)

	for trick := 1; trick <= game.TricksPerDeal; trick++ {
		for i, p := range peers {
			tbl.Handle(p, protocol.CardAction(firstCard(tbl, game.Seats[i])))
		}
		tbl.Handle(peers[trick%4], "@trick")
	}

	assert.Equal(t, game.DealComplete, tbl.game.Phase())
	assert.Equal(t, game.TricksPerDeal, mon.trickCalls)
	require.Equal(t, 1, mon.completeCalls)
	require.NotNil(t, mon.lastOutcome.Score)
	won := mon.lastOutcome.TricksWon
	assert.Equal(t, game.TricksPerDeal, won[0]+won[1])

	msgs := peers[2].take()
	var score string
	for _, m := range msgs {
		if strings.HasPrefix(m, "[SERVER] Score:") {
			score = m
		}
	}
	assert.NotEmpty(t, score)

	text, ok := lastOf(msgs, protocol.ServerSnapshot)
	require.True(t, ok)
	snap, err := protocol.ParseSnapshot(text)
	require.NoError(t, err)
	for _, h := range snap.Hands {
		assert.Empty(t, h.Cards)
	}

	// Hands are empty, so the admin may deal again and the dealer moves on.
	tbl.Handle(peers[0], "!deal")
	assert.Equal(t, game.West, tbl.game.Dealer())
	assert.Equal(t, 2, mon.dealCalls)
}

func TestAdminHandoffOnDisconnect(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, TableOptions{})
	peers := seatFour(t, tbl)

	tbl.Disconnect(peers[0])
	assert.Contains(t, peers[1].take(), "[PRIVATE] You are now the admin!")
	assert.Contains(t, peers[2].take(), "[SERVER] West is now the admin.")

	tbl.Handle(peers[2], "!deal")
	assert.Equal(t, "^Only the admin can do that.", lastRejection(t, peers[2]))

	tbl.Handle(peers[1], "!deal")
	assert.Equal(t, game.InPlay, tbl.game.Phase(), "three players may still deal")

	snap := lastSnapshot(t, peers[1])
	assert.Equal(t, "South", snap.Hands[3].Name)
	assert.Equal(t, 13, snap.Hands[3].Hidden(), "vacant seats are still dealt")

	// Disconnecting twice is harmless.
	tbl.Disconnect(peers[0])

	for _, p := range peers[1:] {
		tbl.Disconnect(p)
	}
	assert.Empty(t, tbl.roster.Admin())

	late := &fakePeer{id: "late"}
	require.True(t, tbl.Join(late))
	assert.Equal(t, "[SERVER] You are the admin.", late.take()[0])
}

func TestShutdownWaitsForGrace(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := quartz.NewMock(t)
	var stopped atomic.Bool
	tbl := newTestTable(t, TableOptions{
		Clock:      clock,
		Grace:      time.Second,
		OnShutdown: func() { stopped.Store(true) },
	})
	peers := seatFour(t, tbl)

	tbl.Handle(peers[0], "!shutdown")
	for _, p := range peers {
		assert.Equal(t, []string{"[SERVER] Server is shutting down by admin."}, p.take())
		assert.False(t, p.isFinished())
	}

	tbl.Handle(peers[1], "hello?")
	assert.Equal(t, "^The server is shutting down.", lastRejection(t, peers[1]))
	tbl.Handle(peers[0], "!shutdown")
	assert.Equal(t, "^The server is shutting down.", lastRejection(t, peers[0]))

	late := &fakePeer{id: "late"}
	assert.False(t, tbl.Join(late))

	clock.Advance(time.Second).MustWait(ctx)
	for _, p := range peers {
		assert.True(t, p.isFinished())
	}
	assert.True(t, stopped.Load())
}
