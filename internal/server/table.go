package server

import (
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/bridgetable/internal/deck"
	"github.com/lox/bridgetable/internal/game"
	"github.com/lox/bridgetable/internal/protocol"
	"github.com/lox/bridgetable/internal/randutil"
	"github.com/lox/bridgetable/internal/session"
)

// TableOptions configures a Table.
type TableOptions struct {
	Logger  *log.Logger
	Rand    *rand.Rand
	Clock   quartz.Clock
	Grace   time.Duration
	Monitor DealMonitor
	// OnShutdown runs once the shutdown grace period has passed and every
	// connection has been told to finish.
	OnShutdown func()
}

// Table is the single shared game. Every command runs under one lock from
// parse to broadcast, so all peers observe the same order of events.
type Table struct {
	mu         sync.Mutex
	game       *game.Table
	roster     *session.Roster
	peers      map[string]Peer
	rng        *rand.Rand
	clock      quartz.Clock
	grace      time.Duration
	monitor    DealMonitor
	onShutdown func()
	logger     *log.Logger
	dealID     string
	stopping   bool
}

// NewTable creates an empty table.
func NewTable(opts TableOptions) *Table {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Rand == nil {
		_, opts.Rand = randutil.Resolve(nil)
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Monitor == nil {
		opts.Monitor = NullDealMonitor{}
	}
	return &Table{
		game:       game.NewTable(),
		roster:     session.NewRoster(),
		peers:      make(map[string]Peer),
		rng:        opts.Rand,
		clock:      opts.Clock,
		grace:      opts.Grace,
		monitor:    opts.Monitor,
		onShutdown: opts.OnShutdown,
		logger:     opts.Logger.WithPrefix("table"),
	}
}

// Join seats a new peer. It reports false when the peer was turned away, in
// which case it has already been told why and asked to finish.
func (t *Table) Join(p Peer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopping {
		_ = p.Send(protocol.Notice("Server is shutting down."))
		p.Finish()
		return false
	}

	member, admin, err := t.roster.Join(p.ID())
	if err != nil {
		t.logger.Info("Turning connection away", "conn", p.ID(), "error", err)
		_ = p.Send(protocol.Notice("Table is full."))
		p.Finish()
		return false
	}
	if err := t.game.Sit(member.Seat); err != nil {
		t.logger.Error("Failed to register seat", "seat", member.Seat, "error", err)
	}
	t.peers[p.ID()] = p

	t.logger.Info("Player joined", "conn", p.ID(), "seat", member.Seat, "admin", admin, "players", t.roster.Len())
	if admin {
		_ = p.Send(protocol.Notice("You are the admin."))
	} else {
		_ = p.Send(protocol.Notice("You are a regular player."))
	}
	t.broadcastExcept(p.ID(), protocol.Notice(fmt.Sprintf("%s sat down in the %s seat.", member.Name, member.Seat)))
	t.pushState()
	return true
}

// Disconnect removes a peer, hands the admin role on if needed and pushes
// the new view to everyone left.
func (t *Table) Disconnect(p Peer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	left, promoted, err := t.roster.Leave(p.ID())
	if err != nil {
		return
	}
	delete(t.peers, p.ID())
	t.game.Leave(left.Seat)

	t.logger.Info("Player left", "conn", p.ID(), "seat", left.Seat, "players", t.roster.Len())
	t.broadcast(protocol.Notice(fmt.Sprintf("%s left the table.", left.Name)))
	if promoted != nil {
		t.logger.Info("Admin handed off", "conn", promoted.ID, "seat", promoted.Seat)
		t.send(promoted.ID, protocol.Private("You are now the admin!"))
		t.broadcastExcept(promoted.ID, protocol.Notice(fmt.Sprintf("%s is now the admin.", promoted.Name)))
	}
	t.pushState()
}

// Handle routes one payload from a peer.
func (t *Table) Handle(p Peer, text string) {
	cmd := protocol.Classify(text)

	t.mu.Lock()
	defer t.mu.Unlock()

	member, ok := t.roster.Get(p.ID())
	if !ok {
		return
	}

	var err error
	switch cmd.Kind {
	case protocol.KindControl:
		err = t.control(member, cmd)
	case protocol.KindAction:
		err = t.action(member, cmd)
	default:
		if t.stopping {
			err = ErrShuttingDown
			break
		}
		t.broadcast(protocol.Chat(member.Name, cmd.Text))
	}

	if err != nil {
		rej := rejectionFor(err)
		t.logger.Debug("Command rejected", "conn", member.ID, "seat", member.Seat, "command", text, "error", err)
		_ = p.Send(protocol.Rejection(rej.Reason))
	}
}

func (t *Table) control(member *session.Peer, cmd protocol.Command) error {
	if t.stopping {
		return ErrShuttingDown
	}

	switch cmd.Word {
	case "shutdown":
		return t.requireAdmin(member, func() error { return t.shutdown(member) })
	case "deal":
		return t.requireAdmin(member, func() error { return t.deal(member) })
	case "scold":
		return t.requireAdmin(member, func() error { return t.scold(member, cmd.Args) })
	case "dummy":
		return t.requireAdmin(member, func() error { return t.dummy(cmd.Args) })
	case "resetdummy":
		return t.requireAdmin(member, t.resetDummy)
	case "name":
		return t.rename(member, cmd.Args)
	case "me":
		if cmd.Args == "" {
			return reject(ErrMissingArgs, "Usage: !me <text>")
		}
		t.broadcast(protocol.Emote(member.Name, cmd.Args))
		return nil
	case "score":
		t.send(member.ID, t.standing())
		return nil
	}
	return reject(ErrUnknownCommand, "Unknown command !%s", cmd.Word)
}

func (t *Table) requireAdmin(member *session.Peer, fn func() error) error {
	if !t.roster.IsAdmin(member.ID) {
		return ErrNotAdmin
	}
	return fn()
}

func (t *Table) shutdown(member *session.Peer) error {
	t.stopping = true
	t.logger.Info("Shutdown requested", "by", member.Name, "grace", t.grace)
	t.broadcast(protocol.Notice("Server is shutting down by admin."))

	t.clock.AfterFunc(t.grace, func() {
		t.mu.Lock()
		for _, p := range t.peers {
			p.Finish()
		}
		t.mu.Unlock()

		if t.onShutdown != nil {
			t.onShutdown()
		}
	})
	return nil
}

func (t *Table) deal(member *session.Peer) error {
	if err := t.game.Deal(t.rng); err != nil {
		return err
	}
	t.dealID = uuid.NewString()
	t.roster.ResetDummy()

	dealer := t.game.Dealer()
	t.logger.Info("Dealt", "deal", t.dealID, "number", t.game.DealNumber(), "dealer", dealer, "by", member.Name)
	t.monitor.OnDeal(DealStarted{
		DealID: t.dealID,
		Number: t.game.DealNumber(),
		Dealer: dealer,
		Names:  t.names(),
	})

	t.broadcast(protocol.Notice(fmt.Sprintf("%s dealt hand %d. %s deals and calls first.",
		member.Name, t.game.DealNumber(), t.roster.NameOf(dealer))))
	t.pushState()
	return nil
}

func (t *Table) scold(member *session.Peer, args string) error {
	name, text := protocol.SplitFirst(args)
	if name == "" || text == "" {
		return reject(ErrMissingArgs, "Usage: !scold <name> <text>")
	}
	target, ok := t.roster.ByName(name)
	if !ok {
		return session.ErrNameUnknown
	}
	t.send(target.ID, protocol.Rejection(text))
	t.send(member.ID, protocol.Private(fmt.Sprintf("Warning sent to %s.", target.Name)))
	return nil
}

func (t *Table) dummy(args string) error {
	if args == "" {
		return reject(ErrMissingArgs, "Usage: !dummy <name>")
	}
	target, err := t.roster.SetDummy(args)
	if err != nil {
		return err
	}
	t.broadcast(protocol.Notice(fmt.Sprintf("%s is dummy; their hand is face up.", target.Name)))
	t.pushState()
	return nil
}

func (t *Table) resetDummy() error {
	t.roster.ResetDummy()
	t.broadcast(protocol.Notice("All hands are face down."))
	t.pushState()
	return nil
}

func (t *Table) rename(member *session.Peer, name string) error {
	if name == "" {
		return reject(ErrMissingArgs, "Usage: !name <text>")
	}
	old, err := t.roster.Rename(member.ID, name)
	if err != nil {
		return err
	}
	t.broadcast(protocol.Notice(fmt.Sprintf("%s is now known as %s.", old, member.Name)))
	t.pushState()
	return nil
}

func (t *Table) action(member *session.Peer, cmd protocol.Command) error {
	if t.stopping {
		return ErrShuttingDown
	}

	switch cmd.Word {
	case "card":
		return t.playCard(member, cmd.Args)
	case "trick":
		return t.takeTrick(member)
	}

	call, err := game.ParseCall(cmd.Word)
	if err != nil {
		return reject(err, "Unknown action @%s", cmd.Word)
	}
	return t.call(member, call)
}

func (t *Table) playCard(member *session.Peer, code string) error {
	card, err := deck.ParseCard(code)
	if err != nil {
		return err
	}
	if err := t.game.Play(member.Seat, card); err != nil {
		return err
	}
	t.broadcast(protocol.Notice(fmt.Sprintf("%s played %s.", member.Name, card)))
	t.pushState()
	return nil
}

func (t *Table) takeTrick(member *session.Peer) error {
	res, err := t.game.TakeTrick(member.Seat)
	if err != nil {
		return err
	}
	winner := t.roster.NameOf(res.Winner)
	t.logger.Debug("Trick taken", "deal", t.dealID, "trick", res.Number, "winner", res.Winner, "claimer", member.Seat)
	t.monitor.OnTrick(t.dealID, res)

	t.broadcast(protocol.Notice(fmt.Sprintf("%s wins trick %d with %s.", winner, res.Number, res.Cards[res.Winner])))
	if t.game.Phase() == game.DealComplete {
		t.completeDeal(res.Score)
	}
	t.pushState()
	return nil
}

func (t *Table) completeDeal(score *game.DealScore) {
	won := t.game.TricksWon()
	outcome := DealOutcome{
		DealID:    t.dealID,
		Number:    t.game.DealNumber(),
		Names:     t.names(),
		TricksWon: won,
		Score:     score,
		Scores:    t.game.Scores(),
	}
	if c, ok := t.game.Contract(); ok {
		outcome.Contract = &c
	}
	t.monitor.OnDealComplete(outcome)
	t.logger.Info("Deal complete", "deal", t.dealID, "ns", won[game.NorthSouth], "ew", won[game.EastWest])

	if score == nil {
		t.broadcast(protocol.Notice(fmt.Sprintf("Hand over. North-South took %d tricks, East-West %d.",
			won[game.NorthSouth], won[game.EastWest])))
		return
	}

	c := score.Contract
	declarer := t.roster.NameOf(c.Declarer)
	if score.Made {
		t.broadcast(protocol.Notice(fmt.Sprintf("%s made %s with %d tricks.", declarer, contractText(c), score.Tricks)))
	} else {
		t.broadcast(protocol.Notice(fmt.Sprintf("%s went down %d in %s.", declarer, c.Bid.Level+6-score.Tricks, contractText(c))))
	}
	if score.GameWon {
		t.broadcast(protocol.Notice(fmt.Sprintf("%s won a game.", c.Side())))
	}
	if score.RubberWon {
		t.broadcast(protocol.Notice(fmt.Sprintf("%s won the rubber.", c.Side())))
	}
	t.broadcast(t.standing())
}

func (t *Table) call(member *session.Peer, call game.Call) error {
	done, err := t.game.Call(member.Seat, call)
	if err != nil {
		return err
	}
	t.broadcast(protocol.Notice(fmt.Sprintf("%s: %s", member.Name, call)))

	if done {
		if c, ok := t.game.Contract(); ok {
			t.logger.Info("Contract reached", "deal", t.dealID, "contract", c.String())
			t.broadcast(protocol.Notice(fmt.Sprintf("Contract is %s by %s.", contractText(c), t.roster.NameOf(c.Declarer))))
		} else {
			t.broadcast(protocol.Notice("Passed out. Play continues without trumps."))
		}
	} else if turn, ok := t.game.AuctionTurn(); ok {
		t.broadcast(protocol.Notice(fmt.Sprintf("%s to call.", t.roster.NameOf(turn))))
	}
	t.pushState()
	return nil
}

func (t *Table) standing() string {
	sides, rubbers := t.game.Standing()
	scores := t.game.Scores()

	var parts []string
	for _, side := range sides {
		vul := ""
		if side.Vulnerable() {
			vul = ", vulnerable"
		}
		parts = append(parts, fmt.Sprintf("%s %d above / %d below, %d games%s",
			side.Side, side.Above, side.Below, side.Games, vul))
	}
	var seats []string
	for _, s := range game.Seats {
		seats = append(seats, fmt.Sprintf("%s %d", t.roster.NameOf(s), scores[s]))
	}
	return protocol.Notice(fmt.Sprintf("Score: %s. Totals: %s. Rubbers played: %d.",
		strings.Join(parts, "; "), strings.Join(seats, ", "), rubbers))
}

func (t *Table) names() [4]string {
	var out [4]string
	for _, s := range game.Seats {
		out[s] = t.roster.NameOf(s)
	}
	return out
}

// send delivers text to one peer. Callers hold t.mu.
func (t *Table) send(id, text string) {
	p, ok := t.peers[id]
	if !ok {
		return
	}
	if err := p.Send(text); err != nil && !errors.Is(err, ErrConnectionClosed) {
		t.logger.Warn("Failed to send", "conn", id, "error", err)
	}
}

// broadcast sends text to every seated peer in join order. Callers hold t.mu.
func (t *Table) broadcast(text string) {
	t.broadcastExcept("", text)
}

func (t *Table) broadcastExcept(skip, text string) {
	for _, member := range t.roster.Peers() {
		if member.ID != skip {
			t.send(member.ID, text)
		}
	}
}

// pushState sends every seated peer its own view of the table. Callers hold
// t.mu.
func (t *Table) pushState() {
	for _, member := range t.roster.Peers() {
		snap, err := t.roster.BuildViewFor(member.ID, t.game)
		if err != nil {
			t.logger.Error("Failed to build view", "conn", member.ID, "error", err)
			continue
		}
		t.send(member.ID, snap.Encode())
	}
}
