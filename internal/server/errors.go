package server

import (
	"errors"
	"fmt"

	"github.com/lox/bridgetable/internal/deck"
	"github.com/lox/bridgetable/internal/game"
	"github.com/lox/bridgetable/internal/session"
)

var (
	ErrNotAdmin       = errors.New("admin only")
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingArgs    = errors.New("missing arguments")
	ErrShuttingDown   = errors.New("server is shutting down")
)

// CommandRejected is a well formed command that could not be applied. The
// peer gets Reason as a private rejection and the table is unchanged.
type CommandRejected struct {
	Reason string
	Err    error
}

func (e *CommandRejected) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *CommandRejected) Unwrap() error {
	return e.Err
}

func reject(err error, format string, args ...any) *CommandRejected {
	return &CommandRejected{Reason: fmt.Sprintf(format, args...), Err: err}
}

// rejectionFor turns an error from the game or session layer into the
// message shown to the peer.
func rejectionFor(err error) *CommandRejected {
	var rej *CommandRejected
	if errors.As(err, &rej) {
		return rej
	}

	var parseErr *deck.ParseError
	switch {
	case errors.As(err, &parseErr):
		return reject(err, "%q is not a card.", parseErr.Input)
	case errors.Is(err, game.ErrNotInPlay):
		return reject(err, "No hand is being played.")
	case errors.Is(err, game.ErrHandsInPlay):
		return reject(err, "Cannot deal while cards are still in play.")
	case errors.Is(err, game.ErrAuctionOpen):
		return reject(err, "The auction is still open.")
	case errors.Is(err, game.ErrAuctionClosed):
		return reject(err, "The auction is over.")
	case errors.Is(err, game.ErrAlreadyPlayed):
		return reject(err, "You have already played to this trick.")
	case errors.Is(err, game.ErrCardNotHeld):
		return reject(err, "You do not hold that card.")
	case errors.Is(err, game.ErrTrickIncomplete):
		return reject(err, "The trick is not complete.")
	case errors.Is(err, game.ErrNotYourTurn):
		return reject(err, "It is not your turn to call.")
	case errors.Is(err, game.ErrInsufficientBid):
		return reject(err, "That bid does not outrank the current bid.")
	case errors.Is(err, game.ErrCannotDouble):
		return reject(err, "There is no bid to double.")
	case errors.Is(err, game.ErrInvalidCall):
		return reject(err, "That is not a valid call.")
	case errors.Is(err, session.ErrNameTaken):
		return reject(err, "That name is already taken.")
	case errors.Is(err, session.ErrNameUnknown):
		return reject(err, "Nobody at the table goes by that name.")
	case errors.Is(err, ErrNotAdmin):
		return reject(err, "Only the admin can do that.")
	case errors.Is(err, ErrShuttingDown):
		return reject(err, "The server is shutting down.")
	}
	return reject(err, "%s", err)
}
