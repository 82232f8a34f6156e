package game

import "errors"

var (
	ErrUnknownSeat     = errors.New("unknown seat")
	ErrSeatVacant      = errors.New("seat is not occupied")
	ErrInvalidDeck     = errors.New("deck must hold exactly 52 cards")
	ErrNotInPlay       = errors.New("no deal in progress")
	ErrHandsInPlay     = errors.New("cards are still in play")
	ErrAlreadyPlayed   = errors.New("seat already played to this trick")
	ErrCardNotHeld     = errors.New("card is not in that hand")
	ErrTrickIncomplete = errors.New("trick is not complete")
	ErrAuctionOpen     = errors.New("auction is still in progress")
	ErrAuctionClosed   = errors.New("auction is closed")
	ErrNotYourTurn     = errors.New("not your turn to call")
	ErrInsufficientBid = errors.New("bid does not outrank the current bid")
	ErrCannotDouble    = errors.New("nothing to double")
	ErrInvalidCall     = errors.New("invalid call")
)
