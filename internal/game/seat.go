package game

import (
	"fmt"
	"strings"
)

// Seat is one of the four fixed positions at the table.
type Seat int

const (
	South Seat = iota
	West
	North
	East
)

// Seats lists every seat in clockwise play order.
var Seats = [4]Seat{South, West, North, East}

// String returns the seat name
func (s Seat) String() string {
	switch s {
	case South:
		return "South"
	case West:
		return "West"
	case North:
		return "North"
	case East:
		return "East"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the four seats.
func (s Seat) Valid() bool {
	return s >= South && s <= East
}

// Next returns the seat to the left, which acts after s.
func (s Seat) Next() Seat {
	return (s + 1) % 4
}

// Partner returns the seat opposite s.
func (s Seat) Partner() Seat {
	return (s + 2) % 4
}

// Side returns the partnership s belongs to.
func (s Seat) Side() Side {
	if s == South || s == North {
		return NorthSouth
	}
	return EastWest
}

// Rotate returns the four seats starting from s, clockwise.
func (s Seat) Rotate() [4]Seat {
	var out [4]Seat
	for i := range out {
		out[i] = (s + Seat(i)) % 4
	}
	return out
}

// ParseSeat accepts a seat name or its initial, case-insensitively.
func ParseSeat(name string) (Seat, error) {
	switch strings.ToLower(name) {
	case "south", "s":
		return South, nil
	case "west", "w":
		return West, nil
	case "north", "n":
		return North, nil
	case "east", "e":
		return East, nil
	}
	return 0, fmt.Errorf("unknown seat %q", name)
}

// Side identifies a partnership.
type Side int

const (
	NorthSouth Side = iota
	EastWest
)

// String returns the partnership name
func (s Side) String() string {
	if s == NorthSouth {
		return "North-South"
	}
	return "East-West"
}

// Other returns the opposing partnership.
func (s Side) Other() Side {
	return 1 - s
}
