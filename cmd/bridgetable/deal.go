package main

import (
	"fmt"
	"strings"

	"github.com/lox/bridgetable/internal/deck"
	"github.com/lox/bridgetable/internal/game"
	"github.com/lox/bridgetable/internal/randutil"
)

// DealCmd prints one shuffled deal, useful for checking a seed.
type DealCmd struct {
	Seed  *int64 `help:"Deterministic shuffle seed"`
	Codes bool   `help:"Print wire codes instead of suit symbols"`
}

func (c *DealCmd) Run() error {
	seed, rng := randutil.Resolve(c.Seed)
	hands := deck.ShuffleAndDeal(rng)

	fmt.Printf("Seed: %d\n", seed)
	for _, seat := range game.Seats {
		fmt.Printf("%-6s %s\n", seat, c.format(hands[seat]))
	}
	return nil
}

func (c *DealCmd) format(cards []deck.Card) string {
	if c.Codes {
		return strings.Join(deck.Codes(cards), ",")
	}
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = card.String()
	}
	return strings.Join(parts, " ")
}
