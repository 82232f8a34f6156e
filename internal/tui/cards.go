package tui

import (
	"strings"

	"github.com/lox/bridgetable/internal/deck"
	"github.com/lox/bridgetable/internal/protocol"
)

// hiddenGlyph is shown for each card the viewer may not see.
const hiddenGlyph = "▒"

// renderCard draws one card code from a snapshot.
func renderCard(code string) string {
	if code == protocol.HiddenCard {
		return HiddenCardStyle.Render(hiddenGlyph)
	}
	card, err := deck.ParseCard(code)
	if err != nil {
		return code
	}
	if card.Suit.IsRed() {
		return RedCardStyle.Render(card.String())
	}
	return BlackCardStyle.Render(card.String())
}

// renderHand draws a hand; visible cards are grouped by suit.
func renderHand(codes []string) string {
	if len(codes) == 0 {
		return InfoStyle.Render("-")
	}

	hidden := 0
	groups := make([][]string, 0, 4)
	var current []string
	var last byte
	for _, code := range codes {
		if code == protocol.HiddenCard {
			hidden++
			continue
		}
		if len(current) > 0 && code[0] != last {
			groups = append(groups, current)
			current = nil
		}
		last = code[0]
		current = append(current, renderCard(code))
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	parts := make([]string, 0, len(groups)+1)
	for _, g := range groups {
		parts = append(parts, strings.Join(g, " "))
	}
	if hidden > 0 {
		parts = append(parts, HiddenCardStyle.Render(strings.Repeat(hiddenGlyph, hidden)))
	}
	return strings.Join(parts, "  ")
}

// Normalize turns typed input into a payload. A bare card code such as
// "S13" or "h2" plays that card; everything else is sent as typed.
func Normalize(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	if card, err := deck.ParseCard(line); err == nil {
		return protocol.CardAction(card.Code())
	}
	return line
}
