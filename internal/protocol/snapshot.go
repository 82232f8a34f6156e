package protocol

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lox/bridgetable/internal/deck"
)

const (
	// HiddenCard stands in for a card the viewer may not see.
	HiddenCard = "b"

	// EmptySlot marks a seat with no card played this trick.
	EmptySlot = "None"

	// MaxNameLength is the longest display name, in runes.
	MaxNameLength = 24

	entrySep = ";"
	valueSep = "="
	cardSep  = ","

	// reservedLeads may not start a name: they open server payloads,
	// commands or emotes.
	reservedLeads = "!@^[*"
)

var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrInvalidName       = errors.New("invalid name")
)

// SeatHand is one entry of the hands segment. Cards holds card codes or
// HiddenCard placeholders.
type SeatHand struct {
	Name  string
	Cards []string
}

// Hidden reports how many of the cards are placeholders.
func (h SeatHand) Hidden() int {
	n := 0
	for _, c := range h.Cards {
		if c == HiddenCard {
			n++
		}
	}
	return n
}

// SeatPlay is one entry of the played segment. Card is empty when nothing
// has been played.
type SeatPlay struct {
	Name string
	Card string
}

// Snapshot is the per viewer state push. Hands and Played list seats in the
// same order, starting with the viewer.
type Snapshot struct {
	Viewer string
	Hands  []SeatHand
	Played []SeatPlay
}

// ValidateName checks that name can be carried in a snapshot.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidName)
	case utf8.RuneCountInString(name) > MaxNameLength:
		return fmt.Errorf("%w: name is longer than %d characters", ErrInvalidName, MaxNameLength)
	case name != strings.TrimSpace(name):
		return fmt.Errorf("%w: name has surrounding space", ErrInvalidName)
	case strings.ContainsRune(reservedLeads, []rune(name)[0]):
		return fmt.Errorf("%w: name may not start with %q", ErrInvalidName, []rune(name)[0])
	case strings.ContainsAny(name, entrySep+valueSep+cardSep):
		return fmt.Errorf("%w: name may not contain any of %q", ErrInvalidName, entrySep+valueSep+cardSep)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: name contains control characters", ErrInvalidName)
		}
	}
	return nil
}

// Encode renders the snapshot in its wire form.
func (s Snapshot) Encode() string {
	var b strings.Builder
	b.WriteByte(ActionPrefix)
	b.WriteString(s.Viewer)
	b.WriteByte('\n')

	for i, h := range s.Hands {
		if i > 0 {
			b.WriteString(entrySep)
		}
		b.WriteString(h.Name)
		b.WriteString(valueSep)
		b.WriteString(strings.Join(h.Cards, cardSep))
	}
	b.WriteByte('\n')

	for i, p := range s.Played {
		if i > 0 {
			b.WriteString(entrySep)
		}
		b.WriteString(p.Name)
		b.WriteString(valueSep)
		if p.Card == "" {
			b.WriteString(EmptySlot)
		} else {
			b.WriteString(p.Card)
		}
	}
	return b.String()
}

// ParseSnapshot decodes a state push. Any token that is not a valid name,
// card code, placeholder or empty marker rejects the whole snapshot.
func ParseSnapshot(text string) (Snapshot, error) {
	lines := strings.Split(text, "\n")
	if len(lines) != 3 {
		return Snapshot{}, fmt.Errorf("%w: want 3 lines, got %d", ErrMalformedSnapshot, len(lines))
	}

	header, ok := strings.CutPrefix(lines[0], string(ActionPrefix))
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: missing %q prefix", ErrMalformedSnapshot, ActionPrefix)
	}
	if err := ValidateName(header); err != nil {
		return Snapshot{}, fmt.Errorf("%w: viewer: %v", ErrMalformedSnapshot, err)
	}

	snap := Snapshot{Viewer: header}

	hands, err := parseEntries(lines[1])
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: hands: %v", ErrMalformedSnapshot, err)
	}
	for _, e := range hands {
		cards, err := parseHand(e.value)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: hand of %s: %v", ErrMalformedSnapshot, e.name, err)
		}
		snap.Hands = append(snap.Hands, SeatHand{Name: e.name, Cards: cards})
	}

	played, err := parseEntries(lines[2])
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: played: %v", ErrMalformedSnapshot, err)
	}
	if len(played) != len(hands) {
		return Snapshot{}, fmt.Errorf("%w: %d hands but %d played entries", ErrMalformedSnapshot, len(hands), len(played))
	}
	for i, e := range played {
		if e.name != hands[i].name {
			return Snapshot{}, fmt.Errorf("%w: played entry %d is %q, hand entry is %q", ErrMalformedSnapshot, i, e.name, hands[i].name)
		}
		card := ""
		if e.value != EmptySlot {
			if err := checkCode(e.value); err != nil {
				return Snapshot{}, fmt.Errorf("%w: played by %s: %v", ErrMalformedSnapshot, e.name, err)
			}
			card = e.value
		}
		snap.Played = append(snap.Played, SeatPlay{Name: e.name, Card: card})
	}

	if len(snap.Hands) > 0 && snap.Hands[0].Name != snap.Viewer {
		return Snapshot{}, fmt.Errorf("%w: first seat %q is not the viewer %q", ErrMalformedSnapshot, snap.Hands[0].Name, snap.Viewer)
	}
	return snap, nil
}

type entry struct {
	name  string
	value string
}

func parseEntries(line string) ([]entry, error) {
	if line == "" {
		return nil, nil
	}
	parts := strings.Split(line, entrySep)
	entries := make([]entry, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		name, value, ok := strings.Cut(part, valueSep)
		if !ok {
			return nil, fmt.Errorf("entry %q has no %q", part, valueSep)
		}
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate seat %q", name)
		}
		seen[name] = true
		entries = append(entries, entry{name: name, value: value})
	}
	return entries, nil
}

func parseHand(value string) ([]string, error) {
	if value == "" {
		return []string{}, nil
	}
	tokens := strings.Split(value, cardSep)
	for _, tok := range tokens {
		if tok == HiddenCard {
			continue
		}
		if err := checkCode(tok); err != nil {
			return nil, err
		}
	}
	return tokens, nil
}

// checkCode accepts only canonical card codes, so "S013" or "s13" fail.
func checkCode(code string) error {
	card, err := deck.ParseCard(code)
	if err != nil {
		return err
	}
	if card.Code() != code {
		return fmt.Errorf("card code %q is not canonical", code)
	}
	return nil
}
