// Package session tracks who is sitting at the table: which connection owns
// which seat, display names, the admin role and dummy visibility. It also
// builds the per viewer snapshot of the table.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lox/bridgetable/internal/game"
	"github.com/lox/bridgetable/internal/protocol"
)

var (
	ErrTableFull   = errors.New("table is full")
	ErrUnknownPeer = errors.New("unknown connection")
	ErrNameTaken   = errors.New("name is already in use")
	ErrNameUnknown = errors.New("no player with that name")
	ErrDuplicateID = errors.New("connection already joined")
)

// Peer is a connection seated at the table.
type Peer struct {
	ID   string
	Seat game.Seat
	Name string

	joined uint64
}

// Roster maps connections to seats. It is not safe for concurrent use; the
// owning table serializes access.
type Roster struct {
	peers map[string]*Peer
	seats [4]*Peer
	dummy [4]bool
	admin string
	seq   uint64
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{peers: make(map[string]*Peer)}
}

// Join seats a connection at the first free seat in play order. The first
// connection to join while no admin is set becomes the admin.
func (r *Roster) Join(id string) (*Peer, bool, error) {
	if _, ok := r.peers[id]; ok {
		return nil, false, ErrDuplicateID
	}
	for _, seat := range game.Seats {
		if r.seats[seat] != nil {
			continue
		}
		r.seq++
		p := &Peer{ID: id, Seat: seat, Name: seat.String(), joined: r.seq}
		r.peers[id] = p
		r.seats[seat] = p

		admin := false
		if r.admin == "" {
			r.admin = id
			admin = true
		}
		return p, admin, nil
	}
	return nil, false, ErrTableFull
}

// Leave removes a connection and frees its seat and dummy flag. If the
// connection was the admin the longest connected remaining peer is promoted
// and returned.
func (r *Roster) Leave(id string) (left *Peer, promoted *Peer, err error) {
	p, ok := r.peers[id]
	if !ok {
		return nil, nil, ErrUnknownPeer
	}
	delete(r.peers, id)
	r.seats[p.Seat] = nil
	r.dummy[p.Seat] = false

	if r.admin == id {
		r.admin = ""
		if next := r.oldest(); next != nil {
			r.admin = next.ID
			promoted = next
		}
	}
	return p, promoted, nil
}

func (r *Roster) oldest() *Peer {
	var best *Peer
	for _, p := range r.peers {
		if best == nil || p.joined < best.joined {
			best = p
		}
	}
	return best
}

// Get returns the peer for a connection.
func (r *Roster) Get(id string) (*Peer, bool) {
	p, ok := r.peers[id]
	return p, ok
}

// AtSeat returns the peer sitting at seat.
func (r *Roster) AtSeat(seat game.Seat) (*Peer, bool) {
	if !seat.Valid() || r.seats[seat] == nil {
		return nil, false
	}
	return r.seats[seat], true
}

// ByName finds a seated peer by display name, ignoring case.
func (r *Roster) ByName(name string) (*Peer, bool) {
	for _, p := range r.seats {
		if p != nil && strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

// Peers returns every seated peer in the order they joined.
func (r *Roster) Peers() []*Peer {
	out := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].joined < out[j].joined })
	return out
}

// Len returns the number of seated peers.
func (r *Roster) Len() int {
	return len(r.peers)
}

// Admin returns the admin connection ID, or "" when nobody is connected.
func (r *Roster) Admin() string {
	return r.admin
}

// IsAdmin reports whether id holds the admin role.
func (r *Roster) IsAdmin(id string) bool {
	return id != "" && r.admin == id
}

// Rename changes a peer's display name and returns the old one. Names are
// unique ignoring case, and a seat name is reserved for whoever sits there.
func (r *Roster) Rename(id, name string) (string, error) {
	p, ok := r.peers[id]
	if !ok {
		return "", ErrUnknownPeer
	}
	name = strings.TrimSpace(name)
	if err := protocol.ValidateName(name); err != nil {
		return "", err
	}
	for _, seat := range game.Seats {
		if seat != p.Seat && strings.EqualFold(seat.String(), name) {
			return "", fmt.Errorf("%w: %s is reserved for the %s seat", ErrNameTaken, name, seat)
		}
	}
	if other, ok := r.ByName(name); ok && other.ID != id {
		return "", fmt.Errorf("%w: %s", ErrNameTaken, name)
	}
	old := p.Name
	p.Name = name
	return old, nil
}

// NameOf returns the display name for a seat; vacant seats show the seat
// name.
func (r *Roster) NameOf(seat game.Seat) string {
	if p, ok := r.AtSeat(seat); ok {
		return p.Name
	}
	return seat.String()
}

// SetDummy makes the named peer's hand visible to everyone. A seat name or
// initial ("n") picks whoever sits there when no peer goes by that name.
func (r *Roster) SetDummy(name string) (*Peer, error) {
	p, ok := r.ByName(name)
	if !ok {
		if seat, err := game.ParseSeat(name); err == nil {
			p, ok = r.AtSeat(seat)
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNameUnknown, name)
	}
	r.dummy[p.Seat] = true
	return p, nil
}

// ResetDummy hides every hand again.
func (r *Roster) ResetDummy() {
	r.dummy = [4]bool{}
}

// IsDummy reports whether seat's hand is public.
func (r *Roster) IsDummy(seat game.Seat) bool {
	return seat.Valid() && r.dummy[seat]
}
