// Package registry keeps the in-memory participant and auction
// registries that surround the auction core: registration with
// dual-unique-key enforcement, auction bookkeeping with name
// uniqueness, listing with filters, and system-level bid placement.
package registry

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cloudx-io/auctionhouse/core"
	"github.com/cloudx-io/auctionhouse/notify"
)

var (
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrParticipantHasBids   = errors.New("participant has admitted bids")
	ErrDuplicateTaxID       = errors.New("tax id already registered")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrDuplicateAuctionName = errors.New("auction name already in use")
)

// System is the registry aggregate. It is not safe for concurrent use;
// a concurrent host must serialize access behind a single mutex.
type System struct {
	participants map[string]*core.Participant // canonical tax id -> participant
	taxIDs       []string                     // registration order
	auctions     []*core.Auction
	clock        core.Clock
}

// NewSystem builds an empty registry. Auctions created through it share
// clk; nil selects the wall clock.
func NewSystem(clk core.Clock) *System {
	return &System{
		participants: make(map[string]*core.Participant),
		clock:        clk,
	}
}

// RegisterParticipant validates and stores a new participant. Both
// unique keys are enforced: a tax ID or email already present rejects
// the registration.
func (s *System) RegisterParticipant(name, taxID, email string, birthDate time.Time) (*core.Participant, error) {
	p, err := core.NewParticipant(name, taxID, email, birthDate)
	if err != nil {
		return nil, err
	}
	if _, exists := s.participants[p.TaxID()]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTaxID, p.TaxID())
	}
	for _, existing := range s.participants {
		if existing.Email() == p.Email() {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, p.Email())
		}
	}
	s.participants[p.TaxID()] = p
	s.taxIDs = append(s.taxIDs, p.TaxID())
	return p, nil
}

// ParticipantByTaxID looks a participant up by tax ID, tolerating
// punctuation in the input.
func (s *System) ParticipantByTaxID(taxID string) (*core.Participant, error) {
	canonical, err := core.CanonicalTaxID(taxID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrParticipantNotFound, taxID)
	}
	p, ok := s.participants[canonical]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParticipantNotFound, canonical)
	}
	return p, nil
}

// RemoveParticipant deletes a participant, unless they hold admitted
// bids.
func (s *System) RemoveParticipant(taxID string) error {
	p, err := s.ParticipantByTaxID(taxID)
	if err != nil {
		return err
	}
	if !p.CanBeRemoved() {
		return fmt.Errorf("%w: %s (tax id %s)", ErrParticipantHasBids, p.Name(), p.TaxID())
	}
	delete(s.participants, p.TaxID())
	for i, id := range s.taxIDs {
		if id == p.TaxID() {
			s.taxIDs = append(s.taxIDs[:i], s.taxIDs[i+1:]...)
			break
		}
	}
	return nil
}

// Participants returns all registered participants in registration
// order.
func (s *System) Participants() []*core.Participant {
	out := make([]*core.Participant, 0, len(s.taxIDs))
	for _, id := range s.taxIDs {
		out = append(out, s.participants[id])
	}
	return out
}

// CreateAuction validates and stores a new auction. Names are unique
// within the registry.
func (s *System) CreateAuction(name string, minimumBid float64, startsAt, endsAt time.Time) (*core.Auction, error) {
	if s.findAuction(name) != nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateAuctionName, name)
	}
	a, err := core.NewAuction(name, minimumBid, startsAt, endsAt, s.clock)
	if err != nil {
		return nil, err
	}
	s.auctions = append(s.auctions, a)
	return a, nil
}

func (s *System) findAuction(name string) *core.Auction {
	for _, a := range s.auctions {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// AuctionByName looks an auction up by its unique name.
func (s *System) AuctionByName(name string) (*core.Auction, error) {
	a := s.findAuction(name)
	if a == nil {
		return nil, fmt.Errorf("%w: %q", ErrAuctionNotFound, name)
	}
	return a, nil
}

// AuctionUpdate carries the fields to change on an auction; nil fields
// keep their current value.
type AuctionUpdate struct {
	Name       *string
	MinimumBid *float64
	StartsAt   *time.Time
	EndsAt     *time.Time
}

// UpdateAuction alters an auction while it is inactive or expired. A
// rename is checked against the name uniqueness rule first.
func (s *System) UpdateAuction(name string, upd AuctionUpdate) error {
	a, err := s.AuctionByName(name)
	if err != nil {
		return err
	}
	if !a.CanBeModifiedOrDeleted() {
		return fmt.Errorf("%w: auction %q cannot be altered (state: %s)", core.ErrInvalidAuction, a.Name(), a.State())
	}
	newName := a.Name()
	if upd.Name != nil {
		newName = *upd.Name
		if newName != name && s.findAuction(newName) != nil {
			return fmt.Errorf("%w: %q", ErrDuplicateAuctionName, newName)
		}
	}
	minimumBid := a.MinimumBid()
	if upd.MinimumBid != nil {
		minimumBid = *upd.MinimumBid
	}
	startsAt := a.StartsAt()
	if upd.StartsAt != nil {
		startsAt = *upd.StartsAt
	}
	endsAt := a.EndsAt()
	if upd.EndsAt != nil {
		endsAt = *upd.EndsAt
	}
	return a.Update(newName, minimumBid, startsAt, endsAt)
}

// RemoveAuction deletes an auction while it is inactive or expired.
func (s *System) RemoveAuction(name string) error {
	for i, a := range s.auctions {
		if a.Name() != name {
			continue
		}
		if !a.CanBeModifiedOrDeleted() {
			return fmt.Errorf("%w: auction %q cannot be removed (state: %s)", core.ErrInvalidAuction, a.Name(), a.State())
		}
		s.auctions = append(s.auctions[:i], s.auctions[i+1:]...)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrAuctionNotFound, name)
}

// Filter narrows an auction listing. Zero values mean "no constraint".
// From and To select auctions whose window overlaps [From, To].
type Filter struct {
	State core.State
	From  time.Time
	To    time.Time
}

// Auctions lists registered auctions, re-deriving each state, with
// optional filtering.
func (s *System) Auctions(f Filter) []*core.Auction {
	out := make([]*core.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		if f.State != "" && a.State() != f.State {
			continue
		}
		if !f.From.IsZero() && a.EndsAt().Before(f.From) {
			continue
		}
		if !f.To.IsZero() && a.StartsAt().After(f.To) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// PlaceBid builds a bid for the named participant and proposes it to
// the named auction. Admission rules are the auction's to enforce.
func (s *System) PlaceBid(taxID, auctionName string, amount float64) error {
	p, err := s.ParticipantByTaxID(taxID)
	if err != nil {
		return err
	}
	a, err := s.AuctionByName(auctionName)
	if err != nil {
		return err
	}
	bid, err := core.NewBid(p, amount)
	if err != nil {
		return err
	}
	return a.ProposeBid(bid)
}

// BidsFor returns an auction's current standings, ascending by amount.
func (s *System) BidsFor(auctionName string) ([]core.Bid, error) {
	a, err := s.AuctionByName(auctionName)
	if err != nil {
		return nil, err
	}
	return a.Bids(), nil
}

// HighestBidFor returns the highest bid on the named auction, or nil if
// it has none.
func (s *System) HighestBidFor(auctionName string) (*core.Bid, error) {
	a, err := s.AuctionByName(auctionName)
	if err != nil {
		return nil, err
	}
	return a.HighestBid(), nil
}

// LowestBidFor returns the lowest bid on the named auction, or nil if
// it has none.
func (s *System) LowestBidFor(auctionName string) (*core.Bid, error) {
	a, err := s.AuctionByName(auctionName)
	if err != nil {
		return nil, err
	}
	return a.LowestBid(), nil
}

// WinnerFor returns the winner of the named auction, or nil if it has
// not finalized.
func (s *System) WinnerFor(auctionName string) (*core.Participant, error) {
	a, err := s.AuctionByName(auctionName)
	if err != nil {
		return nil, err
	}
	return a.Winner(), nil
}

// NotifyWinner builds the winner notice for a finalized auction and
// hands it to notifier. Inconsistent auction states are reported as a
// warning before the error is returned; they should not occur given the
// auction invariants.
func (s *System) NotifyWinner(auctionName string, notifier notify.Notifier) error {
	a, err := s.AuctionByName(auctionName)
	if err != nil {
		return err
	}
	notice, err := notify.BuildWinnerNotice(a)
	if err != nil {
		if errors.Is(err, notify.ErrInconsistentState) {
			log.Printf("WARN: %v", err)
		}
		return err
	}
	return notifier.NotifyWinner(notice)
}
