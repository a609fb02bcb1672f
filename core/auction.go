package core

import (
	"fmt"
	"sort"
	"time"
)

// State is the auction lifecycle state. It is derived from the clock
// and the bid log rather than stored authoritatively.
type State string

const (
	StateInactive  State = "inactive"
	StateOpen      State = "open"
	StateFinalized State = "finalized"
	StateExpired   State = "expired"
)

// Auction governs one item's timed, ordered bid competition.
//
// State is re-derived from the clock at the top of every operation, so
// no timer drives transitions: staleness is bounded only by call
// frequency. Finalized is terminal. Every other state is recomputed,
// which means a clock that runs backwards can take an expired auction
// back to open or inactive.
//
// An Auction is not safe for concurrent use. ProposeBid is a
// check-then-append, so a concurrent host must serialize all calls on
// one auction behind a single mutex.
type Auction struct {
	name       string
	minimumBid float64
	startsAt   time.Time
	endsAt     time.Time

	bids   []Bid // append-only, chronological submission order
	state  State
	winner *Participant
	clock  Clock
}

// NewAuction validates the auction parameters and derives the initial
// state from clk, so an auction created inside its window starts open.
// A nil clk selects the wall clock.
func NewAuction(name string, minimumBid float64, startsAt, endsAt time.Time, clk Clock) (*Auction, error) {
	if err := validateAuctionParams(name, minimumBid, startsAt, endsAt); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = defaultClock
	}
	a := &Auction{
		name:       name,
		minimumBid: minimumBid,
		startsAt:   startsAt,
		endsAt:     endsAt,
		state:      StateInactive,
		clock:      clk,
	}
	a.refreshState()
	return a, nil
}

func validateAuctionParams(name string, minimumBid float64, startsAt, endsAt time.Time) error {
	if name == "" {
		return fmt.Errorf("%w: auction name must not be empty", ErrInvalidValue)
	}
	if minimumBid <= 0 {
		return fmt.Errorf("%w: minimum bid must be positive, got %.2f", ErrInvalidValue, minimumBid)
	}
	if startsAt.IsZero() || endsAt.IsZero() {
		return fmt.Errorf("%w: auction start and end times must be set", ErrInvalidValue)
	}
	if !startsAt.Before(endsAt) {
		return fmt.Errorf("%w: auction start must be before its end", ErrInvalidValue)
	}
	return nil
}

// refreshState recomputes the lifecycle state from the current clock.
// Finalized never changes. Expired is deliberately recomputable: a
// clock reporting an earlier instant reopens the auction.
func (a *Auction) refreshState() {
	if a.state == StateFinalized {
		return
	}
	now := a.clock.Now()
	switch {
	case now.Before(a.startsAt):
		a.state = StateInactive
	case now.Before(a.endsAt):
		a.state = StateOpen
	default:
		if len(a.bids) == 0 {
			a.state = StateExpired
			return
		}
		a.state = StateFinalized
		if highest := a.highestBid(); highest != nil {
			a.winner = highest.bidder
		}
	}
}

// State re-derives and returns the current lifecycle state.
func (a *Auction) State() State {
	a.refreshState()
	return a.state
}

func (a *Auction) Name() string {
	return a.name
}

func (a *Auction) MinimumBid() float64 {
	return a.minimumBid
}

func (a *Auction) StartsAt() time.Time {
	return a.startsAt
}

func (a *Auction) EndsAt() time.Time {
	return a.endsAt
}

// ProposeBid admits bid into the log if the auction is open and the
// admission rules pass, then flags the bidder as having bid so a
// registry can block deletion later.
//
// Admission rules, checked in precedence order:
//  1. the amount must meet the minimum bid
//  2. the amount must be strictly greater than the last admitted bid
//  3. the holder of the last bid may not bid twice in a row
//
// A first bid that meets the minimum is always admitted.
func (a *Auction) ProposeBid(bid Bid) error {
	a.refreshState()
	if a.state != StateOpen {
		return fmt.Errorf("%w: auction %q is not open for bids (state: %s)", ErrInvalidAuction, a.name, a.state)
	}
	if bid.isZero() {
		return fmt.Errorf("%w: bid carries no bidder", ErrMalformedBid)
	}

	amount := amountDecimal(bid.amount)
	if amount.LessThan(amountDecimal(a.minimumBid)) {
		return fmt.Errorf("%w: amount (%s) is below the minimum (%s) for auction %q",
			ErrBidBelowMinimum, amount.StringFixed(2), amountDecimal(a.minimumBid).StringFixed(2), a.name)
	}
	if last := a.lastBid(); last != nil {
		if !amount.GreaterThan(amountDecimal(last.amount)) {
			return fmt.Errorf("%w: amount (%s) is not greater than the last bid (%s) on auction %q",
				ErrBidNotAboveLast, amount.StringFixed(2), amountDecimal(last.amount).StringFixed(2), a.name)
		}
		if bid.bidder.Equal(last.bidder) {
			return fmt.Errorf("%w: %s already holds the last bid on auction %q",
				ErrBidConsecutiveBidder, bid.bidder.Name(), a.name)
		}
	}

	a.bids = append(a.bids, bid)
	bid.bidder.markHasBid()
	return nil
}

func (a *Auction) lastBid() *Bid {
	if len(a.bids) == 0 {
		return nil
	}
	return &a.bids[len(a.bids)-1]
}

// highestBid returns the maximum-amount bid; the earliest one wins ties.
func (a *Auction) highestBid() *Bid {
	var best *Bid
	for i := range a.bids {
		if best == nil || a.bids[i].amount > best.amount {
			best = &a.bids[i]
		}
	}
	return best
}

// lowestBid returns the minimum-amount bid; the earliest one wins ties.
func (a *Auction) lowestBid() *Bid {
	var worst *Bid
	for i := range a.bids {
		if worst == nil || a.bids[i].amount < worst.amount {
			worst = &a.bids[i]
		}
	}
	return worst
}

// LastBid returns a copy of the most recently admitted bid, or nil if
// the log is empty.
func (a *Auction) LastBid() *Bid {
	a.refreshState()
	return copyBid(a.lastBid())
}

// HighestBid returns a copy of the highest-amount bid, or nil if the
// log is empty. The earliest bid wins ties.
func (a *Auction) HighestBid() *Bid {
	a.refreshState()
	return copyBid(a.highestBid())
}

// LowestBid returns a copy of the lowest-amount bid, or nil if the log
// is empty. The earliest bid wins ties.
func (a *Auction) LowestBid() *Bid {
	a.refreshState()
	return copyBid(a.lowestBid())
}

func copyBid(b *Bid) *Bid {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// Bids returns the current standings: a copy of the bid log sorted
// ascending by amount. Bids with equal amounts keep their submission
// order. The log itself is never reordered.
func (a *Auction) Bids() []Bid {
	a.refreshState()
	out := make([]Bid, len(a.bids))
	copy(out, a.bids)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Less(out[j])
	})
	return out
}

// BidCount returns the number of admitted bids.
func (a *Auction) BidCount() int {
	return len(a.bids)
}

// Winner returns the winning bidder once the auction has finalized,
// nil otherwise. The winner never changes after finalization.
func (a *Auction) Winner() *Participant {
	if a.State() != StateFinalized {
		return nil
	}
	return a.winner
}

// CanBeModifiedOrDeleted reports whether a registry may alter or remove
// this auction: only while inactive or expired.
func (a *Auction) CanBeModifiedOrDeleted() bool {
	s := a.State()
	return s == StateInactive || s == StateExpired
}

// Update replaces the auction parameters while the auction is still
// modifiable, then re-derives the state against the new window.
func (a *Auction) Update(name string, minimumBid float64, startsAt, endsAt time.Time) error {
	if !a.CanBeModifiedOrDeleted() {
		return fmt.Errorf("%w: auction %q cannot be altered (state: %s)", ErrInvalidAuction, a.name, a.state)
	}
	if err := validateAuctionParams(name, minimumBid, startsAt, endsAt); err != nil {
		return err
	}
	a.name = name
	a.minimumBid = minimumBid
	a.startsAt = startsAt
	a.endsAt = endsAt
	a.refreshState()
	return nil
}

func (a *Auction) String() string {
	return fmt.Sprintf("Auction(Name: %s, State: %s, Bids: %d)", a.name, a.State(), len(a.bids))
}
