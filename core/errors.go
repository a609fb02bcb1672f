package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the core. All of them signal caller mistakes,
// not transient failures; none should be retried.
var (
	// ErrInvalidValue reports malformed construction or update arguments.
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidAuction reports an operation attempted while the auction
	// is not in a state that allows it.
	ErrInvalidAuction = errors.New("invalid auction operation")

	// ErrMalformedBid reports a bid value that was not built through
	// NewBid and carries no bidder.
	ErrMalformedBid = errors.New("malformed bid")

	// ErrBidRejected reports a structurally valid bid turned away by the
	// admission rules. The reason sentinels below all wrap it.
	ErrBidRejected = errors.New("bid rejected")
)

// Admission rejection reasons, mutually exclusive, in the order they
// are checked.
var (
	ErrBidBelowMinimum      = fmt.Errorf("%w: below minimum", ErrBidRejected)
	ErrBidNotAboveLast      = fmt.Errorf("%w: not greater than last bid", ErrBidRejected)
	ErrBidConsecutiveBidder = fmt.Errorf("%w: consecutive bid by same bidder", ErrBidRejected)
)
