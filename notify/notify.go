// Package notify builds and delivers winner notifications for
// finalized auctions. The core never logs or sends anything itself;
// this package is the user-visible edge.
package notify

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/auctionhouse/core"
)

var (
	// ErrNotFinalized reports a notification attempt on an auction that
	// has not finalized yet.
	ErrNotFinalized = errors.New("auction not finalized")

	// ErrInconsistentState covers the defensive cases of a winner
	// without a resolvable highest bid and a finalized auction without
	// a winner. Neither should occur given the auction invariants.
	ErrInconsistentState = errors.New("inconsistent auction state")
)

// WinnerNotice is the message addressed to an auction winner.
type WinnerNotice struct {
	To            string // winner email
	WinnerName    string
	AuctionName   string
	WinningAmount string // two-decimal currency string
	EndedAt       time.Time
}

// BuildWinnerNotice assembles the notice for a finalized auction.
func BuildWinnerNotice(a *core.Auction) (*WinnerNotice, error) {
	winner := a.Winner()
	if winner == nil {
		if a.State() == core.StateFinalized {
			return nil, fmt.Errorf("%w: auction %q finalized with no winner", ErrInconsistentState, a.Name())
		}
		return nil, fmt.Errorf("%w: auction %q (state: %s)", ErrNotFinalized, a.Name(), a.State())
	}
	highest := a.HighestBid()
	if highest == nil {
		return nil, fmt.Errorf("%w: auction %q has a winner but no highest bid", ErrInconsistentState, a.Name())
	}
	return &WinnerNotice{
		To:            winner.Email(),
		WinnerName:    winner.Name(),
		AuctionName:   a.Name(),
		WinningAmount: decimal.NewFromFloat(highest.Amount()).StringFixed(2),
		EndedAt:       a.EndsAt(),
	}, nil
}

// Render produces the mail body for the notice.
func (n *WinnerNotice) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\n", n.To)
	fmt.Fprintf(&b, "Subject: Congratulations! You won the auction %q\n\n", n.AuctionName)
	fmt.Fprintf(&b, "Dear %s,\n\n", n.WinnerName)
	fmt.Fprintf(&b, "Congratulations! You won %q with a bid of %s.\n\n", n.AuctionName, n.WinningAmount)
	fmt.Fprintf(&b, "Auction details:\n")
	fmt.Fprintf(&b, " - Name: %s\n", n.AuctionName)
	fmt.Fprintf(&b, " - Ended at: %s\n\n", n.EndedAt.Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "We will be in touch with the next steps.\n")
	return b.String()
}

// Notifier delivers winner notices.
type Notifier interface {
	NotifyWinner(notice *WinnerNotice) error
}

// LogNotifier writes notices to the standard logger. It stands in for a
// real mail integration.
type LogNotifier struct{}

func (LogNotifier) NotifyWinner(notice *WinnerNotice) error {
	log.Printf("INFO: winner notification for auction %q -> %s\n%s", notice.AuctionName, notice.To, notice.Render())
	return nil
}
