// Package receipt produces portable closing receipts for finalized
// auctions: the outcome plus a digest chain over the admitted bid log,
// so a result can be checked against an independently kept log.
package receipt

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/auctionhouse/core"
)

// ErrNotFinalized reports a receipt request for an auction that has not
// finalized yet.
var ErrNotFinalized = errors.New("auction not finalized")

// ClosingReceipt records the outcome of one finalized auction.
type ClosingReceipt struct {
	ReceiptID     string    `cbor:"receipt_id" json:"receipt_id"`
	AuctionName   string    `cbor:"auction_name" json:"auction_name"`
	WinnerTaxID   string    `cbor:"winner_tax_id" json:"winner_tax_id"`
	WinningAmount string    `cbor:"winning_amount" json:"winning_amount"`
	EndedAt       time.Time `cbor:"ended_at" json:"ended_at"`
	BidDigests    []string  `cbor:"bid_digests" json:"bid_digests"`
	LogDigest     string    `cbor:"log_digest" json:"log_digest"`
}

// ComputeBidDigest computes the digest of one admitted bid.
//
// Formula: SHA256(tax_id + "|" + sprintf("%.2f", amount) + "|" + auction_name)
//
// The amount is formatted to exactly 2 decimal places to ensure a
// consistent digest regardless of how the float is represented in
// memory.
func ComputeBidDigest(taxID string, amount float64, auctionName string) string {
	data := fmt.Sprintf("%s|%.2f|%s", taxID, amount, auctionName)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}

// ComputeLogDigest folds the per-bid digests, in submission order, into
// a single digest for the whole log.
//
// Formula: SHA256(digest1 + "|" + digest2 + "|" + ...)
func ComputeLogDigest(bidDigests []string) string {
	sum := sha256.Sum256([]byte(strings.Join(bidDigests, "|")))
	return fmt.Sprintf("%x", sum)
}

// Build assembles the closing receipt for a finalized auction. The bid
// digests are taken from the ascending standings, which for an admitted
// log equals submission order since amounts are strictly increasing.
func Build(a *core.Auction) (*ClosingReceipt, error) {
	winner := a.Winner()
	if winner == nil {
		return nil, fmt.Errorf("%w: auction %q (state: %s)", ErrNotFinalized, a.Name(), a.State())
	}
	highest := a.HighestBid()
	if highest == nil {
		return nil, fmt.Errorf("%w: auction %q has a winner but no bids", ErrNotFinalized, a.Name())
	}

	bids := a.Bids()
	digests := make([]string, len(bids))
	for i, b := range bids {
		digests[i] = ComputeBidDigest(b.Bidder().TaxID(), b.Amount(), a.Name())
	}

	return &ClosingReceipt{
		ReceiptID:     uuid.NewString(),
		AuctionName:   a.Name(),
		WinnerTaxID:   winner.TaxID(),
		WinningAmount: decimal.NewFromFloat(highest.Amount()).StringFixed(2),
		EndedAt:       a.EndsAt(),
		BidDigests:    digests,
		LogDigest:     ComputeLogDigest(digests),
	}, nil
}

// Encode serializes the receipt with CBOR.
func (r *ClosingReceipt) Encode() ([]byte, error) {
	data, err := cbor.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode receipt: %w", err)
	}
	return data, nil
}

// Decode parses a CBOR-encoded receipt.
func Decode(data []byte) (*ClosingReceipt, error) {
	var r ClosingReceipt
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &r, nil
}
