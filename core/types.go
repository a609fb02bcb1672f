package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 2 // 2 decimal places for currency amounts (0.01 precision)

const taxIDLength = 11

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Participant identifies a registered bidder. Tax ID and email are both
// unique keys: two participants refer to the same person if either key
// matches. Registries that map participants must key on the canonical
// tax ID only, never on email, to avoid collision ambiguity.
type Participant struct {
	name      string
	taxID     string // digits only, exactly taxIDLength of them
	email     string
	birthDate time.Time
	hasBid    bool
}

// NewParticipant validates and builds a participant. The tax ID may
// carry punctuation; it is stored in canonical digits-only form.
func NewParticipant(name, taxID, email string, birthDate time.Time) (*Participant, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: participant name must not be empty", ErrInvalidValue)
	}
	canonical, err := CanonicalTaxID(taxID)
	if err != nil {
		return nil, err
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: malformed email %q", ErrInvalidValue, email)
	}
	if birthDate.IsZero() {
		return nil, fmt.Errorf("%w: participant birth date must be set", ErrInvalidValue)
	}
	return &Participant{
		name:      name,
		taxID:     canonical,
		email:     email,
		birthDate: birthDate,
	}, nil
}

// CanonicalTaxID strips any non-digit characters and requires exactly
// 11 digits to remain.
func CanonicalTaxID(taxID string) (string, error) {
	var b strings.Builder
	for _, r := range taxID {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != taxIDLength {
		return "", fmt.Errorf("%w: tax id must contain exactly %d digits, got %d", ErrInvalidValue, taxIDLength, len(digits))
	}
	return digits, nil
}

func (p *Participant) Name() string {
	return p.name
}

// TaxID returns the canonical digits-only tax ID.
func (p *Participant) TaxID() string {
	return p.taxID
}

func (p *Participant) Email() string {
	return p.email
}

func (p *Participant) BirthDate() time.Time {
	return p.birthDate
}

// Equal reports whether two participants refer to the same person.
// A match on either unique key counts.
func (p *Participant) Equal(other *Participant) bool {
	if p == nil || other == nil {
		return false
	}
	return p.taxID == other.taxID || p.email == other.email
}

// HasBid reports whether this participant holds at least one admitted
// bid on any auction.
func (p *Participant) HasBid() bool {
	return p.hasBid
}

// CanBeRemoved reports whether a registry may delete this participant.
// Participants with admitted bids stay.
func (p *Participant) CanBeRemoved() bool {
	return !p.hasBid
}

func (p *Participant) markHasBid() {
	p.hasBid = true
}

func (p *Participant) String() string {
	return fmt.Sprintf("Participant(Name: %s, TaxID: %s, Email: %s)", p.name, p.taxID, p.email)
}

// Bid is an immutable (bidder, amount) pair proposed against an auction.
type Bid struct {
	bidder *Participant
	amount float64
}

// NewBid validates and builds a bid. The bidder must be present and the
// amount strictly positive.
func NewBid(bidder *Participant, amount float64) (Bid, error) {
	if bidder == nil {
		return Bid{}, fmt.Errorf("%w: bid requires a bidder", ErrMalformedBid)
	}
	if amount <= 0 {
		return Bid{}, fmt.Errorf("%w: bid amount must be positive, got %.2f", ErrInvalidValue, amount)
	}
	return Bid{bidder: bidder, amount: amount}, nil
}

func (b Bid) Bidder() *Participant {
	return b.bidder
}

func (b Bid) Amount() float64 {
	return b.amount
}

// Equal requires both bidder and amount to match. Ordering, by
// contrast, considers the amount only.
func (b Bid) Equal(other Bid) bool {
	return b.bidder.Equal(other.bidder) && amountDecimal(b.amount).Equal(amountDecimal(other.amount))
}

// Less orders bids by amount.
func (b Bid) Less(other Bid) bool {
	return amountDecimal(b.amount).LessThan(amountDecimal(other.amount))
}

func (b Bid) isZero() bool {
	return b.bidder == nil
}

func (b Bid) String() string {
	return fmt.Sprintf("Bid(Bidder: %s, Amount: %s)", b.bidder.Name(), amountDecimal(b.amount).StringFixed(2))
}

// amountDecimal rounds a monetary amount to monetaryPrecision so
// comparisons are stable regardless of how the float is represented in
// memory.
func amountDecimal(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(monetaryPrecision)
}
