package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidAmount     = errors.New("plan amount must be positive")
	ErrInvalidPaymentDay = errors.New("payment day must be between 1 and 31")
	ErrInvalidFee        = errors.New("fee basis points must not be negative")
)

// Plan is a shared recurring cost. Amount is the full monthly price in
// minor units (cents); what each member owes is derived per cycle from
// the active member count, never stored.
type Plan struct {
	UUID           uuid.UUID `gorm:"type:uuid;column:uuid;primaryKey" json:"uuid"`
	Name           string    `gorm:"not null;size:255" json:"name"`
	Amount         int64     `gorm:"not null" json:"amount"`
	FeeBasisPoints int64     `gorm:"column:fee_basis_points;not null;default:0" json:"fee_basis_points"`
	PaymentDay     int       `gorm:"column:payment_day;not null" json:"payment_day"`
	OwnerUUID      uuid.UUID `gorm:"type:uuid;column:owner_uuid;not null;index" json:"owner_uuid"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewPlan(name string, amount, feeBasisPoints int64, paymentDay int, ownerUUID uuid.UUID) (*Plan, error) {
	plan := &Plan{
		UUID:           uuid.New(),
		Name:           name,
		Amount:         amount,
		FeeBasisPoints: feeBasisPoints,
		PaymentDay:     paymentDay,
		OwnerUUID:      ownerUUID,
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

func (p *Plan) Validate() error {
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if p.PaymentDay < 1 || p.PaymentDay > 31 {
		return ErrInvalidPaymentDay
	}
	if p.FeeBasisPoints < 0 {
		return ErrInvalidFee
	}
	return nil
}

// PaymentAmount is the per-member share for a cycle with activeMembers
// joined subscribers. The owner always pays too, so the amount is
// divided across activeMembers+1 payers, rounded up so the shares
// always cover the full price.
func (p *Plan) PaymentAmount(activeMembers int) int64 {
	payers := int64(activeMembers) + 1
	return (p.Amount + payers - 1) / payers
}

// FeeAmount is the platform fee for one cycle, rounded up to the next
// cent.
func (p *Plan) FeeAmount() int64 {
	return (p.Amount*p.FeeBasisPoints + 9999) / 10000
}

// NextPaymentDate is the first occurrence of PaymentDay on or after
// now, at midnight in now's location. Days past the end of a short
// month clamp to its last day, so a day-31 plan bills February on the
// 28th (or 29th).
func (p *Plan) NextPaymentDate(now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	year, month := today.Year(), today.Month()
	day := min(p.PaymentDay, daysInMonth(year, month))
	next := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	if next.Before(today) {
		firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, now.Location())
		year, month = firstOfNext.Year(), firstOfNext.Month()
		day = min(p.PaymentDay, daysInMonth(year, month))
		next = time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	}
	return next
}

// daysInMonth exploits time.Date normalisation: day 0 of the next
// month is the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (Plan) TableName() string {
	return "plans"
}
