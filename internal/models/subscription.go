package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the lifecycle state of a membership.
type SubscriptionStatus string

const (
	SubscriptionJoined    SubscriptionStatus = "JOINED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
)

// ErrStatusTerminal is returned when a transition is attempted out of
// CANCELLED or EXPIRED. Terminal subscriptions are never revived;
// rejoining a plan takes a fresh invite and a fresh subscription row.
var ErrStatusTerminal = errors.New("subscription status is terminal")

// Subscription binds a user to a plan through the invite that admitted
// them. The unique index on invite_uuid is what makes concurrent
// redemptions of the same invite mutually exclusive.
type Subscription struct {
	UUID       uuid.UUID          `gorm:"type:uuid;column:uuid;primaryKey" json:"uuid"`
	UserUUID   uuid.UUID          `gorm:"type:uuid;column:user_uuid;not null;index" json:"user_uuid"`
	PlanUUID   uuid.UUID          `gorm:"type:uuid;column:plan_uuid;not null;index" json:"plan_uuid"`
	InviteUUID uuid.UUID          `gorm:"type:uuid;column:invite_uuid;not null;uniqueIndex" json:"invite_uuid"`
	Status     SubscriptionStatus `gorm:"size:20;not null" json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func NewSubscription(userUUID, planUUID, inviteUUID uuid.UUID) *Subscription {
	return &Subscription{
		UUID:       uuid.New(),
		UserUUID:   userUUID,
		PlanUUID:   planUUID,
		InviteUUID: inviteUUID,
		Status:     SubscriptionJoined,
	}
}

func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionCancelled || s == SubscriptionExpired
}

// Transition moves the subscription to next. Only JOINED allows a way
// out, and only into a terminal state.
func (s *Subscription) Transition(next SubscriptionStatus) error {
	if s.Status.Terminal() {
		return fmt.Errorf("cannot move subscription %s from %s to %s: %w", s.UUID, s.Status, next, ErrStatusTerminal)
	}
	if !next.Terminal() {
		return fmt.Errorf("invalid subscription status transition %s -> %s", s.Status, next)
	}
	s.Status = next
	return nil
}

func (s *Subscription) Active() bool {
	return s.Status == SubscriptionJoined
}

func (Subscription) TableName() string {
	return "subscriptions"
}
