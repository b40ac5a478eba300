package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreatePlanRequest struct {
	Name           string `json:"name"`
	Amount         int64  `json:"amount"`
	FeeBasisPoints int64  `json:"fee_basis_points"`
	PaymentDay     int    `json:"payment_day"`
}

type UpdatePlanRequest struct {
	Name       *string `json:"name"`
	Amount     *int64  `json:"amount"`
	PaymentDay *int    `json:"payment_day"`
}

type PlanResponse struct {
	UUID            uuid.UUID `json:"uuid"`
	Name            string    `json:"name"`
	Amount          int64     `json:"amount"`
	FeeBasisPoints  int64     `json:"fee_basis_points"`
	PaymentDay      int       `json:"payment_day"`
	OwnerUUID       uuid.UUID `json:"owner_uuid"`
	NextPaymentDate time.Time `json:"next_payment_date"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateInviteRequest struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type InviteResponse struct {
	UUID      uuid.UUID `json:"uuid"`
	ShortID   string    `json:"short_id"`
	PlanUUID  uuid.UUID `json:"plan_uuid"`
	Cancelled bool      `json:"cancelled"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type SubscribeRequest struct {
	InviteShortID string `json:"invite_short_id"`
}

type SubscriptionResponse struct {
	UUID       uuid.UUID `json:"uuid"`
	UserUUID   uuid.UUID `json:"user_uuid"`
	PlanUUID   uuid.UUID `json:"plan_uuid"`
	InviteUUID uuid.UUID `json:"invite_uuid"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// MemberResponse is a plan member as seen by another member; the email
// is redacted unless the viewer may see it.
type MemberResponse struct {
	UUID  uuid.UUID `json:"uuid"`
	Email *string   `json:"email"`
	Owner bool      `json:"owner"`
}
