// Package repository defines the persistence capabilities the engine
// runs on. Services depend on these interfaces only; gormstore provides
// the Postgres implementation and memstore the test double.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/planshare/planshare-backend/internal/models"
)

var (
	// ErrNotFound is returned by Get* lookups when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a unique
	// constraint. Short-code generation retries on it; redemption maps
	// it to the invite-already-used failure.
	ErrDuplicateKey = errors.New("unique constraint violation")
)

type UserRepository interface {
	Insert(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// FindByUUID returns (nil, nil) when the user does not exist.
	FindByUUID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetByUUID returns ErrNotFound when the user does not exist.
	GetByUUID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PlanRepository interface {
	Insert(ctx context.Context, plan *models.Plan) error
	Update(ctx context.Context, plan *models.Plan) error
	FindByUUID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	FindByOwner(ctx context.Context, ownerUUID uuid.UUID) ([]models.Plan, error)
}

type InviteRepository interface {
	Insert(ctx context.Context, invite *models.Invite) error
	Update(ctx context.Context, invite *models.Invite) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*models.Invite, error)
	// FindByShortID is scoped to a plan; invites are shared as plain
	// codes and redeemed against the plan they were issued for.
	FindByShortID(ctx context.Context, planUUID uuid.UUID, shortID string) (*models.Invite, error)
	// FindByPlan returns invites in insertion order.
	FindByPlan(ctx context.Context, planUUID uuid.UUID) ([]models.Invite, error)
	ShortIDExists(ctx context.Context, shortID string) (bool, error)
}

type SubscriptionRepository interface {
	// Insert fails with ErrDuplicateKey when another subscription
	// already consumed the same invite.
	Insert(ctx context.Context, sub *models.Subscription) error
	Update(ctx context.Context, sub *models.Subscription) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	FindByPlan(ctx context.Context, planUUID uuid.UUID) ([]models.Subscription, error)
	FindByUser(ctx context.Context, userUUID uuid.UUID) ([]models.Subscription, error)
	// FindJoined returns the user's JOINED subscription to the plan,
	// or (nil, nil) when there is none.
	FindJoined(ctx context.Context, userUUID, planUUID uuid.UUID) (*models.Subscription, error)
	// FindByInvite returns the subscription that consumed the invite,
	// or (nil, nil) when the invite is unredeemed.
	FindByInvite(ctx context.Context, inviteUUID uuid.UUID) (*models.Subscription, error)
}

type RefreshTokenRepository interface {
	Insert(ctx context.Context, token *models.RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	DeleteByUser(ctx context.Context, userUUID uuid.UUID) error
}

// Store bundles the repositories behind a single transactional
// boundary. Atomically runs fn against a store whose writes commit or
// roll back together; the redemption protocol depends on it.
type Store interface {
	Users() UserRepository
	Plans() PlanRepository
	Invites() InviteRepository
	Subscriptions() SubscriptionRepository
	RefreshTokens() RefreshTokenRepository

	Atomically(ctx context.Context, fn func(Store) error) error
}
