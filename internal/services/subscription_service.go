package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/planshare/planshare-backend/internal/models"
	"github.com/planshare/planshare-backend/internal/repository"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription does not exist")
	// ErrSubscriptionNotActive is returned when a lifecycle operation
	// hits an EXPIRED subscription. Cancelling a CANCELLED subscription
	// is deliberately a no-op instead.
	ErrSubscriptionNotActive = errors.New("subscription is no longer active")
	ErrNotSubscriptionParty  = errors.New("only the subscriber or the plan owner can do this")
)

// SubscriptionService owns the membership lifecycle after redemption:
// user/owner cancellation and the billing-failure expiry signal.
type SubscriptionService struct {
	store repository.Store
}

func NewSubscriptionService(store repository.Store) *SubscriptionService {
	return &SubscriptionService{store: store}
}

// Cancel moves a JOINED subscription to CANCELLED. The subscriber or
// the plan owner may cancel. Cancelling twice is idempotent success;
// cancelling an EXPIRED subscription fails.
func (s *SubscriptionService) Cancel(ctx context.Context, subUUID, actorUUID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.get(ctx, subUUID)
	if err != nil {
		return nil, err
	}

	if sub.UserUUID != actorUUID {
		plan, err := s.Plan(ctx, sub)
		if err != nil {
			return nil, err
		}
		if plan.OwnerUUID != actorUUID {
			return nil, ErrNotSubscriptionParty
		}
	}

	if sub.Status == models.SubscriptionCancelled {
		return sub, nil
	}
	if sub.Status == models.SubscriptionExpired {
		return nil, ErrSubscriptionNotActive
	}

	if err := sub.Transition(models.SubscriptionCancelled); err != nil {
		return nil, err
	}
	if err := s.store.Subscriptions().Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	slog.Info("subscription cancelled", "subscription_uuid", sub.UUID, "plan_uuid", sub.PlanUUID, "user_uuid", sub.UserUUID)
	return sub, nil
}

// MarkExpired handles the external billing-failure signal, moving a
// JOINED subscription to EXPIRED. Terminal subscriptions are left
// untouched; a repeated signal for an EXPIRED one is acknowledged.
func (s *SubscriptionService) MarkExpired(ctx context.Context, subUUID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.get(ctx, subUUID)
	if err != nil {
		return nil, err
	}

	if sub.Status == models.SubscriptionExpired {
		return sub, nil
	}

	if err := sub.Transition(models.SubscriptionExpired); err != nil {
		return nil, err
	}
	if err := s.store.Subscriptions().Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to expire subscription: %w", err)
	}

	slog.Warn("subscription expired after billing failure", "subscription_uuid", sub.UUID, "plan_uuid", sub.PlanUUID, "user_uuid", sub.UserUUID)
	return sub, nil
}

func (s *SubscriptionService) Get(ctx context.Context, subUUID uuid.UUID) (*models.Subscription, error) {
	return s.get(ctx, subUUID)
}

func (s *SubscriptionService) ByUser(ctx context.Context, userUUID uuid.UUID) ([]models.Subscription, error) {
	return s.store.Subscriptions().FindByUser(ctx, userUUID)
}

// Plan resolves the subscription's plan. A missing row means the store
// lost referential integrity; the error is not a business failure.
func (s *SubscriptionService) Plan(ctx context.Context, sub *models.Subscription) (*models.Plan, error) {
	plan, err := s.store.Plans().GetByUUID(ctx, sub.PlanUUID)
	if err != nil {
		return nil, fmt.Errorf("subscription %s has dangling plan %s: %w", sub.UUID, sub.PlanUUID, err)
	}
	return plan, nil
}

// User resolves the subscription's user.
func (s *SubscriptionService) User(ctx context.Context, sub *models.Subscription) (*models.User, error) {
	user, err := s.store.Users().GetByUUID(ctx, sub.UserUUID)
	if err != nil {
		return nil, fmt.Errorf("subscription %s has dangling user %s: %w", sub.UUID, sub.UserUUID, err)
	}
	return user, nil
}

// Invite resolves the invite that admitted this member.
func (s *SubscriptionService) Invite(ctx context.Context, sub *models.Subscription) (*models.Invite, error) {
	invite, err := s.store.Invites().GetByUUID(ctx, sub.InviteUUID)
	if err != nil {
		return nil, fmt.Errorf("subscription %s has dangling invite %s: %w", sub.UUID, sub.InviteUUID, err)
	}
	return invite, nil
}

func (s *SubscriptionService) get(ctx context.Context, subUUID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.store.Subscriptions().GetByUUID(ctx, subUUID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}
