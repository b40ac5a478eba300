package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/planshare/planshare-backend/internal/models"
	"github.com/planshare/planshare-backend/internal/repository"
)

var (
	ErrUserNotFound             = errors.New("user does not exist")
	ErrPlanNotFound             = errors.New("plan does not exist")
	ErrInviteNotFound           = errors.New("invite does not exist")
	ErrOwnerCannotSubscribe     = errors.New("the owner can't subscribe to their own plan")
	ErrInviteAlreadyUsed        = errors.New("this invite has already been used")
	ErrInviteExpiredOrCancelled = errors.New("this invite has expired or been cancelled")
	ErrAlreadySubscribed        = errors.New("already subscribed to this plan")
	ErrNotPlanOwner             = errors.New("you need to be the owner of the plan to do this")
	ErrShortIDExhausted         = errors.New("could not generate a unique invite code")
)

// maxShortIDAttempts bounds the rejection-sampling loop for invite
// codes. With 36^6 possible codes a collision is already rare; hitting
// the bound means something is deeply wrong with the invite table.
const maxShortIDAttempts = 10

// PlanService owns the plan lifecycle and the invite issuance and
// redemption protocol. Authorization for owner-only operations is
// enforced here; transport-level concerns stay in the handlers.
type PlanService struct {
	store repository.Store
}

func NewPlanService(store repository.Store) *PlanService {
	return &PlanService{store: store}
}

func (s *PlanService) CreatePlan(ctx context.Context, ownerUUID uuid.UUID, name string, amount, feeBasisPoints int64, paymentDay int) (*models.Plan, error) {
	owner, err := s.store.Users().FindByUUID(ctx, ownerUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up owner: %w", err)
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	plan, err := models.NewPlan(name, amount, feeBasisPoints, paymentDay, ownerUUID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Plans().Insert(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	slog.Info("plan created", "plan_uuid", plan.UUID, "user_uuid", ownerUUID)
	return plan, nil
}

// UpdatePlan changes name, amount and/or payment day. Nil fields are
// left untouched. Only the owner may update a plan.
func (s *PlanService) UpdatePlan(ctx context.Context, planUUID, actorUUID uuid.UUID, name *string, amount *int64, paymentDay *int) (*models.Plan, error) {
	plan, err := s.getPlan(ctx, planUUID)
	if err != nil {
		return nil, err
	}
	if plan.OwnerUUID != actorUUID {
		return nil, ErrNotPlanOwner
	}

	if name != nil {
		plan.Name = *name
	}
	if amount != nil {
		plan.Amount = *amount
	}
	if paymentDay != nil {
		plan.PaymentDay = *paymentDay
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Plans().Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return plan, nil
}

func (s *PlanService) GetPlan(ctx context.Context, planUUID uuid.UUID) (*models.Plan, error) {
	return s.getPlan(ctx, planUUID)
}

func (s *PlanService) PlansByOwner(ctx context.Context, ownerUUID uuid.UUID) ([]models.Plan, error) {
	return s.store.Plans().FindByOwner(ctx, ownerUUID)
}

// CreateInvite issues a fresh invite for the plan. The short code is
// sampled until it is unique among existing invites; the unique index
// on short_id backstops the check against concurrent issuance, and a
// lost race just means another attempt.
func (s *PlanService) CreateInvite(ctx context.Context, planUUID uuid.UUID, expiresAt time.Time) (*models.Invite, error) {
	plan, err := s.getPlan(ctx, planUUID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxShortIDAttempts; attempt++ {
		shortID, err := models.RandomShortID()
		if err != nil {
			return nil, err
		}

		exists, err := s.store.Invites().ShortIDExists(ctx, shortID)
		if err != nil {
			return nil, fmt.Errorf("failed to check invite code: %w", err)
		}
		if exists {
			continue
		}

		invite := models.NewInvite(shortID, plan.UUID, expiresAt)
		err = s.store.Invites().Insert(ctx, invite)
		if errors.Is(err, repository.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create invite: %w", err)
		}

		slog.Info("invite created", "plan_uuid", plan.UUID, "invite_uuid", invite.UUID)
		return invite, nil
	}

	return nil, ErrShortIDExhausted
}

// CancelInvite marks an invite unusable. Only the plan owner may do
// this, and a redeemed invite is never mutated.
func (s *PlanService) CancelInvite(ctx context.Context, inviteUUID, actorUUID uuid.UUID) (*models.Invite, error) {
	invite, err := s.store.Invites().GetByUUID(ctx, inviteUUID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}

	plan, err := s.getPlan(ctx, invite.PlanUUID)
	if err != nil {
		return nil, err
	}
	if plan.OwnerUUID != actorUUID {
		return nil, ErrNotPlanOwner
	}

	redeemedBy, err := s.store.Subscriptions().FindByInvite(ctx, invite.UUID)
	if err != nil {
		return nil, err
	}
	if redeemedBy != nil {
		return nil, ErrInviteAlreadyUsed
	}

	if invite.Cancelled {
		return invite, nil
	}
	invite.Cancelled = true
	if err := s.store.Invites().Update(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to cancel invite: %w", err)
	}
	return invite, nil
}

// SubscribeUser redeems an invite code into a JOINED subscription. The
// whole check-then-insert sequence runs atomically; two concurrent
// redemptions of the same invite cannot both succeed because the second
// insert trips the unique index on invite_uuid.
//
// Failure order: owner, unknown user, unknown invite, already used,
// expired or cancelled, already subscribed.
func (s *PlanService) SubscribeUser(ctx context.Context, planUUID, userUUID uuid.UUID, inviteShortID string) (*models.Subscription, error) {
	plan, err := s.getPlan(ctx, planUUID)
	if err != nil {
		return nil, err
	}

	var sub *models.Subscription
	err = s.store.Atomically(ctx, func(tx repository.Store) error {
		if userUUID == plan.OwnerUUID {
			return ErrOwnerCannotSubscribe
		}

		user, err := tx.Users().FindByUUID(ctx, userUUID)
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		if user == nil {
			return ErrUserNotFound
		}

		invite, err := tx.Invites().FindByShortID(ctx, plan.UUID, inviteShortID)
		if err != nil {
			return fmt.Errorf("failed to look up invite: %w", err)
		}
		if invite == nil {
			return ErrInviteNotFound
		}

		claimedBy, err := tx.Subscriptions().FindByInvite(ctx, invite.UUID)
		if err != nil {
			return fmt.Errorf("failed to check invite redemption: %w", err)
		}
		if claimedBy != nil {
			return ErrInviteAlreadyUsed
		}

		if !invite.Usable(time.Now()) {
			return ErrInviteExpiredOrCancelled
		}

		existing, err := tx.Subscriptions().FindJoined(ctx, userUUID, plan.UUID)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing != nil {
			return ErrAlreadySubscribed
		}

		sub = models.NewSubscription(userUUID, plan.UUID, invite.UUID)
		if err := tx.Subscriptions().Insert(ctx, sub); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return ErrInviteAlreadyUsed
			}
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user subscribed", "plan_uuid", plan.UUID, "user_uuid", userUUID, "subscription_uuid", sub.UUID)
	return sub, nil
}

// Members returns the plan's active members, owner first. Only JOINED
// subscriptions count; the owner is a member without a row.
func (s *PlanService) Members(ctx context.Context, planUUID uuid.UUID) ([]models.User, error) {
	plan, err := s.getPlan(ctx, planUUID)
	if err != nil {
		return nil, err
	}

	owner, err := s.store.Users().GetByUUID(ctx, plan.OwnerUUID)
	if err != nil {
		return nil, fmt.Errorf("plan %s has dangling owner %s: %w", plan.UUID, plan.OwnerUUID, err)
	}

	subs, err := s.store.Subscriptions().FindByPlan(ctx, plan.UUID)
	if err != nil {
		return nil, err
	}

	members := []models.User{*owner}
	for _, sub := range subs {
		if !sub.Active() {
			continue
		}
		user, err := s.store.Users().GetByUUID(ctx, sub.UserUUID)
		if err != nil {
			return nil, fmt.Errorf("subscription %s has dangling user %s: %w", sub.UUID, sub.UserUUID, err)
		}
		members = append(members, *user)
	}
	return members, nil
}

func (s *PlanService) Invites(ctx context.Context, planUUID uuid.UUID) ([]models.Invite, error) {
	plan, err := s.getPlan(ctx, planUUID)
	if err != nil {
		return nil, err
	}
	return s.store.Invites().FindByPlan(ctx, plan.UUID)
}

// IsSubscribed reports whether the user is an active member, counting
// the owner as always subscribed.
func (s *PlanService) IsSubscribed(ctx context.Context, planUUID, userUUID uuid.UUID) (bool, error) {
	plan, err := s.getPlan(ctx, planUUID)
	if err != nil {
		return false, err
	}
	if plan.OwnerUUID == userUUID {
		return true, nil
	}
	sub, err := s.store.Subscriptions().FindJoined(ctx, userUUID, plan.UUID)
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

// PaymentQuote describes one billing cycle of a plan.
type PaymentQuote struct {
	MemberCount     int       `json:"member_count"`
	AmountPerMember int64     `json:"amount_per_member"`
	FeeAmount       int64     `json:"fee_amount"`
	NextPaymentDate time.Time `json:"next_payment_date"`
}

// Quote computes the per-member share for the current membership.
func (s *PlanService) Quote(ctx context.Context, planUUID uuid.UUID, now time.Time) (*PaymentQuote, error) {
	plan, err := s.getPlan(ctx, planUUID)
	if err != nil {
		return nil, err
	}

	members, err := s.Members(ctx, plan.UUID)
	if err != nil {
		return nil, err
	}

	activeMembers := len(members) - 1 // the owner is not counted
	return &PaymentQuote{
		MemberCount:     len(members),
		AmountPerMember: plan.PaymentAmount(activeMembers),
		FeeAmount:       plan.FeeAmount(),
		NextPaymentDate: plan.NextPaymentDate(now),
	}, nil
}

func (s *PlanService) getPlan(ctx context.Context, planUUID uuid.UUID) (*models.Plan, error) {
	plan, err := s.store.Plans().GetByUUID(ctx, planUUID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}
