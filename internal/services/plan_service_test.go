package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planshare/planshare-backend/internal/models"
	"github.com/planshare/planshare-backend/internal/repository/memstore"
)

func seedUser(t *testing.T, store *memstore.Store, email string) *models.User {
	t.Helper()
	user := &models.User{UUID: uuid.New(), Email: email, Password: "x", Role: "user"}
	require.NoError(t, store.Users().Insert(context.Background(), user))
	return user
}

func seedPlan(t *testing.T, svc *PlanService, owner *models.User) *models.Plan {
	t.Helper()
	plan, err := svc.CreatePlan(context.Background(), owner.UUID, "netflix", 999, 1000, 12)
	require.NoError(t, err)
	return plan
}

func TestCreatePlan(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewPlanService(store)
	owner := seedUser(t, store, "owner@example.com")

	t.Run("success", func(t *testing.T) {
		plan, err := svc.CreatePlan(ctx, owner.UUID, "netflix", 999, 1000, 12)
		require.NoError(t, err)
		assert.Equal(t, owner.UUID, plan.OwnerUUID)

		got, err := svc.GetPlan(ctx, plan.UUID)
		require.NoError(t, err)
		assert.Equal(t, plan.UUID, got.UUID)
	})

	t.Run("unknown owner", func(t *testing.T) {
		_, err := svc.CreatePlan(ctx, uuid.New(), "netflix", 999, 0, 12)
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("invalid fields", func(t *testing.T) {
		_, err := svc.CreatePlan(ctx, owner.UUID, "netflix", 0, 0, 12)
		require.ErrorIs(t, err, models.ErrInvalidAmount)

		_, err = svc.CreatePlan(ctx, owner.UUID, "netflix", 999, 0, 32)
		require.ErrorIs(t, err, models.ErrInvalidPaymentDay)
	})
}

func TestUpdatePlan(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewPlanService(store)
	owner := seedUser(t, store, "owner@example.com")
	stranger := seedUser(t, store, "stranger@example.com")
	plan := seedPlan(t, svc, owner)

	t.Run("owner patches selected fields", func(t *testing.T) {
		name := "spotify"
		amount := int64(1499)
		updated, err := svc.UpdatePlan(ctx, plan.UUID, owner.UUID, &name, &amount, nil)
		require.NoError(t, err)
		assert.Equal(t, "spotify", updated.Name)
		assert.Equal(t, int64(1499), updated.Amount)
		assert.Equal(t, 12, updated.PaymentDay, "nil fields stay put")
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		name := "hijacked"
		_, err := svc.UpdatePlan(ctx, plan.UUID, stranger.UUID, &name, nil, nil)
		require.ErrorIs(t, err, ErrNotPlanOwner)
	})

	t.Run("invalid patch rejected", func(t *testing.T) {
		bad := int64(-5)
		_, err := svc.UpdatePlan(ctx, plan.UUID, owner.UUID, nil, &bad, nil)
		require.ErrorIs(t, err, models.ErrInvalidAmount)
	})

	t.Run("unknown plan", func(t *testing.T) {
		_, err := svc.UpdatePlan(ctx, uuid.New(), owner.UUID, nil, nil, nil)
		require.ErrorIs(t, err, ErrPlanNotFound)
	})
}

func TestCreateInvite(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewPlanService(store)
	owner := seedUser(t, store, "owner@example.com")
	plan := seedPlan(t, svc, owner)
	expiry := time.Now().Add(7 * 24 * time.Hour)

	t.Run("codes are unique across invites", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 25; i++ {
			invite, err := svc.CreateInvite(ctx, plan.UUID, expiry)
			require.NoError(t, err)
			assert.Len(t, invite.ShortID, models.ShortIDLength)
			assert.False(t, seen[invite.ShortID], "duplicate code %s", invite.ShortID)
			seen[invite.ShortID] = true
		}
	})

	t.Run("unknown plan", func(t *testing.T) {
		_, err := svc.CreateInvite(ctx, uuid.New(), expiry)
		require.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("listed in issue order", func(t *testing.T) {
		invites, err := svc.Invites(ctx, plan.UUID)
		require.NoError(t, err)
		require.Len(t, invites, 25)
	})
}

func TestCancelInvite(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewPlanService(store)
	owner := seedUser(t, store, "owner@example.com")
	stranger := seedUser(t, store, "stranger@example.com")
	plan := seedPlan(t, svc, owner)
	expiry := time.Now().Add(time.Hour)

	t.Run("owner cancels, and cancel is idempotent", func(t *testing.T) {
		invite, err := svc.CreateInvite(ctx, plan.UUID, expiry)
		require.NoError(t, err)

		cancelled, err := svc.CancelInvite(ctx, invite.UUID, owner.UUID)
		require.NoError(t, err)
		assert.True(t, cancelled.Cancelled)

		again, err := svc.CancelInvite(ctx, invite.UUID, owner.UUID)
		require.NoError(t, err)
		assert.True(t, again.Cancelled)
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		invite, err := svc.CreateInvite(ctx, plan.UUID, expiry)
		require.NoError(t, err)

		_, err = svc.CancelInvite(ctx, invite.UUID, stranger.UUID)
		require.ErrorIs(t, err, ErrNotPlanOwner)
	})

	t.Run("redeemed invite cannot be cancelled", func(t *testing.T) {
		member := seedUser(t, store, "member@example.com")
		invite, err := svc.CreateInvite(ctx, plan.UUID, expiry)
		require.NoError(t, err)
		_, err = svc.SubscribeUser(ctx, plan.UUID, member.UUID, invite.ShortID)
		require.NoError(t, err)

		_, err = svc.CancelInvite(ctx, invite.UUID, owner.UUID)
		require.ErrorIs(t, err, ErrInviteAlreadyUsed)
	})

	t.Run("unknown invite", func(t *testing.T) {
		_, err := svc.CancelInvite(ctx, uuid.New(), owner.UUID)
		require.ErrorIs(t, err, ErrInviteNotFound)
	})
}

func TestSubscribeUser(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewPlanService(store)
	owner := seedUser(t, store, "owner@example.com")
	member := seedUser(t, store, "member@example.com")
	plan := seedPlan(t, svc, owner)
	expiry := time.Now().Add(time.Hour)

	newInvite := func(t *testing.T) *models.Invite {
		t.Helper()
		invite, err := svc.CreateInvite(ctx, plan.UUID, expiry)
		require.NoError(t, err)
		return invite
	}

	t.Run("success", func(t *testing.T) {
		invite := newInvite(t)
		sub, err := svc.SubscribeUser(ctx, plan.UUID, member.UUID, invite.ShortID)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionJoined, sub.Status)
		assert.Equal(t, invite.UUID, sub.InviteUUID)

		subscribed, err := svc.IsSubscribed(ctx, plan.UUID, member.UUID)
		require.NoError(t, err)
		assert.True(t, subscribed)
	})

	t.Run("owner cannot redeem their own invite", func(t *testing.T) {
		invite := newInvite(t)
		_, err := svc.SubscribeUser(ctx, plan.UUID, owner.UUID, invite.ShortID)
		require.ErrorIs(t, err, ErrOwnerCannotSubscribe)
	})

	t.Run("unknown user", func(t *testing.T) {
		invite := newInvite(t)
		_, err := svc.SubscribeUser(ctx, plan.UUID, uuid.New(), invite.ShortID)
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unknown plan", func(t *testing.T) {
		invite := newInvite(t)
		_, err := svc.SubscribeUser(ctx, uuid.New(), member.UUID, invite.ShortID)
		require.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("unknown invite code", func(t *testing.T) {
		joiner := seedUser(t, store, "joiner1@example.com")
		_, err := svc.SubscribeUser(ctx, plan.UUID, joiner.UUID, "nosuch")
		require.ErrorIs(t, err, ErrInviteNotFound)
	})

	t.Run("invite is scoped to its plan", func(t *testing.T) {
		otherPlan := seedPlan(t, svc, owner)
		invite := newInvite(t)
		joiner := seedUser(t, store, "joiner2@example.com")
		_, err := svc.SubscribeUser(ctx, otherPlan.UUID, joiner.UUID, invite.ShortID)
		require.ErrorIs(t, err, ErrInviteNotFound)
	})

	t.Run("invite is single use", func(t *testing.T) {
		invite := newInvite(t)
		first := seedUser(t, store, "first@example.com")
		second := seedUser(t, store, "second@example.com")

		_, err := svc.SubscribeUser(ctx, plan.UUID, first.UUID, invite.ShortID)
		require.NoError(t, err)
		_, err = svc.SubscribeUser(ctx, plan.UUID, second.UUID, invite.ShortID)
		require.ErrorIs(t, err, ErrInviteAlreadyUsed)
	})

	t.Run("expired invite", func(t *testing.T) {
		expired, err := svc.CreateInvite(ctx, plan.UUID, time.Now().Add(-time.Minute))
		require.NoError(t, err)
		joiner := seedUser(t, store, "joiner3@example.com")
		_, err = svc.SubscribeUser(ctx, plan.UUID, joiner.UUID, expired.ShortID)
		require.ErrorIs(t, err, ErrInviteExpiredOrCancelled)
	})

	t.Run("cancelled invite", func(t *testing.T) {
		invite := newInvite(t)
		_, err := svc.CancelInvite(ctx, invite.UUID, owner.UUID)
		require.NoError(t, err)
		joiner := seedUser(t, store, "joiner4@example.com")
		_, err = svc.SubscribeUser(ctx, plan.UUID, joiner.UUID, invite.ShortID)
		require.ErrorIs(t, err, ErrInviteExpiredOrCancelled)
	})

	t.Run("already subscribed", func(t *testing.T) {
		invite := newInvite(t)
		_, err := svc.SubscribeUser(ctx, plan.UUID, member.UUID, invite.ShortID)
		require.ErrorIs(t, err, ErrAlreadySubscribed)
	})

	t.Run("already-used wins over expiry", func(t *testing.T) {
		// An invite that was redeemed and has since expired reports the
		// redemption, not the expiry.
		invite, err := svc.CreateInvite(ctx, plan.UUID, time.Now().Add(30*time.Millisecond))
		require.NoError(t, err)
		first := seedUser(t, store, "race1@example.com")
		_, err = svc.SubscribeUser(ctx, plan.UUID, first.UUID, invite.ShortID)
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)
		second := seedUser(t, store, "race2@example.com")
		_, err = svc.SubscribeUser(ctx, plan.UUID, second.UUID, invite.ShortID)
		require.ErrorIs(t, err, ErrInviteAlreadyUsed)
	})
}

func TestSubscribeUserConcurrentRedemption(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewPlanService(store)
	owner := seedUser(t, store, "owner@example.com")
	plan := seedPlan(t, svc, owner)

	invite, err := svc.CreateInvite(ctx, plan.UUID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		user := seedUser(t, store, "c"+uuid.NewString()+"@example.com")
		wg.Add(1)
		go func(i int, userUUID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = svc.SubscribeUser(ctx, plan.UUID, userUUID, invite.ShortID)
		}(i, user.UUID)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, ErrInviteAlreadyUsed)
		}
	}
	assert.Equal(t, 1, winners, "exactly one redemption may win")
}

func TestMembers(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	planSvc := NewPlanService(store)
	subSvc := NewSubscriptionService(store)
	owner := seedUser(t, store, "owner@example.com")
	plan := seedPlan(t, planSvc, owner)
	expiry := time.Now().Add(time.Hour)

	join := func(t *testing.T, email string) (*models.User, *models.Subscription) {
		t.Helper()
		user := seedUser(t, store, email)
		invite, err := planSvc.CreateInvite(ctx, plan.UUID, expiry)
		require.NoError(t, err)
		sub, err := planSvc.SubscribeUser(ctx, plan.UUID, user.UUID, invite.ShortID)
		require.NoError(t, err)
		return user, sub
	}

	alice, _ := join(t, "alice@example.com")
	bob, bobSub := join(t, "bob@example.com")
	_, carolSub := join(t, "carol@example.com")

	_, err := subSvc.Cancel(ctx, bobSub.UUID, bob.UUID)
	require.NoError(t, err)
	_, err = subSvc.MarkExpired(ctx, carolSub.UUID)
	require.NoError(t, err)

	members, err := planSvc.Members(ctx, plan.UUID)
	require.NoError(t, err)
	require.Len(t, members, 2, "terminal members drop out")
	assert.Equal(t, owner.UUID, members[0].UUID, "owner comes first")
	assert.Equal(t, alice.UUID, members[1].UUID)

	t.Run("cancelled member no longer counts as subscribed", func(t *testing.T) {
		subscribed, err := planSvc.IsSubscribed(ctx, plan.UUID, bob.UUID)
		require.NoError(t, err)
		assert.False(t, subscribed)
	})

	t.Run("owner always counts as subscribed", func(t *testing.T) {
		subscribed, err := planSvc.IsSubscribed(ctx, plan.UUID, owner.UUID)
		require.NoError(t, err)
		assert.True(t, subscribed)
	})
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	planSvc := NewPlanService(store)
	owner := seedUser(t, store, "owner@example.com")
	plan := seedPlan(t, planSvc, owner) // 999 cents, 10% fee, day 12
	expiry := time.Now().Add(time.Hour)

	now := time.Date(2026, time.March, 3, 15, 4, 5, 0, time.UTC)

	quote, err := planSvc.Quote(ctx, plan.UUID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, quote.MemberCount)
	assert.Equal(t, int64(999), quote.AmountPerMember)
	assert.Equal(t, int64(100), quote.FeeAmount)
	assert.Equal(t, time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC), quote.NextPaymentDate)

	for i, want := range []int64{500, 333} {
		user := seedUser(t, store, "m"+uuid.NewString()+"@example.com")
		invite, err := planSvc.CreateInvite(ctx, plan.UUID, expiry)
		require.NoError(t, err)
		_, err = planSvc.SubscribeUser(ctx, plan.UUID, user.UUID, invite.ShortID)
		require.NoError(t, err)

		quote, err = planSvc.Quote(ctx, plan.UUID, now)
		require.NoError(t, err)
		assert.Equal(t, i+2, quote.MemberCount)
		assert.Equal(t, want, quote.AmountPerMember)
	}
}

func TestPlansByOwner(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewPlanService(store)
	owner := seedUser(t, store, "owner@example.com")
	other := seedUser(t, store, "other@example.com")

	first := seedPlan(t, svc, owner)
	second := seedPlan(t, svc, owner)
	seedPlan(t, svc, other)

	plans, err := svc.PlansByOwner(ctx, owner.UUID)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, first.UUID, plans[0].UUID)
	assert.Equal(t, second.UUID, plans[1].UUID)
}
