package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planshare/planshare-backend/internal/models"
	"github.com/planshare/planshare-backend/internal/repository/memstore"
)

type subFixture struct {
	store   *memstore.Store
	planSvc *PlanService
	subSvc  *SubscriptionService
	owner   *models.User
	member  *models.User
	plan    *models.Plan
	sub     *models.Subscription
}

func newSubFixture(t *testing.T) *subFixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	planSvc := NewPlanService(store)
	owner := seedUser(t, store, "owner@example.com")
	member := seedUser(t, store, "member@example.com")
	plan := seedPlan(t, planSvc, owner)

	invite, err := planSvc.CreateInvite(ctx, plan.UUID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	sub, err := planSvc.SubscribeUser(ctx, plan.UUID, member.UUID, invite.ShortID)
	require.NoError(t, err)

	return &subFixture{
		store:   store,
		planSvc: planSvc,
		subSvc:  NewSubscriptionService(store),
		owner:   owner,
		member:  member,
		plan:    plan,
		sub:     sub,
	}
}

func TestCancelSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("subscriber cancels", func(t *testing.T) {
		f := newSubFixture(t)
		cancelled, err := f.subSvc.Cancel(ctx, f.sub.UUID, f.member.UUID)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionCancelled, cancelled.Status)

		stored, err := f.subSvc.Get(ctx, f.sub.UUID)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionCancelled, stored.Status)
	})

	t.Run("plan owner cancels", func(t *testing.T) {
		f := newSubFixture(t)
		cancelled, err := f.subSvc.Cancel(ctx, f.sub.UUID, f.owner.UUID)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionCancelled, cancelled.Status)
	})

	t.Run("stranger rejected", func(t *testing.T) {
		f := newSubFixture(t)
		stranger := seedUser(t, f.store, "stranger@example.com")
		_, err := f.subSvc.Cancel(ctx, f.sub.UUID, stranger.UUID)
		require.ErrorIs(t, err, ErrNotSubscriptionParty)
	})

	t.Run("cancelling twice succeeds quietly", func(t *testing.T) {
		f := newSubFixture(t)
		_, err := f.subSvc.Cancel(ctx, f.sub.UUID, f.member.UUID)
		require.NoError(t, err)
		again, err := f.subSvc.Cancel(ctx, f.sub.UUID, f.member.UUID)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionCancelled, again.Status)
	})

	t.Run("expired subscription cannot be cancelled", func(t *testing.T) {
		f := newSubFixture(t)
		_, err := f.subSvc.MarkExpired(ctx, f.sub.UUID)
		require.NoError(t, err)
		_, err = f.subSvc.Cancel(ctx, f.sub.UUID, f.member.UUID)
		require.ErrorIs(t, err, ErrSubscriptionNotActive)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		f := newSubFixture(t)
		_, err := f.subSvc.Cancel(ctx, uuid.New(), f.member.UUID)
		require.ErrorIs(t, err, ErrSubscriptionNotFound)
	})
}

func TestMarkExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("joined expires", func(t *testing.T) {
		f := newSubFixture(t)
		expired, err := f.subSvc.MarkExpired(ctx, f.sub.UUID)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionExpired, expired.Status)
	})

	t.Run("repeated signal is acknowledged", func(t *testing.T) {
		f := newSubFixture(t)
		_, err := f.subSvc.MarkExpired(ctx, f.sub.UUID)
		require.NoError(t, err)
		again, err := f.subSvc.MarkExpired(ctx, f.sub.UUID)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionExpired, again.Status)
	})

	t.Run("cancelled subscription stays cancelled", func(t *testing.T) {
		f := newSubFixture(t)
		_, err := f.subSvc.Cancel(ctx, f.sub.UUID, f.member.UUID)
		require.NoError(t, err)
		_, err = f.subSvc.MarkExpired(ctx, f.sub.UUID)
		require.ErrorIs(t, err, models.ErrStatusTerminal)

		stored, err := f.subSvc.Get(ctx, f.sub.UUID)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionCancelled, stored.Status)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		f := newSubFixture(t)
		_, err := f.subSvc.MarkExpired(ctx, uuid.New())
		require.ErrorIs(t, err, ErrSubscriptionNotFound)
	})
}

func TestSubscriptionAccessors(t *testing.T) {
	ctx := context.Background()
	f := newSubFixture(t)

	plan, err := f.subSvc.Plan(ctx, f.sub)
	require.NoError(t, err)
	assert.Equal(t, f.plan.UUID, plan.UUID)

	user, err := f.subSvc.User(ctx, f.sub)
	require.NoError(t, err)
	assert.Equal(t, f.member.UUID, user.UUID)

	invite, err := f.subSvc.Invite(ctx, f.sub)
	require.NoError(t, err)
	assert.Equal(t, f.sub.InviteUUID, invite.UUID)

	subs, err := f.subSvc.ByUser(ctx, f.member.UUID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, f.sub.UUID, subs[0].UUID)

	t.Run("dangling user surfaces as storage error", func(t *testing.T) {
		require.NoError(t, f.store.Users().Delete(ctx, f.member.UUID))
		_, err := f.subSvc.User(ctx, f.sub)
		require.Error(t, err)
	})
}
