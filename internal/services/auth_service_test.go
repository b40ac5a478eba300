package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planshare/planshare-backend/internal/config"
	"github.com/planshare/planshare-backend/internal/dto"
	"github.com/planshare/planshare-backend/internal/models"
	"github.com/planshare/planshare-backend/internal/repository/memstore"
)

func newAuthService(store *memstore.Store) *AuthService {
	return NewAuthService(store, &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newAuthService(store)

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Register(ctx, &dto.RegisterRequest{Email: "alice@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", resp.User.Email)
		assert.Equal(t, "user", resp.User.Role)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		// The access token carries the user's uuid as subject.
		token, err := jwt.Parse(resp.AccessToken, func(t *jwt.Token) (any, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		sub, err := token.Claims.GetSubject()
		require.NoError(t, err)
		assert.Equal(t, resp.User.UUID.String(), sub)

		// The stored password is a bcrypt hash, never the plaintext.
		user, err := store.Users().FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.NotEqual(t, "password123", user.Password)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "alice@example.com", Password: "password123"})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "bob@example.com", Password: "short"})
		require.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newAuthService(store)

	_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "password123"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefreshRotation(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newAuthService(store)

	registered, err := svc.Register(ctx, &dto.RegisterRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: registered.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	t.Run("spent token is rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: registered.RefreshToken})
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: "not-a-token"})
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("logout revokes", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, &dto.LogoutRequest{RefreshToken: refreshed.RefreshToken}))
		_, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: refreshed.RefreshToken})
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newAuthService(store)

	resp, err := svc.Register(ctx, &dto.RegisterRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		err := svc.DeleteAccount(ctx, resp.User.UUID, "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, svc.DeleteAccount(ctx, resp.User.UUID, "password123"))

		user, err := store.Users().FindByUUID(ctx, resp.User.UUID)
		require.NoError(t, err)
		assert.Nil(t, user)

		_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("already deleted", func(t *testing.T) {
		err := svc.DeleteAccount(ctx, resp.User.UUID, "password123")
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestDeleteAccountCancelsMemberships(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	authSvc := newAuthService(store)
	planSvc := NewPlanService(store)
	owner := seedUser(t, store, "owner@example.com")
	plan := seedPlan(t, planSvc, owner)

	member, err := authSvc.Register(ctx, &dto.RegisterRequest{Email: "member@example.com", Password: "password123"})
	require.NoError(t, err)
	invite, err := planSvc.CreateInvite(ctx, plan.UUID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	sub, err := planSvc.SubscribeUser(ctx, plan.UUID, member.User.UUID, invite.ShortID)
	require.NoError(t, err)

	require.NoError(t, authSvc.DeleteAccount(ctx, member.User.UUID, "password123"))

	// The plan must stay fully queryable for everyone left on it.
	members, err := planSvc.Members(ctx, plan.UUID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, owner.UUID, members[0].UUID)

	quote, err := planSvc.Quote(ctx, plan.UUID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, quote.MemberCount)

	stored, err := store.Subscriptions().GetByUUID(ctx, sub.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCancelled, stored.Status)
}

func TestDeleteAccountRefusedWhileOwningPlans(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	authSvc := newAuthService(store)
	planSvc := NewPlanService(store)

	resp, err := authSvc.Register(ctx, &dto.RegisterRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)
	plan, err := planSvc.CreatePlan(ctx, resp.User.UUID, "netflix", 999, 0, 12)
	require.NoError(t, err)

	err = authSvc.DeleteAccount(ctx, resp.User.UUID, "password123")
	require.ErrorIs(t, err, ErrOwnsPlans)

	// Refusal must leave the account and plan untouched.
	user, err := store.Users().FindByUUID(ctx, resp.User.UUID)
	require.NoError(t, err)
	require.NotNil(t, user)
	_, err = planSvc.GetPlan(ctx, plan.UUID)
	require.NoError(t, err)
}
