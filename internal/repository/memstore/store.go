// Package memstore is the in-memory repository.Store used by tests. It
// mirrors the storage behavior the engine depends on: the unique
// indexes on invites.short_id and subscriptions.invite_uuid, insertion
// order on list queries, and serialized Atomically blocks.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planshare/planshare-backend/internal/models"
	"github.com/planshare/planshare-backend/internal/repository"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users         map[uuid.UUID]models.User
	userOrder     []uuid.UUID
	plans         map[uuid.UUID]models.Plan
	planOrder     []uuid.UUID
	invites       map[uuid.UUID]models.Invite
	inviteOrder   []uuid.UUID
	subs          map[uuid.UUID]models.Subscription
	subOrder      []uuid.UUID
	refreshTokens map[string]models.RefreshToken
}

func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]models.User),
		plans:         make(map[uuid.UUID]models.Plan),
		invites:       make(map[uuid.UUID]models.Invite),
		subs:          make(map[uuid.UUID]models.Subscription),
		refreshTokens: make(map[string]models.RefreshToken),
	}
}

func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

func (s *Store) Plans() repository.PlanRepository { return &planRepo{s: s} }

func (s *Store) Invites() repository.InviteRepository { return &inviteRepo{s: s} }

func (s *Store) Subscriptions() repository.SubscriptionRepository { return &subscriptionRepo{s: s} }

func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return &refreshTokenRepo{s: s} }

// Atomically serializes fn executions against each other, standing in
// for the database transaction. There is no rollback; tests that
// depend on atomicity depend on the serialization, not on undo.
func (s *Store) Atomically(ctx context.Context, fn func(repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

type userRepo struct {
	s *Store
}

func (r *userRepo) Insert(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateKey
		}
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	r.s.users[user.UUID] = *user
	r.s.userOrder = append(r.s.userOrder, user.UUID)
	return nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.UUID]; !ok {
		return repository.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.s.users[user.UUID] = *user
	return nil
}

func (r *userRepo) FindByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *userRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.userOrder {
		if u, ok := r.s.users[id]; ok && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	for i, uid := range r.s.userOrder {
		if uid == id {
			r.s.userOrder = append(r.s.userOrder[:i], r.s.userOrder[i+1:]...)
			break
		}
	}
	return nil
}

type planRepo struct {
	s *Store
}

func (r *planRepo) Insert(ctx context.Context, plan *models.Plan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&plan.CreatedAt, &plan.UpdatedAt)
	r.s.plans[plan.UUID] = *plan
	r.s.planOrder = append(r.s.planOrder, plan.UUID)
	return nil
}

func (r *planRepo) Update(ctx context.Context, plan *models.Plan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.plans[plan.UUID]; !ok {
		return repository.ErrNotFound
	}
	plan.UpdatedAt = time.Now()
	r.s.plans[plan.UUID] = *plan
	return nil
}

func (r *planRepo) FindByUUID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.plans[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *planRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.plans[id]; ok {
		return &p, nil
	}
	return nil, repository.ErrNotFound
}

func (r *planRepo) FindByOwner(ctx context.Context, ownerUUID uuid.UUID) ([]models.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var plans []models.Plan
	for _, id := range r.s.planOrder {
		if p, ok := r.s.plans[id]; ok && p.OwnerUUID == ownerUUID {
			plans = append(plans, p)
		}
	}
	return plans, nil
}

type inviteRepo struct {
	s *Store
}

func (r *inviteRepo) Insert(ctx context.Context, invite *models.Invite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invites {
		if inv.ShortID == invite.ShortID {
			return repository.ErrDuplicateKey
		}
	}
	stamp(&invite.CreatedAt, &invite.UpdatedAt)
	r.s.invites[invite.UUID] = *invite
	r.s.inviteOrder = append(r.s.inviteOrder, invite.UUID)
	return nil
}

func (r *inviteRepo) Update(ctx context.Context, invite *models.Invite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invites[invite.UUID]; !ok {
		return repository.ErrNotFound
	}
	invite.UpdatedAt = time.Now()
	r.s.invites[invite.UUID] = *invite
	return nil
}

func (r *inviteRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if inv, ok := r.s.invites[id]; ok {
		return &inv, nil
	}
	return nil, repository.ErrNotFound
}

func (r *inviteRepo) FindByShortID(ctx context.Context, planUUID uuid.UUID, shortID string) (*models.Invite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.inviteOrder {
		if inv, ok := r.s.invites[id]; ok && inv.PlanUUID == planUUID && inv.ShortID == shortID {
			return &inv, nil
		}
	}
	return nil, nil
}

func (r *inviteRepo) FindByPlan(ctx context.Context, planUUID uuid.UUID) ([]models.Invite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var invites []models.Invite
	for _, id := range r.s.inviteOrder {
		if inv, ok := r.s.invites[id]; ok && inv.PlanUUID == planUUID {
			invites = append(invites, inv)
		}
	}
	return invites, nil
}

func (r *inviteRepo) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, inv := range r.s.invites {
		if inv.ShortID == shortID {
			return true, nil
		}
	}
	return false, nil
}

type subscriptionRepo struct {
	s *Store
}

func (r *subscriptionRepo) Insert(ctx context.Context, sub *models.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.subs {
		if existing.InviteUUID == sub.InviteUUID {
			return repository.ErrDuplicateKey
		}
	}
	stamp(&sub.CreatedAt, &sub.UpdatedAt)
	r.s.subs[sub.UUID] = *sub
	r.s.subOrder = append(r.s.subOrder, sub.UUID)
	return nil
}

func (r *subscriptionRepo) Update(ctx context.Context, sub *models.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subs[sub.UUID]; !ok {
		return repository.ErrNotFound
	}
	sub.UpdatedAt = time.Now()
	r.s.subs[sub.UUID] = *sub
	return nil
}

func (r *subscriptionRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if sub, ok := r.s.subs[id]; ok {
		return &sub, nil
	}
	return nil, repository.ErrNotFound
}

func (r *subscriptionRepo) FindByPlan(ctx context.Context, planUUID uuid.UUID) ([]models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var subs []models.Subscription
	for _, id := range r.s.subOrder {
		if sub, ok := r.s.subs[id]; ok && sub.PlanUUID == planUUID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (r *subscriptionRepo) FindByUser(ctx context.Context, userUUID uuid.UUID) ([]models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var subs []models.Subscription
	for _, id := range r.s.subOrder {
		if sub, ok := r.s.subs[id]; ok && sub.UserUUID == userUUID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (r *subscriptionRepo) FindJoined(ctx context.Context, userUUID, planUUID uuid.UUID) (*models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.subOrder {
		sub, ok := r.s.subs[id]
		if ok && sub.UserUUID == userUUID && sub.PlanUUID == planUUID && sub.Status == models.SubscriptionJoined {
			return &sub, nil
		}
	}
	return nil, nil
}

func (r *subscriptionRepo) FindByInvite(ctx context.Context, inviteUUID uuid.UUID) (*models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.subOrder {
		if sub, ok := r.s.subs[id]; ok && sub.InviteUUID == inviteUUID {
			return &sub, nil
		}
	}
	return nil, nil
}

type refreshTokenRepo struct {
	s *Store
}

func (r *refreshTokenRepo) Insert(ctx context.Context, token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.refreshTokens[token.TokenHash]; ok {
		return repository.ErrDuplicateKey
	}
	token.CreatedAt = time.Now()
	r.s.refreshTokens[token.TokenHash] = *token
	return nil
}

func (r *refreshTokenRepo) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if t, ok := r.s.refreshTokens[tokenHash]; ok && !t.Revoked {
		return &t, nil
	}
	return nil, nil
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.refreshTokens[tokenHash]; ok {
		t.Revoked = true
		r.s.refreshTokens[tokenHash] = t
	}
	return nil
}

func (r *refreshTokenRepo) DeleteByUser(ctx context.Context, userUUID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for hash, t := range r.s.refreshTokens {
		if t.UserUUID == userUUID {
			delete(r.s.refreshTokens, hash)
		}
	}
	return nil
}

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
