// Package gormstore implements repository.Store on GORM/Postgres.
package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/planshare/planshare-backend/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() repository.UserRepository { return &userRepo{db: s.db} }

func (s *Store) Plans() repository.PlanRepository { return &planRepo{db: s.db} }

func (s *Store) Invites() repository.InviteRepository { return &inviteRepo{db: s.db} }

func (s *Store) Subscriptions() repository.SubscriptionRepository { return &subscriptionRepo{db: s.db} }

func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return &refreshTokenRepo{db: s.db} }

// Atomically runs fn inside a database transaction. Unique-constraint
// races inside fn surface as repository.ErrDuplicateKey after the
// rollback, so callers can translate them into business failures.
func (s *Store) Atomically(ctx context.Context, fn func(repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// translate maps GORM errors to the repository sentinels. Requires the
// connection to be opened with TranslateError so driver-specific
// unique-violation codes arrive as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicateKey
	default:
		return err
	}
}
