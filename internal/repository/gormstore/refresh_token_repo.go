package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planshare/planshare-backend/internal/models"
)

type refreshTokenRepo struct {
	db *gorm.DB
}

func (r *refreshTokenRepo) Insert(ctx context.Context, token *models.RefreshToken) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *refreshTokenRepo) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		First(&token, "token_hash = ? AND revoked = false", tokenHash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	return translate(r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error)
}

func (r *refreshTokenRepo) DeleteByUser(ctx context.Context, userUUID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Delete(&models.RefreshToken{}, "user_uuid = ?", userUUID).Error)
}
