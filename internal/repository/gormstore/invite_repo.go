package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planshare/planshare-backend/internal/models"
)

type inviteRepo struct {
	db *gorm.DB
}

func (r *inviteRepo) Insert(ctx context.Context, invite *models.Invite) error {
	return translate(r.db.WithContext(ctx).Create(invite).Error)
}

func (r *inviteRepo) Update(ctx context.Context, invite *models.Invite) error {
	return translate(r.db.WithContext(ctx).Save(invite).Error)
}

func (r *inviteRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).First(&invite, "uuid = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &invite, nil
}

func (r *inviteRepo) FindByShortID(ctx context.Context, planUUID uuid.UUID, shortID string) (*models.Invite, error) {
	var invite models.Invite
	err := r.db.WithContext(ctx).
		First(&invite, "plan_uuid = ? AND short_id = ?", planUUID, shortID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &invite, nil
}

func (r *inviteRepo) FindByPlan(ctx context.Context, planUUID uuid.UUID) ([]models.Invite, error) {
	var invites []models.Invite
	err := r.db.WithContext(ctx).
		Where("plan_uuid = ?", planUUID).
		Order("created_at ASC").
		Find(&invites).Error
	if err != nil {
		return nil, translate(err)
	}
	return invites, nil
}

func (r *inviteRepo) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("short_id = ?", shortID).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}
