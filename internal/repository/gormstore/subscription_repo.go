package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planshare/planshare-backend/internal/models"
)

type subscriptionRepo struct {
	db *gorm.DB
}

func (r *subscriptionRepo) Insert(ctx context.Context, sub *models.Subscription) error {
	return translate(r.db.WithContext(ctx).Create(sub).Error)
}

func (r *subscriptionRepo) Update(ctx context.Context, sub *models.Subscription) error {
	return translate(r.db.WithContext(ctx).Save(sub).Error)
}

func (r *subscriptionRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).First(&sub, "uuid = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *subscriptionRepo) FindByPlan(ctx context.Context, planUUID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("plan_uuid = ?", planUUID).
		Order("created_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, translate(err)
	}
	return subs, nil
}

func (r *subscriptionRepo) FindByUser(ctx context.Context, userUUID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_uuid = ?", userUUID).
		Order("created_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, translate(err)
	}
	return subs, nil
}

func (r *subscriptionRepo) FindJoined(ctx context.Context, userUUID, planUUID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		First(&sub, "user_uuid = ? AND plan_uuid = ? AND status = ?",
			userUUID, planUUID, models.SubscriptionJoined).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *subscriptionRepo) FindByInvite(ctx context.Context, inviteUUID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).First(&sub, "invite_uuid = ?", inviteUUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}
