package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planshare/planshare-backend/internal/models"
)

type planRepo struct {
	db *gorm.DB
}

func (r *planRepo) Insert(ctx context.Context, plan *models.Plan) error {
	return translate(r.db.WithContext(ctx).Create(plan).Error)
}

func (r *planRepo) Update(ctx context.Context, plan *models.Plan) error {
	return translate(r.db.WithContext(ctx).Save(plan).Error)
}

func (r *planRepo) FindByUUID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).First(&plan, "uuid = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &plan, nil
}

func (r *planRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).First(&plan, "uuid = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &plan, nil
}

func (r *planRepo) FindByOwner(ctx context.Context, ownerUUID uuid.UUID) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.WithContext(ctx).
		Where("owner_uuid = ?", ownerUUID).
		Order("created_at ASC").
		Find(&plans).Error
	if err != nil {
		return nil, translate(err)
	}
	return plans, nil
}
