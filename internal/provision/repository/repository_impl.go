package repository

import (
	"context"

	"github.com/baselinedocs/baselinedocs/internal/provision/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewFailureRepository(db *gorm.DB) domain.FailureRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.FailureRepository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, failure *domain.ProvisioningFailure) error {
	return r.db.WithContext(ctx).Create(failure).Error
}

func (r *repository) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.ProvisioningFailure, error) {
	var failures []domain.ProvisioningFailure
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&failures).Error
	if err != nil {
		return nil, err
	}
	return failures, nil
}
