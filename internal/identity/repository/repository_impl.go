package repository

import (
	"context"
	"errors"

	"github.com/baselinedocs/baselinedocs/internal/identity/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) domain.RegistrationRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.RegistrationRepository {
	return &repository{db: tx}
}

func (r *repository) Save(ctx context.Context, reg *domain.PendingRegistration) error {
	return r.db.WithContext(ctx).Save(reg).Error
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *repository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.PendingRegistration, error) {
	return r.findOne(ctx, "token_hash = ?", tokenHash)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*domain.PendingRegistration, error) {
	var reg domain.PendingRegistration
	err := r.db.WithContext(ctx).First(&reg, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}
