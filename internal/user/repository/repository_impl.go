package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/baselinedocs/baselinedocs/internal/user/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *repository) FindByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	return r.findOne(ctx, "external_id = ?", externalID)
}

func (r *repository) LinkTenant(ctx context.Context, id snowflake.ID, tenantID snowflake.ID, fullName string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET tenant_id = ?, is_admin = ?, full_name = ?, updated_at = ?
		 WHERE id = ? AND (tenant_id IS NULL OR tenant_id = ?)`,
		tenantID,
		true,
		fullName,
		time.Now().UTC(),
		id,
		tenantID,
	).Error
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
