package repository

import (
	"context"
	"errors"
	"time"

	"github.com/baselinedocs/baselinedocs/internal/tenant/domain"
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

func (r *repository) CreateTenant(ctx context.Context, tenant domain.Tenant) error {
	return r.db.WithContext(ctx).Create(&tenant).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) FindBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).
		First(&tenant, "subdomain = ? AND released_at IS NULL", subdomain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) SubdomainInUse(ctx context.Context, subdomain string, graceCutoff time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenants
		 WHERE subdomain = ?
		   AND (released_at IS NULL OR released_at > ?)`,
		subdomain,
		graceCutoff,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) SetBillingCustomerRef(ctx context.Context, id snowflake.ID, ref string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE tenants SET billing_customer_ref = ?, updated_at = ? WHERE id = ?`,
		ref,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repository) CreateTrialBilling(ctx context.Context, billing domain.TrialBilling) error {
	return r.db.WithContext(ctx).Create(&billing).Error
}

func (r *repository) Release(ctx context.Context, id snowflake.ID, releasedAt time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE tenants SET released_at = ?, updated_at = ? WHERE id = ? AND released_at IS NULL`,
		releasedAt,
		releasedAt,
		id,
	).Error
}
