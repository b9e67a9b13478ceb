package domain

import (
	"context"

	"gorm.io/gorm"
)

type RegistrationRepository interface {
	WithTx(tx *gorm.DB) RegistrationRepository
	Save(ctx context.Context, reg *PendingRegistration) error
	FindByEmail(ctx context.Context, email string) (*PendingRegistration, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*PendingRegistration, error)
}
