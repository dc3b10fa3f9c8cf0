package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"gorm.io/gorm"
)

type passwordResetTokenRepository struct {
	db *gorm.DB
}

// NewPasswordResetTokenRepository creates a new password reset token repository
func NewPasswordResetTokenRepository(db *gorm.DB) domainRepo.PasswordResetTokenRepository {
	return &passwordResetTokenRepository{db: db}
}

func (r *passwordResetTokenRepository) Create(ctx context.Context, token *entity.PasswordResetToken) error {
	return conn(ctx, r.db).Create(token).Error
}

func (r *passwordResetTokenRepository) GetByHash(ctx context.Context, hash string) (*entity.PasswordResetToken, error) {
	var token entity.PasswordResetToken
	err := conn(ctx, r.db).Where("token_hash = ?", hash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &token, err
}

func (r *passwordResetTokenRepository) MarkAsUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return conn(ctx, r.db).Model(&entity.PasswordResetToken{}).
		Where("id = ?", id).
		Update("used_at", at).Error
}

func (r *passwordResetTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return conn(ctx, r.db).Where("user_id = ?", userID).Delete(&entity.PasswordResetToken{}).Error
}

func (r *passwordResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	return conn(ctx, r.db).Where("expires_at < ?", now).Delete(&entity.PasswordResetToken{}).Error
}
