package repositories

import (
	"context"
	"time"

	"tapledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// accessTokenRepository implements AccessTokenRepository interface
type accessTokenRepository struct {
	db *gorm.DB
}

// NewAccessTokenRepository creates a new access token repository
func NewAccessTokenRepository(db *gorm.DB) AccessTokenRepository {
	return &accessTokenRepository{db: db}
}

// Create creates a new access token
func (r *accessTokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetByTokenHash gets an access token by its hash with the owning user,
// roles and permissions preloaded
func (r *accessTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.AccessToken, error) {
	var token models.AccessToken
	err := r.db.WithContext(ctx).
		Preload("User.Roles.Permissions").
		Where("token_hash = ?", tokenHash).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// TouchLastUsed records token usage
func (r *accessTokenRepository) TouchLastUsed(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.AccessToken{}).
		Where("id = ?", id).
		Update("last_used_at", &now).Error
}

// DeleteByTokenHash deletes a token by its hash; no error when absent
func (r *accessTokenRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		Delete(&models.AccessToken{}).Error
}

// DeleteStale deletes tokens unused for the given number of days (cleanup job)
func (r *accessTokenRepository) DeleteStale(ctx context.Context, unusedForDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -unusedForDays)
	result := r.db.WithContext(ctx).
		Where("(last_used_at IS NULL AND created_at < ?) OR last_used_at < ?", cutoff, cutoff).
		Delete(&models.AccessToken{})
	return result.RowsAffected, result.Error
}
