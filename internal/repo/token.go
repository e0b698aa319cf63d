package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/courses/internal/models"
)

// TokenStore persists issued tokens. A token is valid while it is neither
// expired nor revoked.
type TokenStore interface {
	Save(ctx context.Context, token *models.Token) error
	FindAllValidTokensForUser(ctx context.Context, userID uuid.UUID) ([]models.Token, error)
	FindByRawToken(ctx context.Context, raw string) (*models.Token, error)
	MarkRevoked(ctx context.Context, token *models.Token) error
	MarkExpired(ctx context.Context, token *models.Token) error
	// RevokeIfValid flags the token revoked only if it is still valid and
	// reports whether this call did it.
	RevokeIfValid(ctx context.Context, token *models.Token) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type TokenRepo struct {
	DB *gorm.DB
}

var _ TokenStore = (*TokenRepo)(nil)

func NewTokenRepo(db *gorm.DB) *TokenRepo {
	return &TokenRepo{DB: db}
}

func (r *TokenRepo) Save(ctx context.Context, token *models.Token) error {
	if token == nil || token.Token == "" || token.UserID == uuid.Nil {
		return ErrInvalidEntity
	}
	return translate(r.DB.WithContext(ctx).Create(token).Error)
}

func (r *TokenRepo) FindAllValidTokensForUser(ctx context.Context, userID uuid.UUID) ([]models.Token, error) {
	var items []models.Token
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND expired = ? AND revoked = ?", userID, false, false).
		Order("issued_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *TokenRepo) FindByRawToken(ctx context.Context, raw string) (*models.Token, error) {
	var token models.Token
	if err := r.DB.WithContext(ctx).Where("token = ?", raw).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *TokenRepo) MarkRevoked(ctx context.Context, token *models.Token) error {
	if err := r.setFlag(ctx, token.ID, "revoked"); err != nil {
		return err
	}
	token.Revoked = true
	return nil
}

func (r *TokenRepo) MarkExpired(ctx context.Context, token *models.Token) error {
	if err := r.setFlag(ctx, token.ID, "expired"); err != nil {
		return err
	}
	token.Expired = true
	return nil
}

func (r *TokenRepo) setFlag(ctx context.Context, id uuid.UUID, column string) error {
	return r.DB.WithContext(ctx).
		Model(&models.Token{}).
		Where("id = ?", id).
		Update(column, true).Error
}

func (r *TokenRepo) RevokeIfValid(ctx context.Context, token *models.Token) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Token{}).
		Where("id = ? AND revoked = ? AND expired = ?", token.ID, false, false).
		Update("revoked", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	token.Revoked = true
	return true, nil
}

func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Token{}).
		Where("user_id = ? AND revoked = ? AND expired = ?", userID, false, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}
