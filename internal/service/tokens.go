package service

import (
	"deogratias/contact-api/internal/model"
	"deogratias/contact-api/pkg/security"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"gorm.io/gorm"
)

const linkTokenSize = 16

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthTokenService backs the link-based admin login: one short-lived
// token per email, burned on first use.
type AuthTokenService struct {
	DB  *gorm.DB
	TTL time.Duration
}

func NewAuthTokenService(db *gorm.DB) *AuthTokenService {
	return &AuthTokenService{
		DB:  db,
		TTL: time.Duration(viper.GetInt("auth.link_token_ttl_minutes")) * time.Minute,
	}
}

// Create replaces any pending token for the email with a fresh one.
func (s *AuthTokenService) Create(email string) (string, error) {
	token, err := security.GenerateToken(linkTokenSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate auth token, %w", err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&model.AuthToken{}).Error; err != nil {
			return err
		}

		return tx.Create(&model.AuthToken{
			Email:     email,
			Token:     token,
			ExpiresAt: time.Now().Add(s.TTL),
		}).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to store auth token, %w", err)
	}

	return token, nil
}

// Consume resolves a token to its email and deletes it. The delete
// is conditional on the token still existing unexpired, so a token
// can't be redeemed twice.
func (s *AuthTokenService) Consume(token string) (string, error) {
	var record model.AuthToken

	now := time.Now()

	err := s.DB.
		Where("token = ? AND expires_at > ?", token, now).
		First(&record).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidToken
		}

		return "", fmt.Errorf("failed to look up auth token, %w", err)
	}

	res := s.DB.Where("token = ? AND expires_at > ?", token, now).Delete(&model.AuthToken{})
	if res.Error != nil {
		return "", fmt.Errorf("failed to consume auth token, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// A concurrent redeem got there first
		return "", ErrInvalidToken
	}

	return record.Email, nil
}
