package service

import (
	"deogratias/contact-api/internal/cache"
	"deogratias/contact-api/internal/model"
	"deogratias/contact-api/pkg/security"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCode     = errors.New("invalid or expired code")
	ErrTooManyAttempts = errors.New("too many attempts, please request a new code")
)

// CodeService issues and verifies the one-time 6-digit login codes.
type CodeService struct {
	DB          *gorm.DB
	Cache       *cache.Store
	TTL         time.Duration
	MaxAttempts int
}

func NewCodeService(db *gorm.DB, store *cache.Store) *CodeService {
	return &CodeService{
		DB:          db,
		Cache:       store,
		TTL:         time.Duration(viper.GetInt("auth.code_ttl_minutes")) * time.Minute,
		MaxAttempts: viper.GetInt("auth.max_attempts"),
	}
}

// Issue creates a fresh code for the email. Any previous codes for
// the same address are deleted first, so at most one code is ever
// active per email.
func (s *CodeService) Issue(email string) (string, error) {
	code, err := security.GenerateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code, %w", err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&model.VerificationCode{}).Error; err != nil {
			return err
		}

		return tx.Create(&model.VerificationCode{
			Email:     email,
			Code:      code,
			ExpiresAt: time.Now().Add(s.TTL),
		}).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to store verification code, %w", err)
	}

	s.Cache.Set(codeKey(email, code), struct{}{}, s.TTL)

	return code, nil
}

// Verify consumes a submitted code. Consumption is a single
// conditional update checked by rows-affected, so two concurrent
// submissions of the same code can never both pass. Returns
// ErrInvalidCode or ErrTooManyAttempts on failure.
func (s *CodeService) Verify(email, code string) error {
	if code == "" {
		return ErrInvalidCode
	}

	// A cache hit proves this exact code was issued and is fresh, so a
	// failed consume below is a replay rather than a wrong guess and
	// must not eat into the attempt budget. The store stays
	// authoritative for single use either way.
	key := codeKey(email, code)
	_, issued := s.Cache.Get(key)
	if issued {
		s.Cache.Delete(key)
	}

	now := time.Now()

	res := s.DB.Model(&model.VerificationCode{}).
		Where("email = ? AND code = ? AND used = ? AND expires_at > ? AND attempts < ?",
			email, code, false, now, s.MaxAttempts).
		Update("used", true)
	if res.Error != nil {
		return fmt.Errorf("failed to consume verification code, %w", res.Error)
	}

	if res.RowsAffected == 1 {
		return nil
	}

	// The code didn't consume. Find out whether the attempt budget is
	// exhausted or the submission was simply wrong.
	var vc model.VerificationCode

	err := s.DB.
		Where("email = ? AND code = ? AND used = ? AND expires_at > ?", email, code, false, now).
		First(&vc).
		Error
	if err == nil && vc.Attempts >= s.MaxAttempts {
		return ErrTooManyAttempts
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up verification code, %w", err)
	}

	// Wrong code: count the attempt against any live code for the
	// email. Best effort, a failure here must not mask the result.
	if !issued {
		bumpErr := s.DB.Model(&model.VerificationCode{}).
			Where("email = ? AND expires_at > ?", email, now).
			UpdateColumn("attempts", gorm.Expr("attempts + 1")).
			Error
		if bumpErr != nil {
			zap.L().Error("Failed to increment attempt count", zap.Error(bumpErr))
		}
	}

	return ErrInvalidCode
}

func codeKey(email, code string) string {
	return email + ":" + code
}
