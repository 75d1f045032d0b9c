package service

import (
	"deogratias/contact-api/internal/model"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CredentialCleanup defines a function used to periodically delete
// verification codes and login-link tokens that expired. Sessions are
// swept opportunistically on login instead, see
// SessionService.CleanExpired.
func CredentialCleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Credential cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			now := time.Now()

			err := db.
				Where("expires_at < ?", now).
				Delete(&model.VerificationCode{}).
				Error
			if err != nil {
				zap.L().Error("Failed to cleanup expired verification codes", zap.Error(err))
			}

			err = db.
				Where("expires_at < ?", now).
				Delete(&model.AuthToken{}).
				Error
			if err != nil {
				zap.L().Error("Failed to cleanup expired auth tokens", zap.Error(err))
			}
		}
	}()
}
