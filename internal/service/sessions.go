package service

import (
	"deogratias/contact-api/internal/cache"
	"deogratias/contact-api/internal/model"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionUser is the cached view of a logged-in user.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// SessionService issues and verifies the opaque session tokens used
// by the admin panel after a code login.
type SessionService struct {
	DB    *gorm.DB
	Cache *cache.Store
	TTL   time.Duration

	// SingleSession makes every login destroy the user's previous
	// sessions. Kept as an explicit switch because both behaviors
	// are reasonable, not as a side effect of a delete query.
	SingleSession bool
}

func NewSessionService(db *gorm.DB, store *cache.Store) *SessionService {
	return &SessionService{
		DB:            db,
		Cache:         store,
		TTL:           time.Duration(viper.GetInt("auth.session_ttl_days")) * 24 * time.Hour,
		SingleSession: viper.GetBool("auth.single_session"),
	}
}

// Create opens a session for the user. Expiry is fixed at creation,
// verifying never extends it.
func (s *SessionService) Create(user *model.User, userAgent string) (string, error) {
	sessionID := uuid.NewString()
	expiresAt := time.Now().Add(s.TTL)

	var replaced []string

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if s.SingleSession {
			// Collect the ids first, the cache entries have to go too
			// or Verify keeps trusting them for their remaining TTL
			err := tx.Model(&model.Session{}).
				Where("user_id = ?", user.ID).
				Pluck("id", &replaced).
				Error
			if err != nil {
				return err
			}

			if err := tx.Where("user_id = ?", user.ID).Delete(&model.Session{}).Error; err != nil {
				return err
			}
		}

		return tx.Create(&model.Session{
			ID:        sessionID,
			UserID:    user.ID,
			UserAgent: userAgent,
			ExpiresAt: expiresAt,
		}).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session, %w", err)
	}

	for _, id := range replaced {
		s.Cache.Delete(id)
	}

	s.Cache.Set(sessionID, &SessionUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}, s.TTL)

	return sessionID, nil
}

// Verify resolves a session id to its user. Cache first, then the
// store, repopulating the cache on a hit with whatever lifetime the
// session has left.
func (s *SessionService) Verify(sessionID string) (*SessionUser, bool) {
	if v, ok := s.Cache.Get(sessionID); ok {
		if u, ok := v.(*SessionUser); ok {
			return u, true
		}
	}

	var row struct {
		ID        string
		Email     string
		Name      string
		Role      string
		ExpiresAt time.Time
	}

	now := time.Now()

	err := s.DB.
		Table("sessions").
		Select("users.id, users.email, users.name, users.role, sessions.expires_at").
		Joins("JOIN users ON users.id = sessions.user_id").
		Where("sessions.id = ? AND sessions.expires_at > ?", sessionID, now).
		Take(&row).
		Error
	if err != nil {
		return nil, false
	}

	user := &SessionUser{
		ID:    row.ID,
		Email: row.Email,
		Name:  row.Name,
		Role:  row.Role,
	}

	s.Cache.Set(sessionID, user, row.ExpiresAt.Sub(now))

	return user, true
}

// CleanExpired sweeps dead sessions. It runs opportunistically on
// login rather than on a timer: expired sessions already fail Verify
// by timestamp, this only reclaims rows.
func (s *SessionService) CleanExpired() {
	err := s.DB.Where("expires_at < ?", time.Now()).Delete(&model.Session{}).Error
	if err != nil {
		zap.L().Error("Failed to clean expired sessions", zap.Error(err))
	}
}

// Destroy logs a session out. Deleting an absent session is not an
// error.
func (s *SessionService) Destroy(sessionID string) error {
	s.Cache.Delete(sessionID)

	err := s.DB.Where("id = ?", sessionID).Delete(&model.Session{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete session, %w", err)
	}

	return nil
}
