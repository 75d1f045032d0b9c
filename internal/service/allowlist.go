package service

import (
	"crypto/subtle"
	"deogratias/contact-api/internal/cache"
	"deogratias/contact-api/internal/model"
	"deogratias/contact-api/pkg/security"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const allowedEmailTTL = 5 * time.Minute

var ErrAlreadyAdmin = errors.New("this email is already an administrator")

type adminSeed struct {
	email string
	hash  string
	role  string
}

// AllowlistService answers whether an email may log into the admin
// panel, and with which role. Lookups go cache → configured admin
// emails → admins table. A database error degrades to not-allowed,
// it never aborts a login request.
type AllowlistService struct {
	DB    *gorm.DB
	Cache *cache.Store
	Vault *security.EmailVault

	seeds []adminSeed
}

// NewAllowlistService precomputes the hashes of the configured admin
// emails so request-time comparison is hash-against-hash and
// constant time. The first configured email is the super admin.
func NewAllowlistService(db *gorm.DB, store *cache.Store, vault *security.EmailVault, adminEmails []string) *AllowlistService {
	s := &AllowlistService{
		DB:    db,
		Cache: store,
		Vault: vault,
	}

	for i, email := range adminEmails {
		role := model.RoleAdmin
		if i == 0 {
			role = model.RoleSuperAdmin
		}

		s.seeds = append(s.seeds, adminSeed{
			email: email,
			hash:  vault.Hash(email),
			role:  role,
		})
	}

	return s
}

// IsAllowed reports whether the email may log in and its role.
func (s *AllowlistService) IsAllowed(email string) (string, bool) {
	if v, ok := s.Cache.Get(email); ok {
		if role, ok := v.(string); ok {
			return role, true
		}
	}

	hash := s.Vault.Hash(email)

	for _, seed := range s.seeds {
		if subtle.ConstantTimeCompare([]byte(hash), []byte(seed.hash)) == 1 {
			s.Cache.Set(email, seed.role, allowedEmailTTL)
			return seed.role, true
		}
	}

	var admin model.Admin

	err := s.DB.
		Where("email_hash = ? AND is_active = ?", hash, true).
		First(&admin).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Error("Failed to check admin allow-list", zap.Error(err))
		}

		return "", false
	}

	role := admin.Role
	if role == "" {
		role = model.RoleAdmin
	}

	s.Cache.Set(email, role, allowedEmailTTL)

	return role, true
}

// Seed upserts the configured admin emails into the admins table at
// startup, reactivating any that were disabled.
func (s *AllowlistService) Seed() error {
	for _, seed := range s.seeds {
		var existing model.Admin

		err := s.DB.Where("email_hash = ?", seed.hash).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			encrypted, encErr := s.Vault.Encrypt(seed.email)
			if encErr != nil {
				return fmt.Errorf("failed to encrypt admin email, %w", encErr)
			}

			if err := s.DB.Create(&model.Admin{
				EmailEncrypted: encrypted,
				EmailHash:      seed.hash,
				Role:           seed.role,
				IsActive:       true,
			}).Error; err != nil {
				return fmt.Errorf("failed to seed admin, %w", err)
			}

			continue
		}

		if err != nil {
			return fmt.Errorf("failed to look up admin, %w", err)
		}

		if !existing.IsActive {
			if err := s.DB.Model(&existing).Update("is_active", true).Error; err != nil {
				return fmt.Errorf("failed to reactivate admin, %w", err)
			}
		}
	}

	return nil
}

// AdminInfo is the decrypted listing entry for the admin panel.
type AdminInfo struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *AllowlistService) List() ([]AdminInfo, error) {
	var admins []model.Admin

	if err := s.DB.Where("is_active = ?", true).Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("failed to list admins, %w", err)
	}

	infos := make([]AdminInfo, 0, len(admins))

	for _, a := range admins {
		email, err := s.Vault.Decrypt(a.EmailEncrypted)
		if err != nil {
			zap.L().Error("Failed to decrypt admin email", zap.Int("id", a.ID), zap.Error(err))
			continue
		}

		infos = append(infos, AdminInfo{Email: email, Role: a.Role, CreatedAt: a.CreatedAt})
	}

	return infos, nil
}

// Add inserts a new active admin.
func (s *AllowlistService) Add(email, role string) error {
	if role == "" {
		role = model.RoleAdmin
	}

	encrypted, err := s.Vault.Encrypt(email)
	if err != nil {
		return fmt.Errorf("failed to encrypt admin email, %w", err)
	}

	err = s.DB.Create(&model.Admin{
		EmailEncrypted: encrypted,
		EmailHash:      s.Vault.Hash(email),
		Role:           role,
		IsActive:       true,
	}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyAdmin
		}

		return fmt.Errorf("failed to add admin, %w", err)
	}

	return nil
}

// Remove soft-deletes an admin so the audit trail survives. Returns
// gorm.ErrRecordNotFound when the email isn't an active admin.
func (s *AllowlistService) Remove(email string) error {
	res := s.DB.Model(&model.Admin{}).
		Where("email_hash = ? AND is_active = ?", s.Vault.Hash(email), true).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to remove admin, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	s.Cache.Delete(email)

	return nil
}
