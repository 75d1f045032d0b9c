package internal

import (
	"deogratias/contact-api/internal/cache"
	"deogratias/contact-api/internal/service"
	"deogratias/contact-api/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	DB        *gorm.DB
	Vault     *security.EmailVault
	Mailer    service.Mailer
	Codes     *service.CodeService
	Sessions  *service.SessionService
	Tokens    *service.AuthTokenService
	Allowlist *service.AllowlistService
	Report    *service.ReportService

	// EmailCache backs the allow-list and code caches, SessionCache
	// keeps verified sessions hot between requests.
	EmailCache   *cache.Store
	SessionCache *cache.Store
}
