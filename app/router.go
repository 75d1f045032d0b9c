// Package app wires the HTTP surface of the contact API
package app

import (
	"context"
	"deogratias/contact-api/app/admin"
	"deogratias/contact-api/app/auth"
	"deogratias/contact-api/app/contact"
	"deogratias/contact-api/app/root"
	"deogratias/contact-api/config"
	"deogratias/contact-api/db"
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/cache"
	"deogratias/contact-api/internal/model"
	"deogratias/contact-api/internal/service"
	"deogratias/contact-api/pkg/middleware"
	"deogratias/contact-api/pkg/security"
	"fmt"
	"time"

	gincache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"
	"github.com/robfig/cron/v3"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

func NewRouter() (*gin.Engine, *internal.Deps, error) {
	makeLogger()

	d := &internal.Deps{}

	dbConn, err := db.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = dbConn

	vault, err := security.NewEmailVault(config.EncryptionKey(), config.EmailSalt())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize email vault, %w", err)
	}
	d.Vault = vault

	d.EmailCache = cache.New(cache.WithMaxEntries(10_000))
	d.SessionCache = cache.New(cache.WithMaxEntries(10_000))

	d.Mailer = service.NewMailer()
	d.Codes = service.NewCodeService(dbConn, d.EmailCache)
	d.Sessions = service.NewSessionService(dbConn, d.SessionCache)
	d.Tokens = service.NewAuthTokenService(dbConn)
	d.Allowlist = service.NewAllowlistService(dbConn, d.EmailCache, vault, config.AdminEmails())
	d.Report = service.NewReportService(dbConn, d.Mailer, config.AdminEmails())

	if err := d.Allowlist.Seed(); err != nil {
		return nil, nil, fmt.Errorf("failed to seed admin allow-list, %w", err)
	}

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors"),
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.URL.Path == "/health"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("adminEmail"); v != "" {
					fields = append(fields, zap.String("admin", v))
				}

				return fields
			},
		}),
		middleware.NewThrottleMiddleware(middleware.ThrottleConfig{
			RequestsPerSecond: viper.GetInt("ratelimit.global_rps"),
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	window := time.Duration(viper.GetInt("ratelimit.window_minutes")) * time.Minute

	adminAuth := middleware.NewAdminAuthMiddleware(model.RoleAdmin, model.RoleSuperAdmin)
	superAdminAuth := middleware.NewAdminAuthMiddleware(model.RoleSuperAdmin)
	turnstile := middleware.NewTurnstileMiddleware()

	contactLimiter := middleware.NewRateLimitMiddleware(
		middleware.NewWindowLimiter(viper.GetInt("ratelimit.contact_max"), window),
		middleware.IPKey,
	)
	contactEmailLimiter := middleware.NewRateLimitMiddleware(
		middleware.NewWindowLimiter(
			viper.GetInt("ratelimit.contact_email_max"),
			time.Duration(viper.GetInt("ratelimit.contact_email_window_hours"))*time.Hour,
		),
		middleware.IPEmailKey,
	)
	loginLimiter := middleware.NewRateLimitMiddleware(
		middleware.NewWindowLimiter(viper.GetInt("ratelimit.login_max"), window),
		middleware.IPEmailKey,
	)

	// GET /health			-> Liveness and database check
	router.GET("/health", func(c *gin.Context) { root.Health(c, d) })

	m := router.Group("/api", middleware.BodySizeLimiter(64<<10))
	{
		// POST /api/contact		-> Stores a contact form submission
		m.POST("/contact", turnstile, contactLimiter, contactEmailLimiter, func(c *gin.Context) { contact.ContactSubmit(c, d) })
	}

	au := m.Group("/auth")
	{
		// POST /api/auth/code		-> Mails a one-time login code
		au.POST("/code", loginLimiter, func(c *gin.Context) { auth.AuthRequestCode(c, d) })

		// POST /api/auth/verify-code	-> Exchanges a code for a session
		au.POST("/verify-code", loginLimiter, func(c *gin.Context) { auth.AuthVerifyCode(c, d) })

		// GET /api/auth/check		-> Reports whether the session is live
		au.GET("/check", func(c *gin.Context) { auth.AuthCheck(c, d) })

		// POST /api/auth/logout	-> Destroys the session and clears cookies
		au.POST("/logout", func(c *gin.Context) { auth.AuthLogout(c, d) })
	}

	ad := m.Group("/admin")
	{
		// POST /api/admin/auths	-> Mails a single-use login link
		ad.POST("/auths", loginLimiter, func(c *gin.Context) { admin.AdminRequestLogin(c, d) })

		// GET /api/admin/auth/verify-token -> Redeems a login link for a JWT
		ad.GET("/auth/verify-token", func(c *gin.Context) { admin.AdminVerifyToken(c, d) })

		// GET /api/admin/contacts	-> Lists submissions, paginated
		ad.GET("/contacts", adminAuth, func(c *gin.Context) { contact.ContactFetchBulk(c, d) })

		// DELETE /api/admin/contacts/:id -> Deletes a submission
		ad.DELETE("/contacts/:id", adminAuth, func(c *gin.Context) { contact.ContactDelete(c, d) })

		// GET /api/admin/stats		-> Dashboard counters
		ad.GET("/stats", adminAuth, cacheFor(30), func(c *gin.Context) { admin.AdminStats(c, d) })

		// GET /api/admin/admins	-> Lists the allow-list
		ad.GET("/admins", adminAuth, func(c *gin.Context) { admin.AdminList(c, d) })

		// POST /api/admin/admins	-> Adds an allow-list entry
		ad.POST("/admins", superAdminAuth, func(c *gin.Context) { admin.AdminAdd(c, d) })

		// DELETE /api/admin/admins	-> Deactivates an allow-list entry
		ad.DELETE("/admins", superAdminAuth, func(c *gin.Context) { admin.AdminRemove(c, d) })

		// POST /api/admin/report	-> Sends the weekly report now
		ad.POST("/report", adminAuth, func(c *gin.Context) { admin.AdminReportTrigger(c, d) })
	}

	// Expired codes and link tokens pile up fast, sweep hourly
	service.CredentialCleanup(time.Hour, dbConn)

	if err := startSchedules(d); err != nil {
		return nil, nil, err
	}

	return router, d, nil
}

// startSchedules attaches the cron jobs for the weekly report and
// the database backup.
func startSchedules(d *internal.Deps) error {
	c := cron.New()

	if viper.GetBool("report.enabled") {
		_, err := c.AddFunc(viper.GetString("report.schedule"), func() {
			if err := d.Report.Run(); err != nil {
				zap.L().Error("Scheduled report failed", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("invalid report schedule, %w", err)
		}
	}

	if viper.GetBool("backup.enabled") {
		backup, err := service.NewBackupService()
		if err != nil {
			return fmt.Errorf("failed to initialize backup service, %w", err)
		}

		_, err = c.AddFunc(viper.GetString("backup.schedule"), func() {
			if err := backup.Run(context.Background()); err != nil {
				zap.L().Error("Scheduled backup failed", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("invalid backup schedule, %w", err)
		}
	}

	c.Start()

	return nil
}

func makeLogger() {
	var cfg zap.Config

	if viper.GetString("app.env") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(gray + t.Format("15:04:05.000") + reset)
		}
		cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(gray + ec.TrimmedPath() + reset)
		}
	}

	cfg.DisableStacktrace = true

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return gincache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
