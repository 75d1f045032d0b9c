package admin

import (
	"bytes"
	"context"
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/cache"
	"deogratias/contact-api/internal/model"
	"deogratias/contact-api/internal/service"
	"deogratias/contact-api/pkg/middleware"
	"deogratias/contact-api/pkg/security"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type nopMailer struct{}

func (nopMailer) Send(ctx context.Context, m *service.Message) error { return nil }

func newTestRouter(t *testing.T, allowed ...string) (*gin.Engine, *internal.Deps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	viper.Set("security.jwt_secret", "test-secret")
	viper.Set("auth.jwt_ttl_hours", 24)
	viper.Set("host.frontend_url", "https://example.com")
	t.Cleanup(viper.Reset)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		model.Contact{},
		model.User{},
		model.Session{},
		model.AuthToken{},
		model.Admin{},
	))

	vault, err := security.NewEmailVault(bytes.Repeat([]byte{0x42}, 32), []byte("test-salt"))
	require.NoError(t, err)

	store := cache.New()
	t.Cleanup(store.Close)

	d := &internal.Deps{
		DB:        db,
		Vault:     vault,
		Mailer:    nopMailer{},
		Tokens:    &service.AuthTokenService{DB: db, TTL: 15 * time.Minute},
		Allowlist: service.NewAllowlistService(db, store, vault, allowed),
	}

	adminAuth := middleware.NewAdminAuthMiddleware(model.RoleAdmin, model.RoleSuperAdmin)
	superAdminAuth := middleware.NewAdminAuthMiddleware(model.RoleSuperAdmin)

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("requestID", "test") })
	router.POST("/api/admin/auths", func(c *gin.Context) { AdminRequestLogin(c, d) })
	router.GET("/api/admin/auth/verify-token", func(c *gin.Context) { AdminVerifyToken(c, d) })
	router.GET("/api/admin/stats", adminAuth, func(c *gin.Context) { AdminStats(c, d) })
	router.GET("/api/admin/admins", adminAuth, func(c *gin.Context) { AdminList(c, d) })
	router.POST("/api/admin/admins", superAdminAuth, func(c *gin.Context) { AdminAdd(c, d) })
	router.DELETE("/api/admin/admins", superAdminAuth, func(c *gin.Context) { AdminRemove(c, d) })

	return router, d
}

func doJSON(router *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	router.ServeHTTP(w, req)

	return w
}

func adminCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == "admin_token" && c.Value != "" {
			return c
		}
	}

	t.Fatal("no admin_token cookie in response")
	return nil
}

func loginAs(t *testing.T, router *gin.Engine, d *internal.Deps, email string) *http.Cookie {
	t.Helper()

	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/admin/auths", `{"email":"`+email+`"}`).Code)

	var token model.AuthToken
	require.NoError(t, d.DB.Where("email = ?", email).First(&token).Error)

	w := doJSON(router, http.MethodGet, "/api/admin/auth/verify-token?token="+token.Token, "")
	require.Equal(t, http.StatusOK, w.Code)

	return adminCookie(t, w)
}

func TestRequestLoginHidesMembership(t *testing.T) {
	router, d := newTestRouter(t, "owner@example.com")

	member := doJSON(router, http.MethodPost, "/api/admin/auths", `{"email":"owner@example.com"}`)
	stranger := doJSON(router, http.MethodPost, "/api/admin/auths", `{"email":"stranger@example.com"}`)

	assert.Equal(t, http.StatusOK, member.Code)
	assert.Equal(t, member.Code, stranger.Code)
	assert.Equal(t, member.Body.String(), stranger.Body.String())

	var count int64
	require.NoError(t, d.DB.Model(&model.AuthToken{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerifyTokenSingleUse(t *testing.T) {
	router, d := newTestRouter(t, "owner@example.com")

	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/admin/auths", `{"email":"owner@example.com"}`).Code)

	var token model.AuthToken
	require.NoError(t, d.DB.First(&token).Error)

	w := doJSON(router, http.MethodGet, "/api/admin/auth/verify-token?token="+token.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), model.RoleSuperAdmin)
	adminCookie(t, w)

	// Replaying the link must fail
	w = doJSON(router, http.MethodGet, "/api/admin/auth/verify-token?token="+token.Token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, "owner@example.com")

	assert.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodGet, "/api/admin/stats", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodGet, "/api/admin/admins", "").Code)
}

func TestAdminManagementRequiresSuperAdmin(t *testing.T) {
	router, d := newTestRouter(t, "owner@example.com", "helper@example.com")

	helper := loginAs(t, router, d, "helper@example.com")

	// A plain admin can read but not manage the allow-list
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/api/admin/admins", "", helper).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(router, http.MethodPost, "/api/admin/admins", `{"email":"new@example.com"}`, helper).Code)

	owner := loginAs(t, router, d, "owner@example.com")

	w := doJSON(router, http.MethodPost, "/api/admin/admins", `{"email":"new@example.com"}`, owner)
	require.Equal(t, http.StatusCreated, w.Code)

	role, ok := d.Allowlist.IsAllowed("new@example.com")
	require.True(t, ok)
	assert.Equal(t, model.RoleAdmin, role)

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodDelete, "/api/admin/admins", `{"email":"new@example.com"}`, owner).Code)

	_, ok = d.Allowlist.IsAllowed("new@example.com")
	assert.False(t, ok)
}

func TestAdminCannotRemoveSelf(t *testing.T) {
	router, d := newTestRouter(t, "owner@example.com")

	owner := loginAs(t, router, d, "owner@example.com")

	w := doJSON(router, http.MethodDelete, "/api/admin/admins", `{"email":"owner@example.com"}`, owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminStats(t *testing.T) {
	router, d := newTestRouter(t, "owner@example.com")

	require.NoError(t, d.DB.Create(&model.Contact{ID: "c1", Email: "a@example.com", Projet: "un"}).Error)

	owner := loginAs(t, router, d, "owner@example.com")

	w := doJSON(router, http.MethodGet, "/api/admin/stats", "", owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalContacts":1`)
}
