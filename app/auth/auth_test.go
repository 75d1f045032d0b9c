package auth

import (
	"bytes"
	"context"
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/cache"
	"deogratias/contact-api/internal/model"
	"deogratias/contact-api/internal/service"
	"deogratias/contact-api/pkg/security"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
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

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		model.User{},
		model.Session{},
		model.VerificationCode{},
		model.Admin{},
	))

	vault, err := security.NewEmailVault(bytes.Repeat([]byte{0x42}, 32), []byte("test-salt"))
	require.NoError(t, err)

	store := cache.New()
	t.Cleanup(store.Close)

	d := &internal.Deps{
		DB:     db,
		Vault:  vault,
		Mailer: nopMailer{},
		Codes: &service.CodeService{
			DB:          db,
			Cache:       store,
			TTL:         15 * time.Minute,
			MaxAttempts: 5,
		},
		Sessions: &service.SessionService{
			DB:            db,
			Cache:         store,
			TTL:           7 * 24 * time.Hour,
			SingleSession: true,
		},
		Allowlist: service.NewAllowlistService(db, store, vault, allowed),
	}

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("requestID", "test") })
	router.POST("/api/auth/code", func(c *gin.Context) { AuthRequestCode(c, d) })
	router.POST("/api/auth/verify-code", func(c *gin.Context) { AuthVerifyCode(c, d) })
	router.GET("/api/auth/check", func(c *gin.Context) { AuthCheck(c, d) })
	router.POST("/api/auth/logout", func(c *gin.Context) { AuthLogout(c, d) })

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

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" && c.Value != "" {
			return c
		}
	}

	t.Fatal("no session_id cookie in response")
	return nil
}

func TestRequestCodeHidesMembership(t *testing.T) {
	router, d := newTestRouter(t, "owner@example.com")

	member := doJSON(router, http.MethodPost, "/api/auth/code", `{"email":"owner@example.com"}`)
	stranger := doJSON(router, http.MethodPost, "/api/auth/code", `{"email":"stranger@example.com"}`)

	// Status and body must be byte-identical in both branches
	assert.Equal(t, http.StatusOK, member.Code)
	assert.Equal(t, member.Code, stranger.Code)
	assert.Equal(t, member.Body.String(), stranger.Body.String())

	// Only the allow-listed address actually got a code
	var count int64
	require.NoError(t, d.DB.Model(&model.VerificationCode{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerifyCodeFlow(t *testing.T) {
	router, d := newTestRouter(t, "owner@example.com")

	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/auth/code", `{"email":"owner@example.com"}`).Code)

	var vc model.VerificationCode
	require.NoError(t, d.DB.First(&vc).Error)

	w := doJSON(router, http.MethodPost, "/api/auth/verify-code", `{"email":"owner@example.com","code":"`+vc.Code+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), model.RoleSuperAdmin)
	assert.Contains(t, w.Body.String(), "authToken")

	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)

	// The session from the cookie checks out
	check := doJSON(router, http.MethodGet, "/api/auth/check", "", cookie)
	require.Equal(t, http.StatusOK, check.Code)
	assert.Contains(t, check.Body.String(), `"authenticated":true`)

	// Logout kills it
	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/auth/logout", "", cookie).Code)

	check = doJSON(router, http.MethodGet, "/api/auth/check", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, check.Code)
}

func TestVerifyCodeWrongCode(t *testing.T) {
	router, _ := newTestRouter(t, "owner@example.com")

	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/auth/code", `{"email":"owner@example.com"}`).Code)

	w := doJSON(router, http.MethodPost, "/api/auth/verify-code", `{"email":"owner@example.com","code":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyCodeStranger(t *testing.T) {
	router, _ := newTestRouter(t, "owner@example.com")

	w := doJSON(router, http.MethodPost, "/api/auth/verify-code", `{"email":"stranger@example.com","code":"123456"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Code invalide ou expiré")
}

func TestVerifyCodeLockout(t *testing.T) {
	router, d := newTestRouter(t, "owner@example.com")

	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/auth/code", `{"email":"owner@example.com"}`).Code)

	for range 5 {
		w := doJSON(router, http.MethodPost, "/api/auth/verify-code", `{"email":"owner@example.com","code":"000000"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	var vc model.VerificationCode
	require.NoError(t, d.DB.First(&vc).Error)

	w := doJSON(router, http.MethodPost, "/api/auth/verify-code", `{"email":"owner@example.com","code":"`+vc.Code+`"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCheckWithoutSession(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/auth/check", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}
