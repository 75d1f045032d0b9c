package service

import (
	"bytes"
	"deogratias/contact-api/internal/cache"
	"deogratias/contact-api/internal/model"
	"deogratias/contact-api/pkg/security"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestAllowlist(t *testing.T, seeds ...string) *AllowlistService {
	t.Helper()

	vault, err := security.NewEmailVault(bytes.Repeat([]byte{0x42}, 32), []byte("test-salt"))
	require.NoError(t, err)

	store := cache.New()
	t.Cleanup(store.Close)

	return NewAllowlistService(newTestDB(t), store, vault, seeds)
}

func TestAllowlistConfiguredEmails(t *testing.T) {
	s := newTestAllowlist(t, "owner@example.com", "second@example.com")

	role, ok := s.IsAllowed("owner@example.com")
	require.True(t, ok)
	assert.Equal(t, model.RoleSuperAdmin, role)

	role, ok = s.IsAllowed("second@example.com")
	require.True(t, ok)
	assert.Equal(t, model.RoleAdmin, role)

	_, ok = s.IsAllowed("stranger@example.com")
	assert.False(t, ok)
}

func TestAllowlistSeedAndList(t *testing.T) {
	s := newTestAllowlist(t, "owner@example.com")

	require.NoError(t, s.Seed())

	// Seeding twice must not duplicate
	require.NoError(t, s.Seed())

	admins, err := s.List()
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "owner@example.com", admins[0].Email)
	assert.Equal(t, model.RoleSuperAdmin, admins[0].Role)
}

func TestAllowlistAddAndRemove(t *testing.T) {
	s := newTestAllowlist(t)

	require.NoError(t, s.Add("new@example.com", ""))

	role, ok := s.IsAllowed("new@example.com")
	require.True(t, ok)
	assert.Equal(t, model.RoleAdmin, role)

	assert.ErrorIs(t, s.Add("new@example.com", model.RoleAdmin), ErrAlreadyAdmin)

	require.NoError(t, s.Remove("new@example.com"))

	_, ok = s.IsAllowed("new@example.com")
	assert.False(t, ok)

	assert.ErrorIs(t, s.Remove("new@example.com"), gorm.ErrRecordNotFound)
}

func TestAllowlistRemovedAdminStoredNotDeleted(t *testing.T) {
	s := newTestAllowlist(t)

	require.NoError(t, s.Add("new@example.com", ""))
	require.NoError(t, s.Remove("new@example.com"))

	var count int64
	require.NoError(t, s.DB.Model(&model.Admin{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// List only shows active entries
	admins, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestGetOrCreateUser(t *testing.T) {
	s := newTestAllowlist(t)

	user, err := GetOrCreateUser(s.DB, "owner@example.com", model.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, "owner", user.Name)
	assert.Equal(t, model.RoleSuperAdmin, user.Role)
	assert.Len(t, user.ID, 16)

	again, err := GetOrCreateUser(s.DB, "owner@example.com", model.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}
