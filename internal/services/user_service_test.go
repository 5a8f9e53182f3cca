package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterHashesPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newFakeCache(), false)

	user, err := svc.Register("Ada", "ada@example.com", "Secret123!", "")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Empty(t, user.PasswordHash, "projection must not carry the hash")
	assert.False(t, user.CreatedAt.IsZero())

	var stored string
	require.NoError(t, db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&stored))
	assert.NotEqual(t, "Secret123!", stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("Secret123!")))

	cost, err := bcrypt.Cost([]byte(stored))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cost, 10)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newFakeCache(), false)

	_, err := svc.Register("Ada", "Ada@Example.com", "Secret123!", "")
	require.NoError(t, err)

	// Uniqueness is case-insensitive.
	_, err = svc.Register("Imposter", "ada@example.com", "Other123!", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRoleGating(t *testing.T) {
	db := newTestDB(t)

	locked := NewUserService(db, newFakeCache(), false)
	user, err := locked.Register("Ada", "ada@example.com", "Secret123!", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role, "client-supplied role must be ignored by default")

	open := NewUserService(db, newFakeCache(), true)
	admin, err := open.Register("Root", "root@example.com", "Secret123!", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newFakeCache(), false)

	registered, err := svc.Register("Ada", "ada@example.com", "Secret123!", "")
	require.NoError(t, err)

	user, err := svc.Authenticate("ada@example.com", "Secret123!")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	_, wrongPass := svc.Authenticate("ada@example.com", "wrong")
	_, unknown := svc.Authenticate("nobody@example.com", "Secret123!")
	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	// Bad password and unknown email must be indistinguishable.
	assert.Equal(t, wrongPass, unknown)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newFakeCache(), false)

	user, err := svc.Register("Ada", "ada@example.com", "Secret123!", "")
	require.NoError(t, err)
	_, err = svc.Register("Bob", "bob@example.com", "Secret123!", "")
	require.NoError(t, err)

	updated, err := svc.Update(user.ID, "Ada L.", "ada.l@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, "ada.l@example.com", updated.Email)
	assert.Equal(t, models.RoleUser, updated.Role)

	_, err = svc.Update(user.ID, "Ada L.", "bob@example.com", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	// Password change is re-hashed: old credential dies, new one works.
	_, err = svc.Update(user.ID, "Ada L.", "ada.l@example.com", "NewSecret456!")
	require.NoError(t, err)
	_, err = svc.Authenticate("ada.l@example.com", "Secret123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate("ada.l@example.com", "NewSecret456!")
	assert.NoError(t, err)
}

func TestSetRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newFakeCache(), false)

	user, err := svc.Register("Ada", "ada@example.com", "Secret123!", "")
	require.NoError(t, err)

	promoted, err := svc.SetRole(user.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = svc.SetRole("missing-id", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SetRole(user.ID, "owner")
	assert.Error(t, err)
}

func TestDeleteUserCascadesAndInvalidates(t *testing.T) {
	db := newTestDB(t)
	cache := newFakeCache()
	users := NewUserService(db, cache, false)
	tasks := NewTaskService(db, cache)
	ctx := context.Background()

	user, err := users.Register("Ada", "ada@example.com", "Secret123!", "")
	require.NoError(t, err)
	_, err = tasks.Create(ctx, user.ID, TaskInput{Title: "orphan-to-be"})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, user.ID))
	assert.Contains(t, cache.invalidated, user.ID)

	_, err = users.GetByID(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(1) FROM tasks WHERE owner_id = ?", user.ID).Scan(&count))
	assert.Zero(t, count, "tasks must cascade with their owner")

	assert.ErrorIs(t, users.Delete(ctx, user.ID), ErrNotFound)
}
