package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-be/internal/models"
)

func seedUser(t *testing.T, users *UserService, email string) models.User {
	t.Helper()
	user, err := users.Register("Tester", email, "Secret123!", "")
	require.NoError(t, err)
	return user
}

func TestCreateTaskRoundTrip(t *testing.T) {
	db := newTestDB(t)
	cache := newFakeCache()
	users := NewUserService(db, cache, false)
	tasks := NewTaskService(db, cache)
	ctx := context.Background()

	owner := seedUser(t, users, "ada@example.com")
	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	created, err := tasks.Create(ctx, owner.ID, TaskInput{
		Title:       "A",
		Description: "first",
		DueDate:     &due,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status, "status defaults to pending")
	assert.Equal(t, models.PriorityMedium, created.Priority, "priority defaults to medium")
	assert.False(t, created.CreatedAt.IsZero())

	got, err := tasks.GetForOwner(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "first", got.Description)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, models.PriorityMedium, got.Priority)
	assert.Equal(t, owner.ID, got.OwnerID)
	require.NotNil(t, got.DueDate)
	assert.WithinDuration(t, due, *got.DueDate, time.Second)
}

func TestCreateTaskRejectsUnknownEnums(t *testing.T) {
	db := newTestDB(t)
	cache := newFakeCache()
	users := NewUserService(db, cache, false)
	tasks := NewTaskService(db, cache)
	ctx := context.Background()

	owner := seedUser(t, users, "ada@example.com")

	_, err := tasks.Create(ctx, owner.ID, TaskInput{Title: "A", Status: "done"})
	assert.Error(t, err)
	_, err = tasks.Create(ctx, owner.ID, TaskInput{Title: "A", Priority: "urgent"})
	assert.Error(t, err)
}

func TestOwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	cache := newFakeCache()
	users := NewUserService(db, cache, false)
	tasks := NewTaskService(db, cache)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.com")
	bob := seedUser(t, users, "bob@example.com")

	task, err := tasks.Create(ctx, alice.ID, TaskInput{Title: "private"})
	require.NoError(t, err)

	// Another user's task reads as missing, never as forbidden.
	_, err = tasks.GetForOwner(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tasks.UpdateForOwner(ctx, bob.ID, task.ID, TaskInput{Title: "stolen"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, tasks.DeleteForOwner(ctx, bob.ID, task.ID), ErrNotFound)

	// The failed attempts changed nothing.
	got, err := tasks.GetForOwner(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)
}

func TestUpdateTaskOverlaysFields(t *testing.T) {
	db := newTestDB(t)
	cache := newFakeCache()
	users := NewUserService(db, cache, false)
	tasks := NewTaskService(db, cache)
	ctx := context.Background()

	owner := seedUser(t, users, "ada@example.com")
	task, err := tasks.Create(ctx, owner.ID, TaskInput{Title: "A", Description: "keep me"})
	require.NoError(t, err)

	updated, err := tasks.UpdateForOwner(ctx, owner.ID, task.ID, TaskInput{Status: models.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, owner.ID, updated.OwnerID, "ownership is immutable")
}

func TestListForOwnerUsesCache(t *testing.T) {
	db := newTestDB(t)
	cache := newFakeCache()
	users := NewUserService(db, cache, false)
	tasks := NewTaskService(db, cache)
	ctx := context.Background()

	owner := seedUser(t, users, "ada@example.com")
	_, err := tasks.Create(ctx, owner.ID, TaskInput{Title: "A"})
	require.NoError(t, err)

	payload, err := tasks.ListForOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
	assert.Contains(t, cache.entries, owner.ID, "miss must populate the cache")

	// A warm cache is served verbatim without touching the store.
	cache.entries[owner.ID] = []byte(`[{"id":"sentinel"}]`)
	payload, err = tasks.ListForOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"sentinel"}]`, string(payload))
}

func TestCacheCoherenceAfterWrite(t *testing.T) {
	db := newTestDB(t)
	cache := newFakeCache()
	users := NewUserService(db, cache, false)
	tasks := NewTaskService(db, cache)
	ctx := context.Background()

	owner := seedUser(t, users, "ada@example.com")
	first, err := tasks.Create(ctx, owner.ID, TaskInput{Title: "first"})
	require.NoError(t, err)

	_, err = tasks.ListForOwner(ctx, owner.ID)
	require.NoError(t, err)

	// Every mutation invalidates before returning, so the next read sees it.
	second, err := tasks.Create(ctx, owner.ID, TaskInput{Title: "second"})
	require.NoError(t, err)
	assert.NotContains(t, cache.entries, owner.ID)

	payload, err := tasks.ListForOwner(ctx, owner.ID)
	require.NoError(t, err)
	var listed []models.Task
	require.NoError(t, json.Unmarshal(payload, &listed))
	require.Len(t, listed, 2)
	ids := []string{listed[0].ID, listed[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)

	require.NoError(t, tasks.DeleteForOwner(ctx, owner.ID, first.ID))
	assert.NotContains(t, cache.entries, owner.ID)

	_, err = tasks.UpdateForOwner(ctx, owner.ID, second.ID, TaskInput{Title: "renamed"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(cache.invalidated), 4)
}

func TestAdminBypassesScoping(t *testing.T) {
	db := newTestDB(t)
	cache := newFakeCache()
	users := NewUserService(db, cache, false)
	tasks := NewTaskService(db, cache)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.com")
	bob := seedUser(t, users, "bob@example.com")
	a, err := tasks.Create(ctx, alice.ID, TaskInput{Title: "a"})
	require.NoError(t, err)
	_, err = tasks.Create(ctx, bob.ID, TaskInput{Title: "b"})
	require.NoError(t, err)

	all, err := tasks.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Admin delete resolves the owner so the right cache entry drops.
	_, err = tasks.ListForOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.NoError(t, tasks.DeleteAny(ctx, a.ID))
	assert.NotContains(t, cache.entries, alice.ID)

	assert.ErrorIs(t, tasks.DeleteAny(ctx, a.ID), ErrNotFound)
}

func TestListForOwnerEmptyIsJSONArray(t *testing.T) {
	db := newTestDB(t)
	cache := newFakeCache()
	users := NewUserService(db, cache, false)
	tasks := NewTaskService(db, cache)

	owner := seedUser(t, users, "ada@example.com")
	payload, err := tasks.ListForOwner(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(payload))
}
