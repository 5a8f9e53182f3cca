package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-be/internal/database"
)

// fakeCache is an in-memory TaskCache for tests. It records invalidations
// so cache-coherence behavior can be asserted.
type fakeCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, ownerID string) ([]byte, bool) {
	payload, ok := f.entries[ownerID]
	return payload, ok
}

func (f *fakeCache) Set(_ context.Context, ownerID string, payload []byte) {
	f.entries[ownerID] = payload
}

func (f *fakeCache) Invalidate(_ context.Context, ownerID string) {
	f.invalidated = append(f.invalidated, ownerID)
	delete(f.entries, ownerID)
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}
