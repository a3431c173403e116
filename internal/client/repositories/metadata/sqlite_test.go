package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL)`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyLastSyncAt, []byte("2024-01-02T00:00:00Z")))

	v, err := r.Get(ctx, KeyLastSyncAt)
	require.NoError(t, err)
	require.Equal(t, []byte("2024-01-02T00:00:00Z"), v)
}

func TestGet_MissingKey_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyAuthPin, []byte("1111")))
	require.NoError(t, r.Set(ctx, KeyAuthPin, []byte("2222")))

	v, err := r.Get(ctx, KeyAuthPin)
	require.NoError(t, err)
	require.Equal(t, []byte("2222"), v)
}

func TestDelete_RemovesKey_AndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyAuthPin, []byte("1111")))
	require.NoError(t, r.Delete(ctx, KeyAuthPin))

	v, err := r.Get(ctx, KeyAuthPin)
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Delete(ctx, KeyAuthPin))
}

func TestGet_DBErrorWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	_, err := r.Get(context.Background(), "k")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to get metadata[k]")
}
