package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE sync_queue (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_type TEXT NOT NULL,
    entity_id   TEXT NOT NULL,
    action      TEXT NOT NULL,
    data        TEXT NOT NULL,
    enqueued_at TEXT NOT NULL,
    synced      INTEGER NOT NULL DEFAULT 0
);`)
	require.NoError(t, err)
	return db
}

func enqueueN(t *testing.T, r *SQLiteRepository, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		data := json.RawMessage(fmt.Sprintf(`{"id":"t-%d"}`, i))
		require.NoError(t, r.Enqueue(ctx, models.EntityTask, fmt.Sprintf("t-%d", i), models.ActionUpdate, data))
	}
}

func TestGetPending_PreservesEnqueueOrder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	// mutations on different entities, interleaved types
	require.NoError(t, r.Enqueue(ctx, models.EntityTask, "t-1", models.ActionCreate, json.RawMessage(`{"id":"t-1"}`)))
	require.NoError(t, r.Enqueue(ctx, models.EntityProject, "p-1", models.ActionCreate, json.RawMessage(`{"id":"p-1"}`)))
	require.NoError(t, r.Enqueue(ctx, models.EntityTask, "t-1", models.ActionUpdate, json.RawMessage(`{"id":"t-1","title":"x"}`)))

	pending, err := r.GetPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	assert.Equal(t, "t-1", pending[0].EntityID)
	assert.Equal(t, models.ActionCreate, pending[0].Action)
	assert.Equal(t, "p-1", pending[1].EntityID)
	assert.Equal(t, "t-1", pending[2].EntityID)
	assert.Equal(t, models.ActionUpdate, pending[2].Action)

	// sequence ids strictly increase in enqueue order
	assert.Less(t, pending[0].SequenceID, pending[1].SequenceID)
	assert.Less(t, pending[1].SequenceID, pending[2].SequenceID)
}

func TestEnqueue_KeepsFullSnapshotPerEntry(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	// two rapid edits to the same entity produce two entries, each with the
	// snapshot taken at its own enqueue time
	require.NoError(t, r.Enqueue(ctx, models.EntityTask, "t-1", models.ActionUpdate, json.RawMessage(`{"id":"t-1","title":"first"}`)))
	require.NoError(t, r.Enqueue(ctx, models.EntityTask, "t-1", models.ActionUpdate, json.RawMessage(`{"id":"t-1","title":"second"}`)))

	pending, err := r.GetPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.JSONEq(t, `{"id":"t-1","title":"first"}`, string(pending[0].Data))
	assert.JSONEq(t, `{"id":"t-1","title":"second"}`, string(pending[1].Data))
}

func TestMarkSynced_RemovesFromPending(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	enqueueN(t, r, 3)

	pending, err := r.GetPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	require.NoError(t, r.MarkSynced(ctx, []int64{pending[0].SequenceID, pending[1].SequenceID}))

	left, err := r.GetPending(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, pending[2].SequenceID, left[0].SequenceID)
}

func TestMarkSynced_AtomicAcrossBatch(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	enqueueN(t, r, 2)

	pending, err := r.GetPending(ctx)
	require.NoError(t, err)

	// one valid id plus one that does not exist: nothing may transition
	err = r.MarkSynced(ctx, []int64{pending[0].SequenceID, 9999})
	require.Error(t, err)

	left, err := r.GetPending(ctx)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestMarkSynced_EmptyBatchIsNoop(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	require.NoError(t, r.MarkSynced(context.Background(), nil))
}

func TestClearSynced_RemovesOnlySyncedRows(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	enqueueN(t, r, 3)

	pending, err := r.GetPending(ctx)
	require.NoError(t, err)
	require.NoError(t, r.MarkSynced(ctx, []int64{pending[0].SequenceID}))
	require.NoError(t, r.ClearSynced(ctx))

	var total int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&total))
	assert.Equal(t, 2, total)

	left, err := r.GetPending(ctx)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}
