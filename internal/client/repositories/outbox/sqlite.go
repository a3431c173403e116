package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"
	"github.com/dmitrijs2005/gtdkeeper/internal/dbx"
)

// SQLiteRepository implements Repository over the local sync_queue table.
// It holds a *sql.DB (not a DBTX) because MarkSynced opens its own
// transaction to keep the batch atomic.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, entityType models.SyncEntityType, entityID string, action models.SyncAction, data json.RawMessage) error {
	query := `
		INSERT INTO sync_queue (entity_type, entity_id, action, data, enqueued_at, synced)
		VALUES (?, ?, ?, ?, ?, 0)
	`
	_, err := r.db.ExecContext(ctx, query,
		string(entityType), entityID, string(action), string(data),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetPending(ctx context.Context) ([]*models.OutboxEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, action, data, enqueued_at, synced
		FROM sync_queue WHERE synced = 0 ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending outbox entries: %w", err)
	}
	defer rows.Close()

	var result []*models.OutboxEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, `UPDATE sync_queue SET synced = 1 WHERE id = ?`, id)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n != 1 {
				return fmt.Errorf("outbox entry %d not found", id)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark outbox entries synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearSynced(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE synced = 1`)
	if err != nil {
		return fmt.Errorf("failed to clear synced outbox entries: %w", err)
	}
	return nil
}

func scanEntry(rows *sql.Rows) (*models.OutboxEntry, error) {
	var (
		entry      models.OutboxEntry
		entityType string
		action     string
		data       string
		enqueuedAt string
		synced     int
	)
	if err := rows.Scan(&entry.SequenceID, &entityType, &entry.EntityID, &action, &data, &enqueuedAt, &synced); err != nil {
		return nil, fmt.Errorf("failed to scan outbox row: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, enqueuedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse outbox timestamp: %w", err)
	}
	entry.EntityType = models.SyncEntityType(entityType)
	entry.Action = models.SyncAction(action)
	entry.Data = json.RawMessage(data)
	entry.EnqueuedAt = ts
	entry.Synced = synced != 0
	return &entry, nil
}
