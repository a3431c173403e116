package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/dbx"
	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const taskColumns = `id, title, memo, gtd_list, priority, deadline,
	calendar_slot_start, calendar_slot_end, calendar_slots, tags, project_id,
	sort_order, is_completed, completed_at, created_at, updated_at, deleted_at`

func (r *PostgresRepository) Upsert(ctx context.Context, userID int64, t *wire.Task) error {
	slots, err := json.Marshal(t.CalendarSlots)
	if err != nil {
		return fmt.Errorf("encoding calendar slots: %w", err)
	}
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	query := `INSERT INTO tasks (id, user_id, title, memo, gtd_list, priority,
	            deadline, calendar_slot_start, calendar_slot_end, calendar_slots,
	            tags, project_id, sort_order, is_completed, completed_at,
	            created_at, updated_at, deleted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	          ON CONFLICT (id, user_id) DO UPDATE SET
	            title = EXCLUDED.title,
	            memo = EXCLUDED.memo,
	            gtd_list = EXCLUDED.gtd_list,
	            priority = EXCLUDED.priority,
	            deadline = EXCLUDED.deadline,
	            calendar_slot_start = EXCLUDED.calendar_slot_start,
	            calendar_slot_end = EXCLUDED.calendar_slot_end,
	            calendar_slots = EXCLUDED.calendar_slots,
	            tags = EXCLUDED.tags,
	            project_id = EXCLUDED.project_id,
	            sort_order = EXCLUDED.sort_order,
	            is_completed = EXCLUDED.is_completed,
	            completed_at = EXCLUDED.completed_at,
	            created_at = EXCLUDED.created_at,
	            updated_at = EXCLUDED.updated_at,
	            deleted_at = EXCLUDED.deleted_at`

	_, err = r.db.ExecContext(ctx, query,
		t.ID, userID, t.Title, t.Memo, t.GtdList, t.Priority,
		t.Deadline, t.CalendarSlotStart, t.CalendarSlotEnd, slots,
		tags, t.ProjectID, t.SortOrder, t.IsCompleted, t.CompletedAt,
		t.CreatedAt, t.UpdatedAt, t.DeletedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]wire.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
	          WHERE user_id = $1 AND updated_at > $2
	          ORDER BY updated_at`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []wire.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func scanTask(rows *sql.Rows) (*wire.Task, error) {
	var (
		t                              wire.Task
		deadline, slotStart, slotEnd   sql.NullTime
		completedAt, deletedAt         sql.NullTime
		slots, tags                    []byte
		projectID                      sql.NullString
	)
	err := rows.Scan(&t.ID, &t.Title, &t.Memo, &t.GtdList, &t.Priority, &deadline,
		&slotStart, &slotEnd, &slots, &tags, &projectID,
		&t.SortOrder, &t.IsCompleted, &completedAt, &t.CreatedAt, &t.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	t.Deadline = nullableTime(deadline)
	t.CalendarSlotStart = nullableTime(slotStart)
	t.CalendarSlotEnd = nullableTime(slotEnd)
	t.CompletedAt = nullableTime(completedAt)
	t.DeletedAt = nullableTime(deletedAt)
	if projectID.Valid {
		t.ProjectID = &projectID.String
	}
	if err := json.Unmarshal(slots, &t.CalendarSlots); err != nil {
		return nil, fmt.Errorf("decoding calendar slots: %w", err)
	}
	if err := json.Unmarshal(tags, &t.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return &t, nil
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
