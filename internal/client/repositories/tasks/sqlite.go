package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"
	"github.com/dmitrijs2005/gtdkeeper/internal/common"
	"github.com/dmitrijs2005/gtdkeeper/internal/dbx"
)

// SQLiteRepository implements Repository over the local tasks table.
// Timestamps are stored as RFC 3339 text, tags and calendar slots as JSON.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const taskColumns = `id, title, memo, gtd_list, priority, deadline,
	calendar_slot_start, calendar_slot_end, calendar_slots, tags, project_id,
	sort_order, is_completed, completed_at, created_at, updated_at, deleted_at`

func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, t *models.Task) error {
	slots, err := marshalSlots(t.CalendarSlots)
	if err != nil {
		return err
	}
	tags, err := marshalTags(t.Tags)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			memo = excluded.memo,
			gtd_list = excluded.gtd_list,
			priority = excluded.priority,
			deadline = excluded.deadline,
			calendar_slot_start = excluded.calendar_slot_start,
			calendar_slot_end = excluded.calendar_slot_end,
			calendar_slots = excluded.calendar_slots,
			tags = excluded.tags,
			project_id = excluded.project_id,
			sort_order = excluded.sort_order,
			is_completed = excluded.is_completed,
			completed_at = excluded.completed_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
	`
	_, err = r.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Memo, string(t.GtdList), string(t.Priority),
		nullTimeText(t.Deadline), nullTimeText(t.CalendarSlotStart), nullTimeText(t.CalendarSlotEnd),
		slots, tags, t.ProjectID, t.SortOrder, boolInt(t.IsCompleted),
		nullTimeText(t.CompletedAt), timeText(t.CreatedAt), timeText(t.UpdatedAt),
		nullTimeText(t.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) List(ctx context.Context, list models.GtdList) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE deleted_at IS NULL`
	args := []any{}
	if list != "" {
		query += ` AND gtd_list = ?`
		args = append(args, string(list))
	}
	query += ` ORDER BY sort_order`
	return r.queryTasks(ctx, query, args...)
}

func (r *SQLiteRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE project_id = ? AND deleted_at IS NULL ORDER BY sort_order`
	return r.queryTasks(ctx, query, projectID)
}

func (r *SQLiteRepository) CountByList(ctx context.Context, list models.GtdList) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE gtd_list = ? AND deleted_at IS NULL`,
		string(list)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Reorder(ctx context.Context, orderedIDs []string, now time.Time) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for i, id := range orderedIDs {
			_, err := tx.ExecContext(ctx,
				`UPDATE tasks SET sort_order = ?, updated_at = ? WHERE id = ?`,
				i, timeText(now), id)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reorder tasks: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) PurgeTrashed(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE deleted_at IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge trashed tasks: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) PurgeCompleted(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE is_completed = 1 AND deleted_at IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge completed tasks: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	var result []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var (
		t           models.Task
		gtdList     string
		priority    string
		deadline    sql.NullString
		slotStart   sql.NullString
		slotEnd     sql.NullString
		slots       string
		tags        string
		isCompleted int
		completedAt sql.NullString
		createdAt   string
		updatedAt   string
		deletedAt   sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &t.Memo, &gtdList, &priority, &deadline,
		&slotStart, &slotEnd, &slots, &tags, &t.ProjectID, &t.SortOrder,
		&isCompleted, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	t.GtdList = models.GtdList(gtdList)
	t.Priority = models.Priority(priority)
	t.IsCompleted = isCompleted != 0

	if t.CalendarSlots, err = unmarshalSlots(slots); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode task tags: %w", err)
	}

	if t.Deadline, err = parseNullTime(deadline); err != nil {
		return nil, err
	}
	if t.CalendarSlotStart, err = parseNullTime(slotStart); err != nil {
		return nil, err
	}
	if t.CalendarSlotEnd, err = parseNullTime(slotEnd); err != nil {
		return nil, err
	}
	if t.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if t.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// dbSlot fixes the JSON field names used in the calendar_slots column.
type dbSlot struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func marshalSlots(slots []models.CalendarSlot) (string, error) {
	out := make([]dbSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, dbSlot{ID: s.ID, Start: s.Start, End: s.End})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode calendar slots: %w", err)
	}
	return string(b), nil
}

func unmarshalSlots(raw string) ([]models.CalendarSlot, error) {
	var in []dbSlot
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("failed to decode calendar slots: %w", err)
	}
	out := make([]models.CalendarSlot, 0, len(in))
	for _, s := range in {
		out = append(out, models.CalendarSlot{ID: s.ID, Start: s.Start, End: s.End})
	}
	return out, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timeText(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullTimeText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timeText(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse task timestamp: %w", err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
