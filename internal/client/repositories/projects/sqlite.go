package projects

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

// SQLiteRepository implements Repository over the local projects table.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const projectColumns = `id, title, memo, tags, priority, deadline, sort_order,
	is_completed, completed_at, created_at, updated_at, deleted_at`

func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, p *models.Project) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode project tags: %w", err)
	}
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			memo = excluded.memo,
			tags = excluded.tags,
			priority = excluded.priority,
			deadline = excluded.deadline,
			sort_order = excluded.sort_order,
			is_completed = excluded.is_completed,
			completed_at = excluded.completed_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Memo, string(tagsJSON), string(p.Priority),
		nullTimeText(p.Deadline), p.SortOrder, boolInt(p.IsCompleted),
		nullTimeText(p.CompletedAt), timeText(p.CreatedAt), timeText(p.UpdatedAt),
		nullTimeText(p.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects
		WHERE deleted_at IS NULL ORDER BY sort_order`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %w", err)
	}
	defer rows.Close()

	var result []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE deleted_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) SoftDeleteCascade(ctx context.Context, id string, now time.Time) ([]string, error) {
	var taskIDs []string
	stamp := timeText(now)

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE projects SET deleted_at = ?, updated_at = ? WHERE id = ?`,
			stamp, stamp, id)
		if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM tasks WHERE project_id = ? AND deleted_at IS NULL`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var taskID string
			if err := rows.Scan(&taskID); err != nil {
				return err
			}
			taskIDs = append(taskIDs, taskID)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, taskID := range taskIDs {
			_, err := tx.ExecContext(ctx,
				`UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ?`,
				stamp, stamp, taskID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cascade-delete project: %w", err)
	}
	return taskIDs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*models.Project, error) {
	var (
		p           models.Project
		tags        string
		priority    string
		deadline    sql.NullString
		isCompleted int
		completedAt sql.NullString
		createdAt   string
		updatedAt   string
		deletedAt   sql.NullString
	)
	err := row.Scan(&p.ID, &p.Title, &p.Memo, &tags, &priority, &deadline,
		&p.SortOrder, &isCompleted, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	p.Priority = models.Priority(priority)
	p.IsCompleted = isCompleted != 0
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode project tags: %w", err)
	}

	if p.Deadline, err = parseNullTime(deadline); err != nil {
		return nil, err
	}
	if p.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if p.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, err
	}
	return &p, nil
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
		return time.Time{}, fmt.Errorf("failed to parse project timestamp: %w", err)
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
