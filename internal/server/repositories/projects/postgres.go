package projects

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

func (r *PostgresRepository) Upsert(ctx context.Context, userID int64, p *wire.Project) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	query := `INSERT INTO projects (id, user_id, title, memo, tags, priority,
	            deadline, sort_order, is_completed, completed_at, created_at,
	            updated_at, deleted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          ON CONFLICT (id, user_id) DO UPDATE SET
	            title = EXCLUDED.title,
	            memo = EXCLUDED.memo,
	            tags = EXCLUDED.tags,
	            priority = EXCLUDED.priority,
	            deadline = EXCLUDED.deadline,
	            sort_order = EXCLUDED.sort_order,
	            is_completed = EXCLUDED.is_completed,
	            completed_at = EXCLUDED.completed_at,
	            created_at = EXCLUDED.created_at,
	            updated_at = EXCLUDED.updated_at,
	            deleted_at = EXCLUDED.deleted_at`

	_, err = r.db.ExecContext(ctx, query,
		p.ID, userID, p.Title, p.Memo, tags, p.Priority,
		p.Deadline, p.SortOrder, p.IsCompleted, p.CompletedAt, p.CreatedAt,
		p.UpdatedAt, p.DeletedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]wire.Project, error) {
	query := `SELECT id, title, memo, tags, priority, deadline, sort_order,
	            is_completed, completed_at, created_at, updated_at, deleted_at
	          FROM projects
	          WHERE user_id = $1 AND updated_at > $2
	          ORDER BY updated_at`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []wire.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func scanProject(rows *sql.Rows) (*wire.Project, error) {
	var (
		p                                wire.Project
		deadline, completedAt, deletedAt sql.NullTime
		tags                             []byte
	)
	err := rows.Scan(&p.ID, &p.Title, &p.Memo, &tags, &p.Priority, &deadline,
		&p.SortOrder, &p.IsCompleted, &completedAt, &p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if deadline.Valid {
		p.Deadline = &deadline.Time
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Time
	}
	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return &p, nil
}
