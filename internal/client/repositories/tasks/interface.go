// Package tasks provides the local SQLite store for task entities.
package tasks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"
)

// Repository describes CRUD and query operations for tasks.
//
// CreateOrUpdate is a wholesale upsert keyed by id; it is the write primitive
// for both local mutations and applying server changes (last-writer-wins).
type Repository interface {
	// CreateOrUpdate inserts the task or replaces every column of the
	// existing row with the same id.
	CreateOrUpdate(ctx context.Context, t *models.Task) error

	// GetByID returns a task by id, including soft-deleted ones.
	// Returns common.ErrNotFound if no row exists.
	GetByID(ctx context.Context, id string) (*models.Task, error)

	// List returns non-deleted tasks ordered by sort order. An empty list
	// filter returns tasks from every list.
	List(ctx context.Context, list models.GtdList) ([]*models.Task, error)

	// ListByProject returns non-deleted tasks of a project ordered by sort
	// order.
	ListByProject(ctx context.Context, projectID string) ([]*models.Task, error)

	// CountByList returns the number of non-deleted tasks on a list.
	CountByList(ctx context.Context, list models.GtdList) (int, error)

	// Reorder assigns sort_order = position for each id, stamping
	// updated_at, inside a single transaction.
	Reorder(ctx context.Context, orderedIDs []string, now time.Time) error

	// DeleteByIDs physically removes the given rows.
	DeleteByIDs(ctx context.Context, ids []string) error

	// PurgeTrashed physically removes all soft-deleted tasks and returns
	// how many rows were dropped.
	PurgeTrashed(ctx context.Context) (int64, error)

	// PurgeCompleted physically removes all completed, non-deleted tasks
	// and returns how many rows were dropped.
	PurgeCompleted(ctx context.Context) (int64, error)
}
