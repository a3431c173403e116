// Package projects provides the local SQLite store for project entities.
package projects

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"
)

// Repository describes CRUD and query operations for projects.
type Repository interface {
	// CreateOrUpdate inserts the project or replaces every column of the
	// existing row with the same id.
	CreateOrUpdate(ctx context.Context, p *models.Project) error

	// GetByID returns a project by id, including soft-deleted ones.
	// Returns common.ErrNotFound if no row exists.
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// List returns non-deleted projects ordered by sort order.
	List(ctx context.Context) ([]*models.Project, error)

	// Count returns the number of non-deleted projects.
	Count(ctx context.Context) (int, error)

	// SoftDeleteCascade marks the project and all its tasks deleted in one
	// transaction and returns the ids of the tasks that were touched.
	SoftDeleteCascade(ctx context.Context, id string, now time.Time) ([]string, error)
}
