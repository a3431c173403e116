// Package projects stores user-scoped project rows in their wire form.
package projects

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

// Repository describes server-side project persistence.
type Repository interface {
	Upsert(ctx context.Context, userID int64, p *wire.Project) error
	ListUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]wire.Project, error)
}
