// Package tasks stores user-scoped task rows in their wire form.
package tasks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

// Repository describes server-side task persistence. Upsert replaces the
// whole row, which is what gives the sync protocol its last-writer-wins
// semantics.
type Repository interface {
	Upsert(ctx context.Context, userID int64, t *wire.Task) error
	ListUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]wire.Task, error)
}
