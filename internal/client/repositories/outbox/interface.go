// Package outbox implements the append-only local log of pending entity
// mutations awaiting transmission to the sync server.
package outbox

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"
)

// Repository describes the outbox queue contract.
//
// Entries are appended in the causal order of the mutations that produced
// them and must be returned in that same order by GetPending. An entry's
// data snapshot is the entity's full wire-form state at enqueue time.
type Repository interface {
	// Enqueue appends a new pending entry.
	Enqueue(ctx context.Context, entityType models.SyncEntityType, entityID string, action models.SyncAction, data json.RawMessage) error

	// GetPending returns all not-yet-synced entries in enqueue order.
	GetPending(ctx context.Context) ([]*models.OutboxEntry, error)

	// MarkSynced flips the given entries to synced. The batch is atomic:
	// either every id transitions or none does.
	MarkSynced(ctx context.Context, ids []int64) error

	// ClearSynced physically removes entries already marked synced.
	ClearSynced(ctx context.Context) error
}
