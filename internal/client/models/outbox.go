package models

import (
	"encoding/json"
	"time"
)

// SyncEntityType names the kind of entity an outbox entry refers to.
type SyncEntityType string

const (
	EntityTask    SyncEntityType = "task"
	EntityProject SyncEntityType = "project"
)

// SyncAction is the operation an outbox entry represents. Soft deletes and
// completions travel as ActionUpdate; ActionDelete is reserved for hard
// removals, which the current design does not enqueue.
type SyncAction string

const (
	ActionCreate SyncAction = "create"
	ActionUpdate SyncAction = "update"
	ActionDelete SyncAction = "delete"
)

// OutboxEntry is one pending local mutation awaiting transmission.
//
// Data holds the entity's full wire-form snapshot as of enqueue time, not a
// diff. Entries are append-only: after creation only the Synced flag ever
// changes, false → true, when a round-trip acknowledges the entry.
type OutboxEntry struct {
	SequenceID int64
	EntityType SyncEntityType
	EntityID   string
	Action     SyncAction
	Data       json.RawMessage
	EnqueuedAt time.Time
	Synced     bool
}

// SyncStatus is the ephemeral state of the sync engine as shown to the user.
type SyncStatus string

const (
	StatusSynced  SyncStatus = "synced"
	StatusSyncing SyncStatus = "syncing"
	StatusOffline SyncStatus = "offline"
	StatusError   SyncStatus = "error"
)
