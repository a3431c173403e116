// Package wire defines the JSON shapes exchanged between the client and the
// sync server. Field names follow the server's snake_case convention; all
// timestamps are RFC 3339 strings, with null for absent values.
package wire

import (
	"encoding/json"
	"time"
)

// Entity types carried in change records.
const (
	EntityTask    = "task"
	EntityProject = "project"
)

// Actions carried in change records.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Envelope is the uniform response wrapper used by every API endpoint.
// Data is left raw so callers can decode it into the endpoint-specific shape.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// ChangeRecord is one entity mutation in transit, in either direction.
// Data is the full serialized entity state, not a diff.
type ChangeRecord struct {
	EntityType string          `json:"entity_type"`
	Action     string          `json:"action"`
	Data       json.RawMessage `json:"data"`
}

// SyncRequest is the body of POST /sync.
type SyncRequest struct {
	LastSyncAt string         `json:"last_sync_at"`
	Changes    []ChangeRecord `json:"changes"`
}

// SyncData is the data payload of a successful POST /sync response.
type SyncData struct {
	ServerChanges []ChangeRecord `json:"server_changes"`
	SyncAt        string         `json:"sync_at"`
}

// PinRequest is the body of POST /auth/register and POST /auth/verify.
type PinRequest struct {
	Pin string `json:"pin"`
}

// RegisterData is the data payload of POST /auth/register.
type RegisterData struct {
	UserID int64 `json:"user_id"`
}

// VerifyData is the data payload of POST /auth/verify.
type VerifyData struct {
	UserID int64 `json:"user_id"`
	Valid  bool  `json:"valid"`
}

// CalendarSlot is a scheduled time range attached to a task.
type CalendarSlot struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Task is the wire form of a task entity.
type Task struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Memo              string         `json:"memo"`
	GtdList           string         `json:"gtd_list"`
	Priority          string         `json:"priority"`
	Deadline          *time.Time     `json:"deadline"`
	CalendarSlotStart *time.Time     `json:"calendar_slot_start"`
	CalendarSlotEnd   *time.Time     `json:"calendar_slot_end"`
	CalendarSlots     []CalendarSlot `json:"calendar_slots"`
	Tags              []string       `json:"tags"`
	ProjectID         *string        `json:"project_id"`
	SortOrder         int            `json:"sort_order"`
	IsCompleted       bool           `json:"is_completed"`
	CompletedAt       *time.Time     `json:"completed_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         *time.Time     `json:"deleted_at"`
}

// Project is the wire form of a project entity.
type Project struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Memo        string     `json:"memo"`
	Tags        []string   `json:"tags"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	SortOrder   int        `json:"sort_order"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
}
