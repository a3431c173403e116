// Package models defines the client-side domain entities: tasks, projects,
// outbox entries and sync state. All entities carry client-generated ids so
// they can be created offline and reconciled with the server later.
package models

import "time"

// GtdList identifies the list a task currently lives on.
type GtdList string

const (
	ListInbox        GtdList = "inbox"
	ListNextActions  GtdList = "next_actions"
	ListWaitingFor   GtdList = "waiting_for"
	ListCalendar     GtdList = "calendar"
	ListSomedayMaybe GtdList = "someday_maybe"
	ListReference    GtdList = "reference"
	ListTrash        GtdList = "trash"
	ListCompleted    GtdList = "completed"
)

// Priority is the user-assigned urgency of a task or project.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// CalendarSlot is a scheduled time range attached to a task. A task can hold
// several slots (recurring work blocks for the same item).
type CalendarSlot struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Task is a single GTD item.
//
// UpdatedAt is stamped on every local mutation and drives last-writer-wins
// resolution during sync. DeletedAt is a soft-delete mark; rows are only
// physically removed by the explicit purge operations (empty trash, clear
// completed).
type Task struct {
	ID                string
	Title             string
	Memo              string
	GtdList           GtdList
	Priority          Priority
	Deadline          *time.Time
	CalendarSlotStart *time.Time
	CalendarSlotEnd   *time.Time
	CalendarSlots     []CalendarSlot
	Tags              []string
	ProjectID         string // empty when the task belongs to no project
	SortOrder         int
	IsCompleted       bool
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// TaskInput carries the user-provided fields for a new task. The remaining
// fields (id, sort order, timestamps) are assigned by the task service.
type TaskInput struct {
	Title             string
	Memo              string
	GtdList           GtdList
	Priority          Priority
	Deadline          *time.Time
	CalendarSlotStart *time.Time
	CalendarSlotEnd   *time.Time
	Tags              []string
	ProjectID         string
}

// TaskUpdate is a partial update; nil fields are left unchanged. The Clear*
// flags reset the corresponding nullable timestamp to null, since a nil
// pointer already means "no change".
type TaskUpdate struct {
	Title             *string
	Memo              *string
	GtdList           *GtdList
	Priority          *Priority
	Deadline          *time.Time
	ClearDeadline     bool
	CalendarSlotStart *time.Time
	CalendarSlotEnd   *time.Time
	ClearCalendarSlot bool
	Tags              *[]string
	ProjectID         *string
	SortOrder         *int
}
