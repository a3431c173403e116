package models

import "time"

// Project groups related tasks. Completion can be derived from its tasks
// (see ProjectService.CheckAndAutoComplete) or set directly by the user.
type Project struct {
	ID          string
	Title       string
	Memo        string
	Tags        []string
	Priority    Priority
	Deadline    *time.Time
	SortOrder   int
	IsCompleted bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// ProjectInput carries the user-provided fields for a new project.
type ProjectInput struct {
	Title    string
	Memo     string
	Tags     []string
	Priority Priority
	Deadline *time.Time
}

// ProjectUpdate is a partial update; nil fields are left unchanged.
type ProjectUpdate struct {
	Title         *string
	Memo          *string
	Tags          *[]string
	Priority      *Priority
	Deadline      *time.Time
	ClearDeadline bool
	SortOrder     *int
}
