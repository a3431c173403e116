package models

import "github.com/dmitrijs2005/gtdkeeper/internal/wire"

// The mapping functions below are the only place where local entities and
// their wire form meet. They are total: every field is mapped explicitly,
// empty collections become empty JSON arrays (never null), and an empty
// ProjectID maps to a null project_id.

// TaskToWire converts a local task into its wire form.
func TaskToWire(t *Task) wire.Task {
	slots := make([]wire.CalendarSlot, 0, len(t.CalendarSlots))
	for _, s := range t.CalendarSlots {
		slots = append(slots, wire.CalendarSlot{ID: s.ID, Start: s.Start, End: s.End})
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	var projectID *string
	if t.ProjectID != "" {
		p := t.ProjectID
		projectID = &p
	}
	return wire.Task{
		ID:                t.ID,
		Title:             t.Title,
		Memo:              t.Memo,
		GtdList:           string(t.GtdList),
		Priority:          string(t.Priority),
		Deadline:          t.Deadline,
		CalendarSlotStart: t.CalendarSlotStart,
		CalendarSlotEnd:   t.CalendarSlotEnd,
		CalendarSlots:     slots,
		Tags:              tags,
		ProjectID:         projectID,
		SortOrder:         t.SortOrder,
		IsCompleted:       t.IsCompleted,
		CompletedAt:       t.CompletedAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		DeletedAt:         t.DeletedAt,
	}
}

// TaskFromWire converts a wire task into its local form. Null timestamps
// become nil pointers, never zero times.
func TaskFromWire(w *wire.Task) *Task {
	slots := make([]CalendarSlot, 0, len(w.CalendarSlots))
	for _, s := range w.CalendarSlots {
		slots = append(slots, CalendarSlot{ID: s.ID, Start: s.Start, End: s.End})
	}
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	var projectID string
	if w.ProjectID != nil {
		projectID = *w.ProjectID
	}
	return &Task{
		ID:                w.ID,
		Title:             w.Title,
		Memo:              w.Memo,
		GtdList:           GtdList(w.GtdList),
		Priority:          Priority(w.Priority),
		Deadline:          w.Deadline,
		CalendarSlotStart: w.CalendarSlotStart,
		CalendarSlotEnd:   w.CalendarSlotEnd,
		CalendarSlots:     slots,
		Tags:              tags,
		ProjectID:         projectID,
		SortOrder:         w.SortOrder,
		IsCompleted:       w.IsCompleted,
		CompletedAt:       w.CompletedAt,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
		DeletedAt:         w.DeletedAt,
	}
}

// ProjectToWire converts a local project into its wire form.
func ProjectToWire(p *Project) wire.Project {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return wire.Project{
		ID:          p.ID,
		Title:       p.Title,
		Memo:        p.Memo,
		Tags:        tags,
		Priority:    string(p.Priority),
		Deadline:    p.Deadline,
		SortOrder:   p.SortOrder,
		IsCompleted: p.IsCompleted,
		CompletedAt: p.CompletedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		DeletedAt:   p.DeletedAt,
	}
}

// ProjectFromWire converts a wire project into its local form.
func ProjectFromWire(w *wire.Project) *Project {
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Project{
		ID:          w.ID,
		Title:       w.Title,
		Memo:        w.Memo,
		Tags:        tags,
		Priority:    Priority(w.Priority),
		Deadline:    w.Deadline,
		SortOrder:   w.SortOrder,
		IsCompleted: w.IsCompleted,
		CompletedAt: w.CompletedAt,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		DeletedAt:   w.DeletedAt,
	}
}
