package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsp(s string) *time.Time {
	t := ts(s)
	return &t
}

func sampleTask() *Task {
	return &Task{
		ID:                "t-1",
		Title:             "Write report",
		Memo:              "quarterly numbers",
		GtdList:           ListNextActions,
		Priority:          PriorityHigh,
		Deadline:          tsp("2024-03-01T12:00:00Z"),
		CalendarSlotStart: tsp("2024-02-20T09:00:00Z"),
		CalendarSlotEnd:   tsp("2024-02-20T10:00:00Z"),
		CalendarSlots: []CalendarSlot{
			{ID: "s-1", Start: ts("2024-02-20T09:00:00Z"), End: ts("2024-02-20T10:00:00Z")},
		},
		Tags:        []string{"work", "report"},
		ProjectID:   "p-1",
		SortOrder:   3,
		IsCompleted: false,
		CreatedAt:   ts("2024-01-01T00:00:00Z"),
		UpdatedAt:   ts("2024-02-01T00:00:00Z"),
	}
}

func TestTaskToWire_RoundTrip(t *testing.T) {
	orig := sampleTask()

	got := TaskFromWire(ptr(TaskToWire(orig)))
	assert.Equal(t, orig, got)
}

func ptr[T any](v T) *T { return &v }

func TestTaskToWire_NullableFields(t *testing.T) {
	task := &Task{
		ID:        "t-2",
		Title:     "bare",
		GtdList:   ListInbox,
		Priority:  PriorityLow,
		CreatedAt: ts("2024-01-01T00:00:00Z"),
		UpdatedAt: ts("2024-01-01T00:00:00Z"),
	}

	w := TaskToWire(task)
	require.Nil(t, w.Deadline)
	require.Nil(t, w.ProjectID)
	require.Nil(t, w.DeletedAt)
	require.NotNil(t, w.Tags)
	require.NotNil(t, w.CalendarSlots)

	// the JSON form must carry explicit nulls and empty arrays
	b, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"deadline":null`)
	assert.Contains(t, string(b), `"project_id":null`)
	assert.Contains(t, string(b), `"tags":[]`)
	assert.Contains(t, string(b), `"calendar_slots":[]`)
}

func TestTaskFromWire_ParsesTimestamps(t *testing.T) {
	raw := []byte(`{
		"id": "t-3", "title": "from server", "memo": "",
		"gtd_list": "calendar", "priority": "urgent",
		"deadline": "2024-05-01T00:00:00Z",
		"calendar_slot_start": null, "calendar_slot_end": null,
		"calendar_slots": [{"id":"s-9","start":"2024-04-01T08:00:00Z","end":"2024-04-01T09:00:00Z"}],
		"tags": null, "project_id": null, "sort_order": 0,
		"is_completed": true, "completed_at": "2024-04-02T00:00:00Z",
		"created_at": "2024-01-01T00:00:00Z",
		"updated_at": "2024-04-02T00:00:00Z",
		"deleted_at": null
	}`)

	var w wire.Task
	require.NoError(t, json.Unmarshal(raw, &w))

	task := TaskFromWire(&w)
	require.NotNil(t, task.Deadline)
	assert.Equal(t, ts("2024-05-01T00:00:00Z"), *task.Deadline)
	assert.Nil(t, task.CalendarSlotStart)
	assert.Nil(t, task.DeletedAt)
	assert.Equal(t, "", task.ProjectID)
	assert.Equal(t, []string{}, task.Tags)
	require.Len(t, task.CalendarSlots, 1)
	assert.Equal(t, "s-9", task.CalendarSlots[0].ID)
	require.NotNil(t, task.CompletedAt)
}

func TestProjectToWire_RoundTrip(t *testing.T) {
	orig := &Project{
		ID:          "p-1",
		Title:       "Spring cleaning",
		Memo:        "",
		Tags:        []string{"home"},
		Priority:    PriorityMedium,
		Deadline:    tsp("2024-06-01T00:00:00Z"),
		SortOrder:   1,
		IsCompleted: true,
		CompletedAt: tsp("2024-05-20T00:00:00Z"),
		CreatedAt:   ts("2024-01-01T00:00:00Z"),
		UpdatedAt:   ts("2024-05-20T00:00:00Z"),
	}

	got := ProjectFromWire(ptr(ProjectToWire(orig)))
	assert.Equal(t, orig, got)
}
