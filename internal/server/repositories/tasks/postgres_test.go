package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func sampleTask() *wire.Task {
	projectID := "p1"
	deadline := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	return &wire.Task{
		ID:            "t1",
		Title:         "write report",
		GtdList:       "next_actions",
		Priority:      "high",
		Deadline:      &deadline,
		CalendarSlots: []wire.CalendarSlot{},
		Tags:          []string{"work"},
		ProjectID:     &projectID,
		SortOrder:     2,
		CreatedAt:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestUpsert_InsertsWholeRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)INSERT INTO tasks .*ON CONFLICT \(id, user_id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), 7, sampleTask()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO tasks`).WillReturnError(errors.New("broken pipe"))

	err := repo.Upsert(context.Background(), 7, sampleTask())
	assert.ErrorContains(t, err, "db error")
}

func TestListUpdatedSince_ScansAllFields(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "title", "memo", "gtd_list", "priority", "deadline",
		"calendar_slot_start", "calendar_slot_end", "calendar_slots", "tags",
		"project_id", "sort_order", "is_completed", "completed_at",
		"created_at", "updated_at", "deleted_at",
	}).AddRow(
		"t1", "write report", "", "next_actions", "high", nil,
		nil, nil, []byte(`[{"id":"s1","start":"2025-06-02T09:00:00Z","end":"2025-06-02T11:00:00Z"}]`), []byte(`["work"]`),
		"p1", 2, false, nil,
		since, updated, nil,
	)
	mock.ExpectQuery(`(?s)SELECT .* FROM tasks\s+WHERE user_id = \$1 AND updated_at > \$2`).
		WithArgs(int64(7), since).
		WillReturnRows(rows)

	got, err := repo.ListUpdatedSince(context.Background(), 7, since)

	require.NoError(t, err)
	require.Len(t, got, 1)
	task := got[0]
	assert.Equal(t, "t1", task.ID)
	assert.Nil(t, task.Deadline)
	require.NotNil(t, task.ProjectID)
	assert.Equal(t, "p1", *task.ProjectID)
	require.Len(t, task.CalendarSlots, 1)
	assert.Equal(t, "s1", task.CalendarSlots[0].ID)
	assert.Equal(t, []string{"work"}, task.Tags)
	assert.True(t, task.UpdatedAt.Equal(updated))
	assert.Nil(t, task.DeletedAt)
}

func TestListUpdatedSince_EmptyResult(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	since := time.Now().UTC()
	mock.ExpectQuery(`(?s)SELECT .* FROM tasks`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.ListUpdatedSince(context.Background(), 7, since)
	require.NoError(t, err)
	assert.Empty(t, got)
}
