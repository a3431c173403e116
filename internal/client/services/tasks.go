package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/tasks"
	"github.com/dmitrijs2005/gtdkeeper/internal/common"
	"github.com/dmitrijs2005/gtdkeeper/internal/logging"
)

var ErrEmptyTitle = errors.New("title must not be empty")

// TaskService implements all task mutations. Every successful mutation is
// persisted locally first, then recorded in the outbox, then a sync attempt
// is triggered. The purge operations are local-only and bypass the outbox.
type TaskService struct {
	repo   tasks.Repository
	outbox outbox.Repository
	engine SyncTrigger
	log    logging.Logger

	// mu serializes read-modify-write mutations so two concurrent updates
	// cannot interleave between read and write.
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

func NewTaskService(repo tasks.Repository, ob outbox.Repository, engine SyncTrigger, log logging.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		outbox: ob,
		engine: engine,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// enqueue records the task's full current state in the outbox. The local
// mutation has already been committed at this point, so an outbox failure
// is logged rather than returned: the data is safe, only sync is delayed.
func (s *TaskService) enqueue(ctx context.Context, t *models.Task, action models.SyncAction) {
	data, err := json.Marshal(models.TaskToWire(t))
	if err != nil {
		s.log.Error(ctx, "encoding task for outbox failed", "id", t.ID, "error", err)
		return
	}
	if err := s.outbox.Enqueue(ctx, models.EntityTask, t.ID, action, data); err != nil {
		s.log.Error(ctx, "enqueueing task failed", "id", t.ID, "error", err)
	}
}

// store commits the task, re-reads the stored row and records that snapshot
// in the outbox, so the enqueued wire form always matches what is on disk.
func (s *TaskService) store(ctx context.Context, t *models.Task, action models.SyncAction) (*models.Task, error) {
	if err := s.repo.CreateOrUpdate(ctx, t); err != nil {
		return nil, err
	}
	stored, err := s.repo.GetByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	s.enqueue(ctx, stored, action)
	return stored, nil
}

// Create makes a new task at the end of its list.
func (s *TaskService) Create(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, ErrEmptyTitle
	}
	list := input.GtdList
	if list == "" {
		list = models.ListInbox
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.repo.CountByList(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("counting list %s: %w", list, err)
	}

	now := s.now()
	t := &models.Task{
		ID:                s.newID(),
		Title:             input.Title,
		Memo:              input.Memo,
		GtdList:           list,
		Priority:          priority,
		Deadline:          input.Deadline,
		CalendarSlotStart: input.CalendarSlotStart,
		CalendarSlotEnd:   input.CalendarSlotEnd,
		CalendarSlots:     []models.CalendarSlot{},
		Tags:              tags,
		ProjectID:         input.ProjectID,
		SortOrder:         count,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	stored, err := s.store(ctx, t, models.ActionCreate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// Update applies a partial update to a task.
func (s *TaskService) Update(ctx context.Context, id string, upd models.TaskUpdate) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, ErrEmptyTitle
		}
		t.Title = *upd.Title
	}
	if upd.Memo != nil {
		t.Memo = *upd.Memo
	}
	if upd.GtdList != nil {
		t.GtdList = *upd.GtdList
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.Deadline != nil {
		t.Deadline = upd.Deadline
	}
	if upd.ClearDeadline {
		t.Deadline = nil
	}
	if upd.CalendarSlotStart != nil {
		t.CalendarSlotStart = upd.CalendarSlotStart
	}
	if upd.CalendarSlotEnd != nil {
		t.CalendarSlotEnd = upd.CalendarSlotEnd
	}
	if upd.ClearCalendarSlot {
		t.CalendarSlotStart = nil
		t.CalendarSlotEnd = nil
	}
	if upd.Tags != nil {
		t.Tags = *upd.Tags
	}
	if upd.ProjectID != nil {
		t.ProjectID = *upd.ProjectID
	}
	if upd.SortOrder != nil {
		t.SortOrder = *upd.SortOrder
	}
	t.UpdatedAt = s.now()

	stored, err := s.store(ctx, t, models.ActionUpdate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// Delete moves a task to the trash by stamping its soft-delete mark. The
// row stays in the store until the trash is emptied.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := s.now()
	t.DeletedAt = &now
	t.UpdatedAt = now
	if _, err := s.store(ctx, t, models.ActionUpdate); err != nil {
		return err
	}
	s.engine.Trigger()
	return nil
}

// Complete marks a task done and moves it to the completed list.
func (s *TaskService) Complete(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	t.IsCompleted = true
	t.CompletedAt = &now
	t.GtdList = models.ListCompleted
	t.UpdatedAt = now
	stored, err := s.store(ctx, t, models.ActionUpdate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// Uncomplete reverts a completed task to pending on the given target list.
func (s *TaskService) Uncomplete(ctx context.Context, id string, targetList models.GtdList) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.IsCompleted = false
	t.CompletedAt = nil
	t.GtdList = targetList
	t.UpdatedAt = s.now()
	stored, err := s.store(ctx, t, models.ActionUpdate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// Move puts a task at the end of another list.
func (s *TaskService) Move(ctx context.Context, id string, list models.GtdList) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountByList(ctx, list)
	if err != nil {
		return nil, err
	}
	t.GtdList = list
	t.SortOrder = count
	t.UpdatedAt = s.now()
	stored, err := s.store(ctx, t, models.ActionUpdate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// Reorder assigns sort positions following the given id order and records
// every touched task in the outbox.
func (s *TaskService) Reorder(ctx context.Context, orderedIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Reorder(ctx, orderedIDs, s.now()); err != nil {
		return err
	}
	for _, id := range orderedIDs {
		t, err := s.repo.GetByID(ctx, id)
		if err != nil {
			s.log.Warn(ctx, "reordered task vanished before enqueue", "id", id, "error", err)
			continue
		}
		s.enqueue(ctx, t, models.ActionUpdate)
	}
	s.engine.Trigger()
	return nil
}

// AddCalendarSlot attaches a new scheduled time range to a task.
func (s *TaskService) AddCalendarSlot(ctx context.Context, taskID string, start, end time.Time) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	t.CalendarSlots = append(t.CalendarSlots, models.CalendarSlot{ID: s.newID(), Start: start, End: end})
	t.UpdatedAt = s.now()
	stored, err := s.store(ctx, t, models.ActionUpdate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// UpdateCalendarSlot changes the time range of an existing slot.
func (s *TaskService) UpdateCalendarSlot(ctx context.Context, taskID, slotID string, start, end time.Time) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range t.CalendarSlots {
		if t.CalendarSlots[i].ID == slotID {
			t.CalendarSlots[i].Start = start
			t.CalendarSlots[i].End = end
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("calendar slot %s: %w", slotID, common.ErrNotFound)
	}
	t.UpdatedAt = s.now()
	stored, err := s.store(ctx, t, models.ActionUpdate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// RemoveCalendarSlot detaches a slot from a task.
func (s *TaskService) RemoveCalendarSlot(ctx context.Context, taskID, slotID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	kept := make([]models.CalendarSlot, 0, len(t.CalendarSlots))
	for _, slot := range t.CalendarSlots {
		if slot.ID != slotID {
			kept = append(kept, slot)
		}
	}
	if len(kept) == len(t.CalendarSlots) {
		return nil, fmt.Errorf("calendar slot %s: %w", slotID, common.ErrNotFound)
	}
	t.CalendarSlots = kept
	t.UpdatedAt = s.now()
	stored, err := s.store(ctx, t, models.ActionUpdate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// PermanentlyDelete removes a task row for good. Not recorded in the
// outbox: hard removals stay local.
func (s *TaskService) PermanentlyDelete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteByIDs(ctx, []string{id})
}

// EmptyTrash drops every soft-deleted task. Local-only.
func (s *TaskService) EmptyTrash(ctx context.Context) (int64, error) {
	return s.repo.PurgeTrashed(ctx)
}

// ClearCompleted drops every completed task. Local-only.
func (s *TaskService) ClearCompleted(ctx context.Context) (int64, error) {
	return s.repo.PurgeCompleted(ctx)
}

// Get returns one task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the tasks of a list in sort order. An empty list filter
// returns all non-deleted tasks.
func (s *TaskService) List(ctx context.Context, list models.GtdList) ([]*models.Task, error) {
	return s.repo.List(ctx, list)
}

// ListByProject returns a project's tasks in sort order.
func (s *TaskService) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	return s.repo.ListByProject(ctx, projectID)
}
