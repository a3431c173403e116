package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/projects"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/tasks"
	"github.com/dmitrijs2005/gtdkeeper/internal/logging"
)

// ProjectService implements project mutations. Deleting a project cascades
// a soft delete over its tasks; every touched entity gets its own outbox
// entry so the server sees the full effect.
type ProjectService struct {
	repo   projects.Repository
	tasks  tasks.Repository
	outbox outbox.Repository
	engine SyncTrigger
	log    logging.Logger

	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

func NewProjectService(repo projects.Repository, tr tasks.Repository, ob outbox.Repository,
	engine SyncTrigger, log logging.Logger) *ProjectService {
	return &ProjectService{
		repo:   repo,
		tasks:  tr,
		outbox: ob,
		engine: engine,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func (s *ProjectService) enqueue(ctx context.Context, p *models.Project, action models.SyncAction) {
	data, err := json.Marshal(models.ProjectToWire(p))
	if err != nil {
		s.log.Error(ctx, "encoding project for outbox failed", "id", p.ID, "error", err)
		return
	}
	if err := s.outbox.Enqueue(ctx, models.EntityProject, p.ID, action, data); err != nil {
		s.log.Error(ctx, "enqueueing project failed", "id", p.ID, "error", err)
	}
}

func (s *ProjectService) enqueueTask(ctx context.Context, t *models.Task) {
	data, err := json.Marshal(models.TaskToWire(t))
	if err != nil {
		s.log.Error(ctx, "encoding task for outbox failed", "id", t.ID, "error", err)
		return
	}
	if err := s.outbox.Enqueue(ctx, models.EntityTask, t.ID, models.ActionUpdate, data); err != nil {
		s.log.Error(ctx, "enqueueing task failed", "id", t.ID, "error", err)
	}
}

// store commits the project, re-reads the stored row and records that
// snapshot in the outbox.
func (s *ProjectService) store(ctx context.Context, p *models.Project, action models.SyncAction) (*models.Project, error) {
	if err := s.repo.CreateOrUpdate(ctx, p); err != nil {
		return nil, err
	}
	stored, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.enqueue(ctx, stored, action)
	return stored, nil
}

// Create makes a new project at the end of the project list.
func (s *ProjectService) Create(ctx context.Context, input models.ProjectInput) (*models.Project, error) {
	if input.Title == "" {
		return nil, ErrEmptyTitle
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

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	p := &models.Project{
		ID:        s.newID(),
		Title:     input.Title,
		Memo:      input.Memo,
		Tags:      tags,
		Priority:  priority,
		Deadline:  input.Deadline,
		SortOrder: count,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, err := s.store(ctx, p, models.ActionCreate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// Update applies a partial update to a project.
func (s *ProjectService) Update(ctx context.Context, id string, upd models.ProjectUpdate) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, ErrEmptyTitle
		}
		p.Title = *upd.Title
	}
	if upd.Memo != nil {
		p.Memo = *upd.Memo
	}
	if upd.Tags != nil {
		p.Tags = *upd.Tags
	}
	if upd.Priority != nil {
		p.Priority = *upd.Priority
	}
	if upd.Deadline != nil {
		p.Deadline = upd.Deadline
	}
	if upd.ClearDeadline {
		p.Deadline = nil
	}
	if upd.SortOrder != nil {
		p.SortOrder = *upd.SortOrder
	}
	p.UpdatedAt = s.now()

	stored, err := s.store(ctx, p, models.ActionUpdate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// Delete soft-deletes a project and all its tasks, then records one outbox
// entry per touched entity.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	taskIDs, err := s.repo.SoftDeleteCascade(ctx, id, now)
	if err != nil {
		return err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.enqueue(ctx, p, models.ActionUpdate)
	for _, taskID := range taskIDs {
		t, err := s.tasks.GetByID(ctx, taskID)
		if err != nil {
			s.log.Warn(ctx, "cascaded task vanished before enqueue", "id", taskID, "error", err)
			continue
		}
		s.enqueueTask(ctx, t)
	}
	s.engine.Trigger()
	return nil
}

// CheckAndAutoComplete reconciles a project's completion flag with its
// tasks: a project with at least one task becomes completed when every task
// is done, and reverts to pending when any task is reopened. Returns the
// project's resulting state, or nil if the project has no tasks.
func (s *ProjectService) CheckAndAutoComplete(ctx context.Context, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	list, err := s.tasks.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	allDone := true
	for _, t := range list {
		if !t.IsCompleted {
			allDone = false
			break
		}
	}
	if allDone == p.IsCompleted {
		return p, nil
	}

	now := s.now()
	p.IsCompleted = allDone
	if allDone {
		p.CompletedAt = &now
	} else {
		p.CompletedAt = nil
	}
	p.UpdatedAt = now
	stored, err := s.store(ctx, p, models.ActionUpdate)
	if err != nil {
		return nil, err
	}
	s.engine.Trigger()
	return stored, nil
}

// Get returns one project by id.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns non-deleted projects in sort order.
func (s *ProjectService) List(ctx context.Context) ([]*models.Project, error) {
	return s.repo.List(ctx)
}
