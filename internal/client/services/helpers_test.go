package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/projects"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/tasks"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/storage"
	"github.com/dmitrijs2005/gtdkeeper/internal/logging"
	"github.com/dmitrijs2005/gtdkeeper/internal/wire"

	_ "modernc.org/sqlite"
)

type env struct {
	outbox   outbox.Repository
	tasks    tasks.Repository
	projects projects.Repository
	meta     metadata.Repository
	log      logging.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &env{
		outbox:   outbox.NewSQLiteRepository(db),
		tasks:    tasks.NewSQLiteRepository(db),
		projects: projects.NewSQLiteRepository(db),
		meta:     metadata.NewSQLiteRepository(db),
		log:      logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
}

// fakeTransport records sync requests and serves canned responses.
type fakeTransport struct {
	mu    sync.Mutex
	calls []wire.SyncRequest

	respond func(req wire.SyncRequest) (*wire.SyncData, error)

	// when set, each call blocks until a value is received
	gate chan struct{}

	// when set, each call signals here before waiting on gate
	entered chan struct{}
}

func okResponse(req wire.SyncRequest) (*wire.SyncData, error) {
	return &wire.SyncData{ServerChanges: []wire.ChangeRecord{}, SyncAt: "2025-06-01T12:00:00Z"}, nil
}

func (f *fakeTransport) Sync(ctx context.Context, req wire.SyncRequest) (*wire.SyncData, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) call(i int) wire.SyncRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

// nopTrigger satisfies SyncTrigger for tests that exercise services in
// isolation.
type nopTrigger struct{}

func (nopTrigger) Trigger() {}

// countTrigger counts trigger firings.
type countTrigger struct {
	mu sync.Mutex
	n  int
}

func (c *countTrigger) Trigger() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countTrigger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func newEngine(e *env, transport Transport) *SyncEngine {
	eng := NewSyncEngine(e.outbox, e.tasks, e.projects, e.meta, transport, time.Second, e.log)
	eng.SetOnline(true)
	return eng
}

func storePin(t *testing.T, e *env) {
	t.Helper()
	require.NoError(t, e.meta.Set(context.Background(), metadata.KeyAuthPin, []byte("1234")))
}

func mustCreateTask(t *testing.T, svc *TaskService, title string) *models.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), models.TaskInput{Title: title})
	require.NoError(t, err)
	return task
}
