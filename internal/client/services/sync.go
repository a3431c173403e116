// Package services holds the client-side business logic: task and project
// mutations, the outbox-driven sync engine, and PIN credential management.
// Services sit between the CLI and the repositories; every mutation they
// perform is recorded in the outbox so it can reach the server later.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/projects"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/tasks"
	"github.com/dmitrijs2005/gtdkeeper/internal/logging"
	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

// epochWatermark is the watermark used before the first successful sync,
// so the initial pull returns the full server state.
const epochWatermark = "1970-01-01T00:00:00Z"

// Transport is the server round-trip dependency of the sync engine.
type Transport interface {
	Sync(ctx context.Context, req wire.SyncRequest) (*wire.SyncData, error)
}

// SyncTrigger is the part of the engine mutation services depend on. They
// fire it after every local change; the engine decides whether a round-trip
// actually happens.
type SyncTrigger interface {
	Trigger()
}

// SyncEngine drains the outbox to the server and applies server changes
// locally. At most one round-trip runs at a time; triggers arriving during
// a round-trip coalesce into a single follow-up run.
type SyncEngine struct {
	outbox    outbox.Repository
	tasks     tasks.Repository
	projects  projects.Repository
	meta      metadata.Repository
	transport Transport
	log       logging.Logger
	timeout   time.Duration

	mu        sync.Mutex
	status    models.SyncStatus
	online    bool
	inFlight  bool
	rerun     bool
	listeners map[int]func(models.SyncStatus)
	nextSubID int

	trigger chan struct{}
}

// NewSyncEngine wires the engine. The timeout bounds each server
// round-trip. The engine starts offline; call SetOnline once connectivity
// is known.
func NewSyncEngine(ob outbox.Repository, tr tasks.Repository, pr projects.Repository,
	meta metadata.Repository, transport Transport, timeout time.Duration, log logging.Logger) *SyncEngine {
	return &SyncEngine{
		outbox:    ob,
		tasks:     tr,
		projects:  pr,
		meta:      meta,
		transport: transport,
		log:       log,
		timeout:   timeout,
		status:    models.StatusOffline,
		listeners: make(map[int]func(models.SyncStatus)),
		trigger:   make(chan struct{}, 1),
	}
}

// Status returns the engine's current state.
func (e *SyncEngine) Status() models.SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Subscribe registers a status listener and immediately invokes it with the
// current status. The returned function unsubscribes.
func (e *SyncEngine) Subscribe(fn func(models.SyncStatus)) func() {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.listeners[id] = fn
	current := e.status
	e.mu.Unlock()

	fn(current)
	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *SyncEngine) setStatus(status models.SyncStatus) {
	e.mu.Lock()
	if e.status == status {
		e.mu.Unlock()
		return
	}
	e.status = status
	subs := make([]func(models.SyncStatus), 0, len(e.listeners))
	for _, fn := range e.listeners {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	// Listeners run outside the lock so they may call back into the engine.
	for _, fn := range subs {
		fn(status)
	}
}

// SetOnline records the connectivity state. Going offline flips the status
// immediately; coming online queues a sync attempt.
func (e *SyncEngine) SetOnline(online bool) {
	e.mu.Lock()
	if e.online == online {
		e.mu.Unlock()
		return
	}
	e.online = online
	e.mu.Unlock()

	if online {
		e.Trigger()
	} else {
		e.setStatus(models.StatusOffline)
	}
}

// Online reports the last recorded connectivity state.
func (e *SyncEngine) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online
}

// Trigger queues a sync attempt without blocking. Multiple triggers before
// the consumer wakes collapse into one.
func (e *SyncEngine) Trigger() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Run consumes triggers until ctx is cancelled. Intended to run in its own
// goroutine for the lifetime of the client.
func (e *SyncEngine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.trigger:
			if err := e.SyncNow(ctx); err != nil {
				e.log.Error(ctx, "sync failed", "error", err)
			}
		}
	}
}

// RunOnlineWatcher polls probe on the given interval and feeds the result
// into SetOnline. Blocks until ctx is cancelled.
func (e *SyncEngine) RunOnlineWatcher(ctx context.Context, interval time.Duration, probe func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		e.SetOnline(probe(ctx) == nil)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SyncNow performs one sync round-trip. If one is already in flight the
// call returns immediately and the in-flight run repeats itself once more
// after finishing, so no trigger is ever lost.
func (e *SyncEngine) SyncNow(ctx context.Context) error {
	e.mu.Lock()
	if e.inFlight {
		e.rerun = true
		e.mu.Unlock()
		return nil
	}
	e.inFlight = true
	e.mu.Unlock()

	for {
		err := e.runOnce(ctx)

		e.mu.Lock()
		if e.rerun {
			e.rerun = false
			e.mu.Unlock()
			continue
		}
		e.inFlight = false
		e.mu.Unlock()
		return err
	}
}

func (e *SyncEngine) runOnce(ctx context.Context) error {
	e.mu.Lock()
	online := e.online
	e.mu.Unlock()
	if !online {
		return nil
	}

	pin, err := e.meta.Get(ctx, metadata.KeyAuthPin)
	if err != nil {
		return err
	}
	if len(pin) == 0 {
		// No credential configured yet; nothing to do.
		return nil
	}

	e.setStatus(models.StatusSyncing)

	pending, err := e.outbox.GetPending(ctx)
	if err != nil {
		e.setStatus(models.StatusError)
		return err
	}

	watermark, err := e.watermark(ctx)
	if err != nil {
		e.setStatus(models.StatusError)
		return err
	}

	req := wire.SyncRequest{LastSyncAt: watermark, Changes: make([]wire.ChangeRecord, 0, len(pending))}
	ids := make([]int64, 0, len(pending))
	for _, entry := range pending {
		req.Changes = append(req.Changes, wire.ChangeRecord{
			EntityType: string(entry.EntityType),
			Action:     string(entry.Action),
			Data:       entry.Data,
		})
		ids = append(ids, entry.SequenceID)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	data, err := e.transport.Sync(callCtx, req)
	cancel()
	if err != nil {
		// Outbox and watermark stay untouched; the next run retransmits.
		e.setStatus(models.StatusError)
		return err
	}

	if len(ids) > 0 {
		if err := e.outbox.MarkSynced(ctx, ids); err != nil {
			e.setStatus(models.StatusError)
			return err
		}
		if err := e.outbox.ClearSynced(ctx); err != nil {
			e.log.Warn(ctx, "clearing synced outbox entries failed", "error", err)
		}
	}

	applied, err := e.applyServerChanges(ctx, data.ServerChanges)
	if err != nil {
		// The server never re-sends changes older than the watermark, so
		// advancing it past an unapplied change would lose that change for
		// good. Leave it; the next run pulls the same window again.
		e.setStatus(models.StatusError)
		return err
	}

	if err := e.meta.Set(ctx, metadata.KeyLastSyncAt, []byte(data.SyncAt)); err != nil {
		e.setStatus(models.StatusError)
		return err
	}

	e.setStatus(models.StatusSynced)
	e.log.Info(ctx, "sync finished", "pushed", len(ids), "applied", applied, "sync_at", data.SyncAt)
	return nil
}

func (e *SyncEngine) watermark(ctx context.Context) (string, error) {
	v, err := e.meta.Get(ctx, metadata.KeyLastSyncAt)
	if err != nil {
		return "", err
	}
	if len(v) == 0 {
		return epochWatermark, nil
	}
	return string(v), nil
}

// applyServerChanges upserts server records into the local store. Records
// of unknown entity types or with malformed payloads are skipped with a
// warning; a repository failure aborts the run so the watermark is not
// advanced past an unapplied change.
func (e *SyncEngine) applyServerChanges(ctx context.Context, changes []wire.ChangeRecord) (int, error) {
	applied := 0
	for _, ch := range changes {
		switch ch.EntityType {
		case wire.EntityTask:
			var wt wire.Task
			if err := json.Unmarshal(ch.Data, &wt); err != nil {
				e.log.Warn(ctx, "skipping malformed server task", "error", err)
				continue
			}
			if err := e.tasks.CreateOrUpdate(ctx, models.TaskFromWire(&wt)); err != nil {
				return applied, fmt.Errorf("applying server task %s: %w", wt.ID, err)
			}
			applied++
		case wire.EntityProject:
			var wp wire.Project
			if err := json.Unmarshal(ch.Data, &wp); err != nil {
				e.log.Warn(ctx, "skipping malformed server project", "error", err)
				continue
			}
			if err := e.projects.CreateOrUpdate(ctx, models.ProjectFromWire(&wp)); err != nil {
				return applied, fmt.Errorf("applying server project %s: %w", wp.ID, err)
			}
			applied++
		default:
			e.log.Warn(ctx, "skipping server change of unknown entity type", "entity_type", ch.EntityType)
		}
	}
	return applied, nil
}
