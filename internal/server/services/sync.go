package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/dbx"
	"github.com/dmitrijs2005/gtdkeeper/internal/logging"
	"github.com/dmitrijs2005/gtdkeeper/internal/server/repositories/projects"
	"github.com/dmitrijs2005/gtdkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

var ErrBadWatermark = errors.New("invalid last_sync_at")

// Repos bundles the transaction-scoped repositories one sync exchange
// operates on.
type Repos struct {
	Tasks    tasks.Repository
	Projects projects.Repository
}

// TxRunner executes fn inside a single database transaction, handing it
// repositories bound to that transaction.
type TxRunner func(ctx context.Context, fn func(Repos) error) error

// PostgresTxRunner builds the production TxRunner on top of dbx.WithTx.
func PostgresTxRunner(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn func(Repos) error) error {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return fn(Repos{
				Tasks:    tasks.NewPostgresRepository(tx),
				Projects: projects.NewPostgresRepository(tx),
			})
		})
	}
}

// SyncService performs the sync exchange: apply the client's pushed changes,
// then return everything that changed on the server since the client's
// watermark. Both halves run in one transaction so a client never observes
// a partially applied push.
type SyncService struct {
	inTx TxRunner
	log  logging.Logger
	now  func() time.Time
}

func NewSyncService(inTx TxRunner, log logging.Logger) *SyncService {
	return &SyncService{inTx: inTx, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Sync applies req.Changes for userID and collects server-side changes
// newer than req.LastSyncAt. Rows the client just pushed are not echoed
// back. Changes with unknown entity types or malformed payloads are skipped
// with a warning; repository failures abort the whole exchange.
func (s *SyncService) Sync(ctx context.Context, userID int64, req wire.SyncRequest) (*wire.SyncData, error) {
	since, err := time.Parse(time.RFC3339, req.LastSyncAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadWatermark, req.LastSyncAt)
	}

	pushedTasks := make(map[string]bool)
	pushedProjects := make(map[string]bool)
	var data *wire.SyncData

	err = s.inTx(ctx, func(r Repos) error {
		for _, ch := range req.Changes {
			switch ch.EntityType {
			case wire.EntityTask:
				var wt wire.Task
				if err := json.Unmarshal(ch.Data, &wt); err != nil {
					s.log.Warn(ctx, "skipping malformed task change", "user_id", userID, "error", err)
					continue
				}
				if err := r.Tasks.Upsert(ctx, userID, &wt); err != nil {
					return err
				}
				pushedTasks[wt.ID] = true
			case wire.EntityProject:
				var wp wire.Project
				if err := json.Unmarshal(ch.Data, &wp); err != nil {
					s.log.Warn(ctx, "skipping malformed project change", "user_id", userID, "error", err)
					continue
				}
				if err := r.Projects.Upsert(ctx, userID, &wp); err != nil {
					return err
				}
				pushedProjects[wp.ID] = true
			default:
				s.log.Warn(ctx, "skipping change of unknown entity type", "entity_type", ch.EntityType)
			}
		}

		changedTasks, err := r.Tasks.ListUpdatedSince(ctx, userID, since)
		if err != nil {
			return err
		}
		changedProjects, err := r.Projects.ListUpdatedSince(ctx, userID, since)
		if err != nil {
			return err
		}

		changes := make([]wire.ChangeRecord, 0, len(changedTasks)+len(changedProjects))
		for i := range changedTasks {
			if pushedTasks[changedTasks[i].ID] {
				continue
			}
			payload, err := json.Marshal(&changedTasks[i])
			if err != nil {
				return fmt.Errorf("encoding task %s: %w", changedTasks[i].ID, err)
			}
			changes = append(changes, wire.ChangeRecord{EntityType: wire.EntityTask, Action: wire.ActionUpdate, Data: payload})
		}
		for i := range changedProjects {
			if pushedProjects[changedProjects[i].ID] {
				continue
			}
			payload, err := json.Marshal(&changedProjects[i])
			if err != nil {
				return fmt.Errorf("encoding project %s: %w", changedProjects[i].ID, err)
			}
			changes = append(changes, wire.ChangeRecord{EntityType: wire.EntityProject, Action: wire.ActionUpdate, Data: payload})
		}

		data = &wire.SyncData{
			ServerChanges: changes,
			SyncAt:        s.now().Format(time.RFC3339Nano),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "sync exchange finished", "user_id", userID,
		"pushed", len(req.Changes), "returned", len(data.ServerChanges))
	return data, nil
}
