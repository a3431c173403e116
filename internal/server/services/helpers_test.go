package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/common"
	"github.com/dmitrijs2005/gtdkeeper/internal/logging"
	"github.com/dmitrijs2005/gtdkeeper/internal/server/models"
	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type userKey struct {
	userID int64
	id     string
}

// fakeTaskRepo is an in-memory tasks.Repository.
type fakeTaskRepo struct {
	rows      map[userKey]wire.Task
	upsertErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{rows: make(map[userKey]wire.Task)}
}

func (f *fakeTaskRepo) Upsert(ctx context.Context, userID int64, t *wire.Task) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[userKey{userID, t.ID}] = *t
	return nil
}

func (f *fakeTaskRepo) ListUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]wire.Task, error) {
	var out []wire.Task
	for k, t := range f.rows {
		if k.userID == userID && t.UpdatedAt.After(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeProjectRepo is an in-memory projects.Repository.
type fakeProjectRepo struct {
	rows map[userKey]wire.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{rows: make(map[userKey]wire.Project)}
}

func (f *fakeProjectRepo) Upsert(ctx context.Context, userID int64, p *wire.Project) error {
	f.rows[userKey{userID, p.ID}] = *p
	return nil
}

func (f *fakeProjectRepo) ListUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]wire.Project, error) {
	var out []wire.Project
	for k, p := range f.rows {
		if k.userID == userID && p.UpdatedAt.After(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

// passthroughTx runs fn directly against the given repos, no transaction.
func passthroughTx(r Repos) TxRunner {
	return func(ctx context.Context, fn func(Repos) error) error {
		return fn(r)
	}
}

// fakeUserRepo is an in-memory users.Repository.
type fakeUserRepo struct {
	byDigest map[string]*models.User
	nextID   int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byDigest: make(map[string]*models.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, pinDigest string) (*models.User, error) {
	if _, ok := f.byDigest[pinDigest]; ok {
		return nil, errors.New("duplicate digest")
	}
	u := &models.User{ID: f.nextID, PinDigest: pinDigest, CreatedAt: time.Now().UTC()}
	f.nextID++
	f.byDigest[pinDigest] = u
	return u, nil
}

func (f *fakeUserRepo) GetByPinDigest(ctx context.Context, pinDigest string) (*models.User, error) {
	u, ok := f.byDigest[pinDigest]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}
