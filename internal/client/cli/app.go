// Package cli implements the interactive terminal client: a small REPL over
// the task, project, auth and sync services.
package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/api"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/config"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/projects"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/tasks"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/services"
	"github.com/dmitrijs2005/gtdkeeper/internal/client/storage"
	"github.com/dmitrijs2005/gtdkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config   *config.Config
	auth     *services.AuthService
	tasks    *services.TaskService
	projects *services.ProjectService
	engine   *services.SyncEngine
	api      *api.HTTPClient
	log      logging.Logger
	reader   *bufio.Reader
	closeDB  func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	metaRepo := metadata.NewSQLiteRepository(db)
	outboxRepo := outbox.NewSQLiteRepository(db)
	taskRepo := tasks.NewSQLiteRepository(db)
	projectRepo := projects.NewSQLiteRepository(db)

	pinFunc := func(ctx context.Context) string {
		v, err := metaRepo.Get(ctx, metadata.KeyAuthPin)
		if err != nil {
			return ""
		}
		return string(v)
	}
	apiClient := api.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout, pinFunc)

	engine := services.NewSyncEngine(outboxRepo, taskRepo, projectRepo, metaRepo, apiClient, cfg.RequestTimeout, log)

	return &App{
		config:   cfg,
		auth:     services.NewAuthService(apiClient, metaRepo, engine, log),
		tasks:    services.NewTaskService(taskRepo, outboxRepo, engine, log),
		projects: services.NewProjectService(projectRepo, taskRepo, outboxRepo, engine, log),
		engine:   engine,
		api:      apiClient,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		closeDB:  db.Close,
	}, nil
}

// Run starts the sync machinery in the background and hands control to the
// REPL. Returns when the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.closeDB()

	go a.engine.Run(ctx)
	go a.engine.RunOnlineWatcher(ctx, a.config.OnlineCheckInterval, a.api.Health)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.statusLine, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.auth.Pin(context.Background()) != ""
}

func (a *App) statusLine() string {
	if !a.isLoggedIn() {
		return "no pin"
	}
	return string(a.engine.Status())
}
