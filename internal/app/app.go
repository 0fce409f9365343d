package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/skillhub-backend/internal/data/db"
	apihttp "github.com/yungbote/skillhub-backend/internal/http"
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/blob"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apihttp.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Blobs    blob.Store
	Index    vectorindex.Index
	Metrics  *observability.Metrics

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfigFromEnv(cfg.ServiceName, cfg.Environment, ""))

	a := &App{Log: log, Cfg: cfg, Metrics: metrics, otelShutdown: otelShutdown}
	fail := func(err error) (*App, error) {
		a.Close()
		return nil, err
	}

	pg, err := db.NewPostgresService(ctx, log, db.LoadPostgresConfig(log))
	if err != nil {
		return fail(fmt.Errorf("init postgres: %w", err))
	}
	a.pg, a.DB = pg, pg.DB()
	if err := db.AutoMigrateAll(a.DB); err != nil {
		return fail(fmt.Errorf("postgres automigrate: %w", err))
	}
	if err := db.EnsureSkillIndexes(a.DB, cfg.EmbeddingDim); err != nil {
		return fail(err)
	}

	if a.Clients, err = wireClients(ctx, log, cfg); err != nil {
		return fail(err)
	}
	if a.Blobs, err = resolveBlobStore(ctx, log, metrics); err != nil {
		return fail(err)
	}
	if a.Index, err = resolveVectorIndex(ctx, log, cfg, a.DB, a.Clients.HTTP, metrics); err != nil {
		return fail(err)
	}
	embedders, err := resolveEmbedders(log, cfg, a.Clients, metrics)
	if err != nil {
		return fail(fmt.Errorf("init embeddings: %w", err))
	}

	a.Repos = wireRepos(a.DB, log)
	a.Services = wireServices(log, cfg, serviceInputs{
		DB:        a.DB,
		Repos:     a.Repos,
		Clients:   a.Clients,
		Blobs:     a.Blobs,
		Index:     a.Index,
		Embedders: embedders,
		Metrics:   metrics,
	})
	handlerset := wireHandlers(log, a.DB, a.Services)
	middleware := wireMiddleware(log, a.Services)
	a.Server = wireServer(log, cfg, metrics, handlerset, middleware)
	return a, nil
}

// Start launches background collectors and, for indexes that do not persist
// across restarts, rebuilds the search index from the database.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)

	if a.Cfg.VectorProvider == string(VectorProviderMemory) || a.Cfg.ReindexOnStart {
		return a.Reindex(ctx)
	}
	return nil
}

// Reindex copies every embedding row into the configured index.
func (a *App) Reindex(ctx context.Context) error {
	start := time.Now()
	n, err := a.Services.IndexSync.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	a.Log.Info("Vector index rebuilt", "provider", a.Index.Name(), "records", n, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	if closer, ok := a.Blobs.(io.Closer); ok {
		_ = closer.Close()
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("postgres close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
