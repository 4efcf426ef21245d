package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/db"
	"github.com/brynevale/admincore-backend/internal/http"
	"github.com/brynevale/admincore-backend/internal/observability"
	"github.com/brynevale/admincore-backend/internal/outbox"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/projection"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	server       *http.Server
	dispatcher   *outbox.Dispatcher
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg := LoadConfig()

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.New()
	}

	pg, err := db.NewPostgresService(cfg.PostgresDSN, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log, metrics)

	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		log.Sync()
		return nil, err
	}

	projectors := []projection.Projector{
		projection.NewDirectoryProjector(reposet.Views, log, metrics),
		projection.NewTemplateProjector(reposet.Views, log, metrics),
	}
	leader := outbox.NewLeader(cfg.PostgresDSN, "outbox-dispatcher", log)
	dispatcher := outbox.NewDispatcher(reposet.Outbox, projectors, clients.EventBus, leader, log, metrics, cfg.Dispatcher)

	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       server.Engine,
		server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		dispatcher:   dispatcher,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the outbox dispatcher. The HTTP server is started
// separately via Run so callers can run either side on its own.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.dispatcher != nil {
		go func() {
			if err := a.dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
				a.Log.Error("Outbox dispatcher stopped", "error", err)
			}
		}()
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	if addr == "" {
		addr = a.Cfg.ServerAddr
	}
	return a.server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Clients.EventBus != nil {
		a.Clients.EventBus.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
