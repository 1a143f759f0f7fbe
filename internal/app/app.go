package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tidecrest/aquafarm-backend/internal/clients/redis"
	"github.com/tidecrest/aquafarm-backend/internal/data/db"
	"github.com/tidecrest/aquafarm-backend/internal/data/repos"
	httpx "github.com/tidecrest/aquafarm-backend/internal/http"
	"github.com/tidecrest/aquafarm-backend/internal/observability"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
	"github.com/tidecrest/aquafarm-backend/internal/reference"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpx.Server
	Router   *gin.Engine
	Cfg      Config
	Repos    repos.Set
	Services Services
	Catalog  *reference.Catalog
	Alerts   redis.AlertBus

	otelShutdown func(context.Context) error
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

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.Migrate(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	catalog, err := reference.Load(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load reference catalog: %w", err)
	}

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "aquafarm-backend",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	alerts, err := redis.NewAlertBus(log)
	if err != nil {
		log.Warn("Alert bus unavailable, capacity alerts disabled", "error", err)
		alerts = redis.NewNoopAlertBus()
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, reposet, catalog, alerts, metrics)
	handlerset := wireHandlers(log, serviceset)
	mw := wireMiddleware(log)
	srv := wireServer(log, metrics, handlerset, mw)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       srv,
		Router:       srv.Engine,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Catalog:      catalog,
		Alerts:       alerts,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.Server.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Alerts != nil {
		if err := a.Alerts.Close(); err != nil {
			a.Log.Warn("Alert bus close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
