package app

import (
	"gorm.io/gorm"

	"github.com/tidecrest/aquafarm-backend/internal/clients/redis"
	"github.com/tidecrest/aquafarm-backend/internal/data/aggregates"
	"github.com/tidecrest/aquafarm-backend/internal/data/repos"
	"github.com/tidecrest/aquafarm-backend/internal/observability"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
	"github.com/tidecrest/aquafarm-backend/internal/reference"
	"github.com/tidecrest/aquafarm-backend/internal/services"
)

type Services struct {
	Batches     services.BatchService
	Allocations services.AllocationService
	Operations  services.OperationService
	Metrics     services.MetricsService
	Snapshots   services.SnapshotService
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet repos.Set, catalog *reference.Catalog, alerts redis.AlertBus, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}.WithDefaults()
	return Services{
		Batches: services.NewBatchService(services.BatchServiceDeps{
			Base:    base,
			Repos:   reposet,
			Species: catalog,
		}),
		Allocations: services.NewAllocationService(services.AllocationServiceDeps{
			Base:       base,
			Repos:      reposet,
			Containers: catalog,
			Alerts:     alerts,
			Metrics:    metrics,
		}),
		Operations: services.NewOperationService(services.OperationServiceDeps{
			Base:       base,
			Repos:      reposet,
			Containers: catalog,
			Alerts:     alerts,
			Metrics:    metrics,
		}),
		Metrics: services.NewMetricsService(services.MetricsServiceDeps{
			Base:    base,
			Repos:   reposet,
			Species: catalog,
		}),
		Snapshots: services.NewSnapshotService(db, log, reposet, catalog),
	}
}
