package app

import (
	httpH "github.com/tidecrest/aquafarm-backend/internal/http/handlers"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type Handlers struct {
	Batch      *httpH.BatchHandler
	Allocation *httpH.AllocationHandler
	Operation  *httpH.OperationHandler
	Metrics    *httpH.MetricsHandler
	Tank       *httpH.TankHandler

	Health *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Batch:      httpH.NewBatchHandler(serviceset.Batches),
		Allocation: httpH.NewAllocationHandler(serviceset.Allocations),
		Operation:  httpH.NewOperationHandler(serviceset.Operations),
		Metrics:    httpH.NewMetricsHandler(serviceset.Metrics),
		Tank:       httpH.NewTankHandler(serviceset.Snapshots),

		Health: httpH.NewHealthHandler(),
	}
}
