package app

import (
	httpx "github.com/tidecrest/aquafarm-backend/internal/http"
	"github.com/tidecrest/aquafarm-backend/internal/observability"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, metrics *observability.Metrics, handlerset Handlers, mw Middleware) *httpx.Server {
	return httpx.NewServer(httpx.RouterConfig{
		Log:     log,
		Metrics: metrics,

		TenantMiddleware: mw.Tenant,

		BatchHandler:      handlerset.Batch,
		AllocationHandler: handlerset.Allocation,
		OperationHandler:  handlerset.Operation,
		MetricsHandler:    handlerset.Metrics,
		TankHandler:       handlerset.Tank,

		HealthHandler: handlerset.Health,
	})
}
