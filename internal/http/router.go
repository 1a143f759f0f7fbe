package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/tidecrest/aquafarm-backend/internal/http/handlers"
	httpMW "github.com/tidecrest/aquafarm-backend/internal/http/middleware"
	"github.com/tidecrest/aquafarm-backend/internal/observability"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	TenantMiddleware *httpMW.TenantMiddleware

	BatchHandler      *httpH.BatchHandler
	AllocationHandler *httpH.AllocationHandler
	OperationHandler  *httpH.OperationHandler
	MetricsHandler    *httpH.MetricsHandler
	TankHandler       *httpH.TankHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.CORS())
	r.Use(otelgin.Middleware("aquafarm-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health + Prometheus scrape endpoint
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Tenant resolution
		if cfg.TenantMiddleware != nil {
			api.Use(cfg.TenantMiddleware.RequireTenant())
		}

		// Batches
		if cfg.BatchHandler != nil {
			api.POST("/batches", cfg.BatchHandler.CreateBatch)
			api.GET("/batches", cfg.BatchHandler.ListBatches)
			api.GET("/batches/:id", cfg.BatchHandler.GetBatch)
			api.PATCH("/batches/:id", cfg.BatchHandler.UpdateBatch)
			api.POST("/batches/:id/close", cfg.BatchHandler.CloseBatch)
			api.POST("/batches/:id/cancel", cfg.BatchHandler.CancelBatch)
			api.DELETE("/batches/:id", cfg.BatchHandler.DeleteBatch)
		}

		// Tank allocations
		if cfg.AllocationHandler != nil {
			api.POST("/batches/:id/allocations", cfg.AllocationHandler.CreateAllocation)
			api.GET("/batches/:id/allocations", cfg.AllocationHandler.ListAllocations)
			api.GET("/batches/:id/locations", cfg.AllocationHandler.ListLocations)
		}

		// Stock operations
		if cfg.OperationHandler != nil {
			api.POST("/batches/:id/operations", cfg.OperationHandler.RecordOperation)
			api.GET("/batches/:id/operations", cfg.OperationHandler.ListOperations)
			api.POST("/batches/:id/transfers", cfg.OperationHandler.Transfer)
		}

		// Growth + feed metrics
		if cfg.MetricsHandler != nil {
			api.POST("/batches/:id/metrics/refresh", cfg.MetricsHandler.RefreshBatchMetrics)
			api.GET("/batches/:id/metrics/projection", cfg.MetricsHandler.GetProjection)
			api.GET("/batches/:id/metrics/fcr", cfg.MetricsHandler.GetFCR)
			api.GET("/batches/:id/metrics/sgr", cfg.MetricsHandler.GetSGR)
			api.POST("/batches/:id/feed", cfg.MetricsHandler.RecordFeed)
			api.POST("/metrics/refresh", cfg.MetricsHandler.RefreshAll)
		}

		// Tank views
		if cfg.TankHandler != nil {
			api.GET("/tanks/:id/snapshot", cfg.TankHandler.GetSnapshot)
			api.GET("/tanks/:id/density", cfg.TankHandler.GetDensity)
		}
	}

	return r
}
