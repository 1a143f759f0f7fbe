package app

import (
	httpMW "github.com/tidecrest/aquafarm-backend/internal/http/middleware"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type Middleware struct {
	Tenant *httpMW.TenantMiddleware
}

func wireMiddleware(log *logger.Logger) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Tenant: httpMW.NewTenantMiddleware(log),
	}
}
