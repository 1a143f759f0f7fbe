package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tidecrest/aquafarm-backend/internal/platform/ctxutil"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

const (
	headerTenantID = "X-Tenant-ID"
	headerActorID  = "X-Actor-ID"
)

type TenantMiddleware struct {
	log *logger.Logger
}

func NewTenantMiddleware(log *logger.Logger) *TenantMiddleware {
	middlewareLogger := log.With("Middleware", "TenantMiddleware")
	return &TenantMiddleware{log: middlewareLogger}
}

// RequireTenant resolves the tenant and acting user from request headers and
// attaches them to the request context. Every /api route runs behind it.
func (tm *TenantMiddleware) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawTenant := strings.TrimSpace(c.GetHeader(headerTenantID))
		if rawTenant == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing tenant header", "code": "unauthorized"},
			})
			return
		}
		tenantID, err := uuid.Parse(rawTenant)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"message": "malformed tenant header", "code": "invalid_argument"},
			})
			return
		}
		rd := &ctxutil.RequestData{TenantID: tenantID.String()}
		if rawActor := strings.TrimSpace(c.GetHeader(headerActorID)); rawActor != "" {
			actorID, err := uuid.Parse(rawActor)
			if err != nil || actorID == uuid.Nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": gin.H{"message": "malformed actor header", "code": "invalid_argument"},
				})
				return
			}
			rd.ActorID = actorID.String()
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), rd)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
