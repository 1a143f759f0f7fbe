package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tidecrest/aquafarm-backend/internal/http/response"
	"github.com/tidecrest/aquafarm-backend/internal/platform/ctxutil"
)

// tenantFrom pulls the tenant resolved by the tenant middleware. Responds
// 401 and returns false when the request carries no tenant context.
func tenantFrom(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing tenant context"))
		return uuid.Nil, false
	}
	tenantID, err := uuid.Parse(rd.TenantID)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return uuid.Nil, false
	}
	return tenantID, true
}

// actorFrom returns the acting user when the header was supplied, uuid.Nil
// otherwise. Operations tolerate an absent actor.
func actorFrom(c *gin.Context) uuid.UUID {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.ActorID == "" {
		return uuid.Nil
	}
	actorID, err := uuid.Parse(rd.ActorID)
	if err != nil {
		return uuid.Nil
	}
	return actorID
}

func idParam(c *gin.Context, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}
