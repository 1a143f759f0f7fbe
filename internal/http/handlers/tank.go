package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tidecrest/aquafarm-backend/internal/http/response"
	"github.com/tidecrest/aquafarm-backend/internal/services"
)

type TankHandler struct {
	snapshots services.SnapshotService
}

func NewTankHandler(snapshots services.SnapshotService) *TankHandler {
	return &TankHandler{snapshots: snapshots}
}

// GET /api/tanks/:id/snapshot
func (h *TankHandler) GetSnapshot(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	tankID, ok := idParam(c, "invalid_tank_id")
	if !ok {
		return
	}
	snapshot, err := h.snapshots.GetTankSnapshot(c.Request.Context(), tenantID, tankID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"snapshot": snapshot})
}

// GET /api/tanks/:id/density
func (h *TankHandler) GetDensity(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	tankID, ok := idParam(c, "invalid_tank_id")
	if !ok {
		return
	}
	density, err := h.snapshots.GetTankDensity(c.Request.Context(), tenantID, tankID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"density": density})
}
