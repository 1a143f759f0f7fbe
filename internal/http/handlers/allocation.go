package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidecrest/aquafarm-backend/internal/http/response"
	"github.com/tidecrest/aquafarm-backend/internal/services"
)

type AllocationHandler struct {
	allocations services.AllocationService
}

func NewAllocationHandler(allocations services.AllocationService) *AllocationHandler {
	return &AllocationHandler{allocations: allocations}
}

// POST /api/batches/:id/allocations
func (h *AllocationHandler) CreateAllocation(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	var in services.AllocateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	in.BatchID = batchID
	in.ActorID = actorFrom(c)
	res, err := h.allocations.Allocate(c.Request.Context(), tenantID, in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/batches/:id/allocations
func (h *AllocationHandler) ListAllocations(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	allocations, err := h.allocations.ListByBatch(c.Request.Context(), tenantID, batchID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"allocations": allocations})
}

// GET /api/batches/:id/locations
func (h *AllocationHandler) ListLocations(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	currentOnly := c.Query("current") == "true"
	locations, err := h.allocations.ListLocations(c.Request.Context(), tenantID, batchID, currentOnly)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"locations": locations})
}
