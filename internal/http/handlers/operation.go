package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tidecrest/aquafarm-backend/internal/data/repos"
	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/http/response"
	"github.com/tidecrest/aquafarm-backend/internal/services"
)

type OperationHandler struct {
	operations services.OperationService
}

func NewOperationHandler(operations services.OperationService) *OperationHandler {
	return &OperationHandler{operations: operations}
}

// POST /api/batches/:id/operations
func (h *OperationHandler) RecordOperation(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	var in services.RecordOperationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	in.BatchID = batchID
	in.ActorID = actorFrom(c)
	res, err := h.operations.Record(c.Request.Context(), tenantID, in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// POST /api/batches/:id/transfers
func (h *OperationHandler) Transfer(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	var in services.TransferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	in.BatchID = batchID
	in.ActorID = actorFrom(c)
	res, err := h.operations.Transfer(c.Request.Context(), tenantID, in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/batches/:id/operations
func (h *OperationHandler) ListOperations(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	filter, err := operationFilterFromQuery(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_filter", err)
		return
	}
	operations, err := h.operations.ListByBatch(c.Request.Context(), tenantID, batchID, filter)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"operations": operations})
}

func operationFilterFromQuery(c *gin.Context) (repos.OperationFilter, error) {
	var filter repos.OperationFilter
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			opType := types.OperationType(strings.ToUpper(strings.TrimSpace(part)))
			if !opType.IsValid() {
				return filter, errors.New("unknown operation type " + strconv.Quote(string(opType)))
			}
			filter.Types = append(filter.Types, opType)
		}
	}
	if raw := strings.TrimSpace(c.Query("tank_id")); raw != "" {
		tankID, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("tank_id must be a uuid")
		}
		filter.TankID = &tankID
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}
