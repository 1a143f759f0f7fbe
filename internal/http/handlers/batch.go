package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tidecrest/aquafarm-backend/internal/data/repos"
	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/http/response"
	"github.com/tidecrest/aquafarm-backend/internal/services"
)

type BatchHandler struct {
	batches services.BatchService
}

func NewBatchHandler(batches services.BatchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// POST /api/batches
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	var in services.CreateBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	batch, err := h.batches.Create(c.Request.Context(), tenantID, in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"batch": batch})
}

// GET /api/batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	filter, err := batchFilterFromQuery(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_filter", err)
		return
	}
	batches, err := h.batches.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"batches": batches})
}

// GET /api/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	batch, err := h.batches.GetByID(c.Request.Context(), tenantID, batchID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"batch": batch})
}

// PATCH /api/batches/:id
func (h *BatchHandler) UpdateBatch(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	var in services.UpdateBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	batch, err := h.batches.Update(c.Request.Context(), tenantID, batchID, in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"batch": batch})
}

type batchReasonRequest struct {
	Reason string `json:"reason"`
}

// POST /api/batches/:id/close
func (h *BatchHandler) CloseBatch(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	var body batchReasonRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	batch, err := h.batches.Close(c.Request.Context(), tenantID, batchID, body.Reason)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"batch": batch})
}

// POST /api/batches/:id/cancel
func (h *BatchHandler) CancelBatch(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	var body batchReasonRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	batch, err := h.batches.Cancel(c.Request.Context(), tenantID, batchID, body.Reason)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"batch": batch})
}

// DELETE /api/batches/:id
func (h *BatchHandler) DeleteBatch(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	if err := h.batches.Delete(c.Request.Context(), tenantID, batchID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

func batchFilterFromQuery(c *gin.Context) (repos.BatchFilter, error) {
	var filter repos.BatchFilter
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := types.BatchStatus(strings.ToUpper(strings.TrimSpace(part)))
			if !status.IsValid() {
				return filter, errors.New("unknown status " + strconv.Quote(string(status)))
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	filter.SpeciesID = strings.TrimSpace(c.Query("species_id"))
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("active must be a boolean")
		}
		filter.IsActive = &active
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
