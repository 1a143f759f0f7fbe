package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tidecrest/aquafarm-backend/internal/http/response"
	"github.com/tidecrest/aquafarm-backend/internal/services"
)

type MetricsHandler struct {
	metrics services.MetricsService
}

func NewMetricsHandler(metrics services.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// POST /api/batches/:id/metrics/refresh
func (h *MetricsHandler) RefreshBatchMetrics(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	batch, err := h.metrics.UpdateBatchMetrics(c.Request.Context(), tenantID, batchID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"batch": batch})
}

// GET /api/batches/:id/metrics/projection?days=30
func (h *MetricsHandler) GetProjection(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	days := 30
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_days", err)
			return
		}
		days = parsed
	}
	projection, err := h.metrics.ProjectBiomass(c.Request.Context(), tenantID, batchID, days)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"projection": projection})
}

// GET /api/batches/:id/metrics/fcr
func (h *MetricsHandler) GetFCR(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	report, err := h.metrics.FCR(c.Request.Context(), tenantID, batchID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"fcr": report})
}

// GET /api/batches/:id/metrics/sgr
func (h *MetricsHandler) GetSGR(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	report, err := h.metrics.SGR(c.Request.Context(), tenantID, batchID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sgr": report})
}

type recordFeedRequest struct {
	FeedKg float64 `json:"feed_kg"`
}

// POST /api/batches/:id/feed
func (h *MetricsHandler) RecordFeed(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "invalid_batch_id")
	if !ok {
		return
	}
	var body recordFeedRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	batch, err := h.metrics.RecordFeed(c.Request.Context(), tenantID, batchID, body.FeedKg)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"batch": batch})
}

// POST /api/metrics/refresh
func (h *MetricsHandler) RefreshAll(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	summary, err := h.metrics.RefreshAll(c.Request.Context(), tenantID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"refresh": summary})
}
