package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tikrar-dev/tikrar-api/internal/models"
	"github.com/tikrar-dev/tikrar-api/pkg/response"
)

type statisticsService interface {
	GetStatistics(ctx context.Context, batchID string) (*models.PairingStatistics, error)
}

// StatisticsHandler exposes the pairing dashboard counters.
type StatisticsHandler struct {
	service statisticsService
}

// NewStatisticsHandler creates a new handler.
func NewStatisticsHandler(svc statisticsService) *StatisticsHandler {
	return &StatisticsHandler{service: svc}
}

// GetStatistics godoc
// @Summary Pairing statistics
// @Description Returns per-mode submitted and approved counts for a batch
// @Tags Pairing
// @Produce json
// @Param batchId query string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/pairing/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	res, err := h.service.GetStatistics(c.Request.Context(), c.Query("batchId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
