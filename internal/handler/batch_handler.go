package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tikrar-dev/tikrar-api/internal/models"
	"github.com/tikrar-dev/tikrar-api/pkg/response"
)

type batchService interface {
	List(ctx context.Context) ([]models.Batch, error)
	Get(ctx context.Context, id string) (*models.Batch, error)
}

// BatchHandler exposes program batch lookups.
type BatchHandler struct {
	service batchService
}

// NewBatchHandler creates a new handler.
func NewBatchHandler(svc batchService) *BatchHandler {
	return &BatchHandler{service: svc}
}

// List godoc
// @Summary List batches
// @Tags Batches
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	res, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Get godoc
// @Summary Get a batch
// @Tags Batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /batches/{id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
