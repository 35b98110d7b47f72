package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tikrar-dev/tikrar-api/internal/dto"
	"github.com/tikrar-dev/tikrar-api/pkg/response"
)

type matchService interface {
	FindCandidates(ctx context.Context, userID, batchID string) (*dto.CandidatesResponse, error)
}

// MatchHandler exposes candidate scoring for system-match review.
type MatchHandler struct {
	service matchService
}

// NewMatchHandler creates a new handler.
func NewMatchHandler(svc matchService) *MatchHandler {
	return &MatchHandler{service: svc}
}

// Candidates godoc
// @Summary List scored candidates for a user
// @Description Returns compatible partners bucketed by tier, best first
// @Tags Pairing
// @Produce json
// @Param userId path string true "User ID"
// @Param batchId query string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/pairing/candidates/{userId} [get]
func (h *MatchHandler) Candidates(c *gin.Context) {
	res, err := h.service.FindCandidates(c.Request.Context(), c.Param("userId"), c.Query("batchId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
