package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tikrar-dev/tikrar-api/internal/dto"
	"github.com/tikrar-dev/tikrar-api/internal/models"
	"github.com/tikrar-dev/tikrar-api/internal/service"
	appErrors "github.com/tikrar-dev/tikrar-api/pkg/errors"
	"github.com/tikrar-dev/tikrar-api/pkg/response"
)

type pairingService interface {
	ListRequests(ctx context.Context, batchID string) (*dto.PairingRequestsResponse, error)
	Approve(ctx context.Context, submissionID, adminID string) (*dto.MutationResult, error)
	ApproveCompanion(ctx context.Context, submissionID string, override *models.Companion, adminID string) (*dto.MutationResult, error)
	Reject(ctx context.Context, submissionID string, reason *string, adminID string) error
	CreatePairing(ctx context.Context, req service.CreatePairingRequest, adminID string) (*dto.MutationResult, error)
	ChangePartnerMode(ctx context.Context, req service.ChangePartnerModeRequest, adminID string) error
	BulkPair(ctx context.Context, batchID, adminID string) (*dto.BulkPairResult, error)
	PairingForUser(ctx context.Context, batchID, userID string) (*models.Pairing, error)
}

type rosterExporter interface {
	Generate(ctx context.Context, batchID, format string) (*service.RosterExport, error)
	Download(ctx context.Context, token string) (*service.RosterDownload, error)
}

// PairingHandler wires the pairing administration endpoints to the service.
type PairingHandler struct {
	service  pairingService
	exporter rosterExporter
}

// NewPairingHandler creates a new handler.
func NewPairingHandler(svc pairingService, exporter rosterExporter) *PairingHandler {
	return &PairingHandler{service: svc, exporter: exporter}
}

type submissionPayload struct {
	SubmissionID string `json:"submission_id" binding:"required"`
}

// ListRequests godoc
// @Summary List pairing requests
// @Description Returns the batch's unsettled submissions partitioned by partner mode
// @Tags Pairing
// @Produce json
// @Param batchId query string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/pairing/requests [get]
func (h *PairingHandler) ListRequests(c *gin.Context) {
	res, err := h.service.ListRequests(c.Request.Context(), c.Query("batchId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Approve godoc
// @Summary Approve a submission
// @Description Approves a pending submission and creates its pairing
// @Tags Pairing
// @Accept json
// @Produce json
// @Param payload body submissionPayload true "Submission"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/pairing/approve [post]
func (h *PairingHandler) Approve(c *gin.Context) {
	var payload submissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "submission_id is required"))
		return
	}

	res, err := h.service.Approve(c.Request.Context(), payload.SubmissionID, adminID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ApproveCompanion godoc
// @Summary Approve a companion submission
// @Description Approves a tarteel/family submission, optionally overriding companion details
// @Tags Pairing
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/pairing/approve-companion [post]
func (h *PairingHandler) ApproveCompanion(c *gin.Context) {
	var payload struct {
		SubmissionID string            `json:"submission_id" binding:"required"`
		Companion    *models.Companion `json:"companion,omitempty"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "submission_id is required"))
		return
	}

	res, err := h.service.ApproveCompanion(c.Request.Context(), payload.SubmissionID, payload.Companion, adminID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Reject godoc
// @Summary Reject a submission
// @Description Rejects a pending submission, leaving the student unpaired
// @Tags Pairing
// @Accept json
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/pairing/reject [post]
func (h *PairingHandler) Reject(c *gin.Context) {
	var payload struct {
		SubmissionID string  `json:"submission_id" binding:"required"`
		Reason       *string `json:"reason,omitempty"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "submission_id is required"))
		return
	}

	if err := h.service.Reject(c.Request.Context(), payload.SubmissionID, payload.Reason, adminID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Create godoc
// @Summary Pair two users
// @Description Creates a pairing between two users with unsettled submissions
// @Tags Pairing
// @Accept json
// @Produce json
// @Param payload body service.CreatePairingRequest true "Pairing"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/pairing/create [post]
func (h *PairingHandler) Create(c *gin.Context) {
	var req service.CreatePairingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pairing payload"))
		return
	}

	res, err := h.service.CreatePairing(c.Request.Context(), req, adminID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ChangePartnerMode godoc
// @Summary Change a submission's partner mode
// @Description Rewrites partner intent and requeues the submission as pending
// @Tags Pairing
// @Accept json
// @Produce json
// @Param payload body service.ChangePartnerModeRequest true "Mode change"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/pairing/change-partner-mode [post]
func (h *PairingHandler) ChangePartnerMode(c *gin.Context) {
	var req service.ChangePartnerModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mode payload"))
		return
	}

	if err := h.service.ChangePartnerMode(c.Request.Context(), req, adminID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkPair godoc
// @Summary Bulk pair system-match users
// @Description Greedily pairs remaining system-match users by descending score
// @Tags Pairing
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/pairing/bulk [post]
func (h *PairingHandler) BulkPair(c *gin.Context) {
	var payload struct {
		BatchID string `json:"batch_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "batch_id is required"))
		return
	}

	res, err := h.service.BulkPair(c.Request.Context(), payload.BatchID, adminID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ExportRoster godoc
// @Summary Export the pairing roster
// @Description Streams the batch's confirmed pairings as CSV or PDF
// @Tags Pairing
// @Produce text/csv
// @Produce application/pdf
// @Param batchId query string true "Batch ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/pairing/roster [get]
func (h *PairingHandler) ExportRoster(c *gin.Context) {
	batchID := c.Query("batchId")
	format := c.DefaultQuery("format", "csv")

	result, err := h.exporter.Generate(c.Request.Context(), batchID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Header("X-Download-URL", result.DownloadURL)
	c.Header("X-Download-Expires", result.ExpiresAt.UTC().Format(http.TimeFormat))
	c.Data(http.StatusOK, result.MimeType, result.Payload)
}

// DownloadRoster godoc
// @Summary Re-download an archived roster export
// @Description Streams a previously generated export resolved from its signed token
// @Tags Pairing
// @Produce text/csv
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/pairing/roster/download [get]
func (h *PairingHandler) DownloadRoster(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	result, err := h.exporter.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}

// MyPairing godoc
// @Summary Get own pairing
// @Description Returns the authenticated student's pairing for a batch
// @Tags Pairing
// @Produce json
// @Param batchId query string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pairing/me [get]
func (h *PairingHandler) MyPairing(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	batchID := c.Query("batchId")
	if batchID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "batchId is required"))
		return
	}

	pairing, err := h.service.PairingForUser(c.Request.Context(), batchID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pairing, nil)
}

func adminID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}
