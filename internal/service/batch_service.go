package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/tikrar-dev/tikrar-api/internal/models"
	appErrors "github.com/tikrar-dev/tikrar-api/pkg/errors"
)

type batchReader interface {
	List(ctx context.Context) ([]models.Batch, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
}

// BatchService exposes program batch lookups.
type BatchService struct {
	repo   batchReader
	logger *zap.Logger
}

// NewBatchService constructs BatchService.
func NewBatchService(repo batchReader, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{repo: repo, logger: logger}
}

// List returns all batches, newest first.
func (s *BatchService) List(ctx context.Context) ([]models.Batch, error) {
	batches, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list batches")
	}
	return batches, nil
}

// Get returns one batch by id.
func (s *BatchService) Get(ctx context.Context, id string) (*models.Batch, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch id is required")
	}
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load batch")
	}
	return batch, nil
}
