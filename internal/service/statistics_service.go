package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tikrar-dev/tikrar-api/internal/models"
	appErrors "github.com/tikrar-dev/tikrar-api/pkg/errors"
)

type modeCounter interface {
	CountByMode(ctx context.Context, batchID string) (map[models.PartnerMode]models.ModeCount, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// StatisticsService aggregates per-mode tallies for the admin dashboard.
// Counts are derived from submissions on every read and cached briefly; any
// pairing mutation invalidates the batch's cache entry.
type StatisticsService struct {
	submissions modeCounter
	cache       statsCache
	ttl         time.Duration
	logger      *zap.Logger
}

// NewStatisticsService constructs StatisticsService. A nil cache disables
// caching entirely.
func NewStatisticsService(submissions modeCounter, cache statsCache, ttl time.Duration, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatisticsService{
		submissions: submissions,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
	}
}

func statsCacheKey(batchID string) string {
	return fmt.Sprintf("pairing:stats:%s", batchID)
}

// GetStatistics returns the batch's per-mode submitted/approved counts.
func (s *StatisticsService) GetStatistics(ctx context.Context, batchID string) (*models.PairingStatistics, error) {
	if batchID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batchId is required")
	}

	if s.cache != nil {
		var cached models.PairingStatistics
		if hit, err := s.cache.Get(ctx, statsCacheKey(batchID), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	counts, err := s.submissions.CountByMode(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to count submissions")
	}

	stats := &models.PairingStatistics{
		SelfMatch:   counts[models.ModeSelfMatch],
		SystemMatch: counts[models.ModeSystemMatch],
		Tarteel:     counts[models.ModeTarteel],
		Family:      counts[models.ModeFamily],
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey(batchID), stats, s.ttl); err != nil {
			s.logger.Warn("failed to cache statistics", zap.String("batch_id", batchID), zap.Error(err))
		}
	}
	return stats, nil
}

// Invalidate drops the batch's cached statistics. Called after every pairing
// mutation so the dashboard never serves stale counts beyond the TTL.
func (s *StatisticsService) Invalidate(ctx context.Context, batchID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, statsCacheKey(batchID)+"*"); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", zap.String("batch_id", batchID), zap.Error(err))
	}
}
