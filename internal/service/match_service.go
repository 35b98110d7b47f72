package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/tikrar-dev/tikrar-api/internal/dto"
	"github.com/tikrar-dev/tikrar-api/internal/models"
	appErrors "github.com/tikrar-dev/tikrar-api/pkg/errors"
)

type matchSubmissionReader interface {
	ListDetailsByBatch(ctx context.Context, batchID string) ([]models.SubmissionDetail, error)
}

type pairingMemberReader interface {
	MemberIDs(ctx context.Context, batchID string) (map[string]struct{}, error)
}

// MatchService computes scored candidate pools for system-match users.
type MatchService struct {
	submissions matchSubmissionReader
	pairings    pairingMemberReader
	logger      *zap.Logger
}

// NewMatchService constructs MatchService.
func NewMatchService(submissions matchSubmissionReader, pairings pairingMemberReader, logger *zap.Logger) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchService{submissions: submissions, pairings: pairings, logger: logger}
}

// FindCandidates scores the batch's unsettled system-match pool against the
// target user and returns the five tier buckets. Fails with ErrAlreadyPaired
// when the target is already settled.
func (s *MatchService) FindCandidates(ctx context.Context, userID, batchID string) (*dto.CandidatesResponse, error) {
	if userID == "" || batchID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "userId and batchId are required")
	}

	settled, err := s.pairings.MemberIDs(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load pairing members")
	}
	if _, ok := settled[userID]; ok {
		return nil, appErrors.Clone(appErrors.ErrAlreadyPaired, "user already has a partner in this batch")
	}

	submissions, err := s.submissions.ListDetailsByBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch has no submissions")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load submissions")
	}

	var target *models.SubmissionDetail
	pool := make([]models.SubmissionDetail, 0, len(submissions))
	for i := range submissions {
		sub := submissions[i]
		if sub.UserID == userID {
			target = &submissions[i]
			continue
		}
		if sub.Partner.Mode != models.ModeSystemMatch || sub.Status != models.StatusPending {
			continue
		}
		if _, ok := settled[sub.UserID]; ok {
			continue
		}
		pool = append(pool, sub)
	}

	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user has no submission in this batch")
	}
	if target.Partner.Mode != models.ModeSystemMatch {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user did not request system matching")
	}
	if target.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "submission is not pending")
	}

	buckets := ScoreCandidates(target.Preferences, pool)
	s.logger.Debug("candidates scored",
		zap.String("batch_id", batchID),
		zap.String("user_id", userID),
		zap.Int("total", buckets.Total()),
	)

	return &dto.CandidatesResponse{
		User: dto.TargetUser{
			UserID:      target.UserID,
			FullName:    target.UserName,
			Preferences: target.Preferences,
		},
		Matches:      buckets,
		TotalMatches: buckets.Total(),
	}, nil
}
