package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tikrar-dev/tikrar-api/internal/models"
	appErrors "github.com/tikrar-dev/tikrar-api/pkg/errors"
)

type submissionListStub struct {
	details []models.SubmissionDetail
	err     error
}

func (s submissionListStub) ListDetailsByBatch(ctx context.Context, batchID string) ([]models.SubmissionDetail, error) {
	return s.details, s.err
}

type memberIDsStub struct {
	members map[string]struct{}
	err     error
}

func (s memberIDsStub) MemberIDs(ctx context.Context, batchID string) (map[string]struct{}, error) {
	return s.members, s.err
}

func TestMatchServiceFindCandidates(t *testing.T) {
	submissions := submissionListStub{details: []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeSystemMatch),
		newDetail("sub-2", "user-2", models.ModeSystemMatch),
		newDetail("sub-3", "user-3", models.ModeSystemMatch, withPreferences(models.Preferences{
			ChosenJuz:    models.Juz28,
			TimeZone:     models.ZoneWIT,
			MainTimeSlot: models.SlotNight,
		})),
		newDetail("sub-4", "user-4", models.ModeSelfMatch, withPartner("user-5")),
		newDetail("sub-5", "user-6", models.ModeSystemMatch, withStatus(models.StatusRejected)),
	}}

	svc := NewMatchService(submissions, memberIDsStub{}, zap.NewNop())
	res, err := svc.FindCandidates(context.Background(), "user-1", "batch-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", res.User.UserID)
	// user-2 shares everything, user-3 nothing; self-match and rejected
	// submissions stay out of the pool.
	require.Len(t, res.Matches.Perfect, 1)
	assert.Equal(t, "user-2", res.Matches.Perfect[0].UserID)
	require.Len(t, res.Matches.Cross, 1)
	assert.Equal(t, 2, res.TotalMatches)
}

func TestMatchServiceFindCandidatesExcludesSettledPool(t *testing.T) {
	submissions := submissionListStub{details: []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeSystemMatch),
		newDetail("sub-2", "user-2", models.ModeSystemMatch),
	}}
	members := memberIDsStub{members: map[string]struct{}{"user-2": {}}}

	svc := NewMatchService(submissions, members, zap.NewNop())
	res, err := svc.FindCandidates(context.Background(), "user-1", "batch-1")
	require.NoError(t, err)
	assert.Zero(t, res.TotalMatches)
}

func TestMatchServiceFindCandidatesTargetAlreadyPaired(t *testing.T) {
	members := memberIDsStub{members: map[string]struct{}{"user-1": {}}}

	svc := NewMatchService(submissionListStub{}, members, zap.NewNop())
	_, err := svc.FindCandidates(context.Background(), "user-1", "batch-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyPaired.Code, appErrors.FromError(err).Code)
}

func TestMatchServiceFindCandidatesUnknownUser(t *testing.T) {
	svc := NewMatchService(submissionListStub{}, memberIDsStub{}, zap.NewNop())
	_, err := svc.FindCandidates(context.Background(), "user-x", "batch-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMatchServiceFindCandidatesWrongMode(t *testing.T) {
	submissions := submissionListStub{details: []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeTarteel),
	}}

	svc := NewMatchService(submissions, memberIDsStub{}, zap.NewNop())
	_, err := svc.FindCandidates(context.Background(), "user-1", "batch-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMatchServiceFindCandidatesNotPending(t *testing.T) {
	submissions := submissionListStub{details: []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeSystemMatch, withStatus(models.StatusRejected)),
	}}

	svc := NewMatchService(submissions, memberIDsStub{}, zap.NewNop())
	_, err := svc.FindCandidates(context.Background(), "user-1", "batch-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}
