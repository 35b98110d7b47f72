package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tikrar-dev/tikrar-api/internal/models"
	"github.com/tikrar-dev/tikrar-api/internal/repository"
	appErrors "github.com/tikrar-dev/tikrar-api/pkg/errors"
)

type submissionRepoStub struct {
	details     []models.SubmissionDetail
	byID        map[string]*models.Submission
	byUser      map[string]*models.Submission
	rejected    []string
	rejectOK    bool
	modeChanges []models.PartnerIntent
}

func (s *submissionRepoStub) ListDetailsByBatch(ctx context.Context, batchID string) ([]models.SubmissionDetail, error) {
	return s.details, nil
}

func (s *submissionRepoStub) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	if sub, ok := s.byID[id]; ok {
		return sub, nil
	}
	return nil, sql.ErrNoRows
}

func (s *submissionRepoStub) FindByUserAndBatch(ctx context.Context, userID, batchID string) (*models.Submission, error) {
	if sub, ok := s.byUser[userID]; ok {
		return sub, nil
	}
	return nil, sql.ErrNoRows
}

func (s *submissionRepoStub) Reject(ctx context.Context, id string, reason *string, reviewedBy string, at time.Time) (bool, error) {
	s.rejected = append(s.rejected, id)
	return s.rejectOK, nil
}

func (s *submissionRepoStub) ChangePartnerMode(ctx context.Context, id string, intent models.PartnerIntent, at time.Time) error {
	s.modeChanges = append(s.modeChanges, intent)
	return nil
}

type pairingStoreStub struct {
	members       map[string]struct{}
	byUser        map[string]*models.Pairing
	details       []models.PairingDetail
	pairs         []repository.PairParams
	companions    []repository.CompanionPairParams
	createErr     error
	createErrOnce bool
}

func (s *pairingStoreStub) ListDetailsByBatch(ctx context.Context, batchID string) ([]models.PairingDetail, error) {
	return s.details, nil
}

func (s *pairingStoreStub) MemberIDs(ctx context.Context, batchID string) (map[string]struct{}, error) {
	if s.members == nil {
		return map[string]struct{}{}, nil
	}
	return s.members, nil
}

func (s *pairingStoreStub) FindByUser(ctx context.Context, batchID, userID string) (*models.Pairing, error) {
	if p, ok := s.byUser[userID]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (s *pairingStoreStub) CreatePair(ctx context.Context, params repository.PairParams) (*models.Pairing, error) {
	if s.createErr != nil {
		err := s.createErr
		if s.createErrOnce {
			s.createErr = nil
		}
		return nil, err
	}
	s.pairs = append(s.pairs, params)
	return &models.Pairing{
		ID:      "pairing-" + params.User1ID,
		BatchID: params.BatchID,
		User1ID: params.User1ID,
		User2ID: &params.User2ID,
		Source:  params.Source,
	}, nil
}

func (s *pairingStoreStub) CreateCompanionPair(ctx context.Context, params repository.CompanionPairParams) (*models.Pairing, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.companions = append(s.companions, params)
	companion := params.Companion
	return &models.Pairing{
		ID:        "pairing-" + params.UserID,
		BatchID:   params.BatchID,
		User1ID:   params.UserID,
		Source:    params.Source,
		Companion: &companion,
	}, nil
}

type userReaderStub struct {
	users map[string]*models.User
}

func (s userReaderStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type statsInvalidatorStub struct {
	batches []string
}

func (s *statsInvalidatorStub) Invalidate(ctx context.Context, batchID string) {
	s.batches = append(s.batches, batchID)
}

type pairingMetricsStub struct {
	operations []string
}

func (s *pairingMetricsStub) RecordPairingMutation(operation string) {
	s.operations = append(s.operations, operation)
}

func newPairingService(subs *submissionRepoStub, store *pairingStoreStub) (*PairingService, *statsInvalidatorStub, *pairingMetricsStub) {
	stats := &statsInvalidatorStub{}
	metrics := &pairingMetricsStub{}
	svc := NewPairingService(subs, store, userReaderStub{}, stats, metrics, nil, zap.NewNop(), PairingServiceConfig{})
	return svc, stats, metrics
}

func pendingSubmission(id, userID string, mode models.PartnerMode, partnerID string) *models.Submission {
	sub := &models.Submission{
		ID:      id,
		UserID:  userID,
		BatchID: "batch-1",
		Partner: models.PartnerIntent{Mode: mode},
		Status:  models.StatusPending,
	}
	switch {
	case mode == models.ModeSelfMatch:
		sub.Partner.PartnerUserID = &partnerID
	case mode.Companion():
		sub.Partner.Companion = &models.Companion{Name: "Ummu Fulan", Relationship: "mother"}
	}
	return sub
}

func TestPairingServiceApproveMutualSelfMatch(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-2")
	reciprocal := pendingSubmission("sub-2", "user-2", models.ModeSelfMatch, "user-1")
	subs := &submissionRepoStub{
		byID:   map[string]*models.Submission{"sub-1": sub},
		byUser: map[string]*models.Submission{"user-2": reciprocal},
	}
	store := &pairingStoreStub{}
	svc, stats, metrics := newPairingService(subs, store)

	res, err := svc.Approve(context.Background(), "sub-1", "admin-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.Pairing)

	require.Len(t, store.pairs, 1)
	assert.Equal(t, models.SourceSelfMatch, store.pairs[0].Source)
	assert.ElementsMatch(t, []string{"sub-1", "sub-2"}, store.pairs[0].SubmissionIDs)
	assert.Equal(t, []string{"batch-1"}, stats.batches)
	assert.Equal(t, []string{"approve"}, metrics.operations)
}

func TestPairingServiceApproveNotMutual(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-2")
	reciprocal := pendingSubmission("sub-2", "user-2", models.ModeSelfMatch, "user-9")
	subs := &submissionRepoStub{
		byID:   map[string]*models.Submission{"sub-1": sub},
		byUser: map[string]*models.Submission{"user-2": reciprocal},
	}
	svc, _, _ := newPairingService(subs, &pairingStoreStub{})

	_, err := svc.Approve(context.Background(), "sub-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceApprovePartnerNeverRegistered(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-ghost")
	subs := &submissionRepoStub{byID: map[string]*models.Submission{"sub-1": sub}}
	svc, _, _ := newPairingService(subs, &pairingStoreStub{})

	_, err := svc.Approve(context.Background(), "sub-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceApproveIdempotent(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-2")
	sub.Status = models.StatusApproved
	existing := &models.Pairing{ID: "pairing-1", BatchID: "batch-1", User1ID: "user-1"}
	subs := &submissionRepoStub{byID: map[string]*models.Submission{"sub-1": sub}}
	store := &pairingStoreStub{byUser: map[string]*models.Pairing{"user-1": existing}}
	svc, stats, _ := newPairingService(subs, store)

	res, err := svc.Approve(context.Background(), "sub-1", "admin-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "pairing-1", res.Pairing.ID)
	assert.Empty(t, store.pairs)
	assert.Empty(t, stats.batches)
}

func TestPairingServiceApproveRejectedSubmission(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-2")
	sub.Status = models.StatusRejected
	subs := &submissionRepoStub{byID: map[string]*models.Submission{"sub-1": sub}}
	svc, _, _ := newPairingService(subs, &pairingStoreStub{})

	_, err := svc.Approve(context.Background(), "sub-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceApproveCompanionMode(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeFamily, "")
	subs := &submissionRepoStub{byID: map[string]*models.Submission{"sub-1": sub}}
	store := &pairingStoreStub{}
	svc, _, _ := newPairingService(subs, store)

	res, err := svc.Approve(context.Background(), "sub-1", "admin-1")
	require.NoError(t, err)
	require.NotNil(t, res.Pairing)
	require.Len(t, store.companions, 1)
	assert.Equal(t, models.SourceFamily, store.companions[0].Source)
	assert.Equal(t, "Ummu Fulan", store.companions[0].Companion.Name)
}

func TestPairingServiceApproveCompanionOverride(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeTarteel, "")
	subs := &submissionRepoStub{byID: map[string]*models.Submission{"sub-1": sub}}
	store := &pairingStoreStub{}
	svc, _, _ := newPairingService(subs, store)

	override := &models.Companion{Name: "Ustadzah Aminah", Relationship: "teacher"}
	res, err := svc.ApproveCompanion(context.Background(), "sub-1", override, "admin-1")
	require.NoError(t, err)
	require.NotNil(t, res.Pairing)
	require.Len(t, store.companions, 1)
	assert.Equal(t, models.SourceTarteel, store.companions[0].Source)
	assert.Equal(t, "Ustadzah Aminah", store.companions[0].Companion.Name)
}

func TestPairingServiceApproveSystemMatchRejected(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeSystemMatch, "")
	subs := &submissionRepoStub{byID: map[string]*models.Submission{"sub-1": sub}}
	svc, _, _ := newPairingService(subs, &pairingStoreStub{})

	_, err := svc.Approve(context.Background(), "sub-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceApproveLosesRace(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-2")
	reciprocal := pendingSubmission("sub-2", "user-2", models.ModeSelfMatch, "user-1")
	subs := &submissionRepoStub{
		byID:   map[string]*models.Submission{"sub-1": sub},
		byUser: map[string]*models.Submission{"user-2": reciprocal},
	}
	store := &pairingStoreStub{createErr: repository.ErrDuplicateMember}
	svc, _, _ := newPairingService(subs, store)

	_, err := svc.Approve(context.Background(), "sub-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyPaired.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceReject(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-2")
	subs := &submissionRepoStub{byID: map[string]*models.Submission{"sub-1": sub}, rejectOK: true}
	svc, stats, metrics := newPairingService(subs, &pairingStoreStub{})

	reason := "partner did not re-register"
	err := svc.Reject(context.Background(), "sub-1", &reason, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-1"}, subs.rejected)
	assert.Equal(t, []string{"batch-1"}, stats.batches)
	assert.Equal(t, []string{"reject"}, metrics.operations)
}

func TestPairingServiceRejectNotPending(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-2")
	sub.Status = models.StatusRejected
	subs := &submissionRepoStub{byID: map[string]*models.Submission{"sub-1": sub}}
	svc, _, _ := newPairingService(subs, &pairingStoreStub{})

	err := svc.Reject(context.Background(), "sub-1", nil, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceCreatePairing(t *testing.T) {
	subs := &submissionRepoStub{byUser: map[string]*models.Submission{
		"user-1": pendingSubmission("sub-1", "user-1", models.ModeSystemMatch, ""),
		"user-2": pendingSubmission("sub-2", "user-2", models.ModeSystemMatch, ""),
	}}
	store := &pairingStoreStub{}
	svc, _, _ := newPairingService(subs, store)

	res, err := svc.CreatePairing(context.Background(), CreatePairingRequest{
		BatchID: "batch-1", User1ID: "user-1", User2ID: "user-2",
	}, "admin-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, store.pairs, 1)
	assert.Equal(t, models.SourceSystemMatch, store.pairs[0].Source)
}

func TestPairingServiceCreatePairingManualSource(t *testing.T) {
	// A rejected self-match picker crossed with a system-match user is a
	// manual pairing.
	rejected := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-9")
	rejected.Status = models.StatusRejected
	subs := &submissionRepoStub{byUser: map[string]*models.Submission{
		"user-1": rejected,
		"user-2": pendingSubmission("sub-2", "user-2", models.ModeSystemMatch, ""),
	}}
	store := &pairingStoreStub{}
	svc, _, _ := newPairingService(subs, store)

	_, err := svc.CreatePairing(context.Background(), CreatePairingRequest{
		BatchID: "batch-1", User1ID: "user-1", User2ID: "user-2",
	}, "admin-1")
	require.NoError(t, err)
	require.Len(t, store.pairs, 1)
	assert.Equal(t, models.SourceManual, store.pairs[0].Source)
}

func TestPairingServiceCreatePairingSameUser(t *testing.T) {
	svc, _, _ := newPairingService(&submissionRepoStub{}, &pairingStoreStub{})
	_, err := svc.CreatePairing(context.Background(), CreatePairingRequest{
		BatchID: "batch-1", User1ID: "user-1", User2ID: "user-1",
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceCreatePairingAlreadySettled(t *testing.T) {
	approved := pendingSubmission("sub-1", "user-1", models.ModeSystemMatch, "")
	approved.Status = models.StatusApproved
	subs := &submissionRepoStub{byUser: map[string]*models.Submission{
		"user-1": approved,
		"user-2": pendingSubmission("sub-2", "user-2", models.ModeSystemMatch, ""),
	}}
	svc, _, _ := newPairingService(subs, &pairingStoreStub{})

	_, err := svc.CreatePairing(context.Background(), CreatePairingRequest{
		BatchID: "batch-1", User1ID: "user-1", User2ID: "user-2",
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyPaired.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceChangePartnerMode(t *testing.T) {
	rejected := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-9")
	rejected.Status = models.StatusRejected
	subs := &submissionRepoStub{byID: map[string]*models.Submission{"sub-1": rejected}}
	svc, stats, _ := newPairingService(subs, &pairingStoreStub{})

	err := svc.ChangePartnerMode(context.Background(), ChangePartnerModeRequest{
		SubmissionID: "sub-1",
		Mode:         models.ModeSystemMatch,
	}, "admin-1")
	require.NoError(t, err)
	require.Len(t, subs.modeChanges, 1)
	assert.Equal(t, models.ModeSystemMatch, subs.modeChanges[0].Mode)
	assert.Nil(t, subs.modeChanges[0].PartnerUserID)
	assert.Equal(t, []string{"batch-1"}, stats.batches)
}

func TestPairingServiceChangePartnerModeToSelfMatch(t *testing.T) {
	svc, _, _ := newPairingService(&submissionRepoStub{}, &pairingStoreStub{})
	err := svc.ChangePartnerMode(context.Background(), ChangePartnerModeRequest{
		SubmissionID: "sub-1",
		Mode:         models.ModeSelfMatch,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceChangePartnerModeSettled(t *testing.T) {
	sub := pendingSubmission("sub-1", "user-1", models.ModeSelfMatch, "user-2")
	subs := &submissionRepoStub{byID: map[string]*models.Submission{"sub-1": sub}}
	store := &pairingStoreStub{byUser: map[string]*models.Pairing{"user-1": {ID: "pairing-1"}}}
	svc, _, _ := newPairingService(subs, store)

	err := svc.ChangePartnerMode(context.Background(), ChangePartnerModeRequest{
		SubmissionID: "sub-1",
		Mode:         models.ModeSystemMatch,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyPaired.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceBulkPairGreedy(t *testing.T) {
	// user-1 and user-2 share everything; user-3 and user-4 only share a
	// zone with the others. Greedy picks (1,2) first, then (3,4).
	wita := models.Preferences{ChosenJuz: models.Juz29, TimeZone: models.ZoneWITA, MainTimeSlot: models.SlotNight}
	subs := &submissionRepoStub{details: []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeSystemMatch),
		newDetail("sub-2", "user-2", models.ModeSystemMatch),
		newDetail("sub-3", "user-3", models.ModeSystemMatch, withPreferences(wita)),
		newDetail("sub-4", "user-4", models.ModeSystemMatch, withPreferences(wita)),
	}}
	store := &pairingStoreStub{}
	svc, stats, metrics := newPairingService(subs, store)

	res, err := svc.BulkPair(context.Background(), "batch-1", "admin-1")
	require.NoError(t, err)
	require.Len(t, res.Created, 2)
	assert.Empty(t, res.Unpaired)

	require.Len(t, store.pairs, 2)
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, []string{store.pairs[0].User1ID, store.pairs[0].User2ID})
	assert.ElementsMatch(t, []string{"user-3", "user-4"}, []string{store.pairs[1].User1ID, store.pairs[1].User2ID})
	assert.Equal(t, []string{"batch-1"}, stats.batches)
	assert.Equal(t, []string{"bulk"}, metrics.operations)
}

func TestPairingServiceBulkPairOddPool(t *testing.T) {
	subs := &submissionRepoStub{details: []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeSystemMatch),
		newDetail("sub-2", "user-2", models.ModeSystemMatch),
		newDetail("sub-3", "user-3", models.ModeSystemMatch),
	}}
	store := &pairingStoreStub{}
	svc, _, _ := newPairingService(subs, store)

	res, err := svc.BulkPair(context.Background(), "batch-1", "admin-1")
	require.NoError(t, err)
	assert.Len(t, res.Created, 1)
	assert.Len(t, res.Unpaired, 1)
}

func TestPairingServiceBulkPairTooFew(t *testing.T) {
	subs := &submissionRepoStub{details: []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeSystemMatch),
	}}
	svc, _, _ := newPairingService(subs, &pairingStoreStub{})

	_, err := svc.BulkPair(context.Background(), "batch-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPairingServiceBulkPairSkipsLostRace(t *testing.T) {
	subs := &submissionRepoStub{details: []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeSystemMatch),
		newDetail("sub-2", "user-2", models.ModeSystemMatch),
	}}
	store := &pairingStoreStub{createErr: repository.ErrDuplicateMember, createErrOnce: true}
	svc, _, _ := newPairingService(subs, store)

	res, err := svc.BulkPair(context.Background(), "batch-1", "admin-1")
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, res.Skipped)
}

func TestPairingServiceListRequests(t *testing.T) {
	subs := &submissionRepoStub{details: []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeSelfMatch, withPartner("user-2")),
		newDetail("sub-2", "user-2", models.ModeSelfMatch, withPartner("user-1")),
		newDetail("sub-3", "user-3", models.ModeSelfMatch, withPartner("user-9")),
		newDetail("sub-4", "user-4", models.ModeSystemMatch),
		newDetail("sub-5", "user-5", models.ModeSystemMatch),
		newDetail("sub-6", "user-6", models.ModeTarteel),
		newDetail("sub-7", "user-7", models.ModeFamily),
	}}
	store := &pairingStoreStub{}
	svc, _, _ := newPairingService(subs, store)

	res, err := svc.ListRequests(context.Background(), "batch-1")
	require.NoError(t, err)

	// Mutual pair appears once, the one-sided pick separately.
	require.Len(t, res.SelfMatch, 2)
	var mutualCount int
	for _, entry := range res.SelfMatch {
		if entry.IsMutualMatch {
			mutualCount++
			assert.NotEmpty(t, entry.ReciprocalSubmissionID)
			require.NotNil(t, entry.Partner)
			assert.Equal(t, "Student user-2", entry.Partner.FullName)
		}
	}
	assert.Equal(t, 1, mutualCount)

	require.Len(t, res.SystemMatch, 2)
	assert.Equal(t, 1, res.SystemMatch[0].MatchCount)

	require.Len(t, res.Tarteel, 1)
	assert.Equal(t, "Ummu Fulan", res.Tarteel[0].Companion.Name)
	require.Len(t, res.Family, 1)
}

func TestPairingServiceRoster(t *testing.T) {
	partner := "user-2"
	partnerName := "Student Two"
	store := &pairingStoreStub{details: []models.PairingDetail{
		{
			Pairing: models.Pairing{
				ID: "pairing-1", BatchID: "batch-1", User1ID: "user-1", User2ID: &partner,
				Source: models.SourceSelfMatch, CreatedAt: testBase,
			},
			User1Name: "Student One",
			User2Name: &partnerName,
		},
		{
			Pairing: models.Pairing{
				ID: "pairing-2", BatchID: "batch-1", User1ID: "user-3",
				Source:    models.SourceFamily,
				Companion: &models.Companion{Name: "Ummu Fulan", Relationship: "mother"},
				CreatedAt: testBase,
			},
			User1Name: "Student Three",
		},
	}}
	svc, _, _ := newPairingService(&submissionRepoStub{}, store)

	table, err := svc.Roster(context.Background(), "batch-1")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Student Two", table.Rows[0][2])
	assert.Equal(t, "Ummu Fulan (mother)", table.Rows[1][2])
}
