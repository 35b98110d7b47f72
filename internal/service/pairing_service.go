package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tikrar-dev/tikrar-api/internal/dto"
	"github.com/tikrar-dev/tikrar-api/internal/models"
	"github.com/tikrar-dev/tikrar-api/internal/repository"
	appErrors "github.com/tikrar-dev/tikrar-api/pkg/errors"
	"github.com/tikrar-dev/tikrar-api/pkg/export"
)

type pairingSubmissionRepository interface {
	ListDetailsByBatch(ctx context.Context, batchID string) ([]models.SubmissionDetail, error)
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	FindByUserAndBatch(ctx context.Context, userID, batchID string) (*models.Submission, error)
	Reject(ctx context.Context, id string, reason *string, reviewedBy string, at time.Time) (bool, error)
	ChangePartnerMode(ctx context.Context, id string, intent models.PartnerIntent, at time.Time) error
}

type pairingStore interface {
	ListDetailsByBatch(ctx context.Context, batchID string) ([]models.PairingDetail, error)
	MemberIDs(ctx context.Context, batchID string) (map[string]struct{}, error)
	FindByUser(ctx context.Context, batchID, userID string) (*models.Pairing, error)
	CreatePair(ctx context.Context, params repository.PairParams) (*models.Pairing, error)
	CreateCompanionPair(ctx context.Context, params repository.CompanionPairParams) (*models.Pairing, error)
}

type partnerProfileReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type statsInvalidator interface {
	Invalidate(ctx context.Context, batchID string)
}

type pairingMetrics interface {
	RecordPairingMutation(operation string)
}

// PairingServiceConfig tunes pairing behaviour.
type PairingServiceConfig struct {
	BulkMaxPairs int
}

// PairingService is the authoritative transition engine for pairing
// workflows: it surfaces the review board, approves and rejects submissions
// and creates pairings under the one-pairing-per-user-per-batch invariant.
type PairingService struct {
	submissions pairingSubmissionRepository
	pairings    pairingStore
	users       partnerProfileReader
	stats       statsInvalidator
	metrics     pairingMetrics
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         PairingServiceConfig
	now         func() time.Time
}

// NewPairingService constructs PairingService.
func NewPairingService(
	submissions pairingSubmissionRepository,
	pairings pairingStore,
	users partnerProfileReader,
	stats statsInvalidator,
	metrics pairingMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PairingServiceConfig,
) *PairingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BulkMaxPairs <= 0 {
		cfg.BulkMaxPairs = 100
	}
	return &PairingService{
		submissions: submissions,
		pairings:    pairings,
		users:       users,
		stats:       stats,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListRequests returns the batch's unsettled submissions partitioned by
// partner mode, with mutual self-match pairs collapsed into single entries
// and system-match entries carrying their candidate counts.
func (s *PairingService) ListRequests(ctx context.Context, batchID string) (*dto.PairingRequestsResponse, error) {
	if batchID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batchId is required")
	}

	submissions, err := s.submissions.ListDetailsByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load submissions")
	}
	settled, err := s.pairings.MemberIDs(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load pairing members")
	}

	classified := ClassifySubmissions(submissions, settled)

	resp := &dto.PairingRequestsResponse{
		SelfMatch:   []dto.SelfMatchRequest{},
		SystemMatch: []dto.SystemMatchRequest{},
		Tarteel:     []dto.CompanionRequest{},
		Family:      []dto.CompanionRequest{},
	}

	prefsByUser := make(map[string]models.SubmissionDetail, len(submissions))
	for _, sub := range submissions {
		prefsByUser[sub.UserID] = sub
	}

	for _, entry := range DetectMutualMatches(classified.SelfMatch) {
		resp.SelfMatch = append(resp.SelfMatch, s.selfMatchRequest(ctx, entry, prefsByUser))
	}

	pendingPool := make([]models.SubmissionDetail, 0, len(classified.SystemMatch))
	for _, sub := range classified.SystemMatch {
		if sub.Status == models.StatusPending {
			pendingPool = append(pendingPool, sub)
		}
	}
	for _, sub := range classified.SystemMatch {
		pool := make([]models.SubmissionDetail, 0, len(pendingPool))
		for _, other := range pendingPool {
			if other.UserID != sub.UserID {
				pool = append(pool, other)
			}
		}
		resp.SystemMatch = append(resp.SystemMatch, dto.SystemMatchRequest{
			SubmissionID: sub.ID,
			UserID:       sub.UserID,
			UserName:     sub.UserName,
			UserEmail:    sub.UserEmail,
			Preferences:  sub.Preferences,
			MatchCount:   ScoreCandidates(sub.Preferences, pool).Total(),
			Status:       sub.Status,
			SubmittedAt:  sub.SubmittedAt,
		})
	}

	resp.Tarteel = companionRequests(classified.Tarteel)
	resp.Family = companionRequests(classified.Family)

	return resp, nil
}

func (s *PairingService) selfMatchRequest(ctx context.Context, entry MutualEntry, prefsByUser map[string]models.SubmissionDetail) dto.SelfMatchRequest {
	sub := entry.Submission
	req := dto.SelfMatchRequest{
		SubmissionID:  sub.ID,
		UserID:        sub.UserID,
		UserName:      sub.UserName,
		UserEmail:     sub.UserEmail,
		Preferences:   sub.Preferences,
		IsMutualMatch: entry.IsMutual,
		Status:        sub.Status,
		SubmittedAt:   sub.SubmittedAt,
	}
	if sub.Partner.PartnerUserID == nil {
		return req
	}
	partnerID := *sub.Partner.PartnerUserID
	req.PartnerUserID = partnerID
	if entry.Reciprocal != nil {
		req.ReciprocalSubmissionID = entry.Reciprocal.ID
	}

	preview := dto.PartnerPreview{UserID: partnerID}
	if partnerSub, ok := prefsByUser[partnerID]; ok {
		preview.FullName = partnerSub.UserName
		preview.Email = partnerSub.UserEmail
		preview.WhatsApp = partnerSub.UserWhatsApp
		preview.ChosenJuz = partnerSub.ChosenJuz
		preview.TimeZone = partnerSub.TimeZone
		preview.MainTimeSlot = partnerSub.MainTimeSlot
		preview.BackupTimeSlot = partnerSub.BackupTimeSlot
	} else if user, err := s.users.FindByID(ctx, partnerID); err == nil {
		preview.FullName = user.FullName
		preview.Email = user.Email
		preview.WhatsApp = user.WhatsApp
		preview.TimeZone = user.TimeZone
	}
	req.Partner = &preview
	return req
}

func companionRequests(subs []models.SubmissionDetail) []dto.CompanionRequest {
	out := make([]dto.CompanionRequest, 0, len(subs))
	for _, sub := range subs {
		req := dto.CompanionRequest{
			SubmissionID: sub.ID,
			UserID:       sub.UserID,
			UserName:     sub.UserName,
			UserEmail:    sub.UserEmail,
			Mode:         sub.Partner.Mode,
			Status:       sub.Status,
			SubmittedAt:  sub.SubmittedAt,
		}
		if sub.Partner.Companion != nil {
			req.Companion = *sub.Partner.Companion
		}
		out = append(out, req)
	}
	return out
}

// Approve transitions a pending submission to approved and creates the
// pairing. Mutual self-matches settle both sides in one transaction;
// companion modes create a one-sided pairing. Retrying an already-approved
// submission succeeds without creating a duplicate.
func (s *PairingService) Approve(ctx context.Context, submissionID, adminID string) (*dto.MutationResult, error) {
	sub, err := s.findSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if sub.Status == models.StatusApproved {
		pairing, err := s.pairings.FindByUser(ctx, sub.BatchID, sub.UserID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load existing pairing")
		}
		return &dto.MutationResult{Success: true, Pairing: pairing}, nil
	}
	if sub.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "submission has been rejected")
	}

	var pairing *models.Pairing
	switch {
	case sub.Partner.Mode == models.ModeSelfMatch:
		pairing, err = s.approveSelfMatch(ctx, sub, adminID)
	case sub.Partner.Mode.Companion():
		pairing, err = s.approveCompanion(ctx, sub, nil, adminID)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "system-match submissions are settled via pairing creation")
	}
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, sub.BatchID, "approve")
	return &dto.MutationResult{Success: true, Pairing: pairing}, nil
}

func (s *PairingService) approveSelfMatch(ctx context.Context, sub *models.Submission, adminID string) (*models.Pairing, error) {
	if sub.Partner.PartnerUserID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission carries no chosen partner")
	}
	partnerID := *sub.Partner.PartnerUserID

	reciprocal, err := s.submissions.FindByUserAndBatch(ctx, partnerID, sub.BatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "chosen partner has not re-registered; reject or pair manually")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load partner submission")
	}

	mutual := reciprocal.Partner.Mode == models.ModeSelfMatch &&
		reciprocal.Partner.PartnerUserID != nil &&
		*reciprocal.Partner.PartnerUserID == sub.UserID
	if !mutual {
		return nil, appErrors.Clone(appErrors.ErrValidation, "choice is not mutual; reject or pair manually")
	}
	if reciprocal.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "partner submission is not pending")
	}

	pairing, err := s.pairings.CreatePair(ctx, repository.PairParams{
		BatchID:       sub.BatchID,
		User1ID:       sub.UserID,
		User2ID:       partnerID,
		Source:        models.SourceSelfMatch,
		CreatedBy:     adminID,
		SubmissionIDs: []string{sub.ID, reciprocal.ID},
	})
	if err != nil {
		return nil, s.mapPairError(err)
	}
	return pairing, nil
}

func (s *PairingService) approveCompanion(ctx context.Context, sub *models.Submission, override *models.Companion, adminID string) (*models.Pairing, error) {
	companion := override
	if companion == nil {
		companion = sub.Partner.Companion
	}
	if companion == nil || companion.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "companion name is required")
	}

	source := models.SourceTarteel
	if sub.Partner.Mode == models.ModeFamily {
		source = models.SourceFamily
	}

	pairing, err := s.pairings.CreateCompanionPair(ctx, repository.CompanionPairParams{
		BatchID:      sub.BatchID,
		UserID:       sub.UserID,
		Source:       source,
		Companion:    *companion,
		CreatedBy:    adminID,
		SubmissionID: sub.ID,
	})
	if err != nil {
		return nil, s.mapPairError(err)
	}
	return pairing, nil
}

// ApproveCompanion approves a tarteel/family submission, optionally
// overriding the companion descriptor recorded at re-registration.
func (s *PairingService) ApproveCompanion(ctx context.Context, submissionID string, override *models.Companion, adminID string) (*dto.MutationResult, error) {
	sub, err := s.findSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if !sub.Partner.Mode.Companion() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission is not a companion request")
	}
	if sub.Status == models.StatusApproved {
		pairing, err := s.pairings.FindByUser(ctx, sub.BatchID, sub.UserID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load existing pairing")
		}
		return &dto.MutationResult{Success: true, Pairing: pairing}, nil
	}
	if sub.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "submission has been rejected")
	}

	pairing, err := s.approveCompanion(ctx, sub, override, adminID)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, sub.BatchID, "approve_companion")
	return &dto.MutationResult{Success: true, Pairing: pairing}, nil
}

// Reject marks a pending submission rejected. The student stays unpaired and
// remains eligible for manual or system-match pairing.
func (s *PairingService) Reject(ctx context.Context, submissionID string, reason *string, adminID string) error {
	sub, err := s.findSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub.Status != models.StatusPending {
		return appErrors.Clone(appErrors.ErrInvalidState, "only pending submissions can be rejected")
	}

	ok, err := s.submissions.Reject(ctx, submissionID, reason, adminID, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to reject submission")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrInvalidState, "submission is no longer pending")
	}

	s.afterMutation(ctx, sub.BatchID, "reject")
	return nil
}

// CreatePairingRequest is the payload for manually pairing two users.
type CreatePairingRequest struct {
	BatchID string `json:"batch_id" validate:"required"`
	User1ID string `json:"user_1_id" validate:"required"`
	User2ID string `json:"user_2_id" validate:"required"`
}

// CreatePairing confirms two specific users as partners. Used both for
// system-match confirmation and manual cross-pairing of one-sided picks.
// Both users must have unsettled submissions; the membership constraint
// rejects a racing duplicate with ErrAlreadyPaired.
func (s *PairingService) CreatePairing(ctx context.Context, req CreatePairingRequest, adminID string) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pairing payload")
	}
	if req.User1ID == req.User2ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot pair a user with themselves")
	}

	sub1, err := s.findUserSubmission(ctx, req.User1ID, req.BatchID)
	if err != nil {
		return nil, err
	}
	sub2, err := s.findUserSubmission(ctx, req.User2ID, req.BatchID)
	if err != nil {
		return nil, err
	}

	source := models.SourceManual
	if sub1.Partner.Mode == models.ModeSystemMatch && sub2.Partner.Mode == models.ModeSystemMatch {
		source = models.SourceSystemMatch
	}

	pairing, err := s.pairings.CreatePair(ctx, repository.PairParams{
		BatchID:       req.BatchID,
		User1ID:       req.User1ID,
		User2ID:       req.User2ID,
		Source:        source,
		CreatedBy:     adminID,
		SubmissionIDs: []string{sub1.ID, sub2.ID},
	})
	if err != nil {
		return nil, s.mapPairError(err)
	}

	s.afterMutation(ctx, req.BatchID, "create")
	return &dto.MutationResult{Success: true, Pairing: pairing}, nil
}

// ChangePartnerModeRequest is the payload for rewriting a submission's
// partner intent, the requeue path for rejected one-sided picks.
type ChangePartnerModeRequest struct {
	SubmissionID string             `json:"submission_id" validate:"required"`
	Mode         models.PartnerMode `json:"partner_mode" validate:"required"`
	Companion    *models.Companion  `json:"companion,omitempty"`
}

// ChangePartnerMode rewrites a submission's partner intent and resets it to
// pending so it re-enters the review pool. Settled submissions cannot move.
func (s *PairingService) ChangePartnerMode(ctx context.Context, req ChangePartnerModeRequest, adminID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid partner mode payload")
	}
	if req.Mode == models.ModeSelfMatch {
		return appErrors.Clone(appErrors.ErrValidation, "self_match can only be chosen by the student")
	}

	intent := models.PartnerIntent{Mode: req.Mode, Companion: req.Companion}
	if err := intent.Validate(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	sub, err := s.findSubmission(ctx, req.SubmissionID)
	if err != nil {
		return err
	}
	if sub.Status == models.StatusApproved {
		return appErrors.Clone(appErrors.ErrInvalidState, "submission already backs a pairing")
	}
	if _, err := s.pairings.FindByUser(ctx, sub.BatchID, sub.UserID); err == nil {
		return appErrors.Clone(appErrors.ErrAlreadyPaired, "user already has a partner in this batch")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check pairing state")
	}

	if err := s.submissions.ChangePartnerMode(ctx, req.SubmissionID, intent, s.now()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to change partner mode")
	}

	s.afterMutation(ctx, sub.BatchID, "change_mode")
	return nil
}

// BulkPair greedily pairs the batch's remaining pending system-match users by
// descending score. Every pair passes through the same membership constraint
// as single creation; users who lose a race are reported as skipped.
func (s *PairingService) BulkPair(ctx context.Context, batchID, adminID string) (*dto.BulkPairResult, error) {
	if batchID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batchId is required")
	}

	submissions, err := s.submissions.ListDetailsByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load submissions")
	}
	settled, err := s.pairings.MemberIDs(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load pairing members")
	}

	var pool []models.SubmissionDetail
	for _, sub := range ClassifySubmissions(submissions, settled).SystemMatch {
		if sub.Status == models.StatusPending {
			pool = append(pool, sub)
		}
	}
	if len(pool) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "need at least two unpaired system-match users")
	}

	type scoredPair struct {
		a, b  models.SubmissionDetail
		score int
	}
	pairs := make([]scoredPair, 0, len(pool)*(len(pool)-1)/2)
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			axes := compareAxes(pool[i].Preferences, pool[j].Preferences)
			pairs = append(pairs, scoredPair{a: pool[i], b: pool[j], score: axes.score()})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	result := &dto.BulkPairResult{Created: []models.Pairing{}, Unpaired: []string{}}
	used := make(map[string]struct{}, len(pool))
	for _, pair := range pairs {
		if len(result.Created) >= s.cfg.BulkMaxPairs {
			break
		}
		if _, ok := used[pair.a.UserID]; ok {
			continue
		}
		if _, ok := used[pair.b.UserID]; ok {
			continue
		}

		pairing, err := s.pairings.CreatePair(ctx, repository.PairParams{
			BatchID:       batchID,
			User1ID:       pair.a.UserID,
			User2ID:       pair.b.UserID,
			Source:        models.SourceSystemMatch,
			CreatedBy:     adminID,
			SubmissionIDs: []string{pair.a.ID, pair.b.ID},
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateMember) {
				// Lost a race with another admin session; leave these users
				// out of this run.
				used[pair.a.UserID] = struct{}{}
				used[pair.b.UserID] = struct{}{}
				result.Skipped = append(result.Skipped, pair.a.UserID, pair.b.UserID)
				continue
			}
			return nil, s.mapPairError(err)
		}
		used[pair.a.UserID] = struct{}{}
		used[pair.b.UserID] = struct{}{}
		result.Created = append(result.Created, *pairing)
	}

	for _, sub := range pool {
		if _, ok := used[sub.UserID]; !ok {
			result.Unpaired = append(result.Unpaired, sub.UserID)
		}
	}

	if len(result.Created) > 0 {
		s.afterMutation(ctx, batchID, "bulk")
	}
	return result, nil
}

// PairingForUser returns the pairing containing the user, if any.
func (s *PairingService) PairingForUser(ctx context.Context, batchID, userID string) (*models.Pairing, error) {
	pairing, err := s.pairings.FindByUser(ctx, batchID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no pairing for user in this batch")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load pairing")
	}
	return pairing, nil
}

// Roster flattens the batch's confirmed pairings into an exportable table.
func (s *PairingService) Roster(ctx context.Context, batchID string) (export.Table, error) {
	if batchID == "" {
		return export.Table{}, appErrors.Clone(appErrors.ErrValidation, "batchId is required")
	}
	details, err := s.pairings.ListDetailsByBatch(ctx, batchID)
	if err != nil {
		return export.Table{}, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load pairings")
	}

	table := export.Table{
		Headers: []string{"Pairing ID", "Student 1", "Student 2 / Companion", "Source", "Created At"},
		Rows:    make([][]string, 0, len(details)),
	}
	for _, detail := range details {
		second := ""
		switch {
		case detail.User2Name != nil:
			second = *detail.User2Name
		case detail.Companion != nil:
			second = detail.Companion.Name
			if detail.Companion.Relationship != "" {
				second += " (" + detail.Companion.Relationship + ")"
			}
		}
		table.Rows = append(table.Rows, []string{
			detail.ID,
			detail.User1Name,
			second,
			string(detail.Source),
			detail.CreatedAt.Format(time.RFC3339),
		})
	}
	return table, nil
}

func (s *PairingService) findSubmission(ctx context.Context, id string) (*models.Submission, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission id is required")
	}
	sub, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load submission")
	}
	return sub, nil
}

func (s *PairingService) findUserSubmission(ctx context.Context, userID, batchID string) (*models.Submission, error) {
	sub, err := s.submissions.FindByUserAndBatch(ctx, userID, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user has no submission in this batch")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load submission")
	}
	if sub.Status == models.StatusApproved {
		return nil, appErrors.Clone(appErrors.ErrAlreadyPaired, "user already has a partner in this batch")
	}
	return sub, nil
}

func (s *PairingService) mapPairError(err error) error {
	if errors.Is(err, repository.ErrDuplicateMember) {
		return appErrors.Clone(appErrors.ErrAlreadyPaired, "user already has a partner in this batch")
	}
	return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create pairing")
}

func (s *PairingService) afterMutation(ctx context.Context, batchID, operation string) {
	if s.stats != nil {
		s.stats.Invalidate(ctx, batchID)
	}
	if s.metrics != nil {
		s.metrics.RecordPairingMutation(operation)
	}
	s.logger.Info("pairing state changed",
		zap.String("batch_id", batchID),
		zap.String("operation", operation),
	)
}
