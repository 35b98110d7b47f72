package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tikrar-dev/tikrar-api/internal/models"
)

// SubmissionRepository provides persistence for re-registration submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// submissionRow flattens the partner tagged union into nullable columns.
type submissionRow struct {
	ID      string `db:"id"`
	UserID  string `db:"user_id"`
	BatchID string `db:"batch_id"`

	ChosenJuz      models.JuzCode  `db:"chosen_juz"`
	TimeZone       models.TimeZone `db:"time_zone"`
	MainTimeSlot   models.TimeSlot `db:"main_time_slot"`
	BackupTimeSlot models.TimeSlot `db:"backup_time_slot"`

	PartnerMode         models.PartnerMode `db:"partner_mode"`
	PartnerUserID       *string            `db:"partner_user_id"`
	PartnerName         *string            `db:"partner_name"`
	PartnerRelationship *string            `db:"partner_relationship"`
	PartnerContact      *string            `db:"partner_contact"`
	PartnerNotes        *string            `db:"partner_notes"`

	Status          models.SubmissionStatus `db:"status"`
	RejectionReason *string                 `db:"rejection_reason"`
	SubmittedAt     time.Time               `db:"submitted_at"`
	ReviewedAt      *time.Time              `db:"reviewed_at"`
	ReviewedBy      *string                 `db:"reviewed_by"`

	UserName     *string `db:"user_name"`
	UserEmail    *string `db:"user_email"`
	UserWhatsApp *string `db:"user_whatsapp"`
}

func (row submissionRow) toModel() models.Submission {
	sub := models.Submission{
		ID:      row.ID,
		UserID:  row.UserID,
		BatchID: row.BatchID,
		Preferences: models.Preferences{
			ChosenJuz:      row.ChosenJuz,
			TimeZone:       row.TimeZone,
			MainTimeSlot:   row.MainTimeSlot,
			BackupTimeSlot: row.BackupTimeSlot,
		},
		Partner:         models.PartnerIntent{Mode: row.PartnerMode},
		Status:          row.Status,
		RejectionReason: row.RejectionReason,
		SubmittedAt:     row.SubmittedAt,
		ReviewedAt:      row.ReviewedAt,
		ReviewedBy:      row.ReviewedBy,
	}
	switch {
	case row.PartnerMode == models.ModeSelfMatch:
		sub.Partner.PartnerUserID = row.PartnerUserID
	case row.PartnerMode.Companion():
		companion := &models.Companion{}
		if row.PartnerName != nil {
			companion.Name = *row.PartnerName
		}
		if row.PartnerRelationship != nil {
			companion.Relationship = *row.PartnerRelationship
		}
		if row.PartnerContact != nil {
			companion.Contact = *row.PartnerContact
		}
		if row.PartnerNotes != nil {
			companion.Notes = *row.PartnerNotes
		}
		sub.Partner.Companion = companion
	}
	return sub
}

func (row submissionRow) toDetail() models.SubmissionDetail {
	detail := models.SubmissionDetail{Submission: row.toModel()}
	if row.UserName != nil {
		detail.UserName = *row.UserName
	}
	if row.UserEmail != nil {
		detail.UserEmail = *row.UserEmail
	}
	if row.UserWhatsApp != nil {
		detail.UserWhatsApp = *row.UserWhatsApp
	}
	return detail
}

const submissionColumns = `s.id, s.user_id, s.batch_id, s.chosen_juz, s.time_zone, s.main_time_slot, s.backup_time_slot,
	s.partner_mode, s.partner_user_id, s.partner_name, s.partner_relationship, s.partner_contact, s.partner_notes,
	s.status, s.rejection_reason, s.submitted_at, s.reviewed_at, s.reviewed_by`

// ListDetailsByBatch returns every submission in the batch joined with the
// student's profile, ordered by submission time.
func (r *SubmissionRepository) ListDetailsByBatch(ctx context.Context, batchID string) ([]models.SubmissionDetail, error) {
	query := fmt.Sprintf(`
SELECT %s, u.full_name AS user_name, u.email AS user_email, u.whatsapp AS user_whatsapp
FROM submissions s
JOIN users u ON u.id = s.user_id
WHERE s.batch_id = $1
ORDER BY s.submitted_at ASC`, submissionColumns)

	var rows []submissionRow
	if err := r.db.SelectContext(ctx, &rows, query, batchID); err != nil {
		return nil, fmt.Errorf("list submissions for batch: %w", err)
	}
	details := make([]models.SubmissionDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, row.toDetail())
	}
	return details, nil
}

// FindByID fetches a single submission.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions s WHERE s.id = $1 LIMIT 1`, submissionColumns)
	var row submissionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission by id: %w", err)
	}
	sub := row.toModel()
	return &sub, nil
}

// FindByUserAndBatch fetches a user's submission for the batch.
func (r *SubmissionRepository) FindByUserAndBatch(ctx context.Context, userID, batchID string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions s WHERE s.user_id = $1 AND s.batch_id = $2 LIMIT 1`, submissionColumns)
	var row submissionRow
	if err := r.db.GetContext(ctx, &row, query, userID, batchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission by user and batch: %w", err)
	}
	sub := row.toModel()
	return &sub, nil
}

// Reject marks a pending submission rejected. The row is matched on pending
// status so a concurrent transition loses cleanly; callers inspect the
// returned flag.
func (r *SubmissionRepository) Reject(ctx context.Context, id string, reason *string, reviewedBy string, at time.Time) (bool, error) {
	const query = `UPDATE submissions SET status = $2, rejection_reason = $3, reviewed_by = $4, reviewed_at = $5
WHERE id = $1 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, id, models.StatusRejected, reason, reviewedBy, at, models.StatusPending)
	if err != nil {
		return false, fmt.Errorf("reject submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reject submission rows affected: %w", err)
	}
	return affected == 1, nil
}

// ChangePartnerMode rewrites the submission's partner intent and resets it to
// pending so it re-enters the review pool.
func (r *SubmissionRepository) ChangePartnerMode(ctx context.Context, id string, intent models.PartnerIntent, at time.Time) error {
	const query = `UPDATE submissions SET
	partner_mode = $2,
	partner_user_id = $3,
	partner_name = $4,
	partner_relationship = $5,
	partner_contact = $6,
	partner_notes = $7,
	status = $8,
	rejection_reason = NULL,
	reviewed_at = NULL,
	reviewed_by = NULL,
	submitted_at = $9
WHERE id = $1`

	var partnerUserID, name, relationship, contact, notes *string
	if intent.PartnerUserID != nil {
		partnerUserID = intent.PartnerUserID
	}
	if intent.Companion != nil {
		name = &intent.Companion.Name
		if intent.Companion.Relationship != "" {
			relationship = &intent.Companion.Relationship
		}
		if intent.Companion.Contact != "" {
			contact = &intent.Companion.Contact
		}
		if intent.Companion.Notes != "" {
			notes = &intent.Companion.Notes
		}
	}

	if _, err := r.db.ExecContext(ctx, query, id, intent.Mode, partnerUserID, name, relationship, contact, notes, models.StatusPending, at); err != nil {
		return fmt.Errorf("change partner mode: %w", err)
	}
	return nil
}

// CountByMode tallies submitted/approved submissions per partner mode.
func (r *SubmissionRepository) CountByMode(ctx context.Context, batchID string) (map[models.PartnerMode]models.ModeCount, error) {
	const query = `
SELECT partner_mode,
	COUNT(*) AS submitted,
	COUNT(*) FILTER (WHERE status = 'approved') AS approved
FROM submissions
WHERE batch_id = $1
GROUP BY partner_mode`

	var rows []struct {
		Mode      models.PartnerMode `db:"partner_mode"`
		Submitted int                `db:"submitted"`
		Approved  int                `db:"approved"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, batchID); err != nil {
		return nil, fmt.Errorf("count submissions by mode: %w", err)
	}

	counts := make(map[models.PartnerMode]models.ModeCount, len(rows))
	for _, row := range rows {
		counts[row.Mode] = models.ModeCount{Submitted: row.Submitted, Approved: row.Approved}
	}
	return counts, nil
}
