package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tikrar-dev/tikrar-api/internal/models"
)

// ErrDuplicateMember reports that one of the users already belongs to a
// pairing in the batch. It is raised by the UNIQUE(batch_id, user_id)
// constraint on pairing_members, which is what makes concurrent
// check-then-create sequences safe.
var ErrDuplicateMember = errors.New("user already belongs to a pairing in this batch")

// PairingRepository provides persistence for confirmed pairings.
type PairingRepository struct {
	db *sqlx.DB
}

// NewPairingRepository constructs the repository.
func NewPairingRepository(db *sqlx.DB) *PairingRepository {
	return &PairingRepository{db: db}
}

type pairingRow struct {
	ID      string  `db:"id"`
	BatchID string  `db:"batch_id"`
	User1ID string  `db:"user_1_id"`
	User2ID *string `db:"user_2_id"`

	Source models.PairingSource `db:"source"`

	CompanionName         *string `db:"companion_name"`
	CompanionRelationship *string `db:"companion_relationship"`
	CompanionContact      *string `db:"companion_contact"`
	CompanionNotes        *string `db:"companion_notes"`

	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`

	User1Name *string `db:"user_1_name"`
	User2Name *string `db:"user_2_name"`
}

func (row pairingRow) toModel() models.Pairing {
	p := models.Pairing{
		ID:        row.ID,
		BatchID:   row.BatchID,
		User1ID:   row.User1ID,
		User2ID:   row.User2ID,
		Source:    row.Source,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
	}
	if row.CompanionName != nil {
		companion := &models.Companion{Name: *row.CompanionName}
		if row.CompanionRelationship != nil {
			companion.Relationship = *row.CompanionRelationship
		}
		if row.CompanionContact != nil {
			companion.Contact = *row.CompanionContact
		}
		if row.CompanionNotes != nil {
			companion.Notes = *row.CompanionNotes
		}
		p.Companion = companion
	}
	return p
}

const pairingColumns = `p.id, p.batch_id, p.user_1_id, p.user_2_id, p.source,
	p.companion_name, p.companion_relationship, p.companion_contact, p.companion_notes,
	p.created_by, p.created_at`

// ListDetailsByBatch returns the batch's pairings with member names.
func (r *PairingRepository) ListDetailsByBatch(ctx context.Context, batchID string) ([]models.PairingDetail, error) {
	query := fmt.Sprintf(`
SELECT %s, u1.full_name AS user_1_name, u2.full_name AS user_2_name
FROM pairings p
JOIN users u1 ON u1.id = p.user_1_id
LEFT JOIN users u2 ON u2.id = p.user_2_id
WHERE p.batch_id = $1
ORDER BY p.created_at ASC`, pairingColumns)

	var rows []pairingRow
	if err := r.db.SelectContext(ctx, &rows, query, batchID); err != nil {
		return nil, fmt.Errorf("list pairings for batch: %w", err)
	}
	details := make([]models.PairingDetail, 0, len(rows))
	for _, row := range rows {
		detail := models.PairingDetail{Pairing: row.toModel()}
		if row.User1Name != nil {
			detail.User1Name = *row.User1Name
		}
		detail.User2Name = row.User2Name
		details = append(details, detail)
	}
	return details, nil
}

// MemberIDs returns the ids of every user already bound by a pairing in the
// batch. Used to exclude settled users from classification and scoring.
func (r *PairingRepository) MemberIDs(ctx context.Context, batchID string) (map[string]struct{}, error) {
	const query = `SELECT user_id FROM pairing_members WHERE batch_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, batchID); err != nil {
		return nil, fmt.Errorf("list pairing members: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// FindByUser returns the pairing containing the user in the batch, or
// sql.ErrNoRows when the user is unpaired.
func (r *PairingRepository) FindByUser(ctx context.Context, batchID, userID string) (*models.Pairing, error) {
	query := fmt.Sprintf(`
SELECT %s FROM pairings p
JOIN pairing_members m ON m.pairing_id = p.id
WHERE m.batch_id = $1 AND m.user_id = $2
LIMIT 1`, pairingColumns)

	var row pairingRow
	if err := r.db.GetContext(ctx, &row, query, batchID, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find pairing by user: %w", err)
	}
	p := row.toModel()
	return &p, nil
}

// PairParams holds everything needed to settle two students in one
// transaction: the pairing row, its membership rows and the approval of the
// backing submissions.
type PairParams struct {
	BatchID       string
	User1ID       string
	User2ID       string
	Source        models.PairingSource
	CreatedBy     string
	SubmissionIDs []string
}

// CreatePair atomically inserts the pairing, both membership rows and marks
// the backing submissions approved. A membership conflict aborts the whole
// transaction and surfaces as ErrDuplicateMember.
func (r *PairingRepository) CreatePair(ctx context.Context, params PairParams) (pairing *models.Pairing, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin pairing transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	p := models.Pairing{
		ID:        uuid.NewString(),
		BatchID:   params.BatchID,
		User1ID:   params.User1ID,
		User2ID:   &params.User2ID,
		Source:    params.Source,
		CreatedBy: params.CreatedBy,
		CreatedAt: now,
	}

	const insertPairing = `INSERT INTO pairings (id, batch_id, user_1_id, user_2_id, source, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err = tx.ExecContext(ctx, insertPairing, p.ID, p.BatchID, p.User1ID, p.User2ID, p.Source, p.CreatedBy, p.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert pairing: %w", err)
	}

	if err = insertMembers(ctx, tx, p.ID, p.BatchID, params.User1ID, params.User2ID); err != nil {
		return nil, err
	}

	if err = approveSubmissions(ctx, tx, params.SubmissionIDs, params.CreatedBy, now); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit pairing: %w", err)
	}
	return &p, nil
}

// CompanionPairParams settles a tarteel/family submission: one member, no
// second user, companion descriptor copied from the submission.
type CompanionPairParams struct {
	BatchID      string
	UserID       string
	Source       models.PairingSource
	Companion    models.Companion
	CreatedBy    string
	SubmissionID string
}

// CreateCompanionPair atomically inserts a one-sided pairing and approves the
// originating submission.
func (r *PairingRepository) CreateCompanionPair(ctx context.Context, params CompanionPairParams) (pairing *models.Pairing, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin companion pairing transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	p := models.Pairing{
		ID:        uuid.NewString(),
		BatchID:   params.BatchID,
		User1ID:   params.UserID,
		Source:    params.Source,
		Companion: &params.Companion,
		CreatedBy: params.CreatedBy,
		CreatedAt: now,
	}

	const insertPairing = `INSERT INTO pairings (id, batch_id, user_1_id, user_2_id, source, companion_name, companion_relationship, companion_contact, companion_notes, created_by, created_at)
VALUES ($1, $2, $3, NULL, $4, $5, $6, $7, $8, $9, $10)`
	if _, err = tx.ExecContext(ctx, insertPairing, p.ID, p.BatchID, p.User1ID, p.Source,
		nullable(params.Companion.Name), nullable(params.Companion.Relationship),
		nullable(params.Companion.Contact), nullable(params.Companion.Notes),
		p.CreatedBy, p.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert companion pairing: %w", err)
	}

	if err = insertMembers(ctx, tx, p.ID, p.BatchID, params.UserID); err != nil {
		return nil, err
	}

	if err = approveSubmissions(ctx, tx, []string{params.SubmissionID}, params.CreatedBy, now); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit companion pairing: %w", err)
	}
	return &p, nil
}

func insertMembers(ctx context.Context, tx *sqlx.Tx, pairingID, batchID string, userIDs ...string) error {
	const insertMember = `INSERT INTO pairing_members (pairing_id, batch_id, user_id) VALUES ($1, $2, $3)`
	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx, insertMember, pairingID, batchID, userID); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateMember
			}
			return fmt.Errorf("insert pairing member: %w", err)
		}
	}
	return nil
}

func approveSubmissions(ctx context.Context, tx *sqlx.Tx, submissionIDs []string, reviewedBy string, at time.Time) error {
	const query = `UPDATE submissions SET status = $2, reviewed_by = $3, reviewed_at = $4 WHERE id = $1`
	for _, id := range submissionIDs {
		if _, err := tx.ExecContext(ctx, query, id, models.StatusApproved, reviewedBy, at); err != nil {
			return fmt.Errorf("approve submission %s: %w", id, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
