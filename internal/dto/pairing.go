package dto

import (
	"time"

	"github.com/tikrar-dev/tikrar-api/internal/models"
)

// PartnerPreview carries the resolved partner's profile and preferences for
// admin review of self-match requests.
type PartnerPreview struct {
	UserID         string          `json:"user_id"`
	FullName       string          `json:"full_name"`
	Email          string          `json:"email"`
	WhatsApp       string          `json:"whatsapp,omitempty"`
	ChosenJuz      models.JuzCode  `json:"chosen_juz,omitempty"`
	TimeZone       models.TimeZone `json:"time_zone,omitempty"`
	MainTimeSlot   models.TimeSlot `json:"main_time_slot,omitempty"`
	BackupTimeSlot models.TimeSlot `json:"backup_time_slot,omitempty"`
}

// SelfMatchRequest is one self-match submission surfaced for review.
// Mutual pairs appear once, flagged with IsMutualMatch.
type SelfMatchRequest struct {
	SubmissionID  string                  `json:"submission_id"`
	UserID        string                  `json:"user_id"`
	UserName      string                  `json:"user_name"`
	UserEmail     string                  `json:"user_email"`
	Preferences   models.Preferences      `json:"preferences"`
	PartnerUserID string                  `json:"partner_user_id"`
	Partner       *PartnerPreview         `json:"partner,omitempty"`
	IsMutualMatch bool                    `json:"is_mutual_match"`
	// ReciprocalSubmissionID is set for mutual pairs so approval can settle
	// both sides in one transaction.
	ReciprocalSubmissionID string          `json:"reciprocal_submission_id,omitempty"`
	Status                 models.SubmissionStatus `json:"status"`
	SubmittedAt            time.Time       `json:"submitted_at"`
}

// SystemMatchRequest is one system-match submission with its precomputed
// candidate count (full candidate lists come from the match endpoint).
type SystemMatchRequest struct {
	SubmissionID string                  `json:"submission_id"`
	UserID       string                  `json:"user_id"`
	UserName     string                  `json:"user_name"`
	UserEmail    string                  `json:"user_email"`
	Preferences  models.Preferences      `json:"preferences"`
	MatchCount   int                     `json:"match_count"`
	Status       models.SubmissionStatus `json:"status"`
	SubmittedAt  time.Time               `json:"submitted_at"`
}

// CompanionRequest is one tarteel/family submission awaiting approval.
type CompanionRequest struct {
	SubmissionID string                  `json:"submission_id"`
	UserID       string                  `json:"user_id"`
	UserName     string                  `json:"user_name"`
	UserEmail    string                  `json:"user_email"`
	Mode         models.PartnerMode      `json:"mode"`
	Companion    models.Companion        `json:"companion"`
	Status       models.SubmissionStatus `json:"status"`
	SubmittedAt  time.Time               `json:"submitted_at"`
}

// PairingRequestsResponse is the admin review board: all unsettled requests
// for a batch, partitioned by partner mode.
type PairingRequestsResponse struct {
	SelfMatch   []SelfMatchRequest   `json:"self_match"`
	SystemMatch []SystemMatchRequest `json:"system_match"`
	Tarteel     []CompanionRequest   `json:"tarteel"`
	Family      []CompanionRequest   `json:"family"`
}

// CandidatesResponse is the scored candidate pool for one target user.
type CandidatesResponse struct {
	User         TargetUser          `json:"user"`
	Matches      models.MatchBuckets `json:"matches"`
	TotalMatches int                 `json:"total_matches"`
}

// TargetUser echoes the queried user's preferences alongside the buckets.
type TargetUser struct {
	UserID      string             `json:"user_id"`
	FullName    string             `json:"full_name"`
	Preferences models.Preferences `json:"preferences"`
}

// MutationResult reports the outcome of a state-machine operation.
type MutationResult struct {
	Success bool            `json:"success"`
	Pairing *models.Pairing `json:"pairing,omitempty"`
}

// BulkPairResult reports the pairs created by one bulk invocation and the
// users left over (odd pool, or lost races).
type BulkPairResult struct {
	Created  []models.Pairing `json:"created"`
	Unpaired []string         `json:"unpaired"`
	Skipped  []string         `json:"skipped,omitempty"`
}
