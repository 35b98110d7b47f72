package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikrar-dev/tikrar-api/internal/models"
)

var testBase = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newDetail(id, userID string, mode models.PartnerMode, opts ...func(*models.SubmissionDetail)) models.SubmissionDetail {
	detail := models.SubmissionDetail{
		Submission: models.Submission{
			ID:      id,
			UserID:  userID,
			BatchID: "batch-1",
			Preferences: models.Preferences{
				ChosenJuz:      models.Juz30A,
				TimeZone:       models.ZoneWIB,
				MainTimeSlot:   models.SlotDawn,
				BackupTimeSlot: models.SlotEvening,
			},
			Partner:     models.PartnerIntent{Mode: mode},
			Status:      models.StatusPending,
			SubmittedAt: testBase,
		},
		UserName:  "Student " + userID,
		UserEmail: userID + "@tikrar.dev",
	}
	switch mode {
	case models.ModeTarteel, models.ModeFamily:
		detail.Partner.Companion = &models.Companion{Name: "Ummu Fulan", Relationship: "mother"}
	}
	for _, opt := range opts {
		opt(&detail)
	}
	return detail
}

func withPartner(partnerID string) func(*models.SubmissionDetail) {
	return func(d *models.SubmissionDetail) {
		d.Partner.PartnerUserID = strPtr(partnerID)
		d.Partner.Companion = nil
	}
}

func withStatus(status models.SubmissionStatus) func(*models.SubmissionDetail) {
	return func(d *models.SubmissionDetail) { d.Status = status }
}

func withSubmittedAt(ts time.Time) func(*models.SubmissionDetail) {
	return func(d *models.SubmissionDetail) { d.SubmittedAt = ts }
}

func withPreferences(prefs models.Preferences) func(*models.SubmissionDetail) {
	return func(d *models.SubmissionDetail) { d.Preferences = prefs }
}

func TestClassifySubmissionsPartitionsByMode(t *testing.T) {
	submissions := []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeSelfMatch, withPartner("user-2")),
		newDetail("sub-2", "user-2", models.ModeSelfMatch, withPartner("user-1")),
		newDetail("sub-3", "user-3", models.ModeSystemMatch),
		newDetail("sub-4", "user-4", models.ModeTarteel),
		newDetail("sub-5", "user-5", models.ModeFamily),
	}

	out := ClassifySubmissions(submissions, nil)
	assert.Len(t, out.SelfMatch, 2)
	assert.Len(t, out.SystemMatch, 1)
	assert.Len(t, out.Tarteel, 1)
	assert.Len(t, out.Family, 1)
}

func TestClassifySubmissionsExcludesSettledUsers(t *testing.T) {
	submissions := []models.SubmissionDetail{
		newDetail("sub-1", "user-1", models.ModeSystemMatch),
		newDetail("sub-2", "user-2", models.ModeSystemMatch),
	}
	settled := map[string]struct{}{"user-1": {}}

	out := ClassifySubmissions(submissions, settled)
	require.Len(t, out.SystemMatch, 1)
	assert.Equal(t, "user-2", out.SystemMatch[0].UserID)
}

func TestClassifySubmissionsEmptyBatch(t *testing.T) {
	out := ClassifySubmissions(nil, nil)
	assert.Empty(t, out.SelfMatch)
	assert.Empty(t, out.SystemMatch)
	assert.Empty(t, out.Tarteel)
	assert.Empty(t, out.Family)
}
