package service

import (
	"sort"

	"github.com/tikrar-dev/tikrar-api/internal/models"
)

// MutualEntry is one self-match submission annotated with reciprocity. A
// mutual pair is reported once, on the side whose user id orders first; the
// reciprocal submission rides along so approval can settle both sides.
type MutualEntry struct {
	Submission models.SubmissionDetail
	Reciprocal *models.SubmissionDetail
	IsMutual   bool
}

// DetectMutualMatches finds reciprocal self-match pairs (A chose B and B
// chose A). One-sided entries come through with IsMutual=false. Entries are
// ordered by submission time ascending for display.
func DetectMutualMatches(selfMatch []models.SubmissionDetail) []MutualEntry {
	chosenBy := make(map[string]*models.SubmissionDetail, len(selfMatch))
	for i := range selfMatch {
		chosenBy[selfMatch[i].UserID] = &selfMatch[i]
	}

	entries := make([]MutualEntry, 0, len(selfMatch))
	for i := range selfMatch {
		sub := selfMatch[i]
		if sub.Partner.PartnerUserID == nil {
			continue
		}
		partnerID := *sub.Partner.PartnerUserID

		reciprocal, ok := chosenBy[partnerID]
		mutual := ok && partnerID != sub.UserID &&
			reciprocal.Partner.PartnerUserID != nil &&
			*reciprocal.Partner.PartnerUserID == sub.UserID

		if mutual {
			// Report the pair once, from the lexicographically smaller side.
			if sub.UserID > partnerID {
				continue
			}
			entries = append(entries, MutualEntry{Submission: sub, Reciprocal: reciprocal, IsMutual: true})
			continue
		}
		entries = append(entries, MutualEntry{Submission: sub})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Submission.SubmittedAt.Before(entries[j].Submission.SubmittedAt)
	})
	return entries
}
