package service

import "github.com/tikrar-dev/tikrar-api/internal/models"

// ClassifiedSubmissions partitions a batch's submissions by partner mode.
// Settled users (those already bound by a pairing) appear in none of the
// lists.
type ClassifiedSubmissions struct {
	SelfMatch   []models.SubmissionDetail
	SystemMatch []models.SubmissionDetail
	Tarteel     []models.SubmissionDetail
	Family      []models.SubmissionDetail
}

// ClassifySubmissions projects submissions into four disjoint mode lists,
// excluding any user present in the settled set. Pure; an empty batch yields
// four empty lists.
func ClassifySubmissions(submissions []models.SubmissionDetail, settled map[string]struct{}) ClassifiedSubmissions {
	var out ClassifiedSubmissions
	for _, sub := range submissions {
		if _, ok := settled[sub.UserID]; ok {
			continue
		}
		switch sub.Partner.Mode {
		case models.ModeSelfMatch:
			out.SelfMatch = append(out.SelfMatch, sub)
		case models.ModeSystemMatch:
			out.SystemMatch = append(out.SystemMatch, sub)
		case models.ModeTarteel:
			out.Tarteel = append(out.Tarteel, sub)
		case models.ModeFamily:
			out.Family = append(out.Family, sub)
		}
	}
	return out
}
