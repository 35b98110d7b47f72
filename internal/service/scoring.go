package service

import (
	"sort"
	"time"

	"github.com/tikrar-dev/tikrar-api/internal/models"
)

// Additive score weights for each preference axis. The backup slot
// contributes to the score but never to tiering.
const (
	weightZone       = 3
	weightJuz        = 3
	weightMainSlot   = 4
	weightBackupSlot = 1
)

// axisMatches captures which preference axes two students share.
type axisMatches struct {
	Zone       bool
	Juz        bool
	MainSlot   bool
	BackupSlot bool
}

func compareAxes(a, b models.Preferences) axisMatches {
	return axisMatches{
		Zone:       a.TimeZone != "" && a.TimeZone == b.TimeZone,
		Juz:        a.ChosenJuz != "" && a.ChosenJuz == b.ChosenJuz,
		MainSlot:   a.MainTimeSlot != "" && a.MainTimeSlot == b.MainTimeSlot,
		BackupSlot: a.BackupTimeSlot != "" && a.BackupTimeSlot == b.BackupTimeSlot,
	}
}

func (m axisMatches) score() int {
	score := 0
	if m.Zone {
		score += weightZone
	}
	if m.Juz {
		score += weightJuz
	}
	if m.MainSlot {
		score += weightMainSlot
	}
	if m.BackupSlot {
		score += weightBackupSlot
	}
	return score
}

// tier assigns exactly one bucket, evaluated in priority order.
func (m axisMatches) tier() models.MatchTier {
	switch {
	case m.Zone && m.Juz && m.MainSlot:
		return models.TierPerfect
	case m.Zone && m.Juz:
		return models.TierZonaUnit
	case m.Zone:
		return models.TierZona
	case m.Juz:
		return models.TierSameUnit
	default:
		return models.TierCross
	}
}

func (m axisMatches) reasons() []string {
	var reasons []string
	if m.Zone {
		reasons = append(reasons, "same time zone")
	}
	if m.Juz {
		reasons = append(reasons, "same curriculum unit")
	}
	if m.MainSlot {
		reasons = append(reasons, "main time slot matches")
	}
	if m.BackupSlot {
		reasons = append(reasons, "backup time slot matches")
	}
	return reasons
}

// ScoreCandidates scores every submission in the pool against the target's
// preferences and buckets the results into the five tiers. Buckets are
// ordered by descending score, ties broken by earlier submission.
func ScoreCandidates(target models.Preferences, pool []models.SubmissionDetail) models.MatchBuckets {
	type scored struct {
		candidate   models.MatchCandidate
		submittedAt time.Time
	}
	byTier := make(map[models.MatchTier][]scored, 5)

	for _, sub := range pool {
		axes := compareAxes(target, sub.Preferences)
		candidate := models.MatchCandidate{
			UserID:       sub.UserID,
			FullName:     sub.UserName,
			Email:        sub.UserEmail,
			WhatsApp:     sub.UserWhatsApp,
			Preferences:  sub.Preferences,
			MatchScore:   axes.score(),
			MatchTier:    axes.tier(),
			MatchReasons: axes.reasons(),
		}
		byTier[candidate.MatchTier] = append(byTier[candidate.MatchTier], scored{candidate, sub.SubmittedAt})
	}

	sortBucket := func(tier models.MatchTier) []models.MatchCandidate {
		entries := byTier[tier]
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].candidate.MatchScore != entries[j].candidate.MatchScore {
				return entries[i].candidate.MatchScore > entries[j].candidate.MatchScore
			}
			return entries[i].submittedAt.Before(entries[j].submittedAt)
		})
		out := make([]models.MatchCandidate, len(entries))
		for i, e := range entries {
			out[i] = e.candidate
		}
		return out
	}

	return models.MatchBuckets{
		Perfect:  sortBucket(models.TierPerfect),
		ZonaUnit: sortBucket(models.TierZonaUnit),
		Zona:     sortBucket(models.TierZona),
		SameUnit: sortBucket(models.TierSameUnit),
		Cross:    sortBucket(models.TierCross),
	}
}
