package models

// MatchTier is one of five ranked buckets a scored candidate falls into.
// Tiers are mutually exclusive, evaluated in this priority order.
type MatchTier string

const (
	TierPerfect  MatchTier = "perfect"   // zone, juz and main slot all match
	TierZonaUnit MatchTier = "zona_unit" // zone and juz match, main slot differs
	TierZona     MatchTier = "zona_waktu" // zone matches, juz differs
	TierSameUnit MatchTier = "same_unit" // juz matches, zone differs
	TierCross    MatchTier = "cross"     // neither zone nor juz match
)

// MatchCandidate is a scored projection of one eligible submission relative
// to a queried user. Derived on every read, never persisted.
type MatchCandidate struct {
	UserID       string   `json:"user_id"`
	FullName     string   `json:"full_name"`
	Email        string   `json:"email"`
	WhatsApp     string   `json:"whatsapp,omitempty"`
	Preferences           // candidate's preference snapshot
	MatchScore   int      `json:"match_score"`
	MatchTier    MatchTier `json:"match_tier"`
	MatchReasons []string `json:"match_reasons"`
}

// MatchBuckets groups candidates by tier, each bucket ordered by descending
// score then ascending submission time.
type MatchBuckets struct {
	Perfect  []MatchCandidate `json:"perfect"`
	ZonaUnit []MatchCandidate `json:"zona_unit"`
	Zona     []MatchCandidate `json:"zona_waktu"`
	SameUnit []MatchCandidate `json:"same_unit"`
	Cross    []MatchCandidate `json:"cross"`
}

// Total sums all bucket sizes.
func (b MatchBuckets) Total() int {
	return len(b.Perfect) + len(b.ZonaUnit) + len(b.Zona) + len(b.SameUnit) + len(b.Cross)
}
