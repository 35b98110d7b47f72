package models

import "time"

// PairingSource records which workflow produced a pairing.
type PairingSource string

const (
	SourceSelfMatch   PairingSource = "self_match"
	SourceSystemMatch PairingSource = "system_match"
	SourceManual      PairingSource = "manual"
	SourceTarteel     PairingSource = "tarteel"
	SourceFamily      PairingSource = "family"
)

// Pairing is a confirmed accountability-partner link within a batch.
// User2ID is nil for companion pairings (tarteel/family), which carry the
// companion descriptor copied from the originating submission instead.
type Pairing struct {
	ID        string        `db:"id" json:"id"`
	BatchID   string        `db:"batch_id" json:"batch_id"`
	User1ID   string        `db:"user_1_id" json:"user_1_id"`
	User2ID   *string       `db:"user_2_id" json:"user_2_id,omitempty"`
	Source    PairingSource `db:"source" json:"source"`
	Companion *Companion    `json:"companion,omitempty"`
	CreatedBy string        `db:"created_by" json:"created_by"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// Members returns the user ids bound by this pairing.
func (p Pairing) Members() []string {
	if p.User2ID == nil {
		return []string{p.User1ID}
	}
	return []string{p.User1ID, *p.User2ID}
}

// PairingDetail enriches a Pairing with member names for rosters.
type PairingDetail struct {
	Pairing
	User1Name string  `db:"user_1_name" json:"user_1_name"`
	User2Name *string `db:"user_2_name" json:"user_2_name,omitempty"`
}
