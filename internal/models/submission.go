package models

import "time"

// TimeZone is the student's declared zone, drawn from the registration form.
type TimeZone string

// Indonesian zones cover most of the cohort; international students carry a
// GMT offset rollup from the intake form.
const (
	ZoneWIB  TimeZone = "WIB"
	ZoneWITA TimeZone = "WITA"
	ZoneWIT  TimeZone = "WIT"
)

// TimeSlot is one of the fixed daily time bands students pick from.
type TimeSlot string

const (
	SlotDawn      TimeSlot = "04-06"
	SlotMorning   TimeSlot = "06-09"
	SlotMidday    TimeSlot = "09-12"
	SlotAfternoon TimeSlot = "12-15"
	SlotLate      TimeSlot = "15-18"
	SlotEvening   TimeSlot = "18-21"
	SlotNight     TimeSlot = "21-24"
)

// JuzCode identifies the curriculum unit a student memorizes.
type JuzCode string

const (
	Juz30A JuzCode = "30A"
	Juz30B JuzCode = "30B"
	Juz28  JuzCode = "28"
	Juz29  JuzCode = "29"
)

// PartnerMode declares how a student wants to be paired.
type PartnerMode string

const (
	ModeSelfMatch   PartnerMode = "self_match"
	ModeSystemMatch PartnerMode = "system_match"
	ModeTarteel     PartnerMode = "tarteel"
	ModeFamily      PartnerMode = "family"
)

// Valid reports whether the mode is one of the four known values.
func (m PartnerMode) Valid() bool {
	switch m {
	case ModeSelfMatch, ModeSystemMatch, ModeTarteel, ModeFamily:
		return true
	}
	return false
}

// Companion reports whether the mode pairs with a non-student companion.
func (m PartnerMode) Companion() bool {
	return m == ModeTarteel || m == ModeFamily
}

// SubmissionStatus is the lifecycle state of a re-registration submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// Companion describes a fixed non-student partner for tarteel/family modes.
type Companion struct {
	Name         string `db:"partner_name" json:"name"`
	Relationship string `db:"partner_relationship" json:"relationship,omitempty"`
	Contact      string `db:"partner_contact" json:"contact,omitempty"`
	Notes        string `db:"partner_notes" json:"notes,omitempty"`
}

// PartnerIntent is the mode-tagged union of partner preferences.
// PartnerUserID is set iff Mode is self_match; Companion is set iff Mode is
// tarteel or family.
type PartnerIntent struct {
	Mode          PartnerMode `json:"mode"`
	PartnerUserID *string     `json:"partner_user_id,omitempty"`
	Companion     *Companion  `json:"companion,omitempty"`
}

// Validate enforces the mode/field invariants.
func (p PartnerIntent) Validate() error {
	if !p.Mode.Valid() {
		return errInvalidIntent("unknown partner mode")
	}
	switch {
	case p.Mode == ModeSelfMatch:
		if p.PartnerUserID == nil || *p.PartnerUserID == "" {
			return errInvalidIntent("self_match requires partner_user_id")
		}
		if p.Companion != nil {
			return errInvalidIntent("self_match must not carry companion fields")
		}
	case p.Mode.Companion():
		if p.Companion == nil || p.Companion.Name == "" {
			return errInvalidIntent(string(p.Mode) + " requires a companion name")
		}
		if p.PartnerUserID != nil {
			return errInvalidIntent(string(p.Mode) + " must not carry partner_user_id")
		}
	default:
		if p.PartnerUserID != nil || p.Companion != nil {
			return errInvalidIntent("system_match carries no partner fields")
		}
	}
	return nil
}

type errInvalidIntent string

func (e errInvalidIntent) Error() string { return string(e) }

// Preferences is the snapshot of scheduling preferences used for matching.
type Preferences struct {
	ChosenJuz      JuzCode  `db:"chosen_juz" json:"chosen_juz"`
	TimeZone       TimeZone `db:"time_zone" json:"time_zone"`
	MainTimeSlot   TimeSlot `db:"main_time_slot" json:"main_time_slot"`
	BackupTimeSlot TimeSlot `db:"backup_time_slot" json:"backup_time_slot"`
}

// Submission is one student's re-registration intent for one batch.
type Submission struct {
	ID      string `db:"id" json:"id"`
	UserID  string `db:"user_id" json:"user_id"`
	BatchID string `db:"batch_id" json:"batch_id"`

	Preferences
	Partner PartnerIntent `json:"partner"`

	Status          SubmissionStatus `db:"status" json:"status"`
	RejectionReason *string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
	SubmittedAt     time.Time        `db:"submitted_at" json:"submitted_at"`
	ReviewedAt      *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy      *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
}

// SubmissionDetail enriches a Submission with the student's profile fields
// for admin display.
type SubmissionDetail struct {
	Submission
	UserName     string `db:"user_name" json:"user_name"`
	UserEmail    string `db:"user_email" json:"user_email"`
	UserWhatsApp string `db:"user_whatsapp" json:"user_whatsapp,omitempty"`
}
