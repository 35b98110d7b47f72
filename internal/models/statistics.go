package models

// ModeCount is the submitted/approved tally for a single partner mode.
type ModeCount struct {
	Submitted int `json:"submitted"`
	Approved  int `json:"approved"`
}

// PairingStatistics summarizes a batch's workflows for the dashboard.
type PairingStatistics struct {
	SelfMatch   ModeCount `json:"self_match"`
	SystemMatch ModeCount `json:"system_match"`
	Tarteel     ModeCount `json:"tarteel"`
	Family      ModeCount `json:"family"`
}
