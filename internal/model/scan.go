package model

import "time"

// ScanStatus represents the lifecycle state of a scan task.
type ScanStatus string

const (
	ScanStatusQueued    ScanStatus = "queued"
	ScanStatusActive    ScanStatus = "active"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// Scan is a single presence scan task with its lifecycle state.
type Scan struct {
	ID        string        `json:"id"`
	Business  BusinessInput `json:"business"`
	Status    ScanStatus    `json:"status"`
	Result    *ScanResult   `json:"result,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ScanResult is the final artifact delivered for a completed scan.
type ScanResult struct {
	ScanID     string           `json:"scan_id"`
	Business   BusinessInput    `json:"business"`
	Presence   ReconciledOutput `json:"presence"`
	Insights   InsightFlags     `json:"insights"`
	FinishedAt time.Time        `json:"finished_at"`
}

// ContactField holds the reconciled value for one contact field: the chosen
// primary, deduplicated alternatives, and whether a harvested fact
// corroborated the user-supplied value.
type ContactField struct {
	Primary   string   `json:"primary,omitempty"`
	Secondary []string `json:"secondary"`
	Verified  bool     `json:"verified"`
}

// ContactDetails groups reconciled contact fields.
type ContactDetails struct {
	Emails    ContactField `json:"emails"`
	Phones    ContactField `json:"phones"`
	Addresses ContactField `json:"addresses"`
}

// BusinessInfo echoes the original input along with the fields that were
// independently corroborated during the scan.
type BusinessInfo struct {
	BusinessInput
	VerifiedFields []string `json:"verified_fields"`
}

// ReconciledOutput is the scan's terminal artifact. Created once by the
// reconciliation merger and never mutated afterward.
type ReconciledOutput struct {
	BusinessInfo    BusinessInfo   `json:"business_info"`
	ContactDetails  ContactDetails `json:"contact_details"`
	SocialLinks     []SocialEntry  `json:"social_links"`
	ConfidenceScore int            `json:"confidence_score"`
}

// InsightFlags is the set of boolean presence-gap indicators derived from a
// reconciled output. Disposable; recomputed on demand.
type InsightFlags map[string]bool
