package models

import (
	"errors"
	"fmt"
	"time"
)

// Typed errors surfaced by the review state machine. These are the only
// pipeline errors meant to reach an end user.
var (
	// ErrInvalidTransition is returned when reviewing a staged deal that
	// has already reached a terminal status
	ErrInvalidTransition = errors.New("staged deal is not pending")
	// ErrNotFound is returned when the staged deal identifier is unknown
	ErrNotFound = errors.New("staged deal not found")
)

// StagedDealStatus is the review disposition of a staged deal
type StagedDealStatus string

const (
	StagedStatusPending  StagedDealStatus = "pending"
	StagedStatusApproved StagedDealStatus = "approved"
	StagedStatusRejected StagedDealStatus = "rejected"
)

// Terminal reports whether the status permits no further transitions
func (s StagedDealStatus) Terminal() bool {
	return s == StagedStatusApproved || s == StagedStatusRejected
}

// ReviewAction is a human disposition applied to a pending staged deal
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

// Validate checks the action is a known value
func (a ReviewAction) Validate() error {
	switch a {
	case ReviewActionApprove, ReviewActionReject:
		return nil
	}
	return fmt.Errorf("invalid review action: %s", a)
}

// ResearchStatus tracks analyst work on a staged deal, independent of the
// approve/reject state machine
type ResearchStatus string

const (
	ResearchStatusUnstarted  ResearchStatus = "unstarted"
	ResearchStatusInProgress ResearchStatus = "in_progress"
	ResearchStatusComplete   ResearchStatus = "complete"
)

// StagedDeal is a detection awaiting or having received human disposition.
// Status is monotonic: once approved or rejected it never returns to
// pending, and approval produces exactly one production Deal.
type StagedDeal struct {
	ID             string           `json:"id"`
	TargetName     string           `json:"target_name"`
	TargetTicker   string           `json:"target_ticker,omitempty"` // Empty for private targets
	AcquirerName   string           `json:"acquirer_name,omitempty"`
	DealValue      *float64         `json:"deal_value,omitempty"` // USD millions
	DealType       string           `json:"deal_type"`            // e.g. "merger", "tender_offer", "unknown"
	Confidence     float64          `json:"confidence"`
	Status         StagedDealStatus `json:"status"`
	ResearchStatus ResearchStatus   `json:"research_status"`
	SourceName     string           `json:"source_name"`           // Monitor that produced the detection
	SourceDocument string           `json:"source_document"`       // Filing accession no or signal reference
	FilingID       string           `json:"filing_id,omitempty"`   // Back-reference when filing sourced
	DetectedAt     time.Time        `json:"detected_at"`

	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required fields before persistence
func (d *StagedDeal) Validate() error {
	if d.TargetName == "" {
		return fmt.Errorf("staged deal target name is required")
	}
	if d.SourceDocument == "" {
		return fmt.Errorf("staged deal source document is required")
	}
	switch d.Status {
	case StagedStatusPending, StagedStatusApproved, StagedStatusRejected:
	default:
		return fmt.Errorf("invalid staged deal status: %s", d.Status)
	}
	return nil
}

// IdentityKey returns the idempotency key for staging: one staged deal per
// (target, acquirer, source document) triple
func (d *StagedDeal) IdentityKey() string {
	return fmt.Sprintf("%s|%s|%s", NormalizeIdentity(d.TargetName), NormalizeIdentity(d.AcquirerName), d.SourceDocument)
}
