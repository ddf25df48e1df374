package models

import (
	"fmt"
	"time"
)

// DealStatus is the lifecycle state of a production deal. The full deal
// lifecycle (versioning, pricing, CVRs) belongs to the CRUD layer; the
// pipeline only creates deals in open status and reads open deals to build
// the tracked-ticker set.
type DealStatus string

const (
	DealStatusOpen   DealStatus = "open"
	DealStatusClosed DealStatus = "closed"
	DealStatusBroken DealStatus = "broken"
)

// Deal is the durable record created from an approved StagedDeal. It owns
// a foreign reference back to the staged deal it was promoted from.
type Deal struct {
	ID           string     `json:"id"`
	TargetName   string     `json:"target_name"`
	TargetTicker string     `json:"target_ticker,omitempty"`
	AcquirerName string     `json:"acquirer_name,omitempty"`
	DealValue    *float64   `json:"deal_value,omitempty"`
	DealType     string     `json:"deal_type"`
	Status       DealStatus `json:"status"`
	StagedDealID string     `json:"staged_deal_id"` // Promotion provenance
	CreatedBy    string     `json:"created_by"`     // Reviewer who approved
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Validate checks required fields before persistence
func (d *Deal) Validate() error {
	if d.TargetName == "" {
		return fmt.Errorf("deal target name is required")
	}
	if d.StagedDealID == "" {
		return fmt.Errorf("deal staged deal reference is required")
	}
	return nil
}
