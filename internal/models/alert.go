package models

import (
	"fmt"
	"time"
)

// AlertType identifies what class of event produced the alert
type AlertType string

const (
	AlertTypeStagedDeal AlertType = "staged_deal" // New high-tier detection staged
	AlertTypeHaltMatch  AlertType = "halt_match"  // Halt on a tracked ticker
	AlertTypeTierChange AlertType = "tier_change" // Intelligence record promoted to active
)

// AlertStatus is the outbox delivery state
type AlertStatus string

const (
	AlertStatusPending   AlertStatus = "pending"
	AlertStatusDelivered AlertStatus = "delivered"
	AlertStatusFailed    AlertStatus = "failed" // Attempts exhausted
)

// AlertRecord is one queued notification. Records are written to the
// outbox in the same flow that produced the event and drained
// asynchronously by the dispatcher, so a webhook outage never blocks a
// polling cycle.
type AlertRecord struct {
	ID        string      `json:"id" badgerhold:"key"`
	Type      AlertType   `json:"type" badgerhold:"index"`
	Status    AlertStatus `json:"status" badgerhold:"index"`
	Subject   string      `json:"subject"`
	Body      string      `json:"body"`
	Reference string      `json:"reference,omitempty"` // Staged deal, halt, or intel id
	Attempts  int         `json:"attempts"`
	LastError string      `json:"last_error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Validate checks required fields before enqueue
func (a *AlertRecord) Validate() error {
	if a.Subject == "" {
		return fmt.Errorf("alert subject is required")
	}
	switch a.Type {
	case AlertTypeStagedDeal, AlertTypeHaltMatch, AlertTypeTierChange:
	default:
		return fmt.Errorf("invalid alert type: %s", a.Type)
	}
	return nil
}
