package common

import (
	"github.com/google/uuid"
)

// NewFilingID generates a unique filing record ID with the "fil_" prefix
func NewFilingID() string {
	return "fil_" + uuid.New().String()
}

// NewHaltID generates a unique halt event ID with the "halt_" prefix
func NewHaltID() string {
	return "halt_" + uuid.New().String()
}

// NewStagedDealID generates a unique staged deal ID with the "stg_" prefix
func NewStagedDealID() string {
	return "stg_" + uuid.New().String()
}

// NewDealID generates a unique production deal ID with the "deal_" prefix
func NewDealID() string {
	return "deal_" + uuid.New().String()
}

// NewIntelligenceID generates a unique deal intelligence ID with the "intel_" prefix
func NewIntelligenceID() string {
	return "intel_" + uuid.New().String()
}

// NewAlertID generates a unique alert ID with the "alert_" prefix
func NewAlertID() string {
	return "alert_" + uuid.New().String()
}
