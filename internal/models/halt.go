package models

import (
	"fmt"
	"time"
)

// Halt reason codes as published by the exchanges.
// T1/LUDP-style codes are informational; T12/H10 indicate pending
// material news and are the interesting ones for deal correlation.
const (
	HaltCodeNewsPending       = "T1"   // News pending
	HaltCodeNewsDissemination = "T2"   // News released, dissemination period
	HaltCodeLULD              = "LUDP" // Limit up/limit down volatility pause
	HaltCodeSECSuspension     = "H10"  // SEC trading suspension
	HaltCodeRegulatory        = "T12"  // Additional information requested by exchange
)

// MaterialHaltCodes are halt codes that signal potential deal news
var MaterialHaltCodes = map[string]bool{
	HaltCodeNewsPending:   true,
	HaltCodeSECSuspension: true,
	HaltCodeRegulatory:    true,
}

// HaltEvent is one detected trading halt.
// (Ticker, HaltedAt) is unique per polling epoch: a halt already seen in
// a prior cycle is never re-emitted. Created by the halt correlator,
// mutated only to set linkage and alert flags, never deleted.
type HaltEvent struct {
	ID         string    `json:"id"`
	Ticker     string    `json:"ticker"`
	Exchange   string    `json:"exchange"`
	HaltCode   string    `json:"halt_code"`
	HaltedAt   time.Time `json:"halted_at"`   // Time reported by the exchange
	DetectedAt time.Time `json:"detected_at"` // Time we first saw it

	// Linkage, set when the ticker matches a tracked deal
	LinkedDealID string `json:"linked_deal_id,omitempty"`
	AlertSent    bool   `json:"alert_sent"`

	CreatedAt time.Time `json:"created_at"`
}

// IsMaterial reports whether the halt code indicates pending material news
func (h *HaltEvent) IsMaterial() bool {
	return MaterialHaltCodes[h.HaltCode]
}

// Validate checks required fields before persistence
func (h *HaltEvent) Validate() error {
	if h.Ticker == "" {
		return fmt.Errorf("halt ticker is required")
	}
	if h.HaltCode == "" {
		return fmt.Errorf("halt code is required")
	}
	if h.HaltedAt.IsZero() {
		return fmt.Errorf("halt time is required")
	}
	return nil
}
