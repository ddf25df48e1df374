package models

import (
	"fmt"
	"time"
)

// IntelTier is the aggregated confidence bucket for one real-world deal
type IntelTier string

const (
	// TierActive: >=2 independent sources, one with confidence >=0.75,
	// and a filing-verified public ticker
	TierActive IntelTier = "active"
	// TierRumored: filing-verified signal below the active source-count bar
	TierRumored IntelTier = "rumored"
	// TierWatchlist: everything else, including decayed records
	TierWatchlist IntelTier = "watchlist"
)

// Validate checks the tier is a known value
func (t IntelTier) Validate() error {
	switch t {
	case TierActive, TierRumored, TierWatchlist:
		return nil
	}
	return fmt.Errorf("invalid intelligence tier: %s", t)
}

// SourceContribution records one source's signal folded into a
// DealIntelligence record. A source name appears at most once; repeat
// signals from the same source update confidence and LastSeen only.
type SourceContribution struct {
	SourceName     string    `json:"source_name"` // e.g. "edgar_8k", "halt_nasdaq", "newsfeed"
	Confidence     float64   `json:"confidence"`
	FilingVerified bool      `json:"filing_verified"` // Backed by a regulatory filing
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
	Reference      string    `json:"reference,omitempty"` // Accession no, halt id, signal id
}

// DealIntelligence is the aggregated view of one real-world deal across
// all sources. Tier is a pure function of the contributor list plus the
// staleness input; it is recomputed on every fold and never hand-set.
type DealIntelligence struct {
	ID            string               `json:"id"`
	TargetName    string               `json:"target_name"` // Canonical (first-seen) spelling
	TargetTicker  string               `json:"target_ticker,omitempty"`
	AcquirerName  string               `json:"acquirer_name,omitempty"`
	Tier          IntelTier            `json:"tier"`
	Confidence    float64              `json:"confidence"` // Max across contributors
	Sources       []SourceContribution `json:"sources"`
	SourceCount   int                  `json:"source_count"`
	FirstDetected time.Time            `json:"first_detected"`
	LastSeen      time.Time            `json:"last_seen"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Validate checks required fields before persistence
func (di *DealIntelligence) Validate() error {
	if di.TargetName == "" {
		return fmt.Errorf("intelligence target name is required")
	}
	if err := di.Tier.Validate(); err != nil {
		return err
	}
	return nil
}

// HasFilingVerified reports whether any contributor is backed by a filing
func (di *DealIntelligence) HasFilingVerified() bool {
	for _, s := range di.Sources {
		if s.FilingVerified {
			return true
		}
	}
	return false
}

// MaxConfidence returns the highest per-source confidence
func (di *DealIntelligence) MaxConfidence() float64 {
	max := 0.0
	for _, s := range di.Sources {
		if s.Confidence > max {
			max = s.Confidence
		}
	}
	return max
}

// SourceSignal is one signal handed to the aggregator by a monitor
type SourceSignal struct {
	SourceName     string   `json:"source_name"`
	TargetName     string   `json:"target_name"`
	TargetTicker   string   `json:"target_ticker,omitempty"`
	AcquirerName   string   `json:"acquirer_name,omitempty"`
	Confidence     float64  `json:"confidence"`
	FilingVerified bool     `json:"filing_verified"`
	Reference      string   `json:"reference,omitempty"`
	DealValue      *float64 `json:"deal_value,omitempty"`
}

// Validate checks required fields before ingestion
func (s *SourceSignal) Validate() error {
	if s.SourceName == "" {
		return fmt.Errorf("signal source name is required")
	}
	if s.TargetName == "" && s.TargetTicker == "" {
		return fmt.Errorf("signal requires a target name or ticker")
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("signal confidence must be in [0,1], got %f", s.Confidence)
	}
	return nil
}
