package models

import (
	"fmt"
	"time"
)

// FilingTier is the relevance confidence bucket assigned by the classifier
type FilingTier string

const (
	// TierHigh: strong keyword evidence, high-priority form, verified ticker (~0.95)
	TierHigh FilingTier = "high"
	// TierMediumHigh: strong keyword evidence without ticker verification (~0.78)
	TierMediumHigh FilingTier = "medium_high"
	// TierMedium: moderate keyword evidence (~0.65)
	TierMedium FilingTier = "medium"
	// TierRejected: historical reference present or insufficient evidence (~0.30)
	TierRejected FilingTier = "rejected"
)

// Validate checks the tier is a known value
func (t FilingTier) Validate() error {
	switch t {
	case TierHigh, TierMediumHigh, TierMedium, TierRejected:
		return nil
	}
	return fmt.Errorf("invalid filing tier: %s", t)
}

// Staged reports whether filings at this tier enter the review queue.
// Rejected filings are kept for the audit trail but never staged.
func (t FilingTier) Staged() bool {
	return t == TierHigh || t == TierMediumHigh || t == TierMedium
}

// FilingRecord is one fetched regulatory filing.
// Created by the filing monitor on fetch; classified exactly once; never
// deleted (audit trail). AccessionNo is the global uniqueness key.
type FilingRecord struct {
	ID           string     `json:"id"`
	AccessionNo  string     `json:"accession_no"` // e.g. "0001193125-26-104522"
	CompanyName  string     `json:"company_name"` // Filer name
	CompanyCIK   string     `json:"company_cik,omitempty"`
	FormType     string     `json:"form_type"`            // e.g. "8-K", "SC 14D9", "DEFM14A"
	ItemCodes    []string   `json:"item_codes,omitempty"` // e.g. ["1.01", "8.01"]
	FiledAt      time.Time  `json:"filed_at"`
	DocumentURL  string     `json:"document_url,omitempty"`
	DocumentText string     `json:"document_text,omitempty"`

	// Classification output, written once when Processed flips to true
	Keywords     []string   `json:"keywords,omitempty"`
	Confidence   float64    `json:"confidence"`
	Tier         FilingTier `json:"tier,omitempty"`
	IsRelevant   bool       `json:"is_relevant"`
	TargetTicker string     `json:"target_ticker,omitempty"`
	TargetName   string     `json:"target_name,omitempty"`
	DealValue    *float64   `json:"deal_value,omitempty"` // USD millions when extractable
	Reasoning    string     `json:"reasoning,omitempty"`
	Processed    bool       `json:"processed"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`

	// Downstream linkage, the only fields mutable after processing
	StagedDealID string `json:"staged_deal_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Key returns the storage uniqueness key used for polling dedup
func (f *FilingRecord) Key() string {
	return f.AccessionNo
}

// FilingListOptions filters filing list queries. Zero values mean "any".
type FilingListOptions struct {
	FormType     string
	Tier         FilingTier
	RelevantOnly bool
	Since        time.Time
	Limit        int
}

// Validate checks required fields before persistence
func (f *FilingRecord) Validate() error {
	if f.AccessionNo == "" {
		return fmt.Errorf("filing accession number is required")
	}
	if f.CompanyName == "" {
		return fmt.Errorf("filing company name is required")
	}
	if f.FormType == "" {
		return fmt.Errorf("filing form type is required")
	}
	return nil
}
