package models

// Classification is the classifier verdict for one filing. The filing
// monitor copies these fields onto the FilingRecord when marking it
// processed.
type Classification struct {
	IsRelevant   bool       `json:"is_relevant"`
	Confidence   float64    `json:"confidence"`
	Tier         FilingTier `json:"tier"`
	Keywords     []string   `json:"keywords,omitempty"` // Matched keywords, deduplicated
	TargetName   string     `json:"target_name,omitempty"`
	TargetTicker string     `json:"target_ticker,omitempty"`
	AcquirerName string     `json:"acquirer_name,omitempty"`
	DealValue    *float64   `json:"deal_value,omitempty"` // USD millions
	Reasoning    string     `json:"reasoning"`
}

// Apply copies the verdict onto a filing record
func (c *Classification) Apply(f *FilingRecord) {
	f.IsRelevant = c.IsRelevant
	f.Confidence = c.Confidence
	f.Tier = c.Tier
	f.Keywords = c.Keywords
	f.TargetName = c.TargetName
	f.TargetTicker = c.TargetTicker
	f.DealValue = c.DealValue
	f.Reasoning = c.Reasoning
}
