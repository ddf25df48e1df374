package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Rules holds the keyword lists and thresholds driving classification.
// Everything here is data, not code: recalibration is a config edit and a
// reload, never a redeploy.
type Rules struct {
	// Distinct-match keyword set signalling a fresh M&A announcement
	Keywords []string `toml:"keywords" yaml:"keywords" validate:"required,min=1"`

	// Phrases signalling the filing concerns an already-announced deal.
	// Any match inside the scan windows vetoes relevance outright.
	HistoricalMarkers []string `toml:"historical_markers" yaml:"historical_markers" validate:"required,min=1"`

	// Form types more likely to carry a fresh material announcement
	PriorityForms []string `toml:"priority_forms" yaml:"priority_forms"`
	// 8-K item codes treated as high priority
	PriorityItemCodes []string `toml:"priority_item_codes" yaml:"priority_item_codes"`

	// Generic entity names never accepted as an extraction result
	PlaceholderNames []string `toml:"placeholder_names" yaml:"placeholder_names"`

	// Distinct keyword hits required for the top two tiers
	HighKeywordCount int `toml:"high_keyword_count" yaml:"high_keyword_count" validate:"min=1"`
	// Distinct keyword hits required for the medium tier
	MediumKeywordCount int `toml:"medium_keyword_count" yaml:"medium_keyword_count" validate:"min=1"`

	// Historical markers are only scanned near the document head and in a
	// context window around each keyword hit (characters)
	HeadWindow    int `toml:"head_window" yaml:"head_window" validate:"min=1"`
	ContextWindow int `toml:"context_window" yaml:"context_window" validate:"min=1"`

	// Tier confidences
	HighConfidence       float64 `toml:"high_confidence" yaml:"high_confidence" validate:"gt=0,lte=1"`
	MediumHighConfidence float64 `toml:"medium_high_confidence" yaml:"medium_high_confidence" validate:"gt=0,lte=1"`
	MediumConfidence     float64 `toml:"medium_confidence" yaml:"medium_confidence" validate:"gt=0,lte=1"`
	RejectConfidence     float64 `toml:"reject_confidence" yaml:"reject_confidence" validate:"gt=0,lte=1"`

	// Deals below this extracted value (USD millions) have confidence
	// capped at SmallDealCap. Zero disables the materiality check.
	MinDealValueMillions float64 `toml:"min_deal_value_millions" yaml:"min_deal_value_millions" validate:"min=0"`
	SmallDealCap         float64 `toml:"small_deal_cap" yaml:"small_deal_cap" validate:"gt=0,lte=1"`
}

// DefaultRules returns the baseline rule set
func DefaultRules() *Rules {
	return &Rules{
		Keywords: []string{
			"merger agreement",
			"agreement and plan of merger",
			"definitive agreement",
			"definitive merger agreement",
			"tender offer",
			"acquisition of",
			"to be acquired",
			"will be acquired",
			"to acquire",
			"business combination",
			"per share in cash",
			"all-cash transaction",
			"all cash transaction",
			"purchase price",
			"transaction consideration",
			"merger consideration",
			"change of control",
			"going private",
			"take-private",
			"letter of intent",
			"strategic alternatives",
			"exchange offer",
		},
		HistoricalMarkers: []string{
			"previously announced",
			"as previously disclosed",
			"as previously announced",
			"special meeting of stockholders",
			"special meeting of shareholders",
			"definitive proxy",
			"proxy statement relating to the previously",
		},
		PriorityForms: []string{
			"8-K",
			"SC 14D9",
			"SC TO-T",
			"DEFM14A",
			"PREM14A",
			"S-4",
		},
		PriorityItemCodes: []string{
			"1.01", // Entry into a material definitive agreement
			"8.01", // Other events
			"5.01", // Change in control
		},
		PlaceholderNames: []string{
			"the company",
			"company",
			"parent",
			"merger sub",
			"merger subsidiary",
			"acquisition sub",
			"purchaser",
			"the issuer",
			"the registrant",
			"buyer",
			"seller",
		},
		HighKeywordCount:     10,
		MediumKeywordCount:   5,
		HeadWindow:           2000,
		ContextWindow:        300,
		HighConfidence:       0.95,
		MediumHighConfidence: 0.78,
		MediumConfidence:     0.65,
		RejectConfidence:     0.30,
		MinDealValueMillions: 100,
		SmallDealCap:         0.85,
	}
}

var rulesValidator = validator.New()

// Validate checks the rule set for internal consistency
func (r *Rules) Validate() error {
	if err := rulesValidator.Struct(r); err != nil {
		return fmt.Errorf("invalid classifier rules: %w", err)
	}
	if r.MediumKeywordCount > r.HighKeywordCount {
		return fmt.Errorf("invalid classifier rules: medium_keyword_count exceeds high_keyword_count")
	}
	return nil
}

// LoadRules reads a rule set from a TOML or YAML file
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules := DefaultRules()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, rules); err != nil {
			return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, rules); err != nil {
			return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported rules file format: %s", ext)
	}

	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}
