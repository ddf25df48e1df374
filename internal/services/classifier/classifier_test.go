package classifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ternarybob/arbitror/internal/models"
)

// buildDocument joins phrases with filler so each phrase appears exactly
// once in the scanned text
func buildDocument(phrases ...string) string {
	return strings.Join(phrases, " pursuant to the terms described herein ")
}

// twelveKeywordPhrases hit exactly 12 distinct keywords from the default set
var twelveKeywordPhrases = []string{
	"tender offer",
	"acquisition of",
	"to be acquired",
	"will be acquired",
	"business combination",
	"per share in cash",
	"all-cash transaction",
	"purchase price",
	"merger consideration",
	"change of control",
	"going private",
	"letter of intent",
}

func TestClassifyTiers(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name           string
		formType       string
		itemCodes      []string
		text           string
		wantTier       models.FilingTier
		wantRelevant   bool
		wantConfidence float64
		wantTicker     string
	}{
		{
			name:           "high priority form with ticker gets top tier",
			formType:       "8-K",
			itemCodes:      []string{"1.01", "8.01"},
			text:           buildDocument(twelveKeywordPhrases...) + " (NASDAQ: ACME)",
			wantTier:       models.TierHigh,
			wantRelevant:   true,
			wantConfidence: 0.95,
			wantTicker:     "ACME",
		},
		{
			name:           "strong keywords without ticker get second tier",
			formType:       "8-K",
			itemCodes:      []string{"1.01"},
			text:           buildDocument(twelveKeywordPhrases...),
			wantTier:       models.TierMediumHigh,
			wantRelevant:   true,
			wantConfidence: 0.78,
		},
		{
			name:           "moderate keywords get mid tier",
			formType:       "8-K",
			itemCodes:      []string{"8.01"},
			text:           buildDocument("tender offer", "acquisition of", "business combination", "purchase price", "change of control", "letter of intent"),
			wantTier:       models.TierMedium,
			wantRelevant:   true,
			wantConfidence: 0.65,
		},
		{
			name:           "too few keywords rejected",
			formType:       "8-K",
			itemCodes:      []string{"1.01"},
			text:           buildDocument("tender offer", "purchase price", "business combination"),
			wantTier:       models.TierRejected,
			wantRelevant:   false,
			wantConfidence: 0.30,
		},
		{
			name:           "historical reference vetoes despite strong keywords",
			formType:       "8-K",
			itemCodes:      []string{"1.01", "8.01"},
			text:           "As previously disclosed, " + buildDocument(twelveKeywordPhrases...) + " (NASDAQ: ACME)",
			wantTier:       models.TierRejected,
			wantRelevant:   false,
			wantConfidence: 0.30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filing := &models.FilingRecord{
				AccessionNo:  "0001193125-26-000001",
				CompanyName:  "Acme Robotics, Inc.",
				FormType:     tt.formType,
				ItemCodes:    tt.itemCodes,
				DocumentText: tt.text,
			}

			result := Classify(filing, rules)

			if result.Tier != tt.wantTier {
				t.Errorf("tier = %s, want %s (reasoning: %s)", result.Tier, tt.wantTier, result.Reasoning)
			}
			if result.IsRelevant != tt.wantRelevant {
				t.Errorf("isRelevant = %v, want %v", result.IsRelevant, tt.wantRelevant)
			}
			if result.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %.2f, want %.2f", result.Confidence, tt.wantConfidence)
			}
			if tt.wantTicker != "" && result.TargetTicker != tt.wantTicker {
				t.Errorf("targetTicker = %q, want %q", result.TargetTicker, tt.wantTicker)
			}
		})
	}
}

func TestClassifyDeterminism(t *testing.T) {
	rules := DefaultRules()
	filing := &models.FilingRecord{
		AccessionNo:  "0001193125-26-000002",
		CompanyName:  "Acme Robotics, Inc.",
		FormType:     "8-K",
		ItemCodes:    []string{"1.01"},
		DocumentText: buildDocument(twelveKeywordPhrases...) + " (NYSE: ACME)",
	}

	first := Classify(filing, rules)
	for i := 0; i < 5; i++ {
		again := Classify(filing, rules)
		if again.Confidence != first.Confidence || again.Tier != first.Tier || again.IsRelevant != first.IsRelevant {
			t.Fatalf("classification not deterministic: run %d gave %+v, first gave %+v", i, again, first)
		}
	}
}

func TestHistoricalMarkerOutsideWindowsIgnored(t *testing.T) {
	rules := DefaultRules()

	// Marker placed beyond the head window and away from any keyword hit
	padding := strings.Repeat("risk factor boilerplate text ", 120)
	text := buildDocument(twelveKeywordPhrases...) + " (NASDAQ: ACME) " + padding + " special meeting of stockholders"

	filing := &models.FilingRecord{
		AccessionNo:  "0001193125-26-000003",
		CompanyName:  "Acme Robotics, Inc.",
		FormType:     "8-K",
		ItemCodes:    []string{"1.01"},
		DocumentText: text,
	}

	result := Classify(filing, rules)
	if !result.IsRelevant {
		t.Fatalf("expected relevant, got rejected: %s", result.Reasoning)
	}
}

func TestMaterialityCap(t *testing.T) {
	rules := DefaultRules()
	text := buildDocument(twelveKeywordPhrases...) + " for $50 million (NASDAQ: ACME)"

	filing := &models.FilingRecord{
		AccessionNo:  "0001193125-26-000004",
		CompanyName:  "Acme Robotics, Inc.",
		FormType:     "8-K",
		ItemCodes:    []string{"1.01"},
		DocumentText: text,
	}

	result := Classify(filing, rules)
	if !result.IsRelevant {
		t.Fatalf("expected relevant, got rejected: %s", result.Reasoning)
	}
	if result.Confidence != rules.SmallDealCap {
		t.Errorf("confidence = %.2f, want capped at %.2f", result.Confidence, rules.SmallDealCap)
	}
}

func TestExtractTarget(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name       string
		text       string
		company    string
		wantName   string
		wantTicker string
	}{
		{
			name:       "acquisition of pattern",
			text:       "announced the acquisition of Acme Robotics, Inc. for $2.6 billion",
			company:    "Big Buyer Corp",
			wantName:   "Acme Robotics",
			wantTicker: "",
		},
		{
			name:       "ticker from exchange mention",
			text:       "Acme Robotics will be acquired by Big Buyer Corp (NASDAQ: ACME)",
			company:    "Acme Robotics, Inc.",
			wantName:   "Acme Robotics",
			wantTicker: "ACME",
		},
		{
			name:       "placeholder rejected falls back to filer",
			text:       "Parent agreed to acquire Merger Sub, a wholly owned subsidiary",
			company:    "Acme Robotics, Inc.",
			wantName:   "Acme Robotics, Inc.",
			wantTicker: "",
		},
		{
			name:       "share class ticker preserved",
			text:       "shares of the acquirer (NYSE: BRK.A) were unchanged",
			company:    "Target Co Inc",
			wantName:   "Target Co Inc",
			wantTicker: "BRK.A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filing := &models.FilingRecord{CompanyName: tt.company, DocumentText: tt.text}
			target := ExtractTarget(filing, rules)
			if target.Name != tt.wantName {
				t.Errorf("name = %q, want %q", target.Name, tt.wantName)
			}
			if target.Ticker != tt.wantTicker {
				t.Errorf("ticker = %q, want %q", target.Ticker, tt.wantTicker)
			}
		})
	}
}

func TestExtractDealValue(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		none bool
	}{
		{name: "billions", text: "an all-cash transaction valued at $2.6 billion", want: 2600},
		{name: "millions", text: "approximately $850 million in aggregate", want: 850},
		{name: "comma separated", text: "total consideration of $1,250 million", want: 1250},
		{name: "no value", text: "terms were not disclosed", none: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDealValue(tt.text)
			if tt.none {
				if got != nil {
					t.Fatalf("expected nil, got %.1f", *got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a value, got nil")
			}
			if *got != tt.want {
				t.Errorf("value = %.1f, want %.1f", *got, tt.want)
			}
		})
	}
}

func TestLoadRulesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")

	content := `
keywords = ["merger agreement", "tender offer"]
historical_markers = ["previously announced"]
high_keyword_count = 2
medium_keyword_count = 1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	if len(rules.Keywords) != 2 {
		t.Errorf("keywords = %d, want 2", len(rules.Keywords))
	}
	if rules.HighKeywordCount != 2 {
		t.Errorf("high_keyword_count = %d, want 2", rules.HighKeywordCount)
	}
	// Fields absent from the file keep their defaults
	if rules.HighConfidence != 0.95 {
		t.Errorf("high_confidence = %.2f, want default 0.95", rules.HighConfidence)
	}
}

func TestLoadRulesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	content := `
keywords:
  - merger agreement
  - tender offer
  - definitive agreement
historical_markers:
  - previously announced
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	if len(rules.Keywords) != 3 {
		t.Errorf("keywords = %d, want 3", len(rules.Keywords))
	}
}

func TestLoadRulesRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")

	// medium above high is inconsistent
	content := `
keywords = ["merger agreement"]
historical_markers = ["previously announced"]
high_keyword_count = 3
medium_keyword_count = 8
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected validation error, got nil")
	}
}
