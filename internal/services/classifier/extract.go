package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/arbitror/internal/models"
)

// Target is an extraction result: the company being acquired
type Target struct {
	Name   string
	Ticker string
}

// Ordered name patterns. Earlier patterns win; all capture the candidate
// company name in group 1.
var targetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)acquisition of ([A-Z][A-Za-z0-9&.,' -]{2,60}?)(?:\s*\(|,| by | from | for \$| and |\.\s)`),
	regexp.MustCompile(`(?i)([A-Z][A-Za-z0-9&.,' -]{2,60}?) will be acquired`),
	regexp.MustCompile(`(?i)([A-Z][A-Za-z0-9&.,' -]{2,60}?) to be acquired`),
	regexp.MustCompile(`(?i)to acquire ([A-Z][A-Za-z0-9&.,' -]{2,60}?)(?:\s*\(|,| for \$| in an| in a |\.\s)`),
	regexp.MustCompile(`(?i)merger with ([A-Z][A-Za-z0-9&.,' -]{2,60}?)(?:\s*\(|,|\.\s)`),
}

// Exchange-qualified ticker mentions, e.g. "(NASDAQ: ACME)" or "(NYSE: BRK.A)"
var tickerPattern = regexp.MustCompile(`\((?:NASDAQ|NYSE|Nasdaq|AMEX|NYSE American)\s*:\s*([A-Z]{1,5}(?:\.[A-Z])?)\)`)

// Deal value mentions, e.g. "$2.6 billion" or "approximately $850 million"
var dealValuePattern = regexp.MustCompile(`(?i)\$\s?([0-9][0-9,]*(?:\.[0-9]+)?)\s*(billion|million)`)

// ExtractTarget runs the ordered pattern rules over the document text,
// falling back to the filer's own name since most relevant filings are
// filed by the target itself. Placeholder entities are never returned.
func ExtractTarget(filing *models.FilingRecord, rules *Rules) Target {
	text := filing.DocumentText

	var name string
	for _, pat := range targetPatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := cleanEntityName(m[1])
		if candidate != "" && !isPlaceholder(candidate, rules) {
			name = candidate
			break
		}
	}

	if name == "" && filing.CompanyName != "" && !isPlaceholder(filing.CompanyName, rules) {
		name = filing.CompanyName
	}

	ticker := ""
	if m := tickerPattern.FindStringSubmatch(text); m != nil {
		ticker = m[1]
	}

	return Target{Name: name, Ticker: ticker}
}

// ExtractDealValue returns the first stated transaction value in USD
// millions, or nil when none is extractable
func ExtractDealValue(text string) *float64 {
	m := dealValuePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	raw := strings.ReplaceAll(m[1], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}

	if strings.EqualFold(m[2], "billion") {
		value *= 1000
	}
	return &value
}

func cleanEntityName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, ".,'\" -")
	// Pattern captures can drag in a leading clause; keep it bounded
	if len(name) < 3 {
		return ""
	}
	return name
}

func isPlaceholder(name string, rules *Rules) bool {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for _, p := range rules.PlaceholderNames {
		if lowered == p {
			return true
		}
	}
	return false
}
