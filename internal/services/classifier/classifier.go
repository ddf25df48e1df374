package classifier

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// Service wraps the pure classification function with rule loading and
// reload. Classification itself never touches the network or storage.
type Service struct {
	mu        sync.RWMutex
	rules     *Rules
	rulesPath string
	logger    arbor.ILogger
}

// NewService creates a classifier. When rulesPath is empty the baseline
// rule set is used.
func NewService(logger arbor.ILogger, rulesPath string) (*Service, error) {
	s := &Service{
		rulesPath: rulesPath,
		logger:    logger,
	}

	if rulesPath == "" {
		s.rules = DefaultRules()
		logger.Info().Msg("Classifier using default rules")
		return s, nil
	}

	rules, err := LoadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	s.rules = rules
	logger.Info().
		Str("path", rulesPath).
		Int("keywords", len(rules.Keywords)).
		Msg("Classifier rules loaded")
	return s, nil
}

var _ interfaces.Classifier = (*Service)(nil)

// ReloadRules re-reads the rules file. The running rule set is kept when
// the reload fails, so a bad edit never blanks the classifier.
func (s *Service) ReloadRules() error {
	if s.rulesPath == "" {
		return nil
	}
	rules, err := LoadRules(s.rulesPath)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.rulesPath).Msg("Rules reload failed, keeping current rules")
		return err
	}
	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
	s.logger.Info().Str("path", s.rulesPath).Msg("Classifier rules reloaded")
	return nil
}

// Rules returns the active rule set
func (s *Service) Rules() *Rules {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

// Classify scores one filing against the active rules
func (s *Service) Classify(filing *models.FilingRecord) *models.Classification {
	return Classify(filing, s.Rules())
}

// Classify is the pure classification function: same filing and rules in,
// same verdict out.
func Classify(filing *models.FilingRecord, rules *Rules) *models.Classification {
	text := strings.ToLower(filing.DocumentText)

	matched, positions := matchKeywords(text, rules.Keywords)
	historical, marker := findHistoricalMarker(text, positions, rules)
	highPriority := isHighPriority(filing, rules)

	// The historical veto beats everything: a filing about an
	// already-announced deal is never a fresh detection
	if historical {
		return &models.Classification{
			IsRelevant: false,
			Confidence: rules.RejectConfidence,
			Tier:       models.TierRejected,
			Keywords:   matched,
			Reasoning:  fmt.Sprintf("Historical reference %q indicates previously announced deal (%d keywords matched)", marker, len(matched)),
		}
	}

	if len(matched) < rules.MediumKeywordCount {
		return &models.Classification{
			IsRelevant: false,
			Confidence: rules.RejectConfidence,
			Tier:       models.TierRejected,
			Keywords:   matched,
			Reasoning:  fmt.Sprintf("Only %d of %d required keywords matched", len(matched), rules.MediumKeywordCount),
		}
	}

	target := ExtractTarget(filing, rules)
	dealValue := ExtractDealValue(filing.DocumentText)

	var tier models.FilingTier
	var confidence float64
	var reason string

	switch {
	case len(matched) >= rules.HighKeywordCount && highPriority && target.Ticker != "":
		tier = models.TierHigh
		confidence = rules.HighConfidence
		reason = fmt.Sprintf("%d keywords, high-priority filing, ticker %s verified", len(matched), target.Ticker)
	case len(matched) >= rules.HighKeywordCount:
		tier = models.TierMediumHigh
		confidence = rules.MediumHighConfidence
		reason = fmt.Sprintf("%d keywords without ticker verification", len(matched))
	default:
		tier = models.TierMedium
		confidence = rules.MediumConfidence
		reason = fmt.Sprintf("%d keywords matched", len(matched))
	}

	// Materiality cap: a sub-threshold extracted deal value caps
	// confidence even when everything else looks strong
	if dealValue != nil && rules.MinDealValueMillions > 0 && *dealValue < rules.MinDealValueMillions {
		if confidence > rules.SmallDealCap {
			confidence = rules.SmallDealCap
			reason += fmt.Sprintf("; value $%.0fM below materiality threshold, confidence capped", *dealValue)
		}
	}

	return &models.Classification{
		IsRelevant:   true,
		Confidence:   confidence,
		Tier:         tier,
		Keywords:     matched,
		TargetName:   target.Name,
		TargetTicker: target.Ticker,
		DealValue:    dealValue,
		Reasoning:    reason,
	}
}

// matchKeywords returns the distinct keywords present in text and the
// position of each keyword's first occurrence
func matchKeywords(text string, keywords []string) ([]string, []int) {
	var matched []string
	var positions []int
	for _, kw := range keywords {
		if idx := strings.Index(text, strings.ToLower(kw)); idx >= 0 {
			matched = append(matched, kw)
			positions = append(positions, idx)
		}
	}
	return matched, positions
}

// findHistoricalMarker scans the document head and a context window around
// each keyword hit for historical-reference phrases. Markers buried deep
// in boilerplate away from any hit are ignored.
func findHistoricalMarker(text string, keywordPositions []int, rules *Rules) (bool, string) {
	if len(text) == 0 {
		return false, ""
	}

	head := text
	if len(head) > rules.HeadWindow {
		head = head[:rules.HeadWindow]
	}

	for _, marker := range rules.HistoricalMarkers {
		m := strings.ToLower(marker)
		if strings.Contains(head, m) {
			return true, marker
		}
		for _, pos := range keywordPositions {
			start := pos - rules.ContextWindow
			if start < 0 {
				start = 0
			}
			end := pos + rules.ContextWindow
			if end > len(text) {
				end = len(text)
			}
			if strings.Contains(text[start:end], m) {
				return true, marker
			}
		}
	}
	return false, ""
}

// isHighPriority reports whether the form type or item codes place the
// filing in the high-priority bucket
func isHighPriority(filing *models.FilingRecord, rules *Rules) bool {
	form := strings.ToUpper(strings.TrimSpace(filing.FormType))
	for _, pf := range rules.PriorityForms {
		if form == strings.ToUpper(pf) {
			return true
		}
	}
	for _, code := range filing.ItemCodes {
		for _, pc := range rules.PriorityItemCodes {
			if code == pc {
				return true
			}
		}
	}
	return false
}
