package halts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/models"
)

const defaultNyseHaltsURL = "https://www.nyse.com/api/trade-halts/current/download"

// NyseProvider parses the NYSE trade-halts JSON endpoint
type NyseProvider struct {
	url    string
	client *http.Client
	logger arbor.ILogger
}

type nyseHaltRow struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Reason   string `json:"haltReason"`
	HaltedAt string `json:"haltTime"` // RFC3339
}

// NewNyseProvider creates a NYSE halt provider. url overrides the
// production endpoint for tests; empty means the default.
func NewNyseProvider(url string, timeout time.Duration, logger arbor.ILogger) *NyseProvider {
	if url == "" {
		url = defaultNyseHaltsURL
	}
	return &NyseProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (p *NyseProvider) Name() string     { return "halt_nyse" }
func (p *NyseProvider) Exchange() string { return "NYSE" }

// Fetch downloads and parses the current halt listing
func (p *NyseProvider) Fetch(ctx context.Context) ([]*models.HaltEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "arbitror-halt-monitor/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nyse halt fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nyse halt feed returned status %d", resp.StatusCode)
	}

	var rows []nyseHaltRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse nyse halt feed: %w", err)
	}

	now := time.Now().UTC()
	var events []*models.HaltEvent
	for _, row := range rows {
		symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))
		code := strings.ToUpper(strings.TrimSpace(row.Reason))
		if code == "" || !common.IsValidTickerCode(symbol) {
			continue
		}

		haltedAt, err := time.Parse(time.RFC3339, row.HaltedAt)
		if err != nil {
			p.logger.Debug().
				Str("symbol", symbol).
				Str("time", row.HaltedAt).
				Msg("Skipping halt row with unparseable time")
			continue
		}

		events = append(events, &models.HaltEvent{
			Ticker:     symbol,
			Exchange:   p.Exchange(),
			HaltCode:   code,
			HaltedAt:   haltedAt.UTC(),
			DetectedAt: now,
		})
	}

	return events, nil
}
