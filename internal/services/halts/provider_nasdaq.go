package halts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/models"
)

const defaultNasdaqHaltsURL = "https://www.nasdaqtrader.com/rss.aspx?feed=tradehalts"

// NasdaqProvider parses the NASDAQ trade-halts feed. The feed embeds an
// HTML table per item; rows carry symbol, reason code and halt time.
type NasdaqProvider struct {
	url    string
	client *http.Client
	logger arbor.ILogger
}

// NewNasdaqProvider creates a NASDAQ halt provider. url overrides the
// production feed for tests; empty means the default.
func NewNasdaqProvider(url string, timeout time.Duration, logger arbor.ILogger) *NasdaqProvider {
	if url == "" {
		url = defaultNasdaqHaltsURL
	}
	return &NasdaqProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (p *NasdaqProvider) Name() string     { return "halt_nasdaq" }
func (p *NasdaqProvider) Exchange() string { return "NASDAQ" }

// Fetch downloads and parses the current halt listing
func (p *NasdaqProvider) Fetch(ctx context.Context) ([]*models.HaltEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "arbitror-halt-monitor/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nasdaq halt fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nasdaq halt feed returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nasdaq halt feed: %w", err)
	}

	return p.parseTable(doc), nil
}

// parseTable walks table rows of the feed. Expected column order:
// halt date, halt time, symbol, name, market, reason code. Unparseable
// rows are skipped, never fatal.
func (p *NasdaqProvider) parseTable(doc *goquery.Document) []*models.HaltEvent {
	now := time.Now().UTC()
	var events []*models.HaltEvent

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		haltDate := strings.TrimSpace(cells.Eq(0).Text())
		haltTime := strings.TrimSpace(cells.Eq(1).Text())
		symbol := strings.ToUpper(strings.TrimSpace(cells.Eq(2).Text()))
		code := strings.ToUpper(strings.TrimSpace(cells.Eq(5).Text()))

		if code == "" || !common.IsValidTickerCode(symbol) {
			return
		}

		haltedAt, err := parseNasdaqTime(haltDate, haltTime)
		if err != nil {
			p.logger.Debug().
				Str("symbol", symbol).
				Str("date", haltDate).
				Str("time", haltTime).
				Msg("Skipping halt row with unparseable time")
			return
		}

		events = append(events, &models.HaltEvent{
			Ticker:     symbol,
			Exchange:   p.Exchange(),
			HaltCode:   code,
			HaltedAt:   haltedAt,
			DetectedAt: now,
		})
	})

	return events
}

// parseNasdaqTime combines the feed's date and time cells. The feed
// reports Eastern time.
func parseNasdaqTime(date, clock string) (time.Time, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}

	for _, layout := range []string{"01/02/2006 15:04:05", "01/02/2006 15:04"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized halt time %q %q", date, clock)
}
