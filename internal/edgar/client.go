package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultSearchURL is the EDGAR full-text search endpoint.
	DefaultSearchURL = "https://efts.sec.gov/LATEST/search-index"

	// DefaultArchiveURL is the base for filing document retrieval.
	DefaultArchiveURL = "https://www.sec.gov/Archives/edgar/data"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	// SEC fair-access policy allows 10 req/s per client.
	DefaultRateLimit = 5
)

// Client is an EDGAR API client. SEC requires a descriptive User-Agent
// identifying the caller; requests without one are rejected.
type Client struct {
	searchURL  string
	archiveURL string
	userAgent  string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithSearchURL sets a custom search endpoint.
func WithSearchURL(u string) ClientOption {
	return func(c *Client) {
		c.searchURL = u
	}
}

// WithArchiveURL sets a custom document archive base.
func WithArchiveURL(u string) ClientOption {
	return func(c *Client) {
		c.archiveURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new EDGAR client.
func NewClient(userAgent string, opts ...ClientOption) *Client {
	c := &Client{
		searchURL:  DefaultSearchURL,
		archiveURL: DefaultArchiveURL,
		userAgent:  userAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RecentFilings returns the most recent filings of one form type,
// newest first
func (c *Client) RecentFilings(ctx context.Context, formType string, limit int) ([]*Filing, error) {
	if limit <= 0 {
		limit = 40
	}

	params := url.Values{}
	params.Set("forms", formType)
	params.Set("size", fmt.Sprintf("%d", limit))
	params.Set("sort", "file_date:desc")

	var response searchResponse
	if err := c.get(ctx, c.searchURL+"?"+params.Encode(), &response); err != nil {
		return nil, err
	}

	filings := make([]*Filing, 0, len(response.Hits.Hits))
	for i := range response.Hits.Hits {
		filing, err := response.Hits.Hits[i].toFiling(c.archiveURL)
		if err != nil {
			// One malformed hit never discards the rest of the page
			if c.logger != nil {
				c.logger.Debug().Err(err).Msg("Skipping malformed search hit")
			}
			continue
		}
		filings = append(filings, filing)
	}
	return filings, nil
}

// FetchDocument retrieves a filing's primary document body
func (c *Client) FetchDocument(ctx context.Context, documentURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("document fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("document fetch returned status %d", resp.StatusCode)
	}

	// Filings run large; cap what the classifier will ever scan
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, reqURL string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().Str("url", reqURL).Msg("EDGAR request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("edgar rate limited (status 429)")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("edgar returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
