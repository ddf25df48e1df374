package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// LogNotifier writes alerts to the structured log. Always available;
// the fallback channel when no webhook is configured.
type LogNotifier struct {
	logger arbor.ILogger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger arbor.ILogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

var _ interfaces.Notifier = (*LogNotifier)(nil)

// Notify logs the alert
func (n *LogNotifier) Notify(_ context.Context, alert *models.AlertRecord) error {
	n.logger.Info().
		Str("alert_id", alert.ID).
		Str("type", string(alert.Type)).
		Str("subject", alert.Subject).
		Str("reference", alert.Reference).
		Msg("ALERT: " + alert.Body)
	return nil
}

// WebhookNotifier posts alerts as JSON to a configured endpoint
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger arbor.ILogger
}

// NewWebhookNotifier creates a webhook-backed notifier
func NewWebhookNotifier(url string, logger arbor.ILogger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

var _ interfaces.Notifier = (*WebhookNotifier)(nil)

// Notify delivers the alert payload. Non-2xx responses are errors so the
// dispatcher retries.
func (n *WebhookNotifier) Notify(ctx context.Context, alert *models.AlertRecord) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
