package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookConfig holds webhook configuration.
type WebhookConfig struct {
	URL     string            `yaml:"url" json:"url" env:"NOTIFY_WEBHOOK_URL"`
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// WebhookNotifier sends notifications to a webhook URL.
type WebhookNotifier struct {
	config WebhookConfig
	http   *http.Client
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		config: cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookNotifier) Channel() Channel { return ChannelWebhook }

// Send posts the message as JSON to the webhook URL.
func (w *WebhookNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
