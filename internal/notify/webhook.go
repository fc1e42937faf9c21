package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultWebhookTimeout bounds a single webhook dispatch.
const DefaultWebhookTimeout = 10 * time.Second

// WebhookSender posts alerts as {"text": ...} to an incoming-webhook URL.
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender returns a sender for url, or nil when url is empty.
func NewWebhookSender(url string) *WebhookSender {
	if url == "" {
		return nil
	}
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: DefaultWebhookTimeout},
	}
}

func (w *WebhookSender) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
