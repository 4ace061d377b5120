package recorders

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/planktosim/planktosim/internal/plankton"
)

// WebhookRecorder delivers each snapshot as an HTTP POST to a webhook URL
type WebhookRecorder struct {
	id      string
	url     string
	client  *http.Client
	headers map[string]string
}

// NewWebhookRecorder creates a new webhook recorder
func NewWebhookRecorder(id, url string) *WebhookRecorder {
	return &WebhookRecorder{
		id:      id,
		url:     url,
		client:  &http.Client{Timeout: 5 * time.Second},
		headers: make(map[string]string),
	}
}

// SetHeader sets a custom header to include in webhook requests
func (r *WebhookRecorder) SetHeader(key, value string) {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
}

// ID returns the recorder ID
func (r *WebhookRecorder) ID() string {
	return r.id
}

// Type returns the recorder type
func (r *WebhookRecorder) Type() string {
	return "webhook"
}

// Record posts the snapshot JSON to the webhook URL
func (r *WebhookRecorder) Record(ctx context.Context, snap plankton.Snapshot) error {
	jsonData, err := plankton.EncodeSnapshotJSON(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range r.headers {
		req.Header.Set(key, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Close closes the recorder (no-op for webhook)
func (r *WebhookRecorder) Close() error {
	return nil
}
