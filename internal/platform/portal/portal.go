package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ems/internal/domain/notifications"
	"ems/internal/platform/config"
)

type noopPortal struct{}

func (noopPortal) Push(ctx context.Context, recipientID, category, message string) error {
	return nil
}

type httpPortal struct {
	cfg    config.Config
	client *http.Client
}

// New returns the portal push client, or a noop when no portal is
// configured.
func New(cfg config.Config) notifications.Portal {
	if cfg.PortalBaseURL == "" {
		return noopPortal{}
	}
	return &httpPortal{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.PortalTimeout},
	}
}

type pushRequest struct {
	RecipientID string `json:"recipientId"`
	Category    string `json:"category"`
	Message     string `json:"message"`
}

// Push posts the notification to the portal, retrying transient failures.
// 4xx responses are not retried.
func (p *httpPortal) Push(ctx context.Context, recipientID, category, message string) error {
	payload, err := json.Marshal(pushRequest{RecipientID: recipientID, Category: category, Message: message})
	if err != nil {
		return err
	}

	var lastErr error
	attempts := p.cfg.PortalRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.PortalBaseURL+"/api/notifications", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if p.cfg.PortalAPIKey != "" {
			req.Header.Set("X-Api-Key", p.cfg.PortalAPIKey)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return fmt.Errorf("portal rejected push: %s", resp.Status)
		default:
			lastErr = fmt.Errorf("portal push failed: %s", resp.Status)
		}
	}
	return lastErr
}
