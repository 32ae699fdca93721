// Package crm forwards lead-form contacts to the external CRM webhook.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/logger"
	"github.com/okian/leadgate/pkg/retry"
)

// Default client configuration constants.
const (
	defaultTimeout = 5 * time.Second
)

// Notifier forwards a lead's contact details to the CRM.
type Notifier interface {
	Forward(ctx context.Context, e model.LeadEvent) error
}

// lead is the webhook payload shape the CRM expects.
type lead struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	PageCity string `json:"page_city"`
}

// Client implements Notifier over an HTTP webhook.
type Client struct {
	webhookURL string
	httpClient *http.Client
	retryCfg   retry.Config
	logger     logger.Logger
}

// NewClient creates a CRM webhook client.
func NewClient(webhookURL string, opts ...Option) *Client {
	c := &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryCfg:   retry.DefaultConfig(),
		logger:     logger.Get().Named("crm"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Forward posts the lead's contact details to the webhook, retrying on
// transport errors and 5xx responses.
func (c *Client) Forward(ctx context.Context, e model.LeadEvent) error {
	if e.Form == nil {
		return nil // nothing to forward
	}

	payload := lead{
		Name:     e.Form.Name,
		Phone:    e.Form.Phone,
		PageCity: e.PageCity,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode crm payload: %w", err)
	}

	err = retry.DoWithNotify(ctx, c.retryCfg, func() error {
		return c.post(ctx, body)
	}, func(attempt int, err error, nextDelay time.Duration) {
		c.logger.Warn(ctx, "crm forward attempt failed",
			logger.Int("attempt", attempt),
			logger.String("next_delay", nextDelay.String()),
			logger.Error(err),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to forward lead %s to crm: %w", e.EventID, err)
	}

	c.logger.Info(ctx, "lead forwarded to crm", logger.String("eventID", e.EventID))
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build crm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("crm responded with status %d", resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		// 4xx means the payload itself was rejected; retrying won't help.
		c.logger.Error(ctx, "crm rejected lead payload", logger.Int("status", resp.StatusCode))
		return nil
	}
	return nil
}

// Noop implements Notifier without doing anything. Used when no webhook
// is configured.
type Noop struct{}

// Forward discards the lead.
func (Noop) Forward(_ context.Context, _ model.LeadEvent) error { return nil }
