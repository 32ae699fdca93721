package crm

import (
	"net/http"
	"time"

	"github.com/okian/leadgate/pkg/retry"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetry overrides the retry policy for webhook calls.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) {
		c.retryCfg = cfg
	}
}
