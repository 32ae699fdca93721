package sheets

import (
	"time"

	"github.com/okian/leadgate/pkg/retry"
)

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithSheetName sets the tab rows are appended to.
func WithSheetName(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.sheetName = name
		}
	}
}

// WithCredentialsFile points the client at a service-account JSON key.
// When empty, application default credentials are used.
func WithCredentialsFile(path string) ClientOption {
	return func(c *Client) {
		c.credentialsFile = path
	}
}

// WithTotalColumns sets the fixed row width.
func WithTotalColumns(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.totalColumns = n
		}
	}
}

// WithLocation sets the timezone for the timestamp column.
func WithLocation(loc *time.Location) ClientOption {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithRetry overrides the retry policy for API calls.
func WithRetry(cfg retry.Config) ClientOption {
	return func(c *Client) {
		c.retryCfg = cfg
	}
}
