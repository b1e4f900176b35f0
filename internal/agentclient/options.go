package agentclient

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout bounds a single request. Prefer context deadlines where possible.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.SetTimeout(d)
		return nil
	}
}

// WithRetries retries transport failures and 5xx answers up to n times.
func WithRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("retries must be >= 0")
		}
		c.http.SetRetryCount(n)
		return nil
	}
}

// WithLogger logs each request at debug level.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}
