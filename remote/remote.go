// Package remote contains the HTTP plumbing shared by the market data providers.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/date"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// DefaultRetries is the number of retries after a transient failure.
const DefaultRetries = 3

// Config configures a Client.
type Config struct {
	Retries         int           // Retries after the first attempt, negative disables them.
	Timeout         time.Duration // Timeout of a single attempt, 0 means none.
	Cache           bool          // Cache enables the daily disk cache.
	CacheDir        string
	InitialInterval time.Duration // InitialInterval is the first backoff delay.
}

// Client performs GET requests with a bounded exponential backoff retry.
//
// Transport errors, 429 and 5xx responses are retried. Errors wrap
// portfolio.ErrNetwork, or portfolio.ErrParse for payloads that cannot be
// decoded.
type Client struct {
	HTTP            *http.Client
	Retries         int
	InitialInterval time.Duration
}

// NewClient returns a client configured by cfg.
func NewClient(cfg Config) *Client {
	hc := &http.Client{Timeout: cfg.Timeout}
	if cfg.Cache {
		hc.Transport = NewDiskCache(http.DefaultTransport, cfg.CacheDir, date.Daily)
	}
	retries := cfg.Retries
	if retries == 0 {
		retries = DefaultRetries
	}
	return &Client{HTTP: hc, Retries: max(0, retries), InitialInterval: cfg.InitialInterval}
}

// Default returns a client with the default retries and no cache.
func Default() *Client { return NewClient(Config{}) }

// statusError is a non 2xx response.
type statusError struct {
	url    string
	status string
	code   int
}

func (e *statusError) Error() string { return fmt.Sprintf("cannot http GET %s: %s", e.url, e.status) }

// retryable reports whether the status may succeed later.
func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Get returns the body of a successful GET on addr.
func (c *Client) Get(ctx context.Context, addr string) ([]byte, error) {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			serr := &statusError{url: req.URL.Host + req.URL.Path, status: resp.Status, code: resp.StatusCode}
			if !serr.retryable() {
				return backoff.Permanent(serr)
			}
			return serr
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	expo := backoff.NewExponentialBackOff()
	if c.InitialInterval > 0 {
		expo.InitialInterval = c.InitialInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(c.Retries)), ctx)
	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("retrying http GET")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return nil, fmt.Errorf("%w: after %d attempt(s): %w", portfolio.ErrNetwork, attempt, err)
	}
	return body, nil
}

// GetJSON performs a GET on addr and unmarshals the JSON response into data.
func (c *Client) GetJSON(ctx context.Context, addr string, data any) error {
	body, err := c.Get(ctx, addr)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", portfolio.ErrParse, err)
	}
	return nil
}
