package remote

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/assetutils/portfolio/date"
	"github.com/rs/zerolog/log"
)

// diskCache implements a simple disk cache for HTTP responses.
//
// Entries are keyed by the period containing today, so that they expire
// when the period ends. Only successful responses are cached.
type diskCache struct {
	base   http.RoundTripper
	dir    string
	period date.Period
	today  func() date.Date
}

// NewDiskCache returns a RoundTripper caching base responses in dir for the
// current period.
func NewDiskCache(base http.RoundTripper, dir string, period date.Period) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "aut-cache")
	}
	return &diskCache{base: base, dir: dir, period: period, today: date.Today}
}

// RoundTrip implements the http.RoundTripper interface.
func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return c.base.RoundTrip(req)
	}
	rangeID := date.NewRange(c.today(), c.period).Identifier()
	key := fmt.Sprintf("%s %s %s", rangeID, req.Method, req.URL.String())
	key = fmt.Sprintf("%s-%x", c.period, sha1.Sum([]byte(key)))

	if resp, err := c.get(key, req); err == nil {
		log.Debug().Str("host", req.URL.Host).Str("path", req.URL.Path).Msg("cache hit")
		return resp, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Str("status", resp.Status).Msg("http request")
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		log.Warn().Err(err).Msg("cache write failed, ignored")
	}
	return resp, nil
}

// get retrieves a cached response from disk.
func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores a response to disk. The response body remains readable.
func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}
