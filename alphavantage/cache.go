package alphavantage

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/etnz/stockfolio/date"
	"go.uber.org/zap"
)

// diskCache implements a simple disk cache for HTTP responses. Keys include
// the current day, so that cached responses expire every day.
type diskCache struct {
	base  http.RoundTripper
	dir   string
	today func() date.Date
	log   *zap.Logger
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key := fmt.Sprintf("%s %s %s", c.today(), req.Method, req.URL.String())
	key = fmt.Sprintf("av-%x", sha1.Sum([]byte(key)))

	if cached, err := c.get(key, req); err == nil {
		c.log.Debug("cache hit", zap.String("path", req.URL.Path), zap.String("key", key))
		return cached, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug("http call", zap.String("method", req.Method), zap.String("host", req.URL.Host), zap.String("path", req.URL.Path), zap.String("status", resp.Status))
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	// API errors and rate limit notes come with a 200 and are not cached.
	body, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return resp, nil
	}
	if isCacheable(body) {
		if err := c.put(key, body); err != nil {
			c.log.Warn("cache write error (ignored)", zap.Error(err))
		}
	}
	return resp, nil
}

// isCacheable reports whether a dumped response holds data.
func isCacheable(dump []byte) bool {
	for _, marker := range []string{`"Error Message"`, `"Note"`, `"Information"`} {
		if bytes.Contains(dump, []byte(marker)) {
			return false
		}
	}
	return true
}

// get retrieves a cached response from disk.
func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores a dumped response to disk.
func (c *diskCache) put(key string, content []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}

// CachedHTTPClient returns a client caching successful responses in dir for
// the day. An empty dir means the system temporary folder.
func CachedHTTPClient(dir string, log *zap.Logger) *http.Client {
	if dir == "" {
		dir = os.TempDir()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &http.Client{Transport: &diskCache{base: http.DefaultTransport, dir: dir, today: date.Today, log: log}}
}
