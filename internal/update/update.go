// Package update checks whether a newer release of rdesk is available.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"

	rderr "rdesk/internal/errors"
	"rdesk/internal/retry"
	"rdesk/util"
)

// Release is the document served at update_url.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
}

// Checker fetches the latest release once and remembers it.
type Checker struct {
	url     string
	current string
	client  *http.Client
	backoff *retry.Backoff
	logger  *util.Logger

	mu     sync.RWMutex
	latest Release
}

// NewChecker returns a Checker for the release document at url.  An
// empty url disables checking.
func NewChecker(url, current string, timeout time.Duration, logger *util.Logger) *Checker {
	return &Checker{
		url:     url,
		current: current,
		client:  &http.Client{Timeout: timeout},
		backoff: retry.ShortBackoff(),
		logger:  logger,
	}
}

// Check fetches the release document, retrying transient failures.
func (c *Checker) Check(ctx context.Context) error {
	if c.url == "" {
		c.logger.Verbose("update check disabled (no update_url)")
		return nil
	}

	b := *c.backoff
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.logger.Verbose("update check attempt %d: %v (retry in %v)", attempt, err, wait)
	}

	var rel Release
	err := b.Do(ctx, func(_ int) error {
		r, err := c.fetch(ctx)
		if err != nil {
			return err
		}
		rel = r
		return nil
	})
	if err != nil {
		return fmt.Errorf("update check: %w", err)
	}

	c.mu.Lock()
	c.latest = rel
	c.mu.Unlock()

	if v := c.NewVersion(); v != "" {
		c.logger.Info("new version available: %s", v)
	} else {
		c.logger.Verbose("rdesk %s is up to date", c.current)
	}
	return nil
}

func (c *Checker) fetch(ctx context.Context) (Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Release{}, retry.Permanent(err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Release{}, rderr.Wrap("request", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode < 500 {
			return Release{}, retry.Permanent(err)
		}
		return Release{}, err
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&rel); err != nil {
		return Release{}, retry.Permanent(fmt.Errorf("decode release: %w", err))
	}
	return rel, nil
}

// NewVersion returns the latest version if it is newer than the running
// one, and "" otherwise or before a successful Check.
func (c *Checker) NewVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest.Version != "" && Newer(c.latest.Version, c.current) {
		return c.latest.Version
	}
	return ""
}

// URL returns the download URL of the latest release, or "".
func (c *Checker) URL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest.URL
}

// Newer reports whether version a is greater than b under semantic
// versioning.  A leading "v" is optional and a pre-release sorts before
// its release, so "1.2.3-beta" is older than "1.2.3".  An invalid a is
// never newer; any valid a is newer than an invalid b.
func Newer(a, b string) bool {
	va, vb := canonical(a), canonical(b)
	if !semver.IsValid(va) {
		return false
	}
	return semver.Compare(va, vb) > 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
