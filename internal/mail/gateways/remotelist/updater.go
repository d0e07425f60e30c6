package remotelist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	logpkg "github.com/mailscreen/mailscreen/internal/mail/common/log"
	"github.com/mailscreen/mailscreen/internal/mail/repos/domainlist"
)

const fetchTimeout = 5 * time.Second

// Updater receives domains fetched from a feed.
// Implemented by the domainlist Classifier.
type Updater interface {
	AddDisposableDomains(domains []string)
}

// Client fetches disposable-domain feeds over HTTP. Feeds are either a JSON
// array of domain strings or a plain newline-delimited list; the body shape
// is autodetected.
type Client struct {
	httpClient *http.Client
	logger     logpkg.Logger
}

// NewClient creates a feed client. A nil httpClient falls back to
// http.DefaultClient so tests can intercept requests on it.
func NewClient(httpClient *http.Client, logger logpkg.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	return &Client{httpClient: httpClient, logger: logger}
}

// Fetch downloads and parses the feed at source. The request is bounded by a
// 5 second timeout when the context carries no deadline.
func (c *Client) Fetch(ctx context.Context, source string) ([]string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: status %d", source, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", source, err)
	}
	return parseFeed(content)
}

// Update fetches the feed and pushes its domains into the updater.
// An empty feed is not an error; it just adds nothing.
func (c *Client) Update(ctx context.Context, source string, u Updater) error {
	domains, err := c.Fetch(ctx, source)
	if err != nil {
		return err
	}
	u.AddDisposableDomains(domains)
	c.logger.Info(map[string]any{
		"source": source,
		"count":  len(domains),
	}, "disposable_feed_updated")
	return nil
}

// parseFeed decodes a feed body: a JSON array when the first non-space byte
// is '[', a plain domain list otherwise.
func parseFeed(content []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var domains []string
		if err := json.Unmarshal(trimmed, &domains); err != nil {
			return nil, fmt.Errorf("decode feed json: %w", err)
		}
		return domains, nil
	}
	return domainlist.ParseList(bytes.NewReader(content))
}
