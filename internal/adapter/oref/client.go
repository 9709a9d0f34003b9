// Package oref polls the public warning feed at oref.org.il.
package oref

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/alert-mesh-relay/internal/domain"
	"github.com/couchcryptid/alert-mesh-relay/internal/observability"
)

const (
	defaultBaseURL = "https://www.oref.org.il"
	livePath       = "/WarningMessages/alert/alerts.json"
	historyPath    = "/WarningMessages/alert/alertsHistory.json"

	// The upstream endpoint rejects requests that do not look like the
	// official site's own browser traffic. These headers mirror it.
	refererHeader = "https://www.oref.org.il/11226-he/pakar.aspx"
	userAgent     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_13_6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/75.0.3770.100 Safari/537.36"
)

// emptyPayload is the canonical idle document. Degraded fetches return it
// so a flaky feed reads as "no alert" rather than an error.
var emptyPayload = json.RawMessage(`{"type": "none", "cities": []}`)

// ErrMalformedPayload reports a feed response that was served successfully
// but does not contain a JSON document.
var ErrMalformedPayload = errors.New("malformed feed payload")

// Client fetches raw alert documents from the feed. It implements
// poller.Fetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client against the production endpoints.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch retrieves the raw feed document for the given mode. Transport
// failures, bad statuses, and empty bodies degrade to the canonical idle
// document with a nil error; only a response that claims to be a document
// but cannot be one fails.
func (c *Client) Fetch(ctx context.Context, mode domain.FeedMode) (json.RawMessage, error) {
	path := livePath
	if mode == domain.FeedHistory {
		path = historyPath
	}
	// A unix-timestamp query string defeats upstream CDN caching.
	u := fmt.Sprintf("%s%s?%d", c.baseURL, path, c.clock.Now().Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Referer", refererHeader)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", userAgent)

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FeedDuration.Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.logger.Warn("feed request failed", "mode", mode, "error", err)
		c.metrics.FeedRequests.WithLabelValues("transport_error").Inc()
		return emptyPayload, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("feed returned unexpected status", "mode", mode, "status", resp.StatusCode)
		c.metrics.FeedRequests.WithLabelValues("bad_status").Inc()
		return emptyPayload, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("feed body read failed", "mode", mode, "error", err)
		c.metrics.FeedRequests.WithLabelValues("transport_error").Inc()
		return emptyPayload, nil
	}

	// The live endpoint prefixes its document with a UTF-8 BOM.
	doc := bytes.TrimSpace(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")))
	if len(doc) == 0 || bytes.Equal(doc, []byte("null")) {
		c.metrics.FeedRequests.WithLabelValues("empty_body").Inc()
		return emptyPayload, nil
	}

	if doc[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(doc, &obj); err != nil {
			c.metrics.FeedRequests.WithLabelValues("malformed").Inc()
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if _, ok := obj["data"]; !ok {
			// An object with no alert data is the endpoint's idle shape.
			c.metrics.FeedRequests.WithLabelValues("idle").Inc()
			return emptyPayload, nil
		}
	} else if !json.Valid(doc) {
		c.metrics.FeedRequests.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("%w: response is not JSON", ErrMalformedPayload)
	}

	c.metrics.FeedRequests.WithLabelValues("ok").Inc()
	return json.RawMessage(doc), nil
}
