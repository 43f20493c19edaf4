// Package contextapi provides the context-fetch capability: an HTTP client
// that retrieves externally stored context for task enrichment.
//
// Retry and timeout policy live here, not in the orchestrator.
package contextapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agencyd/internal/config"
)

const retryBackoffBase = 100 * time.Millisecond

// ErrContextNotFound is returned when the remote service has no context for
// the requested id.
var ErrContextNotFound = errors.New("context not found")

// Fetcher retrieves context values by id.
type Fetcher interface {
	Fetch(ctx context.Context, contextID string) (string, error)
}

// contextResponse is the remote service's response document.
type contextResponse struct {
	Context string `json:"context"`
}

// Client is the HTTP implementation of Fetcher.
type Client struct {
	cfg    config.APIConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a context-fetch client seeded with the api section.
func NewClient(cfg config.APIConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultAPIBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = config.DefaultAPITimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = config.DefaultAPIRetryAttempts
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid api base URL %q: %w", cfg.BaseURL, err)
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Fetch retrieves the context value for contextID, retrying transport and
// server failures up to the configured attempt count.
func (c *Client) Fetch(ctx context.Context, contextID string) (string, error) {
	if contextID == "" {
		return "", errors.New("context id is required")
	}

	endpoint := fmt.Sprintf("%s/v1/context/%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(contextID))

	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryBackoffBase * time.Duration(attempt-1)):
			}
		}

		value, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return value, nil
		}
		if errors.Is(err, ErrContextNotFound) {
			// Not-found is definitive; retrying cannot help.
			return "", fmt.Errorf("%w: %s", ErrContextNotFound, contextID)
		}

		lastErr = err
		c.logger.Warn("context fetch attempt failed",
			zap.String("context_id", contextID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.cfg.RetryAttempts),
			zap.Error(err),
		)
	}

	return "", fmt.Errorf("fetching context %s after %d attempts: %w",
		contextID, c.cfg.RetryAttempts, lastErr)
}

// fetchOnce performs a single GET against the context endpoint.
func (c *Client) fetchOnce(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrContextNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed contextResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return parsed.Context, nil
}
