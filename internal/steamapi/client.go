package steamapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrUpstream marks a non-2xx response from the Web API.
var ErrUpstream = errors.New("steam api upstream error")

// StatusError carries the failing status code.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// maxBodySize bounds a single response body.
const maxBodySize = 8 << 20

// Config holds client configuration.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client fetches raw Web API bodies through a shared Limiter.
// It never retries; callers decide how to handle failures.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *Limiter
	logger  *zap.Logger
	calls   atomic.Int64
}

// NewClient creates a gateway client. The limiter is shared by reference so
// every request in the process observes the same last-call instant.
func NewClient(cfg Config, limiter *Limiter, logger *zap.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		limiter: limiter,
		logger:  logger.Named("gateway"),
	}
}

// Calls returns the number of upstream calls issued.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

// GetBadges fetches IPlayerService/GetBadges for steamID.
func (c *Client) GetBadges(ctx context.Context, steamID string) ([]byte, error) {
	q := url.Values{"steamid": {steamID}}
	return c.get(ctx, "IPlayerService/GetBadges/v1", q)
}

// GetRecentlyPlayed fetches IPlayerService/GetRecentlyPlayedGames for steamID.
func (c *Client) GetRecentlyPlayed(ctx context.Context, steamID string) ([]byte, error) {
	q := url.Values{"steamid": {steamID}, "count": {"20"}}
	return c.get(ctx, "IPlayerService/GetRecentlyPlayedGames/v1", q)
}

// GetPlayerSummaries fetches ISteamUser/GetPlayerSummaries for steamID.
func (c *Client) GetPlayerSummaries(ctx context.Context, steamID string) ([]byte, error) {
	q := url.Values{"steamids": {steamID}}
	return c.get(ctx, "ISteamUser/GetPlayerSummaries/v2", q)
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	return c.Fetch(ctx, endpoint, c.baseURL+"/"+endpoint+"/?"+q.Encode())
}

// Fetch issues one spaced GET against rawURL and returns the body.
func (c *Client) Fetch(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	start, err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, err
	}
	c.calls.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s body: %w", endpoint, err)
	}

	c.logger.Debug("Fetched",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Time("started_at", start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	return body, nil
}
