package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"steamprofile-rest-api/internal/model"
	"steamprofile-rest-api/pkg/retry"

	"go.uber.org/zap"
)

var (
	// ErrMarkupMissing is returned when the page lacks profile markup.
	ErrMarkupMissing = errors.New("profile markup missing")

	// ErrUnreachable is returned when the page cannot be fetched.
	ErrUnreachable = errors.New("profile page unreachable")
)

const maxPageSize = 4 << 20

// Config holds scraper configuration.
type Config struct {
	Timeout    time.Duration
	Retries    uint64
	HTTPClient *http.Client
	Retry      *retry.Options
}

// Scraper fetches community profile pages and extracts snapshots.
type Scraper struct {
	http   *http.Client
	retry  retry.Options
	logger *zap.Logger
}

// New creates a Scraper.
func New(cfg Config, logger *zap.Logger) *Scraper {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	opts := retry.CollaboratorOptions(cfg.Retries)
	if cfg.Retry != nil {
		opts = *cfg.Retry
	}

	return &Scraper{
		http:   httpClient,
		retry:  opts,
		logger: logger.Named("scraper"),
	}
}

// Scrape fetches pageURL and parses it into a Snapshot.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*model.Snapshot, error) {
	body, err := retry.Do(ctx, s.retry, func() ([]byte, error) {
		return s.fetch(ctx, pageURL)
	})
	if err != nil {
		return nil, err
	}

	snapshot, err := Parse(bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("Unrecognized profile page", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}
	return snapshot, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build scrape request: %w", err))
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, retry.Permanent(fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	s.logger.Debug("Fetched profile page", zap.String("url", pageURL), zap.Int("bytes", len(body)))
	return body, nil
}
