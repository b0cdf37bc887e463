package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// FollowRedirect issues one GET against rawURL without following redirects.
// It returns the Location of a 3xx response resolved against rawURL, or
// rawURL itself for any other status.
func (r *Resolver) FollowRedirect(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build redirect request: %w", err)
	}

	resp, err := r.noFollow.Do(req)
	if err != nil {
		return "", fmt.Errorf("redirect request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxProfileSize))

	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		return rawURL, nil
	}

	loc, err := resp.Location()
	if err != nil {
		return rawURL, nil
	}

	r.logger.Debug("Followed redirect",
		zap.String("from", rawURL),
		zap.String("to", loc.String()),
		zap.Int("status", resp.StatusCode))
	return loc.String(), nil
}
