package resolver

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"steamprofile-rest-api/internal/model"
	"steamprofile-rest-api/pkg/retry"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrIdentityNotFound is returned when no profile matches the token.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrInvalidToken is returned for tokens that cannot name a profile.
	ErrInvalidToken = errors.New("invalid profile token")
)

const maxProfileSize = 1 << 20

// Config holds resolver configuration.
type Config struct {
	CommunityBaseURL string
	Timeout          time.Duration
	Retries          uint64
	HTTPClient       *http.Client
	Retry            *retry.Options
}

// Resolver turns free-form profile tokens into identity records using the
// community XML profile feed.
type Resolver struct {
	baseURL  string
	http     *http.Client
	noFollow *http.Client
	retry    retry.Options
	shared   time.Duration
	group    singleflight.Group
	logger   *zap.Logger
}

// New creates a Resolver.
func New(cfg Config, logger *zap.Logger) *Resolver {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	noFollow := *httpClient
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	opts := retry.CollaboratorOptions(cfg.Retries)
	if cfg.Retry != nil {
		opts = *cfg.Retry
	}

	shared := opts.MaxElapsedTime + httpClient.Timeout
	if opts.MaxElapsedTime == 0 || httpClient.Timeout == 0 {
		shared = time.Minute
	}

	return &Resolver{
		baseURL:  strings.TrimRight(cfg.CommunityBaseURL, "/"),
		http:     httpClient,
		noFollow: &noFollow,
		retry:    opts,
		shared:   shared,
		logger:   logger.Named("resolver"),
	}
}

// Permalink returns the permanent profile URL for steam64.
func (r *Resolver) Permalink(steam64 string) string {
	return r.baseURL + "/profiles/" + steam64 + "/"
}

// Resolve looks up the identity named by token. Tokens may be a vanity name,
// a profile URL, a steam64 id, or the STEAM_X:Y:Z and [U:1:N] forms.
// Concurrent lookups of the same profile share one upstream request. The
// shared request outlives any single caller's cancellation; each caller
// still returns as soon as its own ctx is done.
func (r *Resolver) Resolve(ctx context.Context, token string) (*model.Identity, error) {
	profileURL, err := r.profileURL(token)
	if err != nil {
		return nil, err
	}

	ch := r.group.DoChan(profileURL, func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.shared)
		defer cancel()
		return retry.Do(sharedCtx, r.retry, func() (*model.Identity, error) {
			return r.fetch(sharedCtx, profileURL)
		})
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.logger.Debug("Shared resolution", zap.String("token", token))
		}
		identity := *res.Val.(*model.Identity)
		return &identity, nil
	}
}

// profileURL maps a token to the profile page it names.
func (r *Resolver) profileURL(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	if model.IsSteam64(token) {
		return r.Permalink(token), nil
	}
	if id, ok := ToSteam64(token); ok {
		return r.Permalink(id), nil
	}

	if strings.Contains(token, "://") {
		u, err := url.Parse(token)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 || parts[1] == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidToken, token)
		}
		switch parts[0] {
		case "profiles":
			if !model.IsSteam64(parts[1]) {
				return "", fmt.Errorf("%w: %q", ErrInvalidToken, token)
			}
			return r.Permalink(parts[1]), nil
		case "id":
			return r.baseURL + "/id/" + url.PathEscape(parts[1]) + "/", nil
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidToken, token)
		}
	}

	if strings.ContainsAny(token, "/?#") {
		return "", fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return r.baseURL + "/id/" + url.PathEscape(token) + "/", nil
}

// xmlProfile is the subset of the community XML profile feed in use.
type xmlProfile struct {
	Error        string `xml:"error"`
	SteamID64    string `xml:"steamID64"`
	PersonaName  string `xml:"steamID"`
	OnlineState  string `xml:"onlineState"`
	PrivacyState string `xml:"privacyState"`
	AvatarFull   string `xml:"avatarFull"`
	CustomURL    string `xml:"customURL"`
	MemberSince  string `xml:"memberSince"`
	Location     string `xml:"location"`
	RealName     string `xml:"realname"`
}

func (r *Resolver) fetch(ctx context.Context, profileURL string) (*model.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL+"?xml=1", nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build resolve request: %w", err))
	}

	resp, err := r.http.Do(req)
	if err != nil {
		r.logger.Warn("Resolve request failed", zap.String("url", profileURL), zap.Error(err))
		return nil, fmt.Errorf("resolve request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Permanent(ErrIdentityNotFound)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("resolver returned status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, retry.Permanent(fmt.Errorf("resolver returned status %d", resp.StatusCode))
	}

	var doc xmlProfile
	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxProfileSize)).Decode(&doc); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode profile feed: %w", err))
	}
	if doc.Error != "" || !model.IsSteam64(strings.TrimSpace(doc.SteamID64)) {
		return nil, retry.Permanent(ErrIdentityNotFound)
	}

	return r.identityFrom(&doc)
}

func (r *Resolver) identityFrom(doc *xmlProfile) (*model.Identity, error) {
	ids, err := VariantsOf(strings.TrimSpace(doc.SteamID64))
	if err != nil {
		return nil, retry.Permanent(err)
	}

	permalink := r.Permalink(ids.Steam64)
	profileURL := permalink
	if custom := strings.TrimSpace(doc.CustomURL); custom != "" {
		profileURL = r.baseURL + "/id/" + custom + "/"
	}

	return &model.Identity{
		Avatar:           strings.TrimSpace(doc.AvatarFull),
		RealName:         strings.TrimSpace(doc.RealName),
		Country:          strings.TrimSpace(doc.Location),
		AccountCreated:   strings.TrimSpace(doc.MemberSince),
		Status:           strings.TrimSpace(doc.OnlineState),
		Visibility:       strings.TrimSpace(doc.PrivacyState),
		SteamID:          ids.SteamID,
		SteamID3:         ids.SteamID3,
		Steam32:          ids.Steam32,
		Steam64:          ids.Steam64,
		ProfileURL:       profileURL,
		ProfilePermalink: permalink,
	}, nil
}
