package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"steamprofile-rest-api/internal/cache"
	"steamprofile-rest-api/internal/model"
	"steamprofile-rest-api/internal/repository"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// ErrInvalidToken is returned for an empty profile token.
var ErrInvalidToken = errors.New("missing user token")

// IdentityResolver resolves free-form tokens to identity records.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*model.Identity, error)
}

// VanityResolver follows one redirect hop of a profile URL.
type VanityResolver interface {
	FollowRedirect(ctx context.Context, rawURL string) (string, error)
}

// ProfileScraper extracts a snapshot from a profile page.
type ProfileScraper interface {
	Scrape(ctx context.Context, pageURL string) (*model.Snapshot, error)
}

// StatsAPI fetches verbatim Web API bodies through the rate-limited gateway.
type StatsAPI interface {
	GetBadges(ctx context.Context, steamID string) ([]byte, error)
	GetRecentlyPlayed(ctx context.Context, steamID string) ([]byte, error)
	GetPlayerSummaries(ctx context.Context, steamID string) ([]byte, error)
}

// ProfileConfig holds orchestrator timings.
type ProfileConfig struct {
	CommunityBaseURL string
	SnapshotTTL      time.Duration
	StatusCooldown   time.Duration
}

// ProfileDeps groups the collaborators of ProfileService.
type ProfileDeps struct {
	Store    repository.DocumentStore
	Index    repository.AliasIndex
	Cache    cache.Cache
	Resolver IdentityResolver
	Vanity   VanityResolver
	Scraper  ProfileScraper
	Stats    StatsAPI
	Locker   *Locker
}

// ProfileService aggregates identity, snapshot and Web API documents into a
// merged profile.
type ProfileService struct {
	deps   ProfileDeps
	config ProfileConfig
	logger *zap.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(deps ProfileDeps, config ProfileConfig, logger *zap.Logger) *ProfileService {
	if config.SnapshotTTL == 0 {
		config.SnapshotTTL = 60 * time.Second
	}
	if config.StatusCooldown == 0 {
		config.StatusCooldown = 30 * time.Second
	}
	if config.CommunityBaseURL == "" {
		config.CommunityBaseURL = "https://steamcommunity.com"
	}
	config.CommunityBaseURL = strings.TrimRight(config.CommunityBaseURL, "/")
	if deps.Locker == nil {
		deps.Locker = NewLocker()
	}

	return &ProfileService{
		deps:   deps,
		config: config,
		logger: logger.Named("profile"),
	}
}

// Permalink returns the permanent profile URL for steamID.
func (s *ProfileService) Permalink(steamID string) string {
	return s.config.CommunityBaseURL + "/profiles/" + steamID + "/"
}

func snapshotKey(steamID string) string { return "scrape_" + steamID }
func cooldownKey(steamID string) string { return "summary_time_" + steamID }

// Get runs the aggregation pipeline for token.
func (s *ProfileService) Get(ctx context.Context, token string) (*model.Profile, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	var flags model.ChangeFlags

	steamID, resolved, err := s.identify(ctx, token, &flags)
	if err != nil {
		return nil, err
	}

	unlock, err := s.deps.Locker.Lock(ctx, steamID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	identity, err := s.loadIdentity(ctx, steamID, resolved)
	if err != nil {
		return nil, err
	}

	s.reconcileVanity(ctx, identity, &flags)

	snapshot, previousAvatar, err := s.snapshot(ctx, identity)
	if err != nil {
		return nil, err
	}

	docs := s.refresh(ctx, steamID, snapshot, previousAvatar, &flags)
	unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Merge(MergeInput{
		Identity:       identity,
		Snapshot:       snapshot,
		Badges:         docs.badges,
		RecentlyPlayed: docs.recentlyPlayed,
		Summary:        docs.summary,
		Flags:          flags,
	}), nil
}

// identify maps token to a numeric id. Unknown tokens are resolved here,
// outside the per-identity lock, and returned for persistence.
func (s *ProfileService) identify(ctx context.Context, token string, flags *model.ChangeFlags) (string, *model.Identity, error) {
	if model.IsSteam64(token) {
		return token, nil, nil
	}

	if s.deps.Index != nil {
		steamID, err := s.deps.Index.Lookup(ctx, token)
		if err != nil {
			s.logger.Warn("Alias lookup failed", zap.String("token", token), zap.Error(err))
		} else if steamID != "" {
			return steamID, nil, nil
		}
	}

	flags.IsNewUser = true
	identity, err := s.resolve(ctx, token)
	if err != nil {
		return "", nil, err
	}
	return identity.Steam64, identity, nil
}

func (s *ProfileService) resolve(ctx context.Context, token string) (*model.Identity, error) {
	identity, err := s.deps.Resolver.Resolve(ctx, token)
	if err != nil {
		s.logger.Error("Identity resolution failed", zap.String("token", token), zap.Error(err))
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if !model.IsSteam64(identity.Steam64) {
		return nil, fmt.Errorf("resolve identity: %w: %q", repository.ErrInvalidID, identity.Steam64)
	}
	return identity, nil
}

// loadIdentity returns the stored identity for steamID. A resolved identity,
// or a fresh resolution when the partition has none, is persisted first.
func (s *ProfileService) loadIdentity(ctx context.Context, steamID string, resolved *model.Identity) (*model.Identity, error) {
	if resolved == nil {
		var stored model.Identity
		found, err := s.deps.Store.Read(ctx, steamID, model.CategoryIdentity, &stored)
		if err != nil {
			return nil, err
		}
		if found && stored.Steam64 == steamID {
			s.normalize(&stored)
			return &stored, nil
		}

		resolved, err = s.resolve(ctx, steamID)
		if err != nil {
			return nil, err
		}
	}

	s.normalize(resolved)
	if err := s.deps.Store.Write(ctx, steamID, model.CategoryIdentity, resolved); err != nil {
		s.logger.Error("Failed to persist identity", zap.String("steam_id", steamID), zap.Error(err))
		return nil, fmt.Errorf("persist identity: %w", err)
	}
	s.indexIdentity(ctx, resolved)
	return resolved, nil
}

// normalize derives the permalink and defaults the profile URL to it.
func (s *ProfileService) normalize(identity *model.Identity) {
	identity.ProfilePermalink = s.Permalink(identity.Steam64)
	if identity.ProfileURL == "" {
		identity.ProfileURL = identity.ProfilePermalink
	}
}

func (s *ProfileService) indexIdentity(ctx context.Context, identity *model.Identity) {
	if s.deps.Index == nil {
		return
	}
	if err := s.deps.Index.Replace(ctx, identity.Steam64, identity.Aliases()); err != nil {
		s.logger.Warn("Failed to index identity", zap.String("steam_id", identity.Steam64), zap.Error(err))
	}
}

// reconcileVanity follows the stored profile URL one hop and records a new
// destination. Failures keep the stored URL.
func (s *ProfileService) reconcileVanity(ctx context.Context, identity *model.Identity, flags *model.ChangeFlags) {
	if identity.ProfileURL == identity.ProfilePermalink || s.deps.Vanity == nil {
		return
	}

	dest, err := s.deps.Vanity.FollowRedirect(ctx, identity.ProfileURL)
	if err != nil {
		s.logger.Warn("Vanity check failed", zap.String("url", identity.ProfileURL), zap.Error(err))
		return
	}
	if dest == identity.ProfileURL || dest == identity.ProfilePermalink {
		return
	}

	updated := *identity
	updated.ProfileURL = dest
	if err := s.deps.Store.Write(ctx, identity.Steam64, model.CategoryIdentity, &updated); err != nil {
		s.logger.Warn("Failed to persist vanity change", zap.String("steam_id", identity.Steam64), zap.Error(err))
		return
	}

	s.logger.Info("Vanity URL changed",
		zap.String("steam_id", identity.Steam64),
		zap.String("from", identity.ProfileURL),
		zap.String("to", dest))
	*identity = updated
	flags.VanityChanged = true
	s.indexIdentity(ctx, identity)
}

// snapshot returns a live cached snapshot or scrapes a fresh one. The second
// result is the avatar of the snapshot persisted before this call.
func (s *ProfileService) snapshot(ctx context.Context, identity *model.Identity) (*model.Snapshot, string, error) {
	steamID := identity.Steam64
	key := snapshotKey(steamID)

	if data, err := s.deps.Cache.Get(ctx, key); err == nil {
		var cached model.Snapshot
		if err := sonic.Unmarshal(data, &cached); err == nil {
			return &cached, cached.Profile.Avatar, nil
		}
		s.logger.Warn("Discarding undecodable cached snapshot", zap.String("steam_id", steamID))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Snapshot cache read failed", zap.String("steam_id", steamID), zap.Error(err))
	}

	var previous model.Snapshot
	found, err := s.deps.Store.Read(ctx, steamID, model.CategorySnapshot, &previous)
	if err != nil {
		return nil, "", err
	}
	if !found {
		previous = model.Snapshot{}
	}

	snapshot, err := s.deps.Scraper.Scrape(ctx, identity.ProfilePermalink)
	if err != nil {
		s.logger.Error("Profile scrape failed", zap.String("steam_id", steamID), zap.Error(err))
		return nil, "", fmt.Errorf("scrape profile: %w", err)
	}

	if err := s.deps.Store.Write(ctx, steamID, model.CategorySnapshot, snapshot); err != nil {
		s.logger.Error("Failed to persist snapshot", zap.String("steam_id", steamID), zap.Error(err))
		return nil, "", fmt.Errorf("persist snapshot: %w", err)
	}

	if data, err := sonic.Marshal(snapshot); err == nil {
		if err := s.deps.Cache.Set(ctx, key, data, s.config.SnapshotTTL); err != nil {
			s.logger.Warn("Failed to cache snapshot", zap.String("steam_id", steamID), zap.Error(err))
		}
	}

	return snapshot, previous.Profile.Avatar, nil
}

type refreshed struct {
	badges         *model.BadgesDocument
	recentlyPlayed *model.RecentlyPlayedDocument
	summary        *model.SummaryDocument
}

// refresh re-fetches the categories selected by Decide. A failed fetch keeps
// the persisted document and leaves its change flag unset.
func (s *ProfileService) refresh(ctx context.Context, steamID string, snapshot *model.Snapshot, previousAvatar string, flags *model.ChangeFlags) refreshed {
	var docs refreshed

	docs.badges = readDoc[model.BadgesDocument](ctx, s, steamID, model.CategoryBadges)
	docs.recentlyPlayed = readDoc[model.RecentlyPlayedDocument](ctx, s, steamID, model.CategoryRecentlyPlayed)
	docs.summary = readDoc[model.SummaryDocument](ctx, s, steamID, model.CategorySummary)

	cooldownActive := false
	if snapshot.Profile.Status == model.StatusOnline {
		active, err := s.deps.Cache.Exists(ctx, cooldownKey(steamID))
		if err != nil {
			s.logger.Warn("Cooldown lookup failed", zap.String("steam_id", steamID), zap.Error(err))
		}
		cooldownActive = active
	}

	plan := Decide(RefreshInput{
		Snapshot:       snapshot,
		Badges:         docs.badges,
		RecentlyPlayed: docs.recentlyPlayed,
		Summary:        docs.summary,
		PreviousAvatar: previousAvatar,
		CooldownActive: cooldownActive,
	})

	if plan.Badges {
		if doc, ok := fetchDoc[model.BadgesDocument](ctx, s, steamID, model.CategoryBadges, s.deps.Stats.GetBadges); ok {
			flags.BadgeCountChanged = docs.badges != nil
			docs.badges = doc
		}
	}

	if plan.RecentlyPlayed {
		if doc, ok := fetchDoc[model.RecentlyPlayedDocument](ctx, s, steamID, model.CategoryRecentlyPlayed, s.deps.Stats.GetRecentlyPlayed); ok {
			docs.recentlyPlayed = doc
		}
	}

	if plan.Summary {
		if doc, ok := fetchDoc[model.SummaryDocument](ctx, s, steamID, model.CategorySummary, s.deps.Stats.GetPlayerSummaries); ok {
			docs.summary = doc
			flags.AvatarChanged = plan.AvatarChanged
			if err := s.deps.Cache.Set(ctx, cooldownKey(steamID), []byte(time.Now().UTC().Format(time.RFC3339)), s.config.StatusCooldown); err != nil {
				s.logger.Warn("Failed to set status cooldown", zap.String("steam_id", steamID), zap.Error(err))
			}
		}
	}

	return docs
}

func readDoc[T any](ctx context.Context, s *ProfileService, steamID string, category model.Category) *T {
	var doc T
	found, err := s.deps.Store.Read(ctx, steamID, category, &doc)
	if err != nil || !found {
		return nil
	}
	return &doc
}

// fetchDoc fetches one category, validates the body and persists it verbatim.
func fetchDoc[T any](
	ctx context.Context,
	s *ProfileService,
	steamID string,
	category model.Category,
	fetch func(context.Context, string) ([]byte, error),
) (*T, bool) {
	body, err := fetch(ctx, steamID)
	if err != nil {
		s.logger.Warn("Refresh failed, keeping persisted document",
			zap.String("steam_id", steamID),
			zap.String("category", string(category)),
			zap.Error(err))
		return nil, false
	}

	var doc T
	if err := sonic.Unmarshal(body, &doc); err != nil {
		s.logger.Warn("Refresh returned undecodable body",
			zap.String("steam_id", steamID),
			zap.String("category", string(category)),
			zap.Error(err))
		return nil, false
	}

	if err := s.deps.Store.Write(ctx, steamID, category, json.RawMessage(body)); err != nil {
		s.logger.Warn("Failed to persist refreshed document",
			zap.String("steam_id", steamID),
			zap.String("category", string(category)),
			zap.Error(err))
		return nil, false
	}
	return &doc, true
}

// RebuildIndex re-indexes every partition's identity and returns the number
// of identities indexed.
func (s *ProfileService) RebuildIndex(ctx context.Context) (int, error) {
	if s.deps.Index == nil {
		return 0, nil
	}

	ids, err := s.deps.Store.List(ctx)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, steamID := range ids {
		var identity model.Identity
		found, err := s.deps.Store.Read(ctx, steamID, model.CategoryIdentity, &identity)
		if err != nil {
			return indexed, err
		}
		if !found || identity.Steam64 != steamID {
			continue
		}
		if err := s.deps.Index.Replace(ctx, steamID, identity.Aliases()); err != nil {
			return indexed, fmt.Errorf("index %s: %w", steamID, err)
		}
		indexed++
	}

	s.logger.Info("Alias index rebuilt", zap.Int("partitions", len(ids)), zap.Int("indexed", indexed))
	return indexed, nil
}

// EnsureIndex rebuilds the alias index when it is empty.
func (s *ProfileService) EnsureIndex(ctx context.Context) error {
	if s.deps.Index == nil {
		return nil
	}
	n, err := s.deps.Index.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = s.RebuildIndex(ctx)
	return err
}
