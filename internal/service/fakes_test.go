package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"steamprofile-rest-api/internal/cache"
	"steamprofile-rest-api/internal/model"
	"steamprofile-rest-api/internal/repository"
	"steamprofile-rest-api/internal/service"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testID        = "76561197960287930"
	communityBase = "https://steamcommunity.com"
	permalink     = communityBase + "/profiles/" + testID + "/"
	avatarHash    = "c5d56249ee5d28a07db4ac9f7f60af961fab5426"
	newAvatarHash = "fef49e7fa7e1997310d705b2a6158ff8dc1cdfeb"
)

const badgesBody = `{"response":{"badges":[` +
	`{"badgeid":1,"level":5,"completion_time":1500000000,"xp":100,"scarcity":1000},` +
	`{"badgeid":2,"level":1,"completion_time":1500000001,"xp":50,"scarcity":2000}],` +
	`"player_xp":150,"player_level":3,"player_xp_needed_to_level_up":50,"player_xp_needed_current_level":100}}`

const recentBody = `{"response":{"total_count":1,"games":[` +
	`{"appid":546560,"name":"Half-Life: Alyx","playtime_2weeks":60,"playtime_forever":600,"img_icon_url":"abc"}]}}`

func summaryBody(hash string, state int) string {
	return `{"response":{"players":[{"steamid":"` + testID + `","personaname":"Rabscuttle",` +
		`"profileurl":"` + permalink + `",` +
		`"avatar":"https://avatars.cdn.example/` + hash + `.jpg",` +
		`"avatarmedium":"https://avatars.cdn.example/` + hash + `_medium.jpg",` +
		`"avatarfull":"https://avatars.cdn.example/` + hash + `_full.jpg",` +
		`"avatarhash":"` + hash + `","personastate":` + strconv.Itoa(state) + `,"loccountrycode":"US"}]}}`
}

func testSnapshot(status, hash string, badgeCount int) *model.Snapshot {
	return &model.Snapshot{
		Profile: model.ProfileSection{
			PersonaName:     "Rabscuttle",
			BackgroundImage: "https://cdn.example/bg.jpg",
			Avatar:          "https://avatars.akamai.example/" + hash + "_full.jpg",
			Level:           "158",
			LevelStage:      "lvl_100",
			Bio:             &model.Bio{Raw: "hi", Text: "hi"},
			Status:          status,
		},
		SidePanel: model.SidePanel{
			Badges: &model.BadgesPanel{Count: badgeCount, Badges: []model.BadgePreview{}},
			Stats: map[string]model.CountLink{
				"games": {Name: "Games", Count: 311},
			},
			Friends: &model.FriendsPanel{Count: 250, Top: []model.FriendPreview{
				{Name: "Robin", Link: "https://steamcommunity.com/id/robin/", Level: "55", Status: "Online"},
			}},
		},
	}
}

func testIdentity(profileURL string) *model.Identity {
	return &model.Identity{
		RealName:         "Gabe Newell",
		Country:          "Washington, United States",
		AccountCreated:   "September 12, 2003",
		SteamID:          "STEAM_0:0:11101",
		SteamID3:         "[U:1:22202]",
		Steam32:          "22202",
		Steam64:          testID,
		ProfileURL:       profileURL,
		ProfilePermalink: permalink,
	}
}

type fakeResolver struct {
	mu         sync.Mutex
	identities map[string]*model.Identity
	calls      []string
	err        error
}

func (f *fakeResolver) Resolve(_ context.Context, token string) (*model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, token)
	if f.err != nil {
		return nil, f.err
	}
	identity, ok := f.identities[token]
	if !ok {
		return nil, errors.New("identity not found")
	}
	copied := *identity
	return &copied, nil
}

func (f *fakeResolver) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeVanity struct {
	mu        sync.Mutex
	redirects map[string]string
	calls     int
	err       error
}

func (f *fakeVanity) FollowRedirect(_ context.Context, rawURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if dest, ok := f.redirects[rawURL]; ok {
		return dest, nil
	}
	return rawURL, nil
}

type fakeScraper struct {
	mu       sync.Mutex
	snapshot func() *model.Snapshot
	calls    int
	err      error
	delay    time.Duration
}

func (f *fakeScraper) Scrape(ctx context.Context, pageURL string) (*model.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	delay, err, build := f.delay, f.err, f.snapshot
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return build(), nil
}

func (f *fakeScraper) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeScraper) set(build func() *model.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = build
}

const (
	endpointBadges  = "badges"
	endpointRecent  = "recent"
	endpointSummary = "summary"
)

type fakeStats struct {
	mu     sync.Mutex
	calls  []string
	bodies map[string]string
	errs   map[string]error
}

func (f *fakeStats) call(endpoint string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, endpoint)
	if err := f.errs[endpoint]; err != nil {
		return nil, err
	}
	return []byte(f.bodies[endpoint]), nil
}

func (f *fakeStats) GetBadges(context.Context, string) ([]byte, error) {
	return f.call(endpointBadges)
}

func (f *fakeStats) GetRecentlyPlayed(context.Context, string) ([]byte, error) {
	return f.call(endpointRecent)
}

func (f *fakeStats) GetPlayerSummaries(context.Context, string) ([]byte, error) {
	return f.call(endpointSummary)
}

func (f *fakeStats) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeStats) setBody(endpoint, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[endpoint] = body
}

func (f *fakeStats) setErr(endpoint string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[endpoint] = err
}

type harness struct {
	svc      *service.ProfileService
	store    *repository.FSDocumentStore
	index    *repository.SQLiteAliasIndex
	cache    *cache.MemoryCache
	clock    *clockwork.FakeClock
	resolver *fakeResolver
	vanity   *fakeVanity
	scraper  *fakeScraper
	stats    *fakeStats
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	dir := t.TempDir()

	store, err := repository.NewFSDocumentStore(filepath.Join(dir, "steam"), logger)
	require.NoError(t, err)

	index, err := repository.NewSQLiteAliasIndex(t.Context(), filepath.Join(dir, "aliases.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	clock := clockwork.NewFakeClock()
	h := &harness{
		store:    store,
		index:    index,
		cache:    cache.NewMemoryCacheWithClock(clock),
		clock:    clock,
		resolver: &fakeResolver{identities: map[string]*model.Identity{}},
		vanity:   &fakeVanity{redirects: map[string]string{}},
		scraper: &fakeScraper{snapshot: func() *model.Snapshot {
			return testSnapshot(model.StatusOnline, avatarHash, 2)
		}},
		stats: &fakeStats{
			bodies: map[string]string{
				endpointBadges:  badgesBody,
				endpointRecent:  recentBody,
				endpointSummary: summaryBody(avatarHash, 1),
			},
			errs: map[string]error{},
		},
	}

	h.svc = h.build(t, store)
	return h
}

// build creates a service over the harness collaborators and store.
func (h *harness) build(t *testing.T, store repository.DocumentStore) *service.ProfileService {
	t.Helper()
	return service.NewProfileService(service.ProfileDeps{
		Store:    store,
		Index:    h.index,
		Cache:    h.cache,
		Resolver: h.resolver,
		Vanity:   h.vanity,
		Scraper:  h.scraper,
		Stats:    h.stats,
	}, service.ProfileConfig{
		CommunityBaseURL: communityBase,
		SnapshotTTL:      60 * time.Second,
		StatusCooldown:   30 * time.Second,
	}, zaptest.NewLogger(t))
}

// corruptSnapshotStore reports the snapshot document as absent after
// partially filling the destination, as a failed decode may.
type corruptSnapshotStore struct {
	repository.DocumentStore
	partial *model.Snapshot
}

func (s *corruptSnapshotStore) Read(ctx context.Context, steamID string, category model.Category, v any) (bool, error) {
	if category != model.CategorySnapshot {
		return s.DocumentStore.Read(ctx, steamID, category, v)
	}
	if dst, ok := v.(*model.Snapshot); ok {
		*dst = *s.partial
	}
	return false, nil
}

// seedIdentity stores an identity the way an earlier request would have.
func (h *harness) seedIdentity(t *testing.T, identity *model.Identity) {
	t.Helper()
	require.NoError(t, h.store.Write(t.Context(), identity.Steam64, model.CategoryIdentity, identity))
	require.NoError(t, h.index.Replace(t.Context(), identity.Steam64, identity.Aliases()))
}
