package steamapi_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"steamprofile-rest-api/internal/steamapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testID = "76561197960287930"

func newClient(t *testing.T, h http.HandlerFunc) *steamapi.Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return steamapi.NewClient(steamapi.Config{
		BaseURL: srv.URL + "/",
		APIKey:  "secret",
	}, steamapi.NewLimiter(time.Millisecond), zaptest.NewLogger(t))
}

func TestClientEndpoints(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		paths []string
	)
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/IPlayerService/GetBadges/v1/":
			assert.Equal(t, testID, r.URL.Query().Get("steamid"))
		case "/IPlayerService/GetRecentlyPlayedGames/v1/":
			assert.Equal(t, testID, r.URL.Query().Get("steamid"))
			assert.Equal(t, "20", r.URL.Query().Get("count"))
		case "/ISteamUser/GetPlayerSummaries/v2/":
			assert.Equal(t, testID, r.URL.Query().Get("steamids"))
		}
		_, _ = w.Write([]byte(`{"response":{}}`))
	})
	ctx := t.Context()

	body, err := c.GetBadges(ctx, testID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"response":{}}`, string(body))

	_, err = c.GetRecentlyPlayed(ctx, testID)
	require.NoError(t, err)

	_, err = c.GetPlayerSummaries(ctx, testID)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"/IPlayerService/GetBadges/v1/",
		"/IPlayerService/GetRecentlyPlayedGames/v1/",
		"/ISteamUser/GetPlayerSummaries/v2/",
	}, paths)
	assert.Equal(t, int64(3), c.Calls())
}

func TestClientNon2xxIsUpstreamError(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetBadges(t.Context(), testID)
	require.ErrorIs(t, err, steamapi.ErrUpstream)

	var statusErr *steamapi.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestClientDoesNotRetry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetPlayerSummaries(t.Context(), testID)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
