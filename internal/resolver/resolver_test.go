package resolver_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"steamprofile-rest-api/internal/resolver"
	"steamprofile-rest-api/pkg/retry"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const gabenXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<profile>
	<steamID64>76561197960287930</steamID64>
	<steamID><![CDATA[Rabscuttle]]></steamID>
	<onlineState>online</onlineState>
	<privacyState>public</privacyState>
	<avatarFull><![CDATA[https://avatars.example/c5d56249ee5d28a07db4ac9f7f60af961fab5426_full.jpg]]></avatarFull>
	<customURL><![CDATA[gabelogannewell]]></customURL>
	<memberSince>September 12, 2003</memberSince>
	<location><![CDATA[Washington, United States]]></location>
	<realname><![CDATA[Gabe Newell]]></realname>
</profile>`

const notFoundXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<response><error><![CDATA[The specified profile could not be found.]]></error></response>`

func fastRetry() *retry.Options {
	return &retry.Options{
		MaxElapsedTime:  time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxRetries:      2,
	}
}

func newResolver(t *testing.T, handler http.Handler) (*resolver.Resolver, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	r := resolver.New(resolver.Config{
		CommunityBaseURL: server.URL,
		Retry:            fastRetry(),
	}, zaptest.NewLogger(t))
	return r, server
}

func TestResolveTokenForms(t *testing.T) {
	t.Parallel()

	var paths []string
	pathCh := make(chan string, 16)
	r, server := newResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		pathCh <- req.URL.Path
		assert.Equal(t, "1", req.URL.Query().Get("xml"))
		_, _ = fmt.Fprint(w, gabenXML)
	}))

	tokens := []struct {
		token string
		path  string
	}{
		{token: "gabelogannewell", path: "/id/gabelogannewell/"},
		{token: "76561197960287930", path: "/profiles/76561197960287930/"},
		{token: "STEAM_0:0:11101", path: "/profiles/76561197960287930/"},
		{token: "[U:1:22202]", path: "/profiles/76561197960287930/"},
		{token: "https://steamcommunity.com/id/gabelogannewell/", path: "/id/gabelogannewell/"},
		{token: "https://steamcommunity.com/profiles/76561197960287930", path: "/profiles/76561197960287930/"},
	}

	for _, tt := range tokens {
		identity, err := r.Resolve(t.Context(), tt.token)
		require.NoError(t, err, tt.token)

		assert.Equal(t, "76561197960287930", identity.Steam64)
		assert.Equal(t, "STEAM_0:0:11101", identity.SteamID)
		assert.Equal(t, "[U:1:22202]", identity.SteamID3)
		assert.Equal(t, "22202", identity.Steam32)
		assert.Equal(t, server.URL+"/id/gabelogannewell/", identity.ProfileURL)
		assert.Equal(t, server.URL+"/profiles/76561197960287930/", identity.ProfilePermalink)
		assert.Equal(t, "Gabe Newell", identity.RealName)
		assert.Equal(t, "Washington, United States", identity.Country)
		assert.Equal(t, "September 12, 2003", identity.AccountCreated)
		assert.Equal(t, "public", identity.Visibility)

		paths = append(paths, <-pathCh)
	}

	for i, tt := range tokens {
		assert.Equal(t, tt.path, paths[i], tt.token)
	}
}

func TestResolveWithoutCustomURLUsesPermalink(t *testing.T) {
	t.Parallel()

	r, server := newResolver(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<profile><steamID64>76561197960287930</steamID64><customURL></customURL></profile>`)
	}))

	identity, err := r.Resolve(t.Context(), "76561197960287930")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/profiles/76561197960287930/", identity.ProfileURL)
}

func TestResolveNotFound(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	r, _ := newResolver(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, notFoundXML)
	}))

	_, err := r.Resolve(t.Context(), "nobody-here")
	require.ErrorIs(t, err, resolver.ErrIdentityNotFound)
	assert.Equal(t, int32(1), hits.Load(), "not found must not be retried")
}

func TestResolveRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	r, _ := newResolver(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = fmt.Fprint(w, gabenXML)
	}))

	identity, err := r.Resolve(t.Context(), "gabelogannewell")
	require.NoError(t, err)
	assert.Equal(t, "76561197960287930", identity.Steam64)
	assert.Equal(t, int32(3), hits.Load())
}

func TestResolveRejectsInvalidTokens(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}))

	for _, token := range []string{"", "   ", "https://example.com/groups/x", "a/b", "https://steamcommunity.com/profiles/abc"} {
		_, err := r.Resolve(t.Context(), token)
		require.ErrorIs(t, err, resolver.ErrInvalidToken, token)
	}
}

func TestResolveCollapsesConcurrentLookups(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	release := make(chan struct{})
	r, _ := newResolver(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		_, _ = fmt.Fprint(w, gabenXML)
	}))

	var wg conc.WaitGroup
	for range 5 {
		wg.Go(func() {
			identity, err := r.Resolve(t.Context(), "gabelogannewell")
			assert.NoError(t, err)
			if identity != nil {
				assert.Equal(t, "76561197960287930", identity.Steam64)
			}
		})
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestResolveSharedLookupSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	release := make(chan struct{})
	r, _ := newResolver(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		_, _ = fmt.Fprint(w, gabenXML)
	}))

	firstCtx, cancelFirst := context.WithCancel(t.Context())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.Resolve(firstCtx, "gabelogannewell")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		steam64 string
		err     error
	}
	second := make(chan result, 1)
	go func() {
		identity, err := r.Resolve(context.Background(), "gabelogannewell")
		if err != nil {
			second <- result{err: err}
			return
		}
		second <- result{steam64: identity.Steam64}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "76561197960287930", got.steam64)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFollowRedirect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/id/old/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/id/new/", http.StatusFound)
	})
	mux.HandleFunc("/id/new/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r, server := newResolver(t, mux)

	got, err := r.FollowRedirect(t.Context(), server.URL+"/id/old/")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/id/new/", got)

	got, err = r.FollowRedirect(t.Context(), server.URL+"/id/new/")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/id/new/", got)
}
