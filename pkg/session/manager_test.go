package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu     sync.Mutex
	active map[string]bool
}

func (f *fakeLister) LoginIsActive(_ context.Context, loginID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[loginID], nil
}

func newLoginServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`<html><head><meta name="csrf-token" content="tok"></head></html>`))
			return
		}
		w.Write([]byte(`<html><body>welcome</body></html>`))
	})
	return httptest.NewServer(mux)
}

func newTestManager(t *testing.T, baseURL string, lister LoginLister) *Manager {
	t.Helper()

	sessCfg := config.DefaultSessionConfig()
	sessCfg.SweepInterval = 20 * time.Millisecond

	scraperCfg := config.DefaultScraperConfig()
	scraperCfg.BaseURL = baseURL
	scraperCfg.RequestTimeout = 5 * time.Second

	rlCfg := config.DefaultRateLimitConfig()
	rlCfg.PerDomainDelay = 0
	rlCfg.EvictionInterval = time.Hour
	limiter := ratelimit.New(rlCfg)
	t.Cleanup(limiter.Stop)

	m := New(sessCfg, scraperCfg, limiter, lister)
	t.Cleanup(m.Stop)
	return m
}

func TestManager_GetOrCreateAuthenticatesOnce(t *testing.T) {
	srv := newLoginServer(t)
	defer srv.Close()

	lister := &fakeLister{active: map[string]bool{"login-1": true}}
	m := newTestManager(t, srv.URL, lister)

	creds := Credentials{LoginID: "login-1", Username: "u", Password: "p"}

	s1, err := m.GetOrCreate(context.Background(), creds)
	require.NoError(t, err)
	assert.True(t, s1.IsAuthenticated())

	s2, err := m.GetOrCreate(context.Background(), creds)
	require.NoError(t, err)
	assert.Same(t, s1, s2, "second call within TTL reuses the cached session")
}

func TestManager_InvalidateForcesReauthentication(t *testing.T) {
	srv := newLoginServer(t)
	defer srv.Close()

	lister := &fakeLister{active: map[string]bool{"login-1": true}}
	m := newTestManager(t, srv.URL, lister)
	creds := Credentials{LoginID: "login-1", Username: "u", Password: "p"}

	s1, err := m.GetOrCreate(context.Background(), creds)
	require.NoError(t, err)

	m.Invalidate("login-1")

	s2, err := m.GetOrCreate(context.Background(), creds)
	require.NoError(t, err)
	assert.NotSame(t, s1, s2)
}

func TestManager_SweepDropsSessionsForInactiveLogins(t *testing.T) {
	srv := newLoginServer(t)
	defer srv.Close()

	lister := &fakeLister{active: map[string]bool{"login-1": true}}
	m := newTestManager(t, srv.URL, lister)
	creds := Credentials{LoginID: "login-1", Username: "u", Password: "p"}

	_, err := m.GetOrCreate(context.Background(), creds)
	require.NoError(t, err)
	require.Equal(t, 1, m.ActiveCount())

	lister.mu.Lock()
	lister.active["login-1"] = false
	lister.mu.Unlock()

	assert.Eventually(t, func() bool {
		return m.ActiveCount() == 0
	}, time.Second, 10*time.Millisecond)
}
