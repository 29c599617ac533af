// Package session implements the platform session manager (C3): a
// get_or_create cache of authenticated scraper.Session objects keyed by
// login, with a per-login mutex so concurrent stage workers touching the
// same login serialize instead of racing to re-authenticate, a TTL/refresh
// policy, and a periodic sweep that drops sessions for logins no longer
// known to the caller.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/ratelimit"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/scraper"
)

// LoginLister is implemented by pkg/store; the sweep uses it to decide
// whether a cached session's login still exists and is enabled.
type LoginLister interface {
	LoginIsActive(ctx context.Context, loginID string) (bool, error)
}

type entry struct {
	mu      sync.Mutex // serializes get_or_create / invalidate for this one login
	session *scraper.Session
	meta    *PlatformSession
}

// Manager owns one entry per login, a registry-of-live-sessions shape keyed
// by login instead of by in-flight worker task, backed by a per-login mutex
// rather than a single pool-wide one.
type Manager struct {
	cfg          *config.SessionConfig
	scraperCfg   *config.ScraperConfig
	limiter      *ratelimit.Limiter
	lister       LoginLister

	mu      sync.Mutex // guards entries map structure only, not per-login state
	entries map[string]*entry

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Manager and starts its background sweep.
func New(cfg *config.SessionConfig, scraperCfg *config.ScraperConfig, limiter *ratelimit.Limiter, lister LoginLister) *Manager {
	m := &Manager{
		cfg:        cfg,
		scraperCfg: scraperCfg,
		limiter:    limiter,
		lister:     lister,
		entries:    make(map[string]*entry),
		stopCh:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.runSweep()
	return m
}

// Stop halts the sweep loop and blocks until it exits.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

func (m *Manager) entryFor(loginID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[loginID]
	if !ok {
		e = &entry{}
		m.entries[loginID] = e
	}
	return e
}

// GetOrCreate returns a valid authenticated scraper.Session for creds.LoginID,
// authenticating (or re-authenticating, if the cached session is expired or
// within the refresh threshold) as needed. Concurrent calls for the same
// login serialize on that login's mutex; calls for different logins proceed
// independently.
func (m *Manager) GetOrCreate(ctx context.Context, creds Credentials) (*scraper.Session, error) {
	e := m.entryFor(creds.LoginID)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	if e.session != nil && e.session.IsAuthenticated() && !e.meta.needsRefresh(now, m.cfg.RefreshThreshold) {
		return e.session, nil
	}

	sess, err := scraper.New(m.scraperCfg, m.limiter)
	if err != nil {
		return nil, fmt.Errorf("session: build scraper session for login %s: %w", creds.LoginID, err)
	}

	if err := sess.Authenticate(ctx, creds.Username, creds.Password); err != nil {
		return nil, fmt.Errorf("session: authenticate login %s: %w", creds.LoginID, err)
	}

	e.session = sess
	e.meta = &PlatformSession{
		LoginID:         creds.LoginID,
		AuthenticatedAt: now,
		ExpiresAt:       now.Add(m.cfg.TTL),
	}

	return sess, nil
}

// Invalidate drops the cached session for a login, forcing the next
// GetOrCreate to re-authenticate. Called after a 401/403 surfaces from a
// stage that used a session obtained earlier in the same run.
func (m *Manager) Invalidate(loginID string) {
	e := m.entryFor(loginID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		e.session.Close()
	}
	e.session = nil
	e.meta = nil
}

// ActiveCount reports how many logins currently have a cache entry, for
// health/metrics reporting. Entries that hold no session (after Invalidate
// or a failed authentication) are counted too.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) runSweep() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.mu.Lock()
	loginIDs := make([]string, 0, len(m.entries))
	for id := range m.entries {
		loginIDs = append(loginIDs, id)
	}
	m.mu.Unlock()

	for _, loginID := range loginIDs {
		active, err := m.lister.LoginIsActive(context.Background(), loginID)
		if err != nil || active {
			continue
		}

		m.mu.Lock()
		e, ok := m.entries[loginID]
		if ok {
			delete(m.entries, loginID)
		}
		m.mu.Unlock()

		if ok {
			e.mu.Lock()
			if e.session != nil {
				e.session.Close()
			}
			e.mu.Unlock()
		}
	}
}
