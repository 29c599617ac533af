// Package ratelimit implements the combined rate limiter (C6) guarding
// outbound calls to the monitored platform and to LLM providers: a
// token bucket for burst shaping plus a sliding window for sustained
// throughput, keyed per "rule_name:client_identifier", and a per-domain
// politeness delay for the scraper.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
)

// entry bundles one identifier's token bucket and sliding window together
// so both primitives must agree before a call is allowed through.
type entry struct {
	bucket *rate.Limiter
	window *slidingWindow
}

// Limiter is the combined token-bucket + sliding-window rate limiter.
type Limiter struct {
	cfg *config.RateLimitConfig

	mu      sync.Mutex
	entries map[string]*entry

	domainsMu   sync.Mutex
	domains     map[string]time.Time // domain -> time of last request
	domainLocks map[string]*sync.Mutex

	stopCh chan struct{}
	stopOnce sync.Once
}

// New builds a Limiter from configuration and starts its idle-bucket
// eviction sweep.
func New(cfg *config.RateLimitConfig) *Limiter {
	l := &Limiter{
		cfg:         cfg,
		entries:     make(map[string]*entry),
		domains:     make(map[string]time.Time),
		domainLocks: make(map[string]*sync.Mutex),
		stopCh:      make(chan struct{}),
	}
	go l.runEviction()
	return l
}

// Stop halts the background eviction sweep. Safe to call multiple times.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// key builds the per-identifier bucket key "rule_name:client_identifier".
func key(ruleName, clientID string) string {
	return fmt.Sprintf("%s:%s", ruleName, clientID)
}

func (l *Limiter) getEntry(ruleName, clientID string) *entry {
	k := key(ruleName, clientID)

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[k]
	if !ok {
		refillPerSecond := rate.Every(l.cfg.RefillInterval / time.Duration(max(l.cfg.RefillRate, 1)))
		e = &entry{
			bucket: rate.NewLimiter(refillPerSecond, l.cfg.BucketCapacity),
			window: newSlidingWindow(l.cfg.WindowSize, l.cfg.WindowLimit),
		}
		l.entries[k] = e
	}
	return e
}

// Allow reports whether a call identified by (ruleName, clientID) is
// permitted right now, without blocking. Both the token bucket and the
// sliding window must have room.
func (l *Limiter) Allow(ruleName, clientID string) bool {
	e := l.getEntry(ruleName, clientID)
	now := time.Now()
	if !e.window.allow(now) {
		return false
	}
	return e.bucket.AllowN(now, 1)
}

// Wait blocks until (ruleName, clientID) would be allowed by the token
// bucket, then enforces the sliding window, or returns ctx.Err() if the
// context is canceled first. If the context's deadline would pass before a
// token is available, it returns at once with an error wrapping
// context.DeadlineExceeded.
func (l *Limiter) Wait(ctx context.Context, ruleName, clientID string) error {
	e := l.getEntry(ruleName, clientID)

	for {
		if err := e.bucket.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if _, ok := ctx.Deadline(); ok {
				return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			return err
		}
		if e.window.allow(time.Now()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// domainLock returns the per-domain mutex serializing WaitForDomain calls
// for that domain, creating it if necessary.
func (l *Limiter) domainLock(domain string) *sync.Mutex {
	l.domainsMu.Lock()
	defer l.domainsMu.Unlock()

	m, ok := l.domainLocks[domain]
	if !ok {
		m = &sync.Mutex{}
		l.domainLocks[domain] = m
	}
	return m
}

// WaitForDomain enforces the per-domain politeness delay used by the
// scraper adapter (C2) between two requests to the same host. The
// per-domain lock is held across the whole read-wait-write sequence so two
// concurrent callers for the same domain can't both read the same last
// request time and sleep the same (too-short) duration.
func (l *Limiter) WaitForDomain(ctx context.Context, domain string) error {
	dl := l.domainLock(domain)
	dl.Lock()
	defer dl.Unlock()

	l.domainsMu.Lock()
	last, seen := l.domains[domain]
	l.domainsMu.Unlock()

	if seen {
		elapsed := time.Since(last)
		if wait := l.cfg.PerDomainDelay - elapsed; wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	l.domainsMu.Lock()
	l.domains[domain] = time.Now()
	l.domainsMu.Unlock()
	return nil
}

func (l *Limiter) runEviction() {
	ticker := time.NewTicker(l.cfg.EvictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *Limiter) evictIdle() {
	cutoff := time.Now().Add(-l.cfg.IdleEvictionAge)

	l.mu.Lock()
	for k, e := range l.entries {
		if e.window.lastActivity().Before(cutoff) {
			delete(l.entries, k)
		}
	}
	l.mu.Unlock()

	l.domainsMu.Lock()
	for domain, last := range l.domains {
		if last.Before(cutoff) {
			delete(l.domains, domain)
			delete(l.domainLocks, domain)
		}
	}
	l.domainsMu.Unlock()
}
