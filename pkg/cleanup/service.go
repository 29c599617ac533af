// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
)

// Service periodically enforces retention policies:
//   - Soft-deletes posted/failed AIComment rows past CommentRetentionDays
//   - Deletes process_events rows older than ProcessEventTTL
//   - Sweeps expired PlatformSession rows
//
// All operations are idempotent and safe to run from multiple pods.
type Service struct {
	config *config.RetentionConfig
	store  *store.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, st *store.Store) *Service {
	return &Service{config: cfg, store: st}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"comment_retention_days", s.config.CommentRetentionDays,
		"process_event_ttl", s.config.ProcessEventTTL,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.softDeleteOldComments(ctx)
	s.deleteOldProcessEvents(ctx)
	s.sweepExpiredSessions(ctx)
}

func (s *Service) softDeleteOldComments(ctx context.Context) {
	count, err := s.store.SoftDeleteOldComments(ctx, s.config.CommentRetentionDays)
	if err != nil {
		slog.Error("retention: soft-delete comments failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: soft-deleted old comments", "count", count)
	}
}

func (s *Service) deleteOldProcessEvents(ctx context.Context) {
	days := int(s.config.ProcessEventTTL.Hours() / 24)
	if days < 1 {
		days = 1
	}
	count, err := s.store.DeleteProcessEventsOlderThan(ctx, days)
	if err != nil {
		slog.Error("retention: process event cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: deleted old process events", "count", count)
	}
}

func (s *Service) sweepExpiredSessions(ctx context.Context) {
	count, err := s.store.SweepExpiredSessions(ctx)
	if err != nil {
		slog.Error("retention: session sweep failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: swept expired platform sessions", "count", count)
	}
}
