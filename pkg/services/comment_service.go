package services

import (
	"context"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
)

// CommentService exposes read access over a process's AIComment rows for
// the CLI's inspection commands; all writes happen inside
// pkg/orchestrator's stage executors.
type CommentService struct {
	store *store.Store
}

// NewCommentService creates a new CommentService.
func NewCommentService(st *store.Store) *CommentService {
	if st == nil {
		panic("NewCommentService: store must not be nil")
	}
	return &CommentService{store: st}
}

// GetComment fetches a single comment, enforcing that it belongs to a
// process owned by userID.
func (s *CommentService) GetComment(ctx context.Context, userID, commentID string) (*store.AIComment, error) {
	c, err := s.store.GetAIComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, &AccessError{Resource: "ai_comment", ID: commentID}
	}
	return c, nil
}

// ListByStatus lists a process's comments in a given status, enforcing
// ownership of the process first.
func (s *CommentService) ListByStatus(ctx context.Context, userID, processID, status string, limit int) ([]*store.AIComment, error) {
	p, err := s.store.GetMonitoringProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, &AccessError{Resource: "monitoring_process", ID: processID}
	}
	return s.store.ListAICommentsByStatus(ctx, processID, status, limit)
}

// History returns a comment's full status-transition audit trail.
func (s *CommentService) History(ctx context.Context, userID, commentID string) ([]*store.ProcessEvent, error) {
	c, err := s.GetComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	return s.store.ListProcessEventsForComment(ctx, c.ID)
}
