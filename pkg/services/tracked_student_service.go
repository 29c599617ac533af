package services

import (
	"context"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
)

// TrackedStudentService manages the roster of students whose articles get
// versioned on every monitoring pass (C7, spec.md §4.7).
type TrackedStudentService struct {
	store *store.Store
}

// NewTrackedStudentService creates a new TrackedStudentService.
func NewTrackedStudentService(st *store.Store) *TrackedStudentService {
	if st == nil {
		panic("NewTrackedStudentService: store must not be nil")
	}
	return &TrackedStudentService{store: st}
}

// TrackStudentInput registers a student for article versioning.
type TrackStudentInput struct {
	UserID             string
	AdminLoginID       string
	MymomentUsername   string
	ContentChangesOnly bool
}

// TrackStudent validates and stores a new tracked student.
func (s *TrackedStudentService) TrackStudent(ctx context.Context, in TrackStudentInput) (*store.TrackedStudent, error) {
	if in.UserID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if in.AdminLoginID == "" {
		return nil, NewValidationError("admin_login_id", "required")
	}
	if in.MymomentUsername == "" {
		return nil, NewValidationError("mymoment_username", "required")
	}

	login, err := s.store.GetPlatformLogin(ctx, in.AdminLoginID)
	if err != nil {
		return nil, err
	}
	if login.UserID != in.UserID {
		return nil, &AccessError{Resource: "platform_login", ID: in.AdminLoginID}
	}
	if !login.IsAdmin {
		return nil, NewValidationError("admin_login_id", "login must be an admin login")
	}

	t := &store.TrackedStudent{
		UserID:             in.UserID,
		AdminLoginID:       in.AdminLoginID,
		MymomentUsername:   in.MymomentUsername,
		ContentChangesOnly: in.ContentChangesOnly,
	}
	if err := s.store.CreateTrackedStudent(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTrackedStudent fetches a tracked student, enforcing ownership.
func (s *TrackedStudentService) GetTrackedStudent(ctx context.Context, userID, id string) (*store.TrackedStudent, error) {
	t, err := s.store.GetTrackedStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, &AccessError{Resource: "tracked_student", ID: id}
	}
	return t, nil
}

// ListTrackedStudents returns every student a user tracks.
func (s *TrackedStudentService) ListTrackedStudents(ctx context.Context, userID string) ([]*store.TrackedStudent, error) {
	return s.store.ListTrackedStudentsForUser(ctx, userID)
}
