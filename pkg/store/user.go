package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, email, password_hash, is_active, is_verified)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, u.IsActive, u.IsVerified)
	return translate(err, "user", u.ID)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, password_hash, is_active, is_verified, created_at, updated_at
		FROM users WHERE user_id = $1`, id)
	return scanUser(row, "user", id)
}

// GetUserByEmail fetches a user by email, used at authentication time.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, password_hash, is_active, is_verified, created_at, updated_at
		FROM users WHERE email = $1`, email)
	return scanUser(row, "user", email)
}

func scanUser(row *sql.Row, resource, id string) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err, resource, id)
	}
	return &u, nil
}

// CreatePlatformLogin inserts a new login for a user.
func (s *Store) CreatePlatformLogin(ctx context.Context, l *PlatformLogin) error {
	l.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO platform_logins (login_id, user_id, name, encrypted_username, encrypted_password, is_admin, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.UserID, l.Name, l.EncryptedUsername, l.EncryptedPassword, l.IsAdmin, l.IsActive)
	return translate(err, "platform_login", l.ID)
}

// GetPlatformLogin fetches one login by id.
func (s *Store) GetPlatformLogin(ctx context.Context, id string) (*PlatformLogin, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT login_id, user_id, name, encrypted_username, encrypted_password, is_admin, is_active, last_used, created_at, updated_at
		FROM platform_logins WHERE login_id = $1`, id)
	return scanPlatformLogin(row, "platform_login", id)
}

func scanPlatformLogin(row *sql.Row, resource, id string) (*PlatformLogin, error) {
	var l PlatformLogin
	err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.EncryptedUsername, &l.EncryptedPassword,
		&l.IsAdmin, &l.IsActive, &l.LastUsed, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, translate(err, resource, id)
	}
	return &l, nil
}

// ListActiveLoginsForUser returns a user's active logins.
func (s *Store) ListActiveLoginsForUser(ctx context.Context, userID string) ([]*PlatformLogin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT login_id, user_id, name, encrypted_username, encrypted_password, is_admin, is_active, last_used, created_at, updated_at
		FROM platform_logins WHERE user_id = $1 AND is_active = TRUE ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PlatformLogin
	for rows.Next() {
		var l PlatformLogin
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.EncryptedUsername, &l.EncryptedPassword,
			&l.IsAdmin, &l.IsActive, &l.LastUsed, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// DeactivatePlatformLogin soft-deletes a login.
func (s *Store) DeactivatePlatformLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE platform_logins SET is_active = FALSE, updated_at = now() WHERE login_id = $1`, id)
	return err
}

// LoginIsActive implements pkg/session.LoginLister for C3's periodic sweep.
func (s *Store) LoginIsActive(ctx context.Context, loginID string) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx, `SELECT is_active FROM platform_logins WHERE login_id = $1`, loginID).Scan(&active)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return active, err
}

// TouchLoginLastUsed advances a login's last_used timestamp (monotonic
// non-decreasing per spec.md §3's PlatformLogin invariant).
func (s *Store) TouchLoginLastUsed(ctx context.Context, loginID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE platform_logins SET last_used = $2, updated_at = now()
		WHERE login_id = $1 AND (last_used IS NULL OR last_used < $2)`, loginID, at)
	return err
}

// GetActiveSession returns the single active, non-expired session for a
// login, or sql.ErrNoRows (translated to a NotFoundError) if none exists.
func (s *Store) GetActiveSession(ctx context.Context, loginID string) (*PlatformSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, login_id, encrypted_session_blob, expires_at, is_active, last_accessed, created_at
		FROM platform_sessions
		WHERE login_id = $1 AND is_active = TRUE AND expires_at > now()
		LIMIT 1`, loginID)

	var sess PlatformSession
	err := row.Scan(&sess.ID, &sess.LoginID, &sess.EncryptedSessionBlob, &sess.ExpiresAt,
		&sess.IsActive, &sess.LastAccessed, &sess.CreatedAt)
	if err != nil {
		return nil, translate(err, "platform_session", loginID)
	}
	return &sess, nil
}

// CreateSession deactivates any prior active sessions for the login and
// inserts a new active one in the same transaction, preserving the
// "at most one active session per login" invariant (spec.md §3).
func (s *Store) CreateSession(ctx context.Context, sess *PlatformSession) error {
	sess.ID = uuid.NewString()
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE platform_sessions SET is_active = FALSE WHERE login_id = $1 AND is_active = TRUE`, sess.LoginID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO platform_sessions (session_id, login_id, encrypted_session_blob, expires_at, is_active, last_accessed)
			VALUES ($1, $2, $3, $4, TRUE, now())`,
			sess.ID, sess.LoginID, sess.EncryptedSessionBlob, sess.ExpiresAt)
		return err
	})
}

// TouchSession bumps last_accessed, used when a cached session is reused
// without re-authenticating.
func (s *Store) TouchSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE platform_sessions SET last_accessed = now() WHERE session_id = $1`, sessionID)
	return err
}

// SweepExpiredSessions deactivates (never deletes, for audit) every active
// session past its expiry. Returns the number of rows affected.
func (s *Store) SweepExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE platform_sessions SET is_active = FALSE
		WHERE is_active = TRUE AND expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
