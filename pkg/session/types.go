package session

import "time"

// Credentials is the decrypted username/password pair used to authenticate
// a PlatformLogin against the monitored platform. Callers fetch and decrypt
// these from pkg/store/pkg/vault; this package never persists plaintext.
type Credentials struct {
	LoginID  string
	Username string
	Password string
}

// PlatformSession tracks one login's authenticated scraper session and its
// validity window.
type PlatformSession struct {
	LoginID         string
	AuthenticatedAt time.Time
	ExpiresAt       time.Time
}

// needsRefresh reports whether the session is close enough to expiry that
// get_or_create should re-authenticate proactively rather than wait for an
// outright 401/403 from the platform.
func (s *PlatformSession) needsRefresh(now time.Time, refreshThreshold time.Duration) bool {
	return now.Add(refreshThreshold).After(s.ExpiresAt)
}
