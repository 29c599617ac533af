package services

import (
	"context"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/vault"
)

// LoginService manages PlatformLogin credentials (C1 Credential Vault's
// user-facing half): it never returns or logs plaintext credentials, only
// the ciphertext-bearing store rows.
type LoginService struct {
	store *store.Store
	vault *vault.Vault
}

// NewLoginService creates a new LoginService.
func NewLoginService(st *store.Store, v *vault.Vault) *LoginService {
	if st == nil {
		panic("NewLoginService: store must not be nil")
	}
	if v == nil {
		panic("NewLoginService: vault must not be nil")
	}
	return &LoginService{store: st, vault: v}
}

// CreateLoginInput is the plaintext form of a new login, never persisted
// as-is — username/password are sealed through the vault before the store
// ever sees them.
type CreateLoginInput struct {
	UserID   string
	Name     string
	Username string
	Password string
	IsAdmin  bool
}

// CreateLogin encrypts and stores a new platform login for a user.
func (s *LoginService) CreateLogin(ctx context.Context, in CreateLoginInput) (*store.PlatformLogin, error) {
	if in.UserID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if in.Name == "" {
		return nil, NewValidationError("name", "required")
	}
	if in.Username == "" || in.Password == "" {
		return nil, NewValidationError("username", "username and password are both required")
	}

	encUsername, err := s.vault.EncryptString(in.Username)
	if err != nil {
		return nil, &CryptoError{Op: "encrypt login username", Err: err}
	}
	encPassword, err := s.vault.EncryptString(in.Password)
	if err != nil {
		return nil, &CryptoError{Op: "encrypt login password", Err: err}
	}

	login := &store.PlatformLogin{
		UserID:            in.UserID,
		Name:              in.Name,
		EncryptedUsername: encUsername,
		EncryptedPassword: encPassword,
		IsAdmin:           in.IsAdmin,
		IsActive:          true,
	}
	if err := s.store.CreatePlatformLogin(ctx, login); err != nil {
		return nil, err
	}
	return login, nil
}

// GetLogin fetches a login, enforcing that it belongs to userID.
func (s *LoginService) GetLogin(ctx context.Context, userID, loginID string) (*store.PlatformLogin, error) {
	login, err := s.store.GetPlatformLogin(ctx, loginID)
	if err != nil {
		return nil, err
	}
	if login.UserID != userID {
		return nil, &AccessError{Resource: "platform_login", ID: loginID}
	}
	return login, nil
}

// ListLogins returns a user's active logins.
func (s *LoginService) ListLogins(ctx context.Context, userID string) ([]*store.PlatformLogin, error) {
	return s.store.ListActiveLoginsForUser(ctx, userID)
}

// DeleteLogin soft-deletes a login the user owns.
func (s *LoginService) DeleteLogin(ctx context.Context, userID, loginID string) error {
	if _, err := s.GetLogin(ctx, userID, loginID); err != nil {
		return err
	}
	return s.store.DeactivatePlatformLogin(ctx, loginID)
}
