// Package vault implements the credential vault (C1): symmetric
// encryption at rest for platform login passwords, LLM provider API
// keys, and anything else persisted in pkg/store that must not be
// readable from a database dump alone.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
)

const keySize = 32 // AES-256

// tokenVersion is the authenticated-encryption token's version marker, the
// first byte after the inner base64 layer is peeled off. IsEncrypted uses
// it to recognize a vault ciphertext without attempting a decrypt.
const tokenVersion byte = 0x01

// Vault encrypts and decrypts secrets with a single master key held in
// memory. There is no per-tenant DEK hierarchy — one deployment-wide key
// is enough for this system's threat model (protecting credentials from
// a raw database dump, not multi-tenant
// key isolation).
type Vault struct {
	masterKey []byte
}

// New builds a Vault, sourcing the master key from the configured
// environment variable, then the configured key file, generating and
// persisting a new one as a last resort when AllowGenerate is set.
func New(cfg *config.VaultConfig) (*Vault, error) {
	key, err := loadOrGenerateKey(cfg)
	if err != nil {
		return nil, err
	}
	return &Vault{masterKey: key}, nil
}

func loadOrGenerateKey(cfg *config.VaultConfig) ([]byte, error) {
	if cfg.KeyEnvVar != "" {
		if raw := os.Getenv(cfg.KeyEnvVar); raw != "" {
			return decodeKey(raw)
		}
	}

	if cfg.KeyFile != "" {
		if raw, err := os.ReadFile(cfg.KeyFile); err == nil {
			return decodeKey(string(raw))
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("vault: read key file: %w", err)
		}
	}

	if !cfg.AllowGenerate {
		return nil, ErrNoMasterKey
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("vault: generate key: %w", err)
	}

	if cfg.KeyFile != "" {
		if err := persistKey(cfg.KeyFile, key); err != nil {
			return nil, err
		}
	}

	return key, nil
}

func persistKey(path string, key []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("vault: create key directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return fmt.Errorf("vault: persist generated key: %w", err)
	}
	return nil
}

func decodeKey(raw string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("vault: decode master key: %w", err)
	}
	if len(key) != keySize {
		return nil, ErrInvalidKeySize
	}
	return key, nil
}

// Encrypt seals plaintext with AES-256-GCM, prepending a version marker
// and the nonce to the ciphertext, then base64-encodes the result twice:
// once to form the authenticated-encryption token, once more for storage
// as a text column (spec.md §3's ciphertext layout). Empty input passes
// through unencrypted — there is nothing to protect, and it keeps
// optional fields optional.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", nil
	}

	gcm, err := v.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: generate nonce: %w", err)
	}

	buf := make([]byte, 0, 1+len(nonce))
	buf = append(buf, tokenVersion)
	buf = append(buf, nonce...)
	sealed := gcm.Seal(buf, nonce, plaintext, nil)

	token := base64.StdEncoding.EncodeToString(sealed)
	return base64.StdEncoding.EncodeToString([]byte(token)), nil
}

// Decrypt reverses Encrypt. An empty string decrypts to empty, mirroring
// Encrypt's passthrough.
func (v *Vault) Decrypt(ciphertextB64 string) ([]byte, error) {
	if ciphertextB64 == "" {
		return nil, nil
	}

	gcm, err := v.gcm()
	if err != nil {
		return nil, err
	}

	tokenBytes, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, &DecryptionError{Err: fmt.Errorf("decode outer ciphertext: %w", err)}
	}

	sealed, err := base64.StdEncoding.DecodeString(string(tokenBytes))
	if err != nil {
		return nil, &DecryptionError{Err: fmt.Errorf("decode token: %w", err)}
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < 1+nonceSize {
		return nil, &DecryptionError{Err: ErrCiphertextTooShort}
	}
	if sealed[0] != tokenVersion {
		return nil, &DecryptionError{Err: ErrUnknownTokenVersion}
	}

	nonce, ciphertext := sealed[1:1+nonceSize], sealed[1+nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, &DecryptionError{Err: err}
	}
	return plaintext, nil
}

// IsEncrypted reports whether s looks like a vault ciphertext: a
// heuristic, not a decrypt attempt, per spec.md §3 ("double-base64-
// decodable and first byte equals the authenticated-encryption version
// marker"). Used to avoid double-encrypting a value that was already
// sealed, e.g. when a migration or import path isn't sure of a field's
// state.
func (v *Vault) IsEncrypted(s string) bool {
	if s == "" {
		return false
	}

	tokenBytes, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return false
	}

	sealed, err := base64.StdEncoding.DecodeString(string(tokenBytes))
	if err != nil {
		return false
	}

	return len(sealed) >= 1 && sealed[0] == tokenVersion
}

// EncryptString is a convenience wrapper for string secrets (platform
// passwords, API keys, session cookies).
func (v *Vault) EncryptString(plaintext string) (string, error) {
	return v.Encrypt([]byte(plaintext))
}

// DecryptString is the string counterpart of EncryptString.
func (v *Vault) DecryptString(ciphertextB64 string) (string, error) {
	plaintext, err := v.Decrypt(ciphertextB64)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (v *Vault) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.masterKey)
	if err != nil {
		return nil, fmt.Errorf("vault: create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
