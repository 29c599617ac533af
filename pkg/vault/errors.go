package vault

import "errors"

var (
	// ErrNoMasterKey indicates no master key could be sourced from the
	// environment variable, key file, or generation.
	ErrNoMasterKey = errors.New("vault: no master key available")

	// ErrCiphertextTooShort indicates a stored ciphertext is smaller than
	// one GCM nonce, so it cannot have been produced by Encrypt.
	ErrCiphertextTooShort = errors.New("vault: ciphertext too short")

	// ErrInvalidKeySize indicates a decoded master key is not 32 bytes.
	ErrInvalidKeySize = errors.New("vault: master key must be 256 bits (32 bytes)")

	// ErrUnknownTokenVersion indicates a decoded token's version marker
	// doesn't match what this Vault produces, so it was either corrupted
	// or never sealed by this package.
	ErrUnknownTokenVersion = errors.New("vault: unknown token version")
)

// DecryptionError wraps a failed decrypt/authentication check, keeping the
// underlying cipher error out of logs while still letting callers identify
// the failure class with errors.As.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string {
	return "vault: decryption failed: " + e.Err.Error()
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}
