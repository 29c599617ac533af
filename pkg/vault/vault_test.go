package vault

import (
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.VaultConfig {
	t.Helper()
	return &config.VaultConfig{
		KeyFile:       filepath.Join(t.TempDir(), "vault.key"),
		AllowGenerate: true,
	}
}

func TestVault_EncryptDecrypt_RoundTrips(t *testing.T) {
	v, err := New(testConfig(t))
	require.NoError(t, err)

	ciphertext, err := v.EncryptString("s3cr3t-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cr3t-password", ciphertext)

	plaintext, err := v.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-password", plaintext)
}

func TestVault_EmptyStringPassesThrough(t *testing.T) {
	v, err := New(testConfig(t))
	require.NoError(t, err)

	ciphertext, err := v.EncryptString("")
	require.NoError(t, err)
	assert.Equal(t, "", ciphertext)

	plaintext, err := v.DecryptString("")
	require.NoError(t, err)
	assert.Equal(t, "", plaintext)
}

func TestVault_GeneratedKeyPersistsAcrossInstances(t *testing.T) {
	cfg := testConfig(t)

	v1, err := New(cfg)
	require.NoError(t, err)
	ciphertext, err := v1.EncryptString("persisted-secret")
	require.NoError(t, err)

	v2, err := New(cfg)
	require.NoError(t, err)
	plaintext, err := v2.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "persisted-secret", plaintext)
}

func TestVault_DecryptFailsOnTamperedCiphertext(t *testing.T) {
	v, err := New(testConfig(t))
	require.NoError(t, err)

	ciphertext, err := v.EncryptString("tamper-me")
	require.NoError(t, err)

	tokenBytes, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)
	sealed, err := base64.StdEncoding.DecodeString(string(tokenBytes))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString([]byte(base64.StdEncoding.EncodeToString(sealed)))

	_, err = v.DecryptString(tampered)
	require.Error(t, err)
	var decErr *DecryptionError
	assert.ErrorAs(t, err, &decErr)
}

func TestVault_DecryptFailsOnShortCiphertext(t *testing.T) {
	v, err := New(testConfig(t))
	require.NoError(t, err)

	short := base64.StdEncoding.EncodeToString([]byte(base64.StdEncoding.EncodeToString([]byte("short"))))
	_, err = v.DecryptString(short)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestVault_IsEncrypted(t *testing.T) {
	v, err := New(testConfig(t))
	require.NoError(t, err)

	ciphertext, err := v.EncryptString("s3cr3t-password")
	require.NoError(t, err)

	assert.True(t, v.IsEncrypted(ciphertext))
	assert.False(t, v.IsEncrypted("s3cr3t-password"))
	assert.False(t, v.IsEncrypted(""))
	assert.False(t, v.IsEncrypted("not-base64-at-all!!"))
}

func TestVault_IsEncrypted_RejectsWrongVersionMarker(t *testing.T) {
	v, err := New(testConfig(t))
	require.NoError(t, err)

	sealed := append([]byte{0xFF}, make([]byte, 16)...)
	token := base64.StdEncoding.EncodeToString(sealed)
	fake := base64.StdEncoding.EncodeToString([]byte(token))

	assert.False(t, v.IsEncrypted(fake))
}

func TestVault_RejectsWrongKeySize(t *testing.T) {
	cfg := &config.VaultConfig{
		KeyEnvVar: "MYMOMENT_VAULT_KEY_TEST_BAD",
	}
	t.Setenv(cfg.KeyEnvVar, base64.StdEncoding.EncodeToString([]byte("too-short")))

	_, err := New(cfg)
	require.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestVault_NoKeySourceWithoutGenerateFails(t *testing.T) {
	cfg := &config.VaultConfig{
		KeyEnvVar:     "MYMOMENT_VAULT_KEY_TEST_MISSING",
		AllowGenerate: false,
	}

	_, err := New(cfg)
	require.ErrorIs(t, err, ErrNoMasterKey)
}
