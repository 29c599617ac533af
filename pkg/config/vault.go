package config

// VaultConfig controls how the credential vault (C1) sources its master key.
type VaultConfig struct {
	// KeyEnvVar is the environment variable holding the base64-encoded
	// 32-byte master key. Checked before KeyFile.
	KeyEnvVar string `yaml:"key_env_var,omitempty"`

	// KeyFile is a path to a file holding the base64-encoded master key.
	// If neither KeyEnvVar nor KeyFile yield a key and AllowGenerate is
	// true, a key is generated and persisted here with mode 0600.
	KeyFile string `yaml:"key_file,omitempty"`

	// AllowGenerate permits generating and persisting a new master key
	// when none is found. Should be false in production deployments.
	AllowGenerate bool `yaml:"allow_generate,omitempty"`
}

// DefaultVaultConfig returns the built-in vault defaults.
func DefaultVaultConfig() *VaultConfig {
	return &VaultConfig{
		KeyEnvVar:     "MYMOMENT_VAULT_KEY",
		KeyFile:       "./data/vault.key",
		AllowGenerate: true,
	}
}
