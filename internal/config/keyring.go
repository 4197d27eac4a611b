package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "CodeGraph"

	// KeyringUser is the user identifier for credentials
	KeyringUser = "default"

	// KeyringNeo4jPasswordItem is the key for the Neo4j password
	KeyringNeo4jPasswordItem = "neo4j-password"
)

// KeyringManager handles secure credential storage in OS keychain
type KeyringManager struct {
	logger *slog.Logger
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: slog.Default().With("component", "keyring"),
	}
}

// SaveNeo4jPassword stores the Neo4j password securely in the OS keychain
// This uses OS-level encryption:
// - macOS: Keychain Access.app → "CodeGraph" → "neo4j-password"
// - Windows: Credential Manager → "CodeGraph"
// - Linux: Secret Service (requires libsecret)
func (km *KeyringManager) SaveNeo4jPassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	err := keyring.Set(KeyringService, KeyringNeo4jPasswordItem, password)
	if err != nil {
		km.logger.Error("failed to save password to keychain", "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}

	km.logger.Info("neo4j password saved to keychain", "service", KeyringService)
	return nil
}

// GetNeo4jPassword retrieves the Neo4j password from the OS keychain
func (km *KeyringManager) GetNeo4jPassword() (string, error) {
	password, err := keyring.Get(KeyringService, KeyringNeo4jPasswordItem)
	if err == keyring.ErrNotFound {
		// Not an error - just not set yet
		return "", nil
	}
	if err != nil {
		km.logger.Error("failed to get password from keychain", "error", err)
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}

	km.logger.Debug("neo4j password retrieved from keychain")
	return password, nil
}

// DeleteNeo4jPassword removes the Neo4j password from the OS keychain
func (km *KeyringManager) DeleteNeo4jPassword() error {
	err := keyring.Delete(KeyringService, KeyringNeo4jPasswordItem)
	if err == keyring.ErrNotFound {
		// Already deleted, not an error
		return nil
	}
	if err != nil {
		km.logger.Error("failed to delete password from keychain", "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}

	km.logger.Info("neo4j password deleted from keychain")
	return nil
}

// IsAvailable checks if OS keychain is available
// Returns false on headless systems (CI/CD) where keychain isn't available
func (km *KeyringManager) IsAvailable() bool {
	// Try to access keyring with a test operation
	_, err := keyring.Get(KeyringService, "test-availability")

	// If error is "not found", keychain is available
	// If error is something else, keychain may not be available
	if err == keyring.ErrNotFound {
		return true
	}
	if err != nil {
		km.logger.Debug("keychain not available", "error", err)
		return false
	}

	return true
}

// SecretSourceInfo returns information about where the Neo4j password is stored
type SecretSourceInfo struct {
	Source      string // "keychain", "config", "env", "env_file", "none"
	Secure      bool   // true if stored securely (keychain or env var in CI/CD)
	Recommended string // recommendation if not optimal
}

// GetPasswordSource determines where the Neo4j password is coming from
func (km *KeyringManager) GetPasswordSource(cfg *Config) SecretSourceInfo {
	// Check environment variable first (highest precedence)
	if os.Getenv("NEO4J_PASSWORD") != "" {
		return SecretSourceInfo{
			Source:      "env",
			Secure:      true, // Acceptable for CI/CD
			Recommended: "Using environment variable (good for CI/CD)",
		}
	}

	// Check keychain
	stored, _ := km.GetNeo4jPassword()
	if stored != "" {
		return SecretSourceInfo{
			Source:      "keychain",
			Secure:      true,
			Recommended: "Stored securely in OS keychain",
		}
	}

	// Check config file
	if cfg.Neo4j.Password != "" {
		return SecretSourceInfo{
			Source:      "config",
			Secure:      false,
			Recommended: "Plaintext storage detected. Run: cgraph configure",
		}
	}

	// Check .env file
	if _, err := os.Stat(".env"); err == nil {
		return SecretSourceInfo{
			Source:      "env_file",
			Secure:      false,
			Recommended: "Using .env file (OK for CI/CD, consider keychain for local dev)",
		}
	}

	return SecretSourceInfo{
		Source:      "none",
		Secure:      false,
		Recommended: "No password configured. Run: cgraph configure",
	}
}

// MaskSecret masks a secret for display
// Shows first 4 chars and last 2 chars: "neo4...xy"
func MaskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) < 8 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", secret[:4], secret[len(secret)-2:])
}
