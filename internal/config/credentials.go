package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/codegraphhq/codegraph/internal/errors"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// CredentialManager handles credential retrieval with priority chain
// Priority: Environment Variables → Keychain → Config File → Interactive Prompt
type CredentialManager struct {
	mode       DeploymentMode
	keyring    *KeyringManager
	configPath string
}

// Credentials holds the Neo4j connection credentials
type Credentials struct {
	Neo4jURI      string `yaml:"neo4j_uri"`
	Neo4jUsername string `yaml:"neo4j_username"`
	Neo4jPassword string `yaml:"neo4j_password"`
}

// NewCredentialManager creates a new credential manager
func NewCredentialManager() *CredentialManager {
	mode := DetectMode()
	homeDir, _ := os.UserHomeDir()
	configPath := filepath.Join(homeDir, ".config", "codegraph", "config.yaml")

	return &CredentialManager{
		mode:       mode,
		keyring:    NewKeyringManager(),
		configPath: configPath,
	}
}

// GetNeo4jPassword retrieves the Neo4j password using priority chain
func (cm *CredentialManager) GetNeo4jPassword() (string, error) {
	// 1. Environment variable (highest priority)
	if password := os.Getenv("NEO4J_PASSWORD"); password != "" {
		return password, nil
	}

	// 2. Keychain (macOS/Linux)
	if cm.keyring.IsAvailable() {
		if password, err := cm.keyring.GetNeo4jPassword(); err == nil && password != "" {
			return password, nil
		}
	}

	// 3. Config file (~/.config/codegraph/config.yaml)
	if creds, err := cm.loadConfigFile(); err == nil && creds.Neo4jPassword != "" {
		return creds.Neo4jPassword, nil
	}

	// 4. Interactive prompt (only in packaged mode, not in CI)
	if cm.mode.AllowsInteractivePrompts() && isInteractive() {
		fmt.Println("\nNeo4j password not found.")
		fmt.Println()
		return cm.promptForPassword()
	}

	// Not found anywhere
	return "", errors.ConfigErrorf(
		"NEO4J_PASSWORD not found. Set it via:\n"+
			"  1. Environment variable: export NEO4J_PASSWORD=...\n"+
			"  2. Run: cgraph configure (to set up keychain)\n"+
			"  3. Config file: %s", cm.configPath)
}

// GetNeo4jURI retrieves the Neo4j URI, falling back to the local default
func (cm *CredentialManager) GetNeo4jURI() string {
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		return uri
	}
	if creds, err := cm.loadConfigFile(); err == nil && creds.Neo4jURI != "" {
		return creds.Neo4jURI
	}
	return "bolt://localhost:7687"
}

// GetNeo4jUsername retrieves the Neo4j username, falling back to "neo4j"
func (cm *CredentialManager) GetNeo4jUsername() string {
	if user := os.Getenv("NEO4J_USERNAME"); user != "" {
		return user
	}
	if creds, err := cm.loadConfigFile(); err == nil && creds.Neo4jUsername != "" {
		return creds.Neo4jUsername
	}
	return "neo4j"
}

// SaveCredentials saves credentials to keychain (preferred) or config file (fallback)
func (cm *CredentialManager) SaveCredentials(creds Credentials) error {
	// Password goes to keychain when available, everything else to the config file
	if cm.keyring.IsAvailable() && creds.Neo4jPassword != "" {
		if err := cm.keyring.SaveNeo4jPassword(creds.Neo4jPassword); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				"failed to save Neo4j password to keychain")
		}
		creds.Neo4jPassword = ""
	}

	if creds.Neo4jURI != "" || creds.Neo4jUsername != "" || creds.Neo4jPassword != "" {
		return cm.saveConfigFile(creds)
	}
	return nil
}

// loadConfigFile loads credentials from config file
func (cm *CredentialManager) loadConfigFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	return &creds, nil
}

// saveConfigFile saves credentials to config file
func (cm *CredentialManager) saveConfigFile(creds Credentials) error {
	// Ensure directory exists
	dir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	// Marshal to YAML
	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	// Write file with restrictive permissions (user-only read/write)
	if err := os.WriteFile(cm.configPath, data, 0600); err != nil {
		return err
	}

	return nil
}

// promptForPassword prompts user for the Neo4j password
func (cm *CredentialManager) promptForPassword() (string, error) {
	fmt.Print("Enter Neo4j password: ")
	password, err := cm.readSecurely()
	if err != nil {
		return "", err
	}

	if password == "" {
		return "", errors.ConfigError("Neo4j password is required")
	}

	// Save to keychain if available
	if cm.keyring.IsAvailable() {
		if err := cm.keyring.SaveNeo4jPassword(password); err == nil {
			fmt.Println("Saved to keychain")
		}
	} else {
		// Save to config file as fallback
		creds := Credentials{Neo4jPassword: password}
		if err := cm.saveConfigFile(creds); err == nil {
			fmt.Printf("Saved to %s\n", cm.configPath)
		}
	}

	return password, nil
}

// readSecurely reads a password from stdin without echoing
func (cm *CredentialManager) readSecurely() (string, error) {
	// Try to read from terminal (supports password masking)
	if term.IsTerminal(int(syscall.Stdin)) {
		bytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after password input
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	// Fallback: Read from stdin (piped input)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// isInteractive returns true if stdin is a terminal (not piped)
func isInteractive() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// GetConfigPath returns the path to the config file
func (cm *CredentialManager) GetConfigPath() string {
	return cm.configPath
}

// HasCredentials checks if a Neo4j password is configured
func (cm *CredentialManager) HasCredentials() bool {
	// Check environment
	if os.Getenv("NEO4J_PASSWORD") != "" {
		return true
	}

	// Check keychain
	if cm.keyring.IsAvailable() {
		if password, err := cm.keyring.GetNeo4jPassword(); err == nil && password != "" {
			return true
		}
	}

	// Check config file
	if creds, err := cm.loadConfigFile(); err == nil && creds.Neo4jPassword != "" {
		return true
	}

	return false
}
