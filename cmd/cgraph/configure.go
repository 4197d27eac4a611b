package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/codegraphhq/codegraph/internal/config"
	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactive setup wizard (with OS keychain support)",
	Long: `Walk through CodeGraph configuration step-by-step with secure
credential storage.

This will configure:
1. Neo4j connection (URI, username)
2. Neo4j password (stored in the OS keychain by default)
3. A default config file (~/.codegraph/config.yaml)`,
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	fmt.Println("🔧 CodeGraph Configuration Wizard")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	cm := config.NewCredentialManager()

	keychainAvailable := config.NewKeyringManager().IsAvailable()
	if !keychainAvailable {
		fmt.Println("⚠️  OS keychain not available (headless system or Linux without libsecret)")
		fmt.Printf("   Credentials will be stored in %s instead.\n", cm.GetConfigPath())
		fmt.Println()
	}

	// Step 1: Connection
	fmt.Println("Step 1/3: Neo4j Connection")
	fmt.Println()

	uri := promptWithDefault(reader, "Neo4j URI", cm.GetNeo4jURI())
	username := promptWithDefault(reader, "Username", cm.GetNeo4jUsername())
	fmt.Println()

	// Step 2: Password
	fmt.Println("Step 2/3: Neo4j Password")
	fmt.Println()

	fmt.Print("Enter Neo4j password (input hidden): ")
	password, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		fmt.Println("⏭️  No password entered, keeping existing credentials")
		if !cm.HasCredentials() {
			fmt.Println("⚠️  No stored password found. Commands that reach Neo4j will prompt or fail.")
		}
	}

	creds := config.Credentials{
		Neo4jURI:      uri,
		Neo4jUsername: username,
		Neo4jPassword: password,
	}
	if err := cm.SaveCredentials(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	if password != "" && keychainAvailable {
		fmt.Println("✅ Password saved to OS keychain")
		fmt.Printf("   📍 %s\n", keychainLocation())
	} else {
		fmt.Printf("✅ Credentials saved to %s\n", cm.GetConfigPath())
	}
	fmt.Println()

	// Step 3: Config file
	fmt.Println("Step 3/3: Config File")
	fmt.Println()

	homeDir, _ := os.UserHomeDir()
	configPath := filepath.Join(homeDir, ".codegraph", "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("✅ Keeping existing %s\n", configPath)
	} else {
		fmt.Printf("Write default config to %s? (Y/n): ", configPath)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(response)
		if response == "" || strings.ToLower(response) == "y" {
			defaults := config.Default()
			defaults.Neo4j.URI = uri
			defaults.Neo4j.Username = username
			if err := defaults.Save(configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Println("✅ Config written")
		} else {
			fmt.Println("⏭️  Skipped")
		}
	}
	fmt.Println()

	// Optional connectivity check
	if password != "" {
		fmt.Print("Test connection now? (Y/n): ")
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(response)
		if response == "" || strings.ToLower(response) == "y" {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			client, err := graph.NewClientWithDatabase(ctx, uri, username, password, targetDatabase(""))
			if err != nil {
				fmt.Printf("❌ Connection failed: %v\n", err)
			} else {
				client.Close(ctx)
				fmt.Println("✅ Connected to Neo4j")
			}
		}
	}

	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("🎯 Next Steps:")
	fmt.Println()
	fmt.Println("1. Create the schema:")
	fmt.Println("   cgraph schema --create")
	fmt.Println()
	fmt.Println("2. Ingest a source tree:")
	fmt.Println("   cgraph ingest /path/to/java/project")
	fmt.Println()

	return nil
}

// promptWithDefault reads a line, falling back to the default on empty input.
func promptWithDefault(reader *bufio.Reader, label, def string) string {
	fmt.Printf("%s [%s]: ", label, def)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(response)
	if response == "" {
		return def
	}
	return response
}

// readPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read for piped input.
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		bytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// keychainLocation names where the OS stores the saved secret.
func keychainLocation() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain Access.app → 'CodeGraph'"
	case "windows":
		return "Windows Credential Manager → 'CodeGraph'"
	case "linux":
		return "Linux Secret Service (libsecret)"
	default:
		return "OS Keychain"
	}
}
