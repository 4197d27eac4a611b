package config

import (
	"os"
	"strings"
)

// DeploymentMode captures how cgraph is being run, which decides where
// credentials may come from and how strictly settings are checked.
type DeploymentMode string

const (
	// ModeDevelopment: running from a source checkout against a local
	// Neo4j container. .env defaults are acceptable.
	ModeDevelopment DeploymentMode = "development"

	// ModePackaged: installed binary, user-managed Neo4j. Credentials
	// come from env vars, the keychain, the config file or a prompt.
	ModePackaged DeploymentMode = "packaged"

	// ModeCI: pipeline execution. Env vars only, no prompts.
	ModeCI DeploymentMode = "ci"
)

// DetectMode infers the deployment mode. CGRAPH_MODE overrides detection;
// otherwise CI markers win, then source-checkout markers, and anything
// else counts as a packaged install.
func DetectMode() DeploymentMode {
	switch strings.ToLower(os.Getenv("CGRAPH_MODE")) {
	case "development", "dev":
		return ModeDevelopment
	case "packaged", "pkg", "production", "prod":
		return ModePackaged
	case "ci", "cicd":
		return ModeCI
	}

	if runningInCI() {
		return ModeCI
	}

	for _, marker := range []string{".env", "go.mod", ".git"} {
		if _, err := os.Stat(marker); err == nil {
			return ModeDevelopment
		}
	}

	return ModePackaged
}

func runningInCI() bool {
	for _, v := range []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"JENKINS_URL",
		"BUILDKITE",
	} {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// AllowsDevelopmentDefaults reports whether well-known local passwords
// are tolerated (warning instead of error).
func (m DeploymentMode) AllowsDevelopmentDefaults() bool {
	return m == ModeDevelopment
}

// RequiresSecureCredentials reports whether default or localhost
// settings should fail validation.
func (m DeploymentMode) RequiresSecureCredentials() bool {
	return m == ModePackaged || m == ModeCI
}

// AllowsInteractivePrompts reports whether a missing password may be
// asked for on the terminal. CI never prompts; development checkouts
// are expected to carry a .env instead.
func (m DeploymentMode) AllowsInteractivePrompts() bool {
	return m == ModePackaged
}

// Description names the mode for validation messages.
func (m DeploymentMode) Description() string {
	switch m {
	case ModeDevelopment:
		return "source checkout with local Neo4j"
	case ModePackaged:
		return "installed binary"
	case ModeCI:
		return "CI pipeline"
	default:
		return "unknown"
	}
}

// ConfigSource names where credentials are expected to come from in
// this mode, for validation messages.
func (m DeploymentMode) ConfigSource() string {
	switch m {
	case ModeDevelopment:
		return ".env file"
	case ModePackaged:
		return "environment, keychain or cgraph configure"
	case ModeCI:
		return "environment variables"
	default:
		return "unknown"
	}
}
