package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/codegraphhq/codegraph/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextIngest - cgraph ingest requires Neo4j and ingestion settings
	ValidationContextIngest ValidationContext = "ingest"
	// ValidationContextExtract - cgraph extract runs offline, no Neo4j needed
	ValidationContextExtract ValidationContext = "extract"
	// ValidationContextLoad - cgraph load requires Neo4j
	ValidationContextLoad ValidationContext = "load"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}

	return sb.String()
}

// Validate validates configuration for the given context with auto-detected mode
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	mode := DetectMode()
	return c.ValidateWithMode(ctx, mode)
}

// ValidateWithMode validates configuration for the given context and deployment mode
func (c *Config) ValidateWithMode(ctx ValidationContext, mode DeploymentMode) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextIngest:
		c.validateNeo4j(result, true, mode)
		c.validateIngestion(result)
		c.validateCache(result)
	case ValidationContextExtract:
		c.validateIngestion(result)
		c.validateCache(result)
	case ValidationContextLoad:
		c.validateNeo4j(result, true, mode)
	case ValidationContextAll:
		c.validateNeo4j(result, true, mode)
		c.validateIngestion(result)
		c.validateCache(result)
	}

	return result
}

func (c *Config) validateNeo4j(result *ValidationResult, required bool, mode DeploymentMode) {
	if c.Neo4j.URI == "" {
		if required {
			result.AddError("NEO4J_URI is required but not set")
		} else {
			result.AddWarning("NEO4J_URI is not set")
		}
	} else {
		// Validate URI format
		if _, err := url.Parse(c.Neo4j.URI); err != nil {
			result.AddError("NEO4J_URI is invalid: %v", err)
		}

		// Check for localhost URI - only matters in packaged/CI mode
		if strings.Contains(c.Neo4j.URI, "localhost") {
			if mode.RequiresSecureCredentials() {
				result.AddError("Neo4j URI uses localhost. In %s mode (%s), you must provide a remote database URI.", mode, mode.Description())
			}
			// In development mode, localhost is expected and acceptable
		}
	}

	if c.Neo4j.Username == "" {
		if required {
			result.AddError("NEO4J_USERNAME is required but not set")
		} else {
			result.AddWarning("NEO4J_USERNAME is not set")
		}
	}

	if c.Neo4j.Password == "" {
		if required {
			result.AddError("NEO4J_PASSWORD is required but not set. Set it via environment variable or .env file.")
		} else {
			result.AddWarning("NEO4J_PASSWORD is not set")
		}
	} else {
		// Check for insecure default passwords - MODE-AWARE
		insecurePasswords := []string{
			"password",
			"neo4j",
			"changeme",
		}

		// In packaged/CI mode, reject any insecure defaults
		if mode.RequiresSecureCredentials() {
			for _, insecure := range insecurePasswords {
				if c.Neo4j.Password == insecure {
					result.AddError("NEO4J_PASSWORD is set to an insecure default (%s). This is not allowed in %s mode. Set a secure password via %s.", insecure, mode, mode.ConfigSource())
				}
			}
		} else if mode.AllowsDevelopmentDefaults() {
			// In development mode, .env defaults are acceptable for local Docker
			veryInsecure := []string{"password", "neo4j"}
			for _, insecure := range veryInsecure {
				if c.Neo4j.Password == insecure {
					result.AddWarning("NEO4J_PASSWORD is set to a very common password (%s). Consider changing it even for local development.", insecure)
				}
			}
		}
	}

	if c.Neo4j.Database == "" {
		result.AddWarning("NEO4J_DATABASE is not set, will use 'neo4j' as default")
	}

	switch c.Neo4j.BatchPreset {
	case "", "default", "small", "large":
	default:
		result.AddWarning("Unknown batch preset %q, will use 'default'", c.Neo4j.BatchPreset)
	}
}

func (c *Config) validateIngestion(result *ValidationResult) {
	if c.Ingestion.Workers <= 0 {
		result.AddWarning("CODEGRAPH_WORKERS is invalid or not set, will use default (8)")
	}
	if c.Ingestion.Timeout <= 0 {
		result.AddWarning("Parse timeout is invalid or not set, will use default (30s)")
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if c.Cache.Enabled && c.Cache.Directory == "" {
		result.AddWarning("CODEGRAPH_CACHE_DIR is not set, will use default")
	}
}

// RequireNeo4j checks if Neo4j configuration is valid and returns error if not
func (c *Config) RequireNeo4j() error {
	result := &ValidationResult{Valid: true}
	mode := DetectMode()
	c.validateNeo4j(result, true, mode)

	if result.HasErrors() {
		return errors.ConfigError(result.Error())
	}

	return nil
}
