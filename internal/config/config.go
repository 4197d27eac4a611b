package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// Neo4j connection settings
	Neo4j Neo4jConfig `yaml:"neo4j"`

	// Source ingestion settings
	Ingestion IngestionConfig `yaml:"ingestion"`

	// Extraction settings
	Extraction ExtractionConfig `yaml:"extraction"`

	// Local run ledger settings
	Storage StorageConfig `yaml:"storage"`

	// Extraction cache settings
	Cache CacheConfig `yaml:"cache"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`

	// BatchPreset selects the write batch sizing: "default", "small", "large"
	BatchPreset string `yaml:"batch_preset"`
}

type IngestionConfig struct {
	Workers      int           `yaml:"workers"`
	Timeout      time.Duration `yaml:"timeout"`
	ExcludeGlobs []string      `yaml:"exclude_globs"`
}

type ExtractionConfig struct {
	// InternalPrefixes lists package prefixes classified as internal imports,
	// e.g. the project's own group id
	InternalPrefixes []string `yaml:"internal_prefixes"`

	// IncludeDocs controls javadoc and comment extraction
	IncludeDocs bool `yaml:"include_docs"`
}

type StorageConfig struct {
	LocalPath string `yaml:"local_path"`
}

type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Neo4j: Neo4jConfig{
			URI:         "bolt://localhost:7687",
			Username:    "neo4j",
			Database:    "neo4j",
			BatchPreset: "default",
		},
		Ingestion: IngestionConfig{
			Workers: 8,
			Timeout: 30 * time.Second,
		},
		Extraction: ExtractionConfig{
			IncludeDocs: true,
		},
		Storage: StorageConfig{
			LocalPath: filepath.Join(homeDir, ".codegraph", "runs.db"),
		},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: filepath.Join(homeDir, ".codegraph", "cache"),
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Env files first so the override pass below sees their values
	if err := NewEnvLoader().Load(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	cfg := Default()
	v.SetDefault("neo4j", cfg.Neo4j)
	v.SetDefault("ingestion", cfg.Ingestion)
	v.SetDefault("extraction", cfg.Extraction)
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("cache", cfg.Cache)

	// Load from environment variables
	v.SetEnvPrefix("CODEGRAPH")
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath(".codegraph")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".codegraph"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// Neo4j configuration
	// Precedence: 1. Env var (highest) 2. Keychain 3. Config file (lowest)
	cfg.Neo4j.URI = GetString("NEO4J_URI", cfg.Neo4j.URI)
	cfg.Neo4j.Username = GetString("NEO4J_USERNAME", cfg.Neo4j.Username)
	if password := os.Getenv("NEO4J_PASSWORD"); password != "" {
		cfg.Neo4j.Password = password
	} else if cfg.Neo4j.Password == "" {
		km := NewKeyringManager()
		if km.IsAvailable() {
			if stored, err := km.GetNeo4jPassword(); err == nil && stored != "" {
				cfg.Neo4j.Password = stored
			}
		}
	}
	cfg.Neo4j.Database = GetString("NEO4J_DATABASE", cfg.Neo4j.Database)
	cfg.Neo4j.BatchPreset = GetString("CODEGRAPH_BATCH_PRESET", cfg.Neo4j.BatchPreset)

	// Ingestion configuration
	if n := GetInt("CODEGRAPH_WORKERS", 0); n > 0 {
		cfg.Ingestion.Workers = n
	}
	if secs := GetInt("CODEGRAPH_PARSE_TIMEOUT_SECONDS", 0); secs > 0 {
		cfg.Ingestion.Timeout = time.Duration(secs) * time.Second
	}

	// Extraction configuration
	cfg.Extraction.InternalPrefixes = GetStringSlice("CODEGRAPH_INTERNAL_PREFIXES", cfg.Extraction.InternalPrefixes)
	cfg.Extraction.IncludeDocs = GetBool("CODEGRAPH_INCLUDE_DOCS", cfg.Extraction.IncludeDocs)

	// Storage configuration
	if path := GetString("CODEGRAPH_DB_PATH", ""); path != "" {
		cfg.Storage.LocalPath = expandPath(path)
	}

	// Cache configuration
	if dir := GetString("CODEGRAPH_CACHE_DIR", ""); dir != "" {
		cfg.Cache.Directory = expandPath(dir)
	}
	cfg.Cache.Enabled = GetBool("CODEGRAPH_CACHE_ENABLED", cfg.Cache.Enabled)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("neo4j", c.Neo4j)
	v.Set("ingestion", c.Ingestion)
	v.Set("extraction", c.Extraction)
	v.Set("storage", c.Storage)
	v.Set("cache", c.Cache)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
