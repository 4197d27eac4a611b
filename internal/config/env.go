package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvLoader applies the project's .env files and remembers which ones
// took effect. godotenv never overwrites a variable that is already set,
// so the real environment always wins and repeated loads are harmless.
type EnvLoader struct {
	files []string
}

func NewEnvLoader() *EnvLoader {
	return &EnvLoader{}
}

// Load applies .env.local and then .env, each resolved by walking from
// the working directory upward, followed by ~/.codegraph/.env as the
// shared fallback. Missing files are fine; a file that exists but does
// not parse is reported.
func (e *EnvLoader) Load() error {
	for _, name := range []string{".env.local", ".env"} {
		path, ok := findUp(name)
		if !ok {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		e.files = append(e.files, path)
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".codegraph", ".env")
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
			e.files = append(e.files, path)
		}
	}

	return nil
}

// Files returns the env files that were applied, in load order.
func (e *EnvLoader) Files() []string {
	return e.files
}

// findUp looks for name in the working directory and up to four parent
// directories, so commands run from a subdirectory of a checkout still
// pick up the project .env.
func findUp(name string) (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// Typed environment lookups backing the override pass in Load.

// GetString returns the variable's value, or fallback when unset.
func GetString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// GetInt returns the variable parsed as an int, or fallback when unset
// or unparseable.
func GetInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

// GetBool returns the variable parsed as a bool, or fallback when unset
// or unparseable.
func GetBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

// GetStringSlice returns the variable split on commas with blanks
// dropped, or fallback when unset.
func GetStringSlice(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
