// Package logging installs the process-wide slog handler the internal
// packages log through via slog.Default().
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Config holds logger configuration.
type Config struct {
	Level      slog.Level
	OutputFile string // path to log file (empty = stdout only)
	MaxSize    int64  // max size in bytes before rotation (default: 10MB)
	MaxBackups int    // number of old log files to keep (default: 3)
	JSONFormat bool
	AddSource  bool // add source file and line number
}

// DefaultConfig returns the CLI configuration: human-readable output on
// stdout, debug level and source locations when verbose.
func DefaultConfig(verbose bool) Config {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return Config{
		Level:     level,
		AddSource: verbose,
	}
}

// Logger owns the handler's output file, if any.
type Logger struct {
	slog   *slog.Logger
	config Config
	file   *os.File
}

// NewLogger builds a logger from config, rotating an oversized log file
// before opening it.
func NewLogger(config Config) (*Logger, error) {
	if config.MaxSize == 0 {
		config.MaxSize = 10 * 1024 * 1024
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = 3
	}

	logger := &Logger{config: config}

	writers := []io.Writer{os.Stdout}
	if config.OutputFile != "" {
		dir := filepath.Dir(config.OutputFile)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
		if err := rotateIfNeeded(config); err != nil {
			return nil, fmt.Errorf("failed to rotate logs: %w", err)
		}
		file, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.OutputFile, err)
		}
		logger.file = file
		writers = append(writers, file)
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.JSONFormat {
		handler = slog.NewJSONHandler(io.MultiWriter(writers...), opts)
	} else {
		handler = slog.NewTextHandler(io.MultiWriter(writers...), opts)
	}

	logger.slog = slog.New(handler)
	return logger, nil
}

// Install builds a logger and makes it the slog default. The returned
// logger holds the output file open for the life of the process.
func Install(config Config) (*Logger, error) {
	logger, err := NewLogger(config)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger.slog)
	return logger, nil
}

// Slog returns the wrapped slog logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// rotateIfNeeded shifts an oversized log file into the numbered backup
// chain before a new one is opened.
func rotateIfNeeded(config Config) error {
	info, err := os.Stat(config.OutputFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() < config.MaxSize {
		return nil
	}

	for i := config.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", config.OutputFile, i)
		newPath := fmt.Sprintf("%s.%d", config.OutputFile, i+1)
		if _, err := os.Stat(oldPath); err == nil {
			os.Rename(oldPath, newPath)
		}
	}

	backupPath := fmt.Sprintf("%s.1", config.OutputFile)
	if err := os.Rename(config.OutputFile, backupPath); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return nil
}
