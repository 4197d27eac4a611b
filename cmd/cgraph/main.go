package main

import (
	"fmt"
	"os"

	"github.com/codegraphhq/codegraph/internal/config"
	"github.com/codegraphhq/codegraph/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cgraph",
	Short: "CodeGraph - Java source trees as a Neo4j property graph",
	Long: `CodeGraph parses a Java source tree with tree-sitter, resolves Maven and
Gradle dependency coordinates, and writes the result as a normalized
property graph: files, classes, methods, parameters, imports, call edges
and external dependencies.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize logger
		logger = logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		// The internal packages log through slog.Default()
		logCfg := logging.DefaultConfig(verbose)
		if path := os.Getenv("CODEGRAPH_LOG_FILE"); path != "" {
			logCfg.OutputFile = path
			logCfg.JSONFormat = true
		}
		if _, err := logging.Install(logCfg); err != nil {
			logger.WithError(err).Warn("File logging unavailable")
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .codegraph/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Set custom version template
	rootCmd.SetVersionTemplate(`CodeGraph {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	// Add subcommands
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(wipeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configureCmd)
}
