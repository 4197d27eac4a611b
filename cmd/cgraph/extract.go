package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/codegraphhq/codegraph/internal/config"
	"github.com/codegraphhq/codegraph/internal/ingestion"
	"github.com/spf13/cobra"
)

var (
	extractOutput   string
	extractWorkers  int
	extractPrefixes []string
	extractExcludes []string
)

var extractCmd = &cobra.Command{
	Use:   "extract <path>",
	Short: "Extract declarations to a JSON artifact without touching Neo4j",
	Long: `Parse a source tree and save the extraction artifact as JSON.

The artifact carries every per-file record the graph writer consumes:
classes, interfaces, methods, parameters, imports, call sites and doc
comments, plus line aggregates. Load it later with 'cgraph load'.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "codegraph-extract.json", "artifact output path")
	extractCmd.Flags().IntVarP(&extractWorkers, "workers", "w", 0, "concurrent parsers (default from config)")
	extractCmd.Flags().StringArrayVar(&extractPrefixes, "internal-prefix", nil, "package prefix classified as internal (repeatable)")
	extractCmd.Flags().StringArrayVar(&extractExcludes, "exclude", nil, "glob excluded from the walk, relative to the root (repeatable)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	fmt.Printf("🔍 CodeGraph extraction\n")
	fmt.Printf("Source:  %s\n", root)
	fmt.Printf("Output:  %s\n\n", extractOutput)

	printConfigWarnings(cfg.Validate(config.ValidationContextExtract))

	processor := newProcessor(extractWorkers, extractOptions(extractPrefixes), extractExcludes)
	result, err := processor.Process(ctx, root)
	if err != nil {
		return err
	}

	if err := ingestion.WriteArtifact(extractOutput, result); err != nil {
		return err
	}

	fmt.Printf("✅ Extraction complete!\n\n")
	fmt.Printf("  Files:    %d parsed, %d failed\n", result.FilesParsed(), result.FilesFailed())
	fmt.Printf("  Dirs:     %d\n", len(result.Directories))
	fmt.Printf("  Methods:  %d\n", result.MethodCount())
	fmt.Printf("  Duration: %v\n\n", result.Duration.Round(time.Millisecond))

	if len(result.Errors) > 0 {
		fmt.Printf("⚠️  Failures (%d):\n", len(result.Errors))
		for i, e := range result.Errors {
			if i >= 10 {
				fmt.Printf("  ... and %d more\n", len(result.Errors)-10)
				break
			}
			fmt.Printf("  - %s: %s\n", e.Path, e.Message)
		}
		fmt.Printf("\n")
	}

	fmt.Printf("💡 Next: cgraph load %s\n", extractOutput)
	return nil
}
