package main

import (
	"fmt"
	"path/filepath"

	"github.com/codegraphhq/codegraph/internal/ingestion"
	"github.com/codegraphhq/codegraph/internal/manifest"
	"github.com/spf13/cobra"
)

var depsOutput string

var depsCmd = &cobra.Command{
	Use:   "deps <path>",
	Short: "Scan build manifests and save the dependency map",
	Long: `Scan a source tree for pom.xml, build.gradle, build.gradle.kts and
gradle.lockfile files and save the merged coordinate-to-version map.

Maven entries win over Gradle when both declare the same coordinate.
The output feeds 'cgraph load --deps'.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeps,
}

func init() {
	depsCmd.Flags().StringVarP(&depsOutput, "output", "o", "codegraph-deps.json", "dependency map output path")
}

func runDeps(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	fmt.Printf("📋 CodeGraph dependency scan\n")
	fmt.Printf("Source: %s\n\n", root)

	deps, err := manifest.NewScanner(root, cfg.Ingestion.ExcludeGlobs).Scan()
	if err != nil {
		return err
	}

	if err := ingestion.WriteDependencyArtifact(depsOutput, deps); err != nil {
		return err
	}

	fmt.Printf("✅ Found %d coordinates\n", deps.Len())
	for _, c := range deps.Coordinates() {
		fmt.Printf("  %s:%s = %s\n", c.Group, c.Artifact, c.Version)
	}
	fmt.Printf("\nSaved to %s\n", depsOutput)
	return nil
}
