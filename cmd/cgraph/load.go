package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/codegraphhq/codegraph/internal/config"
	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/codegraphhq/codegraph/internal/ingestion"
	"github.com/codegraphhq/codegraph/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	loadDeps       string
	loadEmbeddings string
	loadDatabase   string
)

var loadCmd = &cobra.Command{
	Use:   "load <artifact.json>",
	Short: "Write a saved extraction artifact to Neo4j",
	Long: `Load an artifact produced by 'cgraph extract' and write it to the graph.

A dependency map from 'cgraph deps' annotates ExternalDependency nodes
with versions; an embeddings file attaches vectors to files and methods.
Both are optional.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadDeps, "deps", "", "dependency map file from 'cgraph deps'")
	loadCmd.Flags().StringVar(&loadEmbeddings, "embeddings", "", "embedding vectors file (JSON)")
	loadCmd.Flags().StringVar(&loadDatabase, "database", "", "target Neo4j database (default from config)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	artifactPath := args[0]

	fmt.Printf("📦 CodeGraph load\n")
	fmt.Printf("Artifact: %s\n", artifactPath)
	fmt.Printf("Neo4j:    %s (database %s)\n\n", cfg.Neo4j.URI, targetDatabase(loadDatabase))

	printConfigWarnings(cfg.Validate(config.ValidationContextLoad))

	artifacts, err := ingestion.LoadArtifact(artifactPath)
	if err != nil {
		return err
	}
	files := ingestion.ToFileRecords(artifacts)

	deps := manifest.NewMap()
	if loadDeps != "" {
		deps, err = ingestion.LoadDependencyArtifact(loadDeps)
		if err != nil {
			return err
		}
	}

	embeddings, err := ingestion.LoadEmbeddings(loadEmbeddings)
	if err != nil {
		return err
	}
	if err := embeddings.Validate(files); err != nil {
		return err
	}

	client, err := connectGraph(ctx, loadDatabase)
	if err != nil {
		return fmt.Errorf("failed to connect to Neo4j: %w", err)
	}
	defer client.Close(ctx)

	writer := graph.NewWriter(client, graph.PresetBatchConfig(cfg.Neo4j.BatchPreset))

	input := graph.WriteInput{Files: files, Dependencies: deps}
	if embeddings != nil {
		input.FileEmbeddings = embeddings.Files
		input.MethodEmbeddings = embeddings.Methods
		input.EmbeddingModel = embeddings.Model
	}

	fmt.Printf("⏳ Writing %d files...\n\n", len(files))
	stats, err := writer.Write(ctx, input)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Load complete!\n\n")
	printWriteStats(stats)
	return nil
}

// printWriteStats prints per-label node and relationship counts.
func printWriteStats(stats *graph.WriteStats) {
	fmt.Printf("📊 Nodes (%d):\n", stats.TotalNodes())
	for _, label := range sortedKeys(stats.Nodes) {
		fmt.Printf("  %-20s %d\n", label, stats.Nodes[label])
	}
	fmt.Printf("\n📊 Relationships (%d):\n", stats.TotalRelationships())
	for _, rel := range sortedKeys(stats.Relationships) {
		fmt.Printf("  %-20s %d\n", rel, stats.Relationships[rel])
	}
	fmt.Printf("\n  Batches:  %d\n", stats.Batches)
	fmt.Printf("  Duration: %v\n", stats.Duration.Round(time.Millisecond))
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
