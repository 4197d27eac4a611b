package main

import (
	"context"
	"fmt"

	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/spf13/cobra"
)

var (
	wipeForce    bool
	wipeDatabase string
)

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete this pipeline's graph data",
	Long: `Detach-delete every node label the pipeline owns: Directory, File,
Class, Interface, Method, Parameter, Import, ExternalDependency and Doc.

Nodes written by collaborating ingesters (commits, developers, CVEs)
are left untouched. Requires --force.`,
	RunE: runWipe,
}

func init() {
	wipeCmd.Flags().BoolVar(&wipeForce, "force", false, "confirm the deletion")
	wipeCmd.Flags().StringVar(&wipeDatabase, "database", "", "target Neo4j database (default from config)")
}

func runWipe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !wipeForce {
		return fmt.Errorf("refusing to wipe without --force")
	}

	client, err := connectGraph(ctx, wipeDatabase)
	if err != nil {
		return fmt.Errorf("failed to connect to Neo4j: %w", err)
	}
	defer client.Close(ctx)

	fmt.Printf("🗑️  Wiping graph data on %s (database %s)...\n", cfg.Neo4j.URI, targetDatabase(wipeDatabase))

	writer := graph.NewWriter(client, graph.PresetBatchConfig(cfg.Neo4j.BatchPreset))
	deleted, err := writer.Wipe(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Deleted %d nodes\n", deleted)
	return nil
}
