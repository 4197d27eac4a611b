package main

import (
	"context"
	"fmt"

	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/spf13/cobra"
)

var (
	schemaCreate   bool
	schemaDatabase string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Verify or create the managed schema constraints",
	Long: `Check the uniqueness constraints the graph writer depends on.

Without flags the command only reports which managed constraints exist.
With --create it creates every missing constraint and the supporting
indexes, the same setup 'cgraph ingest' performs before writing.`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaCreate, "create", false, "create missing constraints and indexes")
	schemaCmd.Flags().StringVar(&schemaDatabase, "database", "", "target Neo4j database (default from config)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := connectGraph(ctx, schemaDatabase)
	if err != nil {
		return fmt.Errorf("failed to connect to Neo4j: %w", err)
	}
	defer client.Close(ctx)

	if schemaCreate {
		fmt.Printf("🔧 Creating managed schema...\n\n")
		if err := client.EnsureConstraints(ctx); err != nil {
			return err
		}
	}

	missing, err := client.VerifyConstraints(ctx)
	if err != nil {
		return err
	}

	missingSet := make(map[string]bool, len(missing))
	for _, name := range missing {
		missingSet[name] = true
	}

	fmt.Printf("📋 Managed constraints:\n")
	for _, c := range graph.ManagedConstraints() {
		mark := "✅"
		if missingSet[c.Name] {
			mark = "❌"
		}
		fmt.Printf("  %s %-28s (%s)\n", mark, c.Name, c.Label)
	}
	fmt.Printf("\n")

	if len(missing) > 0 {
		fmt.Printf("⚠️  %d constraints missing. Run: cgraph schema --create\n", len(missing))
		return nil
	}
	fmt.Printf("✅ Schema ready\n")
	return nil
}
