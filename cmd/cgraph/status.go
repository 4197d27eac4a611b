package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codegraphhq/codegraph/internal/config"
	"github.com/codegraphhq/codegraph/internal/storage"
	"github.com/spf13/cobra"
)

var statusRuns int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, connectivity and recent runs",
	Long:  `Display the effective configuration, Neo4j reachability and the most recent ingestion runs from the local ledger.`,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusRuns, "runs", 5, "number of recent runs to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Printf("🔍 CodeGraph Status\n")
	fmt.Printf("%s\n", strings.Repeat("═", 50))

	// Configuration info
	mode := config.DetectMode()
	fmt.Printf("\n📋 Configuration:\n")
	fmt.Printf("  Mode: %s (%s)\n", mode, mode.Description())
	fmt.Printf("  Neo4j URI: %s\n", cfg.Neo4j.URI)
	fmt.Printf("  Database: %s\n", targetDatabase(""))
	fmt.Printf("  Batch preset: %s\n", cfg.Neo4j.BatchPreset)
	fmt.Printf("  Run ledger: %s\n", cfg.Storage.LocalPath)
	if cfg.Cache.Enabled {
		fmt.Printf("  Extraction cache: %s\n", cfg.Cache.Directory)
	} else {
		fmt.Printf("  Extraction cache: disabled\n")
	}

	// Env files (loading again is harmless, godotenv never overwrites)
	env := config.NewEnvLoader()
	if err := env.Load(); err != nil {
		fmt.Printf("  Env files: ⚠️ %v\n", err)
	} else if files := env.Files(); len(files) > 0 {
		fmt.Printf("  Env files: %s\n", strings.Join(files, ", "))
	}

	// Validation findings across all contexts
	result := cfg.Validate(config.ValidationContextAll)
	for _, e := range result.Errors {
		fmt.Printf("  ❌ %s\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  ⚠️ %s\n", w)
	}

	// Credential source
	km := config.NewKeyringManager()
	source := km.GetPasswordSource(cfg)
	fmt.Printf("\n🔒 Credentials:\n")
	fmt.Printf("  Source: %s\n", source.Source)
	fmt.Printf("  %s\n", source.Recommended)

	// Connectivity
	fmt.Printf("\n🏥 Neo4j:\n")
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := connectGraph(connectCtx, "")
	cancel()
	if err != nil {
		fmt.Printf("  Status: ❌ Unreachable (%v)\n", err)
	} else {
		if err := client.HealthCheck(ctx); err != nil {
			fmt.Printf("  Status: ❌ Health check failed (%v)\n", err)
		} else {
			fmt.Printf("  Status: ✅ Connected\n")
			missing, err := client.VerifyConstraints(ctx)
			switch {
			case err != nil:
				fmt.Printf("  Schema: ❌ Cannot verify (%v)\n", err)
			case len(missing) > 0:
				fmt.Printf("  Schema: ⚠️ %d constraints missing (run 'cgraph schema --create')\n", len(missing))
			default:
				fmt.Printf("  Schema: ✅ Constraints in place\n")
			}
		}
		client.Close(ctx)
	}

	// Recent runs
	fmt.Printf("\n📈 Recent Runs:\n")
	ledger, err := storage.NewRunStore(cfg.Storage.LocalPath, logger)
	if err != nil {
		fmt.Printf("  Status: ❌ Ledger unavailable (%v)\n", err)
		return nil
	}
	defer ledger.Close()

	runs, err := ledger.RecentRuns(ctx, statusRuns)
	if err != nil {
		fmt.Printf("  Status: ❌ Cannot read ledger (%v)\n", err)
		return nil
	}
	if len(runs) == 0 {
		fmt.Printf("  No runs recorded yet. Run 'cgraph ingest <path>' first.\n")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("  %s  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Root)
		fmt.Printf("    files: %d parsed, %d failed | graph: %d nodes, %d rels | %v\n",
			run.FilesParsed, run.FilesFailed, run.Nodes, run.Relationships,
			run.Duration().Round(time.Millisecond))
	}

	return nil
}
