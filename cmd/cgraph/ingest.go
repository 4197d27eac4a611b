package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/codegraphhq/codegraph/internal/config"
	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/codegraphhq/codegraph/internal/ingestion"
	"github.com/codegraphhq/codegraph/internal/storage"
	"github.com/codegraphhq/codegraph/internal/treesitter"
	"github.com/spf13/cobra"
)

var (
	ingestWorkers    int
	ingestBatchSize  int
	ingestEmbeddings string
	ingestPrefixes   []string
	ingestExcludes   []string
	ingestNoCache    bool
	ingestDatabase   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Parse a Java source tree and write it to Neo4j",
	Long: `Run the full pipeline against a local source tree.

This command:
1. Walks the tree and extracts declarations with tree-sitter (worker pool)
2. Scans pom.xml / build.gradle manifests for dependency coordinates
3. Verifies the managed schema constraints (creating them if missing)
4. Writes nodes and relationships in ordered MERGE batches
5. Records the run in the local ledger (see 'cgraph status')

Examples:
  cgraph ingest ~/src/payment-service
  cgraph ingest ~/src/payment-service --workers 16 --exclude '**/generated/**'
  cgraph ingest ~/src/payment-service --internal-prefix com.acme
  cgraph ingest ~/src/payment-service --embeddings vectors.json`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "concurrent parsers (default from config)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "override the standard write batch size")
	ingestCmd.Flags().StringVar(&ingestEmbeddings, "embeddings", "", "embedding vectors file (JSON)")
	ingestCmd.Flags().StringArrayVar(&ingestPrefixes, "internal-prefix", nil, "package prefix classified as internal (repeatable)")
	ingestCmd.Flags().StringArrayVar(&ingestExcludes, "exclude", nil, "glob excluded from the walk, relative to the root (repeatable)")
	ingestCmd.Flags().BoolVar(&ingestNoCache, "no-cache", false, "re-parse every file, ignoring the extraction cache")
	ingestCmd.Flags().StringVar(&ingestDatabase, "database", "", "target Neo4j database (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	ctx := context.Background()

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	fmt.Printf("🚀 CodeGraph ingestion\n")
	fmt.Printf("Source:  %s\n", root)
	fmt.Printf("Neo4j:   %s (database %s)\n", cfg.Neo4j.URI, targetDatabase(ingestDatabase))
	fmt.Printf("Workers: %d\n\n", workerCount(ingestWorkers))

	printConfigWarnings(cfg.Validate(config.ValidationContextIngest))

	embeddings, err := ingestion.LoadEmbeddings(ingestEmbeddings)
	if err != nil {
		return err
	}

	client, err := connectGraph(ctx, ingestDatabase)
	if err != nil {
		return fmt.Errorf("failed to connect to Neo4j: %w", err)
	}
	defer client.Close(ctx)

	opts := extractOptions(ingestPrefixes)
	processor := newProcessor(ingestWorkers, opts, ingestExcludes)
	cache := openCache(opts)
	if cache != nil {
		defer cache.Close()
		processor.WithCache(cache)
	}

	ledger, err := storage.NewRunStore(cfg.Storage.LocalPath, logger)
	if err != nil {
		logger.WithError(err).Warn("Run ledger unavailable, continuing without it")
		ledger = nil
	} else {
		defer ledger.Close()
	}

	writer := graph.NewWriter(client, batchConfig())
	pipeline := ingestion.NewPipeline(processor, writer, ledger, logger)

	fmt.Printf("⏳ Processing...\n\n")
	result, err := pipeline.Ingest(ctx, root, embeddings)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Ingestion complete!\n\n")
	fmt.Printf("📊 Statistics:\n")
	fmt.Printf("  Files:         %d parsed, %d failed\n", result.FilesParsed, result.FilesFailed)
	fmt.Printf("  Methods:       %d\n", result.Methods)
	fmt.Printf("  Dependencies:  %d coordinates\n", result.Dependencies)
	if result.CacheHits > 0 {
		fmt.Printf("  Cache hits:    %d\n", result.CacheHits)
	}
	fmt.Printf("  Graph:         %d nodes, %d relationships (%d batches)\n",
		result.Nodes, result.Relationships, result.Batches)
	fmt.Printf("  Duration:      %v\n\n", result.Duration.Round(time.Millisecond))

	printRunFailures(ctx, ledger, result.RunID, result.FilesFailed)

	fmt.Printf("🎯 Next Steps:\n")
	fmt.Printf("  1. Inspect classes: \"MATCH (c:Class) RETURN c.name, c.file LIMIT 10\"\n")
	fmt.Printf("  2. Follow calls:    \"MATCH (m:Method)-[r:CALLS]->(n:Method) RETURN m.name, r.type, n.name LIMIT 10\"\n")
	fmt.Printf("  3. External deps:   \"MATCH (e:ExternalDependency) RETURN e.package, e.version\"\n\n")

	fmt.Printf("⏱️  Total time: %v\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// printRunFailures echoes the first few per-file failures of a run.
func printRunFailures(ctx context.Context, ledger *storage.RunStore, runID string, failed int) {
	if failed == 0 || ledger == nil || runID == "" {
		return
	}
	failures, err := ledger.RunErrors(ctx, runID)
	if err != nil {
		return
	}
	fmt.Printf("⚠️  Failures (%d):\n", len(failures))
	for i, f := range failures {
		if i >= 10 {
			fmt.Printf("  ... and %d more\n", len(failures)-10)
			break
		}
		fmt.Printf("  - %s: %s\n", f.Path, f.Message)
	}
	fmt.Printf("\n")
}

// workerCount resolves the worker flag against the configured default.
func workerCount(flag int) int {
	if flag > 0 {
		return flag
	}
	if cfg.Ingestion.Workers > 0 {
		return cfg.Ingestion.Workers
	}
	return 8
}

// targetDatabase resolves the database flag against the configured default.
func targetDatabase(flag string) string {
	if flag != "" {
		return flag
	}
	if cfg.Neo4j.Database != "" {
		return cfg.Neo4j.Database
	}
	return "neo4j"
}

// extractOptions resolves extraction options, command flags winning over
// the configured defaults.
func extractOptions(prefixes []string) treesitter.ExtractOptions {
	internal := cfg.Extraction.InternalPrefixes
	if len(prefixes) > 0 {
		internal = prefixes
	}
	return treesitter.ExtractOptions{
		InternalPrefixes: internal,
		IncludeDocs:      cfg.Extraction.IncludeDocs,
	}
}

// newProcessor builds a processor from config plus command flags.
func newProcessor(workers int, opts treesitter.ExtractOptions, excludes []string) *ingestion.Processor {
	exclude := cfg.Ingestion.ExcludeGlobs
	if len(excludes) > 0 {
		exclude = append(append([]string{}, exclude...), excludes...)
	}
	return ingestion.NewProcessor(&ingestion.ProcessorConfig{
		Workers:          workerCount(workers),
		Timeout:          cfg.Ingestion.Timeout,
		InternalPrefixes: opts.InternalPrefixes,
		ExcludeGlobs:     exclude,
		IncludeDocs:      opts.IncludeDocs,
	})
}

// openCache opens the extraction cache unless disabled. The extraction
// options salt the content hashes, so entries from a differently
// configured run never hit. A broken cache is reported and skipped.
func openCache(opts treesitter.ExtractOptions) *ingestion.Cache {
	if ingestNoCache || !cfg.Cache.Enabled {
		return nil
	}
	cache, err := ingestion.OpenCache(filepath.Join(cfg.Cache.Directory, "extraction.db"), opts)
	if err != nil {
		logger.WithError(err).Warn("Extraction cache unavailable, re-parsing everything")
		return nil
	}
	return cache
}

// batchConfig resolves the write batch sizing: an explicit --batch-size
// overrides the configured preset, keeping the default size ratios.
func batchConfig() graph.BatchConfig {
	if ingestBatchSize > 0 {
		methods := ingestBatchSize / 2
		if methods < 1 {
			methods = 1
		}
		embedded := ingestBatchSize / 5
		if embedded < 1 {
			embedded = 1
		}
		return graph.BatchConfig{Standard: ingestBatchSize, Methods: methods, Embedded: embedded}
	}
	return graph.PresetBatchConfig(cfg.Neo4j.BatchPreset)
}

// connectGraph opens a Neo4j client from config, resolving the password
// through the credential chain when the config carries none. Connection
// settings are validated after resolution, so a password served by the
// keychain or a prompt satisfies the check.
func connectGraph(ctx context.Context, database string) (*graph.Client, error) {
	password := cfg.Neo4j.Password
	if password == "" {
		cm := config.NewCredentialManager()
		p, err := cm.GetNeo4jPassword()
		if err != nil {
			return nil, err
		}
		password = p
	}

	effective := *cfg
	effective.Neo4j.Password = password
	if err := effective.RequireNeo4j(); err != nil {
		return nil, err
	}

	return graph.NewClientWithDatabase(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, password, targetDatabase(database))
}

// printConfigWarnings surfaces validation warnings without stopping the
// command. Hard requirements are enforced in connectGraph, after the
// credential chain has had its say.
func printConfigWarnings(result *config.ValidationResult) {
	if len(result.Warnings) == 0 {
		return
	}
	for _, w := range result.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
	fmt.Printf("\n")
}
