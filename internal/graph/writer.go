package graph

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/codegraphhq/codegraph/internal/errors"
	"github.com/codegraphhq/codegraph/internal/manifest"
	"github.com/codegraphhq/codegraph/internal/treesitter"
)

// WriteInput carries one run's worth of extraction output into the store.
type WriteInput struct {
	// Files in walk order; the writer derives directories, imports and
	// external dependencies from the records themselves.
	Files []*treesitter.FileRecord

	// Dependencies resolves external import packages to versions. Nil
	// leaves every ExternalDependency at version "unknown".
	Dependencies *manifest.Map

	// FileEmbeddings is index-aligned with Files; MethodEmbeddings with
	// the method list flattened in file order. Empty slices skip vector
	// writes entirely, and a shortfall leaves the remainder without
	// vectors.
	FileEmbeddings   [][]float64
	MethodEmbeddings [][]float64

	// EmbeddingModel is stored as embedding_type next to each vector
	EmbeddingModel string
}

// WriteStats reports what a write run touched, keyed by label and
// relationship type.
type WriteStats struct {
	Nodes         map[string]int64 `json:"nodes"`
	Relationships map[string]int64 `json:"relationships"`
	Batches       int              `json:"batches"`
	Duration      time.Duration    `json:"duration"`
}

// NewWriteStats returns an empty stats accumulator.
func NewWriteStats() *WriteStats {
	return &WriteStats{
		Nodes:         make(map[string]int64),
		Relationships: make(map[string]int64),
	}
}

func (s *WriteStats) addNodes(label string, created int64, batches int) {
	s.Nodes[label] += created
	s.Batches += batches
}

func (s *WriteStats) addRelationships(relType string, created int64, batches int) {
	s.Relationships[relType] += created
	s.Batches += batches
}

// TotalNodes sums node upserts across labels.
func (s *WriteStats) TotalNodes() int64 {
	var total int64
	for _, n := range s.Nodes {
		total += n
	}
	return total
}

// TotalRelationships sums relationship upserts across types.
func (s *WriteStats) TotalRelationships() int64 {
	var total int64
	for _, n := range s.Relationships {
		total += n
	}
	return total
}

// Writer turns extraction records into graph mutations. Every step is an
// idempotent UNWIND+MERGE batch keyed by natural key, issued one after
// another through a single session. There are no internal retries; the
// first store error aborts the run.
type Writer struct {
	client *Client
	config BatchConfig
	logger *slog.Logger
}

// NewWriter returns a writer using the given batch sizing.
func NewWriter(client *Client, config BatchConfig) *Writer {
	return &Writer{
		client: client,
		config: config,
		logger: slog.Default().With("component", "graph_writer"),
	}
}

// Write runs the full node and relationship sequence for one extraction.
// The schema guard runs first and aborts before any mutation when the
// managed constraints cannot be ensured; a record set containing a method
// without a signature is refused outright rather than letting a MERGE on
// a null key fail halfway through.
func (w *Writer) Write(ctx context.Context, input WriteInput) (*WriteStats, error) {
	start := time.Now()

	if err := w.client.EnsureConstraints(ctx); err != nil {
		return nil, err
	}
	if err := validateMethodSignatures(input.Files); err != nil {
		return nil, err
	}

	w.logger.Info("Writing graph",
		"files", len(input.Files),
		"file_embeddings", len(input.FileEmbeddings),
		"method_embeddings", len(input.MethodEmbeddings))

	session := w.client.Driver().NewSession(ctx, neo4j.SessionConfig{DatabaseName: w.client.Database()})
	defer session.Close(ctx)

	stats := NewWriteStats()
	steps := []func(context.Context, neo4j.SessionWithContext, WriteInput, *WriteStats) error{
		w.writeDirectories,
		w.writeDirectoryTree,
		w.writeFiles,
		w.writeFileContainment,
		w.writeClasses,
		w.writeInterfaces,
		w.writeInheritance,
		w.writeFileDefines,
		w.writeMethods,
		w.writeFileDeclares,
		w.writeMethodContainment,
		w.writeParameters,
		w.writeParameterTypes,
		w.writeImports,
		w.writeExternalDependencies,
		w.writeCalls,
		w.writeCreates,
		w.writeDocs,
	}
	for _, step := range steps {
		if err := step(ctx, session, input, stats); err != nil {
			return nil, err
		}
	}

	stats.Duration = time.Since(start)
	w.logger.Info("Graph write complete",
		"nodes", stats.TotalNodes(),
		"relationships", stats.TotalRelationships(),
		"batches", stats.Batches,
		"duration", stats.Duration.Round(time.Millisecond))
	return stats, nil
}

// wipeLabels lists the labels this pipeline owns. Commit, Developer,
// FileVer and CVE nodes belong to collaborating ingesters and survive a
// wipe.
var wipeLabels = []string{
	"Directory",
	"File",
	"Class",
	"Interface",
	"Method",
	"Parameter",
	"Import",
	"ExternalDependency",
	"Doc",
}

// Wipe detaches and deletes every node this pipeline owns and returns
// the number of nodes removed.
func (w *Writer) Wipe(ctx context.Context) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, GetConfigForOperation("wipe").Timeout)
	defer cancel()

	session := w.client.Driver().NewSession(opCtx, neo4j.SessionConfig{DatabaseName: w.client.Database()})
	defer session.Close(opCtx)

	configurers := GetConfigForOperation("wipe").AsNeo4jConfig()

	var deleted int64
	for _, label := range wipeLabels {
		query := fmt.Sprintf("MATCH (n:%s) DETACH DELETE n RETURN count(n) AS deleted", label)
		result, err := session.Run(opCtx, query, nil, configurers...)
		if err != nil {
			return deleted, errors.GraphErrorf(err, "wiping %s nodes", label)
		}
		record, err := result.Single(opCtx)
		if err != nil {
			return deleted, errors.GraphErrorf(err, "wiping %s nodes", label)
		}
		if value, ok := record.Get("deleted"); ok {
			if n, ok := value.(int64); ok {
				deleted += n
				w.logger.Debug("Wiped label", "label", label, "deleted", n)
			}
		}
	}

	w.logger.Info("Graph wiped", "deleted", deleted)
	return deleted, nil
}

// validateMethodSignatures refuses record sets that would merge Method
// nodes on a null key.
func validateMethodSignatures(files []*treesitter.FileRecord) error {
	for _, f := range files {
		for _, m := range f.Methods {
			if m.MethodSignature == "" {
				return errors.ValidationErrorf(
					"method %q in %s has no signature; refusing to merge on a null key",
					m.Name, f.Path)
			}
		}
	}
	return nil
}

// runBatch issues query once per slice of rows and sums the created
// counts it reports. Each invocation is one implicit transaction; the
// first store error aborts with the failing batch range attached.
func (w *Writer) runBatch(ctx context.Context, session neo4j.SessionWithContext, query, param string, rows []map[string]any, size int) (int64, int, error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}
	if size <= 0 {
		size = 1
	}

	configurers := GetConfigForOperation("batch_write").AsNeo4jConfig()

	var created int64
	batches := 0
	for i := 0; i < len(rows); i += size {
		end := i + size
		if end > len(rows) {
			end = len(rows)
		}

		result, err := session.Run(ctx, query, map[string]any{param: rows[i:end]}, configurers...)
		if err != nil {
			return created, batches, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		record, err := result.Single(ctx)
		if err != nil {
			return created, batches, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		if value, ok := record.Get("created"); ok {
			if n, ok := value.(int64); ok {
				created += n
			}
		}
		batches++
	}
	return created, batches, nil
}

// parentDir returns the slash-path parent of p, with "" for the tree root.
func parentDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// estimatedLines converts a 1-based line span into a length, never below 1.
func estimatedLines(line, endLine int) int {
	if endLine < line {
		return 1
	}
	return endLine - line + 1
}

// stringList keeps list-valued properties as empty lists rather than
// nulls, so SET never removes them.
func stringList(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
