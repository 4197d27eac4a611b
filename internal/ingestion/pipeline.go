package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/codegraphhq/codegraph/internal/storage"
)

// GraphWriter is the write phase of the pipeline.
type GraphWriter interface {
	Write(ctx context.Context, input graph.WriteInput) (*graph.WriteStats, error)
}

// Pipeline coordinates a complete ingestion run: extraction and manifest
// scan, the sequential graph write, then the run ledger entry.
type Pipeline struct {
	processor *Processor
	writer    GraphWriter
	ledger    *storage.RunStore
	logger    *logrus.Logger
}

// NewPipeline wires a pipeline. A nil ledger skips run recording.
func NewPipeline(processor *Processor, writer GraphWriter, ledger *storage.RunStore, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		processor: processor,
		writer:    writer,
		ledger:    ledger,
		logger:    logger,
	}
}

// PipelineResult contains the results of one ingestion run.
type PipelineResult struct {
	RunID         string
	Root          string
	FilesParsed   int
	FilesFailed   int
	Methods       int
	Dependencies  int
	CacheHits     int
	Nodes         int64
	Relationships int64
	Batches       int
	Duration      time.Duration
}

// Ingest runs the full pipeline against the source tree at root.
// Embeddings may be nil.
func (p *Pipeline) Ingest(ctx context.Context, root string, embeddings *Embeddings) (*PipelineResult, error) {
	startTime := time.Now()
	p.logger.WithFields(logrus.Fields{
		"root": root,
	}).Info("Starting ingestion")

	// Phase 1: extract declarations and scan manifests
	procResult, err := p.processor.Process(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	if err := embeddings.Validate(procResult.Files); err != nil {
		return nil, err
	}

	result := &PipelineResult{
		Root:         root,
		FilesParsed:  procResult.FilesParsed(),
		FilesFailed:  procResult.FilesFailed(),
		Methods:      procResult.MethodCount(),
		Dependencies: procResult.Dependencies.Len(),
		CacheHits:    procResult.CacheHits,
	}

	// Phase 2: write the graph
	input := graph.WriteInput{
		Files:        procResult.Files,
		Dependencies: procResult.Dependencies,
	}
	if embeddings != nil {
		input.FileEmbeddings = embeddings.Files
		input.MethodEmbeddings = embeddings.Methods
		input.EmbeddingModel = embeddings.Model
	}

	stats, err := p.writer.Write(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("graph write failed: %w", err)
	}

	result.Nodes = stats.TotalNodes()
	result.Relationships = stats.TotalRelationships()
	result.Batches = stats.Batches
	result.Duration = time.Since(startTime)

	// Phase 3: record the run. Ledger trouble never fails an ingestion
	// the graph already absorbed.
	if p.ledger != nil {
		run := &storage.Run{
			Root:          root,
			StartedAt:     startTime.UTC(),
			DurationMS:    result.Duration.Milliseconds(),
			FilesParsed:   result.FilesParsed,
			FilesFailed:   result.FilesFailed,
			Nodes:         result.Nodes,
			Relationships: result.Relationships,
			Batches:       result.Batches,
		}
		runErrs := make([]storage.RunError, 0, len(procResult.Errors))
		for _, e := range procResult.Errors {
			runErrs = append(runErrs, storage.RunError{Path: e.Path, Message: e.Message})
		}
		if err := p.ledger.SaveRun(ctx, run, runErrs); err != nil {
			p.logger.WithError(err).Warn("Failed to record run")
		} else {
			result.RunID = run.ID
		}
	}

	p.logger.WithFields(logrus.Fields{
		"duration":      result.Duration.String(),
		"files_parsed":  result.FilesParsed,
		"files_failed":  result.FilesFailed,
		"nodes":         result.Nodes,
		"relationships": result.Relationships,
		"batches":       result.Batches,
	}).Info("Ingestion completed")

	return result, nil
}
