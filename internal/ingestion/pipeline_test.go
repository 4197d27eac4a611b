package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/codegraphhq/codegraph/internal/storage"
)

// stubWriter records the input and reports fixed stats.
type stubWriter struct {
	input graph.WriteInput
	err   error
}

func (w *stubWriter) Write(ctx context.Context, input graph.WriteInput) (*graph.WriteStats, error) {
	w.input = input
	if w.err != nil {
		return nil, w.err
	}
	stats := graph.NewWriteStats()
	stats.Nodes["File"] = int64(len(input.Files))
	stats.Relationships["CONTAINS"] = int64(len(input.Files))
	stats.Batches = 2
	stats.Duration = 5 * time.Millisecond
	return stats, nil
}

func TestPipelineIngest(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/main/java/com/acme/App.java", appJava)
	writeSource(t, root, "pom.xml", slf4jPOM)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	ledger, err := storage.NewRunStore(filepath.Join(t.TempDir(), "runs.db"), logger)
	require.NoError(t, err)
	defer ledger.Close()

	writer := &stubWriter{}
	pipe := NewPipeline(NewProcessor(&ProcessorConfig{Workers: 2, IncludeDocs: true}), writer, ledger, logger)

	result, err := pipe.Ingest(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesParsed)
	assert.Zero(t, result.FilesFailed)
	assert.Equal(t, 2, result.Methods)
	assert.Equal(t, int64(1), result.Nodes)
	assert.Equal(t, int64(1), result.Relationships)
	assert.Equal(t, 2, result.Batches)
	assert.NotEmpty(t, result.RunID)

	// The writer saw the extraction and the scanned manifest.
	require.Len(t, writer.input.Files, 1)
	assert.Equal(t, "src/main/java/com/acme/App.java", writer.input.Files[0].Path)
	dep, ok := writer.input.Dependencies.Resolve("org.slf4j")
	require.True(t, ok)
	assert.Equal(t, "2.0.9", dep.Version)

	// The run landed in the ledger.
	run, err := ledger.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, root, run.Root)
	assert.Equal(t, 1, run.FilesParsed)
	assert.Equal(t, int64(1), run.Nodes)
}

func TestPipelineIngestRecordsReadFailures(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "Good.java", "class Good {\n}\n")
	// A dangling symlink survives the walk but fails the read.
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.java"), filepath.Join(root, "Broken.java")))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	ledger, err := storage.NewRunStore(filepath.Join(t.TempDir(), "runs.db"), logger)
	require.NoError(t, err)
	defer ledger.Close()

	pipe := NewPipeline(NewProcessor(nil), &stubWriter{}, ledger, logger)

	result, err := pipe.Ingest(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesParsed)
	assert.Equal(t, 1, result.FilesFailed)
	require.NotEmpty(t, result.RunID)

	failures, err := ledger.RunErrors(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "Broken.java", failures[0].Path)
	assert.Contains(t, failures[0].Message, "failed to read file")
}

func TestPipelineIngestEmbeddingMisalignment(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "App.java", "class App {\n}\n")

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	pipe := NewPipeline(NewProcessor(nil), &stubWriter{}, nil, logger)

	bad := &Embeddings{Model: "unixcoder", Files: [][]float64{{0.1}, {0.2}}}
	_, err := pipe.Ingest(context.Background(), root, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "misaligned")
}

func TestPipelineIngestWithoutLedger(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "App.java", "class App {\n}\n")

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	pipe := NewPipeline(NewProcessor(nil), &stubWriter{}, nil, logger)

	result, err := pipe.Ingest(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Empty(t, result.RunID)
	assert.Equal(t, 1, result.FilesParsed)
}
