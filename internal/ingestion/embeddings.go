package ingestion

import (
	"encoding/json"
	"os"

	"github.com/codegraphhq/codegraph/internal/errors"
	"github.com/codegraphhq/codegraph/internal/treesitter"
)

// Embeddings carries optional vector payloads produced outside the
// pipeline, index-aligned with the ordered file list and the flattened
// method list of one extraction. Absent or empty payloads are fine; the
// structural graph is built either way.
type Embeddings struct {
	Model   string      `json:"model"`
	Files   [][]float64 `json:"files"`
	Methods [][]float64 `json:"methods"`
}

// LoadEmbeddings reads an embedding input file. An empty path yields nil.
func LoadEmbeddings(path string) (*Embeddings, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemError(err, "failed to read embeddings")
	}
	var e Embeddings
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, errors.ValidationErrorf("invalid embeddings %s: %v", path, err)
	}
	return &e, nil
}

// Validate checks index alignment against the extraction the embeddings
// accompany. Empty payloads pass; a non-empty payload must match exactly.
func (e *Embeddings) Validate(files []*treesitter.FileRecord) error {
	if e == nil {
		return nil
	}
	if len(e.Files) != 0 && len(e.Files) != len(files) {
		return errors.ValidationErrorf("file embeddings misaligned: %d vectors for %d files",
			len(e.Files), len(files))
	}
	methods := 0
	for _, f := range files {
		methods += len(f.Methods)
	}
	if len(e.Methods) != 0 && len(e.Methods) != methods {
		return errors.ValidationErrorf("method embeddings misaligned: %d vectors for %d methods",
			len(e.Methods), methods)
	}
	return nil
}

// FileVector returns the vector for file index i, or nil when absent.
func (e *Embeddings) FileVector(i int) []float64 {
	if e == nil || i < 0 || i >= len(e.Files) {
		return nil
	}
	return e.Files[i]
}

// MethodVector returns the vector for flattened method index i, or nil
// when absent.
func (e *Embeddings) MethodVector(i int) []float64 {
	if e == nil || i < 0 || i >= len(e.Methods) {
		return nil
	}
	return e.Methods[i]
}
