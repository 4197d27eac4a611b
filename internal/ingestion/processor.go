package ingestion

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codegraphhq/codegraph/internal/errors"
	"github.com/codegraphhq/codegraph/internal/manifest"
	"github.com/codegraphhq/codegraph/internal/treesitter"
)

// ProcessorConfig holds the knobs for one processing run.
type ProcessorConfig struct {
	Workers          int           // concurrent parsers (default 8)
	Timeout          time.Duration // per-file parse budget (default 30s)
	InternalPrefixes []string      // package prefixes classified as internal imports
	ExcludeGlobs     []string      // root-relative globs excluded from the walk
	IncludeDocs      bool          // extract javadoc and leading comments
}

// DefaultProcessorConfig returns default configuration
func DefaultProcessorConfig() *ProcessorConfig {
	return &ProcessorConfig{
		Workers:     8,
		Timeout:     30 * time.Second,
		IncludeDocs: true,
	}
}

// FileError records a per-file soft failure. The aggregate error list
// travels on the result; a single broken file never aborts a run.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result aggregates everything one processing run produced.
type Result struct {
	Root         string
	Files        []*treesitter.FileRecord // sorted by path
	Directories  []string                 // every ancestor of a parsed file; "" is the root
	Dependencies *manifest.Map
	Errors       []FileError
	CacheHits    int
	Duration     time.Duration
}

// FilesParsed reports the number of successfully extracted files
func (r *Result) FilesParsed() int { return len(r.Files) }

// FilesFailed reports the number of per-file soft failures
func (r *Result) FilesFailed() int { return len(r.Errors) }

// MethodCount reports the total number of extracted methods
func (r *Result) MethodCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Methods)
	}
	return n
}

// Processor runs the extraction pipeline: the walker feeds a pool of
// parse workers while build manifests are scanned concurrently, and the
// two halves are aggregated into one Result. Writing is a separate,
// sequential phase owned by the caller.
type Processor struct {
	config *ProcessorConfig
	cache  *Cache
	logger *slog.Logger
}

// NewProcessor creates a processor; nil config uses defaults.
func NewProcessor(config *ProcessorConfig) *Processor {
	if config == nil {
		config = DefaultProcessorConfig()
	}
	if config.Workers <= 0 {
		config.Workers = 8
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Processor{
		config: config,
		logger: slog.Default().With("component", "processor"),
	}
}

// WithCache attaches an extraction cache. A nil cache disables reuse.
func (p *Processor) WithCache(cache *Cache) *Processor {
	p.cache = cache
	return p
}

// Process walks root, extracts every Java file through the worker pool
// and scans build manifests concurrently, then aggregates the results.
// Per-file failures are recorded on the result; only tree-level failures
// return an error.
func (p *Processor) Process(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.FileSystemError(err, "source root not readable")
	}
	if !info.IsDir() {
		return nil, errors.ValidationErrorf("source root %s is not a directory", root)
	}

	p.logger.Info("processing source tree",
		"root", root,
		"workers", p.config.Workers,
	)

	var (
		records   []*treesitter.FileRecord
		fileErrs  []FileError
		cacheHits int
		deps      *manifest.Map
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, fileErrs, cacheHits, err = p.parseFilesParallel(gctx, root)
		return err
	})
	g.Go(func() error {
		m, err := manifest.NewScanner(root, p.config.ExcludeGlobs).Scan()
		if err != nil {
			return err
		}
		deps = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	sort.Slice(fileErrs, func(i, j int) bool { return fileErrs[i].Path < fileErrs[j].Path })

	result := &Result{
		Root:         root,
		Files:        records,
		Directories:  collectDirectories(records),
		Dependencies: deps,
		Errors:       fileErrs,
		CacheHits:    cacheHits,
		Duration:     time.Since(start),
	}

	p.logger.Info("processing complete",
		"parsed", result.FilesParsed(),
		"failed", result.FilesFailed(),
		"methods", result.MethodCount(),
		"cache_hits", cacheHits,
		"dependencies", deps.Len(),
		"duration", result.Duration,
	)

	return result, nil
}

// parseFilesParallel parses files using worker pool pattern
func (p *Processor) parseFilesParallel(ctx context.Context, root string) ([]*treesitter.FileRecord, []FileError, int, error) {
	paths := WalkSourceFiles(ctx, root, p.config.ExcludeGlobs)
	results := make(chan *treesitter.ParseResult, p.config.Workers)

	opts := treesitter.ExtractOptions{
		InternalPrefixes: p.config.InternalPrefixes,
		IncludeDocs:      p.config.IncludeDocs,
	}

	var cacheHits atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < p.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				parseCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
				res, hit := p.parseOne(parseCtx, root, path, opts)
				cancel()

				if hit {
					cacheHits.Add(1)
				}
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var records []*treesitter.FileRecord
	var fileErrs []FileError
	for res := range results {
		if res.Error != nil {
			fileErrs = append(fileErrs, FileError{Path: res.FilePath, Message: res.Error.Error()})
			continue
		}
		records = append(records, res.File)
	}

	return records, fileErrs, int(cacheHits.Load()), ctx.Err()
}

// parseOne reads, hashes and extracts a single file, consulting the cache
// when one is attached. The bool reports a cache hit.
func (p *Processor) parseOne(ctx context.Context, root, path string, opts treesitter.ExtractOptions) (*treesitter.ParseResult, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	if err := ctx.Err(); err != nil {
		return &treesitter.ParseResult{FilePath: rel, Error: err}, false
	}

	code, err := os.ReadFile(path)
	if err != nil {
		return &treesitter.ParseResult{
			FilePath: rel,
			Error:    errors.FileSystemError(err, "failed to read file"),
		}, false
	}

	if p.cache != nil {
		if record, ok := p.cache.Lookup(rel, code); ok {
			return &treesitter.ParseResult{FilePath: rel, Language: "java", File: record}, true
		}
	}

	res := treesitter.ParseSource(rel, code, opts)
	if p.cache != nil && res.Error == nil && res.File != nil {
		p.cache.Store(rel, code, res.File)
	}
	return res, false
}

// collectDirectories returns every ancestor directory of the parsed
// files, plus "" for the tree root, sorted so parents precede children.
func collectDirectories(files []*treesitter.FileRecord) []string {
	set := map[string]bool{"": true}
	for _, f := range files {
		dir := pathDir(f.Path)
		for dir != "" {
			set[dir] = true
			dir = pathDir(dir)
		}
	}

	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// pathDir is path.Dir over slash paths with "" instead of "." for the root
func pathDir(p string) string {
	i := len(p) - 1
	for i >= 0 && p[i] != '/' {
		i--
	}
	if i <= 0 {
		return ""
	}
	return p[:i]
}
