package ingestion

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// WalkSourceFiles walks the tree under root and yields Java source files
// on the returned channel. Build output and VCS directories are excluded,
// plus any path matching one of the exclude globs (relative to root).
// The channel closes when the walk finishes or ctx is cancelled.
func WalkSourceFiles(ctx context.Context, root string, excludeGlobs []string) <-chan string {
	files := make(chan string, 100)

	go func() {
		defer close(files)

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && shouldSkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".java" {
				return nil
			}
			if excludedByGlob(root, path, excludeGlobs) {
				return nil
			}
			select {
			case files <- path:
			case <-ctx.Done():
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			slog.Default().With("component", "walker").Warn("source walk aborted",
				"root", root, "error", err)
		}
	}()

	return files
}

// shouldSkipDir returns true for directories excluded from parsing:
// VCS metadata, IDE state and build outputs.
func shouldSkipDir(name string) bool {
	switch name {
	case ".git", ".gradle", ".idea", ".vscode", ".settings",
		"bin", "build", "dist", "node_modules", "out", "target", "vendor":
		return true
	}
	return false
}

// excludedByGlob matches the root-relative path against the configured
// exclude globs.
func excludedByGlob(root, path string, excludeGlobs []string) bool {
	if len(excludeGlobs) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, glob := range excludeGlobs {
		if ok, _ := doublestar.Match(glob, rel); ok {
			return true
		}
	}
	return false
}
