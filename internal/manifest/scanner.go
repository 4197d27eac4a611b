package manifest

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codegraphhq/codegraph/internal/errors"
)

// Scanner locates build manifests under a root directory and merges their
// coordinates into a Map.
type Scanner struct {
	root         string
	excludeGlobs []string
	logger       *slog.Logger
}

func NewScanner(root string, excludeGlobs []string) *Scanner {
	return &Scanner{
		root:         root,
		excludeGlobs: excludeGlobs,
		logger:       slog.Default().With("component", "manifest"),
	}
}

// Scan walks the tree, parses every manifest it finds and returns the
// merged coordinate map. Maven entries win over Gradle entries for the
// same key; within one format the first occurrence in sorted path order
// wins, with regular Maven entries ranked ahead of dependencyManagement
// entries and Gradle build files ahead of lockfiles. A manifest that
// fails to parse is logged and skipped.
func (s *Scanner) Scan() (*Map, error) {
	poms, gradles, lockfiles, err := s.collect()
	if err != nil {
		return nil, err
	}

	m := NewMap()

	var managed []Coordinate
	for _, path := range poms {
		res, err := parsePOMFile(path)
		if err != nil {
			s.logger.Warn("skipping unparseable manifest", "path", path, "error", err)
			continue
		}
		for _, c := range res.coords {
			m.Add(c, SourceMaven)
		}
		managed = append(managed, res.managed...)
		if res.dropped > 0 {
			s.logger.Debug("dropped entries with unresolved versions", "path", path, "count", res.dropped)
		}
	}
	for _, c := range managed {
		m.Add(c, SourceMaven)
	}

	for _, path := range gradles {
		code, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable manifest", "path", path, "error", err)
			continue
		}
		res := parseGradleBuild(string(code))
		for _, c := range res.coords {
			m.Add(c, SourceGradle)
		}
		if res.dropped > 0 {
			s.logger.Debug("dropped entries with unresolved versions", "path", path, "count", res.dropped)
		}
	}

	for _, path := range lockfiles {
		code, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable lockfile", "path", path, "error", err)
			continue
		}
		for _, c := range parseGradleLockfile(string(code)) {
			m.Add(c, SourceGradle)
		}
	}

	s.logger.Info("manifest scan complete",
		"poms", len(poms),
		"gradle_files", len(gradles),
		"lockfiles", len(lockfiles),
		"coordinates", m.Len())

	return m, nil
}

// collect gathers manifest paths grouped by format, each group in sorted
// order so merge precedence is independent of walk order.
func (s *Scanner) collect() (poms, gradles, lockfiles []string, err error) {
	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && skipManifestDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if name != "pom.xml" && name != "build.gradle" && name != "build.gradle.kts" && name != "gradle.lockfile" {
			return nil
		}
		if s.excluded(path) {
			return nil
		}
		switch name {
		case "pom.xml":
			poms = append(poms, path)
		case "gradle.lockfile":
			lockfiles = append(lockfiles, path)
		default:
			gradles = append(gradles, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, nil, errors.ManifestErrorf(walkErr, "walking %s for build manifests", s.root)
	}

	sort.Strings(poms)
	sort.Strings(gradles)
	sort.Strings(lockfiles)
	return poms, gradles, lockfiles, nil
}

func (s *Scanner) excluded(path string) bool {
	if len(s.excludeGlobs) == 0 {
		return false
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, glob := range s.excludeGlobs {
		if ok, _ := doublestar.Match(glob, rel); ok {
			return true
		}
	}
	return false
}

// skipManifestDir mirrors the source walker's directory exclusions.
func skipManifestDir(name string) bool {
	switch name {
	case ".git", ".gradle", ".idea", ".vscode", ".settings",
		"bin", "build", "dist", "node_modules", "out", "target", "vendor":
		return true
	}
	return false
}
