package graph

import (
	"context"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/codegraphhq/codegraph/internal/errors"
	"github.com/codegraphhq/codegraph/internal/manifest"
	"github.com/codegraphhq/codegraph/internal/treesitter"
)

// writeImports upserts one Import node per distinct import path and links
// every importing file to it.
func (w *Writer) writeImports(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	nodes, edges := importRows(input.Files)

	nodeQuery := `
		UNWIND $nodes AS node
		MERGE (imp:Import {import_path: node.import_path})
		SET imp.is_static = node.is_static,
		    imp.is_wildcard = node.is_wildcard,
		    imp.import_type = node.import_type
		RETURN count(imp) AS created`

	created, batches, err := w.runBatch(ctx, session, nodeQuery, "nodes", nodes, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "writing Import nodes")
	}
	stats.addNodes("Import", created, batches)
	w.logger.Debug("Imports written", "count", len(nodes))

	edgeQuery := `
		UNWIND $rels AS rel
		MATCH (f:File {path: rel.file})
		MATCH (imp:Import {import_path: rel.import_path})
		MERGE (f)-[r:IMPORTS]->(imp)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, edgeQuery, "rels", edges, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking file imports")
	}
	stats.addRelationships("IMPORTS", created, batches)
	return nil
}

// writeExternalDependencies derives one ExternalDependency per base
// package of this run's external imports and links each external import
// to its dependency. Versions come from the coordinate map when one
// resolves; a dependency no manifest mentions keeps version "unknown",
// and an already stored version is never downgraded back to it.
func (w *Writer) writeExternalDependencies(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	nodes, edges := dependencyRows(input.Files, input.Dependencies)

	nodeQuery := `
		UNWIND $nodes AS node
		MERGE (e:ExternalDependency {package: node.package})
		SET e.language = node.language,
		    e.ecosystem = node.ecosystem,
		    e.version = CASE WHEN node.version IS NOT NULL THEN node.version ELSE coalesce(e.version, 'unknown') END,
		    e.group_id = CASE WHEN node.group_id IS NOT NULL THEN node.group_id ELSE e.group_id END,
		    e.artifact_id = CASE WHEN node.artifact_id IS NOT NULL THEN node.artifact_id ELSE e.artifact_id END
		RETURN count(e) AS created`

	created, batches, err := w.runBatch(ctx, session, nodeQuery, "nodes", nodes, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "writing ExternalDependency nodes")
	}
	stats.addNodes("ExternalDependency", created, batches)
	w.logger.Debug("External dependencies written", "count", len(nodes))

	edgeQuery := `
		UNWIND $rels AS rel
		MATCH (imp:Import {import_path: rel.import_path})
		MATCH (e:ExternalDependency {package: rel.package})
		MERGE (imp)-[r:DEPENDS_ON]->(e)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, edgeQuery, "rels", edges, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking import dependencies")
	}
	stats.addRelationships("DEPENDS_ON", created, batches)
	return nil
}

func importRows(files []*treesitter.FileRecord) (nodes, edges []map[string]any) {
	type importInfo struct {
		isStatic   bool
		isWildcard bool
		importType string
	}
	info := make(map[string]importInfo)

	for _, f := range files {
		seen := make(map[string]bool)
		for _, imp := range f.Imports {
			if imp.ImportPath == "" {
				continue
			}
			if _, ok := info[imp.ImportPath]; !ok {
				info[imp.ImportPath] = importInfo{
					isStatic:   imp.IsStatic,
					isWildcard: imp.IsWildcard,
					importType: imp.Classification,
				}
			}
			if !seen[imp.ImportPath] {
				seen[imp.ImportPath] = true
				edges = append(edges, map[string]any{
					"file":        f.Path,
					"import_path": imp.ImportPath,
				})
			}
		}
	}

	paths := make([]string, 0, len(info))
	for p := range info {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		i := info[p]
		nodes = append(nodes, map[string]any{
			"import_path": p,
			"is_static":   i.isStatic,
			"is_wildcard": i.isWildcard,
			"import_type": i.importType,
		})
	}
	return nodes, edges
}

func dependencyRows(files []*treesitter.FileRecord, deps *manifest.Map) (nodes, edges []map[string]any) {
	packages := make(map[string]bool)
	seen := make(map[string]bool)

	for _, f := range files {
		for _, imp := range f.Imports {
			if imp.Classification != treesitter.ImportExternal {
				continue
			}
			base, ok := externalBasePackage(imp.ImportPath)
			if !ok {
				continue
			}
			packages[base] = true

			key := imp.ImportPath + "\x00" + base
			if !seen[key] {
				seen[key] = true
				edges = append(edges, map[string]any{
					"import_path": imp.ImportPath,
					"package":     base,
				})
			}
		}
	}

	keys := make([]string, 0, len(packages))
	for p := range packages {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	for _, pkg := range keys {
		node := map[string]any{
			"package":   pkg,
			"language":  "java",
			"ecosystem": "maven",
		}
		if deps != nil {
			if res, ok := deps.Resolve(pkg); ok && res.Version != "" {
				node["version"] = res.Version
				if res.Group != "" {
					node["group_id"] = res.Group
				}
				if res.Artifact != "" {
					node["artifact_id"] = res.Artifact
				}
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, edges
}

// externalBasePackage derives the dependency key from an external import
// path: the first three dotted segments, with a trailing wildcard segment
// dropped first. Paths shorter than three segments yield no dependency.
func externalBasePackage(importPath string) (string, bool) {
	segments := strings.Split(importPath, ".")
	if n := len(segments); n > 0 && segments[n-1] == "*" {
		segments = segments[:n-1]
	}
	if len(segments) < 3 {
		return "", false
	}
	return strings.Join(segments[:3], "."), true
}
