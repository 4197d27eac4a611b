package graph

import (
	"context"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/codegraphhq/codegraph/internal/errors"
	"github.com/codegraphhq/codegraph/internal/treesitter"
)

// writeDirectories upserts one Directory node per ancestor of every file
// path, including the tree root "".
func (w *Writer) writeDirectories(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	rows := directoryRows(input.Files)

	query := `
		UNWIND $nodes AS node
		MERGE (d:Directory {path: node.path})
		RETURN count(d) AS created`

	created, batches, err := w.runBatch(ctx, session, query, "nodes", rows, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "writing Directory nodes")
	}
	stats.addNodes("Directory", created, batches)
	w.logger.Debug("Directories written", "count", len(rows))
	return nil
}

// writeDirectoryTree links every non-root directory under its parent.
func (w *Writer) writeDirectoryTree(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	rows := directoryTreeRows(input.Files)

	query := `
		UNWIND $rels AS rel
		MATCH (parent:Directory {path: rel.parent})
		MATCH (child:Directory {path: rel.child})
		MERGE (parent)-[r:CONTAINS]->(child)
		RETURN count(r) AS created`

	created, batches, err := w.runBatch(ctx, session, query, "rels", rows, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking directory tree")
	}
	stats.addRelationships("CONTAINS", created, batches)
	return nil
}

// writeFiles upserts File nodes with their per-file aggregates. Embedding
// vectors ride along only for files that have one; the CASE WHEN keeps an
// existing vector in place when a later run writes without embeddings.
func (w *Writer) writeFiles(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	if n := len(input.FileEmbeddings); n > 0 && n < len(input.Files) {
		w.logger.Warn("Fewer file embeddings than files; remainder written without vectors",
			"files", len(input.Files), "embeddings", n)
	}

	rows := fileRows(input.Files, input.FileEmbeddings, input.EmbeddingModel)

	query := `
		UNWIND $nodes AS node
		MERGE (f:File {path: node.path})
		SET f.name = node.name,
		    f.language = node.language,
		    f.ecosystem = node.ecosystem,
		    f.total_lines = node.total_lines,
		    f.code_lines = node.code_lines,
		    f.method_count = node.method_count,
		    f.class_count = node.class_count,
		    f.interface_count = node.interface_count,
		    f.embedding = CASE WHEN node.embedding IS NOT NULL THEN node.embedding ELSE f.embedding END,
		    f.embedding_type = CASE WHEN node.embedding IS NOT NULL THEN node.embedding_type ELSE f.embedding_type END
		RETURN count(f) AS created`

	size := w.config.NodeSize(len(input.FileEmbeddings) > 0)
	created, batches, err := w.runBatch(ctx, session, query, "nodes", rows, size)
	if err != nil {
		return errors.GraphError(err, "writing File nodes")
	}
	stats.addNodes("File", created, batches)
	w.logger.Debug("Files written", "count", len(rows))
	return nil
}

// writeFileContainment links every file under its parent directory.
func (w *Writer) writeFileContainment(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	rows := fileContainmentRows(input.Files)

	query := `
		UNWIND $rels AS rel
		MATCH (d:Directory {path: rel.dir})
		MATCH (f:File {path: rel.path})
		MERGE (d)-[r:CONTAINS]->(f)
		RETURN count(r) AS created`

	created, batches, err := w.runBatch(ctx, session, query, "rels", rows, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking files to directories")
	}
	stats.addRelationships("CONTAINS", created, batches)
	return nil
}

// writeClasses upserts Class nodes keyed by (name, file).
func (w *Writer) writeClasses(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	rows := classRows(input.Files)

	query := `
		UNWIND $nodes AS node
		MERGE (c:Class {name: node.name, file: node.file})
		SET c.package = node.package,
		    c.line = node.line,
		    c.estimated_lines = node.estimated_lines,
		    c.modifiers = node.modifiers,
		    c.is_abstract = node.is_abstract,
		    c.is_final = node.is_final
		RETURN count(c) AS created`

	created, batches, err := w.runBatch(ctx, session, query, "nodes", rows, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "writing Class nodes")
	}
	stats.addNodes("Class", created, batches)
	w.logger.Debug("Classes written", "count", len(rows))
	return nil
}

// writeInterfaces upserts Interface nodes keyed by (name, file).
func (w *Writer) writeInterfaces(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	rows := interfaceRows(input.Files)

	query := `
		UNWIND $nodes AS node
		MERGE (i:Interface {name: node.name, file: node.file})
		SET i.package = node.package,
		    i.line = node.line,
		    i.modifiers = node.modifiers,
		    i.method_count = node.method_count
		RETURN count(i) AS created`

	created, batches, err := w.runBatch(ctx, session, query, "nodes", rows, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "writing Interface nodes")
	}
	stats.addNodes("Interface", created, batches)
	w.logger.Debug("Interfaces written", "count", len(rows))
	return nil
}

// writeInheritance resolves extends and implements declarations against
// the declared types of this run. Parents are recorded as bare names at
// extraction, so an edge is written only when exactly one declared type
// carries that name; anything ambiguous or undeclared is skipped rather
// than inventing placeholder nodes.
func (w *Writer) writeInheritance(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	classExtends, interfaceExtends, implementsRows := inheritanceRows(input.Files)

	classExtendsQuery := `
		UNWIND $rels AS rel
		MATCH (child:Class {name: rel.child_name, file: rel.child_file})
		OPTIONAL MATCH (candidate:Class {name: rel.parent_name})
		WITH rel, child, collect(DISTINCT candidate) AS parents
		WHERE size(parents) = 1
		WITH child, parents[0] AS parent
		MERGE (child)-[r:EXTENDS]->(parent)
		RETURN count(r) AS created`

	created, batches, err := w.runBatch(ctx, session, classExtendsQuery, "rels", classExtends, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking class inheritance")
	}
	stats.addRelationships("EXTENDS", created, batches)

	interfaceExtendsQuery := `
		UNWIND $rels AS rel
		MATCH (child:Interface {name: rel.child_name, file: rel.child_file})
		OPTIONAL MATCH (candidate:Interface {name: rel.parent_name})
		WITH rel, child, collect(DISTINCT candidate) AS parents
		WHERE size(parents) = 1
		WITH child, parents[0] AS parent
		MERGE (child)-[r:EXTENDS]->(parent)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, interfaceExtendsQuery, "rels", interfaceExtends, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking interface inheritance")
	}
	stats.addRelationships("EXTENDS", created, batches)

	implementsQuery := `
		UNWIND $rels AS rel
		MATCH (child:Class {name: rel.child_name, file: rel.child_file})
		OPTIONAL MATCH (candidate:Interface {name: rel.parent_name})
		WITH rel, child, collect(DISTINCT candidate) AS parents
		WHERE size(parents) = 1
		WITH child, parents[0] AS parent
		MERGE (child)-[r:IMPLEMENTS]->(parent)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, implementsQuery, "rels", implementsRows, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking interface implementations")
	}
	stats.addRelationships("IMPLEMENTS", created, batches)
	return nil
}

// writeFileDefines links files to the classes and interfaces they declare.
func (w *Writer) writeFileDefines(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	classRels, interfaceRels := definesRows(input.Files)

	classQuery := `
		UNWIND $rels AS rel
		MATCH (f:File {path: rel.file})
		MATCH (c:Class {name: rel.name, file: rel.file})
		MERGE (f)-[r:DEFINES]->(c)
		RETURN count(r) AS created`

	created, batches, err := w.runBatch(ctx, session, classQuery, "rels", classRels, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking file class definitions")
	}
	stats.addRelationships("DEFINES", created, batches)

	interfaceQuery := `
		UNWIND $rels AS rel
		MATCH (f:File {path: rel.file})
		MATCH (i:Interface {name: rel.name, file: rel.file})
		MERGE (f)-[r:DEFINES]->(i)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, interfaceQuery, "rels", interfaceRels, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking file interface definitions")
	}
	stats.addRelationships("DEFINES", created, batches)
	return nil
}

// directoryPaths collects every ancestor directory of every file,
// including the root, sorted for stable batch boundaries.
func directoryPaths(files []*treesitter.FileRecord) []string {
	seen := make(map[string]bool)
	for _, f := range files {
		dir := parentDir(f.Path)
		for {
			if seen[dir] {
				break
			}
			seen[dir] = true
			if dir == "" {
				break
			}
			dir = parentDir(dir)
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func directoryRows(files []*treesitter.FileRecord) []map[string]any {
	paths := directoryPaths(files)
	rows := make([]map[string]any, 0, len(paths))
	for _, p := range paths {
		rows = append(rows, map[string]any{"path": p})
	}
	return rows
}

func directoryTreeRows(files []*treesitter.FileRecord) []map[string]any {
	var rows []map[string]any
	for _, p := range directoryPaths(files) {
		if p == "" {
			continue
		}
		rows = append(rows, map[string]any{
			"parent": parentDir(p),
			"child":  p,
		})
	}
	return rows
}

func fileRows(files []*treesitter.FileRecord, embeddings [][]float64, model string) []map[string]any {
	rows := make([]map[string]any, 0, len(files))
	for i, f := range files {
		classes, interfaces := 0, 0
		for _, c := range f.Classes {
			if c.Kind == "interface" {
				interfaces++
			} else {
				classes++
			}
		}

		row := map[string]any{
			"path":            f.Path,
			"name":            f.Name,
			"language":        "java",
			"ecosystem":       "maven",
			"total_lines":     f.TotalLines,
			"code_lines":      f.CodeLines,
			"method_count":    len(f.Methods),
			"class_count":     classes,
			"interface_count": interfaces,
		}
		if i < len(embeddings) && len(embeddings[i]) > 0 {
			row["embedding"] = embeddings[i]
			row["embedding_type"] = embeddingType(model)
		}
		rows = append(rows, row)
	}
	return rows
}

func fileContainmentRows(files []*treesitter.FileRecord) []map[string]any {
	rows := make([]map[string]any, 0, len(files))
	for _, f := range files {
		rows = append(rows, map[string]any{
			"dir":  parentDir(f.Path),
			"path": f.Path,
		})
	}
	return rows
}

func classRows(files []*treesitter.FileRecord) []map[string]any {
	var rows []map[string]any
	for _, f := range files {
		for _, c := range f.Classes {
			if c.Kind == "interface" {
				continue
			}
			rows = append(rows, map[string]any{
				"name":            c.Name,
				"file":            c.File,
				"package":         c.Package,
				"line":            c.Line,
				"estimated_lines": estimatedLines(c.Line, c.EndLine),
				"modifiers":       stringList(c.Modifiers),
				"is_abstract":     c.IsAbstract,
				"is_final":        c.IsFinal,
			})
		}
	}
	return rows
}

func interfaceRows(files []*treesitter.FileRecord) []map[string]any {
	var rows []map[string]any
	for _, f := range files {
		for _, c := range f.Classes {
			if c.Kind != "interface" {
				continue
			}
			rows = append(rows, map[string]any{
				"name":         c.Name,
				"file":         c.File,
				"package":      c.Package,
				"line":         c.Line,
				"modifiers":    stringList(c.Modifiers),
				"method_count": c.MethodCount,
			})
		}
	}
	return rows
}

func inheritanceRows(files []*treesitter.FileRecord) (classExtends, interfaceExtends, implementsRows []map[string]any) {
	link := func(childName, childFile, parentName string) map[string]any {
		return map[string]any{
			"child_name":  childName,
			"child_file":  childFile,
			"parent_name": parentName,
		}
	}

	for _, f := range files {
		for _, c := range f.Classes {
			if c.Kind == "interface" {
				for _, parent := range c.Interfaces {
					interfaceExtends = append(interfaceExtends, link(c.Name, c.File, parent))
				}
				continue
			}
			if c.Superclass != "" {
				classExtends = append(classExtends, link(c.Name, c.File, c.Superclass))
			}
			for _, iface := range c.Interfaces {
				implementsRows = append(implementsRows, link(c.Name, c.File, iface))
			}
		}
	}
	return classExtends, interfaceExtends, implementsRows
}

func definesRows(files []*treesitter.FileRecord) (classRels, interfaceRels []map[string]any) {
	for _, f := range files {
		for _, c := range f.Classes {
			rel := map[string]any{"file": c.File, "name": c.Name}
			if c.Kind == "interface" {
				interfaceRels = append(interfaceRels, rel)
			} else {
				classRels = append(classRels, rel)
			}
		}
	}
	return classRels, interfaceRels
}

// embeddingType keeps embedding_type non-null next to a stored vector
// even when the producing model was not named.
func embeddingType(model string) string {
	if model == "" {
		return "unknown"
	}
	return model
}
