package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/codegraphhq/codegraph/internal/errors"
	"github.com/codegraphhq/codegraph/internal/treesitter"
)

// writeDocs upserts Doc nodes keyed by (file, start_line, end_line, kind)
// and attaches them. Every doc hangs off its file; class-scope docs also
// hang off the class and method-scope docs off the method.
func (w *Writer) writeDocs(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	nodes, fileRels, classRels, methodRels := docRows(input.Files)

	nodeQuery := `
		UNWIND $nodes AS node
		MERGE (d:Doc {file: node.file, start_line: node.start_line, end_line: node.end_line, kind: node.kind})
		SET d.language = node.language,
		    d.scope = node.scope,
		    d.text = node.text,
		    d.class_name = CASE WHEN node.class_name IS NOT NULL THEN node.class_name ELSE d.class_name END,
		    d.method_signature = CASE WHEN node.method_signature IS NOT NULL THEN node.method_signature ELSE d.method_signature END
		RETURN count(d) AS created`

	created, batches, err := w.runBatch(ctx, session, nodeQuery, "nodes", nodes, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "writing Doc nodes")
	}
	stats.addNodes("Doc", created, batches)
	w.logger.Debug("Docs written", "count", len(nodes))

	fileQuery := `
		UNWIND $rels AS rel
		MATCH (d:Doc {file: rel.file, start_line: rel.start_line, end_line: rel.end_line, kind: rel.kind})
		MATCH (f:File {path: rel.file})
		MERGE (f)-[r:HAS_DOC]->(d)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, fileQuery, "rels", fileRels, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking file docs")
	}
	stats.addRelationships("HAS_DOC", created, batches)

	classQuery := `
		UNWIND $rels AS rel
		MATCH (d:Doc {file: rel.file, start_line: rel.start_line, end_line: rel.end_line, kind: rel.kind})
		MATCH (c:Class {name: rel.class_name, file: rel.file})
		MERGE (c)-[r:HAS_DOC]->(d)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, classQuery, "rels", classRels, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking class docs")
	}
	stats.addRelationships("HAS_DOC", created, batches)

	methodQuery := `
		UNWIND $rels AS rel
		MATCH (d:Doc {file: rel.file, start_line: rel.start_line, end_line: rel.end_line, kind: rel.kind})
		MATCH (m:Method {method_signature: rel.method_signature})
		MERGE (m)-[r:HAS_DOC]->(d)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, methodQuery, "rels", methodRels, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking method docs")
	}
	stats.addRelationships("HAS_DOC", created, batches)
	return nil
}

func docRows(files []*treesitter.FileRecord) (nodes, fileRels, classRels, methodRels []map[string]any) {
	key := func(d treesitter.DocRecord) map[string]any {
		return map[string]any{
			"file":       d.File,
			"start_line": d.StartLine,
			"end_line":   d.EndLine,
			"kind":       d.Kind,
		}
	}

	for _, f := range files {
		for _, d := range f.Docs {
			node := key(d)
			node["language"] = d.Language
			node["scope"] = d.Scope
			node["text"] = d.Text
			if d.ClassName != "" {
				node["class_name"] = d.ClassName
			}
			if d.MethodSignature != "" {
				node["method_signature"] = d.MethodSignature
			}
			nodes = append(nodes, node)

			fileRels = append(fileRels, key(d))

			switch {
			case d.Scope == treesitter.DocScopeClass && d.ClassName != "":
				rel := key(d)
				rel["class_name"] = d.ClassName
				classRels = append(classRels, rel)
			case d.Scope == treesitter.DocScopeMethod && d.MethodSignature != "":
				rel := key(d)
				rel["method_signature"] = d.MethodSignature
				methodRels = append(methodRels, rel)
			}
		}
	}
	return nodes, fileRels, classRels, methodRels
}
