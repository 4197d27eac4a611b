package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/codegraphhq/codegraph/internal/errors"
	"github.com/codegraphhq/codegraph/internal/treesitter"
)

// writeMethods upserts Method nodes keyed by signature. The id property
// mirrors the signature and is write-once via coalesce, so external
// consumers holding ids survive re-ingestion. Deprecation details and
// embeddings are preserved across runs that lack them.
func (w *Writer) writeMethods(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	total := 0
	for _, f := range input.Files {
		total += len(f.Methods)
	}
	if n := len(input.MethodEmbeddings); n > 0 && n < total {
		w.logger.Warn("Fewer method embeddings than methods; remainder written without vectors",
			"methods", total, "embeddings", n)
	}

	rows := methodRows(input.Files, input.MethodEmbeddings, input.EmbeddingModel)

	query := `
		UNWIND $nodes AS node
		MERGE (m:Method {method_signature: node.method_signature})
		SET m.id = coalesce(m.id, node.method_signature),
		    m.name = node.name,
		    m.file = node.file,
		    m.line = node.line,
		    m.estimated_lines = node.estimated_lines,
		    m.class_name = node.class_name,
		    m.containing_type = node.containing_type,
		    m.modifiers = node.modifiers,
		    m.is_static = node.is_static,
		    m.is_abstract = node.is_abstract,
		    m.is_final = node.is_final,
		    m.is_private = node.is_private,
		    m.is_public = node.is_public,
		    m.return_type = node.return_type,
		    m.cyclomatic_complexity = node.cyclomatic_complexity,
		    m.deprecated = node.deprecated,
		    m.deprecated_message = CASE WHEN node.deprecated_message IS NOT NULL THEN node.deprecated_message ELSE m.deprecated_message END,
		    m.deprecated_since = CASE WHEN node.deprecated_since IS NOT NULL THEN node.deprecated_since ELSE m.deprecated_since END,
		    m.embedding = CASE WHEN node.embedding IS NOT NULL THEN node.embedding ELSE m.embedding END,
		    m.embedding_type = CASE WHEN node.embedding IS NOT NULL THEN node.embedding_type ELSE m.embedding_type END
		RETURN count(m) AS created`

	size := w.config.MethodSize(len(input.MethodEmbeddings) > 0)
	created, batches, err := w.runBatch(ctx, session, query, "nodes", rows, size)
	if err != nil {
		return errors.GraphError(err, "writing Method nodes")
	}
	stats.addNodes("Method", created, batches)
	w.logger.Debug("Methods written", "count", len(rows))
	return nil
}

// writeFileDeclares links files to the methods they declare.
func (w *Writer) writeFileDeclares(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	rows := declaresRows(input.Files)

	query := `
		UNWIND $rels AS rel
		MATCH (f:File {path: rel.file})
		MATCH (m:Method {method_signature: rel.method_signature})
		MERGE (f)-[r:DECLARES]->(m)
		RETURN count(r) AS created`

	created, batches, err := w.runBatch(ctx, session, query, "rels", rows, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking file method declarations")
	}
	stats.addRelationships("DECLARES", created, batches)
	return nil
}

// writeMethodContainment links methods under their enclosing class or
// interface, matched by signature on the method side and (name, file) on
// the container side.
func (w *Writer) writeMethodContainment(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	classRels, interfaceRels := containmentRows(input.Files)

	classQuery := `
		UNWIND $rels AS rel
		MATCH (c:Class {name: rel.type_name, file: rel.file})
		MATCH (m:Method {method_signature: rel.method_signature})
		MERGE (c)-[r:CONTAINS_METHOD]->(m)
		RETURN count(r) AS created`

	created, batches, err := w.runBatch(ctx, session, classQuery, "rels", classRels, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking class method containment")
	}
	stats.addRelationships("CONTAINS_METHOD", created, batches)

	interfaceQuery := `
		UNWIND $rels AS rel
		MATCH (i:Interface {name: rel.type_name, file: rel.file})
		MATCH (m:Method {method_signature: rel.method_signature})
		MERGE (i)-[r:CONTAINS_METHOD]->(m)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, interfaceQuery, "rels", interfaceRels, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking interface method containment")
	}
	stats.addRelationships("CONTAINS_METHOD", created, batches)
	return nil
}

// writeParameters upserts Parameter nodes keyed by (signature, index) and
// links each under its method in the same pass.
func (w *Writer) writeParameters(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	rows := parameterRows(input.Files)

	query := `
		UNWIND $params AS param
		MERGE (p:Parameter {method_signature: param.method_signature, index: param.index})
		SET p.name = param.name,
		    p.type = param.type,
		    p.type_package = CASE WHEN param.type_package IS NOT NULL THEN param.type_package ELSE p.type_package END
		WITH param, p
		MATCH (m:Method {method_signature: param.method_signature})
		MERGE (m)-[r:HAS_PARAMETER]->(p)
		RETURN count(r) AS created`

	created, batches, err := w.runBatch(ctx, session, query, "params", rows, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "writing Parameter nodes")
	}
	stats.addNodes("Parameter", created, batches)
	stats.addRelationships("HAS_PARAMETER", created, 0)
	w.logger.Debug("Parameters written", "count", len(rows))
	return nil
}

// writeParameterTypes links parameters to declared types. The declared
// type name travels as a bare identifier, so the edge is written only
// when exactly one Class or Interface node matches; when the extraction
// resolved a package for the type, package-exact candidates are preferred
// before the uniqueness check.
func (w *Writer) writeParameterTypes(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	rows := parameterTypeRows(input.Files)

	query := `
		UNWIND $links AS link
		MATCH (p:Parameter {method_signature: link.method_signature, index: link.index})
		OPTIONAL MATCH (c:Class {name: link.type_name})
		OPTIONAL MATCH (i:Interface {name: link.type_name})
		WITH link, p, collect(DISTINCT c) + collect(DISTINCT i) AS candidates
		WITH link, p,
		     CASE
		       WHEN link.type_package IS NOT NULL AND size([x IN candidates WHERE x.package = link.type_package]) > 0
		       THEN [x IN candidates WHERE x.package = link.type_package]
		       ELSE candidates
		     END AS targets
		WHERE size(targets) = 1
		WITH p, targets[0] AS target
		MERGE (p)-[r:OF_TYPE]->(target)
		RETURN count(r) AS created`

	created, batches, err := w.runBatch(ctx, session, query, "links", rows, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking parameter types")
	}
	stats.addRelationships("OF_TYPE", created, batches)
	return nil
}

// writeCalls resolves call sites in three groups. Unqualified and
// this-qualified calls stay inside the caller's file; static calls must
// land on a static method of the named class; instance and super calls go
// through CONTAINS_METHOD on the hinted type name. Every group requires
// exactly one surviving callee, otherwise the edge is dropped.
func (w *Writer) writeCalls(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	local, static, lookup := callRows(input.Files)

	localQuery := `
		UNWIND $calls AS call
		MATCH (caller:Method {method_signature: call.caller_signature})
		MATCH (callee:Method {name: call.callee_name, class_name: call.callee_class})
		WHERE callee.file = caller.file
		WITH call, caller, collect(DISTINCT callee) AS callees
		WHERE size(callees) = 1
		WITH call, caller, callees[0] AS callee
		MERGE (caller)-[r:CALLS {type: call.call_type}]->(callee)
		SET r.qualifier = call.qualifier
		RETURN count(r) AS created`

	created, batches, err := w.runBatch(ctx, session, localQuery, "calls", local, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking same-class calls")
	}
	stats.addRelationships("CALLS", created, batches)

	staticQuery := `
		UNWIND $calls AS call
		MATCH (caller:Method {method_signature: call.caller_signature})
		MATCH (callee:Method {name: call.callee_name, class_name: call.callee_class})
		WHERE callee.is_static = true
		WITH call, caller, collect(DISTINCT callee) AS callees
		WHERE size(callees) = 1
		WITH call, caller, callees[0] AS callee
		MERGE (caller)-[r:CALLS {type: call.call_type, qualifier: call.qualifier}]->(callee)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, staticQuery, "calls", static, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking static calls")
	}
	stats.addRelationships("CALLS", created, batches)

	lookupQuery := `
		UNWIND $calls AS call
		MATCH (caller:Method {method_signature: call.caller_signature})
		MATCH (owner:Class|Interface)-[:CONTAINS_METHOD]->(callee:Method {name: call.callee_name})
		WHERE owner.name = call.callee_class
		WITH call, caller, collect(DISTINCT callee) AS callees
		WHERE size(callees) = 1
		WITH call, caller, callees[0] AS callee
		MERGE (caller)-[r:CALLS {type: call.call_type, qualifier: call.qualifier}]->(callee)
		RETURN count(r) AS created`

	created, batches, err = w.runBatch(ctx, session, lookupQuery, "calls", lookup, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking instance calls")
	}
	stats.addRelationships("CALLS", created, batches)
	return nil
}

// writeCreates links constructor invocations to the instantiated class,
// written only when exactly one Class matches the target name, with
// package-exact candidates preferred when the package is known.
func (w *Writer) writeCreates(ctx context.Context, session neo4j.SessionWithContext, input WriteInput, stats *WriteStats) error {
	rows := createsRows(input.Files)

	query := `
		UNWIND $calls AS call
		MATCH (caller:Method {method_signature: call.caller_signature})
		OPTIONAL MATCH (c:Class {name: call.target_class})
		WITH call, caller, collect(DISTINCT c) AS candidates
		WITH call, caller,
		     CASE
		       WHEN call.target_package IS NOT NULL AND size([x IN candidates WHERE x.package = call.target_package]) > 0
		       THEN [x IN candidates WHERE x.package = call.target_package]
		       ELSE candidates
		     END AS targets
		WHERE size(targets) = 1
		WITH call, caller, targets[0] AS target
		MERGE (caller)-[r:CREATES]->(target)
		SET r.qualifier = call.qualifier
		RETURN count(r) AS created`

	created, batches, err := w.runBatch(ctx, session, query, "calls", rows, w.config.Standard)
	if err != nil {
		return errors.GraphError(err, "linking constructor targets")
	}
	stats.addRelationships("CREATES", created, batches)
	return nil
}

func methodRows(files []*treesitter.FileRecord, embeddings [][]float64, model string) []map[string]any {
	var rows []map[string]any
	i := 0
	for _, f := range files {
		for _, m := range f.Methods {
			row := map[string]any{
				"method_signature":      m.MethodSignature,
				"name":                  m.Name,
				"file":                  m.File,
				"line":                  m.Line,
				"estimated_lines":       estimatedLines(m.Line, m.EndLine),
				"class_name":            m.ClassName,
				"containing_type":       m.ContainingType,
				"modifiers":             stringList(m.Modifiers),
				"is_static":             m.IsStatic,
				"is_abstract":           m.IsAbstract,
				"is_final":              m.IsFinal,
				"is_private":            m.IsPrivate,
				"is_public":             m.IsPublic,
				"return_type":           m.ReturnType,
				"cyclomatic_complexity": m.CyclomaticComplexity,
				"deprecated":            m.Deprecated,
			}
			if m.DeprecatedMessage != "" {
				row["deprecated_message"] = m.DeprecatedMessage
			}
			if m.DeprecatedSince != "" {
				row["deprecated_since"] = m.DeprecatedSince
			}
			if i < len(embeddings) && len(embeddings[i]) > 0 {
				row["embedding"] = embeddings[i]
				row["embedding_type"] = embeddingType(model)
			}
			rows = append(rows, row)
			i++
		}
	}
	return rows
}

func declaresRows(files []*treesitter.FileRecord) []map[string]any {
	var rows []map[string]any
	for _, f := range files {
		for _, m := range f.Methods {
			rows = append(rows, map[string]any{
				"file":             m.File,
				"method_signature": m.MethodSignature,
			})
		}
	}
	return rows
}

func containmentRows(files []*treesitter.FileRecord) (classRels, interfaceRels []map[string]any) {
	for _, f := range files {
		for _, m := range f.Methods {
			if m.ClassName == "" {
				continue
			}
			rel := map[string]any{
				"type_name":        m.ClassName,
				"file":             m.File,
				"method_signature": m.MethodSignature,
			}
			if m.ContainingType == "interface" {
				interfaceRels = append(interfaceRels, rel)
			} else {
				classRels = append(classRels, rel)
			}
		}
	}
	return classRels, interfaceRels
}

func parameterRows(files []*treesitter.FileRecord) []map[string]any {
	var rows []map[string]any
	for _, f := range files {
		for _, m := range f.Methods {
			for i, p := range m.Parameters {
				row := map[string]any{
					"method_signature": m.MethodSignature,
					"index":            i,
					"name":             p.Name,
					"type":             p.Type,
				}
				if p.TypePackage != "" {
					row["type_package"] = p.TypePackage
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func parameterTypeRows(files []*treesitter.FileRecord) []map[string]any {
	var rows []map[string]any
	for _, f := range files {
		for _, m := range f.Methods {
			for i, p := range m.Parameters {
				if !linkableTypeName(p.Type) {
					continue
				}
				row := map[string]any{
					"method_signature": m.MethodSignature,
					"index":            i,
					"type_name":        p.Type,
				}
				if p.TypePackage != "" {
					row["type_package"] = p.TypePackage
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// linkableTypeName filters out primitives and void, which never name a
// declared type.
func linkableTypeName(t string) bool {
	return t != "" && t[0] >= 'A' && t[0] <= 'Z'
}

func callRows(files []*treesitter.FileRecord) (local, static, lookup []map[string]any) {
	for _, f := range files {
		for _, m := range f.Methods {
			for _, call := range m.Calls {
				if call.CallType == treesitter.CallTypeConstructor {
					continue
				}
				if call.TargetClass == "" {
					continue
				}

				row := map[string]any{
					"caller_signature": m.MethodSignature,
					"callee_name":      call.MethodName,
					"callee_class":     call.TargetClass,
					"call_type":        call.CallType,
				}
				if call.Qualifier != "" {
					row["qualifier"] = call.Qualifier
				}

				switch call.CallType {
				case treesitter.CallTypeSameClass, treesitter.CallTypeThis:
					local = append(local, row)
				case treesitter.CallTypeStatic:
					static = append(static, row)
				default:
					// Single-letter names are overwhelmingly loop
					// variables misread as receivers
					if len(call.MethodName) > 1 {
						lookup = append(lookup, row)
					}
				}
			}
		}
	}
	return local, static, lookup
}

func createsRows(files []*treesitter.FileRecord) []map[string]any {
	var rows []map[string]any
	for _, f := range files {
		for _, m := range f.Methods {
			for _, call := range m.Calls {
				if call.CallType != treesitter.CallTypeConstructor || call.TargetClass == "" {
					continue
				}
				row := map[string]any{
					"caller_signature": m.MethodSignature,
					"target_class":     call.TargetClass,
				}
				if call.TargetPackage != "" {
					row["target_package"] = call.TargetPackage
				}
				if call.Qualifier != "" {
					row["qualifier"] = call.Qualifier
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}
