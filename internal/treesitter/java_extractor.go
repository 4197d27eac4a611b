package treesitter

import (
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// javaExtractor carries per-file state through one extraction pass.
// imported maps simple type names to the package they were imported from;
// declared holds type names defined in this file. Both feed parameter and
// constructor-call package resolution.
type javaExtractor struct {
	relPath string
	code    []byte
	opts    ExtractOptions
	file    *FileRecord

	imported    map[string]string
	declared    map[string]bool
	commentRows map[int]bool
}

// extractJavaEntities walks a parsed Java compilation unit and builds the
// file record that drives artifact serialization and graph writes.
func extractJavaEntities(relPath string, root *sitter.Node, code []byte, opts ExtractOptions) (*FileRecord, error) {
	file := &FileRecord{
		Path:    relPath,
		Name:    filepath.Base(relPath),
		Classes: []ClassRecord{},
		Methods: []MethodRecord{},
		Imports: []ImportRecord{},
	}

	ex := &javaExtractor{
		relPath:     relPath,
		code:        code,
		opts:        opts,
		file:        file,
		imported:    make(map[string]string),
		declared:    make(map[string]bool),
		commentRows: make(map[int]bool),
	}

	// Pre-pass: a parameter type may reference a class declared later in
	// the same file, so declared names are collected before any method.
	ex.collectDeclaredTypes(root)

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Kind() {
		case "package_declaration":
			ex.extractPackage(node)
		case "import_declaration":
			ex.extractImport(node)
		case "class_declaration":
			ex.extractType(node, "class")
		case "interface_declaration":
			ex.extractType(node, "interface")
		case "method_declaration":
			ex.extractMethod(node, false)
		case "constructor_declaration":
			ex.extractMethod(node, true)
		case "line_comment", "block_comment":
			ex.markCommentRows(node)
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)

	ex.countLines()
	return file, nil
}

// collectDeclaredTypes records the simple names of every type declared in
// the file, including nested ones
func (ex *javaExtractor) collectDeclaredTypes(root *sitter.Node) {
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		switch node.Kind() {
		case "class_declaration", "interface_declaration", "enum_declaration",
			"record_declaration", "annotation_type_declaration":
			if name := node.ChildByFieldName("name"); name != nil {
				ex.declared[getNodeText(name, ex.code)] = true
			}
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
}

func (ex *javaExtractor) extractPackage(node *sitter.Node) {
	if name := childOfKind(node, "scoped_identifier"); name != nil {
		ex.file.Package = getNodeText(name, ex.code)
		return
	}
	if name := childOfKind(node, "identifier"); name != nil {
		ex.file.Package = getNodeText(name, ex.code)
	}
}

func (ex *javaExtractor) extractImport(node *sitter.Node) {
	pathNode := childOfKind(node, "scoped_identifier")
	if pathNode == nil {
		pathNode = childOfKind(node, "identifier")
	}
	if pathNode == nil {
		return
	}

	importPath := getNodeText(pathNode, ex.code)
	isStatic := childOfKind(node, "static") != nil
	isWildcard := childOfKind(node, "asterisk") != nil
	if isWildcard {
		importPath += ".*"
	}

	ex.file.Imports = append(ex.file.Imports, ImportRecord{
		File:           ex.relPath,
		ImportPath:     importPath,
		IsStatic:       isStatic,
		IsWildcard:     isWildcard,
		Classification: ClassifyImport(importPath, ex.opts.InternalPrefixes),
	})

	// A single-type import binds its simple name for type resolution.
	// Static imports bind members, wildcards bind nothing concrete.
	if !isStatic && !isWildcard {
		if idx := strings.LastIndexByte(importPath, '.'); idx > 0 {
			ex.imported[importPath[idx+1:]] = importPath[:idx]
		}
	}
}

// ClassifyImport buckets an import path: java./javax. prefixes are standard
// library, configured internal prefixes are internal, everything else is an
// external dependency
func ClassifyImport(importPath string, internalPrefixes []string) string {
	if strings.HasPrefix(importPath, "java.") || strings.HasPrefix(importPath, "javax.") {
		return ImportStandard
	}
	for _, prefix := range internalPrefixes {
		if prefix != "" && strings.HasPrefix(importPath, prefix) {
			return ImportInternal
		}
	}
	return ImportExternal
}

func (ex *javaExtractor) extractType(node *sitter.Node, kind string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	rec := ClassRecord{
		Name:    getNodeText(nameNode, ex.code),
		Kind:    kind,
		File:    ex.relPath,
		Package: ex.file.Package,
		Line:    nodeLine(node),
		EndLine: nodeEndLine(node),
	}

	if mods := childOfKind(node, "modifiers"); mods != nil {
		rec.Modifiers = modifierList(mods, ex.code)
	}
	for _, m := range rec.Modifiers {
		switch m {
		case "abstract":
			rec.IsAbstract = true
		case "final":
			rec.IsFinal = true
		}
	}

	switch kind {
	case "class":
		if sup := node.ChildByFieldName("superclass"); sup != nil {
			rec.Superclass = firstTypeIn(sup, ex.code)
		}
		if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
			rec.Interfaces = typeListNames(ifaces, ex.code)
		}
	case "interface":
		if ext := childOfKind(node, "extends_interfaces"); ext != nil {
			rec.Interfaces = typeListNames(ext, ex.code)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			for i := uint(0); i < body.ChildCount(); i++ {
				if child := body.Child(i); child != nil && child.Kind() == "method_declaration" {
					rec.MethodCount++
				}
			}
		}
	}

	ex.file.Classes = append(ex.file.Classes, rec)

	if ex.opts.IncludeDocs {
		ex.attachLeadingDoc(node, DocScopeClass, rec.Name, nil)
	}
}

func (ex *javaExtractor) extractMethod(node *sitter.Node, isConstructor bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	rec := MethodRecord{
		Name:                 getNodeText(nameNode, ex.code),
		Package:              ex.file.Package,
		File:                 ex.relPath,
		Line:                 nodeLine(node),
		EndLine:              nodeEndLine(node),
		IsConstructor:        isConstructor,
		Parameters:           []Parameter{},
		Calls:                []CallSite{},
		CyclomaticComplexity: 1,
	}

	if enclosing := enclosingType(node); enclosing != nil {
		if n := enclosing.ChildByFieldName("name"); n != nil {
			rec.ClassName = getNodeText(n, ex.code)
		}
		if enclosing.Kind() == "interface_declaration" {
			rec.ContainingType = "interface"
		} else {
			rec.ContainingType = "class"
		}
	}

	if mods := childOfKind(node, "modifiers"); mods != nil {
		rec.Modifiers = modifierList(mods, ex.code)
		ex.applyDeprecatedAnnotation(&rec, mods)
	}
	for _, m := range rec.Modifiers {
		switch m {
		case "public":
			rec.IsPublic = true
		case "private":
			rec.IsPrivate = true
		case "protected":
			rec.IsProtected = true
		case "static":
			rec.IsStatic = true
		case "abstract":
			rec.IsAbstract = true
		case "final":
			rec.IsFinal = true
		}
	}

	if !isConstructor {
		if t := node.ChildByFieldName("type"); t != nil {
			rec.ReturnType, _ = typeName(t, ex.code)
		}
	}

	rec.Parameters = ex.extractParameters(node.ChildByFieldName("parameters"))
	rec.MethodSignature = BuildMethodSignature(ex.file.Package, rec.ClassName, rec.Name, rec.Parameters, rec.ReturnType)

	if body := node.ChildByFieldName("body"); body != nil {
		rec.EndLine = nodeEndLine(body)
		bodyText := getNodeText(body, ex.code)
		rec.Calls = ExtractCalls(bodyText, rec.ClassName)
		rec.Calls = append(rec.Calls, ExtractConstructorCalls(bodyText, ex.resolveSimpleType)...)
		rec.CyclomaticComplexity = cyclomaticComplexity(body, ex.code)
	}

	ex.file.Methods = append(ex.file.Methods, rec)

	if ex.opts.IncludeDocs {
		last := &ex.file.Methods[len(ex.file.Methods)-1]
		ex.attachLeadingDoc(node, DocScopeMethod, rec.ClassName, last)
	}
}

func (ex *javaExtractor) extractParameters(params *sitter.Node) []Parameter {
	out := []Parameter{}
	if params == nil {
		return out
	}

	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "formal_parameter":
			p := Parameter{}
			if t := child.ChildByFieldName("type"); t != nil {
				name, pkg := typeName(t, ex.code)
				p.Type = name
				p.TypePackage = ex.resolveTypePackage(name, pkg)
			}
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = getNodeText(n, ex.code)
			}
			out = append(out, p)

		case "spread_parameter":
			// Varargs: the type precedes "...", the declarator holds the name
			p := Parameter{}
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub == nil {
					continue
				}
				if sub.Kind() == "variable_declarator" {
					if n := sub.ChildByFieldName("name"); n != nil {
						p.Name = getNodeText(n, ex.code)
					}
					continue
				}
				if sub.Kind() == "modifiers" || !sub.IsNamed() {
					continue
				}
				if p.Type == "" {
					name, pkg := typeName(sub, ex.code)
					p.Type = name
					p.TypePackage = ex.resolveTypePackage(name, pkg)
				}
			}
			out = append(out, p)
		}
	}
	return out
}

// resolveTypePackage resolves a parameter or constructor type to its
// package: an explicit qualifier in source wins, then single-type imports,
// then types declared in the same file
func (ex *javaExtractor) resolveTypePackage(name, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if pkg, ok := ex.imported[name]; ok {
		return pkg
	}
	if ex.declared[name] {
		return ex.file.Package
	}
	return ""
}

func (ex *javaExtractor) resolveSimpleType(name string) string {
	return ex.resolveTypePackage(name, "")
}

// applyDeprecatedAnnotation flags a method carrying @Deprecated and lifts
// the annotation's since element when present
func (ex *javaExtractor) applyDeprecatedAnnotation(rec *MethodRecord, mods *sitter.Node) {
	for i := uint(0); i < mods.ChildCount(); i++ {
		child := mods.Child(i)
		if child == nil {
			continue
		}
		kind := child.Kind()
		if kind != "marker_annotation" && kind != "annotation" {
			continue
		}

		name := getNodeText(child.ChildByFieldName("name"), ex.code)
		if name != "Deprecated" && !strings.HasSuffix(name, ".Deprecated") {
			continue
		}
		rec.Deprecated = true

		args := child.ChildByFieldName("arguments")
		if args == nil {
			continue
		}
		for j := uint(0); j < args.ChildCount(); j++ {
			pair := args.Child(j)
			if pair == nil || pair.Kind() != "element_value_pair" {
				continue
			}
			key := getNodeText(pair.ChildByFieldName("key"), ex.code)
			if key == "since" {
				rec.DeprecatedSince = strings.Trim(getNodeText(pair.ChildByFieldName("value"), ex.code), `"`)
			}
		}
	}
}

// cyclomaticComplexity counts decision points in a method body: branches,
// loops, catch clauses, non-default switch arms, ternaries and
// short-circuit operators, plus one for the method entry
func cyclomaticComplexity(body *sitter.Node, code []byte) int {
	complexity := 1

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Kind() {
		case "if_statement", "for_statement", "enhanced_for_statement",
			"while_statement", "do_statement", "catch_clause",
			"ternary_expression":
			complexity++
		case "switch_label":
			if !strings.HasPrefix(getNodeText(node, code), "default") {
				complexity++
			}
		case "binary_expression":
			if op := node.ChildByFieldName("operator"); op != nil {
				switch getNodeText(op, code) {
				case "&&", "||":
					complexity++
				}
			}
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(body)

	return complexity
}

// enclosingType finds the nearest type declaration wrapping a method node
func enclosingType(node *sitter.Node) *sitter.Node {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Kind() {
		case "class_declaration", "interface_declaration",
			"enum_declaration", "record_declaration":
			return parent
		}
	}
	return nil
}

// modifierList returns keyword modifiers, skipping annotations
func modifierList(mods *sitter.Node, code []byte) []string {
	var out []string
	for i := uint(0); i < mods.ChildCount(); i++ {
		child := mods.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "marker_annotation", "annotation":
			continue
		}
		out = append(out, getNodeText(child, code))
	}
	return out
}

// firstTypeIn returns the simple name of the first type under a clause
// node such as a superclass clause
func firstTypeIn(node *sitter.Node, code []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		name, _ := typeName(child, code)
		return name
	}
	return ""
}

// typeListNames returns the simple names in an implements or extends clause
func typeListNames(node *sitter.Node, code []byte) []string {
	list := childOfKind(node, "type_list")
	if list == nil {
		list = node
	}

	var out []string
	for i := uint(0); i < list.ChildCount(); i++ {
		child := list.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		name, _ := typeName(child, code)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// markCommentRows flags rows occupied by a comment so the code-line count
// can skip them. A trailing comment does not claim the code on its line.
func (ex *javaExtractor) markCommentRows(node *sitter.Node) {
	start := int(node.StartPosition().Row)
	end := int(node.EndPosition().Row)
	if hasCodeBefore(ex.code, node.StartByte()) {
		start++
	}
	for row := start; row <= end; row++ {
		ex.commentRows[row] = true
	}
}

func hasCodeBefore(code []byte, offset uint) bool {
	i := int(offset) - 1
	if i >= len(code) {
		i = len(code) - 1
	}
	for ; i >= 0; i-- {
		switch code[i] {
		case '\n':
			return false
		case ' ', '\t', '\r':
			continue
		default:
			return true
		}
	}
	return false
}

// countLines fills the per-file line aggregates: total lines and lines
// that are neither blank nor comment-only
func (ex *javaExtractor) countLines() {
	lines := strings.Split(string(ex.code), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	codeLines := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if ex.commentRows[i] {
			continue
		}
		codeLines++
	}

	ex.file.TotalLines = len(lines)
	ex.file.CodeLines = codeLines
}
