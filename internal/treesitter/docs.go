package treesitter

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// attachLeadingDoc records the javadoc block or run of line comments
// sitting directly above a declaration. The comment must end on the line
// before the declaration starts. For methods, a javadoc @deprecated tag is
// folded back into the method record.
func (ex *javaExtractor) attachLeadingDoc(decl *sitter.Node, scope, className string, method *MethodRecord) {
	prev := decl.PrevSibling()
	if prev == nil {
		return
	}

	declRow := int(decl.StartPosition().Row)

	switch prev.Kind() {
	case "block_comment":
		text := getNodeText(prev, ex.code)
		if !strings.HasPrefix(text, "/**") {
			return
		}
		if declRow-int(prev.EndPosition().Row) > 1 {
			return
		}

		doc := DocRecord{
			File:      ex.relPath,
			Language:  "java",
			Kind:      DocKindJavadoc,
			StartLine: nodeLine(prev),
			EndLine:   nodeEndLine(prev),
			Text:      text,
			Scope:     scope,
		}
		bindDocTarget(&doc, className, method)
		ex.file.Docs = append(ex.file.Docs, doc)

		if method != nil {
			applyJavadocDeprecation(method, text)
		}

	case "line_comment":
		if declRow-int(prev.EndPosition().Row) > 1 {
			return
		}

		// Collect the unbroken run of line comments ending at prev
		first := prev
		for {
			p := first.PrevSibling()
			if p == nil || p.Kind() != "line_comment" {
				break
			}
			if int(first.StartPosition().Row)-int(p.EndPosition().Row) > 1 {
				break
			}
			first = p
		}

		doc := DocRecord{
			File:      ex.relPath,
			Language:  "java",
			Kind:      DocKindLineComment,
			StartLine: nodeLine(first),
			EndLine:   nodeEndLine(prev),
			Text:      string(ex.code[first.StartByte():prev.EndByte()]),
			Scope:     scope,
		}
		bindDocTarget(&doc, className, method)
		ex.file.Docs = append(ex.file.Docs, doc)
	}
}

// bindDocTarget sets exactly one owner reference on a doc record
func bindDocTarget(doc *DocRecord, className string, method *MethodRecord) {
	if method != nil {
		doc.MethodSignature = method.MethodSignature
		return
	}
	doc.ClassName = className
}

// applyJavadocDeprecation marks a method deprecated when its javadoc
// carries an @deprecated tag, taking the tag text as the message
func applyJavadocDeprecation(method *MethodRecord, text string) {
	idx := strings.Index(text, "@deprecated")
	if idx < 0 {
		return
	}
	method.Deprecated = true

	rest := strings.TrimSuffix(strings.TrimSpace(text[idx+len("@deprecated"):]), "*/")

	var parts []string
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if strings.HasPrefix(line, "@") {
			break
		}
		if line != "" {
			parts = append(parts, line)
		}
	}

	if method.DeprecatedMessage == "" && len(parts) > 0 {
		method.DeprecatedMessage = strings.Join(parts, " ")
	}
}
