package treesitter

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// getNodeText extracts text from a node using byte offsets
func getNodeText(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if int(end) > len(code) {
		end = uint(len(code))
	}
	return string(code[start:end])
}

// nodeLine returns the 1-based start line of a node
func nodeLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// nodeEndLine returns the 1-based end line of a node
func nodeEndLine(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

// childOfKind returns the first direct child with the given kind
func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// typeName reduces a type node to its simple name and an explicit package
// prefix when the type is written qualified in source.
// Generics and array dimensions are stripped: List<String> -> List,
// com.app.Model -> (Model, com.app), Map.Entry -> (Entry, "").
func typeName(node *sitter.Node, code []byte) (name, pkg string) {
	if node == nil {
		return "", ""
	}

	switch node.Kind() {
	case "type_identifier", "identifier",
		"integral_type", "floating_point_type", "boolean_type", "void_type":
		return getNodeText(node, code), ""
	case "scoped_type_identifier":
		return splitQualifiedType(getNodeText(node, code))
	case "generic_type":
		// First child is the raw type, type_arguments follow
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "type_identifier", "scoped_type_identifier":
				return typeName(child, code)
			}
		}
	case "array_type":
		if elem := node.ChildByFieldName("element"); elem != nil {
			return typeName(elem, code)
		}
	}

	// Fallback: raw text with generics and dimensions stripped
	text := getNodeText(node, code)
	if idx := strings.IndexByte(text, '<'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "[]")
	return splitQualifiedType(text)
}

// splitQualifiedType splits a dotted type reference into simple name and
// package. A prefix starting with an uppercase letter is a nested type
// reference, not a package, and is dropped.
func splitQualifiedType(text string) (name, pkg string) {
	idx := strings.LastIndexByte(text, '.')
	if idx < 0 {
		return text, ""
	}
	name = text[idx+1:]
	prefix := text[:idx]
	if prefix == "" {
		return name, ""
	}
	first := rune(prefix[0])
	if first >= 'A' && first <= 'Z' {
		return name, ""
	}
	return name, prefix
}
