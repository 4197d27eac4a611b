package treesitter

import (
	"fmt"
	"os"
	"path/filepath"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/codegraphhq/codegraph/internal/errors"
)

// LanguageParser wraps tree-sitter parser with language-specific grammar
// IMPORTANT: Always call Close() to prevent memory leaks (CGO requirement)
type LanguageParser struct {
	parser   *sitter.Parser
	language *sitter.Language
	langName string
}

// NewLanguageParser creates a parser for the specified language
// Supported languages: java
// Returns error if language is unsupported
func NewLanguageParser(lang string) (*LanguageParser, error) {
	parser := sitter.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("failed to create tree-sitter parser")
	}

	var language *sitter.Language
	switch lang {
	case "java":
		language = sitter.NewLanguage(tree_sitter_java.Language())
	default:
		parser.Close()
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	if err := parser.SetLanguage(language); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set language %s: %w", lang, err)
	}

	return &LanguageParser{
		parser:   parser,
		language: language,
		langName: lang,
	}, nil
}

// Close releases parser resources (REQUIRED - CGO memory management)
func (lp *LanguageParser) Close() {
	if lp.parser != nil {
		lp.parser.Close()
	}
}

// Parse parses source code and returns the syntax tree
// Caller must call tree.Close() when done
func (lp *LanguageParser) Parse(code []byte) (*sitter.Tree, error) {
	tree := lp.parser.Parse(code, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse code")
	}
	return tree, nil
}

// ParseFile parses a file and extracts its declarations.
// relPath is the repository-relative path recorded on every entity.
// Errors are recorded on the result, never returned, so one broken file
// cannot abort a run.
func ParseFile(filePath, relPath string, opts ExtractOptions) *ParseResult {
	lang := DetectLanguage(filePath)
	if lang == "" {
		return &ParseResult{
			FilePath: relPath,
			Error:    fmt.Errorf("unsupported file type: %s", filePath),
		}
	}

	code, err := os.ReadFile(filePath)
	if err != nil {
		return &ParseResult{
			FilePath: relPath,
			Error:    errors.FileSystemError(err, "failed to read file"),
		}
	}

	return ParseSource(relPath, code, opts)
}

// ParseSource parses in-memory Java source and extracts its declarations
func ParseSource(relPath string, code []byte, opts ExtractOptions) *ParseResult {
	lp, err := NewLanguageParser("java")
	if err != nil {
		return &ParseResult{
			FilePath: relPath,
			Error:    fmt.Errorf("failed to create parser: %w", err),
		}
	}
	defer lp.Close()

	tree, err := lp.Parse(code)
	if err != nil {
		return &ParseResult{
			FilePath: relPath,
			Error:    errors.ParseError(err, "failed to parse"),
		}
	}
	defer tree.Close()

	file, err := extractJavaEntities(relPath, tree.RootNode(), code, opts)
	if err != nil {
		return &ParseResult{
			FilePath: relPath,
			Language: "java",
			Error:    err,
		}
	}

	return &ParseResult{
		FilePath: relPath,
		Language: "java",
		File:     file,
	}
}

// DetectLanguage returns language identifier from file extension
func DetectLanguage(filePath string) string {
	ext := filepath.Ext(filePath)

	langMap := map[string]string{
		".java": "java",
	}

	return langMap[ext]
}
