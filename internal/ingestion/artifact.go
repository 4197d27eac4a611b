package ingestion

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"

	"github.com/codegraphhq/codegraph/internal/errors"
	"github.com/codegraphhq/codegraph/internal/manifest"
	"github.com/codegraphhq/codegraph/internal/treesitter"
)

// FileArtifact is the serialized per-file record of the extraction
// artifact. Class and interface declarations are split into separate
// lists, and aggregate counts ride along so consumers need not recount.
type FileArtifact struct {
	Path       string                    `json:"path"`
	Code       string                    `json:"code"`
	Package    string                    `json:"package,omitempty"`
	Language   string                    `json:"language"`
	Ecosystem  string                    `json:"ecosystem"`
	Methods    []treesitter.MethodRecord `json:"methods"`
	Classes    []treesitter.ClassRecord  `json:"classes"`
	Interfaces []treesitter.ClassRecord  `json:"interfaces"`
	Imports    []treesitter.ImportRecord `json:"imports"`
	Docs       []treesitter.DocRecord    `json:"docs"`

	TotalLines     int `json:"total_lines"`
	CodeLines      int `json:"code_lines"`
	MethodCount    int `json:"method_count"`
	ClassCount     int `json:"class_count"`
	InterfaceCount int `json:"interface_count"`
}

// BuildFileArtifacts converts a processing result into the serializable
// extraction artifact. Source contents are re-read from the tree under
// result.Root; a file that vanished since the walk keeps an empty code
// field.
func BuildFileArtifacts(result *Result) []FileArtifact {
	out := make([]FileArtifact, 0, len(result.Files))
	for _, f := range result.Files {
		classes, interfaces := splitTypeKinds(f.Classes)

		code := ""
		if raw, err := os.ReadFile(filepath.Join(result.Root, filepath.FromSlash(f.Path))); err == nil {
			code = string(raw)
		}

		out = append(out, FileArtifact{
			Path:           f.Path,
			Code:           code,
			Package:        f.Package,
			Language:       "java",
			Ecosystem:      "maven",
			Methods:        f.Methods,
			Classes:        classes,
			Interfaces:     interfaces,
			Imports:        f.Imports,
			Docs:           f.Docs,
			TotalLines:     f.TotalLines,
			CodeLines:      f.CodeLines,
			MethodCount:    len(f.Methods),
			ClassCount:     len(classes),
			InterfaceCount: len(interfaces),
		})
	}
	return out
}

func splitTypeKinds(records []treesitter.ClassRecord) (classes, interfaces []treesitter.ClassRecord) {
	classes = []treesitter.ClassRecord{}
	interfaces = []treesitter.ClassRecord{}
	for _, r := range records {
		if r.Kind == "interface" {
			interfaces = append(interfaces, r)
		} else {
			classes = append(classes, r)
		}
	}
	return classes, interfaces
}

// ToFileRecords converts loaded artifacts back into extraction records
// for the graph writer.
func ToFileRecords(artifacts []FileArtifact) []*treesitter.FileRecord {
	records := make([]*treesitter.FileRecord, 0, len(artifacts))
	for _, a := range artifacts {
		classes := append([]treesitter.ClassRecord{}, a.Classes...)
		classes = append(classes, a.Interfaces...)

		records = append(records, &treesitter.FileRecord{
			Path:       a.Path,
			Name:       path.Base(a.Path),
			Package:    a.Package,
			Classes:    classes,
			Methods:    a.Methods,
			Imports:    a.Imports,
			Docs:       a.Docs,
			TotalLines: a.TotalLines,
			CodeLines:  a.CodeLines,
		})
	}
	return records
}

// WriteArtifact serializes the extraction artifact to outPath.
func WriteArtifact(outPath string, result *Result) error {
	data, err := json.MarshalIndent(BuildFileArtifacts(result), "", "  ")
	if err != nil {
		return errors.InternalErrorf("failed to encode artifact: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return errors.FileSystemError(err, "failed to write artifact")
	}
	return nil
}

// LoadArtifact reads an extraction artifact written by WriteArtifact.
func LoadArtifact(inPath string) ([]FileArtifact, error) {
	raw, err := os.ReadFile(inPath)
	if err != nil {
		return nil, errors.FileSystemError(err, "failed to read artifact")
	}
	var artifacts []FileArtifact
	if err := json.Unmarshal(raw, &artifacts); err != nil {
		return nil, errors.ValidationErrorf("invalid artifact %s: %v", inPath, err)
	}
	return artifacts, nil
}

// WriteDependencyArtifact serializes the flat coordinate→version map.
func WriteDependencyArtifact(outPath string, m *manifest.Map) error {
	data, err := json.MarshalIndent(m.Flatten(), "", "  ")
	if err != nil {
		return errors.InternalErrorf("failed to encode dependency map: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return errors.FileSystemError(err, "failed to write dependency map")
	}
	return nil
}

// LoadDependencyArtifact reads a flat dependency map back into a
// resolvable coordinate map.
func LoadDependencyArtifact(inPath string) (*manifest.Map, error) {
	raw, err := os.ReadFile(inPath)
	if err != nil {
		return nil, errors.FileSystemError(err, "failed to read dependency map")
	}
	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, errors.ValidationErrorf("invalid dependency map %s: %v", inPath, err)
	}
	return manifest.LoadFlat(flat), nil
}
