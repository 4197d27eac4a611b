package treesitter

// FileRecord holds everything extracted from a single Java source file.
// These records are aggregated into the extraction artifact and drive
// every node and relationship the graph writer creates.
type FileRecord struct {
	Path    string         `json:"path"`
	Name    string         `json:"name"`
	Package string         `json:"package,omitempty"`
	Classes []ClassRecord  `json:"classes"`
	Methods []MethodRecord `json:"methods"`
	Imports []ImportRecord `json:"imports"`
	Docs    []DocRecord    `json:"docs,omitempty"`

	TotalLines int `json:"total_lines"`
	CodeLines  int `json:"code_lines"`
}

// ClassRecord represents a class or interface declaration
type ClassRecord struct {
	Name    string `json:"name"`
	Kind    string `json:"type"` // "class" or "interface"
	File    string `json:"file"`
	Package string `json:"package,omitempty"`
	Line    int    `json:"line"`
	EndLine int    `json:"end_line"`

	// Superclass holds the extended class name (classes only)
	Superclass string `json:"superclass,omitempty"`

	// Interfaces holds implemented interface names for classes,
	// or extended interface names for interfaces
	Interfaces []string `json:"interfaces,omitempty"`

	Modifiers  []string `json:"modifiers,omitempty"`
	IsAbstract bool     `json:"is_abstract"`
	IsFinal    bool     `json:"is_final"`

	// MethodCount is recorded for interfaces
	MethodCount int `json:"method_count,omitempty"`
}

// MethodRecord represents a method declaration
type MethodRecord struct {
	Name           string `json:"name"`
	ClassName      string `json:"class_name,omitempty"`
	ContainingType string `json:"containing_type,omitempty"` // "class" or "interface"
	Package        string `json:"package,omitempty"`
	File           string `json:"file"`
	Line           int    `json:"line"`
	EndLine        int    `json:"end_line"`

	ReturnType string      `json:"return_type"`
	Parameters []Parameter `json:"parameters"`

	// MethodSignature is the stable identity used for Method node MERGE
	MethodSignature string `json:"method_signature"`

	Modifiers     []string `json:"modifiers,omitempty"`
	IsPublic      bool     `json:"is_public"`
	IsPrivate     bool     `json:"is_private"`
	IsProtected   bool     `json:"is_protected"`
	IsStatic      bool     `json:"is_static"`
	IsAbstract    bool     `json:"is_abstract"`
	IsFinal       bool     `json:"is_final"`
	IsConstructor bool     `json:"is_constructor,omitempty"`

	CyclomaticComplexity int `json:"cyclomatic_complexity"`

	Deprecated        bool   `json:"deprecated"`
	DeprecatedMessage string `json:"deprecated_message,omitempty"`
	DeprecatedSince   string `json:"deprecated_since,omitempty"`

	// Calls lists every call site found in the method body
	Calls []CallSite `json:"calls"`
}

// Parameter represents a single method parameter.
// Type is the simple type name as written; TypePackage is filled when the
// package could be resolved from a qualified name, an import, or a
// declaration in the same file.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	TypePackage string `json:"type_package,omitempty"`
}

// Call types produced by call-site classification
const (
	CallTypeSameClass   = "same_class"
	CallTypeThis        = "this"
	CallTypeSuper       = "super"
	CallTypeStatic      = "static"
	CallTypeInstance    = "instance"
	CallTypeConstructor = "constructor"
)

// CallSite represents one method or constructor invocation inside a method body
type CallSite struct {
	MethodName  string `json:"method_name"`
	TargetClass string `json:"target_class,omitempty"`

	// TargetPackage is resolved for constructor calls when the created
	// type's package is known from a qualified name or an import
	TargetPackage string `json:"target_package,omitempty"`

	Qualifier string `json:"qualifier,omitempty"`
	CallType  string `json:"call_type"`
}

// Import classifications
const (
	ImportStandard = "standard"
	ImportInternal = "internal"
	ImportExternal = "external"
)

// ImportRecord represents one import declaration
type ImportRecord struct {
	File       string `json:"file"`
	ImportPath string `json:"import_path"`
	IsStatic   bool   `json:"is_static"`
	IsWildcard bool   `json:"is_wildcard"`

	// Classification is "standard", "internal", or "external"
	Classification string `json:"import_type"`
}

// Doc kinds and scopes
const (
	DocKindJavadoc     = "javadoc"
	DocKindLineComment = "line_comment"

	DocScopeClass  = "class"
	DocScopeMethod = "method"
)

// DocRecord represents a javadoc block or leading line comment attached to a
// class or method declaration. Identity in the graph is
// (file, start_line, end_line, kind).
type DocRecord struct {
	File      string `json:"file"`
	Language  string `json:"language"`
	Kind      string `json:"kind"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`

	// Exactly one of ClassName or MethodSignature is set, matching Scope
	ClassName       string `json:"class_name,omitempty"`
	MethodSignature string `json:"method_signature,omitempty"`
	Scope           string `json:"scope"`
}

// ParseResult contains everything extracted from a file.
// A failed parse sets Error and leaves File nil; parse failures are
// per-file and never abort a run.
type ParseResult struct {
	FilePath string
	Language string
	File     *FileRecord
	Error    error
}

// ExtractOptions controls extraction behavior
type ExtractOptions struct {
	// InternalPrefixes lists package prefixes classified as internal imports
	InternalPrefixes []string

	// IncludeDocs enables javadoc and comment extraction
	IncludeDocs bool
}
