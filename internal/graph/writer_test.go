package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraphhq/codegraph/internal/treesitter"
)

// fixtureFiles builds a two-file extraction exercising every payload
// builder: classes, an interface, inheritance, parameters, imports of all
// three classifications, calls of every kind and docs.
func fixtureFiles() []*treesitter.FileRecord {
	appPath := "src/main/java/com/acme/App.java"
	modelPath := "src/main/java/com/acme/model/Model.java"

	return []*treesitter.FileRecord{
		{
			Path:    appPath,
			Name:    "App.java",
			Package: "com.acme",
			Classes: []treesitter.ClassRecord{
				{
					Name:       "App",
					Kind:       "class",
					File:       appPath,
					Package:    "com.acme",
					Line:       10,
					EndLine:    60,
					Superclass: "Base",
					Interfaces: []string{"Runnable"},
					Modifiers:  []string{"public"},
				},
			},
			Methods: []treesitter.MethodRecord{
				{
					Name:            "run",
					ClassName:       "App",
					ContainingType:  "class",
					Package:         "com.acme",
					File:            appPath,
					Line:            12,
					EndLine:         20,
					ReturnType:      "void",
					MethodSignature: "com.acme.App#run(int,Task):void",
					Modifiers:       []string{"public"},
					IsPublic:        true,
					Parameters: []treesitter.Parameter{
						{Name: "count", Type: "int"},
						{Name: "task", Type: "Task", TypePackage: "com.acme.model"},
					},
					CyclomaticComplexity: 2,
					Calls: []treesitter.CallSite{
						{MethodName: "helper", TargetClass: "App", CallType: treesitter.CallTypeSameClass},
						{MethodName: "helper", TargetClass: "App", Qualifier: "this", CallType: treesitter.CallTypeThis},
						{MethodName: "of", TargetClass: "List", Qualifier: "List", CallType: treesitter.CallTypeStatic},
						{MethodName: "save", TargetClass: "repo", Qualifier: "repo", CallType: treesitter.CallTypeInstance},
						{MethodName: "x", TargetClass: "obj", Qualifier: "obj", CallType: treesitter.CallTypeInstance},
						{MethodName: "Model", TargetClass: "Model", TargetPackage: "com.acme.model", CallType: treesitter.CallTypeConstructor},
					},
				},
				{
					Name:                 "helper",
					ClassName:            "App",
					ContainingType:       "class",
					Package:              "com.acme",
					File:                 appPath,
					Line:                 22,
					EndLine:              30,
					ReturnType:           "void",
					MethodSignature:      "com.acme.App#helper(int):void",
					Modifiers:            []string{"private"},
					IsPrivate:            true,
					Parameters:           []treesitter.Parameter{{Name: "n", Type: "int"}},
					CyclomaticComplexity: 1,
					Deprecated:           true,
					DeprecatedMessage:    "use run instead",
				},
			},
			Imports: []treesitter.ImportRecord{
				{File: appPath, ImportPath: "java.util.List", Classification: treesitter.ImportStandard},
				{File: appPath, ImportPath: "com.fasterxml.jackson.core.JsonFactory", Classification: treesitter.ImportExternal},
				{File: appPath, ImportPath: "com.acme.model.Model", Classification: treesitter.ImportInternal},
			},
			Docs: []treesitter.DocRecord{
				{
					File: appPath, Language: "java", Kind: treesitter.DocKindJavadoc,
					StartLine: 5, EndLine: 9, Text: "Application entry point.",
					ClassName: "App", Scope: treesitter.DocScopeClass,
				},
				{
					File: appPath, Language: "java", Kind: treesitter.DocKindLineComment,
					StartLine: 11, EndLine: 11, Text: "runs everything",
					MethodSignature: "com.acme.App#run(int,Task):void", Scope: treesitter.DocScopeMethod,
				},
			},
			TotalLines: 60,
			CodeLines:  41,
		},
		{
			Path:    modelPath,
			Name:    "Model.java",
			Package: "com.acme.model",
			Classes: []treesitter.ClassRecord{
				{
					Name:    "Model",
					Kind:    "class",
					File:    modelPath,
					Package: "com.acme.model",
					Line:    5,
					EndLine: 30,
				},
				{
					Name:        "Task",
					Kind:        "interface",
					File:        modelPath,
					Package:     "com.acme.model",
					Line:        32,
					EndLine:     40,
					Interfaces:  []string{"AutoCloseable"},
					MethodCount: 1,
				},
			},
			Methods: []treesitter.MethodRecord{
				{
					Name:            "save",
					ClassName:       "Model",
					ContainingType:  "class",
					Package:         "com.acme.model",
					File:            modelPath,
					Line:            8,
					EndLine:         14,
					ReturnType:      "void",
					MethodSignature: "com.acme.model.Model#save(Task):void",
					Parameters:      []treesitter.Parameter{{Name: "task", Type: "Task", TypePackage: "com.acme.model"}},
				},
				{
					Name:            "close",
					ClassName:       "Task",
					ContainingType:  "interface",
					Package:         "com.acme.model",
					File:            modelPath,
					Line:            34,
					EndLine:         34,
					ReturnType:      "void",
					MethodSignature: "com.acme.model.Task#close():void",
					IsAbstract:      true,
				},
			},
			Imports: []treesitter.ImportRecord{
				{File: modelPath, ImportPath: "org.slf4j.Logger", Classification: treesitter.ImportExternal},
				{File: modelPath, ImportPath: "java.util.*", IsWildcard: true, Classification: treesitter.ImportStandard},
				{File: modelPath, ImportPath: "io.unknown.thing.Widget", Classification: treesitter.ImportExternal},
			},
			TotalLines: 42,
			CodeLines:  30,
		},
	}
}

func TestParentDir(t *testing.T) {
	assert.Equal(t, "src/main", parentDir("src/main/App.java"))
	assert.Equal(t, "", parentDir("App.java"))
	assert.Equal(t, "", parentDir("src"))
	assert.Equal(t, "", parentDir(""))
}

func TestEstimatedLines(t *testing.T) {
	assert.Equal(t, 51, estimatedLines(10, 60))
	assert.Equal(t, 1, estimatedLines(34, 34))
	assert.Equal(t, 1, estimatedLines(10, 0))
}

func TestValidateMethodSignatures(t *testing.T) {
	files := fixtureFiles()
	require.NoError(t, validateMethodSignatures(files))

	files[1].Methods[0].MethodSignature = ""
	err := validateMethodSignatures(files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signature")
	assert.Contains(t, err.Error(), "save")
}

func TestWriteStatsTotals(t *testing.T) {
	stats := NewWriteStats()
	stats.addNodes("File", 2, 1)
	stats.addNodes("Method", 4, 1)
	stats.addRelationships("DECLARES", 4, 1)
	stats.addRelationships("CALLS", 3, 2)

	assert.Equal(t, int64(6), stats.TotalNodes())
	assert.Equal(t, int64(7), stats.TotalRelationships())
	assert.Equal(t, 5, stats.Batches)
}

// Payload builders must be pure functions of the records: identical input
// yields identical rows in identical order, which is what makes repeated
// runs produce identical upsert counts.
func TestPayloadBuildersDeterministic(t *testing.T) {
	a, b := fixtureFiles(), fixtureFiles()
	embeddings := [][]float64{{0.1, 0.2}, {0.3, 0.4}}

	assert.Equal(t, directoryRows(a), directoryRows(b))
	assert.Equal(t, fileRows(a, embeddings, "unixcoder"), fileRows(b, embeddings, "unixcoder"))
	assert.Equal(t, methodRows(a, nil, ""), methodRows(b, nil, ""))

	aNodes, aEdges := importRows(a)
	bNodes, bEdges := importRows(b)
	assert.Equal(t, aNodes, bNodes)
	assert.Equal(t, aEdges, bEdges)

	aDeps, aLinks := dependencyRows(a, nil)
	bDeps, bLinks := dependencyRows(b, nil)
	assert.Equal(t, aDeps, bDeps)
	assert.Equal(t, aLinks, bLinks)
}
