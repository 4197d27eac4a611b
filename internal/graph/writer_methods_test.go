package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodRows(t *testing.T) {
	rows := methodRows(fixtureFiles(), nil, "")
	require.Len(t, rows, 4)

	run := rows[0]
	assert.Equal(t, "com.acme.App#run(int,Task):void", run["method_signature"])
	assert.Equal(t, "run", run["name"])
	assert.Equal(t, "App", run["class_name"])
	assert.Equal(t, "class", run["containing_type"])
	assert.Equal(t, 9, run["estimated_lines"])
	assert.Equal(t, 2, run["cyclomatic_complexity"])
	assert.Equal(t, false, run["deprecated"])
	assert.NotContains(t, run, "deprecated_message")

	helper := rows[1]
	assert.Equal(t, true, helper["deprecated"])
	assert.Equal(t, "use run instead", helper["deprecated_message"])
	assert.NotContains(t, helper, "deprecated_since")

	// Flattened order follows file order then declaration order
	assert.Equal(t, "com.acme.model.Model#save(Task):void", rows[2]["method_signature"])
	assert.Equal(t, "com.acme.model.Task#close():void", rows[3]["method_signature"])

	// Interface methods keep their flags
	assert.Equal(t, true, rows[3]["is_abstract"])
	assert.Equal(t, []string{}, rows[3]["modifiers"])
}

func TestMethodRowsEmbeddingAlignment(t *testing.T) {
	embeddings := [][]float64{{0.1}, {0.2}}
	rows := methodRows(fixtureFiles(), embeddings, "unixcoder")
	require.Len(t, rows, 4)

	assert.Equal(t, []float64{0.1}, rows[0]["embedding"])
	assert.Equal(t, []float64{0.2}, rows[1]["embedding"])
	assert.Equal(t, "unixcoder", rows[0]["embedding_type"])
	assert.NotContains(t, rows[2], "embedding")
	assert.NotContains(t, rows[3], "embedding")
}

func TestDeclaresRows(t *testing.T) {
	rows := declaresRows(fixtureFiles())
	require.Len(t, rows, 4)
	assert.Equal(t, "src/main/java/com/acme/App.java", rows[0]["file"])
	assert.Equal(t, "com.acme.App#run(int,Task):void", rows[0]["method_signature"])
}

func TestContainmentRows(t *testing.T) {
	classRels, interfaceRels := containmentRows(fixtureFiles())

	require.Len(t, classRels, 3)
	assert.Equal(t, "App", classRels[0]["type_name"])
	assert.Equal(t, "App", classRels[1]["type_name"])
	assert.Equal(t, "Model", classRels[2]["type_name"])

	require.Len(t, interfaceRels, 1)
	assert.Equal(t, "Task", interfaceRels[0]["type_name"])
	assert.Equal(t, "com.acme.model.Task#close():void", interfaceRels[0]["method_signature"])
}

func TestParameterRows(t *testing.T) {
	rows := parameterRows(fixtureFiles())
	require.Len(t, rows, 4)

	count := rows[0]
	assert.Equal(t, "com.acme.App#run(int,Task):void", count["method_signature"])
	assert.Equal(t, 0, count["index"])
	assert.Equal(t, "count", count["name"])
	assert.Equal(t, "int", count["type"])
	assert.NotContains(t, count, "type_package")

	task := rows[1]
	assert.Equal(t, 1, task["index"])
	assert.Equal(t, "com.acme.model", task["type_package"])
}

func TestParameterTypeRows(t *testing.T) {
	rows := parameterTypeRows(fixtureFiles())

	// Primitive parameters never resolve to a declared type
	require.Len(t, rows, 2)
	assert.Equal(t, "Task", rows[0]["type_name"])
	assert.Equal(t, 1, rows[0]["index"])
	assert.Equal(t, "Task", rows[1]["type_name"])
	assert.Equal(t, "com.acme.model.Model#save(Task):void", rows[1]["method_signature"])
}

func TestLinkableTypeName(t *testing.T) {
	assert.True(t, linkableTypeName("Task"))
	assert.False(t, linkableTypeName("int"))
	assert.False(t, linkableTypeName("void"))
	assert.False(t, linkableTypeName(""))
}

func TestCallRowsGrouping(t *testing.T) {
	local, static, lookup := callRows(fixtureFiles())

	require.Len(t, local, 2)
	sameClass := local[0]
	assert.Equal(t, "com.acme.App#run(int,Task):void", sameClass["caller_signature"])
	assert.Equal(t, "helper", sameClass["callee_name"])
	assert.Equal(t, "App", sameClass["callee_class"])
	assert.Equal(t, "same_class", sameClass["call_type"])
	assert.NotContains(t, sameClass, "qualifier")

	thisCall := local[1]
	assert.Equal(t, "this", thisCall["call_type"])
	assert.Equal(t, "this", thisCall["qualifier"])

	require.Len(t, static, 1)
	assert.Equal(t, "of", static[0]["callee_name"])
	assert.Equal(t, "List", static[0]["callee_class"])
	assert.Equal(t, "List", static[0]["qualifier"])

	// The single-letter instance call is dropped; constructor call sites
	// go to CREATES instead
	require.Len(t, lookup, 1)
	assert.Equal(t, "save", lookup[0]["callee_name"])
	assert.Equal(t, "repo", lookup[0]["callee_class"])
	assert.Equal(t, "instance", lookup[0]["call_type"])
}

func TestCreatesRows(t *testing.T) {
	rows := createsRows(fixtureFiles())
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "com.acme.App#run(int,Task):void", row["caller_signature"])
	assert.Equal(t, "Model", row["target_class"])
	assert.Equal(t, "com.acme.model", row["target_package"])
	assert.NotContains(t, row, "qualifier")
}
