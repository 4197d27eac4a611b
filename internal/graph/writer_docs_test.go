package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocRows(t *testing.T) {
	nodes, fileRels, classRels, methodRels := docRows(fixtureFiles())

	require.Len(t, nodes, 2)

	classDoc := nodes[0]
	assert.Equal(t, "src/main/java/com/acme/App.java", classDoc["file"])
	assert.Equal(t, 5, classDoc["start_line"])
	assert.Equal(t, 9, classDoc["end_line"])
	assert.Equal(t, "javadoc", classDoc["kind"])
	assert.Equal(t, "class", classDoc["scope"])
	assert.Equal(t, "Application entry point.", classDoc["text"])
	assert.Equal(t, "App", classDoc["class_name"])
	assert.NotContains(t, classDoc, "method_signature")

	methodDoc := nodes[1]
	assert.Equal(t, "line_comment", methodDoc["kind"])
	assert.Equal(t, "com.acme.App#run(int,Task):void", methodDoc["method_signature"])
	assert.NotContains(t, methodDoc, "class_name")

	// Every doc hangs off its file by the node key alone
	require.Len(t, fileRels, 2)
	assert.Equal(t, map[string]any{
		"file":       "src/main/java/com/acme/App.java",
		"start_line": 5,
		"end_line":   9,
		"kind":       "javadoc",
	}, fileRels[0])

	require.Len(t, classRels, 1)
	assert.Equal(t, "App", classRels[0]["class_name"])

	require.Len(t, methodRels, 1)
	assert.Equal(t, "com.acme.App#run(int,Task):void", methodRels[0]["method_signature"])
}
