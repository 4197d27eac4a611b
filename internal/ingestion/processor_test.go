package ingestion

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraphhq/codegraph/internal/treesitter"
)

const appJava = `package com.acme;

import org.slf4j.Logger;

public class App {
    public void run() {
        helper();
    }

    private void helper() {
    }
}
`

const stringsJava = `package com.acme.util;

public final class Strings {
    public static String trim(String s) {
        return s.trim();
    }
}
`

const slf4jPOM = `<project xmlns="http://maven.apache.org/POM/4.0.0">
  <dependencies>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
      <version>2.0.9</version>
    </dependency>
  </dependencies>
</project>
`

func TestProcessor_Process(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/main/java/com/acme/App.java", appJava)
	writeSource(t, root, "src/main/java/com/acme/util/Strings.java", stringsJava)
	writeSource(t, root, "pom.xml", slf4jPOM)

	p := NewProcessor(&ProcessorConfig{Workers: 2, IncludeDocs: true})
	res, err := p.Process(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, res.Files, 2)
	assert.Equal(t, "src/main/java/com/acme/App.java", res.Files[0].Path)
	assert.Equal(t, "src/main/java/com/acme/util/Strings.java", res.Files[1].Path)
	assert.Empty(t, res.Errors)

	assert.Equal(t, []string{
		"",
		"src",
		"src/main",
		"src/main/java",
		"src/main/java/com",
		"src/main/java/com/acme",
		"src/main/java/com/acme/util",
	}, res.Directories)

	dep, ok := res.Dependencies.Resolve("org.slf4j")
	require.True(t, ok)
	assert.Equal(t, "2.0.9", dep.Version)

	assert.Equal(t, 2, res.FilesParsed())
	assert.Zero(t, res.FilesFailed())
	assert.Equal(t, 3, res.MethodCount())
}

func TestProcessor_CacheReuse(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "A.java", "class A {\n    void a() {\n    }\n}\n")
	writeSource(t, root, "B.java", "class B {\n}\n")

	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"), treesitter.ExtractOptions{IncludeDocs: true})
	require.NoError(t, err)
	defer cache.Close()

	p := NewProcessor(&ProcessorConfig{Workers: 2, IncludeDocs: true}).WithCache(cache)

	first, err := p.Process(context.Background(), root)
	require.NoError(t, err)
	assert.Zero(t, first.CacheHits)
	require.Len(t, first.Files, 2)

	second, err := p.Process(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, second.CacheHits)
	assert.Equal(t, first.FilesParsed(), second.FilesParsed())
	assert.Equal(t, first.Files[0].Methods, second.Files[0].Methods)

	// Touching one file invalidates only that entry.
	writeSource(t, root, "A.java", "class A {\n    void a() {\n    }\n\n    void b() {\n    }\n}\n")
	third, err := p.Process(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, third.CacheHits)
	assert.Len(t, third.Files[0].Methods, 2)
}

func TestProcessor_MissingRoot(t *testing.T) {
	_, err := NewProcessor(nil).Process(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestProcessor_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "A.java", "class A {}")

	_, err := NewProcessor(nil).Process(context.Background(), filepath.Join(root, "A.java"))
	assert.Error(t, err)
}

func TestCollectDirectories(t *testing.T) {
	files := []*treesitter.FileRecord{
		{Path: "App.java"},
		{Path: "src/com/acme/Main.java"},
		{Path: "src/com/acme/Other.java"},
	}

	got := collectDirectories(files)

	assert.Equal(t, []string{"", "src", "src/com", "src/com/acme"}, got)
}
