package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func depPOM(group, artifact, version string) string {
	return `<project xmlns="http://maven.apache.org/POM/4.0.0">
  <dependencies>
    <dependency>
      <groupId>` + group + `</groupId>
      <artifactId>` + artifact + `</artifactId>
      <version>` + version + `</version>
    </dependency>
  </dependencies>
</project>
`
}

func TestScanner_MavenBeatsGradle(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "pom.xml", depPOM("com.acme", "billing-api", "2.0.0"))
	writeManifest(t, root, "build.gradle", `
dependencies {
    implementation 'com.acme:billing-api:1.0.0'
}
`)

	m, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)

	res, ok := m.Resolve("com.acme.billing-api")
	require.True(t, ok)
	assert.Equal(t, "2.0.0", res.Version)
}

func TestScanner_SortedPathFirstWins(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha/pom.xml", depPOM("org.slf4j", "slf4j-api", "2.0.9"))
	writeManifest(t, root, "beta/pom.xml", depPOM("org.slf4j", "slf4j-api", "1.7.36"))

	m, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)

	res, ok := m.Resolve("org.slf4j")
	require.True(t, ok)
	assert.Equal(t, "2.0.9", res.Version)
}

func TestScanner_RegularBeatsManaged(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "pom.xml", `<project xmlns="http://maven.apache.org/POM/4.0.0">
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.junit.jupiter</groupId>
        <artifactId>junit-jupiter</artifactId>
        <version>5.9.0</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>org.junit.jupiter</groupId>
      <artifactId>junit-jupiter</artifactId>
      <version>5.10.0</version>
    </dependency>
  </dependencies>
</project>
`)

	m, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)

	res, ok := m.Resolve("org.junit.jupiter")
	require.True(t, ok)
	assert.Equal(t, "5.10.0", res.Version)
}

func TestScanner_ManagedFillsAcrossModules(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "pom.xml", `<project xmlns="http://maven.apache.org/POM/4.0.0">
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.google.guava</groupId>
        <artifactId>guava</artifactId>
        <version>31.1-jre</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
</project>
`)
	// The module declares guava without a version; the parent's managed
	// entry still supplies the coordinate.
	writeManifest(t, root, "core/pom.xml", `<project xmlns="http://maven.apache.org/POM/4.0.0">
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
    </dependency>
  </dependencies>
</project>
`)

	m, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)

	res, ok := m.Resolve("com.google.guava")
	require.True(t, ok)
	assert.Equal(t, "31.1-jre", res.Version)
}

func TestScanner_LockfileFillsUnresolved(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "build.gradle", `
dependencies {
    implementation "com.squareup.okhttp3:okhttp:$okhttpVersion"
    implementation 'io.netty:netty-handler:4.1.100.Final'
}
`)
	writeManifest(t, root, "gradle.lockfile", `com.squareup.okhttp3:okhttp:4.12.0=compileClasspath
io.netty:netty-handler:4.1.99.Final=compileClasspath
`)

	m, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)

	// The unresolved build-file entry is filled from the lockfile.
	res, ok := m.Resolve("com.squareup.okhttp3")
	require.True(t, ok)
	assert.Equal(t, "4.12.0", res.Version)

	// The resolved build-file entry beats the lockfile.
	res, ok = m.Resolve("io.netty")
	require.True(t, ok)
	assert.Equal(t, "4.1.100.Final", res.Version)
}

func TestScanner_SkipsBuildOutputDirs(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "target/classes/pom.xml", depPOM("com.acme", "stale", "0.1"))
	writeManifest(t, root, "build/tmp/build.gradle", `
dependencies {
    implementation 'com.acme:stale:0.1'
}
`)
	writeManifest(t, root, "pom.xml", depPOM("com.acme", "live", "1.0"))

	m, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)

	assert.Equal(t, 1, m.Len())
	_, ok := m.Resolve("com.acme.stale")
	assert.False(t, ok)
}

func TestScanner_ExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "legacy/pom.xml", depPOM("com.acme", "legacy-api", "0.9"))
	writeManifest(t, root, "pom.xml", depPOM("com.acme", "billing-api", "1.0"))

	m, err := NewScanner(root, []string{"legacy/**"}).Scan()
	require.NoError(t, err)

	assert.Equal(t, 1, m.Len())
	_, ok := m.Resolve("com.acme.legacy-api")
	assert.False(t, ok)
}

func TestScanner_SkipsMalformedManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "broken/pom.xml", "<project><dependencies></project>")
	writeManifest(t, root, "pom.xml", depPOM("com.acme", "billing-api", "1.0"))

	m, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)

	res, ok := m.Resolve("com.acme.billing-api")
	require.True(t, ok)
	assert.Equal(t, "1.0", res.Version)
}

func TestScanner_EmptyTree(t *testing.T) {
	m, err := NewScanner(t.TempDir(), nil).Scan()
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestScanner_MissingRoot(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "nope"), nil).Scan()
	assert.Error(t, err)
}
