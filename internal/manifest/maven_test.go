package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const namespacedPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0"
         xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
         xsi:schemaLocation="http://maven.apache.org/POM/4.0.0 http://maven.apache.org/xsd/maven-4.0.0.xsd">
  <modelVersion>4.0.0</modelVersion>
  <groupId>com.acme</groupId>
  <artifactId>billing</artifactId>
  <version>1.4.0</version>

  <properties>
    <jackson.version>2.15.0</jackson.version>
    <maven.compiler.source>17</maven.compiler.source>
  </properties>

  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.junit.jupiter</groupId>
        <artifactId>junit-jupiter</artifactId>
        <version>5.10.0</version>
      </dependency>
    </dependencies>
  </dependencyManagement>

  <dependencies>
    <dependency>
      <groupId>com.fasterxml.jackson.core</groupId>
      <artifactId>jackson-databind</artifactId>
      <version>${jackson.version}</version>
    </dependency>
    <dependency>
      <groupId>com.acme</groupId>
      <artifactId>billing-api</artifactId>
      <version>${project.version}</version>
    </dependency>
    <dependency>
      <groupId>org.mystery</groupId>
      <artifactId>mystery-lib</artifactId>
      <version>${undeclared.version}</version>
    </dependency>
    <dependency>
      <groupId>org.junit.jupiter</groupId>
      <artifactId>junit-jupiter</artifactId>
      <scope>test</scope>
    </dependency>
  </dependencies>

  <build>
    <plugins>
      <plugin>
        <groupId>org.apache.maven.plugins</groupId>
        <artifactId>maven-surefire-plugin</artifactId>
        <version>3.1.2</version>
        <dependencies>
          <dependency>
            <groupId>org.ow2.asm</groupId>
            <artifactId>asm</artifactId>
            <version>9.5</version>
          </dependency>
        </dependencies>
      </plugin>
    </plugins>
  </build>
</project>
`

func TestParsePOM_Namespaced(t *testing.T) {
	res, err := parsePOM(strings.NewReader(namespacedPOM))
	require.NoError(t, err)

	require.Len(t, res.coords, 3)
	assert.Equal(t, Coordinate{Group: "com.fasterxml.jackson.core", Artifact: "jackson-databind", Version: "2.15.0"}, res.coords[0])
	assert.Equal(t, Coordinate{Group: "com.acme", Artifact: "billing-api", Version: "1.4.0"}, res.coords[1])
	assert.Equal(t, Coordinate{Group: "org.ow2.asm", Artifact: "asm", Version: "9.5"}, res.coords[2])

	require.Len(t, res.managed, 1)
	assert.Equal(t, Coordinate{Group: "org.junit.jupiter", Artifact: "junit-jupiter", Version: "5.10.0"}, res.managed[0])

	// mystery-lib had an undeclared property, the junit entry no version.
	assert.Equal(t, 2, res.dropped)
}

func TestParsePOM_ParentVersionInheritance(t *testing.T) {
	pom := `<project xmlns="http://maven.apache.org/POM/4.0.0">
  <parent>
    <groupId>com.acme</groupId>
    <artifactId>parent</artifactId>
    <version>2.0.1</version>
  </parent>
  <artifactId>billing-core</artifactId>
  <dependencies>
    <dependency>
      <groupId>com.acme</groupId>
      <artifactId>billing-api</artifactId>
      <version>${project.version}</version>
    </dependency>
  </dependencies>
</project>
`
	res, err := parsePOM(strings.NewReader(pom))
	require.NoError(t, err)

	require.Len(t, res.coords, 1)
	assert.Equal(t, "2.0.1", res.coords[0].Version)
}

func TestParsePOM_NonUTF8EncodingDeclaration(t *testing.T) {
	pom := `<?xml version="1.0" encoding="ISO-8859-1"?>
<project>
  <version>0.9</version>
  <dependencies>
    <dependency>
      <groupId>log4j</groupId>
      <artifactId>log4j</artifactId>
      <version>1.2.17</version>
    </dependency>
  </dependencies>
</project>
`
	res, err := parsePOM(strings.NewReader(pom))
	require.NoError(t, err)

	require.Len(t, res.coords, 1)
	assert.Equal(t, Coordinate{Group: "log4j", Artifact: "log4j", Version: "1.2.17"}, res.coords[0])
}

func TestParsePOM_PlainVersionProperty(t *testing.T) {
	pom := `<project>
  <version>3.3.3</version>
  <dependencies>
    <dependency>
      <groupId>com.acme</groupId>
      <artifactId>shared</artifactId>
      <version>${version}</version>
    </dependency>
  </dependencies>
</project>
`
	res, err := parsePOM(strings.NewReader(pom))
	require.NoError(t, err)

	require.Len(t, res.coords, 1)
	assert.Equal(t, "3.3.3", res.coords[0].Version)
}

func TestParsePOM_PropertyGroupDropped(t *testing.T) {
	pom := `<project>
  <dependencies>
    <dependency>
      <groupId>${project.groupId}</groupId>
      <artifactId>sibling</artifactId>
      <version>1.0</version>
    </dependency>
  </dependencies>
</project>
`
	res, err := parsePOM(strings.NewReader(pom))
	require.NoError(t, err)
	assert.Empty(t, res.coords)
}

func TestParsePOM_Malformed(t *testing.T) {
	_, err := parsePOM(strings.NewReader("<project><dependencies></project>"))
	assert.Error(t, err)
}

func TestResolveMavenVersion(t *testing.T) {
	props := map[string]string{"jackson.version": "2.15.0"}

	tests := []struct {
		version string
		want    string
	}{
		{"1.2.3", "1.2.3"},
		{"${jackson.version}", "2.15.0"},
		{"${missing}", ""},
		{"1.${minor}", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := resolveMavenVersion(tt.version, props); got != tt.want {
			t.Errorf("resolveMavenVersion(%q) = %q, want %q", tt.version, got, tt.want)
		}
	}
}
