package manifest

import (
	"encoding/xml"
	"io"
	"os"
	"regexp"
	"strings"
)

// mavenDependency mirrors one <dependency> element. Field names match the
// local element names so namespaced and namespace-free POMs both decode.
type mavenDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

// pomResult keeps regular dependency entries apart from
// <dependencyManagement> entries so the scanner can rank regular ones first.
type pomResult struct {
	coords  []Coordinate
	managed []Coordinate
	dropped int
}

type rawMavenDependency struct {
	dep     mavenDependency
	managed bool
}

var mavenPropertyRef = regexp.MustCompile(`^\$\{([^}]+)\}$`)

func parsePOMFile(path string) (*pomResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parsePOM(f)
}

// parsePOM streams through a pom.xml and collects every <dependency>
// element, wherever it appears (dependencies, dependencyManagement, plugin
// dependencies). Property references in versions are resolved against the
// same manifest's <properties> block; the project version doubles as the
// properties project.version and version.
func parsePOM(r io.Reader) (*pomResult, error) {
	dec := xml.NewDecoder(r)
	// POMs in the wild declare encodings beyond UTF-8. Coordinates are
	// ASCII, so passing the raw bytes through is safe for every
	// ASCII-compatible charset.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var (
		raw            []rawMavenDependency
		properties     = make(map[string]string)
		stack          []string
		projectVersion string
		parentVersion  string
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "dependency":
				var dep mavenDependency
				if err := dec.DecodeElement(&dep, &t); err != nil {
					return nil, err
				}
				raw = append(raw, rawMavenDependency{dep: dep, managed: stackContains(stack, "dependencyManagement")})
				continue
			case name == "properties" && len(stack) == 1:
				if err := decodeProperties(dec, properties); err != nil {
					return nil, err
				}
				continue
			case name == "version" && len(stack) == 1:
				var v string
				if err := dec.DecodeElement(&v, &t); err != nil {
					return nil, err
				}
				projectVersion = strings.TrimSpace(v)
				continue
			case name == "version" && len(stack) == 2 && stack[1] == "parent":
				var v string
				if err := dec.DecodeElement(&v, &t); err != nil {
					return nil, err
				}
				parentVersion = strings.TrimSpace(v)
				continue
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	// A module without its own <version> inherits the parent's.
	if projectVersion == "" {
		projectVersion = parentVersion
	}
	if projectVersion != "" {
		if _, ok := properties["project.version"]; !ok {
			properties["project.version"] = projectVersion
		}
		if _, ok := properties["version"]; !ok {
			properties["version"] = projectVersion
		}
	}

	res := &pomResult{}
	for _, r := range raw {
		group := strings.TrimSpace(r.dep.GroupID)
		artifact := strings.TrimSpace(r.dep.ArtifactID)
		if group == "" || artifact == "" ||
			strings.Contains(group, "$") || strings.Contains(artifact, "$") {
			continue
		}
		version := resolveMavenVersion(strings.TrimSpace(r.dep.Version), properties)
		if version == "" {
			res.dropped++
			continue
		}
		c := Coordinate{Group: group, Artifact: artifact, Version: version}
		if r.managed {
			res.managed = append(res.managed, c)
		} else {
			res.coords = append(res.coords, c)
		}
	}
	return res, nil
}

// decodeProperties reads the children of a <properties> element into the
// map. Keys are arbitrary element names, so this walks tokens by hand
// instead of decoding into a struct.
func decodeProperties(dec *xml.Decoder, into map[string]string) error {
	depth := 0
	var key string
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				key = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if depth == 1 {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			if depth == 1 && key != "" {
				into[key] = strings.TrimSpace(text.String())
			}
			depth--
		}
	}
}

// resolveMavenVersion substitutes a ${property} version reference. A
// literal version passes through; anything still carrying a property
// reference after substitution yields "" so the caller drops the entry.
func resolveMavenVersion(version string, properties map[string]string) string {
	if m := mavenPropertyRef.FindStringSubmatch(version); m != nil {
		version = strings.TrimSpace(properties[m[1]])
	}
	if strings.Contains(version, "${") {
		return ""
	}
	return version
}

func stackContains(stack []string, name string) bool {
	for _, s := range stack {
		if s == name {
			return true
		}
	}
	return false
}
