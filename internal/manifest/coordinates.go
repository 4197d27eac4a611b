// Package manifest extracts dependency coordinates from Maven and Gradle
// build manifests and answers version lookups for external packages.
package manifest

import (
	"sort"
	"strings"
)

// Coordinate is a fully resolved group:artifact:version dependency.
type Coordinate struct {
	Group    string `json:"group"`
	Artifact string `json:"artifact"`
	Version  string `json:"version"`
}

// Key returns the group:artifact form
func (c Coordinate) Key() string {
	return c.Group + ":" + c.Artifact
}

// GAV returns the full group:artifact:version form
func (c Coordinate) GAV() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

// PackageKey returns the dotted group.artifact form, which is how Java
// import paths reference the dependency
func (c Coordinate) PackageKey() string {
	return c.Group + "." + c.Artifact
}

// Source identifies the manifest format a coordinate came from. Maven wins
// over Gradle when both declare the same coordinate; within one format the
// first occurrence in scan order wins.
type Source int

const (
	SourceMaven Source = iota
	SourceGradle
)

func (s Source) String() string {
	if s == SourceMaven {
		return "maven"
	}
	return "gradle"
}

// Map holds the extracted coordinates plus the flat key index that the
// dependency artifact serializes and writer lookups consult.
type Map struct {
	coords map[string]coordEntry
	flat   map[string]flatEntry
}

type coordEntry struct {
	coord  Coordinate
	source Source
}

type flatEntry struct {
	version string
	source  Source
}

func NewMap() *Map {
	return &Map{
		coords: make(map[string]coordEntry),
		flat:   make(map[string]flatEntry),
	}
}

// Add records a coordinate under every key granularity: group.artifact,
// group:artifact and the full GAV. An existing entry for the same key is
// kept unless the new one comes from a higher-precedence format.
func (m *Map) Add(c Coordinate, src Source) {
	if c.Group == "" || c.Artifact == "" || c.Version == "" {
		return
	}

	key := c.Key()
	if cur, ok := m.coords[key]; !ok || src < cur.source {
		m.coords[key] = coordEntry{coord: c, source: src}
	}

	m.addFlat(c.PackageKey(), c.Version, src)
	m.addFlat(key, c.Version, src)
	m.addFlat(c.GAV(), c.Version, src)

	// Gradle manifests additionally publish the bare group as a coarse
	// fallback key
	if src == SourceGradle {
		m.addFlat(c.Group, c.Version, src)
	}
}

func (m *Map) addFlat(key, version string, src Source) {
	if cur, ok := m.flat[key]; ok && src >= cur.source {
		return
	}
	m.flat[key] = flatEntry{version: version, source: src}
}

// Len reports the number of distinct group:artifact coordinates
func (m *Map) Len() int {
	return len(m.coords)
}

// Coordinates returns the winning coordinates in deterministic order
func (m *Map) Coordinates() []Coordinate {
	keys := make([]string, 0, len(m.coords))
	for k := range m.coords {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Coordinate, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.coords[k].coord)
	}
	return out
}

// Resolution is the outcome of a version lookup for a base package. Group
// and Artifact are filled when a structured coordinate matched rather
// than a flat fallback key.
type Resolution struct {
	Version  string
	Group    string
	Artifact string
}

// Resolve finds the version for a base package derived from an import
// path. Specific beats coarse: a structured coordinate match wins over a
// flat key match, longer keys win over shorter ones, and remaining ties
// fall to lexicographic order so repeated runs resolve identically.
func (m *Map) Resolve(pkg string) (Resolution, bool) {
	if pkg == "" {
		return Resolution{}, false
	}

	var best coordEntry
	found := false
	for _, e := range m.coords {
		pk := e.coord.PackageKey()
		if !packageMatches(pkg, pk) {
			continue
		}
		if !found || morePreferred(pk, e.coord.Key(), best.coord.PackageKey(), best.coord.Key()) {
			best = e
			found = true
		}
	}
	if found {
		return Resolution{
			Version:  best.coord.Version,
			Group:    best.coord.Group,
			Artifact: best.coord.Artifact,
		}, true
	}

	// Flat pass covers bare group keys and maps loaded from a flat
	// artifact where the key structure is unknown
	var bestKey, bestVersion string
	for key, e := range m.flat {
		if strings.Contains(key, ":") {
			continue
		}
		if !packageMatches(pkg, key) {
			continue
		}
		if bestKey == "" || morePreferred(key, key, bestKey, bestKey) {
			bestKey, bestVersion = key, e.version
		}
	}
	if bestKey != "" {
		return Resolution{Version: bestVersion}, true
	}

	return Resolution{}, false
}

// morePreferred orders candidate matches: longer package key first, then
// lexicographic package key, then lexicographic coordinate key
func morePreferred(pk, key, bestPk, bestKey string) bool {
	if len(pk) != len(bestPk) {
		return len(pk) > len(bestPk)
	}
	if pk != bestPk {
		return pk < bestPk
	}
	return key < bestKey
}

// packageMatches reports whether a dotted package and a dotted key refer
// to the same dependency subtree, in either direction, on dot boundaries
func packageMatches(pkg, key string) bool {
	return pkg == key ||
		strings.HasPrefix(pkg, key+".") ||
		strings.HasPrefix(key, pkg+".")
}

// Flatten serializes the map into the flat key space written to the
// dependency artifact
func (m *Map) Flatten() map[string]string {
	out := make(map[string]string, len(m.flat))
	for key, e := range m.flat {
		out[key] = e.version
	}
	return out
}

// LoadFlat rebuilds a map from a flat dependency artifact. Keys with
// colons restore structured coordinates; dotted keys stay flat-only but
// remain matchable.
func LoadFlat(flat map[string]string) *Map {
	m := NewMap()

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		version := flat[key]
		if version == "" {
			continue
		}
		parts := strings.Split(key, ":")
		switch len(parts) {
		case 2:
			m.Add(Coordinate{Group: parts[0], Artifact: parts[1], Version: version}, SourceMaven)
		case 3:
			m.Add(Coordinate{Group: parts[0], Artifact: parts[1], Version: version}, SourceMaven)
		default:
			m.addFlat(key, version, SourceMaven)
		}
	}
	return m
}
