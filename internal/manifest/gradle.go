package manifest

import (
	"regexp"
	"strings"
)

// gradleConfigurations lists the dependency configurations whose
// declarations carry external coordinates.
const gradleConfigurations = `testImplementation|testCompileOnly|testCompile|testRuntimeOnly|implementation|compileOnly|compile|runtimeOnly|runtime|api`

var (
	// implementation 'com.fasterxml.jackson.core:jackson-databind:2.15.0'
	gradleInlineDep = regexp.MustCompile(`\b(?:` + gradleConfigurations + `)\s*\(?\s*['"]([a-zA-Z0-9._-]+):([a-zA-Z0-9._-]+):([a-zA-Z0-9._+${}-]+)['"]`)
	// implementation group: 'com.google.guava', name: 'guava', version: '31.1-jre'
	// (Kotlin DSL uses = instead of :)
	gradleMapDep = regexp.MustCompile(`\b(?:` + gradleConfigurations + `)\s*\(?\s*group\s*[:=]\s*['"]([^'"]+)['"]\s*,\s*name\s*[:=]\s*['"]([^'"]+)['"]\s*,\s*version\s*[:=]\s*['"]([^'"]+)['"]`)
	// def jacksonVersion = '2.15.0'  /  val ktorVersion = "2.3.4"  /  slf4jVersion = "2.0.9"
	gradleVersionBinding = regexp.MustCompile(`(?m)^\s*(?:def\s+|val\s+)?(\w+)\s*=\s*['"]([^'"]+)['"]`)
	gradleVarRef         = regexp.MustCompile(`^\$\{?(\w+)\}?$`)
)

type gradleResult struct {
	coords  []Coordinate
	dropped int
}

// parseGradleBuild extracts coordinates from a build.gradle or
// build.gradle.kts source. Version placeholders referencing variable
// bindings in the same file are substituted; entries whose version cannot
// be resolved are dropped.
func parseGradleBuild(code string) *gradleResult {
	vars := gradleVersionVars(code)
	res := &gradleResult{}

	add := func(group, artifact, version string) {
		group = strings.TrimSpace(group)
		artifact = strings.TrimSpace(artifact)
		if group == "" || artifact == "" {
			return
		}
		resolved := resolveGradleVersion(strings.TrimSpace(version), vars)
		if resolved == "" {
			res.dropped++
			return
		}
		res.coords = append(res.coords, Coordinate{Group: group, Artifact: artifact, Version: resolved})
	}

	for _, m := range gradleInlineDep.FindAllStringSubmatch(code, -1) {
		add(m[1], m[2], m[3])
	}
	for _, m := range gradleMapDep.FindAllStringSubmatch(code, -1) {
		add(m[1], m[2], m[3])
	}
	return res
}

// gradleVersionVars collects version variable bindings: any assignment of
// a quoted literal to a name containing "version", whether declared with
// def, val or plain assignment (the latter covers ext blocks).
func gradleVersionVars(code string) map[string]string {
	vars := make(map[string]string)
	for _, m := range gradleVersionBinding.FindAllStringSubmatch(code, -1) {
		name := m[1]
		if !strings.Contains(strings.ToLower(name), "version") {
			continue
		}
		vars[name] = strings.TrimSpace(m[2])
	}
	return vars
}

// resolveGradleVersion substitutes $var and ${var} placeholders, following
// chains of bindings up to a fixed depth. Anything still carrying a
// placeholder after substitution resolves to "".
func resolveGradleVersion(version string, vars map[string]string) string {
	if !strings.Contains(version, "$") {
		return version
	}
	seen := make(map[string]bool)
	cur := version
	for hops := 0; hops < 10; hops++ {
		m := gradleVarRef.FindStringSubmatch(cur)
		if m == nil {
			break
		}
		name := m[1]
		if seen[name] {
			return ""
		}
		seen[name] = true
		next, ok := vars[name]
		if !ok {
			return ""
		}
		cur = next
	}
	if strings.Contains(cur, "$") {
		return ""
	}
	return cur
}

// parseGradleLockfile reads gradle.lockfile content, one
// group:artifact:version=configurations entry per line.
func parseGradleLockfile(code string) []Coordinate {
	var out []Coordinate
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		parts := strings.Split(line[:eq], ":")
		if len(parts) < 3 {
			continue
		}
		out = append(out, Coordinate{
			Group:    strings.TrimSpace(parts[0]),
			Artifact: strings.TrimSpace(parts[1]),
			Version:  strings.TrimSpace(strings.Join(parts[2:], ":")),
		})
	}
	return out
}
