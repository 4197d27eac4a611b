package graph

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/codegraphhq/codegraph/internal/errors"
)

// Constraint is a uniqueness constraint the writer relies on for MERGE
// semantics. Name matches the server-side constraint name so presence can
// be checked via SHOW CONSTRAINTS.
type Constraint struct {
	Name   string
	Label  string
	Cypher string
}

// Index is a best-effort performance index; creation failures are logged
// and do not abort the run.
type Index struct {
	Name   string
	Label  string
	Cypher string
}

// ManagedConstraints returns the uniqueness constraints every write run
// requires before the first mutation. The set covers this pipeline's
// natural keys plus the keys of collaborating ingesters that share the
// store (commit history, CVE feeds), so whichever ingester runs first
// leaves the schema complete for the others.
func ManagedConstraints() []Constraint {
	return []Constraint{
		{
			Name:  "directory_path",
			Label: "Directory",
			Cypher: "CREATE CONSTRAINT directory_path IF NOT EXISTS " +
				"FOR (d:Directory) REQUIRE d.path IS UNIQUE",
		},
		{
			Name:  "file_path",
			Label: "File",
			Cypher: "CREATE CONSTRAINT file_path IF NOT EXISTS " +
				"FOR (f:File) REQUIRE f.path IS UNIQUE",
		},
		{
			Name:  "class_name_file",
			Label: "Class",
			Cypher: "CREATE CONSTRAINT class_name_file IF NOT EXISTS " +
				"FOR (c:Class) REQUIRE (c.name, c.file) IS UNIQUE",
		},
		{
			Name:  "interface_name_file",
			Label: "Interface",
			Cypher: "CREATE CONSTRAINT interface_name_file IF NOT EXISTS " +
				"FOR (i:Interface) REQUIRE (i.name, i.file) IS UNIQUE",
		},
		{
			Name:  "method_signature_unique",
			Label: "Method",
			Cypher: "CREATE CONSTRAINT method_signature_unique IF NOT EXISTS " +
				"FOR (m:Method) REQUIRE m.method_signature IS UNIQUE",
		},
		{
			Name:  "import_path",
			Label: "Import",
			Cypher: "CREATE CONSTRAINT import_path IF NOT EXISTS " +
				"FOR (imp:Import) REQUIRE imp.import_path IS UNIQUE",
		},
		{
			Name:  "external_dependency_package",
			Label: "ExternalDependency",
			Cypher: "CREATE CONSTRAINT external_dependency_package IF NOT EXISTS " +
				"FOR (e:ExternalDependency) REQUIRE e.package IS UNIQUE",
		},
		{
			Name:  "commit_sha",
			Label: "Commit",
			Cypher: "CREATE CONSTRAINT commit_sha IF NOT EXISTS " +
				"FOR (c:Commit) REQUIRE c.sha IS UNIQUE",
		},
		{
			Name:  "developer_email",
			Label: "Developer",
			Cypher: "CREATE CONSTRAINT developer_email IF NOT EXISTS " +
				"FOR (d:Developer) REQUIRE d.email IS UNIQUE",
		},
		{
			// Same file can exist in multiple commits
			Name:  "file_ver_sha_path",
			Label: "FileVer",
			Cypher: "CREATE CONSTRAINT file_ver_sha_path IF NOT EXISTS " +
				"FOR (fv:FileVer) REQUIRE (fv.sha, fv.path) IS UNIQUE",
		},
		{
			Name:  "cve_id_unique",
			Label: "CVE",
			Cypher: "CREATE CONSTRAINT cve_id_unique IF NOT EXISTS " +
				"FOR (cve:CVE) REQUIRE cve.cve_id IS UNIQUE",
		},
	}
}

// ManagedIndexes returns indexes backing the writer's resolution lookups:
// call targets, inheritance parents and parameter types are all matched by
// simple name against the full Class/Interface/Method population.
func ManagedIndexes() []Index {
	return []Index{
		{
			Name:   "method_name",
			Label:  "Method",
			Cypher: "CREATE INDEX method_name IF NOT EXISTS FOR (m:Method) ON (m.name)",
		},
		{
			Name:   "class_name",
			Label:  "Class",
			Cypher: "CREATE INDEX class_name IF NOT EXISTS FOR (c:Class) ON (c.name)",
		},
		{
			Name:   "interface_name",
			Label:  "Interface",
			Cypher: "CREATE INDEX interface_name IF NOT EXISTS FOR (i:Interface) ON (i.name)",
		},
	}
}

// missingNames returns managed constraint names absent from existing, in
// managed-list order.
func missingNames(existing map[string]bool) []string {
	var missing []string
	for _, con := range ManagedConstraints() {
		if !existing[con.Name] {
			missing = append(missing, con.Name)
		}
	}
	return missing
}

// EnsureConstraints checks the store for the managed constraint set and
// creates any missing entries. Schema commands need implicit transactions,
// so everything here goes through session.Run. A store still missing
// constraints after creation is a fatal schema error; the caller must not
// write anything.
func (c *Client) EnsureConstraints(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, GetConfigForOperation("schema_setup").Timeout)
	defer cancel()

	session := c.driver.NewSession(opCtx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(opCtx)

	existing, err := constraintNames(opCtx, session)
	if err != nil {
		return errors.GraphError(err, "listing schema constraints")
	}

	missing := missingNames(existing)
	if len(missing) == 0 {
		c.logger.Debug("Schema constraints verified", "count", len(ManagedConstraints()))
		return nil
	}

	c.logger.Info("Creating schema constraints", "missing", len(missing))
	for _, con := range ManagedConstraints() {
		if err := runSchemaStatement(opCtx, session, con.Cypher); err != nil {
			return errors.GraphErrorf(err, "creating constraint %s", con.Name)
		}
	}
	for _, idx := range ManagedIndexes() {
		if err := runSchemaStatement(opCtx, session, idx.Cypher); err != nil {
			c.logger.Warn("Index creation failed", "index", idx.Name, "error", err)
		}
	}

	existing, err = constraintNames(opCtx, session)
	if err != nil {
		return errors.GraphError(err, "verifying schema constraints")
	}
	if missing = missingNames(existing); len(missing) > 0 {
		return errors.SchemaErrorf("schema constraints missing: %s", strings.Join(missing, ", "))
	}

	c.logger.Info("Schema constraints created", "count", len(ManagedConstraints()))
	return nil
}

// VerifyConstraints reports which managed constraints are absent from the
// store without creating anything.
func (c *Client) VerifyConstraints(ctx context.Context) ([]string, error) {
	opCtx, cancel := context.WithTimeout(ctx, GetConfigForOperation("query").Timeout)
	defer cancel()

	session := c.driver.NewSession(opCtx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(opCtx)

	existing, err := constraintNames(opCtx, session)
	if err != nil {
		return nil, errors.GraphError(err, "listing schema constraints")
	}
	return missingNames(existing), nil
}

func constraintNames(ctx context.Context, session neo4j.SessionWithContext) (map[string]bool, error) {
	result, err := session.Run(ctx, "SHOW CONSTRAINTS YIELD name", nil)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool)
	for result.Next(ctx) {
		if value, ok := result.Record().Get("name"); ok {
			if name, ok := value.(string); ok {
				names[name] = true
			}
		}
	}
	return names, result.Err()
}

func runSchemaStatement(ctx context.Context, session neo4j.SessionWithContext, cypher string) error {
	result, err := session.Run(ctx, cypher, nil)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}
