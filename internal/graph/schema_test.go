package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagedConstraintSet(t *testing.T) {
	constraints := ManagedConstraints()
	require.Len(t, constraints, 11)

	names := make([]string, 0, len(constraints))
	for _, c := range constraints {
		names = append(names, c.Name)

		assert.Contains(t, c.Cypher, "CREATE CONSTRAINT "+c.Name+" IF NOT EXISTS",
			"constraint %s must create by its own name so SHOW CONSTRAINTS verification matches", c.Name)
		assert.Contains(t, c.Cypher, ":"+c.Label, "constraint %s must target its label", c.Name)
	}

	assert.Equal(t, []string{
		"directory_path",
		"file_path",
		"class_name_file",
		"interface_name_file",
		"method_signature_unique",
		"import_path",
		"external_dependency_package",
		"commit_sha",
		"developer_email",
		"file_ver_sha_path",
		"cve_id_unique",
	}, names)
}

func TestManagedIndexesAreIdempotent(t *testing.T) {
	for _, idx := range ManagedIndexes() {
		assert.Contains(t, idx.Cypher, "IF NOT EXISTS", "index %s", idx.Name)
	}
}

func TestMissingNames(t *testing.T) {
	assert.Len(t, missingNames(map[string]bool{}), 11)

	all := make(map[string]bool)
	for _, c := range ManagedConstraints() {
		all[c.Name] = true
	}
	assert.Empty(t, missingNames(all))

	delete(all, "method_signature_unique")
	delete(all, "file_path")
	missing := missingNames(all)
	assert.Equal(t, []string{"file_path", "method_signature_unique"}, missing,
		"missing names keep managed-list order for stable error messages")

	msg := "schema constraints missing: " + strings.Join(missing, ", ")
	assert.Equal(t, "schema constraints missing: file_path, method_signature_unique", msg)
}
