package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// TransactionConfig defines timeout and metadata for transactions.
//
// Transaction metadata is logged by Neo4j and visible in query.log, which
// helps with categorizing slow operations after a long ingest.
type TransactionConfig struct {
	Timeout  time.Duration
	Metadata map[string]any
}

// DefaultTransactionConfigs returns recommended configs per operation type.
func DefaultTransactionConfigs() map[string]TransactionConfig {
	return map[string]TransactionConfig{
		// Batched node and relationship upserts
		"batch_write": {
			Timeout: 3 * time.Minute,
			Metadata: map[string]any{
				"operation": "batch_write",
				"type":      "write",
			},
		},

		// Constraint and index management
		"schema_setup": {
			Timeout: 5 * time.Minute,
			Metadata: map[string]any{
				"operation": "schema_setup",
				"type":      "schema",
			},
		},

		// Label-scoped detach delete for rebuilds
		"wipe": {
			Timeout: 10 * time.Minute,
			Metadata: map[string]any{
				"operation": "wipe",
				"type":      "write",
			},
		},

		// Read-back queries (status, verification)
		"query": {
			Timeout: 30 * time.Second,
			Metadata: map[string]any{
				"operation": "query",
				"type":      "read",
			},
		},

		// Health checks must be fast
		"health_check": {
			Timeout: 5 * time.Second,
			Metadata: map[string]any{
				"operation": "health_check",
				"type":      "read",
			},
		},
	}
}

// AsNeo4jConfig converts to Neo4j transaction config functions.
// Use with session.Run or ExecuteRead/ExecuteWrite.
func (tc TransactionConfig) AsNeo4jConfig() []func(*neo4j.TransactionConfig) {
	configs := []func(*neo4j.TransactionConfig){}

	if tc.Timeout > 0 {
		configs = append(configs, neo4j.WithTxTimeout(tc.Timeout))
	}

	if len(tc.Metadata) > 0 {
		configs = append(configs, neo4j.WithTxMetadata(tc.Metadata))
	}

	return configs
}

// GetConfigForOperation retrieves the transaction config for an operation,
// falling back to a conservative default for unknown operation names.
func GetConfigForOperation(operation string) TransactionConfig {
	configs := DefaultTransactionConfigs()
	if config, ok := configs[operation]; ok {
		return config
	}

	return TransactionConfig{
		Timeout: 60 * time.Second,
		Metadata: map[string]any{
			"operation": operation,
		},
	}
}
