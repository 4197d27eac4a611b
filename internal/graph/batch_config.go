package graph

// BatchConfig defines write batch sizes per payload shape.
//
// The UNWIND pattern keeps a single write bounded, so batch size trades
// round trips against transaction memory: method nodes carry many
// properties and get a smaller batch than plain nodes and relationships,
// and any batch carrying embedding vectors is smaller still.
type BatchConfig struct {
	// Standard covers nodes and relationships without vector payloads
	Standard int

	// Methods covers method node upserts; each row carries ~20 properties
	Methods int

	// Embedded covers any batch where embedding vectors ride along
	Embedded int
}

// DefaultBatchConfig returns batch sizes tuned for medium trees (~5K files).
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Standard: 1000,
		Methods:  500,
		Embedded: 200,
	}
}

// SmallTreeBatchConfig suits trees under ~500 files; smaller batches keep
// transaction memory low on modest Neo4j instances.
func SmallTreeBatchConfig() BatchConfig {
	return BatchConfig{
		Standard: 200,
		Methods:  100,
		Embedded: 50,
	}
}

// LargeTreeBatchConfig suits trees over ~10K files.
func LargeTreeBatchConfig() BatchConfig {
	return BatchConfig{
		Standard: 2000,
		Methods:  1000,
		Embedded: 400,
	}
}

// PresetBatchConfig maps a preset name to a BatchConfig. Unknown names fall
// back to the default sizing.
func PresetBatchConfig(preset string) BatchConfig {
	switch preset {
	case "small":
		return SmallTreeBatchConfig()
	case "large":
		return LargeTreeBatchConfig()
	default:
		return DefaultBatchConfig()
	}
}

// NodeSize returns the batch size for plain node or relationship payloads,
// dropping to the embedded size when vectors ride along.
func (bc BatchConfig) NodeSize(withEmbeddings bool) int {
	if withEmbeddings {
		return bc.Embedded
	}
	return bc.Standard
}

// MethodSize returns the batch size for method node payloads.
func (bc BatchConfig) MethodSize(withEmbeddings bool) int {
	if withEmbeddings {
		return bc.Embedded
	}
	return bc.Methods
}
