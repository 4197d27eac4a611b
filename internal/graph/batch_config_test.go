package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresetBatchConfig(t *testing.T) {
	tests := []struct {
		preset string
		want   BatchConfig
	}{
		{"small", BatchConfig{Standard: 200, Methods: 100, Embedded: 50}},
		{"large", BatchConfig{Standard: 2000, Methods: 1000, Embedded: 400}},
		{"default", BatchConfig{Standard: 1000, Methods: 500, Embedded: 200}},
		{"", BatchConfig{Standard: 1000, Methods: 500, Embedded: 200}},
		{"bogus", BatchConfig{Standard: 1000, Methods: 500, Embedded: 200}},
	}

	for _, tt := range tests {
		t.Run("preset_"+tt.preset, func(t *testing.T) {
			assert.Equal(t, tt.want, PresetBatchConfig(tt.preset))
		})
	}
}

func TestBatchSizesDropWithEmbeddings(t *testing.T) {
	bc := DefaultBatchConfig()

	assert.Equal(t, bc.Standard, bc.NodeSize(false))
	assert.Equal(t, bc.Embedded, bc.NodeSize(true))
	assert.Equal(t, bc.Methods, bc.MethodSize(false))
	assert.Equal(t, bc.Embedded, bc.MethodSize(true))
}
