package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcore/qerrors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestDecodeOverlaysOntoDefaults(t *testing.T) {
	r := strings.NewReader(`
parallel_threshold = 1000
enable_simd = false
`)
	cfg, err := Decode(r)
	require.NoError(t, err)

	assert.Equal(t, uint64(1000), cfg.ParallelThreshold)
	assert.False(t, cfg.EnableSimd)
	// Everything not named in the document keeps its default.
	assert.Equal(t, 16_384, cfg.ChunkSize)
	assert.True(t, cfg.EnableZoneMaps)
	assert.True(t, cfg.EnableBloomFilters)
	assert.True(t, cfg.StrictMode)
}

func TestDecodeRejectsMalformedToml(t *testing.T) {
	_, err := Decode(strings.NewReader("this is not = valid [[[ toml"))
	assert.Error(t, err)
}

func TestDecodePropagatesValidationFailure(t *testing.T) {
	r := strings.NewReader(`chunk_size = 100`)
	_, err := Decode(r)
	require.Error(t, err)

	var qerr *qerrors.Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, qerrors.SchemaMismatch, qerr.Kind)
}

func TestValidateRejectsNonPowerOfTwoChunkSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkSize = 1000
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroChunkSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveParallelism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDegreeOfParallelism = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositivePlanCacheCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlanCacheCapacity = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeSortThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SortThreshold = -1
	assert.Error(t, cfg.Validate())
}

func TestDefaultSortThresholdMatchesSpec(t *testing.T) {
	assert.Equal(t, 10_000, DefaultConfig().SortThreshold)
}

func TestValidateRejectsNegativeMaxGroupCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxGroupCount = -1
	assert.Error(t, cfg.Validate())
}

func TestDefaultMaxGroupCountIsPositive(t *testing.T) {
	assert.Equal(t, 1_000_000, DefaultConfig().MaxGroupCount)
}

func TestWorkersCapsAtThirtyTwo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDegreeOfParallelism = 256
	assert.Equal(t, 32, cfg.Workers())
}

func TestWorkersFloorsAtOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDegreeOfParallelism = 0
	assert.Equal(t, 1, cfg.Workers())

	cfg.MaxDegreeOfParallelism = -5
	assert.Equal(t, 1, cfg.Workers())
}

func TestWorkersPassesThroughMidRangeValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDegreeOfParallelism = 4
	assert.Equal(t, 4, cfg.Workers())
}

func TestLoadConfigReturnsErrorForMissingFile(t *testing.T) {
	_, err := LoadConfig("/no/such/path/qcore.toml")
	assert.Error(t, err)
}
