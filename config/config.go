// Package config loads and validates the engine options spec.md §6 names,
// via github.com/BurntSushi/toml the same way the teacher codebase's
// internal/parser/toml package decodes a structured text document into a
// typed Go value before validating it.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"qcore/qerrors"
)

// Config holds every recognized engine option from spec.md §6
// Configuration. Zero-value Config is not valid; use DefaultConfig or
// LoadConfig.
type Config struct {
	ParallelThreshold        uint64 `toml:"parallel_threshold"`
	ChunkSize                int    `toml:"chunk_size"`
	MaxDegreeOfParallelism   int    `toml:"max_degree_of_parallelism"`
	ParallelGroupByThreshold uint64 `toml:"parallel_group_by_threshold"`
	SortThreshold            int    `toml:"sort_threshold"`
	MaxGroupCount            int    `toml:"max_group_count"`
	PlanCacheCapacity        int    `toml:"plan_cache_capacity"`
	EnableZoneMaps           bool   `toml:"enable_zone_maps"`
	EnableBloomFilters       bool   `toml:"enable_bloom_filters"`
	BloomCardinalityLimit    int    `toml:"bloom_cardinality_limit"`
	EnableSimd               bool   `toml:"enable_simd"`
	StrictMode               bool   `toml:"strict_mode"`
}

// maxWorkers bounds the worker pool regardless of what the caller or a
// config file requests (spec.md §5: "capped at 32").
const maxWorkers = 32

// DefaultConfig returns the engine defaults spec.md §6 lists, with
// MaxDegreeOfParallelism resolved from the host's CPU count.
func DefaultConfig() Config {
	return Config{
		ParallelThreshold:        50_000,
		ChunkSize:                16_384,
		MaxDegreeOfParallelism:   defaultWorkerCount(),
		ParallelGroupByThreshold: 100_000,
		SortThreshold:            10_000,
		MaxGroupCount:            1_000_000,
		PlanCacheCapacity:        100,
		EnableZoneMaps:           true,
		EnableBloomFilters:       true,
		BloomCardinalityLimit:    256,
		EnableSimd:               true,
		StrictMode:               true,
	}
}

// LoadConfig reads a TOML document at path, overlaying it on DefaultConfig
// so an omitted key keeps its default, then validates the result.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a TOML document from r the same way LoadConfig does, for
// callers that already hold an open reader (tests, embedded config blobs).
func Decode(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks range/shape invariants on every option, mirroring the
// teacher's ValidationError-returning validation pass (internal/core
// /validation.go) but tagged as a qerrors.Error so callers across the
// engine switch on one error taxonomy.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 || c.ChunkSize&(c.ChunkSize-1) != 0 {
		return qerrors.New(qerrors.SchemaMismatch, "chunk_size must be a positive power of two, got %d", c.ChunkSize).WithEntity("config", "chunk_size")
	}
	if c.MaxDegreeOfParallelism <= 0 {
		return qerrors.New(qerrors.SchemaMismatch, "max_degree_of_parallelism must be positive, got %d", c.MaxDegreeOfParallelism).WithEntity("config", "max_degree_of_parallelism")
	}
	if c.PlanCacheCapacity <= 0 {
		return qerrors.New(qerrors.SchemaMismatch, "plan_cache_capacity must be positive, got %d", c.PlanCacheCapacity).WithEntity("config", "plan_cache_capacity")
	}
	if c.SortThreshold < 0 {
		return qerrors.New(qerrors.SchemaMismatch, "sort_threshold must not be negative, got %d", c.SortThreshold).WithEntity("config", "sort_threshold")
	}
	if c.MaxGroupCount < 0 {
		return qerrors.New(qerrors.SchemaMismatch, "max_group_count must not be negative, got %d", c.MaxGroupCount).WithEntity("config", "max_group_count")
	}
	if c.BloomCardinalityLimit < 0 {
		return qerrors.New(qerrors.SchemaMismatch, "bloom_cardinality_limit must not be negative, got %d", c.BloomCardinalityLimit).WithEntity("config", "bloom_cardinality_limit")
	}
	return nil
}

// Workers returns the configured worker count, capped at maxWorkers
// regardless of what was requested (spec.md §5).
func (c Config) Workers() int {
	if c.MaxDegreeOfParallelism > maxWorkers {
		return maxWorkers
	}
	if c.MaxDegreeOfParallelism < 1 {
		return 1
	}
	return c.MaxDegreeOfParallelism
}
