// Package zonemap builds and queries per-chunk, per-column summary
// statistics used to prune chunks before a predicate is ever evaluated
// against their rows. An Entry holds the min/max defined values, the null
// count, and — for columns flagged low-cardinality at build time — an
// optional bloom filter of the distinct values.
package zonemap

import (
	"hash/fnv"

	"github.com/holiman/bloomfilter/v2"

	"qcore/chunkstore"
)

// Entry is one (chunk, column) zone-map row. MinDefined/MaxDefined are
// false when every value in the column is null (spec.md §3: "if null
// count equals chunk length, min/max are absent").
type Entry struct {
	Min, Max           Scalar
	MinDefined         bool
	MaxDefined         bool
	NullCount          int
	ChunkLen           int
	Bloom              *bloomfilter.Filter // nil unless this column was flagged low-cardinality
}

// Index holds one Entry per (chunk, column) for an entire table.
type Index struct {
	entries [][]Entry // entries[chunkIdx][columnOrdinal]
}

// Entry returns the zone-map entry for the given chunk and column, and
// whether one exists (a table built without zone maps, or a collaborator
// ColumnarSource with no zone-map support per §6, returns ok=false).
func (idx *Index) Entry(chunkIdx, columnOrdinal int) (Entry, bool) {
	if idx == nil || chunkIdx < 0 || chunkIdx >= len(idx.entries) {
		return Entry{}, false
	}
	row := idx.entries[chunkIdx]
	if columnOrdinal < 0 || columnOrdinal >= len(row) {
		return Entry{}, false
	}
	return row[columnOrdinal], true
}

// BuildOptions controls zone-map construction.
type BuildOptions struct {
	EnableBloomFilters     bool
	BloomCardinalityLimit  int // a column qualifies for a bloom filter when its distinct-value estimate for a chunk is <= this
	BloomFalsePositiveRate float64
}

// DefaultBuildOptions mirrors the engine-wide defaults from spec.md §6.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		EnableBloomFilters:     true,
		BloomCardinalityLimit:  256,
		BloomFalsePositiveRate: 0.01,
	}
}

// Build constructs a zone-map Index for every chunk/column in source.
func Build(source chunkstore.ColumnarSource, opts BuildOptions) *Index {
	sch := source.Schema()
	n := source.ChunkCount()
	idx := &Index{entries: make([][]Entry, n)}
	for ci := 0; ci < n; ci++ {
		chunk := source.Chunk(ci)
		row := make([]Entry, sch.NumFields())
		for col := 0; col < sch.NumFields(); col++ {
			row[col] = buildEntry(chunk, col, opts)
		}
		idx.entries[ci] = row
	}
	return idx
}

func buildEntry(chunk *chunkstore.Chunk, col int, opts BuildOptions) Entry {
	n := chunk.Len()
	e := Entry{ChunkLen: n}
	buf := chunk.Column(col)
	nb := buf.Nulls()
	e.NullCount = nb.NullCount()
	if e.NullCount == n {
		return e // all-null: min/max stay absent
	}

	distinct := map[string]struct{}{}
	trackDistinct := opts.EnableBloomFilters

	visit := func(i int, s Scalar, raw string) {
		if nb != nil && !nb.IsValid(i) {
			return
		}
		if !e.MinDefined || Compare(s, e.Min) < 0 {
			e.Min, e.MinDefined = s, true
		}
		if !e.MaxDefined || Compare(s, e.Max) > 0 {
			e.Max, e.MaxDefined = s, true
		}
		if trackDistinct {
			distinct[raw] = struct{}{}
		}
	}

	walkColumn(buf, n, visit)

	if trackDistinct && len(distinct) > 0 && len(distinct) <= opts.BloomCardinalityLimit {
		filter, err := bloomfilter.NewOptimal(uint64(len(distinct)), opts.BloomFalsePositiveRate)
		if err == nil {
			for v := range distinct {
				filter.Add(hashOf(v))
			}
			e.Bloom = filter
		}
	}
	return e
}

func hashOf(s string) *fnvHash64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return &fnvHash64{sum: h.Sum64()}
}

// fnvHash64 adapts a precomputed 64-bit sum to the hash.Hash64 interface
// that holiman/bloomfilter/v2 consumes, without re-hashing on every probe.
type fnvHash64 struct{ sum uint64 }

func (f *fnvHash64) Sum64() uint64                 { return f.sum }
func (f *fnvHash64) Write(p []byte) (int, error)   { return len(p), nil }
func (f *fnvHash64) Sum(b []byte) []byte           { return b }
func (f *fnvHash64) Reset()                        {}
func (f *fnvHash64) Size() int                      { return 8 }
func (f *fnvHash64) BlockSize() int                 { return 8 }

// MightContain reports whether the bloom filter might contain the given
// string value; false means it definitely does not.
func (e Entry) MightContain(s string) bool {
	if e.Bloom == nil {
		return true // no filter built: can't prune by bloom, fall through
	}
	return e.Bloom.Contains(hashOf(s))
}
