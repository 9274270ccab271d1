package chunkstore

import (
	"qcore/qerrors"
	"qcore/schema"
)

// ColumnarSource is the interface external collaborators (the
// object-to-columnar ingestion path, an IPC reader) implement to hand the
// engine data without this package needing to know how it was produced.
// The core never writes through this interface (spec.md §6).
type ColumnarSource interface {
	Schema() *schema.Schema
	ChunkCount() int
	Chunk(i int) *Chunk
}

// Table is an ordered, immutable sequence of chunks sharing one schema.
// A Table is never mutated after Freeze; it implements ColumnarSource
// directly so it can be queried without an adapter.
type Table struct {
	schema *schema.Schema
	chunks []*Chunk
	rows   uint64
}

// Freeze builds a Table from a schema and a set of already-validated
// chunks. Every chunk must share the exact same schema pointer (chunks are
// never rebuilt against a different schema once created).
func Freeze(sch *schema.Schema, chunks []*Chunk) (*Table, error) {
	var rows uint64
	for i, c := range chunks {
		if c.schema != sch {
			return nil, qerrors.SchemaMismatchf("chunk %d was built against a different schema than the table", i)
		}
		rows += uint64(c.Len())
	}
	return &Table{schema: sch, chunks: chunks, rows: rows}, nil
}

func (t *Table) Schema() *schema.Schema { return t.schema }
func (t *Table) ChunkCount() int        { return len(t.chunks) }
func (t *Table) Chunk(i int) *Chunk     { return t.chunks[i] }
func (t *Table) NumRows() uint64        { return t.rows }
