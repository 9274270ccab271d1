package chunkstore

import (
	"qcore/qerrors"
	"qcore/schema"
)

// Chunk is an immutable row-range of a frozen Table, sized to an
// L2-friendly power of two (nominal 16,384 rows; the last chunk of a table
// may be shorter). Rows within a chunk are numbered 0..Len()-1.
type Chunk struct {
	schema  *schema.Schema
	columns []ColumnBuffer
	length  int
}

// NewChunk validates and freezes a chunk from one ColumnBuffer per schema
// field, enforcing the invariants spec.md §3 requires: every column has the
// same row count and every null bitmap is ceil(len/8) bytes long.
// Var-length offsets are checked separately, by NewVarLenBuffer.
func NewChunk(sch *schema.Schema, columns []ColumnBuffer) (*Chunk, error) {
	if len(columns) != sch.NumFields() {
		return nil, qerrors.Corruptf("chunk has %d columns but schema has %d fields", len(columns), sch.NumFields())
	}
	length := -1
	for i, col := range columns {
		if length == -1 {
			length = col.Len()
		} else if col.Len() != length {
			field, _ := sch.Field(i)
			return nil, qerrors.Corruptf("column %q has %d rows, expected %d", field.Name, col.Len(), length)
		}
		if nb := col.Nulls(); nb != nil {
			wantBytes := (length + 7) / 8
			if len(nb.Bytes()) != wantBytes {
				field, _ := sch.Field(i)
				return nil, qerrors.Corruptf("column %q null bitmap is %d bytes, expected %d", field.Name, len(nb.Bytes()), wantBytes)
			}
		}
	}
	if length == -1 {
		length = 0
	}
	return &Chunk{schema: sch, columns: columns, length: length}, nil
}

// Len returns the number of rows in this chunk.
func (c *Chunk) Len() int { return c.length }

// Column returns the ColumnBuffer for the given ordinal.
func (c *Chunk) Column(ordinal int) ColumnBuffer {
	return c.columns[ordinal]
}

// Schema returns the chunk's schema (shared with its owning Table).
func (c *Chunk) Schema() *schema.Schema { return c.schema }
