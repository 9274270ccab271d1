// Package rowbind implements the schema-binding table spec.md §9 calls
// for: "reflection-driven per-row object construction ... replaced by a
// schema-binding table built once at ingest. The binding is a mapping from
// column ordinal to a typed accessor plus a per-record constructor that
// receives a chunk and a row index." exec and engine are its only
// importers; this package has no reason to be imported by a collaborator,
// so it lives under internal/.
package rowbind

import (
	"qcore/chunkstore"
	"qcore/schema"
	"qcore/zonemap"
)

// Row is the default per-record representation: one boxed zonemap.Scalar
// (plus a validity flag) per schema field, ordinal-aligned. This is the
// engine's stand-in for a collaborator-supplied user struct (spec.md §6:
// "the Row surface is a collaborator-supplied materializer"); the core
// itself has no user struct to reconstruct, so it hands back the boxed
// values a collaborator's constructor would otherwise be fed.
type Row struct {
	Schema *schema.Schema
	Values []zonemap.Scalar
	Valid  []bool
}

// Get resolves name to its ordinal and returns the row's boxed value there.
func (r Row) Get(name string) (zonemap.Scalar, bool, error) {
	ord, err := r.Schema.Ordinal(name)
	if err != nil {
		return zonemap.Scalar{}, false, err
	}
	return r.Values[ord], r.Valid[ord], nil
}

// Accessor reads the value at row i from a column buffer, reporting
// validity (false for a null row) alongside the boxed value.
type Accessor func(buf chunkstore.ColumnBuffer, row int) (zonemap.Scalar, bool)

// Binding is the schema -> accessor table, built once per output schema
// rather than once per row.
type Binding struct {
	Schema    *schema.Schema
	accessors []Accessor
}

// Bind builds a Binding for sch. Every field uses the same generic
// accessor today (there is no per-collaborator struct to reflect field
// tags from), but the table shape is what lets a future collaborator slot
// in a specialized accessor per field without touching the executor.
func Bind(sch *schema.Schema) *Binding {
	b := &Binding{Schema: sch, accessors: make([]Accessor, sch.NumFields())}
	for i := range b.accessors {
		b.accessors[i] = ValueAt
	}
	return b
}

// Construct builds one Row for row index within chunk, invoking each bound
// accessor exactly once. The executor calls this only when rowwise
// materialization is requested (spec.md §9), never on the columnar path.
func (b *Binding) Construct(chunk *chunkstore.Chunk, row int) Row {
	out := Row{Schema: b.Schema, Values: make([]zonemap.Scalar, len(b.accessors)), Valid: make([]bool, len(b.accessors))}
	for ord, acc := range b.accessors {
		v, valid := acc(chunk.Column(ord), row)
		out.Values[ord] = v
		out.Valid[ord] = valid
	}
	return out
}

// ValueAt is the default Accessor: it boxes whatever buf stores at row into
// a zonemap.Scalar using the same per-concrete-type dispatch zonemap.Build
// and predicate's numeric kernel already use, so the three monomorphized
// dispatch sites in this repository agree on exactly what a column's
// "value" is.
func ValueAt(buf chunkstore.ColumnBuffer, row int) (zonemap.Scalar, bool) {
	if nb := buf.Nulls(); nb != nil && !nb.IsValid(row) {
		return zonemap.Scalar{}, false
	}
	switch b := buf.(type) {
	case *chunkstore.FixedWidthBuffer[int8]:
		return zonemap.Int(int64(b.Values[row])), true
	case *chunkstore.FixedWidthBuffer[int16]:
		return zonemap.Int(int64(b.Values[row])), true
	case *chunkstore.FixedWidthBuffer[int32]:
		return zonemap.Int(int64(b.Values[row])), true
	case *chunkstore.FixedWidthBuffer[int64]:
		return zonemap.Int(b.Values[row]), true
	case *chunkstore.FixedWidthBuffer[uint8]:
		return zonemap.Uint(uint64(b.Values[row])), true
	case *chunkstore.FixedWidthBuffer[uint16]:
		return zonemap.Uint(uint64(b.Values[row])), true
	case *chunkstore.FixedWidthBuffer[uint32]:
		return zonemap.Uint(uint64(b.Values[row])), true
	case *chunkstore.FixedWidthBuffer[uint64]:
		return zonemap.Uint(b.Values[row]), true
	case *chunkstore.FixedWidthBuffer[float32]:
		return zonemap.Float(float64(b.Values[row])), true
	case *chunkstore.FixedWidthBuffer[float64]:
		return zonemap.Float(b.Values[row]), true
	case *chunkstore.VarLenBuffer:
		return zonemap.Bin(b.Value(row)), true
	case *chunkstore.BoolBuffer:
		return zonemap.Bool(b.Get(row)), true
	default:
		return zonemap.Scalar{}, false
	}
}
