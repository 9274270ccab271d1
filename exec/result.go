// Package exec drives a physical.Op tree against a frozen chunkstore.Table,
// producing a Result. It is the only package that reads raw chunk memory
// outside of predicate/zonemap construction, and the only one that
// allocates fresh output buffers.
package exec

import (
	"qcore/chunkstore"
	"qcore/internal/rowbind"
	"qcore/schema"
	"qcore/zonemap"
)

// Result is the columnar output of one Run call: a schema plus one
// ColumnBuffer per output field, all sharing the same row count.
type Result struct {
	schema  *schema.Schema
	rows    int
	columns []chunkstore.ColumnBuffer
}

func newResult(sch *schema.Schema, rows int, columns []chunkstore.ColumnBuffer) *Result {
	return &Result{schema: sch, rows: rows, columns: columns}
}

// Schema returns the result's output schema.
func (r *Result) Schema() *schema.Schema { return r.schema }

// NumRows returns the number of rows produced.
func (r *Result) NumRows() int { return r.rows }

// IsEmpty reports whether the result has no rows.
func (r *Result) IsEmpty() bool { return r.rows == 0 }

// Any reports whether the result has at least one row, the executor-level
// primitive behind a collaborator's EXISTS-style query.
func (r *Result) Any() bool { return r.rows > 0 }

// Column returns the raw ColumnBuffer for the given output ordinal, for a
// collaborator that wants to read a whole column at once (e.g. to hand off
// to a vectorized downstream consumer) rather than row by row.
func (r *Result) Column(ordinal int) chunkstore.ColumnBuffer { return r.columns[ordinal] }

// Scalar boxes the value at (ordinal, row), reporting validity.
func (r *Result) Scalar(ordinal, row int) (zonemap.Scalar, bool) {
	return rowbind.ValueAt(r.columns[ordinal], row)
}

// Row materializes one full row via internal/rowbind, the representation a
// collaborator's rowwise materializer consumes (spec.md §6/§9).
func (r *Result) Row(row int) rowbind.Row {
	vals := make([]zonemap.Scalar, len(r.columns))
	valid := make([]bool, len(r.columns))
	for i, col := range r.columns {
		v, ok := rowbind.ValueAt(col, row)
		vals[i], valid[i] = v, ok
	}
	return rowbind.Row{Schema: r.schema, Values: vals, Valid: valid}
}

// First returns the result's first row, for a query expected to produce at
// most one (e.g. a whole-input Aggregate).
func (r *Result) First() (rowbind.Row, bool) {
	if r.rows == 0 {
		return rowbind.Row{}, false
	}
	return r.Row(0), true
}

// Rows materializes every row via internal/rowbind; prefer Column/Scalar on
// the hot path, this is for small result sets and tests.
func (r *Result) Rows() []rowbind.Row {
	out := make([]rowbind.Row, r.rows)
	for i := range out {
		out[i] = r.Row(i)
	}
	return out
}
