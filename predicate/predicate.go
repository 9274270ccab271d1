// Package predicate implements the engine's column predicate tree: leaf
// comparisons and composite boolean combinators that evaluate directly
// against a Chunk's columnar buffers, writing their result into a selection
// bitmap. Every leaf kernel is monomorphized per logical type so the hot
// loop never branches on type (spec.md §9).
package predicate

import (
	"qcore/bitmap"
	"qcore/chunkstore"
	"qcore/qerrors"
	"qcore/zonemap"
)

// Predicate is satisfied by every leaf and composite node in the predicate
// tree. Evaluate ANDs its result into sel in place: rows not matching the
// predicate are cleared, rows already clear stay clear. Callers must seed
// sel with the chunk's valid-row mask (typically all-set, or the running
// selection from a prior predicate) before calling Evaluate.
type Predicate interface {
	// Evaluate clears every bit in sel whose row does not satisfy the
	// predicate against chunk. sel must have length chunk.Len().
	Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error

	// Selectivity estimates the fraction of rows (in [0,1]) expected to
	// match, optionally refined by a zone-map entry for the predicate's
	// column. A nil zone gives the predicate's prior estimate.
	Selectivity(zone *zonemap.Entry) float64

	// Columns returns the ordinals this predicate reads, for projection
	// pushdown and zone-map lookups.
	Columns() []int

	// PruneCheck implements zonemap.Prunable: whether entry proves the
	// predicate can never match (impossible) or always matches every
	// non-null row (tautology) in a chunk, without evaluating a single row.
	PruneCheck(entry *zonemap.Entry) (impossible, tautology bool)
}

// CompareOp is the comparison operator for a Compare leaf predicate.
type CompareOp uint8

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op CompareOp) apply(cmp int) bool {
	switch op {
	case Eq:
		return cmp == 0
	case Ne:
		return cmp != 0
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	case Gt:
		return cmp > 0
	case Ge:
		return cmp >= 0
	default:
		return false
	}
}

// columnBuffer validates that column exists in chunk's schema and returns
// its buffer, used by every leaf Evaluate before touching raw memory.
func columnBuffer(chunk *chunkstore.Chunk, ordinal int) (chunkstore.ColumnBuffer, error) {
	sch := chunk.Schema()
	if ordinal < 0 || ordinal >= sch.NumFields() {
		return nil, qerrors.SchemaMismatchf("predicate references column ordinal %d outside schema", ordinal)
	}
	return chunk.Column(ordinal), nil
}

// applyNullMask clears sel at every row the column's null bitmap marks
// invalid; per spec.md §4.2 step 1, nulls are cleared before any comparison
// so a leaf never has to special-case a null operand mid-kernel.
func applyNullMask(sel *bitmap.Bitmap, nb *chunkstore.NullBitmap) {
	if nb == nil {
		return
	}
	sel.AndWithArrowNullBitmap(nb.Bytes())
}
