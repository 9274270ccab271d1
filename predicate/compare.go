package predicate

import (
	"qcore/bitmap"
	"qcore/chunkstore"
	"qcore/qerrors"
	"qcore/zonemap"
)

// Compare is a leaf predicate: column <op> operand, where operand is a
// constant boxed the same way zone-map bounds are, so Selectivity and
// PruneCheck can compare directly against Entry.Min/Max under one total
// order.
type Compare struct {
	Column  int
	Op      CompareOp
	Operand zonemap.Scalar
}

func (c *Compare) Columns() []int { return []int{c.Column} }

func (c *Compare) Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error {
	buf, err := columnBuffer(chunk, c.Column)
	if err != nil {
		return err
	}
	applyNullMask(sel, buf.Nulls())
	if sel.IsEmpty() {
		return nil
	}
	evalNumericKernel(buf, sel, func(s zonemap.Scalar) bool {
		return c.Op.apply(zonemap.Compare(s, c.Operand))
	})
	return nil
}

// evalNumericKernel walks buf's rows still set in sel and clears any row
// whose boxed value does not satisfy keep. The type switch happens once per
// call (not per row): each case is a monomorphized loop over the concrete
// buffer, matching spec.md §9's "leaf kernels are monomorphized per column
// type" by dispatching via Go's static generic instantiation rather than a
// per-row interface call.
func evalNumericKernel(buf chunkstore.ColumnBuffer, sel *bitmap.Bitmap, keep func(zonemap.Scalar) bool) {
	n := buf.Len()
	switch b := buf.(type) {
	case *chunkstore.FixedWidthBuffer[int8]:
		filterFixed(b.Values, sel, n, func(v int8) bool { return keep(zonemap.Int(int64(v))) })
	case *chunkstore.FixedWidthBuffer[int16]:
		filterFixed(b.Values, sel, n, func(v int16) bool { return keep(zonemap.Int(int64(v))) })
	case *chunkstore.FixedWidthBuffer[int32]:
		filterFixed(b.Values, sel, n, func(v int32) bool { return keep(zonemap.Int(int64(v))) })
	case *chunkstore.FixedWidthBuffer[int64]:
		filterFixed(b.Values, sel, n, func(v int64) bool { return keep(zonemap.Int(v)) })
	case *chunkstore.FixedWidthBuffer[uint8]:
		filterFixed(b.Values, sel, n, func(v uint8) bool { return keep(zonemap.Uint(uint64(v))) })
	case *chunkstore.FixedWidthBuffer[uint16]:
		filterFixed(b.Values, sel, n, func(v uint16) bool { return keep(zonemap.Uint(uint64(v))) })
	case *chunkstore.FixedWidthBuffer[uint32]:
		filterFixed(b.Values, sel, n, func(v uint32) bool { return keep(zonemap.Uint(uint64(v))) })
	case *chunkstore.FixedWidthBuffer[uint64]:
		filterFixed(b.Values, sel, n, func(v uint64) bool { return keep(zonemap.Uint(v)) })
	case *chunkstore.FixedWidthBuffer[float32]:
		filterFixed(b.Values, sel, n, func(v float32) bool { return keep(zonemap.Float(float64(v))) })
	case *chunkstore.FixedWidthBuffer[float64]:
		filterFixed(b.Values, sel, n, func(v float64) bool { return keep(zonemap.Float(v)) })
	case *chunkstore.VarLenBuffer:
		for i := 0; i < n; i++ {
			if !sel.Get(i) {
				continue
			}
			if !keep(zonemap.Bin(b.Value(i))) {
				sel.Clear(i)
			}
		}
	case *chunkstore.BoolBuffer:
		for i := 0; i < n; i++ {
			if !sel.Get(i) {
				continue
			}
			if !keep(zonemap.Bool(b.Get(i))) {
				sel.Clear(i)
			}
		}
	}
}

// filterFixed is the generic monomorphized comparison loop instantiated once
// per Numeric type by the Go compiler; callers never see a type switch
// inside the per-row path.
func filterFixed[T chunkstore.Numeric](values []T, sel *bitmap.Bitmap, n int, keep func(T) bool) {
	for i := 0; i < n; i++ {
		if !sel.Get(i) {
			continue
		}
		if !keep(values[i]) {
			sel.Clear(i)
		}
	}
}

// Selectivity refines a default comparison-operator prior using the zone
// map's min/max when available, assuming a uniform distribution over
// [min, max] (spec.md §4.2 "Selectivity estimation").
func (c *Compare) Selectivity(zone *zonemap.Entry) float64 {
	const defaultEq, defaultRange = 0.1, 0.33
	if zone == nil || !zone.MinDefined || !zone.MaxDefined || c.Operand.Kind == zonemap.KindBytes {
		// The uniform-over-[min,max] refinement below only makes sense for
		// an ordered numeric span; a byte-string zone has no meaningful
		// AsFloat64 distance, so fall back to the operator-based prior.
		if c.Op == Eq || c.Op == Ne {
			return defaultEq
		}
		return defaultRange
	}
	lo, hi := zone.Min.AsFloat64(), zone.Max.AsFloat64()
	if hi <= lo {
		return defaultEq
	}
	span := hi - lo
	v := c.Operand.AsFloat64()
	frac := func(x float64) float64 {
		if x < lo {
			return 0
		}
		if x > hi {
			return 1
		}
		return (x - lo) / span
	}
	switch c.Op {
	case Eq:
		return clamp01(1.0 / span)
	case Ne:
		return clamp01(1.0 - 1.0/span)
	case Lt:
		return clamp01(frac(v))
	case Le:
		return clamp01(frac(v))
	case Gt:
		return clamp01(1 - frac(v))
	case Ge:
		return clamp01(1 - frac(v))
	default:
		return defaultRange
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// PruneCheck answers the "impossible" / "trivially true" question from
// spec.md §4.2 using only the zone map's min/max/null-count, never touching
// a row.
func (c *Compare) PruneCheck(e *zonemap.Entry) (impossible, tautology bool) {
	if e == nil || !e.MinDefined || !e.MaxDefined {
		return false, false
	}
	// zonemap.Compare orders same-kind scalars under the column type's
	// total order (byte-wise for KindBytes, numeric otherwise), so this
	// works uniformly across numeric and string/binary columns rather than
	// collapsing every KindBytes operand to AsFloat64's hardcoded 0.
	loCmp := zonemap.Compare(c.Operand, e.Min) // v vs lo
	hiCmp := zonemap.Compare(c.Operand, e.Max) // v vs hi
	switch c.Op {
	case Eq:
		if loCmp < 0 || hiCmp > 0 {
			return true, false
		}
	case Ne:
		if zonemap.Compare(e.Min, e.Max) == 0 && loCmp == 0 {
			return true, false
		}
	case Lt:
		if loCmp <= 0 {
			return true, false
		}
		if hiCmp > 0 {
			return false, e.NullCount == 0
		}
	case Le:
		if loCmp < 0 {
			return true, false
		}
		if hiCmp >= 0 {
			return false, e.NullCount == 0
		}
	case Gt:
		if hiCmp >= 0 {
			return true, false
		}
		if loCmp < 0 {
			return false, e.NullCount == 0
		}
	case Ge:
		if hiCmp > 0 {
			return true, false
		}
		if loCmp <= 0 {
			return false, e.NullCount == 0
		}
	}
	return false, false
}

// NewCompare validates the operand's scalar kind matches the column's
// logical type before constructing a Compare leaf, per spec.md §4.2's
// requirement that predicate construction reject type-mismatched operands
// up front rather than at evaluation time.
func NewCompare(schemaKind zonemap.ScalarKind, column int, op CompareOp, operand zonemap.Scalar) (*Compare, error) {
	if schemaKind != operand.Kind {
		return nil, qerrors.New(qerrors.UnsupportedExpression, "comparison operand kind %d does not match column kind %d", operand.Kind, schemaKind)
	}
	return &Compare{Column: column, Op: op, Operand: operand}, nil
}
