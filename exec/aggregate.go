package exec

import (
	"qcore/chunkstore"
	"qcore/internal/rowbind"
	"qcore/plan"
	"qcore/qerrors"
	"qcore/schema"
	"qcore/zonemap"
)

// CountStar is the AggSpec.Column sentinel for COUNT(*): it counts every
// selected row regardless of any column's nullity, rather than reading a
// particular column's validity.
const CountStar = -1

// aggState accumulates one AggSpec across however many chunks/workers feed
// it; merge combines two partials computed over disjoint row ranges, which
// is what lets the parallel strategy fan out per-chunk-range partials and
// fold them back in a single deterministic pass (spec.md §5: worker
// partials merge in chunk-range order, so count/sum/min/max/avg reproduce
// exactly across repeated runs even though floating-point summation order
// is not bit-identical to a single-threaded run).
//
// Sum/Avg over an integer-typed source column accumulate in sumInt
// (int64, overflow-checked) rather than the float64 sum: spec.md §8
// requires integer sum to reproduce bit-for-bit between a sequential and a
// parallel run, which int64 addition guarantees (associative, exact) and
// float64 addition does not (rounding depends on summation order, which
// differs between chunk-range partitionings). isIntSum is decided once
// from the source schema, not per row.
type aggState struct {
	spec     plan.AggSpec
	isIntSum bool
	count    int64
	sum      float64
	sumInt   int64
	min      zonemap.Scalar
	max      zonemap.Scalar
	minSet   bool
	maxSet   bool
}

func newAggStates(specs []plan.AggSpec, sch *schema.Schema) []*aggState {
	out := make([]*aggState, len(specs))
	for i, s := range specs {
		isIntSum := false
		if (s.Func == plan.Sum || s.Func == plan.Avg) && s.Column != CountStar {
			if f, err := sch.Field(s.Column); err == nil {
				isIntSum = f.Type.IsInteger()
			}
		}
		out[i] = &aggState{spec: s, isIntSum: isIntSum}
	}
	return out
}

// accumulateRow feeds one (chunk, row) pair into every state in states,
// stopping at the first ArithmeticOverflow (spec.md §7: arithmetic errors
// are fatal for the query, no partial results).
func accumulateRow(states []*aggState, chunk *chunkstore.Chunk, row int) error {
	for _, s := range states {
		if err := s.accumulateRow(chunk, row); err != nil {
			return err
		}
	}
	return nil
}

// intValue unboxes v as an exact int64, valid for every Scalar an
// integer-typed column (per schema.LogicalType.IsInteger) can produce:
// signed kinds box into I64 directly, and IsInteger excludes UInt64 (the
// only unsigned width that could overflow int64), so U64 always fits here.
func intValue(v zonemap.Scalar) int64 {
	if v.Kind == zonemap.KindUint {
		return int64(v.U64)
	}
	return v.I64
}

// addInt64Checked adds b into a, reporting overflow the same way a native
// checked-arithmetic intrinsic would: the two's-complement overflow test
// (result's sign disagrees with both operands' shared sign).
func addInt64Checked(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, true
	}
	return sum, false
}

func (s *aggState) accumulateRow(chunk *chunkstore.Chunk, row int) error {
	if s.spec.Column == CountStar {
		s.count++
		return nil
	}
	v, valid := rowbind.ValueAt(chunk.Column(s.spec.Column), row)
	if !valid {
		return nil
	}
	switch s.spec.Func {
	case plan.Count:
		s.count++
	case plan.Sum, plan.Avg:
		if s.isIntSum {
			sum, overflow := addInt64Checked(s.sumInt, intValue(v))
			if overflow {
				return qerrors.New(qerrors.ArithmeticOverflow,
					"aggregate %s on column %d overflowed int64 accumulator", s.spec.Func, s.spec.Column).
					WithEntity("aggregate", s.spec.OutputName)
			}
			s.sumInt = sum
		} else {
			s.sum += v.AsFloat64()
		}
		s.count++
	case plan.Min:
		if !s.minSet || zonemap.Compare(v, s.min) < 0 {
			s.min, s.minSet = v, true
		}
	case plan.Max:
		if !s.maxSet || zonemap.Compare(v, s.max) > 0 {
			s.max, s.maxSet = v, true
		}
	}
	return nil
}

// merge folds o into s, returning ArithmeticOverflow if combining two
// int64 partial sums itself overflows.
func (s *aggState) merge(o *aggState) error {
	s.count += o.count
	s.sum += o.sum
	if s.isIntSum {
		sum, overflow := addInt64Checked(s.sumInt, o.sumInt)
		if overflow {
			return qerrors.New(qerrors.ArithmeticOverflow,
				"merging aggregate %s on column %d overflowed int64 accumulator", s.spec.Func, s.spec.Column).
				WithEntity("aggregate", s.spec.OutputName)
		}
		s.sumInt = sum
	}
	if o.minSet && (!s.minSet || zonemap.Compare(o.min, s.min) < 0) {
		s.min, s.minSet = o.min, true
	}
	if o.maxSet && (!s.maxSet || zonemap.Compare(o.max, s.max) > 0) {
		s.max, s.maxSet = o.max, true
	}
	return nil
}

func mergeAggStates(dst, src []*aggState) error {
	for i := range dst {
		if err := dst[i].merge(src[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *aggState) result() (zonemap.Scalar, bool) {
	switch s.spec.Func {
	case plan.Count:
		return zonemap.Int(s.count), true
	case plan.Sum:
		if s.isIntSum {
			return zonemap.Float(float64(s.sumInt)), true
		}
		return zonemap.Float(s.sum), true
	case plan.Avg:
		if s.count == 0 {
			return zonemap.Scalar{}, false
		}
		if s.isIntSum {
			return zonemap.Float(float64(s.sumInt) / float64(s.count)), true
		}
		return zonemap.Float(s.sum / float64(s.count)), true
	case plan.Min:
		return s.min, s.minSet
	case plan.Max:
		return s.max, s.maxSet
	default:
		return zonemap.Scalar{}, false
	}
}
