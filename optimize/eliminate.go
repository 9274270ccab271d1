package optimize

import (
	"qcore/plan"
	"qcore/predicate"
	"qcore/schema"
	"qcore/zonemap"
)

// eliminatePredicates implements spec.md §4.3 rule 5: drop tautological
// predicates (is-not-null on a non-nullable column) and fold a Filter whose
// top-level predicates are jointly unsatisfiable (e.g. "a > 10 AND a < 5")
// to an empty result, without evaluating a single row.
func eliminatePredicates(n plan.Node) (plan.Node, bool) {
	f, ok := n.(*plan.Filter)
	if !ok || len(f.Predicates) == 0 {
		return n, false
	}
	if len(f.Predicates) == 1 {
		if _, isConst := f.Predicates[0].(*predicate.Constant); isConst {
			return n, false // already folded
		}
	}

	childSchema := f.Child.OutputSchema()
	kept := make([]predicate.Predicate, 0, len(f.Predicates))
	changed := false
	for _, p := range f.Predicates {
		if isTautology(p, childSchema) {
			changed = true
			continue
		}
		kept = append(kept, p)
	}

	if isContradiction(kept) {
		return &plan.Filter{
			Child:      f.Child,
			Predicates: []predicate.Predicate{&predicate.Constant{Match: false}},
			Fuseable:   f.Fuseable,
		}, true
	}

	if !changed {
		return n, false
	}
	if len(kept) == 0 {
		kept = []predicate.Predicate{&predicate.Constant{Match: true}}
	}
	return &plan.Filter{Child: f.Child, Predicates: kept, Fuseable: f.Fuseable}, true
}

// isTautology reports whether p is always true independent of chunk
// contents: currently only "IsNotNull on a non-nullable column" (spec.md
// §4.3 rule 5's first example). "col == col" isn't representable in this
// predicate model — Compare's operand is always a constant, never another
// column — so there is nothing to eliminate for that case (see DESIGN.md).
func isTautology(p predicate.Predicate, sch *schema.Schema) bool {
	in, ok := p.(*predicate.IsNotNull)
	if !ok {
		return false
	}
	field, err := sch.Field(in.Column)
	if err != nil {
		return false
	}
	return !field.Nullable
}

// columnBound accumulates the tightest [lo, hi] interval a column's Compare
// leaves jointly imply.
type columnBound struct {
	loSet, hiSet             bool
	lo, hi                   float64
	loInclusive, hiInclusive bool
}

func (b *columnBound) tightenLo(v float64, inclusive bool) {
	if !b.loSet || v > b.lo || (v == b.lo && !inclusive) {
		b.lo, b.loInclusive, b.loSet = v, inclusive, true
	}
}

func (b *columnBound) tightenHi(v float64, inclusive bool) {
	if !b.hiSet || v < b.hi || (v == b.hi && !inclusive) {
		b.hi, b.hiInclusive, b.hiSet = v, inclusive, true
	}
}

// isContradiction reports whether the conjunction of kept's Compare leaves
// is jointly unsatisfiable: each numeric column accumulates a bound across
// its Compare leaves, and an empty resulting interval on any column means
// the whole Filter can never match a row.
func isContradiction(kept []predicate.Predicate) bool {
	bounds := map[int]*columnBound{}

	for _, p := range kept {
		c, ok := p.(*predicate.Compare)
		if !ok {
			continue
		}
		if c.Operand.Kind == zonemap.KindBytes {
			// AsFloat64 has no meaningful value for a byte-string operand
			// (it hardcodes 0), so a string column's Compare leaves can't be
			// folded into this numeric [lo, hi] interval without spuriously
			// contradicting every other leaf on the same column; skip them
			// rather than risk folding a satisfiable string range to empty.
			continue
		}
		b, ok := bounds[c.Column]
		if !ok {
			b = &columnBound{}
			bounds[c.Column] = b
		}
		v := c.Operand.AsFloat64()
		switch c.Op {
		case predicate.Eq:
			b.tightenLo(v, true)
			b.tightenHi(v, true)
		case predicate.Lt:
			b.tightenHi(v, false)
		case predicate.Le:
			b.tightenHi(v, true)
		case predicate.Gt:
			b.tightenLo(v, false)
		case predicate.Ge:
			b.tightenLo(v, true)
		}
	}

	for _, b := range bounds {
		if !b.loSet || !b.hiSet {
			continue
		}
		if b.lo > b.hi {
			return true
		}
		if b.lo == b.hi && !(b.loInclusive && b.hiInclusive) {
			return true
		}
	}
	return false
}
