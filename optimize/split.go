package optimize

import (
	"qcore/plan"
	"qcore/predicate"
)

// splitFilterAnd implements spec.md §4.3 rule 2: a Filter whose predicate
// list contains a top-level And-of-N-leaves is replaced by an equivalent
// Filter whose predicate list is those N leaves directly, so reordering and
// pushdown can operate per-leaf instead of being stuck behind one opaque
// And node.
func splitFilterAnd(n plan.Node) (plan.Node, bool) {
	f, ok := n.(*plan.Filter)
	if !ok {
		return n, false
	}
	changed := false
	flat := make([]predicate.Predicate, 0, len(f.Predicates))
	for _, p := range f.Predicates {
		if and, ok := p.(*predicate.And); ok {
			flat = append(flat, and.Children...)
			changed = true
			continue
		}
		flat = append(flat, p)
	}
	if !changed {
		return n, false
	}
	return &plan.Filter{Child: f.Child, Predicates: flat, Fuseable: f.Fuseable}, true
}
