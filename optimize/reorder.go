package optimize

import (
	"sort"

	"qcore/plan"
	"qcore/predicate"
)

// reorderPredicates implements spec.md §4.3 rule 1: sort a Filter's
// top-level predicates ascending by estimated selectivity so the And
// evaluation loop's early-exit check rejects rows as cheaply as possible.
// Conjunction is commutative, so this never changes which rows match.
func reorderPredicates(n plan.Node) (plan.Node, bool) {
	f, ok := n.(*plan.Filter)
	if !ok || len(f.Predicates) < 2 {
		return n, false
	}
	sorted := make([]predicate.Predicate, len(f.Predicates))
	copy(sorted, f.Predicates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Selectivity(nil) < sorted[j].Selectivity(nil)
	})
	if samePredicateOrder(f.Predicates, sorted) {
		return n, false
	}
	return &plan.Filter{Child: f.Child, Predicates: sorted, Fuseable: f.Fuseable}, true
}

func samePredicateOrder(a, b []predicate.Predicate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
