// Package optimize rewrites a logical plan.Node tree to a fixed point using
// the rule set from spec.md §4.3. Every rule is a pure function
// (Node) -> (Node, changed bool); Optimize reruns the full rule set until a
// pass reports no change, bounded by a max-iteration guard so a rule bug
// cannot hang the optimizer.
package optimize

import (
	"qcore/plan"
)

const maxIterations = 64

// Optimize rewrites n to a fixed point. Optimization is pure: it never
// mutates n or any of its descendants, and never fails — every rule only
// rearranges or drops already-valid nodes (spec.md §7).
func Optimize(n plan.Node) (plan.Node, error) {
	cur := n
	for i := 0; i < maxIterations; i++ {
		next, changed := applyAll(cur)
		if !changed {
			return next, nil
		}
		cur = next
	}
	return cur, nil
}

// rule is one rewrite pass over a single node (not recursive); applyAll
// drives recursion and re-application.
type rule func(plan.Node) (plan.Node, bool)

var rules = []rule{
	splitFilterAnd,
	eliminatePredicates,
	pushdownFilterThroughProject,
	reorderPredicates,
	annotateFuseable,
	pushdownLimitThroughProject,
}

// applyAll recurses children-first (so a rule sees an already-rewritten
// child), then applies every rule at the current node once.
func applyAll(n plan.Node) (plan.Node, bool) {
	n, childChanged := rewriteChildren(n)
	changed := childChanged
	for _, r := range rules {
		var ruleChanged bool
		n, ruleChanged = r(n)
		changed = changed || ruleChanged
	}
	return n, changed
}

// rewriteChildren rebuilds n with its immediate child(ren) replaced by
// their recursively-optimized form. Scan has no children.
func rewriteChildren(n plan.Node) (plan.Node, bool) {
	switch v := n.(type) {
	case *plan.Scan:
		return v, false
	case *plan.Filter:
		child, changed := applyAll(v.Child)
		if !changed {
			return v, false
		}
		return &plan.Filter{Child: child, Predicates: v.Predicates, Fuseable: v.Fuseable}, true
	case *plan.Project:
		child, changed := applyAll(v.Child)
		if !changed {
			return v, false
		}
		return &plan.Project{Child: child, Outputs: v.Outputs}, true
	case *plan.Aggregate:
		child, changed := applyAll(v.Child)
		if !changed {
			return v, false
		}
		return &plan.Aggregate{Child: child, Aggs: v.Aggs, Fuseable: v.Fuseable}, true
	case *plan.GroupBy:
		child, changed := applyAll(v.Child)
		if !changed {
			return v, false
		}
		return &plan.GroupBy{Child: child, KeyColumns: v.KeyColumns, KeyPropertyName: v.KeyPropertyName, Aggs: v.Aggs, Fuseable: v.Fuseable}, true
	case *plan.OrderBy:
		child, changed := applyAll(v.Child)
		if !changed {
			return v, false
		}
		return &plan.OrderBy{Child: child, Keys: v.Keys}, true
	case *plan.Limit:
		child, changed := applyAll(v.Child)
		if !changed {
			return v, false
		}
		return &plan.Limit{Child: child, N: v.N}, true
	case *plan.Offset:
		child, changed := applyAll(v.Child)
		if !changed {
			return v, false
		}
		return &plan.Offset{Child: child, N: v.N}, true
	default:
		return n, false
	}
}
