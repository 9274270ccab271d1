package optimize

import "qcore/plan"

// annotateFuseable implements spec.md §4.3 rule 4: a Filter directly
// feeding an Aggregate or GroupBy is annotated fuseable so the physical
// planner can emit a single-pass kernel. The annotation never drops or
// reorders the filter (DESIGN.md Open Question decision 1): it only adds
// information the physical planner may use.
func annotateFuseable(n plan.Node) (plan.Node, bool) {
	switch v := n.(type) {
	case *plan.Aggregate:
		f, ok := v.Child.(*plan.Filter)
		if !ok || f.Fuseable {
			return n, false
		}
		return &plan.Aggregate{
			Child:    &plan.Filter{Child: f.Child, Predicates: f.Predicates, Fuseable: true},
			Aggs:     v.Aggs,
			Fuseable: true,
		}, true
	case *plan.GroupBy:
		f, ok := v.Child.(*plan.Filter)
		if !ok || f.Fuseable {
			return n, false
		}
		return &plan.GroupBy{
			Child:           &plan.Filter{Child: f.Child, Predicates: f.Predicates, Fuseable: true},
			KeyColumns:      v.KeyColumns,
			KeyPropertyName: v.KeyPropertyName,
			Aggs:            v.Aggs,
			Fuseable:        true,
		}, true
	default:
		return n, false
	}
}
