package optimize

import "qcore/plan"

// pushdownLimitThroughProject implements spec.md §4.3 rule 6: a Limit above
// a Project moves below it. Project only renames/subsets columns — it never
// reorders or drops rows — so moving Limit below it is always row-order
// preserving, and lets the executor stop scanning remaining chunks as soon
// as the limit is satisfied instead of materializing every projected row
// first.
func pushdownLimitThroughProject(n plan.Node) (plan.Node, bool) {
	l, ok := n.(*plan.Limit)
	if !ok {
		return n, false
	}
	p, ok := l.Child.(*plan.Project)
	if !ok {
		return n, false
	}
	return &plan.Project{
		Child:   &plan.Limit{Child: p.Child, N: l.N},
		Outputs: p.Outputs,
	}, true
}
