package exec

import (
	"qcore/physical"
	"qcore/plan"
)

// planInfo is the executor's single-pass linearization of a physical.Op
// chain. This engine's physical plans are always a strict pipeline (no
// joins, no branching — spec.md §2 scopes the engine to single-table
// queries), so one top-to-bottom walk fully describes the query: each
// stage below is present exactly when the corresponding physical.Op kind
// occurs in the chain, nil/zero otherwise.
//
// A query may carry two distinct Filter stages: preFilter sits below
// Aggregate/GroupBy (the SQL WHERE clause, pushed down so it can drive
// zone-map pruning during the scan) and postFilter sits above it (the SQL
// HAVING clause, evaluated against already-aggregated rows). gatherPlanInfo
// tells them apart by walk order: since it walks root-to-leaf, a Filter
// seen before aggregate/groupBy is assigned is HAVING; one seen after is
// WHERE.
type planInfo struct {
	scan   *plan.Scan
	scanOp *physical.Op

	preFilter   *plan.Filter
	preFilterOp *physical.Op

	postFilter   *plan.Filter
	postFilterOp *physical.Op

	aggregate *plan.Aggregate
	aggOp     *physical.Op

	groupBy *plan.GroupBy
	groupOp *physical.Op

	project *plan.Project

	orderBy   *plan.OrderBy
	orderByOp *physical.Op
}

func gatherPlanInfo(root *physical.Op) *planInfo {
	info := &planInfo{}

	hasAgg := false
	for cur := root; cur != nil; cur = cur.Child {
		if cur.Kind == physical.AggregateOp || cur.Kind == physical.GroupByOp {
			hasAgg = true
			break
		}
	}

	for cur := root; cur != nil; cur = cur.Child {
		switch cur.Kind {
		case physical.ScanOp:
			info.scan = cur.Logical.(*plan.Scan)
			info.scanOp = cur
		case physical.FilterOp:
			if hasAgg && info.aggregate == nil && info.groupBy == nil {
				info.postFilter = cur.Logical.(*plan.Filter)
				info.postFilterOp = cur
			} else {
				info.preFilter = cur.Logical.(*plan.Filter)
				info.preFilterOp = cur
			}
		case physical.AggregateOp:
			info.aggregate = cur.Logical.(*plan.Aggregate)
			info.aggOp = cur
		case physical.GroupByOp:
			info.groupBy = cur.Logical.(*plan.GroupBy)
			info.groupOp = cur
		case physical.ProjectOp:
			info.project = cur.Logical.(*plan.Project)
		case physical.SortOp:
			info.orderBy = cur.Logical.(*plan.OrderBy)
			info.orderByOp = cur
		}
	}
	return info
}
