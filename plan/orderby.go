package plan

import "qcore/schema"

// OrderKey is one ORDER BY key: a column ordinal plus direction. Multiple
// keys compare in list order (first key is primary), matching spec.md §6's
// grammar ("ORDER BY <col> [ASC|DESC] (, ...)").
type OrderKey struct {
	Column int
	Desc   bool
}

// OrderBy sorts its child's rows by Keys before any Limit/Offset above it
// is applied. It is not named in spec.md §4.3's node-variant enumeration,
// but §4.5 requires a sort sub-kernel ("OrderBy is evaluated via a
// single-threaded sort ... or via a top-k heap") and §6's SQL grammar names
// ORDER BY directly, so it needs a plan node to carry sort keys between the
// front-end and the executor's sorter.
type OrderBy struct {
	Child Node
	Keys  []OrderKey
}

func (*OrderBy) isNode()                        {}
func (o *OrderBy) OutputSchema() *schema.Schema { return o.Child.OutputSchema() }
func (o *OrderBy) EstimatedRows() uint64        { return o.Child.EstimatedRows() }
