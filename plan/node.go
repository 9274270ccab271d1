// Package plan defines the engine's immutable logical plan tree: a closed
// set of node variants (Scan/Filter/Project/Aggregate/GroupBy/OrderBy/Limit/Offset)
// that the optimizer rewrites and the physical planner lowers. A plan.Node
// is a persistent value — optimizing it never mutates a node in place, it
// builds a new tree (spec.md §4.3).
package plan

import (
	"qcore/predicate"
	"qcore/schema"
)

// Node is implemented by every logical plan variant. isNode is unexported
// so the set of variants is closed to this package, mirroring the teacher's
// closed-dialect-type habit applied to a plan tree instead of a SQL dialect.
type Node interface {
	isNode()

	// OutputSchema is the schema a consumer of this node's rows observes.
	OutputSchema() *schema.Schema

	// EstimatedRows is the optimizer's cardinality estimate, propagated
	// from the child and refined per spec.md §4.3.
	EstimatedRows() uint64
}

// Scan is the only node with no child: it names the frozen table being
// read. RowCount is the table's actual row count, supplied at construction
// time so EstimatedRows never has to reach into the table itself.
type Scan struct {
	TableRef string
	Schema   *schema.Schema
	RowCount uint64
}

func (*Scan) isNode()                          {}
func (s *Scan) OutputSchema() *schema.Schema    { return s.Schema }
func (s *Scan) EstimatedRows() uint64           { return s.RowCount }

// Filter narrows its child's rows by a conjunction of predicates.
// Fuseable is set by the optimizer's Filter+Aggregate/GroupBy fusion rule
// and never changes what rows are produced, only how the physical planner
// chooses to evaluate them (spec.md §4.3 rule 4, DESIGN.md decision 1).
type Filter struct {
	Child      Node
	Predicates []predicate.Predicate
	Fuseable   bool
}

func (*Filter) isNode()                       {}
func (f *Filter) OutputSchema() *schema.Schema { return f.Child.OutputSchema() }

func (f *Filter) EstimatedRows() uint64 {
	sel := 1.0
	for _, p := range f.Predicates {
		sel *= p.Selectivity(nil)
	}
	rows := float64(f.Child.EstimatedRows()) * sel
	if rows < 0 {
		rows = 0
	}
	return uint64(rows)
}

// Project selects a named subset of its child's columns, in the given
// order. Aggregate-function projections (no GROUP BY) are represented by
// Aggregate instead, per spec.md §4.3's separate Aggregate variant.
type Project struct {
	Child   Node
	Outputs []string
}

func (*Project) isNode() {}

func (p *Project) OutputSchema() *schema.Schema {
	out, err := p.Child.OutputSchema().Project(p.Outputs)
	if err != nil {
		// frontend/sql checks Outputs against the child schema before it
		// builds a Project; frontend/expr's Select does not, so an unknown
		// name from that path panics here.
		panic(err)
	}
	return out
}

func (p *Project) EstimatedRows() uint64 { return p.Child.EstimatedRows() }

// Limit caps the row-major (chunk order, row-within-chunk order) output of
// its child to at most N rows.
type Limit struct {
	Child Node
	N     uint64
}

func (*Limit) isNode()                        {}
func (l *Limit) OutputSchema() *schema.Schema { return l.Child.OutputSchema() }

func (l *Limit) EstimatedRows() uint64 {
	if child := l.Child.EstimatedRows(); child < l.N {
		return child
	}
	return l.N
}

// Offset skips the first N rows of its child in chunk-major order.
type Offset struct {
	Child Node
	N     uint64
}

func (*Offset) isNode()                        {}
func (o *Offset) OutputSchema() *schema.Schema { return o.Child.OutputSchema() }

func (o *Offset) EstimatedRows() uint64 {
	child := o.Child.EstimatedRows()
	if o.N >= child {
		return 0
	}
	return child - o.N
}
