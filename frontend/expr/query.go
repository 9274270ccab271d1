package expr

import (
	"qcore/exec"
	"qcore/plan"
	"qcore/predicate"
	"qcore/qerrors"
	"qcore/schema"
)

// AggCall names one aggregate function call in a Query's Aggregate/GroupBy
// clause: Func applied to the column named Column (empty for COUNT(*),
// which binds to exec.CountStar), bound to As in the output schema.
type AggCall struct {
	Func   plan.AggFunc
	Column string
	As     string
}

// CountStar builds a COUNT(*) call.
func CountStar(as string) AggCall { return AggCall{Func: plan.Count, Column: "", As: as} }

// CountOf builds a COUNT(column) call, which (unlike CountStar) only counts
// non-null values.
func CountOf(column, as string) AggCall { return AggCall{Func: plan.Count, Column: column, As: as} }

// SumOf builds a SUM(column) call.
func SumOf(column, as string) AggCall { return AggCall{Func: plan.Sum, Column: column, As: as} }

// MinOf builds a MIN(column) call.
func MinOf(column, as string) AggCall { return AggCall{Func: plan.Min, Column: column, As: as} }

// MaxOf builds a MAX(column) call.
func MaxOf(column, as string) AggCall { return AggCall{Func: plan.Max, Column: column, As: as} }

// AvgOf builds an AVG(column) call.
func AvgOf(column, as string) AggCall { return AggCall{Func: plan.Avg, Column: column, As: as} }

// orderTerm is one unbound ORDER BY key.
type orderTerm struct {
	column string
	desc   bool
}

// Query is a fluent builder over a single table's schema, the idiomatic Go
// stand-in for the reflected LINQ expression chain spec.md §6 describes:
// every clause is added as an ordinary method call, and Build resolves the
// whole chain against the bound schema in one pass, the same "build the
// binding table once" shape internal/rowbind and the SQL front end use.
type Query struct {
	tableRef string
	schema   *schema.Schema
	rowCount uint64

	where      Predicate
	groupBy    []string
	aggs       []AggCall
	projection []string
	orderBy    []orderTerm
	limit      *uint64
	offset     *uint64
}

// From starts a query against the named table, whose frozen schema and row
// count are already known (a caller typically gets both from the
// chunkstore.Table it is querying).
func From(tableRef string, sch *schema.Schema, rowCount uint64) *Query {
	return &Query{tableRef: tableRef, schema: sch, rowCount: rowCount}
}

// Where attaches a filter predicate. Calling Where more than once ANDs the
// predicates together.
func (q *Query) Where(p Predicate) *Query {
	if q.where == nil {
		q.where = p
	} else {
		q.where = And(q.where, p)
	}
	return q
}

// Select names the output columns, in order. Build does not reject Select
// combined with GroupBy/Aggregate; it places the Project above the
// aggregation.
func (q *Query) Select(columns ...string) *Query {
	q.projection = columns
	return q
}

// GroupBy names the grouping key columns; combine with Aggregate to add the
// per-group aggregate calls.
func (q *Query) GroupBy(columns ...string) *Query {
	q.groupBy = columns
	return q
}

// Aggregate adds aggregate-function calls. With no GroupBy, this produces a
// single-row whole-input Aggregate; with GroupBy, a per-group GroupBy node.
func (q *Query) Aggregate(calls ...AggCall) *Query {
	q.aggs = append(q.aggs, calls...)
	return q
}

// OrderBy appends one sort key; the first call is the primary key.
func (q *Query) OrderBy(column string, desc bool) *Query {
	q.orderBy = append(q.orderBy, orderTerm{column: column, desc: desc})
	return q
}

// Limit caps the result to at most n rows.
func (q *Query) Limit(n uint64) *Query {
	q.limit = &n
	return q
}

// Offset skips the first n rows.
func (q *Query) Offset(n uint64) *Query {
	q.offset = &n
	return q
}

// Build lowers the accumulated clauses into a logical plan rooted at a
// Scan over q.schema. A WHERE, GROUP BY, aggregate or ORDER BY column that
// does not resolve fails with UnsupportedExpression; Select's column names
// are not checked here, and no combination of clauses is rejected.
func (q *Query) Build() (plan.Node, error) {
	var node plan.Node = &plan.Scan{TableRef: q.tableRef, Schema: q.schema, RowCount: q.rowCount}

	if q.where != nil {
		pred, err := Bind(q.where, q.schema)
		if err != nil {
			return nil, err
		}
		node = &plan.Filter{Child: node, Predicates: []predicate.Predicate{pred}}
	}

	switch {
	case len(q.groupBy) > 0:
		keyCols := make([]int, len(q.groupBy))
		for i, name := range q.groupBy {
			ord, err := q.schema.Ordinal(name)
			if err != nil {
				return nil, qerrors.New(qerrors.UnsupportedExpression, "group-by column %q not found", name)
			}
			keyCols[i] = ord
		}
		aggs, err := q.bindAggs(node)
		if err != nil {
			return nil, err
		}
		node = &plan.GroupBy{Child: node, KeyColumns: keyCols, Aggs: aggs}
	case len(q.aggs) > 0:
		aggs, err := q.bindAggs(node)
		if err != nil {
			return nil, err
		}
		node = &plan.Aggregate{Child: node, Aggs: aggs}
	}

	if len(q.orderBy) > 0 {
		keys := make([]plan.OrderKey, len(q.orderBy))
		out := node.OutputSchema()
		for i, term := range q.orderBy {
			ord, err := out.Ordinal(term.column)
			if err != nil {
				return nil, qerrors.New(qerrors.UnsupportedExpression, "order-by column %q not found", term.column)
			}
			keys[i] = plan.OrderKey{Column: ord, Desc: term.desc}
		}
		node = &plan.OrderBy{Child: node, Keys: keys}
	}

	if q.offset != nil {
		node = &plan.Offset{Child: node, N: *q.offset}
	}
	if q.limit != nil {
		node = &plan.Limit{Child: node, N: *q.limit}
	}

	if len(q.projection) > 0 {
		node = &plan.Project{Child: node, Outputs: q.projection}
	}

	return node, nil
}

// bindAggs resolves every AggCall's column name (or exec.CountStar for a
// CountStar call with no column) against child's output schema.
func (q *Query) bindAggs(child plan.Node) ([]plan.AggSpec, error) {
	out := child.OutputSchema()
	specs := make([]plan.AggSpec, len(q.aggs))
	for i, call := range q.aggs {
		col := exec.CountStar
		if call.Column != "" {
			ord, err := out.Ordinal(call.Column)
			if err != nil {
				return nil, qerrors.New(qerrors.UnsupportedExpression, "aggregate column %q not found", call.Column)
			}
			col = ord
		}
		specs[i] = plan.AggSpec{Func: call.Func, Column: col, OutputName: call.As}
	}
	return specs, nil
}
