package plan

import (
	"fmt"

	"qcore/schema"
)

// AggFunc is one of the aggregate functions spec.md §4.3/§4.5 names:
// Count, Sum, Min, Max, Avg.
type AggFunc uint8

const (
	Count AggFunc = iota
	Sum
	Min
	Max
	Avg
)

func (f AggFunc) String() string {
	switch f {
	case Count:
		return "COUNT"
	case Sum:
		return "SUM"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Avg:
		return "AVG"
	default:
		return "UNKNOWN"
	}
}

// AggSpec names one aggregate computed over Column, bound to OutputName in
// the node's output schema.
type AggSpec struct {
	Func       AggFunc
	Column     int
	OutputName string
}

// outputType returns the logical type an AggSpec's result column has, given
// the input column's type: Count is always Int64, Sum/Avg always widen to
// Float64 (so integer sums don't silently overflow), Min/Max preserve the
// input type.
func (a AggSpec) outputType(colType schema.LogicalType) schema.LogicalType {
	switch a.Func {
	case Count:
		return schema.NewInt64()
	case Sum, Avg:
		return schema.NewFloat64()
	default: // Min, Max
		return colType
	}
}

// Aggregate computes whole-input aggregates (no grouping) over its child,
// producing exactly one output row.
type Aggregate struct {
	Child    Node
	Aggs     []AggSpec
	Fuseable bool
}

func (*Aggregate) isNode() {}

func (a *Aggregate) OutputSchema() *schema.Schema {
	child := a.Child.OutputSchema()
	fields := make([]schema.Field, len(a.Aggs))
	for i, agg := range a.Aggs {
		colType := schema.NewInt64()
		if f, err := child.Field(agg.Column); err == nil {
			colType = f.Type
		}
		fields[i] = schema.Field{Name: agg.OutputName, Type: agg.outputType(colType)}
	}
	return schema.MustNew(fields)
}

func (a *Aggregate) EstimatedRows() uint64 { return 1 }

// GroupBy computes per-group aggregates keyed by KeyColumns. KeyPropertyName
// names the synthesized group-key accessor on the rowwise materializer
// (mirrors the LINQ-style "group key property" the expr front-end exposes);
// it plays no role in the columnar output schema, which names each key
// column directly.
type GroupBy struct {
	Child           Node
	KeyColumns      []int
	KeyPropertyName string
	Aggs            []AggSpec
	Fuseable        bool
}

func (*GroupBy) isNode() {}

func (g *GroupBy) OutputSchema() *schema.Schema {
	child := g.Child.OutputSchema()
	fields := make([]schema.Field, 0, len(g.KeyColumns)+len(g.Aggs))
	for _, ord := range g.KeyColumns {
		f, err := child.Field(ord)
		if err != nil {
			panic(fmt.Errorf("plan: GroupBy key column %d out of range: %w", ord, err))
		}
		fields = append(fields, schema.Field{Name: f.Name, Type: f.Type})
	}
	for _, agg := range g.Aggs {
		colType := schema.NewInt64()
		if f, err := child.Field(agg.Column); err == nil {
			colType = f.Type
		}
		fields = append(fields, schema.Field{Name: agg.OutputName, Type: agg.outputType(colType)})
	}
	return schema.MustNew(fields)
}

// EstimatedRows guesses the distinct-group count as the square root of the
// input row count when nothing better is known; the physical planner only
// uses this to pick between single-threaded and parallel HashAggregate, not
// for correctness.
func (g *GroupBy) EstimatedRows() uint64 {
	n := g.Child.EstimatedRows()
	if n == 0 {
		return 0
	}
	est := uint64(1)
	for est*est < n {
		est++
	}
	return est
}
