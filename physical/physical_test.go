package physical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcore/config"
	"qcore/plan"
	"qcore/predicate"
	"qcore/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return schema.MustNew([]schema.Field{
		{Name: "id", Type: schema.NewInt64()},
		{Name: "age", Type: schema.NewInt32()},
	})
}

func TestPlanScanSequentialBelowThreshold(t *testing.T) {
	sch := testSchema(t)
	n := &plan.Scan{TableRef: "t", Schema: sch, RowCount: 100}
	p := NewPlanner(config.DefaultConfig())
	op := p.Plan(n, 100, 1)
	assert.Equal(t, ScanOp, op.Kind)
	assert.Equal(t, Sequential, op.Strategy)
}

func TestPlanScanParallelAboveThresholdWithMultipleChunks(t *testing.T) {
	sch := testSchema(t)
	n := &plan.Scan{TableRef: "t", Schema: sch, RowCount: 1_000_000}
	p := NewPlanner(config.DefaultConfig())
	op := p.Plan(n, 1_000_000, 8)
	assert.Equal(t, Parallel, op.Strategy)
}

func TestPlanScanNotParallelWithSingleChunkEvenAboveThreshold(t *testing.T) {
	sch := testSchema(t)
	n := &plan.Scan{TableRef: "t", Schema: sch, RowCount: 1_000_000}
	p := NewPlanner(config.DefaultConfig())
	op := p.Plan(n, 1_000_000, 1)
	assert.Equal(t, Sequential, op.Strategy)
}

func TestPlanFilterFusedFlagCarriesFromLogicalNode(t *testing.T) {
	sch := testSchema(t)
	scan := &plan.Scan{TableRef: "t", Schema: sch, RowCount: 10}
	filter := &plan.Filter{
		Child:      scan,
		Predicates: []predicate.Predicate{&predicate.Compare{Column: 1, Op: predicate.Gt}},
		Fuseable:   true,
	}
	p := NewPlanner(config.DefaultConfig())
	op := p.Plan(filter, 10, 1)
	require.Equal(t, FilterOp, op.Kind)
	assert.True(t, op.Fused)
}

func TestPlanLimitOffsetAttachInlineToChild(t *testing.T) {
	sch := testSchema(t)
	scan := &plan.Scan{TableRef: "t", Schema: sch, RowCount: 10}
	offset := &plan.Offset{Child: scan, N: 5}
	limit := &plan.Limit{Child: offset, N: 2}
	p := NewPlanner(config.DefaultConfig())
	op := p.Plan(limit, 10, 1)
	require.Equal(t, ScanOp, op.Kind)
	assert.True(t, op.HasLimit)
	assert.Equal(t, uint64(2), op.LimitN)
	assert.True(t, op.HasOffset)
	assert.Equal(t, uint64(5), op.OffsetN)
}

func TestPlanGroupByParallelRequiresRowsAndSmallGroupEstimate(t *testing.T) {
	sch := testSchema(t)
	// EstimatedRows approximates distinct groups as sqrt(rowCount); 200,000
	// rows yields an estimate (~448) comfortably under the planner's fixed
	// L1 group-count ceiling (512), so this case should still go parallel.
	scan := &plan.Scan{TableRef: "t", Schema: sch, RowCount: 200_000}
	gb := &plan.GroupBy{Child: scan, KeyColumns: []int{1}}
	p := NewPlanner(config.DefaultConfig())
	op := p.Plan(gb, 200_000, 8)
	assert.Equal(t, GroupByOp, op.Kind)
	assert.Equal(t, Parallel, op.Strategy)
}

func TestPlanGroupBySingleThreadedBelowThreshold(t *testing.T) {
	sch := testSchema(t)
	scan := &plan.Scan{TableRef: "t", Schema: sch, RowCount: 10}
	gb := &plan.GroupBy{Child: scan, KeyColumns: []int{1}}
	p := NewPlanner(config.DefaultConfig())
	op := p.Plan(gb, 10, 1)
	assert.Equal(t, SingleThreaded, op.Strategy)
}

func TestExplainRendersStrategyTree(t *testing.T) {
	sch := testSchema(t)
	scan := &plan.Scan{TableRef: "t", Schema: sch, RowCount: 10}
	filter := &plan.Filter{Child: scan, Predicates: []predicate.Predicate{&predicate.Compare{Column: 1, Op: predicate.Gt}}}
	p := NewPlanner(config.DefaultConfig())
	op := p.Plan(filter, 10, 1)
	out := op.Explain()
	assert.Contains(t, out, "FilterOp")
	assert.Contains(t, out, "ChunkedScan")
}
