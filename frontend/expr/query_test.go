package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcore/exec"
	"qcore/plan"
	"qcore/schema"
)

func queryTestSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return schema.MustNew([]schema.Field{
		{Name: "category", Type: schema.NewUtf8String()},
		{Name: "age", Type: schema.NewInt32()},
		{Name: "salary", Type: schema.NewFloat64()},
	})
}

func TestQueryBuildPlainScanWhenNoClausesAdded(t *testing.T) {
	sch := queryTestSchema(t)
	node, err := From("employees", sch, 10).Build()
	require.NoError(t, err)

	scan, ok := node.(*plan.Scan)
	require.True(t, ok)
	assert.Equal(t, "employees", scan.TableRef)
	assert.Equal(t, uint64(10), scan.RowCount)
}

func TestQueryWhereWrapsScanInFilter(t *testing.T) {
	sch := queryTestSchema(t)
	node, err := From("t", sch, 10).Where(Col("age").GT(30)).Build()
	require.NoError(t, err)

	filter, ok := node.(*plan.Filter)
	require.True(t, ok)
	require.Len(t, filter.Predicates, 1)
	_, isScan := filter.Child.(*plan.Scan)
	assert.True(t, isScan)
}

func TestQueryWhereCalledTwiceAndsPredicates(t *testing.T) {
	sch := queryTestSchema(t)
	node, err := From("t", sch, 10).
		Where(Col("age").GT(30)).
		Where(Col("salary").LT(100000)).
		Build()
	require.NoError(t, err)

	filter := node.(*plan.Filter)
	require.Len(t, filter.Predicates, 1)
	and, ok := filter.Predicates[0].(interface{ Columns() []int })
	require.True(t, ok)
	assert.Len(t, and.Columns(), 2)
}

func TestQueryGroupByWithAggregateBuildsGroupByNode(t *testing.T) {
	sch := queryTestSchema(t)
	node, err := From("t", sch, 10).
		GroupBy("category").
		Aggregate(CountStar("n"), SumOf("salary", "total_salary")).
		Build()
	require.NoError(t, err)

	gb, ok := node.(*plan.GroupBy)
	require.True(t, ok)
	assert.Equal(t, []int{0}, gb.KeyColumns)
	require.Len(t, gb.Aggs, 2)
	assert.Equal(t, plan.Count, gb.Aggs[0].Func)
	assert.Equal(t, exec.CountStar, gb.Aggs[0].Column)
	assert.Equal(t, plan.Sum, gb.Aggs[1].Func)
	assert.Equal(t, 2, gb.Aggs[1].Column)
	assert.Equal(t, "total_salary", gb.Aggs[1].OutputName)
}

func TestQueryAggregateWithoutGroupByBuildsAggregateNode(t *testing.T) {
	sch := queryTestSchema(t)
	node, err := From("t", sch, 10).Aggregate(AvgOf("salary", "avg_salary")).Build()
	require.NoError(t, err)

	agg, ok := node.(*plan.Aggregate)
	require.True(t, ok)
	require.Len(t, agg.Aggs, 1)
	assert.Equal(t, plan.Avg, agg.Aggs[0].Func)
}

func TestQueryGroupByUnknownColumnFails(t *testing.T) {
	sch := queryTestSchema(t)
	_, err := From("t", sch, 10).GroupBy("nope").Aggregate(CountStar("n")).Build()
	assert.Error(t, err)
}

func TestQueryOrderByLimitOffsetNestInSpecOrder(t *testing.T) {
	sch := queryTestSchema(t)
	node, err := From("t", sch, 10).
		OrderBy("salary", true).
		Offset(5).
		Limit(2).
		Build()
	require.NoError(t, err)

	limit, ok := node.(*plan.Limit)
	require.True(t, ok)
	assert.Equal(t, uint64(2), limit.N)

	offset, ok := limit.Child.(*plan.Offset)
	require.True(t, ok)
	assert.Equal(t, uint64(5), offset.N)

	orderBy, ok := offset.Child.(*plan.OrderBy)
	require.True(t, ok)
	require.Len(t, orderBy.Keys, 1)
	assert.Equal(t, 2, orderBy.Keys[0].Column)
	assert.True(t, orderBy.Keys[0].Desc)
}

func TestQueryOrderByUnknownColumnFails(t *testing.T) {
	sch := queryTestSchema(t)
	_, err := From("t", sch, 10).OrderBy("nope", false).Build()
	assert.Error(t, err)
}

func TestQuerySelectWrapsTopInProject(t *testing.T) {
	sch := queryTestSchema(t)
	node, err := From("t", sch, 10).Select("category", "age").Build()
	require.NoError(t, err)

	proj, ok := node.(*plan.Project)
	require.True(t, ok)
	assert.Equal(t, []string{"category", "age"}, proj.Outputs)
}

func TestQueryAggregateColumnNotFoundFails(t *testing.T) {
	sch := queryTestSchema(t)
	_, err := From("t", sch, 10).Aggregate(SumOf("nope", "x")).Build()
	assert.Error(t, err)
}

func TestQueryFullChainOrdersClausesCorrectly(t *testing.T) {
	sch := queryTestSchema(t)
	node, err := From("t", sch, 10).
		Where(Col("age").GT(18)).
		GroupBy("category").
		Aggregate(SumOf("salary", "total")).
		OrderBy("total", true).
		Limit(5).
		Build()
	require.NoError(t, err)

	limit, ok := node.(*plan.Limit)
	require.True(t, ok)
	orderBy, ok := limit.Child.(*plan.OrderBy)
	require.True(t, ok)
	gb, ok := orderBy.Child.(*plan.GroupBy)
	require.True(t, ok)
	_, ok = gb.Child.(*plan.Filter)
	require.True(t, ok)
}
