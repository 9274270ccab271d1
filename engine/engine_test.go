package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcore/chunkstore"
	"qcore/config"
	"qcore/frontend/expr"
	"qcore/plan"
	"qcore/qerrors"
	"qcore/schema"
)

// employeeSchema/employeeTable build the exact 10-row scenario spec.md's
// "Concrete end-to-end scenarios" section spells out literal expected
// outputs for, split across two chunks (rows 0-5, 6-9) so every test below
// also exercises chunk-boundary handling, not just a single-chunk table.
func employeeSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return schema.MustNew([]schema.Field{
		{Name: "id", Type: schema.NewInt32()},
		{Name: "name", Type: schema.NewUtf8String()},
		{Name: "age", Type: schema.NewInt32()},
		{Name: "salary", Type: schema.NewDecimal128(18, 2)},
		{Name: "active", Type: schema.NewBool()},
		{Name: "category", Type: schema.NewUtf8String()},
	})
}

type employee struct {
	id       int32
	name     string
	age      int32
	salary   float64
	active   bool
	category string
}

var employees = []employee{
	{1, "Alice", 25, 50000.00, true, "Eng"},
	{2, "Bob", 35, 75000.00, true, "Eng"},
	{3, "Charlie", 45, 90000.00, false, "Mgmt"},
	{4, "Diana", 28, 55000.00, true, "Eng"},
	{5, "Eve", 32, 65000.00, true, "Mkt"},
	{6, "Frank", 40, 80000.00, false, "Mgmt"},
	{7, "Grace", 29, 60000.00, true, "Mkt"},
	{8, "Henry", 55, 120000.00, true, "Exec"},
	{9, "Ivy", 23, 45000.00, true, "Eng"},
	{10, "Jack", 38, 70000.00, false, "Eng"},
}

func buildEmployeeChunk(t *testing.T, sch *schema.Schema, rows []employee) *chunkstore.Chunk {
	t.Helper()
	n := len(rows)
	ids := make([]int32, n)
	ages := make([]int32, n)
	salaries := make([]float64, n)
	activeBits := make([]byte, (n+7)/8)
	nameOffs := make([]int32, n+1)
	catOffs := make([]int32, n+1)
	var nameData, catData []byte
	for i, r := range rows {
		ids[i] = r.id
		ages[i] = r.age
		salaries[i] = r.salary
		if r.active {
			activeBits[i/8] |= 1 << uint(i%8)
		}
		nameData = append(nameData, r.name...)
		nameOffs[i+1] = int32(len(nameData))
		catData = append(catData, r.category...)
		catOffs[i+1] = int32(len(catData))
	}
	nameCol, err := chunkstore.NewVarLenBuffer(nameOffs, nameData, nil, schema.NewUtf8String())
	require.NoError(t, err)
	catCol, err := chunkstore.NewVarLenBuffer(catOffs, catData, nil, schema.NewUtf8String())
	require.NoError(t, err)

	cols := []chunkstore.ColumnBuffer{
		chunkstore.NewFixedWidthBuffer(ids, nil, schema.NewInt32()),
		nameCol,
		chunkstore.NewFixedWidthBuffer(ages, nil, schema.NewInt32()),
		chunkstore.NewFixedWidthBuffer(salaries, nil, schema.NewDecimal128(18, 2)),
		chunkstore.NewBoolBuffer(chunkstore.NewNullBitmap(activeBits, n), nil, n),
		catCol,
	}
	c, err := chunkstore.NewChunk(sch, cols)
	require.NoError(t, err)
	return c
}

func buildEmployeeEngine(t *testing.T) *Engine {
	t.Helper()
	sch := employeeSchema(t)
	chunkA := buildEmployeeChunk(t, sch, employees[:6])
	chunkB := buildEmployeeChunk(t, sch, employees[6:])
	table, err := chunkstore.Freeze(sch, []*chunkstore.Chunk{chunkA, chunkB})
	require.NoError(t, err)
	return New(table, config.DefaultConfig(), nil, nil)
}

func TestEngineWhereAgeGreaterThan30(t *testing.T) {
	eng := buildEmployeeEngine(t)
	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("age").GT(30)).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), node)
	require.NoError(t, err)
	assert.Equal(t, 6, res.NumRows())

	var ids []int64
	for i := 0; i < res.NumRows(); i++ {
		v, ok := res.Scalar(0, i)
		require.True(t, ok)
		ids = append(ids, v.I64)
	}
	assert.ElementsMatch(t, []int64{2, 3, 5, 6, 8, 10}, ids)
}

func TestEngineWhereActiveAndCategoryEng(t *testing.T) {
	eng := buildEmployeeEngine(t)
	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.And(expr.Col("active").IsTrue(), expr.Col("category").StringEquals("Eng"))).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), node)
	require.NoError(t, err)
	assert.Equal(t, 4, res.NumRows())

	var ids []int64
	for i := 0; i < res.NumRows(); i++ {
		v, _ := res.Scalar(0, i)
		ids = append(ids, v.I64)
	}
	assert.ElementsMatch(t, []int64{1, 2, 4, 9}, ids)
}

func TestEngineWhereActiveSumSalary(t *testing.T) {
	eng := buildEmployeeEngine(t)
	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("active").IsTrue()).
		Aggregate(expr.SumOf("salary", "total_salary")).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), node)
	require.NoError(t, err)
	require.Equal(t, 1, res.NumRows())
	v, ok := res.Scalar(0, 0)
	require.True(t, ok)
	assert.InDelta(t, 470000.00, v.F64, 0.001)
}

func TestEngineGroupByCategory(t *testing.T) {
	eng := buildEmployeeEngine(t)
	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		GroupBy("category").
		Aggregate(expr.CountStar("n")).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), node)
	require.NoError(t, err)

	got := map[string]int64{}
	for i := 0; i < res.NumRows(); i++ {
		key, _ := res.Scalar(0, i)
		cnt, _ := res.Scalar(1, i)
		got[string(key.Bytes)] = cnt.I64
	}
	assert.Equal(t, map[string]int64{"Eng": 5, "Mgmt": 2, "Mkt": 2, "Exec": 1}, got)
}

func TestEngineWhereActiveGroupByCategory(t *testing.T) {
	eng := buildEmployeeEngine(t)
	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("active").IsTrue()).
		GroupBy("category").
		Aggregate(expr.CountStar("n")).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), node)
	require.NoError(t, err)

	got := map[string]int64{}
	for i := 0; i < res.NumRows(); i++ {
		key, _ := res.Scalar(0, i)
		cnt, _ := res.Scalar(1, i)
		got[string(key.Bytes)] = cnt.I64
	}
	assert.Equal(t, map[string]int64{"Eng": 4, "Mkt": 2, "Exec": 1}, got)
	assert.NotContains(t, got, "Mgmt")
}

func TestEngineWhereAgeOrderBySalaryDescLimit2(t *testing.T) {
	eng := buildEmployeeEngine(t)
	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("age").GT(30)).
		OrderBy("salary", true).
		Limit(2).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), node)
	require.NoError(t, err)
	require.Equal(t, 2, res.NumRows())

	var ids []int64
	for i := 0; i < res.NumRows(); i++ {
		v, _ := res.Scalar(0, i)
		ids = append(ids, v.I64)
	}
	assert.Equal(t, []int64{8, 3}, ids)
}

func TestEngineAnyAgeOver50And100(t *testing.T) {
	eng := buildEmployeeEngine(t)

	over50, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("age").GT(50)).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), over50)
	require.NoError(t, err)
	assert.True(t, res.Any())

	over100, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("age").GT(100)).
		Build()
	require.NoError(t, err)
	res, err = eng.Query(context.Background(), over100)
	require.NoError(t, err)
	assert.False(t, res.Any())
}

func TestEngineAnyShortCircuitsAcrossChunks(t *testing.T) {
	eng := buildEmployeeEngine(t)

	over50, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("age").GT(50)).
		Build()
	require.NoError(t, err)
	any, err := eng.Any(context.Background(), over50)
	require.NoError(t, err)
	assert.True(t, any)

	over100, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("age").GT(100)).
		Build()
	require.NoError(t, err)
	any, err = eng.Any(context.Background(), over100)
	require.NoError(t, err)
	assert.False(t, any)
}

func TestEngineFirstReturnsFirstSurvivingRowInTableOrder(t *testing.T) {
	eng := buildEmployeeEngine(t)

	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("active").IsTrue()).
		Build()
	require.NoError(t, err)

	row, ok, err := eng.First(context.Background(), node)
	require.NoError(t, err)
	require.True(t, ok)

	v, valid, err := row.Get("id")
	require.NoError(t, err)
	require.True(t, valid)
	assert.Equal(t, int64(1), v.I64)
}

func TestEngineFirstOnContradictionIsEmpty(t *testing.T) {
	eng := buildEmployeeEngine(t)
	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("age").GT(1000)).
		Build()
	require.NoError(t, err)

	_, ok, err := eng.First(context.Background(), node)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngineCategoryEngMinMaxSalary(t *testing.T) {
	eng := buildEmployeeEngine(t)

	minNode, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("category").StringEquals("Eng")).
		Aggregate(expr.MinOf("salary", "min_salary")).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), minNode)
	require.NoError(t, err)
	v, ok := res.Scalar(0, 0)
	require.True(t, ok)
	assert.InDelta(t, 45000.00, v.F64, 0.001)

	maxNode, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Where(expr.Col("category").StringEquals("Eng")).
		Aggregate(expr.MaxOf("salary", "max_salary")).
		Build()
	require.NoError(t, err)
	res, err = eng.Query(context.Background(), maxNode)
	require.NoError(t, err)
	v, ok = res.Scalar(0, 0)
	require.True(t, ok)
	assert.InDelta(t, 75000.00, v.F64, 0.001)
}

func TestEngineEmptyTableBoundary(t *testing.T) {
	sch := employeeSchema(t)
	chunk := buildEmployeeChunk(t, sch, nil)
	table, err := chunkstore.Freeze(sch, []*chunkstore.Chunk{chunk})
	require.NoError(t, err)
	eng := New(table, config.DefaultConfig(), nil, nil)

	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), node)
	require.NoError(t, err)
	assert.Equal(t, 0, res.NumRows())
	assert.False(t, res.Any())
}

func TestEngineLimitZeroScansNothingDownstream(t *testing.T) {
	eng := buildEmployeeEngine(t)
	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Limit(0).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), node)
	require.NoError(t, err)
	assert.Equal(t, 0, res.NumRows())
}

func TestEngineOffsetBeyondTotalRowsIsEmpty(t *testing.T) {
	eng := buildEmployeeEngine(t)
	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		Offset(1000).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), node)
	require.NoError(t, err)
	assert.Equal(t, 0, res.NumRows())
}

// amountSchema/buildAmountEngine build a single-column int64 table so
// SUM(amount) exercises the int64 accumulator path in exec/aggregate.go
// directly, independent of the Decimal128-as-float64 salary column above.
func amountSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return schema.MustNew([]schema.Field{{Name: "amount", Type: schema.NewInt64()}})
}

func buildAmountEngine(t *testing.T, values []int64) *Engine {
	t.Helper()
	sch := amountSchema(t)
	col := chunkstore.NewFixedWidthBuffer(values, nil, schema.NewInt64())
	chunk, err := chunkstore.NewChunk(sch, []chunkstore.ColumnBuffer{col})
	require.NoError(t, err)
	table, err := chunkstore.Freeze(sch, []*chunkstore.Chunk{chunk})
	require.NoError(t, err)
	return New(table, config.DefaultConfig(), nil, nil)
}

func TestEngineSumInt64IsExact(t *testing.T) {
	eng := buildAmountEngine(t, []int64{1, 2, 3, 4, 5})
	node, err := expr.From("amounts", eng.Table.Schema(), eng.Table.NumRows()).
		Aggregate(expr.SumOf("amount", "total")).
		Build()
	require.NoError(t, err)
	res, err := eng.Query(context.Background(), node)
	require.NoError(t, err)
	v, ok := res.Scalar(0, 0)
	require.True(t, ok)
	assert.Equal(t, float64(15), v.F64)
}

func TestEngineSumInt64OverflowIsArithmeticOverflow(t *testing.T) {
	const maxInt64 = int64(1<<63 - 1)
	eng := buildAmountEngine(t, []int64{maxInt64, maxInt64})
	node, err := expr.From("amounts", eng.Table.Schema(), eng.Table.NumRows()).
		Aggregate(expr.SumOf("amount", "total")).
		Build()
	require.NoError(t, err)

	_, err = eng.Query(context.Background(), node)
	require.Error(t, err)
	var qerr *qerrors.Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, qerrors.ArithmeticOverflow, qerr.Kind)
}

func TestEngineGroupByExceedingMaxGroupCountIsCapacityExceeded(t *testing.T) {
	sch := employeeSchema(t)
	chunkA := buildEmployeeChunk(t, sch, employees[:6])
	chunkB := buildEmployeeChunk(t, sch, employees[6:])
	table, err := chunkstore.Freeze(sch, []*chunkstore.Chunk{chunkA, chunkB})
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	cfg.MaxGroupCount = 2
	eng := New(table, cfg, nil, nil)

	node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
		GroupBy("category").
		Aggregate(expr.CountStar("n")).
		Build()
	require.NoError(t, err)

	_, err = eng.Query(context.Background(), node)
	require.Error(t, err)
	var qerr *qerrors.Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, qerrors.CapacityExceeded, qerr.Kind)
}

func TestEnginePlanCacheHitsOnRepeatedQuery(t *testing.T) {
	eng := buildEmployeeEngine(t)
	build := func() plan.Node {
		node, err := expr.From("employees", eng.Table.Schema(), eng.Table.NumRows()).
			Where(expr.Col("age").GT(30)).
			Build()
		require.NoError(t, err)
		return node
	}

	_, err := eng.Query(context.Background(), build())
	require.NoError(t, err)
	_, err = eng.Query(context.Background(), build())
	require.NoError(t, err)

	hits, misses, entries := eng.Cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(1), entries)
}
