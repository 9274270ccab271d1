package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcore/predicate"
	"qcore/schema"
)

func exprTestSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return schema.MustNew([]schema.Field{
		{Name: "age", Type: schema.NewInt32()},
		{Name: "salary", Type: schema.NewFloat64()},
		{Name: "name", Type: schema.NewUtf8String()},
		{Name: "active", Type: schema.NewBool()},
	})
}

func TestColGTBindsToCompare(t *testing.T) {
	sch := exprTestSchema(t)
	p, err := Bind(Col("age").GT(30), sch)
	require.NoError(t, err)

	cmp, ok := p.(*predicate.Compare)
	require.True(t, ok)
	assert.Equal(t, 0, cmp.Column)
	assert.Equal(t, predicate.Gt, cmp.Op)
	assert.Equal(t, float64(30), cmp.Operand.AsFloat64())
}

func TestColEQOnUnknownColumnFails(t *testing.T) {
	sch := exprTestSchema(t)
	_, err := Bind(Col("nope").EQ(1), sch)
	assert.Error(t, err)
}

func TestIsNullAndIsNotNullBind(t *testing.T) {
	sch := exprTestSchema(t)

	p, err := Bind(Col("name").IsNull(), sch)
	require.NoError(t, err)
	_, ok := p.(*predicate.IsNull)
	assert.True(t, ok)

	p, err = Bind(Col("name").IsNotNull(), sch)
	require.NoError(t, err)
	_, ok = p.(*predicate.IsNotNull)
	assert.True(t, ok)
}

func TestInBuildsInSetWithBoxedValues(t *testing.T) {
	sch := exprTestSchema(t)
	p, err := Bind(Col("age").In(20, 30, 40), sch)
	require.NoError(t, err)

	in, ok := p.(*predicate.InSet)
	require.True(t, ok)
	require.Len(t, in.Values, 3)
	assert.Equal(t, float64(30), in.Values[1].AsFloat64())
}

func TestStringMethodsRejectNonStringColumn(t *testing.T) {
	sch := exprTestSchema(t)
	_, err := Bind(Col("age").StartsWith("x"), sch)
	assert.Error(t, err)
}

func TestStringEqualsBindsToStringOp(t *testing.T) {
	sch := exprTestSchema(t)
	p, err := Bind(Col("name").StringEquals("Bob"), sch)
	require.NoError(t, err)

	op, ok := p.(*predicate.StringOp)
	require.True(t, ok)
	assert.Equal(t, predicate.StringEquals, op.Mode)
	assert.Equal(t, "Bob", op.Needle)
}

func TestIsTrueAndIsFalseRejectNonBoolColumn(t *testing.T) {
	sch := exprTestSchema(t)
	_, err := Bind(Col("age").IsTrue(), sch)
	assert.Error(t, err)
	_, err = Bind(Col("age").IsFalse(), sch)
	assert.Error(t, err)
}

func TestIsTrueBindsToBoolColumn(t *testing.T) {
	sch := exprTestSchema(t)
	p, err := Bind(Col("active").IsTrue(), sch)
	require.NoError(t, err)

	bc, ok := p.(*predicate.BoolColumn)
	require.True(t, ok)
	assert.True(t, bc.Want)
}

func TestAndCombinesChildrenConjunctively(t *testing.T) {
	sch := exprTestSchema(t)
	p, err := Bind(And(Col("age").GT(30), Col("active").IsTrue()), sch)
	require.NoError(t, err)

	and, ok := p.(*predicate.And)
	require.True(t, ok)
	assert.Len(t, and.Children, 2)
}

func TestOrCombinesChildrenDisjunctively(t *testing.T) {
	sch := exprTestSchema(t)
	p, err := Bind(Or(Col("age").LT(20), Col("age").GT(60)), sch)
	require.NoError(t, err)
	_, ok := p.(*predicate.Or)
	assert.True(t, ok)
}

func TestNotNegatesChild(t *testing.T) {
	sch := exprTestSchema(t)
	p, err := Bind(Not(Col("active").IsTrue()), sch)
	require.NoError(t, err)
	_, ok := p.(*predicate.Not)
	assert.True(t, ok)
}

func TestBindPropagatesErrorThroughCombinators(t *testing.T) {
	sch := exprTestSchema(t)
	_, err := Bind(And(Col("age").GT(30), Col("missing").EQ(1)), sch)
	assert.Error(t, err)
}

func TestBoxLiteralWidensIntLiteralForFloatColumn(t *testing.T) {
	sch := exprTestSchema(t)
	p, err := Bind(Col("salary").GE(1000), sch)
	require.NoError(t, err)
	cmp := p.(*predicate.Compare)
	assert.Equal(t, float64(1000), cmp.Operand.AsFloat64())
}

func TestBoxLiteralRejectsWrongLiteralKind(t *testing.T) {
	sch := exprTestSchema(t)
	_, err := Bind(Col("age").EQ("not a number"), sch)
	assert.Error(t, err)
}
