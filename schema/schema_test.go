package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssignsStableOrdinals(t *testing.T) {
	s, err := New([]Field{
		{Name: "id", Type: NewInt64()},
		{Name: "name", Type: NewUtf8String(), Nullable: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Fields()[0].Ordinal)
	assert.Equal(t, 1, s.Fields()[1].Ordinal)
}

func TestNewRejectsDuplicateNamesCaseInsensitive(t *testing.T) {
	_, err := New([]Field{
		{Name: "Id", Type: NewInt64()},
		{Name: "id", Type: NewInt64()},
	})
	require.Error(t, err)
}

func TestNewRejectsEmptyName(t *testing.T) {
	_, err := New([]Field{{Name: "", Type: NewInt64()}})
	require.Error(t, err)
}

func TestOrdinalIsCaseInsensitive(t *testing.T) {
	s := MustNew([]Field{{Name: "Department", Type: NewUtf8String()}})
	ord, err := s.Ordinal("department")
	require.NoError(t, err)
	assert.Equal(t, 0, ord)
}

func TestOrdinalUnknownColumn(t *testing.T) {
	s := MustNew([]Field{{Name: "a", Type: NewInt64()}})
	_, err := s.Ordinal("b")
	require.Error(t, err)
}

func TestProjectPreservesOrderAndReindexes(t *testing.T) {
	s := MustNew([]Field{
		{Name: "a", Type: NewInt64()},
		{Name: "b", Type: NewFloat64()},
		{Name: "c", Type: NewBool()},
	})
	p, err := s.Project([]string{"c", "a"})
	require.NoError(t, err)
	require.Equal(t, 2, p.NumFields())
	assert.Equal(t, "c", p.Fields()[0].Name)
	assert.Equal(t, 0, p.Fields()[0].Ordinal)
	assert.Equal(t, "a", p.Fields()[1].Name)
	assert.Equal(t, 1, p.Fields()[1].Ordinal)
}

func TestFingerprintIDStableAcrossEquivalentRebuilds(t *testing.T) {
	build := func() *Schema {
		return MustNew([]Field{
			{Name: "id", Type: NewInt64()},
			{Name: "salary", Type: NewFloat64(), Nullable: true},
		})
	}
	a, b := build(), build()
	assert.Equal(t, a.FingerprintID(), b.FingerprintID())
}

func TestFingerprintIDDiffersOnNullability(t *testing.T) {
	a := MustNew([]Field{{Name: "id", Type: NewInt64(), Nullable: false}})
	b := MustNew([]Field{{Name: "id", Type: NewInt64(), Nullable: true}})
	assert.NotEqual(t, a.FingerprintID(), b.FingerprintID())
}

func TestIsNumericAndIsFloat(t *testing.T) {
	assert.True(t, NewInt32().IsNumeric())
	assert.True(t, NewFloat64().IsNumeric())
	assert.True(t, NewFloat64().IsFloat())
	assert.False(t, NewInt32().IsFloat())
	assert.False(t, NewUtf8String().IsNumeric())
}

func TestIsInteger(t *testing.T) {
	assert.True(t, NewInt32().IsInteger())
	assert.True(t, NewInt64().IsInteger())
	assert.True(t, NewUInt32().IsInteger())
	assert.False(t, NewUInt64().IsInteger())
	assert.False(t, NewFloat64().IsInteger())
	assert.False(t, NewUtf8String().IsInteger())
}
