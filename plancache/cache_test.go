package plancache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcore/plan"
	"qcore/schema"
)

func testScanNode(t *testing.T, tableRef string) *plan.Scan {
	t.Helper()
	sch := schema.MustNew([]schema.Field{{Name: "id", Type: schema.NewInt64()}})
	return &plan.Scan{TableRef: tableRef, Schema: sch, RowCount: 0}
}

func TestCacheMissThenHit(t *testing.T) {
	c := New(100)
	n := testScanNode(t, "t")

	_, ok := c.Get("fp-a")
	assert.False(t, ok)

	c.Put("fp-a", n)
	got, ok := c.Get("fp-a")
	require.True(t, ok)
	assert.Equal(t, n, got)

	hits, misses, entries := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(1), entries)
}

func TestCachePutIsNoOpWhenKeyAlreadyExists(t *testing.T) {
	c := New(100)
	first := testScanNode(t, "first")
	second := testScanNode(t, "second")

	c.Put("fp-a", first)
	c.Put("fp-a", second)

	got, ok := c.Get("fp-a")
	require.True(t, ok)
	assert.Equal(t, first, got, "second Put with the same key must be a no-op")

	_, _, entries := c.Stats()
	assert.Equal(t, int64(1), entries)
}

func TestCacheDistinctFingerprintsDoNotCollide(t *testing.T) {
	c := New(100)
	a := testScanNode(t, "a")
	b := testScanNode(t, "b")
	c.Put("fp-a", a)
	c.Put("fp-b", b)

	gotA, ok := c.Get("fp-a")
	require.True(t, ok)
	assert.Equal(t, a, gotA)

	gotB, ok := c.Get("fp-b")
	require.True(t, ok)
	assert.Equal(t, b, gotB)
}

func TestNewClampsNonPositiveCapacityToDefault(t *testing.T) {
	c := New(0)
	n := testScanNode(t, "t")
	c.Put("fp-a", n)
	_, ok := c.Get("fp-a")
	assert.True(t, ok)
}
