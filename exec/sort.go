package exec

import (
	"container/heap"
	"sort"

	"qcore/chunkstore"
	"qcore/internal/rowbind"
	"qcore/plan"
	"qcore/zonemap"
)

// orderLess builds the row-index comparator a stable sort over keys needs:
// the spec's ORDER BY total order, keys evaluated left-to-right with null
// values sorting first.
func orderLess(columns []chunkstore.ColumnBuffer, keys []plan.OrderKey) func(a, b int) bool {
	return func(a, b int) bool {
		for _, k := range keys {
			va, validA := rowbind.ValueAt(columns[k.Column], a)
			vb, validB := rowbind.ValueAt(columns[k.Column], b)
			cmp := compareNullable(va, validA, vb, validB)
			if cmp == 0 {
				continue
			}
			if k.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	}
}

// sortPermutation returns the row order columns should be read in to
// satisfy keys, stable so ties preserve the input's relative order (spec.md
// §4.5: OrderBy is a stable sort). Null values sort first, matching the
// zone-map total order's treatment of an absent min/max as the smallest
// possible bound.
func sortPermutation(columns []chunkstore.ColumnBuffer, rows int, keys []plan.OrderKey) []int {
	perm := make([]int, rows)
	for i := range perm {
		perm[i] = i
	}
	less := orderLess(columns, keys)
	sort.SliceStable(perm, func(i, j int) bool { return less(perm[i], perm[j]) })
	return perm
}

// topKHeap is a bounded max-heap over row indices, ordered by the negation
// of less: the root is always the current worst-ranked survivor, so a
// full table scan only ever needs O(rows * log k) comparisons instead of
// O(rows * log rows) for a full sort (spec.md §4.5: "top-k heap when
// combined with a Limit whose N <= sort_threshold").
type topKHeap struct {
	idx  []int
	less func(a, b int) bool
}

func (h *topKHeap) Len() int           { return len(h.idx) }
func (h *topKHeap) Less(i, j int) bool { return h.less(h.idx[j], h.idx[i]) }
func (h *topKHeap) Swap(i, j int)      { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *topKHeap) Push(x interface{}) { h.idx = append(h.idx, x.(int)) }
func (h *topKHeap) Pop() interface{} {
	old := h.idx
	n := len(old)
	v := old[n-1]
	h.idx = old[:n-1]
	return v
}

// topKPermutation returns, in final sorted order, the indices of the k
// rows that rank lowest under keys — equivalent to sortPermutation(...)[:k]
// but without materializing a permutation of the full row set.
func topKPermutation(columns []chunkstore.ColumnBuffer, rows int, keys []plan.OrderKey, k int) []int {
	if k > rows {
		k = rows
	}
	if k <= 0 {
		return nil
	}
	keyLess := orderLess(columns, keys)
	// Rows tied on every key fall back to row index, so the heap keeps and
	// orders tied rows exactly as the stable full sort would.
	less := func(a, b int) bool {
		if keyLess(a, b) {
			return true
		}
		if keyLess(b, a) {
			return false
		}
		return a < b
	}
	h := &topKHeap{less: less}
	for i := 0; i < rows; i++ {
		if h.Len() < k {
			heap.Push(h, i)
			continue
		}
		if less(i, h.idx[0]) {
			heap.Pop(h)
			heap.Push(h, i)
		}
	}
	sort.SliceStable(h.idx, func(i, j int) bool { return less(h.idx[i], h.idx[j]) })
	return h.idx
}

func compareNullable(a zonemap.Scalar, validA bool, b zonemap.Scalar, validB bool) int {
	switch {
	case !validA && !validB:
		return 0
	case !validA:
		return -1
	case !validB:
		return 1
	default:
		return zonemap.Compare(a, b)
	}
}
