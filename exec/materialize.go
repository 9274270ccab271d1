package exec

import "qcore/chunkstore"

// selectRows builds a fresh column list containing exactly the rows named
// by indices, read from src in order. ORDER BY's permutation and the final
// LIMIT/OFFSET trim are both just different choices of the same index
// list, so both go through this one helper.
func selectRows(src []chunkstore.ColumnBuffer, indices []int) []chunkstore.ColumnBuffer {
	out := make([]chunkstore.ColumnBuffer, len(src))
	for i, col := range src {
		b := newBuilder(col, len(indices))
		for _, row := range indices {
			b.appendFrom(col, row)
		}
		out[i] = b.build()
	}
	return out
}

// rangeIndices returns [start, start+n) as a plain index slice, the
// identity permutation LIMIT/OFFSET trims against when no ORDER BY ran.
func rangeIndices(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// clampRange narrows [0,total) by offset/limit, per spec.md §4.3: offset
// skips rows before limit caps what remains. hasLimit/hasOffset false means
// that bound is absent.
func clampRange(total int, hasOffset bool, offset uint64, hasLimit bool, limit uint64) (start, n int) {
	start = 0
	if hasOffset {
		start = int(offset)
		if start > total {
			start = total
		}
	}
	n = total - start
	if hasLimit && int(limit) < n {
		n = int(limit)
	}
	if n < 0 {
		n = 0
	}
	return start, n
}

// concatColumns appends per-worker column sets end to end, in worker-index
// order, regardless of which worker actually finished first: this is what
// keeps parallel scans' row order (and float sum/avg accumulation order)
// reproducible across runs even though goroutine completion order is not
// (see DESIGN.md). protos supplies one prototype buffer per output column,
// used only to pick each column's builder type; workers that produced
// nothing (a nil parts[w]) are skipped.
func concatColumns(parts [][]chunkstore.ColumnBuffer, protos []chunkstore.ColumnBuffer) ([]chunkstore.ColumnBuffer, int) {
	numCols := len(protos)
	total := 0
	for _, p := range parts {
		if len(p) > 0 {
			total += p[0].Len()
		}
	}
	out := make([]chunkstore.ColumnBuffer, numCols)
	for col := 0; col < numCols; col++ {
		b := newBuilder(protos[col], total)
		for _, p := range parts {
			if len(p) == 0 {
				continue
			}
			src := p[col]
			for row := 0; row < src.Len(); row++ {
				b.appendFrom(src, row)
			}
		}
		out[col] = b.build()
	}
	return out, total
}
