package exec

import (
	"context"
	"math/bits"

	"qcore/bitmap"
	"qcore/chunkstore"
	"qcore/internal/rowbind"
	"qcore/physical"
	"qcore/predicate"
	"qcore/qerrors"
)

// Any reports whether op's plan admits at least one row, per spec.md §4.5's
// "streaming short-circuit evaluator": chunks are scanned sequentially in
// table order and scanning stops at the first chunk whose selection
// bitmap is non-empty, without materializing a Result for the rest of the
// table. GroupBy/Aggregate/OrderBy always produce rows from the whole
// input (an aggregate is exactly one row; an ORDER BY needs the full
// ranking before "first" is meaningful), so those plans fall back to a
// full Run and Result.Any().
func (e *Executor) Any(ctx context.Context, op *physical.Op) (bool, error) {
	info := gatherPlanInfo(op)
	if info.aggregate != nil || info.groupBy != nil || info.orderBy != nil || info.postFilter != nil {
		res, err := e.Run(ctx, op)
		if err != nil {
			return false, err
		}
		return res.Any(), nil
	}
	if op := info.stageOp(info.preFilterOp, info.scanOp); op != nil && op.HasLimit && op.LimitN == 0 {
		return false, nil
	}
	_, _, found, err := e.firstMatch(ctx, info)
	return found, err
}

// First returns the first surviving row in chunk-major, row-within-chunk
// order, without materializing the rest of the table — the row-index
// arithmetic spec.md §4.5 names directly: "block index * 64 plus the
// block's trailing-zero count." Falls back to a full Run for plans whose
// row order or row set depends on aggregation/grouping/sorting/HAVING.
func (e *Executor) First(ctx context.Context, op *physical.Op) (rowbind.Row, bool, error) {
	info := gatherPlanInfo(op)
	if info.aggregate != nil || info.groupBy != nil || info.orderBy != nil || info.postFilter != nil {
		res, err := e.Run(ctx, op)
		if err != nil {
			return rowbind.Row{}, false, err
		}
		return res.First()
	}
	if op := info.stageOp(info.preFilterOp, info.scanOp); op != nil && op.HasLimit && op.LimitN == 0 {
		return rowbind.Row{}, false, nil
	}
	chunk, row, found, err := e.firstMatch(ctx, info)
	if err != nil || !found {
		return rowbind.Row{}, false, err
	}
	sch := info.scan.Schema
	binding := rowbind.Bind(sch)
	return binding.Construct(chunk, row), true, nil
}

// firstMatch walks chunks in ascending order, consulting the zone map the
// same way scanPlain does, and returns as soon as a chunk's post-predicate
// selection bitmap has a set bit. Within that chunk the row is located by
// IterBlocks rather than IterSetIndices: the first non-zero block's
// trailing-zero count gives the row directly, so no full index list is
// ever built for this path.
func (e *Executor) firstMatch(ctx context.Context, info *planInfo) (*chunkstore.Chunk, int, bool, error) {
	var preds []predicate.Predicate
	if info.preFilter != nil {
		preds = info.preFilter.Predicates
	}
	chunkCount := e.Table.ChunkCount()
	pool := bitmap.NewPool()
	for ci := 0; ci < chunkCount; ci++ {
		if cerr := ctx.Err(); cerr != nil {
			return nil, 0, false, qerrors.Wrap(qerrors.Cancelled, cerr, "executor: cancelled during short-circuit scan")
		}
		chunk := e.Table.Chunk(ci)
		skip, effective := pruneChunk(preds, e.Zones, ci)
		if skip {
			e.Metrics.ChunkSkipped()
			continue
		}
		sel, empty, err := evalChunk(chunk, effective, pool)
		if err != nil {
			pool.Release(sel)
			return nil, 0, false, err
		}
		if empty {
			pool.Release(sel)
			continue
		}
		row := firstSetRow(sel)
		pool.Release(sel)
		return chunk, row, true, nil
	}
	return nil, 0, false, nil
}

// firstSetRow returns the row index of sel's lowest set bit via
// block-skip-then-trailing-zero-count, the exact algorithm spec.md §4.1
// names for iter_set_indices, applied here to stop at the very first hit.
func firstSetRow(sel *bitmap.Bitmap) int {
	row := -1
	sel.IterBlocks(func(blockIndex int, block uint64) {
		if row >= 0 || block == 0 {
			return
		}
		row = blockIndex*64 + bits.TrailingZeros64(block)
	})
	return row
}
