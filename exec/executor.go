package exec

import (
	"context"
	"sync"

	"qcore/bitmap"
	"qcore/chunkstore"
	"qcore/config"
	"qcore/physical"
	"qcore/plan"
	"qcore/predicate"
	"qcore/qerrors"
	"qcore/telemetry"
	"qcore/zonemap"
)

// Executor drives one physical.Op tree against a frozen Table, per
// spec.md §5: it owns no state across calls other than its bitmap pool and
// the telemetry handles a caller wired in.
type Executor struct {
	Table   *chunkstore.Table
	Zones   *zonemap.Index
	Config  config.Config
	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics
}

// New builds an Executor over table, with zones (may be nil, disabling
// zone-map pruning) and the given config/telemetry handles. A nil logger
// defaults to telemetry.NopLogger, matching that package's nil-safe
// contract.
func New(table *chunkstore.Table, zones *zonemap.Index, cfg config.Config, logger *telemetry.Logger, metrics *telemetry.Metrics) *Executor {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &Executor{Table: table, Zones: zones, Config: cfg, Logger: logger, Metrics: metrics}
}

// Run executes op against e.Table, returning the final Result. ctx is
// polled for cancellation at chunk boundaries (spec.md §5: "cancellation
// is checked between chunks, not mid-chunk").
func (e *Executor) Run(ctx context.Context, op *physical.Op) (*Result, error) {
	info := gatherPlanInfo(op)

	var result *Result
	var err error
	switch {
	case info.aggregate != nil:
		result, err = e.scanAggregate(ctx, info)
	case info.groupBy != nil:
		result, err = e.scanGroupBy(ctx, info)
	default:
		result, err = e.scanPlain(ctx, info)
	}
	if err != nil {
		return nil, err
	}

	if info.postFilter != nil {
		result, err = applyPostFilter(result, info.postFilter)
		if err != nil {
			return nil, err
		}
	}

	result, err = e.clampAt(result, info.stageOp(info.postFilterOp, info.aggOp, info.groupOp, info.preFilterOp, info.scanOp))
	if err != nil {
		return nil, err
	}

	if info.orderBy != nil {
		op := info.orderByOp
		useTopK := op != nil && op.HasLimit && !op.HasOffset && op.LimitN <= uint64(e.Config.SortThreshold)
		var perm []int
		if useTopK {
			perm = topKPermutation(result.columns, result.rows, info.orderBy.Keys, int(op.LimitN))
			cols := selectRows(result.columns, perm)
			result = newResult(result.schema, len(perm), cols)
		} else {
			perm = sortPermutation(result.columns, result.rows, info.orderBy.Keys)
			cols := selectRows(result.columns, perm)
			result = newResult(result.schema, len(perm), cols)
			result, err = e.clampAt(result, op)
			if err != nil {
				return nil, err
			}
		}
	}

	if info.project != nil {
		result = applyProject(result, info.project)
	}

	return result, nil
}

// stageOp picks whichever of the non-order stage ops is present, outermost
// first, to apply an inline LIMIT/OFFSET marker at the right point in the
// pipeline (spec.md §4.4: the marker lives on whichever operator the
// optimizer left it on).
func (info *planInfo) stageOp(ops ...*physical.Op) *physical.Op {
	for _, op := range ops {
		if op != nil {
			return op
		}
	}
	return nil
}

// clampAt applies op's inline LIMIT/OFFSET marker (if any) to result.
func (e *Executor) clampAt(result *Result, op *physical.Op) (*Result, error) {
	if op == nil || (!op.HasLimit && !op.HasOffset) {
		return result, nil
	}
	start, n := clampRange(result.rows, op.HasOffset, op.OffsetN, op.HasLimit, op.LimitN)
	cols := selectRows(result.columns, rangeIndices(start, n))
	return newResult(result.schema, n, cols), nil
}

// applyPostFilter evaluates a HAVING clause's predicates against an
// already-aggregated Result: it wraps the result's columns back into a
// single Chunk so the same predicate.Predicate.Evaluate kernels WHERE uses
// also serve HAVING, rather than needing a second row-filtering code path.
func applyPostFilter(result *Result, f *plan.Filter) (*Result, error) {
	chunk, err := chunkstore.NewChunk(result.schema, result.columns)
	if err != nil {
		return nil, err
	}
	sel := bitmap.New(result.rows, bitmap.AllSet)
	for _, p := range f.Predicates {
		if err := p.Evaluate(chunk, sel); err != nil {
			return nil, err
		}
		if sel.IsEmpty() {
			break
		}
	}
	var indices []int
	sel.IterSetIndices(func(row int) { indices = append(indices, row) })
	cols := selectRows(result.columns, indices)
	return newResult(result.schema, len(indices), cols), nil
}

// applyProject selects/reorders result's columns by name, without touching
// row order or count: Project never reorders or drops rows (spec.md §4.3).
func applyProject(result *Result, p *plan.Project) *Result {
	cols := make([]chunkstore.ColumnBuffer, len(p.Outputs))
	for i, name := range p.Outputs {
		ord, err := result.schema.Ordinal(name)
		if err != nil {
			panic(err) // Project is only built after validating Outputs against its child schema
		}
		cols[i] = result.columns[ord]
	}
	return newResult(p.OutputSchema(), result.rows, cols)
}

// chunkRange is a half-open [lo,hi) span of chunk indices assigned to one
// worker.
type chunkRange struct{ lo, hi int }

// chunkRanges partitions [0,chunkCount) into at most workers contiguous
// spans. parallel=false (or chunkCount<=1, or workers<=1) always returns a
// single span covering the whole table, which is also how the sequential
// strategy runs: through the exact same worker-loop code with one worker.
func chunkRanges(chunkCount, workers int, parallel bool) []chunkRange {
	if !parallel || workers <= 1 || chunkCount <= 1 {
		return []chunkRange{{0, chunkCount}}
	}
	if workers > chunkCount {
		workers = chunkCount
	}
	base := chunkCount / workers
	rem := chunkCount % workers
	ranges := make([]chunkRange, 0, workers)
	cur := 0
	for w := 0; w < workers; w++ {
		sz := base
		if w < rem {
			sz++
		}
		if sz == 0 {
			continue
		}
		ranges = append(ranges, chunkRange{cur, cur + sz})
		cur += sz
	}
	return ranges
}

// evalChunk applies preds (already zone-map-pruned by the caller) to
// chunk, returning the selection bitmap and whether it ended up empty.
// Callers must pool.Release the returned bitmap.
func evalChunk(chunk *chunkstore.Chunk, preds []predicate.Predicate, pool *bitmap.Pool) (*bitmap.Bitmap, bool, error) {
	sel := pool.Borrow(chunk.Len(), bitmap.AllSet)
	for _, p := range preds {
		if err := p.Evaluate(chunk, sel); err != nil {
			return sel, true, err
		}
		if sel.IsEmpty() {
			return sel, true, nil
		}
	}
	return sel, sel.IsEmpty(), nil
}

// scanPlain materializes the full scan schema across every surviving row
// (Project, if present, is applied afterward by Run via applyProject, so
// this always materializes every source column rather than only the
// eventually-projected ones).
func (e *Executor) scanPlain(ctx context.Context, info *planInfo) (*Result, error) {
	sch := info.scan.Schema
	numCols := sch.NumFields()
	chunkCount := e.Table.ChunkCount()

	strategy := info.scanOp.Strategy
	if info.preFilterOp != nil {
		strategy = info.preFilterOp.Strategy
	}
	var preds []predicate.Predicate
	if info.preFilter != nil {
		preds = info.preFilter.Predicates
	}

	parallel := strategy == physical.Parallel
	ranges := chunkRanges(chunkCount, e.Config.Workers(), parallel)

	parts := make([][]chunkstore.ColumnBuffer, len(ranges))
	errs := make([]error, len(ranges))
	var wg sync.WaitGroup

	protos := make([]chunkstore.ColumnBuffer, numCols)
	for col := 0; col < numCols; col++ {
		field, _ := sch.Field(col)
		protos[col] = scalarColumn(field.Type, zonemap.Scalar{}, false)
	}

	for w, r := range ranges {
		w, r := w, r
		work := func() {
			defer wg.Done()
			pool := bitmap.NewPool()
			builders := make([]columnBuilder, numCols)
			for col := range builders {
				builders[col] = newBuilder(protos[col], r.hi-r.lo)
			}
			for ci := r.lo; ci < r.hi; ci++ {
				if cerr := ctx.Err(); cerr != nil {
					errs[w] = qerrors.Wrap(qerrors.Cancelled, cerr, "executor: cancelled during scan")
					return
				}
				chunk := e.Table.Chunk(ci)
				skip, effective := pruneChunk(preds, e.Zones, ci)
				if skip {
					e.Metrics.ChunkSkipped()
					continue
				}
				sel, empty, err := evalChunk(chunk, effective, pool)
				if err != nil {
					errs[w] = err
					pool.Release(sel)
					return
				}
				if !empty {
					e.Metrics.RowsScanned(sel.Popcount())
					sel.IterSetIndices(func(row int) {
						for col := 0; col < numCols; col++ {
							builders[col].appendFrom(chunk.Column(col), row)
						}
					})
				}
				pool.Release(sel)
			}
			cols := make([]chunkstore.ColumnBuffer, numCols)
			for col, b := range builders {
				cols[col] = b.build()
			}
			parts[w] = cols
		}
		wg.Add(1)
		if parallel {
			go work()
		} else {
			work()
		}
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	cols, rows := concatColumns(parts, protos)
	return newResult(sch, rows, cols), nil
}

// scanAggregate computes a whole-input Aggregate (no grouping), fanning
// the chunk range across workers when the physical planner chose Parallel
// and merging worker partials in worker-index order (spec.md §5: this is
// what keeps floating-point sum/avg reproducible run to run even though
// summation order is not literally identical to a single-threaded pass).
func (e *Executor) scanAggregate(ctx context.Context, info *planInfo) (*Result, error) {
	specs := info.aggregate.Aggs
	chunkCount := e.Table.ChunkCount()
	strategy := info.aggOp.Strategy
	var preds []predicate.Predicate
	if info.preFilter != nil {
		preds = info.preFilter.Predicates
	}

	parallel := strategy == physical.Parallel
	ranges := chunkRanges(chunkCount, e.Config.Workers(), parallel)

	partials := make([][]*aggState, len(ranges))
	errs := make([]error, len(ranges))
	var wg sync.WaitGroup

	for w, r := range ranges {
		w, r := w, r
		work := func() {
			defer wg.Done()
			pool := bitmap.NewPool()
			states := newAggStates(specs, info.scan.Schema)
			for ci := r.lo; ci < r.hi; ci++ {
				if cerr := ctx.Err(); cerr != nil {
					errs[w] = qerrors.Wrap(qerrors.Cancelled, cerr, "executor: cancelled during aggregate scan")
					return
				}
				chunk := e.Table.Chunk(ci)
				skip, effective := pruneChunk(preds, e.Zones, ci)
				if skip {
					e.Metrics.ChunkSkipped()
					continue
				}
				sel, empty, err := evalChunk(chunk, effective, pool)
				if err != nil {
					errs[w] = err
					pool.Release(sel)
					return
				}
				if !empty {
					e.Metrics.RowsScanned(sel.Popcount())
					var accErr error
					sel.IterSetIndices(func(row int) {
						if accErr != nil {
							return
						}
						accErr = accumulateRow(states, chunk, row)
					})
					if accErr != nil {
						errs[w] = accErr
						pool.Release(sel)
						return
					}
				}
				pool.Release(sel)
			}
			partials[w] = states
		}
		wg.Add(1)
		if parallel {
			go work()
		} else {
			work()
		}
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	final := newAggStates(specs, info.scan.Schema)
	for _, p := range partials {
		if p != nil {
			if err := mergeAggStates(final, p); err != nil {
				return nil, err
			}
		}
	}

	outSchema := info.aggregate.OutputSchema()
	cols := make([]chunkstore.ColumnBuffer, len(specs))
	for i, s := range final {
		field, _ := outSchema.Field(i)
		v, valid := s.result()
		cols[i] = scalarColumn(field.Type, v, valid)
	}
	return newResult(outSchema, 1, cols), nil
}

// scanGroupBy computes grouped aggregates, parallelizing the same way
// scanAggregate does. Output rows are ordered by the composite group key
// (groupTable.sortedKeys), a deterministic order chosen independent of
// whatever ORDER BY (if any) runs afterward.
func (e *Executor) scanGroupBy(ctx context.Context, info *planInfo) (*Result, error) {
	g := info.groupBy
	chunkCount := e.Table.ChunkCount()
	strategy := info.groupOp.Strategy
	var preds []predicate.Predicate
	if info.preFilter != nil {
		preds = info.preFilter.Predicates
	}

	parallel := strategy == physical.Parallel
	ranges := chunkRanges(chunkCount, e.Config.Workers(), parallel)

	partials := make([]*groupTable, len(ranges))
	errs := make([]error, len(ranges))
	var wg sync.WaitGroup

	for w, r := range ranges {
		w, r := w, r
		work := func() {
			defer wg.Done()
			pool := bitmap.NewPool()
			gt := newGroupTable(g.KeyColumns, g.Aggs, info.scan.Schema, e.Config.MaxGroupCount)
			for ci := r.lo; ci < r.hi; ci++ {
				if cerr := ctx.Err(); cerr != nil {
					errs[w] = qerrors.Wrap(qerrors.Cancelled, cerr, "executor: cancelled during group-by scan")
					return
				}
				chunk := e.Table.Chunk(ci)
				skip, effective := pruneChunk(preds, e.Zones, ci)
				if skip {
					e.Metrics.ChunkSkipped()
					continue
				}
				sel, empty, err := evalChunk(chunk, effective, pool)
				if err != nil {
					errs[w] = err
					pool.Release(sel)
					return
				}
				if !empty {
					e.Metrics.RowsScanned(sel.Popcount())
					var accErr error
					sel.IterSetIndices(func(row int) {
						if accErr != nil {
							return
						}
						accErr = gt.accumulateRow(chunk, row)
					})
					if accErr != nil {
						errs[w] = accErr
						pool.Release(sel)
						return
					}
				}
				pool.Release(sel)
			}
			partials[w] = gt
		}
		wg.Add(1)
		if parallel {
			go work()
		} else {
			work()
		}
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	final := newGroupTable(g.KeyColumns, g.Aggs, info.scan.Schema, e.Config.MaxGroupCount)
	for _, p := range partials {
		if p != nil {
			if err := final.merge(p); err != nil {
				return nil, err
			}
		}
	}

	outSchema := g.OutputSchema()
	keys := final.sortedKeys()
	numOut := len(g.KeyColumns) + len(g.Aggs)
	builders := make([]columnBuilder, numOut)
	for col := 0; col < numOut; col++ {
		field, _ := outSchema.Field(col)
		builders[col] = newBuilder(scalarColumn(field.Type, zonemap.Scalar{}, false), len(keys))
	}
	for _, key := range keys {
		entry := final.groups[key]
		for i := range g.KeyColumns {
			builders[i].appendScalar(entry.keyValues[i], entry.keyValid[i])
		}
		for i, s := range entry.states {
			v, valid := s.result()
			builders[len(g.KeyColumns)+i].appendScalar(v, valid)
		}
	}
	cols := make([]chunkstore.ColumnBuffer, numOut)
	for i, b := range builders {
		cols[i] = b.build()
	}
	return newResult(outSchema, len(keys), cols), nil
}
