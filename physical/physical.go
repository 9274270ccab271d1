// Package physical lowers an optimized logical plan.Node into a physical
// operator tree annotated with a per-node execution strategy, per spec.md
// §4.4. Strategy choice is driven by cost signals (row count, chunk count,
// estimated group count, hardware SIMD class) computed once at
// plan-construction time. The predicate count is passed to filterStrategy
// but does not change its choice, and the configured worker count is not
// consulted. The optimizer and executor never mutate
// this choice afterward (spec.md §9: "immutable configuration passed to the
// physical planner at plan construction time").
package physical

import (
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"

	"qcore/config"
	"qcore/plan"
)

// Strategy is the execution strategy chosen for one physical operator.
type Strategy uint8

const (
	Sequential Strategy = iota
	Simd
	Parallel
	SingleThreaded // HashAggregate's non-parallel strategy
)

func (s Strategy) String() string {
	switch s {
	case Sequential:
		return "Sequential"
	case Simd:
		return "Simd"
	case Parallel:
		return "Parallel"
	case SingleThreaded:
		return "SingleThreaded"
	default:
		return "Unknown"
	}
}

// SimdClass is the hardware vector-width class the physical planner reads
// off cpuid, mapped to spec.md §4.4's "none/128/256/512" cost signal.
type SimdClass uint8

const (
	SimdNone SimdClass = iota
	Simd128
	Simd256
	Simd512
)

// DetectSimdClass reads the host's actual vector capability via
// klauspost/cpuid/v2 (adopted from AKJUS-bsc-erigon / arx-os-arxos's
// hardware-signal dependency set), mapping its AVX512F, AVX2 and SSE2
// feature flags onto the spec's four-way class.
func DetectSimdClass() SimdClass {
	if cpuid.CPU.Supports(cpuid.AVX512F) {
		return Simd512
	}
	if cpuid.CPU.Supports(cpuid.AVX2) {
		return Simd256
	}
	if cpuid.CPU.Supports(cpuid.SSE2) {
		return Simd128
	}
	return SimdNone
}

// Op is one node of the physical plan: the logical node it was lowered
// from, the strategy chosen for it, its child, and any inline Limit/Offset
// markers. The chunk count the planner used is not stored on the Op.
type Op struct {
	Kind     OpKind
	Strategy Strategy
	Logical  plan.Node
	Child    *Op

	// LimitN/OffsetN carry an inline Limit/Offset marker onto the driving
	// operator (spec.md §4.4: "Limit/Offset -> inline markers on the
	// driving operator") instead of allocating a separate Op node for
	// them.
	HasLimit  bool
	LimitN    uint64
	HasOffset bool
	OffsetN   uint64

	// MaterializeTarget is only meaningful when Kind == ProjectOp.
	MaterializeTarget MaterializeTarget

	// Fused is set when this Aggregate/GroupBy op was lowered from a
	// Filter annotated fuseable by the optimizer (spec.md §4.3 rule 4);
	// the executor picks its single-pass fused kernel instead of a
	// separate filter-then-aggregate pass.
	Fused bool
}

// OpKind identifies which physical operator variant an Op is.
type OpKind uint8

const (
	ScanOp OpKind = iota
	FilterOp
	AggregateOp
	GroupByOp
	ProjectOp
	SortOp
)

func (k OpKind) String() string {
	switch k {
	case ScanOp:
		return "ChunkedScan"
	case FilterOp:
		return "FilterOp"
	case AggregateOp:
		return "AggregateOp"
	case GroupByOp:
		return "HashAggregate"
	case ProjectOp:
		return "MaterializeOp"
	case SortOp:
		return "SortOp"
	default:
		return "Unknown"
	}
}

// MaterializeTarget selects whether a Project op builds columnar output or
// per-row structs (spec.md §4.4: "Project -> MaterializeOp(target in
// {columnar, rowwise})").
type MaterializeTarget uint8

const (
	Columnar MaterializeTarget = iota
	Rowwise
)

// Planner chooses strategies from the cost signals spec.md §4.4 lists,
// reading thresholds from the caller's Config.
type Planner struct {
	Config    config.Config
	SimdClass SimdClass
}

// NewPlanner builds a Planner, detecting the host's SIMD class up front so
// every Plan call reuses the same immutable signal.
func NewPlanner(cfg config.Config) *Planner {
	class := SimdNone
	if cfg.EnableSimd {
		class = DetectSimdClass()
	}
	return &Planner{Config: cfg, SimdClass: class}
}

// Plan lowers an optimized logical plan into a physical operator tree.
// rowCount and chunkCount describe the table the Scan at the root of n
// reads, since plan.Node itself only estimates post-filter cardinality.
func (p *Planner) Plan(n plan.Node, rowCount uint64, chunkCount int) *Op {
	return p.planNode(n, rowCount, chunkCount, nil)
}

func (p *Planner) planNode(n plan.Node, rowCount uint64, chunkCount int, rewriteLimit func(*Op)) *Op {
	switch v := n.(type) {
	case *plan.Scan:
		strategy := Sequential
		if p.shouldParallelize(rowCount, chunkCount) {
			strategy = Parallel
		}
		return &Op{Kind: ScanOp, Strategy: strategy, Logical: v}

	case *plan.Filter:
		child := p.planNode(v.Child, rowCount, chunkCount, rewriteLimit)
		strategy := p.filterStrategy(rowCount, chunkCount, len(v.Predicates))
		return &Op{Kind: FilterOp, Strategy: strategy, Logical: v, Child: child, Fused: v.Fuseable}

	case *plan.Aggregate:
		child := p.planNode(v.Child, rowCount, chunkCount, rewriteLimit)
		strategy := Simd
		if p.shouldParallelize(rowCount, chunkCount) {
			strategy = Parallel
		}
		return &Op{Kind: AggregateOp, Strategy: strategy, Logical: v, Child: child, Fused: v.Fuseable}

	case *plan.GroupBy:
		child := p.planNode(v.Child, rowCount, chunkCount, rewriteLimit)
		strategy := SingleThreaded
		if rowCount >= p.Config.ParallelGroupByThreshold && fitsL1(v.EstimatedRows()) {
			strategy = Parallel
		}
		return &Op{Kind: GroupByOp, Strategy: strategy, Logical: v, Child: child, Fused: v.Fuseable}

	case *plan.Project:
		child := p.planNode(v.Child, rowCount, chunkCount, rewriteLimit)
		return &Op{Kind: ProjectOp, Strategy: child.Strategy, Logical: v, Child: child, MaterializeTarget: Columnar}

	case *plan.OrderBy:
		child := p.planNode(v.Child, rowCount, chunkCount, rewriteLimit)
		return &Op{Kind: SortOp, Strategy: Sequential, Logical: v, Child: child}

	case *plan.Limit:
		child := p.planNode(v.Child, rowCount, chunkCount, rewriteLimit)
		child.HasLimit = true
		child.LimitN = v.N
		return child

	case *plan.Offset:
		child := p.planNode(v.Child, rowCount, chunkCount, rewriteLimit)
		child.HasOffset = true
		child.OffsetN = v.N
		return child

	default:
		panic(fmt.Sprintf("physical: unhandled logical node %T", n))
	}
}

// shouldParallelize implements spec.md §4.4's Scan/Filter/Aggregate
// parallel threshold: total rows >= ParallelThreshold AND chunk count >= 2.
func (p *Planner) shouldParallelize(rowCount uint64, chunkCount int) bool {
	return rowCount >= p.Config.ParallelThreshold && chunkCount >= 2
}

// filterStrategy additionally prefers Simd over Sequential whenever the
// host has vector support and SIMD is enabled, even below the parallel
// threshold, since a single-threaded SIMD scan is still strictly cheaper
// than scalar (spec.md §4.4: "SIMD when the runtime has >=128-bit vectors
// AND the column type has a SIMD kernel" — kernel availability is uniform
// here, so class alone gates it).
func (p *Planner) filterStrategy(rowCount uint64, chunkCount, predicateCount int) Strategy {
	if p.shouldParallelize(rowCount, chunkCount) {
		return Parallel
	}
	if p.Config.EnableSimd && p.SimdClass != SimdNone {
		return Simd
	}
	return Sequential
}

// fitsL1 is the "expected group count <= L1 cache capacity" heuristic from
// spec.md §4.4, approximated as a fixed group-count ceiling rather than
// querying actual cache size: a partial-group hash table entry is a few
// dozen bytes, so this ceiling keeps per-worker partials comfortably inside
// a typical 32KB L1 data cache.
const l1GroupCeiling = 512

func fitsL1(estimatedGroups uint64) bool { return estimatedGroups <= l1GroupCeiling }

// Explain renders a plain-text, deterministic trace of the chosen strategy
// per node (SPEC_FULL.md §5's supplemented feature), useful for testing the
// threshold logic without reaching into unexported fields.
func (o *Op) Explain() string {
	var b strings.Builder
	explain(&b, o, 0)
	return b.String()
}

func explain(b *strings.Builder, o *Op, depth int) {
	if o == nil {
		return
	}
	fmt.Fprintf(b, "%s%s[%s]", strings.Repeat("  ", depth), o.Kind, o.Strategy)
	if o.Fused {
		b.WriteString(" fused")
	}
	if o.HasLimit {
		fmt.Fprintf(b, " limit=%d", o.LimitN)
	}
	if o.HasOffset {
		fmt.Fprintf(b, " offset=%d", o.OffsetN)
	}
	b.WriteByte('\n')
	explain(b, o.Child, depth+1)
}
