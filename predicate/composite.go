package predicate

import (
	"sort"

	"qcore/bitmap"
	"qcore/chunkstore"
	"qcore/zonemap"
)

// And evaluates its children in slice order and short-circuits as soon as
// the running selection bitmap is entirely clear, per spec.md §4.2.
type And struct {
	Children []Predicate
}

// Sort reorders Children by ascending Selectivity estimate under zone,
// cheapest-to-reject first. No package in this module calls it; the
// optimizer's reorderPredicates sorts a Filter's top-level predicate list
// instead.
func (a *And) Sort(zone *zonemap.Entry) {
	sort.SliceStable(a.Children, func(i, j int) bool {
		return a.Children[i].Selectivity(zone) < a.Children[j].Selectivity(zone)
	})
}

func (a *And) Columns() []int {
	var out []int
	for _, c := range a.Children {
		out = append(out, c.Columns()...)
	}
	return out
}

func (a *And) Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error {
	for _, c := range a.Children {
		if sel.IsEmpty() {
			return nil
		}
		if err := c.Evaluate(chunk, sel); err != nil {
			return err
		}
	}
	return nil
}

func (a *And) Selectivity(zone *zonemap.Entry) float64 {
	p := 1.0
	for _, c := range a.Children {
		p *= c.Selectivity(zone)
	}
	return p
}

func (a *And) PruneCheck(e *zonemap.Entry) (impossible, tautology bool) {
	allTautology := true
	for _, c := range a.Children {
		imp, taut := c.PruneCheck(e)
		if imp {
			return true, false
		}
		if !taut {
			allTautology = false
		}
	}
	return false, allTautology
}

// Or evaluates each child against a scratch copy of the input mask and
// ORs the results together, so a row matching any child is kept.
type Or struct {
	Children []Predicate
	pool     *bitmap.Pool
}

// NewOr builds an Or combinator; pool may be nil to use bitmap.DefaultPool.
func NewOr(children []Predicate, pool *bitmap.Pool) *Or {
	if pool == nil {
		pool = bitmap.DefaultPool
	}
	return &Or{Children: children, pool: pool}
}

func (o *Or) Columns() []int {
	var out []int
	for _, c := range o.Children {
		out = append(out, c.Columns()...)
	}
	return out
}

func (o *Or) Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error {
	if len(o.Children) == 0 {
		return nil
	}
	pool := o.pool
	if pool == nil {
		pool = bitmap.DefaultPool
	}
	result := pool.Borrow(sel.Len(), bitmap.AllClear)
	defer pool.Release(result)

	scratch := pool.Borrow(sel.Len(), bitmap.AllClear)
	defer pool.Release(scratch)

	for _, c := range o.Children {
		scratch.CopyFrom(sel)
		if err := c.Evaluate(chunk, scratch); err != nil {
			return err
		}
		result.Or(scratch)
	}
	sel.And(result)
	return nil
}

func (o *Or) Selectivity(zone *zonemap.Entry) float64 {
	// Inclusion-exclusion is overkill for an estimate; treat children as
	// independent: P(any) = 1 - product(1 - P(child)).
	q := 1.0
	for _, c := range o.Children {
		q *= 1 - c.Selectivity(zone)
	}
	return clamp01(1 - q)
}

func (o *Or) PruneCheck(e *zonemap.Entry) (impossible, tautology bool) {
	allImpossible := true
	for _, c := range o.Children {
		imp, taut := c.PruneCheck(e)
		if taut {
			return false, true
		}
		if !imp {
			allImpossible = false
		}
	}
	return allImpossible && len(o.Children) > 0, false
}

// Not evaluates Child against a scratch copy of the input mask, then clears
// in sel exactly the rows the child kept ("sel AND NOT child-result"), so a
// row survives Not iff it did not match Child.
type Not struct {
	Child Predicate
	pool  *bitmap.Pool
}

func NewNot(child Predicate, pool *bitmap.Pool) *Not {
	if pool == nil {
		pool = bitmap.DefaultPool
	}
	return &Not{Child: child, pool: pool}
}

func (n *Not) Columns() []int { return n.Child.Columns() }

func (n *Not) Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error {
	pool := n.pool
	if pool == nil {
		pool = bitmap.DefaultPool
	}
	scratch := pool.Borrow(sel.Len(), bitmap.AllClear)
	defer pool.Release(scratch)
	scratch.CopyFrom(sel)
	if err := n.Child.Evaluate(chunk, scratch); err != nil {
		return err
	}
	sel.AndNot(scratch)
	return nil
}

func (n *Not) Selectivity(zone *zonemap.Entry) float64 {
	return clamp01(1 - n.Child.Selectivity(zone))
}

func (n *Not) PruneCheck(e *zonemap.Entry) (impossible, tautology bool) {
	imp, taut := n.Child.PruneCheck(e)
	return taut, imp
}
