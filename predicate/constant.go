package predicate

import (
	"qcore/bitmap"
	"qcore/chunkstore"
	"qcore/zonemap"
)

// Constant always matches (Match=true) or never matches (Match=false),
// regardless of chunk contents. The optimizer's contradiction-elimination
// rule (spec.md §4.3 rule 5) folds an impossible Filter to
// Constant{Match: false} instead of leaving the original, now-provably-dead
// predicate tree in place.
type Constant struct {
	Match bool
}

func (c *Constant) Columns() []int { return nil }

func (c *Constant) Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error {
	if !c.Match {
		sel.And(bitmap.New(sel.Len(), bitmap.AllClear))
	}
	return nil
}

func (c *Constant) Selectivity(zone *zonemap.Entry) float64 {
	if c.Match {
		return 1
	}
	return 0
}

func (c *Constant) PruneCheck(e *zonemap.Entry) (impossible, tautology bool) {
	return !c.Match, c.Match
}
