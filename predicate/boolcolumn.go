package predicate

import (
	"qcore/bitmap"
	"qcore/chunkstore"
	"qcore/zonemap"
)

// BoolColumn matches rows where a boolean column equals Want, extracting
// bits directly from the column's packed bitmap rather than going through
// the generic kernel (spec.md §4.2: "boolean: extract bits from the bool
// column's bitmap directly").
type BoolColumn struct {
	Column int
	Want   bool
}

func (p *BoolColumn) Columns() []int { return []int{p.Column} }

func (p *BoolColumn) Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error {
	buf, err := columnBuffer(chunk, p.Column)
	if err != nil {
		return err
	}
	bb, ok := buf.(*chunkstore.BoolBuffer)
	if !ok {
		return nil
	}
	applyNullMask(sel, bb.Nulls())
	if sel.IsEmpty() {
		return nil
	}
	n := bb.Len()
	for i := 0; i < n; i++ {
		if sel.Get(i) && bb.Get(i) != p.Want {
			sel.Clear(i)
		}
	}
	return nil
}

func (p *BoolColumn) Selectivity(zone *zonemap.Entry) float64 {
	if zone == nil || !zone.MinDefined || !zone.MaxDefined {
		return 0.5
	}
	min, max := zone.Min.Bool, zone.Max.Bool
	if min == max {
		if min == p.Want {
			return 1
		}
		return 0
	}
	return 0.5
}

func (p *BoolColumn) PruneCheck(e *zonemap.Entry) (impossible, tautology bool) {
	if e == nil || !e.MinDefined || !e.MaxDefined {
		return false, false
	}
	if e.Min.Bool == e.Max.Bool {
		if e.Min.Bool == p.Want {
			return false, e.NullCount == 0
		}
		return true, false
	}
	return false, false
}
