package predicate

import (
	"qcore/bitmap"
	"qcore/chunkstore"
	"qcore/zonemap"
)

// IsNull matches rows where Column is null.
type IsNull struct {
	Column int
}

func (p *IsNull) Columns() []int { return []int{p.Column} }

func (p *IsNull) Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error {
	buf, err := columnBuffer(chunk, p.Column)
	if err != nil {
		return err
	}
	nb := buf.Nulls()
	if nb == nil {
		sel.And(bitmap.New(sel.Len(), bitmap.AllClear))
		return nil
	}
	n := buf.Len()
	for i := 0; i < n; i++ {
		if sel.Get(i) && nb.IsValid(i) {
			sel.Clear(i)
		}
	}
	return nil
}

func (p *IsNull) Selectivity(zone *zonemap.Entry) float64 {
	if zone == nil || zone.ChunkLen == 0 {
		return 0.05
	}
	return float64(zone.NullCount) / float64(zone.ChunkLen)
}

func (p *IsNull) PruneCheck(e *zonemap.Entry) (impossible, tautology bool) {
	if e == nil {
		return false, false
	}
	if e.NullCount == 0 {
		return true, false
	}
	if e.NullCount == e.ChunkLen {
		return false, true
	}
	return false, false
}

// IsNotNull matches rows where Column is non-null.
type IsNotNull struct {
	Column int
}

func (p *IsNotNull) Columns() []int { return []int{p.Column} }

func (p *IsNotNull) Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error {
	buf, err := columnBuffer(chunk, p.Column)
	if err != nil {
		return err
	}
	applyNullMask(sel, buf.Nulls())
	return nil
}

func (p *IsNotNull) Selectivity(zone *zonemap.Entry) float64 {
	if zone == nil || zone.ChunkLen == 0 {
		return 0.95
	}
	return 1 - float64(zone.NullCount)/float64(zone.ChunkLen)
}

func (p *IsNotNull) PruneCheck(e *zonemap.Entry) (impossible, tautology bool) {
	if e == nil {
		return false, false
	}
	if e.NullCount == e.ChunkLen {
		return true, false
	}
	if e.NullCount == 0 {
		return false, true
	}
	return false, false
}
