package predicate

import (
	"qcore/bitmap"
	"qcore/chunkstore"
	"qcore/zonemap"
)

// InSet matches rows whose value equals any member of Values.
type InSet struct {
	Column int
	Values []zonemap.Scalar
}

func (p *InSet) Columns() []int { return []int{p.Column} }

func (p *InSet) contains(s zonemap.Scalar) bool {
	for _, v := range p.Values {
		if zonemap.Compare(s, v) == 0 {
			return true
		}
	}
	return false
}

func (p *InSet) Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error {
	buf, err := columnBuffer(chunk, p.Column)
	if err != nil {
		return err
	}
	applyNullMask(sel, buf.Nulls())
	if sel.IsEmpty() {
		return nil
	}
	evalNumericKernel(buf, sel, p.contains)
	return nil
}

func (p *InSet) Selectivity(zone *zonemap.Entry) float64 {
	if zone == nil {
		return clamp01(float64(len(p.Values)) * 0.1)
	}
	matches := 0
	for _, v := range p.Values {
		if zone.Bloom == nil {
			matches++
			continue
		}
		if zone.MightContain(v.RawKey()) {
			matches++
		}
	}
	if len(p.Values) == 0 {
		return 0
	}
	return clamp01(float64(matches) / float64(len(p.Values)) * 0.3)
}

func (p *InSet) PruneCheck(e *zonemap.Entry) (impossible, tautology bool) {
	if e == nil || len(p.Values) == 0 {
		return len(p.Values) == 0, false
	}
	if e.MinDefined && e.MaxDefined {
		anyInRange := false
		for _, v := range p.Values {
			if zonemap.Compare(v, e.Min) >= 0 && zonemap.Compare(v, e.Max) <= 0 {
				anyInRange = true
				break
			}
		}
		if !anyInRange {
			return true, false
		}
	}
	if e.Bloom != nil {
		for _, v := range p.Values {
			if e.MightContain(v.RawKey()) {
				return false, false
			}
		}
		return true, false
	}
	return false, false
}
