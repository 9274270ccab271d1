package predicate

import (
	"strings"

	"qcore/bitmap"
	"qcore/chunkstore"
	"qcore/zonemap"
)

// StringMode selects a StringOp predicate's comparison.
type StringMode uint8

const (
	StartsWith StringMode = iota
	Contains
	StringEquals
)

// StringOp matches Utf8String/Binary columns against Needle. Matching is
// always case-sensitive (per the engine's LIKE semantics decision recorded
// in DESIGN.md).
type StringOp struct {
	Column int
	Mode   StringMode
	Needle string
}

func (p *StringOp) Columns() []int { return []int{p.Column} }

func (p *StringOp) matches(raw []byte) bool {
	switch p.Mode {
	case StartsWith:
		return strings.HasPrefix(string(raw), p.Needle)
	case Contains:
		return strings.Contains(string(raw), p.Needle)
	case StringEquals:
		return string(raw) == p.Needle
	default:
		return false
	}
}

func (p *StringOp) Evaluate(chunk *chunkstore.Chunk, sel *bitmap.Bitmap) error {
	buf, err := columnBuffer(chunk, p.Column)
	if err != nil {
		return err
	}
	applyNullMask(sel, buf.Nulls())
	if sel.IsEmpty() {
		return nil
	}
	vb, ok := buf.(*chunkstore.VarLenBuffer)
	if !ok {
		return nil
	}
	n := vb.Len()
	for i := 0; i < n; i++ {
		if !sel.Get(i) {
			continue
		}
		if !p.matches(vb.Value(i)) {
			sel.Clear(i)
		}
	}
	return nil
}

func (p *StringOp) Selectivity(zone *zonemap.Entry) float64 {
	switch p.Mode {
	case StringEquals:
		return 0.1
	case StartsWith:
		return 0.2
	default:
		return 0.3
	}
}

// PruneCheck never prunes by zone map: string zone-map bounds are
// lexicographic on the whole value, which doesn't bound substring/prefix
// membership usefully beyond what the bloom filter already covers for
// StringEquals.
func (p *StringOp) PruneCheck(e *zonemap.Entry) (impossible, tautology bool) {
	if e == nil || p.Mode != StringEquals {
		return false, false
	}
	if e.Bloom != nil && !e.MightContain(p.Needle) {
		return true, false
	}
	return false, false
}
