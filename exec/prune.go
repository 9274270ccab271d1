package exec

import (
	"qcore/predicate"
	"qcore/zonemap"
)

// pruneChunk applies spec.md §4.2's zone-map skip/pass-through decision to
// every single-column top-level predicate in preds, for one chunk. skip
// means some predicate proved impossible for this chunk, so the whole
// chunk (being ANDed) can be excluded without evaluating a single row.
// effective is preds with every predicate zone-maps proved a tautology
// removed, since those rows are already known to match (minus nulls, which
// Evaluate still clears for predicates that remain).
func pruneChunk(preds []predicate.Predicate, zones *zonemap.Index, chunkIdx int) (skip bool, effective []predicate.Predicate) {
	if zones == nil || len(preds) == 0 {
		return false, preds
	}
	effective = make([]predicate.Predicate, 0, len(preds))
	for _, p := range preds {
		cols := p.Columns()
		if len(cols) != 1 {
			effective = append(effective, p)
			continue
		}
		entry, ok := zones.Entry(chunkIdx, cols[0])
		if !ok {
			effective = append(effective, p)
			continue
		}
		impossible, tautology := entry.Prune(p)
		if impossible {
			return true, nil
		}
		if tautology {
			continue
		}
		effective = append(effective, p)
	}
	return false, effective
}
