package zonemap

// Prunable is implemented by predicate.Predicate so zone-map pruning can be
// driven from this package without importing predicate (which itself
// imports zonemap for Entry, to refine Selectivity estimates against
// min/max bounds). Structural typing breaks what would otherwise be an
// import cycle: predicate.Predicate satisfies Prunable by defining
// PruneCheck without either package referring to the other's concrete type.
type Prunable interface {
	// PruneCheck reports whether, given this zone-map entry, the predicate
	// can never match any row in the chunk (impossible) or must match every
	// non-null row (tautology). Both false means the chunk must be
	// evaluated normally.
	PruneCheck(e *Entry) (impossible, tautology bool)
}

// Prune implements the "impossible" / "trivially true" chunk-skipping
// decision from spec.md §4.2: skip means the chunk can be entirely excluded
// without evaluating pred against a single row; passThrough means every
// non-null row is known to match and the predicate need not run at all
// (the chunk's non-null rows select trivially).
func (e *Entry) Prune(pred Prunable) (skip, passThrough bool) {
	if pred == nil || e == nil {
		return false, false
	}
	return pred.PruneCheck(e)
}
