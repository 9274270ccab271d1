package exec

import (
	"sort"
	"strings"

	"qcore/chunkstore"
	"qcore/internal/rowbind"
	"qcore/plan"
	"qcore/qerrors"
	"qcore/schema"
	"qcore/zonemap"
)

// groupEntry is one distinct key's running aggregate state plus the boxed
// key values needed to materialize its output row.
type groupEntry struct {
	keyValues []zonemap.Scalar
	keyValid  []bool
	states    []*aggState
}

// groupTable accumulates GroupBy partials keyed by a composite string of
// the group columns' RawKey encodings, held in a plain Go map rather than
// a hand-written open-addressing table.
type groupTable struct {
	keyColumns []int
	aggSpecs   []plan.AggSpec
	schema     *schema.Schema
	maxGroups  int
	groups     map[string]*groupEntry
}

// newGroupTable builds an empty group table. maxGroups <= 0 means
// unbounded; otherwise accumulateRow reports CapacityExceeded the moment a
// new distinct key would grow the table past maxGroups (spec.md §7:
// "CapacityExceeded — hash aggregation exceeds configured group-table
// size").
func newGroupTable(keyColumns []int, aggSpecs []plan.AggSpec, sch *schema.Schema, maxGroups int) *groupTable {
	return &groupTable{keyColumns: keyColumns, aggSpecs: aggSpecs, schema: sch, maxGroups: maxGroups, groups: make(map[string]*groupEntry)}
}

// accumulateRow resolves row's group key and folds it into that group's
// aggregate states, creating the group on first sight.
func (t *groupTable) accumulateRow(chunk *chunkstore.Chunk, row int) error {
	keyValues := make([]zonemap.Scalar, len(t.keyColumns))
	keyValid := make([]bool, len(t.keyColumns))
	var keyStr strings.Builder
	for i, col := range t.keyColumns {
		v, valid := rowbind.ValueAt(chunk.Column(col), row)
		keyValues[i], keyValid[i] = v, valid
		if i > 0 {
			keyStr.WriteByte('\x1f')
		}
		if valid {
			keyStr.WriteString(v.RawKey())
		} else {
			keyStr.WriteString("\x00NULL")
		}
	}
	key := keyStr.String()
	entry, ok := t.groups[key]
	if !ok {
		if t.maxGroups > 0 && len(t.groups) >= t.maxGroups {
			return qerrors.New(qerrors.CapacityExceeded,
				"group-by exceeded configured group-table size of %d groups", t.maxGroups).
				WithEntity("groupby", "group_table")
		}
		entry = &groupEntry{keyValues: keyValues, keyValid: keyValid, states: newAggStates(t.aggSpecs, t.schema)}
		t.groups[key] = entry
	}
	return accumulateRow(entry.states, chunk, row)
}

// merge folds another worker's partial groupTable into t, used when the
// GroupBy strategy is Parallel: each worker owns a disjoint chunk range and
// builds its own groupTable, then partials are merged in worker-id order
// for the same reproducibility guarantee whole-input aggregates get. The
// combined table is still subject to maxGroups.
func (t *groupTable) merge(o *groupTable) error {
	for key, oe := range o.groups {
		e, ok := t.groups[key]
		if !ok {
			if t.maxGroups > 0 && len(t.groups) >= t.maxGroups {
				return qerrors.New(qerrors.CapacityExceeded,
					"group-by exceeded configured group-table size of %d groups", t.maxGroups).
					WithEntity("groupby", "group_table")
			}
			t.groups[key] = oe
			continue
		}
		if err := mergeAggStates(e.states, oe.states); err != nil {
			return err
		}
	}
	return nil
}

// sortedKeys returns the table's distinct group keys in a stable order
// (lexicographic over the composite key string), so GroupBy output row
// order is deterministic even though Go map iteration is not.
func (t *groupTable) sortedKeys() []string {
	keys := make([]string, 0, len(t.groups))
	for k := range t.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
