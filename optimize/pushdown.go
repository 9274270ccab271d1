package optimize

import (
	"qcore/plan"
	"qcore/predicate"
)

// pushdownFilterThroughProject implements spec.md §4.3 rule 3: a Filter
// whose predicates reference only columns that also exist (by name) in the
// Project's child schema can move below the Project, letting the executor
// filter before materializing the projected output. If a predicate touches
// a column the Project computed or renamed away, pushdown is skipped for
// this node (conservatively correct: the rule just doesn't fire).
func pushdownFilterThroughProject(n plan.Node) (plan.Node, bool) {
	f, ok := n.(*plan.Filter)
	if !ok {
		return n, false
	}
	p, ok := f.Child.(*plan.Project)
	if !ok {
		return n, false
	}

	projSchema := p.OutputSchema()
	childSchema := p.Child.OutputSchema()

	mapping := make(map[int]int)
	for _, pred := range f.Predicates {
		for _, ord := range pred.Columns() {
			if _, already := mapping[ord]; already {
				continue
			}
			field, err := projSchema.Field(ord)
			if err != nil {
				return n, false
			}
			newOrd, err := childSchema.Ordinal(field.Name)
			if err != nil {
				return n, false // column not present pre-projection: can't push down
			}
			mapping[ord] = newOrd
		}
	}

	remapped := make([]predicate.Predicate, len(f.Predicates))
	for i, pred := range f.Predicates {
		remapped[i] = remapColumns(pred, mapping)
	}

	return &plan.Project{
		Child:   &plan.Filter{Child: p.Child, Predicates: remapped, Fuseable: f.Fuseable},
		Outputs: p.Outputs,
	}, true
}

// remapColumns returns a copy of pred with every leaf's column ordinal
// translated through mapping, used when pushing a predicate tree below a
// Project that changed column ordinals.
func remapColumns(pred predicate.Predicate, mapping map[int]int) predicate.Predicate {
	switch v := pred.(type) {
	case *predicate.Compare:
		return &predicate.Compare{Column: mapping[v.Column], Op: v.Op, Operand: v.Operand}
	case *predicate.IsNull:
		return &predicate.IsNull{Column: mapping[v.Column]}
	case *predicate.IsNotNull:
		return &predicate.IsNotNull{Column: mapping[v.Column]}
	case *predicate.InSet:
		return &predicate.InSet{Column: mapping[v.Column], Values: v.Values}
	case *predicate.StringOp:
		return &predicate.StringOp{Column: mapping[v.Column], Mode: v.Mode, Needle: v.Needle}
	case *predicate.BoolColumn:
		return &predicate.BoolColumn{Column: mapping[v.Column], Want: v.Want}
	case *predicate.And:
		children := make([]predicate.Predicate, len(v.Children))
		for i, c := range v.Children {
			children[i] = remapColumns(c, mapping)
		}
		return &predicate.And{Children: children}
	case *predicate.Or:
		children := make([]predicate.Predicate, len(v.Children))
		for i, c := range v.Children {
			children[i] = remapColumns(c, mapping)
		}
		return predicate.NewOr(children, nil)
	case *predicate.Not:
		return predicate.NewNot(remapColumns(v.Child, mapping), nil)
	default:
		return pred
	}
}
