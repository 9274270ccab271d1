package plan

import (
	"fmt"
	"sort"
	"strings"

	"qcore/predicate"
)

// Fingerprint renders n's canonical pre-order text and combines it with its
// output schema's stable identifier, so two structurally identical plans
// against different schemas never collide in the plan cache (spec.md §4.6:
// "the fingerprint includes a stable schema identifier"). Grounded on the
// cache-key idiom in the kasuganosora-sqlexec plan-cache reference file,
// adapted from hashing a SQL AST directly to hashing this canonical text.
func Fingerprint(n Node) string {
	var b strings.Builder
	render(&b, n)
	fmt.Fprintf(&b, "|schema:%d", n.OutputSchema().FingerprintID())
	return b.String()
}

func render(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Scan:
		fmt.Fprintf(b, "Scan(%s)", v.TableRef)
	case *Filter:
		b.WriteString("Filter(")
		render(b, v.Child)
		b.WriteString(",preds=[")
		for i, p := range v.Predicates {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(renderPredicate(p))
		}
		fmt.Fprintf(b, "],fuseable=%v)", v.Fuseable)
	case *Project:
		b.WriteString("Project(")
		render(b, v.Child)
		fmt.Fprintf(b, ",cols=[%s])", strings.Join(v.Outputs, ","))
	case *Aggregate:
		b.WriteString("Aggregate(")
		render(b, v.Child)
		b.WriteString(",aggs=[")
		renderAggs(b, v.Aggs)
		fmt.Fprintf(b, "],fuseable=%v)", v.Fuseable)
	case *GroupBy:
		b.WriteString("GroupBy(")
		render(b, v.Child)
		fmt.Fprintf(b, ",keys=%v,aggs=[", v.KeyColumns)
		renderAggs(b, v.Aggs)
		fmt.Fprintf(b, "],fuseable=%v)", v.Fuseable)
	case *OrderBy:
		b.WriteString("OrderBy(")
		render(b, v.Child)
		b.WriteString(",keys=[")
		for i, k := range v.Keys {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%d:%v", k.Column, k.Desc)
		}
		b.WriteString("])")
	case *Limit:
		b.WriteString("Limit(")
		render(b, v.Child)
		fmt.Fprintf(b, ",n=%d)", v.N)
	case *Offset:
		b.WriteString("Offset(")
		render(b, v.Child)
		fmt.Fprintf(b, ",n=%d)", v.N)
	default:
		fmt.Fprintf(b, "Unknown(%T)", n)
	}
}

func renderAggs(b *strings.Builder, aggs []AggSpec) {
	for i, a := range aggs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "%s(col=%d)->%s", a.Func, a.Column, a.OutputName)
	}
}

// renderPredicate produces deterministic text for any predicate.Predicate
// by type-switching on the concrete leaf/composite kinds predicate.go
// exports, rather than widening Predicate's interface with a String method
// purely for this package's benefit.
func renderPredicate(p predicate.Predicate) string {
	switch v := p.(type) {
	case *predicate.Compare:
		return fmt.Sprintf("Cmp(col=%d,op=%d,val=%s)", v.Column, v.Op, v.Operand.RawKey())
	case *predicate.IsNull:
		return fmt.Sprintf("IsNull(col=%d)", v.Column)
	case *predicate.IsNotNull:
		return fmt.Sprintf("IsNotNull(col=%d)", v.Column)
	case *predicate.InSet:
		keys := make([]string, len(v.Values))
		for i, s := range v.Values {
			keys[i] = s.RawKey()
		}
		sort.Strings(keys)
		return fmt.Sprintf("InSet(col=%d,vals=[%s])", v.Column, strings.Join(keys, ","))
	case *predicate.StringOp:
		return fmt.Sprintf("StrOp(col=%d,mode=%d,needle=%q)", v.Column, v.Mode, v.Needle)
	case *predicate.BoolColumn:
		return fmt.Sprintf("Bool(col=%d,want=%v)", v.Column, v.Want)
	case *predicate.And:
		parts := make([]string, len(v.Children))
		for i, c := range v.Children {
			parts[i] = renderPredicate(c)
		}
		return fmt.Sprintf("And[%s]", strings.Join(parts, "&"))
	case *predicate.Or:
		parts := make([]string, len(v.Children))
		for i, c := range v.Children {
			parts[i] = renderPredicate(c)
		}
		return fmt.Sprintf("Or[%s]", strings.Join(parts, "|"))
	case *predicate.Not:
		return fmt.Sprintf("Not(%s)", renderPredicate(v.Child))
	default:
		return fmt.Sprintf("Unknown(%T)", p)
	}
}
