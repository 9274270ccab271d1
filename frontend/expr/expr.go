// Package expr is a builder-style Go API for constructing predicates and
// logical plans without going through the SQL front end. It plays the role
// spec.md §6 assigns to a reflected LINQ expression tree: a caller writes
// expr.Col("age").GT(30) instead of handing the adapter a lambda to walk, so
// there is never any reflection over captured closures, only ordinary Go
// values resolved against a bound schema (spec.md §9's "schema-binding
// table built once" redesign applied to the front end as well as the
// materializer).
package expr

import (
	"qcore/predicate"
	"qcore/qerrors"
	"qcore/schema"
	"qcore/zonemap"
)

// Predicate is an unbound predicate expression: a small tree of column
// references, literals, and boolean combinators that Bind resolves against
// a concrete schema. Building the tree never fails; Bind is where a
// reference to a nonexistent column or an unsupported literal type turns
// into an error.
type Predicate interface {
	bind(sch *schema.Schema) (predicate.Predicate, error)
}

// Col starts a predicate expression rooted at the named column.
func Col(name string) *ColumnRef { return &ColumnRef{name: name} }

// ColumnRef names a column by its schema name; every comparison/membership
// method below returns a Predicate that binds Column to this name's
// resolved ordinal.
type ColumnRef struct{ name string }

func (c *ColumnRef) resolve(sch *schema.Schema) (int, schema.LogicalType, error) {
	ord, err := sch.Ordinal(c.name)
	if err != nil {
		return 0, schema.LogicalType{}, qerrors.New(qerrors.UnsupportedExpression, "column %q not found: %v", c.name, err)
	}
	f, _ := sch.Field(ord)
	return ord, f.Type, nil
}

type compareExpr struct {
	col     *ColumnRef
	op      predicate.CompareOp
	operand any
}

func (e *compareExpr) bind(sch *schema.Schema) (predicate.Predicate, error) {
	ord, typ, err := e.col.resolve(sch)
	if err != nil {
		return nil, err
	}
	v, err := boxLiteral(typ, e.operand)
	if err != nil {
		return nil, err
	}
	return &predicate.Compare{Column: ord, Op: e.op, Operand: v}, nil
}

// EQ builds column = v.
func (c *ColumnRef) EQ(v any) Predicate { return &compareExpr{c, predicate.Eq, v} }

// NE builds column != v.
func (c *ColumnRef) NE(v any) Predicate { return &compareExpr{c, predicate.Ne, v} }

// LT builds column < v.
func (c *ColumnRef) LT(v any) Predicate { return &compareExpr{c, predicate.Lt, v} }

// LE builds column <= v.
func (c *ColumnRef) LE(v any) Predicate { return &compareExpr{c, predicate.Le, v} }

// GT builds column > v.
func (c *ColumnRef) GT(v any) Predicate { return &compareExpr{c, predicate.Gt, v} }

// GE builds column >= v.
func (c *ColumnRef) GE(v any) Predicate { return &compareExpr{c, predicate.Ge, v} }

type nullExpr struct {
	col *ColumnRef
	not bool
}

func (e *nullExpr) bind(sch *schema.Schema) (predicate.Predicate, error) {
	ord, _, err := e.col.resolve(sch)
	if err != nil {
		return nil, err
	}
	if e.not {
		return &predicate.IsNotNull{Column: ord}, nil
	}
	return &predicate.IsNull{Column: ord}, nil
}

// IsNull builds "column IS NULL".
func (c *ColumnRef) IsNull() Predicate { return &nullExpr{col: c} }

// IsNotNull builds "column IS NOT NULL".
func (c *ColumnRef) IsNotNull() Predicate { return &nullExpr{col: c, not: true} }

type inExpr struct {
	col    *ColumnRef
	values []any
}

func (e *inExpr) bind(sch *schema.Schema) (predicate.Predicate, error) {
	ord, typ, err := e.col.resolve(sch)
	if err != nil {
		return nil, err
	}
	vals := make([]zonemap.Scalar, len(e.values))
	for i, raw := range e.values {
		v, err := boxLiteral(typ, raw)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return &predicate.InSet{Column: ord, Values: vals}, nil
}

// In builds "column IN (values...)".
func (c *ColumnRef) In(values ...any) Predicate { return &inExpr{col: c, values: values} }

type stringExpr struct {
	col    *ColumnRef
	mode   predicate.StringMode
	needle string
}

func (e *stringExpr) bind(sch *schema.Schema) (predicate.Predicate, error) {
	ord, typ, err := e.col.resolve(sch)
	if err != nil {
		return nil, err
	}
	if typ.Kind != schema.Utf8String && typ.Kind != schema.Binary {
		return nil, qerrors.New(qerrors.UnsupportedExpression, "column %q is not a string/binary column", e.col.name)
	}
	return &predicate.StringOp{Column: ord, Mode: e.mode, Needle: e.needle}, nil
}

// StartsWith builds a prefix match, the bound form of SQL's `LIKE 'prefix%'`.
func (c *ColumnRef) StartsWith(s string) Predicate {
	return &stringExpr{col: c, mode: predicate.StartsWith, needle: s}
}

// Contains builds a substring match, the bound form of `LIKE '%needle%'`.
func (c *ColumnRef) Contains(s string) Predicate {
	return &stringExpr{col: c, mode: predicate.Contains, needle: s}
}

// StringEquals builds an exact string match, the bound form of a `LIKE`
// pattern with no wildcards.
func (c *ColumnRef) StringEquals(s string) Predicate {
	return &stringExpr{col: c, mode: predicate.StringEquals, needle: s}
}

type boolExpr struct {
	col  *ColumnRef
	want bool
}

func (e *boolExpr) bind(sch *schema.Schema) (predicate.Predicate, error) {
	ord, typ, err := e.col.resolve(sch)
	if err != nil {
		return nil, err
	}
	if typ.Kind != schema.Bool {
		return nil, qerrors.New(qerrors.UnsupportedExpression, "column %q is not a bool column", e.col.name)
	}
	return &predicate.BoolColumn{Column: ord, Want: e.want}, nil
}

// IsTrue builds "column = true" for a boolean column.
func (c *ColumnRef) IsTrue() Predicate { return &boolExpr{col: c, want: true} }

// IsFalse builds "column = false" for a boolean column.
func (c *ColumnRef) IsFalse() Predicate { return &boolExpr{col: c, want: false} }

type andExpr struct{ children []Predicate }
type orExpr struct{ children []Predicate }
type notExpr struct{ child Predicate }

func (e *andExpr) bind(sch *schema.Schema) (predicate.Predicate, error) {
	children, err := bindAll(sch, e.children)
	if err != nil {
		return nil, err
	}
	return &predicate.And{Children: children}, nil
}

func (e *orExpr) bind(sch *schema.Schema) (predicate.Predicate, error) {
	children, err := bindAll(sch, e.children)
	if err != nil {
		return nil, err
	}
	return predicate.NewOr(children, nil), nil
}

func (e *notExpr) bind(sch *schema.Schema) (predicate.Predicate, error) {
	child, err := e.child.bind(sch)
	if err != nil {
		return nil, err
	}
	return predicate.NewNot(child, nil), nil
}

func bindAll(sch *schema.Schema, exprs []Predicate) ([]predicate.Predicate, error) {
	out := make([]predicate.Predicate, len(exprs))
	for i, e := range exprs {
		p, err := e.bind(sch)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// And combines p with more predicates under conjunction.
func And(p Predicate, rest ...Predicate) Predicate {
	return &andExpr{children: append([]Predicate{p}, rest...)}
}

// Or combines p with more predicates under disjunction.
func Or(p Predicate, rest ...Predicate) Predicate {
	return &orExpr{children: append([]Predicate{p}, rest...)}
}

// Not negates p.
func Not(p Predicate) Predicate { return &notExpr{child: p} }

// Bind resolves p against sch, the single entry point an engine.Engine or
// test calls once it has a concrete schema in hand.
func Bind(p Predicate, sch *schema.Schema) (predicate.Predicate, error) {
	return p.bind(sch)
}

// boxLiteral converts a captured Go literal into the zonemap.Scalar
// representation matching typ.Kind, the same conversion rowbind and the SQL
// front end perform on their own literal sources so every adapter agrees on
// one boxed form (spec.md §3's zone-map total order).
func boxLiteral(typ schema.LogicalType, v any) (zonemap.Scalar, error) {
	switch typ.Kind {
	case schema.Int8, schema.Int16, schema.Int32, schema.Int64, schema.Date32, schema.Timestamp:
		i, ok := asInt64(v)
		if !ok {
			return zonemap.Scalar{}, qerrors.New(qerrors.UnsupportedExpression, "value %v is not an integer literal", v)
		}
		return zonemap.Int(i), nil
	case schema.UInt8, schema.UInt16, schema.UInt32, schema.UInt64:
		u, ok := asUint64(v)
		if !ok {
			return zonemap.Scalar{}, qerrors.New(qerrors.UnsupportedExpression, "value %v is not an unsigned integer literal", v)
		}
		return zonemap.Uint(u), nil
	case schema.Float32, schema.Float64, schema.Decimal128:
		f, ok := asFloat64(v)
		if !ok {
			return zonemap.Scalar{}, qerrors.New(qerrors.UnsupportedExpression, "value %v is not a numeric literal", v)
		}
		return zonemap.Float(f), nil
	case schema.Bool:
		b, ok := v.(bool)
		if !ok {
			return zonemap.Scalar{}, qerrors.New(qerrors.UnsupportedExpression, "value %v is not a bool literal", v)
		}
		return zonemap.Bool(b), nil
	case schema.Utf8String, schema.Binary:
		switch s := v.(type) {
		case string:
			return zonemap.Str(s), nil
		case []byte:
			return zonemap.Bin(s), nil
		default:
			return zonemap.Scalar{}, qerrors.New(qerrors.UnsupportedExpression, "value %v is not a string/binary literal", v)
		}
	default:
		return zonemap.Scalar{}, qerrors.New(qerrors.UnsupportedExpression, "unsupported literal type for logical kind %v", typ.Kind)
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
