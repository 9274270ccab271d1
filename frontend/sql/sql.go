// Package sql translates a SQL string into a logical plan using the TiDB
// parser, the same parsing dependency the teacher codebase (smf) uses for
// MySQL DDL, applied here to the query-side grammar (SELECT/FROM/WHERE/
// GROUP BY/HAVING/ORDER BY/LIMIT/OFFSET) spec.md §6 defines. Grammar
// coverage is intentionally narrow: single-table SELECT, no subqueries, no
// joins (spec.md §1 Non-goals).
package sql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	driver "github.com/pingcap/tidb/pkg/parser/test_driver"

	"qcore/exec"
	"qcore/plan"
	"qcore/predicate"
	"qcore/qerrors"
	"qcore/schema"
	"qcore/zonemap"
)

// Parse lowers sql into a logical plan rooted at a Scan over sch, the
// bound schema of the single table named in the statement's FROM clause.
// rowCount is the table's actual row count (a caller typically reads it
// off the chunkstore.Table being queried), carried onto the Scan node for
// the optimizer's cost estimation the same way frontend/expr.From does.
// Any grammar outside spec.md §6's subset, or any column name that does not
// resolve against sch, fails with qerrors.SqlParseError.
func Parse(sqlText string, sch *schema.Schema, rowCount uint64) (plan.Node, error) {
	p := parser.New()
	stmtNode, err := p.ParseOneStmt(sqlText, "", "")
	if err != nil {
		return nil, sqlErrorf(0, "%v", err)
	}
	stmt, ok := stmtNode.(*ast.SelectStmt)
	if !ok {
		return nil, sqlErrorf(0, "only SELECT statements are supported")
	}
	if stmt.Distinct {
		return nil, sqlErrorf(0, "SELECT DISTINCT is not supported")
	}

	tableRef, err := tableRefOf(stmt.From)
	if err != nil {
		return nil, err
	}

	b := &builder{sch: sch}
	var node plan.Node = &plan.Scan{TableRef: tableRef, Schema: sch, RowCount: rowCount}

	if stmt.Where != nil {
		pred, err := b.bindExpr(stmt.Where)
		if err != nil {
			return nil, err
		}
		node = &plan.Filter{Child: node, Predicates: []predicate.Predicate{pred}}
	}

	aggs, isAgg, err := b.collectAggs(stmt.Fields)
	if err != nil {
		return nil, err
	}

	var groupCols []int
	if stmt.GroupBy != nil {
		for _, item := range stmt.GroupBy.Items {
			ord, err := b.columnOrdinal(item.Expr)
			if err != nil {
				return nil, err
			}
			groupCols = append(groupCols, ord)
		}
	}

	switch {
	case len(groupCols) > 0:
		node = &plan.GroupBy{Child: node, KeyColumns: groupCols, Aggs: aggs}
	case isAgg:
		node = &plan.Aggregate{Child: node, Aggs: aggs}
	}

	if stmt.Having != nil && stmt.Having.Expr != nil {
		if len(groupCols) == 0 && !isAgg {
			return nil, sqlErrorf(0, "HAVING requires GROUP BY or an aggregate projection")
		}
		bh := &builder{sch: node.OutputSchema()}
		pred, err := bh.bindExpr(stmt.Having.Expr)
		if err != nil {
			return nil, err
		}
		node = &plan.Filter{Child: node, Predicates: []predicate.Predicate{pred}}
	}

	if stmt.OrderBy != nil {
		out := node.OutputSchema()
		ob := &builder{sch: out}
		keys := make([]plan.OrderKey, 0, len(stmt.OrderBy.Items))
		for _, item := range stmt.OrderBy.Items {
			ord, err := ob.columnOrdinal(item.Expr)
			if err != nil {
				return nil, err
			}
			keys = append(keys, plan.OrderKey{Column: ord, Desc: item.Desc})
		}
		node = &plan.OrderBy{Child: node, Keys: keys}
	}

	if stmt.Limit != nil {
		if stmt.Limit.Offset != nil {
			n, err := literalUint64(stmt.Limit.Offset)
			if err != nil {
				return nil, err
			}
			node = &plan.Offset{Child: node, N: n}
		}
		if stmt.Limit.Count != nil {
			n, err := literalUint64(stmt.Limit.Count)
			if err != nil {
				return nil, err
			}
			node = &plan.Limit{Child: node, N: n}
		}
	}

	if !isAgg && len(groupCols) == 0 {
		outputs, err := projectionOf(stmt.Fields, sch)
		if err != nil {
			return nil, err
		}
		if outputs != nil {
			node = &plan.Project{Child: node, Outputs: outputs}
		}
	}

	return node, nil
}

// builder resolves column references and literals against one schema; a
// fresh builder is used per clause since HAVING/ORDER BY resolve against
// the post-aggregation schema while WHERE resolves against the scan schema.
type builder struct {
	sch *schema.Schema
}

func tableRefOf(from *ast.TableRefsClause) (string, error) {
	if from == nil || from.TableRefs == nil {
		return "", sqlErrorf(0, "FROM clause is required")
	}
	src, ok := from.TableRefs.Left.(*ast.TableSource)
	if !ok {
		return "", sqlErrorf(0, "unsupported FROM clause: joins are not supported")
	}
	name, ok := src.Source.(*ast.TableName)
	if !ok {
		return "", sqlErrorf(0, "unsupported FROM clause: only a single table name is supported")
	}
	return name.Name.O, nil
}

// projectionOf returns the plain column-list projection named by fields, or
// nil when the projection is `*` (meaning "every scan column", which needs
// no Project node at all).
func projectionOf(fields *ast.FieldList, sch *schema.Schema) ([]string, error) {
	if fields == nil {
		return nil, nil
	}
	outputs := make([]string, 0, len(fields.Fields))
	for _, f := range fields.Fields {
		if f.WildCard != nil {
			return nil, nil
		}
		col, ok := f.Expr.(*ast.ColumnNameExpr)
		if !ok {
			return nil, sqlErrorf(0, "unsupported projection expression")
		}
		name := col.Name.Name.O
		if !sch.HasColumn(name) {
			return nil, sqlErrorf(0, "unknown column %q in projection", name)
		}
		if f.AsName.O != "" {
			return nil, sqlErrorf(0, "column aliasing is not supported outside aggregate projections")
		}
		outputs = append(outputs, name)
	}
	return outputs, nil
}

// collectAggs scans fields for aggregate-function calls, reporting whether
// any were found; a SELECT with no aggregate calls and no GROUP BY is a
// plain row projection instead. An aggregate call that fails to bind (e.g.
// SUM of an unknown column, or an unsupported aggregate function) is a
// SqlParseError surfaced to the caller, not silently dropped from the
// projection — dropping it could turn a SELECT SUM(bogus) query into a
// silently different plain row scan instead of failing.
func (b *builder) collectAggs(fields *ast.FieldList) ([]plan.AggSpec, bool, error) {
	if fields == nil {
		return nil, false, nil
	}
	var aggs []plan.AggSpec
	for _, f := range fields.Fields {
		call, ok := f.Expr.(*ast.AggregateFuncExpr)
		if !ok {
			continue
		}
		spec, err := b.aggSpecOf(call, f.AsName.O)
		if err != nil {
			return nil, false, err
		}
		aggs = append(aggs, spec)
	}
	return aggs, len(aggs) > 0, nil
}

func (b *builder) aggSpecOf(call *ast.AggregateFuncExpr, as string) (plan.AggSpec, error) {
	fn, err := aggFuncOf(call.F)
	if err != nil {
		return plan.AggSpec{}, err
	}
	if as == "" {
		as = strings.ToLower(call.F)
	}
	col := exec.CountStar
	if !isCountStar(call) {
		ord, err := b.columnOrdinal(call.Args[0])
		if err != nil {
			return plan.AggSpec{}, err
		}
		col = ord
	}
	return plan.AggSpec{Func: fn, Column: col, OutputName: as}, nil
}

// isCountStar reports whether call is COUNT(*): the parser represents the
// wildcard argument either as a *ast.WildCardField or as a column named
// "*", depending on version, so both forms are checked.
func isCountStar(call *ast.AggregateFuncExpr) bool {
	if !strings.EqualFold(call.F, "count") || len(call.Args) != 1 {
		return false
	}
	switch arg := call.Args[0].(type) {
	case *ast.WildCardField:
		return true
	case *ast.ColumnNameExpr:
		return arg.Name.Name.O == "*"
	default:
		return false
	}
}

func aggFuncOf(name string) (plan.AggFunc, error) {
	switch strings.ToLower(name) {
	case "count":
		return plan.Count, nil
	case "sum":
		return plan.Sum, nil
	case "min":
		return plan.Min, nil
	case "max":
		return plan.Max, nil
	case "avg":
		return plan.Avg, nil
	default:
		return 0, sqlErrorf(0, "unsupported aggregate function %q", name)
	}
}

func (b *builder) columnOrdinal(e ast.ExprNode) (int, error) {
	col, ok := unwrapParens(e).(*ast.ColumnNameExpr)
	if !ok {
		return 0, sqlErrorf(0, "expected a column reference")
	}
	ord, err := b.sch.Ordinal(col.Name.Name.O)
	if err != nil {
		return 0, sqlErrorf(0, "unknown column %q", col.Name.Name.O)
	}
	return ord, nil
}

func unwrapParens(e ast.ExprNode) ast.ExprNode {
	for {
		p, ok := e.(*ast.ParenthesesExpr)
		if !ok {
			return e
		}
		e = p.Expr
	}
}

// bindExpr lowers a WHERE/HAVING boolean expression tree into a
// predicate.Predicate, the same leaf/composite set frontend/expr builds,
// so both front ends share one evaluator.
func (b *builder) bindExpr(e ast.ExprNode) (predicate.Predicate, error) {
	e = unwrapParens(e)
	switch n := e.(type) {
	case *ast.BinaryOperationExpr:
		return b.bindBinary(n)
	case *ast.UnaryOperationExpr:
		if n.Op != opcode.Not {
			return nil, sqlErrorf(0, "unsupported unary operator %v", n.Op)
		}
		child, err := b.bindExpr(n.V)
		if err != nil {
			return nil, err
		}
		return predicate.NewNot(child, nil), nil
	case *ast.IsNullExpr:
		ord, err := b.columnOrdinal(n.Expr)
		if err != nil {
			return nil, err
		}
		if n.Not {
			return &predicate.IsNotNull{Column: ord}, nil
		}
		return &predicate.IsNull{Column: ord}, nil
	case *ast.PatternInExpr:
		if n.Sel != nil {
			return nil, sqlErrorf(0, "subqueries are not supported")
		}
		ord, err := b.columnOrdinal(n.Expr)
		if err != nil {
			return nil, err
		}
		typ, _ := b.sch.Field(ord)
		values := make([]zonemap.Scalar, len(n.List))
		for i, item := range n.List {
			v, err := b.literalScalar(item, typ.Type)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		pred := predicate.Predicate(&predicate.InSet{Column: ord, Values: values})
		if n.Not {
			pred = predicate.NewNot(pred, nil)
		}
		return pred, nil
	case *ast.PatternLikeExpr:
		ord, err := b.columnOrdinal(n.Expr)
		if err != nil {
			return nil, err
		}
		mode, needle, err := likePattern(n.Pattern)
		if err != nil {
			return nil, err
		}
		pred := predicate.Predicate(&predicate.StringOp{Column: ord, Mode: mode, Needle: needle})
		if n.Not {
			pred = predicate.NewNot(pred, nil)
		}
		return pred, nil
	default:
		return nil, sqlErrorf(0, "unsupported WHERE/HAVING expression")
	}
}

func (b *builder) bindBinary(n *ast.BinaryOperationExpr) (predicate.Predicate, error) {
	switch n.Op {
	case opcode.LogicAnd:
		l, err := b.bindExpr(n.L)
		if err != nil {
			return nil, err
		}
		r, err := b.bindExpr(n.R)
		if err != nil {
			return nil, err
		}
		return &predicate.And{Children: []predicate.Predicate{l, r}}, nil
	case opcode.LogicOr:
		l, err := b.bindExpr(n.L)
		if err != nil {
			return nil, err
		}
		r, err := b.bindExpr(n.R)
		if err != nil {
			return nil, err
		}
		return predicate.NewOr([]predicate.Predicate{l, r}, nil), nil
	case opcode.EQ, opcode.NE, opcode.LT, opcode.LE, opcode.GT, opcode.GE:
		col, isLeftCol := unwrapParens(n.L).(*ast.ColumnNameExpr)
		operandExpr := n.R
		op := compareOpOf(n.Op)
		if !isLeftCol {
			col, isLeftCol = unwrapParens(n.R).(*ast.ColumnNameExpr)
			operandExpr = n.L
			op = flip(op)
		}
		if !isLeftCol {
			return nil, sqlErrorf(0, "comparison must have a column on one side")
		}
		ord, err := b.sch.Ordinal(col.Name.Name.O)
		if err != nil {
			return nil, sqlErrorf(0, "unknown column %q", col.Name.Name.O)
		}
		field, _ := b.sch.Field(ord)
		if field.Type.Kind == schema.Bool {
			want, err := literalBool(operandExpr)
			if err != nil {
				return nil, err
			}
			if op != predicate.Eq && op != predicate.Ne {
				return nil, sqlErrorf(0, "unsupported boolean comparison")
			}
			if op == predicate.Ne {
				want = !want
			}
			return &predicate.BoolColumn{Column: ord, Want: want}, nil
		}
		v, err := b.literalScalar(operandExpr, field.Type)
		if err != nil {
			return nil, err
		}
		return &predicate.Compare{Column: ord, Op: op, Operand: v}, nil
	default:
		return nil, sqlErrorf(0, "unsupported operator %v", n.Op)
	}
}

func flip(op predicate.CompareOp) predicate.CompareOp {
	switch op {
	case predicate.Lt:
		return predicate.Gt
	case predicate.Le:
		return predicate.Ge
	case predicate.Gt:
		return predicate.Lt
	case predicate.Ge:
		return predicate.Le
	default:
		return op
	}
}

func compareOpOf(op opcode.Op) predicate.CompareOp {
	switch op {
	case opcode.EQ:
		return predicate.Eq
	case opcode.NE:
		return predicate.Ne
	case opcode.LT:
		return predicate.Lt
	case opcode.LE:
		return predicate.Le
	case opcode.GT:
		return predicate.Gt
	case opcode.GE:
		return predicate.Ge
	default:
		return predicate.Eq
	}
}

// likePattern classifies a LIKE pattern expression into one of spec.md §9's
// three supported shapes: `prefix%`, `%needle%`, or an exact match with no
// wildcards.
func likePattern(e ast.ExprNode) (predicate.StringMode, string, error) {
	raw, err := literalString(e)
	if err != nil {
		return 0, "", err
	}
	switch {
	case strings.HasPrefix(raw, "%") && strings.HasSuffix(raw, "%") && len(raw) >= 2:
		return predicate.Contains, strings.TrimSuffix(strings.TrimPrefix(raw, "%"), "%"), nil
	case strings.HasSuffix(raw, "%"):
		return predicate.StartsWith, strings.TrimSuffix(raw, "%"), nil
	case !strings.ContainsAny(raw, "%_"):
		return predicate.StringEquals, raw, nil
	default:
		return 0, "", sqlErrorf(0, "unsupported LIKE pattern %q", raw)
	}
}

func valueExprOf(e ast.ExprNode) (*driver.ValueExpr, error) {
	v, ok := unwrapParens(e).(*driver.ValueExpr)
	if !ok {
		return nil, sqlErrorf(0, "expected a literal value")
	}
	return v, nil
}

func literalString(e ast.ExprNode) (string, error) {
	v, err := valueExprOf(e)
	if err != nil {
		return "", err
	}
	return v.GetString(), nil
}

func literalBool(e ast.ExprNode) (bool, error) {
	v, err := valueExprOf(e)
	if err != nil {
		return false, err
	}
	return v.GetInt64() != 0, nil
}

func literalUint64(e ast.ExprNode) (uint64, error) {
	v, err := valueExprOf(e)
	if err != nil {
		return 0, err
	}
	return uint64(v.GetInt64()), nil
}

// literalScalar boxes a literal ast.ExprNode the same way frontend/expr's
// boxLiteral does, dispatching on the target column's logical kind rather
// than the literal's own parsed kind so e.g. an integer literal compared
// against a Float64 column widens correctly.
func (b *builder) literalScalar(e ast.ExprNode, typ schema.LogicalType) (zonemap.Scalar, error) {
	v, err := valueExprOf(e)
	if err != nil {
		return zonemap.Scalar{}, err
	}
	switch typ.Kind {
	case schema.Int8, schema.Int16, schema.Int32, schema.Int64, schema.Date32, schema.Timestamp:
		return zonemap.Int(v.GetInt64()), nil
	case schema.UInt8, schema.UInt16, schema.UInt32, schema.UInt64:
		return zonemap.Uint(v.GetUint64()), nil
	case schema.Float32, schema.Float64, schema.Decimal128:
		return zonemap.Float(v.GetFloat64()), nil
	case schema.Bool:
		return zonemap.Bool(v.GetInt64() != 0), nil
	case schema.Utf8String, schema.Binary:
		return zonemap.Str(v.GetString()), nil
	default:
		return zonemap.Scalar{}, sqlErrorf(0, "unsupported literal target type")
	}
}

func sqlErrorf(pos int, format string, args ...any) *qerrors.Error {
	return &qerrors.Error{Kind: qerrors.SqlParseError, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
