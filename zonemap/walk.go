package zonemap

import (
	"fmt"

	"qcore/chunkstore"
	"qcore/schema"
)

// walkColumn visits every row of buf, converting its concrete stored value
// to a Scalar under the column's total order and to a raw string (used as
// the bloom filter's distinct-value key; this is Scalar.RawKey: a
// kind-tagged decimal of the value for integers, of the IEEE-754 bit
// pattern for floats, and the raw bytes for strings, so two values of one
// column collide in the bloom filter iff they are identical).
func walkColumn(buf chunkstore.ColumnBuffer, n int, visit func(i int, s Scalar, raw string)) {
	emit := func(i int, s Scalar) { visit(i, s, s.RawKey()) }
	switch b := buf.(type) {
	case *chunkstore.FixedWidthBuffer[int8]:
		for i := 0; i < n; i++ {
			emit(i, Int(int64(b.Values[i])))
		}
	case *chunkstore.FixedWidthBuffer[int16]:
		for i := 0; i < n; i++ {
			emit(i, Int(int64(b.Values[i])))
		}
	case *chunkstore.FixedWidthBuffer[int32]:
		for i := 0; i < n; i++ {
			emit(i, Int(int64(b.Values[i])))
		}
	case *chunkstore.FixedWidthBuffer[int64]:
		for i := 0; i < n; i++ {
			emit(i, Int(b.Values[i]))
		}
	case *chunkstore.FixedWidthBuffer[uint8]:
		for i := 0; i < n; i++ {
			emit(i, Uint(uint64(b.Values[i])))
		}
	case *chunkstore.FixedWidthBuffer[uint16]:
		for i := 0; i < n; i++ {
			emit(i, Uint(uint64(b.Values[i])))
		}
	case *chunkstore.FixedWidthBuffer[uint32]:
		for i := 0; i < n; i++ {
			emit(i, Uint(uint64(b.Values[i])))
		}
	case *chunkstore.FixedWidthBuffer[uint64]:
		for i := 0; i < n; i++ {
			emit(i, Uint(b.Values[i]))
		}
	case *chunkstore.FixedWidthBuffer[float32]:
		for i := 0; i < n; i++ {
			emit(i, Float(float64(b.Values[i])))
		}
	case *chunkstore.FixedWidthBuffer[float64]:
		for i := 0; i < n; i++ {
			emit(i, Float(b.Values[i]))
		}
	case *chunkstore.VarLenBuffer:
		for i := 0; i < n; i++ {
			emit(i, Bin(b.Value(i)))
		}
	case *chunkstore.BoolBuffer:
		for i := 0; i < n; i++ {
			emit(i, Bool(b.Get(i)))
		}
	default:
		panic(fmt.Sprintf("zonemap: unsupported column buffer type %T for logical type %v", buf, buf.Type()))
	}
}

// scalarKindFor maps a schema.LogicalType to the ScalarKind its values box
// to, used by predicate construction to validate operand/column compatibility
// before any row is evaluated.
func scalarKindFor(t schema.LogicalType) ScalarKind {
	switch t.Kind {
	case schema.Int8, schema.Int16, schema.Int32, schema.Int64, schema.Date32, schema.Timestamp:
		return KindInt
	case schema.UInt8, schema.UInt16, schema.UInt32, schema.UInt64:
		return KindUint
	case schema.Float32, schema.Float64, schema.Decimal128:
		return KindFloat
	case schema.Bool:
		return KindBool
	default:
		return KindBytes
	}
}

// ScalarKindFor is the exported form of scalarKindFor, used by the predicate
// package to validate a leaf predicate's operand against its column's type.
func ScalarKindFor(t schema.LogicalType) ScalarKind { return scalarKindFor(t) }
