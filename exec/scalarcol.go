package exec

import (
	"fmt"

	"qcore/chunkstore"
	"qcore/schema"
	"qcore/zonemap"
)

// scalarColumn materializes a single boxed aggregate result into a length-1
// ColumnBuffer of typ, so an Aggregate/GroupBy result flows through the same
// columnar representation as every other stage rather than needing a
// separate scalar-result type.
func scalarColumn(typ schema.LogicalType, v zonemap.Scalar, valid bool) chunkstore.ColumnBuffer {
	var nb *chunkstore.NullBitmap
	if !valid {
		nb = chunkstore.NewNullBitmap([]byte{0}, 1)
	}
	switch typ.Kind {
	case schema.Int8:
		return chunkstore.NewFixedWidthBuffer([]int8{int8(v.I64)}, nb, typ)
	case schema.Int16:
		return chunkstore.NewFixedWidthBuffer([]int16{int16(v.I64)}, nb, typ)
	case schema.Int32, schema.Date32:
		return chunkstore.NewFixedWidthBuffer([]int32{int32(v.I64)}, nb, typ)
	case schema.Int64, schema.Timestamp:
		return chunkstore.NewFixedWidthBuffer([]int64{v.I64}, nb, typ)
	case schema.UInt8:
		return chunkstore.NewFixedWidthBuffer([]uint8{uint8(v.U64)}, nb, typ)
	case schema.UInt16:
		return chunkstore.NewFixedWidthBuffer([]uint16{uint16(v.U64)}, nb, typ)
	case schema.UInt32:
		return chunkstore.NewFixedWidthBuffer([]uint32{uint32(v.U64)}, nb, typ)
	case schema.UInt64:
		return chunkstore.NewFixedWidthBuffer([]uint64{v.U64}, nb, typ)
	case schema.Float32:
		return chunkstore.NewFixedWidthBuffer([]float32{float32(v.F64)}, nb, typ)
	case schema.Float64, schema.Decimal128:
		return chunkstore.NewFixedWidthBuffer([]float64{v.F64}, nb, typ)
	case schema.Bool:
		bits := []byte{0}
		if v.Bool {
			bits[0] = 1
		}
		return chunkstore.NewBoolBuffer(chunkstore.NewNullBitmap(bits, 1), nb, 1)
	case schema.Utf8String, schema.Binary:
		buf, err := chunkstore.NewVarLenBuffer([]int32{0, int32(len(v.Bytes))}, v.Bytes, nb, typ)
		if err != nil {
			panic(err)
		}
		return buf
	default:
		panic(fmt.Sprintf("exec: unsupported scalar column type %v", typ))
	}
}
