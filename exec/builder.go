package exec

import (
	"qcore/chunkstore"
	"qcore/schema"
	"qcore/zonemap"
)

// columnBuilder accumulates rows into a fresh, contiguous output
// ColumnBuffer, pre-reserving capacity up front (spec.md §4.5:
// "typed-builder, pre-reserved capacity, preserves null bitmap"). One
// builder is instantiated per output column by newBuilder, dispatching on
// the source buffer's concrete type exactly like predicate's numeric
// kernel and zonemap's walkColumn. appendFrom copies a row straight out of
// an existing chunk column (the Filter/Project/ORDER BY path); appendScalar
// appends a boxed value with no source buffer (the Aggregate/GroupBy
// path, whose rows are computed, not copied).
type columnBuilder interface {
	appendFrom(src chunkstore.ColumnBuffer, row int)
	appendScalar(v zonemap.Scalar, valid bool)
	build() chunkstore.ColumnBuffer
}

func newBuilder(proto chunkstore.ColumnBuffer, capacityHint int) columnBuilder {
	switch proto.(type) {
	case *chunkstore.FixedWidthBuffer[int8]:
		return newFixedBuilder[int8](proto.Type(), capacityHint)
	case *chunkstore.FixedWidthBuffer[int16]:
		return newFixedBuilder[int16](proto.Type(), capacityHint)
	case *chunkstore.FixedWidthBuffer[int32]:
		return newFixedBuilder[int32](proto.Type(), capacityHint)
	case *chunkstore.FixedWidthBuffer[int64]:
		return newFixedBuilder[int64](proto.Type(), capacityHint)
	case *chunkstore.FixedWidthBuffer[uint8]:
		return newFixedBuilder[uint8](proto.Type(), capacityHint)
	case *chunkstore.FixedWidthBuffer[uint16]:
		return newFixedBuilder[uint16](proto.Type(), capacityHint)
	case *chunkstore.FixedWidthBuffer[uint32]:
		return newFixedBuilder[uint32](proto.Type(), capacityHint)
	case *chunkstore.FixedWidthBuffer[uint64]:
		return newFixedBuilder[uint64](proto.Type(), capacityHint)
	case *chunkstore.FixedWidthBuffer[float32]:
		return newFixedBuilder[float32](proto.Type(), capacityHint)
	case *chunkstore.FixedWidthBuffer[float64]:
		return newFixedBuilder[float64](proto.Type(), capacityHint)
	case *chunkstore.VarLenBuffer:
		return newVarLenBuilder(proto.Type(), capacityHint)
	case *chunkstore.BoolBuffer:
		return newBoolBuilder(capacityHint)
	default:
		panic("exec: unsupported column buffer type in materializer")
	}
}

// fixedBuilder is the generic, monomorphized-per-type accumulator for
// fixed-width columns.
type fixedBuilder[T chunkstore.Numeric] struct {
	values   []T
	valid    []bool
	anyNull  bool
	typ      schema.LogicalType
}

func newFixedBuilder[T chunkstore.Numeric](typ schema.LogicalType, capacityHint int) *fixedBuilder[T] {
	return &fixedBuilder[T]{
		values: make([]T, 0, capacityHint),
		valid:  make([]bool, 0, capacityHint),
		typ:    typ,
	}
}

func (b *fixedBuilder[T]) appendFrom(src chunkstore.ColumnBuffer, row int) {
	sb := src.(*chunkstore.FixedWidthBuffer[T])
	nb := sb.Nulls()
	ok := nb == nil || nb.IsValid(row)
	if !ok {
		b.anyNull = true
		var zero T
		b.values = append(b.values, zero)
		b.valid = append(b.valid, false)
		return
	}
	b.values = append(b.values, sb.Values[row])
	b.valid = append(b.valid, true)
}

// appendScalar converts v to T exactly, dispatching on the builder's own
// logical kind rather than Go's static type T: v.I64/U64/F64 already hold
// the value in the representation matching typ.Kind, so converting through
// that field (rather than through AsFloat64, which loses precision above
// 2^53) keeps integer MIN/MAX exact.
func (b *fixedBuilder[T]) appendScalar(v zonemap.Scalar, valid bool) {
	if !valid {
		b.anyNull = true
		var zero T
		b.values = append(b.values, zero)
		b.valid = append(b.valid, false)
		return
	}
	var out T
	switch b.typ.Kind {
	case schema.Int8, schema.Int16, schema.Int32, schema.Int64, schema.Date32, schema.Timestamp:
		out = T(v.I64)
	case schema.UInt8, schema.UInt16, schema.UInt32, schema.UInt64:
		out = T(v.U64)
	default:
		out = T(v.F64)
	}
	b.values = append(b.values, out)
	b.valid = append(b.valid, true)
}

func (b *fixedBuilder[T]) build() chunkstore.ColumnBuffer {
	return chunkstore.NewFixedWidthBuffer(b.values, packValid(b.valid, b.anyNull), b.typ)
}

// varLenBuilder accumulates Utf8String/Binary rows into a fresh
// offsets+data buffer.
type varLenBuilder struct {
	offsets []int32
	data    []byte
	valid   []bool
	anyNull bool
	typ     schema.LogicalType
}

func newVarLenBuilder(typ schema.LogicalType, capacityHint int) *varLenBuilder {
	return &varLenBuilder{
		offsets: append(make([]int32, 0, capacityHint+1), 0),
		data:    make([]byte, 0, capacityHint*16),
		typ:     typ,
	}
}

func (b *varLenBuilder) appendFrom(src chunkstore.ColumnBuffer, row int) {
	sb := src.(*chunkstore.VarLenBuffer)
	nb := sb.Nulls()
	ok := nb == nil || nb.IsValid(row)
	if !ok {
		b.anyNull = true
		b.valid = append(b.valid, false)
		b.offsets = append(b.offsets, int32(len(b.data)))
		return
	}
	b.data = append(b.data, sb.Value(row)...)
	b.valid = append(b.valid, true)
	b.offsets = append(b.offsets, int32(len(b.data)))
}

func (b *varLenBuilder) appendScalar(v zonemap.Scalar, valid bool) {
	if !valid {
		b.anyNull = true
		b.valid = append(b.valid, false)
		b.offsets = append(b.offsets, int32(len(b.data)))
		return
	}
	b.data = append(b.data, v.Bytes...)
	b.valid = append(b.valid, true)
	b.offsets = append(b.offsets, int32(len(b.data)))
}

func (b *varLenBuilder) build() chunkstore.ColumnBuffer {
	buf, err := chunkstore.NewVarLenBuffer(b.offsets, b.data, packValid(b.valid, b.anyNull), b.typ)
	if err != nil {
		// appendFrom only ever grows offsets monotonically from a
		// monotonically-growing len(data); this would mean that
		// invariant broke.
		panic(err)
	}
	return buf
}

// boolBuilder accumulates boolean rows, reusing chunkstore.NullBitmap's
// packed-bit layout for the value bits themselves (spec.md §4.2: booleans
// extract bits directly rather than unpacking to a byte slice).
type boolBuilder struct {
	valueBits []byte
	validBits []byte
	n         int
	anyNull   bool
}

func newBoolBuilder(capacityHint int) *boolBuilder {
	return &boolBuilder{
		valueBits: make([]byte, 0, (capacityHint+7)/8),
		validBits: make([]byte, 0, (capacityHint+7)/8),
	}
}

func (b *boolBuilder) appendFrom(src chunkstore.ColumnBuffer, row int) {
	sb := src.(*chunkstore.BoolBuffer)
	nb := sb.Nulls()
	valid := nb == nil || nb.IsValid(row)
	if !valid {
		b.anyNull = true
	}
	b.setBit(&b.validBits, b.n, valid)
	if valid {
		b.setBit(&b.valueBits, b.n, sb.Get(row))
	}
	b.n++
}

func (b *boolBuilder) appendScalar(v zonemap.Scalar, valid bool) {
	if !valid {
		b.anyNull = true
	}
	b.setBit(&b.validBits, b.n, valid)
	if valid {
		b.setBit(&b.valueBits, b.n, v.Bool)
	}
	b.n++
}

func (b *boolBuilder) setBit(bits *[]byte, i int, v bool) {
	byteIdx := i / 8
	for byteIdx >= len(*bits) {
		*bits = append(*bits, 0)
	}
	if v {
		(*bits)[byteIdx] |= 1 << uint(i%8)
	}
}

func (b *boolBuilder) build() chunkstore.ColumnBuffer {
	want := (b.n + 7) / 8
	for len(b.valueBits) < want {
		b.valueBits = append(b.valueBits, 0)
	}
	values := chunkstore.NewNullBitmap(b.valueBits, b.n)
	var valid *chunkstore.NullBitmap
	if b.anyNull {
		valid = chunkstore.NewNullBitmap(b.validBits, b.n)
	}
	return chunkstore.NewBoolBuffer(values, valid, b.n)
}

// packValid converts a per-row validity slice into the Arrow-convention
// NullBitmap NewChunk expects, or nil when every row was valid (spec.md
// §3: "an optional null bitmap ... absent when null count is zero").
func packValid(valid []bool, anyNull bool) *chunkstore.NullBitmap {
	if !anyNull {
		return nil
	}
	bytes := make([]byte, (len(valid)+7)/8)
	for i, v := range valid {
		if v {
			bytes[i/8] |= 1 << uint(i%8)
		}
	}
	return chunkstore.NewNullBitmap(bytes, len(valid))
}
