package chunkstore

import (
	"qcore/qerrors"
	"qcore/schema"
)

// ColumnBuffer is the storage for one column within one chunk: either a
// contiguous fixed-width value buffer or an offsets+data variable-length
// buffer. The physical planner and predicate kernels type-switch on the
// concrete type to pick a monomorphized leaf kernel (spec.md §9: "leaf
// kernels are monomorphized per column type").
type ColumnBuffer interface {
	Len() int
	Nulls() *NullBitmap
	Type() schema.LogicalType
}

// FixedWidthBuffer stores one Go primitive value per row, contiguous in
// memory. T is constrained to the primitive kinds the engine's LogicalType
// enumerates; the physical planner instantiates predicate kernels per
// concrete T so the hot loop never branches on type.
type FixedWidthBuffer[T Numeric] struct {
	Values []T
	Null   *NullBitmap
	Typ    schema.LogicalType
}

// Numeric is the set of Go primitive types a FixedWidthBuffer can store.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

func NewFixedWidthBuffer[T Numeric](values []T, null *NullBitmap, typ schema.LogicalType) *FixedWidthBuffer[T] {
	return &FixedWidthBuffer[T]{Values: values, Null: null, Typ: typ}
}

func (b *FixedWidthBuffer[T]) Len() int                 { return len(b.Values) }
func (b *FixedWidthBuffer[T]) Nulls() *NullBitmap       { return b.Null }
func (b *FixedWidthBuffer[T]) Type() schema.LogicalType { return b.Typ }

// VarLenBuffer stores variable-length values (strings/binary) as a
// monotonically non-decreasing offsets array of length len+1 plus a single
// contiguous data buffer, matching Arrow's var-length layout.
type VarLenBuffer struct {
	Offsets []int32
	Data    []byte
	Null    *NullBitmap
	Typ     schema.LogicalType
}

func NewVarLenBuffer(offsets []int32, data []byte, null *NullBitmap, typ schema.LogicalType) (*VarLenBuffer, error) {
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, qerrors.Corruptf("var-length column offsets are not monotonically non-decreasing at index %d", i)
		}
	}
	return &VarLenBuffer{Offsets: offsets, Data: data, Null: null, Typ: typ}, nil
}

func (b *VarLenBuffer) Len() int                 { return len(b.Offsets) - 1 }
func (b *VarLenBuffer) Nulls() *NullBitmap       { return b.Null }
func (b *VarLenBuffer) Type() schema.LogicalType { return b.Typ }

// Value returns the raw bytes for row i. Callers must not mutate the
// returned slice; it aliases the buffer's backing array.
func (b *VarLenBuffer) Value(i int) []byte {
	return b.Data[b.Offsets[i]:b.Offsets[i+1]]
}

// BoolBuffer stores one bit per row, packed LSB-first, matching the layout
// spec.md §4.2 calls for ("boolean: extract bits from the bool column's
// bitmap directly") so the boolean predicate kernel never unpacks to a byte
// slice.
type BoolBuffer struct {
	Values *NullBitmap // reused bit-packing layout; bit=1 means true
	Null   *NullBitmap
	N      int
}

func NewBoolBuffer(values *NullBitmap, null *NullBitmap, n int) *BoolBuffer {
	return &BoolBuffer{Values: values, Null: null, N: n}
}

func (b *BoolBuffer) Len() int                 { return b.N }
func (b *BoolBuffer) Nulls() *NullBitmap       { return b.Null }
func (b *BoolBuffer) Type() schema.LogicalType { return schema.NewBool() }

// Get returns the boolean value at row i, ignoring nullity.
func (b *BoolBuffer) Get(i int) bool { return b.Values.IsValid(i) }
