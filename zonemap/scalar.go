package zonemap

import (
	"cmp"
	"fmt"
	"math"
)

// Scalar is a boxed column value used for zone-map min/max bounds and for
// predicate operands. Exactly one of the typed fields is meaningful,
// selected by Kind mirroring the owning column's schema.LogicalType.Kind.
type Scalar struct {
	Kind  ScalarKind
	I64   int64
	U64   uint64
	F64   float64
	Bool  bool
	Bytes []byte // Utf8String/Binary
}

type ScalarKind uint8

const (
	KindInt ScalarKind = iota
	KindUint
	KindFloat
	KindBool
	KindBytes
)

func Int(v int64) Scalar     { return Scalar{Kind: KindInt, I64: v} }
func Uint(v uint64) Scalar   { return Scalar{Kind: KindUint, U64: v} }
func Float(v float64) Scalar { return Scalar{Kind: KindFloat, F64: v} }
func Bool(v bool) Scalar     { return Scalar{Kind: KindBool, Bool: v} }
func Str(v string) Scalar    { return Scalar{Kind: KindBytes, Bytes: []byte(v)} }
func Bin(v []byte) Scalar    { return Scalar{Kind: KindBytes, Bytes: v} }

// AsFloat64 returns a float64 view of the scalar for uniform numeric
// comparison under the column type's total order (zone maps only compare
// same-kind scalars, so this never mixes kinds).
func (s Scalar) AsFloat64() float64 {
	switch s.Kind {
	case KindInt:
		return float64(s.I64)
	case KindUint:
		return float64(s.U64)
	case KindFloat:
		return s.F64
	case KindBool:
		if s.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// RawKey returns the bloom-filter membership key for this scalar, matching
// the encoding walkColumn uses when populating a column's filter at build
// time: for KindBytes the raw bytes themselves, otherwise a tagged encoding
// of the value's bit pattern so two scalars collide in the filter iff they
// are identical.
func (s Scalar) RawKey() string {
	switch s.Kind {
	case KindInt:
		return fmt.Sprintf("i:%d", s.I64)
	case KindUint:
		return fmt.Sprintf("u:%d", s.U64)
	case KindFloat:
		return fmt.Sprintf("f:%d", math.Float64bits(s.F64))
	case KindBool:
		if s.Bool {
			return "b:1"
		}
		return "b:0"
	default:
		return string(s.Bytes)
	}
}

// Compare returns -1, 0, 1 for a<b, a==b, a>b under the column type's total
// order. Bytes compare lexicographically; other kinds compare numerically.
func Compare(a, b Scalar) int {
	if a.Kind == KindBytes || b.Kind == KindBytes {
		switch {
		case string(a.Bytes) < string(b.Bytes):
			return -1
		case string(a.Bytes) > string(b.Bytes):
			return 1
		default:
			return 0
		}
	}
	if a.Kind == b.Kind {
		switch a.Kind {
		case KindInt:
			return cmp.Compare(a.I64, b.I64)
		case KindUint:
			return cmp.Compare(a.U64, b.U64)
		}
	}
	af, bf := a.AsFloat64(), b.AsFloat64()
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}
