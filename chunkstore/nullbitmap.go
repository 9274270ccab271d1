package chunkstore

// NullBitmap is an Arrow-convention LSB-first packed validity bitmap: bit i
// of byte i/8 is 1 when row i is valid (non-null). A nil *NullBitmap means
// "no nulls in this column" and callers must treat every row as valid.
type NullBitmap struct {
	bytes []byte
	len   int // number of rows this bitmap covers
}

// NewNullBitmap wraps a caller-supplied packed byte slice. The slice length
// must equal ceil(len/8); this is enforced by NewChunk, not here, since a
// standalone NullBitmap may be built incrementally by ingestion code (out of
// scope for this package) before a Chunk is frozen around it.
func NewNullBitmap(bytes []byte, len int) *NullBitmap {
	return &NullBitmap{bytes: bytes, len: len}
}

// NewAllValidNullBitmap is a convenience that allocates a bitmap with every
// bit set, used by tests and by the materializer when it needs to hand a
// freshly-built column a "no nulls" bitmap explicitly rather than nil.
func NewAllValidNullBitmap(n int) *NullBitmap {
	b := make([]byte, (n+7)/8)
	for i := range b {
		b[i] = 0xFF
	}
	nb := &NullBitmap{bytes: b, len: n}
	nb.maskTail()
	return nb
}

func (nb *NullBitmap) maskTail() {
	if nb.len%8 == 0 {
		return
	}
	last := len(nb.bytes) - 1
	valid := nb.len % 8
	nb.bytes[last] &= byte(1<<uint(valid)) - 1
}

// Bytes returns the packed byte slice. Callers must not mutate it.
func (nb *NullBitmap) Bytes() []byte { return nb.bytes }

// Len returns the number of rows covered.
func (nb *NullBitmap) Len() int { return nb.len }

// IsValid reports whether row i is non-null.
func (nb *NullBitmap) IsValid(i int) bool {
	if nb == nil {
		return true
	}
	return nb.bytes[i>>3]&(1<<uint(i&7)) != 0
}

// NullCount counts unset bits up to Len by testing each row with IsValid; used
// at build time for zone-map null counts, not on the predicate hot path.
func (nb *NullBitmap) NullCount() int {
	if nb == nil {
		return 0
	}
	valid := 0
	for i := 0; i < nb.len; i++ {
		if nb.IsValid(i) {
			valid++
		}
	}
	return nb.len - valid
}
