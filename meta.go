package jniscan

import (
	"unsafe"
)

// metaWordSize is the size of one metadata stream word. The scanner side
// writes native-word-sized values (addresses and counts).
const metaWordSize = unsafe.Sizeof(uintptr(0))

// MetaCursor walks the flat batch metadata stream published by the
// scanner: [row_count, (null_map_ptr, type-specific ptrs...) per column]
// in schema order. The stream is foreign-owned and only borrowed for the
// duration of one fetch; the cursor never copies or re-parses it.
//
// The stream carries no length prefix, so the cursor is created with the
// exact word count the schema implies. Reading past that budget is a
// protocol error, which turns a misaligned decode into an immediate
// failure instead of silently corrupting the columns that follow.
type MetaCursor struct {
	base  uintptr
	off   int // words consumed
	limit int // words available per the schema
}

// NewMetaCursor wraps the batch metadata at addr. limit is the total word
// count the schema defines for this batch, including the row-count word.
func NewMetaCursor(addr uintptr, limit int) *MetaCursor {
	return &MetaCursor{base: addr, limit: limit}
}

// NextPointer returns the next word reinterpreted as an address and
// advances the cursor.
func (m *MetaCursor) NextPointer() (uintptr, error) {
	w, err := m.next()
	return uintptr(w), err
}

// NextInt returns the next word as a signed integer and advances the
// cursor.
func (m *MetaCursor) NextInt() (int64, error) {
	w, err := m.next()
	return int64(w), err
}

// Remaining returns how many words of the schema's budget are unread.
func (m *MetaCursor) Remaining() int {
	return m.limit - m.off
}

func (m *MetaCursor) next() (uint64, error) {
	if m.off >= m.limit {
		return 0, Errorf(ErrProtocol,
			"metadata cursor overrun: schema defines %d words", m.limit)
	}
	w := *(*uintptr)(unsafe.Pointer(m.base + uintptr(m.off)*metaWordSize))
	m.off++
	return uint64(w), nil
}
