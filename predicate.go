package jniscan

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"
)

// RangeKind tags the concrete value type of a ColumnValueRange.
type RangeKind uint8

const (
	RangeInt64 RangeKind = iota
	RangeFloat64
	RangeString
	RangeBool
)

// ColumnValueRange is the engine's per-column value-range filter, a
// tagged variant over the concrete value types the pushdown layer
// supports. Bounds are optional on either side.
type ColumnValueRange struct {
	Kind RangeKind

	HasLow, HasHigh             bool
	LowInclusive, HighInclusive bool

	LowInt, HighInt       int64
	LowFloat, HighFloat   float64
	LowString, HighString string
	LowBool, HighBool     bool
}

const predicateVersion = 1

// serializePredicates encodes all column ranges into one contiguous
// buffer. The byte layout is a private contract with the scanner-side
// parser; this side treats it as opaque and only guarantees the buffer's
// address stays valid and unchanged for the whole session. Columns are
// encoded in sorted name order so the output is deterministic.
//
// An empty range map produces no buffer at all.
func serializePredicates(ranges map[string]ColumnValueRange) []byte {
	if len(ranges) == 0 {
		return nil
	}

	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte(predicateVersion)
	writeUint32(&buf, uint32(len(names)))
	for _, name := range names {
		r := ranges[name]
		writeString(&buf, name)
		buf.WriteByte(byte(r.Kind))
		buf.WriteByte(rangeFlags(r))
		if r.HasLow {
			writeBound(&buf, r, r.LowInt, r.LowFloat, r.LowString, r.LowBool)
		}
		if r.HasHigh {
			writeBound(&buf, r, r.HighInt, r.HighFloat, r.HighString, r.HighBool)
		}
	}
	return buf.Bytes()
}

func rangeFlags(r ColumnValueRange) byte {
	var f byte
	if r.HasLow {
		f |= 1 << 0
	}
	if r.HasHigh {
		f |= 1 << 1
	}
	if r.LowInclusive {
		f |= 1 << 2
	}
	if r.HighInclusive {
		f |= 1 << 3
	}
	return f
}

func writeBound(buf *bytes.Buffer, r ColumnValueRange, iv int64, fv float64, sv string, bv bool) {
	switch r.Kind {
	case RangeInt64:
		writeUint64(buf, uint64(iv))
	case RangeFloat64:
		writeUint64(buf, math.Float64bits(fv))
	case RangeString:
		writeString(buf, sv)
	case RangeBool:
		if bv {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
