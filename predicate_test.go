package jniscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializePredicatesEmpty(t *testing.T) {
	assert.Nil(t, serializePredicates(nil))
	assert.Nil(t, serializePredicates(map[string]ColumnValueRange{}))
}

func TestSerializePredicatesDeterministic(t *testing.T) {
	ranges := map[string]ColumnValueRange{
		"b": {Kind: RangeInt64, HasLow: true, LowInt: 1},
		"a": {Kind: RangeString, HasHigh: true, HighString: "zzz"},
		"c": {Kind: RangeFloat64, HasLow: true, HasHigh: true, LowFloat: 0.5, HighFloat: 9.5},
	}

	first := serializePredicates(ranges)
	require.NotEmpty(t, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, serializePredicates(ranges))
	}
}

func TestSerializePredicatesLayout(t *testing.T) {
	buf := serializePredicates(map[string]ColumnValueRange{
		"id": {Kind: RangeInt64, HasLow: true, HasHigh: true, LowInclusive: true, LowInt: 10, HighInt: 20},
	})
	require.NotEmpty(t, buf)

	// version, count, name, kind, flags, two 8-byte bounds
	assert.Equal(t, byte(predicateVersion), buf[0])
	wantLen := 1 + 4 + (4 + 2) + 1 + 1 + 8 + 8
	assert.Len(t, buf, wantLen)
}

func TestSerializePredicatesBoundsOnlyWhenPresent(t *testing.T) {
	low := serializePredicates(map[string]ColumnValueRange{
		"x": {Kind: RangeInt64, HasLow: true, LowInt: 1},
	})
	both := serializePredicates(map[string]ColumnValueRange{
		"x": {Kind: RangeInt64, HasLow: true, HasHigh: true, LowInt: 1, HighInt: 2},
	})
	assert.Equal(t, len(low)+8, len(both))
}

func TestSerializePredicatesKinds(t *testing.T) {
	ranges := map[string]ColumnValueRange{
		"s": {Kind: RangeString, HasLow: true, LowString: "abc"},
		"f": {Kind: RangeFloat64, HasLow: true, LowFloat: 2.25},
		"b": {Kind: RangeBool, HasLow: true, LowBool: true},
	}
	buf := serializePredicates(ranges)
	require.NotEmpty(t, buf)
}
