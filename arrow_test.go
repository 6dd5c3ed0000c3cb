package jniscan

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToArrowRecord(t *testing.T) {
	idCol := NewColumn(TypeDesc{ID: TypeBigInt}, true)
	idCol.int64Data = []int64{1, 2, 3}
	idCol.nulls = []uint8{0, 1, 0}
	idCol.rows = 3

	nameCol := NewColumn(TypeDesc{ID: TypeString}, false)
	nameCol.stringData = []string{"a", "b", "c"}
	nameCol.rows = 3

	rec, err := ToArrowRecord(nil, []string{"id", "name"}, []*Column{idCol, nameCol})
	require.NoError(t, err)
	defer rec.Release()

	assert.EqualValues(t, 3, rec.NumRows())
	assert.EqualValues(t, 2, rec.NumCols())
	assert.Equal(t, arrow.PrimitiveTypes.Int64, rec.Schema().Field(0).Type)
	assert.True(t, rec.Schema().Field(0).Nullable)
	assert.False(t, rec.Schema().Field(1).Nullable)

	ids := rec.Column(0).(*array.Int64)
	assert.Equal(t, int64(1), ids.Value(0))
	assert.True(t, ids.IsNull(1))
	assert.Equal(t, int64(3), ids.Value(2))

	names := rec.Column(1).(*array.String)
	assert.Equal(t, "b", names.Value(1))
}

func TestToArrowRecordDecimal128(t *testing.T) {
	col := NewColumn(TypeDesc{ID: TypeDecimal128, Precision: 38, Scale: 6}, false)
	col.int128Data = []Int128{{Lo: 123456, Hi: 0}}
	col.rows = 1

	rec, err := ToArrowRecord(nil, []string{"amount"}, []*Column{col})
	require.NoError(t, err)
	defer rec.Release()

	dt, ok := rec.Schema().Field(0).Type.(*arrow.Decimal128Type)
	require.True(t, ok)
	assert.EqualValues(t, 38, dt.Precision)
	assert.EqualValues(t, 6, dt.Scale)
}

func TestToArrowRecordRowMismatch(t *testing.T) {
	a := NewColumn(TypeDesc{ID: TypeInt}, false)
	a.int32Data = []int32{1}
	a.rows = 1
	b := NewColumn(TypeDesc{ID: TypeInt}, false)
	b.int32Data = []int32{1, 2}
	b.rows = 2

	_, err := ToArrowRecord(nil, []string{"a", "b"}, []*Column{a, b})
	require.Error(t, err)
}

func TestToArrowRecordUnsupported(t *testing.T) {
	col := NewColumn(TypeDesc{ID: TypeBinary}, false)
	_, err := ToArrowRecord(nil, []string{"blob"}, []*Column{col})
	require.Error(t, err)
	assert.True(t, IsError(err, ErrUnsupportedType))
}
