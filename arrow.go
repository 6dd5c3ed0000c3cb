package jniscan

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ToArrowRecord converts materialized columns into an Arrow record for
// downstream consumers. Values are carried over raw: decimals keep their
// integer backing except decimal128 which maps to Arrow's decimal type,
// and date/datetime keep their packed encodings as unsigned integers.
// Columns must all hold the same row count. mem may be nil, in which case
// the default Go allocator is used.
func ToArrowRecord(mem memory.Allocator, names []string, cols []*Column) (arrow.Record, error) {
	if len(names) != len(cols) {
		return nil, Errorf(ErrGeneric, "got %d names for %d columns", len(names), len(cols))
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	rows := 0
	if len(cols) > 0 {
		rows = cols[0].Rows()
	}

	fields := make([]arrow.Field, len(cols))
	arrays := make([]arrow.Array, len(cols))
	release := func(n int) {
		for i := 0; i < n; i++ {
			arrays[i].Release()
		}
	}

	for i, col := range cols {
		if col.Rows() != rows {
			release(i)
			return nil, Errorf(ErrGeneric,
				"column %s has %d rows, expected %d", names[i], col.Rows(), rows)
		}
		dt, err := arrowType(col.Type())
		if err != nil {
			release(i)
			return nil, err
		}
		arr, err := buildArrowArray(mem, col, dt)
		if err != nil {
			release(i)
			return nil, err
		}
		fields[i] = arrow.Field{Name: names[i], Type: dt, Nullable: col.Nullable()}
		arrays[i] = arr
	}

	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, arrays, int64(rows))
	release(len(arrays))
	return rec, nil
}

func arrowType(desc TypeDesc) (arrow.DataType, error) {
	switch desc.ID {
	case TypeBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case TypeTinyInt:
		return arrow.PrimitiveTypes.Int8, nil
	case TypeSmallInt:
		return arrow.PrimitiveTypes.Int16, nil
	case TypeInt, TypeDecimal32:
		return arrow.PrimitiveTypes.Int32, nil
	case TypeBigInt, TypeDecimal64, TypeDecimalV2:
		return arrow.PrimitiveTypes.Int64, nil
	case TypeUTinyInt:
		return arrow.PrimitiveTypes.Uint8, nil
	case TypeUSmallInt:
		return arrow.PrimitiveTypes.Uint16, nil
	case TypeUInt, TypeDateV2:
		return arrow.PrimitiveTypes.Uint32, nil
	case TypeUBigInt, TypeDateTimeV2:
		return arrow.PrimitiveTypes.Uint64, nil
	case TypeFloat:
		return arrow.PrimitiveTypes.Float32, nil
	case TypeDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case TypeVarchar, TypeChar, TypeString:
		return arrow.BinaryTypes.String, nil
	case TypeDecimal128:
		return &arrow.Decimal128Type{
			Precision: int32(desc.Precision),
			Scale:     int32(desc.Scale),
		}, nil
	default:
		return nil, Errorf(ErrUnsupportedType,
			"no arrow mapping for type %s", desc.ID)
	}
}

func buildArrowArray(mem memory.Allocator, col *Column, dt arrow.DataType) (arrow.Array, error) {
	rows := col.Rows()
	bldr := array.NewBuilder(mem, dt)
	defer bldr.Release()
	bldr.Reserve(rows)

	appendRow := func(b array.Builder, i int) {
		switch tb := b.(type) {
		case *array.BooleanBuilder:
			tb.Append(col.boolData[i])
		case *array.Int8Builder:
			tb.Append(col.int8Data[i])
		case *array.Int16Builder:
			tb.Append(col.int16Data[i])
		case *array.Int32Builder:
			tb.Append(col.int32Data[i])
		case *array.Int64Builder:
			tb.Append(col.int64Data[i])
		case *array.Uint8Builder:
			tb.Append(col.uint8Data[i])
		case *array.Uint16Builder:
			tb.Append(col.uint16Data[i])
		case *array.Uint32Builder:
			tb.Append(col.uint32Data[i])
		case *array.Uint64Builder:
			tb.Append(col.uint64Data[i])
		case *array.Float32Builder:
			tb.Append(col.float32Data[i])
		case *array.Float64Builder:
			tb.Append(col.float64Data[i])
		case *array.StringBuilder:
			tb.Append(col.stringData[i])
		case *array.Decimal128Builder:
			v := col.int128Data[i]
			tb.Append(decimal128.New(v.Hi, v.Lo))
		}
	}

	for i := 0; i < rows; i++ {
		if col.IsNull(i) {
			bldr.AppendNull()
			continue
		}
		appendRow(bldr, i)
	}
	return bldr.NewArray(), nil
}
