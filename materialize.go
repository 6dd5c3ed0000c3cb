package jniscan

import (
	"unsafe"
)

// fillColumn materializes one column's rows from the batch metadata
// cursor into col. Consumption order per column: the null-map pointer,
// then the type-specific payload pointers. A zero null-map pointer means
// the scanner side flagged the column's type as unsupported, which is
// fatal for the batch.
//
// On error the caller must not release the column; the batch-level
// release reclaims it once error reporting is done.
func fillColumn(cursor *MetaCursor, col *Column, rows int) error {
	nullMap, err := cursor.NextPointer()
	if err != nil {
		return err
	}
	if nullMap == 0 {
		return Errorf(ErrUnsupportedType,
			"unsupported type %s in foreign scanner", col.desc.ID)
	}
	if col.nullable {
		col.appendNulls(unsafe.Slice((*uint8)(unsafe.Pointer(nullMap)), rows))
	}

	switch col.desc.ID {
	case TypeBoolean:
		col.boolData, err = appendFixed(col.boolData, cursor, rows)
	case TypeTinyInt:
		col.int8Data, err = appendFixed(col.int8Data, cursor, rows)
	case TypeSmallInt:
		col.int16Data, err = appendFixed(col.int16Data, cursor, rows)
	case TypeInt, TypeDecimal32:
		col.int32Data, err = appendFixed(col.int32Data, cursor, rows)
	case TypeBigInt, TypeDecimal64, TypeDecimalV2:
		col.int64Data, err = appendFixed(col.int64Data, cursor, rows)
	case TypeUTinyInt:
		col.uint8Data, err = appendFixed(col.uint8Data, cursor, rows)
	case TypeUSmallInt:
		col.uint16Data, err = appendFixed(col.uint16Data, cursor, rows)
	case TypeUInt, TypeDateV2:
		col.uint32Data, err = appendFixed(col.uint32Data, cursor, rows)
	case TypeUBigInt, TypeDateTimeV2:
		col.uint64Data, err = appendFixed(col.uint64Data, cursor, rows)
	case TypeFloat:
		col.float32Data, err = appendFixed(col.float32Data, cursor, rows)
	case TypeDouble:
		col.float64Data, err = appendFixed(col.float64Data, cursor, rows)
	case TypeDecimal128:
		col.int128Data, err = appendFixed(col.int128Data, cursor, rows)
	case TypeVarchar, TypeChar, TypeString:
		err = fillStringColumn(cursor, col, rows)
	default:
		return Errorf(ErrUnsupportedType,
			"unsupported type %s in scanner bridge", col.desc.ID)
	}
	if err != nil {
		return err
	}
	col.rows += rows
	return nil
}

// appendFixed copies rows fixed-width elements from the scanner buffer at
// the cursor's next pointer into dst. The raw bytes are copied as-is:
// decimals keep their integer backing, date and datetime keep their
// packed encodings with no calendar or timezone conversion at this layer.
func appendFixed[T any](dst []T, cursor *MetaCursor, rows int) ([]T, error) {
	addr, err := cursor.NextPointer()
	if err != nil {
		return dst, err
	}
	src := unsafe.Slice((*T)(unsafe.Pointer(addr)), rows)
	return append(dst, src...), nil
}

// fillStringColumn decodes the two-pointer string layout: offsets[i] is
// the exclusive end byte of row i within the shared data buffer, row i
// starting where row i-1 ended. All views are built first, then inserted
// as one batch, so a decode failure never leaves a partial append.
func fillStringColumn(cursor *MetaCursor, col *Column, rows int) error {
	offsetsAddr, err := cursor.NextPointer()
	if err != nil {
		return err
	}
	dataAddr, err := cursor.NextPointer()
	if err != nil {
		return err
	}

	offsets := unsafe.Slice((*int32)(unsafe.Pointer(offsetsAddr)), rows)
	values := make([]string, rows)
	start := int32(0)
	for i := 0; i < rows; i++ {
		end := offsets[i]
		if end > start {
			// string() copies out of the borrowed scanner buffer
			values[i] = string(unsafe.Slice((*byte)(unsafe.Pointer(dataAddr+uintptr(start))), end-start))
		}
		start = end
	}
	col.stringData = append(col.stringData, values...)
	return nil
}
