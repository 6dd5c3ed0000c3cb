package jniscan

// Int128 is the raw backing storage for decimal128 values, laid out
// little-endian low word first to match the scanner-side byte layout.
type Int128 struct {
	Lo uint64
	Hi int64
}

// Column is an append-only native column buffer. One typed slice is active
// per column depending on the logical type; the null flags use one byte
// per row with nonzero meaning null, matching the bridge's bitmap layout.
//
// Append is the only mutation: rows already materialized are never
// altered. Callers must treat any materialization error as batch-fatal
// and discard the whole batch.
type Column struct {
	desc     TypeDesc
	nullable bool

	nulls []uint8

	boolData    []bool
	int8Data    []int8
	int16Data   []int16
	int32Data   []int32
	int64Data   []int64
	uint8Data   []uint8
	uint16Data  []uint16
	uint32Data  []uint32
	uint64Data  []uint64
	float32Data []float32
	float64Data []float64
	int128Data  []Int128
	stringData  []string

	rows int
}

// NewColumn creates an empty column for the given logical type.
func NewColumn(desc TypeDesc, nullable bool) *Column {
	return &Column{desc: desc, nullable: nullable}
}

// Type returns the column's logical type descriptor.
func (c *Column) Type() TypeDesc { return c.desc }

// Nullable reports whether the column stores per-row null flags.
func (c *Column) Nullable() bool { return c.nullable }

// Rows returns the number of materialized rows.
func (c *Column) Rows() int { return c.rows }

// Nulls returns the null-flag bytes, one per row, nonzero meaning null.
// Nil for non-nullable columns.
func (c *Column) Nulls() []uint8 { return c.nulls }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	return c.nullable && c.nulls[i] != 0
}

// Typed accessors over the active backing slice. Which one is populated
// follows from the logical type; the others stay nil.

func (c *Column) Bools() []bool       { return c.boolData }
func (c *Column) Int8s() []int8       { return c.int8Data }
func (c *Column) Int16s() []int16     { return c.int16Data }
func (c *Column) Int32s() []int32     { return c.int32Data }
func (c *Column) Int64s() []int64     { return c.int64Data }
func (c *Column) Uint8s() []uint8     { return c.uint8Data }
func (c *Column) Uint16s() []uint16   { return c.uint16Data }
func (c *Column) Uint32s() []uint32   { return c.uint32Data }
func (c *Column) Uint64s() []uint64   { return c.uint64Data }
func (c *Column) Float32s() []float32 { return c.float32Data }
func (c *Column) Float64s() []float64 { return c.float64Data }
func (c *Column) Int128s() []Int128   { return c.int128Data }
func (c *Column) Strings() []string   { return c.stringData }

// Value returns row i as a Go value, or nil when the row is null.
// Intended for row-at-a-time consumers like the dump tool; batch
// consumers should use the typed accessors.
func (c *Column) Value(i int) any {
	if c.IsNull(i) {
		return nil
	}
	switch c.desc.ID {
	case TypeBoolean:
		return c.boolData[i]
	case TypeTinyInt:
		return c.int8Data[i]
	case TypeSmallInt:
		return c.int16Data[i]
	case TypeInt, TypeDecimal32:
		return c.int32Data[i]
	case TypeBigInt, TypeDecimal64, TypeDecimalV2:
		return c.int64Data[i]
	case TypeUTinyInt:
		return c.uint8Data[i]
	case TypeUSmallInt:
		return c.uint16Data[i]
	case TypeUInt, TypeDateV2:
		return c.uint32Data[i]
	case TypeUBigInt, TypeDateTimeV2:
		return c.uint64Data[i]
	case TypeFloat:
		return c.float32Data[i]
	case TypeDouble:
		return c.float64Data[i]
	case TypeDecimal128:
		return c.int128Data[i]
	case TypeVarchar, TypeChar, TypeString:
		return c.stringData[i]
	default:
		return nil
	}
}

// appendNulls appends raw null-flag bytes copied from the scanner bitmap.
func (c *Column) appendNulls(flags []uint8) {
	c.nulls = append(c.nulls, flags...)
}
