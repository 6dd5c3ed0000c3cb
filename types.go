package jniscan

import (
	"strconv"
	"strings"
)

// TypeID identifies a logical column type carried across the bridge.
type TypeID int

const (
	TypeUnknown TypeID = iota
	TypeBoolean
	TypeTinyInt
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeUTinyInt
	TypeUSmallInt
	TypeUInt
	TypeUBigInt
	TypeFloat
	TypeDouble
	TypeVarchar
	TypeChar
	TypeString
	TypeBinary
	TypeDate
	TypeDateV2
	TypeDateTime
	TypeDateTimeV2
	TypeTime
	TypeTimeV2
	TypeDecimalV2
	TypeDecimal32
	TypeDecimal64
	TypeDecimal128
	TypeStruct
	TypeArray
	TypeMap
)

var typeNames = map[TypeID]string{
	TypeUnknown:    "UNKNOWN",
	TypeBoolean:    "BOOLEAN",
	TypeTinyInt:    "TINYINT",
	TypeSmallInt:   "SMALLINT",
	TypeInt:        "INT",
	TypeBigInt:     "BIGINT",
	TypeUTinyInt:   "UNSIGNED_TINYINT",
	TypeUSmallInt:  "UNSIGNED_SMALLINT",
	TypeUInt:       "UNSIGNED_INT",
	TypeUBigInt:    "UNSIGNED_BIGINT",
	TypeFloat:      "FLOAT",
	TypeDouble:     "DOUBLE",
	TypeVarchar:    "VARCHAR",
	TypeChar:       "CHAR",
	TypeString:     "STRING",
	TypeBinary:     "BINARY",
	TypeDate:       "DATE",
	TypeDateV2:     "DATEV2",
	TypeDateTime:   "DATETIME",
	TypeDateTimeV2: "DATETIMEV2",
	TypeTime:       "TIME",
	TypeTimeV2:     "TIMEV2",
	TypeDecimalV2:  "DECIMALV2",
	TypeDecimal32:  "DECIMAL32",
	TypeDecimal64:  "DECIMAL64",
	TypeDecimal128: "DECIMAL128",
	TypeStruct:     "STRUCT",
	TypeArray:      "ARRAY",
	TypeMap:        "MAP",
}

// String returns the logical type name used in error messages.
func (t TypeID) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// DecimalV2 columns always carry this fixed precision and scale.
const (
	DecimalV2Precision = 27
	DecimalV2Scale     = 9
)

// TypeDesc describes one column's logical type, including any type
// parameters and child types for composite types.
type TypeDesc struct {
	ID        TypeID
	Len       int // varchar/char length
	Precision int
	Scale     int
	// Composite children. For structs FieldNames holds one name per child;
	// arrays have one child, maps have two (key, value).
	FieldNames []string
	Children   []TypeDesc
}

// Name returns the canonical scanner-facing type name used during schema
// negotiation. It is a pure mapping with no failure mode: types with no
// scanner-side equivalent render as "unsupported".
func (d TypeDesc) Name() string {
	switch d.ID {
	case TypeBoolean:
		return "boolean"
	case TypeTinyInt:
		return "tinyint"
	case TypeSmallInt:
		return "smallint"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeVarchar:
		return "varchar(" + itoa(d.Len) + ")"
	case TypeChar:
		return "char(" + itoa(d.Len) + ")"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeDate, TypeDateV2:
		return "date"
	case TypeDateTime, TypeDateTimeV2, TypeTime, TypeTimeV2:
		return "timestamp"
	case TypeDecimalV2:
		return "decimalv2(" + itoa(DecimalV2Precision) + "," + itoa(DecimalV2Scale) + ")"
	case TypeDecimal32:
		return "decimal32(" + itoa(d.Precision) + "," + itoa(d.Scale) + ")"
	case TypeDecimal64:
		return "decimal64(" + itoa(d.Precision) + "," + itoa(d.Scale) + ")"
	case TypeDecimal128:
		return "decimal128(" + itoa(d.Precision) + "," + itoa(d.Scale) + ")"
	case TypeStruct:
		var sb strings.Builder
		sb.WriteString("struct<")
		for i, c := range d.Children {
			if i != 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(d.FieldNames[i])
			sb.WriteByte(':')
			sb.WriteString(c.Name())
		}
		sb.WriteByte('>')
		return sb.String()
	case TypeArray:
		return "array<" + d.Children[0].Name() + ">"
	case TypeMap:
		return "map<" + d.Children[0].Name() + "," + d.Children[1].Name() + ">"
	default:
		return "unsupported"
	}
}

// metaWords returns how many metadata words one batch carries for this
// type after the null-map word: string columns carry an offsets pointer
// and a data pointer, everything else a single data pointer.
func (d TypeDesc) metaWords() int {
	switch d.ID {
	case TypeVarchar, TypeChar, TypeString:
		return 2
	default:
		return 1
	}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
