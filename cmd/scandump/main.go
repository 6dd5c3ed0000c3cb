// Command scandump opens a JVM-hosted scanner through the jniscan bridge
// and dumps the scanned rows to stdout as CSV or JSON. It is mainly a
// debugging tool for scanner implementations.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vecstack/jniscan"
)

var (
	flagClass     string
	flagLibrary   string
	flagColumns   []string
	flagParams    []string
	flagIntRanges []string
	flagBatchSize int
	flagLimit     int64
	flagFormat    string
)

func main() {
	root := &cobra.Command{
		Use:   "scandump",
		Short: "Dump rows from a JVM-hosted scanner",
		Long: `scandump constructs a scanner inside the JVM bridge, runs the
open/fetch/close loop, and prints every row to stdout.

Columns are declared as name:type pairs, for example:

  scandump --class org/acme/hive/HiveJniScanner \
    --column id:bigint --column name:string --column price:'decimal64(10,2)' \
    --param uri=thrift://metastore:9083 --format csv`,
		RunE:          runDump,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.Flags().StringVar(&flagClass, "class", "", "scanner class name inside the foreign runtime (required)")
	root.Flags().StringVar(&flagLibrary, "library", "", "path to the bridge library (overrides auto-discovery)")
	root.Flags().StringArrayVar(&flagColumns, "column", nil, "column as name:type, repeatable, in schema order (required)")
	root.Flags().StringArrayVar(&flagParams, "param", nil, "scanner parameter as key=value, repeatable")
	root.Flags().StringArrayVar(&flagIntRanges, "int-range", nil, "pushdown filter as column,min,max (inclusive), repeatable")
	root.Flags().IntVar(&flagBatchSize, "batch-size", jniscan.DefaultBatchSize, "rows per batch")
	root.Flags().Int64Var(&flagLimit, "limit", 0, "stop after this many rows (0 = no limit)")
	root.Flags().StringVar(&flagFormat, "format", "csv", "output format: csv or json")
	_ = root.MarkFlagRequired("class")
	_ = root.MarkFlagRequired("column")

	if err := root.Execute(); err != nil {
		slog.Error("scandump failed", "error", err)
		os.Exit(1)
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	if flagLibrary != "" {
		os.Setenv("JNISCAN_BRIDGE_LIB", flagLibrary)
	}

	columns, err := parseColumns(flagColumns)
	if err != nil {
		return err
	}
	params, err := parseParams(flagParams)
	if err != nil {
		return err
	}
	ranges, err := parseIntRanges(flagIntRanges)
	if err != nil {
		return err
	}

	session, err := jniscan.NewSession(jniscan.SessionConfig{
		ClassName: flagClass,
		BatchSize: flagBatchSize,
		Columns:   columns,
		Params:    params,
	})
	if err != nil {
		return err
	}
	session.Init(ranges)
	if err := session.Open(); err != nil {
		return err
	}
	defer session.Close()

	var write func(cols []*jniscan.Column, names []string, from, to int) error
	switch flagFormat {
	case "csv":
		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		if err := w.Write(names(columns)); err != nil {
			return err
		}
		write = func(cols []*jniscan.Column, names []string, from, to int) error {
			return writeCSV(w, cols, from, to)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		write = func(cols []*jniscan.Column, names []string, from, to int) error {
			return writeJSON(enc, cols, names, from, to)
		}
	default:
		return fmt.Errorf("unknown format %q", flagFormat)
	}

	ctx := context.Background()
	cols := session.NewColumns()
	colNames := names(columns)
	printed := int64(0)
	for {
		if flagLimit > 0 && printed >= flagLimit {
			break
		}
		from := cols[0].Rows()
		rows, eof, err := session.FetchNext(ctx, cols)
		if err != nil {
			return err
		}
		if eof {
			break
		}
		to := from + rows
		if flagLimit > 0 && printed+int64(rows) > flagLimit {
			to = from + int(flagLimit-printed)
		}
		if err := write(cols, colNames, from, to); err != nil {
			return err
		}
		printed += int64(to - from)
	}
	return nil
}

func names(columns []jniscan.SchemaColumn) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Name
	}
	return out
}

func writeCSV(w *csv.Writer, cols []*jniscan.Column, from, to int) error {
	record := make([]string, len(cols))
	for i := from; i < to; i++ {
		for j, col := range cols {
			v := col.Value(i)
			if v == nil {
				record[j] = ""
			} else {
				record[j] = fmt.Sprint(v)
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(enc *json.Encoder, cols []*jniscan.Column, names []string, from, to int) error {
	row := make(map[string]any, len(cols))
	for i := from; i < to; i++ {
		for j, col := range cols {
			row[names[j]] = col.Value(i)
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func parseColumns(specs []string) ([]jniscan.SchemaColumn, error) {
	columns := make([]jniscan.SchemaColumn, 0, len(specs))
	for _, spec := range specs {
		name, typeName, ok := strings.Cut(spec, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid column %q, want name:type", spec)
		}
		desc, err := parseTypeName(typeName)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		columns = append(columns, jniscan.SchemaColumn{Name: name, Type: desc, Nullable: true})
	}
	return columns, nil
}

var plainTypes = map[string]jniscan.TypeID{
	"boolean":   jniscan.TypeBoolean,
	"tinyint":   jniscan.TypeTinyInt,
	"smallint":  jniscan.TypeSmallInt,
	"int":       jniscan.TypeInt,
	"bigint":    jniscan.TypeBigInt,
	"float":     jniscan.TypeFloat,
	"double":    jniscan.TypeDouble,
	"string":    jniscan.TypeString,
	"binary":    jniscan.TypeBinary,
	"date":      jniscan.TypeDateV2,
	"timestamp": jniscan.TypeDateTimeV2,
}

var paramTypes = map[string]jniscan.TypeID{
	"varchar":    jniscan.TypeVarchar,
	"char":       jniscan.TypeChar,
	"decimal32":  jniscan.TypeDecimal32,
	"decimal64":  jniscan.TypeDecimal64,
	"decimal128": jniscan.TypeDecimal128,
}

// parseTypeName parses the primitive subset of the scanner type
// vocabulary, e.g. "bigint", "varchar(20)", "decimal64(10,2)".
func parseTypeName(s string) (jniscan.TypeDesc, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if id, ok := plainTypes[s]; ok {
		return jniscan.TypeDesc{ID: id}, nil
	}

	base, rest, ok := strings.Cut(s, "(")
	if !ok || !strings.HasSuffix(rest, ")") {
		return jniscan.TypeDesc{}, fmt.Errorf("unknown type %q", s)
	}
	id, ok := paramTypes[base]
	if !ok {
		return jniscan.TypeDesc{}, fmt.Errorf("unknown type %q", s)
	}
	argStr := strings.TrimSuffix(rest, ")")
	var args []int
	for _, a := range strings.Split(argStr, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return jniscan.TypeDesc{}, fmt.Errorf("invalid type parameter in %q", s)
		}
		args = append(args, v)
	}

	switch id {
	case jniscan.TypeVarchar, jniscan.TypeChar:
		if len(args) != 1 {
			return jniscan.TypeDesc{}, fmt.Errorf("%s takes one length parameter", base)
		}
		return jniscan.TypeDesc{ID: id, Len: args[0]}, nil
	default:
		if len(args) != 2 {
			return jniscan.TypeDesc{}, fmt.Errorf("%s takes precision and scale", base)
		}
		return jniscan.TypeDesc{ID: id, Precision: args[0], Scale: args[1]}, nil
	}
}

func parseParams(specs []string) (map[string]string, error) {
	params := make(map[string]string, len(specs))
	for _, spec := range specs {
		k, v, ok := strings.Cut(spec, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid param %q, want key=value", spec)
		}
		params[k] = v
	}
	return params, nil
}

func parseIntRanges(specs []string) (map[string]jniscan.ColumnValueRange, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	ranges := make(map[string]jniscan.ColumnValueRange, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid range %q, want column,min,max", spec)
		}
		lo, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range min in %q", spec)
		}
		hi, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range max in %q", spec)
		}
		ranges[strings.TrimSpace(parts[0])] = jniscan.ColumnValueRange{
			Kind:          jniscan.RangeInt64,
			HasLow:        true,
			HasHigh:       true,
			LowInclusive:  true,
			HighInclusive: true,
			LowInt:        lo,
			HighInt:       hi,
		}
	}
	return ranges, nil
}
