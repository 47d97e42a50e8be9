package output

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// TableFormatter formats data as an aligned text table.
//
// Struct fields are labelled by their `table` tag, falling back to the
// json tag and then the field name. `table:"-"` hides a field and
// `table:"name,wide"` shows it only in wide mode.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format formats data as a table. Supports *Table, slices of structs,
// maps and single structs; anything else is written as JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	switch t := data.(type) {
	case *Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	table, err := toTable(data, f.Wide)
	if err != nil {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func toTable(data any, wide bool) (*Table, error) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return sliceToTable(v, wide)
	case reflect.Map:
		return mapToTable(v), nil
	case reflect.Struct:
		return structToTable(v, wide), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

// column is a visible struct field.
type column struct {
	index int
	label string
}

func columns(t reflect.Type, wide bool) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		label, visible := fieldLabel(field, wide)
		if !visible {
			continue
		}
		cols = append(cols, column{index: i, label: label})
	}
	return cols
}

func fieldLabel(field reflect.StructField, wide bool) (string, bool) {
	name := field.Name
	if jsonTag := field.Tag.Get("json"); jsonTag != "" {
		if n, _, _ := strings.Cut(jsonTag, ","); n != "" && n != "-" {
			name = n
		}
	}

	tag, ok := field.Tag.Lookup("table")
	if !ok {
		return name, true
	}
	if tag == "-" {
		return "", false
	}
	n, opts, _ := strings.Cut(tag, ",")
	if opts == "wide" && !wide {
		return "", false
	}
	if n != "" {
		name = n
	}
	return name, true
}

func sliceToTable(v reflect.Value, wide bool) (*Table, error) {
	if v.Len() == 0 {
		return &Table{}, nil
	}

	elemType := v.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}

	table := &Table{}
	switch elemType.Kind() {
	case reflect.Struct:
		cols := columns(elemType, wide)
		for _, c := range cols {
			table.Headers = append(table.Headers, strings.ToUpper(toSnakeCase(c.label)))
		}
		for i := 0; i < v.Len(); i++ {
			elem := reflect.Indirect(v.Index(i))
			row := make([]string, 0, len(cols))
			for _, c := range cols {
				if elem.IsValid() {
					row = append(row, formatValue(elem.Field(c.index)))
				} else {
					row = append(row, "")
				}
			}
			table.Rows = append(table.Rows, row)
		}
	case reflect.Map, reflect.Slice, reflect.Array:
		return nil, fmt.Errorf("unsupported element type: %s", elemType.Kind())
	default:
		table.Headers = []string{"VALUE"}
		for i := 0; i < v.Len(); i++ {
			table.Rows = append(table.Rows, []string{formatValue(v.Index(i))})
		}
	}
	return table, nil
}

// mapToTable converts a map to a key-value table sorted by key.
func mapToTable(v reflect.Value) *Table {
	table := &Table{Headers: []string{"KEY", "VALUE"}}

	iter := v.MapRange()
	for iter.Next() {
		table.Rows = append(table.Rows, []string{formatValue(iter.Key()), formatValue(iter.Value())})
	}
	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i][0] < table.Rows[j][0] })
	return table
}

// structToTable converts a single struct to a field-value table.
func structToTable(v reflect.Value, wide bool) *Table {
	table := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, c := range columns(v.Type(), wide) {
		table.Rows = append(table.Rows, []string{c.label, formatValue(v.Field(c.index))})
	}
	return table
}

// formatValue formats a reflect.Value for display.
func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}

	if v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Type() {
	case durationType:
		return time.Duration(v.Int()).Round(time.Microsecond).String()
	case timeType:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "-"
		}
		return t.Format(time.RFC3339)
	}

	switch v.Kind() {
	case reflect.String:
		if s := v.String(); s != "" {
			return s
		}
		return "-"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', 2, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// toSnakeCase converts CamelCase to Snake_Case; callers upper-case it.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return result.String()
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
