package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/locvowork/reportbook/pkg/workbook"
)

// JSONWriter writes the selected sheet as an array of flat objects. Row 0
// supplies the keys; each later row becomes one object with keys in column
// order. Numbers and booleans keep their JSON types, dates are RFC 3339
// timestamps and everything else is its display string.
//
// Extra keys: "pretty" (indent the output).
type JSONWriter struct{}

func NewJSONWriter() *JSONWriter { return &JSONWriter{} }

func (w *JSONWriter) MediaType() string { return "application/json" }

func (w *JSONWriter) Write(ctx context.Context, wb *workbook.Workbook, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sheet, err := selectSheet(wb, opts)
	if err != nil {
		return nil, NewWriteError(FormatJSON, opts.SheetName, err)
	}

	rows := visibleRows(sheet, opts)
	var buf bytes.Buffer
	buf.WriteByte('[')
	if len(rows) > 0 {
		keys := headerKeys(rows[0])
		for i, row := range rows[1:] {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeObject(&buf, keys, row); err != nil {
				return nil, NewWriteError(FormatJSON, sheet.Name(), err)
			}
		}
	}
	buf.WriteByte(']')

	if !opts.ExtraBool("pretty") {
		return buf.Bytes(), nil
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf.Bytes(), "", "  "); err != nil {
		return nil, NewWriteError(FormatJSON, sheet.Name(), err)
	}
	return pretty.Bytes(), nil
}

// headerKeys names every column of the header row. Empty headers become
// "column_<n>" (1-based) and repeated names get a "_<n>" suffix.
func headerKeys(header *workbook.Row) []string {
	cells := header.Cells()
	keys := make([]string, len(cells))
	seen := make(map[string]int, len(cells))
	for i, c := range cells {
		k := c.Value.Display()
		if k == "" {
			k = fmt.Sprintf("column_%d", i+1)
		}
		seen[k]++
		if n := seen[k]; n > 1 {
			k = fmt.Sprintf("%s_%d", k, n)
		}
		keys[i] = k
	}
	return keys
}

func writeObject(buf *bytes.Buffer, keys []string, row *workbook.Row) error {
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')

		var v workbook.Value
		if c, ok := row.Cell(i); ok {
			v = c.Value
		}
		vb, err := json.Marshal(jsonValue(v))
		if err != nil {
			return fmt.Errorf("column %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return nil
}

func jsonValue(v workbook.Value) interface{} {
	switch v.Kind() {
	case workbook.KindNumber:
		f, _ := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v.Display()
		}
		return f
	case workbook.KindBool:
		return v.Bool()
	case workbook.KindDate:
		return v.Time().Format(time.RFC3339)
	}
	return v.Display()
}
