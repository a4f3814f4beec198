package export

import (
	"context"
	"strings"

	"github.com/locvowork/reportbook/pkg/workbook"
)

// CSVWriter writes the selected sheet as comma-separated lines. A field is
// quoted only when it contains the delimiter, a quote, or a line break.
// Lines are joined with "\n" and the output has no trailing newline.
//
// Extra keys: "delimiter" (a single character, default ","), "bom" (prefix a
// UTF-8 byte order mark).
type CSVWriter struct{}

func NewCSVWriter() *CSVWriter { return &CSVWriter{} }

func (w *CSVWriter) MediaType() string { return "text/csv" }

func (w *CSVWriter) Write(ctx context.Context, wb *workbook.Workbook, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sheet, err := selectSheet(wb, opts)
	if err != nil {
		return nil, NewWriteError(FormatCSV, opts.SheetName, err)
	}

	delim := ","
	if d := opts.Extra["delimiter"]; len([]rune(d)) == 1 {
		delim = d
	}

	var sb strings.Builder
	if opts.ExtraBool("bom") {
		sb.WriteString("\uFEFF")
	}
	first := true
	for _, row := range visibleRows(sheet, opts) {
		if !first {
			sb.WriteByte('\n')
		}
		first = false
		for i, c := range row.Cells() {
			if i > 0 {
				sb.WriteString(delim)
			}
			sb.WriteString(escapeCSV(c.Value.Display(), delim))
		}
	}
	return []byte(sb.String()), nil
}

func escapeCSV(s, delim string) string {
	if !strings.Contains(s, delim) && !strings.ContainsAny(s, "\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// selectSheet returns the sheet named in opts, or the first sheet.
func selectSheet(wb *workbook.Workbook, opts Options) (*workbook.Worksheet, error) {
	if wb == nil {
		return nil, ErrNilWorkbook
	}
	if opts.SheetName != "" {
		if s := wb.SheetByName(opts.SheetName); s != nil {
			return s, nil
		}
		return nil, ErrSheetNotFound
	}
	if s := wb.Sheet(0); s != nil {
		return s, nil
	}
	return nil, ErrNoSheets
}

func visibleRows(sheet *workbook.Worksheet, opts Options) []*workbook.Row {
	rows := sheet.Rows()
	if opts.ShouldIncludeHidden() {
		return rows
	}
	out := rows[:0]
	for _, r := range rows {
		if !r.Hidden() {
			out = append(out, r)
		}
	}
	return out
}
