package export

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/reportbook/pkg/workbook"
)

const (
	maxAutoWidth   = 60
	minAutoWidth   = 8
	maxSheetName   = 31
	defaultDateFmt = "yyyy-mm-dd"
)

// XLSXWriter writes every sheet into an OOXML spreadsheet package.
type XLSXWriter struct{}

func NewXLSXWriter() *XLSXWriter { return &XLSXWriter{} }

func (w *XLSXWriter) MediaType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (w *XLSXWriter) Write(ctx context.Context, wb *workbook.Workbook, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, ErrNilWorkbook
	}
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	f := excelize.NewFile()
	defer f.Close()

	x := &xlsxBuilder{
		f:      f,
		styles: make(map[styleKey]int),
		styled: opts.ShouldIncludeStyles(),
	}
	names := PackageSheetNames(sheets)
	for i, sheet := range sheets {
		name := names[i]
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, NewWriteError(FormatXLSX, sheet.Name(), err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, NewWriteError(FormatXLSX, sheet.Name(), err)
		}
		if err := x.writeSheet(name, sheet); err != nil {
			return nil, NewWriteError(FormatXLSX, sheet.Name(), err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SetDocProps(docProps(wb, opts)); err != nil {
		return nil, NewWriteError(FormatXLSX, "", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, NewWriteError(FormatXLSX, "", err)
	}
	return buf.Bytes(), nil
}

func docProps(wb *workbook.Workbook, opts Options) *excelize.DocProperties {
	get := func(k string) string {
		v, _ := wb.Property(k)
		return v
	}
	return &excelize.DocProperties{
		Title:       get("title"),
		Subject:     get("subject"),
		Creator:     get("creator"),
		Keywords:    get("keywords"),
		Description: get("description"),
		Category:    get("category"),
		Language:    opts.Locale,
	}
}

type styleKey struct {
	style workbook.Style
	date  bool
}

type xlsxBuilder struct {
	f      *excelize.File
	styles map[styleKey]int
	styled bool
}

func (x *xlsxBuilder) writeSheet(name string, sheet *workbook.Worksheet) error {
	f := x.f
	rows := sheet.Rows()
	outlined := false

	for r, row := range rows {
		for c, cell := range row.Cells() {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := x.writeCell(name, ref, cell); err != nil {
				return fmt.Errorf("cell %s: %w", ref, err)
			}
		}
		if h := row.Height(); h > 0 {
			if err := f.SetRowHeight(name, r+1, h); err != nil {
				return err
			}
		}
		if lvl := row.OutlineLevel(); lvl > 0 {
			outlined = true
			if err := f.SetRowOutlineLevel(name, r+1, uint8(lvl)); err != nil {
				return err
			}
		}
	}
	for r, hidden := range hiddenRows(rows) {
		if hidden {
			if err := f.SetRowVisible(name, r+1, false); err != nil {
				return err
			}
		}
	}

	if err := x.writeColumns(name, sheet); err != nil {
		return err
	}
	for _, c := range sheet.Columns() {
		if c.OutlineLevel() > 0 {
			outlined = true
		}
	}
	if outlined {
		below, right := false, false
		if err := f.SetSheetProps(name, &excelize.SheetPropsOptions{
			OutlineSummaryBelow: &below,
			OutlineSummaryRight: &right,
		}); err != nil {
			return err
		}
	}

	for _, m := range sheet.MergeRegions() {
		if err := f.MergeCell(name, workbook.CellRef(m.StartRow, m.StartCol), workbook.CellRef(m.EndRow, m.EndCol)); err != nil {
			return err
		}
	}
	if fp, ok := sheet.FreezePane(); ok {
		if err := f.SetPanes(name, freezePanes(fp)); err != nil {
			return err
		}
	}
	if af, ok := sheet.AutoFilter(); ok {
		if err := f.AutoFilter(name, af.String(), []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}
	if po, ok := sheet.PrintOptions(); ok {
		if err := x.writePrintOptions(name, po); err != nil {
			return err
		}
	}
	return f.SetSheetDimension(name, sheet.Dimension())
}

func (x *xlsxBuilder) writeCell(sheet, ref string, cell workbook.Cell) error {
	f := x.f
	v := cell.Value
	var err error
	switch v.Kind() {
	case workbook.KindEmpty:
	case workbook.KindString:
		err = f.SetCellStr(sheet, ref, v.Text())
	case workbook.KindNumber:
		n, _ := v.Float()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			err = f.SetCellStr(sheet, ref, v.Display())
		} else {
			err = f.SetCellFloat(sheet, ref, n, -1, 64)
		}
	case workbook.KindBool:
		err = f.SetCellBool(sheet, ref, v.Bool())
	case workbook.KindDate:
		err = f.SetCellValue(sheet, ref, v.Time())
	case workbook.KindFormula:
		text, _ := v.FormulaText()
		err = f.SetCellFormula(sheet, ref, text)
	}
	if err != nil {
		return err
	}

	if !x.styled {
		return nil
	}
	isDate := v.Kind() == workbook.KindDate
	var st workbook.Style
	if cell.Style != nil {
		st = *cell.Style
	}
	if st.IsZero() && !isDate {
		return nil
	}
	id, err := x.styleID(st, isDate)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, ref, ref, id)
}

func (x *xlsxBuilder) styleID(s workbook.Style, isDate bool) (int, error) {
	key := styleKey{style: s, date: isDate}
	if id, ok := x.styles[key]; ok {
		return id, nil
	}
	es := toExcelStyle(s)
	if isDate && es.CustomNumFmt == nil {
		code := defaultDateFmt
		es.CustomNumFmt = &code
	}
	id, err := x.f.NewStyle(es)
	if err != nil {
		return 0, err
	}
	x.styles[key] = id
	return id, nil
}

func toExcelStyle(s workbook.Style) *excelize.Style {
	es := &excelize.Style{}
	if s.Bold() || s.Italic() || s.Underline() || s.FontFamily() != "" || s.FontSize() > 0 || s.Color() != "" {
		font := &excelize.Font{
			Bold:   s.Bold(),
			Italic: s.Italic(),
			Family: s.FontFamily(),
			Size:   s.FontSize(),
			Color:  s.Color(),
		}
		if s.Underline() {
			font.Underline = "single"
		}
		es.Font = font
	}
	if bg := s.Background(); bg != "" {
		es.Fill = excelize.Fill{Type: "pattern", Color: []string{bg}, Pattern: 1}
	}
	for _, side := range workbook.Sides {
		if !s.HasBorder(side) {
			continue
		}
		b := s.Border(side)
		es.Border = append(es.Border, excelize.Border{
			Type:  side.String(),
			Color: b.Color,
			Style: borderStyle(b.Style),
		})
	}
	if s.HAlign() != "" || s.VAlign() != "" || s.Wrap() {
		es.Alignment = &excelize.Alignment{
			Horizontal: s.HAlign(),
			Vertical:   s.VAlign(),
			WrapText:   s.Wrap(),
		}
	}
	if nf := s.NumberFormat(); nf != "" {
		es.CustomNumFmt = &nf
	}
	return es
}

// borderStyle maps a border name to the excelize style index.
func borderStyle(name string) int {
	switch strings.ToLower(name) {
	case "thin":
		return 1
	case "medium":
		return 2
	case "dashed":
		return 3
	case "dotted":
		return 4
	case "thick":
		return 5
	case "double":
		return 6
	case "hair":
		return 7
	case "mediumdashed":
		return 8
	case "dashdot":
		return 9
	}
	return 0
}

func (x *xlsxBuilder) writeColumns(name string, sheet *workbook.Worksheet) error {
	f := x.f
	cols := sheet.Columns()
	width := sheet.UsedWidth()
	if len(cols) > width {
		width = len(cols)
	}
	auto := autoWidths(sheet, width)
	hidden := hiddenColumns(cols)

	for i := 0; i < width; i++ {
		colName := workbook.ColumnName(i + 1)
		w := auto[i]
		if i < len(cols) && cols[i].Width() > 0 {
			w = cols[i].Width()
		}
		if w > 0 {
			if err := f.SetColWidth(name, colName, colName, w); err != nil {
				return err
			}
		}
		if i >= len(cols) {
			continue
		}
		if lvl := cols[i].OutlineLevel(); lvl > 0 {
			if err := f.SetColOutlineLevel(name, colName, uint8(lvl)); err != nil {
				return err
			}
		}
		if hidden[i] {
			if err := f.SetColVisible(name, colName, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// autoWidths sizes each column from its longest display string. Anchors of
// merges spanning several columns are ignored.
func autoWidths(sheet *workbook.Worksheet, width int) []float64 {
	out := make([]float64, width)
	spanning := make(map[[2]int]bool)
	for _, m := range sheet.MergeRegions() {
		if m.EndCol > m.StartCol {
			spanning[[2]int{m.StartRow, m.StartCol}] = true
		}
	}
	for r, row := range sheet.Rows() {
		for c, cell := range row.Cells() {
			if spanning[[2]int{r, c}] {
				continue
			}
			n := float64(utf8.RuneCountInString(cell.Value.Display()))
			if n > out[c] {
				out[c] = n
			}
		}
	}
	for i, n := range out {
		if n == 0 {
			continue
		}
		w := n*1.1 + 2
		out[i] = math.Max(minAutoWidth, math.Min(maxAutoWidth, w))
	}
	return out
}

// hiddenRows combines explicit hidden flags with collapsed groups: every row
// after a collapsed row with a deeper outline level is hidden as well.
func hiddenRows(rows []*workbook.Row) []bool {
	out := make([]bool, len(rows))
	for i, r := range rows {
		if r.Hidden() {
			out[i] = true
		}
		if !r.Collapsed() {
			continue
		}
		for j := i + 1; j < len(rows) && rows[j].OutlineLevel() > r.OutlineLevel(); j++ {
			out[j] = true
		}
	}
	return out
}

func hiddenColumns(cols []*workbook.Column) []bool {
	out := make([]bool, len(cols))
	for i, c := range cols {
		if c.Hidden() {
			out[i] = true
		}
		if !c.Collapsed() {
			continue
		}
		for j := i + 1; j < len(cols) && cols[j].OutlineLevel() > c.OutlineLevel(); j++ {
			out[j] = true
		}
	}
	return out
}

func freezePanes(fp workbook.FreezePane) *excelize.Panes {
	active := "bottomRight"
	switch {
	case fp.Cols == 0:
		active = "bottomLeft"
	case fp.Rows == 0:
		active = "topRight"
	}
	topLeft := workbook.CellRef(fp.Rows, fp.Cols)
	return &excelize.Panes{
		Freeze:      true,
		XSplit:      fp.Cols,
		YSplit:      fp.Rows,
		TopLeftCell: topLeft,
		ActivePane:  active,
		Selection: []excelize.Selection{
			{SQRef: topLeft, ActiveCell: topLeft, Pane: active},
		},
	}
}

func (x *xlsxBuilder) writePrintOptions(name string, po workbook.PrintOptions) error {
	layout := &excelize.PageLayoutOptions{}
	if po.Orientation != "" {
		o := po.Orientation
		layout.Orientation = &o
	}
	if po.PaperSize > 0 {
		size := po.PaperSize
		layout.Size = &size
	}
	if po.FitToWidth > 0 || po.FitToHeight > 0 {
		fw, fh := po.FitToWidth, po.FitToHeight
		layout.FitToWidth = &fw
		layout.FitToHeight = &fh
		fit := true
		if err := x.f.SetSheetProps(name, &excelize.SheetPropsOptions{FitToPage: &fit}); err != nil {
			return err
		}
	}
	if err := x.f.SetPageLayout(name, layout); err != nil {
		return err
	}
	if po.Gridlines {
		show := true
		return x.f.SetSheetView(name, 0, &excelize.ViewOptions{ShowGridLines: &show})
	}
	return nil
}

// PackageSheetNames maps workbook sheet names onto names the package format
// accepts: at most 31 characters, none of []:*?/\, and unique without regard
// to case.
func PackageSheetNames(sheets []*workbook.Worksheet) []string {
	out := make([]string, len(sheets))
	used := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		base := sanitizeSheetName(s.Name())
		if base == "" {
			base = fmt.Sprintf("Sheet%d", i+1)
		}
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(name, "'")
	return truncateRunes(name, maxSheetName)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
