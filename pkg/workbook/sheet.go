package workbook

// FreezePane is the count of leading rows and columns kept in view.
type FreezePane struct {
	Rows int `json:"rows" yaml:"rows"`
	Cols int `json:"cols" yaml:"cols"`
}

// PrintOptions holds page setup metadata.
type PrintOptions struct {
	Orientation string `json:"orientation,omitempty" yaml:"orientation,omitempty"` // "portrait" or "landscape"
	PaperSize   int    `json:"paper_size,omitempty" yaml:"paper_size,omitempty"`   // 1 = Letter, 9 = A4
	FitToWidth  int    `json:"fit_to_width,omitempty" yaml:"fit_to_width,omitempty"`
	FitToHeight int    `json:"fit_to_height,omitempty" yaml:"fit_to_height,omitempty"`
	Gridlines   bool   `json:"gridlines,omitempty" yaml:"gridlines,omitempty"`
}

// Worksheet is a named grid of rows and columns. It is owned by exactly one
// Workbook.
type Worksheet struct {
	name       string
	rows       []*Row
	cols       []*Column
	merges     []Range
	freeze     *FreezePane
	print      *PrintOptions
	autoFilter *Range
}

func (s *Worksheet) Name() string { return s.name }

// RowCount returns the number of allocated rows.
func (s *Worksheet) RowCount() int { return len(s.rows) }

// ColumnCount returns the number of declared columns (not the widest row).
func (s *Worksheet) ColumnCount() int { return len(s.cols) }

// Rows returns the sheet's rows in order. The slice is a copy; the rows are not.
func (s *Worksheet) Rows() []*Row {
	out := make([]*Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Row returns the row at index i, or nil when i is out of range.
func (s *Worksheet) Row(i int) *Row {
	if i < 0 || i >= len(s.rows) {
		return nil
	}
	return s.rows[i]
}

// RowAt returns the row at index i, allocating blank rows up to i.
func (s *Worksheet) RowAt(i int) *Row {
	if i < 0 {
		return nil
	}
	for len(s.rows) <= i {
		s.rows = append(s.rows, &Row{})
	}
	return s.rows[i]
}

// AppendRow adds a row holding vals after the last allocated row.
func (s *Worksheet) AppendRow(vals ...interface{}) *Row {
	return s.RowAt(len(s.rows)).SetValues(vals...)
}

// Columns returns the declared columns in order.
func (s *Worksheet) Columns() []*Column {
	out := make([]*Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Column returns the column at index i, or nil when i is out of range.
func (s *Worksheet) Column(i int) *Column {
	if i < 0 || i >= len(s.cols) {
		return nil
	}
	return s.cols[i]
}

// ColumnAt returns the column at index i, allocating blank columns up to i.
func (s *Worksheet) ColumnAt(i int) *Column {
	if i < 0 {
		return nil
	}
	for len(s.cols) <= i {
		s.cols = append(s.cols, &Column{})
	}
	return s.cols[i]
}

// Cell returns the cell at (row, col); ok is false when either index is out of range.
func (s *Worksheet) Cell(row, col int) (Cell, bool) {
	r := s.Row(row)
	if r == nil {
		return Cell{}, false
	}
	return r.Cell(col)
}

// SetCell classifies v and stores it at (row, col), allocating as needed.
func (s *Worksheet) SetCell(row, col int, v interface{}) *Worksheet {
	if r := s.RowAt(row); r != nil {
		r.SetCell(col, v)
	}
	return s
}

// SetCellStyle attaches a copy of st to the cell at (row, col).
func (s *Worksheet) SetCellStyle(row, col int, st Style) *Worksheet {
	if r := s.RowAt(row); r != nil {
		r.SetStyle(col, st)
	}
	return s
}

// SetFormula stores formula text at (row, col).
func (s *Worksheet) SetFormula(row, col int, formula string) *Worksheet {
	return s.SetCell(row, col, Formula(formula))
}

// MergeCells records a merge region. Negative, inverted, or overlapping
// regions are rejected with *InvalidRangeError.
func (s *Worksheet) MergeCells(r Range) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for _, m := range s.merges {
		if m.Overlaps(r) {
			return NewInvalidRangeError(r.String(), "overlaps merged region "+m.String())
		}
	}
	s.merges = append(s.merges, r)
	return nil
}

// MergeRegions returns the sheet's merge regions in insertion order.
func (s *Worksheet) MergeRegions() []Range {
	if s.merges == nil {
		return nil
	}
	out := make([]Range, len(s.merges))
	copy(out, s.merges)
	return out
}

// SetFreezePane freezes the leading rows and columns. Zero for both clears it.
func (s *Worksheet) SetFreezePane(rows, cols int) error {
	if rows < 0 || cols < 0 {
		return NewInvalidRangeError(CellRef(maxInt(rows, 0), maxInt(cols, 0)), "freeze pane counts must not be negative")
	}
	if rows == 0 && cols == 0 {
		s.freeze = nil
		return nil
	}
	s.freeze = &FreezePane{Rows: rows, Cols: cols}
	return nil
}

func (s *Worksheet) FreezePane() (FreezePane, bool) {
	if s.freeze == nil {
		return FreezePane{}, false
	}
	return *s.freeze, true
}

func (s *Worksheet) SetPrintOptions(o PrintOptions) *Worksheet {
	s.print = &o
	return s
}

func (s *Worksheet) PrintOptions() (PrintOptions, bool) {
	if s.print == nil {
		return PrintOptions{}, false
	}
	return *s.print, true
}

// SetAutoFilter marks r as the sheet's filter area.
func (s *Worksheet) SetAutoFilter(r Range) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.autoFilter = &r
	return nil
}

func (s *Worksheet) AutoFilter() (Range, bool) {
	if s.autoFilter == nil {
		return Range{}, false
	}
	return *s.autoFilter, true
}

// UsedWidth returns the length of the widest row.
func (s *Worksheet) UsedWidth() int {
	w := 0
	for _, r := range s.rows {
		if r.Len() > w {
			w = r.Len()
		}
	}
	return w
}

// Dimension returns the occupied range "A1:<lastCol><lastRow>". An empty
// sheet reports "A1:A1".
func (s *Worksheet) Dimension() string {
	rows, cols := len(s.rows), s.UsedWidth()
	for _, m := range s.merges {
		rows = maxInt(rows, m.EndRow+1)
		cols = maxInt(cols, m.EndCol+1)
	}
	rng := Range{EndRow: maxInt(rows, 1) - 1, EndCol: maxInt(cols, 1) - 1}
	return rng.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
