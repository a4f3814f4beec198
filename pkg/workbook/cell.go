package workbook

// MaxOutlineLevel is the deepest outline level a row or column may carry.
const MaxOutlineLevel = 7

// Cell is a classified value with an optional style.
type Cell struct {
	Value Value
	Style *Style
}

// NewCell classifies v and returns a cell holding it.
func NewCell(v interface{}) Cell {
	return Cell{Value: Classify(v)}
}

// Row is an ordered, auto-extending list of cells plus display metadata.
type Row struct {
	cells        []Cell
	height       float64
	hidden       bool
	outlineLevel int
	collapsed    bool
}

// Len returns the number of allocated cells.
func (r *Row) Len() int { return len(r.cells) }

// Cells returns a copy of the row's cells.
func (r *Row) Cells() []Cell {
	if r.cells == nil {
		return nil
	}
	out := make([]Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// Cell returns the cell at index i; ok is false when i is out of range.
func (r *Row) Cell(i int) (Cell, bool) {
	if i < 0 || i >= len(r.cells) {
		return Cell{}, false
	}
	return r.cells[i], true
}

func (r *Row) ensure(i int) *Cell {
	for len(r.cells) <= i {
		r.cells = append(r.cells, Cell{})
	}
	return &r.cells[i]
}

// SetCell classifies v and stores it at index i, extending the row with
// blank cells as needed. Negative indices are ignored.
func (r *Row) SetCell(i int, v interface{}) *Row {
	if i < 0 {
		return r
	}
	r.ensure(i).Value = Classify(v)
	return r
}

// SetStyle attaches a copy of s to the cell at index i.
func (r *Row) SetStyle(i int, s Style) *Row {
	if i < 0 {
		return r
	}
	r.ensure(i).Style = &s
	return r
}

// SetValues overwrites the row's leading cells with vals.
func (r *Row) SetValues(vals ...interface{}) *Row {
	for i, v := range vals {
		r.SetCell(i, v)
	}
	return r
}

func (r *Row) Height() float64   { return r.height }
func (r *Row) Hidden() bool      { return r.hidden }
func (r *Row) OutlineLevel() int { return r.outlineLevel }
func (r *Row) Collapsed() bool   { return r.collapsed }

func (r *Row) SetHeight(h float64) *Row {
	r.height = h
	return r
}

func (r *Row) SetHidden(hidden bool) *Row {
	r.hidden = hidden
	return r
}

// SetOutlineLevel clamps level into [0, MaxOutlineLevel].
func (r *Row) SetOutlineLevel(level int) *Row {
	r.outlineLevel = clampLevel(level)
	return r
}

func (r *Row) SetCollapsed(collapsed bool) *Row {
	r.collapsed = collapsed
	return r
}

// Column carries per-column display metadata. A width of 0 means auto-fit.
type Column struct {
	width        float64
	hidden       bool
	outlineLevel int
	collapsed    bool
}

func (c *Column) Width() float64    { return c.width }
func (c *Column) Hidden() bool      { return c.hidden }
func (c *Column) OutlineLevel() int { return c.outlineLevel }
func (c *Column) Collapsed() bool   { return c.collapsed }

func (c *Column) SetWidth(w float64) *Column {
	c.width = w
	return c
}

func (c *Column) SetHidden(hidden bool) *Column {
	c.hidden = hidden
	return c
}

func (c *Column) SetOutlineLevel(level int) *Column {
	c.outlineLevel = clampLevel(level)
	return c
}

func (c *Column) SetCollapsed(collapsed bool) *Column {
	c.collapsed = collapsed
	return c
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxOutlineLevel {
		return MaxOutlineLevel
	}
	return level
}
