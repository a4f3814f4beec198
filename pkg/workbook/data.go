package workbook

import (
	"fmt"
	"strconv"
	"time"
)

// WorkbookData is the plain, serializable form of a Workbook. ToData and
// FromData are inverses of each other.
type WorkbookData struct {
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
	Sheets     []SheetData       `json:"sheets" yaml:"sheets"`
}

type SheetData struct {
	Name       string        `json:"name" yaml:"name"`
	Rows       []RowData     `json:"rows,omitempty" yaml:"rows,omitempty"`
	Columns    []ColumnData  `json:"columns,omitempty" yaml:"columns,omitempty"`
	Merges     []Range       `json:"merges,omitempty" yaml:"merges,omitempty"`
	FreezePane *FreezePane   `json:"freeze_pane,omitempty" yaml:"freeze_pane,omitempty"`
	Print      *PrintOptions `json:"print,omitempty" yaml:"print,omitempty"`
	AutoFilter *Range        `json:"auto_filter,omitempty" yaml:"auto_filter,omitempty"`
}

type RowData struct {
	Cells        []CellData `json:"cells,omitempty" yaml:"cells,omitempty"`
	Height       float64    `json:"height,omitempty" yaml:"height,omitempty"`
	Hidden       bool       `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	OutlineLevel int        `json:"outline_level,omitempty" yaml:"outline_level,omitempty"`
	Collapsed    bool       `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

type ColumnData struct {
	Width        float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Hidden       bool    `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	OutlineLevel int     `json:"outline_level,omitempty" yaml:"outline_level,omitempty"`
	Collapsed    bool    `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

// CellData stores a value as its kind plus a canonical text form.
type CellData struct {
	Kind  string     `json:"kind" yaml:"kind"`
	Value string     `json:"value,omitempty" yaml:"value,omitempty"`
	Zone  string     `json:"zone,omitempty" yaml:"zone,omitempty"`
	Style *StyleData `json:"style,omitempty" yaml:"style,omitempty"`
}

// StyleData mirrors Style. A nil field was never set.
type StyleData struct {
	Bold         *bool    `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic       *bool    `json:"italic,omitempty" yaml:"italic,omitempty"`
	Underline    *bool    `json:"underline,omitempty" yaml:"underline,omitempty"`
	FontFamily   *string  `json:"font_family,omitempty" yaml:"font_family,omitempty"`
	FontSize     *float64 `json:"font_size,omitempty" yaml:"font_size,omitempty"`
	Color        *string  `json:"color,omitempty" yaml:"color,omitempty"`
	Background   *string  `json:"background,omitempty" yaml:"background,omitempty"`
	BorderTop    *Border  `json:"border_top,omitempty" yaml:"border_top,omitempty"`
	BorderRight  *Border  `json:"border_right,omitempty" yaml:"border_right,omitempty"`
	BorderBottom *Border  `json:"border_bottom,omitempty" yaml:"border_bottom,omitempty"`
	BorderLeft   *Border  `json:"border_left,omitempty" yaml:"border_left,omitempty"`
	HAlign       *string  `json:"h_align,omitempty" yaml:"h_align,omitempty"`
	VAlign       *string  `json:"v_align,omitempty" yaml:"v_align,omitempty"`
	Wrap         *bool    `json:"wrap,omitempty" yaml:"wrap,omitempty"`
	NumberFormat *string  `json:"number_format,omitempty" yaml:"number_format,omitempty"`
}

// ToData snapshots w into its serializable form.
func ToData(w *Workbook) WorkbookData {
	d := WorkbookData{Properties: w.Properties()}
	for _, s := range w.sheets {
		d.Sheets = append(d.Sheets, sheetToData(s))
	}
	return d
}

// FromData rebuilds a Workbook from its serializable form.
func FromData(d WorkbookData) (*Workbook, error) {
	w := New()
	for k, v := range d.Properties {
		w.props[k] = v
	}
	for i, sd := range d.Sheets {
		s, err := w.AddSheet(sd.Name)
		if err != nil {
			return nil, fmt.Errorf("sheet %d: %w", i, err)
		}
		if err := sheetFromData(s, sd); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sd.Name, err)
		}
	}
	return w, nil
}

func sheetToData(s *Worksheet) SheetData {
	sd := SheetData{
		Name:   s.name,
		Merges: s.MergeRegions(),
	}
	for _, r := range s.rows {
		rd := RowData{
			Height:       r.height,
			Hidden:       r.hidden,
			OutlineLevel: r.outlineLevel,
			Collapsed:    r.collapsed,
		}
		for _, c := range r.cells {
			rd.Cells = append(rd.Cells, cellToData(c))
		}
		sd.Rows = append(sd.Rows, rd)
	}
	for _, c := range s.cols {
		sd.Columns = append(sd.Columns, ColumnData{
			Width:        c.width,
			Hidden:       c.hidden,
			OutlineLevel: c.outlineLevel,
			Collapsed:    c.collapsed,
		})
	}
	if fp, ok := s.FreezePane(); ok {
		sd.FreezePane = &fp
	}
	if po, ok := s.PrintOptions(); ok {
		sd.Print = &po
	}
	if af, ok := s.AutoFilter(); ok {
		sd.AutoFilter = &af
	}
	return sd
}

func sheetFromData(s *Worksheet, sd SheetData) error {
	for i, rd := range sd.Rows {
		r := s.RowAt(i)
		r.height = rd.Height
		r.hidden = rd.Hidden
		r.outlineLevel = clampLevel(rd.OutlineLevel)
		r.collapsed = rd.Collapsed
		for j, cd := range rd.Cells {
			c, err := cellFromData(cd)
			if err != nil {
				return fmt.Errorf("cell %s: %w", CellRef(i, j), err)
			}
			*r.ensure(j) = c
		}
	}
	for i, cd := range sd.Columns {
		c := s.ColumnAt(i)
		c.width = cd.Width
		c.hidden = cd.Hidden
		c.outlineLevel = clampLevel(cd.OutlineLevel)
		c.collapsed = cd.Collapsed
	}
	for _, m := range sd.Merges {
		if err := s.MergeCells(m); err != nil {
			return err
		}
	}
	if sd.FreezePane != nil {
		if err := s.SetFreezePane(sd.FreezePane.Rows, sd.FreezePane.Cols); err != nil {
			return err
		}
	}
	if sd.Print != nil {
		s.SetPrintOptions(*sd.Print)
	}
	if sd.AutoFilter != nil {
		if err := s.SetAutoFilter(*sd.AutoFilter); err != nil {
			return err
		}
	}
	return nil
}

func cellToData(c Cell) CellData {
	cd := CellData{Kind: c.Value.kind.String()}
	switch c.Value.kind {
	case KindString, KindFormula:
		cd.Value = c.Value.text
	case KindNumber:
		cd.Value = FormatNumber(c.Value.num)
	case KindBool:
		cd.Value = strconv.FormatBool(c.Value.b)
	case KindDate:
		cd.Value = c.Value.t.Format(time.RFC3339Nano)
		if name, _ := c.Value.t.Zone(); name != "UTC" {
			cd.Zone = name
		}
	}
	if c.Style != nil {
		cd.Style = styleToData(*c.Style)
	}
	return cd
}

func cellFromData(cd CellData) (Cell, error) {
	var c Cell
	kind, err := ParseKind(cd.Kind)
	if err != nil {
		return c, err
	}
	switch kind {
	case KindString:
		c.Value = StringValue(cd.Value)
	case KindFormula:
		c.Value = FormulaValue(cd.Value)
	case KindNumber:
		f, err := strconv.ParseFloat(cd.Value, 64)
		if err != nil {
			return c, fmt.Errorf("parse number %q: %w", cd.Value, err)
		}
		c.Value = NumberValue(f)
	case KindBool:
		b, err := strconv.ParseBool(cd.Value)
		if err != nil {
			return c, fmt.Errorf("parse bool %q: %w", cd.Value, err)
		}
		c.Value = BoolValue(b)
	case KindDate:
		t, err := time.Parse(time.RFC3339Nano, cd.Value)
		if err != nil {
			return c, fmt.Errorf("parse date %q: %w", cd.Value, err)
		}
		if _, offset := t.Zone(); cd.Zone != "" || offset != 0 {
			t = t.In(time.FixedZone(cd.Zone, offset))
		}
		c.Value = DateValue(t)
	}
	if cd.Style != nil {
		st := styleFromData(*cd.Style)
		c.Style = &st
	}
	return c, nil
}

func styleToData(s Style) *StyleData {
	d := &StyleData{}
	if s.set&fieldBold != 0 {
		d.Bold = boolPtr(s.bold)
	}
	if s.set&fieldItalic != 0 {
		d.Italic = boolPtr(s.italic)
	}
	if s.set&fieldUnderline != 0 {
		d.Underline = boolPtr(s.underline)
	}
	if s.set&fieldFontFamily != 0 {
		d.FontFamily = stringPtr(s.fontFamily)
	}
	if s.set&fieldFontSize != 0 {
		size := s.fontSize
		d.FontSize = &size
	}
	if s.set&fieldColor != 0 {
		d.Color = stringPtr(s.color)
	}
	if s.set&fieldBackground != 0 {
		d.Background = stringPtr(s.background)
	}
	for _, side := range Sides {
		if !s.HasBorder(side) {
			continue
		}
		b := s.borders[side]
		switch side {
		case SideTop:
			d.BorderTop = &b
		case SideRight:
			d.BorderRight = &b
		case SideBottom:
			d.BorderBottom = &b
		case SideLeft:
			d.BorderLeft = &b
		}
	}
	if s.set&fieldHAlign != 0 {
		d.HAlign = stringPtr(s.hAlign)
	}
	if s.set&fieldVAlign != 0 {
		d.VAlign = stringPtr(s.vAlign)
	}
	if s.set&fieldWrap != 0 {
		d.Wrap = boolPtr(s.wrap)
	}
	if s.set&fieldNumberFormat != 0 {
		d.NumberFormat = stringPtr(s.numberFormat)
	}
	return d
}

// StyleFromData converts the serializable form back into a Style. It is also
// used by report definitions that declare styles in YAML.
func StyleFromData(d StyleData) Style { return styleFromData(d) }

func styleFromData(d StyleData) Style {
	var s Style
	if d.Bold != nil {
		s.bold, s.set = *d.Bold, s.set|fieldBold
	}
	if d.Italic != nil {
		s.italic, s.set = *d.Italic, s.set|fieldItalic
	}
	if d.Underline != nil {
		s.underline, s.set = *d.Underline, s.set|fieldUnderline
	}
	if d.FontFamily != nil {
		s.fontFamily, s.set = *d.FontFamily, s.set|fieldFontFamily
	}
	if d.FontSize != nil {
		s.fontSize, s.set = *d.FontSize, s.set|fieldFontSize
	}
	if d.Color != nil {
		s.color, s.set = normalizeColor(*d.Color), s.set|fieldColor
	}
	if d.Background != nil {
		s.background, s.set = normalizeColor(*d.Background), s.set|fieldBackground
	}
	borders := [4]*Border{d.BorderTop, d.BorderRight, d.BorderBottom, d.BorderLeft}
	for side, b := range borders {
		if b != nil {
			s.borders[side] = Border{Style: b.Style, Color: normalizeColor(b.Color)}
			s.set |= borderField(Side(side))
		}
	}
	if d.HAlign != nil {
		s.hAlign, s.set = *d.HAlign, s.set|fieldHAlign
	}
	if d.VAlign != nil {
		s.vAlign, s.set = *d.VAlign, s.set|fieldVAlign
	}
	if d.Wrap != nil {
		s.wrap, s.set = *d.Wrap, s.set|fieldWrap
	}
	if d.NumberFormat != nil {
		s.numberFormat, s.set = *d.NumberFormat, s.set|fieldNumberFormat
	}
	return s
}

func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
