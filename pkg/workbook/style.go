package workbook

// Side names one edge of a cell border.
type Side int

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
)

// Sides lists every border side in drawing order.
var Sides = []Side{SideTop, SideRight, SideBottom, SideLeft}

func (s Side) String() string {
	switch s {
	case SideTop:
		return "top"
	case SideRight:
		return "right"
	case SideBottom:
		return "bottom"
	case SideLeft:
		return "left"
	}
	return "unknown"
}

// Border is the line drawn on one side of a cell.
type Border struct {
	Style string `json:"style" yaml:"style"` // thin, medium, thick, dashed, dotted, double, hair
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

type styleField uint32

const (
	fieldBold styleField = 1 << iota
	fieldItalic
	fieldUnderline
	fieldFontFamily
	fieldFontSize
	fieldColor
	fieldBackground
	fieldBorderTop
	fieldBorderRight
	fieldBorderBottom
	fieldBorderLeft
	fieldHAlign
	fieldVAlign
	fieldWrap
	fieldNumberFormat
)

func borderField(s Side) styleField {
	return fieldBorderTop << uint(s)
}

// Style is an immutable cell style. Only StyleBuilder and FromData produce
// non-zero styles; a Style remembers which fields were set so that Merge can
// overlay one style on another. Styles are comparable with ==.
type Style struct {
	bold         bool
	italic       bool
	underline    bool
	fontFamily   string
	fontSize     float64
	color        string
	background   string
	borders      [4]Border
	hAlign       string
	vAlign       string
	wrap         bool
	numberFormat string

	set styleField
}

func (s Style) Bold() bool              { return s.bold }
func (s Style) Italic() bool            { return s.italic }
func (s Style) Underline() bool         { return s.underline }
func (s Style) FontFamily() string      { return s.fontFamily }
func (s Style) FontSize() float64       { return s.fontSize }
func (s Style) Color() string           { return s.color }
func (s Style) Background() string      { return s.background }
func (s Style) Border(side Side) Border { return s.borders[side] }
func (s Style) HAlign() string          { return s.hAlign }
func (s Style) VAlign() string          { return s.vAlign }
func (s Style) Wrap() bool              { return s.wrap }
func (s Style) NumberFormat() string    { return s.numberFormat }

// IsZero reports whether no field was ever set.
func (s Style) IsZero() bool { return s.set == 0 }

// HasBorder reports whether the given side was configured.
func (s Style) HasBorder(side Side) bool { return s.set&borderField(side) != 0 }

// Merge overlays later on s field by field; fields set in later win.
func (s Style) Merge(later Style) Style {
	out := s
	if later.set&fieldBold != 0 {
		out.bold = later.bold
	}
	if later.set&fieldItalic != 0 {
		out.italic = later.italic
	}
	if later.set&fieldUnderline != 0 {
		out.underline = later.underline
	}
	if later.set&fieldFontFamily != 0 {
		out.fontFamily = later.fontFamily
	}
	if later.set&fieldFontSize != 0 {
		out.fontSize = later.fontSize
	}
	if later.set&fieldColor != 0 {
		out.color = later.color
	}
	if later.set&fieldBackground != 0 {
		out.background = later.background
	}
	for _, side := range Sides {
		if later.set&borderField(side) != 0 {
			out.borders[side] = later.borders[side]
		}
	}
	if later.set&fieldHAlign != 0 {
		out.hAlign = later.hAlign
	}
	if later.set&fieldVAlign != 0 {
		out.vAlign = later.vAlign
	}
	if later.set&fieldWrap != 0 {
		out.wrap = later.wrap
	}
	if later.set&fieldNumberFormat != 0 {
		out.numberFormat = later.numberFormat
	}
	out.set |= later.set
	return out
}
