package workbook

// StyleBuilder provides a fluent API for building cell styles. Every call
// touches exactly one field; Build returns a value copy, so later calls on the
// builder never alter styles it already returned.
type StyleBuilder struct {
	style Style
}

// NewStyleBuilder creates a builder with no fields set.
func NewStyleBuilder() *StyleBuilder {
	return &StyleBuilder{}
}

// From starts the builder from an existing style.
func (b *StyleBuilder) From(s Style) *StyleBuilder {
	b.style = s
	return b
}

// Bold sets the font to bold
func (b *StyleBuilder) Bold() *StyleBuilder {
	b.style.bold = true
	b.style.set |= fieldBold
	return b
}

// Italic sets the font to italic
func (b *StyleBuilder) Italic() *StyleBuilder {
	b.style.italic = true
	b.style.set |= fieldItalic
	return b
}

// Underline sets a single underline
func (b *StyleBuilder) Underline() *StyleBuilder {
	b.style.underline = true
	b.style.set |= fieldUnderline
	return b
}

// Font sets the font family and size
func (b *StyleBuilder) Font(family string, size float64) *StyleBuilder {
	b.style.fontFamily = family
	b.style.fontSize = size
	b.style.set |= fieldFontFamily | fieldFontSize
	return b
}

// FontSize sets only the font size
func (b *StyleBuilder) FontSize(size float64) *StyleBuilder {
	b.style.fontSize = size
	b.style.set |= fieldFontSize
	return b
}

// Color sets the font color (hex)
func (b *StyleBuilder) Color(hex string) *StyleBuilder {
	b.style.color = normalizeColor(hex)
	b.style.set |= fieldColor
	return b
}

// Background sets the solid fill color (hex)
func (b *StyleBuilder) Background(hex string) *StyleBuilder {
	b.style.background = normalizeColor(hex)
	b.style.set |= fieldBackground
	return b
}

// Border sets a single side.
func (b *StyleBuilder) Border(side Side, style, color string) *StyleBuilder {
	b.style.borders[side] = Border{Style: style, Color: normalizeColor(color)}
	b.style.set |= borderField(side)
	return b
}

// Borders sets all four sides to the same border.
func (b *StyleBuilder) Borders(style, color string) *StyleBuilder {
	for _, side := range Sides {
		b.Border(side, style, color)
	}
	return b
}

// Align sets the horizontal alignment ("left", "center", "right")
func (b *StyleBuilder) Align(alignment string) *StyleBuilder {
	b.style.hAlign = alignment
	b.style.set |= fieldHAlign
	return b
}

// VAlign sets the vertical alignment ("top", "center", "bottom")
func (b *StyleBuilder) VAlign(alignment string) *StyleBuilder {
	b.style.vAlign = alignment
	b.style.set |= fieldVAlign
	return b
}

// Wrap enables text wrapping
func (b *StyleBuilder) Wrap() *StyleBuilder {
	b.style.wrap = true
	b.style.set |= fieldWrap
	return b
}

// NumberFormat sets the number or date format code
func (b *StyleBuilder) NumberFormat(code string) *StyleBuilder {
	b.style.numberFormat = code
	b.style.set |= fieldNumberFormat
	return b
}

// Build returns the built style
func (b *StyleBuilder) Build() Style {
	return b.style
}

func normalizeColor(hex string) string {
	if len(hex) > 0 && hex[0] == '#' {
		return hex[1:]
	}
	return hex
}

// Pre-defined styles

// HeaderStyle returns the bold, centered style used for field-label rows.
func HeaderStyle() Style {
	return NewStyleBuilder().
		Bold().
		Align("center").
		VAlign("top").
		Borders("thin", "BFBFBF").
		Build()
}

// TotalStyle returns the style used for summary and total rows.
func TotalStyle() Style {
	return NewStyleBuilder().
		Bold().
		Border(SideTop, "thin", "000000").
		Build()
}
