package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleBuilder_Build(t *testing.T) {
	b := NewStyleBuilder().Bold().Font("Arial", 11).Color("#FF0000").Align("center")
	s := b.Build()

	assert.True(t, s.Bold())
	assert.Equal(t, "Arial", s.FontFamily())
	assert.Equal(t, float64(11), s.FontSize())
	assert.Equal(t, "FF0000", s.Color())
	assert.Equal(t, "center", s.HAlign())

	// Build returns a copy; further builder calls do not leak into s
	b.Italic().Background("EEEEEE")
	assert.False(t, s.Italic())
	assert.Equal(t, "", s.Background())
	assert.True(t, b.Build().Italic())
}

func TestStyleBuilder_Borders(t *testing.T) {
	s := NewStyleBuilder().Borders("thin", "000000").Build()
	for _, side := range Sides {
		assert.True(t, s.HasBorder(side), side.String())
		assert.Equal(t, Border{Style: "thin", Color: "000000"}, s.Border(side))
	}

	one := NewStyleBuilder().Border(SideBottom, "double", "#333333").Build()
	assert.True(t, one.HasBorder(SideBottom))
	assert.False(t, one.HasBorder(SideTop))
	assert.Equal(t, "333333", one.Border(SideBottom).Color)
}

func TestStyle_Merge(t *testing.T) {
	base := NewStyleBuilder().Bold().Color("111111").NumberFormat("0.00").Build()
	later := NewStyleBuilder().Color("222222").Wrap().Build()

	merged := base.Merge(later)
	assert.True(t, merged.Bold())
	assert.Equal(t, "222222", merged.Color())
	assert.Equal(t, "0.00", merged.NumberFormat())
	assert.True(t, merged.Wrap())

	// unset fields in later never clear earlier ones
	assert.Equal(t, base, base.Merge(Style{}))
	assert.Equal(t, later, Style{}.Merge(later))
}

func TestStyle_Zero(t *testing.T) {
	assert.True(t, Style{}.IsZero())
	assert.False(t, HeaderStyle().IsZero())
	assert.True(t, TotalStyle().HasBorder(SideTop))
	assert.False(t, TotalStyle().HasBorder(SideBottom))
}
