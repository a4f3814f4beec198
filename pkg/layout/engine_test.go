package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/reportbook/pkg/aggregate"
	"github.com/locvowork/reportbook/pkg/workbook"
)

func newSheet(t *testing.T) *workbook.Worksheet {
	t.Helper()
	s, err := workbook.New().AddSheet("Report")
	require.NoError(t, err)
	return s
}

// grid returns the display text of every row.
func grid(s *workbook.Worksheet) [][]string {
	out := make([][]string, s.RowCount())
	for i, r := range s.Rows() {
		for _, c := range r.Cells() {
			out[i] = append(out[i], c.Value.Display())
		}
	}
	return out
}

func people() []interface{} {
	return []interface{}{
		map[string]interface{}{"name": "John", "age": 30, "dept": "Sales"},
		map[string]interface{}{"name": "Jane", "age": 25, "dept": "Ops"},
		map[string]interface{}{"name": "Mike", "age": 41, "dept": "Sales"},
	}
}

func TestEngine_PlainSection(t *testing.T) {
	sheet := newSheet(t)
	sec := NewSection("Staff", people(), NewField("name", "Name"), NewField("age", "Age")).
		SetSummary(aggregate.Sum, "Total", "age")

	require.NoError(t, NewEngine(sheet).Render(context.Background(), sec))

	assert.Equal(t, [][]string{
		{"Staff"},
		{"Name", "Age"},
		{"John", "30"},
		{"Jane", "25"},
		{"Mike", "41"},
		{"Total", "96"},
	}, grid(sheet))

	levels := []int{0, 1, 1, 1, 1, 2}
	for i, want := range levels {
		assert.Equal(t, want, sheet.Row(i).OutlineLevel(), "row %d", i)
	}
	// title spans the fields when no indicator is shown
	assert.Equal(t, []workbook.Range{{EndRow: 0, EndCol: 1}}, sheet.MergeRegions())

	title, _ := sheet.Cell(0, 0)
	require.NotNil(t, title.Style)
	assert.True(t, title.Style.Bold())
	assert.Equal(t, "F2F2F2", title.Style.Background())
}

func TestEngine_CollapsedSection(t *testing.T) {
	sheet := newSheet(t)
	sec := NewSection("Hidden", people(), Fields("name")...).SetCollapsed(true)
	sec.AddChild(NewSection("Child", people(), Fields("name")...))
	sec.SetSummary(aggregate.Count, "", "name")

	require.NoError(t, NewEngine(sheet, WithIndicator(true)).Render(context.Background(), sec))

	assert.Equal(t, [][]string{
		{"Hidden", IndicatorCollapsed},
		{"3"},
	}, grid(sheet))
	assert.True(t, sheet.Row(0).Collapsed())
	assert.Empty(t, sheet.MergeRegions())
}

func TestEngine_ChildrenAndShading(t *testing.T) {
	sheet := newSheet(t)
	root := &Section{Title: "L0"}
	l1 := &Section{Title: "L1"}
	l2 := &Section{Title: "L2"}
	l3 := &Section{Title: "L3", Records: people()[:1], Fields: Fields("name")}
	root.AddChild(l1)
	l1.AddChild(l2)
	l2.AddChild(l3)

	require.NoError(t, NewEngine(sheet, WithIndicator(true)).Render(context.Background(), root))

	assert.Equal(t, [][]string{
		{"L0", IndicatorExpanded},
		{"L1", IndicatorExpanded},
		{"L2", IndicatorExpanded},
		{"L3", IndicatorExpanded},
		{"name"},
		{"John"},
	}, grid(sheet))

	wantFill := []string{"F2F2F2", "D9D9D9", "BFBFBF", ""}
	for i, fill := range wantFill {
		c, _ := sheet.Cell(i, 0)
		assert.Equal(t, fill, c.Style.Background(), "level %d", i)
		assert.Equal(t, i, sheet.Row(i).OutlineLevel())
	}
	assert.Equal(t, 4, sheet.Row(5).OutlineLevel())
}

func TestEngine_ChildLevelNeverAboveParent(t *testing.T) {
	sheet := newSheet(t)
	parent := &Section{Title: "P", Level: 2}
	parent.AddChild(&Section{Title: "C", Level: 0}, &Section{Title: "D", Level: 5})

	require.NoError(t, NewEngine(sheet).Render(context.Background(), parent))
	assert.Equal(t, 2, sheet.Row(0).OutlineLevel())
	assert.Equal(t, 3, sheet.Row(1).OutlineLevel())
	assert.Equal(t, 5, sheet.Row(2).OutlineLevel())
}

func TestEngine_Rules(t *testing.T) {
	sheet := newSheet(t)
	red := workbook.NewStyleBuilder().Background("FFC7CE").Build()
	green := workbook.NewStyleBuilder().Background("C6EFCE").Build()
	bold := workbook.NewStyleBuilder().Bold().Build()

	sec := NewSection("", people(), NewField("name", "Name"), Field{Path: "age", Style: &bold})
	sec.AddRule(Rule{Field: "age", Expr: "value > 35", Style: red}).
		AddRule(Rule{Field: "age", Predicate: func(v workbook.Value) bool { return true }, Style: green}).
		AddRule(Rule{Expr: `record.dept == "Ops" && field == "name"`, Style: red})

	require.NoError(t, NewEngine(sheet).Render(context.Background(), sec))

	// header row 0, John row 1, Jane row 2, Mike row 3
	john, _ := sheet.Cell(1, 1)
	assert.Equal(t, "C6EFCE", john.Style.Background())
	assert.True(t, john.Style.Bold(), "rule style merges over the field style")

	mike, _ := sheet.Cell(3, 1)
	assert.Equal(t, "FFC7CE", mike.Style.Background(), "first matching rule wins")

	janeName, _ := sheet.Cell(2, 0)
	require.NotNil(t, janeName.Style)
	assert.Equal(t, "FFC7CE", janeName.Style.Background())

	johnName, _ := sheet.Cell(1, 0)
	assert.Nil(t, johnName.Style)
}

func TestEngine_BadRuleWritesNothing(t *testing.T) {
	sheet := newSheet(t)
	ok := NewSection("ok", people(), Fields("name")...)
	bad := NewSection("bad", people(), Fields("name")...).AddRule(Rule{Expr: "value >"})

	err := NewEngine(sheet).Render(context.Background(), ok, bad)
	require.Error(t, err)
	assert.Equal(t, 0, sheet.RowCount())
}

func TestEngine_TitleMergeCollisionWritesNothing(t *testing.T) {
	sheet := newSheet(t)
	require.NoError(t, sheet.MergeCells(workbook.Range{EndRow: 2, EndCol: 2}))

	e := NewEngine(sheet, WithStartRow(1))
	err := e.Render(context.Background(),
		NewSection("Title", people(), Fields("name", "age")...))

	var rangeErr *workbook.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 0, sheet.RowCount())
	assert.Equal(t, 1, e.Cursor())
	assert.Len(t, sheet.MergeRegions(), 1)
}

func TestEngine_NestedTitleCollisionWritesNothing(t *testing.T) {
	sheet := newSheet(t)
	// the child title lands on row 3, inside this region
	require.NoError(t, sheet.MergeCells(workbook.Range{StartRow: 3, EndRow: 3, EndCol: 1}))

	parent := NewSection("Parent", nil)
	parent.AddChild(NewSection("Child", people()[:1], Fields("name", "age")...))

	err := NewEngine(sheet, WithStartRow(2)).Render(context.Background(), parent)
	require.Error(t, err)
	assert.Equal(t, 0, sheet.RowCount())
}

func TestEngine_StartsBelowMergedRegions(t *testing.T) {
	sheet := newSheet(t)
	require.NoError(t, sheet.MergeCells(workbook.Range{EndRow: 2, EndCol: 2}))

	e := NewEngine(sheet)
	assert.Equal(t, 3, e.Cursor())
	require.NoError(t, e.Render(context.Background(),
		NewSection("Title", people(), Fields("name", "age")...)))

	c, _ := sheet.Cell(3, 0)
	assert.Equal(t, "Title", c.Value.Text())
	assert.Equal(t, []workbook.Range{{EndRow: 2, EndCol: 2}, {StartRow: 3, EndRow: 3, EndCol: 1}}, sheet.MergeRegions())
}

func TestEngine_SectionWithoutFields(t *testing.T) {
	sheet := newSheet(t)
	sec := NewSection("Totals only", people()).SetSummary(aggregate.Count, "Count")

	require.NoError(t, NewEngine(sheet).Render(context.Background(), sec))

	// records have no columns to land in, only the summary uses them
	assert.Equal(t, [][]string{{"Totals only"}, {"Count"}}, grid(sheet))
}

func TestEngine_TooDeep(t *testing.T) {
	sheet := newSheet(t)
	root := &Section{Title: "root"}
	cur := root
	for i := 0; i < MaxDepth+1; i++ {
		next := &Section{Title: "n"}
		cur.AddChild(next)
		cur = next
	}
	err := NewEngine(sheet).Render(context.Background(), root)
	assert.ErrorIs(t, err, ErrSectionTooDeep)

	cyclic := &Section{Title: "loop"}
	cyclic.AddChild(cyclic)
	assert.ErrorIs(t, NewEngine(sheet).Render(context.Background(), cyclic), ErrSectionTooDeep)
	assert.Equal(t, 0, sheet.RowCount())
}

func TestEngine_CursorAndAppend(t *testing.T) {
	sheet := newSheet(t)
	sheet.AppendRow("Preamble")

	e := NewEngine(sheet)
	assert.Equal(t, 1, e.Cursor())
	e.Append(NewSection("A", nil), NewSection("B", nil))
	require.NoError(t, e.Render(context.Background(), NewSection("C", nil)))
	assert.Equal(t, 4, e.Cursor())
	assert.Equal(t, [][]string{{"Preamble"}, {"A"}, {"B"}, {"C"}}, grid(sheet))

	other := newSheet(t)
	require.NoError(t, NewEngine(other, WithStartRow(3), WithShading(false)).Render(context.Background(), NewSection("X", nil)))
	c, _ := other.Cell(3, 0)
	assert.Equal(t, "X", c.Value.Text())
	assert.Equal(t, "", c.Style.Background())
}

func TestEngine_ColumnWidths(t *testing.T) {
	sheet := newSheet(t)
	sheet.ColumnAt(1).SetWidth(8)
	sec := NewSection("", people(), Field{Path: "name", Width: 20}, Field{Path: "age", Width: 12})

	require.NoError(t, NewEngine(sheet).Render(context.Background(), sec))
	assert.Equal(t, float64(20), sheet.Column(0).Width())
	assert.Equal(t, float64(8), sheet.Column(1).Width(), "explicit widths are kept")
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewEngine(newSheet(t)).Render(ctx, NewSection("x", nil))
	assert.ErrorIs(t, err, context.Canceled)
}
