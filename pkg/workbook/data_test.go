package workbook

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleWorkbook(t *testing.T) *Workbook {
	t.Helper()
	wb := New().SetProperty("title", "Roster").SetProperty("creator", "hr")

	s, err := wb.AddSheet("People")
	require.NoError(t, err)
	s.AppendRow("Name", "Age", "Joined", "Active", "Score")
	s.AppendRow("John", 30, time.Date(2021, 5, 4, 0, 0, 0, 0, time.UTC), true, 0.1)
	s.AppendRow("Jane", 25, nil, false, math.Inf(1))
	s.SetFormula(3, 1, "SUM(B2:B3)")
	s.SetCellStyle(0, 0, HeaderStyle())
	s.SetCellStyle(3, 1, NewStyleBuilder().Italic().FontSize(9).Build())
	s.Row(1).SetOutlineLevel(1).SetHeight(18)
	s.Row(2).SetOutlineLevel(1).SetHidden(true)
	s.Row(3).SetCollapsed(true)
	s.ColumnAt(0).SetWidth(24)
	s.ColumnAt(2).SetHidden(true).SetOutlineLevel(2)
	require.NoError(t, s.MergeCells(Range{StartRow: 4, StartCol: 0, EndRow: 4, EndCol: 4}))
	require.NoError(t, s.SetFreezePane(1, 0))
	require.NoError(t, s.SetAutoFilter(Range{EndRow: 2, EndCol: 4}))
	s.SetPrintOptions(PrintOptions{Orientation: "landscape", FitToWidth: 1})

	_, err = wb.AddSheet("Empty")
	require.NoError(t, err)
	return wb
}

func TestData_RoundTrip(t *testing.T) {
	wb := sampleWorkbook(t)

	back, err := FromData(ToData(wb))
	require.NoError(t, err)
	assert.Equal(t, wb, back)
}

func TestData_RoundTripZonedDates(t *testing.T) {
	wb := New()
	s, err := wb.AddSheet("Dates")
	require.NoError(t, err)
	s.AppendRow(
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600)),
		time.Date(2024, 1, 1, 0, 30, 0, 0, time.FixedZone("", -5*3600)),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("", 0)),
		time.Date(2024, 1, 1, 23, 15, 0, 0, time.FixedZone("IST", 19800)),
	)

	back, err := FromData(ToData(wb))
	require.NoError(t, err)
	assert.Equal(t, wb, back)

	raw, err := json.Marshal(ToData(wb))
	require.NoError(t, err)
	var data WorkbookData
	require.NoError(t, json.Unmarshal(raw, &data))
	back, err = FromData(data)
	require.NoError(t, err)
	assert.Equal(t, wb, back)

	cet, _ := back.Sheet(0).Cell(0, 0)
	name, offset := cet.Value.Time().Zone()
	assert.Equal(t, "CET", name)
	assert.Equal(t, 3600, offset)
	// the calendar date keeps the wall clock of the original zone
	ist, _ := back.Sheet(0).Cell(0, 3)
	assert.Equal(t, "2024-01-01", ist.Value.Display())
}

func TestData_RoundTripThroughJSONAndYAML(t *testing.T) {
	wb := sampleWorkbook(t)
	data := ToData(wb)

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	var fromJSON WorkbookData
	require.NoError(t, json.Unmarshal(raw, &fromJSON))
	back, err := FromData(fromJSON)
	require.NoError(t, err)
	assert.Equal(t, wb, back)

	ydoc, err := yaml.Marshal(data)
	require.NoError(t, err)
	var fromYAML WorkbookData
	require.NoError(t, yaml.Unmarshal(ydoc, &fromYAML))
	back, err = FromData(fromYAML)
	require.NoError(t, err)
	assert.Equal(t, wb, back)
}

func TestData_StylePresence(t *testing.T) {
	// an explicitly-false flag survives, an unset one stays unset
	d := StyleData{Bold: boolPtr(false), Color: stringPtr("#ABCDEF")}
	s := StyleFromData(d)
	assert.False(t, s.IsZero())
	assert.Equal(t, "ABCDEF", s.Color())

	merged := NewStyleBuilder().Bold().Italic().Build().Merge(s)
	assert.False(t, merged.Bold())
	assert.True(t, merged.Italic())
}

func TestFromData_Errors(t *testing.T) {
	_, err := FromData(WorkbookData{Sheets: []SheetData{{Name: "A"}, {Name: "A"}}})
	assert.ErrorIs(t, err, ErrDuplicateSheet)

	_, err = FromData(WorkbookData{Sheets: []SheetData{{
		Name: "Bad",
		Rows: []RowData{{Cells: []CellData{{Kind: "number", Value: "abc"}}}},
	}}})
	assert.Error(t, err)

	_, err = FromData(WorkbookData{Sheets: []SheetData{{
		Name:   "Overlap",
		Merges: []Range{{EndRow: 1, EndCol: 1}, {StartRow: 1, StartCol: 1, EndRow: 2, EndCol: 2}},
	}}})
	var rangeErr *InvalidRangeError
	assert.ErrorAs(t, err, &rangeErr)
}
