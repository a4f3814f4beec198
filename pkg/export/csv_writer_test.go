package export

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/reportbook/pkg/workbook"
)

func TestCSVWriter_Basic(t *testing.T) {
	out, err := NewCSVWriter().Write(context.Background(), peopleWorkbook(t), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Name,Age\nJohn,30\nJane,25", string(out))
}

func TestCSVWriter_Escaping(t *testing.T) {
	wb := workbook.New()
	s, _ := wb.AddSheet("Notes")
	s.AppendRow("id", "note")
	s.AppendRow(1, `say "hi", then leave`)
	s.AppendRow(2, "line one\nline two")
	s.AppendRow(3, " padded ")

	out, err := NewCSVWriter().Write(context.Background(), wb, Options{})
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(string(out)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "note"},
		{"1", `say "hi", then leave`},
		{"2", "line one\nline two"},
		{"3", " padded "},
	}, records)
	assert.Contains(t, string(out), "\n3, padded ")
}

func TestCSVWriter_RaggedRows(t *testing.T) {
	wb := workbook.New()
	s, _ := wb.AddSheet("Ragged")
	s.AppendRow("a", "b", "c")
	s.AppendRow("d")
	s.AppendRow()

	out, err := NewCSVWriter().Write(context.Background(), wb, Options{})
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\nd\n", string(out))
}

func TestCSVWriter_Extras(t *testing.T) {
	opts := Options{Extra: map[string]string{"delimiter": ";", "bom": "true"}}
	out, err := NewCSVWriter().Write(context.Background(), peopleWorkbook(t), opts)
	require.NoError(t, err)
	assert.Equal(t, "\uFEFFName;Age\nJohn;30\nJane;25", string(out))

	// multi-character delimiters fall back to a comma
	opts = Options{Extra: map[string]string{"delimiter": "||"}}
	out, err = NewCSVWriter().Write(context.Background(), peopleWorkbook(t), opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "Name,Age"))
}

func TestCSVWriter_SheetSelectionAndHidden(t *testing.T) {
	wb := peopleWorkbook(t)
	s, _ := wb.AddSheet("Second")
	s.AppendRow("x")
	s.AppendRow("hidden").SetHidden(true)
	s.AppendRow("y")

	out, err := NewCSVWriter().Write(context.Background(), wb, Options{SheetName: "Second"})
	require.NoError(t, err)
	assert.Equal(t, "x\nhidden\ny", string(out))

	out, err = NewCSVWriter().Write(context.Background(), wb, Options{SheetName: "Second", IncludeHidden: Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, "x\ny", string(out))

	// hidden filtering must not disturb the sheet
	assert.Equal(t, 3, s.RowCount())
	assert.Equal(t, "hidden", s.Row(1).Cells()[0].Value.Display())

	_, err = NewCSVWriter().Write(context.Background(), wb, Options{SheetName: "Nope"})
	assert.ErrorIs(t, err, ErrSheetNotFound)
}
