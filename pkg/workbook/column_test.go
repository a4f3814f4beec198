package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnName(t *testing.T) {
	cases := map[int]string{
		1:     "A",
		26:    "Z",
		27:    "AA",
		52:    "AZ",
		702:   "ZZ",
		703:   "AAA",
		16384: "XFD",
	}
	for n, want := range cases {
		assert.Equal(t, want, ColumnName(n), "ColumnName(%d)", n)
		got, err := ColumnNumber(want)
		require.NoError(t, err)
		assert.Equal(t, n, got, "ColumnNumber(%q)", want)
	}
	assert.Equal(t, "", ColumnName(0))
}

func TestColumnNumber_RoundTrip(t *testing.T) {
	for n := 1; n <= 20000; n++ {
		got, err := ColumnNumber(ColumnName(n))
		require.NoError(t, err)
		if got != n {
			t.Fatalf("round trip of %d gave %d", n, got)
		}
	}
}

func TestColumnNumber_Invalid(t *testing.T) {
	_, err := ColumnNumber("")
	assert.Error(t, err)
	_, err = ColumnNumber("A1")
	assert.Error(t, err)

	n, err := ColumnNumber("ab")
	require.NoError(t, err)
	assert.Equal(t, 28, n)
}

func TestCellRef(t *testing.T) {
	assert.Equal(t, "A1", CellRef(0, 0))
	assert.Equal(t, "AA10", CellRef(9, 26))

	r, c, err := ParseCellRef("AA10")
	require.NoError(t, err)
	assert.Equal(t, 9, r)
	assert.Equal(t, 26, c)

	for _, bad := range []string{"", "10", "A", "A0", "A-1", "1A"} {
		_, _, err := ParseCellRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("B2:D5")
	require.NoError(t, err)
	assert.Equal(t, Range{StartRow: 1, StartCol: 1, EndRow: 4, EndCol: 3}, r)
	assert.Equal(t, "B2:D5", r.String())

	single, err := ParseRange("C3")
	require.NoError(t, err)
	assert.Equal(t, "C3:C3", single.String())

	_, err = ParseRange("D5:B2")
	var rangeErr *InvalidRangeError
	assert.ErrorAs(t, err, &rangeErr)

	_, err = ParseRange("A1:B2:C3")
	assert.Error(t, err)
}

func TestRange_Overlaps(t *testing.T) {
	a := Range{StartRow: 0, StartCol: 0, EndRow: 2, EndCol: 2}
	assert.True(t, a.Overlaps(Range{StartRow: 2, StartCol: 2, EndRow: 3, EndCol: 3}))
	assert.False(t, a.Overlaps(Range{StartRow: 3, StartCol: 0, EndRow: 4, EndCol: 0}))
	assert.True(t, a.Contains(1, 1))
	assert.False(t, a.Contains(3, 1))
}
