package workbook

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnName encodes a 1-based column number in bijective base-26:
// 1 -> "A", 26 -> "Z", 27 -> "AA", 703 -> "AAA". Non-positive input yields "".
func ColumnName(n int) string {
	if n <= 0 {
		return ""
	}
	var buf []byte
	for n > 0 {
		n--
		buf = append(buf, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// ColumnNumber decodes a column name produced by ColumnName. Lower-case
// letters are accepted.
func ColumnNumber(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	n := 0
	for _, r := range strings.ToUpper(name) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column name %q", name)
		}
		n = n*26 + int(r-'A') + 1
	}
	return n, nil
}

// CellRef converts zero-based coordinates to A1 notation.
func CellRef(row, col int) string {
	return ColumnName(col+1) + strconv.Itoa(row+1)
}

// ParseCellRef converts A1 notation to zero-based coordinates.
func ParseCellRef(ref string) (row, col int, err error) {
	ref = strings.TrimSpace(ref)
	i := 0
	for i < len(ref) && ((ref[i] >= 'A' && ref[i] <= 'Z') || (ref[i] >= 'a' && ref[i] <= 'z')) {
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, NewInvalidRangeError(ref, "expected column letters followed by a row number")
	}
	c, err := ColumnNumber(ref[:i])
	if err != nil {
		return 0, 0, NewInvalidRangeError(ref, err.Error())
	}
	r, err := strconv.Atoi(ref[i:])
	if err != nil || r <= 0 {
		return 0, 0, NewInvalidRangeError(ref, "row number must be a positive integer")
	}
	return r - 1, c - 1, nil
}

// Range is an inclusive, zero-based block of cells. Merge regions and
// auto-filter areas are both ranges.
type Range struct {
	StartRow int `json:"start_row" yaml:"start_row"`
	StartCol int `json:"start_col" yaml:"start_col"`
	EndRow   int `json:"end_row" yaml:"end_row"`
	EndCol   int `json:"end_col" yaml:"end_col"`
}

// ParseRange parses "A1:C3" (or a single "B2") into a Range.
func ParseRange(ref string) (Range, error) {
	parts := strings.Split(ref, ":")
	if len(parts) > 2 {
		return Range{}, NewInvalidRangeError(ref, "too many ':' separators")
	}
	r1, c1, err := ParseCellRef(parts[0])
	if err != nil {
		return Range{}, err
	}
	r2, c2 := r1, c1
	if len(parts) == 2 {
		if r2, c2, err = ParseCellRef(parts[1]); err != nil {
			return Range{}, err
		}
	}
	rng := Range{StartRow: r1, StartCol: c1, EndRow: r2, EndCol: c2}
	return rng, rng.Validate()
}

// Validate rejects negative and inverted ranges.
func (r Range) Validate() error {
	if r.StartRow < 0 || r.StartCol < 0 || r.EndRow < 0 || r.EndCol < 0 {
		return NewInvalidRangeError(r.debugString(), "negative coordinate")
	}
	if r.EndRow < r.StartRow || r.EndCol < r.StartCol {
		return NewInvalidRangeError(r.debugString(), "end precedes start")
	}
	return nil
}

// Overlaps reports whether r and o share at least one cell.
func (r Range) Overlaps(o Range) bool {
	return r.StartRow <= o.EndRow && o.StartRow <= r.EndRow &&
		r.StartCol <= o.EndCol && o.StartCol <= r.EndCol
}

// Contains reports whether the zero-based cell lies inside r.
func (r Range) Contains(row, col int) bool {
	return row >= r.StartRow && row <= r.EndRow && col >= r.StartCol && col <= r.EndCol
}

// String renders the range in A1 notation, e.g. "A1:C3".
func (r Range) String() string {
	return CellRef(r.StartRow, r.StartCol) + ":" + CellRef(r.EndRow, r.EndCol)
}

func (r Range) debugString() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.StartRow, r.StartCol, r.EndRow, r.EndCol)
}
