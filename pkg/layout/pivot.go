package layout

import (
	"fmt"
	"strings"

	"github.com/locvowork/reportbook/pkg/aggregate"
	"github.com/locvowork/reportbook/pkg/workbook"
)

// Measure is one aggregate shown in every pivot cell.
type Measure struct {
	Path  string
	Func  aggregate.Func
	Label string
}

func (m Measure) header() string {
	if m.Label != "" {
		return m.Label
	}
	return fmt.Sprintf("%s of %s", m.Func, m.Path)
}

// PivotSpec describes a cross-tabulation. Row dimensions form the outer
// groups, column dimensions the lines inside each group.
type PivotSpec struct {
	Title    string
	Rows     []string
	Columns  []string
	Measures []Measure
	// Filter restricts the grouped records. The grand total ignores it.
	Filter     func(rec interface{}) bool
	Subtotals  bool
	GrandTotal bool
	Level      int
}

const (
	pivotColumnKey   = "column"
	SubtotalLabel    = "Subtotal"
	GrandTotalLabel  = "Grand Total"
	allColumnsLabel  = "All"
	defaultColHeader = "Column"
)

func measureKey(i int) string { return fmt.Sprintf("m%d", i) }

// Pivot builds a section with one child per row group. Each child lists the
// column groups present in it as rows of measure values, followed by an
// optional subtotal. The grand total, when requested, is appended as the
// last child and is computed over all records.
func Pivot(records []interface{}, spec PivotSpec) (*Section, error) {
	if len(spec.Rows) == 0 {
		return nil, fmt.Errorf("pivot %q: at least one row dimension is required", spec.Title)
	}
	if len(spec.Measures) == 0 {
		return nil, fmt.Errorf("pivot %q: at least one measure is required", spec.Title)
	}
	for i, m := range spec.Measures {
		if _, err := aggregate.ParseFunc(string(m.Func)); err != nil {
			return nil, fmt.Errorf("pivot %q measure %d: %w", spec.Title, i, err)
		}
	}

	filtered := records
	if spec.Filter != nil {
		filtered = make([]interface{}, 0, len(records))
		for _, rec := range records {
			if spec.Filter(rec) {
				filtered = append(filtered, rec)
			}
		}
	}

	fields := pivotFields(spec)
	measurePaths := make([]string, len(spec.Measures))
	for i := range spec.Measures {
		measurePaths[i] = measureKey(i)
	}

	rowKey := CompositeKey(KeyPaths(spec.Rows...)...)
	var colKey KeyFunc
	if len(spec.Columns) > 0 {
		colKey = CompositeKey(KeyPaths(spec.Columns...)...)
	}

	parent := &Section{Title: spec.Title, Level: spec.Level}
	for _, rg := range Partition(filtered, rowKey) {
		child := &Section{Title: rg.Key, Level: spec.Level + 1, Fields: fields}
		if colKey == nil {
			child.Records = []interface{}{pivotLine(allColumnsLabel, rg.Records, spec.Measures)}
		} else {
			for _, cg := range Partition(rg.Records, colKey) {
				child.Records = append(child.Records, pivotLine(cg.Key, cg.Records, spec.Measures))
			}
		}
		if spec.Subtotals {
			child.Summary = &Summary{
				Fields: measurePaths,
				Label:  SubtotalLabel,
				Values: measureValues(rg.Records, spec.Measures),
			}
		}
		parent.Children = append(parent.Children, child)
	}

	if spec.GrandTotal {
		parent.Children = append(parent.Children, &Section{
			Title:    GrandTotalLabel,
			Level:    spec.Level + 1,
			Fields:   fields,
			NoHeader: true,
			Records:  []interface{}{pivotLine(allColumnsLabel, records, spec.Measures)},
		})
	}
	return parent, nil
}

func pivotFields(spec PivotSpec) []Field {
	header := defaultColHeader
	if len(spec.Columns) > 0 {
		header = strings.Join(spec.Columns, KeySeparator)
	}
	fields := []Field{{Path: pivotColumnKey, Label: header}}
	for i, m := range spec.Measures {
		fields = append(fields, Field{Path: measureKey(i), Label: m.header()})
	}
	return fields
}

func pivotLine(column string, records []interface{}, measures []Measure) map[string]interface{} {
	line := map[string]interface{}{pivotColumnKey: column}
	for k, v := range measureValues(records, measures) {
		line[k] = v
	}
	return line
}

func measureValues(records []interface{}, measures []Measure) map[string]workbook.Value {
	out := make(map[string]workbook.Value, len(measures))
	for i, m := range measures {
		fn, _ := aggregate.ParseFunc(string(m.Func))
		out[measureKey(i)] = workbook.NumberValue(aggregate.Compute(records, m.Path, fn))
	}
	return out
}
