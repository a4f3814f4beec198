// Package layout expands declarative Section trees into worksheet rows with
// outline metadata. Grouped, hierarchical, pivoted and time-bucketed layouts
// are all built as ordinary Section trees and rendered by the same Engine.
package layout

import (
	"github.com/locvowork/reportbook/pkg/aggregate"
	"github.com/locvowork/reportbook/pkg/workbook"
)

// Field is one column of a section: a dot-path into each record plus an
// optional display label.
type Field struct {
	Path  string
	Label string
	// Width is applied to the column when it has no width yet.
	Width float64
	Style *workbook.Style
}

// NewField returns a field reading path, shown as label.
func NewField(path, label string) Field {
	return Field{Path: path, Label: label}
}

// Fields builds unlabeled fields from paths.
func Fields(paths ...string) []Field {
	out := make([]Field, len(paths))
	for i, p := range paths {
		out[i] = Field{Path: p}
	}
	return out
}

// Header is the text of the field-label row.
func (f Field) Header() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Path
}

// Summary describes the aggregate row emitted after a section's data.
type Summary struct {
	Fields []string
	Func   aggregate.Func
	Label  string
	// Values replaces aggregation for the listed field paths.
	Values map[string]workbook.Value
}

// Rule styles a data cell when it matches. Exactly one of Predicate or Expr
// is expected; Expr is an expression over "value", "record" and "field".
// An empty Field applies the rule to every column.
type Rule struct {
	Field     string
	Predicate func(workbook.Value) bool
	Expr      string
	Style     workbook.Style
}

// Section is the layout input. Children are owned by their parent.
type Section struct {
	Title     string
	Level     int
	Collapsed bool
	Records   []interface{}
	Fields    []Field
	Children  []*Section
	Summary   *Summary
	Rules     []Rule
	// NoHeader suppresses the field-label row.
	NoHeader bool
}

// NewSection creates a level-0 section.
func NewSection(title string, records []interface{}, fields ...Field) *Section {
	return &Section{Title: title, Records: records, Fields: fields}
}

// AddChild appends child and returns s.
func (s *Section) AddChild(child ...*Section) *Section {
	s.Children = append(s.Children, child...)
	return s
}

// AddRule appends a conditional style rule and returns s.
func (s *Section) AddRule(r Rule) *Section {
	s.Rules = append(s.Rules, r)
	return s
}

// SetSummary sets the summary row and returns s.
func (s *Section) SetSummary(fn aggregate.Func, label string, fields ...string) *Section {
	s.Summary = &Summary{Fields: fields, Func: fn, Label: label}
	return s
}

// SetCollapsed sets the collapsed flag and returns s.
func (s *Section) SetCollapsed(collapsed bool) *Section {
	s.Collapsed = collapsed
	return s
}

// CountRecords returns the number of records in s and all of its descendants.
func (s *Section) CountRecords() int {
	n := len(s.Records)
	for _, c := range s.Children {
		n += c.CountRecords()
	}
	return n
}
