package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/expr-lang/expr"
	"gopkg.in/yaml.v3"

	"github.com/locvowork/reportbook/pkg/aggregate"
	"github.com/locvowork/reportbook/pkg/record"
	"github.com/locvowork/reportbook/pkg/workbook"
)

// ErrMissingSource is returned when a section names a record set that was
// not supplied to Build.
var ErrMissingSource = errors.New("record source not provided")

// =============================================================================
// YAML model
// =============================================================================

// Definition is a declarative report: workbook properties plus sheets of
// sections bound by name to record sets.
type Definition struct {
	Properties map[string]string `yaml:"properties"`
	Sheets     []SheetDef        `yaml:"sheets"`
}

type SheetDef struct {
	Name       string                 `yaml:"name"`
	FreezeRows int                    `yaml:"freeze_rows"`
	FreezeCols int                    `yaml:"freeze_cols"`
	AutoFilter string                 `yaml:"auto_filter"` // e.g. "A2:D20"
	Print      *workbook.PrintOptions `yaml:"print"`
	Indicator  bool                   `yaml:"indicator"`
	Shading    *bool                  `yaml:"shading"` // default true
	Sections   []SectionDef           `yaml:"sections"`
}

type FieldDef struct {
	Path  string              `yaml:"path"`
	Label string              `yaml:"label"`
	Width float64             `yaml:"width"`
	Style *workbook.StyleData `yaml:"style"`
}

type SummaryDef struct {
	Fields []string `yaml:"fields"`
	Func   string   `yaml:"func"`
	Label  string   `yaml:"label"`
}

type RuleDef struct {
	Field string             `yaml:"field"`
	Expr  string             `yaml:"expr"`
	Style workbook.StyleData `yaml:"style"`
}

type MeasureDef struct {
	Path  string `yaml:"path"`
	Func  string `yaml:"func"`
	Label string `yaml:"label"`
}

type PivotDef struct {
	Rows       []string     `yaml:"rows"`
	Columns    []string     `yaml:"columns"`
	Measures   []MeasureDef `yaml:"measures"`
	Filter     string       `yaml:"filter"` // expression over the record's keys
	Subtotals  bool         `yaml:"subtotals"`
	GrandTotal bool         `yaml:"grand_total"`
}

type TimelineDef struct {
	Date   string `yaml:"date"`
	Period string `yaml:"period"`
	Trend  string `yaml:"trend"`
}

type HierarchyDef struct {
	Title         string `yaml:"title"`
	Children      string `yaml:"children"`
	CountChildren bool   `yaml:"count_children"`
}

// SectionDef is one section. At most one of GroupBy, Pivot, Timeline and
// Hierarchy may be set; none means a plain section.
type SectionDef struct {
	Title     string        `yaml:"title"`
	Source    string        `yaml:"source"` // inherited by children when empty
	Level     int           `yaml:"level"`
	Collapsed bool          `yaml:"collapsed"`
	Fields    []FieldDef    `yaml:"fields"`
	GroupBy   []string      `yaml:"group_by"`
	Nested    bool          `yaml:"nested"` // one level per group_by path instead of a composite key
	Pivot     *PivotDef     `yaml:"pivot"`
	Timeline  *TimelineDef  `yaml:"timeline"`
	Hierarchy *HierarchyDef `yaml:"hierarchy"`
	Summary   *SummaryDef   `yaml:"summary"`
	Rules     []RuleDef     `yaml:"rules"`
	Children  []SectionDef  `yaml:"children"`
}

// =============================================================================
// Loading
// =============================================================================

// LoadDefinition decodes a YAML definition. Unknown keys are rejected.
func LoadDefinition(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode report definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

func LoadDefinitionString(s string) (*Definition, error) {
	return LoadDefinition(bytes.NewBufferString(s))
}

func LoadDefinitionFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadDefinition(f)
}

// Validate checks the structure without touching any data.
func (d *Definition) Validate() error {
	if len(d.Sheets) == 0 {
		return errors.New("report definition has no sheets")
	}
	for _, sh := range d.Sheets {
		if sh.Name == "" {
			return workbook.ErrEmptySheetName
		}
		for _, s := range sh.Sections {
			if err := s.validate(0); err != nil {
				return fmt.Errorf("sheet %q: %w", sh.Name, err)
			}
		}
	}
	return nil
}

func (s SectionDef) validate(depth int) error {
	if depth >= MaxDepth {
		return ErrSectionTooDeep
	}
	kinds := 0
	if len(s.GroupBy) > 0 {
		kinds++
	}
	for _, set := range []bool{s.Pivot != nil, s.Timeline != nil, s.Hierarchy != nil} {
		if set {
			kinds++
		}
	}
	if kinds > 1 {
		return fmt.Errorf("section %q: group_by, pivot, timeline and hierarchy are mutually exclusive", s.Title)
	}
	if s.Summary != nil && s.Summary.Func != "" {
		if _, err := aggregate.ParseFunc(s.Summary.Func); err != nil {
			return fmt.Errorf("section %q: %w", s.Title, err)
		}
	}
	for _, c := range s.Children {
		if err := c.validate(depth + 1); err != nil {
			return err
		}
	}
	return nil
}

// Sources lists the record-set names the definition reads, in first-use order.
func (d *Definition) Sources() []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(defs []SectionDef, inherited string, depth int)
	walk = func(defs []SectionDef, inherited string, depth int) {
		if depth >= MaxDepth {
			return
		}
		for _, s := range defs {
			src := s.Source
			if src == "" {
				src = inherited
			}
			if src != "" && !seen[src] {
				seen[src] = true
				out = append(out, src)
			}
			walk(s.Children, src, depth+1)
		}
	}
	for _, sh := range d.Sheets {
		walk(sh.Sections, "", 0)
	}
	return out
}

// =============================================================================
// Building
// =============================================================================

// Build renders the definition against data, keyed by source name. Each
// source must be a slice of records.
func (d *Definition) Build(ctx context.Context, data map[string]interface{}) (*workbook.Workbook, error) {
	wb := workbook.New()
	for k, v := range d.Properties {
		wb.SetProperty(k, v)
	}
	for _, sh := range d.Sheets {
		sheet, err := wb.AddSheet(sh.Name)
		if err != nil {
			return nil, err
		}
		sections := make([]*Section, 0, len(sh.Sections))
		for _, sd := range sh.Sections {
			s, err := sd.build(data, "", 0)
			if err != nil {
				return nil, fmt.Errorf("sheet %q: %w", sh.Name, err)
			}
			sections = append(sections, s)
		}

		shading := sh.Shading == nil || *sh.Shading
		engine := NewEngine(sheet, WithIndicator(sh.Indicator), WithShading(shading))
		if err := engine.Render(ctx, sections...); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sh.Name, err)
		}

		if sh.FreezeRows > 0 || sh.FreezeCols > 0 {
			if err := sheet.SetFreezePane(sh.FreezeRows, sh.FreezeCols); err != nil {
				return nil, fmt.Errorf("sheet %q: %w", sh.Name, err)
			}
		}
		if sh.AutoFilter != "" {
			rng, err := workbook.ParseRange(sh.AutoFilter)
			if err == nil {
				err = sheet.SetAutoFilter(rng)
			}
			if err != nil {
				return nil, fmt.Errorf("sheet %q: %w", sh.Name, err)
			}
		}
		if sh.Print != nil {
			sheet.SetPrintOptions(*sh.Print)
		}
	}
	return wb, nil
}

func (s SectionDef) records(data map[string]interface{}, inherited string) ([]interface{}, string, error) {
	src := s.Source
	if src == "" {
		src = inherited
	}
	if src == "" {
		return nil, "", nil
	}
	raw, ok := data[src]
	if !ok {
		return nil, src, fmt.Errorf("section %q source %q: %w", s.Title, src, ErrMissingSource)
	}
	recs, err := record.Slice(raw)
	if err != nil {
		return nil, src, fmt.Errorf("section %q source %q: %w", s.Title, src, err)
	}
	return recs, src, nil
}

func (s SectionDef) build(data map[string]interface{}, inherited string, depth int) (*Section, error) {
	if depth >= MaxDepth {
		return nil, ErrSectionTooDeep
	}
	recs, src, err := s.records(data, inherited)
	if err != nil {
		return nil, err
	}
	fields := s.fields()
	rules := s.rules()
	summary, err := s.summary()
	if err != nil {
		return nil, err
	}

	var out *Section
	switch {
	case len(s.GroupBy) > 0:
		tmpl := Section{Title: s.Title, Level: s.Level, Collapsed: s.Collapsed, Fields: fields, Rules: rules, Summary: summary}
		if s.Nested {
			out = NestedGroupBy(tmpl, recs, KeyPaths(s.GroupBy...)...)
		} else {
			out = MultiGroupBy(tmpl, recs, KeyPaths(s.GroupBy...)...)
		}
	case s.Pivot != nil:
		out, err = s.Pivot.build(s, recs)
	case s.Timeline != nil:
		period, perr := ParsePeriod(defaultString(s.Timeline.Period, string(Month)))
		if perr != nil {
			return nil, fmt.Errorf("section %q: %w", s.Title, perr)
		}
		out, err = Timeline(recs, TimelineSpec{
			Title:     s.Title,
			DatePath:  s.Timeline.Date,
			Period:    period,
			Fields:    fields,
			TrendPath: s.Timeline.Trend,
			Summary:   summary,
			Rules:     rules,
			Collapsed: s.Collapsed,
			Level:     s.Level,
		})
	case s.Hierarchy != nil:
		var nodes []*Section
		nodes, err = Hierarchy(recs, HierarchySpec{
			Title:         TitleAt(s.Hierarchy.Title),
			Children:      ChildrenAt(s.Hierarchy.Children),
			Fields:        fields,
			CountChildren: s.Hierarchy.CountChildren,
			Level:         s.Level + 1,
		})
		out = &Section{Title: s.Title, Level: s.Level, Collapsed: s.Collapsed, Children: nodes}
	default:
		out = &Section{
			Title:     s.Title,
			Level:     s.Level,
			Collapsed: s.Collapsed,
			Records:   recs,
			Fields:    fields,
			Rules:     rules,
			Summary:   summary,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", s.Title, err)
	}

	for _, cd := range s.Children {
		child, err := cd.build(data, src, depth+1)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	return out, nil
}

func (s SectionDef) fields() []Field {
	if len(s.Fields) == 0 {
		return nil
	}
	out := make([]Field, len(s.Fields))
	for i, fd := range s.Fields {
		out[i] = Field{Path: fd.Path, Label: fd.Label, Width: fd.Width}
		if fd.Style != nil {
			st := workbook.StyleFromData(*fd.Style)
			out[i].Style = &st
		}
	}
	return out
}

func (s SectionDef) rules() []Rule {
	if len(s.Rules) == 0 {
		return nil
	}
	out := make([]Rule, len(s.Rules))
	for i, rd := range s.Rules {
		out[i] = Rule{Field: rd.Field, Expr: rd.Expr, Style: workbook.StyleFromData(rd.Style)}
	}
	return out
}

func (s SectionDef) summary() (*Summary, error) {
	if s.Summary == nil {
		return nil, nil
	}
	fn, err := aggregate.ParseFunc(defaultString(s.Summary.Func, string(aggregate.Sum)))
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", s.Title, err)
	}
	return &Summary{Fields: s.Summary.Fields, Func: fn, Label: s.Summary.Label}, nil
}

func (p *PivotDef) build(s SectionDef, recs []interface{}) (*Section, error) {
	spec := PivotSpec{
		Title:      s.Title,
		Rows:       p.Rows,
		Columns:    p.Columns,
		Subtotals:  p.Subtotals,
		GrandTotal: p.GrandTotal,
		Level:      s.Level,
	}
	for _, md := range p.Measures {
		fn, err := aggregate.ParseFunc(defaultString(md.Func, string(aggregate.Sum)))
		if err != nil {
			return nil, err
		}
		spec.Measures = append(spec.Measures, Measure{Path: md.Path, Func: fn, Label: md.Label})
	}
	if p.Filter != "" {
		program, err := expr.Compile(p.Filter, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("pivot filter %q: %w", p.Filter, err)
		}
		spec.Filter = func(rec interface{}) bool {
			out, err := expr.Run(program, filterEnv(rec))
			if err != nil {
				return false
			}
			b, ok := out.(bool)
			return ok && b
		}
	}
	return Pivot(recs, spec)
}

// filterEnv exposes a map record's keys at the top level and the whole record
// as "record". Decoded JSON numbers are converted so comparisons work.
func filterEnv(rec interface{}) map[string]interface{} {
	env := map[string]interface{}{}
	if m, ok := rec.(map[string]interface{}); ok {
		for k, v := range m {
			if n, isNum := v.(json.Number); isNum {
				v = workbook.Classify(n).Native()
			}
			env[k] = v
		}
	}
	env["record"] = rec
	return env
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
