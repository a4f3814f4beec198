package layout

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/locvowork/reportbook/pkg/aggregate"
	"github.com/locvowork/reportbook/pkg/record"
	"github.com/locvowork/reportbook/pkg/workbook"
)

// MaxDepth bounds the nesting of a Section tree.
const MaxDepth = 64

// ErrSectionTooDeep is returned for trees nested deeper than MaxDepth,
// which includes trees that contain a cycle.
var ErrSectionTooDeep = errors.New("section tree exceeds maximum depth")

const (
	IndicatorCollapsed = "[+]"
	IndicatorExpanded  = "[-]"
)

// shading holds the title fills for levels 0, 1 and 2. Deeper levels are plain.
var shading = []string{"F2F2F2", "D9D9D9", "BFBFBF"}

// Option configures an Engine.
type Option func(*config)

type config struct {
	startRow     int
	indicator    bool
	shading      bool
	headerStyle  workbook.Style
	summaryStyle workbook.Style
}

func defaultConfig() *config {
	return &config{
		startRow:     -1,
		shading:      true,
		headerStyle:  workbook.HeaderStyle(),
		summaryStyle: workbook.TotalStyle(),
	}
}

// WithStartRow makes the engine write from row n instead of after the last
// allocated row.
func WithStartRow(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.startRow = n
		}
	}
}

// WithIndicator places "[+]" or "[-]" next to every section title.
func WithIndicator(enabled bool) Option {
	return func(c *config) {
		c.indicator = enabled
	}
}

// WithShading toggles depth-based title fills.
func WithShading(enabled bool) Option {
	return func(c *config) {
		c.shading = enabled
	}
}

func WithHeaderStyle(s workbook.Style) Option {
	return func(c *config) {
		c.headerStyle = s
	}
}

func WithSummaryStyle(s workbook.Style) Option {
	return func(c *config) {
		c.summaryStyle = s
	}
}

// Engine writes sections into one worksheet, advancing a shared row cursor.
type Engine struct {
	sheet   *workbook.Worksheet
	cfg     *config
	cursor  int
	pending []*Section
	rules   map[*Section][]compiledRule
}

// NewEngine creates an engine that writes into sheet.
func NewEngine(sheet *workbook.Worksheet, opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cursor := cfg.startRow
	if cursor < 0 {
		cursor = sheet.RowCount()
		for _, m := range sheet.MergeRegions() {
			if m.EndRow >= cursor {
				cursor = m.EndRow + 1
			}
		}
	}
	return &Engine{sheet: sheet, cfg: cfg, cursor: cursor}
}

// Cursor returns the index of the next row the engine will write.
func (e *Engine) Cursor() int { return e.cursor }

// Append queues sections for the next Render call.
func (e *Engine) Append(sections ...*Section) *Engine {
	e.pending = append(e.pending, sections...)
	return e
}

// Render validates the queued sections plus the given ones, then writes them
// depth-first. Nothing is written when validation fails.
func (e *Engine) Render(ctx context.Context, sections ...*Section) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	all := append(e.pending, sections...)
	e.pending = nil

	e.rules = make(map[*Section][]compiledRule)
	for _, s := range all {
		if err := e.prepare(s, 0); err != nil {
			return err
		}
	}

	merges := e.sheet.MergeRegions()
	next := e.cursor
	for _, s := range all {
		if s == nil {
			continue
		}
		var err error
		if next, merges, err = e.plan(s, next, merges); err != nil {
			return err
		}
	}

	start := e.cursor
	for _, s := range all {
		if s == nil {
			continue
		}
		if err := e.emit(s, clampLevel(s.Level)); err != nil {
			return err
		}
	}
	zerolog.Ctx(ctx).Debug().
		Str("sheet", e.sheet.Name()).
		Int("sections", len(all)).
		Int("rows", e.cursor-start).
		Msg("layout rendered")
	return nil
}

func (e *Engine) prepare(s *Section, depth int) error {
	if s == nil {
		return nil
	}
	if depth >= MaxDepth {
		return fmt.Errorf("section %q at depth %d: %w", s.Title, depth, ErrSectionTooDeep)
	}
	if _, seen := e.rules[s]; !seen {
		compiled, err := compileRules(s.Rules)
		if err != nil {
			return fmt.Errorf("section %q: %w", s.Title, err)
		}
		e.rules[s] = compiled
	}
	for _, c := range s.Children {
		if err := e.prepare(c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// plan walks the tree the way emit does without writing, so a title merge
// that would collide with an existing region fails before the first row.
func (e *Engine) plan(s *Section, cursor int, merges []workbook.Range) (int, []workbook.Range, error) {
	if s.Title != "" {
		if rng, ok := e.titleMerge(s, cursor); ok {
			if err := rng.Validate(); err != nil {
				return cursor, merges, fmt.Errorf("section %q title: %w", s.Title, err)
			}
			for _, m := range merges {
				if m.Overlaps(rng) {
					return cursor, merges, fmt.Errorf("section %q title: %w", s.Title,
						workbook.NewInvalidRangeError(rng.String(), "overlaps merged region "+m.String()))
				}
			}
			merges = append(merges, rng)
		}
		cursor++
	}
	if !s.Collapsed && len(s.Fields) > 0 {
		if !s.NoHeader {
			cursor++
		}
		cursor += len(s.Records)
	}
	if s.Summary != nil {
		cursor++
	}
	if s.Collapsed {
		return cursor, merges, nil
	}
	for _, c := range s.Children {
		if c == nil {
			continue
		}
		var err error
		if cursor, merges, err = e.plan(c, cursor, merges); err != nil {
			return cursor, merges, err
		}
	}
	return cursor, merges, nil
}

// titleMerge reports the range a section title spans, if any.
func (e *Engine) titleMerge(s *Section, row int) (workbook.Range, bool) {
	if e.cfg.indicator || len(s.Fields) < 2 {
		return workbook.Range{}, false
	}
	return workbook.Range{StartRow: row, StartCol: 0, EndRow: row, EndCol: len(s.Fields) - 1}, true
}

func (e *Engine) emit(s *Section, level int) error {
	if s.Title != "" {
		if err := e.emitTitle(s, level); err != nil {
			return err
		}
	}
	if !s.Collapsed && len(s.Fields) > 0 {
		if !s.NoHeader {
			e.emitHeader(s.Fields, level+1)
		}
		for _, rec := range s.Records {
			e.emitRecord(s, rec, level+1)
		}
		e.applyWidths(s.Fields)
	}
	if s.Summary != nil {
		e.emitSummary(s, level+2)
	}
	if s.Collapsed {
		return nil
	}
	for _, c := range s.Children {
		if c == nil {
			continue
		}
		if err := e.emit(c, childLevel(c.Level, level)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) emitTitle(s *Section, level int) error {
	if rng, ok := e.titleMerge(s, e.cursor); ok {
		if err := e.sheet.MergeCells(rng); err != nil {
			return fmt.Errorf("section %q title: %w", s.Title, err)
		}
	}
	row := e.sheet.RowAt(e.cursor)
	row.SetCell(0, s.Title).
		SetStyle(0, e.titleStyle(level)).
		SetOutlineLevel(level).
		SetCollapsed(s.Collapsed)
	if e.cfg.indicator {
		ind := IndicatorExpanded
		if s.Collapsed {
			ind = IndicatorCollapsed
		}
		row.SetCell(1, ind)
	}
	e.cursor++
	return nil
}

func (e *Engine) titleStyle(level int) workbook.Style {
	b := workbook.NewStyleBuilder().Bold()
	if e.cfg.shading && level < len(shading) {
		b.Background(shading[level])
	}
	return b.Build()
}

func (e *Engine) emitHeader(fields []Field, level int) {
	row := e.sheet.RowAt(e.cursor).SetOutlineLevel(level)
	for i, f := range fields {
		row.SetCell(i, f.Header())
		if !e.cfg.headerStyle.IsZero() {
			row.SetStyle(i, e.cfg.headerStyle)
		}
	}
	e.cursor++
}

func (e *Engine) emitRecord(s *Section, rec interface{}, level int) {
	row := e.sheet.RowAt(e.cursor).SetOutlineLevel(level)
	rules := e.rules[s]
	for i, f := range s.Fields {
		v, _ := record.Lookup(rec, f.Path)
		row.SetCell(i, v)

		var st workbook.Style
		if f.Style != nil {
			st = *f.Style
		}
		if ruleStyle, ok := matchRule(rules, v, rec, f.Path); ok {
			st = st.Merge(ruleStyle)
		}
		if !st.IsZero() {
			row.SetStyle(i, st)
		}
	}
	e.cursor++
}

// emitSummary aggregates over the section's own records, or over every
// descendant record when the section has none of its own.
func (e *Engine) emitSummary(s *Section, level int) {
	sum := s.Summary
	fn := sum.Func
	if fn == "" {
		fn = aggregate.Sum
	}
	fields := summaryFields(s)
	records := s.Records
	if len(records) == 0 {
		records = descendantRecords(s, 0)
	}

	row := e.sheet.RowAt(e.cursor).SetOutlineLevel(level)
	width := len(fields)
	if width == 0 {
		width = 1
	}
	summarized := make(map[string]bool, len(sum.Fields))
	for _, p := range sum.Fields {
		summarized[p] = true
	}
	for i, f := range fields {
		if !summarized[f.Path] {
			continue
		}
		if v, ok := sum.Values[f.Path]; ok {
			row.SetCell(i, v)
			continue
		}
		row.SetCell(i, aggregate.Compute(records, f.Path, fn))
	}
	if sum.Label != "" && (len(fields) == 0 || !summarized[fields[0].Path]) {
		row.SetCell(0, sum.Label)
	}
	if !e.cfg.summaryStyle.IsZero() {
		for i := 0; i < width; i++ {
			row.SetStyle(i, e.cfg.summaryStyle)
		}
	}
	e.cursor++
}

func (e *Engine) applyWidths(fields []Field) {
	for i, f := range fields {
		if f.Width <= 0 {
			continue
		}
		if col := e.sheet.ColumnAt(i); col.Width() == 0 {
			col.SetWidth(f.Width)
		}
	}
}

func summaryFields(s *Section) []Field {
	if len(s.Fields) > 0 {
		return s.Fields
	}
	for _, c := range s.Children {
		if c == nil {
			continue
		}
		if f := summaryFields(c); len(f) > 0 {
			return f
		}
	}
	return nil
}

func descendantRecords(s *Section, depth int) []interface{} {
	if depth >= MaxDepth {
		return nil
	}
	out := append([]interface{}(nil), s.Records...)
	for _, c := range s.Children {
		if c != nil {
			out = append(out, descendantRecords(c, depth+1)...)
		}
	}
	return out
}

// childLevel nests a child at least one level below its parent.
func childLevel(declared, parent int) int {
	if declared <= parent {
		declared = parent + 1
	}
	return clampLevel(declared)
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > workbook.MaxOutlineLevel {
		return workbook.MaxOutlineLevel
	}
	return level
}
