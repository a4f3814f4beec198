// Package export serializes a finished workbook into CSV, JSON or XLSX bytes.
package export

import (
	"path/filepath"
	"strings"
)

// Format is an export format key.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatXLSX

// ParseFormat normalizes a format key. An empty key yields DefaultFormat;
// "excel" is accepted as an alias for xlsx. Unknown keys are returned as-is
// so that a Dispatcher with custom writers can still resolve them.
func ParseFormat(s string) Format {
	switch f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")); f {
	case "":
		return DefaultFormat
	case "excel":
		return FormatXLSX
	default:
		return Format(f)
	}
}

// Options configures an export. Writers never mutate it.
type Options struct {
	// Filename is advisory; callers use it for download names.
	Filename string
	Format   Format
	// IncludeStyles controls styled output. If nil, defaults to true.
	IncludeStyles *bool
	// IncludeHidden controls whether hidden rows reach CSV and JSON output.
	// If nil, defaults to true. XLSX always keeps hidden rows.
	IncludeHidden *bool
	// SheetName selects the sheet for single-sheet formats. Empty means the first.
	SheetName string
	// Locale is recorded as the document language in XLSX output.
	Locale string
	// Extra carries writer-specific keys such as "pretty" or "delimiter".
	Extra map[string]string
}

// DefaultOptions returns options for an XLSX export.
func DefaultOptions() Options {
	return Options{Format: DefaultFormat}
}

// ShouldIncludeStyles returns whether styles are written.
func (o Options) ShouldIncludeStyles() bool {
	if o.IncludeStyles != nil {
		return *o.IncludeStyles
	}
	return true
}

// ShouldIncludeHidden returns whether hidden rows are written.
func (o Options) ShouldIncludeHidden() bool {
	if o.IncludeHidden != nil {
		return *o.IncludeHidden
	}
	return true
}

// ExtraBool reads a boolean passthrough key.
func (o Options) ExtraBool(key string) bool {
	switch strings.ToLower(o.Extra[key]) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// FilenameFor returns Filename with the extension of format, or "report.<ext>".
func (o Options) FilenameFor(format Format) string {
	name := o.Filename
	if name == "" {
		name = "report"
	}
	ext := "." + string(format)
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// Bool returns a pointer to b, for the *bool option fields.
func Bool(b bool) *bool {
	return &b
}
