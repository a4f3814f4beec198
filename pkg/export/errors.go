package export

import (
	"errors"
	"fmt"
)

// ErrNilWorkbook indicates Export was called without a workbook.
var ErrNilWorkbook = errors.New("workbook is nil")

// ErrNoSheets indicates the workbook has nothing to export.
var ErrNoSheets = errors.New("workbook has no sheets")

// ErrSheetNotFound indicates Options.SheetName names no sheet.
var ErrSheetNotFound = errors.New("sheet not found")

// UnsupportedFormatError is returned before any work starts when the
// requested format has no registered writer.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q", e.Format)
}

// WriteError wraps a failure inside a writer.
type WriteError struct {
	Format Format
	Sheet  string
	Err    error
}

func (e *WriteError) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("%s export: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("%s export of sheet %q: %v", e.Format, e.Sheet, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// NewWriteError creates a new WriteError.
func NewWriteError(format Format, sheet string, err error) *WriteError {
	return &WriteError{Format: format, Sheet: sheet, Err: err}
}
