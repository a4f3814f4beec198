package workbook

import (
	"errors"
	"fmt"
)

// ErrDuplicateSheet indicates a sheet with the same name already exists.
var ErrDuplicateSheet = errors.New("duplicate sheet name")

// ErrEmptySheetName indicates a sheet was added without a name.
var ErrEmptySheetName = errors.New("sheet name is empty")

// InvalidRangeError reports a malformed, inverted or overlapping range.
type InvalidRangeError struct {
	Range  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %q: %s", e.Range, e.Reason)
}

// NewInvalidRangeError creates a new InvalidRangeError.
func NewInvalidRangeError(rng, reason string) *InvalidRangeError {
	return &InvalidRangeError{Range: rng, Reason: reason}
}
