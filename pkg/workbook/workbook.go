// Package workbook is the in-memory document model: workbooks of named
// worksheets holding rows, columns, styled cells and merge regions.
//
// A Workbook has a single writer. Nothing here takes a lock; mutating one
// Workbook from several goroutines at once is the caller's responsibility.
package workbook

import "fmt"

// Workbook owns an ordered list of worksheets and a property map.
type Workbook struct {
	sheets []*Worksheet
	props  map[string]string
}

// New creates an empty workbook.
func New() *Workbook {
	return &Workbook{props: make(map[string]string)}
}

// AddSheet appends a new, empty worksheet. Names must be non-empty and unique
// within the workbook.
func (w *Workbook) AddSheet(name string) (*Worksheet, error) {
	if name == "" {
		return nil, ErrEmptySheetName
	}
	if w.SheetByName(name) != nil {
		return nil, fmt.Errorf("add sheet %q: %w", name, ErrDuplicateSheet)
	}
	s := &Worksheet{name: name}
	w.sheets = append(w.sheets, s)
	return s, nil
}

// RemoveSheet deletes the sheet at index i. Out-of-range indices are ignored.
func (w *Workbook) RemoveSheet(i int) *Workbook {
	if i < 0 || i >= len(w.sheets) {
		return w
	}
	w.sheets = append(w.sheets[:i], w.sheets[i+1:]...)
	if len(w.sheets) == 0 {
		w.sheets = nil
	}
	return w
}

// Sheet returns the sheet at index i, or nil when out of range.
func (w *Workbook) Sheet(i int) *Worksheet {
	if i < 0 || i >= len(w.sheets) {
		return nil
	}
	return w.sheets[i]
}

// SheetByName returns the sheet with the given name, or nil.
func (w *Workbook) SheetByName(name string) *Worksheet {
	for _, s := range w.sheets {
		if s.name == name {
			return s
		}
	}
	return nil
}

// Sheets returns the sheets in order.
func (w *Workbook) Sheets() []*Worksheet {
	out := make([]*Worksheet, len(w.sheets))
	copy(out, w.sheets)
	return out
}

func (w *Workbook) SheetCount() int { return len(w.sheets) }

// SetProperty stores a document property such as "title" or "creator".
func (w *Workbook) SetProperty(key, value string) *Workbook {
	if w.props == nil {
		w.props = make(map[string]string)
	}
	w.props[key] = value
	return w
}

func (w *Workbook) Property(key string) (string, bool) {
	v, ok := w.props[key]
	return v, ok
}

// Properties returns a copy of the property map.
func (w *Workbook) Properties() map[string]string {
	out := make(map[string]string, len(w.props))
	for k, v := range w.props {
		out[k] = v
	}
	return out
}
