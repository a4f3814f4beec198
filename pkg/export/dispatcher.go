package export

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/locvowork/reportbook/pkg/workbook"
)

// Writer renders a workbook into one format.
type Writer interface {
	Write(ctx context.Context, wb *workbook.Workbook, opts Options) ([]byte, error)
	MediaType() string
}

// Dispatcher selects a Writer by format key.
type Dispatcher struct {
	mu      sync.RWMutex
	writers map[Format]Writer
}

// NewDispatcher returns a dispatcher with the csv, json and xlsx writers.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{writers: make(map[Format]Writer)}
	d.Register(FormatCSV, NewCSVWriter())
	d.Register(FormatJSON, NewJSONWriter())
	d.Register(FormatXLSX, NewXLSXWriter())
	return d
}

// Register adds or replaces the writer for a format.
func (d *Dispatcher) Register(format Format, w Writer) *Dispatcher {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writers[ParseFormat(string(format))] = w
	return d
}

// Formats lists the registered format keys in sorted order.
func (d *Dispatcher) Formats() []Format {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Format, 0, len(d.writers))
	for f := range d.writers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Writer resolves a format key, applying the default for an empty key.
func (d *Dispatcher) Writer(format Format) (Writer, error) {
	f := ParseFormat(string(format))
	d.mu.RLock()
	w, ok := d.writers[f]
	d.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
	return w, nil
}

// MediaType returns the media type of a format's writer.
func (d *Dispatcher) MediaType(format Format) (string, error) {
	w, err := d.Writer(format)
	if err != nil {
		return "", err
	}
	return w.MediaType(), nil
}

func (d *Dispatcher) validate(wb *workbook.Workbook, opts Options) (Writer, error) {
	w, err := d.Writer(opts.Format)
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, ErrNilWorkbook
	}
	if wb.SheetCount() == 0 {
		return nil, ErrNoSheets
	}
	if opts.SheetName != "" && wb.SheetByName(opts.SheetName) == nil {
		return nil, fmt.Errorf("%q: %w", opts.SheetName, ErrSheetNotFound)
	}
	return w, nil
}

// Export renders wb synchronously. Either the complete output or an error is
// returned, never partial bytes.
func (d *Dispatcher) Export(ctx context.Context, wb *workbook.Workbook, opts Options) ([]byte, error) {
	w, err := d.validate(wb, opts)
	if err != nil {
		return nil, err
	}
	return d.run(ctx, w, wb, opts)
}

func (d *Dispatcher) run(ctx context.Context, w Writer, wb *workbook.Workbook, opts Options) ([]byte, error) {
	format := ParseFormat(string(opts.Format))
	out, err := w.Write(ctx, wb, opts)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("format", string(format)).Msg("export failed")
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().
		Str("format", string(format)).
		Int("sheets", wb.SheetCount()).
		Int("bytes", len(out)).
		Msg("export finished")
	return out, nil
}

// ExportAsync validates the request synchronously, then renders in a
// goroutine. The workbook must not be mutated until the job is done.
func (d *Dispatcher) ExportAsync(ctx context.Context, wb *workbook.Workbook, opts Options) (*Job, error) {
	w, err := d.validate(wb, opts)
	if err != nil {
		return nil, err
	}
	job := &Job{done: make(chan struct{}), mediaType: w.MediaType()}
	go func() {
		defer close(job.done)
		job.data, job.err = d.run(ctx, w, wb, opts)
	}()
	return job, nil
}

// Job is a pending export.
type Job struct {
	done      chan struct{}
	data      []byte
	err       error
	mediaType string
}

// Done is closed when the export has finished.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the export finishes.
func (j *Job) Wait() ([]byte, error) {
	<-j.done
	return j.data, j.err
}

func (j *Job) MediaType() string { return j.mediaType }

var defaultDispatcher = NewDispatcher()

// Export renders wb with the default dispatcher.
func Export(ctx context.Context, wb *workbook.Workbook, opts Options) ([]byte, error) {
	return defaultDispatcher.Export(ctx, wb, opts)
}

// ExportAsync starts an export on the default dispatcher.
func ExportAsync(ctx context.Context, wb *workbook.Workbook, opts Options) (*Job, error) {
	return defaultDispatcher.ExportAsync(ctx, wb, opts)
}
