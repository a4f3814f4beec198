package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/locvowork/reportbook/internal/logger"
	"github.com/locvowork/reportbook/internal/source"
	"github.com/locvowork/reportbook/pkg/export"
	"github.com/locvowork/reportbook/pkg/layout"
	"github.com/locvowork/reportbook/pkg/workbook"
)

// ErrEmptyDefinition is returned when a request carries no definition.
var ErrEmptyDefinition = errors.New("report definition is empty")

// RequestError marks a failure caused by the request itself (a malformed
// definition, a missing record set) rather than by the server.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// ExportRequest is one report to render. Data holds inline record sets keyed
// by source name; sources not present there are fetched from the registry.
type ExportRequest struct {
	Definition    string                 `json:"definition"`
	Data          map[string]interface{} `json:"data"`
	Format        string                 `json:"format"`
	Filename      string                 `json:"filename"`
	SheetName     string                 `json:"sheet_name"`
	Locale        string                 `json:"locale"`
	IncludeStyles *bool                  `json:"include_styles"`
	IncludeHidden *bool                  `json:"include_hidden"`
	Extra         map[string]string      `json:"extra"`
}

// ExportResult is a finished export.
type ExportResult struct {
	Format    export.Format
	MediaType string
	Filename  string
	Data      []byte
}

// ReportService renders report definitions into files.
type ReportService interface {
	Render(ctx context.Context, req ExportRequest) (*workbook.Workbook, error)
	Export(ctx context.Context, req ExportRequest) (*ExportResult, error)
	Formats() []export.Format
	MediaType(format export.Format) (string, error)
}

// Config tunes the report service.
type Config struct {
	DefaultFormat string
	Locale        string
	Timeout       time.Duration
	FetchWorkers  int
	FetchRetries  int
}

type reportService struct {
	registry   *source.Registry
	dispatcher *export.Dispatcher
	cfg        Config
}

// NewReportService creates a ReportService. A nil registry limits requests
// to inline data; a nil dispatcher uses the built-in writers.
func NewReportService(reg *source.Registry, d *export.Dispatcher, cfg Config) ReportService {
	if reg == nil {
		reg = source.NewRegistry()
	}
	if d == nil {
		d = export.NewDispatcher()
	}
	return &reportService{registry: reg, dispatcher: d, cfg: cfg}
}

func (s *reportService) Formats() []export.Format {
	return s.dispatcher.Formats()
}

func (s *reportService) MediaType(format export.Format) (string, error) {
	return s.dispatcher.MediaType(format)
}

// Render builds the workbook for req without exporting it.
func (s *reportService) Render(ctx context.Context, req ExportRequest) (*workbook.Workbook, error) {
	if strings.TrimSpace(req.Definition) == "" {
		return nil, &RequestError{Err: ErrEmptyDefinition}
	}
	def, err := layout.LoadDefinitionString(req.Definition)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	data, err := s.collect(ctx, def, req.Data)
	if err != nil {
		return nil, err
	}

	wb, err := def.Build(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RequestError{Err: err}
	}
	return wb, nil
}

// collect merges inline data with the record sets fetched for every other
// source the definition names.
func (s *reportService) collect(ctx context.Context, def *layout.Definition, inline map[string]interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{}, len(inline))
	for k, v := range inline {
		data[k] = v
	}
	var missing []string
	for _, name := range def.Sources() {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return data, nil
	}

	fetched, err := source.FetchAll(ctx, s.registry, missing,
		source.WithWorkers(s.cfg.FetchWorkers),
		source.WithRetry(s.cfg.FetchRetries, nil))
	if err != nil {
		if errors.Is(err, source.ErrUnknownSource) {
			return nil, &RequestError{Err: fmt.Errorf("%w: %v", layout.ErrMissingSource, err)}
		}
		return nil, err
	}
	for k, v := range fetched {
		data[k] = v
	}
	return data, nil
}

func (s *reportService) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	format := export.ParseFormat(req.Format)
	if req.Format == "" && s.cfg.DefaultFormat != "" {
		format = export.ParseFormat(s.cfg.DefaultFormat)
	}
	mediaType, err := s.dispatcher.MediaType(format)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	wb, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	opts := export.Options{
		Filename:      req.Filename,
		Format:        format,
		IncludeStyles: req.IncludeStyles,
		IncludeHidden: req.IncludeHidden,
		SheetName:     req.SheetName,
		Locale:        req.Locale,
		Extra:         req.Extra,
	}
	if opts.Locale == "" {
		opts.Locale = s.cfg.Locale
	}
	out, err := s.dispatcher.Export(ctx, wb, opts)
	if err != nil {
		if errors.Is(err, export.ErrSheetNotFound) {
			return nil, &RequestError{Err: err}
		}
		return nil, err
	}

	logger.InfoLog(ctx, "report exported: format=%s sheets=%d bytes=%d elapsed=%s",
		format, wb.SheetCount(), len(out), time.Since(start))
	return &ExportResult{
		Format:    format,
		MediaType: mediaType,
		Filename:  opts.FilenameFor(format),
		Data:      out,
	}, nil
}
