package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/reportbook/internal/logger"
	"github.com/locvowork/reportbook/internal/service"
	"github.com/locvowork/reportbook/internal/service/serviceutils"
	"github.com/locvowork/reportbook/pkg/export"
)

type ReportHandler struct {
	svc service.ReportService
}

func NewReportHandler(svc service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// ExportHandler renders the posted definition and returns the file. The
// "format" and "filename" query parameters override the body.
func (h *ReportHandler) ExportHandler(c echo.Context) error {
	var req service.ExportRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	if f := c.QueryParam("format"); f != "" {
		req.Format = f
	}
	if name := c.QueryParam("filename"); name != "" {
		req.Filename = name
	}

	ctx := logger.WithLogger(c.Request().Context(), map[string]interface{}{
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"format":     req.Format,
	})
	res, err := h.svc.Export(ctx, req)
	if err != nil {
		code, msg := classify(err)
		if code >= http.StatusInternalServerError {
			logger.ErrorLog(ctx, "report export failed", err)
		}
		return serviceutils.ResponseError(c, code, msg, err)
	}
	return serviceutils.ResponseFile(c, res.MediaType, res.Filename, res.Data)
}

// FormatsHandler lists the export formats and their media types.
func (h *ReportHandler) FormatsHandler(c echo.Context) error {
	out := make(map[string]string)
	for _, f := range h.svc.Formats() {
		mt, err := h.svc.MediaType(f)
		if err != nil {
			return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to list formats", err)
		}
		out[string(f)] = mt
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Supported export formats", out)
}

func classify(err error) (int, string) {
	var ufe *export.UnsupportedFormatError
	var reqErr *service.RequestError
	switch {
	case errors.As(err, &ufe):
		return http.StatusBadRequest, "Unsupported export format"
	case errors.As(err, &reqErr):
		return http.StatusUnprocessableEntity, "Invalid report request"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Report export timed out"
	}
	return http.StatusInternalServerError, "Failed to export report"
}
