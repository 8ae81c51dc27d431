package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/avpulse/internal/middleware"
	"github.com/guttosm/avpulse/internal/quote"
	"github.com/guttosm/avpulse/internal/service"
	"github.com/guttosm/avpulse/internal/timeseries"
)

// Handler provides HTTP handlers for the intraday analysis endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Delegate to the analysis service (provider fetch or stored snapshot)
//   - Map service errors to HTTP status codes
//   - Return structured JSON responses
type Handler struct {
	svc service.AnalysisService
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - svc (service.AnalysisService): service used to load and analyze series.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(svc service.AnalysisService) *Handler {
	return &Handler{svc: svc}
}

// GetSummary handles GET /api/v1/summary requests.
//
// GetSummary godoc
// @Summary      Ticker summary
// @Description  Metadata, latest bar and open/close/volume series aligned with the timestamps
// @Tags         intraday
// @Produce      json
// @Param        symbol    query     string  true   "Ticker symbol" example(IBM)
// @Param        interval  query     int     true   "Bar size in minutes (1, 5, 15, 30, 60)" example(60)
// @Param        source    query     string  false  "provider (default) or store"
// @Success      200       {object}  dto.SummaryResponse  "Success"
// @Failure      400       {object}  dto.ErrorResponse    "Bad Request"
// @Failure      404       {object}  dto.ErrorResponse    "Not Found"
// @Failure      502       {object}  dto.ErrorResponse    "Provider failure"
// @Failure      500       {object}  dto.ErrorResponse    "Internal Error"
// @Router       /api/v1/summary [get]
func (h *Handler) GetSummary(c *gin.Context) {
	// ─── Parse query ───────────────────────────────────────
	req, ok := parseRequest(c)
	if !ok {
		return
	}

	// ─── Query service (with request context) ─────────────
	resp, err := h.svc.Summary(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAnalysis handles GET /api/v1/analysis requests.
//
// Responses:
//   - 200 OK: max-volume dates, average close over past days, latest close per date.
//   - 400 Bad Request: missing symbol or unsupported interval.
//   - 404 Not Found: the provider returned no series, or nothing is stored.
//   - 502 Bad Gateway: the provider could not be reached or answered with an error.
//   - 500 Internal Server Error: any other failure.
//
// GetAnalysis godoc
// @Summary      Intraday analysis
// @Description  Max-volume date(s), average closing price over distinct past days and latest close per date
// @Tags         intraday
// @Produce      json
// @Param        symbol    query     string  true   "Ticker symbol" example(IBM)
// @Param        interval  query     int     true   "Bar size in minutes (1, 5, 15, 30, 60)" example(60)
// @Param        source    query     string  false  "provider (default) or store"
// @Success      200       {object}  dto.AnalysisResponse  "Success"
// @Failure      400       {object}  dto.ErrorResponse     "Bad Request"
// @Failure      404       {object}  dto.ErrorResponse     "Not Found"
// @Failure      502       {object}  dto.ErrorResponse     "Provider failure"
// @Failure      500       {object}  dto.ErrorResponse     "Internal Error"
// @Router       /api/v1/analysis [get]
func (h *Handler) GetAnalysis(c *gin.Context) {
	req, ok := parseRequest(c)
	if !ok {
		return
	}

	resp, err := h.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetReport handles GET /api/v1/report requests: summary and analysis of a
// single fetch.
//
// GetReport godoc
// @Summary      Summary and analysis
// @Description  Summary and analysis computed from one provider call (or one stored snapshot)
// @Tags         intraday
// @Produce      json
// @Param        symbol    query     string  true   "Ticker symbol" example(IBM)
// @Param        interval  query     int     true   "Bar size in minutes (1, 5, 15, 30, 60)" example(60)
// @Param        source    query     string  false  "provider (default) or store"
// @Success      200       {object}  dto.ReportResponse  "Success"
// @Failure      400       {object}  dto.ErrorResponse   "Bad Request"
// @Failure      404       {object}  dto.ErrorResponse   "Not Found"
// @Failure      502       {object}  dto.ErrorResponse   "Provider failure"
// @Failure      500       {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/report [get]
func (h *Handler) GetReport(c *gin.Context) {
	req, ok := parseRequest(c)
	if !ok {
		return
	}

	resp, err := h.svc.Report(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSnapshots handles GET /api/v1/snapshots requests.
//
// GetSnapshots godoc
// @Summary      Stored snapshots
// @Description  Newest persisted fetches for a symbol
// @Tags         store
// @Produce      json
// @Param        symbol  query     string  true   "Ticker symbol" example(IBM)
// @Param        limit   query     int     false  "Max rows (default 20)"
// @Success      200     {array}   models.Snapshot    "Success"
// @Failure      400     {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse  "Store disabled"
// @Failure      500     {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/snapshots [get]
func (h *Handler) GetSnapshots(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			middleware.AbortWithError(c, http.StatusBadRequest, "limit must be a non-negative integer", err)
			return
		}
		limit = n
	}

	list, err := h.svc.Snapshots(c.Request.Context(), c.Query("symbol"), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// parseRequest reads symbol, interval and source. On failure it has already
// written a 400 response.
func parseRequest(c *gin.Context) (service.Request, bool) {
	// ─── Validate "interval" param ───────────────────────
	interval, err := quote.ParseInterval(c.Query("interval"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid interval", err)
		return service.Request{}, false
	}

	// ─── Validate "symbol" param ─────────────────────────
	symbol := c.Query("symbol")
	if symbol == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "symbol is required", nil)
		return service.Request{}, false
	}

	return service.Request{Symbol: symbol, Interval: interval, Source: c.Query("source")}, true
}

// writeServiceError maps a service error to its HTTP status.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, timeseries.ErrNoData):
		middleware.AbortWithError(c, http.StatusNotFound, "no data found", err)
	case errors.Is(err, service.ErrSnapshotNotFound), errors.Is(err, service.ErrStoreDisabled):
		middleware.AbortWithError(c, http.StatusNotFound, "no stored snapshot", err)
	case errors.Is(err, context.DeadlineExceeded):
		middleware.AbortWithError(c, http.StatusGatewayTimeout, "request timed out", err)
	case errors.Is(err, service.ErrProvider):
		middleware.AbortWithError(c, http.StatusBadGateway, "quote provider failure", err)
	default:
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to analyze series", err)
	}
}
