package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"EarnScan/internal/domain/models"
	"EarnScan/internal/service/ratelimit"
	"EarnScan/internal/usecase"
	xhttp "EarnScan/pkg/http"
	xlogger "EarnScan/pkg/logger"
)

// Scanner is the use case surface the HTTP layer drives.
type Scanner interface {
	Run(ctx context.Context, opts usecase.ScanOptions) (*models.ScanReport, error)
	Latest(ctx context.Context) (*models.ScanReport, error)
	MarketContext(ctx context.Context) models.MarketContext
}

// Enqueuer queues background jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) (string, error)
}

// ScanEchoHandler exposes scans over HTTP.
type ScanEchoHandler struct {
	logger  *xlogger.Logger
	scanner Scanner
	rl      *ratelimit.Limiter
	jobs    Enqueuer
}

// NewScanEchoHandler creates the handler. A nil limiter disables rate limiting.
func NewScanEchoHandler(logger *xlogger.Logger, scanner Scanner, rl *ratelimit.Limiter) *ScanEchoHandler {
	return &ScanEchoHandler{logger: logger, scanner: scanner, rl: rl}
}

// SetEnqueuer enables async scans.
func (h *ScanEchoHandler) SetEnqueuer(q Enqueuer) { h.jobs = q }

func (h *ScanEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/scan", h.Scan)
	g.GET("/scan/latest", h.Latest)
	g.GET("/market-context", h.MarketContext)
}

func (h *ScanEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if h.rl != nil && !h.rl.Allow(c.RealIP()) {
		h.logger.Warn("scan rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many scans, try again later"))
	}

	if req.Async {
		return h.enqueue(c, req)
	}

	report, err := h.scanner.Run(c.Request().Context(), usecase.ScanOptions{Analyze: req.Analyze})
	if err != nil {
		if errors.Is(err, usecase.ErrScanInProgress) {
			return xhttp.AppErrorResponse(c, xhttp.ConflictError("a scan is already running"))
		}
		h.logger.Error("scan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("earnings calendar unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ScanEchoHandler) enqueue(c echo.Context, req *models.ScanRequest) error {
	if h.jobs == nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_UNSUPPORTED",
			Field:   "async",
			Message: "async scans are not enabled",
		}})
	}
	id, err := h.jobs.Enqueue(c.Request().Context(), usecase.ScanJobType, usecase.ScanJobPayload{Analyze: req.Analyze})
	if err != nil {
		h.logger.Error("enqueue scan error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	h.logger.Info("scan queued", xlogger.String("job_id", id))
	return xhttp.DataResponse(c, http.StatusAccepted, models.ScanAccepted{JobID: id})
}

func (h *ScanEchoHandler) Latest(c echo.Context) error {
	report, err := h.scanner.Latest(c.Request().Context())
	if err != nil {
		if errors.Is(err, usecase.ErrNoReport) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no scan has completed yet"))
		}
		h.logger.Error("latest report error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ScanEchoHandler) MarketContext(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.scanner.MarketContext(c.Request().Context()))
}
