package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/anshfreight/ifta-miles/internal/api/metrics"
	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

// jobEnqueuer hands accepted report jobs to the background workers.
type jobEnqueuer interface {
	Enqueue(job ports.ReportJob)
}

// ReportHandler exposes the mileage-report endpoints.
type ReportHandler struct {
	service ports.ReportService
	queue   jobEnqueuer
	logger  zerolog.Logger
}

func NewReportHandler(service ports.ReportService, queue jobEnqueuer, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{service: service, queue: queue, logger: logger}
}

// Create accepts a batch of dispatch rows plus the fleet list, registers a
// report run, and queues it for background processing. Responds 202 with the
// report id; the caller polls GET /v1/reports/:id for completion.
func (h *ReportHandler) Create(c echo.Context) error {
	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := toCreateReportInput(req)
	result, err := h.service.CreateReport(c.Request().Context(), input)
	if err != nil {
		return err
	}

	h.queue.Enqueue(ports.ReportJob{ReportID: result.ReportID, Input: input})
	metrics.ReportsCreatedTotal.Inc()

	return c.JSON(http.StatusAccepted, createReportResponse{
		ReportID: result.ReportID,
		Status:   result.Status,
		Links:    linksFor(result.ReportID),
	})
}

// Get returns the run metadata and summary counters for one report.
func (h *ReportHandler) Get(c echo.Context) error {
	report, err := h.service.GetReport(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGetReportResponse(report))
}

// ListRows returns one page of the report's state-mileage ledger.
// Query params: page (1-based), limit, state (one code, or ERROR for
// failed rows only).
func (h *ReportHandler) ListRows(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.service.ListRows(c.Request().Context(), ports.ListRowsInput{
		ReportID: c.Param("id"),
		State:    c.QueryParam("state"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListRowsResponse(result))
}
