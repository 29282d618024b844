package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuswell/wellness-api/internal/service"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
	"github.com/campuswell/wellness-api/pkg/response"
)

// StatsHandler exposes the admin dashboard and report downloads.
type StatsHandler struct {
	stats   *service.StatsService
	reports *service.ReportService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *service.StatsService, reports *service.ReportService) *StatsHandler {
	return &StatsHandler{stats: stats, reports: reports}
}

// Dashboard godoc
// @Summary System-wide dashboard statistics
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats/dashboard [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	stats, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "dashboard statistics retrieved", stats)
}

// AppointmentStats godoc
// @Summary Appointment statistics for the last 30 days
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats/appointments [get]
func (h *StatsHandler) AppointmentStats(c *gin.Context) {
	stats, err := h.stats.AppointmentStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "appointment statistics retrieved", stats)
}

// MoodReport godoc
// @Summary Download the mood report
// @Description Renders all mood entries in the optional date range as CSV or PDF
// @Tags Statistics
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Param start_date query string false "Range start (YYYY-MM-DD)"
// @Param end_date query string false "Range end (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /admin/reports/mood [get]
func (h *StatsHandler) MoodReport(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))
	if format != service.ReportCSV && format != service.ReportPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	report, err := h.reports.MoodReport(c.Request.Context(), format, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(http.StatusOK, report.ContentType, report.Content)
}
