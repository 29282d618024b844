package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/internal/service"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
	"github.com/campuswell/wellness-api/pkg/response"
)

type appointmentService interface {
	Create(ctx context.Context, studentID string, req dto.CreateAppointmentRequest) (*models.Appointment, error)
	Respond(ctx context.Context, id, studentID string, req dto.RespondToAppointmentRequest) (*models.Appointment, error)
	ScheduleFromRecommendation(ctx context.Context, consultantID string, req dto.ScheduleFromRecommendationRequest) (*models.Appointment, error)
	Update(ctx context.Context, id, consultantID string, req dto.UpdateAppointmentRequest) (*models.Appointment, error)
	AdminCreate(ctx context.Context, req dto.AdminCreateAppointmentRequest) (*models.Appointment, error)
	AdminUpdateStatus(ctx context.Context, id string, req dto.AdminUpdateAppointmentStatusRequest) (*models.Appointment, error)
	Delete(ctx context.Context, id string) error
	ListForStudent(ctx context.Context, studentID string, filter dto.AppointmentFilter) ([]dto.StudentAppointmentItem, *models.Pagination, error)
	ListForConsultant(ctx context.Context, consultantID string, filter dto.AppointmentFilter) ([]dto.ConsultantAppointmentItem, *models.Pagination, error)
	ListAll(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AdminAppointmentItem, *models.Pagination, error)
	AvailableSlots(ctx context.Context, consultantID, date string) (*dto.AvailableSlotsResult, error)
}

// AppointmentHandler exposes slot booking for students, consultants and
// admins.
type AppointmentHandler struct {
	appointments appointmentService
	metrics      *service.MetricsService
}

// NewAppointmentHandler constructs AppointmentHandler.
func NewAppointmentHandler(svc appointmentService, metrics *service.MetricsService) *AppointmentHandler {
	return &AppointmentHandler{appointments: svc, metrics: metrics}
}

func appointmentFilter(c *gin.Context) dto.AppointmentFilter {
	var filter dto.AppointmentFilter
	filter.Status = c.Query("status")
	filter.Date = c.Query("date")
	filter.ConsultantID = c.Query("consultant_id")
	filter.StudentID = c.Query("student_id")
	filter.DateFrom = c.Query("date_from")
	filter.DateTo = c.Query("date_to")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.Limit = limit
	}
	return filter
}

func (h *AppointmentHandler) countConflict(err error) {
	if appErrors.FromError(err).Status == http.StatusConflict {
		h.metrics.CountSlotConflict()
	}
}

// Create godoc
// @Summary Book an appointment slot
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAppointmentRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}

	appt, err := h.appointments.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		h.countConflict(err)
		response.Error(c, err)
		return
	}
	response.Created(c, "appointment requested", appt)
}

// Respond godoc
// @Summary Confirm or decline a pending appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.RespondToAppointmentRequest true "Response payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /student/appointments/{id}/respond [put]
func (h *AppointmentHandler) Respond(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RespondToAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid response payload"))
		return
	}

	appt, err := h.appointments.Respond(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "appointment "+string(appt.Status), appt)
}

// ListForStudent godoc
// @Summary List own appointments
// @Tags Appointments
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /student/appointments [get]
func (h *AppointmentHandler) ListForStudent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, pagination, err := h.appointments.ListForStudent(c.Request.Context(), claims.UserID, appointmentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "appointments retrieved", items, pagination)
}

// Schedule godoc
// @Summary Schedule an appointment from a pending recommendation
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleFromRecommendationRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /consultant/schedule-appointment [post]
func (h *AppointmentHandler) Schedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ScheduleFromRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}

	appt, err := h.appointments.ScheduleFromRecommendation(c.Request.Context(), claims.UserID, req)
	if err != nil {
		h.countConflict(err)
		response.Error(c, err)
		return
	}
	response.Created(c, "appointment scheduled", appt)
}

// Update godoc
// @Summary Update or reschedule an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.UpdateAppointmentRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /consultant/appointments/{id} [put]
func (h *AppointmentHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	appt, err := h.appointments.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		h.countConflict(err)
		response.Error(c, err)
		return
	}
	response.OK(c, "appointment updated", appt)
}

// ListForConsultant godoc
// @Summary List the consultant agenda
// @Tags Appointments
// @Produce json
// @Param status query string false "Filter by status"
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /consultant/appointments [get]
func (h *AppointmentHandler) ListForConsultant(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, pagination, err := h.appointments.ListForConsultant(c.Request.Context(), claims.UserID, appointmentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "appointments retrieved", items, pagination)
}

// AvailableSlots godoc
// @Summary List a consultant's free slots for a date
// @Tags Appointments
// @Produce json
// @Param consultant_id query string true "Consultant ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /student/available-slots [get]
func (h *AppointmentHandler) AvailableSlots(c *gin.Context) {
	result, err := h.appointments.AvailableSlots(c.Request.Context(), c.Query("consultant_id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "available slots retrieved", result)
}

// ListAll godoc
// @Summary List all appointments
// @Tags Appointments
// @Produce json
// @Param status query string false "Filter by status"
// @Param consultant_id query string false "Filter by consultant"
// @Param student_id query string false "Filter by student"
// @Param date_from query string false "Range start (YYYY-MM-DD)"
// @Param date_to query string false "Range end (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/appointments [get]
func (h *AppointmentHandler) ListAll(c *gin.Context) {
	items, pagination, err := h.appointments.ListAll(c.Request.Context(), appointmentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "appointments retrieved", items, pagination)
}

// AdminCreate godoc
// @Summary Book an appointment on behalf of a student
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.AdminCreateAppointmentRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/appointments [post]
func (h *AppointmentHandler) AdminCreate(c *gin.Context) {
	var req dto.AdminCreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}

	appt, err := h.appointments.AdminCreate(c.Request.Context(), req)
	if err != nil {
		h.countConflict(err)
		response.Error(c, err)
		return
	}
	response.Created(c, "appointment created", appt)
}

// AdminUpdateStatus godoc
// @Summary Override an appointment's status
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.AdminUpdateAppointmentStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /admin/appointments/{id}/status [put]
func (h *AppointmentHandler) AdminUpdateStatus(c *gin.Context) {
	var req dto.AdminUpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	appt, err := h.appointments.AdminUpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "appointment status updated", appt)
}

// Delete godoc
// @Summary Delete an appointment
// @Tags Appointments
// @Param id path string true "Appointment ID"
// @Success 204 {object} response.Envelope
// @Router /admin/appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	if err := h.appointments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
