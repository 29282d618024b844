package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/middleware"
	"github.com/campuswell/wellness-api/internal/models"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
)

type appointmentServiceMock struct {
	createResp    *models.Appointment
	createErr     error
	respondResp   *models.Appointment
	respondErr    error
	scheduleResp  *models.Appointment
	scheduleErr   error
	slotsResp     *dto.AvailableSlotsResult
	slotsErr      error
	lastFilter    dto.AppointmentFilter
	lastSlotsDate string
}

func (m *appointmentServiceMock) Create(ctx context.Context, studentID string, req dto.CreateAppointmentRequest) (*models.Appointment, error) {
	return m.createResp, m.createErr
}

func (m *appointmentServiceMock) Respond(ctx context.Context, id, studentID string, req dto.RespondToAppointmentRequest) (*models.Appointment, error) {
	return m.respondResp, m.respondErr
}

func (m *appointmentServiceMock) ScheduleFromRecommendation(ctx context.Context, consultantID string, req dto.ScheduleFromRecommendationRequest) (*models.Appointment, error) {
	return m.scheduleResp, m.scheduleErr
}

func (m *appointmentServiceMock) Update(ctx context.Context, id, consultantID string, req dto.UpdateAppointmentRequest) (*models.Appointment, error) {
	return m.createResp, m.createErr
}

func (m *appointmentServiceMock) AdminCreate(ctx context.Context, req dto.AdminCreateAppointmentRequest) (*models.Appointment, error) {
	return m.createResp, m.createErr
}

func (m *appointmentServiceMock) AdminUpdateStatus(ctx context.Context, id string, req dto.AdminUpdateAppointmentStatusRequest) (*models.Appointment, error) {
	return m.createResp, m.createErr
}

func (m *appointmentServiceMock) Delete(ctx context.Context, id string) error {
	return m.createErr
}

func (m *appointmentServiceMock) ListForStudent(ctx context.Context, studentID string, filter dto.AppointmentFilter) ([]dto.StudentAppointmentItem, *models.Pagination, error) {
	m.lastFilter = filter
	return nil, nil, nil
}

func (m *appointmentServiceMock) ListForConsultant(ctx context.Context, consultantID string, filter dto.AppointmentFilter) ([]dto.ConsultantAppointmentItem, *models.Pagination, error) {
	m.lastFilter = filter
	return nil, nil, nil
}

func (m *appointmentServiceMock) ListAll(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AdminAppointmentItem, *models.Pagination, error) {
	m.lastFilter = filter
	return nil, nil, nil
}

func (m *appointmentServiceMock) AvailableSlots(ctx context.Context, consultantID, date string) (*dto.AvailableSlotsResult, error) {
	m.lastSlotsDate = date
	return m.slotsResp, m.slotsErr
}

func TestAppointmentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &appointmentServiceMock{
		createResp: &models.Appointment{ID: "appt-1", Status: models.AppointmentPending},
	}
	handler := NewAppointmentHandler(mockSvc, nil)

	payload, _ := json.Marshal(dto.CreateAppointmentRequest{
		ConsultantID:    "b54a9c8e-2c70-4f2e-9d8a-7e5bb0a4dd03",
		AppointmentDate: "2026-09-01",
		AppointmentTime: "10:00",
	})
	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/student/appointments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "appointment requested")
}

func TestAppointmentHandlerCreateSlotTaken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &appointmentServiceMock{
		createErr: appErrors.Clone(appErrors.ErrConflict, "this time slot is already booked"),
	}
	handler := NewAppointmentHandler(mockSvc, nil)

	payload, _ := json.Marshal(dto.CreateAppointmentRequest{
		ConsultantID:    "b54a9c8e-2c70-4f2e-9d8a-7e5bb0a4dd03",
		AppointmentDate: "2026-09-01",
		AppointmentTime: "10:00",
	})
	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/student/appointments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already booked")
}

func TestAppointmentHandlerRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &appointmentServiceMock{
		respondResp: &models.Appointment{ID: "appt-1", Status: models.AppointmentConfirmed},
	}
	handler := NewAppointmentHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/student/appointments/appt-1/respond", bytes.NewBufferString(`{"status":"confirmed"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "appt-1"}}

	handler.Respond(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "appointment confirmed")
}

func TestAppointmentHandlerSchedule(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &appointmentServiceMock{
		scheduleResp: &models.Appointment{ID: "appt-2", Status: models.AppointmentPending},
	}
	handler := NewAppointmentHandler(mockSvc, nil)

	payload, _ := json.Marshal(dto.ScheduleFromRecommendationRequest{
		RecommendationID: "3e2c4f6a-9d01-4b7e-a2c5-8f0d1b2e3c04",
		AppointmentDate:  "2026-09-01",
		AppointmentTime:  "11:30",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "consultant-1", Role: models.RoleConsultant})
	req, _ := http.NewRequest(http.MethodPost, "/consultant/schedule-appointment", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Schedule(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestAppointmentHandlerAvailableSlots(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &appointmentServiceMock{
		slotsResp: &dto.AvailableSlotsResult{
			ConsultantID:   "consultant-1",
			Date:           "2026-09-01",
			AvailableSlots: []string{"09:00", "09:30"},
			BookedSlots:    []string{"10:00"},
		},
	}
	handler := NewAppointmentHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/student/available-slots?consultant_id=consultant-1&date=2026-09-01", nil)
	c.Request = req

	handler.AvailableSlots(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-09-01", mockSvc.lastSlotsDate)
	assert.Contains(t, w.Body.String(), "available_slots")
}

func TestAppointmentHandlerListAllParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &appointmentServiceMock{}
	handler := NewAppointmentHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	req, _ := http.NewRequest(http.MethodGet, "/admin/appointments?status=pending&consultant_id=consultant-1&page=3", nil)
	c.Request = req

	handler.ListAll(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", mockSvc.lastFilter.Status)
	assert.Equal(t, "consultant-1", mockSvc.lastFilter.ConsultantID)
	assert.Equal(t, 3, mockSvc.lastFilter.Page)
}
