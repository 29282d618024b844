package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/internal/repository"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
)

type mockAppointmentRepo struct {
	appointments map[string]models.Appointment
	booked       []string
	slotTaken    bool
	cooldownSet  time.Time
}

func (m *mockAppointmentRepo) Create(ctx context.Context, appt *models.Appointment) error {
	if m.slotTaken {
		return repository.ErrSlotTaken
	}
	appt.ID = "appt-new"
	appt.Status = models.AppointmentPending
	if m.appointments == nil {
		m.appointments = make(map[string]models.Appointment)
	}
	m.appointments[appt.ID] = *appt
	return nil
}

func (m *mockAppointmentRepo) ScheduleFromRecommendation(ctx context.Context, consultantID string, req dto.ScheduleFromRecommendationRequest) (*models.Appointment, error) {
	if m.slotTaken {
		return nil, repository.ErrSlotTaken
	}
	return &models.Appointment{
		ID:               "appt-new",
		ConsultantID:     consultantID,
		RecommendationID: &req.RecommendationID,
		Status:           models.AppointmentPending,
	}, nil
}

func (m *mockAppointmentRepo) FindOwned(ctx context.Context, id, studentID string) (*models.Appointment, error) {
	if a, ok := m.appointments[id]; ok && a.StudentID == studentID {
		return &a, nil
	}
	return nil, errNoRows()
}

func (m *mockAppointmentRepo) FindForConsultant(ctx context.Context, id, consultantID string) (*models.Appointment, error) {
	if a, ok := m.appointments[id]; ok && a.ConsultantID == consultantID {
		return &a, nil
	}
	return nil, errNoRows()
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	if a, ok := m.appointments[id]; ok {
		return &a, nil
	}
	return nil, errNoRows()
}

func (m *mockAppointmentRepo) Respond(ctx context.Context, id, studentID string, req dto.RespondToAppointmentRequest, cooldownUntil time.Time) (*models.Appointment, error) {
	a := m.appointments[id]
	a.Status = req.Status
	m.appointments[id] = a
	if req.Status == models.AppointmentConfirmed {
		m.cooldownSet = cooldownUntil
	}
	return &a, nil
}

func (m *mockAppointmentRepo) Update(ctx context.Context, id, consultantID string, req dto.UpdateAppointmentRequest) (*models.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, errNoRows()
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	m.appointments[id] = a
	return &a, nil
}

func (m *mockAppointmentRepo) UpdateStatusAdmin(ctx context.Context, id string, req dto.AdminUpdateAppointmentStatusRequest) (*models.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, errNoRows()
	}
	a.Status = req.Status
	m.appointments[id] = a
	return &a, nil
}

func (m *mockAppointmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.appointments[id]; !ok {
		return errNoRows()
	}
	delete(m.appointments, id)
	return nil
}

func (m *mockAppointmentRepo) BookedTimes(ctx context.Context, consultantID, date string) ([]string, error) {
	return m.booked, nil
}

func (m *mockAppointmentRepo) ListForStudent(ctx context.Context, studentID string, filter dto.AppointmentFilter) ([]dto.StudentAppointmentItem, int, error) {
	return nil, 0, nil
}

func (m *mockAppointmentRepo) ListForConsultant(ctx context.Context, consultantID string, filter dto.AppointmentFilter) ([]dto.ConsultantAppointmentItem, int, error) {
	return nil, 0, nil
}

func (m *mockAppointmentRepo) ListAll(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AdminAppointmentItem, int, error) {
	return nil, 0, nil
}

const testConsultantID = "b54a9c8e-2c70-4f2e-9d8a-7e5bb0a4dd03"

func newAppointmentService(repo *mockAppointmentRepo) *AppointmentService {
	finder := &mockUserFinder{users: map[string]models.User{
		testConsultantID: {ID: testConsultantID, Role: models.RoleConsultant, IsActive: true},
		testStudentID:    {ID: testStudentID, Role: models.RoleStudent, IsActive: true},
	}}
	return NewAppointmentService(repo, finder, wellnessConfig(), nil, nil)
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format(dateLayout)
}

func TestAppointmentServiceCreate(t *testing.T) {
	repo := &mockAppointmentRepo{}
	svc := newAppointmentService(repo)

	appt, err := svc.Create(context.Background(), testStudentID, dto.CreateAppointmentRequest{
		ConsultantID:    testConsultantID,
		AppointmentDate: tomorrow(),
		AppointmentTime: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentPending, appt.Status)
	assert.Equal(t, models.RequestedByStudent, appt.RequestedBy)
}

func TestAppointmentServiceCreateSlotTaken(t *testing.T) {
	repo := &mockAppointmentRepo{slotTaken: true}
	svc := newAppointmentService(repo)

	_, err := svc.Create(context.Background(), testStudentID, dto.CreateAppointmentRequest{
		ConsultantID:    testConsultantID,
		AppointmentDate: tomorrow(),
		AppointmentTime: "10:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAppointmentServiceCreateOffGridTime(t *testing.T) {
	repo := &mockAppointmentRepo{}
	svc := newAppointmentService(repo)

	for _, slot := range []string{"08:30", "17:00", "10:15"} {
		_, err := svc.Create(context.Background(), testStudentID, dto.CreateAppointmentRequest{
			ConsultantID:    testConsultantID,
			AppointmentDate: tomorrow(),
			AppointmentTime: slot,
		})
		require.Error(t, err, slot)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestAppointmentServiceCreatePastDate(t *testing.T) {
	repo := &mockAppointmentRepo{}
	svc := newAppointmentService(repo)

	_, err := svc.Create(context.Background(), testStudentID, dto.CreateAppointmentRequest{
		ConsultantID:    testConsultantID,
		AppointmentDate: time.Now().AddDate(0, 0, -1).Format(dateLayout),
		AppointmentTime: "10:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAppointmentServiceCreateUnknownConsultant(t *testing.T) {
	repo := &mockAppointmentRepo{}
	svc := newAppointmentService(repo)

	_, err := svc.Create(context.Background(), testStudentID, dto.CreateAppointmentRequest{
		ConsultantID:    testStudentID, // not a consultant
		AppointmentDate: tomorrow(),
		AppointmentTime: "10:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAppointmentServiceRespondConfirmSetsCooldown(t *testing.T) {
	recID := "rec-1"
	repo := &mockAppointmentRepo{appointments: map[string]models.Appointment{
		"appt-1": {ID: "appt-1", StudentID: testStudentID, RecommendationID: &recID, Status: models.AppointmentPending},
	}}
	svc := newAppointmentService(repo)

	appt, err := svc.Respond(context.Background(), "appt-1", testStudentID, dto.RespondToAppointmentRequest{
		Status: models.AppointmentConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentConfirmed, appt.Status)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), repo.cooldownSet, time.Minute)
}

func TestAppointmentServiceRespondNonPending(t *testing.T) {
	repo := &mockAppointmentRepo{appointments: map[string]models.Appointment{
		"appt-1": {ID: "appt-1", StudentID: testStudentID, Status: models.AppointmentConfirmed},
	}}
	svc := newAppointmentService(repo)

	_, err := svc.Respond(context.Background(), "appt-1", testStudentID, dto.RespondToAppointmentRequest{
		Status: models.AppointmentDeclined,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestAppointmentServiceAvailableSlots(t *testing.T) {
	repo := &mockAppointmentRepo{booked: []string{"09:00", "14:30"}}
	svc := newAppointmentService(repo)

	result, err := svc.AvailableSlots(context.Background(), testConsultantID, tomorrow())
	require.NoError(t, err)
	// 16 half-hour slots between 09:00 and 17:00, two taken.
	assert.Len(t, result.AvailableSlots, 14)
	assert.NotContains(t, result.AvailableSlots, "09:00")
	assert.NotContains(t, result.AvailableSlots, "14:30")
	assert.Contains(t, result.AvailableSlots, "09:30")
	assert.Contains(t, result.AvailableSlots, "16:30")
	assert.Equal(t, []string{"09:00", "14:30"}, result.BookedSlots)
}

func TestAppointmentServiceScheduleFromRecommendation(t *testing.T) {
	repo := &mockAppointmentRepo{}
	svc := newAppointmentService(repo)

	appt, err := svc.ScheduleFromRecommendation(context.Background(), testConsultantID, dto.ScheduleFromRecommendationRequest{
		RecommendationID: "3e2c4f6a-9d01-4b7e-a2c5-8f0d1b2e3c04",
		AppointmentDate:  tomorrow(),
		AppointmentTime:  "11:00",
	})
	require.NoError(t, err)
	require.NotNil(t, appt.RecommendationID)
}
