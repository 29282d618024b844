package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/internal/repository"
	"github.com/campuswell/wellness-api/pkg/config"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
)

type appointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	ScheduleFromRecommendation(ctx context.Context, consultantID string, req dto.ScheduleFromRecommendationRequest) (*models.Appointment, error)
	FindOwned(ctx context.Context, id, studentID string) (*models.Appointment, error)
	FindForConsultant(ctx context.Context, id, consultantID string) (*models.Appointment, error)
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	Respond(ctx context.Context, id, studentID string, req dto.RespondToAppointmentRequest, cooldownUntil time.Time) (*models.Appointment, error)
	Update(ctx context.Context, id, consultantID string, req dto.UpdateAppointmentRequest) (*models.Appointment, error)
	UpdateStatusAdmin(ctx context.Context, id string, req dto.AdminUpdateAppointmentStatusRequest) (*models.Appointment, error)
	Delete(ctx context.Context, id string) error
	BookedTimes(ctx context.Context, consultantID, date string) ([]string, error)
	ListForStudent(ctx context.Context, studentID string, filter dto.AppointmentFilter) ([]dto.StudentAppointmentItem, int, error)
	ListForConsultant(ctx context.Context, consultantID string, filter dto.AppointmentFilter) ([]dto.ConsultantAppointmentItem, int, error)
	ListAll(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AdminAppointmentItem, int, error)
}

// AppointmentService handles slot booking and the appointment lifecycle.
type AppointmentService struct {
	repo      appointmentRepository
	users     activeUserFinder
	cfg       config.WellnessConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAppointmentService constructs the service.
func NewAppointmentService(repo appointmentRepository, users activeUserFinder, cfg config.WellnessConfig, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{repo: repo, users: users, cfg: cfg, validator: validate, logger: logger, now: time.Now}
}

// slotGrid enumerates the bookable HH:MM times of a working day.
func (s *AppointmentService) slotGrid() []string {
	var slots []string
	for t := s.cfg.SlotDayStart; t < s.cfg.SlotDayEnd; t += s.cfg.SlotInterval {
		slots = append(slots, fmt.Sprintf("%02d:%02d", int(t.Hours()), int(t.Minutes())%60))
	}
	return slots
}

func (s *AppointmentService) validSlot(t string) bool {
	for _, slot := range s.slotGrid() {
		if slot == t {
			return true
		}
	}
	return false
}

func (s *AppointmentService) checkBookable(date, slot string) error {
	if date < s.now().Format(dateLayout) {
		return appErrors.Clone(appErrors.ErrValidation, "appointment date cannot be in the past")
	}
	if !s.validSlot(slot) {
		return appErrors.Clone(appErrors.ErrValidation, "appointment time is outside working hours")
	}
	return nil
}

// Create books a consultant slot on behalf of the calling student.
func (s *AppointmentService) Create(ctx context.Context, studentID string, req dto.CreateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
	}
	if err := s.checkBookable(req.AppointmentDate, req.AppointmentTime); err != nil {
		return nil, err
	}

	if _, err := s.users.FindActiveByRole(ctx, req.ConsultantID, models.RoleConsultant); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consultant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consultant")
	}

	appt := &models.Appointment{
		StudentID:        studentID,
		ConsultantID:     req.ConsultantID,
		RecommendationID: req.RecommendationID,
		AppointmentDate:  req.AppointmentDate,
		AppointmentTime:  req.AppointmentTime,
		RequestedBy:      models.RequestedByStudent,
		StudentNotes:     req.StudentNotes,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "this time slot is already booked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}

	s.logger.Info("appointment created",
		zap.String("appointment_id", appt.ID),
		zap.String("student_id", studentID),
		zap.String("consultant_id", req.ConsultantID))
	return appt, nil
}

// ScheduleFromRecommendation lets a consultant book a session that consumes
// a pending recommendation.
func (s *AppointmentService) ScheduleFromRecommendation(ctx context.Context, consultantID string, req dto.ScheduleFromRecommendationRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}
	if err := s.checkBookable(req.AppointmentDate, req.AppointmentTime); err != nil {
		return nil, err
	}

	appt, err := s.repo.ScheduleFromRecommendation(ctx, consultantID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecommendationUnavailable):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pending recommendation not found")
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, appErrors.Clone(appErrors.ErrConflict, "this time slot is already booked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule appointment")
	}

	s.logger.Info("appointment scheduled from recommendation",
		zap.String("appointment_id", appt.ID),
		zap.String("consultant_id", consultantID),
		zap.Stringp("recommendation_id", appt.RecommendationID))
	return appt, nil
}

// Respond records the student's confirmation or decline of a pending
// appointment. Confirming an appointment that came from a recommendation
// starts the recommendation cooldown; declining re-opens the referral.
func (s *AppointmentService) Respond(ctx context.Context, id, studentID string, req dto.RespondToAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be confirmed or declined")
	}

	current, err := s.repo.FindOwned(ctx, id, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	if current.Status != models.AppointmentPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only pending appointments can be responded to")
	}

	appt, err := s.repo.Respond(ctx, id, studentID, req, s.now().Add(s.cfg.RecommendationCooldown))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "appointment was updated concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to respond to appointment")
	}

	s.logger.Info("appointment responded",
		zap.String("appointment_id", id),
		zap.String("status", string(req.Status)))
	return appt, nil
}

// Update applies the consultant's partial update or reschedule.
func (s *AppointmentService) Update(ctx context.Context, id, consultantID string, req dto.UpdateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}
	if req.AppointmentDate != nil || req.AppointmentTime != nil {
		current, err := s.repo.FindForConsultant(ctx, id, consultantID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
		}
		date := current.AppointmentDate
		slot := current.AppointmentTime
		if req.AppointmentDate != nil {
			date = *req.AppointmentDate
		}
		if req.AppointmentTime != nil {
			slot = *req.AppointmentTime
		}
		if err := s.checkBookable(date, slot); err != nil {
			return nil, err
		}
	}

	appt, err := s.repo.Update(ctx, id, consultantID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, appErrors.Clone(appErrors.ErrConflict, "this time slot is already booked")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}
	return appt, nil
}

// AdminCreate books a slot directly on behalf of a student.
func (s *AppointmentService) AdminCreate(ctx context.Context, req dto.AdminCreateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
	}
	if err := s.checkBookable(req.AppointmentDate, req.AppointmentTime); err != nil {
		return nil, err
	}

	if _, err := s.users.FindActiveByRole(ctx, req.StudentID, models.RoleStudent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.users.FindActiveByRole(ctx, req.ConsultantID, models.RoleConsultant); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consultant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consultant")
	}

	requestedBy := models.RequestedByAdmin
	if req.RequestedBy != nil {
		requestedBy = models.RequestedBy(*req.RequestedBy)
	}
	appt := &models.Appointment{
		StudentID:       req.StudentID,
		ConsultantID:    req.ConsultantID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		RequestedBy:     requestedBy,
		StudentNotes:    req.StudentNotes,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "this time slot is already booked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}
	return appt, nil
}

// AdminUpdateStatus overrides an appointment's status.
func (s *AppointmentService) AdminUpdateStatus(ctx context.Context, id string, req dto.AdminUpdateAppointmentStatusRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}

	appt, err := s.repo.UpdateStatusAdmin(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, appErrors.Clone(appErrors.ErrConflict, "this time slot is already booked")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}
	return appt, nil
}

// Delete removes an appointment outright.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete appointment")
	}
	s.logger.Info("appointment deleted", zap.String("appointment_id", id))
	return nil
}

func normalizeAppointmentFilter(filter *dto.AppointmentFilter) error {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 10
	}
	if filter.Status != "" && !models.AppointmentStatus(filter.Status).Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
	}
	return nil
}

// ListForStudent returns the caller's appointments.
func (s *AppointmentService) ListForStudent(ctx context.Context, studentID string, filter dto.AppointmentFilter) ([]dto.StudentAppointmentItem, *models.Pagination, error) {
	if err := normalizeAppointmentFilter(&filter); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListForStudent(ctx, studentID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return items, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// ListForConsultant returns the consultant's agenda.
func (s *AppointmentService) ListForConsultant(ctx context.Context, consultantID string, filter dto.AppointmentFilter) ([]dto.ConsultantAppointmentItem, *models.Pagination, error) {
	if err := normalizeAppointmentFilter(&filter); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListForConsultant(ctx, consultantID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return items, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// ListAll returns the admin appointment listing.
func (s *AppointmentService) ListAll(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AdminAppointmentItem, *models.Pagination, error) {
	if err := normalizeAppointmentFilter(&filter); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return items, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// AvailableSlots returns the consultant's free and booked HH:MM slots for
// one date, derived from the configured working-day grid.
func (s *AppointmentService) AvailableSlots(ctx context.Context, consultantID, date string) (*dto.AvailableSlotsResult, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}
	if date < s.now().Format(dateLayout) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date cannot be in the past")
	}

	if _, err := s.users.FindActiveByRole(ctx, consultantID, models.RoleConsultant); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consultant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consultant")
	}

	booked, err := s.repo.BookedTimes(ctx, consultantID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booked slots")
	}

	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}
	available := make([]string, 0)
	for _, slot := range s.slotGrid() {
		if _, ok := taken[slot]; !ok {
			available = append(available, slot)
		}
	}
	return &dto.AvailableSlotsResult{
		ConsultantID:   consultantID,
		Date:           date,
		AvailableSlots: available,
		BookedSlots:    booked,
	}, nil
}
