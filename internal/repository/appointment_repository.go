package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
)

// ErrSlotTaken is returned when the consultant already holds an active
// appointment for the requested date and time. The partial unique index on
// appointments enforces this at commit time, so even two racing inserts
// cannot both succeed.
var ErrSlotTaken = errors.New("appointment slot already booked")

// ErrRecommendationUnavailable is returned when scheduling targets a
// recommendation that is missing or no longer pending.
var ErrRecommendationUnavailable = errors.New("recommendation is not pending")

// AppointmentRepository provides persistence for counseling appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, student_id, consultant_id, recommendation_id,
	to_char(appointment_date, 'YYYY-MM-DD') AS appointment_date,
	to_char(appointment_time, 'HH24:MI') AS appointment_time,
	status, requested_by, student_notes, consultant_notes,
	to_char(counter_proposal_date, 'YYYY-MM-DD') AS counter_proposal_date,
	to_char(counter_proposal_time, 'HH24:MI') AS counter_proposal_time,
	created_at, updated_at`

func uniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Create inserts an appointment in pending state. A duplicate active slot
// surfaces as ErrSlotTaken via the unique index.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	query := fmt.Sprintf(`INSERT INTO appointments
	(id, student_id, consultant_id, recommendation_id, appointment_date, appointment_time, status, requested_by, student_notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $8, $9, $9)
RETURNING %s`, appointmentColumns)
	err := r.db.GetContext(ctx, appt, query,
		uuid.NewString(), appt.StudentID, appt.ConsultantID, appt.RecommendationID,
		appt.AppointmentDate, appt.AppointmentTime, appt.RequestedBy, appt.StudentNotes, time.Now().UTC())
	if uniqueViolation(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// ScheduleFromRecommendation books a slot from a pending recommendation in
// one transaction: the recommendation row is locked, the appointment is
// inserted, and the recommendation moves to scheduled with the consultant
// attached.
func (r *AppointmentRepository) ScheduleFromRecommendation(ctx context.Context, consultantID string, req dto.ScheduleFromRecommendationRequest) (appt *models.Appointment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var rec struct {
		ID        string `db:"id"`
		StudentID string `db:"student_id"`
	}
	const lockRec = `SELECT id, student_id FROM recommendations WHERE id = $1 AND status = 'pending' FOR UPDATE`
	if err = tx.GetContext(ctx, &rec, lockRec, req.RecommendationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrRecommendationUnavailable
		}
		return nil, err
	}

	insert := fmt.Sprintf(`INSERT INTO appointments
	(id, student_id, consultant_id, recommendation_id, appointment_date, appointment_time, status, requested_by, consultant_notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', 'consultant', $7, $8, $8)
RETURNING %s`, appointmentColumns)
	appt = &models.Appointment{}
	err = tx.GetContext(ctx, appt, insert,
		uuid.NewString(), rec.StudentID, consultantID, rec.ID,
		req.AppointmentDate, req.AppointmentTime, req.ConsultantNotes, time.Now().UTC())
	if uniqueViolation(err) {
		err = ErrSlotTaken
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	const claimRec = `UPDATE recommendations SET status = 'scheduled', consultant_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if _, err = tx.ExecContext(ctx, claimRec, consultantID, rec.ID); err != nil {
		return nil, fmt.Errorf("claim recommendation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit schedule: %w", err)
	}
	return appt, nil
}

// FindOwned fetches one appointment scoped to its student.
func (r *AppointmentRepository) FindOwned(ctx context.Context, id, studentID string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1 AND student_id = $2`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id, studentID); err != nil {
		return nil, err
	}
	return &appt, nil
}

// FindForConsultant fetches one appointment scoped to its consultant.
func (r *AppointmentRepository) FindForConsultant(ctx context.Context, id, consultantID string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1 AND consultant_id = $2`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id, consultantID); err != nil {
		return nil, err
	}
	return &appt, nil
}

// FindByID fetches one appointment without role scoping.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// Respond records the student's answer to a pending appointment and, when
// the booking originated from a recommendation, mutates that recommendation
// in the same transaction: confirmation starts the cooldown, declining
// re-opens the referral.
func (r *AppointmentRepository) Respond(ctx context.Context, id, studentID string, req dto.RespondToAppointmentRequest, cooldownUntil time.Time) (appt *models.Appointment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin respond: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	update := fmt.Sprintf(`UPDATE appointments
SET status = $1,
	counter_proposal_date = $2,
	counter_proposal_time = $3,
	student_notes = COALESCE($4, student_notes),
	updated_at = CURRENT_TIMESTAMP
WHERE id = $5 AND student_id = $6 AND status = 'pending'
RETURNING %s`, appointmentColumns)
	appt = &models.Appointment{}
	if err = tx.GetContext(ctx, appt, update, req.Status, req.CounterProposalDate, req.CounterProposalTime, req.StudentNotes, id, studentID); err != nil {
		return nil, err
	}

	if appt.RecommendationID != nil {
		switch req.Status {
		case models.AppointmentConfirmed:
			const startCooldown = `UPDATE recommendations SET cooldown_until = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
			if _, err = tx.ExecContext(ctx, startCooldown, cooldownUntil, *appt.RecommendationID); err != nil {
				return nil, fmt.Errorf("start cooldown: %w", err)
			}
		case models.AppointmentDeclined:
			const reopen = `UPDATE recommendations SET status = 'pending', consultant_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
			if _, err = tx.ExecContext(ctx, reopen, *appt.RecommendationID); err != nil {
				return nil, fmt.Errorf("reopen recommendation: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit respond: %w", err)
	}
	return appt, nil
}

// Update applies the consultant's partial update. A reschedule into an
// occupied active slot surfaces as ErrSlotTaken.
func (r *AppointmentRepository) Update(ctx context.Context, id, consultantID string, req dto.UpdateAppointmentRequest) (*models.Appointment, error) {
	query := fmt.Sprintf(`UPDATE appointments
SET status = COALESCE($1, status),
	consultant_notes = COALESCE($2, consultant_notes),
	appointment_date = COALESCE($3::date, appointment_date),
	appointment_time = COALESCE($4::time, appointment_time),
	updated_at = CURRENT_TIMESTAMP
WHERE id = $5 AND consultant_id = $6
RETURNING %s`, appointmentColumns)
	var appt models.Appointment
	err := r.db.GetContext(ctx, &appt, query, req.Status, req.ConsultantNotes, req.AppointmentDate, req.AppointmentTime, id, consultantID)
	if uniqueViolation(err) {
		return nil, ErrSlotTaken
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// UpdateStatusAdmin overrides an appointment's status without role scoping.
func (r *AppointmentRepository) UpdateStatusAdmin(ctx context.Context, id string, req dto.AdminUpdateAppointmentStatusRequest) (*models.Appointment, error) {
	query := fmt.Sprintf(`UPDATE appointments
SET status = $1,
	consultant_notes = COALESCE($2, consultant_notes),
	counter_proposal_date = COALESCE($3::date, counter_proposal_date),
	counter_proposal_time = COALESCE($4::time, counter_proposal_time),
	updated_at = CURRENT_TIMESTAMP
WHERE id = $5
RETURNING %s`, appointmentColumns)
	var appt models.Appointment
	err := r.db.GetContext(ctx, &appt, query, req.Status, req.ConsultantNotes, req.CounterProposalDate, req.CounterProposalTime, id)
	if uniqueViolation(err) {
		return nil, ErrSlotTaken
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// Delete removes an appointment (admin only).
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BookedTimes lists the consultant's occupied HH:MM slots on one date.
// Only pending and confirmed appointments occupy slots.
func (r *AppointmentRepository) BookedTimes(ctx context.Context, consultantID, date string) ([]string, error) {
	const query = `
SELECT to_char(appointment_time, 'HH24:MI')
FROM appointments
WHERE consultant_id = $1 AND appointment_date = $2 AND status IN ('pending', 'confirmed')
ORDER BY appointment_time`
	var times []string
	if err := r.db.SelectContext(ctx, &times, query, consultantID, date); err != nil {
		return nil, fmt.Errorf("list booked times: %w", err)
	}
	return times, nil
}

// ListForStudent returns the student's appointments, soonest first.
func (r *AppointmentRepository) ListForStudent(ctx context.Context, studentID string, filter dto.AppointmentFilter) ([]dto.StudentAppointmentItem, int, error) {
	conditions := []string{"a.student_id = $1"}
	args := []interface{}{studentID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM appointments a %s`, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count student appointments: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
SELECT
	a.id,
	to_char(a.appointment_date, 'YYYY-MM-DD') AS appointment_date,
	to_char(a.appointment_time, 'HH24:MI') AS appointment_time,
	a.status, a.student_notes, a.consultant_notes, a.requested_by, a.created_at,
	to_char(a.counter_proposal_date, 'YYYY-MM-DD') AS counter_proposal_date,
	to_char(a.counter_proposal_time, 'HH24:MI') AS counter_proposal_time,
	c.name AS consultant_name,
	c.email AS consultant_email,
	r.recommendation_type,
	r.reason AS recommendation_reason
FROM appointments a
JOIN users c ON c.id = a.consultant_id
LEFT JOIN recommendations r ON r.id = a.recommendation_id
%s
ORDER BY a.appointment_date DESC, a.appointment_time DESC
LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var items []dto.StudentAppointmentItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list student appointments: %w", err)
	}
	return items, total, nil
}

// ListForConsultant returns the consultant's agenda with optional status
// and date filters.
func (r *AppointmentRepository) ListForConsultant(ctx context.Context, consultantID string, filter dto.AppointmentFilter) ([]dto.ConsultantAppointmentItem, int, error) {
	conditions := []string{"a.consultant_id = $1"}
	args := []interface{}{consultantID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("a.appointment_date = $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM appointments a %s`, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count consultant appointments: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
SELECT
	a.id,
	to_char(a.appointment_date, 'YYYY-MM-DD') AS appointment_date,
	to_char(a.appointment_time, 'HH24:MI') AS appointment_time,
	a.status, a.student_notes, a.consultant_notes, a.requested_by, a.created_at,
	to_char(a.counter_proposal_date, 'YYYY-MM-DD') AS counter_proposal_date,
	to_char(a.counter_proposal_time, 'HH24:MI') AS counter_proposal_time,
	s.name AS student_name,
	s.student_id AS student_number,
	s.email AS student_email,
	r.recommendation_type,
	r.reason AS recommendation_reason
FROM appointments a
JOIN users s ON s.id = a.student_id
LEFT JOIN recommendations r ON r.id = a.recommendation_id
%s
ORDER BY a.appointment_date, a.appointment_time
LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var items []dto.ConsultantAppointmentItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list consultant appointments: %w", err)
	}
	return items, total, nil
}

// ListAll returns every appointment for the admin view with the full
// filter set.
func (r *AppointmentRepository) ListAll(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AdminAppointmentItem, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if filter.ConsultantID != "" {
		args = append(args, filter.ConsultantID)
		conditions = append(conditions, fmt.Sprintf("a.consultant_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("a.appointment_date >= $%d", len(args)))
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("a.appointment_date <= $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM appointments a %s`, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
SELECT
	a.id,
	to_char(a.appointment_date, 'YYYY-MM-DD') AS appointment_date,
	to_char(a.appointment_time, 'HH24:MI') AS appointment_time,
	a.status, a.student_notes, a.consultant_notes, a.requested_by, a.created_at, a.updated_at,
	to_char(a.counter_proposal_date, 'YYYY-MM-DD') AS counter_proposal_date,
	to_char(a.counter_proposal_time, 'HH24:MI') AS counter_proposal_time,
	s.name AS student_name,
	s.username AS student_username,
	s.email AS student_email,
	s.student_id AS student_number,
	c.name AS consultant_name,
	c.username AS consultant_username,
	c.email AS consultant_email
FROM appointments a
LEFT JOIN users s ON s.id = a.student_id
LEFT JOIN users c ON c.id = a.consultant_id
%s
ORDER BY a.appointment_date DESC, a.appointment_time DESC
LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var items []dto.AdminAppointmentItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	return items, total, nil
}

// StatusStats buckets the last 30 days of appointments by status.
func (r *AppointmentRepository) StatusStats(ctx context.Context) ([]models.AppointmentStatusCount, error) {
	const query = `
SELECT status, COUNT(*) AS count
FROM appointments
WHERE created_at >= CURRENT_DATE - INTERVAL '30 days'
GROUP BY status
ORDER BY status`
	var stats []models.AppointmentStatusCount
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("appointment status stats: %w", err)
	}
	return stats, nil
}

// ConsultantStats summarises per-consultant volume over the last 30 days.
func (r *AppointmentRepository) ConsultantStats(ctx context.Context) ([]models.ConsultantPerformance, error) {
	const query = `
SELECT
	c.name AS consultant_name,
	COUNT(a.id) AS total_appointments,
	COUNT(CASE WHEN a.status = 'completed' THEN 1 END) AS completed_appointments,
	COUNT(CASE WHEN a.status = 'pending' THEN 1 END) AS pending_appointments
FROM users c
LEFT JOIN appointments a ON a.consultant_id = c.id AND a.created_at >= CURRENT_DATE - INTERVAL '30 days'
WHERE c.role = 'consultant' AND c.is_active = true
GROUP BY c.id, c.name
ORDER BY total_appointments DESC`
	var stats []models.ConsultantPerformance
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("consultant stats: %w", err)
	}
	return stats, nil
}

// DailyStats counts bookings per day over the last 7 days.
func (r *AppointmentRepository) DailyStats(ctx context.Context) ([]models.DailyAppointmentCount, error) {
	const query = `
SELECT to_char(appointment_date, 'YYYY-MM-DD') AS date, COUNT(*) AS count
FROM appointments
WHERE appointment_date >= CURRENT_DATE - INTERVAL '7 days'
GROUP BY appointment_date
ORDER BY appointment_date`
	var stats []models.DailyAppointmentCount
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("daily appointment stats: %w", err)
	}
	return stats, nil
}
