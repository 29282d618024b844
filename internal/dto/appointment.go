package dto

import (
	"time"

	"github.com/campuswell/wellness-api/internal/models"
)

// CreateAppointmentRequest books a consultant slot on behalf of a student.
type CreateAppointmentRequest struct {
	ConsultantID     string  `json:"consultant_id" validate:"required,uuid4"`
	AppointmentDate  string  `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	AppointmentTime  string  `json:"appointment_time" validate:"required,datetime=15:04"`
	StudentNotes     *string `json:"student_notes"`
	RecommendationID *string `json:"recommendation_id" validate:"omitempty,uuid4"`
}

// ScheduleFromRecommendationRequest is the consultant-initiated booking that
// consumes a pending recommendation.
type ScheduleFromRecommendationRequest struct {
	RecommendationID string  `json:"recommendation_id" validate:"required,uuid4"`
	AppointmentDate  string  `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	AppointmentTime  string  `json:"appointment_time" validate:"required,datetime=15:04"`
	ConsultantNotes  *string `json:"consultant_notes"`
}

// RespondToAppointmentRequest is the student's answer to a pending
// appointment: confirm, or decline with an optional counter-proposal.
type RespondToAppointmentRequest struct {
	Status              models.AppointmentStatus `json:"status" validate:"required,oneof=confirmed declined"`
	CounterProposalDate *string                  `json:"counter_proposal_date" validate:"omitempty,datetime=2006-01-02"`
	CounterProposalTime *string                  `json:"counter_proposal_time" validate:"omitempty,datetime=15:04"`
	StudentNotes        *string                  `json:"student_notes"`
}

// UpdateAppointmentRequest is the consultant's partial update / reschedule;
// unspecified fields retain their previous value.
type UpdateAppointmentRequest struct {
	Status          *models.AppointmentStatus `json:"status"`
	ConsultantNotes *string                   `json:"consultant_notes"`
	AppointmentDate *string                   `json:"appointment_date" validate:"omitempty,datetime=2006-01-02"`
	AppointmentTime *string                   `json:"appointment_time" validate:"omitempty,datetime=15:04"`
}

// AdminCreateAppointmentRequest books a slot directly on behalf of a student.
type AdminCreateAppointmentRequest struct {
	StudentID       string  `json:"student_id" validate:"required,uuid4"`
	ConsultantID    string  `json:"consultant_id" validate:"required,uuid4"`
	AppointmentDate string  `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	AppointmentTime string  `json:"appointment_time" validate:"required,datetime=15:04"`
	StudentNotes    *string `json:"student_notes"`
	RequestedBy     *string `json:"requested_by" validate:"omitempty,oneof=student consultant admin"`
}

// AdminUpdateAppointmentStatusRequest overrides an appointment's status.
type AdminUpdateAppointmentStatusRequest struct {
	Status              models.AppointmentStatus `json:"status" validate:"required"`
	ConsultantNotes     *string                  `json:"consultant_notes"`
	CounterProposalDate *string                  `json:"counter_proposal_date" validate:"omitempty,datetime=2006-01-02"`
	CounterProposalTime *string                  `json:"counter_proposal_time" validate:"omitempty,datetime=15:04"`
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	Status       string
	Date         string
	ConsultantID string
	StudentID    string
	DateFrom     string
	DateTo       string
	Page         int
	Limit        int
}

// StudentAppointmentItem is an appointment row shown to its student.
type StudentAppointmentItem struct {
	ID                   string                     `db:"id" json:"id"`
	AppointmentDate      string                     `db:"appointment_date" json:"appointment_date"`
	AppointmentTime      string                     `db:"appointment_time" json:"appointment_time"`
	Status               models.AppointmentStatus   `db:"status" json:"status"`
	StudentNotes         *string                    `db:"student_notes" json:"student_notes,omitempty"`
	ConsultantNotes      *string                    `db:"consultant_notes" json:"consultant_notes,omitempty"`
	RequestedBy          models.RequestedBy         `db:"requested_by" json:"requested_by"`
	CreatedAt            time.Time                  `db:"created_at" json:"created_at"`
	CounterProposalDate  *string                    `db:"counter_proposal_date" json:"counter_proposal_date,omitempty"`
	CounterProposalTime  *string                    `db:"counter_proposal_time" json:"counter_proposal_time,omitempty"`
	ConsultantName       string                     `db:"consultant_name" json:"consultant_name"`
	ConsultantEmail      string                     `db:"consultant_email" json:"consultant_email"`
	RecommendationType   *models.RecommendationType `db:"recommendation_type" json:"recommendation_type,omitempty"`
	RecommendationReason *string                    `db:"recommendation_reason" json:"recommendation_reason,omitempty"`
}

// ConsultantAppointmentItem is an appointment row on a consultant's agenda.
type ConsultantAppointmentItem struct {
	ID                   string                     `db:"id" json:"id"`
	AppointmentDate      string                     `db:"appointment_date" json:"appointment_date"`
	AppointmentTime      string                     `db:"appointment_time" json:"appointment_time"`
	Status               models.AppointmentStatus   `db:"status" json:"status"`
	StudentNotes         *string                    `db:"student_notes" json:"student_notes,omitempty"`
	ConsultantNotes      *string                    `db:"consultant_notes" json:"consultant_notes,omitempty"`
	RequestedBy          models.RequestedBy         `db:"requested_by" json:"requested_by"`
	CreatedAt            time.Time                  `db:"created_at" json:"created_at"`
	CounterProposalDate  *string                    `db:"counter_proposal_date" json:"counter_proposal_date,omitempty"`
	CounterProposalTime  *string                    `db:"counter_proposal_time" json:"counter_proposal_time,omitempty"`
	StudentName          string                     `db:"student_name" json:"student_name"`
	StudentNumber        *string                    `db:"student_number" json:"student_number,omitempty"`
	StudentEmail         string                     `db:"student_email" json:"student_email"`
	RecommendationType   *models.RecommendationType `db:"recommendation_type" json:"recommendation_type,omitempty"`
	RecommendationReason *string                    `db:"recommendation_reason" json:"recommendation_reason,omitempty"`
}

// AdminAppointmentItem is the cross-role admin listing row.
type AdminAppointmentItem struct {
	ID                  string                   `db:"id" json:"id"`
	AppointmentDate     string                   `db:"appointment_date" json:"appointment_date"`
	AppointmentTime     string                   `db:"appointment_time" json:"appointment_time"`
	Status              models.AppointmentStatus `db:"status" json:"status"`
	StudentNotes        *string                  `db:"student_notes" json:"student_notes,omitempty"`
	ConsultantNotes     *string                  `db:"consultant_notes" json:"consultant_notes,omitempty"`
	RequestedBy         models.RequestedBy       `db:"requested_by" json:"requested_by"`
	CreatedAt           time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time                `db:"updated_at" json:"updated_at"`
	CounterProposalDate *string                  `db:"counter_proposal_date" json:"counter_proposal_date,omitempty"`
	CounterProposalTime *string                  `db:"counter_proposal_time" json:"counter_proposal_time,omitempty"`
	StudentName         *string                  `db:"student_name" json:"student_name,omitempty"`
	StudentUsername     *string                  `db:"student_username" json:"student_username,omitempty"`
	StudentEmail        *string                  `db:"student_email" json:"student_email,omitempty"`
	StudentNumber       *string                  `db:"student_number" json:"student_number,omitempty"`
	ConsultantName      *string                  `db:"consultant_name" json:"consultant_name,omitempty"`
	ConsultantUsername  *string                  `db:"consultant_username" json:"consultant_username,omitempty"`
	ConsultantEmail     *string                  `db:"consultant_email" json:"consultant_email,omitempty"`
}

// AvailableSlotsResult is one consultant's slot availability for a date.
type AvailableSlotsResult struct {
	ConsultantID   string   `json:"consultant_id"`
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
	BookedSlots    []string `json:"booked_slots"`
}

// AppointmentStats is the 30-day admin dashboard block.
type AppointmentStats struct {
	StatusStats     []models.AppointmentStatusCount `json:"statusStats"`
	ConsultantStats []models.ConsultantPerformance  `json:"consultantStats"`
	DailyStats      []models.DailyAppointmentCount  `json:"dailyStats"`
}
