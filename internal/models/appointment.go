package models

import "time"

// AppointmentStatus is the lifecycle state of a counseling appointment.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentDeclined  AppointmentStatus = "declined"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentRejected  AppointmentStatus = "rejected"
)

// NonTerminal reports whether the appointment still occupies its slot.
// Only pending and confirmed appointments block a consultant's calendar.
func (s AppointmentStatus) NonTerminal() bool {
	return s == AppointmentPending || s == AppointmentConfirmed
}

// Valid reports whether the status is a known appointment state.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentDeclined,
		AppointmentCompleted, AppointmentCancelled, AppointmentRejected:
		return true
	}
	return false
}

// RequestedBy identifies which actor initiated an appointment.
type RequestedBy string

const (
	RequestedByStudent    RequestedBy = "student"
	RequestedByConsultant RequestedBy = "consultant"
	RequestedByAdmin      RequestedBy = "admin"
)

// Appointment books a 30-minute consultant slot for a student. The optional
// RecommendationID back-references the referral the booking originated from;
// confirming or declining such an appointment also mutates that
// recommendation inside the same transaction. Counter-proposal fields
// annotate a declined appointment and are never consumed elsewhere.
type Appointment struct {
	ID                  string            `db:"id" json:"id"`
	StudentID           string            `db:"student_id" json:"student_id"`
	ConsultantID        string            `db:"consultant_id" json:"consultant_id"`
	RecommendationID    *string           `db:"recommendation_id" json:"recommendation_id,omitempty"`
	AppointmentDate     string            `db:"appointment_date" json:"appointment_date"`
	AppointmentTime     string            `db:"appointment_time" json:"appointment_time"`
	Status              AppointmentStatus `db:"status" json:"status"`
	RequestedBy         RequestedBy       `db:"requested_by" json:"requested_by"`
	StudentNotes        *string           `db:"student_notes" json:"student_notes,omitempty"`
	ConsultantNotes     *string           `db:"consultant_notes" json:"consultant_notes,omitempty"`
	CounterProposalDate *string           `db:"counter_proposal_date" json:"counter_proposal_date,omitempty"`
	CounterProposalTime *string           `db:"counter_proposal_time" json:"counter_proposal_time,omitempty"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentStatusCount is one bucket of the status distribution stats.
type AppointmentStatusCount struct {
	Status AppointmentStatus `db:"status" json:"status"`
	Count  int               `db:"count" json:"count"`
}

// ConsultantPerformance summarises one consultant's recent appointments.
type ConsultantPerformance struct {
	ConsultantName string `db:"consultant_name" json:"consultant_name"`
	Total          int    `db:"total_appointments" json:"total_appointments"`
	Completed      int    `db:"completed_appointments" json:"completed_appointments"`
	Pending        int    `db:"pending_appointments" json:"pending_appointments"`
}

// DailyAppointmentCount is one day's booking volume.
type DailyAppointmentCount struct {
	Date  string `db:"date" json:"date"`
	Count int    `db:"count" json:"count"`
}
