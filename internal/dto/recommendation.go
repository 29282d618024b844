package dto

import (
	"time"

	"github.com/campuswell/wellness-api/internal/models"
)

// CreateRecommendationRequest is the faculty referral payload.
type CreateRecommendationRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	Reason    string `json:"reason" validate:"required,min=3"`
}

// UpdateRecommendationStatusRequest advances a recommendation's lifecycle.
type UpdateRecommendationStatusRequest struct {
	Status models.RecommendationStatus `json:"status" validate:"required"`
}

// RecommendationFilter selects recommendations by status, paginated.
type RecommendationFilter struct {
	Status string
	Page   int
	Limit  int
}

// StudentRecommendationItem is a recommendation row shown to its student;
// SourceName is the faculty member's name or "Auto-Recommended".
type StudentRecommendationItem struct {
	ID           string                      `db:"id" json:"id"`
	Type         models.RecommendationType   `db:"recommendation_type" json:"recommendation_type"`
	Reason       string                      `db:"reason" json:"reason"`
	Status       models.RecommendationStatus `db:"status" json:"status"`
	CreatedAt    time.Time                   `db:"created_at" json:"created_at"`
	SourceName   string                      `db:"source_name" json:"source_name"`
	FacultyEmail *string                     `db:"faculty_email" json:"faculty_email,omitempty"`
}

// ConsultantRecommendationItem is the consultant queue row.
type ConsultantRecommendationItem struct {
	ID            string                      `db:"id" json:"id"`
	StudentID     string                      `db:"student_id" json:"student_id"`
	Type          models.RecommendationType   `db:"recommendation_type" json:"recommendation_type"`
	Reason        string                      `db:"reason" json:"reason"`
	Status        models.RecommendationStatus `db:"status" json:"status"`
	CreatedAt     time.Time                   `db:"created_at" json:"created_at"`
	StudentName   string                      `db:"student_name" json:"student_name"`
	StudentNumber *string                     `db:"student_number" json:"student_number,omitempty"`
	StudentEmail  string                      `db:"student_email" json:"student_email"`
	SourceName    string                      `db:"source_name" json:"source_name"`
	FacultyEmail  *string                     `db:"faculty_email" json:"faculty_email,omitempty"`
}

// FacultyRecommendationItem is a referral row shown to its author.
type FacultyRecommendationItem struct {
	ID                string                      `db:"id" json:"id"`
	StudentID         string                      `db:"student_id" json:"student_id"`
	Type              models.RecommendationType   `db:"recommendation_type" json:"recommendation_type"`
	Reason            string                      `db:"reason" json:"reason"`
	Status            models.RecommendationStatus `db:"status" json:"status"`
	CreatedAt         time.Time                   `db:"created_at" json:"created_at"`
	StudentName       string                      `db:"student_name" json:"student_name"`
	StudentNumber     *string                     `db:"student_number" json:"student_number,omitempty"`
	StudentEmail      string                      `db:"student_email" json:"student_email"`
	ConsultantName    *string                     `db:"consultant_name" json:"consultant_name,omitempty"`
	StatusDescription string                      `db:"-" json:"status_description"`
}

// RecommendationDetail is the full recommendation view with joined names.
type RecommendationDetail struct {
	ID              string                      `db:"id" json:"id"`
	StudentID       string                      `db:"student_id" json:"student_id"`
	FacultyID       *string                     `db:"faculty_id" json:"faculty_id,omitempty"`
	ConsultantID    *string                     `db:"consultant_id" json:"consultant_id,omitempty"`
	Type            models.RecommendationType   `db:"recommendation_type" json:"recommendation_type"`
	Reason          string                      `db:"reason" json:"reason"`
	Status          models.RecommendationStatus `db:"status" json:"status"`
	CooldownUntil   *time.Time                  `db:"cooldown_until" json:"cooldown_until,omitempty"`
	CreatedAt       time.Time                   `db:"created_at" json:"created_at"`
	StudentName     string                      `db:"student_name" json:"student_name"`
	StudentNumber   *string                     `db:"student_number" json:"student_number,omitempty"`
	StudentEmail    string                      `db:"student_email" json:"student_email"`
	SourceName      string                      `db:"source_name" json:"source_name"`
	FacultyEmail    *string                     `db:"faculty_email" json:"faculty_email,omitempty"`
	ConsultantName  *string                     `db:"consultant_name" json:"consultant_name,omitempty"`
	ConsultantEmail *string                     `db:"consultant_email" json:"consultant_email,omitempty"`
}
