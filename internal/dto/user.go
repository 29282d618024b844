package dto

import (
	"time"

	"github.com/campuswell/wellness-api/internal/models"
)

// AddFacultyRequest creates a faculty account and assigns courses.
type AddFacultyRequest struct {
	Name     string        `json:"name" validate:"required"`
	Username string        `json:"username" validate:"required,min=3"`
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,min=8"`
	Courses  []CourseInput `json:"courses" validate:"required,min=1,dive"`
}

// AddConsultantRequest creates a consultant account.
type AddConsultantRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserListItem is the admin user-listing row.
type UserListItem struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Username    string          `db:"username" json:"username"`
	Email       string          `db:"email" json:"email"`
	Role        models.UserRole `db:"role" json:"role"`
	StudentID   *string         `db:"student_id" json:"student_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	CourseCount int             `db:"course_count" json:"course_count"`
}

// StudentCourse is one course on a student's detail view.
type StudentCourse struct {
	ID          string  `db:"id" json:"id"`
	Title       string  `db:"title" json:"title"`
	Section     string  `db:"section" json:"section"`
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
}

// StudentMoodSummary is the lifetime mood aggregate on a student's detail.
type StudentMoodSummary struct {
	TotalEntries  int      `db:"total_entries" json:"total_entries"`
	AvgMood       *float64 `db:"avg_mood" json:"avg_mood"`
	MinMood       *int     `db:"min_mood" json:"min_mood"`
	MaxMood       *int     `db:"max_mood" json:"max_mood"`
	LastEntryDate *string  `db:"last_entry_date" json:"last_entry_date,omitempty"`
}

// UserDetail enriches a user with role-specific data.
type UserDetail struct {
	*models.User
	Courses   interface{}         `json:"courses,omitempty"`
	MoodStats *StudentMoodSummary `json:"mood_stats,omitempty"`
}

// RoleCount is one bucket of the admin user statistics.
type RoleCount struct {
	Role         models.UserRole `db:"role" json:"role"`
	Count        int             `db:"count" json:"count"`
	NewThisMonth int             `db:"new_this_month" json:"new_this_month"`
	NewThisWeek  int             `db:"new_this_week" json:"new_this_week"`
}

// MoodOverview is the 30-day system-wide mood aggregate.
type MoodOverview struct {
	TotalEntries    int      `db:"total_entries" json:"total_entries"`
	EntriesToday    int      `db:"entries_today" json:"entries_today"`
	EntriesThisWeek int      `db:"entries_this_week" json:"entries_this_week"`
	OverallAvgMood  *float64 `db:"overall_avg_mood" json:"overall_avg_mood"`
	LowMoodEntries  int      `db:"low_mood_entries" json:"low_mood_entries"`
}

// DashboardStats is the cached admin dashboard payload.
type DashboardStats struct {
	UserStats        []RoleCount                     `json:"userStats"`
	MoodStats        *MoodOverview                   `json:"moodStats"`
	AppointmentStats []models.AppointmentStatusCount `json:"appointmentStats"`
}

// FacultyStudent is one student on a faculty member's roster.
type FacultyStudent struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	StudentID   *string `db:"student_id" json:"student_id,omitempty"`
	Email       string  `db:"email" json:"email"`
	CourseTitle string  `db:"course_title" json:"course_title"`
	Section     string  `db:"section" json:"section"`
}
