package dto

import (
	"time"

	"github.com/campuswell/wellness-api/internal/models"
)

// LoginRequest authenticates by username or email.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// CourseInput identifies a course by title and section on registration and
// faculty creation; missing courses are created on the fly.
type CourseInput struct {
	Title   string `json:"title" validate:"required"`
	Section string `json:"section" validate:"required"`
}

// RegisterRequest creates a student account enrolled in courses.
type RegisterRequest struct {
	Name      string        `json:"name" validate:"required"`
	Username  string        `json:"username" validate:"required,min=3"`
	Email     string        `json:"email" validate:"required,email"`
	Password  string        `json:"password" validate:"required,min=8"`
	StudentID string        `json:"student_id" validate:"required"`
	Courses   []CourseInput `json:"courses" validate:"required,min=1,dive"`
}

// UpdateProfileRequest updates mutable profile fields.
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// UpdateUserStatusRequest activates or deactivates an account, optionally
// until a deadline.
type UpdateUserStatusRequest struct {
	IsActive         *bool      `json:"is_active" validate:"required"`
	DeactivatedUntil *time.Time `json:"deactivated_until"`
}
