package models

import "time"

// Course represents a taught course; FacultyID is null until a faculty
// member is assigned.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Section   string    `db:"section" json:"section"`
	FacultyID *string   `db:"faculty_id" json:"faculty_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseWithStats carries aggregate enrollment info for admin listings.
type CourseWithStats struct {
	Course
	FacultyName  *string `db:"faculty_name" json:"faculty_name,omitempty"`
	StudentCount int     `db:"student_count" json:"student_count"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
