package dto

// CreateCourseRequest creates a course, optionally assigning a faculty.
type CreateCourseRequest struct {
	Title     string  `json:"title" validate:"required"`
	Section   string  `json:"section" validate:"required"`
	FacultyID *string `json:"faculty_id" validate:"omitempty,uuid4"`
}

// UpdateCourseRequest partially updates a course.
type UpdateCourseRequest struct {
	Title     *string `json:"title" validate:"omitempty,min=1"`
	Section   *string `json:"section" validate:"omitempty,min=1"`
	FacultyID *string `json:"faculty_id" validate:"omitempty,uuid4"`
}

// CourseStudent is one enrolled student on a course roster.
type CourseStudent struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	StudentID *string `db:"student_id" json:"student_id,omitempty"`
	Email     string  `db:"email" json:"email"`
}
