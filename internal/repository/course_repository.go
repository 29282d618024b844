package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
)

// CourseRepository provides persistence for courses and their rosters.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns all courses with owner name and enrollment counts.
func (r *CourseRepository) List(ctx context.Context) ([]models.CourseWithStats, error) {
	const query = `
SELECT
	c.id, c.title, c.section, c.faculty_id, c.created_at, c.updated_at,
	f.name AS faculty_name,
	COUNT(sc.student_id) AS student_count
FROM courses c
LEFT JOIN users f ON f.id = c.faculty_id
LEFT JOIN student_courses sc ON sc.course_id = c.id
GROUP BY c.id, c.title, c.section, c.faculty_id, c.created_at, c.updated_at, f.name
ORDER BY c.title, c.section`
	var courses []models.CourseWithStats
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a single course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, section, faculty_id, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByTitleSection looks up a course by its natural key.
func (r *CourseRepository) FindByTitleSection(ctx context.Context, title, section string) (*models.Course, error) {
	const query = `SELECT id, title, section, faculty_id, created_at, updated_at FROM courses WHERE title = $1 AND section = $2`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, title, section); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a course, optionally pre-assigned to a faculty member.
func (r *CourseRepository) Create(ctx context.Context, title, section string, facultyID *string) (*models.Course, error) {
	const query = `INSERT INTO courses (id, title, section, faculty_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING id, title, section, faculty_id, created_at, updated_at`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, uuid.NewString(), title, section, facultyID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert course: %w", err)
	}
	return &course, nil
}

// Update applies a partial course update.
func (r *CourseRepository) Update(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	const query = `UPDATE courses
SET title = COALESCE($1, title), section = COALESCE($2, section), faculty_id = COALESCE($3, faculty_id), updated_at = CURRENT_TIMESTAMP
WHERE id = $4
RETURNING id, title, section, faculty_id, created_at, updated_at`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, req.Title, req.Section, req.FacultyID, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Delete removes the course; enrollments cascade at the schema level.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Students returns the roster of one course.
func (r *CourseRepository) Students(ctx context.Context, courseID string) ([]dto.CourseStudent, error) {
	const query = `
SELECT u.id, u.name, u.email, u.student_id
FROM student_courses sc
JOIN users u ON u.id = sc.student_id
WHERE sc.course_id = $1 AND u.is_active = true
ORDER BY u.name`
	var students []dto.CourseStudent
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}

// ForFaculty lists the courses one faculty member teaches.
func (r *CourseRepository) ForFaculty(ctx context.Context, facultyID string) ([]models.CourseWithStats, error) {
	const query = `
SELECT
	c.id, c.title, c.section, c.faculty_id, c.created_at, c.updated_at,
	COUNT(sc.student_id) AS student_count
FROM courses c
LEFT JOIN student_courses sc ON sc.course_id = c.id
WHERE c.faculty_id = $1
GROUP BY c.id, c.title, c.section, c.faculty_id, c.created_at, c.updated_at
ORDER BY c.title, c.section`
	var courses []models.CourseWithStats
	if err := r.db.SelectContext(ctx, &courses, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty courses: %w", err)
	}
	return courses, nil
}

// StudentsOfFaculty lists the students enrolled in the faculty member's
// courses, one row per enrollment.
func (r *CourseRepository) StudentsOfFaculty(ctx context.Context, facultyID string) ([]dto.FacultyStudent, error) {
	const query = `
SELECT
	u.id, u.name, u.student_id, u.email,
	c.title AS course_title,
	c.section
FROM users u
JOIN student_courses sc ON sc.student_id = u.id
JOIN courses c ON c.id = sc.course_id
WHERE c.faculty_id = $1 AND u.is_active = true
ORDER BY c.title, c.section, u.name`
	var students []dto.FacultyStudent
	if err := r.db.SelectContext(ctx, &students, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty students: %w", err)
	}
	return students, nil
}

// IsStudentOfFaculty reports whether the student is enrolled in at least one
// of the faculty member's courses.
func (r *CourseRepository) IsStudentOfFaculty(ctx context.Context, studentID, facultyID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1
	FROM student_courses sc
	JOIN courses c ON c.id = sc.course_id
	WHERE sc.student_id = $1 AND c.faculty_id = $2
)`
	var enrolled bool
	if err := r.db.GetContext(ctx, &enrolled, query, studentID, facultyID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}

// CoursesOfStudent lists the courses one student is enrolled in.
func (r *CourseRepository) CoursesOfStudent(ctx context.Context, studentID string) ([]dto.StudentCourse, error) {
	const query = `
SELECT c.id, c.title, c.section, f.name AS faculty_name
FROM student_courses sc
JOIN courses c ON c.id = sc.course_id
LEFT JOIN users f ON f.id = c.faculty_id
WHERE sc.student_id = $1
ORDER BY c.title, c.section`
	var courses []dto.StudentCourse
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}
