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

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
)

// ErrCourseAssigned is returned when a course is already owned by another
// faculty member.
var ErrCourseAssigned = errors.New("course already assigned to another faculty member")

// UserRepository provides persistence for accounts and enrollment.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, username, email, password_hash, role, student_id, is_active, deactivated_until, created_at, updated_at`

// FindByIdentifier resolves a user by username or email.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE (username = $1 OR email = $1)`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(identifier)); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID fetches a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND is_active = true`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByRole fetches an active user constrained to a role; used to
// validate booking targets (consultants) and admin-created appointments.
func (r *UserRepository) FindActiveByRole(ctx context.Context, id string, role models.UserRole) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND role = $2 AND is_active = true`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id, role); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindConflicting reports which unique field (username, email or student_id)
// an existing row already occupies; empty string when none do.
func (r *UserRepository) FindConflicting(ctx context.Context, username, email string, studentID *string) (string, error) {
	const query = `SELECT username, email, student_id FROM users WHERE username = $1 OR email = $2 OR ($3::text IS NOT NULL AND student_id = $3)`
	var row struct {
		Username  string  `db:"username"`
		Email     string  `db:"email"`
		StudentID *string `db:"student_id"`
	}
	err := r.db.GetContext(ctx, &row, query, username, email, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("check unique user fields: %w", err)
	}
	switch {
	case row.Username == username:
		return "username", nil
	case row.Email == email:
		return "email", nil
	default:
		return "student_id", nil
	}
}

// CreateStudent inserts the student account and enrolls it into courses in
// one transaction; missing courses are created without a faculty owner.
func (r *UserRepository) CreateStudent(ctx context.Context, user *models.User, courses []dto.CourseInput) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student registration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertUser = `INSERT INTO users (id, name, username, email, password_hash, role, student_id, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 'student', $6, true, $7, $7)`
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	if _, err = tx.ExecContext(ctx, insertUser, user.ID, user.Name, user.Username, user.Email, user.PasswordHash, user.StudentID, now); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}

	for _, course := range courses {
		var courseID string
		if courseID, err = ensureCourse(ctx, tx, course.Title, course.Section); err != nil {
			return err
		}
		const enroll = `INSERT INTO student_courses (student_id, course_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err = tx.ExecContext(ctx, enroll, user.ID, courseID); err != nil {
			return fmt.Errorf("enroll student: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit student registration: %w", err)
	}
	return nil
}

// CreateFaculty inserts a faculty account and claims its courses in one
// transaction. A course already owned by a different faculty member aborts
// the whole registration with ErrCourseAssigned.
func (r *UserRepository) CreateFaculty(ctx context.Context, user *models.User, courses []dto.CourseInput) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin faculty registration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertUser = `INSERT INTO users (id, name, username, email, password_hash, role, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 'faculty', true, $6, $6)`
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	if _, err = tx.ExecContext(ctx, insertUser, user.ID, user.Name, user.Username, user.Email, user.PasswordHash, now); err != nil {
		return fmt.Errorf("insert faculty: %w", err)
	}

	for _, course := range courses {
		var existing struct {
			ID        string  `db:"id"`
			FacultyID *string `db:"faculty_id"`
		}
		err = tx.GetContext(ctx, &existing, `SELECT id, faculty_id FROM courses WHERE title = $1 AND section = $2`, course.Title, course.Section)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			const insertCourse = `INSERT INTO courses (id, title, section, faculty_id) VALUES ($1, $2, $3, $4)`
			if _, err = tx.ExecContext(ctx, insertCourse, uuid.NewString(), course.Title, course.Section, user.ID); err != nil {
				return fmt.Errorf("insert course: %w", err)
			}
		case err != nil:
			return fmt.Errorf("find course: %w", err)
		default:
			if existing.FacultyID != nil && *existing.FacultyID != user.ID {
				err = fmt.Errorf("%s - %s: %w", course.Title, course.Section, ErrCourseAssigned)
				return err
			}
			if _, err = tx.ExecContext(ctx, `UPDATE courses SET faculty_id = $1 WHERE id = $2`, user.ID, existing.ID); err != nil {
				return fmt.Errorf("assign course: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit faculty registration: %w", err)
	}
	return nil
}

// CreateConsultant inserts a consultant account.
func (r *UserRepository) CreateConsultant(ctx context.Context, user *models.User) error {
	const query = `INSERT INTO users (id, name, username, email, password_hash, role, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 'consultant', true, $6, $6)`
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Username, user.Email, user.PasswordHash, now); err != nil {
		return fmt.Errorf("insert consultant: %w", err)
	}
	return nil
}

var userSortColumns = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"role":       "role",
	"created_at": "created_at",
	"student_id": "student_id",
}

// List returns active users filtered, sorted and paginated, together with
// the total row count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]dto.UserListItem, int, error) {
	conditions := []string{"u.is_active = true"}
	args := []interface{}{}

	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("u.role = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(u.name ILIKE $%d OR u.username ILIKE $%d OR u.email ILIKE $%d OR u.student_id ILIKE $%d)", n, n, n, n))
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM users u %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	sortColumn, ok := userSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
SELECT
	u.id, u.name, u.username, u.email, u.role, u.student_id, u.created_at,
	CASE
		WHEN u.role = 'student' THEN (SELECT COUNT(*) FROM student_courses sc WHERE sc.student_id = u.id)
		WHEN u.role = 'faculty' THEN (SELECT COUNT(*) FROM courses c WHERE c.faculty_id = u.id)
		ELSE 0
	END AS course_count
FROM users u
%s
ORDER BY u.%s %s
LIMIT $%d OFFSET $%d`, where, sortColumn, direction, len(args)-1, len(args))

	var items []dto.UserListItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return items, total, nil
}

// UpdateProfile applies a partial profile update, retaining unset fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, name, email *string) (*models.User, error) {
	query := fmt.Sprintf(`UPDATE users
SET name = COALESCE($1, name), email = COALESCE($2, email), updated_at = CURRENT_TIMESTAMP
WHERE id = $3 AND is_active = true
RETURNING %s`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, name, email, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, passwordHash, id); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateStatus flips account activation, optionally until a deadline.
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, isActive bool, deactivatedUntil *time.Time) (*models.User, error) {
	query := fmt.Sprintf(`UPDATE users
SET is_active = $1, deactivated_until = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $3
RETURNING %s`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, isActive, deactivatedUntil, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// SoftDelete deactivates the account without removing rows.
func (r *UserRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE users SET is_active = false, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HardDelete removes the account row entirely (admin only).
func (r *UserRepository) HardDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RoleStats aggregates active non-admin accounts per role for the admin
// dashboard.
func (r *UserRepository) RoleStats(ctx context.Context) ([]dto.RoleCount, error) {
	const query = `
SELECT
	role,
	COUNT(*) AS count,
	COUNT(CASE WHEN created_at >= CURRENT_DATE - INTERVAL '30 days' THEN 1 END) AS new_this_month,
	COUNT(CASE WHEN created_at >= CURRENT_DATE - INTERVAL '7 days' THEN 1 END) AS new_this_week
FROM users
WHERE is_active = true AND role != 'admin'
GROUP BY role
ORDER BY role`
	var stats []dto.RoleCount
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("user role stats: %w", err)
	}
	return stats, nil
}

func ensureCourse(ctx context.Context, tx *sqlx.Tx, title, section string) (string, error) {
	var courseID string
	err := tx.GetContext(ctx, &courseID, `SELECT id FROM courses WHERE title = $1 AND section = $2`, title, section)
	if errors.Is(err, sql.ErrNoRows) {
		courseID = uuid.NewString()
		if _, err := tx.ExecContext(ctx, `INSERT INTO courses (id, title, section) VALUES ($1, $2, $3)`, courseID, title, section); err != nil {
			return "", fmt.Errorf("insert course: %w", err)
		}
		return courseID, nil
	}
	if err != nil {
		return "", fmt.Errorf("find course: %w", err)
	}
	return courseID, nil
}
