package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
)

// ErrStaleStatus is returned when a guarded status update finds the row no
// longer in the expected state.
var ErrStaleStatus = errors.New("recommendation status changed concurrently")

// RecommendationRepository provides persistence for counseling
// recommendations.
type RecommendationRepository struct {
	db *sqlx.DB
}

// NewRecommendationRepository constructs the repository.
func NewRecommendationRepository(db *sqlx.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

const recommendationColumns = `id, student_id, faculty_id, consultant_id, recommendation_type, status, reason, cooldown_until, created_at, updated_at`

// Create inserts a faculty referral in pending state.
func (r *RecommendationRepository) Create(ctx context.Context, studentID, facultyID, reason string) (*models.Recommendation, error) {
	query := fmt.Sprintf(`INSERT INTO recommendations (id, student_id, faculty_id, recommendation_type, status, reason, created_at, updated_at)
VALUES ($1, $2, $3, 'faculty', 'pending', $4, $5, $5)
RETURNING %s`, recommendationColumns)
	var rec models.Recommendation
	if err := r.db.GetContext(ctx, &rec, query, uuid.NewString(), studentID, facultyID, reason, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert recommendation: %w", err)
	}
	return &rec, nil
}

// FindByID fetches one recommendation.
func (r *RecommendationRepository) FindByID(ctx context.Context, id string) (*models.Recommendation, error) {
	query := fmt.Sprintf(`SELECT %s FROM recommendations WHERE id = $1`, recommendationColumns)
	var rec models.Recommendation
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ActiveCooldown returns the student's recommendation whose cooldown is
// still running, or nil when none blocks new referrals.
func (r *RecommendationRepository) ActiveCooldown(ctx context.Context, studentID string) (*models.Recommendation, error) {
	query := fmt.Sprintf(`SELECT %s FROM recommendations
WHERE student_id = $1 AND cooldown_until > CURRENT_TIMESTAMP
ORDER BY cooldown_until DESC
LIMIT 1`, recommendationColumns)
	var rec models.Recommendation
	err := r.db.GetContext(ctx, &rec, query, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check cooldown: %w", err)
	}
	return &rec, nil
}

// UpdateStatusFrom moves the recommendation from one status to another,
// failing with ErrStaleStatus when the row left the expected state.
func (r *RecommendationRepository) UpdateStatusFrom(ctx context.Context, id string, from, to models.RecommendationStatus) (*models.Recommendation, error) {
	query := fmt.Sprintf(`UPDATE recommendations
SET status = $1, updated_at = CURRENT_TIMESTAMP
WHERE id = $2 AND status = $3
RETURNING %s`, recommendationColumns)
	var rec models.Recommendation
	err := r.db.GetContext(ctx, &rec, query, to, id, from)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaleStatus
	}
	if err != nil {
		return nil, fmt.Errorf("update recommendation status: %w", err)
	}
	return &rec, nil
}

func recommendationWhere(scope string, hasStatus bool) string {
	where := "WHERE " + scope
	if hasStatus {
		where += " AND r.status = $2"
	}
	return where
}

func recommendationArgs(scopeID string, filter dto.RecommendationFilter) []interface{} {
	args := []interface{}{scopeID}
	if filter.Status != "" {
		args = append(args, filter.Status)
	}
	return args
}

// ListForStudent returns the student's recommendations, newest first.
func (r *RecommendationRepository) ListForStudent(ctx context.Context, studentID string, filter dto.RecommendationFilter) ([]dto.StudentRecommendationItem, int, error) {
	where := recommendationWhere("r.student_id = $1", filter.Status != "")
	args := recommendationArgs(studentID, filter)

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM recommendations r %s`, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count student recommendations: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
SELECT
	r.id, r.recommendation_type, r.reason, r.status, r.created_at,
	CASE WHEN r.recommendation_type = 'auto' THEN 'Auto-Recommended' ELSE f.name END AS source_name,
	f.email AS faculty_email
FROM recommendations r
LEFT JOIN users f ON f.id = r.faculty_id
%s
ORDER BY r.created_at DESC
LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var items []dto.StudentRecommendationItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list student recommendations: %w", err)
	}
	return items, total, nil
}

// ListForConsultant returns the open queue plus sessions assigned to the
// consultant, newest first.
func (r *RecommendationRepository) ListForConsultant(ctx context.Context, consultantID string, filter dto.RecommendationFilter) ([]dto.ConsultantRecommendationItem, int, error) {
	where := recommendationWhere("(r.consultant_id = $1 OR r.consultant_id IS NULL)", filter.Status != "")
	args := recommendationArgs(consultantID, filter)

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM recommendations r %s`, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count consultant recommendations: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
SELECT
	r.id, r.student_id, r.recommendation_type, r.reason, r.status, r.created_at,
	s.name AS student_name,
	s.student_id AS student_number,
	s.email AS student_email,
	CASE WHEN r.recommendation_type = 'auto' THEN 'Auto-Recommended' ELSE f.name END AS source_name,
	f.email AS faculty_email
FROM recommendations r
JOIN users s ON s.id = r.student_id
LEFT JOIN users f ON f.id = r.faculty_id
%s
ORDER BY r.created_at DESC
LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var items []dto.ConsultantRecommendationItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list consultant recommendations: %w", err)
	}
	return items, total, nil
}

// ListForFaculty returns referrals the faculty member authored.
func (r *RecommendationRepository) ListForFaculty(ctx context.Context, facultyID string, filter dto.RecommendationFilter) ([]dto.FacultyRecommendationItem, int, error) {
	where := recommendationWhere("r.faculty_id = $1", filter.Status != "")
	args := recommendationArgs(facultyID, filter)

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM recommendations r %s`, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty recommendations: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
SELECT
	r.id, r.student_id, r.recommendation_type, r.reason, r.status, r.created_at,
	s.name AS student_name,
	s.student_id AS student_number,
	s.email AS student_email,
	c.name AS consultant_name
FROM recommendations r
JOIN users s ON s.id = r.student_id
LEFT JOIN users c ON c.id = r.consultant_id
%s
ORDER BY r.created_at DESC
LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var items []dto.FacultyRecommendationItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty recommendations: %w", err)
	}
	return items, total, nil
}

// Detail fetches the full recommendation view with all joined identities.
func (r *RecommendationRepository) Detail(ctx context.Context, id string) (*dto.RecommendationDetail, error) {
	const query = `
SELECT
	r.id, r.student_id, r.faculty_id, r.consultant_id, r.recommendation_type,
	r.reason, r.status, r.cooldown_until, r.created_at,
	s.name AS student_name,
	s.student_id AS student_number,
	s.email AS student_email,
	CASE WHEN r.recommendation_type = 'auto' THEN 'Auto-Recommended' ELSE f.name END AS source_name,
	f.email AS faculty_email,
	c.name AS consultant_name,
	c.email AS consultant_email
FROM recommendations r
JOIN users s ON s.id = r.student_id
LEFT JOIN users f ON f.id = r.faculty_id
LEFT JOIN users c ON c.id = r.consultant_id
WHERE r.id = $1`
	var detail dto.RecommendationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}
