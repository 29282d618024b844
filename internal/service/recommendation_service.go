package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/internal/repository"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
)

type recommendationRepository interface {
	Create(ctx context.Context, studentID, facultyID, reason string) (*models.Recommendation, error)
	FindByID(ctx context.Context, id string) (*models.Recommendation, error)
	ActiveCooldown(ctx context.Context, studentID string) (*models.Recommendation, error)
	UpdateStatusFrom(ctx context.Context, id string, from, to models.RecommendationStatus) (*models.Recommendation, error)
	ListForStudent(ctx context.Context, studentID string, filter dto.RecommendationFilter) ([]dto.StudentRecommendationItem, int, error)
	ListForConsultant(ctx context.Context, consultantID string, filter dto.RecommendationFilter) ([]dto.ConsultantRecommendationItem, int, error)
	ListForFaculty(ctx context.Context, facultyID string, filter dto.RecommendationFilter) ([]dto.FacultyRecommendationItem, int, error)
	Detail(ctx context.Context, id string) (*dto.RecommendationDetail, error)
}

type enrollmentChecker interface {
	IsStudentOfFaculty(ctx context.Context, studentID, facultyID string) (bool, error)
}

type activeUserFinder interface {
	FindActiveByRole(ctx context.Context, id string, role models.UserRole) (*models.User, error)
}

// RecommendationService handles the counseling referral lifecycle.
type RecommendationService struct {
	repo        recommendationRepository
	enrollments enrollmentChecker
	users       activeUserFinder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRecommendationService constructs the service.
func NewRecommendationService(repo recommendationRepository, enrollments enrollmentChecker, users activeUserFinder, validate *validator.Validate, logger *zap.Logger) *RecommendationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{repo: repo, enrollments: enrollments, users: users, validator: validate, logger: logger}
}

// CreateFaculty files a referral for a student enrolled in one of the
// faculty member's courses. A running cooldown from a recent confirmed
// consultation blocks the referral; the deadline is echoed back to the
// caller.
func (s *RecommendationService) CreateFaculty(ctx context.Context, facultyID string, req dto.CreateRecommendationRequest) (*models.Recommendation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student_id and reason are required")
	}

	if _, err := s.users.FindActiveByRole(ctx, req.StudentID, models.RoleStudent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	enrolled, err := s.enrollments.IsStudentOfFaculty(ctx, req.StudentID, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in your courses")
	}

	cooldown, err := s.repo.ActiveCooldown(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check cooldown")
	}
	if cooldown != nil {
		conflict := appErrors.Clone(appErrors.ErrConflict, "student is in a post-consultation cooldown period")
		return nil, appErrors.WithDetails(conflict, map[string]interface{}{
			"cooldown_until": cooldown.CooldownUntil,
		})
	}

	rec, err := s.repo.Create(ctx, req.StudentID, facultyID, req.Reason)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create recommendation")
	}
	s.logger.Info("recommendation created",
		zap.String("recommendation_id", rec.ID),
		zap.String("student_id", req.StudentID),
		zap.String("faculty_id", facultyID))
	return rec, nil
}

func normalizeRecommendationFilter(filter *dto.RecommendationFilter) error {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 10
	}
	if filter.Status != "" && !models.RecommendationStatus(filter.Status).Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
	}
	return nil
}

// ListForStudent returns the caller's recommendations.
func (s *RecommendationService) ListForStudent(ctx context.Context, studentID string, filter dto.RecommendationFilter) ([]dto.StudentRecommendationItem, *models.Pagination, error) {
	if err := normalizeRecommendationFilter(&filter); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListForStudent(ctx, studentID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recommendations")
	}
	return items, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// ListForConsultant returns the open queue plus the consultant's sessions.
func (s *RecommendationService) ListForConsultant(ctx context.Context, consultantID string, filter dto.RecommendationFilter) ([]dto.ConsultantRecommendationItem, *models.Pagination, error) {
	if err := normalizeRecommendationFilter(&filter); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListForConsultant(ctx, consultantID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recommendations")
	}
	return items, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// ListForFaculty returns referrals the caller authored, each carrying a
// human-readable status description.
func (s *RecommendationService) ListForFaculty(ctx context.Context, facultyID string, filter dto.RecommendationFilter) ([]dto.FacultyRecommendationItem, *models.Pagination, error) {
	if err := normalizeRecommendationFilter(&filter); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListForFaculty(ctx, facultyID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recommendations")
	}
	for i := range items {
		items[i].StatusDescription = items[i].Status.StatusDescription()
	}
	return items, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Detail returns the full recommendation view, scoped to the caller's role:
// students see their own, faculty see their referrals, consultants and
// admins see everything.
func (s *RecommendationService) Detail(ctx context.Context, id string, claims *models.JWTClaims) (*dto.RecommendationDetail, error) {
	detail, err := s.repo.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recommendation")
	}

	switch claims.Role {
	case models.RoleStudent:
		if detail.StudentID != claims.UserID {
			return nil, appErrors.ErrForbidden
		}
	case models.RoleFaculty:
		if detail.FacultyID == nil || *detail.FacultyID != claims.UserID {
			return nil, appErrors.ErrForbidden
		}
	}
	return detail, nil
}

// UpdateStatus advances the recommendation lifecycle. Illegal transitions
// are rejected for every caller, admins included.
func (s *RecommendationService) UpdateStatus(ctx context.Context, id string, req dto.UpdateRecommendationStatusRequest) (*models.Recommendation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}

	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recommendation")
	}

	if !rec.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("cannot move recommendation from %s to %s", rec.Status, req.Status))
	}

	updated, err := s.repo.UpdateStatusFrom(ctx, id, rec.Status, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "recommendation was updated concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update recommendation")
	}

	s.logger.Info("recommendation status updated",
		zap.String("recommendation_id", id),
		zap.String("from", string(rec.Status)),
		zap.String("to", string(req.Status)))
	return updated, nil
}
