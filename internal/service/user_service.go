package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/internal/repository"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindConflicting(ctx context.Context, username, email string, studentID *string) (string, error)
	CreateFaculty(ctx context.Context, user *models.User, courses []dto.CourseInput) error
	CreateConsultant(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter models.UserFilter) ([]dto.UserListItem, int, error)
	UpdateStatus(ctx context.Context, id string, isActive bool, deactivatedUntil *time.Time) (*models.User, error)
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

type userCourseRepository interface {
	CoursesOfStudent(ctx context.Context, studentID string) ([]dto.StudentCourse, error)
	ForFaculty(ctx context.Context, facultyID string) ([]models.CourseWithStats, error)
}

type userMoodRepository interface {
	SummaryForStudent(ctx context.Context, studentID string) (*dto.StudentMoodSummary, error)
}

// UserService handles admin user management.
type UserService struct {
	users     userRepository
	courses   userCourseRepository
	moods     userMoodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users userRepository, courses userCourseRepository, moods userMoodRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, courses: courses, moods: moods, validator: validate, logger: logger}
}

// AddFaculty creates a faculty account and claims its courses.
func (s *UserService) AddFaculty(ctx context.Context, req dto.AddFacultyRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	conflict, err := s.users.FindConflicting(ctx, username, email, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing users")
	}
	if conflict != "" {
		return nil, appErrors.Clone(appErrors.ErrConflict, conflict+" already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:         req.Name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleFaculty,
		IsActive:     true,
	}
	if err := s.users.CreateFaculty(ctx, user, req.Courses); err != nil {
		if errors.Is(err, repository.ErrCourseAssigned) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "course already assigned to another faculty member")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}

	s.logger.Info("faculty created", zap.String("user_id", user.ID))
	return user, nil
}

// AddConsultant creates a consultant account.
func (s *UserService) AddConsultant(ctx context.Context, req dto.AddConsultantRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid consultant payload")
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	conflict, err := s.users.FindConflicting(ctx, username, email, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing users")
	}
	if conflict != "" {
		return nil, appErrors.Clone(appErrors.ErrConflict, conflict+" already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:         req.Name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleConsultant,
		IsActive:     true,
	}
	if err := s.users.CreateConsultant(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create consultant")
	}

	s.logger.Info("consultant created", zap.String("user_id", user.ID))
	return user, nil
}

// List returns a filtered, paginated user listing.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]dto.UserListItem, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 10
	}
	items, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return items, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Detail returns a user enriched with role-specific data: courses for
// students and faculty, mood aggregates for students.
func (s *UserService) Detail(ctx context.Context, id string) (*dto.UserDetail, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	detail := &dto.UserDetail{User: user}
	switch user.Role {
	case models.RoleStudent:
		courses, err := s.courses.CoursesOfStudent(ctx, user.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student courses")
		}
		detail.Courses = courses
		summary, err := s.moods.SummaryForStudent(ctx, user.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mood summary")
		}
		detail.MoodStats = summary
	case models.RoleFaculty:
		courses, err := s.courses.ForFaculty(ctx, user.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty courses")
		}
		detail.Courses = courses
	}
	return detail, nil
}

// UpdateStatus activates or deactivates an account. Admin accounts cannot
// be deactivated.
func (s *UserService) UpdateStatus(ctx context.Context, id string, req dto.UpdateUserStatusRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "is_active is required")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role == models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot be deactivated")
	}

	updated, err := s.users.UpdateStatus(ctx, id, *req.IsActive, req.DeactivatedUntil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}
	s.logger.Info("user status updated", zap.String("user_id", id), zap.Bool("is_active", *req.IsActive))
	return updated, nil
}

// Delete deactivates an account; hard removes it when purge is set.
func (s *UserService) Delete(ctx context.Context, id string, purge bool) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role == models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot be deleted")
	}

	if purge {
		err = s.users.HardDelete(ctx, id)
	} else {
		err = s.users.SoftDelete(ctx, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.Bool("purge", purge))
	return nil
}
