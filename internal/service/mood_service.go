package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/internal/repository"
	"github.com/campuswell/wellness-api/pkg/config"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type moodRepository interface {
	ExistsForDate(ctx context.Context, studentID, date string) (bool, error)
	Create(ctx context.Context, entry *models.MoodEntry, auto repository.AutoRecommendationParams) (*models.Recommendation, error)
	List(ctx context.Context, studentID string, filter dto.MoodListFilter) ([]models.MoodEntry, *models.MoodStatistics, int, error)
	FindOwned(ctx context.Context, id, studentID string) (*models.MoodEntry, error)
	FindByDate(ctx context.Context, studentID, date string) (*models.MoodEntry, error)
	Update(ctx context.Context, id, studentID string, req dto.UpdateMoodEntryRequest) (*models.MoodEntry, error)
	Delete(ctx context.Context, id, studentID string) error
	CourseStats(ctx context.Context, facultyID string) ([]models.CourseMoodStats, error)
	VulnerableStudents(ctx context.Context, facultyID string, threshold int) ([]models.VulnerableStudent, error)
}

// MoodService handles mood tracking and the faculty wellness analytics
// derived from it.
type MoodService struct {
	repo      moodRepository
	cfg       config.WellnessConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewMoodService constructs the service.
func NewMoodService(repo moodRepository, cfg config.WellnessConfig, validate *validator.Validate, logger *zap.Logger) *MoodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MoodService{repo: repo, cfg: cfg, validator: validate, logger: logger, now: time.Now}
}

// Record stores one mood entry for the student. A level below the
// configured threshold triggers an automatic counseling recommendation
// unless one was already auto-created inside the dedup window.
func (s *MoodService) Record(ctx context.Context, studentID string, req dto.CreateMoodEntryRequest) (*dto.MoodEntryResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "mood_level must be between 1 and 10")
	}

	today := s.now().Format(dateLayout)
	entryDate := today
	if req.EntryDate != nil {
		entryDate = *req.EntryDate
	}
	if entryDate > today {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entry_date cannot be in the future")
	}

	exists, err := s.repo.ExistsForDate(ctx, studentID, entryDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing entry")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "mood entry already recorded for this date")
	}

	entry := &models.MoodEntry{
		StudentID: studentID,
		MoodLevel: req.MoodLevel,
		Notes:     req.Notes,
		EntryDate: entryDate,
	}
	rec, err := s.repo.Create(ctx, entry, repository.AutoRecommendationParams{
		Threshold:   s.cfg.MoodAutoThreshold,
		DedupWindow: s.cfg.AutoRecommendationWindow,
		Reason:      fmt.Sprintf("Auto-recommended due to low mood level (%d/10) on %s", req.MoodLevel, entryDate),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "mood entry already recorded for this date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record mood entry")
	}

	if rec != nil {
		s.logger.Info("auto recommendation created",
			zap.String("student_id", studentID),
			zap.Int("mood_level", req.MoodLevel),
			zap.String("recommendation_id", rec.ID))
	}
	return &dto.MoodEntryResult{Entry: entry, AutoRecommendation: rec}, nil
}

// List returns the student's entries for the requested period together with
// window statistics.
func (s *MoodService) List(ctx context.Context, studentID string, filter dto.MoodListFilter) (*dto.MoodListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 10
	}
	entries, stats, total, err := s.repo.List(ctx, studentID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mood entries")
	}
	return &dto.MoodListResult{
		Entries:    entries,
		Statistics: stats,
		Pagination: models.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// Today returns the student's entry for the current date, or NotFound.
func (s *MoodService) Today(ctx context.Context, studentID string) (*models.MoodEntry, error) {
	entry, err := s.repo.FindByDate(ctx, studentID, s.now().Format(dateLayout))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no mood entry recorded today")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mood entry")
	}
	return entry, nil
}

// Update edits an entry. Entries are mutable only on the day they cover.
func (s *MoodService) Update(ctx context.Context, id, studentID string, req dto.UpdateMoodEntryRequest) (*models.MoodEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mood payload")
	}

	entry, err := s.repo.FindOwned(ctx, id, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mood entry")
	}
	if entry.EntryDate != s.now().Format(dateLayout) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only today's entry can be edited")
	}

	updated, err := s.repo.Update(ctx, id, studentID, req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mood entry")
	}
	return updated, nil
}

// Delete removes an entry; like Update it only applies to today's entry.
func (s *MoodService) Delete(ctx context.Context, id, studentID string) error {
	entry, err := s.repo.FindOwned(ctx, id, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mood entry")
	}
	if entry.EntryDate != s.now().Format(dateLayout) {
		return appErrors.Clone(appErrors.ErrForbidden, "only today's entry can be deleted")
	}

	if err := s.repo.Delete(ctx, id, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete mood entry")
	}
	return nil
}

// CourseAnalytics aggregates mood data per course for a faculty member.
func (s *MoodService) CourseAnalytics(ctx context.Context, facultyID string) ([]models.CourseMoodStats, error) {
	stats, err := s.repo.CourseStats(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course analytics")
	}
	return stats, nil
}

// VulnerableStudents lists the faculty member's students whose recent
// average mood sits below the auto-recommendation threshold.
func (s *MoodService) VulnerableStudents(ctx context.Context, facultyID string) ([]models.VulnerableStudent, error) {
	students, err := s.repo.VulnerableStudents(ctx, facultyID, s.cfg.MoodAutoThreshold)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vulnerable students")
	}
	return students, nil
}
