package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
)

const dashboardCacheKey = "stats:dashboard"

type statsUserRepository interface {
	RoleStats(ctx context.Context) ([]dto.RoleCount, error)
}

type statsMoodRepository interface {
	Overview(ctx context.Context) (*dto.MoodOverview, error)
}

type statsAppointmentRepository interface {
	StatusStats(ctx context.Context) ([]models.AppointmentStatusCount, error)
	ConsultantStats(ctx context.Context) ([]models.ConsultantPerformance, error)
	DailyStats(ctx context.Context) ([]models.DailyAppointmentCount, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// StatsService assembles the admin dashboard, cached in Redis for a short
// TTL since the underlying aggregates span several tables.
type StatsService struct {
	users        statsUserRepository
	moods        statsMoodRepository
	appointments statsAppointmentRepository
	cache        statsCache
	ttl          time.Duration
	logger       *zap.Logger
}

// NewStatsService constructs the service.
func NewStatsService(users statsUserRepository, moods statsMoodRepository, appointments statsAppointmentRepository, cache statsCache, ttl time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{users: users, moods: moods, appointments: appointments, cache: cache, ttl: ttl, logger: logger}
}

// Dashboard returns user, mood and appointment aggregates for the admin
// overview. Cache failures fall through to the database.
func (s *StatsService) Dashboard(ctx context.Context) (*dto.DashboardStats, error) {
	var cached dto.DashboardStats
	if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}

	userStats, err := s.users.RoleStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user stats")
	}
	moodStats, err := s.moods.Overview(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mood stats")
	}
	appointmentStats, err := s.appointments.StatusStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment stats")
	}

	stats := &dto.DashboardStats{
		UserStats:        userStats,
		MoodStats:        moodStats,
		AppointmentStats: appointmentStats,
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, stats, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return stats, nil
}

// AppointmentStats returns the detailed 30-day appointment block.
func (s *StatsService) AppointmentStats(ctx context.Context) (*dto.AppointmentStats, error) {
	statusStats, err := s.appointments.StatusStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status stats")
	}
	consultantStats, err := s.appointments.ConsultantStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consultant stats")
	}
	dailyStats, err := s.appointments.DailyStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily stats")
	}
	return &dto.AppointmentStats{
		StatusStats:     statusStats,
		ConsultantStats: consultantStats,
		DailyStats:      dailyStats,
	}, nil
}
