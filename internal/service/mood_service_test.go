package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/internal/repository"
	"github.com/campuswell/wellness-api/pkg/config"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
)

type mockMoodRepo struct {
	entries     map[string]models.MoodEntry
	existing    map[string]bool
	createdRec  *models.Recommendation
	createErr   error
	lastAuto    repository.AutoRecommendationParams
	courseStats []models.CourseMoodStats
	vulnerable  []models.VulnerableStudent
}

func (m *mockMoodRepo) ExistsForDate(ctx context.Context, studentID, date string) (bool, error) {
	return m.existing[studentID+date], nil
}

func (m *mockMoodRepo) Create(ctx context.Context, entry *models.MoodEntry, auto repository.AutoRecommendationParams) (*models.Recommendation, error) {
	m.lastAuto = auto
	if m.createErr != nil {
		return nil, m.createErr
	}
	entry.ID = "mood-1"
	entry.CreatedAt = time.Now()
	if m.entries == nil {
		m.entries = make(map[string]models.MoodEntry)
	}
	m.entries[entry.ID] = *entry
	if entry.MoodLevel < auto.Threshold {
		m.createdRec = &models.Recommendation{
			ID:        "rec-1",
			StudentID: entry.StudentID,
			Type:      models.RecommendationAuto,
			Status:    models.RecommendationPending,
			Reason:    auto.Reason,
		}
		return m.createdRec, nil
	}
	return nil, nil
}

func (m *mockMoodRepo) List(ctx context.Context, studentID string, filter dto.MoodListFilter) ([]models.MoodEntry, *models.MoodStatistics, int, error) {
	var entries []models.MoodEntry
	for _, e := range m.entries {
		if e.StudentID == studentID {
			entries = append(entries, e)
		}
	}
	return entries, &models.MoodStatistics{TotalEntries: len(entries)}, len(entries), nil
}

func (m *mockMoodRepo) FindOwned(ctx context.Context, id, studentID string) (*models.MoodEntry, error) {
	if e, ok := m.entries[id]; ok && e.StudentID == studentID {
		return &e, nil
	}
	return nil, errNoRows()
}

func (m *mockMoodRepo) FindByDate(ctx context.Context, studentID, date string) (*models.MoodEntry, error) {
	for _, e := range m.entries {
		if e.StudentID == studentID && e.EntryDate == date {
			return &e, nil
		}
	}
	return nil, errNoRows()
}

func (m *mockMoodRepo) Update(ctx context.Context, id, studentID string, req dto.UpdateMoodEntryRequest) (*models.MoodEntry, error) {
	e := m.entries[id]
	if req.MoodLevel != nil {
		e.MoodLevel = *req.MoodLevel
	}
	m.entries[id] = e
	return &e, nil
}

func (m *mockMoodRepo) Delete(ctx context.Context, id, studentID string) error {
	delete(m.entries, id)
	return nil
}

func (m *mockMoodRepo) CourseStats(ctx context.Context, facultyID string) ([]models.CourseMoodStats, error) {
	return m.courseStats, nil
}

func (m *mockMoodRepo) VulnerableStudents(ctx context.Context, facultyID string, threshold int) ([]models.VulnerableStudent, error) {
	return m.vulnerable, nil
}

func wellnessConfig() config.WellnessConfig {
	return config.WellnessConfig{
		MoodAutoThreshold:        4,
		RecommendationCooldown:   7 * 24 * time.Hour,
		AutoRecommendationWindow: 7 * 24 * time.Hour,
		SlotDayStart:             9 * time.Hour,
		SlotDayEnd:               17 * time.Hour,
		SlotInterval:             30 * time.Minute,
	}
}

func TestMoodServiceRecordLowMoodCreatesRecommendation(t *testing.T) {
	repo := &mockMoodRepo{existing: map[string]bool{}}
	svc := NewMoodService(repo, wellnessConfig(), nil, nil)

	result, err := svc.Record(context.Background(), "student-1", dto.CreateMoodEntryRequest{MoodLevel: 2})
	require.NoError(t, err)
	require.NotNil(t, result.AutoRecommendation)
	assert.Equal(t, models.RecommendationAuto, result.AutoRecommendation.Type)
	assert.Contains(t, repo.lastAuto.Reason, "Auto-recommended due to low mood level (2/10)")
	assert.Equal(t, 4, repo.lastAuto.Threshold)
}

func TestMoodServiceRecordHighMoodNoRecommendation(t *testing.T) {
	repo := &mockMoodRepo{existing: map[string]bool{}}
	svc := NewMoodService(repo, wellnessConfig(), nil, nil)

	result, err := svc.Record(context.Background(), "student-1", dto.CreateMoodEntryRequest{MoodLevel: 8})
	require.NoError(t, err)
	assert.Nil(t, result.AutoRecommendation)
}

func TestMoodServiceRecordDuplicateDate(t *testing.T) {
	today := time.Now().Format(dateLayout)
	repo := &mockMoodRepo{existing: map[string]bool{"student-1" + today: true}}
	svc := NewMoodService(repo, wellnessConfig(), nil, nil)

	_, err := svc.Record(context.Background(), "student-1", dto.CreateMoodEntryRequest{MoodLevel: 5})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestMoodServiceRecordDuplicateDateRace(t *testing.T) {
	// Two requests can pass the existence check before either inserts; the
	// unique constraint catches the loser and it still maps to a conflict.
	repo := &mockMoodRepo{existing: map[string]bool{}, createErr: repository.ErrDuplicateEntry}
	svc := NewMoodService(repo, wellnessConfig(), nil, nil)

	_, err := svc.Record(context.Background(), "student-1", dto.CreateMoodEntryRequest{MoodLevel: 5})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, appErrors.ErrConflict.Status, appErrors.FromError(err).Status)
}

func TestMoodServiceRecordFutureDate(t *testing.T) {
	repo := &mockMoodRepo{existing: map[string]bool{}}
	svc := NewMoodService(repo, wellnessConfig(), nil, nil)

	future := time.Now().AddDate(0, 0, 2).Format(dateLayout)
	_, err := svc.Record(context.Background(), "student-1", dto.CreateMoodEntryRequest{MoodLevel: 5, EntryDate: &future})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMoodServiceRecordInvalidLevel(t *testing.T) {
	repo := &mockMoodRepo{existing: map[string]bool{}}
	svc := NewMoodService(repo, wellnessConfig(), nil, nil)

	_, err := svc.Record(context.Background(), "student-1", dto.CreateMoodEntryRequest{MoodLevel: 11})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMoodServiceUpdateOnlyToday(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1).Format(dateLayout)
	repo := &mockMoodRepo{entries: map[string]models.MoodEntry{
		"mood-1": {ID: "mood-1", StudentID: "student-1", MoodLevel: 5, EntryDate: yesterday},
	}}
	svc := NewMoodService(repo, wellnessConfig(), nil, nil)

	level := 7
	_, err := svc.Update(context.Background(), "mood-1", "student-1", dto.UpdateMoodEntryRequest{MoodLevel: &level})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMoodServiceDeleteOnlyToday(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1).Format(dateLayout)
	repo := &mockMoodRepo{entries: map[string]models.MoodEntry{
		"mood-1": {ID: "mood-1", StudentID: "student-1", MoodLevel: 5, EntryDate: yesterday},
	}}
	svc := NewMoodService(repo, wellnessConfig(), nil, nil)

	err := svc.Delete(context.Background(), "mood-1", "student-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Contains(t, repo.entries, "mood-1")
}

func TestMoodServiceUpdateToday(t *testing.T) {
	today := time.Now().Format(dateLayout)
	repo := &mockMoodRepo{entries: map[string]models.MoodEntry{
		"mood-1": {ID: "mood-1", StudentID: "student-1", MoodLevel: 5, EntryDate: today},
	}}
	svc := NewMoodService(repo, wellnessConfig(), nil, nil)

	level := 7
	entry, err := svc.Update(context.Background(), "mood-1", "student-1", dto.UpdateMoodEntryRequest{MoodLevel: &level})
	require.NoError(t, err)
	assert.Equal(t, 7, entry.MoodLevel)
}
