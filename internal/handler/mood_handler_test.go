package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/middleware"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/internal/service"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
)

type moodServiceMock struct {
	recordResp   *dto.MoodEntryResult
	recordErr    error
	listResp     *dto.MoodListResult
	listErr      error
	todayResp    *models.MoodEntry
	todayErr     error
	updateErr    error
	deleteErr    error
	lastFilter   dto.MoodListFilter
	recordCalled bool
}

func (m *moodServiceMock) Record(ctx context.Context, studentID string, req dto.CreateMoodEntryRequest) (*dto.MoodEntryResult, error) {
	m.recordCalled = true
	return m.recordResp, m.recordErr
}

func (m *moodServiceMock) List(ctx context.Context, studentID string, filter dto.MoodListFilter) (*dto.MoodListResult, error) {
	m.lastFilter = filter
	return m.listResp, m.listErr
}

func (m *moodServiceMock) Today(ctx context.Context, studentID string) (*models.MoodEntry, error) {
	return m.todayResp, m.todayErr
}

func (m *moodServiceMock) Update(ctx context.Context, id, studentID string, req dto.UpdateMoodEntryRequest) (*models.MoodEntry, error) {
	return m.todayResp, m.updateErr
}

func (m *moodServiceMock) Delete(ctx context.Context, id, studentID string) error {
	return m.deleteErr
}

func (m *moodServiceMock) CourseAnalytics(ctx context.Context, facultyID string) ([]models.CourseMoodStats, error) {
	return nil, nil
}

func (m *moodServiceMock) VulnerableStudents(ctx context.Context, facultyID string) ([]models.VulnerableStudent, error) {
	return nil, nil
}

func studentContext(w *httptest.ResponseRecorder) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
	return c, r
}

func TestMoodHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &moodServiceMock{
		recordResp: &dto.MoodEntryResult{Entry: &models.MoodEntry{ID: "entry-1", MoodLevel: 8}},
	}
	handler := NewMoodHandler(mockSvc, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/student/mood", bytes.NewBufferString(`{"mood_level":8}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.recordCalled)
	assert.Contains(t, w.Body.String(), "mood entry recorded")
}

func TestMoodHandlerCreateLowMoodMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &moodServiceMock{
		recordResp: &dto.MoodEntryResult{
			Entry:              &models.MoodEntry{ID: "entry-1", MoodLevel: 2},
			AutoRecommendation: &models.Recommendation{ID: "rec-1"},
		},
	}
	handler := NewMoodHandler(mockSvc, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/student/mood", bytes.NewBufferString(`{"mood_level":2}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "counseling recommended")
}

func TestMoodHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMoodHandler(&moodServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/student/mood", bytes.NewBufferString(`{"mood_level":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoodHandlerCreateDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &moodServiceMock{recordErr: appErrors.Clone(appErrors.ErrConflict, "mood already recorded for this date")}
	handler := NewMoodHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/student/mood", bytes.NewBufferString(`{"mood_level":5}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestMoodHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &moodServiceMock{listResp: &dto.MoodListResult{}}
	handler := NewMoodHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/student/mood?period=7days&page=2&limit=5", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7days", mockSvc.lastFilter.Period)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 5, mockSvc.lastFilter.Limit)
}

func TestMoodHandlerDeleteForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &moodServiceMock{deleteErr: appErrors.Clone(appErrors.ErrForbidden, "only today's entry can be deleted")}
	handler := NewMoodHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/student/mood/entry-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "entry-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestMoodHandlerUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMoodHandler(&moodServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/student/mood/today", nil)
	c.Request = req

	handler.Today(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
