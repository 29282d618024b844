package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/internal/service"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
	"github.com/campuswell/wellness-api/pkg/response"
)

type moodService interface {
	Record(ctx context.Context, studentID string, req dto.CreateMoodEntryRequest) (*dto.MoodEntryResult, error)
	List(ctx context.Context, studentID string, filter dto.MoodListFilter) (*dto.MoodListResult, error)
	Today(ctx context.Context, studentID string) (*models.MoodEntry, error)
	Update(ctx context.Context, id, studentID string, req dto.UpdateMoodEntryRequest) (*models.MoodEntry, error)
	Delete(ctx context.Context, id, studentID string) error
	CourseAnalytics(ctx context.Context, facultyID string) ([]models.CourseMoodStats, error)
	VulnerableStudents(ctx context.Context, facultyID string) ([]models.VulnerableStudent, error)
}

// MoodHandler exposes mood tracking endpoints for students and the faculty
// analytics views built on top of them.
type MoodHandler struct {
	moods   moodService
	metrics *service.MetricsService
}

// NewMoodHandler constructs MoodHandler.
func NewMoodHandler(moods moodService, metrics *service.MetricsService) *MoodHandler {
	return &MoodHandler{moods: moods, metrics: metrics}
}

// Create godoc
// @Summary Record mood entry
// @Description Record today's mood; a low level triggers an automatic counseling recommendation
// @Tags Mood
// @Accept json
// @Produce json
// @Param payload body dto.CreateMoodEntryRequest true "Mood payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/mood [post]
func (h *MoodHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateMoodEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mood payload"))
		return
	}

	result, err := h.moods.Record(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountMoodEntry(result.AutoRecommendation != nil)

	message := "mood entry recorded"
	if result.AutoRecommendation != nil {
		message = "mood entry recorded and counseling recommended"
	}
	response.Created(c, message, result)
}

// List godoc
// @Summary List own mood entries
// @Tags Mood
// @Produce json
// @Param period query string false "today, 7days, 30days or 90days"
// @Param start_date query string false "Range start (YYYY-MM-DD)"
// @Param end_date query string false "Range end (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /student/mood [get]
func (h *MoodHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter dto.MoodListFilter
	filter.Period = c.Query("period")
	filter.StartDate = c.Query("start_date")
	filter.EndDate = c.Query("end_date")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.Limit = limit
	}

	result, err := h.moods.List(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "mood entries retrieved", result, result.Pagination)
}

// Today godoc
// @Summary Get today's mood entry
// @Tags Mood
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/mood/today [get]
func (h *MoodHandler) Today(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	entry, err := h.moods.Today(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "today's mood retrieved", entry)
}

// Update godoc
// @Summary Update today's mood entry
// @Tags Mood
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.UpdateMoodEntryRequest true "Mood payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /student/mood/{id} [put]
func (h *MoodHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateMoodEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mood payload"))
		return
	}

	entry, err := h.moods.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "mood entry updated", entry)
}

// Delete godoc
// @Summary Delete today's mood entry
// @Tags Mood
// @Param id path string true "Entry ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /student/mood/{id} [delete]
func (h *MoodHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.moods.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CourseAnalytics godoc
// @Summary Per-course mood analytics for the faculty's courses
// @Tags Mood
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/mood-analytics [get]
func (h *MoodHandler) CourseAnalytics(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.moods.CourseAnalytics(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "course analytics retrieved", stats)
}

// VulnerableStudents godoc
// @Summary Students of the faculty with a low 7-day mood average
// @Tags Mood
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/vulnerable-students [get]
func (h *MoodHandler) VulnerableStudents(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	students, err := h.moods.VulnerableStudents(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "vulnerable students retrieved", students)
}
