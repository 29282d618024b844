package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
	"github.com/campuswell/wellness-api/pkg/response"
)

type recommendationService interface {
	CreateFaculty(ctx context.Context, facultyID string, req dto.CreateRecommendationRequest) (*models.Recommendation, error)
	ListForStudent(ctx context.Context, studentID string, filter dto.RecommendationFilter) ([]dto.StudentRecommendationItem, *models.Pagination, error)
	ListForConsultant(ctx context.Context, consultantID string, filter dto.RecommendationFilter) ([]dto.ConsultantRecommendationItem, *models.Pagination, error)
	ListForFaculty(ctx context.Context, facultyID string, filter dto.RecommendationFilter) ([]dto.FacultyRecommendationItem, *models.Pagination, error)
	Detail(ctx context.Context, id string, claims *models.JWTClaims) (*dto.RecommendationDetail, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateRecommendationStatusRequest) (*models.Recommendation, error)
}

// RecommendationHandler exposes the counseling recommendation lifecycle.
type RecommendationHandler struct {
	recommendations recommendationService
}

// NewRecommendationHandler constructs RecommendationHandler.
func NewRecommendationHandler(svc recommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendations: svc}
}

func recommendationFilter(c *gin.Context) dto.RecommendationFilter {
	var filter dto.RecommendationFilter
	filter.Status = c.Query("status")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.Limit = limit
	}
	return filter
}

// Create godoc
// @Summary Refer a student for counseling
// @Description Faculty referral; blocked while the student is inside a cooldown window
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param payload body dto.CreateRecommendationRequest true "Referral payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /faculty/recommendations [post]
func (h *RecommendationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid referral payload"))
		return
	}

	rec, err := h.recommendations.CreateFaculty(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "recommendation created", rec)
}

// ListForStudent godoc
// @Summary List own recommendations
// @Tags Recommendations
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /student/recommendations [get]
func (h *RecommendationHandler) ListForStudent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, pagination, err := h.recommendations.ListForStudent(c.Request.Context(), claims.UserID, recommendationFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "recommendations retrieved", items, pagination)
}

// ListForConsultant godoc
// @Summary List the consultant queue
// @Description Unassigned pending referrals plus the consultant's own cases
// @Tags Recommendations
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /consultant/recommendations [get]
func (h *RecommendationHandler) ListForConsultant(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, pagination, err := h.recommendations.ListForConsultant(c.Request.Context(), claims.UserID, recommendationFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "recommendations retrieved", items, pagination)
}

// ListForFaculty godoc
// @Summary List own referrals
// @Tags Recommendations
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /faculty/recommendations [get]
func (h *RecommendationHandler) ListForFaculty(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, pagination, err := h.recommendations.ListForFaculty(c.Request.Context(), claims.UserID, recommendationFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "recommendations retrieved", items, pagination)
}

// Detail godoc
// @Summary Get one recommendation
// @Tags Recommendations
// @Produce json
// @Param id path string true "Recommendation ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /student/recommendations/{id} [get]
func (h *RecommendationHandler) Detail(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.recommendations.Detail(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "recommendation retrieved", detail)
}

// UpdateStatus godoc
// @Summary Advance a recommendation's status
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param id path string true "Recommendation ID"
// @Param payload body dto.UpdateRecommendationStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /consultant/recommendations/{id}/status [put]
func (h *RecommendationHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateRecommendationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	rec, err := h.recommendations.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "recommendation status updated", rec)
}
