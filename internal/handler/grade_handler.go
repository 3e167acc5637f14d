package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulearn-id/lms-api/internal/service"
	appErrors "github.com/edulearn-id/lms-api/pkg/errors"
	"github.com/edulearn-id/lms-api/pkg/response"
)

// GradeHandler exposes final grade recalculation endpoints.
type GradeHandler struct {
	recalc *service.RecalcService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(recalc *service.RecalcService) *GradeHandler {
	return &GradeHandler{recalc: recalc}
}

// RecalculateCourseRequest scopes a course-wide recalculation.
type RecalculateCourseRequest struct {
	CourseID string `json:"course_id" binding:"required"`
}

// RecalculateEnrollmentRequest scopes a single enrollment recalculation.
type RecalculateEnrollmentRequest struct {
	CourseID  string `json:"course_id" binding:"required"`
	StudentID string `json:"student_id" binding:"required"`
}

// Summary godoc
// @Summary Stored grade snapshot for one enrollment
// @Tags Grades
// @Produce json
// @Param studentId query string true "Student ID"
// @Param courseId query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /grades/summary [get]
func (h *GradeHandler) Summary(c *gin.Context) {
	studentID := c.Query("studentId")
	courseID := c.Query("courseId")
	if studentID == "" || courseID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId and courseId are required"))
		return
	}
	summary, err := h.recalc.Summary(c.Request.Context(), courseID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Recalculate godoc
// @Summary Enqueue recalculation for every active enrollment in a course
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body RecalculateCourseRequest true "Scope payload"
// @Success 202 {object} response.Envelope
// @Router /grades/recalculate [post]
func (h *GradeHandler) Recalculate(c *gin.Context) {
	var req RecalculateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enqueued, err := h.recalc.EnqueueCourseRecalculation(c.Request.Context(), req.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "enqueued", "jobs": enqueued}, nil)
}

// RecalculateEnrollment godoc
// @Summary Recalculate one enrollment synchronously
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body RecalculateEnrollmentRequest true "Scope payload"
// @Success 200 {object} response.Envelope
// @Router /grades/recalculate/enrollment [post]
func (h *GradeHandler) RecalculateEnrollment(c *gin.Context) {
	var req RecalculateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.recalc.RecalculateAndPersist(c.Request.Context(), req.CourseID, req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
